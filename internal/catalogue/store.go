// Package catalogue is the durable store of spec §3/§6: jobs, profiles,
// matches, applications, and drafts. Two implementations satisfy Store —
// postgres.go for production (grounded in the teacher's
// go/materialize/driver/sql/postgres.go) and sqlite.go for local dev/CI
// (grounded in the teacher's go/materialize/driver/sql/sqlite.go and the
// driver-choice flag of go/sql-driver/main.go) — so the suite can exercise
// real SQL semantics (ON CONFLICT upserts, joins) without a Postgres
// fixture.
package catalogue

import (
	"context"
	"encoding/json"
	"time"
)

// Job is the durable row for spec §3's Job entity.
type Job struct {
	BppID          string
	ProviderID     string
	JobID          string
	BecknStructure json.RawMessage
	Metadata       json.RawMessage
	Hash           string
	TransactionID  string
	BppURI         string
	LastSyncedAt   time.Time
	UpdatedAt      time.Time
}

// Profile is the durable row for spec §3's Profile entity.
type Profile struct {
	ProfileID      string
	UserID         string
	Type           string
	Metadata       json.RawMessage
	BecknStructure json.RawMessage
	Hash           string
	LastSyncedAt   time.Time
	UpdatedAt      time.Time
}

// Match is the durable row for spec §3's Match entity.
type Match struct {
	JobID          string
	ProfileID      string
	JobHash        string
	ProfileHash    string
	MatchScore     int16
	ScoreBreakdown json.RawMessage
	ComputedAt     time.Time
	UpdatedAt      time.Time
}

// Application is the durable row for spec §3's Application entity.
type Application struct {
	UserID        string
	JobID         string
	OrderID       string
	TransactionID string
	BppID         string
	BppURI        string
	Status        string
	Metadata      json.RawMessage
}

// Draft is the durable row for spec §3's Draft entity.
type Draft struct {
	ID         int64
	UserID     string
	JobID      string
	BppID      string
	BppURI     string
	Metadata   json.RawMessage
	CreatedAt  time.Time
	ModifiedAt time.Time
}

// JobProfilePair identifies one (job, profile) pairing for the match
// engine's reconciliation pass.
type JobProfilePair struct {
	JobID     string
	ProfileID string
}

// JobFilter narrows a job listing query (spec §4.5.1/§4.5.2 filters).
type JobFilter struct {
	Provider  string
	Role      string
	Primary   string
	Exclude   []string
	FreeText  string
	Limit     int
	Offset    int
}

// Store is the full durable-persistence contract the rest of the system
// depends on. Both postgres.go and sqlite.go implement it; the sqlite
// ListJobsByFilter matches free text with LIKE rather than pg_trgm's %.
type Store interface {
	// Jobs
	UpsertJob(ctx context.Context, j Job) error
	DeleteStaleJobs(ctx context.Context, bppID, latestTxnID string) (int64, error)
	GetJob(ctx context.Context, jobID, providerID string) (*Job, error)
	GetJobByID(ctx context.Context, jobID string) (*Job, error)
	ListJobsWithoutMatch(ctx context.Context, limit int) ([]Job, error)
	AllJobs(ctx context.Context) ([]Job, error)
	ListJobsByFilter(ctx context.Context, profileID string, f JobFilter) ([]JobWithScore, int64, error)

	// Profiles
	UpsertProfile(ctx context.Context, p Profile, syncStarted time.Time) error
	DeleteStaleProfiles(ctx context.Context, syncStarted time.Time) (int64, error)
	GetProfile(ctx context.Context, profileID string) (*Profile, error)
	ListProfilesWithoutMatch(ctx context.Context, limit int) ([]Profile, error)
	AllProfiles(ctx context.Context) ([]Profile, error)

	// Matches
	UpsertMatch(ctx context.Context, m Match) error
	ListStaleMatches(ctx context.Context, limit int) ([]Match, error)
	ListMissingPairs(ctx context.Context, limit int) ([]JobProfilePair, error)
	MatchesAboveThreshold(ctx context.Context, threshold int16, limit, offset int) ([]MatchWithJob, error)

	// Applications
	GetApplication(ctx context.Context, userID, jobID string) (*Application, error)
	InsertApplication(ctx context.Context, a Application) error
	ListApplications(ctx context.Context, userID, status string) ([]Application, error)

	// Drafts
	UpsertDraft(ctx context.Context, d Draft) (Draft, error)
	GetDraft(ctx context.Context, id int64) (*Draft, error)
	ListDrafts(ctx context.Context, userID string) ([]Draft, error)
	UpdateDraft(ctx context.Context, id int64, mergePatch json.RawMessage) (*Draft, error)
	DeleteDraft(ctx context.Context, id int64) error

	Close() error
}

// JobWithScore pairs a job with its stored match_score, the shape
// spec §4.5.2's durable-store query returns.
type JobWithScore struct {
	Job
	MatchScore int16
}

// MatchWithJob pairs a match row with enough job detail for notification
// templating (spec §4.9).
type MatchWithJob struct {
	Match
	Job Job
}
