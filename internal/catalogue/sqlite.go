package catalogue

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore is the local dev/CI implementation of Store, grounded in the
// teacher's driver-choice pattern (go/sql-driver/main.go picks a driver by
// flag; go/materialize/driver/sql/sqlite.go shows the sqlite3 dialect
// quirks — no native UPSERT RETURNING before 3.35, no jsonb type, %
// trigram operator unavailable so free text falls back to LIKE).
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (and migrates) a sqlite3 database at path. Pass
// ":memory:" for ephemeral test stores.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("catalogue: open sqlite %s: %w", path, err)
	}
	db.SetMaxOpenConns(1) // sqlite3 driver is not safe for concurrent writers
	s := &SQLiteStore{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) migrate() error {
	const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	job_id TEXT NOT NULL,
	provider_id TEXT NOT NULL,
	beckn_structure TEXT NOT NULL,
	metadata TEXT NOT NULL,
	hash TEXT NOT NULL,
	transaction_id TEXT NOT NULL,
	bpp_id TEXT NOT NULL,
	bpp_uri TEXT NOT NULL,
	last_synced_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (job_id, provider_id)
);
CREATE TABLE IF NOT EXISTS profiles (
	profile_id TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	type TEXT NOT NULL,
	metadata TEXT NOT NULL,
	beckn_structure TEXT NOT NULL,
	hash TEXT NOT NULL,
	last_synced_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS job_profile_matches (
	job_id TEXT NOT NULL,
	profile_id TEXT NOT NULL,
	job_hash TEXT NOT NULL,
	profile_hash TEXT NOT NULL,
	match_score INTEGER NOT NULL,
	score_breakdown TEXT NOT NULL,
	computed_at TIMESTAMP NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	PRIMARY KEY (job_id, profile_id)
);
CREATE TABLE IF NOT EXISTS job_applications (
	user_id TEXT NOT NULL,
	job_id TEXT NOT NULL,
	order_id TEXT NOT NULL,
	transaction_id TEXT NOT NULL,
	bpp_id TEXT NOT NULL,
	bpp_uri TEXT NOT NULL,
	status TEXT NOT NULL,
	metadata TEXT NOT NULL,
	PRIMARY KEY (user_id, job_id)
);
CREATE TABLE IF NOT EXISTS draft_applications (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	user_id TEXT NOT NULL,
	job_id TEXT NOT NULL,
	bpp_id TEXT NOT NULL,
	bpp_uri TEXT NOT NULL,
	metadata TEXT NOT NULL,
	created_at TIMESTAMP NOT NULL,
	modified_at TIMESTAMP NOT NULL,
	UNIQUE (user_id, job_id, bpp_id)
);
`
	_, err := s.db.Exec(schema)
	if err != nil {
		return fmt.Errorf("catalogue: migrate sqlite schema: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

// --- Jobs ---

func (s *SQLiteStore) UpsertJob(ctx context.Context, j Job) error {
	const q = `
INSERT INTO jobs (job_id, provider_id, beckn_structure, metadata, hash, transaction_id, bpp_id, bpp_uri, last_synced_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (job_id, provider_id) DO UPDATE SET
  beckn_structure = CASE WHEN hash <> excluded.hash THEN excluded.beckn_structure ELSE beckn_structure END,
  metadata        = CASE WHEN hash <> excluded.hash THEN excluded.metadata ELSE metadata END,
  hash            = excluded.hash,
  transaction_id  = excluded.transaction_id,
  bpp_uri         = excluded.bpp_uri,
  last_synced_at  = excluded.last_synced_at,
  updated_at      = CASE WHEN hash <> excluded.hash THEN excluded.updated_at ELSE updated_at END
`
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, q, j.JobID, j.ProviderID, jsonStr(j.BecknStructure), jsonStr(j.Metadata),
		j.Hash, j.TransactionID, j.BppID, j.BppURI, j.LastSyncedAt, now)
	if err != nil {
		return fmt.Errorf("catalogue: upsert job %s/%s: %w", j.ProviderID, j.JobID, err)
	}
	return nil
}

func (s *SQLiteStore) DeleteStaleJobs(ctx context.Context, bppID, latestTxnID string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM jobs WHERE bpp_id = ? AND transaction_id <> ?`, bppID, latestTxnID)
	if err != nil {
		return 0, fmt.Errorf("catalogue: delete stale jobs for %s: %w", bppID, err)
	}
	return res.RowsAffected()
}

func scanJobRow(row interface {
	Scan(dest ...any) error
}) (*Job, error) {
	var j Job
	var beckn, meta string
	err := row.Scan(&j.JobID, &j.ProviderID, &beckn, &meta, &j.Hash, &j.TransactionID, &j.BppID, &j.BppURI, &j.LastSyncedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	j.BecknStructure = json.RawMessage(beckn)
	j.Metadata = json.RawMessage(meta)
	return &j, nil
}

func (s *SQLiteStore) GetJob(ctx context.Context, jobID, providerID string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT job_id, provider_id, beckn_structure, metadata, hash, transaction_id, bpp_id, bpp_uri, last_synced_at, updated_at
		FROM jobs WHERE job_id = ? AND provider_id = ?`, jobID, providerID)
	j, err := scanJobRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalogue: get job %s/%s: %w", providerID, jobID, err)
	}
	return j, nil
}

// GetJobByID looks up a job by its id alone; see PostgresStore.GetJobByID.
func (s *SQLiteStore) GetJobByID(ctx context.Context, jobID string) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT job_id, provider_id, beckn_structure, metadata, hash, transaction_id, bpp_id, bpp_uri, last_synced_at, updated_at
		FROM jobs WHERE job_id = ? LIMIT 1`, jobID)
	j, err := scanJobRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalogue: get job by id %s: %w", jobID, err)
	}
	return j, nil
}

func (s *SQLiteStore) ListJobsWithoutMatch(ctx context.Context, limit int) ([]Job, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT j.job_id, j.provider_id, j.beckn_structure, j.metadata, j.hash, j.transaction_id, j.bpp_id, j.bpp_uri, j.last_synced_at, j.updated_at
FROM jobs j
LEFT JOIN job_profile_matches m ON m.job_id = j.job_id
WHERE m.job_id IS NULL
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("catalogue: list new jobs: %w", err)
	}
	defer rows.Close()
	var out []Job
	for rows.Next() {
		j, err := scanJobRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AllJobs(ctx context.Context) ([]Job, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT job_id, provider_id, beckn_structure, metadata, hash, transaction_id, bpp_id, bpp_uri, last_synced_at, updated_at FROM jobs`)
	if err != nil {
		return nil, fmt.Errorf("catalogue: all jobs: %w", err)
	}
	defer rows.Close()
	var out []Job
	for rows.Next() {
		j, err := scanJobRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}
	return out, rows.Err()
}

// ListJobsByFilter mirrors PostgresStore's query but drops the pg_trgm %
// operator for a plain LIKE, since sqlite3 has no trigram extension
// loaded by default — free-text matching here is coarser than production.
func (s *SQLiteStore) ListJobsByFilter(ctx context.Context, profileID string, f JobFilter) ([]JobWithScore, int64, error) {
	var where []string
	var args []any
	where = append(where, "m.profile_id = ?")
	args = append(args, profileID)

	if f.Provider != "" {
		where = append(where, "j.provider_id = ?")
		args = append(args, f.Provider)
	}
	if f.Role != "" {
		where = append(where, "json_extract(j.beckn_structure, '$.tags.role') = ?")
		args = append(args, f.Role)
	}
	if f.Primary != "" {
		where = append(where, "json_extract(j.beckn_structure, '$.tags.basicInfo.jobProviderName') = ?")
		args = append(args, f.Primary)
	}
	if f.FreeText != "" {
		where = append(where, "j.beckn_structure LIKE ?")
		args = append(args, "%"+f.FreeText+"%")
	}
	for _, ex := range f.Exclude {
		where = append(where, "NOT (json_extract(j.beckn_structure, '$.tags.role') = ? OR json_extract(j.beckn_structure, '$.tags.industry') = ?)")
		args = append(args, ex, ex)
	}
	whereClause := strings.Join(where, " AND ")

	var total int64
	countQ := fmt.Sprintf(`SELECT count(*) FROM jobs j JOIN job_profile_matches m ON m.job_id = j.job_id WHERE %s`, whereClause)
	if err := s.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("catalogue: count filtered jobs: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 30
	}
	listArgs := append(append([]any{}, args...), limit, f.Offset)
	listQ := fmt.Sprintf(`
SELECT j.job_id, j.provider_id, j.beckn_structure, j.metadata, j.hash, j.transaction_id, j.bpp_id, j.bpp_uri, j.last_synced_at, j.updated_at, m.match_score
FROM jobs j JOIN job_profile_matches m ON m.job_id = j.job_id
WHERE %s
ORDER BY m.match_score DESC
LIMIT ? OFFSET ?`, whereClause)

	rows, err := s.db.QueryContext(ctx, listQ, listArgs...)
	if err != nil {
		return nil, 0, fmt.Errorf("catalogue: list filtered jobs: %w", err)
	}
	defer rows.Close()

	var out []JobWithScore
	for rows.Next() {
		var j Job
		var beckn, meta string
		var score int16
		if err := rows.Scan(&j.JobID, &j.ProviderID, &beckn, &meta, &j.Hash, &j.TransactionID, &j.BppID, &j.BppURI, &j.LastSyncedAt, &j.UpdatedAt, &score); err != nil {
			return nil, 0, err
		}
		j.BecknStructure = json.RawMessage(beckn)
		j.Metadata = json.RawMessage(meta)
		out = append(out, JobWithScore{Job: j, MatchScore: score})
	}
	return out, total, rows.Err()
}

// --- Profiles ---

func (s *SQLiteStore) UpsertProfile(ctx context.Context, p Profile, syncStarted time.Time) error {
	const q = `
INSERT INTO profiles (profile_id, user_id, type, metadata, beckn_structure, hash, last_synced_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (profile_id) DO UPDATE SET
  user_id         = CASE WHEN hash <> excluded.hash THEN excluded.user_id ELSE user_id END,
  type            = CASE WHEN hash <> excluded.hash THEN excluded.type ELSE type END,
  metadata        = CASE WHEN hash <> excluded.hash THEN excluded.metadata ELSE metadata END,
  beckn_structure = CASE WHEN hash <> excluded.hash THEN excluded.beckn_structure ELSE beckn_structure END,
  hash            = excluded.hash,
  last_synced_at  = excluded.last_synced_at,
  updated_at      = CASE WHEN hash <> excluded.hash THEN excluded.updated_at ELSE updated_at END
`
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, q, p.ProfileID, p.UserID, p.Type, jsonStr(p.Metadata), jsonStr(p.BecknStructure), p.Hash, syncStarted, now)
	if err != nil {
		return fmt.Errorf("catalogue: upsert profile %s: %w", p.ProfileID, err)
	}
	return nil
}

func (s *SQLiteStore) DeleteStaleProfiles(ctx context.Context, syncStarted time.Time) (int64, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM profiles WHERE last_synced_at < ?`, syncStarted)
	if err != nil {
		return 0, fmt.Errorf("catalogue: delete stale profiles: %w", err)
	}
	return res.RowsAffected()
}

func scanProfileRow(row interface {
	Scan(dest ...any) error
}) (*Profile, error) {
	var p Profile
	var meta, beckn string
	err := row.Scan(&p.ProfileID, &p.UserID, &p.Type, &meta, &beckn, &p.Hash, &p.LastSyncedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Metadata = json.RawMessage(meta)
	p.BecknStructure = json.RawMessage(beckn)
	return &p, nil
}

func (s *SQLiteStore) GetProfile(ctx context.Context, profileID string) (*Profile, error) {
	row := s.db.QueryRowContext(ctx, `SELECT profile_id, user_id, type, metadata, beckn_structure, hash, last_synced_at, updated_at FROM profiles WHERE profile_id = ?`, profileID)
	p, err := scanProfileRow(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalogue: get profile %s: %w", profileID, err)
	}
	return p, nil
}

func (s *SQLiteStore) ListProfilesWithoutMatch(ctx context.Context, limit int) ([]Profile, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT p.profile_id, p.user_id, p.type, p.metadata, p.beckn_structure, p.hash, p.last_synced_at, p.updated_at
FROM profiles p
LEFT JOIN job_profile_matches m ON m.profile_id = p.profile_id
WHERE m.profile_id IS NULL
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("catalogue: list new profiles: %w", err)
	}
	defer rows.Close()
	var out []Profile
	for rows.Next() {
		p, err := scanProfileRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) AllProfiles(ctx context.Context) ([]Profile, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT profile_id, user_id, type, metadata, beckn_structure, hash, last_synced_at, updated_at FROM profiles`)
	if err != nil {
		return nil, fmt.Errorf("catalogue: all profiles: %w", err)
	}
	defer rows.Close()
	var out []Profile
	for rows.Next() {
		p, err := scanProfileRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// --- Matches ---

func (s *SQLiteStore) UpsertMatch(ctx context.Context, m Match) error {
	const q = `
INSERT INTO job_profile_matches (job_id, profile_id, job_hash, profile_hash, match_score, score_breakdown, computed_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (job_id, profile_id) DO UPDATE SET
  job_hash        = excluded.job_hash,
  profile_hash    = excluded.profile_hash,
  match_score     = excluded.match_score,
  score_breakdown = excluded.score_breakdown,
  updated_at      = excluded.updated_at
`
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, q, m.JobID, m.ProfileID, m.JobHash, m.ProfileHash, m.MatchScore, jsonStr(m.ScoreBreakdown), now, now)
	if err != nil {
		return fmt.Errorf("catalogue: upsert match %s/%s: %w", m.JobID, m.ProfileID, err)
	}
	return nil
}

func (s *SQLiteStore) ListStaleMatches(ctx context.Context, limit int) ([]Match, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT m.job_id, m.profile_id, m.job_hash, m.profile_hash, m.match_score, m.score_breakdown, m.computed_at, m.updated_at
FROM job_profile_matches m
JOIN jobs j ON j.job_id = m.job_id
JOIN profiles p ON p.profile_id = m.profile_id
WHERE m.job_hash <> j.hash OR m.profile_hash <> p.hash
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("catalogue: list stale matches: %w", err)
	}
	defer rows.Close()
	var out []Match
	for rows.Next() {
		var m Match
		var breakdown string
		if err := rows.Scan(&m.JobID, &m.ProfileID, &m.JobHash, &m.ProfileHash, &m.MatchScore, &breakdown, &m.ComputedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		m.ScoreBreakdown = json.RawMessage(breakdown)
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListMissingPairs(ctx context.Context, limit int) ([]JobProfilePair, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT j.job_id, p.profile_id
FROM jobs j CROSS JOIN profiles p
LEFT JOIN job_profile_matches m ON m.job_id = j.job_id AND m.profile_id = p.profile_id
WHERE m.job_id IS NULL
LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("catalogue: list missing pairs: %w", err)
	}
	defer rows.Close()
	var out []JobProfilePair
	for rows.Next() {
		var p JobProfilePair
		if err := rows.Scan(&p.JobID, &p.ProfileID); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) MatchesAboveThreshold(ctx context.Context, threshold int16, limit, offset int) ([]MatchWithJob, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT m.job_id, m.profile_id, m.job_hash, m.profile_hash, m.match_score, m.score_breakdown, m.computed_at, m.updated_at,
       j.job_id, j.provider_id, j.beckn_structure, j.metadata, j.hash, j.transaction_id, j.bpp_id, j.bpp_uri, j.last_synced_at, j.updated_at
FROM job_profile_matches m
JOIN jobs j ON j.job_id = m.job_id
WHERE m.match_score >= ?
ORDER BY m.match_score DESC
LIMIT ? OFFSET ?`, threshold, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("catalogue: matches above threshold: %w", err)
	}
	defer rows.Close()
	var out []MatchWithJob
	for rows.Next() {
		var mwj MatchWithJob
		var breakdown, beckn, meta string
		if err := rows.Scan(&mwj.JobID, &mwj.ProfileID, &mwj.JobHash, &mwj.ProfileHash, &mwj.MatchScore, &breakdown, &mwj.ComputedAt, &mwj.UpdatedAt,
			&mwj.Job.JobID, &mwj.Job.ProviderID, &beckn, &meta, &mwj.Job.Hash, &mwj.Job.TransactionID, &mwj.Job.BppID, &mwj.Job.BppURI, &mwj.Job.LastSyncedAt, &mwj.Job.UpdatedAt); err != nil {
			return nil, err
		}
		mwj.ScoreBreakdown = json.RawMessage(breakdown)
		mwj.Job.BecknStructure = json.RawMessage(beckn)
		mwj.Job.Metadata = json.RawMessage(meta)
		out = append(out, mwj)
	}
	return out, rows.Err()
}

// --- Applications ---

func (s *SQLiteStore) GetApplication(ctx context.Context, userID, jobID string) (*Application, error) {
	row := s.db.QueryRowContext(ctx, `SELECT user_id, job_id, order_id, transaction_id, bpp_id, bpp_uri, status, metadata FROM job_applications WHERE user_id = ? AND job_id = ?`, userID, jobID)
	var a Application
	var meta string
	err := row.Scan(&a.UserID, &a.JobID, &a.OrderID, &a.TransactionID, &a.BppID, &a.BppURI, &a.Status, &meta)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalogue: get application %s/%s: %w", userID, jobID, err)
	}
	a.Metadata = json.RawMessage(meta)
	return &a, nil
}

func (s *SQLiteStore) InsertApplication(ctx context.Context, a Application) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO job_applications (user_id, job_id, order_id, transaction_id, bpp_id, bpp_uri, status, metadata)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`, a.UserID, a.JobID, a.OrderID, a.TransactionID, a.BppID, a.BppURI, a.Status, jsonStr(a.Metadata))
	if err != nil {
		return fmt.Errorf("catalogue: insert application %s/%s: %w", a.UserID, a.JobID, err)
	}
	return nil
}

func (s *SQLiteStore) ListApplications(ctx context.Context, userID, status string) ([]Application, error) {
	q := `SELECT user_id, job_id, order_id, transaction_id, bpp_id, bpp_uri, status, metadata FROM job_applications WHERE user_id = ?`
	args := []any{userID}
	if status != "" {
		q += " AND status = ?"
		args = append(args, status)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("catalogue: list applications for %s: %w", userID, err)
	}
	defer rows.Close()
	var out []Application
	for rows.Next() {
		var a Application
		var meta string
		if err := rows.Scan(&a.UserID, &a.JobID, &a.OrderID, &a.TransactionID, &a.BppID, &a.BppURI, &a.Status, &meta); err != nil {
			return nil, err
		}
		a.Metadata = json.RawMessage(meta)
		out = append(out, a)
	}
	return out, rows.Err()
}

// --- Drafts ---

func (s *SQLiteStore) UpsertDraft(ctx context.Context, d Draft) (Draft, error) {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
INSERT INTO draft_applications (user_id, job_id, bpp_id, bpp_uri, metadata, created_at, modified_at)
VALUES (?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (user_id, job_id, bpp_id) DO UPDATE SET
  bpp_uri     = excluded.bpp_uri,
  metadata    = excluded.metadata,
  modified_at = excluded.modified_at`,
		d.UserID, d.JobID, d.BppID, d.BppURI, jsonStr(d.Metadata), now, now)
	if err != nil {
		return Draft{}, fmt.Errorf("catalogue: upsert draft %s/%s/%s: %w", d.UserID, d.JobID, d.BppID, err)
	}
	row := s.db.QueryRowContext(ctx, `SELECT id, user_id, job_id, bpp_id, bpp_uri, metadata, created_at, modified_at FROM draft_applications WHERE user_id = ? AND job_id = ? AND bpp_id = ?`, d.UserID, d.JobID, d.BppID)
	var out Draft
	var meta string
	if err := row.Scan(&out.ID, &out.UserID, &out.JobID, &out.BppID, &out.BppURI, &meta, &out.CreatedAt, &out.ModifiedAt); err != nil {
		return Draft{}, fmt.Errorf("catalogue: reload draft %s/%s/%s: %w", d.UserID, d.JobID, d.BppID, err)
	}
	out.Metadata = json.RawMessage(meta)
	return out, nil
}

func (s *SQLiteStore) GetDraft(ctx context.Context, id int64) (*Draft, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, user_id, job_id, bpp_id, bpp_uri, metadata, created_at, modified_at FROM draft_applications WHERE id = ?`, id)
	var d Draft
	var meta string
	err := row.Scan(&d.ID, &d.UserID, &d.JobID, &d.BppID, &d.BppURI, &meta, &d.CreatedAt, &d.ModifiedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalogue: get draft %d: %w", id, err)
	}
	d.Metadata = json.RawMessage(meta)
	return &d, nil
}

func (s *SQLiteStore) ListDrafts(ctx context.Context, userID string) ([]Draft, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, user_id, job_id, bpp_id, bpp_uri, metadata, created_at, modified_at FROM draft_applications WHERE user_id = ?`, userID)
	if err != nil {
		return nil, fmt.Errorf("catalogue: list drafts for %s: %w", userID, err)
	}
	defer rows.Close()
	var out []Draft
	for rows.Next() {
		var d Draft
		var meta string
		if err := rows.Scan(&d.ID, &d.UserID, &d.JobID, &d.BppID, &d.BppURI, &meta, &d.CreatedAt, &d.ModifiedAt); err != nil {
			return nil, err
		}
		d.Metadata = json.RawMessage(meta)
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) UpdateDraft(ctx context.Context, id int64, mergePatch json.RawMessage) (*Draft, error) {
	existing, err := s.GetDraft(ctx, id)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, nil
	}
	merged, err := applyMergePatch(existing.Metadata, mergePatch)
	if err != nil {
		return nil, fmt.Errorf("catalogue: apply patch to draft %d: %w", id, err)
	}
	now := time.Now().UTC()
	_, err = s.db.ExecContext(ctx, `UPDATE draft_applications SET metadata = ?, modified_at = ? WHERE id = ?`, jsonStr(merged), now, id)
	if err != nil {
		return nil, fmt.Errorf("catalogue: update draft %d: %w", id, err)
	}
	return s.GetDraft(ctx, id)
}

func (s *SQLiteStore) DeleteDraft(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM draft_applications WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("catalogue: delete draft %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errDraftNotFound
	}
	return nil
}
