package catalogue

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/sirupsen/logrus"
)

// PostgresStore implements Store against the schema of spec §6, following
// the teacher's pgxpool + explicit-transaction idiom
// (go/materialize/driver/sql/postgres.go).
type PostgresStore struct {
	pool *pgxpool.Pool
	log  *logrus.Entry
}

// NewPostgresStore connects to uri and returns a ready Store.
func NewPostgresStore(ctx context.Context, uri string, log *logrus.Entry) (*PostgresStore, error) {
	pool, err := pgxpool.Connect(ctx, uri)
	if err != nil {
		return nil, fmt.Errorf("catalogue: connect postgres: %w", err)
	}
	return &PostgresStore{pool: pool, log: log}, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func jsonStr(raw json.RawMessage) string {
	if len(raw) == 0 {
		return "{}"
	}
	return string(raw)
}

// --- Jobs ---

func (s *PostgresStore) UpsertJob(ctx context.Context, j Job) error {
	const q = `
INSERT INTO jobs (job_id, provider_id, beckn_structure, metadata, hash, transaction_id, bpp_id, bpp_uri, last_synced_at, updated_at)
VALUES ($1, $2, $3::jsonb, $4::jsonb, $5, $6, $7, $8, $9, now())
ON CONFLICT (job_id, provider_id) DO UPDATE SET
  beckn_structure = CASE WHEN jobs.hash <> EXCLUDED.hash THEN EXCLUDED.beckn_structure ELSE jobs.beckn_structure END,
  metadata        = CASE WHEN jobs.hash <> EXCLUDED.hash THEN EXCLUDED.metadata ELSE jobs.metadata END,
  hash            = EXCLUDED.hash,
  transaction_id  = EXCLUDED.transaction_id,
  bpp_uri         = EXCLUDED.bpp_uri,
  last_synced_at  = EXCLUDED.last_synced_at,
  updated_at      = CASE WHEN jobs.hash <> EXCLUDED.hash THEN now() ELSE jobs.updated_at END
`
	_, err := s.pool.Exec(ctx, q, j.JobID, j.ProviderID, jsonStr(j.BecknStructure), jsonStr(j.Metadata),
		j.Hash, j.TransactionID, j.BppID, j.BppURI, j.LastSyncedAt)
	if err != nil {
		return fmt.Errorf("catalogue: upsert job %s/%s: %w", j.ProviderID, j.JobID, err)
	}
	return nil
}

func (s *PostgresStore) DeleteStaleJobs(ctx context.Context, bppID, latestTxnID string) (int64, error) {
	const q = `DELETE FROM jobs WHERE bpp_id = $1 AND transaction_id <> $2`
	tag, err := s.pool.Exec(ctx, q, bppID, latestTxnID)
	if err != nil {
		return 0, fmt.Errorf("catalogue: delete stale jobs for %s: %w", bppID, err)
	}
	return tag.RowsAffected(), nil
}

func scanJob(row pgx.Row) (*Job, error) {
	var j Job
	var beckn, meta []byte
	err := row.Scan(&j.JobID, &j.ProviderID, &beckn, &meta, &j.Hash, &j.TransactionID, &j.BppID, &j.BppURI, &j.LastSyncedAt, &j.UpdatedAt)
	if err != nil {
		return nil, err
	}
	j.BecknStructure = beckn
	j.Metadata = meta
	return &j, nil
}

func (s *PostgresStore) GetJob(ctx context.Context, jobID, providerID string) (*Job, error) {
	const q = `SELECT job_id, provider_id, beckn_structure, metadata, hash, transaction_id, bpp_id, bpp_uri, last_synced_at, updated_at
		FROM jobs WHERE job_id = $1 AND provider_id = $2`
	j, err := scanJob(s.pool.QueryRow(ctx, q, jobID, providerID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalogue: get job %s/%s: %w", providerID, jobID, err)
	}
	return j, nil
}

// GetJobByID looks up a job by its id alone, used by the match engine
// where a Match row only records job_id (spec §3: Match is "keyed by
// (job_id, profile_id)"). Returns the first matching row if more than one
// provider happens to share the id.
func (s *PostgresStore) GetJobByID(ctx context.Context, jobID string) (*Job, error) {
	const q = `SELECT job_id, provider_id, beckn_structure, metadata, hash, transaction_id, bpp_id, bpp_uri, last_synced_at, updated_at
		FROM jobs WHERE job_id = $1 LIMIT 1`
	j, err := scanJob(s.pool.QueryRow(ctx, q, jobID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalogue: get job by id %s: %w", jobID, err)
	}
	return j, nil
}

func (s *PostgresStore) ListJobsWithoutMatch(ctx context.Context, limit int) ([]Job, error) {
	const q = `
SELECT j.job_id, j.provider_id, j.beckn_structure, j.metadata, j.hash, j.transaction_id, j.bpp_id, j.bpp_uri, j.last_synced_at, j.updated_at
FROM jobs j
LEFT JOIN job_profile_matches m ON m.job_id = j.job_id
WHERE m.job_id IS NULL
LIMIT $1`
	rows, err := s.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("catalogue: list new jobs: %w", err)
	}
	defer rows.Close()
	var out []Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AllJobs(ctx context.Context) ([]Job, error) {
	const q = `SELECT job_id, provider_id, beckn_structure, metadata, hash, transaction_id, bpp_id, bpp_uri, last_synced_at, updated_at FROM jobs`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("catalogue: all jobs: %w", err)
	}
	defer rows.Close()
	var out []Job
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *j)
	}
	return out, rows.Err()
}

// ListJobsByFilter implements the durable-store query of spec §4.5.2:
// jobs joined with their stored match_score, ordered descending,
// free-text as a trigram fuzzy match (the % operator, pg_trgm extension),
// primary/exclude as inclusion/exclusion predicates, paginated with a
// total count.
func (s *PostgresStore) ListJobsByFilter(ctx context.Context, profileID string, f JobFilter) ([]JobWithScore, int64, error) {
	var where []string
	var args []any
	args = append(args, profileID)
	where = append(where, "m.profile_id = $1")

	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Provider != "" {
		add("j.provider_id = $%d", f.Provider)
	}
	if f.Role != "" {
		add("j.beckn_structure #>> '{tags,role}' = $%d", f.Role)
	}
	if f.Primary != "" {
		add("j.beckn_structure #>> '{tags,basicInfo,jobProviderName}' = $%d", f.Primary)
	}
	if f.FreeText != "" {
		add("j.beckn_structure::text %% $%d", f.FreeText)
	}
	for _, ex := range f.Exclude {
		// both placeholders reuse the same arg index
		args = append(args, ex)
		where = append(where, fmt.Sprintf("NOT (j.beckn_structure #>> '{tags,role}' = $%d OR j.beckn_structure #>> '{tags,industry}' = $%d)", len(args), len(args)))
	}

	whereClause := strings.Join(where, " AND ")

	countQ := fmt.Sprintf(`SELECT count(*) FROM jobs j JOIN job_profile_matches m ON m.job_id = j.job_id WHERE %s`, whereClause)
	var total int64
	if err := s.pool.QueryRow(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("catalogue: count filtered jobs: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 30
	}
	args = append(args, limit, f.Offset)
	listQ := fmt.Sprintf(`
SELECT j.job_id, j.provider_id, j.beckn_structure, j.metadata, j.hash, j.transaction_id, j.bpp_id, j.bpp_uri, j.last_synced_at, j.updated_at, m.match_score
FROM jobs j JOIN job_profile_matches m ON m.job_id = j.job_id
WHERE %s
ORDER BY m.match_score DESC
LIMIT $%d OFFSET $%d`, whereClause, len(args)-1, len(args))

	rows, err := s.pool.Query(ctx, listQ, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("catalogue: list filtered jobs: %w", err)
	}
	defer rows.Close()

	var out []JobWithScore
	for rows.Next() {
		var j Job
		var beckn, meta []byte
		var score int16
		if err := rows.Scan(&j.JobID, &j.ProviderID, &beckn, &meta, &j.Hash, &j.TransactionID, &j.BppID, &j.BppURI, &j.LastSyncedAt, &j.UpdatedAt, &score); err != nil {
			return nil, 0, err
		}
		j.BecknStructure = beckn
		j.Metadata = meta
		out = append(out, JobWithScore{Job: j, MatchScore: score})
	}
	return out, total, rows.Err()
}

// --- Profiles ---

func (s *PostgresStore) UpsertProfile(ctx context.Context, p Profile, syncStarted time.Time) error {
	const q = `
INSERT INTO profiles (profile_id, user_id, type, metadata, beckn_structure, hash, last_synced_at, updated_at)
VALUES ($1, $2, $3, $4::jsonb, $5::jsonb, $6, $7, now())
ON CONFLICT (profile_id) DO UPDATE SET
  user_id         = CASE WHEN profiles.hash <> EXCLUDED.hash THEN EXCLUDED.user_id ELSE profiles.user_id END,
  type            = CASE WHEN profiles.hash <> EXCLUDED.hash THEN EXCLUDED.type ELSE profiles.type END,
  metadata        = CASE WHEN profiles.hash <> EXCLUDED.hash THEN EXCLUDED.metadata ELSE profiles.metadata END,
  beckn_structure = CASE WHEN profiles.hash <> EXCLUDED.hash THEN EXCLUDED.beckn_structure ELSE profiles.beckn_structure END,
  hash            = EXCLUDED.hash,
  last_synced_at  = EXCLUDED.last_synced_at,
  updated_at      = CASE WHEN profiles.hash <> EXCLUDED.hash THEN now() ELSE profiles.updated_at END
`
	_, err := s.pool.Exec(ctx, q, p.ProfileID, p.UserID, p.Type, jsonStr(p.Metadata), jsonStr(p.BecknStructure), p.Hash, syncStarted)
	if err != nil {
		return fmt.Errorf("catalogue: upsert profile %s: %w", p.ProfileID, err)
	}
	return nil
}

func (s *PostgresStore) DeleteStaleProfiles(ctx context.Context, syncStarted time.Time) (int64, error) {
	const q = `DELETE FROM profiles WHERE last_synced_at < $1`
	tag, err := s.pool.Exec(ctx, q, syncStarted)
	if err != nil {
		return 0, fmt.Errorf("catalogue: delete stale profiles: %w", err)
	}
	return tag.RowsAffected(), nil
}

func scanProfile(row pgx.Row) (*Profile, error) {
	var p Profile
	var meta, beckn []byte
	err := row.Scan(&p.ProfileID, &p.UserID, &p.Type, &meta, &beckn, &p.Hash, &p.LastSyncedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Metadata = meta
	p.BecknStructure = beckn
	return &p, nil
}

func (s *PostgresStore) GetProfile(ctx context.Context, profileID string) (*Profile, error) {
	const q = `SELECT profile_id, user_id, type, metadata, beckn_structure, hash, last_synced_at, updated_at FROM profiles WHERE profile_id = $1`
	p, err := scanProfile(s.pool.QueryRow(ctx, q, profileID))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalogue: get profile %s: %w", profileID, err)
	}
	return p, nil
}

func (s *PostgresStore) ListProfilesWithoutMatch(ctx context.Context, limit int) ([]Profile, error) {
	const q = `
SELECT p.profile_id, p.user_id, p.type, p.metadata, p.beckn_structure, p.hash, p.last_synced_at, p.updated_at
FROM profiles p
LEFT JOIN job_profile_matches m ON m.profile_id = p.profile_id
WHERE m.profile_id IS NULL
LIMIT $1`
	rows, err := s.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("catalogue: list new profiles: %w", err)
	}
	defer rows.Close()
	var out []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AllProfiles(ctx context.Context) ([]Profile, error) {
	const q = `SELECT profile_id, user_id, type, metadata, beckn_structure, hash, last_synced_at, updated_at FROM profiles`
	rows, err := s.pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("catalogue: all profiles: %w", err)
	}
	defer rows.Close()
	var out []Profile
	for rows.Next() {
		p, err := scanProfile(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

// --- Matches ---

func (s *PostgresStore) UpsertMatch(ctx context.Context, m Match) error {
	const q = `
INSERT INTO job_profile_matches (job_id, profile_id, job_hash, profile_hash, match_score, score_breakdown, computed_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6::jsonb, now(), now())
ON CONFLICT (job_id, profile_id) DO UPDATE SET
  job_hash        = EXCLUDED.job_hash,
  profile_hash    = EXCLUDED.profile_hash,
  match_score     = EXCLUDED.match_score,
  score_breakdown = EXCLUDED.score_breakdown,
  updated_at      = now()
`
	_, err := s.pool.Exec(ctx, q, m.JobID, m.ProfileID, m.JobHash, m.ProfileHash, m.MatchScore, jsonStr(m.ScoreBreakdown))
	if err != nil {
		return fmt.Errorf("catalogue: upsert match %s/%s: %w", m.JobID, m.ProfileID, err)
	}
	return nil
}

func (s *PostgresStore) ListStaleMatches(ctx context.Context, limit int) ([]Match, error) {
	const q = `
SELECT m.job_id, m.profile_id, m.job_hash, m.profile_hash, m.match_score, m.score_breakdown, m.computed_at, m.updated_at
FROM job_profile_matches m
JOIN jobs j ON j.job_id = m.job_id
JOIN profiles p ON p.profile_id = m.profile_id
WHERE m.job_hash <> j.hash OR m.profile_hash <> p.hash
LIMIT $1`
	rows, err := s.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, fmt.Errorf("catalogue: list stale matches: %w", err)
	}
	defer rows.Close()
	var out []Match
	for rows.Next() {
		var m Match
		var breakdown []byte
		if err := rows.Scan(&m.JobID, &m.ProfileID, &m.JobHash, &m.ProfileHash, &m.MatchScore, &breakdown, &m.ComputedAt, &m.UpdatedAt); err != nil {
			return nil, err
		}
		m.ScoreBreakdown = breakdown
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ListMissingPairs(ctx context.Context, limit int) ([]JobProfilePair, error) {
	const q = `
SELECT j.job_id, p.profile_id
FROM jobs j CROSS JOIN profiles p
LEFT JOIN job_profile_matches m ON m.job_id = j.job_id AND m.profile_id = p.profile_id
WHERE m.job_id IS NULL
LIMIT $1`
	rows, err := s.pool.Query(ctx, q, limit)
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

func (s *PostgresStore) MatchesAboveThreshold(ctx context.Context, threshold int16, limit, offset int) ([]MatchWithJob, error) {
	const q = `
SELECT m.job_id, m.profile_id, m.job_hash, m.profile_hash, m.match_score, m.score_breakdown, m.computed_at, m.updated_at,
       j.job_id, j.provider_id, j.beckn_structure, j.metadata, j.hash, j.transaction_id, j.bpp_id, j.bpp_uri, j.last_synced_at, j.updated_at
FROM job_profile_matches m
JOIN jobs j ON j.job_id = m.job_id
WHERE m.match_score >= $1
ORDER BY m.match_score DESC
LIMIT $2 OFFSET $3`
	rows, err := s.pool.Query(ctx, q, threshold, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("catalogue: matches above threshold: %w", err)
	}
	defer rows.Close()
	var out []MatchWithJob
	for rows.Next() {
		var mwj MatchWithJob
		var breakdown, beckn, meta []byte
		if err := rows.Scan(&mwj.JobID, &mwj.ProfileID, &mwj.JobHash, &mwj.ProfileHash, &mwj.MatchScore, &breakdown, &mwj.ComputedAt, &mwj.UpdatedAt,
			&mwj.Job.JobID, &mwj.Job.ProviderID, &beckn, &meta, &mwj.Job.Hash, &mwj.Job.TransactionID, &mwj.Job.BppID, &mwj.Job.BppURI, &mwj.Job.LastSyncedAt, &mwj.Job.UpdatedAt); err != nil {
			return nil, err
		}
		mwj.ScoreBreakdown = breakdown
		mwj.Job.BecknStructure = beckn
		mwj.Job.Metadata = meta
		out = append(out, mwj)
	}
	return out, rows.Err()
}

// --- Applications ---

func (s *PostgresStore) GetApplication(ctx context.Context, userID, jobID string) (*Application, error) {
	const q = `SELECT user_id, job_id, order_id, transaction_id, bpp_id, bpp_uri, status, metadata FROM job_applications WHERE user_id = $1 AND job_id = $2`
	var a Application
	var meta []byte
	err := s.pool.QueryRow(ctx, q, userID, jobID).Scan(&a.UserID, &a.JobID, &a.OrderID, &a.TransactionID, &a.BppID, &a.BppURI, &a.Status, &meta)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalogue: get application %s/%s: %w", userID, jobID, err)
	}
	a.Metadata = meta
	return &a, nil
}

func (s *PostgresStore) InsertApplication(ctx context.Context, a Application) error {
	const q = `
INSERT INTO job_applications (user_id, job_id, order_id, transaction_id, bpp_id, bpp_uri, status, metadata)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8::jsonb)`
	_, err := s.pool.Exec(ctx, q, a.UserID, a.JobID, a.OrderID, a.TransactionID, a.BppID, a.BppURI, a.Status, jsonStr(a.Metadata))
	if err != nil {
		return fmt.Errorf("catalogue: insert application %s/%s: %w", a.UserID, a.JobID, err)
	}
	return nil
}

func (s *PostgresStore) ListApplications(ctx context.Context, userID, status string) ([]Application, error) {
	q := `SELECT user_id, job_id, order_id, transaction_id, bpp_id, bpp_uri, status, metadata FROM job_applications WHERE user_id = $1`
	args := []any{userID}
	if status != "" {
		q += " AND status = $2"
		args = append(args, status)
	}
	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("catalogue: list applications for %s: %w", userID, err)
	}
	defer rows.Close()
	var out []Application
	for rows.Next() {
		var a Application
		var meta []byte
		if err := rows.Scan(&a.UserID, &a.JobID, &a.OrderID, &a.TransactionID, &a.BppID, &a.BppURI, &a.Status, &meta); err != nil {
			return nil, err
		}
		a.Metadata = meta
		out = append(out, a)
	}
	return out, rows.Err()
}

// --- Drafts ---

func (s *PostgresStore) UpsertDraft(ctx context.Context, d Draft) (Draft, error) {
	const q = `
INSERT INTO draft_applications (user_id, job_id, bpp_id, bpp_uri, metadata, created_at, modified_at)
VALUES ($1, $2, $3, $4, $5::jsonb, now(), now())
ON CONFLICT (user_id, job_id, bpp_id) DO UPDATE SET
  bpp_uri     = EXCLUDED.bpp_uri,
  metadata    = EXCLUDED.metadata,
  modified_at = now()
RETURNING id, user_id, job_id, bpp_id, bpp_uri, metadata, created_at, modified_at`
	var out Draft
	var meta []byte
	err := s.pool.QueryRow(ctx, q, d.UserID, d.JobID, d.BppID, d.BppURI, jsonStr(d.Metadata)).
		Scan(&out.ID, &out.UserID, &out.JobID, &out.BppID, &out.BppURI, &meta, &out.CreatedAt, &out.ModifiedAt)
	if err != nil {
		return Draft{}, fmt.Errorf("catalogue: upsert draft %s/%s/%s: %w", d.UserID, d.JobID, d.BppID, err)
	}
	out.Metadata = meta
	return out, nil
}

func (s *PostgresStore) GetDraft(ctx context.Context, id int64) (*Draft, error) {
	const q = `SELECT id, user_id, job_id, bpp_id, bpp_uri, metadata, created_at, modified_at FROM draft_applications WHERE id = $1`
	var d Draft
	var meta []byte
	err := s.pool.QueryRow(ctx, q, id).Scan(&d.ID, &d.UserID, &d.JobID, &d.BppID, &d.BppURI, &meta, &d.CreatedAt, &d.ModifiedAt)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("catalogue: get draft %d: %w", id, err)
	}
	d.Metadata = meta
	return &d, nil
}

func (s *PostgresStore) ListDrafts(ctx context.Context, userID string) ([]Draft, error) {
	const q = `SELECT id, user_id, job_id, bpp_id, bpp_uri, metadata, created_at, modified_at FROM draft_applications WHERE user_id = $1`
	rows, err := s.pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("catalogue: list drafts for %s: %w", userID, err)
	}
	defer rows.Close()
	var out []Draft
	for rows.Next() {
		var d Draft
		var meta []byte
		if err := rows.Scan(&d.ID, &d.UserID, &d.JobID, &d.BppID, &d.BppURI, &meta, &d.CreatedAt, &d.ModifiedAt); err != nil {
			return nil, err
		}
		d.Metadata = meta
		out = append(out, d)
	}
	return out, rows.Err()
}

func (s *PostgresStore) UpdateDraft(ctx context.Context, id int64, mergePatch json.RawMessage) (*Draft, error) {
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
	const q = `UPDATE draft_applications SET metadata = $2::jsonb, modified_at = now() WHERE id = $1
		RETURNING id, user_id, job_id, bpp_id, bpp_uri, metadata, created_at, modified_at`
	var d Draft
	var meta []byte
	err = s.pool.QueryRow(ctx, q, id, jsonStr(merged)).
		Scan(&d.ID, &d.UserID, &d.JobID, &d.BppID, &d.BppURI, &meta, &d.CreatedAt, &d.ModifiedAt)
	if err != nil {
		return nil, fmt.Errorf("catalogue: update draft %d: %w", id, err)
	}
	d.Metadata = meta
	return &d, nil
}

func (s *PostgresStore) DeleteDraft(ctx context.Context, id int64) error {
	const q = `DELETE FROM draft_applications WHERE id = $1`
	tag, err := s.pool.Exec(ctx, q, id)
	if err != nil {
		return fmt.Errorf("catalogue: delete draft %d: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return errDraftNotFound
	}
	return nil
}

var errDraftNotFound = fmt.Errorf("catalogue: draft not found")

// ErrDraftNotFound is returned by DeleteDraft when no row matched.
func ErrDraftNotFound() error { return errDraftNotFound }
