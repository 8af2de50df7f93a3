package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/interview-assistant/internal/types"
)

// postgresSchema creates the tables the store depends on. Structured
// sub-records (skills, questions, answers, snapshot info) live in JSONB
// columns; the row itself carries the queryable fields.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS candidates (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	phone TEXT NOT NULL DEFAULT '',
	position TEXT NOT NULL DEFAULT '',
	skills JSONB NOT NULL DEFAULT '[]',
	experience INT NOT NULL DEFAULT 0,
	education TEXT NOT NULL DEFAULT '',
	resume_text TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	score DOUBLE PRECISION,
	interview_id UUID,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);

CREATE TABLE IF NOT EXISTS interviews (
	id UUID PRIMARY KEY,
	candidate_id UUID NOT NULL REFERENCES candidates(id) ON DELETE CASCADE,
	questions JSONB NOT NULL DEFAULT '[]',
	answers JSONB NOT NULL DEFAULT '[]',
	status TEXT NOT NULL,
	current_idx INT NOT NULL DEFAULT 0,
	started_at TIMESTAMPTZ,
	ended_at TIMESTAMPTZ,
	score DOUBLE PRECISION,
	summary TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS recovery_snapshots (
	candidate_id UUID PRIMARY KEY REFERENCES candidates(id) ON DELETE CASCADE,
	interview_id UUID NOT NULL,
	info JSONB NOT NULL,
	started_at TIMESTAMPTZ NOT NULL
);
`

// Postgres is the pgx-backed Store.
type Postgres struct {
	pool *pgxpool.Pool
}

// ConnectPostgres establishes a connection pool and verifies it.
func ConnectPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// EnsureSchema creates the required tables if they do not exist.
func (p *Postgres) EnsureSchema(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	if p.pool != nil {
		p.pool.Close()
	}
	return nil
}

// CreateCandidate inserts a new candidate record.
func (p *Postgres) CreateCandidate(ctx context.Context, c *types.Candidate) error {
	skills, err := json.Marshal(c.Skills)
	if err != nil {
		return fmt.Errorf("failed to marshal skills: %w", err)
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO candidates (id, name, email, phone, position, skills, experience, education, resume_text, status, score, interview_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		c.ID, c.Name, c.Email, c.Phone, c.Position, skills, c.Experience, c.Education,
		c.ResumeText, c.Status, c.Score, c.InterviewID, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create candidate: %w", err)
	}
	return nil
}

// GetCandidate fetches one candidate by id.
func (p *Postgres) GetCandidate(ctx context.Context, id uuid.UUID) (*types.Candidate, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT id, name, email, phone, position, skills, experience, education, resume_text, status, score, interview_id, created_at, updated_at
		 FROM candidates WHERE id = $1`, id)
	return scanCandidate(row)
}

// UpdateCandidate overwrites an existing candidate record.
func (p *Postgres) UpdateCandidate(ctx context.Context, c *types.Candidate) error {
	skills, err := json.Marshal(c.Skills)
	if err != nil {
		return fmt.Errorf("failed to marshal skills: %w", err)
	}
	tag, err := p.pool.Exec(ctx,
		`UPDATE candidates SET name = $2, email = $3, phone = $4, position = $5, skills = $6,
		 experience = $7, education = $8, resume_text = $9, status = $10, score = $11,
		 interview_id = $12, updated_at = NOW()
		 WHERE id = $1`,
		c.ID, c.Name, c.Email, c.Phone, c.Position, skills, c.Experience, c.Education,
		c.ResumeText, c.Status, c.Score, c.InterviewID,
	)
	if err != nil {
		return fmt.Errorf("failed to update candidate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListCandidates returns all candidates, newest first.
func (p *Postgres) ListCandidates(ctx context.Context) ([]types.Candidate, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, name, email, phone, position, skills, experience, education, resume_text, status, score, interview_id, created_at, updated_at
		 FROM candidates ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	defer rows.Close()

	var out []types.Candidate
	for rows.Next() {
		c, err := scanCandidate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// DeleteCandidate removes a candidate; interviews and snapshots cascade.
func (p *Postgres) DeleteCandidate(ctx context.Context, id uuid.UUID) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM candidates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete candidate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateInterview inserts a new interview record.
func (p *Postgres) CreateInterview(ctx context.Context, iv *types.Interview) error {
	questions, answers, err := marshalInterviewBlobs(iv)
	if err != nil {
		return err
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO interviews (id, candidate_id, questions, answers, status, current_idx, started_at, ended_at, score, summary)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		iv.ID, iv.CandidateID, questions, answers, iv.Status, iv.CurrentIdx,
		iv.StartedAt, iv.EndedAt, iv.Score, iv.Summary,
	)
	if err != nil {
		return fmt.Errorf("failed to create interview: %w", err)
	}
	return nil
}

// GetInterview fetches one interview by id.
func (p *Postgres) GetInterview(ctx context.Context, id uuid.UUID) (*types.Interview, error) {
	row := p.pool.QueryRow(ctx,
		`SELECT id, candidate_id, questions, answers, status, current_idx, started_at, ended_at, score, summary
		 FROM interviews WHERE id = $1`, id)
	return scanInterview(row)
}

// UpdateInterview overwrites an existing interview record.
func (p *Postgres) UpdateInterview(ctx context.Context, iv *types.Interview) error {
	questions, answers, err := marshalInterviewBlobs(iv)
	if err != nil {
		return err
	}
	tag, err := p.pool.Exec(ctx, updateInterviewSQL,
		iv.ID, questions, answers, iv.Status, iv.CurrentIdx, iv.StartedAt, iv.EndedAt, iv.Score, iv.Summary)
	if err != nil {
		return fmt.Errorf("failed to update interview: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const updateInterviewSQL = `UPDATE interviews SET questions = $2, answers = $3, status = $4, current_idx = $5,
	started_at = $6, ended_at = $7, score = $8, summary = $9
	WHERE id = $1`

// CompleteInterview writes the final candidate and interview states and
// clears the recovery snapshot in a single transaction.
func (p *Postgres) CompleteInterview(ctx context.Context, c *types.Candidate, iv *types.Interview) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	skills, err := json.Marshal(c.Skills)
	if err != nil {
		return fmt.Errorf("failed to marshal skills: %w", err)
	}
	tag, err := tx.Exec(ctx,
		`UPDATE candidates SET status = $2, score = $3, interview_id = $4, updated_at = NOW(), skills = $5
		 WHERE id = $1`,
		c.ID, c.Status, c.Score, c.InterviewID, skills,
	)
	if err != nil {
		return fmt.Errorf("failed to finalize candidate: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	questions, answers, err := marshalInterviewBlobs(iv)
	if err != nil {
		return err
	}
	tag, err = tx.Exec(ctx, updateInterviewSQL,
		iv.ID, questions, answers, iv.Status, iv.CurrentIdx, iv.StartedAt, iv.EndedAt, iv.Score, iv.Summary)
	if err != nil {
		return fmt.Errorf("failed to finalize interview: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM recovery_snapshots WHERE candidate_id = $1`, c.ID); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit completion: %w", err)
	}
	return nil
}

// SaveSnapshot upserts the recovery snapshot for a candidate.
func (p *Postgres) SaveSnapshot(ctx context.Context, snap *types.RecoverySnapshot) error {
	info, err := json.Marshal(snap.Info)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot info: %w", err)
	}
	_, err = p.pool.Exec(ctx,
		`INSERT INTO recovery_snapshots (candidate_id, interview_id, info, started_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (candidate_id) DO UPDATE SET interview_id = $2, info = $3, started_at = $4`,
		snap.CandidateID, snap.InterviewID, info, snap.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// GetSnapshot fetches the recovery snapshot for a candidate.
func (p *Postgres) GetSnapshot(ctx context.Context, candidateID uuid.UUID) (*types.RecoverySnapshot, error) {
	var snap types.RecoverySnapshot
	var info []byte
	err := p.pool.QueryRow(ctx,
		`SELECT candidate_id, interview_id, info, started_at FROM recovery_snapshots WHERE candidate_id = $1`,
		candidateID,
	).Scan(&snap.CandidateID, &snap.InterviewID, &info, &snap.StartedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	if err := json.Unmarshal(info, &snap.Info); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot info: %w", err)
	}
	return &snap, nil
}

// DeleteSnapshot removes the recovery snapshot for a candidate.
func (p *Postgres) DeleteSnapshot(ctx context.Context, candidateID uuid.UUID) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM recovery_snapshots WHERE candidate_id = $1`, candidateID); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

func marshalInterviewBlobs(iv *types.Interview) ([]byte, []byte, error) {
	questions, err := json.Marshal(iv.Questions)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal questions: %w", err)
	}
	answers, err := json.Marshal(iv.Answers)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal answers: %w", err)
	}
	return questions, answers, nil
}

func scanCandidate(row pgx.Row) (*types.Candidate, error) {
	var c types.Candidate
	var skills []byte
	err := row.Scan(&c.ID, &c.Name, &c.Email, &c.Phone, &c.Position, &skills, &c.Experience,
		&c.Education, &c.ResumeText, &c.Status, &c.Score, &c.InterviewID, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan candidate: %w", err)
	}
	if err := json.Unmarshal(skills, &c.Skills); err != nil {
		return nil, fmt.Errorf("failed to unmarshal skills: %w", err)
	}
	return &c, nil
}

func scanInterview(row pgx.Row) (*types.Interview, error) {
	var iv types.Interview
	var questions, answers []byte
	err := row.Scan(&iv.ID, &iv.CandidateID, &questions, &answers, &iv.Status, &iv.CurrentIdx,
		&iv.StartedAt, &iv.EndedAt, &iv.Score, &iv.Summary)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan interview: %w", err)
	}
	if err := json.Unmarshal(questions, &iv.Questions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal questions: %w", err)
	}
	if err := json.Unmarshal(answers, &iv.Answers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal answers: %w", err)
	}
	return &iv, nil
}
