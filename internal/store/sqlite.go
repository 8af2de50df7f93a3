package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/jonathan/interview-assistant/internal/types"
)

// sqliteSchema mirrors the Postgres layout; timestamps are RFC3339 text and
// structured sub-records are JSON text columns.
const sqliteSchema = `
CREATE TABLE IF NOT EXISTS candidates (
	id TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	email TEXT NOT NULL,
	phone TEXT NOT NULL DEFAULT '',
	position TEXT NOT NULL DEFAULT '',
	skills TEXT NOT NULL DEFAULT '[]',
	experience INTEGER NOT NULL DEFAULT 0,
	education TEXT NOT NULL DEFAULT '',
	resume_text TEXT NOT NULL DEFAULT '',
	status TEXT NOT NULL,
	score REAL,
	interview_id TEXT,
	created_at TEXT NOT NULL,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS interviews (
	id TEXT PRIMARY KEY,
	candidate_id TEXT NOT NULL REFERENCES candidates(id) ON DELETE CASCADE,
	questions TEXT NOT NULL DEFAULT '[]',
	answers TEXT NOT NULL DEFAULT '[]',
	status TEXT NOT NULL,
	current_idx INTEGER NOT NULL DEFAULT 0,
	started_at TEXT,
	ended_at TEXT,
	score REAL,
	summary TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS recovery_snapshots (
	candidate_id TEXT PRIMARY KEY REFERENCES candidates(id) ON DELETE CASCADE,
	interview_id TEXT NOT NULL,
	info TEXT NOT NULL,
	started_at TEXT NOT NULL
);
`

// SQLite is the embedded single-file Store.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the database file at path.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	// Single writer: the sqlite driver serializes writes anyway, and a
	// single connection avoids SQLITE_BUSY on concurrent transactions.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}
	if _, err := db.ExecContext(ctx, `PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return &SQLite{db: db}, nil
}

// EnsureSchema creates the required tables if they do not exist.
func (s *SQLite) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close closes the database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// CreateCandidate inserts a new candidate record.
func (s *SQLite) CreateCandidate(ctx context.Context, c *types.Candidate) error {
	skills, err := json.Marshal(c.Skills)
	if err != nil {
		return fmt.Errorf("failed to marshal skills: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO candidates (id, name, email, phone, position, skills, experience, education, resume_text, status, score, interview_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		c.ID.String(), c.Name, c.Email, c.Phone, c.Position, string(skills), c.Experience,
		c.Education, c.ResumeText, string(c.Status), c.Score, uuidPtrString(c.InterviewID),
		c.CreatedAt.UTC().Format(time.RFC3339Nano), c.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to create candidate: %w", err)
	}
	return nil
}

// GetCandidate fetches one candidate by id.
func (s *SQLite) GetCandidate(ctx context.Context, id uuid.UUID) (*types.Candidate, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, email, phone, position, skills, experience, education, resume_text, status, score, interview_id, created_at, updated_at
		 FROM candidates WHERE id = ?`, id.String())
	return scanSQLiteCandidate(row)
}

// UpdateCandidate overwrites an existing candidate record.
func (s *SQLite) UpdateCandidate(ctx context.Context, c *types.Candidate) error {
	skills, err := json.Marshal(c.Skills)
	if err != nil {
		return fmt.Errorf("failed to marshal skills: %w", err)
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE candidates SET name = ?, email = ?, phone = ?, position = ?, skills = ?,
		 experience = ?, education = ?, resume_text = ?, status = ?, score = ?, interview_id = ?, updated_at = ?
		 WHERE id = ?`,
		c.Name, c.Email, c.Phone, c.Position, string(skills), c.Experience, c.Education,
		c.ResumeText, string(c.Status), c.Score, uuidPtrString(c.InterviewID),
		time.Now().UTC().Format(time.RFC3339Nano), c.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to update candidate: %w", err)
	}
	return requireRowAffected(result)
}

// ListCandidates returns all candidates, newest first.
func (s *SQLite) ListCandidates(ctx context.Context) ([]types.Candidate, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, email, phone, position, skills, experience, education, resume_text, status, score, interview_id, created_at, updated_at
		 FROM candidates ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list candidates: %w", err)
	}
	defer rows.Close()

	var out []types.Candidate
	for rows.Next() {
		c, err := scanSQLiteCandidate(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

// DeleteCandidate removes a candidate; interviews and snapshots cascade.
func (s *SQLite) DeleteCandidate(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM candidates WHERE id = ?`, id.String())
	if err != nil {
		return fmt.Errorf("failed to delete candidate: %w", err)
	}
	return requireRowAffected(result)
}

// CreateInterview inserts a new interview record.
func (s *SQLite) CreateInterview(ctx context.Context, iv *types.Interview) error {
	questions, answers, err := marshalInterviewBlobs(iv)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO interviews (id, candidate_id, questions, answers, status, current_idx, started_at, ended_at, score, summary)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		iv.ID.String(), iv.CandidateID.String(), string(questions), string(answers),
		string(iv.Status), iv.CurrentIdx, timePtrString(iv.StartedAt), timePtrString(iv.EndedAt),
		iv.Score, iv.Summary,
	)
	if err != nil {
		return fmt.Errorf("failed to create interview: %w", err)
	}
	return nil
}

// GetInterview fetches one interview by id.
func (s *SQLite) GetInterview(ctx context.Context, id uuid.UUID) (*types.Interview, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, candidate_id, questions, answers, status, current_idx, started_at, ended_at, score, summary
		 FROM interviews WHERE id = ?`, id.String())
	return scanSQLiteInterview(row)
}

const sqliteUpdateInterview = `UPDATE interviews SET questions = ?, answers = ?, status = ?, current_idx = ?,
	started_at = ?, ended_at = ?, score = ?, summary = ?
	WHERE id = ?`

// UpdateInterview overwrites an existing interview record.
func (s *SQLite) UpdateInterview(ctx context.Context, iv *types.Interview) error {
	questions, answers, err := marshalInterviewBlobs(iv)
	if err != nil {
		return err
	}
	result, err := s.db.ExecContext(ctx, sqliteUpdateInterview,
		string(questions), string(answers), string(iv.Status), iv.CurrentIdx,
		timePtrString(iv.StartedAt), timePtrString(iv.EndedAt), iv.Score, iv.Summary, iv.ID.String())
	if err != nil {
		return fmt.Errorf("failed to update interview: %w", err)
	}
	return requireRowAffected(result)
}

// CompleteInterview writes the final candidate and interview states and
// clears the recovery snapshot in a single transaction.
func (s *SQLite) CompleteInterview(ctx context.Context, c *types.Candidate, iv *types.Interview) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	skills, err := json.Marshal(c.Skills)
	if err != nil {
		return fmt.Errorf("failed to marshal skills: %w", err)
	}
	result, err := tx.ExecContext(ctx,
		`UPDATE candidates SET status = ?, score = ?, interview_id = ?, skills = ?, updated_at = ?
		 WHERE id = ?`,
		string(c.Status), c.Score, uuidPtrString(c.InterviewID), string(skills),
		time.Now().UTC().Format(time.RFC3339Nano), c.ID.String(),
	)
	if err != nil {
		return fmt.Errorf("failed to finalize candidate: %w", err)
	}
	if err := requireRowAffected(result); err != nil {
		return err
	}

	questions, answers, err := marshalInterviewBlobs(iv)
	if err != nil {
		return err
	}
	result, err = tx.ExecContext(ctx, sqliteUpdateInterview,
		string(questions), string(answers), string(iv.Status), iv.CurrentIdx,
		timePtrString(iv.StartedAt), timePtrString(iv.EndedAt), iv.Score, iv.Summary, iv.ID.String())
	if err != nil {
		return fmt.Errorf("failed to finalize interview: %w", err)
	}
	if err := requireRowAffected(result); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM recovery_snapshots WHERE candidate_id = ?`, c.ID.String()); err != nil {
		return fmt.Errorf("failed to clear snapshot: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit completion: %w", err)
	}
	return nil
}

// SaveSnapshot upserts the recovery snapshot for a candidate.
func (s *SQLite) SaveSnapshot(ctx context.Context, snap *types.RecoverySnapshot) error {
	info, err := json.Marshal(snap.Info)
	if err != nil {
		return fmt.Errorf("failed to marshal snapshot info: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO recovery_snapshots (candidate_id, interview_id, info, started_at)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (candidate_id) DO UPDATE SET interview_id = excluded.interview_id,
		 info = excluded.info, started_at = excluded.started_at`,
		snap.CandidateID.String(), snap.InterviewID.String(), string(info),
		snap.StartedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save snapshot: %w", err)
	}
	return nil
}

// GetSnapshot fetches the recovery snapshot for a candidate.
func (s *SQLite) GetSnapshot(ctx context.Context, candidateID uuid.UUID) (*types.RecoverySnapshot, error) {
	var snap types.RecoverySnapshot
	var candID, ivID, info, startedAt string
	err := s.db.QueryRowContext(ctx,
		`SELECT candidate_id, interview_id, info, started_at FROM recovery_snapshots WHERE candidate_id = ?`,
		candidateID.String(),
	).Scan(&candID, &ivID, &info, &startedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get snapshot: %w", err)
	}
	if snap.CandidateID, err = uuid.Parse(candID); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot candidate id: %w", err)
	}
	if snap.InterviewID, err = uuid.Parse(ivID); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot interview id: %w", err)
	}
	if err := json.Unmarshal([]byte(info), &snap.Info); err != nil {
		return nil, fmt.Errorf("failed to unmarshal snapshot info: %w", err)
	}
	if snap.StartedAt, err = time.Parse(time.RFC3339Nano, startedAt); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot timestamp: %w", err)
	}
	return &snap, nil
}

// DeleteSnapshot removes the recovery snapshot for a candidate.
func (s *SQLite) DeleteSnapshot(ctx context.Context, candidateID uuid.UUID) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM recovery_snapshots WHERE candidate_id = ?`, candidateID.String()); err != nil {
		return fmt.Errorf("failed to delete snapshot: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteCandidate(row rowScanner) (*types.Candidate, error) {
	var c types.Candidate
	var id, skills, status, createdAt, updatedAt string
	var interviewID sql.NullString
	err := row.Scan(&id, &c.Name, &c.Email, &c.Phone, &c.Position, &skills, &c.Experience,
		&c.Education, &c.ResumeText, &status, &c.Score, &interviewID, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan candidate: %w", err)
	}
	if c.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("failed to parse candidate id: %w", err)
	}
	if err := json.Unmarshal([]byte(skills), &c.Skills); err != nil {
		return nil, fmt.Errorf("failed to unmarshal skills: %w", err)
	}
	c.Status = types.CandidateStatus(status)
	if interviewID.Valid {
		ivID, err := uuid.Parse(interviewID.String)
		if err != nil {
			return nil, fmt.Errorf("failed to parse interview id: %w", err)
		}
		c.InterviewID = &ivID
	}
	if c.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("failed to parse created_at: %w", err)
	}
	if c.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("failed to parse updated_at: %w", err)
	}
	return &c, nil
}

func scanSQLiteInterview(row rowScanner) (*types.Interview, error) {
	var iv types.Interview
	var id, candidateID, questions, answers, status string
	var startedAt, endedAt sql.NullString
	err := row.Scan(&id, &candidateID, &questions, &answers, &status, &iv.CurrentIdx,
		&startedAt, &endedAt, &iv.Score, &iv.Summary)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to scan interview: %w", err)
	}
	if iv.ID, err = uuid.Parse(id); err != nil {
		return nil, fmt.Errorf("failed to parse interview id: %w", err)
	}
	if iv.CandidateID, err = uuid.Parse(candidateID); err != nil {
		return nil, fmt.Errorf("failed to parse candidate id: %w", err)
	}
	if err := json.Unmarshal([]byte(questions), &iv.Questions); err != nil {
		return nil, fmt.Errorf("failed to unmarshal questions: %w", err)
	}
	if err := json.Unmarshal([]byte(answers), &iv.Answers); err != nil {
		return nil, fmt.Errorf("failed to unmarshal answers: %w", err)
	}
	iv.Status = types.InterviewStatus(status)
	if iv.StartedAt, err = parseTimePtr(startedAt); err != nil {
		return nil, err
	}
	if iv.EndedAt, err = parseTimePtr(endedAt); err != nil {
		return nil, err
	}
	return &iv, nil
}

func requireRowAffected(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read rows affected: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func uuidPtrString(id *uuid.UUID) any {
	if id == nil {
		return nil
	}
	return id.String()
}

func timePtrString(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTimePtr(s sql.NullString) (*time.Time, error) {
	if !s.Valid {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s.String)
	if err != nil {
		return nil, fmt.Errorf("failed to parse timestamp: %w", err)
	}
	return &t, nil
}
