// Package store provides durable persistence for candidates, interviews, and
// session recovery snapshots. Three backends share one interface: PostgreSQL
// for deployments, SQLite for single-machine use, and an in-memory store for
// tests.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/jonathan/interview-assistant/internal/types"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store is the persistence boundary for the interview assistant.
type Store interface {
	// CreateCandidate inserts a new candidate record.
	CreateCandidate(ctx context.Context, c *types.Candidate) error
	// GetCandidate fetches one candidate by id.
	GetCandidate(ctx context.Context, id uuid.UUID) (*types.Candidate, error)
	// UpdateCandidate overwrites an existing candidate record.
	UpdateCandidate(ctx context.Context, c *types.Candidate) error
	// ListCandidates returns all candidates, newest first.
	ListCandidates(ctx context.Context) ([]types.Candidate, error)
	// DeleteCandidate removes a candidate and its interviews.
	DeleteCandidate(ctx context.Context, id uuid.UUID) error

	// CreateInterview inserts a new interview record.
	CreateInterview(ctx context.Context, iv *types.Interview) error
	// GetInterview fetches one interview by id.
	GetInterview(ctx context.Context, id uuid.UUID) (*types.Interview, error)
	// UpdateInterview overwrites an existing interview record.
	UpdateInterview(ctx context.Context, iv *types.Interview) error

	// CompleteInterview atomically persists the final interview and candidate
	// states and removes the candidate's recovery snapshot. Either all three
	// writes land or none do.
	CompleteInterview(ctx context.Context, c *types.Candidate, iv *types.Interview) error

	// SaveSnapshot upserts the recovery snapshot for a candidate.
	SaveSnapshot(ctx context.Context, snap *types.RecoverySnapshot) error
	// GetSnapshot fetches the recovery snapshot for a candidate.
	GetSnapshot(ctx context.Context, candidateID uuid.UUID) (*types.RecoverySnapshot, error)
	// DeleteSnapshot removes the recovery snapshot for a candidate. Deleting
	// a missing snapshot is not an error.
	DeleteSnapshot(ctx context.Context, candidateID uuid.UUID) error

	// Close releases backend resources.
	Close() error
}
