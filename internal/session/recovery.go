package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/interview-assistant/internal/store"
	"github.com/jonathan/interview-assistant/internal/types"
)

// CheckRecovery reports whether an interrupted session exists for the
// candidate. A nil snapshot with nil error means there is nothing to resume.
func CheckRecovery(ctx context.Context, s store.Store, candidateID uuid.UUID) (*types.RecoverySnapshot, error) {
	snap, err := s.GetSnapshot(ctx, candidateID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to check recovery: %w", err)
	}
	return snap, nil
}

// ResumeRecovered rebuilds the session from a snapshot: the persisted
// candidate and interview are reloaded, and the current question's timer
// restarts from its full limit. Answers already submitted are kept.
func (m *Machine) ResumeRecovered(ctx context.Context, snap *types.RecoverySnapshot) error {
	candidate, err := m.store.GetCandidate(ctx, snap.CandidateID)
	if err != nil {
		return fmt.Errorf("failed to load candidate for recovery: %w", err)
	}
	interview, err := m.store.GetInterview(ctx, snap.InterviewID)
	if err != nil {
		return fmt.Errorf("failed to load interview for recovery: %w", err)
	}
	if interview.Status == types.InterviewCompleted {
		return fmt.Errorf("interview already completed")
	}

	m.mu.Lock()
	m.info = snap.Info
	m.candidate = candidate
	m.interview = interview
	m.state = StateInProgress
	m.timedOut = false
	current := interview.CurrentQuestion()
	m.mu.Unlock()

	if current == nil {
		// Every question already answered; completion is the only move left.
		return nil
	}
	m.countdown.Start(current.Difficulty.TimeLimit())
	return nil
}

// DiscardRecovery abandons an interrupted session: the snapshot is removed
// and the candidate stays in the collection with an in-progress interview
// that will never finish.
func DiscardRecovery(ctx context.Context, s store.Store, candidateID uuid.UUID) error {
	if err := s.DeleteSnapshot(ctx, candidateID); err != nil {
		return fmt.Errorf("failed to discard recovery: %w", err)
	}
	return nil
}
