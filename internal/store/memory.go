package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/jonathan/interview-assistant/internal/types"
)

// Memory is an in-process Store used by tests and ephemeral runs. All
// returned records are deep-ish copies; callers cannot mutate stored state
// through them.
type Memory struct {
	mu         sync.RWMutex
	candidates map[uuid.UUID]types.Candidate
	interviews map[uuid.UUID]types.Interview
	snapshots  map[uuid.UUID]types.RecoverySnapshot
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		candidates: make(map[uuid.UUID]types.Candidate),
		interviews: make(map[uuid.UUID]types.Interview),
		snapshots:  make(map[uuid.UUID]types.RecoverySnapshot),
	}
}

// CreateCandidate inserts a new candidate record.
func (m *Memory) CreateCandidate(ctx context.Context, c *types.Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.candidates[c.ID] = copyCandidate(c)
	return nil
}

// GetCandidate fetches one candidate by id.
func (m *Memory) GetCandidate(ctx context.Context, id uuid.UUID) (*types.Candidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	c, ok := m.candidates[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := copyCandidate(&c)
	return &out, nil
}

// UpdateCandidate overwrites an existing candidate record.
func (m *Memory) UpdateCandidate(ctx context.Context, c *types.Candidate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.candidates[c.ID]; !ok {
		return ErrNotFound
	}
	m.candidates[c.ID] = copyCandidate(c)
	return nil
}

// ListCandidates returns all candidates, newest first.
func (m *Memory) ListCandidates(ctx context.Context) ([]types.Candidate, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]types.Candidate, 0, len(m.candidates))
	for id := range m.candidates {
		c := m.candidates[id]
		out = append(out, copyCandidate(&c))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// DeleteCandidate removes a candidate and its interviews.
func (m *Memory) DeleteCandidate(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.candidates[id]; !ok {
		return ErrNotFound
	}
	delete(m.candidates, id)
	delete(m.snapshots, id)
	for ivID, iv := range m.interviews {
		if iv.CandidateID == id {
			delete(m.interviews, ivID)
		}
	}
	return nil
}

// CreateInterview inserts a new interview record.
func (m *Memory) CreateInterview(ctx context.Context, iv *types.Interview) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.interviews[iv.ID] = copyInterview(iv)
	return nil
}

// GetInterview fetches one interview by id.
func (m *Memory) GetInterview(ctx context.Context, id uuid.UUID) (*types.Interview, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	iv, ok := m.interviews[id]
	if !ok {
		return nil, ErrNotFound
	}
	out := copyInterview(&iv)
	return &out, nil
}

// UpdateInterview overwrites an existing interview record.
func (m *Memory) UpdateInterview(ctx context.Context, iv *types.Interview) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.interviews[iv.ID]; !ok {
		return ErrNotFound
	}
	m.interviews[iv.ID] = copyInterview(iv)
	return nil
}

// CompleteInterview atomically persists the final interview and candidate
// states and removes the candidate's recovery snapshot.
func (m *Memory) CompleteInterview(ctx context.Context, c *types.Candidate, iv *types.Interview) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.candidates[c.ID]; !ok {
		return ErrNotFound
	}
	if _, ok := m.interviews[iv.ID]; !ok {
		return ErrNotFound
	}
	m.candidates[c.ID] = copyCandidate(c)
	m.interviews[iv.ID] = copyInterview(iv)
	delete(m.snapshots, c.ID)
	return nil
}

// SaveSnapshot upserts the recovery snapshot for a candidate.
func (m *Memory) SaveSnapshot(ctx context.Context, snap *types.RecoverySnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[snap.CandidateID] = *snap
	return nil
}

// GetSnapshot fetches the recovery snapshot for a candidate.
func (m *Memory) GetSnapshot(ctx context.Context, candidateID uuid.UUID) (*types.RecoverySnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.snapshots[candidateID]
	if !ok {
		return nil, ErrNotFound
	}
	out := snap
	return &out, nil
}

// DeleteSnapshot removes the recovery snapshot for a candidate.
func (m *Memory) DeleteSnapshot(ctx context.Context, candidateID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, candidateID)
	return nil
}

// Close releases backend resources.
func (m *Memory) Close() error { return nil }

func copyCandidate(c *types.Candidate) types.Candidate {
	out := *c
	out.Skills = append([]string(nil), c.Skills...)
	if c.Score != nil {
		score := *c.Score
		out.Score = &score
	}
	if c.InterviewID != nil {
		id := *c.InterviewID
		out.InterviewID = &id
	}
	return out
}

func copyInterview(iv *types.Interview) types.Interview {
	out := *iv
	out.Questions = append([]types.Question(nil), iv.Questions...)
	out.Answers = append([]types.Answer(nil), iv.Answers...)
	if iv.Score != nil {
		score := *iv.Score
		out.Score = &score
	}
	return out
}
