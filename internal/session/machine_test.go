package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-assistant/internal/llm"
	"github.com/jonathan/interview-assistant/internal/store"
	"github.com/jonathan/interview-assistant/internal/types"
)

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// manualSched captures the countdown's scheduled update so tests can fire it
// after advancing the fake clock.
type manualSched struct {
	mu sync.Mutex
	fn func()
}

func (s *manualSched) schedule(d time.Duration, fn func()) func() {
	s.mu.Lock()
	s.fn = fn
	s.mu.Unlock()
	return func() {}
}

func (s *manualSched) fire() {
	s.mu.Lock()
	fn := s.fn
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}

type fakeGen struct {
	mu     sync.Mutex
	calls  []llm.QuestionSpec
	failAt int
}

func (g *fakeGen) Question(ctx context.Context, spec llm.QuestionSpec) (*types.Question, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls = append(g.calls, spec)
	if g.failAt > 0 && len(g.calls) == g.failAt {
		return nil, errors.New("generator unavailable")
	}
	return &types.Question{
		ID:           uuid.New(),
		Text:         fmt.Sprintf("Question %d about %s", len(g.calls), spec.Topic),
		Type:         spec.Type,
		Difficulty:   spec.Difficulty,
		Category:     spec.Topic,
		TimeLimitSec: int(spec.Difficulty.TimeLimit() / time.Second),
	}, nil
}

type fakeEval struct {
	mu      sync.Mutex
	calls   int
	failing bool
	spent   []int
}

func (e *fakeEval) Evaluate(ctx context.Context, q *types.Question, answer string, timeSpentSec int) (*llm.Evaluation, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.calls++
	e.spent = append(e.spent, timeSpentSec)
	if e.failing {
		return nil, errors.New("evaluator unavailable")
	}
	return &llm.Evaluation{
		Score:             0.8,
		TechnicalAccuracy: 0.85,
		ProblemSolving:    0.75,
		Communication:     0.8,
		TimeEfficiency:    0.9,
		Feedback:          "Good answer.",
		Suggestions:       []string{"Add an example."},
	}, nil
}

func (e *fakeEval) Summarize(ctx context.Context, c *types.Candidate, iv *types.Interview) (string, error) {
	return "Solid performance overall.", nil
}

type env struct {
	machine  *Machine
	store    *store.Memory
	gen      *fakeGen
	eval     *fakeEval
	clock    *fakeClock
	sched    *manualSched
	timeouts []*types.Question
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		store: store.NewMemory(),
		gen:   &fakeGen{},
		eval:  &fakeEval{},
		clock: newFakeClock(),
		sched: &manualSched{},
	}
	m, err := New(Config{
		Store:     e.store,
		Generator: e.gen,
		Evaluator: e.eval,
		Clock:     e.clock,
		Schedule:  e.sched.schedule,
		OnTimeout: func(q *types.Question) { e.timeouts = append(e.timeouts, q) },
	})
	require.NoError(t, err)
	e.machine = m
	return e
}

func fullInfo() types.CandidateInfo {
	return types.CandidateInfo{
		Name:     "Alice Johnson",
		Email:    "alice@example.com",
		Phone:    "+1 555 0100",
		Position: "Frontend Developer",
		Skills:   []string{"React", "JavaScript"},
	}
}

func (e *env) startInterview(t *testing.T) *types.Interview {
	t.Helper()
	missing := e.machine.SupplyInfo(fullInfo())
	require.Empty(t, missing)
	iv, err := e.machine.Start(context.Background())
	require.NoError(t, err)
	return iv
}

func TestMachine_IdentityCollection(t *testing.T) {
	e := newEnv(t)
	assert.Equal(t, StateCollectingIdentity, e.machine.State())

	data := &types.ResumeData{
		PersonalInfo: types.PersonalInfo{Name: "Alice Johnson", Email: "alice@example.com"},
		Skills:       []string{"React"},
	}
	missing := e.machine.ApplyResume(data, "raw resume text")
	assert.Equal(t, []string{"phone"}, missing)
	assert.Equal(t, StateCollectingFields, e.machine.State())

	missing = e.machine.SupplyInfo(types.CandidateInfo{Phone: "+1 555 0100"})
	assert.Empty(t, missing)
	assert.Equal(t, StateReadyToStart, e.machine.State())

	// Earlier fields survived the merge.
	assert.Equal(t, "Alice Johnson", e.machine.Info().Name)
}

func TestMachine_StartBeforeIdentityFails(t *testing.T) {
	e := newEnv(t)
	_, err := e.machine.Start(context.Background())
	assert.Error(t, err)
}

func TestMachine_StartGeneratesFixedPlan(t *testing.T) {
	e := newEnv(t)
	iv := e.startInterview(t)

	require.Len(t, iv.Questions, types.QuestionCount)
	wantDifficulties := []types.Difficulty{"easy", "easy", "medium", "medium", "hard", "hard"}
	wantTypes := []types.QuestionType{"technical", "technical", "coding", "technical", "technical", "behavioral"}
	for i, q := range iv.Questions {
		assert.Equal(t, wantDifficulties[i], q.Difficulty, "question %d", i+1)
		assert.Equal(t, wantTypes[i], q.Type, "question %d", i+1)
	}
	assert.Equal(t, 20, iv.Questions[0].TimeLimitSec)
	assert.Equal(t, 120, iv.Questions[5].TimeLimitSec)

	// Later prompts exclude earlier questions.
	require.Len(t, e.gen.calls, types.QuestionCount)
	assert.Empty(t, e.gen.calls[0].Previous)
	assert.Len(t, e.gen.calls[5].Previous, 5)

	// Candidate, interview, and snapshot are persisted.
	ctx := context.Background()
	candidate, err := e.store.GetCandidate(ctx, iv.CandidateID)
	require.NoError(t, err)
	assert.Equal(t, types.CandidateInProgress, candidate.Status)
	_, err = e.store.GetInterview(ctx, iv.ID)
	require.NoError(t, err)
	_, err = e.store.GetSnapshot(ctx, iv.CandidateID)
	require.NoError(t, err)

	assert.Equal(t, StateInProgress, e.machine.State())
	assert.Equal(t, 20*time.Second, e.machine.Remaining())
}

func TestMachine_StartIsAllOrNothing(t *testing.T) {
	e := newEnv(t)
	e.gen.failAt = 3
	e.machine.SupplyInfo(fullInfo())

	_, err := e.machine.Start(context.Background())
	require.Error(t, err)
	assert.Equal(t, StateReadyToStart, e.machine.State())

	candidates, err := e.store.ListCandidates(context.Background())
	require.NoError(t, err)
	assert.Empty(t, candidates)

	// Retry succeeds once the generator recovers.
	e.gen.failAt = 0
	_, err = e.machine.Start(context.Background())
	assert.NoError(t, err)
}

type flakyStore struct {
	store.Store
	failCreateInterview bool
}

func (s *flakyStore) CreateInterview(ctx context.Context, iv *types.Interview) error {
	if s.failCreateInterview {
		return errors.New("interview write failed")
	}
	return s.Store.CreateInterview(ctx, iv)
}

func TestMachine_StartRollsBackCandidateOnPersistFailure(t *testing.T) {
	mem := store.NewMemory()
	fs := &flakyStore{Store: mem, failCreateInterview: true}
	m, err := New(Config{
		Store:     fs,
		Generator: &fakeGen{},
		Evaluator: &fakeEval{},
		Clock:     newFakeClock(),
		Schedule:  (&manualSched{}).schedule,
	})
	require.NoError(t, err)
	require.Empty(t, m.SupplyInfo(fullInfo()))

	ctx := context.Background()
	_, err = m.Start(ctx)
	require.Error(t, err)

	// The candidate row written before the failure is rolled back.
	candidates, err := mem.ListCandidates(ctx)
	require.NoError(t, err)
	assert.Empty(t, candidates)

	// A retry persists exactly one candidate, not a duplicate.
	fs.failCreateInterview = false
	_, err = m.Start(ctx)
	require.NoError(t, err)
	candidates, err = mem.ListCandidates(ctx)
	require.NoError(t, err)
	assert.Len(t, candidates, 1)
}

func TestMachine_SubmitAnswerEvaluatesAndAdvances(t *testing.T) {
	e := newEnv(t)
	iv := e.startInterview(t)

	e.clock.advance(12 * time.Second)
	answer, done, err := e.machine.SubmitAnswer(context.Background(), "Hooks let function components keep state between renders.")
	require.NoError(t, err)
	assert.False(t, done)

	require.NotNil(t, answer.Score)
	assert.InDelta(t, 0.8, *answer.Score, 1e-9)
	assert.Equal(t, 12, answer.TimeSpent)
	assert.Equal(t, "Good answer.", answer.Feedback)
	require.Equal(t, []int{12}, e.eval.spent)

	// Cursor advanced and the next easy question's timer re-armed.
	current := e.machine.CurrentQuestion()
	require.NotNil(t, current)
	assert.Equal(t, iv.Questions[1].ID, current.ID)
	assert.Equal(t, 20*time.Second, e.machine.Remaining())

	stored, err := e.store.GetInterview(context.Background(), iv.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Answers, 1)
	assert.Equal(t, 1, stored.CurrentIdx)
}

func TestMachine_DegenerateAnswerSkipsEvaluator(t *testing.T) {
	for _, text := range []string{"", "   ", "yes", "No", "abc"} {
		e2 := newEnv(t)
		e2.startInterview(t)
		answer, _, err := e2.machine.SubmitAnswer(context.Background(), text)
		require.NoError(t, err, "text %q", text)
		require.NotNil(t, answer.Score)
		assert.Equal(t, 0.0, *answer.Score, "text %q", text)
		assert.Equal(t, "Answer is too short or irrelevant.", answer.Feedback)
		assert.Equal(t, []string{"Provide a detailed and relevant answer."}, answer.Suggestions)
		assert.Equal(t, 0, e2.eval.calls)
	}
}

func TestMachine_EvaluatorFailureFallsBackToRubric(t *testing.T) {
	e := newEnv(t)
	e.eval.failing = true
	e.startInterview(t)

	answer, _, err := e.machine.SubmitAnswer(context.Background(),
		"First, hooks capture state. Therefore the component re-renders whenever that state changes, because React tracks each hook call.")
	require.NoError(t, err)
	require.NotNil(t, answer.Score)
	assert.Greater(t, *answer.Score, 0.0)
	assert.NotEmpty(t, answer.Feedback)
	// Rubric fallback leaves the evaluator-specific dimensions unset.
	assert.Nil(t, answer.TechnicalAccuracy)
}

func TestMachine_DoubleSubmitRejected(t *testing.T) {
	e := newEnv(t)
	e.startInterview(t)

	_, _, err := e.machine.SubmitAnswer(context.Background(), "A reasonable first answer.")
	require.NoError(t, err)

	// The cursor moved, so this answers question two, not question one again.
	// Force a stale state by rewinding the cursor.
	e.machine.mu.Lock()
	e.machine.interview.CurrentIdx = 0
	e.machine.mu.Unlock()

	_, _, err = e.machine.SubmitAnswer(context.Background(), "Replay of question one.")
	assert.ErrorContains(t, err, "already answered")
}

// blockingEval parks inside Evaluate until released, holding a submission
// mid-flight so another call can race it.
type blockingEval struct {
	fakeEval
	entered chan struct{}
	release chan struct{}
}

func (e *blockingEval) Evaluate(ctx context.Context, q *types.Question, answer string, timeSpentSec int) (*llm.Evaluation, error) {
	e.entered <- struct{}{}
	<-e.release
	return e.fakeEval.Evaluate(ctx, q, answer, timeSpentSec)
}

func TestMachine_ConcurrentSubmitRecordsOneAnswer(t *testing.T) {
	eval := &blockingEval{entered: make(chan struct{}), release: make(chan struct{})}
	st := store.NewMemory()
	m, err := New(Config{
		Store:     st,
		Generator: &fakeGen{},
		Evaluator: eval,
		Clock:     newFakeClock(),
		Schedule:  (&manualSched{}).schedule,
	})
	require.NoError(t, err)
	require.Empty(t, m.SupplyInfo(fullInfo()))
	_, err = m.Start(context.Background())
	require.NoError(t, err)

	errs := make(chan error, 1)
	go func() {
		_, _, submitErr := m.SubmitAnswer(context.Background(), "First submission with enough substance to evaluate.")
		errs <- submitErr
	}()
	// The first submission is now inside the evaluator with the lock released.
	<-eval.entered

	_, _, err = m.SubmitAnswer(context.Background(), "Second submission racing the first.")
	assert.ErrorContains(t, err, "already answered")

	close(eval.release)
	require.NoError(t, <-errs)

	iv := m.Interview()
	assert.Len(t, iv.Answers, 1)
	assert.Equal(t, 1, iv.CurrentIdx)
}

func TestMachine_InterviewReturnsDetachedCopy(t *testing.T) {
	e := newEnv(t)
	e.startInterview(t)

	iv := e.machine.Interview()
	iv.CurrentIdx = 5
	iv.Questions[0].Text = "tampered"
	iv.Answers = append(iv.Answers, types.Answer{ID: uuid.New()})

	current := e.machine.CurrentQuestion()
	require.NotNil(t, current)
	assert.NotEqual(t, "tampered", current.Text)
	assert.Empty(t, e.machine.Interview().Answers)
	assert.Equal(t, 0, e.machine.Interview().CurrentIdx)
}

func TestMachine_TimeoutFlow(t *testing.T) {
	e := newEnv(t)
	e.startInterview(t)

	e.clock.advance(25 * time.Second)
	e.sched.fire()

	require.Len(t, e.timeouts, 1)
	assert.Equal(t, e.machine.Interview().Questions[0].ID, e.timeouts[0].ID)

	// Review keeps the question open.
	answer, done, err := e.machine.HandleTimeout(context.Background(), "draft text", TimeoutReview)
	require.NoError(t, err)
	assert.Nil(t, answer)
	assert.False(t, done)
	require.NotNil(t, e.machine.CurrentQuestion())

	// Submitting afterwards counts the full time limit.
	answer, _, err = e.machine.HandleTimeout(context.Background(), "the draft I had written so far", TimeoutSubmit)
	require.NoError(t, err)
	assert.Equal(t, 20, answer.TimeSpent)
}

func TestMachine_FullInterviewAndCompletion(t *testing.T) {
	e := newEnv(t)
	iv := e.startInterview(t)

	var done bool
	for i := 0; i < types.QuestionCount; i++ {
		e.clock.advance(5 * time.Second)
		var err error
		_, done, err = e.machine.SubmitAnswer(context.Background(),
			fmt.Sprintf("A thorough answer to question number %d with plenty of detail.", i+1))
		require.NoError(t, err)
	}
	assert.True(t, done)
	assert.Nil(t, e.machine.CurrentQuestion())

	completed, err := e.machine.Complete(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StateCompleted, e.machine.State())
	assert.Equal(t, types.InterviewCompleted, completed.Status)
	require.NotNil(t, completed.Score)
	assert.InDelta(t, 0.8, *completed.Score, 1e-9)
	assert.Equal(t, "Solid performance overall.", completed.Summary)
	require.NotNil(t, completed.EndedAt)

	ctx := context.Background()
	candidate, err := e.store.GetCandidate(ctx, iv.CandidateID)
	require.NoError(t, err)
	assert.Equal(t, types.CandidateCompleted, candidate.Status)
	require.NotNil(t, candidate.Score)

	_, err = e.store.GetSnapshot(ctx, iv.CandidateID)
	assert.ErrorIs(t, err, store.ErrNotFound)

	// A second completion is rejected.
	_, err = e.machine.Complete(ctx)
	assert.Error(t, err)
}

func TestMachine_PartialCompletionAllowed(t *testing.T) {
	e := newEnv(t)
	e.startInterview(t)

	_, _, err := e.machine.SubmitAnswer(context.Background(), "Only one answered question here.")
	require.NoError(t, err)

	completed, err := e.machine.Complete(context.Background())
	require.NoError(t, err)
	require.NotNil(t, completed.Score)
	assert.InDelta(t, 0.8, *completed.Score, 1e-9)
	assert.Len(t, completed.Answers, 1)
}

func TestMachine_Recovery(t *testing.T) {
	e := newEnv(t)
	iv := e.startInterview(t)
	ctx := context.Background()

	_, _, err := e.machine.SubmitAnswer(ctx, "Answer one, with a fair amount of content.")
	require.NoError(t, err)
	_, _, err = e.machine.SubmitAnswer(ctx, "Answer two, also fairly substantial.")
	require.NoError(t, err)

	// Simulate a crash: build a fresh machine over the same store.
	e2 := &env{store: e.store, gen: &fakeGen{}, eval: &fakeEval{}, clock: newFakeClock(), sched: &manualSched{}}
	m2, err := New(Config{
		Store:     e2.store,
		Generator: e2.gen,
		Evaluator: e2.eval,
		Clock:     e2.clock,
		Schedule:  e2.sched.schedule,
	})
	require.NoError(t, err)

	snap, err := CheckRecovery(ctx, e.store, iv.CandidateID)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, iv.ID, snap.InterviewID)

	require.NoError(t, m2.ResumeRecovered(ctx, snap))
	assert.Equal(t, StateInProgress, m2.State())

	current := m2.CurrentQuestion()
	require.NotNil(t, current)
	assert.Equal(t, iv.Questions[2].ID, current.ID)
	// The medium question's timer restarts from its full limit.
	assert.Equal(t, 60*time.Second, m2.Remaining())
	assert.Len(t, m2.Interview().Answers, 2)
}

func TestMachine_RecoveryAbsent(t *testing.T) {
	e := newEnv(t)
	snap, err := CheckRecovery(context.Background(), e.store, uuid.New())
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestMachine_DiscardRecovery(t *testing.T) {
	e := newEnv(t)
	iv := e.startInterview(t)
	ctx := context.Background()

	require.NoError(t, DiscardRecovery(ctx, e.store, iv.CandidateID))
	snap, err := CheckRecovery(ctx, e.store, iv.CandidateID)
	require.NoError(t, err)
	assert.Nil(t, snap)
}
