// Package session drives one candidate's interview from onboarding through
// completion: identity collection from the resume, serialized question
// generation, timed answer submission with evaluation, and final scoring.
package session

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/interview-assistant/internal/llm"
	"github.com/jonathan/interview-assistant/internal/scoring"
	"github.com/jonathan/interview-assistant/internal/store"
	"github.com/jonathan/interview-assistant/internal/timer"
	"github.com/jonathan/interview-assistant/internal/topics"
	"github.com/jonathan/interview-assistant/internal/types"
)

// State is the session's lifecycle phase.
type State string

// Session states
const (
	StateCollectingIdentity State = "collecting-identity"
	StateCollectingFields   State = "collecting-missing-fields"
	StateReadyToStart       State = "ready-to-start"
	StateInProgress         State = "in-progress"
	StateCompleted          State = "completed"
)

// TimeoutDecision is the candidate's choice when a question timer expires.
type TimeoutDecision int

// Timeout decisions
const (
	// TimeoutSubmit submits the current draft as the answer.
	TimeoutSubmit TimeoutDecision = iota
	// TimeoutReview keeps the question open for review before submitting.
	TimeoutReview
)

// Canned evaluation output for answers too short or irrelevant to score.
const (
	degenerateFeedback   = "Answer is too short or irrelevant."
	degenerateSuggestion = "Provide a detailed and relevant answer."
)

// Generator produces one interview question per spec.
type Generator interface {
	Question(ctx context.Context, spec llm.QuestionSpec) (*types.Question, error)
}

// Evaluator grades answers and summarizes completed interviews.
type Evaluator interface {
	Evaluate(ctx context.Context, question *types.Question, answerText string, timeSpentSec int) (*llm.Evaluation, error)
	Summarize(ctx context.Context, candidate *types.Candidate, interview *types.Interview) (string, error)
}

// planSlot fixes one position in the six-question sequence.
type planSlot struct {
	difficulty types.Difficulty
	qtype      types.QuestionType
}

// questionPlan is the fixed interview shape: two easy warm-ups, a medium
// coding and a medium technical question, then two hard questions closing on
// behavioral.
var questionPlan = [types.QuestionCount]planSlot{
	{types.DifficultyEasy, types.QuestionTechnical},
	{types.DifficultyEasy, types.QuestionTechnical},
	{types.DifficultyMedium, types.QuestionCoding},
	{types.DifficultyMedium, types.QuestionTechnical},
	{types.DifficultyHard, types.QuestionTechnical},
	{types.DifficultyHard, types.QuestionBehavioral},
}

// Config wires a Machine's dependencies. Store, Generator, and Evaluator are
// required; everything else has working defaults.
type Config struct {
	Store     store.Store
	Generator Generator
	Evaluator Evaluator

	// Clock, Lifecycle, Schedule, and Precision configure the per-question
	// countdown. Zero values use the real clock and scheduler.
	Clock     timer.Clock
	Lifecycle timer.Lifecycle
	Schedule  timer.ScheduleFunc
	Precision time.Duration

	// OnTick receives throttled countdown updates for the active question.
	OnTick func(remaining time.Duration)
	// OnTimeout fires when the active question's timer reaches zero. The
	// session then waits for HandleTimeout.
	OnTimeout func(question *types.Question)

	// Rand seeds topic selection; nil uses the shared source.
	Rand *rand.Rand
}

// Machine is the per-candidate interview session state machine. All methods
// are safe for concurrent use.
type Machine struct {
	mu sync.Mutex

	state      State
	info       types.CandidateInfo
	resumeText string
	candidate  *types.Candidate
	interview  *types.Interview
	timedOut   bool
	// submitting marks an answer mid-evaluation. The lock is released around
	// the evaluator call, so this flag is what keeps a second SubmitAnswer for
	// the same question from slipping past the HasAnswered guard.
	submitting bool

	store     store.Store
	generator Generator
	evaluator Evaluator
	rubric    *scoring.Rubric
	countdown *timer.Countdown
	clock     timer.Clock
	rng       *rand.Rand

	onTimeout func(question *types.Question)
}

// New creates a session awaiting a resume or manually supplied identity.
func New(cfg Config) (*Machine, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store is required")
	}
	if cfg.Generator == nil {
		return nil, fmt.Errorf("generator is required")
	}
	if cfg.Evaluator == nil {
		return nil, fmt.Errorf("evaluator is required")
	}

	clock := cfg.Clock
	if clock == nil {
		clock = timer.SystemClock()
	}

	m := &Machine{
		state:     StateCollectingIdentity,
		store:     cfg.Store,
		generator: cfg.Generator,
		evaluator: cfg.Evaluator,
		rubric:    scoring.NewRubric(scoring.DefaultWeights()),
		clock:     clock,
		rng:       cfg.Rand,
		onTimeout: cfg.OnTimeout,
	}
	m.countdown = timer.New(timer.Config{
		Precision:  cfg.Precision,
		OnTick:     cfg.OnTick,
		OnComplete: m.handleExpiry,
		Clock:      clock,
		Lifecycle:  cfg.Lifecycle,
		Schedule:   cfg.Schedule,
	})
	return m, nil
}

// State returns the current session state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Info returns the identity collected so far.
func (m *Machine) Info() types.CandidateInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.info
}

// Interview returns a copy of the interview in progress, or nil before Start.
// The copy is detached: callers may read it while the session keeps advancing.
func (m *Machine) Interview() *types.Interview {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.interview.Clone()
}

// ApplyResume seeds identity from extracted resume data and returns the
// required fields still missing. With nothing missing the session is ready to
// start; otherwise it waits for SupplyInfo.
func (m *Machine) ApplyResume(data *types.ResumeData, resumeText string) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateCollectingIdentity && m.state != StateCollectingFields {
		return nil
	}

	m.info = m.info.Merge(data.CandidateInfo())
	m.resumeText = resumeText
	return m.settleIdentityLocked()
}

// SupplyInfo merges manually entered fields into the collected identity and
// returns the required fields still missing. Existing values are kept when
// the new info leaves them blank.
func (m *Machine) SupplyInfo(info types.CandidateInfo) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateCollectingIdentity && m.state != StateCollectingFields {
		return nil
	}

	m.info = m.info.Merge(info)
	return m.settleIdentityLocked()
}

func (m *Machine) settleIdentityLocked() []string {
	missing := m.info.MissingFields()
	if len(missing) == 0 {
		m.state = StateReadyToStart
	} else {
		m.state = StateCollectingFields
	}
	return missing
}

// Start generates the six-question sequence, persists the candidate and
// interview with a recovery snapshot, and arms the first question's timer.
// Generation is all-or-nothing: any failure leaves the session ready to
// retry with no partial interview persisted.
func (m *Machine) Start(ctx context.Context) (*types.Interview, error) {
	m.mu.Lock()
	if m.state != StateReadyToStart {
		state := m.state
		m.mu.Unlock()
		return nil, fmt.Errorf("cannot start interview in state %s", state)
	}
	info := m.info
	resumeText := m.resumeText
	rng := m.rng
	m.mu.Unlock()

	questions, err := m.generateQuestions(ctx, info, rng)
	if err != nil {
		return nil, err
	}

	now := m.clock.Now()
	candidate := &types.Candidate{
		ID:         uuid.New(),
		Name:       info.Name,
		Email:      info.Email,
		Phone:      info.Phone,
		Position:   info.Position,
		Skills:     info.Skills,
		Experience: info.Experience,
		Education:  info.Education,
		ResumeText: resumeText,
		Status:     types.CandidateInProgress,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	interview := &types.Interview{
		ID:          uuid.New(),
		CandidateID: candidate.ID,
		Questions:   questions,
		Status:      types.InterviewInProgress,
		StartedAt:   &now,
	}
	candidate.InterviewID = &interview.ID

	if err := m.store.CreateCandidate(ctx, candidate); err != nil {
		return nil, fmt.Errorf("failed to persist candidate: %w", err)
	}
	if err := m.store.CreateInterview(ctx, interview); err != nil {
		m.discardStarted(ctx, candidate.ID)
		return nil, fmt.Errorf("failed to persist interview: %w", err)
	}
	if err := m.store.SaveSnapshot(ctx, &types.RecoverySnapshot{
		CandidateID: candidate.ID,
		InterviewID: interview.ID,
		Info:        info,
		StartedAt:   now,
	}); err != nil {
		m.discardStarted(ctx, candidate.ID)
		return nil, fmt.Errorf("failed to persist recovery snapshot: %w", err)
	}

	m.mu.Lock()
	m.candidate = candidate
	m.interview = interview
	m.state = StateInProgress
	m.timedOut = false
	snapshot := interview.Clone()
	m.mu.Unlock()

	m.countdown.Start(questions[0].Difficulty.TimeLimit())
	return snapshot, nil
}

// discardStarted rolls back a partially persisted start so a retry does not
// leave an orphan candidate behind. Best effort: candidate deletion cascades
// to the interview and snapshot.
func (m *Machine) discardStarted(ctx context.Context, candidateID uuid.UUID) {
	_ = m.store.DeleteCandidate(ctx, candidateID)
}

// generateQuestions builds the fixed sequence serially so each prompt can
// exclude everything generated before it.
func (m *Machine) generateQuestions(ctx context.Context, info types.CandidateInfo, rng *rand.Rand) ([]types.Question, error) {
	pickers := map[types.Difficulty]*topics.Picker{
		types.DifficultyEasy:   topics.NewPicker(rng),
		types.DifficultyMedium: topics.NewPicker(rng),
		types.DifficultyHard:   topics.NewPicker(rng),
	}

	questions := make([]types.Question, 0, types.QuestionCount)
	var previous []string
	for i, slot := range questionPlan {
		topic := topics.BehavioralTopic
		if slot.qtype != types.QuestionBehavioral {
			topic = pickers[slot.difficulty].Pick(topics.ForSkills(info.Skills, slot.difficulty))
		}

		q, err := m.generator.Question(ctx, llm.QuestionSpec{
			Difficulty: slot.difficulty,
			Type:       slot.qtype,
			Topic:      topic,
			Skills:     info.Skills,
			Position:   info.Position,
			Previous:   previous,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to generate question %d: %w", i+1, err)
		}
		questions = append(questions, *q)
		previous = append(previous, q.Text)
	}
	return questions, nil
}

// CurrentQuestion returns the active question, or nil outside InProgress.
func (m *Machine) CurrentQuestion() *types.Question {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state != StateInProgress || m.interview == nil {
		return nil
	}
	return m.interview.CurrentQuestion()
}

// Remaining returns the active question's remaining time.
func (m *Machine) Remaining() time.Duration {
	return m.countdown.Remaining()
}

// TimerSnapshot returns the countdown state for the active question.
func (m *Machine) TimerSnapshot() timer.Snapshot {
	return m.countdown.Snapshot()
}

// Pause freezes the active question's timer.
func (m *Machine) Pause() { m.countdown.Pause() }

// Resume continues a paused question timer.
func (m *Machine) Resume() { m.countdown.Resume() }

// SubmitAnswer records and evaluates an answer for the active question, then
// advances to the next one. done is true once every question has an answer.
//
// Degenerate answers (empty, bare yes/no, or under five characters) score
// zero without an evaluator call. Evaluator failures fall back to the local
// rubric so one flaky call never loses an answer.
func (m *Machine) SubmitAnswer(ctx context.Context, text string) (*types.Answer, bool, error) {
	m.mu.Lock()
	if m.state != StateInProgress || m.interview == nil {
		state := m.state
		m.mu.Unlock()
		return nil, false, fmt.Errorf("cannot submit answer in state %s", state)
	}
	question := m.interview.CurrentQuestion()
	if question == nil {
		m.mu.Unlock()
		return nil, false, fmt.Errorf("no question is active")
	}
	if m.interview.HasAnswered(question.ID) {
		m.mu.Unlock()
		return nil, false, fmt.Errorf("question already answered")
	}
	if m.submitting {
		m.mu.Unlock()
		return nil, false, fmt.Errorf("question already answered")
	}
	m.submitting = true
	candidateID := m.candidate.ID
	timedOut := m.timedOut
	m.mu.Unlock()

	limit := time.Duration(question.TimeLimitSec) * time.Second
	timeSpent := limit - m.countdown.Remaining()
	if timedOut || timeSpent > limit {
		timeSpent = limit
	}
	if timeSpent < 0 {
		timeSpent = 0
	}
	m.countdown.Stop()

	answer := types.Answer{
		ID:          uuid.New(),
		QuestionID:  question.ID,
		CandidateID: candidateID,
		Text:        text,
		TimeSpent:   int(timeSpent / time.Second),
		SubmittedAt: m.clock.Now(),
	}
	m.scoreAnswer(ctx, question, &answer)

	m.mu.Lock()
	m.submitting = false
	m.interview.Answers = append(m.interview.Answers, answer)
	m.interview.CurrentIdx++
	m.timedOut = false
	interview := m.interview.Clone()
	done := interview.CurrentIdx >= len(interview.Questions)
	var next *types.Question
	if !done {
		next = interview.CurrentQuestion()
	}
	m.mu.Unlock()

	if err := m.store.UpdateInterview(ctx, interview); err != nil {
		return nil, false, fmt.Errorf("failed to persist answer: %w", err)
	}

	if next != nil {
		m.countdown.Start(next.Difficulty.TimeLimit())
	}
	return &answer, done, nil
}

// scoreAnswer fills the answer's evaluation fields in place.
func (m *Machine) scoreAnswer(ctx context.Context, question *types.Question, answer *types.Answer) {
	if isDegenerate(answer.Text) {
		zero := 0.0
		answer.Score = &zero
		answer.Feedback = degenerateFeedback
		answer.Suggestions = []string{degenerateSuggestion}
		return
	}

	eval, err := m.evaluator.Evaluate(ctx, question, answer.Text, answer.TimeSpent)
	if err == nil {
		answer.Score = &eval.Score
		answer.TechnicalAccuracy = &eval.TechnicalAccuracy
		answer.ProblemSolving = &eval.ProblemSolving
		answer.Communication = &eval.Communication
		answer.TimeEfficiency = &eval.TimeEfficiency
		answer.Feedback = eval.Feedback
		answer.Suggestions = eval.Suggestions
		return
	}

	// Local fallback keeps the interview moving when the evaluator is down.
	criteria := m.rubric.Evaluate(answer, question)
	score := m.rubric.ScoreAnswer(answer, question)
	answer.Score = &score
	answer.Feedback = scoring.Feedback(criteria)
}

// HandleTimeout resolves an expired question per the candidate's decision:
// submit the draft as-is, or keep the question open for review. Review leaves
// the timer stopped; the eventual submission counts the full time limit.
func (m *Machine) HandleTimeout(ctx context.Context, draft string, decision TimeoutDecision) (*types.Answer, bool, error) {
	if decision == TimeoutReview {
		return nil, false, nil
	}
	return m.SubmitAnswer(ctx, draft)
}

// handleExpiry is the countdown's OnComplete hook.
func (m *Machine) handleExpiry() {
	m.mu.Lock()
	var question *types.Question
	if m.state == StateInProgress && m.interview != nil {
		m.timedOut = true
		question = m.interview.CurrentQuestion()
	}
	onTimeout := m.onTimeout
	m.mu.Unlock()

	if question != nil && onTimeout != nil {
		onTimeout(question)
	}
}

// Complete finalizes the interview: aggregates answer scores, requests a
// summary (best effort), and persists the terminal candidate and interview
// states atomically. Completion is permitted with unanswered questions; the
// aggregate simply covers what was answered.
func (m *Machine) Complete(ctx context.Context) (*types.Interview, error) {
	m.mu.Lock()
	if m.state != StateInProgress || m.interview == nil {
		state := m.state
		m.mu.Unlock()
		return nil, fmt.Errorf("cannot complete interview in state %s", state)
	}
	if m.submitting {
		m.mu.Unlock()
		return nil, fmt.Errorf("cannot complete interview while an answer is being evaluated")
	}

	now := m.clock.Now()
	score := scoring.Aggregate(m.interview.Answers)
	m.interview.Status = types.InterviewCompleted
	m.interview.EndedAt = &now
	m.interview.Score = &score

	m.candidate.Status = types.CandidateCompleted
	m.candidate.Score = &score
	m.candidate.UpdatedAt = now

	// The terminal state is claimed before the lock drops so no submission
	// lands mid-completion; a persistence failure hands it back for retry.
	m.state = StateCompleted
	candidate := m.candidate
	interview := m.interview.Clone()
	m.mu.Unlock()

	m.countdown.Stop()

	if summary, err := m.evaluator.Summarize(ctx, candidate, interview); err == nil {
		interview.Summary = summary
		m.mu.Lock()
		m.interview.Summary = summary
		m.mu.Unlock()
	}

	if err := m.store.CompleteInterview(ctx, candidate, interview); err != nil {
		m.mu.Lock()
		m.state = StateInProgress
		m.mu.Unlock()
		return nil, fmt.Errorf("failed to persist completion: %w", err)
	}

	return interview, nil
}

// Close releases the session's countdown: any scheduled update is cancelled
// and the lifecycle subscription is removed. Call it when the session's owner
// discards the machine.
func (m *Machine) Close() {
	m.countdown.Close()
}

// isDegenerate reports whether an answer is too empty to be worth evaluating.
func isDegenerate(text string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	return t == "" || t == "yes" || t == "no" || len(t) < 5
}
