package types

import (
	"time"

	"github.com/google/uuid"
)

// Difficulty classifies a question's expected challenge level.
type Difficulty string

// Question difficulty levels
const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// Valid reports whether the difficulty is a known level.
func (d Difficulty) Valid() bool {
	switch d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return true
	}
	return false
}

// TimeLimit returns the per-question countdown budget for a difficulty.
func (d Difficulty) TimeLimit() time.Duration {
	switch d {
	case DifficultyEasy:
		return 20 * time.Second
	case DifficultyMedium:
		return 60 * time.Second
	case DifficultyHard:
		return 120 * time.Second
	default:
		return 60 * time.Second
	}
}

// QuestionType classifies what kind of response a question expects.
type QuestionType string

// Question types
const (
	QuestionCoding     QuestionType = "coding"
	QuestionTechnical  QuestionType = "technical"
	QuestionBehavioral QuestionType = "behavioral"
)

// Question is one generated interview question. Questions are immutable once
// generated and are owned by the Interview that requested them.
type Question struct {
	ID             uuid.UUID    `json:"id"`
	Text           string       `json:"text"`
	Type           QuestionType `json:"type"`
	Difficulty     Difficulty   `json:"difficulty"`
	Category       string       `json:"category"`
	TimeLimitSec   int          `json:"time_limit"`
	ExpectedAnswer string       `json:"expected_answer,omitempty"`
}

// Answer is one submitted response. Created exactly once per question per
// interview, append-only. Score fields are nil until evaluation succeeds.
type Answer struct {
	ID          uuid.UUID `json:"id"`
	QuestionID  uuid.UUID `json:"question_id"`
	CandidateID uuid.UUID `json:"candidate_id"`
	Text        string    `json:"text"`
	TimeSpent   int       `json:"time_spent"` // seconds

	Score             *float64 `json:"score,omitempty"` // 0..1 overall
	TechnicalAccuracy *float64 `json:"technical_accuracy,omitempty"`
	ProblemSolving    *float64 `json:"problem_solving,omitempty"`
	Communication     *float64 `json:"communication,omitempty"`
	TimeEfficiency    *float64 `json:"time_efficiency,omitempty"`
	Feedback          string   `json:"feedback,omitempty"`
	Suggestions       []string `json:"suggestions,omitempty"`

	SubmittedAt time.Time `json:"submitted_at"`
}

// InterviewStatus tracks an interview's lifecycle.
type InterviewStatus string

// Interview lifecycle statuses
const (
	InterviewNotStarted InterviewStatus = "not-started"
	InterviewInProgress InterviewStatus = "in-progress"
	InterviewCompleted  InterviewStatus = "completed"
)

// Valid reports whether the status is a known lifecycle value.
func (s InterviewStatus) Valid() bool {
	switch s {
	case InterviewNotStarted, InterviewInProgress, InterviewCompleted:
		return true
	}
	return false
}

// QuestionCount is the fixed number of questions per interview:
// two easy, two medium, two hard.
const QuestionCount = 6

// Interview represents one candidate's ordered run through six questions.
// Answers are appended strictly in presentation order.
type Interview struct {
	ID          uuid.UUID       `json:"id"`
	CandidateID uuid.UUID       `json:"candidate_id"`
	Questions   []Question      `json:"questions"`
	Answers     []Answer        `json:"answers"`
	Status      InterviewStatus `json:"status"`
	CurrentIdx  int             `json:"current_question_index"`
	StartedAt   *time.Time      `json:"started_at,omitempty"`
	EndedAt     *time.Time      `json:"ended_at,omitempty"`
	Score       *float64        `json:"score,omitempty"`
	Summary     string          `json:"summary,omitempty"`
}

// CurrentQuestion returns the question under the cursor, or nil when the
// interview holds no questions or the cursor is out of range.
func (iv *Interview) CurrentQuestion() *Question {
	if iv.CurrentIdx < 0 || iv.CurrentIdx >= len(iv.Questions) {
		return nil
	}
	return &iv.Questions[iv.CurrentIdx]
}

// HasAnswered reports whether an answer for the given question already exists.
// Each answer's question id is unique within one interview.
func (iv *Interview) HasAnswered(questionID uuid.UUID) bool {
	for _, a := range iv.Answers {
		if a.QuestionID == questionID {
			return true
		}
	}
	return false
}

// Clone returns a deep copy of the interview. Readers hold the copy while the
// original keeps changing under its owner's lock.
func (iv *Interview) Clone() *Interview {
	if iv == nil {
		return nil
	}
	out := *iv
	out.Questions = append([]Question(nil), iv.Questions...)
	out.Answers = make([]Answer, len(iv.Answers))
	for i, a := range iv.Answers {
		a.Score = clonePtr(a.Score)
		a.TechnicalAccuracy = clonePtr(a.TechnicalAccuracy)
		a.ProblemSolving = clonePtr(a.ProblemSolving)
		a.Communication = clonePtr(a.Communication)
		a.TimeEfficiency = clonePtr(a.TimeEfficiency)
		a.Suggestions = append([]string(nil), a.Suggestions...)
		out.Answers[i] = a
	}
	out.StartedAt = clonePtr(iv.StartedAt)
	out.EndedAt = clonePtr(iv.EndedAt)
	out.Score = clonePtr(iv.Score)
	return &out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// RecoverySnapshot is the durable record enabling resumption of an
// interrupted interview session. Timer state is deliberately excluded.
type RecoverySnapshot struct {
	CandidateID uuid.UUID     `json:"candidate_id"`
	InterviewID uuid.UUID     `json:"interview_id"`
	Info        CandidateInfo `json:"candidate_info"`
	StartedAt   time.Time     `json:"started_at"`
}
