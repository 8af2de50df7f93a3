// Package llm - evaluator.go scores submitted answers against their question
// using the LLM, with schema validation on the model's verdict.
package llm

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/jonathan/interview-assistant/internal/prompts"
	"github.com/jonathan/interview-assistant/internal/schemas"
	"github.com/jonathan/interview-assistant/internal/types"
)

// Evaluation is a validated per-answer verdict. All scores are normalized to
// the 0..1 range.
type Evaluation struct {
	Score             float64  `json:"score"`
	TechnicalAccuracy float64  `json:"technical_accuracy"`
	ProblemSolving    float64  `json:"problem_solving"`
	Communication     float64  `json:"communication"`
	TimeEfficiency    float64  `json:"time_efficiency"`
	Feedback          string   `json:"feedback"`
	Suggestions       []string `json:"suggestions"`
}

// evaluationPayload is the raw JSON shape the model returns, scored 0..100.
type evaluationPayload struct {
	Score             float64  `json:"score"`
	TechnicalAccuracy float64  `json:"technicalAccuracy"`
	ProblemSolving    float64  `json:"problemSolving"`
	Communication     float64  `json:"communication"`
	TimeEfficiency    float64  `json:"timeEfficiency"`
	Feedback          string   `json:"feedback"`
	Suggestions       []string `json:"suggestions"`
}

// Evaluator grades answers through the LLM client.
type Evaluator struct {
	client Client
	retry  RetryPolicy
	tier   ModelTier
}

// NewEvaluator creates an answer evaluator with the default retry policy.
func NewEvaluator(client Client) *Evaluator {
	return &Evaluator{
		client: client,
		retry:  DefaultRetryPolicy(),
		tier:   TierStandard,
	}
}

// WithRetry overrides the retry policy.
func (e *Evaluator) WithRetry(policy RetryPolicy) *Evaluator {
	e.retry = policy
	return e
}

// Evaluate scores one answer. The raw verdict is validated against the
// evaluation schema before being accepted; malformed verdicts are retried and
// ultimately surface as errors rather than silently zero-filled scores.
func (e *Evaluator) Evaluate(ctx context.Context, question *types.Question, answerText string, timeSpentSec int) (*Evaluation, error) {
	template, err := prompts.Get("interview.json", "answer_evaluation")
	if err != nil {
		return nil, fmt.Errorf("failed to load evaluation prompt: %w", err)
	}

	prompt := prompts.Format(template, map[string]string{
		"Question":   question.Text,
		"Type":       string(question.Type),
		"Difficulty": string(question.Difficulty),
		"Answer":     answerText,
		"TimeSpent":  strconv.Itoa(timeSpentSec),
		"TimeLimit":  strconv.Itoa(question.TimeLimitSec),
	})

	var payload evaluationPayload
	err = e.retry.Do(ctx, func(ctx context.Context) error {
		raw, genErr := e.client.GenerateJSON(ctx, prompt, e.tier)
		if genErr != nil {
			return genErr
		}
		cleaned, exErr := ExtractJSONObject(CleanJSONBlock(raw))
		if exErr != nil {
			return exErr
		}
		if valErr := schemas.ValidateEvaluation([]byte(cleaned)); valErr != nil {
			return valErr
		}
		payload = evaluationPayload{}
		return DecodeJSON(cleaned, &payload)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to evaluate answer: %w", err)
	}

	return &Evaluation{
		Score:             payload.Score / 100,
		TechnicalAccuracy: payload.TechnicalAccuracy / 100,
		ProblemSolving:    payload.ProblemSolving / 100,
		Communication:     payload.Communication / 100,
		TimeEfficiency:    payload.TimeEfficiency / 100,
		Feedback:          strings.TrimSpace(payload.Feedback),
		Suggestions:       payload.Suggestions,
	}, nil
}

// Summarize produces a short hiring summary for a completed interview.
func (e *Evaluator) Summarize(ctx context.Context, candidate *types.Candidate, interview *types.Interview) (string, error) {
	template, err := prompts.Get("interview.json", "interview_summary")
	if err != nil {
		return "", fmt.Errorf("failed to load summary prompt: %w", err)
	}

	var qa strings.Builder
	for i := range interview.Questions {
		q := &interview.Questions[i]
		qa.WriteString(fmt.Sprintf("Q%d (%s/%s): %s\n", i+1, q.Difficulty, q.Type, q.Text))
		for j := range interview.Answers {
			a := &interview.Answers[j]
			if a.QuestionID != q.ID {
				continue
			}
			score := "unscored"
			if a.Score != nil {
				score = fmt.Sprintf("%.0f%%", *a.Score*100)
			}
			qa.WriteString(fmt.Sprintf("A%d (%s): %s\n", i+1, score, a.Text))
		}
	}

	prompt := prompts.Format(template, map[string]string{
		"Name":       candidate.Name,
		"Position":   candidate.Position,
		"Skills":     strings.Join(candidate.Skills, ", "),
		"Transcript": qa.String(),
	})

	var summary string
	err = e.retry.Do(ctx, func(ctx context.Context) error {
		text, genErr := e.client.GenerateContent(ctx, prompt, e.tier)
		if genErr != nil {
			return genErr
		}
		summary = strings.TrimSpace(text)
		if summary == "" {
			return fmt.Errorf("empty summary")
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("failed to summarize interview: %w", err)
	}
	return summary, nil
}
