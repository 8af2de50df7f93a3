package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-assistant/internal/types"
)

func evalQuestion() *types.Question {
	return &types.Question{
		ID:           uuid.New(),
		Text:         "Explain how closures work in JavaScript",
		Type:         types.QuestionTechnical,
		Difficulty:   types.DifficultyMedium,
		TimeLimitSec: 60,
	}
}

const validVerdict = `{
	"score": 82,
	"technicalAccuracy": 85,
	"problemSolving": 78,
	"communication": 80,
	"timeEfficiency": 90,
	"feedback": "Accurate explanation with a concrete example.",
	"suggestions": ["Mention the garbage collection implications."]
}`

func TestEvaluator_NormalizesScores(t *testing.T) {
	client := &fakeClient{responses: []string{validVerdict}}
	ev := NewEvaluator(client).WithRetry(fastRetry())

	result, err := ev.Evaluate(context.Background(), evalQuestion(), "A closure captures its lexical scope...", 45)
	require.NoError(t, err)

	assert.InDelta(t, 0.82, result.Score, 1e-9)
	assert.InDelta(t, 0.85, result.TechnicalAccuracy, 1e-9)
	assert.InDelta(t, 0.90, result.TimeEfficiency, 1e-9)
	assert.NotEmpty(t, result.Feedback)
	assert.Len(t, result.Suggestions, 1)
}

func TestEvaluator_PromptIncludesTiming(t *testing.T) {
	client := &fakeClient{responses: []string{validVerdict}}
	ev := NewEvaluator(client).WithRetry(fastRetry())

	_, err := ev.Evaluate(context.Background(), evalQuestion(), "answer text", 45)
	require.NoError(t, err)

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "45 seconds")
	assert.Contains(t, client.prompts[0], "60 second limit")
}

func TestEvaluator_RejectsSchemaViolations(t *testing.T) {
	// Missing required dimensions, then an out-of-range score, then valid.
	client := &fakeClient{responses: []string{
		`{"score": 50, "feedback": "partial"}`,
		`{"score": 150, "technicalAccuracy": 85, "problemSolving": 78, "communication": 80, "timeEfficiency": 90, "feedback": "x", "suggestions": ["y"]}`,
		validVerdict,
	}}
	ev := NewEvaluator(client).WithRetry(fastRetry())

	result, err := ev.Evaluate(context.Background(), evalQuestion(), "answer", 30)
	require.NoError(t, err)
	assert.Equal(t, 3, client.calls)
	assert.InDelta(t, 0.82, result.Score, 1e-9)
}

func TestEvaluator_SurfacesExhaustedRetries(t *testing.T) {
	client := &fakeClient{errs: []error{
		errors.New("boom"), errors.New("boom"), errors.New("boom"),
	}}
	ev := NewEvaluator(client).WithRetry(fastRetry())

	_, err := ev.Evaluate(context.Background(), evalQuestion(), "answer", 30)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to evaluate answer")
}

func TestEvaluator_Summarize(t *testing.T) {
	client := &fakeClient{responses: []string{
		"Strong candidate with solid fundamentals. Recommend advancing to the next round.",
	}}
	ev := NewEvaluator(client).WithRetry(fastRetry())

	score := 0.8
	interview := &types.Interview{
		ID:        uuid.New(),
		Questions: []types.Question{*evalQuestion()},
		Status:    types.InterviewCompleted,
		Score:     &score,
	}
	interview.Answers = []types.Answer{{
		QuestionID: interview.Questions[0].ID,
		Text:       "Closures capture their defining scope.",
		Score:      &score,
	}}
	candidate := &types.Candidate{Name: "Alice Johnson", Position: "Frontend Developer", Skills: []string{"React"}}

	summary, err := ev.Summarize(context.Background(), candidate, interview)
	require.NoError(t, err)
	assert.Contains(t, summary, "Recommend")

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "Alice Johnson")
	assert.Contains(t, client.prompts[0], "Closures capture")
}
