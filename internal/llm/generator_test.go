package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-assistant/internal/types"
)

// fakeClient replays canned responses and records prompts.
type fakeClient struct {
	responses []string
	errs      []error
	calls     int
	prompts   []string
}

func (f *fakeClient) GenerateContent(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	return f.GenerateJSON(ctx, prompt, tier)
}

func (f *fakeClient) GenerateJSON(ctx context.Context, prompt string, tier ModelTier) (string, error) {
	f.prompts = append(f.prompts, prompt)
	idx := f.calls
	f.calls++
	if idx < len(f.errs) && f.errs[idx] != nil {
		return "", f.errs[idx]
	}
	if idx < len(f.responses) {
		return f.responses[idx], nil
	}
	return "", errors.New("no canned response")
}

func (f *fakeClient) GetModel(tier ModelTier) string { return "fake-model" }
func (f *fakeClient) Close() error { return nil }

func fastRetry() RetryPolicy {
	return RetryPolicy{Attempts: 3, Delay: time.Millisecond}
}

func TestGenerator_Question(t *testing.T) {
	client := &fakeClient{responses: []string{
		`{"question": "What does a React hook let you do?", "category": "React Hooks", "expectedAnswer": "Hooks let function components use state and lifecycle features."}`,
	}}
	gen := NewGenerator(client).WithRetry(fastRetry())

	q, err := gen.Question(context.Background(), QuestionSpec{
		Difficulty: types.DifficultyEasy,
		Type:       types.QuestionTechnical,
		Topic:      "React Hooks",
		Skills:     []string{"React", "JavaScript"},
		Position:   "Frontend Developer",
	})
	require.NoError(t, err)

	assert.NotEqual(t, "", q.ID.String())
	assert.Equal(t, "What does a React hook let you do?", q.Text)
	assert.Equal(t, types.DifficultyEasy, q.Difficulty)
	assert.Equal(t, 20, q.TimeLimitSec)
	assert.Equal(t, "React Hooks", q.Category)
	assert.NotEmpty(t, q.ExpectedAnswer)
}

func TestGenerator_PromptCarriesPreviousQuestions(t *testing.T) {
	client := &fakeClient{responses: []string{
		`{"question": "Explain the event loop.", "category": "JavaScript"}`,
	}}
	gen := NewGenerator(client).WithRetry(fastRetry())

	_, err := gen.Question(context.Background(), QuestionSpec{
		Difficulty: types.DifficultyMedium,
		Type:       types.QuestionTechnical,
		Topic:      "Event Loop",
		Previous:   []string{"What is a closure?"},
	})
	require.NoError(t, err)

	require.Len(t, client.prompts, 1)
	assert.Contains(t, client.prompts[0], "What is a closure?")
	assert.Contains(t, client.prompts[0], "medium")
}

func TestGenerator_RetriesOnMalformedResponse(t *testing.T) {
	client := &fakeClient{responses: []string{
		`not json at all`,
		`{"question": "Describe database indexing.", "category": "Database"}`,
	}}
	gen := NewGenerator(client).WithRetry(fastRetry())

	q, err := gen.Question(context.Background(), QuestionSpec{
		Difficulty: types.DifficultyHard,
		Type:       types.QuestionTechnical,
		Topic:      "Database Indexing",
	})
	require.NoError(t, err)
	assert.Equal(t, 2, client.calls)
	assert.Equal(t, 120, q.TimeLimitSec)
}

func TestGenerator_RejectsEmptyQuestion(t *testing.T) {
	client := &fakeClient{responses: []string{
		`{"question": "  "}`, `{"question": ""}`, `{"question": ""}`,
	}}
	gen := NewGenerator(client).WithRetry(fastRetry())

	_, err := gen.Question(context.Background(), QuestionSpec{
		Difficulty: types.DifficultyEasy,
		Type:       types.QuestionTechnical,
		Topic:      "Basics",
	})
	assert.Error(t, err)
	assert.Equal(t, 3, client.calls)
}

func TestGenerator_InvalidDifficulty(t *testing.T) {
	gen := NewGenerator(&fakeClient{})

	_, err := gen.Question(context.Background(), QuestionSpec{
		Difficulty: "impossible",
		Type:       types.QuestionTechnical,
	})
	assert.Error(t, err)
}

func TestGenerator_CategoryFallsBackToTopic(t *testing.T) {
	client := &fakeClient{responses: []string{
		`{"question": "Walk me through S3 storage classes."}`,
	}}
	gen := NewGenerator(client).WithRetry(fastRetry())

	q, err := gen.Question(context.Background(), QuestionSpec{
		Difficulty: types.DifficultyEasy,
		Type:       types.QuestionTechnical,
		Topic:      "S3 Storage",
	})
	require.NoError(t, err)
	assert.Equal(t, "S3 Storage", q.Category)
}
