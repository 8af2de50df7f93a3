// Package llm - generator.go produces interview questions tailored to a
// candidate's skills and the requested difficulty tier.
package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/interview-assistant/internal/prompts"
	"github.com/jonathan/interview-assistant/internal/types"
)

// QuestionSpec describes one question to generate.
type QuestionSpec struct {
	Difficulty types.Difficulty
	Type       types.QuestionType
	Topic      string
	Skills     []string
	Position   string
	// Previous holds the text of questions already generated for this
	// interview, so the model avoids repeats.
	Previous []string
}

// questionPayload is the JSON shape the model is asked to return.
type questionPayload struct {
	Question       string `json:"question"`
	Category       string `json:"category"`
	ExpectedAnswer string `json:"expectedAnswer"`
}

// Generator creates interview questions through the LLM client.
type Generator struct {
	client Client
	retry  RetryPolicy
	tier   ModelTier
}

// NewGenerator creates a question generator with the default retry policy.
func NewGenerator(client Client) *Generator {
	return &Generator{
		client: client,
		retry:  DefaultRetryPolicy(),
		tier:   TierStandard,
	}
}

// WithRetry overrides the retry policy.
func (g *Generator) WithRetry(policy RetryPolicy) *Generator {
	g.retry = policy
	return g
}

// Question generates a single question matching the QuestionSpec. The result
// carries a fresh ID and the time limit implied by its difficulty.
func (g *Generator) Question(ctx context.Context, spec QuestionSpec) (*types.Question, error) {
	if !spec.Difficulty.Valid() {
		return nil, fmt.Errorf("invalid difficulty %q", spec.Difficulty)
	}

	template, err := prompts.Get("interview.json", "question_generation")
	if err != nil {
		return nil, fmt.Errorf("failed to load question prompt: %w", err)
	}

	previous := "none"
	if len(spec.Previous) > 0 {
		previous = "- " + strings.Join(spec.Previous, "\n- ")
	}
	prompt := prompts.Format(template, map[string]string{
		"Difficulty": string(spec.Difficulty),
		"Type":       string(spec.Type),
		"Topic":      spec.Topic,
		"Skills":     strings.Join(spec.Skills, ", "),
		"Position":   spec.Position,
		"Previous":   previous,
	})

	var payload questionPayload
	err = g.retry.Do(ctx, func(ctx context.Context) error {
		raw, genErr := g.client.GenerateJSON(ctx, prompt, g.tier)
		if genErr != nil {
			return genErr
		}
		payload = questionPayload{}
		if decErr := DecodeJSON(raw, &payload); decErr != nil {
			return decErr
		}
		if strings.TrimSpace(payload.Question) == "" {
			return fmt.Errorf("generated question is empty")
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate question: %w", err)
	}

	category := payload.Category
	if category == "" {
		category = spec.Topic
	}

	return &types.Question{
		ID:             uuid.New(),
		Text:           strings.TrimSpace(payload.Question),
		Type:           spec.Type,
		Difficulty:     spec.Difficulty,
		Category:       category,
		TimeLimitSec:   int(spec.Difficulty.TimeLimit() / time.Second),
		ExpectedAnswer: strings.TrimSpace(payload.ExpectedAnswer),
	}, nil
}
