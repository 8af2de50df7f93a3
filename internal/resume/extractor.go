package resume

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonathan/interview-assistant/internal/llm"
	"github.com/jonathan/interview-assistant/internal/types"
)

// extractionPayload mirrors the JSON shape requested by the resume schema.
type extractionPayload struct {
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Phone      string   `json:"phone"`
	Address    string   `json:"address"`
	Skills     []string `json:"skills"`
	Experience []struct {
		Company     string `json:"company"`
		Title       string `json:"title"`
		Duration    string `json:"duration"`
		Description string `json:"description"`
	} `json:"experience"`
	Education []struct {
		Institution string `json:"institution"`
		Degree      string `json:"degree"`
		Year        string `json:"year"`
	} `json:"education"`
	Summary string `json:"summary"`
}

// Extractor pulls structured candidate data out of resume text via the LLM.
// Extraction is best-effort: absent fields come back empty rather than
// failing, so the session layer can route candidates through manual
// collection of whatever is missing.
type Extractor struct {
	client llm.Client
	retry  llm.RetryPolicy
	tier   llm.ModelTier
}

// NewExtractor creates a resume extractor with the default retry policy.
func NewExtractor(client llm.Client) *Extractor {
	return &Extractor{
		client: client,
		retry:  llm.DefaultRetryPolicy(),
		tier:   llm.TierLite,
	}
}

// WithRetry overrides the retry policy.
func (e *Extractor) WithRetry(policy llm.RetryPolicy) *Extractor {
	e.retry = policy
	return e
}

// Extract recovers text from the raw document and asks the LLM for the
// structured fields.
func (e *Extractor) Extract(ctx context.Context, raw string) (*types.ResumeData, error) {
	text, err := ExtractText(raw)
	if err != nil {
		return nil, err
	}

	prompt := llm.BuildExtractionPrompt(llm.ResumeSchema(), text)

	var payload extractionPayload
	err = e.retry.Do(ctx, func(ctx context.Context) error {
		response, genErr := e.client.GenerateJSON(ctx, prompt, e.tier)
		if genErr != nil {
			return genErr
		}
		payload = extractionPayload{}
		return llm.DecodeJSON(response, &payload)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to extract resume fields: %w", err)
	}

	data := &types.ResumeData{
		PersonalInfo: types.PersonalInfo{
			Name:    strings.TrimSpace(payload.Name),
			Email:   strings.TrimSpace(payload.Email),
			Phone:   strings.TrimSpace(payload.Phone),
			Address: strings.TrimSpace(payload.Address),
		},
		Skills:  payload.Skills,
		Summary: strings.TrimSpace(payload.Summary),
	}
	for _, exp := range payload.Experience {
		data.Experience = append(data.Experience, types.ExperienceEntry{
			Company:     exp.Company,
			Position:    exp.Title,
			Duration:    exp.Duration,
			Description: exp.Description,
		})
	}
	for _, edu := range payload.Education {
		data.Education = append(data.Education, types.EducationEntry{
			Institution: edu.Institution,
			Degree:      edu.Degree,
			Year:        edu.Year,
		})
	}
	return data, nil
}
