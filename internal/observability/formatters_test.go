package observability

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jonathan/interview-assistant/internal/types"
)

func TestPrintCandidateInfo(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	info := &types.CandidateInfo{
		Name:     "Dana Smith",
		Email:    "dana@example.com",
		Phone:    "555-0123",
		Position: "Backend Engineer",
		Skills:   []string{"Go", "PostgreSQL", "AWS"},
	}

	p.PrintCandidateInfo(info)
	output := buf.String()

	assert.Contains(t, output, "CANDIDATE PROFILE")
	assert.Contains(t, output, "Dana Smith")
	assert.Contains(t, output, "dana@example.com")
	assert.Contains(t, output, "Backend Engineer")
	assert.Contains(t, output, "Go")
	assert.NotContains(t, output, "Missing:")
}

func TestPrintCandidateInfo_MissingFields(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	info := &types.CandidateInfo{Name: "Dana Smith"}
	p.PrintCandidateInfo(info)

	assert.Contains(t, buf.String(), "Missing:")
	assert.Contains(t, buf.String(), "email, phone")
}

func TestPrintCandidateInfo_Nil(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintCandidateInfo(nil)

	assert.Empty(t, buf.String())
}

func TestPrintQuestion(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	q := &types.Question{
		Text:         "Explain how connection pooling works and why it matters for a high-traffic service.",
		Type:         types.QuestionTechnical,
		Difficulty:   types.DifficultyMedium,
		Category:     "Databases",
		TimeLimitSec: 60,
	}

	p.PrintQuestion(3, q)
	output := buf.String()

	assert.Contains(t, output, "QUESTION 3 of 6")
	assert.Contains(t, output, "medium")
	assert.Contains(t, output, "Databases")
	assert.Contains(t, output, "01:00")
	assert.Contains(t, output, "connection pooling")
}

func TestPrintAnswerResult(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	score := 0.82
	tech := 0.9
	a := &types.Answer{
		Text:              "Pooling reuses connections to avoid handshake cost.",
		TimeSpent:         42,
		Score:             &score,
		TechnicalAccuracy: &tech,
		Feedback:          "Solid grasp of the fundamentals.",
		Suggestions:       []string{"Mention pool sizing trade-offs."},
	}

	p.PrintAnswerResult(a)
	output := buf.String()

	assert.Contains(t, output, "ANSWER EVALUATION")
	assert.Contains(t, output, "82%")
	assert.Contains(t, output, "42s")
	assert.Contains(t, output, "Technical")
	assert.Contains(t, output, "90%")
	assert.Contains(t, output, "Solid grasp")
	assert.Contains(t, output, "pool sizing")
}

func TestPrintAnswerResult_Unscored(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintAnswerResult(&types.Answer{TimeSpent: 10})

	assert.Contains(t, buf.String(), "pending")
}

func TestPrintInterviewResult(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	total := 0.74
	q1 := 0.8
	iv := &types.Interview{
		Questions: make([]types.Question, types.QuestionCount),
		Answers: []types.Answer{
			{Score: &q1, TimeSpent: 15},
			{TimeSpent: 20},
		},
		Score:   &total,
		Summary: "Capable candidate with room to grow on system design.",
	}
	c := &types.Candidate{Name: "Dana Smith", Position: "Backend Engineer"}

	p.PrintInterviewResult(c, iv)
	output := buf.String()

	assert.Contains(t, output, "INTERVIEW COMPLETE")
	assert.Contains(t, output, "Dana Smith")
	assert.Contains(t, output, "2 of 6 questions")
	assert.Contains(t, output, "74%")
	assert.Contains(t, output, "Q1: 80%")
	assert.Contains(t, output, "Q2: unscored")
	assert.Contains(t, output, "room to grow")
}

func TestPrintCandidateList(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	score := 0.9
	candidates := []types.Candidate{
		{Name: "alice", Position: "Frontend Developer", Status: types.CandidateCompleted, Score: &score},
		{Name: "bob", Position: "Backend Developer", Status: types.CandidateInProgress},
	}

	p.PrintCandidateList(candidates)
	output := buf.String()

	assert.Contains(t, output, "CANDIDATES")
	assert.Contains(t, output, "Total candidates: 2")
	assert.Contains(t, output, "alice")
	assert.Contains(t, output, "90%")
	assert.Contains(t, output, "in-progress")
}

func TestPrintCandidateList_Empty(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	p.PrintCandidateList(nil)

	assert.Contains(t, buf.String(), "NO CANDIDATES FOUND")
}

func TestPrintBox_LongLines(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf)

	info := &types.CandidateInfo{
		Name:  "A Very Long Candidate Name That Should Be Truncated To Fit The Box",
		Email: "an.unusually.long.email.address@a-very-long-domain-name.example.com",
		Phone: "555-0000",
	}

	p.PrintCandidateInfo(info)
	output := buf.String()

	// Should contain box characters
	assert.True(t, strings.Contains(output, "┌"))
	assert.True(t, strings.Contains(output, "└"))
	assert.True(t, strings.Contains(output, "│"))
}
