package scoring

import (
	"strings"

	"github.com/jonathan/interview-assistant/internal/search"
	"github.com/jonathan/interview-assistant/internal/types"
)

// Criteria holds the five per-answer rubric scores, each in [0,1].
type Criteria struct {
	Accuracy     float64
	Completeness float64
	Clarity      float64
	Timeliness   float64
	Relevance    float64
}

// Weights holds the relative importance of each criterion. Weights should sum
// to 1.0.
type Weights struct {
	Accuracy     float64
	Completeness float64
	Clarity      float64
	Timeliness   float64
	Relevance    float64
}

// DefaultWeights returns the standard rubric weighting.
func DefaultWeights() Weights {
	return Weights{
		Accuracy:     0.30,
		Completeness: 0.25,
		Clarity:      0.20,
		Timeliness:   0.15,
		Relevance:    0.10,
	}
}

// categoryKeywords maps question categories to the terms a strong answer is
// expected to touch, used when no reference answer is available.
var categoryKeywords = map[string][]string{
	"JavaScript":  {"function", "variable", "const", "let", "var", "scope", "closure", "async", "promise"},
	"Programming": {"algorithm", "complexity", "data structure", "array", "string", "loop", "recursion"},
	"Experience":  {"project", "team", "challenge", "solution", "collaborate", "learn", "achieve"},
}

// discourseMarkers signal structured exposition in an answer.
var discourseMarkers = []string{
	"first", "second", "third", "firstly", "secondly", "finally",
	"however", "therefore", "because",
}

// Rubric scores answers locally against five weighted criteria, without any
// external evaluation service.
type Rubric struct {
	weights Weights
}

// NewRubric creates a rubric scorer with the given weights.
func NewRubric(weights Weights) *Rubric {
	return &Rubric{weights: weights}
}

// ScoreAnswer combines the five criteria into one weighted 0..1 score.
func (r *Rubric) ScoreAnswer(answer *types.Answer, question *types.Question) float64 {
	c := r.Evaluate(answer, question)
	return c.Accuracy*r.weights.Accuracy +
		c.Completeness*r.weights.Completeness +
		c.Clarity*r.weights.Clarity +
		c.Timeliness*r.weights.Timeliness +
		c.Relevance*r.weights.Relevance
}

// Evaluate computes the raw criteria for one answer, each clamped to [0,1].
func (r *Rubric) Evaluate(answer *types.Answer, question *types.Question) Criteria {
	accuracy := 0.0
	if question.ExpectedAnswer != "" {
		accuracy = search.TextSimilarity(answer.Text, question.ExpectedAnswer)
	} else {
		accuracy = accuracyByKeywords(answer.Text, question.Category)
	}

	return Criteria{
		Accuracy:     clamp01(accuracy),
		Completeness: clamp01(completeness(answer.Text, question.Type)),
		Clarity:      clamp01(clarity(answer.Text)),
		Timeliness:   clamp01(timeliness(answer.TimeSpent, question.TimeLimitSec)),
		Relevance:    clamp01(relevance(answer.Text, question.Text)),
	}
}

// ScoreInterview returns the unweighted mean of per-answer rubric scores over
// the answers that have a matching question. Answers without one are skipped,
// not counted.
func (r *Rubric) ScoreInterview(answers []types.Answer, questions []types.Question) float64 {
	byID := make(map[string]*types.Question, len(questions))
	for i := range questions {
		byID[questions[i].ID.String()] = &questions[i]
	}

	total := 0.0
	counted := 0
	for i := range answers {
		question, ok := byID[answers[i].QuestionID.String()]
		if !ok {
			continue
		}
		total += r.ScoreAnswer(&answers[i], question)
		counted++
	}
	if counted == 0 {
		return 0
	}
	return total / float64(counted)
}

// Feedback renders per-criterion improvement notes for criteria below 0.6,
// or a positive note when all criteria pass.
func Feedback(c Criteria) string {
	var notes []string
	if c.Accuracy < 0.6 {
		notes = append(notes, "Consider reviewing the key concepts related to this question.")
	}
	if c.Completeness < 0.6 {
		notes = append(notes, "Your answer could be more comprehensive. Try to cover all aspects of the question.")
	}
	if c.Clarity < 0.6 {
		notes = append(notes, "Work on structuring your answer more clearly with logical flow.")
	}
	if c.Timeliness < 0.6 {
		notes = append(notes, "Try to manage your time better and provide a complete answer within the time limit.")
	}
	if c.Relevance < 0.6 {
		notes = append(notes, "Ensure your answer directly addresses the question asked.")
	}
	if len(notes) == 0 {
		return "Great answer! You demonstrated good understanding and communication skills."
	}
	return strings.Join(notes, " ")
}

func accuracyByKeywords(answer, category string) float64 {
	keywords, ok := categoryKeywords[category]
	if !ok || len(keywords) == 0 {
		return 0.5
	}
	answerWords := strings.Fields(strings.ToLower(answer))
	matched := 0
	for _, keyword := range keywords {
		kw := strings.ToLower(keyword)
		for _, word := range answerWords {
			if strings.Contains(word, kw) {
				matched++
				break
			}
		}
	}
	return float64(matched) / float64(len(keywords))
}

func completeness(answer string, qtype types.QuestionType) float64 {
	wordCount := len(strings.Fields(strings.TrimSpace(answer)))

	expected := 40
	switch qtype {
	case types.QuestionCoding:
		expected = 50
	case types.QuestionTechnical:
		expected = 30
	}

	switch {
	case float64(wordCount) < float64(expected)*0.5:
		return 0.3
	case wordCount < expected:
		return 0.7
	case float64(wordCount) <= float64(expected)*1.5:
		return 1.0
	default:
		return 0.8
	}
}

func clarity(answer string) float64 {
	sentences := 0
	for _, s := range strings.FieldsFunc(answer, func(r rune) bool {
		return r == '.' || r == '!' || r == '?'
	}) {
		if strings.TrimSpace(s) != "" {
			sentences++
		}
	}
	if sentences == 0 {
		return 0
	}

	avgSentenceLength := float64(len(answer)) / float64(sentences)
	lower := strings.ToLower(answer)
	hasStructure := false
	for _, marker := range discourseMarkers {
		if containsWord(lower, marker) {
			hasStructure = true
			break
		}
	}

	score := 0.5
	if avgSentenceLength > 20 && avgSentenceLength < 100 {
		score += 0.3
	}
	if hasStructure {
		score += 0.2
	}
	return score
}

// timeliness tiers the ratio of time spent to the question's limit.
func timeliness(timeSpentSec, timeLimitSec int) float64 {
	if timeLimitSec <= 0 {
		return 0.2
	}
	ratio := float64(timeSpentSec) / float64(timeLimitSec)
	switch {
	case ratio <= 0.7:
		return 1.0
	case ratio <= 1.0:
		return 0.8
	case ratio <= 1.2:
		return 0.5
	default:
		return 0.2
	}
}

// relevance measures the share of significant question words (longer than
// three characters) echoed in the answer.
func relevance(answer, question string) float64 {
	questionWords := strings.Fields(strings.ToLower(question))
	if len(questionWords) == 0 {
		return 0.5
	}
	answerWords := make(map[string]bool)
	for _, w := range strings.Fields(strings.ToLower(answer)) {
		answerWords[w] = true
	}

	relevant := 0
	for _, w := range questionWords {
		if len(w) > 3 && answerWords[w] {
			relevant++
		}
	}
	return float64(relevant) / float64(len(questionWords))
}

func containsWord(text, word string) bool {
	for _, w := range strings.FieldsFunc(text, func(r rune) bool {
		return !('a' <= r && r <= 'z') && !('0' <= r && r <= '9')
	}) {
		if w == word {
			return true
		}
	}
	return false
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
