// Package scoring reduces per-answer evaluation results to interview-level
// scores. It provides the headline aggregate over evaluator scores and a
// fully local rubric-based scorer for when the evaluator is unavailable.
package scoring

import "github.com/jonathan/interview-assistant/internal/types"

// Aggregate reduces an interview's answers to one 0..1 headline score: the
// arithmetic mean of the answer scores that are present and greater than
// zero. Unscored and zero-scored answers are excluded from both numerator and
// denominator; if no answer qualifies the aggregate floors at 0.
func Aggregate(answers []types.Answer) float64 {
	sum := 0.0
	count := 0
	for _, a := range answers {
		if a.Score == nil || *a.Score <= 0 {
			continue
		}
		sum += *a.Score
		count++
	}
	if count == 0 {
		return 0
	}
	return sum / float64(count)
}
