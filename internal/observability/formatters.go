// Package observability provides formatted output utilities for verbose CLI mode.
package observability

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jonathan/interview-assistant/internal/timer"
	"github.com/jonathan/interview-assistant/internal/types"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintCandidateInfo outputs the identity collected during onboarding.
func (p *Printer) PrintCandidateInfo(info *types.CandidateInfo) {
	if info == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Name:     %s\n", info.Name))
	sb.WriteString(fmt.Sprintf("Email:    %s\n", info.Email))
	sb.WriteString(fmt.Sprintf("Phone:    %s\n", info.Phone))
	if info.Position != "" {
		sb.WriteString(fmt.Sprintf("Position: %s\n", info.Position))
	}
	if info.Experience > 0 {
		sb.WriteString(fmt.Sprintf("Roles:    %d\n", info.Experience))
	}

	if len(info.Skills) > 0 {
		sb.WriteString("\nSkills:\n")
		count := min(len(info.Skills), maxItemsToShow)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", info.Skills[i]))
		}
		if len(info.Skills) > maxItemsToShow {
			sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(info.Skills)-maxItemsToShow))
		}
	}

	if missing := info.MissingFields(); len(missing) > 0 {
		sb.WriteString(fmt.Sprintf("\nMissing:  %s\n", strings.Join(missing, ", ")))
	}

	p.printBox("CANDIDATE PROFILE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintQuestion outputs one interview question with its time budget.
func (p *Printer) PrintQuestion(number int, q *types.Question) {
	if q == nil {
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Difficulty: %s\n", q.Difficulty))
	sb.WriteString(fmt.Sprintf("Type:       %s\n", q.Type))
	if q.Category != "" {
		sb.WriteString(fmt.Sprintf("Topic:      %s\n", q.Category))
	}
	limit := time.Duration(q.TimeLimitSec) * time.Second
	sb.WriteString(fmt.Sprintf("Time:       %s\n", timer.FormatDuration(limit, timer.FormatMMSS)))
	sb.WriteString("\n")

	// Wrap the question text to the box width.
	for _, line := range wrapText(q.Text, boxWidth-4) {
		sb.WriteString(line + "\n")
	}

	p.printBox(fmt.Sprintf("QUESTION %d of %d", number, types.QuestionCount), strings.TrimSuffix(sb.String(), "\n"))
}

// PrintAnswerResult outputs the evaluation of one submitted answer.
func (p *Printer) PrintAnswerResult(a *types.Answer) {
	if a == nil {
		return
	}

	var sb strings.Builder
	if a.Score != nil {
		sb.WriteString(fmt.Sprintf("Score:      %.0f%%\n", *a.Score*100))
	} else {
		sb.WriteString("Score:      pending\n")
	}
	sb.WriteString(fmt.Sprintf("Time spent: %ds\n", a.TimeSpent))

	dims := []struct {
		label string
		value *float64
	}{
		{"Technical", a.TechnicalAccuracy},
		{"Problem solving", a.ProblemSolving},
		{"Communication", a.Communication},
		{"Time efficiency", a.TimeEfficiency},
	}
	printed := false
	for _, d := range dims {
		if d.value == nil {
			continue
		}
		if !printed {
			sb.WriteString("\n")
			printed = true
		}
		sb.WriteString(fmt.Sprintf("  %-16s %.0f%%\n", d.label+":", *d.value*100))
	}

	if a.Feedback != "" {
		sb.WriteString("\n")
		for _, line := range wrapText(a.Feedback, boxWidth-4) {
			sb.WriteString(line + "\n")
		}
	}
	if len(a.Suggestions) > 0 {
		sb.WriteString("\nSuggestions:\n")
		count := min(len(a.Suggestions), 3)
		for i := 0; i < count; i++ {
			sb.WriteString(fmt.Sprintf("  • %s\n", a.Suggestions[i]))
		}
	}

	p.printBox("ANSWER EVALUATION", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintInterviewResult outputs the final score and summary of an interview.
func (p *Printer) PrintInterviewResult(c *types.Candidate, iv *types.Interview) {
	if iv == nil {
		return
	}

	var sb strings.Builder
	if c != nil {
		sb.WriteString(fmt.Sprintf("Candidate: %s\n", c.Name))
		sb.WriteString(fmt.Sprintf("Position:  %s\n", c.Position))
	}
	sb.WriteString(fmt.Sprintf("Answered:  %d of %d questions\n", len(iv.Answers), len(iv.Questions)))
	if iv.Score != nil {
		sb.WriteString(fmt.Sprintf("Score:     %.0f%%\n", *iv.Score*100))
	}

	if len(iv.Answers) > 0 {
		sb.WriteString("\nPer question:\n")
		for i, a := range iv.Answers {
			if a.Score != nil {
				sb.WriteString(fmt.Sprintf("  Q%d: %.0f%%  (%ds)\n", i+1, *a.Score*100, a.TimeSpent))
			} else {
				sb.WriteString(fmt.Sprintf("  Q%d: unscored  (%ds)\n", i+1, a.TimeSpent))
			}
		}
	}

	if iv.Summary != "" {
		sb.WriteString("\n")
		for _, line := range wrapText(iv.Summary, boxWidth-4) {
			sb.WriteString(line + "\n")
		}
	}

	p.printBox("INTERVIEW COMPLETE", strings.TrimSuffix(sb.String(), "\n"))
}

// PrintCandidateList outputs a compact listing of the candidate collection.
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) PrintCandidateList(candidates []types.Candidate) {
	if len(candidates) == 0 {
		fmt.Fprintf(p.out, "┌%s┐\n", strings.Repeat("─", boxWidth-2))
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, "NO CANDIDATES FOUND")
		fmt.Fprintf(p.out, "└%s┘\n", strings.Repeat("─", boxWidth-2))
		return
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("Total candidates: %d\n\n", len(candidates)))

	count := min(len(candidates), maxItemsToShow)
	for i := 0; i < count; i++ {
		c := candidates[i]
		sb.WriteString(fmt.Sprintf("#%d  %s\n", i+1, c.Name))
		sb.WriteString(fmt.Sprintf("    %s · %s", c.Position, c.Status))
		if c.Score != nil {
			sb.WriteString(fmt.Sprintf(" · %.0f%%", *c.Score*100))
		}
		sb.WriteString("\n")
		if i < count-1 {
			sb.WriteString("\n")
		}
	}

	if len(candidates) > maxItemsToShow {
		sb.WriteString(fmt.Sprintf("\n... and %d more candidates", len(candidates)-maxItemsToShow))
	}

	p.printBox("CANDIDATES", sb.String())
}

// wrapText splits text into lines no longer than width, breaking on spaces.
func wrapText(text string, width int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	var lines []string
	line := words[0]
	for _, word := range words[1:] {
		if len(line)+1+len(word) > width {
			lines = append(lines, line)
			line = word
			continue
		}
		line += " " + word
	}
	return append(lines, line)
}
