// Package resume turns uploaded resume documents into structured candidate
// data: plain-text recovery from the raw document, then LLM field extraction.
package resume

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var multiSpaceRe = regexp.MustCompile(`[ \t]+`)
var multiNewlineRe = regexp.MustCompile(`\n{3,}`)

// ExtractText recovers plain text from an uploaded resume. HTML documents are
// parsed and stripped of markup and noise elements; everything else passes
// through as trimmed text.
func ExtractText(raw string) (string, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return "", fmt.Errorf("resume is empty")
	}
	if looksLikeHTML(trimmed) {
		return extractHTMLText(trimmed)
	}
	return cleanWhitespace(trimmed), nil
}

func looksLikeHTML(text string) bool {
	lower := strings.ToLower(text)
	return strings.HasPrefix(lower, "<!doctype html") ||
		strings.HasPrefix(lower, "<html") ||
		strings.Contains(lower, "<body")
}

// extractHTMLText parses HTML and returns the visible body text with markup
// and noise elements removed.
func extractHTMLText(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("nav, footer, header, script, style, noscript").Remove()

	content := doc.Find("main, article")
	if content.Length() == 0 {
		content = doc.Find("body")
	}

	text := cleanWhitespace(content.First().Text())
	if text == "" {
		return "", fmt.Errorf("no text content in HTML resume")
	}
	return text, nil
}

func cleanWhitespace(text string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(multiSpaceRe.ReplaceAllString(line, " "))
	}
	text = strings.Join(lines, "\n")
	text = multiNewlineRe.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
