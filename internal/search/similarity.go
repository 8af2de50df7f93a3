// Package search provides fuzzy candidate search and ranking: approximate
// string matching with cached scoring over the candidate collection.
package search

import (
	"math"
	"strings"
)

// winklerBoostThreshold is the minimum Jaro similarity before the common
// prefix bonus applies.
const winklerBoostThreshold = 0.7

// maxPrefixLength bounds the common prefix counted by the Winkler bonus.
const maxPrefixLength = 4

// JaroWinkler returns a normalized similarity in [0,1] between two strings.
// Matching characters are counted within a window proportional to string
// length; the base Jaro score is boosted by a common-prefix bonus (up to 4
// leading characters) once it exceeds 0.7. This rewards names and technology
// terms sharing a prefix.
func JaroWinkler(s1, s2 string) float64 {
	jaro := jaroSimilarity(s1, s2)
	if jaro < winklerBoostThreshold {
		return jaro
	}
	prefix := commonPrefix(s1, s2)
	return jaro + 0.1*float64(prefix)*(1-jaro)
}

// Comparison is per rune, not per byte, so accented names score the same as
// their ASCII counterparts.
func jaroSimilarity(a, b string) float64 {
	if a == b {
		if a == "" {
			return 0.0
		}
		return 1.0
	}
	s1 := []rune(a)
	s2 := []rune(b)
	if len(s1) == 0 || len(s2) == 0 {
		return 0.0
	}

	matchWindow := max(len(s1), len(s2))/2 - 1
	s1Matches := make([]bool, len(s1))
	s2Matches := make([]bool, len(s2))

	matches := 0
	for i := 0; i < len(s1); i++ {
		start := max(0, i-matchWindow)
		end := min(i+matchWindow+1, len(s2))
		for j := start; j < end; j++ {
			if s2Matches[j] || s1[i] != s2[j] {
				continue
			}
			s1Matches[i] = true
			s2Matches[j] = true
			matches++
			break
		}
	}

	if matches == 0 {
		return 0.0
	}

	transpositions := 0
	k := 0
	for i := 0; i < len(s1); i++ {
		if !s1Matches[i] {
			continue
		}
		for !s2Matches[k] {
			k++
		}
		if s1[i] != s2[k] {
			transpositions++
		}
		k++
	}

	m := float64(matches)
	return (m/float64(len(s1)) + m/float64(len(s2)) + (m-float64(transpositions)/2)/m) / 3.0
}

func commonPrefix(a, b string) int {
	s1 := []rune(a)
	s2 := []rune(b)
	limit := min(maxPrefixLength, min(len(s1), len(s2)))
	prefix := 0
	for i := 0; i < limit; i++ {
		if s1[i] != s2[i] {
			break
		}
		prefix++
	}
	return prefix
}

// Levenshtein returns the edit distance between two strings, counted in runes.
func Levenshtein(a, b string) int {
	s1 := []rune(a)
	s2 := []rune(b)
	prev := make([]int, len(s1)+1)
	curr := make([]int, len(s1)+1)
	for i := 0; i <= len(s1); i++ {
		prev[i] = i
	}
	for j := 1; j <= len(s2); j++ {
		curr[0] = j
		for i := 1; i <= len(s1); i++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[i] = min(curr[i-1]+1, min(prev[i]+1, prev[i-1]+cost))
		}
		prev, curr = curr, prev
	}
	return prev[len(s1)]
}

// Cosine returns the cosine similarity of two texts over their word-count
// vectors, case-insensitive.
func Cosine(text1, text2 string) float64 {
	words1 := strings.Fields(strings.ToLower(text1))
	words2 := strings.Fields(strings.ToLower(text2))

	counts1 := make(map[string]int, len(words1))
	for _, w := range words1 {
		counts1[w]++
	}
	counts2 := make(map[string]int, len(words2))
	for _, w := range words2 {
		counts2[w]++
	}

	dot := 0.0
	for w, c1 := range counts1 {
		if c2, ok := counts2[w]; ok {
			dot += float64(c1 * c2)
		}
	}

	mag1 := 0.0
	for _, c := range counts1 {
		mag1 += float64(c * c)
	}
	mag2 := 0.0
	for _, c := range counts2 {
		mag2 += float64(c * c)
	}

	if mag1 == 0 || mag2 == 0 {
		return 0.0
	}
	return dot / (math.Sqrt(mag1) * math.Sqrt(mag2))
}

// TextSimilarity blends Jaro-Winkler, cosine and normalized Levenshtein
// similarity (0.4/0.4/0.2). Used by the rubric scorer to compare an answer
// against reference text.
func TextSimilarity(text1, text2 string) float64 {
	longest := max(len([]rune(text1)), len([]rune(text2)))
	if longest == 0 {
		return 0.0
	}
	jaro := JaroWinkler(text1, text2)
	cosine := Cosine(text1, text2)
	levenshtein := 1 - float64(Levenshtein(text1, text2))/float64(longest)
	return jaro*0.4 + cosine*0.4 + levenshtein*0.2
}
