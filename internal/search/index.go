package search

import (
	"fmt"
	"sort"
	"strings"

	"github.com/jonathan/interview-assistant/internal/types"
)

// MatchThreshold is the minimum similarity for a candidate to appear in
// search results.
const MatchThreshold = 0.3

// DefaultCacheSize bounds the number of cached filter results.
const DefaultCacheSize = 50

// SortKey selects the deterministic ordering applied after fuzzy filtering.
type SortKey string

// Supported sort keys
const (
	SortByName  SortKey = "name"
	SortByScore SortKey = "score"
	SortByDate  SortKey = "date"
)

// SortOrder selects ascending or descending ordering.
type SortOrder string

// Supported sort orders
const (
	Ascending  SortOrder = "asc"
	Descending SortOrder = "desc"
)

// Index serves fuzzy queries over the candidate collection. Filtered results
// are cached keyed by (collection size, lowercased query) with LRU eviction,
// so repeated queries against an unchanged collection avoid recomputation.
type Index struct {
	cache *lruCache[[]types.Candidate]
}

// NewIndex creates an index with the given cache capacity; non-positive
// capacity uses DefaultCacheSize.
func NewIndex(cacheSize int) *Index {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	return &Index{cache: newLRUCache[[]types.Candidate](cacheSize)}
}

// Search filters candidates by fuzzy similarity to query and sorts the result
// by the given key and order. An empty or whitespace-only query skips the
// filter and returns the whole collection (sorted). A query matching nothing
// returns an empty slice.
func (ix *Index) Search(candidates []types.Candidate, query string, key SortKey, order SortOrder) []types.Candidate {
	filtered := ix.Filter(candidates, query)
	return SortCandidates(filtered, key, order)
}

// Filter returns the candidates whose best field similarity against the query
// exceeds MatchThreshold, ordered by descending relevance.
func (ix *Index) Filter(candidates []types.Candidate, query string) []types.Candidate {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return candidates
	}

	term := strings.ToLower(trimmed)
	cacheKey := fmt.Sprintf("%d-%s", len(candidates), term)
	if cached, ok := ix.cache.Get(cacheKey); ok {
		return cached
	}

	type scored struct {
		candidate types.Candidate
		score     float64
	}
	matches := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		score := matchScore(&c, term)
		if score > MatchThreshold {
			matches = append(matches, scored{candidate: c, score: score})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].score > matches[j].score
	})

	results := make([]types.Candidate, len(matches))
	for i, m := range matches {
		results[i] = m.candidate
	}
	ix.cache.Set(cacheKey, results)
	return results
}

// Invalidate drops all cached filter results. Call after the candidate
// collection changes.
func (ix *Index) Invalidate() {
	ix.cache.Clear()
}

// matchScore is the maximum similarity between the query and each of the
// candidate's name, email, position and skills.
func matchScore(c *types.Candidate, term string) float64 {
	best := JaroWinkler(strings.ToLower(c.Name), term)
	if s := JaroWinkler(strings.ToLower(c.Email), term); s > best {
		best = s
	}
	if s := JaroWinkler(strings.ToLower(c.Position), term); s > best {
		best = s
	}
	for _, skill := range c.Skills {
		if s := JaroWinkler(strings.ToLower(skill), term); s > best {
			best = s
		}
	}
	return best
}

// SortCandidates returns a sorted copy of the slice. Sorting is stable: ties
// keep the underlying collection order.
func SortCandidates(candidates []types.Candidate, key SortKey, order SortOrder) []types.Candidate {
	sorted := make([]types.Candidate, len(candidates))
	copy(sorted, candidates)

	less := func(a, b *types.Candidate) bool { return false }
	switch key {
	case SortByName:
		less = func(a, b *types.Candidate) bool {
			return strings.ToLower(a.Name) < strings.ToLower(b.Name)
		}
	case SortByScore:
		less = func(a, b *types.Candidate) bool {
			return scoreOf(a) < scoreOf(b)
		}
	case SortByDate:
		less = func(a, b *types.Candidate) bool {
			return a.CreatedAt.Before(b.CreatedAt)
		}
	}

	sort.SliceStable(sorted, func(i, j int) bool {
		if order == Descending {
			return less(&sorted[j], &sorted[i])
		}
		return less(&sorted[i], &sorted[j])
	})
	return sorted
}

func scoreOf(c *types.Candidate) float64 {
	if c.Score == nil {
		return 0
	}
	return *c.Score
}
