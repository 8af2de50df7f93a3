// Package topics derives interview question topics from candidate skills.
// Known skill keywords map to curated topic lists per difficulty tier;
// unmatched skills fall back to a generic set.
package topics

import (
	"math/rand"
	"strings"

	"github.com/jonathan/interview-assistant/internal/types"
)

// catalog maps skill keywords to topic lists per difficulty.
var catalog = map[string]map[types.Difficulty][]string{
	"react": {
		types.DifficultyEasy:   {"React Components & Props", "React State & Events", "JSX Fundamentals"},
		types.DifficultyMedium: {"React Hooks", "React Context API", "Component Lifecycle"},
		types.DifficultyHard:   {"React Performance Optimization", "React Advanced Patterns", "React Server Components"},
	},
	"javascript": {
		types.DifficultyEasy:   {"JavaScript ES6+ Features", "Array Methods", "Object Manipulation"},
		types.DifficultyMedium: {"Async/Await & Promises", "Closures & Scope", "Event Loop"},
		types.DifficultyHard:   {"JavaScript Design Patterns", "Memory Management", "Advanced Async Patterns"},
	},
	"node": {
		types.DifficultyEasy:   {"Node.js Basics", "NPM & Modules", "File System Operations"},
		types.DifficultyMedium: {"Express.js API Design", "Middleware Concepts", "Error Handling"},
		types.DifficultyHard:   {"Node.js Performance", "Microservices Architecture", "Cluster & Worker Threads"},
	},
	"python": {
		types.DifficultyEasy:   {"Python Basics", "Data Types & Collections", "Functions & Modules"},
		types.DifficultyMedium: {"OOP in Python", "Decorators", "File I/O"},
		types.DifficultyHard:   {"Python Performance", "Concurrency", "Advanced Python Features"},
	},
	"database": {
		types.DifficultyEasy:   {"SQL Basics", "Database Design", "Basic Queries"},
		types.DifficultyMedium: {"Database Indexing", "Joins & Relationships", "Transactions"},
		types.DifficultyHard:   {"Database Optimization", "NoSQL vs SQL", "Database Scaling"},
	},
	"aws": {
		types.DifficultyEasy:   {"AWS Basics", "EC2 Fundamentals", "S3 Storage"},
		types.DifficultyMedium: {"AWS Lambda", "Load Balancers", "Auto Scaling"},
		types.DifficultyHard:   {"AWS Architecture", "Cost Optimization", "Security Best Practices"},
	},
}

// fallback covers candidates whose skills match nothing in the catalog.
var fallback = map[types.Difficulty][]string{
	types.DifficultyEasy:   {"Programming Fundamentals", "Basic Problem Solving", "Code Structure"},
	types.DifficultyMedium: {"Algorithm Design", "System Design Basics", "Code Optimization"},
	types.DifficultyHard:   {"Advanced Algorithms", "System Architecture", "Performance Engineering"},
}

// BehavioralTopic is the fixed topic for the final behavioral question.
const BehavioralTopic = "Complex Problem Solving & Leadership"

// ForSkills returns the deduplicated topic list for a difficulty derived from
// the candidate's skills. Skill matching is a case-insensitive substring test
// against catalog keywords; with no matches the generic fallback applies.
func ForSkills(skills []string, difficulty types.Difficulty) []string {
	seen := make(map[string]bool)
	var matched []string
	for _, skill := range skills {
		normalized := strings.ToLower(skill)
		for keyword, tiers := range catalog {
			if !strings.Contains(normalized, keyword) {
				continue
			}
			for _, topic := range tiers[difficulty] {
				if !seen[topic] {
					seen[topic] = true
					matched = append(matched, topic)
				}
			}
		}
	}
	if len(matched) == 0 {
		return append([]string(nil), fallback[difficulty]...)
	}
	return matched
}

// Picker selects topics at random without replacement until a pool is
// exhausted, after which topics may repeat.
type Picker struct {
	rng  *rand.Rand
	used map[string]bool
}

// NewPicker creates a picker using the given random source. A nil rng uses
// the shared global source.
func NewPicker(rng *rand.Rand) *Picker {
	return &Picker{rng: rng, used: make(map[string]bool)}
}

// Pick draws an unused topic from the pool, marking it used. Once every pool
// topic has been used, it falls back to a uniform draw over the whole pool.
func (p *Picker) Pick(pool []string) string {
	if len(pool) == 0 {
		return ""
	}
	var available []string
	for _, topic := range pool {
		if !p.used[topic] {
			available = append(available, topic)
		}
	}
	if len(available) == 0 {
		available = pool
	}
	choice := available[p.intn(len(available))]
	p.used[choice] = true
	return choice
}

func (p *Picker) intn(n int) int {
	if p.rng != nil {
		return p.rng.Intn(n)
	}
	return rand.Intn(n)
}
