package topics

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/interview-assistant/internal/types"
)

func TestForSkills_MatchesKeywordSubstring(t *testing.T) {
	pool := ForSkills([]string{"React.js", "TypeScript"}, types.DifficultyEasy)
	assert.Contains(t, pool, "React Components & Props")
}

func TestForSkills_MergesMultipleSkills(t *testing.T) {
	pool := ForSkills([]string{"React", "AWS"}, types.DifficultyMedium)
	assert.Contains(t, pool, "React Hooks")
	assert.Contains(t, pool, "AWS Lambda")
}

func TestForSkills_CaseInsensitive(t *testing.T) {
	pool := ForSkills([]string{"PYTHON"}, types.DifficultyHard)
	assert.Contains(t, pool, "Python Performance")
}

func TestForSkills_FallbackWhenUnknown(t *testing.T) {
	pool := ForSkills([]string{"COBOL", "Fortran"}, types.DifficultyEasy)
	assert.Equal(t, []string{"Programming Fundamentals", "Basic Problem Solving", "Code Structure"}, pool)
}

func TestForSkills_NoDuplicates(t *testing.T) {
	pool := ForSkills([]string{"node", "Node.js"}, types.DifficultyMedium)
	seen := make(map[string]int)
	for _, topic := range pool {
		seen[topic]++
	}
	for topic, n := range seen {
		assert.Equal(t, 1, n, topic)
	}
}

func TestPicker_NoRepeatsUntilExhausted(t *testing.T) {
	pool := []string{"a", "b", "c"}
	p := NewPicker(rand.New(rand.NewSource(1)))

	picked := make(map[string]bool)
	for i := 0; i < len(pool); i++ {
		topic := p.Pick(pool)
		require.False(t, picked[topic], "repeat before exhaustion: %s", topic)
		picked[topic] = true
	}
	assert.Len(t, picked, 3)

	// Pool exhausted: further picks reuse it instead of failing.
	assert.Contains(t, pool, p.Pick(pool))
}

func TestPicker_EmptyPool(t *testing.T) {
	p := NewPicker(nil)
	assert.Equal(t, "", p.Pick(nil))
}
