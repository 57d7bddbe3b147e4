package clueword_test

import (
	"clueword-server/internal/clueword"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestScoreWithoutBonusesIsMultipliedBase(t *testing.T) {
	for _, d := range []clueword.Difficulty{clueword.Easy, clueword.Medium, clueword.Hard} {
		want := int(math.Round(100 * clueword.Multiplier(d)))
		assert.Equal(t, want, clueword.Score(60, 4, d), "difficulty %s", d)
	}
}

func TestScoreFastestEasyRound(t *testing.T) {
	assert.Equal(t, 320, clueword.Score(0, 0, clueword.Easy))
}

func TestScoreExamples(t *testing.T) {
	assert := assert.New(t)

	// 100 + 40*2 + 2*25 + 50
	assert.Equal(280, clueword.Score(20, 2, clueword.Medium))
	// 100 + 0 + 3*25 + 100
	assert.Equal(275, clueword.Score(90, 1, clueword.Hard))
	// Unknown tiers score as easy.
	assert.Equal(clueword.Score(10, 1, clueword.Easy), clueword.Score(10, 1, "legendary"))
}

// Test: More than four clues is not clamped
// Why: The clue bonus goes negative rather than being floored at zero
func TestScoreClueBonusUnclamped(t *testing.T) {
	assert.Equal(t, 75, clueword.Score(60, 5, clueword.Easy))
}
