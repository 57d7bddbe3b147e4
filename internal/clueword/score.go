package clueword

import "math"

const (
	baseScore     = 100
	roundSeconds  = 60
	cluesPerRound = 4
	timeBonusPerS = 2
	clueBonusEach = 25
)

// Score returns the points of a successful round. The clue bonus is not
// clamped: more than four clues yields a negative bonus.
func Score(timeUsedSeconds, cluesUsed int, d Difficulty) int {
	timeBonus := max(0, roundSeconds-timeUsedSeconds) * timeBonusPerS
	clueBonus := (cluesPerRound - cluesUsed) * clueBonusEach
	diffBonus := math.Round(baseScore * (Multiplier(d) - 1))

	return int(math.Round(float64(baseScore+timeBonus+clueBonus) + diffBonus))
}
