package clueword

import (
	"fmt"
	"strings"
)

type Difficulty string

const (
	Easy   Difficulty = "easy"
	Medium Difficulty = "medium"
	Hard   Difficulty = "hard"
)

// Any is used by callers that do not constrain the tier of the next word.
const Any Difficulty = ""

var multipliers = map[Difficulty]float64{
	Easy:   1,
	Medium: 1.5,
	Hard:   2,
}

// Multiplier returns the score multiplier of a tier. Unknown tiers score as easy.
func Multiplier(d Difficulty) float64 {
	if m, ok := multipliers[d]; ok {
		return m
	}
	return 1
}

func (d Difficulty) Valid() bool {
	_, ok := multipliers[d]
	return ok
}

func ParseDifficulty(s string) (Difficulty, error) {
	d := Difficulty(strings.ToLower(strings.TrimSpace(s)))
	if d == Any {
		return Any, nil
	}
	if !d.Valid() {
		return Any, fmt.Errorf("unknown difficulty %q", s)
	}
	return d, nil
}

// Entry is one playable word. Word is stored uppercase.
type Entry struct {
	Word           string     `json:"word"`
	Definition     string     `json:"definition"`
	BotClues       []string   `json:"botClues"`
	ForbiddenWords []string   `json:"forbiddenWords"`
	Difficulty     Difficulty `json:"difficulty"`
}

// Clone returns a copy that shares no slices with e.
func (e Entry) Clone() Entry {
	c := e
	c.BotClues = append([]string(nil), e.BotClues...)
	c.ForbiddenWords = append([]string(nil), e.ForbiddenWords...)
	return c
}

// Normalize lowercases and trims a word for comparisons.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func canonical(e Entry) Entry {
	e = e.Clone()
	e.Word = strings.ToUpper(strings.TrimSpace(e.Word))
	if !e.Difficulty.Valid() {
		e.Difficulty = Easy
	}
	return e
}
