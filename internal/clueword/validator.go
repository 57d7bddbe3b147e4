package clueword

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Rejection reasons, in the order the checks run.
const (
	ReasonTooShort           = "too short"
	ReasonNotOneWord         = "must be one word"
	ReasonIsTarget           = "is the target"
	ReasonSharesRoot         = "shares root with target"
	ReasonTooClose           = "too close"
	ReasonDisallowedLanguage = "disallowed language"
	ReasonNotInDictionary    = "not in dictionary"
	ReasonForbiddenWord      = "forbidden word"
)

type ClueError struct {
	Reason string
}

func (e *ClueError) Error() string {
	return "INVALID_CLUE: " + e.Reason
}

// WordSet answers membership for normalized words.
type WordSet interface {
	Contains(word string) bool
}

type Validator struct {
	allowed WordSet
}

func NewValidator(allowed WordSet) *Validator {
	return &Validator{allowed: allowed}
}

// Validate runs the clue checks in a fixed order; the first failing check
// decides the reason. It returns nil for an acceptable clue.
func (v *Validator) Validate(clue, target string, forbidden []string) error {
	c := Normalize(clue)
	t := Normalize(target)

	if utf8.RuneCountInString(c) < 2 {
		return &ClueError{Reason: ReasonTooShort}
	}
	if strings.IndexFunc(c, unicode.IsSpace) >= 0 {
		return &ClueError{Reason: ReasonNotOneWord}
	}
	if c == t {
		return &ClueError{Reason: ReasonIsTarget}
	}
	if sharesRoot(c, t) {
		return &ClueError{Reason: ReasonSharesRoot}
	}
	if strings.Contains(t, c) || strings.Contains(c, t) {
		return &ClueError{Reason: ReasonTooClose}
	}
	if IsBanned(c) {
		return &ClueError{Reason: ReasonDisallowedLanguage}
	}
	if v.allowed == nil || !v.allowed.Contains(c) {
		return &ClueError{Reason: ReasonNotInDictionary}
	}
	for _, f := range forbidden {
		if Normalize(f) == c {
			return &ClueError{Reason: ReasonForbiddenWord}
		}
	}
	return nil
}

func sharesRoot(a, b string) bool {
	ra, rb := []rune(a), []rune(b)
	if len(ra) < 3 || len(rb) < 3 {
		return false
	}
	return string(ra[:3]) == string(rb[:3])
}
