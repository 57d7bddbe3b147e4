package clueword

import (
	_ "embed"
	"encoding/json"
	"fmt"
)

//go:embed vocabulary.json
var defaultVocabulary []byte

// Vocabulary is a full word source: playable entries plus the clue dictionary.
type Vocabulary struct {
	Entries    []Entry  `json:"entries"`
	Dictionary []string `json:"dictionary"`
}

// DefaultVocabulary decodes the vocabulary compiled into the binary. It seeds
// the word bank when no database is configured.
func DefaultVocabulary() (Vocabulary, error) {
	var v Vocabulary
	if err := json.Unmarshal(defaultVocabulary, &v); err != nil {
		return Vocabulary{}, fmt.Errorf("failed to decode default vocabulary: %w", err)
	}
	return v, nil
}
