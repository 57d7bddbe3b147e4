package clueword

import "sync"

// Dictionary is the set of words a human giver may use as a clue.
// Replace swaps the whole set so readers never observe a partial load.
type Dictionary struct {
	mu    sync.RWMutex
	words map[string]struct{}
}

func NewDictionary(words ...string) *Dictionary {
	d := &Dictionary{}
	d.Replace(words)
	return d
}

func (d *Dictionary) Contains(word string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.words[Normalize(word)]
	return ok
}

func (d *Dictionary) Replace(words []string) {
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		if n := Normalize(w); n != "" {
			set[n] = struct{}{}
		}
	}

	d.mu.Lock()
	d.words = set
	d.mu.Unlock()
}

func (d *Dictionary) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.words)
}
