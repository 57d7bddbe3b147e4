package clueword

import (
	"math/rand"
	"sync"
)

// WordBank holds the playable entries grouped by tier. Random hands out a
// fresh copy so a round never shares slices with the bank.
type WordBank struct {
	mu     sync.RWMutex
	all    []Entry
	byTier map[Difficulty][]Entry
}

func NewWordBank(entries []Entry) *WordBank {
	b := &WordBank{}
	b.Replace(entries)
	return b
}

// Random picks an entry of the given tier, or of any tier for Any.
func (b *WordBank) Random(d Difficulty) (Entry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	pool := b.all
	if d != Any {
		pool = b.byTier[d]
	}
	if len(pool) == 0 {
		return Entry{}, false
	}
	return pool[rand.Intn(len(pool))].Clone(), true
}

func (b *WordBank) Replace(entries []Entry) {
	all := make([]Entry, 0, len(entries))
	byTier := make(map[Difficulty][]Entry)
	for _, e := range entries {
		if e.Word == "" {
			continue
		}
		e = canonical(e)
		all = append(all, e)
		byTier[e.Difficulty] = append(byTier[e.Difficulty], e)
	}

	b.mu.Lock()
	b.all = all
	b.byTier = byTier
	b.mu.Unlock()
}

func (b *WordBank) Len() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.all)
}
