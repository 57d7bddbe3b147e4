package match

import (
	"slices"
	"sync"
)

// Queue holds connections waiting for an opponent. A connection appears at
// most once.
type Queue struct {
	waiting []string
	mu      sync.Mutex
}

func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue reports false when connID is already queued.
func (q *Queue) Enqueue(connID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if slices.Contains(q.waiting, connID) {
		return false
	}
	q.waiting = append(q.waiting, connID)
	return true
}

// TryPairOne removes connID and the first other queued connection found and
// returns that opponent. Nothing changes when connID has left the queue or
// no opponent is waiting.
func (q *Queue) TryPairOne(connID string) (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	self := slices.Index(q.waiting, connID)
	if self < 0 {
		return "", false
	}

	for i, other := range q.waiting {
		if i == self {
			continue
		}
		q.waiting = slices.DeleteFunc(q.waiting, func(c string) bool {
			return c == connID || c == other
		})
		return other, true
	}
	return "", false
}

func (q *Queue) Leave(connID string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	i := slices.Index(q.waiting, connID)
	if i < 0 {
		return false
	}
	q.waiting = slices.Delete(q.waiting, i, i+1)
	return true
}

func (q *Queue) Size() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.waiting)
}

func (q *Queue) Members() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	return slices.Clone(q.waiting)
}
