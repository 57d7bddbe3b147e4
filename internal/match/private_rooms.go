package match

import (
	"sync"
	"time"
)

// Ticket is a private room waiting for its second player.
type Ticket struct {
	Code      string
	Host      string
	Players   []string
	CreatedAt time.Time
}

// Broker keeps private room tickets until a second player joins or the host
// leaves.
type Broker struct {
	codes   *codeRegistry
	tickets map[string]*Ticket
	mu      sync.Mutex
}

func newBroker(codes *codeRegistry) *Broker {
	return &Broker{
		codes:   codes,
		tickets: make(map[string]*Ticket),
	}
}

// CreateTicket opens a ticket for host and returns its shareable code. A host
// already holding a ticket gets the same code back.
func (b *Broker) CreateTicket(host string, now time.Time) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	for code, t := range b.tickets {
		if t.Host == host {
			return code
		}
	}

	code := b.codes.Reserve()
	b.tickets[code] = &Ticket{
		Code:      code,
		Host:      host,
		Players:   []string{host},
		CreatedAt: now,
	}
	return code
}

// Join adds player to the ticket. The host joining its own ticket keeps it
// waiting. A second player promotes it: the ticket is discarded and its code
// stays reserved for the room the caller creates.
func (b *Broker) Join(code, player string) (Ticket, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	t, ok := b.tickets[code]
	if !ok {
		return Ticket{}, false, ErrRoomNotFound
	}
	if t.Host == player {
		return *t, false, nil
	}
	if len(t.Players) >= 2 {
		return Ticket{}, false, ErrRoomFull
	}

	t.Players = append(t.Players, player)
	delete(b.tickets, code)
	return *t, true, nil
}

// CancelByHost drops the ticket hosted by host and frees its code.
func (b *Broker) CancelByHost(host string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for code, t := range b.tickets {
		if t.Host == host {
			delete(b.tickets, code)
			b.codes.Release(code)
			return code, true
		}
	}
	return "", false
}

// Expire drops tickets older than ttl and returns them.
func (b *Broker) Expire(now time.Time, ttl time.Duration) []Ticket {
	b.mu.Lock()
	defer b.mu.Unlock()

	var expired []Ticket
	for code, t := range b.tickets {
		if now.Sub(t.CreatedAt) >= ttl {
			expired = append(expired, *t)
			delete(b.tickets, code)
			b.codes.Release(code)
		}
	}
	return expired
}

func (b *Broker) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.tickets)
}
