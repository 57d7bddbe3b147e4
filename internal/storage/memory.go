package storage

import (
	"clueword-server/internal/match"
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
)

// MemoryStore is the identity store and history sink used without a
// database. Every name is accepted as a guest; totals last until restart.
type MemoryStore struct {
	players map[string]match.Identity
	results []match.GameResult
	log     zerolog.Logger
	mu      sync.RWMutex
}

func NewMemoryStore(log zerolog.Logger) *MemoryStore {
	return &MemoryStore{
		players: make(map[string]match.Identity),
		log:     log.With().Str("component", "memory-store").Logger(),
	}
}

func (m *MemoryStore) LookupIdentity(_ context.Context, displayName string) (match.Identity, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if id, ok := m.players[displayName]; ok {
		return id, nil
	}
	return match.Identity{DisplayName: displayName}, nil
}

func (m *MemoryStore) RecordGameResult(_ context.Context, result match.GameResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, name := range result.Players {
		id := m.players[name]
		id.DisplayName = name
		id.TotalScore += result.Scores[name]
		id.GamesPlayed++
		id.WordsGuessed += result.WordsGuessed
		m.players[name] = id
	}
	m.results = append(m.results, result)

	m.log.Info().
		Str("room", result.RoomCode).
		Str("kind", string(result.Kind)).
		Strs("players", result.Players).
		Interface("scores", result.Scores).
		Msg("game result")
	return nil
}

func (m *MemoryStore) Results() []match.GameResult {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]match.GameResult(nil), m.results...)
}

// Guests accepts unknown names as new players. Lookup failures other than
// not-found are returned unchanged.
type Guests struct {
	Store match.IdentityLookup
}

func (g Guests) LookupIdentity(ctx context.Context, displayName string) (match.Identity, error) {
	id, err := g.Store.LookupIdentity(ctx, displayName)
	if errors.Is(err, match.ErrIdentityNotFound) {
		return match.Identity{DisplayName: displayName}, nil
	}
	return id, err
}
