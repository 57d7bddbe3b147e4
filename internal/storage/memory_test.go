package storage_test

import (
	"clueword-server/internal/clueword"
	"clueword-server/internal/match"
	"clueword-server/internal/storage"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreAccumulatesTotals(t *testing.T) {
	ctx := context.Background()
	store := storage.NewMemoryStore(zerolog.Nop())

	id, err := store.LookupIdentity(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, match.Identity{DisplayName: "alice"}, id)

	result := match.GameResult{
		RoomCode:     "ABC123",
		Kind:         match.KindMatchmaking,
		Players:      []string{"alice", "bob"},
		Scores:       map[string]int{"alice": 300, "bob": 300},
		WordsPlayed:  3,
		WordsGuessed: 2,
	}
	require.NoError(t, store.RecordGameResult(ctx, result))
	require.NoError(t, store.RecordGameResult(ctx, result))

	id, err = store.LookupIdentity(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, 600, id.TotalScore)
	assert.Equal(t, 2, id.GamesPlayed)
	assert.Equal(t, 4, id.WordsGuessed)
	assert.Len(t, store.Results(), 2)
}

type lookupFunc func(ctx context.Context, name string) (match.Identity, error)

func (f lookupFunc) LookupIdentity(ctx context.Context, name string) (match.Identity, error) {
	return f(ctx, name)
}

func TestGuestsFallback(t *testing.T) {
	ctx := context.Background()
	broken := errors.New("connection refused")

	g := storage.Guests{Store: lookupFunc(func(_ context.Context, name string) (match.Identity, error) {
		switch name {
		case "alice":
			return match.Identity{DisplayName: "alice", IsAdmin: true}, nil
		case "down":
			return match.Identity{}, broken
		}
		return match.Identity{}, match.ErrIdentityNotFound
	})}

	id, err := g.LookupIdentity(ctx, "alice")
	require.NoError(t, err)
	assert.True(t, id.IsAdmin)

	id, err = g.LookupIdentity(ctx, "newcomer")
	require.NoError(t, err)
	assert.Equal(t, "newcomer", id.DisplayName)

	_, err = g.LookupIdentity(ctx, "down")
	assert.ErrorIs(t, err, broken)
}

type staticVocabulary struct {
	v   clueword.Vocabulary
	err error
}

func (s staticVocabulary) LoadVocabulary(context.Context) (clueword.Vocabulary, error) {
	return s.v, s.err
}

func TestRefreshVocabulary(t *testing.T) {
	ctx := context.Background()
	bank := clueword.NewWordBank([]clueword.Entry{{Word: "chat", Difficulty: clueword.Easy}})
	dict := clueword.NewDictionary("animal")

	// An empty source keeps the current vocabulary.
	n, err := storage.RefreshVocabulary(ctx, staticVocabulary{}, bank, dict)
	require.NoError(t, err)
	assert.Equal(t, 0, n)
	assert.Equal(t, 1, bank.Len())
	assert.True(t, dict.Contains("animal"))

	src := staticVocabulary{v: clueword.Vocabulary{
		Entries: []clueword.Entry{
			{Word: "volcan", Difficulty: clueword.Medium},
			{Word: "phare", Difficulty: clueword.Medium},
		},
		Dictionary: []string{"lave"},
	}}
	n, err = storage.RefreshVocabulary(ctx, src, bank, dict)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, bank.Len())
	assert.False(t, dict.Contains("animal"))
	assert.True(t, dict.Contains("lave"))

	_, err = storage.RefreshVocabulary(ctx, staticVocabulary{err: errors.New("boom")}, bank, dict)
	assert.Error(t, err)
	assert.Equal(t, 2, bank.Len())
}
