package match_test

import (
	"clueword-server/internal/clueword"
	"clueword-server/internal/match"
	"context"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// manualClock only moves when Advance is called. Due callbacks run in order
// on the calling goroutine.
type manualClock struct {
	mu     sync.Mutex
	now    time.Time
	seq    int
	timers []*manualTimer
}

type manualTimer struct {
	clock *manualClock
	at    time.Time
	seq   int
	fn    func()
	done  bool
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) AfterFunc(d time.Duration, f func()) match.Timer {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.seq++
	t := &manualTimer{clock: c, at: c.now.Add(d), seq: c.seq, fn: f}
	c.timers = append(c.timers, t)
	return t
}

func (t *manualTimer) Stop() bool {
	t.clock.mu.Lock()
	defer t.clock.mu.Unlock()

	if t.done {
		return false
	}
	t.done = true
	return true
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	target := c.now.Add(d)
	for {
		next := c.nextDue(target)
		if next == nil {
			break
		}
		next.done = true
		c.now = next.at
		c.mu.Unlock()
		next.fn()
		c.mu.Lock()
	}
	c.now = target
	c.mu.Unlock()
}

func (c *manualClock) nextDue(target time.Time) *manualTimer {
	pending := c.timers[:0]
	for _, t := range c.timers {
		if !t.done {
			pending = append(pending, t)
		}
	}
	c.timers = pending

	sort.Slice(pending, func(i, j int) bool {
		if pending[i].at.Equal(pending[j].at) {
			return pending[i].seq < pending[j].seq
		}
		return pending[i].at.Before(pending[j].at)
	})
	if len(pending) == 0 || pending[0].at.After(target) {
		return nil
	}
	return pending[0]
}

type recorder struct {
	mu   sync.Mutex
	msgs map[string][]match.Message
}

func newRecorder() *recorder {
	return &recorder{msgs: make(map[string][]match.Message)}
}

func (r *recorder) Send(conn string, msg match.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs[conn] = append(r.msgs[conn], msg)
}

func (r *recorder) ofType(conn, typ string) []match.Message {
	r.mu.Lock()
	defer r.mu.Unlock()

	var out []match.Message
	for _, m := range r.msgs[conn] {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

func (r *recorder) count(conn, typ string) int {
	return len(r.ofType(conn, typ))
}

func (r *recorder) last(t *testing.T, conn, typ string) match.Message {
	t.Helper()
	msgs := r.ofType(conn, typ)
	require.NotEmpty(t, msgs, "%s never received %s", conn, typ)
	return msgs[len(msgs)-1]
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.msgs = make(map[string][]match.Message)
}

// guests knows every name except "ghost".
type guests struct{}

func (guests) LookupIdentity(_ context.Context, name string) (match.Identity, error) {
	if name == "ghost" {
		return match.Identity{}, match.ErrIdentityNotFound
	}
	return match.Identity{DisplayName: name, TotalScore: 10}, nil
}

type mockSink struct {
	mock.Mock
}

func (m *mockSink) RecordGameResult(ctx context.Context, result match.GameResult) error {
	args := m.Called(ctx, result)
	return args.Error(0)
}

var (
	marque = clueword.Entry{
		Word:           "MARQUE",
		Definition:     "Nom qui distingue les produits d'une entreprise.",
		BotClues:       []string{"logo", "entreprise", "produit", "slogan"},
		ForbiddenWords: []string{"marquer", "enseigne"},
		Difficulty:     clueword.Medium,
	}
	chat = clueword.Entry{
		Word:           "CHAT",
		Definition:     "Petit félin domestique.",
		BotClues:       []string{"animal", "moustaches", "miauler", "souris"},
		ForbiddenWords: []string{"chaton"},
		Difficulty:     clueword.Easy,
	}
)

type testEnv struct {
	engine *match.Engine
	clock  *manualClock
	rec    *recorder
	sink   *mockSink
}

func testSettings() match.Settings {
	s := match.DefaultSettings()
	s.WordsPerMatch = 3
	return s
}

func newTestEnv(t *testing.T, settings match.Settings, entries ...clueword.Entry) *testEnv {
	t.Helper()
	if len(entries) == 0 {
		entries = []clueword.Entry{marque}
	}

	env := &testEnv{
		clock: newManualClock(),
		rec:   newRecorder(),
		sink:  &mockSink{},
	}
	env.engine = match.NewEngine(settings, match.Deps{
		Clock:      env.clock,
		Words:      clueword.NewWordBank(entries),
		Allowed:    clueword.NewDictionary("logo", "entreprise", "produit", "slogan", "publicité", "animal"),
		Identities: guests{},
		History:    env.sink,
		Notifier:   env.rec,
		Logger:     zerolog.Nop(),
	})
	return env
}

func (env *testEnv) identify(t *testing.T, conn, name string) {
	t.Helper()
	_, err := env.engine.Associate(context.Background(), conn, name)
	require.NoError(t, err)
}

// matchedRoom pairs alice (c1) and bob (c2) through matchmaking, enters the
// room and returns its code.
func (env *testEnv) matchedRoom(t *testing.T) string {
	t.Helper()
	env.identify(t, "c1", "alice")
	env.identify(t, "c2", "bob")
	require.NoError(t, env.engine.JoinMatchmaking("c1"))
	require.NoError(t, env.engine.JoinMatchmaking("c2"))
	env.clock.Advance(time.Second)

	found := env.rec.last(t, "c1", match.EventMatchFound).Payload.(match.MatchFoundPayload)
	require.NoError(t, env.engine.JoinRoom("c1", found.RoomCode))
	return found.RoomCode
}

var connOf = map[string]string{"alice": "c1", "bob": "c2"}

// roles returns the guesser and giver connections of the current round.
func (env *testEnv) roles(t *testing.T, code string) (guesser, giver string) {
	t.Helper()
	r := env.engine.Room(code)
	require.NotNil(t, r)
	info := r.Info()
	guesser = connOf[info.Guesser]
	for _, name := range info.Players {
		if name != info.Guesser {
			giver = connOf[name]
		}
	}
	return guesser, giver
}
