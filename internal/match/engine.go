package match

import (
	"clueword-server/internal/clueword"
	"context"
	"errors"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog"
)

const (
	maxNameLength  = 20
	shutdownReason = "server shutting down"
)

type Settings struct {
	PairingDelay     time.Duration
	BotClueDelay     time.Duration
	NextRoundDelay   time.Duration
	GameEndDelay     time.Duration
	TicketTTL        time.Duration
	JanitorInterval  time.Duration
	RecordTimeout    time.Duration
	WordsPerMatch    int
	MaxTrainingWords int
}

func DefaultSettings() Settings {
	return Settings{
		PairingDelay:     time.Second,
		BotClueDelay:     2 * time.Second,
		NextRoundDelay:   5 * time.Second,
		GameEndDelay:     5 * time.Second,
		TicketTTL:        10 * time.Minute,
		JanitorInterval:  30 * time.Second,
		RecordTimeout:    10 * time.Second,
		WordsPerMatch:    5,
		MaxTrainingWords: 20,
	}
}

// WordSource supplies a fresh entry per round.
type WordSource interface {
	Random(d clueword.Difficulty) (clueword.Entry, bool)
}

// IdentityLookup resolves a display name to a player record. It returns
// ErrIdentityNotFound for unknown names.
type IdentityLookup interface {
	LookupIdentity(ctx context.Context, displayName string) (Identity, error)
}

// GameResult is handed to the history sink when a game ends.
type GameResult struct {
	RoomCode     string
	Kind         Kind
	Players      []string
	Scores       map[string]int
	Difficulty   string
	WordsPlayed  int
	WordsGuessed int
	Duration     time.Duration
	EndedAt      time.Time
}

type HistorySink interface {
	RecordGameResult(ctx context.Context, result GameResult) error
}

// Notifier delivers events to a connection. Send must not block.
type Notifier interface {
	Send(connID string, msg Message)
}

type Deps struct {
	Clock      Clock
	Words      WordSource
	Allowed    clueword.WordSet
	Identities IdentityLookup
	History    HistorySink
	Notifier   Notifier
	Logger     zerolog.Logger
}

// Engine owns every session, queue entry, ticket and room of the process.
type Engine struct {
	settings   Settings
	clock      Clock
	words      WordSource
	validator  *clueword.Validator
	identities IdentityLookup
	history    HistorySink
	notifier   Notifier
	log        zerolog.Logger

	sessions *SessionManager
	queue    *Queue
	codes    *codeRegistry
	broker   *Broker

	rooms    map[string]*Room
	janitor  Timer
	stopped  bool
	mu       sync.RWMutex
	recordWG sync.WaitGroup
}

func NewEngine(settings Settings, deps Deps) *Engine {
	if deps.Clock == nil {
		deps.Clock = SystemClock()
	}
	codes := newCodeRegistry()
	return &Engine{
		settings:   settings,
		clock:      deps.Clock,
		words:      deps.Words,
		validator:  clueword.NewValidator(deps.Allowed),
		identities: deps.Identities,
		history:    deps.History,
		notifier:   deps.Notifier,
		log:        deps.Logger.With().Str("component", "engine").Logger(),
		sessions:   NewSessionManager(),
		queue:      NewQueue(),
		codes:      codes,
		broker:     newBroker(codes),
		rooms:      make(map[string]*Room),
	}
}

// Start arms the janitor that expires stale private room tickets.
func (e *Engine) Start() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.stopped || e.janitor != nil {
		return
	}
	e.armJanitor()
	e.log.Info().Msg("engine started")
}

func (e *Engine) armJanitor() {
	e.janitor = e.clock.AfterFunc(e.settings.JanitorInterval, func() {
		e.ExpireTickets(e.clock.Now())

		e.mu.Lock()
		defer e.mu.Unlock()
		if !e.stopped {
			e.armJanitor()
		}
	})
}

// Shutdown ends every room without recording results, clears all state and
// waits for pending history writes.
func (e *Engine) Shutdown(ctx context.Context) error {
	e.mu.Lock()
	e.stopped = true
	if e.janitor != nil {
		e.janitor.Stop()
		e.janitor = nil
	}
	rooms := make([]*Room, 0, len(e.rooms))
	for _, r := range e.rooms {
		rooms = append(rooms, r)
	}
	e.mu.Unlock()

	for _, r := range rooms {
		r.shutdown(shutdownReason)
	}
	for _, conn := range e.queue.Members() {
		e.queue.Leave(conn)
	}
	for _, s := range e.sessions.All() {
		e.broker.CancelByHost(s.ConnectionID)
		e.sessions.Remove(s.ConnectionID)
	}

	done := make(chan struct{})
	go func() {
		e.recordWG.Wait()
		close(done)
	}()
	select {
	case <-done:
		e.log.Info().Msg("engine stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (e *Engine) isStopped() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.stopped
}

func (e *Engine) notify(conn string, msg Message) {
	if e.notifier != nil {
		e.notifier.Send(conn, msg)
	}
}

// fail reports err to the originator and returns it.
func (e *Engine) fail(conn string, err error) error {
	code, msg := SplitError(err)
	e.notify(conn, Message{Type: EventRoomError, Payload: ErrorPayload{Code: code, Message: msg}})
	return err
}

// Associate identifies a connection as the named player.
func (e *Engine) Associate(ctx context.Context, connID, name string) (Identity, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		return Identity{}, e.fail(connID, ErrInvalidName)
	}
	if e.isStopped() {
		return Identity{}, e.fail(connID, ErrShuttingDown)
	}

	identity, err := e.identities.LookupIdentity(ctx, name)
	if err != nil {
		if !errors.Is(err, ErrIdentityNotFound) {
			e.log.Error().Err(err).Str("name", name).Msg("identity lookup failed")
		}
		return Identity{}, e.fail(connID, ErrIdentityNotFound)
	}

	if err := e.sessions.Associate(connID, identity); err != nil {
		return Identity{}, e.fail(connID, err)
	}

	e.log.Info().Str("conn", connID).Str("name", identity.DisplayName).Msg("player identified")
	e.notify(connID, Message{Type: EventIdentified, Payload: IdentifiedPayload{
		Name:         identity.DisplayName,
		IsAdmin:      identity.IsAdmin,
		TotalScore:   identity.TotalScore,
		GamesPlayed:  identity.GamesPlayed,
		WordsGuessed: identity.WordsGuessed,
	}})
	return identity, nil
}

func (e *Engine) Lookup(connID string) (Session, bool) {
	return e.sessions.Lookup(connID)
}

// JoinMatchmaking queues a lobby player and schedules a pairing attempt.
func (e *Engine) JoinMatchmaking(connID string) error {
	if _, err := e.sessions.Transition(connID, StatusLobby, StatusQueued, ""); err != nil {
		return e.fail(connID, err)
	}
	e.queue.Enqueue(connID)

	e.notify(connID, Message{Type: EventMatchmakingJoined, Payload: QueuePayload{QueueSize: e.queue.Size()}})
	e.broadcastQueue()

	e.clock.AfterFunc(e.settings.PairingDelay, func() {
		e.tryPair(connID)
	})
	return nil
}

func (e *Engine) LeaveMatchmaking(connID string) error {
	if e.queue.Leave(connID) {
		e.sessions.Transition(connID, StatusQueued, StatusLobby, "")
		e.broadcastQueue()
	}
	e.notify(connID, Message{Type: EventMatchmakingLeft, Payload: QueuePayload{QueueSize: e.queue.Size()}})
	return nil
}

func (e *Engine) broadcastQueue() {
	msg := Message{Type: EventQueueUpdate, Payload: QueuePayload{QueueSize: e.queue.Size()}}
	for _, conn := range e.queue.Members() {
		e.notify(conn, msg)
	}
}

// tryPair runs after the pairing delay. It re-checks queue membership, so a
// player who left in the meantime is never paired.
func (e *Engine) tryPair(connID string) {
	if e.isStopped() {
		return
	}
	opponent, ok := e.queue.TryPairOne(connID)
	if !ok {
		return
	}

	code := e.codes.Reserve()
	first, errFirst := e.sessions.Transition(opponent, StatusQueued, StatusInRoom, code)
	second, errSecond := e.sessions.Transition(connID, StatusQueued, StatusInRoom, code)
	if errFirst != nil || errSecond != nil {
		// One side disconnected after being picked; the other waits again.
		e.codes.Release(code)
		e.requeue(opponent, errFirst)
		e.requeue(connID, errSecond)
		e.broadcastQueue()
		return
	}

	e.openRoom(code, KindMatchmaking, []Session{first, second}, clueword.Any, e.settings.WordsPerMatch)
	e.broadcastQueue()
}

func (e *Engine) requeue(connID string, transitionErr error) {
	if transitionErr != nil {
		return
	}
	e.sessions.Transition(connID, StatusInRoom, StatusQueued, "")
	e.queue.Enqueue(connID)
	e.clock.AfterFunc(e.settings.PairingDelay, func() {
		e.tryPair(connID)
	})
}

// openRoom registers a room for two players and tells both about it.
func (e *Engine) openRoom(code string, kind Kind, players []Session, d clueword.Difficulty, maxWords int) *Room {
	r := newRoom(e, code, kind, players, d, maxWords)

	e.mu.Lock()
	e.rooms[code] = r
	e.mu.Unlock()

	r.log.Info().Int("maxWords", maxWords).Msg("room created")

	for i, p := range players {
		opponent := ""
		if len(players) == 2 {
			opponent = players[1-i].Identity.DisplayName
		}
		e.notify(p.ConnectionID, Message{Type: EventMatchFound, Payload: MatchFoundPayload{
			RoomCode: code,
			Kind:     kind,
			Opponent: opponent,
			MaxWords: maxWords,
		}})
	}

	// A player who disconnected while the room was being set up.
	for _, p := range players {
		if _, ok := e.sessions.Lookup(p.ConnectionID); !ok {
			r.leave(p.ConnectionID)
		}
	}
	return r
}

// CreatePrivateRoom opens a ticket hosted by connID.
func (e *Engine) CreatePrivateRoom(connID string) (string, error) {
	if _, err := e.sessions.Transition(connID, StatusLobby, StatusWaiting, ""); err != nil {
		return "", e.fail(connID, err)
	}
	code := e.broker.CreateTicket(connID, e.clock.Now())
	if _, err := e.sessions.Transition(connID, StatusWaiting, StatusWaiting, code); err != nil {
		e.broker.CancelByHost(connID)
		return "", e.fail(connID, err)
	}

	e.log.Info().Str("conn", connID).Str("room", code).Msg("private room created")
	e.notify(connID, Message{Type: EventPrivateRoomCreated, Payload: TicketPayload{Code: code}})
	e.notify(connID, Message{Type: EventWaitingForOpponent, Payload: TicketPayload{Code: code}})
	return code, nil
}

// JoinPrivateRoom joins the ticket with the given code. The second player
// turns it into a private room.
func (e *Engine) JoinPrivateRoom(connID, code string) error {
	code = NormalizeRoomCode(code)
	if err := ValidateRoomCode(code); err != nil {
		return e.fail(connID, ErrRoomNotFound)
	}

	s, ok := e.sessions.Lookup(connID)
	if !ok {
		return e.fail(connID, ErrUnknownPlayer)
	}
	if s.Status == StatusWaiting && s.RoomCode == code {
		e.notify(connID, Message{Type: EventWaitingForOpponent, Payload: TicketPayload{Code: code}})
		return nil
	}

	joiner, err := e.sessions.Transition(connID, StatusLobby, StatusInRoom, code)
	if err != nil {
		return e.fail(connID, err)
	}

	ticket, promoted, err := e.broker.Join(code, connID)
	if err != nil {
		e.sessions.Transition(connID, StatusInRoom, StatusLobby, "")
		if errors.Is(err, ErrRoomNotFound) && e.Room(code) != nil {
			err = ErrRoomFull
		}
		return e.fail(connID, err)
	}
	if !promoted {
		e.sessions.Transition(connID, StatusInRoom, StatusWaiting, code)
		e.notify(connID, Message{Type: EventWaitingForOpponent, Payload: TicketPayload{Code: code}})
		return nil
	}

	host, err := e.sessions.Transition(ticket.Host, StatusWaiting, StatusInRoom, code)
	if err != nil {
		e.codes.Release(code)
		e.sessions.Transition(connID, StatusInRoom, StatusLobby, "")
		return e.fail(connID, ErrRoomNotFound)
	}

	e.notify(host.ConnectionID, Message{Type: EventPlayerJoined, Payload: PlayerPayload{
		RoomCode: code,
		Player:   joiner.Identity.DisplayName,
	}})
	e.openRoom(code, KindPrivate, []Session{host, joiner}, clueword.Any, e.settings.WordsPerMatch)
	return nil
}

// LeavePrivateRoom cancels the ticket hosted by connID.
func (e *Engine) LeavePrivateRoom(connID string) error {
	code, ok := e.broker.CancelByHost(connID)
	if !ok {
		return nil
	}
	e.sessions.Transition(connID, StatusWaiting, StatusLobby, "")
	e.notify(connID, Message{Type: EventPrivateRoomLeft, Payload: TicketPayload{Code: code}})
	return nil
}

// StartTraining opens a room against the bot and starts it right away.
// An empty difficulty means easy; maxWords falls back to the match length and
// is capped by MaxTrainingWords.
func (e *Engine) StartTraining(connID, difficulty string, maxWords int) (string, error) {
	d, err := clueword.ParseDifficulty(difficulty)
	if err != nil {
		return "", e.fail(connID, ErrUnknownDifficulty)
	}
	if d == clueword.Any {
		d = clueword.Easy
	}
	if maxWords <= 0 {
		maxWords = e.settings.WordsPerMatch
	}
	maxWords = min(maxWords, e.settings.MaxTrainingWords)

	code := e.codes.Reserve()
	s, err := e.sessions.Transition(connID, StatusLobby, StatusInRoom, code)
	if err != nil {
		e.codes.Release(code)
		return "", e.fail(connID, err)
	}

	r := newRoom(e, code, KindTraining, []Session{s}, d, maxWords)
	e.mu.Lock()
	e.rooms[code] = r
	e.mu.Unlock()
	r.log.Info().Str("difficulty", string(d)).Int("maxWords", maxWords).Msg("training room created")

	r.mu.Lock()
	if !r.closed {
		r.startFirstRound()
	}
	r.mu.Unlock()

	if _, ok := e.sessions.Lookup(connID); !ok {
		r.leave(connID)
	}
	return code, nil
}

// JoinRoom enters a room the player was matched into.
func (e *Engine) JoinRoom(connID, code string) error {
	r := e.Room(NormalizeRoomCode(code))
	if r == nil {
		return e.fail(connID, ErrRoomNotFound)
	}
	if err := r.enter(connID); err != nil {
		return e.fail(connID, err)
	}
	return nil
}

// GiveClue submits a clue. Actions on rooms that no longer exist are
// dropped silently.
func (e *Engine) GiveClue(connID, code, clue string) error {
	r := e.Room(NormalizeRoomCode(code))
	if r == nil {
		return nil
	}

	err := r.giveClue(connID, clue)
	var clueErr *clueword.ClueError
	if errors.As(err, &clueErr) {
		e.notify(connID, Message{Type: EventClueError, Payload: ClueErrorPayload{
			RoomCode: r.Code(),
			Reason:   clueErr.Reason,
		}})
		return err
	}
	if err != nil {
		return e.fail(connID, err)
	}
	return nil
}

func (e *Engine) MakeGuess(connID, code, guess string) error {
	r := e.Room(NormalizeRoomCode(code))
	if r == nil {
		return nil
	}
	if err := r.makeGuess(connID, guess); err != nil {
		return e.fail(connID, err)
	}
	return nil
}

// Disconnect forgets a connection and evicts it from the queue, its ticket
// and its room.
func (e *Engine) Disconnect(connID string) {
	s, ok := e.sessions.Remove(connID)
	if !ok {
		return
	}

	if e.queue.Leave(connID) {
		e.broadcastQueue()
	}
	e.broker.CancelByHost(connID)
	if s.RoomCode != "" {
		if r := e.Room(s.RoomCode); r != nil {
			r.leave(connID)
		}
	}
	e.log.Info().Str("conn", connID).Str("name", s.Identity.DisplayName).Msg("player disconnected")
}

// ExpireTickets drops tickets older than the configured TTL and sends their
// hosts back to the lobby.
func (e *Engine) ExpireTickets(now time.Time) int {
	expired := e.broker.Expire(now, e.settings.TicketTTL)
	for _, t := range expired {
		e.sessions.Transition(t.Host, StatusWaiting, StatusLobby, "")
		e.fail(t.Host, ErrTicketExpired)
	}
	if len(expired) > 0 {
		e.log.Info().Int("count", len(expired)).Msg("expired private rooms")
	}
	return len(expired)
}

// CodeInUse reports whether a ticket or a room holds code.
func (e *Engine) CodeInUse(code string) bool {
	return e.codes.InUse(NormalizeRoomCode(code))
}

func (e *Engine) Room(code string) *Room {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.rooms[code]
}

// removeRoom is called by a room destroying itself; r.mu is held.
func (e *Engine) removeRoom(code string, conns []string) {
	e.mu.Lock()
	delete(e.rooms, code)
	e.mu.Unlock()

	e.codes.Release(code)
	for _, conn := range conns {
		e.sessions.ReleaseRoom(conn, code)
	}
}

// record hands a result to the history sink without blocking the room.
// Failures are logged and dropped.
func (e *Engine) record(result GameResult) {
	if e.history == nil {
		return
	}
	e.recordWG.Add(1)
	go func() {
		defer e.recordWG.Done()

		ctx, cancel := context.WithTimeout(context.Background(), e.settings.RecordTimeout)
		defer cancel()

		if err := e.history.RecordGameResult(ctx, result); err != nil {
			e.log.Error().Err(err).Str("room", result.RoomCode).Msg("failed to record game result")
			return
		}
		e.log.Info().
			Str("room", result.RoomCode).
			Strs("players", result.Players).
			Int("wordsGuessed", result.WordsGuessed).
			Msg("game result recorded")
	}()
}

type Stats struct {
	Sessions int `json:"sessions"`
	Queued   int `json:"queued"`
	Tickets  int `json:"tickets"`
	Rooms    int `json:"rooms"`
}

func (e *Engine) Stats() Stats {
	e.mu.RLock()
	rooms := len(e.rooms)
	e.mu.RUnlock()

	return Stats{
		Sessions: e.sessions.Count(),
		Queued:   e.queue.Size(),
		Tickets:  e.broker.Count(),
		Rooms:    rooms,
	}
}

// Rooms returns a snapshot of every active room.
func (e *Engine) Rooms() []RoomInfo {
	e.mu.RLock()
	rooms := make([]*Room, 0, len(e.rooms))
	for _, r := range e.rooms {
		rooms = append(rooms, r)
	}
	e.mu.RUnlock()

	infos := make([]RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		infos = append(infos, r.Info())
	}
	return infos
}
