package match

import (
	"clueword-server/internal/clueword"
	"maps"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

type Kind string

const (
	KindMatchmaking Kind = "matchmaking"
	KindPrivate     Kind = "private"
	KindTraining    Kind = "training"
)

type State string

const (
	StateStarting    State = "starting"
	StatePlaying     State = "playing"
	StateRoundEnding State = "round_ending"
	StateGameEnded   State = "game_ended"
)

const (
	turnsPerRound = 4
	roundSeconds  = 60
)

// Round end reasons.
const (
	ReasonGuessed     = "guessed"
	ReasonOutOfClues  = "out of clues"
	ReasonTimeExpired = "time expired"
)

type participant struct {
	conn      string
	name      string
	connected bool
}

// Room is one match. Every field is guarded by mu; deferred callbacks carry
// the generation they were armed in and do nothing once it has moved on.
type Room struct {
	engine *Engine
	log    zerolog.Logger

	code         string
	kind         Kind
	difficulty   clueword.Difficulty
	participants []*participant
	state        State

	word      clueword.Entry
	clues     []string
	turnsLeft int
	timeLeft  int
	guesser   int
	botIndex  int

	scores       map[string]int
	wordsPlayed  int
	wordsGuessed int
	maxWords     int
	createdAt    time.Time
	startedAt    time.Time

	generation uint64
	tick       Timer
	deferred   []Timer
	closed     bool

	mu sync.Mutex
}

// RoomInfo is a point-in-time view of a room.
type RoomInfo struct {
	Code         string         `json:"code"`
	Kind         Kind           `json:"kind"`
	State        State          `json:"state"`
	Players      []string       `json:"players"`
	Guesser      string         `json:"guesser"`
	GuesserIndex int            `json:"guesserIndex"`
	TurnsLeft    int            `json:"turnsLeft"`
	TimeLeft     int            `json:"timeLeft"`
	Clues        []string       `json:"clues"`
	WordsPlayed  int            `json:"wordsPlayed"`
	WordsGuessed int            `json:"wordsGuessed"`
	MaxWords     int            `json:"maxWords"`
	Scores       map[string]int `json:"scores"`
}

func newRoom(e *Engine, code string, kind Kind, players []Session, d clueword.Difficulty, maxWords int) *Room {
	r := &Room{
		engine:     e,
		log:        e.log.With().Str("room", code).Str("kind", string(kind)).Logger(),
		code:       code,
		kind:       kind,
		difficulty: d,
		state:      StateStarting,
		scores:     make(map[string]int),
		maxWords:   maxWords,
		createdAt:  e.clock.Now(),
	}
	for _, s := range players {
		r.participants = append(r.participants, &participant{
			conn:      s.ConnectionID,
			name:      s.Identity.DisplayName,
			connected: true,
		})
		r.scores[s.Identity.DisplayName] = 0
	}
	return r
}

func (r *Room) Code() string {
	return r.code
}

func (r *Room) Info() RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()

	info := RoomInfo{
		Code:         r.code,
		Kind:         r.kind,
		State:        r.state,
		GuesserIndex: r.guesser,
		TurnsLeft:    r.turnsLeft,
		TimeLeft:     r.timeLeft,
		Clues:        append([]string{}, r.clues...),
		WordsPlayed:  r.wordsPlayed,
		WordsGuessed: r.wordsGuessed,
		MaxWords:     r.maxWords,
		Scores:       maps.Clone(r.scores),
	}
	for _, p := range r.participants {
		info.Players = append(info.Players, p.name)
	}
	info.Guesser = r.guesserName()
	return info
}

// after arms a callback bound to the current generation.
func (r *Room) after(d time.Duration, fn func()) Timer {
	gen := r.generation
	return r.engine.clock.AfterFunc(d, func() {
		r.mu.Lock()
		defer r.mu.Unlock()

		if r.closed || r.generation != gen {
			return
		}
		fn()
	})
}

func (r *Room) schedule(d time.Duration, fn func()) {
	r.deferred = append(r.deferred, r.after(d, fn))
}

// cancelTimers stops the round timer and every pending callback.
func (r *Room) cancelTimers() {
	if r.tick != nil {
		r.tick.Stop()
		r.tick = nil
	}
	for _, t := range r.deferred {
		t.Stop()
	}
	r.deferred = nil
}

func (r *Room) indexOf(conn string) int {
	for i, p := range r.participants {
		if p.conn == conn {
			return i
		}
	}
	return -1
}

func (r *Room) guesserName() string {
	if r.guesser < len(r.participants) {
		return r.participants[r.guesser].name
	}
	return ""
}

func (r *Room) giverName() string {
	if r.kind == KindTraining {
		return BotName
	}
	for i, p := range r.participants {
		if i != r.guesser {
			return p.name
		}
	}
	return ""
}

func (r *Room) connectedCount() int {
	n := 0
	for _, p := range r.participants {
		if p.connected {
			n++
		}
	}
	return n
}

func (r *Room) send(conn, event string, payload any) {
	r.engine.notify(conn, Message{Type: event, Payload: payload})
}

func (r *Room) broadcast(event string, payload any) {
	for _, p := range r.participants {
		if p.connected {
			r.send(p.conn, event, payload)
		}
	}
}

func (r *Room) broadcastExcept(conn, event string, payload any) {
	for _, p := range r.participants {
		if p.connected && p.conn != conn {
			r.send(p.conn, event, payload)
		}
	}
}

// enter handles join_room. The first entry starts the game; later entries
// get the state of the round in progress.
func (r *Room) enter(conn string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrRoomNotFound
	}
	i := r.indexOf(conn)
	if i < 0 {
		return ErrRoomFull
	}
	p := r.participants[i]
	p.connected = true
	r.broadcastExcept(conn, EventPlayerJoined, PlayerPayload{RoomCode: r.code, Player: p.name})

	switch r.state {
	case StateStarting:
		r.startFirstRound()
	case StatePlaying:
		r.send(conn, r.startEvent(), r.roundStart(i))
	}
	return nil
}

// leave marks a participant as gone. The room is destroyed once nobody is
// connected.
func (r *Room) leave(conn string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	i := r.indexOf(conn)
	if i < 0 || !r.participants[i].connected {
		return
	}
	p := r.participants[i]
	p.connected = false
	r.broadcast(EventPlayerDisconnected, PlayerPayload{RoomCode: r.code, Player: p.name})
	r.log.Info().Str("player", p.name).Msg("player disconnected")

	if r.connectedCount() == 0 {
		r.destroy()
	}
}

// destroy cancels every timer and removes the room from the engine. Callers
// hold r.mu.
func (r *Room) destroy() {
	if r.closed {
		return
	}
	r.closed = true
	r.generation++
	r.cancelTimers()

	conns := make([]string, 0, len(r.participants))
	for _, p := range r.participants {
		conns = append(conns, p.conn)
	}
	r.engine.removeRoom(r.code, conns)
	r.log.Info().Msg("room destroyed")
}

// shutdown ends the game without recording it.
func (r *Room) shutdown(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return
	}
	r.broadcast(EventGameEnded, r.gameEnded(reason))
	r.destroy()
}

func (r *Room) gameEnded(reason string) GameEnded {
	return GameEnded{
		RoomCode:     r.code,
		FinalScores:  maps.Clone(r.scores),
		WordsPlayed:  r.wordsPlayed,
		WordsGuessed: r.wordsGuessed,
		Reason:       reason,
	}
}
