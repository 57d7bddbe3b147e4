package match

// Outbound event types.
const (
	EventIdentified          = "identified"
	EventMatchmakingJoined   = "matchmaking_joined"
	EventQueueUpdate         = "queue_update"
	EventMatchmakingLeft     = "matchmaking_left"
	EventPrivateRoomCreated  = "private_room_created"
	EventWaitingForOpponent  = "waiting_for_opponent"
	EventPrivateRoomLeft     = "private_room_left"
	EventMatchFound          = "match_found"
	EventRoomError           = "room_error"
	EventTrainingStart       = "training_start"
	EventGameStart           = "game_start"
	EventTimerUpdate         = "timer_update"
	EventClueGiven           = "clue_given"
	EventClueError           = "clue_error"
	EventGuessWrong          = "guess_wrong"
	EventGuessWrongBroadcast = "guess_wrong_broadcast"
	EventGuessCorrect        = "guess_correct"
	EventRoundEnd            = "round_end"
	EventNextRound           = "next_round"
	EventGameEnded           = "game_ended"
	EventPlayerJoined        = "player_joined"
	EventPlayerDisconnected  = "player_disconnected"
)

const (
	RoleGuesser = "guesser"
	RoleGiver   = "giver"
)

// BotName is shown as the giver of training rooms.
const BotName = "Bot"

type Message struct {
	Type    string `json:"type"`
	Payload any    `json:"payload,omitempty"`
}

type IdentifiedPayload struct {
	Name         string `json:"name"`
	IsAdmin      bool   `json:"isAdmin"`
	TotalScore   int    `json:"totalScore"`
	GamesPlayed  int    `json:"gamesPlayed"`
	WordsGuessed int    `json:"wordsGuessed"`
}

type QueuePayload struct {
	QueueSize int `json:"queueSize"`
}

type TicketPayload struct {
	Code string `json:"code"`
}

type MatchFoundPayload struct {
	RoomCode string `json:"roomCode"`
	Kind     Kind   `json:"kind"`
	Opponent string `json:"opponent"`
	MaxWords int    `json:"maxWords"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// RoundStart is sent for training_start, game_start and next_round. Word,
// Definition and ForbiddenWords are only filled in for givers.
type RoundStart struct {
	RoomCode       string         `json:"roomCode"`
	Kind           Kind           `json:"kind"`
	Role           string         `json:"role"`
	Guesser        string         `json:"guesser"`
	Giver          string         `json:"giver"`
	Word           string         `json:"word,omitempty"`
	Definition     string         `json:"definition,omitempty"`
	ForbiddenWords []string       `json:"forbiddenWords,omitempty"`
	Difficulty     string         `json:"difficulty"`
	Round          int            `json:"round"`
	MaxWords       int            `json:"maxWords"`
	TurnsLeft      int            `json:"turnsLeft"`
	TimeLeft       int            `json:"timeLeft"`
	Clues          []string       `json:"clues"`
	Scores         map[string]int `json:"scores"`
}

type TimerPayload struct {
	RoomCode string `json:"roomCode"`
	TimeLeft int    `json:"timeLeft"`
}

type CluePayload struct {
	RoomCode  string   `json:"roomCode"`
	Clue      string   `json:"clue"`
	From      string   `json:"from"`
	TurnsLeft int      `json:"turnsLeft"`
	Clues     []string `json:"clues"`
}

type ClueErrorPayload struct {
	RoomCode string `json:"roomCode"`
	Reason   string `json:"reason"`
}

type GuessPayload struct {
	RoomCode string `json:"roomCode"`
	Player   string `json:"player"`
	Guess    string `json:"guess"`
}

type RoundEnd struct {
	RoomCode   string         `json:"roomCode"`
	Success    bool           `json:"success"`
	Reason     string         `json:"reason"`
	Word       string         `json:"word"`
	Definition string         `json:"definition"`
	TimeUsed   int            `json:"timeUsed"`
	CluesUsed  int            `json:"cluesUsed"`
	Points     int            `json:"points"`
	Scores     map[string]int `json:"scores"`
	Round      int            `json:"round"`
	IsLastWord bool           `json:"isLastWord"`
}

type GameEnded struct {
	RoomCode     string         `json:"roomCode"`
	FinalScores  map[string]int `json:"finalScores"`
	WordsPlayed  int            `json:"wordsPlayed"`
	WordsGuessed int            `json:"wordsGuessed"`
	Reason       string         `json:"reason,omitempty"`
}

type PlayerPayload struct {
	RoomCode string `json:"roomCode"`
	Player   string `json:"player"`
}
