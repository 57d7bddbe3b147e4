package match

import (
	"clueword-server/internal/clueword"
	"errors"
	"strings"
)

// Errors use the "CODE: message" form so the code can be sent to clients.
var (
	ErrRoomNotFound      = errors.New("ROOM_NOT_FOUND: Room not found")
	ErrRoomFull          = errors.New("ROOM_FULL: Room already has two players")
	ErrMalformedInput    = errors.New("MALFORMED_INPUT: Expected a single word")
	ErrNotInLobby        = errors.New("NOT_IN_LOBBY: Leave your current game first")
	ErrUnknownPlayer     = errors.New("UNKNOWN_PLAYER: Identify before playing")
	ErrIdentityNotFound  = errors.New("IDENTITY_NOT_FOUND: No player with that name")
	ErrInvalidName       = errors.New("INVALID_NAME: Name must be 1-20 characters")
	ErrNameInUse         = errors.New("NAME_IN_USE: Player is already connected")
	ErrUnknownDifficulty = errors.New("UNKNOWN_DIFFICULTY: Difficulty must be easy, medium or hard")
	ErrNoWords           = errors.New("NO_WORDS: No word available")
	ErrNotYourRole       = errors.New("NOT_YOUR_ROLE: That action belongs to the other player")
	ErrTicketExpired     = errors.New("TICKET_EXPIRED: Private room expired")
	ErrShuttingDown      = errors.New("SHUTTING_DOWN: Server is shutting down")
)

// SplitError separates an engine error into its code and message.
func SplitError(err error) (code, message string) {
	var clueErr *clueword.ClueError
	if errors.As(err, &clueErr) {
		return "INVALID_CLUE", clueErr.Reason
	}

	code, message, found := strings.Cut(err.Error(), ": ")
	if !found {
		return "ERROR", err.Error()
	}
	return code, message
}
