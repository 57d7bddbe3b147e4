package match

import (
	"clueword-server/internal/clueword"
	"strings"
	"unicode"
)

// giveClue handles a clue from a human giver. A rejected clue leaves the
// round untouched.
func (r *Room) giveClue(conn, clue string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.state != StatePlaying {
		return nil
	}
	i := r.indexOf(conn)
	if i < 0 {
		return ErrRoomNotFound
	}
	if r.kind == KindTraining || i == r.guesser {
		return ErrNotYourRole
	}
	if strings.TrimSpace(clue) == "" {
		return ErrMalformedInput
	}

	if err := r.engine.validator.Validate(clue, r.word.Word, r.word.ForbiddenWords); err != nil {
		return err
	}

	r.acceptClue(clueword.Normalize(clue), r.participants[i].name)
	if r.turnsLeft == 0 {
		r.endRound(false, ReasonOutOfClues)
	}
	return nil
}

func (r *Room) acceptClue(clue, from string) {
	r.clues = append(r.clues, clue)
	r.turnsLeft--
	r.broadcast(EventClueGiven, CluePayload{
		RoomCode:  r.code,
		Clue:      clue,
		From:      from,
		TurnsLeft: r.turnsLeft,
		Clues:     append([]string{}, r.clues...),
	})
}

// makeGuess handles a guess from the guesser.
func (r *Room) makeGuess(conn, guess string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed || r.state != StatePlaying {
		return nil
	}
	i := r.indexOf(conn)
	if i < 0 {
		return ErrRoomNotFound
	}
	if i != r.guesser {
		return ErrNotYourRole
	}

	g := clueword.Normalize(guess)
	if g == "" || strings.IndexFunc(g, unicode.IsSpace) >= 0 {
		return ErrMalformedInput
	}

	payload := GuessPayload{RoomCode: r.code, Player: r.participants[i].name, Guess: g}
	if g == clueword.Normalize(r.word.Word) {
		r.broadcast(EventGuessCorrect, payload)
		r.endRound(true, ReasonGuessed)
		return nil
	}

	r.send(conn, EventGuessWrong, payload)
	r.broadcastExcept(conn, EventGuessWrongBroadcast, payload)
	if r.kind == KindTraining {
		r.scheduleBot()
	}
	return nil
}
