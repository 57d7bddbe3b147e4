package match

import (
	"clueword-server/internal/clueword"
	"maps"
	"math"
	"time"
)

func (r *Room) startEvent() string {
	if r.kind == KindTraining {
		return EventTrainingStart
	}
	return EventGameStart
}

func (r *Room) startFirstRound() {
	r.wordsPlayed = 1
	r.startRound(r.startEvent())
}

// startRound draws a word, resets the round counters, arms the timer and
// tells every participant its role.
func (r *Room) startRound(event string) {
	entry, ok := r.engine.words.Random(r.difficulty)
	if !ok {
		r.log.Error().Str("difficulty", string(r.difficulty)).Msg("no word available")
		code, msg := SplitError(ErrNoWords)
		r.broadcast(EventRoomError, ErrorPayload{Code: code, Message: msg})
		r.destroy()
		return
	}

	r.word = entry
	r.clues = nil
	r.turnsLeft = turnsPerRound
	r.timeLeft = roundSeconds
	r.botIndex = 0
	r.startedAt = r.engine.clock.Now()
	r.state = StatePlaying
	r.armTick()

	for i, p := range r.participants {
		if p.connected {
			r.send(p.conn, event, r.roundStart(i))
		}
	}

	r.log.Debug().Int("round", r.wordsPlayed).Str("word", entry.Word).Msg("round started")

	if r.kind == KindTraining {
		r.scheduleBot()
	}
}

func (r *Room) roundStart(i int) RoundStart {
	rs := RoundStart{
		RoomCode:   r.code,
		Kind:       r.kind,
		Role:       RoleGiver,
		Guesser:    r.guesserName(),
		Giver:      r.giverName(),
		Difficulty: string(r.word.Difficulty),
		Round:      r.wordsPlayed,
		MaxWords:   r.maxWords,
		TurnsLeft:  r.turnsLeft,
		TimeLeft:   r.timeLeft,
		Clues:      append([]string{}, r.clues...),
		Scores:     maps.Clone(r.scores),
	}
	if i == r.guesser {
		rs.Role = RoleGuesser
		return rs
	}
	rs.Word = r.word.Word
	rs.Definition = r.word.Definition
	rs.ForbiddenWords = append([]string{}, r.word.ForbiddenWords...)
	return rs
}

func (r *Room) armTick() {
	r.tick = r.after(time.Second, r.onTick)
}

func (r *Room) onTick() {
	if r.state != StatePlaying {
		return
	}

	r.timeLeft--
	if r.timeLeft < 0 {
		r.timeLeft = 0
	}
	r.broadcast(EventTimerUpdate, TimerPayload{RoomCode: r.code, TimeLeft: r.timeLeft})

	if r.timeLeft == 0 {
		r.endRound(false, ReasonTimeExpired)
		return
	}
	r.armTick()
}

// endRound is the single exit from PLAYING. Only the first cause to arrive
// takes effect.
func (r *Room) endRound(success bool, reason string) {
	if r.state != StatePlaying {
		return
	}
	r.cancelTimers()
	r.generation++
	r.state = StateRoundEnding

	timeUsed := int(math.Round(r.engine.clock.Now().Sub(r.startedAt).Seconds()))
	points := 0
	if success {
		points = clueword.Score(timeUsed, len(r.clues), r.word.Difficulty)
		for _, p := range r.participants {
			r.scores[p.name] += points
		}
		r.wordsGuessed++
	}

	isLast := r.wordsPlayed >= r.maxWords
	r.broadcast(EventRoundEnd, RoundEnd{
		RoomCode:   r.code,
		Success:    success,
		Reason:     reason,
		Word:       r.word.Word,
		Definition: r.word.Definition,
		TimeUsed:   timeUsed,
		CluesUsed:  len(r.clues),
		Points:     points,
		Scores:     maps.Clone(r.scores),
		Round:      r.wordsPlayed,
		IsLastWord: isLast,
	})

	r.log.Debug().
		Bool("success", success).
		Str("reason", reason).
		Int("points", points).
		Msg("round ended")

	if isLast {
		r.state = StateGameEnded
		r.broadcast(EventGameEnded, r.gameEnded(""))
		r.schedule(r.engine.settings.GameEndDelay, r.finish)
		return
	}
	r.schedule(r.engine.settings.NextRoundDelay, r.nextRound)
}

func (r *Room) nextRound() {
	if r.state != StateRoundEnding {
		return
	}
	r.wordsPlayed++
	if r.kind != KindTraining && len(r.participants) == 2 {
		r.guesser = 1 - r.guesser
	}
	r.startRound(EventNextRound)
}

// finish records the result and removes the room.
func (r *Room) finish() {
	r.engine.record(r.result())
	r.destroy()
}

func (r *Room) result() GameResult {
	difficulty := "mixed"
	if r.kind == KindTraining {
		difficulty = string(r.difficulty)
	}

	players := make([]string, 0, len(r.participants))
	for _, p := range r.participants {
		players = append(players, p.name)
	}

	now := r.engine.clock.Now()
	return GameResult{
		RoomCode:     r.code,
		Kind:         r.kind,
		Players:      players,
		Scores:       maps.Clone(r.scores),
		Difficulty:   difficulty,
		WordsPlayed:  r.wordsPlayed,
		WordsGuessed: r.wordsGuessed,
		Duration:     now.Sub(r.createdAt),
		EndedAt:      now,
	}
}
