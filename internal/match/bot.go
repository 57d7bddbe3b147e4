package match

func (r *Room) scheduleBot() {
	r.schedule(r.engine.settings.BotClueDelay, r.advanceBot)
}

// advanceBot plays the next scripted clue of a training round. Bot clues
// skip validation. With no clue or turn left the round ends.
func (r *Room) advanceBot() {
	if r.state != StatePlaying {
		return
	}
	if r.botIndex >= len(r.word.BotClues) || r.turnsLeft == 0 {
		r.endRound(false, ReasonOutOfClues)
		return
	}

	clue := r.word.BotClues[r.botIndex]
	r.botIndex++
	r.acceptClue(clue, BotName)
}
