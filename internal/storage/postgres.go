package storage

import (
	"clueword-server/internal/clueword"
	"clueword-server/internal/match"
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres stores players, game history and the vocabulary.
type Postgres struct {
	pool *pgxpool.Pool
}

func NewPostgres(ctx context.Context, url string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to create pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to reach database: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

func (p *Postgres) Health(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

func (p *Postgres) Close() {
	p.pool.Close()
}

func (p *Postgres) LookupIdentity(ctx context.Context, displayName string) (match.Identity, error) {
	id := match.Identity{}
	row := p.pool.QueryRow(ctx, `
		SELECT display_name, is_admin, total_score, games_played, words_guessed
		FROM users WHERE display_name = $1`, displayName)

	err := row.Scan(&id.DisplayName, &id.IsAdmin, &id.TotalScore, &id.GamesPlayed, &id.WordsGuessed)
	if err != nil {
		switch {
		case errors.Is(err, pgx.ErrNoRows):
			return match.Identity{}, match.ErrIdentityNotFound
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return match.Identity{}, err
		default:
			return match.Identity{}, fmt.Errorf("failed to look up %s: %w", displayName, err)
		}
	}
	return id, nil
}

// RecordGameResult stores the result and adds it to each player's totals in
// one transaction. Players without a row get one.
func (p *Postgres) RecordGameResult(ctx context.Context, result match.GameResult) error {
	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO game_results
			(id, room_code, kind, players, scores, difficulty, words_played, words_guessed, duration_seconds, ended_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		uuid.New(),
		result.RoomCode,
		string(result.Kind),
		result.Players,
		result.Scores,
		result.Difficulty,
		result.WordsPlayed,
		result.WordsGuessed,
		int(math.Round(result.Duration.Seconds())),
		result.EndedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert result of %s: %w", result.RoomCode, err)
	}

	batch := &pgx.Batch{}
	for _, name := range result.Players {
		batch.Queue(`
			INSERT INTO users (display_name, total_score, games_played, words_guessed)
			VALUES ($1, $2, 1, $3)
			ON CONFLICT (display_name) DO UPDATE SET
				total_score   = users.total_score + EXCLUDED.total_score,
				games_played  = users.games_played + 1,
				words_guessed = users.words_guessed + EXCLUDED.words_guessed`,
			name, result.Scores[name], result.WordsGuessed)
	}
	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to update player totals: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit result of %s: %w", result.RoomCode, err)
	}
	return nil
}

// LoadVocabulary reads every word entry and the allowed clue dictionary.
func (p *Postgres) LoadVocabulary(ctx context.Context) (clueword.Vocabulary, error) {
	rows, err := p.pool.Query(ctx, `
		SELECT word, definition, bot_clues, forbidden_words, difficulty FROM words`)
	if err != nil {
		return clueword.Vocabulary{}, fmt.Errorf("failed to query words: %w", err)
	}
	entries, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (clueword.Entry, error) {
		var e clueword.Entry
		var difficulty string
		err := row.Scan(&e.Word, &e.Definition, &e.BotClues, &e.ForbiddenWords, &difficulty)
		e.Difficulty = clueword.Difficulty(difficulty)
		return e, err
	})
	if err != nil {
		return clueword.Vocabulary{}, fmt.Errorf("failed to read words: %w", err)
	}

	rows, err = p.pool.Query(ctx, `SELECT word FROM allowed_words`)
	if err != nil {
		return clueword.Vocabulary{}, fmt.Errorf("failed to query allowed words: %w", err)
	}
	dictionary, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return clueword.Vocabulary{}, fmt.Errorf("failed to read allowed words: %w", err)
	}

	return clueword.Vocabulary{Entries: entries, Dictionary: dictionary}, nil
}

// ImportVocabulary upserts entries and allowed words. It seeds an empty
// database with the built-in vocabulary.
func (p *Postgres) ImportVocabulary(ctx context.Context, v clueword.Vocabulary) error {
	batch := &pgx.Batch{}
	for _, e := range v.Entries {
		batch.Queue(`
			INSERT INTO words (word, definition, bot_clues, forbidden_words, difficulty)
			VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (word) DO UPDATE SET
				definition      = EXCLUDED.definition,
				bot_clues       = EXCLUDED.bot_clues,
				forbidden_words = EXCLUDED.forbidden_words,
				difficulty      = EXCLUDED.difficulty`,
			strings.ToUpper(strings.TrimSpace(e.Word)), e.Definition, e.BotClues, e.ForbiddenWords, string(e.Difficulty))
	}
	for _, w := range v.Dictionary {
		batch.Queue(`INSERT INTO allowed_words (word) VALUES ($1) ON CONFLICT DO NOTHING`, clueword.Normalize(w))
	}

	if err := p.pool.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to import vocabulary: %w", err)
	}
	return nil
}
