package storage

import (
	"clueword-server/internal/clueword"
	"context"
	"time"

	"github.com/rs/zerolog"
)

type VocabularySource interface {
	LoadVocabulary(ctx context.Context) (clueword.Vocabulary, error)
}

// RefreshVocabulary loads the vocabulary and swaps it into bank and dict.
// An empty source leaves the current words in place.
func RefreshVocabulary(ctx context.Context, src VocabularySource, bank *clueword.WordBank, dict *clueword.Dictionary) (int, error) {
	v, err := src.LoadVocabulary(ctx)
	if err != nil {
		return 0, err
	}
	if len(v.Entries) > 0 {
		bank.Replace(v.Entries)
	}
	if len(v.Dictionary) > 0 {
		dict.Replace(v.Dictionary)
	}
	return len(v.Entries), nil
}

// WatchVocabulary refreshes every interval until ctx is cancelled.
func WatchVocabulary(ctx context.Context, src VocabularySource, interval time.Duration, bank *clueword.WordBank, dict *clueword.Dictionary, log zerolog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := RefreshVocabulary(ctx, src, bank, dict)
			if err != nil {
				log.Error().Err(err).Msg("vocabulary refresh failed")
				continue
			}
			log.Debug().Int("words", n).Msg("vocabulary refreshed")
		}
	}
}
