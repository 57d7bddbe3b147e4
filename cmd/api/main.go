package main

import (
	"clueword-server/internal/clueword"
	"clueword-server/internal/config"
	"clueword-server/internal/logger"
	"clueword-server/internal/match"
	"clueword-server/internal/server"
	"clueword-server/internal/storage"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

const (
	releaseVersion  = "0.1.0"
	shutdownTimeout = 30 * time.Second
)

func newCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "clueword-server",
		Short:         "Matchmaking and game rooms for the clueword party game.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       releaseVersion,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.Validate(); err != nil {
				return err
			}
			log, err := logger.New(cfg.LogLevel, cfg.LogFormat)
			if err != nil {
				return fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
			}
			return run(cmd.Context(), cfg, log)
		},
	}
	config.Bind(cmd, cfg)
	return cmd
}

// backend is the persistence chosen at startup.
type backend struct {
	identities match.IdentityLookup
	history    match.HistorySink
	health     server.HealthChecker
	close      func()
}

// openBackend connects to postgres when a database URL is configured and
// keeps everything in memory otherwise. The vocabulary is loaded into bank
// and dict and refreshed from the database until ctx ends.
func openBackend(ctx context.Context, cfg *config.Config, vocab clueword.Vocabulary, bank *clueword.WordBank, dict *clueword.Dictionary, log zerolog.Logger) (backend, error) {
	if cfg.DatabaseURL == "" {
		log.Warn().Msg("no database configured, results are kept in memory")
		mem := storage.NewMemoryStore(log)
		return backend{
			identities: storage.Guests{Store: mem},
			history:    mem,
			close:      func() {},
		}, nil
	}

	if err := storage.Migrate(cfg.DatabaseURL); err != nil {
		return backend{}, err
	}
	db, err := storage.NewPostgres(ctx, cfg.DatabaseURL)
	if err != nil {
		return backend{}, err
	}

	stored, err := db.LoadVocabulary(ctx)
	if err != nil {
		db.Close()
		return backend{}, err
	}
	if len(stored.Entries) == 0 {
		log.Info().Int("entries", len(vocab.Entries)).Msg("seeding vocabulary")
		if err := db.ImportVocabulary(ctx, vocab); err != nil {
			db.Close()
			return backend{}, err
		}
	}
	n, err := storage.RefreshVocabulary(ctx, db, bank, dict)
	if err != nil {
		db.Close()
		return backend{}, err
	}
	log.Info().Int("entries", n).Msg("vocabulary loaded")
	go storage.WatchVocabulary(ctx, db, cfg.WordRefresh, bank, dict, log)

	var identities match.IdentityLookup = db
	if cfg.AllowGuests {
		identities = storage.Guests{Store: db}
	}
	return backend{
		identities: identities,
		history:    db,
		health:     db,
		close:      db.Close,
	}, nil
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	vocab, err := clueword.DefaultVocabulary()
	if err != nil {
		return err
	}
	bank := clueword.NewWordBank(vocab.Entries)
	dict := clueword.NewDictionary(vocab.Dictionary...)

	store, err := openBackend(ctx, cfg, vocab, bank, dict, log)
	if err != nil {
		return err
	}
	defer store.close()

	connections := server.NewConnectionManager(log)
	engine := match.NewEngine(cfg.Settings(), match.Deps{
		Words:      bank,
		Allowed:    dict,
		Identities: store.identities,
		History:    store.history,
		Notifier:   connections,
		Logger:     log,
	})
	engine.Start()

	srv := server.NewServer(cfg, engine, connections, store.health, log)
	httpServer := srv.HTTPServer()
	go srv.Run(ctx)

	done := make(chan struct{})
	go gracefulShutdown(ctx, stop, srv, engine, httpServer, log, done)

	log.Info().Str("addr", httpServer.Addr).Str("version", releaseVersion).Msg("listening")
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	<-done
	log.Info().Msg("graceful shutdown complete")
	return nil
}

func gracefulShutdown(ctx context.Context, stop context.CancelFunc, srv *server.Server, engine *match.Engine, httpServer *http.Server, log zerolog.Logger, done chan<- struct{}) {
	defer close(done)

	<-ctx.Done()
	log.Info().Msg("shutdown signal received, press Ctrl+C again to force")
	stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Players get game_ended before their sockets close.
	if err := engine.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("engine shutdown incomplete")
	}
	srv.Close()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http server forced to shutdown")
	}
}

func main() {
	cfg := &config.Config{}
	cobra.CheckErr(newCmd(cfg).Execute())
}
