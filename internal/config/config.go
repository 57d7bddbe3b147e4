package config

import (
	"clueword-server/internal/match"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const EnvPrefix = "CLUEWORD"

type Config struct {
	Bind        string
	Port        int
	DatabaseURL string
	LogLevel    string
	LogFormat   string
	AllowGuests bool

	PairingDelay     time.Duration
	BotClueDelay     time.Duration
	NextRoundDelay   time.Duration
	GameEndDelay     time.Duration
	WordsPerMatch    int
	MaxTrainingWords int
	TicketTTL        time.Duration

	IdleTimeout time.Duration
	WordRefresh time.Duration
	RateLimit   float64
	RateBurst   int
}

func (c *Config) Validate() error {
	if c.Port < 1 || c.Port > 65535 {
		return fmt.Errorf("invalid port (must be between 1-65535 inclusive): %d", c.Port)
	}
	switch c.LogFormat {
	case "console", "json":
	default:
		return fmt.Errorf("invalid log format %q (must be console or json)", c.LogFormat)
	}

	delays := map[string]time.Duration{
		"pairing-delay":    c.PairingDelay,
		"bot-clue-delay":   c.BotClueDelay,
		"next-round-delay": c.NextRoundDelay,
		"game-end-delay":   c.GameEndDelay,
		"ticket-ttl":       c.TicketTTL,
		"idle-timeout":     c.IdleTimeout,
		"word-refresh":     c.WordRefresh,
	}
	for name, d := range delays {
		if d <= 0 {
			return fmt.Errorf("--%s must be positive: %s", name, d)
		}
	}

	if c.WordsPerMatch < 1 || c.MaxTrainingWords < 1 {
		return errors.New("--words-per-match and --max-training-words must be at least 1")
	}
	if c.RateLimit <= 0 || c.RateBurst < 1 {
		return errors.New("--rate-limit must be positive and --rate-burst at least 1")
	}
	return nil
}

func (c *Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Bind, c.Port)
}

// Settings converts the game timings for the engine.
func (c *Config) Settings() match.Settings {
	s := match.DefaultSettings()
	s.PairingDelay = c.PairingDelay
	s.BotClueDelay = c.BotClueDelay
	s.NextRoundDelay = c.NextRoundDelay
	s.GameEndDelay = c.GameEndDelay
	s.TicketTTL = c.TicketTTL
	s.JanitorInterval = min(s.JanitorInterval, c.TicketTTL)
	s.WordsPerMatch = c.WordsPerMatch
	s.MaxTrainingWords = c.MaxTrainingWords
	return s
}

// Bind registers every flag on cmd. Flags left unset take their value from
// CLUEWORD_* environment variables, which may come from a .env file.
func Bind(cmd *cobra.Command, cfg *Config) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	fs := cmd.Flags()

	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.Bind, "bind", "b", "0.0.0.0", "address to bind to (env: CLUEWORD_BIND)")
	fs.IntVarP(&cfg.Port, "port", "p", 8080, "port to listen on (env: CLUEWORD_PORT)")
	fs.StringVar(&cfg.DatabaseURL, "database-url", "", "postgres connection string, empty keeps everything in memory (env: CLUEWORD_DATABASE_URL)")
	fs.StringVar(&cfg.LogLevel, "log-level", "info", "debug, info, warn or error (env: CLUEWORD_LOG_LEVEL)")
	fs.StringVar(&cfg.LogFormat, "log-format", "console", "console or json (env: CLUEWORD_LOG_FORMAT)")
	fs.BoolVar(&cfg.AllowGuests, "allow-guests", true, "accept names unknown to the database (env: CLUEWORD_ALLOW_GUESTS)")
	fs.DurationVar(&cfg.PairingDelay, "pairing-delay", time.Second, "wait before pairing queued players (env: CLUEWORD_PAIRING_DELAY)")
	fs.DurationVar(&cfg.BotClueDelay, "bot-clue-delay", 2*time.Second, "wait before the training bot gives a clue (env: CLUEWORD_BOT_CLUE_DELAY)")
	fs.DurationVar(&cfg.NextRoundDelay, "next-round-delay", 5*time.Second, "pause between rounds (env: CLUEWORD_NEXT_ROUND_DELAY)")
	fs.DurationVar(&cfg.GameEndDelay, "game-end-delay", 5*time.Second, "time results stay on screen before a room closes (env: CLUEWORD_GAME_END_DELAY)")
	fs.IntVar(&cfg.WordsPerMatch, "words-per-match", 5, "words played in a two-player match (env: CLUEWORD_WORDS_PER_MATCH)")
	fs.IntVar(&cfg.MaxTrainingWords, "max-training-words", 20, "upper bound for training length (env: CLUEWORD_MAX_TRAINING_WORDS)")
	fs.DurationVar(&cfg.TicketTTL, "ticket-ttl", 10*time.Minute, "lifetime of an unjoined private room (env: CLUEWORD_TICKET_TTL)")
	fs.DurationVar(&cfg.IdleTimeout, "idle-timeout", 10*time.Minute, "close connections idle this long (env: CLUEWORD_IDLE_TIMEOUT)")
	fs.DurationVar(&cfg.WordRefresh, "word-refresh", time.Minute, "vocabulary reload interval in database mode (env: CLUEWORD_WORD_REFRESH)")
	fs.Float64Var(&cfg.RateLimit, "rate-limit", 10, "messages per second allowed per connection (env: CLUEWORD_RATE_LIMIT)")
	fs.IntVar(&cfg.RateBurst, "rate-burst", 20, "message burst allowed per connection (env: CLUEWORD_RATE_BURST)")

	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
		_ = v.BindEnv(f.Name)
		if !f.Changed && v.IsSet(f.Name) {
			_ = fs.Set(f.Name, fmt.Sprintf("%v", v.Get(f.Name)))
		}
	})
}
