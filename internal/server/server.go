package server

import (
	"clueword-server/internal/config"
	"clueword-server/internal/match"
	"context"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// HealthChecker is implemented by the database in database mode.
type HealthChecker interface {
	Health(ctx context.Context) error
}

type Server struct {
	cfg         *config.Config
	engine      *match.Engine
	connections *ConnectionManager
	limiter     *RateLimiter
	health      *ConnectionHealth
	db          HealthChecker
	log         zerolog.Logger
}

// NewServer wires the transport to an engine whose notifier is connections.
// db may be nil when running in memory.
func NewServer(cfg *config.Config, engine *match.Engine, connections *ConnectionManager, db HealthChecker, log zerolog.Logger) *Server {
	return &Server{
		cfg:         cfg,
		engine:      engine,
		connections: connections,
		limiter:     NewRateLimiter(cfg.RateLimit, cfg.RateBurst),
		health:      NewConnectionHealth(),
		db:          db,
		log:         log.With().Str("component", "server").Logger(),
	}
}

func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.cfg.Addr(),
		Handler:           s.RegisterRoutes(),
		IdleTimeout:       time.Minute,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run reaps idle connections until ctx is cancelled.
func (s *Server) Run(ctx context.Context) {
	interval := min(s.cfg.IdleTimeout/2, 30*time.Second)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.reapIdle(s.cfg.IdleTimeout)
		}
	}
}

// reapIdle closes connections silent for longer than timeout. Their read
// loops then run the normal disconnect path.
func (s *Server) reapIdle(timeout time.Duration) int {
	inactive := s.health.GetInactiveConnections(timeout)
	for _, id := range inactive {
		s.log.Info().Str("conn", id).Msg("closing idle connection")
		s.connections.Kick(id, "idle timeout")
	}
	return len(inactive)
}

// Close disconnects every client.
func (s *Server) Close() {
	s.connections.CloseAll("server shutting down")
}
