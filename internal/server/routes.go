package server

import (
	"clueword-server/internal/match"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

const qrSize = 256

func (s *Server) RegisterRoutes() http.Handler {
	router := httprouter.New()

	router.GET("/", s.indexHandler)
	router.GET("/health", s.healthHandler)
	router.GET("/stats", s.statsHandler)
	router.GET("/websocket", s.websocketHandler)
	router.GET("/rooms/:code/qr", s.qrHandler)

	return corsMiddleware(router)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		http.Error(w, "Failed to marshal response", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(data); err != nil {
		s.log.Debug().Err(err).Msg("failed to write response")
	}
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	s.writeJSON(w, http.StatusOK, map[string]string{"message": "clueword server"})
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	if s.db == nil {
		s.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Database: "memory"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := s.db.Health(ctx); err != nil {
		s.writeJSON(w, http.StatusServiceUnavailable, HealthResponse{
			Status:   "unavailable",
			Database: "postgres",
			Error:    err.Error(),
		})
		return
	}
	s.writeJSON(w, http.StatusOK, HealthResponse{Status: "ok", Database: "postgres"})
}

func (s *Server) statsHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	stats := s.engine.Stats()
	s.writeJSON(w, http.StatusOK, StatsResponse{
		Connections: s.connections.Count(),
		Sessions:    stats.Sessions,
		Queued:      stats.Queued,
		Tickets:     stats.Tickets,
		Rooms:       stats.Rooms,
	})
}

// qrHandler renders a PNG QR code of the invite link for a room code.
func (s *Server) qrHandler(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	code := match.NormalizeRoomCode(ps.ByName("code"))
	if err := match.ValidateRoomCode(code); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !s.engine.CodeInUse(code) {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
		scheme = proto
	}
	link := fmt.Sprintf("%s://%s/?room=%s", scheme, r.Host, code)

	png, err := qrcode.Encode(link, qrcode.Medium, qrSize)
	if err != nil {
		http.Error(w, "qr generation failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}

func (s *Server) websocketHandler(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	socket, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.log.Warn().Err(err).Msg("failed to open websocket")
		return
	}
	defer socket.Close(websocket.StatusNormalClosure, "")

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	connectionID := uuid.New().String()
	client := newClient(connectionID, socket)
	log := s.log.With().Str("conn", connectionID).Logger()

	s.connections.AddConnection(client)
	s.health.UpdateActivity(connectionID)
	go client.writePump(ctx)
	log.Info().Msg("connection opened")

	defer func() {
		s.connections.RemoveConnection(connectionID)
		s.limiter.RemoveConnection(connectionID)
		s.health.RemoveConnection(connectionID)
		s.engine.Disconnect(connectionID)
		log.Info().Msg("connection closed")
	}()

	for {
		msgType, data, err := socket.Read(ctx)
		if err != nil {
			log.Debug().Err(err).Msg("read ended")
			return
		}
		s.health.UpdateActivity(connectionID)

		if msgType != websocket.MessageText {
			continue
		}
		if !s.limiter.Allow(connectionID) {
			s.sendError(connectionID, "RATE_LIMITED", "Too many messages")
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.sendError(connectionID, "INVALID_JSON", "Invalid JSON")
			continue
		}
		if err := ValidateMessageType(msg.Type); err != nil {
			code, message := match.SplitError(err)
			s.sendError(connectionID, code, message)
			continue
		}

		log.Debug().Str("type", msg.Type).Msg("message received")
		if err := s.handleMessage(ctx, connectionID, msg); err != nil {
			log.Debug().Err(err).Str("type", msg.Type).Msg("action rejected")
		}
	}
}

// handleMessage routes one client message to the engine. The engine reports
// rejections to the client itself.
func (s *Server) handleMessage(ctx context.Context, connID string, msg ClientMessage) error {
	switch msg.Type {
	case "ping":
		s.connections.Send(connID, match.Message{Type: "pong", Payload: struct{}{}})
		return nil

	case "identify":
		var req IdentifyRequest
		if err := s.decode(connID, msg, &req); err != nil {
			return err
		}
		_, err := s.engine.Associate(ctx, connID, req.Name)
		return err

	case "join_matchmaking":
		return s.engine.JoinMatchmaking(connID)

	case "leave_matchmaking":
		return s.engine.LeaveMatchmaking(connID)

	case "create_private_room":
		_, err := s.engine.CreatePrivateRoom(connID)
		return err

	case "join_private_room":
		var req JoinPrivateRoomRequest
		if err := s.decode(connID, msg, &req); err != nil {
			return err
		}
		return s.engine.JoinPrivateRoom(connID, req.Code)

	case "leave_private_room":
		return s.engine.LeavePrivateRoom(connID)

	case "start_training":
		var req StartTrainingRequest
		if len(msg.Payload) > 0 {
			if err := s.decode(connID, msg, &req); err != nil {
				return err
			}
		}
		_, err := s.engine.StartTraining(connID, req.Difficulty, req.MaxWords)
		return err

	case "join_room":
		var req JoinRoomRequest
		if err := s.decode(connID, msg, &req); err != nil {
			return err
		}
		return s.engine.JoinRoom(connID, req.RoomCode)

	case "give_clue":
		var req GiveClueRequest
		if err := s.decode(connID, msg, &req); err != nil {
			return err
		}
		return s.engine.GiveClue(connID, req.RoomCode, req.Clue)

	case "make_guess":
		var req MakeGuessRequest
		if err := s.decode(connID, msg, &req); err != nil {
			return err
		}
		return s.engine.MakeGuess(connID, req.RoomCode, req.Guess)
	}
	return nil
}

func (s *Server) decode(connID string, msg ClientMessage, v any) error {
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		s.sendError(connID, "INVALID_PAYLOAD", fmt.Sprintf("Invalid %s payload", msg.Type))
		return err
	}
	return nil
}

func (s *Server) sendError(connID, code, message string) {
	s.connections.Send(connID, match.Message{
		Type:    "error",
		Payload: match.ErrorPayload{Code: code, Message: message},
	})
}
