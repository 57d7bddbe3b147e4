package server

import (
	"clueword-server/internal/clueword"
	"clueword-server/internal/config"
	"clueword-server/internal/match"
	"clueword-server/internal/storage"
	"context"
	"encoding/json"
	"errors"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type serverMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type failingDB struct{}

func (failingDB) Health(context.Context) error { return errors.New("connection refused") }

func testConfig() *config.Config {
	return &config.Config{
		Bind:             "127.0.0.1",
		Port:             8080,
		LogLevel:         "debug",
		LogFormat:        "console",
		AllowGuests:      true,
		PairingDelay:     10 * time.Millisecond,
		BotClueDelay:     10 * time.Millisecond,
		NextRoundDelay:   time.Second,
		GameEndDelay:     time.Second,
		WordsPerMatch:    3,
		MaxTrainingWords: 5,
		TicketTTL:        time.Minute,
		IdleTimeout:      time.Minute,
		WordRefresh:      time.Minute,
		RateLimit:        100,
		RateBurst:        100,
	}
}

func setupTestServer(t *testing.T, cfg *config.Config, db HealthChecker) (*Server, string) {
	t.Helper()

	vocab, err := clueword.DefaultVocabulary()
	require.NoError(t, err)

	log := zerolog.Nop()
	connections := NewConnectionManager(log)
	engine := match.NewEngine(cfg.Settings(), match.Deps{
		Words:      clueword.NewWordBank(vocab.Entries),
		Allowed:    clueword.NewDictionary(vocab.Dictionary...),
		Identities: storage.Guests{Store: storage.NewMemoryStore(log)},
		History:    storage.NewMemoryStore(log),
		Notifier:   connections,
		Logger:     log,
	})
	engine.Start()

	s := NewServer(cfg, engine, connections, db, log)
	ts := httptest.NewServer(s.RegisterRoutes())
	t.Cleanup(func() {
		s.Close()
		ts.Close()
		engine.Shutdown(context.Background())
	})
	return s, ts.URL
}

func dial(t *testing.T, baseURL string) *websocket.Conn {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	url := "ws" + strings.TrimPrefix(baseURL, "http") + "/websocket"
	conn, _, err := websocket.Dial(ctx, url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close(websocket.StatusNormalClosure, "") })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, msgType string, payload any) {
	t.Helper()
	msg := map[string]any{"type": msgType}
	if payload != nil {
		msg["payload"] = payload
	}
	data, err := json.Marshal(msg)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, data))
}

// readUntil reads messages until one of the wanted type arrives.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) serverMessage {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for {
		_, data, err := conn.Read(ctx)
		require.NoErrorf(t, err, "waiting for %s", msgType)

		var msg serverMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		if msg.Type == msgType {
			return msg
		}
	}
}

func identify(t *testing.T, conn *websocket.Conn, name string) {
	t.Helper()
	send(t, conn, "identify", IdentifyRequest{Name: name})
	msg := readUntil(t, conn, match.EventIdentified)

	var payload match.IdentifiedPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	require.Equal(t, name, payload.Name)
}

func TestIndexHandler(t *testing.T) {
	_, url := setupTestServer(t, testConfig(), nil)

	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.JSONEq(t, `{"message":"clueword server"}`, string(body))
}

func TestHealthHandler(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		_, url := setupTestServer(t, testConfig(), nil)

		resp, err := http.Get(url + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()

		var health HealthResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "ok", health.Status)
		assert.Equal(t, "memory", health.Database)
	})

	t.Run("database down", func(t *testing.T) {
		_, url := setupTestServer(t, testConfig(), failingDB{})

		resp, err := http.Get(url + "/health")
		require.NoError(t, err)
		defer resp.Body.Close()

		var health HealthResponse
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		assert.Equal(t, "postgres", health.Database)
		assert.Equal(t, "connection refused", health.Error)
	})
}

func TestWebSocketPingPong(t *testing.T) {
	_, url := setupTestServer(t, testConfig(), nil)
	conn := dial(t, url)

	send(t, conn, "ping", nil)
	readUntil(t, conn, "pong")
}

func TestWebSocketInvalidInput(t *testing.T) {
	_, url := setupTestServer(t, testConfig(), nil)
	conn := dial(t, url)

	ctx := context.Background()
	require.NoError(t, conn.Write(ctx, websocket.MessageText, []byte("junk")))
	msg := readUntil(t, conn, "error")
	var payload match.ErrorPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, "INVALID_JSON", payload.Code)

	send(t, conn, "teleport", nil)
	msg = readUntil(t, conn, "error")
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, "INVALID_MESSAGE_TYPE", payload.Code)

	send(t, conn, "identify", "not an object")
	msg = readUntil(t, conn, "error")
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, "INVALID_PAYLOAD", payload.Code)

	// The connection stays usable.
	send(t, conn, "ping", nil)
	readUntil(t, conn, "pong")
}

func TestWebSocketRateLimit(t *testing.T) {
	cfg := testConfig()
	cfg.RateLimit = 0.001
	cfg.RateBurst = 2
	_, url := setupTestServer(t, cfg, nil)
	conn := dial(t, url)

	send(t, conn, "ping", nil)
	send(t, conn, "ping", nil)
	send(t, conn, "ping", nil)

	readUntil(t, conn, "pong")
	readUntil(t, conn, "pong")
	msg := readUntil(t, conn, "error")

	var payload match.ErrorPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, "RATE_LIMITED", payload.Code)
}

func TestWebSocketActionBeforeIdentify(t *testing.T) {
	_, url := setupTestServer(t, testConfig(), nil)
	conn := dial(t, url)

	send(t, conn, "join_matchmaking", nil)
	msg := readUntil(t, conn, match.EventRoomError)

	var payload match.ErrorPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &payload))
	assert.Equal(t, "UNKNOWN_PLAYER", payload.Code)
}

func TestWebSocketMatchmaking(t *testing.T) {
	s, url := setupTestServer(t, testConfig(), nil)
	alice := dial(t, url)
	bob := dial(t, url)

	identify(t, alice, "alice")
	identify(t, bob, "bob")

	send(t, alice, "join_matchmaking", nil)
	readUntil(t, alice, match.EventMatchmakingJoined)
	send(t, bob, "join_matchmaking", nil)

	var found [2]match.MatchFoundPayload
	for i, conn := range []*websocket.Conn{alice, bob} {
		msg := readUntil(t, conn, match.EventMatchFound)
		require.NoError(t, json.Unmarshal(msg.Payload, &found[i]))
	}
	assert.Equal(t, found[0].RoomCode, found[1].RoomCode)
	assert.Equal(t, "bob", found[0].Opponent)
	assert.Equal(t, "alice", found[1].Opponent)
	assert.Equal(t, 3, found[0].MaxWords)

	send(t, alice, "join_room", JoinRoomRequest{RoomCode: found[0].RoomCode})
	readUntil(t, alice, match.EventGameStart)

	resp, err := http.Get(url + "/stats")
	require.NoError(t, err)
	defer resp.Body.Close()
	var stats StatsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&stats))
	assert.Equal(t, 2, stats.Connections)
	assert.Equal(t, 2, stats.Sessions)
	assert.Equal(t, 1, stats.Rooms)
	assert.Equal(t, 0, stats.Queued)

	assert.True(t, s.engine.CodeInUse(found[0].RoomCode))
}

func TestWebSocketTraining(t *testing.T) {
	_, url := setupTestServer(t, testConfig(), nil)
	conn := dial(t, url)
	identify(t, conn, "solo")

	send(t, conn, "start_training", StartTrainingRequest{Difficulty: "easy", MaxWords: 2})
	readUntil(t, conn, match.EventTrainingStart)

	msg := readUntil(t, conn, match.EventClueGiven)
	var clue match.CluePayload
	require.NoError(t, json.Unmarshal(msg.Payload, &clue))
	assert.Equal(t, match.BotName, clue.From)
	assert.NotEmpty(t, clue.Clue)
}

func TestPrivateRoomQRCode(t *testing.T) {
	_, url := setupTestServer(t, testConfig(), nil)

	resp, err := http.Get(url + "/rooms/ABC123/qr")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, err = http.Get(url + "/rooms/bad!/qr")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	host := dial(t, url)
	identify(t, host, "host")
	send(t, host, "create_private_room", nil)
	msg := readUntil(t, host, match.EventPrivateRoomCreated)

	var ticket match.TicketPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &ticket))

	resp, err = http.Get(url + "/rooms/" + strings.ToLower(ticket.Code) + "/qr")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "image/png", resp.Header.Get("Content-Type"))

	img, err := png.Decode(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, 256, img.Bounds().Dx())
}

func TestPrivateRoomJoin(t *testing.T) {
	_, url := setupTestServer(t, testConfig(), nil)
	host := dial(t, url)
	guest := dial(t, url)
	identify(t, host, "host")
	identify(t, guest, "guest")

	send(t, host, "create_private_room", nil)
	msg := readUntil(t, host, match.EventPrivateRoomCreated)
	var ticket match.TicketPayload
	require.NoError(t, json.Unmarshal(msg.Payload, &ticket))

	send(t, guest, "join_private_room", JoinPrivateRoomRequest{Code: ticket.Code})
	readUntil(t, host, match.EventPlayerJoined)

	var found match.MatchFoundPayload
	msg = readUntil(t, guest, match.EventMatchFound)
	require.NoError(t, json.Unmarshal(msg.Payload, &found))
	assert.Equal(t, ticket.Code, found.RoomCode)
	assert.Equal(t, "host", found.Opponent)
}

func TestReapIdle(t *testing.T) {
	s, url := setupTestServer(t, testConfig(), nil)
	conn := dial(t, url)

	send(t, conn, "ping", nil)
	readUntil(t, conn, "pong")

	base := time.Now()
	s.health.mu.Lock()
	s.health.now = func() time.Time { return base.Add(time.Hour) }
	s.health.mu.Unlock()
	assert.Equal(t, 1, s.reapIdle(time.Minute))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, _, err := conn.Read(ctx)
	require.Error(t, err)
	assert.Equal(t, websocket.StatusGoingAway, websocket.CloseStatus(err))

	assert.Eventually(t, func() bool {
		return s.connections.Count() == 0
	}, 5*time.Second, 10*time.Millisecond)
}
