package server

import "encoding/json"

type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type IdentifyRequest struct {
	Name string `json:"name"`
}

type JoinPrivateRoomRequest struct {
	Code string `json:"code"`
}

type StartTrainingRequest struct {
	Difficulty string `json:"difficulty"`
	MaxWords   int    `json:"maxWords"`
}

type JoinRoomRequest struct {
	RoomCode string `json:"roomCode"`
}

type GiveClueRequest struct {
	RoomCode string `json:"roomCode"`
	Clue     string `json:"clue"`
}

type MakeGuessRequest struct {
	RoomCode string `json:"roomCode"`
	Guess    string `json:"guess"`
}

type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
	Error    string `json:"error,omitempty"`
}

type StatsResponse struct {
	Connections int `json:"connections"`
	Sessions    int `json:"sessions"`
	Queued      int `json:"queued"`
	Tickets     int `json:"tickets"`
	Rooms       int `json:"rooms"`
}
