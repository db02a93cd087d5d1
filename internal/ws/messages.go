package ws

import "encoding/json"

// Envelope wraps every WS frame.
type Envelope struct {
	Event string          `json:"event"`          // e.g. "guessLetter"
	Body  json.RawMessage `json:"body,omitempty"` // arbitrary JSON object
}

// Inbound events.
const (
	EventCreateRoom  = "createRoom"
	EventJoinRoom    = "joinRoom"
	EventJoinTeam    = "joinTeam"
	EventStartGame   = "startGame"
	EventSubmitMovie = "submitMovie"
	EventGuessLetter = "guessLetter"
	EventNextRound   = "nextRound"
	EventSendMessage = "sendMessage"
	EventGetRoom     = "getRoom"
)

// Server-only frames.
const (
	EventConnected = "connected"
	EventError     = "error"
)

// ──────────────────────────── Request / Response DTOs ─────────────────────────

type PlayerInfo struct {
	Name string `json:"name" validate:"max=32"`
}

// CreateRoomRequest leaves RoomID empty to get a generated id.
type CreateRoomRequest struct {
	RoomID string     `json:"roomId" validate:"omitempty,max=32"`
	Player PlayerInfo `json:"player"`
}

type JoinRoomRequest struct {
	RoomID string     `json:"roomId" validate:"required,max=32"`
	Player PlayerInfo `json:"player"`
}

type JoinTeamRequest struct {
	RoomID string `json:"roomId" validate:"required"`
	Team   string `json:"team" validate:"required,oneof=A B"`
}

type RoomRequest struct {
	RoomID string `json:"roomId" validate:"required"`
}

// SubmitMovieRequest accepts the title as either "movie" or "word".
type SubmitMovieRequest struct {
	RoomID string `json:"roomId" validate:"required"`
	Movie  string `json:"movie"`
	Word   string `json:"word"`
}

func (r SubmitMovieRequest) title() string {
	if r.Movie != "" {
		return r.Movie
	}
	return r.Word
}

type GuessLetterRequest struct {
	RoomID string `json:"roomId" validate:"required"`
	Letter string `json:"letter" validate:"required"`
}

type SendMessageRequest struct {
	RoomID  string `json:"roomId" validate:"required"`
	Message string `json:"message" validate:"required"`
}

type ConnectedBody struct {
	ID string `json:"id"`
}

type CreateRoomResponse struct {
	RoomID string `json:"roomId"`
}

// Empty ACK body (useful for many handlers).
type AckBody struct{}

// ErrorBody is returned for failures.
type ErrorBody struct {
	Error string `json:"error"`
}
