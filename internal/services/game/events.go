package game

import (
	"context"
	"time"
)

// Outbound event names. roomState is canonical; the rest are UI hooks.
const (
	EventRoomState    = "roomState"
	EventRoomCreated  = "roomCreated"
	EventPlayerJoined = "playerJoined"
	EventGameStarted  = "gameStarted"
	EventMovieReady   = "movieReady"
	EventCorrectGuess = "correctGuess"
	EventWrongGuess   = "wrongGuess"
	EventRoundResult  = "roundResult"
	EventRoundFailed  = "roundFailed"
	EventRoundStart   = "roundStart"
	EventChatMessage  = "receive-message"
)

// Broadcaster is the transport seen from the game: named groups of connections
// plus direct delivery to one connection.
type Broadcaster interface {
	Join(roomID, connID string)
	Leave(roomID, connID string)
	ToRoom(roomID, event string, body any)
	ToConn(connID, event string, body any)
}

// ResultRecorder archives resolved rounds.
type ResultRecorder interface {
	RecordRound(ctx context.Context, res RoundResult) error
}

// TurnRef names one round of one room instance. An empty Instance matches
// whichever instance currently holds RoomID.
type TurnRef struct {
	RoomID   string
	Instance string
	Round    int
}

// TurnClock times the guessing team. When an armed clock runs out, its owner
// calls RegisterTimeoutStrikeForTurn.
type TurnClock interface {
	Arm(ctx context.Context, turn TurnRef) error
	Disarm(ctx context.Context, turn TurnRef) error
}

type NopRecorder struct{}

func (NopRecorder) RecordRound(context.Context, RoundResult) error { return nil }

type NopClock struct{}

func (NopClock) Arm(context.Context, TurnRef) error    { return nil }
func (NopClock) Disarm(context.Context, TurnRef) error { return nil }

// RoundResult is the archived form of a resolved round.
type RoundResult struct {
	RoomID       string         `json:"roomId"`
	Instance     string         `json:"instance"`
	Round        int            `json:"round"`
	SetterTeam   TeamID         `json:"setterTeam"`
	GuessingTeam TeamID         `json:"guessingTeam"`
	Outcome      Outcome        `json:"outcome"`
	Word         string         `json:"word"`
	Points       int            `json:"points"`
	WrongGuesses int            `json:"wrongGuesses"`
	ScoreA       int            `json:"scoreA"`
	ScoreB       int            `json:"scoreB"`
	Players      []ResultPlayer `json:"players"`
	FinishedAt   time.Time      `json:"finishedAt"`
}

type ResultPlayer struct {
	Name string `json:"name"`
	Team TeamID `json:"team"`
	Won  bool   `json:"won"`
}

func newRoundResult(r *Room, o *RoundOutcome) RoundResult {
	res := RoundResult{
		RoomID:       r.ID,
		Instance:     r.Instance,
		Round:        o.Round,
		SetterTeam:   o.SetterTeam,
		GuessingTeam: o.GuessingTeam,
		Outcome:      o.Outcome,
		Word:         o.Word,
		Points:       o.Points,
		WrongGuesses: r.Wrong,
		ScoreA:       r.A.Score,
		ScoreB:       r.B.Score,
		FinishedAt:   time.Now().UTC(),
	}
	for _, id := range []TeamID{TeamA, TeamB} {
		for _, p := range r.team(id).Players {
			res.Players = append(res.Players, ResultPlayer{
				Name: p.Name,
				Team: id,
				Won:  o.Outcome == OutcomeWin && id == o.GuessingTeam,
			})
		}
	}
	return res
}

// Narrow event bodies.

type RoomCreatedBody struct {
	RoomID string `json:"roomId"`
}

type PlayerJoinedBody struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	RoomID   string `json:"roomId"`
}

type GameStartedBody struct {
	Round int                 `json:"round"`
	Turn  TeamID              `json:"turn"`
	Teams map[TeamID]TeamView `json:"teams"`
}

type MovieReadyBody struct {
	RevealedPattern string `json:"revealedPattern"`
}

type CorrectGuessBody struct {
	Letter          string `json:"letter"`
	RevealedPattern string `json:"revealedPattern"`
}

type WrongGuessBody struct {
	Letter          string `json:"letter,omitempty"`
	WrongGuessCount int    `json:"wrongGuessCount"`
	Timeout         bool   `json:"timeout,omitempty"`
}

type RoundResultBody struct {
	Winner TeamID         `json:"winner"`
	Points int            `json:"points"`
	Scores map[TeamID]int `json:"scores"`
}

type RoundFailedBody struct {
	Movie string `json:"movie"`
}

type RoundStartBody struct {
	Round int    `json:"round"`
	Turn  TeamID `json:"turn"`
}

type ChatMessageBody struct {
	Sender  string `json:"sender"`
	Message string `json:"message"`
	Text    string `json:"text"`
}
