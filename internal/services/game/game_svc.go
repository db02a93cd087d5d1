package game

import (
	"context"
	"errors"
	"sort"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

const (
	defaultPlayerName = "Player"
	maxMessageRunes   = 500
)

var (
	ErrRoomNotFound      = errors.New("room not found")
	ErrPlayerNotFound    = errors.New("player not found")
	ErrInvalidTransition = errors.New("invalid transition")
	ErrDuplicateGuess    = errors.New("letter already guessed")
	ErrDuplicateRoom     = errors.New("room already exists")
	ErrInvalidWord       = errors.New("word must have 1-64 characters and at least one hidden letter")
	ErrInvalidMessage    = errors.New("invalid message")
)

// IsIgnorable reports whether err is an expected no-op (late, stale or out-of-phase
// events) that must not be surfaced to the sender.
func IsIgnorable(err error) bool {
	return errors.Is(err, ErrRoomNotFound) ||
		errors.Is(err, ErrPlayerNotFound) ||
		errors.Is(err, ErrInvalidTransition) ||
		errors.Is(err, ErrDuplicateGuess) ||
		errors.Is(err, ErrInvalidMessage)
}

type IGameService interface {
	CreateRoom(ctx context.Context, connID, roomID, name string) (RoomView, error)
	JoinRoom(ctx context.Context, connID, roomID, name string) error
	JoinTeam(ctx context.Context, connID, roomID string, team TeamID) error
	StartGame(ctx context.Context, connID, roomID string) error
	SubmitWord(ctx context.Context, connID, roomID, word string) error
	GuessLetter(ctx context.Context, connID, roomID, letter string) error
	NextRound(ctx context.Context, connID, roomID string) error
	SendMessage(ctx context.Context, connID, roomID, message string) error
	RegisterTimeoutStrike(ctx context.Context, roomID string) error
	RegisterTimeoutStrikeForTurn(ctx context.Context, turn TurnRef) error
	Disconnect(ctx context.Context, connID string) []string
	Snapshot(ctx context.Context, roomID string) (RoomView, error)
	ListRooms(ctx context.Context) []RoomSummary
}

// Options tune a game service.
type Options struct {
	Rules Rules
	// CreatorTeam seats the room creator on a team as leader; empty keeps the
	// creator in the waiting pool.
	CreatorTeam TeamID
}

type gameService struct {
	rooms       *Registry
	out         Broadcaster
	recorder    ResultRecorder
	clock       TurnClock
	creatorTeam TeamID
}

var _ IGameService = (*gameService)(nil)

func NewGameService(out Broadcaster, recorder ResultRecorder, clock TurnClock, opts Options) IGameService {
	if recorder == nil {
		recorder = NopRecorder{}
	}
	if clock == nil {
		clock = NopClock{}
	}
	return &gameService{
		rooms:       NewRegistry(opts.Rules),
		out:         out,
		recorder:    recorder,
		clock:       clock,
		creatorTeam: opts.CreatorTeam,
	}
}

// withRoom runs fn under the room lock and, if fn succeeds, broadcasts the
// canonical room state before the lock is released.
func (svc *gameService) withRoom(roomID string, fn func(r *Room) error) error {
	r, err := svc.rooms.Lookup(roomID)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRoomNotFound
	}
	if err := fn(r); err != nil {
		return err
	}
	svc.out.ToRoom(r.ID, EventRoomState, r.View())
	return nil
}

func displayName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return defaultPlayerName
	}
	return name
}

func (svc *gameService) CreateRoom(ctx context.Context, connID, roomID, name string) (RoomView, error) {
	r, err := svc.rooms.Create(strings.TrimSpace(roomID), Player{ConnID: connID, Name: displayName(name)})
	if err != nil {
		return RoomView{}, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if svc.creatorTeam != "" {
		_, _ = r.assignTeam(connID, svc.creatorTeam)
	}
	svc.out.Join(r.ID, connID)
	svc.out.ToConn(connID, EventRoomCreated, RoomCreatedBody{RoomID: r.ID})
	view := r.View()
	svc.out.ToRoom(r.ID, EventRoomState, view)

	zap.L().Info("game.room_created", zap.String("room", r.ID), zap.String("conn", connID))
	return view, nil
}

func (svc *gameService) JoinRoom(ctx context.Context, connID, roomID, name string) error {
	return svc.withRoom(roomID, func(r *Room) error {
		p := Player{ConnID: connID, Name: displayName(name)}
		r.join(p)
		svc.out.Join(r.ID, connID)
		svc.out.ToConn(connID, EventPlayerJoined, PlayerJoinedBody{PlayerID: connID, Name: p.Name, RoomID: r.ID})
		return nil
	})
}

func (svc *gameService) JoinTeam(ctx context.Context, connID, roomID string, team TeamID) error {
	if _, err := ParseTeamID(string(team)); err != nil {
		return ErrInvalidTransition
	}
	return svc.withRoom(roomID, func(r *Room) error {
		changed, err := r.assignTeam(connID, team)
		if err != nil {
			return err
		}
		if !changed {
			return ErrInvalidTransition
		}
		return nil
	})
}

func (svc *gameService) StartGame(ctx context.Context, connID, roomID string) error {
	return svc.withRoom(roomID, func(r *Room) error {
		if _, _, ok := r.locate(connID); !ok {
			return ErrPlayerNotFound
		}
		if err := r.start(); err != nil {
			return err
		}
		svc.out.ToRoom(r.ID, EventGameStarted, GameStartedBody{
			Round: r.Round,
			Turn:  r.Turn,
			Teams: map[TeamID]TeamView{TeamA: projectTeam(&r.A), TeamB: projectTeam(&r.B)},
		})
		zap.L().Info("game.started", zap.String("room", r.ID))
		return nil
	})
}

func (svc *gameService) SubmitWord(ctx context.Context, connID, roomID, word string) error {
	var turn TurnRef
	err := svc.withRoom(roomID, func(r *Room) error {
		if err := r.submit(connID, word); err != nil {
			return err
		}
		turn = r.turnRef()
		svc.out.ToRoom(r.ID, EventMovieReady, MovieReadyBody{RevealedPattern: r.Pattern})
		return nil
	})
	if err != nil {
		return err
	}
	if err := svc.clock.Arm(ctx, turn); err != nil {
		zap.L().Warn("game.clock_arm", zap.String("room", roomID), zap.Error(err))
	}
	return nil
}

func (svc *gameService) GuessLetter(ctx context.Context, connID, roomID, letter string) error {
	return svc.applyGuess(ctx, roomID, func(r *Room) (GuessOutcome, error) {
		return r.guess(connID, letter)
	})
}

func (svc *gameService) RegisterTimeoutStrike(ctx context.Context, roomID string) error {
	return svc.applyGuess(ctx, roomID, func(r *Room) (GuessOutcome, error) {
		return r.strike()
	})
}

// RegisterTimeoutStrikeForTurn ignores strikes from a clock armed in an earlier
// round or for an earlier room that used the same ID.
func (svc *gameService) RegisterTimeoutStrikeForTurn(ctx context.Context, turn TurnRef) error {
	return svc.applyGuess(ctx, turn.RoomID, func(r *Room) (GuessOutcome, error) {
		if turn.Instance != "" && turn.Instance != r.Instance {
			return GuessOutcome{}, ErrRoomNotFound
		}
		if r.Round != turn.Round {
			return GuessOutcome{}, ErrInvalidTransition
		}
		return r.strike()
	})
}

// applyGuess runs a guess or strike, emits its narrow events and then handles
// the clock and the archive outside the room lock.
func (svc *gameService) applyGuess(ctx context.Context, roomID string, apply func(r *Room) (GuessOutcome, error)) error {
	var (
		turn   TurnRef
		result *RoundResult
	)
	err := svc.withRoom(roomID, func(r *Room) error {
		out, err := apply(r)
		if err != nil {
			return err
		}
		turn = r.turnRef()
		if out.Hit {
			svc.out.ToRoom(r.ID, EventCorrectGuess, CorrectGuessBody{Letter: out.Letter, RevealedPattern: r.Pattern})
		} else {
			svc.out.ToRoom(r.ID, EventWrongGuess, WrongGuessBody{Letter: out.Letter, WrongGuessCount: r.Wrong, Timeout: out.Letter == ""})
		}
		if out.Resolved != nil {
			svc.announce(r, out.Resolved)
			res := newRoundResult(r, out.Resolved)
			result = &res
		}
		return nil
	})
	if err != nil {
		return err
	}

	if result == nil {
		if err := svc.clock.Arm(ctx, turn); err != nil {
			zap.L().Warn("game.clock_arm", zap.String("room", roomID), zap.Error(err))
		}
		return nil
	}
	if err := svc.clock.Disarm(ctx, turn); err != nil {
		zap.L().Warn("game.clock_disarm", zap.String("room", roomID), zap.Error(err))
	}
	if err := svc.recorder.RecordRound(ctx, *result); err != nil {
		zap.L().Error("game.record_round", zap.String("room", roomID), zap.Int("round", turn.Round), zap.Error(err))
	}
	return nil
}

func (svc *gameService) announce(r *Room, o *RoundOutcome) {
	zap.L().Info("game.round_resolved",
		zap.String("room", r.ID),
		zap.Int("round", o.Round),
		zap.String("outcome", string(o.Outcome)),
		zap.String("guessing_team", string(o.GuessingTeam)),
	)
	if o.Outcome == OutcomeWin {
		svc.out.ToRoom(r.ID, EventRoundResult, RoundResultBody{
			Winner: o.GuessingTeam,
			Points: o.Points,
			Scores: map[TeamID]int{TeamA: r.A.Score, TeamB: r.B.Score},
		})
		return
	}
	svc.out.ToRoom(r.ID, EventRoundFailed, RoundFailedBody{Movie: o.Word})
}

func (svc *gameService) NextRound(ctx context.Context, connID, roomID string) error {
	return svc.withRoom(roomID, func(r *Room) error {
		if _, _, ok := r.locate(connID); !ok {
			return ErrPlayerNotFound
		}
		if err := r.advance(); err != nil {
			return err
		}
		svc.out.ToRoom(r.ID, EventRoundStart, RoundStartBody{Round: r.Round, Turn: r.Turn})
		return nil
	})
}

// SendMessage relays chat to the room. It does not touch game state, so no
// roomState follows it.
func (svc *gameService) SendMessage(ctx context.Context, connID, roomID, message string) error {
	msg := strings.TrimSpace(message)
	if msg == "" || utf8.RuneCountInString(msg) > maxMessageRunes {
		return ErrInvalidMessage
	}
	r, err := svc.rooms.Lookup(roomID)
	if err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrRoomNotFound
	}
	p, _, ok := r.locate(connID)
	if !ok {
		return ErrPlayerNotFound
	}
	svc.out.ToRoom(r.ID, EventChatMessage, ChatMessageBody{Sender: p.Name, Message: msg, Text: p.Name + ": " + msg})
	return nil
}

func (svc *gameService) Disconnect(ctx context.Context, connID string) []string {
	var reaped []TurnRef

	affected := svc.rooms.RemoveConnection(connID, func(r *Room, gone bool) {
		svc.out.Leave(r.ID, connID)
		if gone {
			reaped = append(reaped, r.turnRef())
			return
		}
		svc.out.ToRoom(r.ID, EventRoomState, r.View())
	})

	for _, turn := range reaped {
		zap.L().Info("game.room_reaped", zap.String("room", turn.RoomID))
		if err := svc.clock.Disarm(ctx, turn); err != nil {
			zap.L().Warn("game.clock_disarm", zap.String("room", turn.RoomID), zap.Error(err))
		}
	}
	return affected
}

func (svc *gameService) Snapshot(ctx context.Context, roomID string) (RoomView, error) {
	r, err := svc.rooms.Lookup(roomID)
	if err != nil {
		return RoomView{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return RoomView{}, ErrRoomNotFound
	}
	return r.View(), nil
}

func (svc *gameService) ListRooms(ctx context.Context) []RoomSummary {
	rooms := svc.rooms.snapshot()
	out := make([]RoomSummary, 0, len(rooms))
	for _, r := range rooms {
		r.mu.Lock()
		if !r.closed {
			out = append(out, r.summary())
		}
		r.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].RoomID < out[j].RoomID })
	return out
}
