package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"time"

	"bollywoodgo/internal/services/game"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10 // must be < pongWait
	maxFrameBytes  = 4096
	handlerTimeout = 2 * time.Second
)

type WsServer struct {
	hub      *Hub
	router   *Router
	upgrader websocket.Upgrader
	gameSvc  game.IGameService
}

// NewWsServer wires the game handlers. allowOrigins "*" accepts any origin.
func NewWsServer(h *Hub, gameSvc game.IGameService, allowOrigins []string) *WsServer {
	srv := &WsServer{
		hub:     h,
		router:  NewRouter(),
		gameSvc: gameSvc,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     originChecker(allowOrigins),
		},
	}
	srv.registerHandlers()
	return srv
}

func originChecker(allow []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || slices.Contains(allow, "*") || slices.Contains(allow, origin)
	}
}

// ---------------------------------------------------------------------------
//  Public: Gin entry-point
// ---------------------------------------------------------------------------

// Handle upgrades the request and serves the socket until it closes.
//
//	@Summary	WebSocket endpoint
//	@Tags		ws
//	@Success	101
//	@Router		/ws [get]
func (s *WsServer) Handle(ginCtx *gin.Context) {
	rawConn, err := s.upgrader.Upgrade(ginCtx.Writer, ginCtx.Request, nil)
	if err != nil {
		zap.L().Warn("ws.accept", zap.Error(err))
		return
	}
	rawConn.SetReadLimit(maxFrameBytes)
	_ = rawConn.SetReadDeadline(time.Now().Add(pongWait))
	rawConn.SetPongHandler(func(string) error {
		return rawConn.SetReadDeadline(time.Now().Add(pongWait))
	})

	conn := newClientConn(uuid.NewString(), rawConn)
	s.hub.register(conn)
	zap.L().Info("ws.connected", zap.String("conn", conn.id))
	s.hub.ToConn(conn.id, EventConnected, ConnectedBody{ID: conn.id})

	go conn.writePump()
	go s.reader(conn)
}

// ---------------------------------------------------------------------------
//  Private helpers
// ---------------------------------------------------------------------------

func (s *WsServer) registerHandlers() {
	Register(s.router, EventCreateRoom,
		func(ctx context.Context, cc *ConnContext, req CreateRoomRequest) (CreateRoomResponse, error) {
			view, err := s.gameSvc.CreateRoom(ctx, cc.ConnID, req.RoomID, req.Player.Name)
			return CreateRoomResponse{RoomID: view.RoomID}, err
		})

	Register(s.router, EventJoinRoom,
		func(ctx context.Context, cc *ConnContext, req JoinRoomRequest) (AckBody, error) {
			return AckBody{}, s.gameSvc.JoinRoom(ctx, cc.ConnID, req.RoomID, req.Player.Name)
		})

	Register(s.router, EventJoinTeam,
		func(ctx context.Context, cc *ConnContext, req JoinTeamRequest) (AckBody, error) {
			return AckBody{}, s.gameSvc.JoinTeam(ctx, cc.ConnID, req.RoomID, game.TeamID(req.Team))
		})

	Register(s.router, EventStartGame,
		func(ctx context.Context, cc *ConnContext, req RoomRequest) (AckBody, error) {
			return AckBody{}, s.gameSvc.StartGame(ctx, cc.ConnID, req.RoomID)
		})

	Register(s.router, EventSubmitMovie,
		func(ctx context.Context, cc *ConnContext, req SubmitMovieRequest) (AckBody, error) {
			return AckBody{}, s.gameSvc.SubmitWord(ctx, cc.ConnID, req.RoomID, req.title())
		})

	Register(s.router, EventGuessLetter,
		func(ctx context.Context, cc *ConnContext, req GuessLetterRequest) (AckBody, error) {
			return AckBody{}, s.gameSvc.GuessLetter(ctx, cc.ConnID, req.RoomID, req.Letter)
		})

	Register(s.router, EventNextRound,
		func(ctx context.Context, cc *ConnContext, req RoomRequest) (AckBody, error) {
			return AckBody{}, s.gameSvc.NextRound(ctx, cc.ConnID, req.RoomID)
		})

	Register(s.router, EventSendMessage,
		func(ctx context.Context, cc *ConnContext, req SendMessageRequest) (AckBody, error) {
			return AckBody{}, s.gameSvc.SendMessage(ctx, cc.ConnID, req.RoomID, req.Message)
		})

	Register(s.router, EventGetRoom,
		func(ctx context.Context, cc *ConnContext, req RoomRequest) (game.RoomView, error) {
			return s.gameSvc.Snapshot(ctx, req.RoomID)
		})
}

func (s *WsServer) reader(conn *clientConn) {
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		rooms := s.gameSvc.Disconnect(ctx, conn.id)
		cancel()
		s.hub.unregister(conn)
		conn.close()
		zap.L().Info("ws.disconnected", zap.String("conn", conn.id), zap.Strings("rooms", rooms))
	}()

	cc := &ConnContext{ConnID: conn.id}

	for {
		_, data, err := conn.rawConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				zap.L().Debug("ws.read", zap.String("conn", conn.id), zap.Error(err))
			}
			return // client closed or errored
		}
		var env Envelope
		if err := json.Unmarshal(data, &env); err != nil || env.Event == "" {
			_ = conn.writeJSON(map[string]any{
				"event": EventError,
				"body":  ErrorBody{Error: ErrBadRequest.Error()},
			})
			continue
		}

		ctx, cancel := context.WithTimeout(context.Background(), handlerTimeout)
		res, err := s.router.dispatch(ctx, cc, env)
		cancel()

		// ---- error -> {"event":"error", "body":{...}} ---------------
		if err != nil {
			if game.IsIgnorable(err) {
				zap.L().Debug("ws.ignored", zap.String("event", env.Event), zap.String("conn", conn.id), zap.Error(err))
				continue
			}
			_ = conn.writeJSON(map[string]any{
				"event": EventError,
				"body":  ErrorBody{Error: errorCode(err)},
			})
			continue
		}

		// ---- success -> {"event":"<evt>-ack", "body":{...}} --------
		reply := map[string]any{"event": env.Event + "-ack"}
		if res != nil {
			reply["body"] = res
		}
		_ = conn.writeJSON(reply)
	}
}

// errorCode maps an error onto the text sent to the client.
func errorCode(err error) string {
	switch {
	case errors.Is(err, game.ErrDuplicateRoom):
		return "room_exists"
	case errors.Is(err, game.ErrInvalidWord):
		return "invalid_word"
	case errors.Is(err, ErrUnknownEvent):
		return ErrUnknownEvent.Error()
	case errors.Is(err, ErrBadRequest):
		return ErrBadRequest.Error()
	default:
		return ErrInternal.Error()
	}
}
