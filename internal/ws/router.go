package ws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

var (
	ErrUnknownEvent = errors.New("unknown_event")
	ErrBadRequest   = errors.New("bad_request")
	ErrInternal     = errors.New("internal_error")
)

// ConnContext identifies the connection an event came from.
type ConnContext struct {
	ConnID string
}

// internal (untyped) handler signature.
type rawHandler func(ctx context.Context, c *ConnContext, body json.RawMessage) (any, error)

// Router keeps a map[event]handler, à-la gin.Engine.
type Router struct {
	mu       sync.RWMutex
	handlers map[string]rawHandler
	validate *validator.Validate
}

func NewRouter() *Router {
	return &Router{handlers: make(map[string]rawHandler), validate: validator.New()}
}

// Register binds an event to a strongly-typed handler. Bodies are decoded into
// Req and validated before h runs.
func Register[Req any, Res any](
	r *Router,
	event string,
	h func(ctx context.Context, c *ConnContext, req Req) (Res, error),
) {
	if event == "" {
		panic("ws router: empty event")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.handlers[event] = func(ctx context.Context, c *ConnContext, body json.RawMessage) (any, error) {
		var req Req
		if len(body) > 0 {
			if err := json.Unmarshal(body, &req); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
			}
		}
		if err := r.validate.Struct(req); err != nil {
			var invalid *validator.InvalidValidationError
			if !errors.As(err, &invalid) {
				return nil, fmt.Errorf("%w: %v", ErrBadRequest, err)
			}
		}
		return h(ctx, c, req)
	}
}

// dispatch is called by the server's reader loop. A panicking handler is
// logged and reported as ErrInternal.
func (r *Router) dispatch(ctx context.Context, c *ConnContext, env Envelope) (res any, err error) {
	r.mu.RLock()
	h, ok := r.handlers[env.Event]
	r.mu.RUnlock()
	if !ok {
		return nil, ErrUnknownEvent
	}

	defer func() {
		if p := recover(); p != nil {
			zap.L().Error("ws.handler_panic",
				zap.String("event", env.Event),
				zap.String("conn", c.ConnID),
				zap.Any("panic", p),
				zap.Stack("stack"),
			)
			res, err = nil, ErrInternal
		}
	}()
	return h(ctx, c, env.Body)
}
