package ws

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRouterDispatch(t *testing.T) {
	r := NewRouter()
	Register(r, "echo", func(_ context.Context, cc *ConnContext, req JoinTeamRequest) (JoinTeamRequest, error) {
		return req, nil
	})
	Register(r, "boom", func(_ context.Context, _ *ConnContext, _ AckBody) (AckBody, error) {
		panic("kaboom")
	})
	cc := &ConnContext{ConnID: "c1"}
	ctx := context.Background()

	t.Run("typed body", func(t *testing.T) {
		res, err := r.dispatch(ctx, cc, Envelope{Event: "echo", Body: json.RawMessage(`{"roomId":"r1","team":"B"}`)})
		require.NoError(t, err)
		assert.Equal(t, JoinTeamRequest{RoomID: "r1", Team: "B"}, res)
	})

	t.Run("validation", func(t *testing.T) {
		_, err := r.dispatch(ctx, cc, Envelope{Event: "echo", Body: json.RawMessage(`{"roomId":"r1","team":"C"}`)})
		assert.ErrorIs(t, err, ErrBadRequest)
	})

	t.Run("malformed body", func(t *testing.T) {
		_, err := r.dispatch(ctx, cc, Envelope{Event: "echo", Body: json.RawMessage(`{"roomId":1}`)})
		assert.ErrorIs(t, err, ErrBadRequest)
	})

	t.Run("unknown event", func(t *testing.T) {
		_, err := r.dispatch(ctx, cc, Envelope{Event: "nope"})
		assert.ErrorIs(t, err, ErrUnknownEvent)
	})

	t.Run("panic is recovered", func(t *testing.T) {
		_, err := r.dispatch(ctx, cc, Envelope{Event: "boom"})
		assert.ErrorIs(t, err, ErrInternal)
	})
}

func TestRegisterRejectsEmptyEvent(t *testing.T) {
	assert.Panics(t, func() {
		Register(NewRouter(), "", func(context.Context, *ConnContext, AckBody) (AckBody, error) {
			return AckBody{}, nil
		})
	})
}

func TestSubmitMovieTitle(t *testing.T) {
	assert.Equal(t, "DON", SubmitMovieRequest{Movie: "DON", Word: "X"}.title())
	assert.Equal(t, "X", SubmitMovieRequest{Word: "X"}.title())
}
