package turnwatcher

import (
	"context"
	"errors"

	"bollywoodgo/internal/redis/turnclock"
	"bollywoodgo/internal/services/game"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Run listens to key-expiry events and turns expired turn clocks into
// timeout strikes. Run must be started once at service boot.
func Run(ctx context.Context, rdb *redis.Client, svc game.IGameService) {
	if err := rdb.ConfigSet(ctx, "notify-keyspace-events", "Ex").Err(); err != nil {
		zap.L().Warn("turnwatcher.config_set", zap.Error(err))
	}
	ps := rdb.PSubscribe(ctx, "__keyevent@*__:expired")
	defer ps.Close()

	ch := ps.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			handleExpired(ctx, svc, m.Payload)
		}
	}
}

func handleExpired(ctx context.Context, svc game.IGameService, key string) {
	turn, ok := turnclock.ParseKey(key)
	if !ok {
		return
	}
	err := svc.RegisterTimeoutStrikeForTurn(ctx, turn)
	switch {
	case err == nil:
		zap.L().Debug("turnwatcher.strike", zap.String("room", turn.RoomID), zap.Int("round", turn.Round))
	case game.IsIgnorable(err), errors.Is(err, context.Canceled):
	default:
		zap.L().Warn("turnwatcher.strike", zap.String("room", turn.RoomID), zap.Error(err))
	}
}
