package turnclock

import (
	"context"
	"strconv"
	"strings"
	"time"

	"bollywoodgo/internal/services/game"

	"github.com/redis/go-redis/v9"
)

// KeyPrefix marks turn timer keys. A key expiring means the guessing team
// ran out of time.
const KeyPrefix = "turn_t:"

// Clock arms one expiring Redis key per room instance and round.
type Clock struct {
	rdb     redis.Cmdable
	timeout time.Duration
}

var _ game.TurnClock = (*Clock)(nil)

func New(rdb redis.Cmdable, timeout time.Duration) *Clock {
	return &Clock{rdb: rdb, timeout: timeout}
}

// Key is "turn_t:<roomID>:<instance>:<round>". Room ids may contain ':'; the
// instance and the round are always the last two segments.
func Key(turn game.TurnRef) string {
	return KeyPrefix + turn.RoomID + ":" + turn.Instance + ":" + strconv.Itoa(turn.Round)
}

// ParseKey reverses Key.
func ParseKey(key string) (game.TurnRef, bool) {
	rest, found := strings.CutPrefix(key, KeyPrefix)
	if !found {
		return game.TurnRef{}, false
	}
	i := strings.LastIndex(rest, ":")
	if i <= 0 {
		return game.TurnRef{}, false
	}
	round, err := strconv.Atoi(rest[i+1:])
	if err != nil || round < 1 {
		return game.TurnRef{}, false
	}
	rest = rest[:i]
	j := strings.LastIndex(rest, ":")
	if j <= 0 || j == len(rest)-1 {
		return game.TurnRef{}, false
	}
	return game.TurnRef{RoomID: rest[:j], Instance: rest[j+1:], Round: round}, true
}

// Arm (re)starts the countdown for the round.
func (c *Clock) Arm(ctx context.Context, turn game.TurnRef) error {
	return c.rdb.Set(ctx, Key(turn), 1, c.timeout).Err()
}

func (c *Clock) Disarm(ctx context.Context, turn game.TurnRef) error {
	return c.rdb.Del(ctx, Key(turn)).Err()
}
