package syncstats

import (
	"context"
	"database/sql"
	"time"

	"bollywoodgo/internal/services/game"
	"bollywoodgo/internal/services/results"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	syncEvery   = 10 * time.Second
	pipeTimeout = 1500 * time.Millisecond
)

// Run mirrors every active room instance's Redis counters into Postgres every
// 10 s, so stats outlive the hash TTL.
func Run(ctx context.Context, rdc *redis.Client, db *sql.DB) {
	tk := time.NewTicker(syncEvery)
	go func() {
		defer tk.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-tk.C:
				syncOnce(ctx, rdc, db)
			}
		}
	}()
}

func syncOnce(ctx context.Context, rdc redis.Cmdable, db *sql.DB) {
	ids, err := rdc.SMembers(ctx, results.ActiveRoomsKey).Result()
	if err != nil || len(ids) == 0 {
		return
	}

	// 1. fetch all hashes in one pipelined round-trip
	pctx, cancel := context.WithTimeout(ctx, pipeTimeout)
	defer cancel()
	pipe := rdc.Pipeline()
	cmds := make([]*redis.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(pctx, results.StatsKey(id))
	}
	if _, err = pipe.Exec(pctx); err != nil {
		zap.L().Error("syncstats.pipeline", zap.Error(err))
		return
	}

	// 2. bulk-upsert into Postgres
	const upsert = `
	INSERT INTO room_stats (room_instance, room_id, rounds, wins_a, wins_b, fails_a,
	                        fails_b, score_a, score_b, last_round, updated_at)
	     VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
	ON CONFLICT (room_instance) DO UPDATE
	       SET room_id=EXCLUDED.room_id,
	           rounds=EXCLUDED.rounds,
	           wins_a=EXCLUDED.wins_a, wins_b=EXCLUDED.wins_b,
	           fails_a=EXCLUDED.fails_a, fails_b=EXCLUDED.fails_b,
	           score_a=EXCLUDED.score_a, score_b=EXCLUDED.score_b,
	           last_round=EXCLUDED.last_round,
	           updated_at=EXCLUDED.updated_at`

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		zap.L().Error("syncstats.tx_begin", zap.Error(err))
		return
	}
	defer tx.Rollback()

	var expired []any
	for i, cmd := range cmds {
		data, err := cmd.Result()
		if err != nil || len(data) == 0 {
			expired = append(expired, ids[i]) // hash TTL ran out
			continue
		}
		st := results.StatsFromHash(ids[i], data)
		if _, err := tx.ExecContext(ctx, upsert,
			st.Instance, st.RoomID, st.Rounds,
			st.Wins[game.TeamA], st.Wins[game.TeamB],
			st.Fails[game.TeamA], st.Fails[game.TeamB],
			st.Scores[game.TeamA], st.Scores[game.TeamB],
			st.LastRound, st.UpdatedAt); err != nil {
			zap.L().Error("syncstats.upsert", zap.String("room", st.RoomID), zap.String("instance", st.Instance), zap.Error(err))
			return
		}
	}

	if err = tx.Commit(); err != nil {
		zap.L().Error("syncstats.commit", zap.Error(err))
		return
	}
	if len(expired) > 0 {
		if err := rdc.SRem(ctx, results.ActiveRoomsKey, expired...).Err(); err != nil {
			zap.L().Warn("syncstats.srem", zap.Error(err))
		}
	}
}
