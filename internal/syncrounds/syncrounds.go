package syncrounds

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"bollywoodgo/internal/services/game"
	"bollywoodgo/internal/services/results"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Run tails the rounds stream and persists every resolved round.
func Run(ctx context.Context, rdc *redis.Client, db *sql.DB) {
	go func() {
		lastID := "0-0"
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			// block up to 2 s for new entries
			res, err := rdc.XRead(ctx, &redis.XReadArgs{
				Streams: []string{results.RoundsStream, lastID},
				Count:   100,
				Block:   2000 * time.Millisecond,
			}).Result()
			if err != nil && !errors.Is(err, redis.Nil) {
				if ctx.Err() != nil {
					return
				}
				zap.L().Warn("syncrounds.xread", zap.Error(err))
				time.Sleep(time.Second)
				continue
			}
			if len(res) == 0 || len(res[0].Messages) == 0 {
				continue
			}
			entries := res[0].Messages
			if err := persist(ctx, db, entries); err != nil {
				zap.L().Error("syncrounds.persist", zap.Int("entries", len(entries)), zap.Error(err))
				time.Sleep(time.Second)
				continue // retry the same batch
			}
			lastID = entries[len(entries)-1].ID
		}
	}()
}

type entry struct {
	streamID string
	result   game.RoundResult
}

func decode(m redis.XMessage) (entry, error) {
	str := func(k string) string {
		s, _ := m.Values[k].(string)
		return s
	}
	num := func(k string) (int, error) {
		v, err := strconv.Atoi(str(k))
		if err != nil {
			return 0, fmt.Errorf("field %s: %w", k, err)
		}
		return v, nil
	}

	e := entry{streamID: m.ID}
	r := &e.result
	r.RoomID = str("rid")
	r.Instance = str("inst")
	r.SetterTeam = game.TeamID(str("setter"))
	r.GuessingTeam = game.TeamID(str("guessing"))
	r.Outcome = game.Outcome(str("outcome"))
	r.Word = str("word")
	if r.RoomID == "" || r.Instance == "" {
		return e, errors.New("missing rid or inst")
	}

	var err error
	for k, dst := range map[string]*int{
		"round":   &r.Round,
		"points":  &r.Points,
		"wrong":   &r.WrongGuesses,
		"score_a": &r.ScoreA,
		"score_b": &r.ScoreB,
	} {
		if *dst, err = num(k); err != nil {
			return e, err
		}
	}
	at, err := strconv.ParseInt(str("at"), 10, 64)
	if err != nil {
		return e, fmt.Errorf("field at: %w", err)
	}
	r.FinishedAt = time.Unix(at, 0).UTC()

	if p := str("players"); p != "" && p != "null" {
		if err := json.Unmarshal([]byte(p), &r.Players); err != nil {
			return e, fmt.Errorf("field players: %w", err)
		}
	}
	return e, nil
}

func persist(ctx context.Context, db *sql.DB, msgs []redis.XMessage) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	const insRound = `INSERT INTO round_results (stream_id, room_id, room_instance, round,
	                        setter_team, guessing_team, outcome, word, points,
	                        wrong_guesses, score_a, score_b, finished_at)
	                  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	                  ON CONFLICT (stream_id) DO NOTHING
	                  RETURNING id`
	const insPlayer = `INSERT INTO round_players (result_id, name, team, won)
	                   VALUES ($1, $2, $3, $4)`

	for _, m := range msgs {
		e, err := decode(m)
		if err != nil {
			zap.L().Warn("syncrounds.decode", zap.String("id", m.ID), zap.Error(err))
			continue
		}
		r := e.result

		var id int64
		err = tx.QueryRowContext(ctx, insRound,
			e.streamID, r.RoomID, r.Instance, r.Round, string(r.SetterTeam), string(r.GuessingTeam),
			string(r.Outcome), r.Word, r.Points, r.WrongGuesses, r.ScoreA, r.ScoreB,
			r.FinishedAt,
		).Scan(&id)
		if errors.Is(err, sql.ErrNoRows) {
			continue // already archived
		}
		if err != nil {
			return err
		}
		for _, p := range r.Players {
			if _, err := tx.ExecContext(ctx, insPlayer, id, p.Name, string(p.Team), p.Won); err != nil {
				return err
			}
		}
	}
	return tx.Commit()
}
