package results

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"bollywoodgo/internal/redis/redis_functions"
	"bollywoodgo/internal/services/game"

	"github.com/redis/go-redis/v9"
)

const (
	RoundsStream        = "rounds_stream"
	ActiveRoomsKey      = "rstats:active"
	redisStatsKeyPrefix = "rstats:"
	DefaultStatsTTL     = 24 * time.Hour
)

var (
	ErrStatsNotFound = errors.New("no rounds recorded for room")
)

// RoomStats are the running counters of one room instance. Wins and fails are
// keyed by the guessing team.
type RoomStats struct {
	RoomID    string              `json:"roomId"`
	Instance  string              `json:"instance"`
	Rounds    int                 `json:"rounds"`
	Wins      map[game.TeamID]int `json:"wins"`
	Fails     map[game.TeamID]int `json:"fails"`
	Scores    map[game.TeamID]int `json:"scores"`
	LastRound int                 `json:"lastRound"`
	UpdatedAt time.Time           `json:"updatedAt" example:"2025-07-27T16:05:05Z"`
}

type RoundRecord struct {
	ID           int64        `json:"id"`
	RoomID       string       `json:"roomId"`
	Instance     string       `json:"instance"`
	Round        int          `json:"round"`
	SetterTeam   game.TeamID  `json:"setterTeam"`
	GuessingTeam game.TeamID  `json:"guessingTeam"`
	Outcome      game.Outcome `json:"outcome" example:"win"`
	Word         string       `json:"word" example:"SHOLAY"`
	Points       int          `json:"points"`
	WrongGuesses int          `json:"wrongGuesses"`
	ScoreA       int          `json:"scoreA"`
	ScoreB       int          `json:"scoreB"`
	FinishedAt   time.Time    `json:"finishedAt" example:"2025-07-27T16:05:05Z"`
}

type LeaderboardEntry struct {
	Name   string `json:"name"`
	Wins   int    `json:"wins"`
	Rounds int    `json:"rounds"`
}

type IResultsService interface {
	RecordRound(ctx context.Context, res game.RoundResult) error
	RoomStats(ctx context.Context, roomID, instance string) (*RoomStats, error)
	RoomHistory(ctx context.Context, roomID, instance string, limit, offset int) ([]RoundRecord, error)
	Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error)
}

type resultsService struct {
	rdc      redis.Cmdable
	db       *sql.DB
	statsTTL time.Duration
}

var _ game.ResultRecorder = (*resultsService)(nil)

func NewResultsService(rdc redis.Cmdable, db *sql.DB, statsTTL time.Duration) IResultsService {
	if statsTTL <= 0 {
		statsTTL = DefaultStatsTTL
	}
	return &resultsService{rdc: rdc, db: db, statsTTL: statsTTL}
}

// StatsKey is "rstats:<instance>". Counters follow the room instance, so a room
// recreated under an old ID starts from zero.
func StatsKey(instance string) string { return redisStatsKeyPrefix + instance }

// RecordRound appends the round to the stream and bumps the room counters in
// one Redis function call; syncrounds moves the stream into Postgres.
func (svc *resultsService) RecordRound(ctx context.Context, res game.RoundResult) error {
	args, err := recordArgs(res, svc.statsTTL)
	if err != nil {
		return err
	}
	return svc.rdc.FCall(ctx, redis_functions.RoundRecord,
		[]string{RoundsStream, StatsKey(res.Instance), ActiveRoomsKey},
		args...,
	).Err()
}

func recordArgs(res game.RoundResult, ttl time.Duration) ([]any, error) {
	players, err := json.Marshal(res.Players)
	if err != nil {
		return nil, err
	}
	return []any{
		res.RoomID,
		res.Instance,
		res.Round,
		string(res.SetterTeam),
		string(res.GuessingTeam),
		string(res.Outcome),
		res.Word,
		res.Points,
		res.WrongGuesses,
		res.ScoreA,
		res.ScoreB,
		string(players),
		res.FinishedAt.Unix(),
		int(ttl.Seconds()),
	}, nil
}

// RoomStats serves the live Redis counters and falls back to the last copy
// mirrored into Postgres once the hash has expired. An empty instance picks the
// most recently updated instance of roomID.
func (svc *resultsService) RoomStats(ctx context.Context, roomID, instance string) (*RoomStats, error) {
	if instance != "" {
		snap, err := svc.rdc.HGetAll(ctx, StatsKey(instance)).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return nil, err
		}
		if len(snap) != 0 {
			return StatsFromHash(instance, snap), nil
		}
	}

	const cols = `SELECT room_id, room_instance, rounds, wins_a, wins_b, fails_a, fails_b,
	                     score_a, score_b, last_round, updated_at
	                FROM room_stats`
	q, arg := cols+` WHERE room_instance = $1`, instance
	if instance == "" {
		q, arg = cols+` WHERE room_id = $1 ORDER BY updated_at DESC LIMIT 1`, roomID
	}
	st := newStats(roomID, instance)
	var winsA, winsB, failsA, failsB, scoreA, scoreB int
	err := svc.db.QueryRowContext(ctx, q, arg).Scan(
		&st.RoomID, &st.Instance, &st.Rounds, &winsA, &winsB, &failsA, &failsB,
		&scoreA, &scoreB, &st.LastRound, &st.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStatsNotFound
		}
		return nil, err
	}
	st.Wins[game.TeamA], st.Wins[game.TeamB] = winsA, winsB
	st.Fails[game.TeamA], st.Fails[game.TeamB] = failsA, failsB
	st.Scores[game.TeamA], st.Scores[game.TeamB] = scoreA, scoreB
	return st, nil
}

func newStats(roomID, instance string) *RoomStats {
	return &RoomStats{
		RoomID:   roomID,
		Instance: instance,
		Wins:   map[game.TeamID]int{game.TeamA: 0, game.TeamB: 0},
		Fails:  map[game.TeamID]int{game.TeamA: 0, game.TeamB: 0},
		Scores: map[game.TeamID]int{game.TeamA: 0, game.TeamB: 0},
	}
}

// StatsFromHash decodes an "rstats:<instance>" hash.
func StatsFromHash(instance string, h map[string]string) *RoomStats {
	st := newStats(h["rid"], instance)
	st.Rounds = atoi(h["rounds"])
	st.LastRound = atoi(h["last_round"])
	st.UpdatedAt = ts(h["updated_at"])
	for _, team := range []game.TeamID{game.TeamA, game.TeamB} {
		st.Wins[team] = atoi(h["wins:"+string(team)])
		st.Fails[team] = atoi(h["fails:"+string(team)])
		st.Scores[team] = atoi(h["score:"+string(team)])
	}
	return st
}

// RoomHistory lists archived rounds of roomID, restricted to one instance
// unless instance is empty.
func (svc *resultsService) RoomHistory(ctx context.Context, roomID, instance string, limit, offset int) ([]RoundRecord, error) {
	if limit == 0 {
		limit = 10
	}
	const q = `SELECT id, room_id, room_instance, round, setter_team, guessing_team,
	                  outcome, word, points, wrong_guesses, score_a, score_b, finished_at
	             FROM round_results
	            WHERE room_id = $1 AND ($2 = '' OR room_instance = $2)
	         ORDER BY finished_at DESC, id DESC
	            LIMIT $3 OFFSET $4`
	rows, err := svc.db.QueryContext(ctx, q, roomID, instance, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]RoundRecord, 0, limit)
	for rows.Next() {
		var r RoundRecord
		if err := rows.Scan(&r.ID, &r.RoomID, &r.Instance, &r.Round, &r.SetterTeam, &r.GuessingTeam,
			&r.Outcome, &r.Word, &r.Points, &r.WrongGuesses, &r.ScoreA, &r.ScoreB,
			&r.FinishedAt); err != nil {
			return nil, err
		}
		list = append(list, r)
	}
	return list, rows.Err()
}

// Leaderboard ranks players by rounds won as part of the guessing team.
func (svc *resultsService) Leaderboard(ctx context.Context, limit int) ([]LeaderboardEntry, error) {
	if limit == 0 {
		limit = 10
	}
	const q = `SELECT name,
	                  count(*) FILTER (WHERE won) AS wins,
	                  count(*)                    AS rounds
	             FROM round_players
	         GROUP BY name
	         ORDER BY wins DESC, rounds ASC, name ASC
	            LIMIT $1`
	rows, err := svc.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	list := make([]LeaderboardEntry, 0, limit)
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Name, &e.Wins, &e.Rounds); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// helpers
func ts(s string) time.Time {
	i, _ := strconv.ParseInt(s, 10, 64)
	return time.Unix(i, 0).UTC()
}
func atoi(s string) int {
	v, _ := strconv.Atoi(s)
	return v
}
