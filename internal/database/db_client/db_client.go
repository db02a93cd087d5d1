package db_client

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"go.uber.org/zap"
)

func Open(host, port, user, pass, database string) (*sql.DB, error) {
	dsn := fmt.Sprintf("postgres://%s:%s@%s:%s/%s",
		user, pass, host, port, database,
	)
	return OpenDSN(dsn)
}

// OpenDSN opens a pgx-backed pool and pings it.
func OpenDSN(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(50)
	db.SetConnMaxIdleTime(time.Minute)
	return db, db.Ping()
}

// schema is idempotent; Migrate runs it on every boot.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS round_results (
	    id            BIGSERIAL PRIMARY KEY,
	    stream_id     TEXT        NOT NULL UNIQUE,
	    room_id       TEXT        NOT NULL,
	    room_instance TEXT        NOT NULL,
	    round         INT         NOT NULL,
	    setter_team   CHAR(1)     NOT NULL,
	    guessing_team CHAR(1)     NOT NULL,
	    outcome       TEXT        NOT NULL,
	    word          TEXT        NOT NULL,
	    points        INT         NOT NULL DEFAULT 0,
	    wrong_guesses INT         NOT NULL DEFAULT 0,
	    score_a       INT         NOT NULL DEFAULT 0,
	    score_b       INT         NOT NULL DEFAULT 0,
	    finished_at   TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS round_results_room_idx ON round_results (room_id, room_instance, round DESC)`,
	`CREATE TABLE IF NOT EXISTS round_players (
	    result_id BIGINT  NOT NULL REFERENCES round_results (id) ON DELETE CASCADE,
	    name      TEXT    NOT NULL,
	    team      CHAR(1) NOT NULL,
	    won       BOOLEAN NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS round_players_name_idx ON round_players (name)`,
	`CREATE TABLE IF NOT EXISTS room_stats (
	    room_instance TEXT PRIMARY KEY,
	    room_id       TEXT NOT NULL,
	    rounds        INT  NOT NULL DEFAULT 0,
	    wins_a        INT  NOT NULL DEFAULT 0,
	    wins_b        INT  NOT NULL DEFAULT 0,
	    fails_a       INT  NOT NULL DEFAULT 0,
	    fails_b       INT  NOT NULL DEFAULT 0,
	    score_a       INT  NOT NULL DEFAULT 0,
	    score_b       INT  NOT NULL DEFAULT 0,
	    last_round    INT  NOT NULL DEFAULT 0,
	    updated_at    TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS room_stats_room_idx ON room_stats (room_id, updated_at DESC)`,
}

// Migrate creates the archive tables if they are missing.
func Migrate(ctx context.Context, db *sql.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate step %d: %w", i, err)
		}
	}
	zap.L().Info("db.migrated", zap.Int("steps", len(schema)))
	return nil
}
