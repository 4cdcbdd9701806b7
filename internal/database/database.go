// internal/database/database.go
package database

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"
)

// DB is the shared connection pool. Nil when the server runs without
// persistence; callers check before issuing queries.
var DB *pgxpool.Pool

// Connect initializes the global pool and verifies connectivity.
func Connect(ctx context.Context, databaseURL string) error {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return err
	}
	DB = pool
	return nil
}

// Migrate creates the persistence schema if it does not exist.
func Migrate(ctx context.Context) error {
	if DB == nil {
		return nil
	}
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS games (
			id UUID PRIMARY KEY,
			status TEXT NOT NULL,
			num_players INT NOT NULL,
			prize_pool BIGINT NOT NULL,
			winner TEXT,
			snapshot JSONB,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS game_results (
			game_id UUID PRIMARY KEY REFERENCES games(id),
			winner TEXT NOT NULL,
			final_state JSONB NOT NULL,
			finished_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS escrow_accounts (
			wallet TEXT PRIMARY KEY,
			balance BIGINT NOT NULL DEFAULT 0,
			updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
	}
	for _, stmt := range stmts {
		if _, err := DB.Exec(ctx, stmt); err != nil {
			return err
		}
	}
	return nil
}

// UpsertGameSnapshot persists the current state of a running game so a
// restarted server can resume or audit it. Called from a goroutine; errors
// are logged, not surfaced to gameplay.
func UpsertGameSnapshot(gameID uuid.UUID, status string, numPlayers int, prizePool uint64, winner string, snapshot interface{}) {
	if DB == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	raw, err := json.Marshal(snapshot)
	if err != nil {
		logrus.WithError(err).WithField("game_id", gameID).Error("failed to marshal game snapshot")
		return
	}
	_, err = DB.Exec(ctx, `
		INSERT INTO games (id, status, num_players, prize_pool, winner, snapshot, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (id) DO UPDATE
		SET status = $2, num_players = $3, prize_pool = $4, winner = $5, snapshot = $6, updated_at = now()`,
		gameID, status, numPlayers, int64(prizePool), winner, raw)
	if err != nil {
		logrus.WithError(err).WithField("game_id", gameID).Error("failed to upsert game snapshot")
	}
}

// StoreFinalGameState records the terminal state of a finished game.
func StoreFinalGameState(ctx context.Context, gameID uuid.UUID, winner string, finalState interface{}) error {
	if DB == nil {
		return nil
	}
	raw, err := json.Marshal(finalState)
	if err != nil {
		return err
	}
	_, err = DB.Exec(ctx, `
		INSERT INTO game_results (game_id, winner, final_state)
		VALUES ($1, $2, $3)
		ON CONFLICT (game_id) DO NOTHING`,
		gameID, winner, raw)
	return err
}

// Close tears down the pool. Safe to call with no pool.
func Close() {
	if DB != nil {
		DB.Close()
		DB = nil
	}
}
