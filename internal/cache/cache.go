// internal/cache/cache.go
package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// Rdb is the shared Redis client. Nil when the server runs without the
// action log; callers check before publishing.
var Rdb *redis.Client

// Connect initializes the global client and verifies connectivity.
func Connect(ctx context.Context, addr string, db int) error {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return err
	}
	Rdb = client
	return nil
}

// GameActionRecord is one entry of the per-game action log, consumed by the
// historian for replay and dispute resolution.
type GameActionRecord struct {
	GameID        uuid.UUID              `json:"gameId"`
	ActionIndex   int                    `json:"actionIndex"`
	ActorWallet   string                 `json:"actorWallet"`
	ActionType    string                 `json:"actionType"`
	ActionPayload map[string]interface{} `json:"actionPayload"`
	Timestamp     int64                  `json:"timestamp"`
}

// PublishGameAction appends a record to the game's action list and signals
// the historian queue.
func PublishGameAction(ctx context.Context, rec GameActionRecord) error {
	if Rdb == nil {
		return nil
	}
	raw, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	key := fmt.Sprintf("game:%s:actions", rec.GameID)
	pipe := Rdb.Pipeline()
	pipe.RPush(ctx, key, raw)
	pipe.RPush(ctx, "historian:queue", raw)
	_, err = pipe.Exec(ctx)
	return err
}

// Close tears down the client. Safe to call with no client.
func Close() {
	if Rdb != nil {
		Rdb.Close()
		Rdb = nil
	}
}
