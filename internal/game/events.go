// internal/game/events.go
package game

// GameEventType represents the type of a game-related event broadcast via
// WebSockets.
type GameEventType string

// Constants defining the various GameEvent types used for WebSocket
// communication.
const (
	EventPlayerJoined      GameEventType = "game_player_joined"    // Public: a seat was taken.
	EventGameStarted       GameEventType = "game_started"          // Public: hands dealt, play begins.
	EventPlayerTurn        GameEventType = "game_player_turn"      // Public: whose turn it is now.
	EventPlayerDrewTile    GameEventType = "player_drew_tile"      // Public: player drew (tile hidden).
	EventPrivateDrawnTile  GameEventType = "private_drawn_tile"    // Private: the tile that was drawn.
	EventPlayerPlayedTiles GameEventType = "player_played_tiles"   // Public: table after a play.
	EventGameEnd           GameEventType = "game_end"              // Public: winner and scores.
	EventPrizeClaimed      GameEventType = "prize_claimed"         // Public: payout executed.
	EventPrivateSyncState  GameEventType = "private_sync_state"    // Private: full state for one player.
	EventPrivateHand       GameEventType = "private_hand"          // Private: player's current hand.
	EventPrivateError      GameEventType = "private_action_error"  // Private: rejected action.
)

// WireTile is the client-facing tile representation.
type WireTile struct {
	Joker bool   `json:"joker,omitempty"`
	Color string `json:"color,omitempty"`
	Rank  uint8  `json:"rank,omitempty"`
}

// WireMeld is the client-facing meld representation.
type WireMeld struct {
	Kind  string     `json:"kind"` // "set" or "run"
	Tiles []WireTile `json:"tiles"`
}

// EventPlayer identifies a player within a GameEvent payload.
type EventPlayer struct {
	Wallet string `json:"wallet"`
}

// GameEvent is the standard structure for broadcasting game state changes
// and actions.
type GameEvent struct {
	Type   GameEventType          `json:"type"`
	Player *EventPlayer           `json:"player,omitempty"` // The player initiating or targeted by the event.
	Tile   *WireTile              `json:"tile,omitempty"`   // Primary tile involved.
	Table  []WireMeld             `json:"table,omitempty"`  // Table layout after a play.

	Payload map[string]interface{} `json:"payload,omitempty"` // Additional arbitrary data.

	State *SyncGameState `json:"state,omitempty"` // Full per-player state for sync events.
}
