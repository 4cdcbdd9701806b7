// internal/models/models.go
package models

import (
	"github.com/coder/websocket"
	"github.com/google/uuid"
)

// User holds account-level identity for a connected wallet.
type User struct {
	ID     uuid.UUID `json:"id"`
	Wallet string    `json:"wallet"`
}

// Player represents a seated participant in a hosted game, including the
// live WebSocket connection if they are online.
type Player struct {
	ID        uuid.UUID       `json:"id"`
	Wallet    string          `json:"wallet"`
	Conn      *websocket.Conn `json:"-"`
	Connected bool            `json:"connected"`
	User      *User           `json:"user,omitempty"`
}

// GameAction is a client-submitted action envelope, decoded from the
// WebSocket read loop and routed by the game host.
type GameAction struct {
	ActionType string                 `json:"action"`
	Payload    map[string]interface{} `json:"payload,omitempty"`
}
