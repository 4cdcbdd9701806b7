// internal/game/manager.go
package game

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/zsh28/Rummikub/engine"
	"github.com/zsh28/Rummikub/internal/ledger"
)

// ErrGameNotFound is returned when a game ID resolves to nothing.
var ErrGameNotFound = errors.New("game not found")

// Manager owns all hosted games in the process: creation, lookup, event
// fan-out to WebSocket connections and end-of-game cleanup.
type Manager struct {
	mu     sync.Mutex
	games  map[uuid.UUID]*HostedGame
	escrow ledger.Escrow

	// entryFee overrides the engine default when non-zero.
	entryFee uint64
	nextID   uint64
}

// NewManager creates an empty manager backed by the given escrow.
func NewManager(escrow ledger.Escrow, entryFee uint64) *Manager {
	return &Manager{
		games:    make(map[uuid.UUID]*HostedGame),
		escrow:   escrow,
		entryFee: entryFee,
	}
}

// CreateGame initializes a new game with the given seat count and wires
// its broadcast callbacks.
func (m *Manager) CreateGame(authority string, maxPlayers uint8) (*HostedGame, error) {
	m.mu.Lock()
	m.nextID++
	id := m.nextID
	m.mu.Unlock()

	eng, err := engine.NewGame(id, authority, maxPlayers, uint64(time.Now().UnixNano()))
	if err != nil {
		return nil, err
	}
	if m.entryFee > 0 {
		eng.EntryFee = m.entryFee
	}

	h := NewHostedGame(eng, m.escrow)
	h.BroadcastFn = func(ev GameEvent) { m.broadcast(h, ev) }
	h.BroadcastToPlayerFn = func(wallet string, ev GameEvent) { m.broadcastToPlayer(h, wallet, ev) }
	h.OnGameEnd = func(gameID uuid.UUID, winner string, scores map[string]int) {
		logrus.WithFields(logrus.Fields{"game_id": gameID, "winner": winner}).Info("game ended")
	}

	m.mu.Lock()
	m.games[h.ID] = h
	m.mu.Unlock()

	logrus.WithFields(logrus.Fields{"game_id": h.ID, "max_players": maxPlayers}).Info("game created")
	return h, nil
}

// GetGame resolves a game by ID.
func (m *Manager) GetGame(id uuid.UUID) (*HostedGame, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.games[id]
	if !ok {
		return nil, ErrGameNotFound
	}
	return h, nil
}

// GameSummary is the lobby listing entry for one game.
type GameSummary struct {
	ID         uuid.UUID `json:"id"`
	Status     string    `json:"status"`
	NumPlayers uint8     `json:"numPlayers"`
	MaxPlayers uint8     `json:"maxPlayers"`
	EntryFee   uint64    `json:"entryFee"`
	PrizePool  uint64    `json:"prizePool"`
}

// ListGames returns a summary of every hosted game.
func (m *Manager) ListGames() []GameSummary {
	m.mu.Lock()
	games := make([]*HostedGame, 0, len(m.games))
	for _, h := range m.games {
		games = append(games, h)
	}
	m.mu.Unlock()

	out := make([]GameSummary, 0, len(games))
	for _, h := range games {
		h.Mu.Lock()
		out = append(out, GameSummary{
			ID:         h.ID,
			Status:     statusToString(h.Eng.Status),
			NumPlayers: h.Eng.NumPlayers,
			MaxPlayers: h.Eng.MaxPlayers,
			EntryFee:   h.Eng.EntryFee,
			PrizePool:  h.Eng.PrizePool,
		})
		h.Mu.Unlock()
	}
	return out
}

// MixRandomness folds operator-supplied randomness into a waiting game's
// shuffle, the hook a verifiable randomness callback lands on.
func (m *Manager) MixRandomness(id uuid.UUID, randomness [32]byte) error {
	h, err := m.GetGame(id)
	if err != nil {
		return err
	}
	h.Mu.Lock()
	defer h.Mu.Unlock()
	if err := h.Eng.MixRandomness(randomness); err != nil {
		return err
	}
	h.logAction("", "randomness_mixed", nil)
	return nil
}

// ExportGame returns a deep copy of a game's authoritative record, the
// handoff point for delegating a game to another execution venue.
func (m *Manager) ExportGame(id uuid.UUID) (*engine.Game, error) {
	h, err := m.GetGame(id)
	if err != nil {
		return nil, err
	}
	h.Mu.Lock()
	defer h.Mu.Unlock()
	return h.Eng.Clone(), nil
}

// ImportGame adopts an authoritative record produced elsewhere, wiring it
// into a fresh hosted shell. Players reconnect through the usual join path.
func (m *Manager) ImportGame(eng *engine.Game) *HostedGame {
	h := NewHostedGame(eng.Clone(), m.escrow)
	h.BroadcastFn = func(ev GameEvent) { m.broadcast(h, ev) }
	h.BroadcastToPlayerFn = func(wallet string, ev GameEvent) { m.broadcastToPlayer(h, wallet, ev) }

	m.mu.Lock()
	m.games[h.ID] = h
	m.mu.Unlock()

	logrus.WithField("game_id", h.ID).Info("game imported")
	return h
}

// broadcast writes an event to every connected player of a game. Assumes
// the game lock is held by the caller.
func (m *Manager) broadcast(h *HostedGame, ev GameEvent) {
	for _, p := range h.Players {
		if p.Connected && p.Conn != nil {
			writeEvent(p.Conn, ev)
		}
	}
}

// broadcastToPlayer writes an event to a single connected player. Assumes
// the game lock is held by the caller.
func (m *Manager) broadcastToPlayer(h *HostedGame, wallet string, ev GameEvent) {
	p := h.playerByWallet(wallet)
	if p != nil && p.Connected && p.Conn != nil {
		writeEvent(p.Conn, ev)
	}
}

// writeEvent serializes one event onto a connection with a short deadline
// so a stalled client cannot block the game.
func writeEvent(conn *websocket.Conn, ev GameEvent) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := wsjson.Write(ctx, conn, ev); err != nil {
		logrus.WithError(err).Debug("event write failed")
	}
}
