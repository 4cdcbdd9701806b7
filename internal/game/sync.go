// internal/game/sync.go
package game

import (
	"github.com/google/uuid"

	"github.com/zsh28/Rummikub/engine"
)

// SyncPlayerState represents the state of a single seat, obfuscated for a
// specific observer.
type SyncPlayerState struct {
	Wallet        string `json:"wallet"`
	TileCount     int    `json:"tileCount"`
	HasOpened     bool   `json:"hasOpened"`
	Connected     bool   `json:"connected"`
	IsCurrentTurn bool   `json:"isCurrentTurn"`
	Score         int    `json:"score,omitempty"`
	// RevealedHand is populated only for the player requesting the state.
	RevealedHand []WireTile `json:"revealedHand,omitempty"`
}

// SyncGameState represents the overall game state, obfuscated for a
// specific observer. Only the requesting player's tiles are revealed;
// everyone else is reduced to a count.
type SyncGameState struct {
	GameID       uuid.UUID         `json:"gameId"`
	Status       string            `json:"status"`
	CurrentTurn  string            `json:"currentTurn,omitempty"`
	PoolSize     int               `json:"poolSize"`
	PrizePool    uint64            `json:"prizePool"`
	PrizeClaimed bool              `json:"prizeClaimed"`
	Winner       string            `json:"winner,omitempty"`
	Table        []WireMeld        `json:"table"`
	Players      []SyncPlayerState `json:"players"`
}

func statusToString(s engine.GameStatus) string {
	switch s {
	case engine.WaitingForPlayers:
		return "waiting_for_players"
	case engine.InProgress:
		return "in_progress"
	case engine.Finished:
		return "finished"
	default:
		return "?"
	}
}

// syncStateFor generates a snapshot of the game state tailored to the
// perspective of the requesting wallet. Assumes the game lock is held.
func (h *HostedGame) syncStateFor(forWallet string) SyncGameState {
	eng := h.Eng
	state := SyncGameState{
		GameID:       h.ID,
		Status:       statusToString(eng.Status),
		PoolSize:     len(eng.Pool),
		PrizePool:    eng.PrizePool,
		PrizeClaimed: eng.PrizeClaimed,
		Winner:       eng.Winner,
		Table:        meldsToWire(eng.TableMelds),
	}

	if eng.Status == engine.InProgress {
		state.CurrentTurn = eng.Players[eng.CurrentTurn].Addr
	}

	state.Players = make([]SyncPlayerState, 0, eng.NumPlayers)
	for i := 0; i < int(eng.NumPlayers); i++ {
		p := &eng.Players[i]
		ps := SyncPlayerState{
			Wallet:        p.Addr,
			TileCount:     int(p.TileCount),
			HasOpened:     p.HasOpened,
			IsCurrentTurn: eng.Status == engine.InProgress && int(eng.CurrentTurn) == i,
		}
		if sp := h.playerByWallet(p.Addr); sp != nil {
			ps.Connected = sp.Connected
		}
		if eng.Status == engine.Finished {
			ps.Score = int(p.Score)
		}
		if p.Addr == forWallet {
			ps.RevealedHand = handToWire(p.Hand())
		}
		state.Players = append(state.Players, ps)
	}
	return state
}
