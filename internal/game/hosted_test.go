// internal/game/hosted_test.go
package game

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zsh28/Rummikub/engine"
	"github.com/zsh28/Rummikub/internal/ledger"
	"github.com/zsh28/Rummikub/internal/models"
)

// mockBroadcaster captures game events for testing assertions.
type mockBroadcaster struct {
	mu           sync.Mutex
	allEvents    []GameEvent
	playerEvents map[string][]GameEvent
}

func newMockBroadcaster() *mockBroadcaster {
	return &mockBroadcaster{playerEvents: make(map[string][]GameEvent)}
}

func (mb *mockBroadcaster) broadcastFn(ev GameEvent) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.allEvents = append(mb.allEvents, ev)
}

func (mb *mockBroadcaster) broadcastToPlayerFn(wallet string, ev GameEvent) {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	mb.playerEvents[wallet] = append(mb.playerEvents[wallet], ev)
}

func (mb *mockBroadcaster) findEventByType(eventType GameEventType) *GameEvent {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	for i := len(mb.allEvents) - 1; i >= 0; i-- {
		if mb.allEvents[i].Type == eventType {
			return &mb.allEvents[i]
		}
	}
	return nil
}

func (mb *mockBroadcaster) findPlayerEventByType(wallet string, eventType GameEventType) *GameEvent {
	mb.mu.Lock()
	defer mb.mu.Unlock()
	events := mb.playerEvents[wallet]
	for i := len(events) - 1; i >= 0; i-- {
		if events[i].Type == eventType {
			return &events[i]
		}
	}
	return nil
}

// setupHostedGame builds a hosted 2-player game with a funded in-memory
// escrow, both seats filled and hands dealt.
func setupHostedGame(t *testing.T) (*HostedGame, *ledger.Memory, *mockBroadcaster) {
	t.Helper()
	escrow := ledger.NewMemory("house")
	escrow.Fund("alice", engine.DefaultEntryFee)
	escrow.Fund("bob", engine.DefaultEntryFee)

	eng, err := engine.NewGame(1, "authority", 2, 42)
	require.NoError(t, err)

	h := NewHostedGame(eng, escrow)
	mb := newMockBroadcaster()
	h.BroadcastFn = mb.broadcastFn
	h.BroadcastToPlayerFn = mb.broadcastToPlayerFn

	ctx := context.Background()
	require.NoError(t, h.Join(ctx, "alice", nil))
	require.NoError(t, h.Join(ctx, "bob", nil))
	require.Equal(t, engine.InProgress, h.Eng.Status)

	// Mark both players connected so private events are delivered; tests
	// run without real WebSocket connections.
	for _, p := range h.Players {
		p.Connected = true
	}
	return h, escrow, mb
}

func TestJoinEscrowsEntryFee(t *testing.T) {
	h, escrow, mb := setupHostedGame(t)
	ctx := context.Background()

	alice, _ := escrow.Balance(ctx, "alice")
	bob, _ := escrow.Balance(ctx, "bob")
	assert.Zero(t, alice, "entry fee should have left alice's wallet")
	assert.Zero(t, bob)
	assert.Equal(t, 2*engine.DefaultEntryFee, h.Eng.PrizePool)

	assert.NotNil(t, mb.findEventByType(EventPlayerJoined))
	assert.NotNil(t, mb.findEventByType(EventGameStarted))
	assert.NotNil(t, mb.findEventByType(EventPlayerTurn))
}

func TestJoinInsufficientFunds(t *testing.T) {
	escrow := ledger.NewMemory("house")
	eng, err := engine.NewGame(1, "authority", 2, 42)
	require.NoError(t, err)
	h := NewHostedGame(eng, escrow)
	h.BroadcastFn = func(GameEvent) {}
	h.BroadcastToPlayerFn = func(string, GameEvent) {}

	err = h.Join(context.Background(), "pauper", nil)
	assert.ErrorIs(t, err, ledger.ErrInsufficientFunds)
	assert.Zero(t, h.Eng.NumPlayers)
}

func TestJoinRefundsOnEngineRejection(t *testing.T) {
	h, escrow, _ := setupHostedGame(t)
	ctx := context.Background()

	escrow.Fund("carol", engine.DefaultEntryFee)
	err := h.Join(ctx, "carol", nil)
	require.Error(t, err, "game is already full and started")

	balance, _ := escrow.Balance(ctx, "carol")
	assert.Equal(t, engine.DefaultEntryFee, balance, "stake must be refunded when the seat is refused")
}

func TestHandleDrawAction(t *testing.T) {
	h, _, mb := setupHostedGame(t)

	current := h.Eng.Players[h.Eng.CurrentTurn].Addr
	poolBefore := len(h.Eng.Pool)

	h.HandleAction(current, models.GameAction{ActionType: "action_draw"})

	assert.Equal(t, poolBefore-1, len(h.Eng.Pool))
	assert.NotNil(t, mb.findEventByType(EventPlayerDrewTile))

	private := mb.findPlayerEventByType(current, EventPrivateDrawnTile)
	require.NotNil(t, private, "drawer should receive the tile privately")
	assert.NotNil(t, private.Tile)
}

func TestHandleDrawOutOfTurn(t *testing.T) {
	h, _, mb := setupHostedGame(t)

	notCurrent := "alice"
	if h.Eng.Players[h.Eng.CurrentTurn].Addr == "alice" {
		notCurrent = "bob"
	}
	h.HandleAction(notCurrent, models.GameAction{ActionType: "action_draw"})

	errEv := mb.findPlayerEventByType(notCurrent, EventPrivateError)
	require.NotNil(t, errEv)
	assert.Nil(t, mb.findEventByType(EventPlayerDrewTile))
}

func TestHandlePlayAction(t *testing.T) {
	h, _, mb := setupHostedGame(t)

	current := h.Eng.Players[h.Eng.CurrentTurn].Addr
	idx, err := h.Eng.PlayerIndex(current)
	require.NoError(t, err)

	// Give the current player a guaranteed opening in slots 0-2.
	opening := []engine.Tile{
		engine.NewTile(engine.ColorRed, 10),
		engine.NewTile(engine.ColorBlue, 10),
		engine.NewTile(engine.ColorBlack, 10),
	}
	placeTiles(t, h.Eng, idx, opening)

	payload := map[string]interface{}{
		"tilesFromHand": []interface{}{float64(0), float64(1), float64(2)},
		"table": []interface{}{
			map[string]interface{}{
				"kind": "set",
				"tiles": []interface{}{
					map[string]interface{}{"color": "red", "rank": float64(10)},
					map[string]interface{}{"color": "blue", "rank": float64(10)},
					map[string]interface{}{"color": "black", "rank": float64(10)},
				},
			},
		},
	}
	h.HandleAction(current, models.GameAction{ActionType: "action_play", Payload: payload})

	played := mb.findEventByType(EventPlayerPlayedTiles)
	require.NotNil(t, played, "valid play should broadcast the new table")
	require.Len(t, played.Table, 1)
	assert.Equal(t, "set", played.Table[0].Kind)
	assert.True(t, h.Eng.Players[idx].HasOpened)
}

func TestHandlePlayRejected(t *testing.T) {
	h, _, mb := setupHostedGame(t)
	current := h.Eng.Players[h.Eng.CurrentTurn].Addr

	payload := map[string]interface{}{
		"tilesFromHand": []interface{}{float64(0)},
		"table": []interface{}{
			map[string]interface{}{
				"kind":  "run",
				"tiles": []interface{}{map[string]interface{}{"color": "red", "rank": float64(1)}},
			},
		},
	}
	h.HandleAction(current, models.GameAction{ActionType: "action_play", Payload: payload})

	assert.Nil(t, mb.findEventByType(EventPlayerPlayedTiles))
	assert.NotNil(t, mb.findPlayerEventByType(current, EventPrivateError))
}

func TestWinAndClaimFlow(t *testing.T) {
	h, escrow, mb := setupHostedGame(t)
	ctx := context.Background()

	current := h.Eng.Players[h.Eng.CurrentTurn].Addr
	idx, err := h.Eng.PlayerIndex(current)
	require.NoError(t, err)

	// Shrink the current player's hand to a single winning meld.
	opening := []engine.Tile{
		engine.NewTile(engine.ColorRed, 10),
		engine.NewTile(engine.ColorBlue, 10),
		engine.NewTile(engine.ColorBlack, 10),
	}
	placeTiles(t, h.Eng, idx, opening)
	h.Eng.Players[idx].TileCount = 3

	payload := map[string]interface{}{
		"tilesFromHand": []interface{}{float64(0), float64(1), float64(2)},
		"table": []interface{}{
			map[string]interface{}{
				"kind": "set",
				"tiles": []interface{}{
					map[string]interface{}{"color": "red", "rank": float64(10)},
					map[string]interface{}{"color": "blue", "rank": float64(10)},
					map[string]interface{}{"color": "black", "rank": float64(10)},
				},
			},
		},
	}
	h.HandleAction(current, models.GameAction{ActionType: "action_play", Payload: payload})

	require.Equal(t, engine.Finished, h.Eng.Status)
	endEv := mb.findEventByType(EventGameEnd)
	require.NotNil(t, endEv)
	assert.Equal(t, current, endEv.Payload["winner"])

	// Loser cannot claim.
	loser := "alice"
	if current == "alice" {
		loser = "bob"
	}
	h.HandleAction(loser, models.GameAction{ActionType: "action_claim"})
	assert.NotNil(t, mb.findPlayerEventByType(loser, EventPrivateError))

	// Winner claims the 95% share.
	h.HandleAction(current, models.GameAction{ActionType: "action_claim"})
	claimEv := mb.findEventByType(EventPrizeClaimed)
	require.NotNil(t, claimEv)

	pool := 2 * engine.DefaultEntryFee
	houseFee := pool * engine.HouseFeeBps / 10_000
	winnings, _ := escrow.Balance(ctx, current)
	house, _ := escrow.Balance(ctx, "house")
	assert.Equal(t, pool-houseFee, winnings)
	assert.Equal(t, houseFee, house)

	// Second claim is rejected.
	h.HandleAction(current, models.GameAction{ActionType: "action_claim"})
	after, _ := escrow.Balance(ctx, current)
	assert.Equal(t, winnings, after, "double claim must not pay again")
}

func TestSyncStateObfuscation(t *testing.T) {
	h, _, mb := setupHostedGame(t)

	h.HandleAction("alice", models.GameAction{ActionType: "action_sync"})
	ev := mb.findPlayerEventByType("alice", EventPrivateSyncState)
	require.NotNil(t, ev)
	require.NotNil(t, ev.State)

	state := ev.State
	assert.Equal(t, "in_progress", state.Status)
	assert.Equal(t, 106-2*engine.TilesPerPlayer, state.PoolSize)
	require.Len(t, state.Players, 2)
	for _, ps := range state.Players {
		if ps.Wallet == "alice" {
			assert.Len(t, ps.RevealedHand, engine.TilesPerPlayer, "own hand is revealed")
		} else {
			assert.Empty(t, ps.RevealedHand, "opponent hand stays hidden")
			assert.Equal(t, engine.TilesPerPlayer, ps.TileCount)
		}
	}
}

// placeTiles forces the given tiles into the front of a player's hand,
// swapping them out of the pool or another hand to keep the deck a legal
// multiset.
func placeTiles(t *testing.T, eng *engine.Game, playerIdx int, tiles []engine.Tile) {
	t.Helper()
	p := &eng.Players[playerIdx]
	for slot, want := range tiles {
		if p.Tiles[slot] == want {
			continue
		}
		if swapFromOwnHand(p, slot, want) || swapFromPool(eng, p, slot, want) || swapFromOthers(eng, p, playerIdx, slot, want) {
			continue
		}
		t.Fatalf("tile %#02x not available", uint8(want))
	}
}

func swapFromOwnHand(p *engine.Player, slot int, want engine.Tile) bool {
	for i := slot + 1; i < int(p.TileCount); i++ {
		if p.Tiles[i] == want {
			p.Tiles[i], p.Tiles[slot] = p.Tiles[slot], p.Tiles[i]
			return true
		}
	}
	return false
}

func swapFromPool(eng *engine.Game, p *engine.Player, slot int, want engine.Tile) bool {
	for i, tile := range eng.Pool {
		if tile == want {
			eng.Pool[i], p.Tiles[slot] = p.Tiles[slot], eng.Pool[i]
			return true
		}
	}
	return false
}

func swapFromOthers(eng *engine.Game, p *engine.Player, playerIdx, slot int, want engine.Tile) bool {
	for oi := 0; oi < int(eng.NumPlayers); oi++ {
		if oi == playerIdx {
			continue
		}
		o := &eng.Players[oi]
		for i := 0; i < int(o.TileCount); i++ {
			if o.Tiles[i] == want {
				o.Tiles[i], p.Tiles[slot] = p.Tiles[slot], o.Tiles[i]
				return true
			}
		}
	}
	return false
}
