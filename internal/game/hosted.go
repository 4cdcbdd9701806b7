// internal/game/hosted.go
package game

import (
	"context"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/zsh28/Rummikub/engine"
	"github.com/zsh28/Rummikub/internal/cache"
	"github.com/zsh28/Rummikub/internal/database"
	"github.com/zsh28/Rummikub/internal/ledger"
	"github.com/zsh28/Rummikub/internal/models"
)

// OnGameEndFunc defines the signature for a callback function executed when
// a game ends. It receives the game ID, the winner's wallet, and final
// scores keyed by wallet.
type OnGameEndFunc func(gameID uuid.UUID, winner string, scores map[string]int)

// HostedGame wraps one engine game record with connection management,
// escrow integration, event broadcasting and persistence. The engine is
// the authoritative rule state; everything here is the hosting shell.
type HostedGame struct {
	ID uuid.UUID

	Eng    *engine.Game
	escrow ledger.Escrow

	Players []*models.Player // Seated players with live connections.

	actionIndex int // Sequential index for the historian action log.

	Mu sync.Mutex // Protects all game state.

	// Communication callbacks.
	BroadcastFn         func(ev GameEvent)
	BroadcastToPlayerFn func(wallet string, ev GameEvent)
	OnGameEnd           OnGameEndFunc

	log *logrus.Entry
}

// NewHostedGame creates the hosting shell around a fresh engine record.
func NewHostedGame(eng *engine.Game, escrow ledger.Escrow) *HostedGame {
	id := uuid.New()
	return &HostedGame{
		ID:     id,
		Eng:    eng,
		escrow: escrow,
		log:    logrus.WithField("game_id", id),
	}
}

// Join escrows the entry fee and seats the wallet. When the last seat
// fills, hands are dealt and the start events fire.
func (h *HostedGame) Join(ctx context.Context, wallet string, conn *websocket.Conn) error {
	h.Mu.Lock()
	defer h.Mu.Unlock()

	// Reconnect path: the wallet already holds a seat. An imported game
	// has seats in the engine record but no live player entries yet.
	if _, err := h.Eng.PlayerIndex(wallet); err == nil {
		p := h.playerByWallet(wallet)
		if p == nil {
			p = &models.Player{ID: uuid.New(), Wallet: wallet}
			h.Players = append(h.Players, p)
		}
		p.Conn = conn
		p.Connected = true
		h.log.WithField("wallet", wallet).Info("player reconnected")
		h.logAction(wallet, "player_reconnect", nil)
		h.sendSyncState(wallet)
		return nil
	}

	if err := h.escrow.Deposit(ctx, wallet, h.Eng.EntryFee); err != nil {
		h.log.WithField("wallet", wallet).WithError(err).Warn("entry fee deposit failed")
		return err
	}
	if err := h.Eng.Join(wallet); err != nil {
		// Seat was not taken; return the stake.
		if crErr := h.escrow.CreditWinner(wallet, h.Eng.EntryFee); crErr != nil {
			h.log.WithField("wallet", wallet).WithError(crErr).Error("entry fee refund failed")
		}
		return err
	}

	h.Players = append(h.Players, &models.Player{
		ID:        uuid.New(),
		Wallet:    wallet,
		Conn:      conn,
		Connected: conn != nil,
	})
	h.log.WithField("wallet", wallet).Info("player joined")
	h.logAction(wallet, "player_join", map[string]interface{}{"entryFee": h.Eng.EntryFee})

	h.fireEvent(GameEvent{
		Type:   EventPlayerJoined,
		Player: &EventPlayer{Wallet: wallet},
		Payload: map[string]interface{}{
			"numPlayers": h.Eng.NumPlayers,
			"maxPlayers": h.Eng.MaxPlayers,
			"prizePool":  h.Eng.PrizePool,
		},
	})

	if h.Eng.Status == engine.InProgress {
		h.handleGameStarted()
	}
	h.persistSnapshot()
	return nil
}

// handleGameStarted fires the start events after the deal: each player
// privately receives their hand, then the first turn is announced.
// Assumes lock is held.
func (h *HostedGame) handleGameStarted() {
	h.log.Info("all seats filled, game started")
	h.logAction("", "game_start", map[string]interface{}{"prizePool": h.Eng.PrizePool})

	h.fireEvent(GameEvent{
		Type: EventGameStarted,
		Payload: map[string]interface{}{
			"prizePool": h.Eng.PrizePool,
			"poolSize":  len(h.Eng.Pool),
		},
	})
	for i := 0; i < int(h.Eng.NumPlayers); i++ {
		p := &h.Eng.Players[i]
		h.fireEventToPlayer(p.Addr, GameEvent{
			Type:    EventPrivateHand,
			Payload: map[string]interface{}{"hand": handToWire(p.Hand())},
		})
	}
	h.broadcastPlayerTurn()
}

// HandleAction routes incoming player actions. The join action is handled
// by the manager before a HostedGame exists for the wallet; everything
// else lands here.
func (h *HostedGame) HandleAction(wallet string, action models.GameAction) {
	h.Mu.Lock()
	defer h.Mu.Unlock()

	switch action.ActionType {
	case "action_draw":
		h.handleDraw(wallet)
	case "action_play":
		h.handlePlay(wallet, action.Payload, false)
	case "action_play_retrieve":
		h.handlePlay(wallet, action.Payload, true)
	case "action_claim":
		h.handleClaim(wallet)
	case "action_sync":
		h.sendSyncState(wallet)
	default:
		h.log.WithFields(logrus.Fields{"wallet": wallet, "action": action.ActionType}).Warn("unknown action type")
		h.fireError(wallet, "unknown action type")
	}
}

// handleDraw executes a draw for the wallet and announces the turn change.
// Assumes lock is held.
func (h *HostedGame) handleDraw(wallet string) {
	idx, err := h.Eng.PlayerIndex(wallet)
	if err != nil {
		h.fireError(wallet, err.Error())
		return
	}
	if err := h.Eng.DrawTile(wallet); err != nil {
		h.fireError(wallet, err.Error())
		return
	}
	p := &h.Eng.Players[idx]
	drawn := p.Tiles[p.TileCount-1]

	h.logAction(wallet, "player_draw", nil)
	h.fireEvent(GameEvent{
		Type:    EventPlayerDrewTile,
		Player:  &EventPlayer{Wallet: wallet},
		Payload: map[string]interface{}{"poolSize": len(h.Eng.Pool)},
	})
	tile := tileToWire(drawn)
	h.fireEventToPlayer(wallet, GameEvent{Type: EventPrivateDrawnTile, Tile: &tile})

	h.broadcastPlayerTurn()
	h.persistSnapshot()
}

// handlePlay executes a tile play, optionally preceded by joker
// retrievals. Assumes lock is held.
func (h *HostedGame) handlePlay(wallet string, payload map[string]interface{}, withRetrieval bool) {
	tilesFromHand, err := decodeIndexList(payload, "tilesFromHand")
	if err != nil {
		h.fireError(wallet, err.Error())
		return
	}
	melds, err := decodeMelds(payload, "table")
	if err != nil {
		h.fireError(wallet, err.Error())
		return
	}
	var retrievals []engine.JokerRetrieval
	if withRetrieval {
		retrievals, err = decodeRetrievals(payload, "retrievals")
		if err != nil {
			h.fireError(wallet, err.Error())
			return
		}
	}

	if err := h.Eng.PlayWithJokerRetrieval(wallet, retrievals, tilesFromHand, melds); err != nil {
		h.log.WithFields(logrus.Fields{"wallet": wallet, "code": engine.ErrorCode(err)}).Debug("play rejected")
		h.fireError(wallet, err.Error())
		return
	}

	h.logAction(wallet, "player_play", map[string]interface{}{
		"tilesPlayed": len(tilesFromHand),
		"retrievals":  len(retrievals),
	})
	h.fireEvent(GameEvent{
		Type:   EventPlayerPlayedTiles,
		Player: &EventPlayer{Wallet: wallet},
		Table:  meldsToWire(h.Eng.TableMelds),
	})
	if idx, err := h.Eng.PlayerIndex(wallet); err == nil {
		h.fireEventToPlayer(wallet, GameEvent{
			Type:    EventPrivateHand,
			Payload: map[string]interface{}{"hand": handToWire(h.Eng.Players[idx].Hand())},
		})
	}

	if h.Eng.Status == engine.Finished {
		h.handleGameEnd()
	} else {
		h.broadcastPlayerTurn()
	}
	h.persistSnapshot()
}

// handleClaim pays out the prize pool to the winner through the escrow.
// Assumes lock is held.
func (h *HostedGame) handleClaim(wallet string) {
	pool := h.Eng.PrizePool
	if err := h.Eng.Claim(wallet, h.escrow); err != nil {
		h.fireError(wallet, err.Error())
		return
	}
	houseFee := pool * engine.HouseFeeBps / 10_000

	h.log.WithFields(logrus.Fields{"wallet": wallet, "amount": pool - houseFee}).Info("prize claimed")
	h.logAction(wallet, "prize_claim", map[string]interface{}{
		"prizePool": pool,
		"houseFee":  houseFee,
	})
	h.fireEvent(GameEvent{
		Type:   EventPrizeClaimed,
		Player: &EventPlayer{Wallet: wallet},
		Payload: map[string]interface{}{
			"amount":   pool - houseFee,
			"houseFee": houseFee,
		},
	})
	h.persistSnapshot()
}

// handleGameEnd broadcasts the result, persists the final state and fires
// the end callback. Assumes lock is held.
func (h *HostedGame) handleGameEnd() {
	scores := make(map[string]int, h.Eng.NumPlayers)
	for i := 0; i < int(h.Eng.NumPlayers); i++ {
		scores[h.Eng.Players[i].Addr] = int(h.Eng.Players[i].Score)
	}
	winner := h.Eng.Winner

	h.log.WithField("winner", winner).Info("game finished")
	h.logAction("", string(EventGameEnd), map[string]interface{}{
		"winner": winner,
		"scores": scores,
	})
	h.fireEvent(GameEvent{
		Type: EventGameEnd,
		Payload: map[string]interface{}{
			"winner":    winner,
			"scores":    scores,
			"prizePool": h.Eng.PrizePool,
		},
	})

	h.persistFinalState(winner, scores)

	if h.OnGameEnd != nil {
		h.OnGameEnd(h.ID, winner, scores)
	}
}

// HandleDisconnect marks a player as offline. Seats and escrowed fees are
// kept; the player may reconnect and resume.
func (h *HostedGame) HandleDisconnect(wallet string) {
	h.Mu.Lock()
	defer h.Mu.Unlock()

	p := h.playerByWallet(wallet)
	if p == nil || !p.Connected {
		return
	}
	p.Connected = false
	p.Conn = nil
	h.log.WithField("wallet", wallet).Info("player disconnected")
	h.logAction(wallet, "player_disconnect", nil)
	h.broadcastSyncStateToAll()
}

// broadcastPlayerTurn notifies all players of the current player's turn.
// Assumes lock is held.
func (h *HostedGame) broadcastPlayerTurn() {
	if h.Eng.Status != engine.InProgress {
		return
	}
	current := h.Eng.Players[h.Eng.CurrentTurn].Addr
	h.fireEvent(GameEvent{
		Type:   EventPlayerTurn,
		Player: &EventPlayer{Wallet: current},
	})
}

// sendSyncState sends the current obfuscated game state to a single
// player. Assumes lock is held.
func (h *HostedGame) sendSyncState(wallet string) {
	state := h.syncStateFor(wallet)
	h.fireEventToPlayer(wallet, GameEvent{
		Type:  EventPrivateSyncState,
		State: &state,
	})
}

// broadcastSyncStateToAll sends each connected player their own view of
// the state. Assumes lock is held.
func (h *HostedGame) broadcastSyncStateToAll() {
	for _, p := range h.Players {
		if p.Connected {
			h.sendSyncState(p.Wallet)
		}
	}
}

// fireEvent broadcasts an event to all connected players via the
// BroadcastFn callback. Assumes lock is held.
func (h *HostedGame) fireEvent(ev GameEvent) {
	if h.BroadcastFn != nil {
		h.BroadcastFn(ev)
	} else {
		h.log.WithField("type", ev.Type).Warn("BroadcastFn is nil, dropping event")
	}
}

// fireEventToPlayer sends an event to a specific player if connected.
// Assumes lock is held.
func (h *HostedGame) fireEventToPlayer(wallet string, ev GameEvent) {
	if h.BroadcastToPlayerFn == nil {
		h.log.WithField("type", ev.Type).Warn("BroadcastToPlayerFn is nil, dropping event")
		return
	}
	p := h.playerByWallet(wallet)
	if p != nil && p.Connected {
		h.BroadcastToPlayerFn(wallet, ev)
	}
}

// fireError sends a private rejection message. Assumes lock is held.
func (h *HostedGame) fireError(wallet, message string) {
	h.fireEventToPlayer(wallet, GameEvent{
		Type:    EventPrivateError,
		Payload: map[string]interface{}{"message": message},
	})
}

// playerByWallet finds a seated player by wallet. Assumes lock is held.
func (h *HostedGame) playerByWallet(wallet string) *models.Player {
	for _, p := range h.Players {
		if p.Wallet == wallet {
			return p
		}
	}
	return nil
}

// logAction sends game action details to the historian service via the
// Redis queue. Increments the internal action index for ordering. Assumes
// lock is held.
func (h *HostedGame) logAction(actorWallet, actionType string, payload map[string]interface{}) {
	h.actionIndex++
	if payload == nil {
		payload = make(map[string]interface{})
	}
	record := cache.GameActionRecord{
		GameID:        h.ID,
		ActionIndex:   h.actionIndex,
		ActorWallet:   actorWallet,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}

	go func(rec cache.GameActionRecord) {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if cache.Rdb == nil {
			return
		}
		if err := cache.PublishGameAction(ctx, rec); err != nil {
			h.log.WithError(err).WithField("action", rec.ActionType).Error("failed publishing action to redis")
		}
	}(record)
}

// persistSnapshot asynchronously saves the running game state. Assumes
// lock is held; the snapshot is captured synchronously.
func (h *HostedGame) persistSnapshot() {
	if database.DB == nil {
		return
	}
	snapshot := h.syncStateFor("")
	go database.UpsertGameSnapshot(h.ID, snapshot.Status, len(snapshot.Players),
		h.Eng.PrizePool, h.Eng.Winner, snapshot)
}

// persistFinalState saves the terminal record for audit. Assumes lock is
// held.
func (h *HostedGame) persistFinalState(winner string, scores map[string]int) {
	if database.DB == nil {
		return
	}
	type finalPlayerState struct {
		Hand  []WireTile `json:"hand"`
		Score int        `json:"score"`
	}
	final := map[string]interface{}{
		"winner":  winner,
		"players": map[string]finalPlayerState{},
		"table":   meldsToWire(h.Eng.TableMelds),
	}
	states := final["players"].(map[string]finalPlayerState)
	for i := 0; i < int(h.Eng.NumPlayers); i++ {
		p := &h.Eng.Players[i]
		states[p.Addr] = finalPlayerState{
			Hand:  handToWire(p.Hand()),
			Score: scores[p.Addr],
		}
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := database.StoreFinalGameState(ctx, h.ID, winner, final); err != nil {
			h.log.WithError(err).Error("failed storing final game state")
		}
	}()
}
