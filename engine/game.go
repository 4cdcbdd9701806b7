package engine

const (
	MaxPlayers     = 4
	MinPlayers     = 2
	TilesPerPlayer = 14
	HandCapacity   = 21
	MaxRank        = 13
	MinMeldSize    = 3
	TotalTiles     = 106 // 104 number tiles + 2 jokers
	MinInitialMeld = 30
	JokerScore     = 30

	// DefaultEntryFee is the stake each player escrows on join, in the
	// ledger's smallest unit.
	DefaultEntryFee uint64 = 100_000_000
	// HouseFeeBps is the house cut taken at settlement, in basis points.
	HouseFeeBps uint64 = 500
)

// GameStatus is the lifecycle phase of a game record. Transitions are
// strictly forward: WaitingForPlayers → InProgress → Finished.
type GameStatus uint8

const (
	WaitingForPlayers GameStatus = 0
	InProgress        GameStatus = 1
	Finished          GameStatus = 2
)

// Player holds one seat: identity, bounded hand, opening flag and final
// score. HasOpened is monotonic; it flips false→true once and never resets.
type Player struct {
	Addr      string
	Tiles     [HandCapacity]Tile
	TileCount uint8
	HasOpened bool
	Score     int16
}

// Hand returns the live portion of the player's tile array.
func (p *Player) Hand() []Tile { return p.Tiles[:p.TileCount] }

// removeTile deletes the tile at index, shifting the rest down.
func (p *Player) removeTile(index int) error {
	if index < 0 || index >= int(p.TileCount) {
		return ErrInvalidTileIndex
	}
	for i := index; i < int(p.TileCount)-1; i++ {
		p.Tiles[i] = p.Tiles[i+1]
	}
	p.TileCount--
	p.Tiles[p.TileCount] = EmptyTile
	return nil
}

// Game is the complete record of one escrow-backed Rummikub contest.
// All transition methods mutate the receiver; on error the record is left
// byte-for-byte unchanged (Claim excepted, see its doc).
type Game struct {
	ID           uint64
	Authority    string
	MaxPlayers   uint8
	NumPlayers   uint8
	CurrentTurn  uint8
	Status       GameStatus
	Winner       string
	PrizePool    uint64
	EntryFee     uint64
	PrizeClaimed bool
	Players      [MaxPlayers]Player
	TableMelds   []Meld
	Pool         []Tile

	rng uint64
}

// NewGame creates a record in WaitingForPlayers with a freshly built and
// shuffled 106-tile pool. seed feeds the shuffle; the hosting shell supplies
// it from its randomness source and may later fold in verifiable randomness
// via MixRandomness.
func NewGame(id uint64, authority string, maxPlayers uint8, seed uint64) (*Game, error) {
	if maxPlayers < MinPlayers || maxPlayers > MaxPlayers {
		return nil, ErrInvalidPlayerCount
	}
	g := &Game{
		ID:         id,
		Authority:  authority,
		MaxPlayers: maxPlayers,
		EntryFee:   DefaultEntryFee,
		Status:     WaitingForPlayers,
		Pool:       buildPool(),
		rng:        seed,
	}
	g.shufflePool()
	return g, nil
}

// ---------------------------------------------------------------------------
// Shuffling: LCG over the undealt pool
// ---------------------------------------------------------------------------

func (g *Game) nextRand() uint64 {
	g.rng = g.rng*1664525 + 1013904223
	return g.rng
}

// shufflePool Fisher-Yates shuffles the undealt pool in place.
func (g *Game) shufflePool() {
	for i := len(g.Pool) - 1; i > 0; i-- {
		j := int(g.nextRand() % uint64(i+1))
		g.Pool[i], g.Pool[j] = g.Pool[j], g.Pool[i]
	}
}

// MixRandomness folds externally supplied randomness (e.g. a VRF output)
// into the shuffle state and re-shuffles the undealt pool. Legal only while
// the game is waiting for players; once hands are dealt the pool order is
// load-bearing.
func (g *Game) MixRandomness(randomness [32]byte) error {
	if g.Status != WaitingForPlayers {
		return ErrInvalidGameState
	}
	for i := 0; i < 32; i += 8 {
		var chunk uint64
		for b := 0; b < 8; b++ {
			chunk = chunk<<8 | uint64(randomness[i+b])
		}
		g.rng ^= chunk
	}
	g.shufflePool()
	return nil
}

// ---------------------------------------------------------------------------
// Lobby
// ---------------------------------------------------------------------------

// Join seats a player and escrows their entry fee into the prize pool. When
// the final seat fills, every player is dealt TilesPerPlayer tiles and the
// game moves to InProgress with player 0 to act.
func (g *Game) Join(addr string) error {
	if g.Status != WaitingForPlayers {
		return ErrGameAlreadyStarted
	}
	if g.NumPlayers >= g.MaxPlayers {
		return ErrGameFull
	}
	g.Players[g.NumPlayers] = Player{Addr: addr}
	g.NumPlayers++
	g.PrizePool += g.EntryFee

	if g.NumPlayers == g.MaxPlayers {
		for i := 0; i < int(g.NumPlayers); i++ {
			for n := 0; n < TilesPerPlayer; n++ {
				if err := g.drawInto(i); err != nil {
					return err
				}
			}
		}
		g.Status = InProgress
		g.CurrentTurn = 0
	}
	return nil
}

// drawInto moves the top pool tile into the given player's hand.
func (g *Game) drawInto(playerIdx int) error {
	if len(g.Pool) == 0 {
		return ErrNotEnoughTiles
	}
	p := &g.Players[playerIdx]
	if p.TileCount >= HandCapacity {
		return ErrTooManyTiles
	}
	p.Tiles[p.TileCount] = g.Pool[len(g.Pool)-1]
	g.Pool = g.Pool[:len(g.Pool)-1]
	p.TileCount++
	return nil
}

// ---------------------------------------------------------------------------
// Turn machinery
// ---------------------------------------------------------------------------

// PlayerIndex resolves an identity to its seat, or ErrPlayerNotInGame.
func (g *Game) PlayerIndex(addr string) (int, error) {
	for i := 0; i < int(g.NumPlayers); i++ {
		if g.Players[i].Addr == addr {
			return i, nil
		}
	}
	return 0, ErrPlayerNotInGame
}

// verifyTurn resolves addr and checks it is that player's turn.
func (g *Game) verifyTurn(addr string) (int, error) {
	idx, err := g.PlayerIndex(addr)
	if err != nil {
		return 0, err
	}
	if idx != int(g.CurrentTurn) {
		return 0, ErrNotPlayerTurn
	}
	return idx, nil
}

// nextTurn rotates to the next seated player. Every player gets equal
// rotation; there is no skip logic.
func (g *Game) nextTurn() {
	g.CurrentTurn = (g.CurrentTurn + 1) % g.NumPlayers
}

// DrawTile moves one tile pool→hand for the current player and
// unconditionally ends their turn. Drawing cannot be combined with playing.
func (g *Game) DrawTile(addr string) error {
	if g.Status != InProgress {
		return ErrGameNotInProgress
	}
	idx, err := g.verifyTurn(addr)
	if err != nil {
		return err
	}
	if err := g.drawInto(idx); err != nil {
		return err
	}
	g.nextTurn()
	return nil
}

// ---------------------------------------------------------------------------
// Invariants and snapshots
// ---------------------------------------------------------------------------

// TileCount returns pool + hands + table. It equals TotalTiles for the
// lifetime of a game.
func (g *Game) TileCount() int {
	n := len(g.Pool)
	for i := 0; i < int(g.NumPlayers); i++ {
		n += int(g.Players[i].TileCount)
	}
	n += tileCount(g.TableMelds)
	return n
}

// snapshot deep-copies the record so a failed transition can roll back.
func (g *Game) snapshot() Game {
	c := *g
	c.Pool = append([]Tile(nil), g.Pool...)
	c.TableMelds = cloneMelds(g.TableMelds)
	return c
}

// restore replaces the record with a snapshot.
func (g *Game) restore(s Game) { *g = s }

// Clone returns an independent deep copy of the record, suitable for
// handing the authoritative state to another execution venue.
func (g *Game) Clone() *Game {
	c := g.snapshot()
	return &c
}

// finishGame records the winner and scores the table: each loser scores the
// negative of their remaining tile values (joker counts JokerScore), the
// winner scores the sum of everyone else's remaining values.
func (g *Game) finishGame(winnerIdx int) {
	g.Status = Finished
	g.Winner = g.Players[winnerIdx].Addr

	totalOpponentTiles := int16(0)
	for i := 0; i < int(g.NumPlayers); i++ {
		if i == winnerIdx {
			continue
		}
		p := &g.Players[i]
		handValue := int16(0)
		for j := 0; j < int(p.TileCount); j++ {
			handValue += int16(p.Tiles[j].Value())
		}
		p.Score = -handValue
		totalOpponentTiles += handValue
	}
	g.Players[winnerIdx].Score = totalOpponentTiles
}
