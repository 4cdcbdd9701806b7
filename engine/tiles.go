// Package engine implements the Rummikub rules engine and turn state machine.
//
// The engine is a pure, self-contained state machine: every operation is a
// bounded synchronous computation over a single Game record, and every
// rejected operation leaves the record unchanged. Callers own storage and
// serialization of concurrent submissions against the same record.
package engine

// Tile colors, packed into the upper 4 bits of a Tile.
const (
	ColorRed    uint8 = 0
	ColorBlue   uint8 = 1
	ColorBlack  uint8 = 2
	ColorOrange uint8 = 3

	NumColors = 4
)

// Tile is a packed uint8: upper 4 bits = color, lower 4 bits = rank (1-13).
// The zero value is EmptyTile, so zeroed hand arrays start out empty.
type Tile uint8

const (
	// EmptyTile marks an unused hand slot. It is never playable.
	EmptyTile Tile = 0x00
	// TileJoker is the wildcard tile. The deck contains two of them.
	TileJoker Tile = 0xF0
)

// NewTile constructs a numbered tile from color and rank (1-13).
func NewTile(color, rank uint8) Tile {
	return Tile((color << 4) | (rank & 0x0F))
}

// Color returns the color bits (upper 4). Only meaningful for number tiles.
func (t Tile) Color() uint8 { return uint8(t) >> 4 }

// Rank returns the rank bits (lower 4). Only meaningful for number tiles.
func (t Tile) Rank() uint8 { return uint8(t) & 0x0F }

// IsJoker reports whether the tile is the joker.
func (t Tile) IsJoker() bool { return t == TileJoker }

// IsNumber reports whether the tile is a numbered tile.
func (t Tile) IsNumber() bool { return t != EmptyTile && t != TileJoker }

// Value returns the scoring value of the tile.
//   - Number → its rank (1-13)
//   - Joker → JokerScore (30)
//   - Empty → 0
func (t Tile) Value() uint16 {
	switch {
	case t.IsJoker():
		return JokerScore
	case t.IsNumber():
		return uint16(t.Rank())
	}
	return 0
}

// buildPool returns the canonical 106-tile deck in deterministic order:
// 2 copies of each color/rank combination plus 2 jokers.
func buildPool() []Tile {
	pool := make([]Tile, 0, TotalTiles)
	for copies := 0; copies < 2; copies++ {
		for color := uint8(0); color < NumColors; color++ {
			for rank := uint8(1); rank <= MaxRank; rank++ {
				pool = append(pool, NewTile(color, rank))
			}
		}
	}
	pool = append(pool, TileJoker, TileJoker)
	return pool
}
