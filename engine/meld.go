package engine

// MeldKind tags a meld as a Set (same rank, distinct colors) or a Run
// (consecutive ranks, same color). The kind is fixed at creation and
// re-validated on every mutation of the table.
type MeldKind uint8

const (
	MeldSet MeldKind = 0
	MeldRun MeldKind = 1
)

// Meld is an ordered group of tiles on the shared table.
type Meld struct {
	Kind  MeldKind
	Tiles []Tile
}

// Validate checks the meld against the full rule set. It is a pure, total
// function: it returns nil or exactly one engine error.
func (m *Meld) Validate() error {
	if len(m.Tiles) < MinMeldSize {
		return ErrMeldTooSmall
	}
	for _, t := range m.Tiles {
		if t == EmptyTile {
			return ErrEmptyTileInMeld
		}
	}
	if m.Kind == MeldSet {
		_, err := validateSet(m.Tiles)
		return err
	}
	_, err := validateRun(m.Tiles)
	return err
}

// validateSet checks a Set meld and infers its common rank.
//
// Rules, in order: at least one real tile must establish the number; no two
// real tiles may share a color; one slot per color bounds the size at 4;
// every real tile must carry the same rank.
func validateSet(tiles []Tile) (rank uint8, err error) {
	realCount := 0
	var colorsSeen [NumColors]bool
	for _, t := range tiles {
		if t.IsJoker() {
			continue
		}
		realCount++
		if rank == 0 {
			rank = t.Rank()
		}
		if colorsSeen[t.Color()] {
			return 0, ErrDuplicateColorInSet
		}
		colorsSeen[t.Color()] = true
	}
	if realCount == 0 {
		return 0, ErrSetMustHaveRealTile
	}
	if len(tiles) > NumColors {
		return 0, ErrTooManyJokersInSet
	}
	for _, t := range tiles {
		if t.IsNumber() && t.Rank() != rank {
			return 0, ErrInvalidSet
		}
	}
	return rank, nil
}

// validateRun checks a Run meld and infers the rank implied by position 0.
//
// The meld's tile order is authoritative: position i represents rank
// start+i, anchored at the first real tile. Jokers fill whatever rank their
// position implies, which covers internal gaps as well as extensions before
// and after the real tiles. The whole implied span must stay inside 1..13;
// rank 1 is always the low end and can never follow 13.
func validateRun(tiles []Tile) (start int, err error) {
	color := uint8(0xFF)
	firstRealPos := -1
	var ranksSeen [MaxRank + 1]bool
	for i, t := range tiles {
		if t.IsJoker() {
			continue
		}
		if color == 0xFF {
			color = t.Color()
			firstRealPos = i
		} else if t.Color() != color {
			return 0, ErrInvalidRun
		}
		if ranksSeen[t.Rank()] {
			return 0, ErrDuplicateNumberInRun
		}
		ranksSeen[t.Rank()] = true
	}
	if firstRealPos == -1 {
		return 0, ErrRunMustHaveRealTile
	}

	start = int(tiles[firstRealPos].Rank()) - firstRealPos
	if start < 1 || start+len(tiles)-1 > MaxRank {
		return 0, ErrRunCannotWrap
	}
	for i, t := range tiles {
		if t.IsJoker() {
			continue
		}
		if int(t.Rank()) != start+i {
			if hasJoker(tiles) {
				return 0, ErrInvalidJokerPlacement
			}
			return 0, ErrInvalidRun
		}
	}
	return start, nil
}

func hasJoker(tiles []Tile) bool {
	for _, t := range tiles {
		if t.IsJoker() {
			return true
		}
	}
	return false
}

// Points returns the point value of a validated meld. Jokers inherit the
// rank they represent: the common rank in a Set, the position-implied rank
// in a Run.
func (m *Meld) Points() (uint16, error) {
	if m.Kind == MeldSet {
		rank, err := validateSet(m.Tiles)
		if err != nil {
			return 0, err
		}
		return uint16(rank) * uint16(len(m.Tiles)), nil
	}
	start, err := validateRun(m.Tiles)
	if err != nil {
		return 0, err
	}
	total := uint16(0)
	for i := range m.Tiles {
		total += uint16(start + i)
	}
	return total, nil
}

// jokerRepresents computes what a joker at the given position stands for.
// For a Run that is an exact tile; for a Set only the rank is fixed, so
// matchesJokerSlot must be used to test a candidate replacement.
func (m *Meld) jokerRepresents(pos int) (color uint8, rank uint8, exact bool, err error) {
	if m.Kind == MeldRun {
		start, err := validateRun(m.Tiles)
		if err != nil {
			return 0, 0, false, err
		}
		for _, t := range m.Tiles {
			if t.IsNumber() {
				color = t.Color()
				break
			}
		}
		return color, uint8(start + pos), true, nil
	}
	rank, err = validateSet(m.Tiles)
	if err != nil {
		return 0, 0, false, err
	}
	return 0, rank, false, nil
}

// matchesJokerSlot reports whether repl is a legal replacement for the joker
// at pos: the exact implied tile in a Run, or the common rank in a color not
// already present for a Set.
func (m *Meld) matchesJokerSlot(pos int, repl Tile) (bool, error) {
	if !repl.IsNumber() {
		return false, nil
	}
	color, rank, exact, err := m.jokerRepresents(pos)
	if err != nil {
		return false, err
	}
	if exact {
		return repl == NewTile(color, rank), nil
	}
	if repl.Rank() != rank {
		return false, nil
	}
	for _, t := range m.Tiles {
		if t.IsNumber() && t.Color() == repl.Color() {
			return false, nil
		}
	}
	return true, nil
}

// tileCount returns the total number of tiles across all melds.
func tileCount(melds []Meld) int {
	n := 0
	for i := range melds {
		n += len(melds[i].Tiles)
	}
	return n
}

// cloneMelds deep-copies a table configuration.
func cloneMelds(melds []Meld) []Meld {
	out := make([]Meld, len(melds))
	for i := range melds {
		out[i] = Meld{Kind: melds[i].Kind, Tiles: append([]Tile(nil), melds[i].Tiles...)}
	}
	return out
}

// meldsEqual reports whether two melds have identical kind and tile order.
func meldsEqual(a, b *Meld) bool {
	if a.Kind != b.Kind || len(a.Tiles) != len(b.Tiles) {
		return false
	}
	for i := range a.Tiles {
		if a.Tiles[i] != b.Tiles[i] {
			return false
		}
	}
	return true
}
