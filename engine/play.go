package engine

import "sort"

// JokerRetrieval asks to swap the joker at TilePos of table meld MeldIndex
// with the hand tile at HandIndex, which must be exactly the tile the joker
// represents. The joker lands in the hand slot the replacement vacated, so
// hand indices stay stable through the retrieval phase.
type JokerRetrieval struct {
	MeldIndex uint8
	TilePos   uint8
	HandIndex uint8
}

// PlayTiles applies a turn: the given hand tiles (by index into the pre-turn
// hand) leave the hand and proposedMelds becomes the new table. The whole
// table is re-validated and tile conservation is enforced; any failure
// leaves the record unchanged.
func (g *Game) PlayTiles(addr string, tilesFromHand []uint8, proposedMelds []Meld) error {
	return g.PlayWithJokerRetrieval(addr, nil, tilesFromHand, proposedMelds)
}

// PlayWithJokerRetrieval is PlayTiles preceded by a joker retrieval phase:
// each listed joker is taken off the table into the player's hand in
// exchange for the real tile it represents, and must be played back out in
// the same turn together with at least one additional hand tile.
func (g *Game) PlayWithJokerRetrieval(addr string, retrievals []JokerRetrieval, tilesFromHand []uint8, proposedMelds []Meld) error {
	if g.Status != InProgress {
		return ErrGameNotInProgress
	}
	idx, err := g.verifyTurn(addr)
	if err != nil {
		return err
	}

	snap := g.snapshot()
	if err := g.executePlay(idx, retrievals, tilesFromHand, proposedMelds); err != nil {
		g.restore(snap)
		return err
	}
	return nil
}

// executePlay runs the five validation phases and commits. The caller holds
// a snapshot; executePlay may mutate freely and rely on rollback.
func (g *Game) executePlay(playerIdx int, retrievals []JokerRetrieval, tilesFromHand []uint8, proposedMelds []Meld) error {
	p := &g.Players[playerIdx]

	// Phase 1: joker retrieval.
	if len(retrievals) > 0 {
		if !p.HasOpened {
			return ErrCannotRetrieveJokerBeforeOpening
		}
		if len(tilesFromHand) <= len(retrievals) {
			return ErrMustPlayTileWithJoker
		}
	}
	for _, r := range retrievals {
		if int(r.MeldIndex) >= len(g.TableMelds) {
			return ErrInvalidMeldIndex
		}
		meld := &g.TableMelds[r.MeldIndex]
		if int(r.TilePos) >= len(meld.Tiles) {
			return ErrInvalidTilePosition
		}
		if !meld.Tiles[r.TilePos].IsJoker() {
			return ErrNotAJoker
		}
		if int(r.HandIndex) >= int(p.TileCount) {
			return ErrInvalidTileIndex
		}
		repl := p.Tiles[r.HandIndex]
		ok, err := meld.matchesJokerSlot(int(r.TilePos), repl)
		if err != nil {
			return err
		}
		if !ok {
			return ErrInvalidJokerReplacement
		}
		meld.Tiles[r.TilePos] = repl
		p.Tiles[r.HandIndex] = TileJoker

		if !containsIndex(tilesFromHand, r.HandIndex) {
			return ErrMustPlayRetrievedJoker
		}
	}

	// Phase 2: remove played tiles from the hand, highest index first so the
	// submitted indices keep referring to the pre-removal hand.
	removed := make([]Tile, 0, len(tilesFromHand))
	seen := make(map[uint8]bool, len(tilesFromHand))
	for _, i := range tilesFromHand {
		if int(i) >= int(p.TileCount) || seen[i] {
			return ErrInvalidTileIndex
		}
		seen[i] = true
		removed = append(removed, p.Tiles[i])
	}
	desc := append([]uint8(nil), tilesFromHand...)
	sort.Slice(desc, func(a, b int) bool { return desc[a] > desc[b] })
	for _, i := range desc {
		if err := p.removeTile(int(i)); err != nil {
			return err
		}
	}

	// Phase 3+4: the whole proposed table must validate, whether or not a
	// meld was touched this turn.
	for i := range proposedMelds {
		if err := proposedMelds[i].Validate(); err != nil {
			return err
		}
	}

	// Opening: an unopened player may only add fresh melds built from hand
	// tiles, and those melds must total at least MinInitialMeld points.
	wasOpening := !p.HasOpened
	if wasOpening {
		newMelds, err := subtractMelds(proposedMelds, g.TableMelds)
		if err != nil {
			return err
		}
		points := uint16(0)
		for i := range newMelds {
			pts, err := newMelds[i].Points()
			if err != nil {
				return err
			}
			points += pts
		}
		if points < MinInitialMeld {
			return ErrInitialMeldTooLow
		}
	}

	// Phase 5: tile conservation. The tiles on the table before this turn
	// plus the tiles removed from the hand must be exactly the tiles on the
	// proposed table, as a multiset. This forbids creating, discarding and
	// substituting tiles during rearrangement.
	counts := make(map[Tile]int, TotalTiles)
	for i := range g.TableMelds {
		for _, t := range g.TableMelds[i].Tiles {
			counts[t]++
		}
	}
	for _, t := range removed {
		counts[t]++
	}
	for i := range proposedMelds {
		for _, t := range proposedMelds[i].Tiles {
			counts[t]--
		}
	}
	for _, n := range counts {
		if n != 0 {
			return ErrMustPreserveTableTiles
		}
	}

	// Commit.
	g.TableMelds = cloneMelds(proposedMelds)
	p.HasOpened = true
	if p.TileCount == 0 {
		g.finishGame(playerIdx)
		return nil
	}
	g.nextTurn()
	return nil
}

// subtractMelds returns the melds of proposed that are not in prior,
// matching by exact kind and tile order with multiplicity. Every prior meld
// must survive untouched; an unopened player may not rearrange the table.
func subtractMelds(proposed, prior []Meld) ([]Meld, error) {
	used := make([]bool, len(proposed))
	for i := range prior {
		found := false
		for j := range proposed {
			if !used[j] && meldsEqual(&prior[i], &proposed[j]) {
				used[j] = true
				found = true
				break
			}
		}
		if !found {
			return nil, ErrInitialMeldCannotUseTable
		}
	}
	var fresh []Meld
	for j := range proposed {
		if !used[j] {
			fresh = append(fresh, proposed[j])
		}
	}
	return fresh, nil
}

func containsIndex(indices []uint8, want uint8) bool {
	for _, i := range indices {
		if i == want {
			return true
		}
	}
	return false
}
