package engine

// Ledger moves funds out of a game's escrow. Implementations must tolerate
// being called at most once per game; Claim never retries.
type Ledger interface {
	CreditWinner(addr string, amount uint64) error
	CreditHouse(amount uint64) error
}

// Claim pays the prize pool out to the winner, minus the house fee. The
// pool is zeroed and the claim marked before the ledger is touched, so a
// ledger that reenters Claim sees PrizeClaimed already set. For the same
// reason a ledger failure does not restore the pool; the escrow balance is
// untouched on failure and settlement is an operational retry.
func (g *Game) Claim(addr string, ledger Ledger) error {
	if g.Status != Finished {
		return ErrGameNotFinished
	}
	if g.Winner != addr {
		return ErrNotTheWinner
	}
	if g.PrizeClaimed {
		return ErrPrizeAlreadyClaimed
	}

	pool := g.PrizePool
	g.PrizePool = 0
	g.PrizeClaimed = true

	houseFee := pool * HouseFeeBps / 10_000
	winnerShare := pool - houseFee

	if err := ledger.CreditWinner(addr, winnerShare); err != nil {
		return err
	}
	if houseFee > 0 {
		if err := ledger.CreditHouse(houseFee); err != nil {
			return err
		}
	}
	return nil
}
