// internal/ledger/ledger.go
//
// Package ledger implements the escrow that backs each game's prize pool.
// Entry fees are debited at join time and payouts are credited at claim
// time through the engine's settlement hook.
package ledger

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sirupsen/logrus"

	"github.com/zsh28/Rummikub/engine"
)

// ErrInsufficientFunds is returned when a wallet cannot cover its entry fee.
var ErrInsufficientFunds = errors.New("insufficient escrow balance")

// Escrow is the full money-movement surface: deposits on join plus the
// engine's settlement credits on claim.
type Escrow interface {
	engine.Ledger
	Deposit(ctx context.Context, wallet string, amount uint64) error
	Balance(ctx context.Context, wallet string) (uint64, error)
}

// ---------------------------------------------------------------------------
// In-memory escrow
// ---------------------------------------------------------------------------

// Memory is a process-local escrow used in tests and when the server runs
// without Postgres. Balances start at zero; Fund seeds them.
type Memory struct {
	mu          sync.Mutex
	balances    map[string]uint64
	houseWallet string
}

// NewMemory creates an empty in-memory escrow crediting house fees to the
// given wallet.
func NewMemory(houseWallet string) *Memory {
	return &Memory{
		balances:    make(map[string]uint64),
		houseWallet: houseWallet,
	}
}

// Fund adds spendable balance to a wallet.
func (m *Memory) Fund(wallet string, amount uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[wallet] += amount
}

func (m *Memory) Deposit(_ context.Context, wallet string, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.balances[wallet] < amount {
		return ErrInsufficientFunds
	}
	m.balances[wallet] -= amount
	return nil
}

func (m *Memory) Balance(_ context.Context, wallet string) (uint64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[wallet], nil
}

func (m *Memory) CreditWinner(addr string, amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[addr] += amount
	return nil
}

func (m *Memory) CreditHouse(amount uint64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[m.houseWallet] += amount
	return nil
}

// ---------------------------------------------------------------------------
// Postgres escrow
// ---------------------------------------------------------------------------

// Postgres keeps escrow balances in the escrow_accounts table so they
// survive restarts and are visible to auditing queries.
type Postgres struct {
	pool        *pgxpool.Pool
	houseWallet string
}

// NewPostgres wraps an existing pool. The escrow_accounts table must exist
// (see database.Migrate).
func NewPostgres(pool *pgxpool.Pool, houseWallet string) *Postgres {
	return &Postgres{pool: pool, houseWallet: houseWallet}
}

func (p *Postgres) Deposit(ctx context.Context, wallet string, amount uint64) error {
	tag, err := p.pool.Exec(ctx, `
		UPDATE escrow_accounts
		SET balance = balance - $2, updated_at = now()
		WHERE wallet = $1 AND balance >= $2`,
		wallet, int64(amount))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrInsufficientFunds
	}
	return nil
}

func (p *Postgres) Balance(ctx context.Context, wallet string) (uint64, error) {
	var balance int64
	err := p.pool.QueryRow(ctx,
		`SELECT balance FROM escrow_accounts WHERE wallet = $1`, wallet).Scan(&balance)
	if err != nil {
		return 0, err
	}
	return uint64(balance), nil
}

func (p *Postgres) credit(wallet string, amount uint64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := p.pool.Exec(ctx, `
		INSERT INTO escrow_accounts (wallet, balance)
		VALUES ($1, $2)
		ON CONFLICT (wallet) DO UPDATE
		SET balance = escrow_accounts.balance + $2, updated_at = now()`,
		wallet, int64(amount))
	if err != nil {
		logrus.WithError(err).WithField("wallet", wallet).Error("escrow credit failed")
	}
	return err
}

func (p *Postgres) CreditWinner(addr string, amount uint64) error {
	return p.credit(addr, amount)
}

func (p *Postgres) CreditHouse(amount uint64) error {
	return p.credit(p.houseWallet, amount)
}
