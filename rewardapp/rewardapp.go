package rewardapp

import (
	"sync"

	"github.com/holiman/uint256"

	"github.com/stakeworks/merkledrop/common"
	"github.com/stakeworks/merkledrop/log"
)

// TokenLedger is the slice of the token surface the accruer needs to
// pay out of its own pool.
type TokenLedger interface {
	BalanceOf(account common.Address) *uint256.Int
	TransferFrom(from common.Address, to common.Address, amount *uint256.Int) error
}

// Accruer is a reference live-reward application: balances accrue via
// Credit and are paid from a dedicated pool account on withdrawal. The
// real reward engine is external; the distributor only depends on the
// AvailableRewards/WithdrawRewards capability this type exposes.
type Accruer struct {
	mu      sync.Mutex
	token   TokenLedger
	pool    common.Address
	accrued map[common.Address]*uint256.Int
}

func NewAccruer(token TokenLedger, pool common.Address) *Accruer {
	return &Accruer{
		token:   token,
		pool:    pool,
		accrued: make(map[common.Address]*uint256.Int),
	}
}

// Credit adds to an account's accrued rewards.
func (a *Accruer) Credit(account common.Address, amount *uint256.Int) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.accrued[account]
	if !ok {
		b = new(uint256.Int)
		a.accrued[account] = b
	}
	b.Add(b, amount)
}

func (a *Accruer) AvailableRewards(account common.Address) *uint256.Int {
	a.mu.Lock()
	defer a.mu.Unlock()
	if b, ok := a.accrued[account]; ok {
		return new(uint256.Int).Set(b)
	}
	return new(uint256.Int)
}

// WithdrawRewards pays the accrued balance from the pool to the
// account. A withdrawal with nothing accrued is a no-op, not an error.
func (a *Accruer) WithdrawRewards(account common.Address) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.accrued[account]
	if !ok || b.IsZero() {
		return nil
	}
	amount := new(uint256.Int).Set(b)
	if err := a.token.TransferFrom(a.pool, account, amount); err != nil {
		return err
	}
	b.Clear()
	log.Debug(log.AppMonitoring, "live rewards withdrawn", "account", account.Hex(), "amount", amount.Dec())
	return nil
}
