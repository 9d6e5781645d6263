package token

import (
	"fmt"
	"sync"

	"github.com/holiman/uint256"

	"github.com/stakeworks/merkledrop/common"
)

// MemLedger is a minimal in-memory token ledger used by the test suite
// and the demo daemon. The production token lives outside this module;
// the distributor only ever sees the TokenLedger interface, so anything
// with transfer/approve semantics can replace this. Allowance
// enforcement is the real token's business and is not modeled here.
type MemLedger struct {
	mu       sync.Mutex
	address  common.Address
	balances map[common.Address]*uint256.Int
	supply   *uint256.Int
}

func NewMemLedger(address common.Address) *MemLedger {
	return &MemLedger{
		address:  address,
		balances: make(map[common.Address]*uint256.Int),
		supply:   new(uint256.Int),
	}
}

// Address returns the token's own ledger identity.
func (l *MemLedger) Address() common.Address {
	return l.address
}

func (l *MemLedger) TotalSupply() *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return new(uint256.Int).Set(l.supply)
}

func (l *MemLedger) BalanceOf(account common.Address) *uint256.Int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if b, ok := l.balances[account]; ok {
		return new(uint256.Int).Set(b)
	}
	return new(uint256.Int)
}

// Mint issues new tokens to an account.
func (l *MemLedger) Mint(account common.Address, amount *uint256.Int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	b, ok := l.balances[account]
	if !ok {
		b = new(uint256.Int)
		l.balances[account] = b
	}
	b.Add(b, amount)
	l.supply.Add(l.supply, amount)
}

// TransferFrom moves amount from one account to another, failing
// without side effects if the source balance is insufficient.
func (l *MemLedger) TransferFrom(from common.Address, to common.Address, amount *uint256.Int) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	fromBal, ok := l.balances[from]
	if !ok || fromBal.Lt(amount) {
		return fmt.Errorf("transfer of %s from %s exceeds balance", amount.Dec(), from.Hex())
	}
	toBal, ok := l.balances[to]
	if !ok {
		toBal = new(uint256.Int)
		l.balances[to] = toBal
	}
	fromBal.Sub(fromBal, amount)
	toBal.Add(toBal, amount)
	return nil
}
