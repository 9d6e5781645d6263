package distributor

import (
	"github.com/holiman/uint256"

	"github.com/stakeworks/merkledrop/common"
)

// TokenLedger is the slice of the token surface the distributor
// consumes. The token itself lives outside this module; a transfer
// failure aborts the whole claim.
type TokenLedger interface {
	Address() common.Address
	TotalSupply() *uint256.Int
	BalanceOf(account common.Address) *uint256.Int
	TransferFrom(from common.Address, to common.Address, amount *uint256.Int) error
}

// RewardApp is the live-reward capability: an external engine that
// accrues rewards on its own and pays them out when triggered.
// WithdrawRewards must be a no-op when nothing is available.
type RewardApp interface {
	AvailableRewards(account common.Address) *uint256.Int
	WithdrawRewards(account common.Address) error
}

// LegacyLookup is the read-only view onto a predecessor distributor
// instance, consulted only for accounts with no local claim record.
// *Distributor satisfies it, so redeployed instances chain naturally.
type LegacyLookup interface {
	EffectiveClaimed(account common.Address) *uint256.Int
	TokenAddress() common.Address
}

// Notifier receives the distributor's observable side effects. All
// callbacks run synchronously inside the claim path and must not block
// or call back into the distributor.
type Notifier interface {
	RootChanged(oldRoot common.Hash, newRoot common.Hash)
	HolderChanged(oldHolder common.Address, newHolder common.Address)
	MerkleClaimed(account common.Address, delta *uint256.Int, beneficiary common.Address, root common.Hash)
}

// ClaimRequest is the per-account tuple emitted by the offline
// distribution builder and submitted verbatim by claimants.
type ClaimRequest struct {
	Account     common.Address `json:"account"`
	Beneficiary common.Address `json:"beneficiary"`
	Cumulative  *uint256.Int   `json:"cumulative"`
	Root        common.Hash    `json:"root"`
	Proof       []common.Hash  `json:"proof"`
}

// HasMerkle reports whether the merkle leg of a combined claim is
// requested. Zero cumulative, zero root or an empty proof is the
// "no merkle claim this round" sentinel, not an error.
func (r ClaimRequest) HasMerkle() bool {
	return r.Cumulative != nil && !r.Cumulative.IsZero() && !r.Root.IsZero() && len(r.Proof) > 0
}
