// Package distributor implements the claim-authorization and
// accounting engine for periodic token distributions: merkle-proof
// verification against a rotating root, cumulative-claim bookkeeping
// with delegation to a predecessor instance, delta payout computation,
// and the policy composing merkle claims with live-application claims.
package distributor

import (
	"fmt"
	"sync"

	"github.com/holiman/uint256"

	"github.com/stakeworks/merkledrop/common"
	"github.com/stakeworks/merkledrop/droperrors"
	"github.com/stakeworks/merkledrop/log"
	"github.com/stakeworks/merkledrop/store"
)

type Config struct {
	Owner    common.Address // authority for root/holder rotation
	Token    TokenLedger
	Holder   common.Address // account payable tokens are drawn from
	App      RewardApp
	Legacy   LegacyLookup // optional predecessor instance
	Root     common.Hash  // initial distribution root
	Store    *store.Store // optional persistence; nil keeps state in memory
	Notifier Notifier     // optional event sink
}

// Distributor owns the current root, the per-account claim records and
// the reward holder pointer. Every mutating operation runs under one
// mutex, giving the serialized-transaction model the claim accounting
// depends on.
type Distributor struct {
	mu       sync.Mutex
	owner    common.Address
	token    TokenLedger
	holder   common.Address
	app      RewardApp
	legacy   LegacyLookup
	root     common.Hash
	claimed  map[common.Address]*uint256.Int
	store    *store.Store
	notifier Notifier
}

// New validates the collaborator wiring once, at construction. The
// token must be live (non-zero supply), owner/holder/app must be
// bound, and a legacy instance must sit on the same token.
func New(cfg Config) (*Distributor, error) {
	if cfg.Token == nil {
		return nil, fmt.Errorf("token ledger not bound: %w", droperrors.ErrAInvalidAddress)
	}
	if cfg.Token.TotalSupply().IsZero() {
		return nil, droperrors.ErrATokenNotLive
	}
	if cfg.Owner.IsZero() {
		return nil, fmt.Errorf("owner: %w", droperrors.ErrAInvalidAddress)
	}
	if cfg.Holder.IsZero() {
		return nil, fmt.Errorf("reward holder: %w", droperrors.ErrAInvalidAddress)
	}
	if cfg.App == nil {
		return nil, fmt.Errorf("live reward app not bound: %w", droperrors.ErrAInvalidAddress)
	}
	if cfg.Legacy != nil && cfg.Legacy.TokenAddress() != cfg.Token.Address() {
		return nil, droperrors.ErrAIncompatibleLegacy
	}

	d := &Distributor{
		owner:    cfg.Owner,
		token:    cfg.Token,
		holder:   cfg.Holder,
		app:      cfg.App,
		legacy:   cfg.Legacy,
		root:     cfg.Root,
		claimed:  make(map[common.Address]*uint256.Int),
		store:    cfg.Store,
		notifier: cfg.Notifier,
	}
	if cfg.Store != nil {
		if err := d.resume(cfg); err != nil {
			return nil, err
		}
	}
	log.Info(log.DropMonitoring, "distributor ready",
		"root", d.root.Hex(), "holder", d.holder.Hex(), "claims", len(d.claimed))
	return d, nil
}

// resume restores persisted state. A persisted root or holder wins
// over the configured one; on first start the configured values are
// written through.
func (d *Distributor) resume(cfg Config) error {
	root, found, err := d.store.GetRoot()
	if err != nil {
		return err
	}
	if found {
		d.root = root
	} else if err := d.store.SetRoot(d.root); err != nil {
		return err
	}
	holder, found, err := d.store.GetHolder()
	if err != nil {
		return err
	}
	if found {
		d.holder = holder
	} else if err := d.store.SetHolder(d.holder); err != nil {
		return err
	}
	claims, err := d.store.LoadClaims()
	if err != nil {
		return err
	}
	d.claimed = claims
	return nil
}

func (d *Distributor) Owner() common.Address {
	return d.owner
}

func (d *Distributor) Root() common.Hash {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.root
}

func (d *Distributor) RewardHolder() common.Address {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.holder
}

// TokenAddress reports the token this instance pays in. Part of the
// LegacyLookup surface a successor consults at construction.
func (d *Distributor) TokenAddress() common.Address {
	return d.token.Address()
}

// EffectiveClaimed returns the cumulative amount already paid to an
// account: the local record once one exists, else whatever the legacy
// chain reports. Non-decreasing over the life of the instance.
func (d *Distributor) EffectiveClaimed(account common.Address) *uint256.Int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.effectiveClaimedLocked(account)
}

// Once a local record exists it is authoritative; the legacy chain is
// only consulted while this instance has no opinion. Legacy reads are
// fresh on every call, never cached.
func (d *Distributor) effectiveClaimedLocked(account common.Address) *uint256.Int {
	if local, ok := d.claimed[account]; ok && !local.IsZero() {
		return new(uint256.Int).Set(local)
	}
	if d.legacy != nil {
		return new(uint256.Int).Set(d.legacy.EffectiveClaimed(account))
	}
	return new(uint256.Int)
}
