package distributor

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/stakeworks/merkledrop/common"
	"github.com/stakeworks/merkledrop/droperrors"
	"github.com/stakeworks/merkledrop/log"
	"github.com/stakeworks/merkledrop/merkle"
)

type transfer struct {
	beneficiary common.Address
	amount      *uint256.Int
}

type claimEvent struct {
	account     common.Address
	delta       *uint256.Int
	beneficiary common.Address
	root        common.Hash
}

// pendingClaims stages a set of claims against an overlay of the
// ledger, so a batch validates in full before anything is committed.
// Later entries for the same account observe earlier staged records.
type pendingClaims struct {
	d         *Distributor
	records   map[common.Address]*uint256.Int
	transfers []transfer
	events    []claimEvent
	total     *uint256.Int
}

func (d *Distributor) newPending() *pendingClaims {
	return &pendingClaims{
		d:       d,
		records: make(map[common.Address]*uint256.Int),
		total:   new(uint256.Int),
	}
}

func (p *pendingClaims) effectiveClaimed(account common.Address) *uint256.Int {
	if staged, ok := p.records[account]; ok {
		return new(uint256.Int).Set(staged)
	}
	return p.d.effectiveClaimedLocked(account)
}

// stageMerkle validates one claim and stages its record and payout.
// Check order is fixed: root freshness, proof, then the cumulative
// precondition, so a replayed proof against the live root surfaces as
// NothingToClaim rather than InvalidProof.
func (p *pendingClaims) stageMerkle(req ClaimRequest) (*uint256.Int, error) {
	if req.Root != p.d.root {
		return nil, droperrors.ErrCStaleRoot
	}
	cumulative := req.Cumulative
	if cumulative == nil {
		cumulative = new(uint256.Int)
	}
	leaf := merkle.Leaf(req.Account, req.Beneficiary, cumulative)
	if !merkle.Verify(req.Proof, req.Root, leaf) {
		return nil, droperrors.ErrCInvalidProof
	}
	already := p.effectiveClaimed(req.Account)
	if !already.Lt(cumulative) {
		return nil, droperrors.ErrCNothingToClaim
	}
	delta := new(uint256.Int).Sub(cumulative, already)
	p.records[req.Account] = new(uint256.Int).Set(cumulative)
	p.transfers = append(p.transfers, transfer{beneficiary: req.Beneficiary, amount: delta})
	p.events = append(p.events, claimEvent{
		account:     req.Account,
		delta:       delta,
		beneficiary: req.Beneficiary,
		root:        req.Root,
	})
	p.total.Add(p.total, delta)
	return delta, nil
}

// commit makes the staged claims durable and pays them out. The store
// batch is the transactional boundary: claim records land atomically,
// and the holder balance is checked against the staged total before
// the first transfer so a half-paid batch cannot occur with a token
// that honors its reported balances.
func (p *pendingClaims) commit() error {
	if len(p.records) == 0 {
		return nil
	}
	d := p.d
	if balance := d.token.BalanceOf(d.holder); balance.Lt(p.total) {
		return fmt.Errorf("reward holder %s balance %s short of staged total %s",
			d.holder.Hex(), balance.Dec(), p.total.Dec())
	}
	if d.store != nil {
		batch := d.store.NewBatch()
		for account, amount := range p.records {
			batch.SetClaimed(account, amount)
		}
		if err := batch.Write(); err != nil {
			return err
		}
	}
	for account, amount := range p.records {
		d.claimed[account] = amount
	}
	for _, tr := range p.transfers {
		if err := d.token.TransferFrom(d.holder, tr.beneficiary, tr.amount); err != nil {
			// Records are already durable; the token contradicted its
			// own balance report. Surface loudly, nothing to unwind.
			log.Error(log.DropMonitoring, "token transfer failed after records committed",
				"beneficiary", tr.beneficiary.Hex(), "amount", tr.amount.Dec(), "err", err)
			return fmt.Errorf("token transfer to %s: %w", tr.beneficiary.Hex(), err)
		}
	}
	for _, ev := range p.events {
		log.Debug(log.DropMonitoring, "merkle claim",
			"account", ev.account.Hex(), "delta", ev.delta.Dec(),
			"beneficiary", ev.beneficiary.Hex(), "root", ev.root.StringShort())
		if d.notifier != nil {
			d.notifier.MerkleClaimed(ev.account, ev.delta, ev.beneficiary, ev.root)
		}
	}
	return nil
}
