package distributor

import (
	"fmt"

	"github.com/holiman/uint256"

	"github.com/stakeworks/merkledrop/common"
)

// ClaimMerkle authorizes and pays out one merkle claim: the cited root
// must be the active one, the proof must bind the (account,
// beneficiary, cumulative) leaf to it, and the cumulative amount must
// exceed what the account has effectively claimed. Exactly the delta
// is transferred from the reward holder to the beneficiary.
func (d *Distributor) ClaimMerkle(req ClaimRequest) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	p := d.newPending()
	if _, err := p.stageMerkle(req); err != nil {
		return err
	}
	return p.commit()
}

// ClaimMerkleBatch applies the claims in the supplied order,
// all-or-nothing. Later entries for the same account observe earlier
// entries of the same batch.
func (d *Distributor) ClaimMerkleBatch(reqs []ClaimRequest) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	p := d.newPending()
	for i, req := range reqs {
		if _, err := p.stageMerkle(req); err != nil {
			return fmt.Errorf("batch element %d: %w", i, err)
		}
	}
	return p.commit()
}

// CanClaimLive reports whether the live reward app has anything
// available for the account.
func (d *Distributor) CanClaimLive(account common.Address) bool {
	return !d.app.AvailableRewards(account).IsZero()
}

// LiveAvailable passes through the app's reported availability.
func (d *Distributor) LiveAvailable(account common.Address) *uint256.Int {
	return d.app.AvailableRewards(account)
}

// ClaimLive triggers the live reward app's withdrawal for the account.
// The app decides amounts and is a no-op when nothing is available;
// this operation does not inspect availability itself.
func (d *Distributor) ClaimLive(account common.Address) error {
	return d.app.WithdrawRewards(account)
}

// ClaimLiveOnly is ClaimLive under the uniform claim surface.
func (d *Distributor) ClaimLiveOnly(account common.Address) error {
	return d.ClaimLive(account)
}

func (d *Distributor) ClaimLiveBatch(accounts []common.Address) error {
	for i, account := range accounts {
		if err := d.ClaimLive(account); err != nil {
			return fmt.Errorf("batch element %d: %w", i, err)
		}
	}
	return nil
}

// ClaimCombined performs the merkle leg when the request carries one
// (zero cumulative, zero root or empty proof skips it silently, so one
// call signature serves accounts with and without a merkle entitlement
// this round), then the live leg when the app reports availability.
func (d *Distributor) ClaimCombined(req ClaimRequest) error {
	d.mu.Lock()
	if req.HasMerkle() {
		p := d.newPending()
		if _, err := p.stageMerkle(req); err != nil {
			d.mu.Unlock()
			return err
		}
		if err := p.commit(); err != nil {
			d.mu.Unlock()
			return err
		}
	}
	d.mu.Unlock()
	if d.CanClaimLive(req.Account) {
		return d.ClaimLive(req.Account)
	}
	return nil
}

// ClaimCombinedBatch stages every merkle leg before committing any of
// them; the live legs run after the merkle commit, in batch order.
func (d *Distributor) ClaimCombinedBatch(reqs []ClaimRequest) error {
	d.mu.Lock()
	p := d.newPending()
	for i, req := range reqs {
		if !req.HasMerkle() {
			continue
		}
		if _, err := p.stageMerkle(req); err != nil {
			d.mu.Unlock()
			return fmt.Errorf("batch element %d: %w", i, err)
		}
	}
	if err := p.commit(); err != nil {
		d.mu.Unlock()
		return err
	}
	d.mu.Unlock()
	for i, req := range reqs {
		if d.CanClaimLive(req.Account) {
			if err := d.ClaimLive(req.Account); err != nil {
				return fmt.Errorf("batch element %d: %w", i, err)
			}
		}
	}
	return nil
}
