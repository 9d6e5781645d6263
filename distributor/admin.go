package distributor

import (
	"github.com/stakeworks/merkledrop/common"
	"github.com/stakeworks/merkledrop/droperrors"
	"github.com/stakeworks/merkledrop/log"
)

// RotateRoot replaces the active distribution root. Owner only. Claim
// records are untouched; claims citing the old root fail with
// StaleRoot from here on.
func (d *Distributor) RotateRoot(caller common.Address, newRoot common.Hash) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if caller != d.owner {
		return droperrors.ErrAUnauthorized
	}
	oldRoot := d.root
	if d.store != nil {
		if err := d.store.SetRoot(newRoot); err != nil {
			return err
		}
	}
	d.root = newRoot
	log.Info(log.DropMonitoring, "root rotated", "old", oldRoot.StringShort(), "new", newRoot.StringShort())
	if d.notifier != nil {
		d.notifier.RootChanged(oldRoot, newRoot)
	}
	return nil
}

// RotateRewardHolder repoints the account payable tokens are drawn
// from. Owner only; the zero address is rejected.
func (d *Distributor) RotateRewardHolder(caller common.Address, newHolder common.Address) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if caller != d.owner {
		return droperrors.ErrAUnauthorized
	}
	if newHolder.IsZero() {
		return droperrors.ErrAInvalidAddress
	}
	oldHolder := d.holder
	if d.store != nil {
		if err := d.store.SetHolder(newHolder); err != nil {
			return err
		}
	}
	d.holder = newHolder
	log.Info(log.DropMonitoring, "reward holder rotated", "old", oldHolder.Hex(), "new", newHolder.Hex())
	if d.notifier != nil {
		d.notifier.HolderChanged(oldHolder, newHolder)
	}
	return nil
}
