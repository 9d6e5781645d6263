// Package distribution defines the file format published by the
// offline tree builder: one root plus a ready-to-submit claim tuple
// per account. Claimants read the file and submit their tuple
// verbatim; the engine never parses this format itself.
package distribution

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/holiman/uint256"

	"github.com/stakeworks/merkledrop/common"
	"github.com/stakeworks/merkledrop/distributor"
	"github.com/stakeworks/merkledrop/log"
	"github.com/stakeworks/merkledrop/merkle"
)

// Entry is one row of the rewards snapshot fed to the builder. The
// cumulative amount is the account's lifetime total entitlement, not a
// per-round delta.
type Entry struct {
	Account     common.Address `json:"account"`
	Beneficiary common.Address `json:"beneficiary"`
	Cumulative  *uint256.Int   `json:"cumulative"`
}

// File is a published distribution snapshot.
type File struct {
	Root   common.Hash                         `json:"root"`
	Claims map[string]distributor.ClaimRequest `json:"claims"`
}

// Build computes the tree over the snapshot and packages a claim tuple
// per account. Entries are sorted by account so the same snapshot
// always yields the same root.
func Build(entries []Entry) (*File, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("empty rewards snapshot")
	}
	sorted := append([]Entry{}, entries...)
	sort.Slice(sorted, func(i, j int) bool {
		return bytes.Compare(sorted[i].Account.Bytes(), sorted[j].Account.Bytes()) < 0
	})
	leaves := make([]common.Hash, len(sorted))
	for i, e := range sorted {
		if i > 0 && e.Account == sorted[i-1].Account {
			return nil, fmt.Errorf("duplicate account %s in snapshot", e.Account.Hex())
		}
		if e.Account.IsZero() || e.Beneficiary.IsZero() {
			return nil, fmt.Errorf("entry %d: zero account or beneficiary", i)
		}
		if e.Cumulative == nil || e.Cumulative.IsZero() {
			return nil, fmt.Errorf("entry %d (%s): zero cumulative amount", i, e.Account.Hex())
		}
		leaves[i] = merkle.Leaf(e.Account, e.Beneficiary, e.Cumulative)
	}
	tree, err := merkle.NewTree(leaves)
	if err != nil {
		return nil, err
	}
	root := tree.Root()
	claims := make(map[string]distributor.ClaimRequest, len(sorted))
	for i, e := range sorted {
		proof, err := tree.Prove(i)
		if err != nil {
			return nil, err
		}
		claims[e.Account.Hex()] = distributor.ClaimRequest{
			Account:     e.Account,
			Beneficiary: e.Beneficiary,
			Cumulative:  e.Cumulative,
			Root:        root,
			Proof:       proof,
		}
	}
	log.Debug(log.BuilderMonitoring, "distribution built", "root", root.Hex(), "claims", len(claims))
	return &File{Root: root, Claims: claims}, nil
}

// Claim returns the claim tuple for an account, if the distribution
// carries one.
func (f *File) Claim(account common.Address) (distributor.ClaimRequest, bool) {
	req, ok := f.Claims[account.Hex()]
	return req, ok
}

// Load reads a published distribution file.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse distribution file %s: %w", path, err)
	}
	return &f, nil
}

// Save writes the distribution file.
func (f *File) Save(path string) error {
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// LoadEntries reads a rewards snapshot (builder input).
func LoadEntries(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse rewards snapshot %s: %w", path, err)
	}
	return entries, nil
}
