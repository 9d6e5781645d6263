package merkle

import (
	"bytes"
	"errors"

	"github.com/holiman/uint256"
	"github.com/stakeworks/merkledrop/common"
)

// Leaf computes the claim leaf hash for a distribution entry:
// keccak256(account(20) || beneficiary(20) || cumulative(32, big-endian)).
// The encoding must match the offline builder byte for byte, so the
// amount is always written at full 256-bit width.
func Leaf(account common.Address, beneficiary common.Address, cumulative *uint256.Int) common.Hash {
	amount := cumulative.Bytes32()
	return common.Keccak256(account.Bytes(), beneficiary.Bytes(), amount[:])
}

// hashPair hashes two nodes in canonical (lexicographic) order, so
// proofs carry no left/right flags.
func hashPair(a common.Hash, b common.Hash) common.Hash {
	if bytes.Compare(a.Bytes(), b.Bytes()) <= 0 {
		return common.Keccak256(a.Bytes(), b.Bytes())
	}
	return common.Keccak256(b.Bytes(), a.Bytes())
}

// Verify recombines the sibling hashes up the tree and compares the
// result to root. Pure check: a malformed or truncated proof yields
// false, never an error.
func Verify(proof []common.Hash, root common.Hash, leaf common.Hash) bool {
	computed := leaf
	for _, sibling := range proof {
		computed = hashPair(computed, sibling)
	}
	return computed == root
}

// Tree is a sorted-pair keccak merkle tree over a fixed set of leaves.
// Odd nodes at the end of a level are carried up unhashed, matching
// what Verify expects (no proof element for a missing sibling).
type Tree struct {
	levels [][]common.Hash
}

// NewTree builds the tree bottom-up from the given leaf hashes.
func NewTree(leaves []common.Hash) (*Tree, error) {
	if len(leaves) == 0 {
		return nil, errors.New("no leaves to construct the merkle tree")
	}
	levels := [][]common.Hash{append([]common.Hash{}, leaves...)}
	for len(levels[len(levels)-1]) > 1 {
		level := levels[len(levels)-1]
		next := make([]common.Hash, 0, (len(level)+1)/2)
		for i := 0; i < len(level); i += 2 {
			if i+1 < len(level) {
				next = append(next, hashPair(level[i], level[i+1]))
			} else {
				next = append(next, level[i])
			}
		}
		levels = append(levels, next)
	}
	return &Tree{levels: levels}, nil
}

// Root returns the root of the merkle tree.
func (t *Tree) Root() common.Hash {
	top := t.levels[len(t.levels)-1]
	return top[0]
}

// Prove returns the sibling path for the leaf at the given index.
func (t *Tree) Prove(index int) ([]common.Hash, error) {
	if index < 0 || index >= len(t.levels[0]) {
		return nil, errors.New("leaf index out of range")
	}
	proof := make([]common.Hash, 0, len(t.levels)-1)
	for _, level := range t.levels[:len(t.levels)-1] {
		sibling := index ^ 1
		if sibling < len(level) {
			proof = append(proof, level[sibling])
		}
		index /= 2
	}
	return proof, nil
}
