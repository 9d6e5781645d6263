package distributor_test

import (
	"path/filepath"
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/stakeworks/merkledrop/common"
	"github.com/stakeworks/merkledrop/distribution"
	"github.com/stakeworks/merkledrop/distributor"
	"github.com/stakeworks/merkledrop/droperrors"
	"github.com/stakeworks/merkledrop/rewardapp"
	"github.com/stakeworks/merkledrop/store"
	"github.com/stakeworks/merkledrop/token"
)

// Claim, rotate, shut down, reopen: records and the rotated root must
// survive, and a replay against the reopened instance must still fail.
func TestPersistenceAcrossRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dropd")
	dist := buildDistribution(t,
		distribution.Entry{Account: s1, Beneficiary: b1, Cumulative: uint256.NewInt(100)},
	)
	newRoot := common.HexToHash("0x09")

	tok := token.NewMemLedger(tokenAddr)
	tok.Mint(holder, uint256.NewInt(1_000_000))
	cfg := distributor.Config{
		Owner:  owner,
		Token:  tok,
		Holder: holder,
		App:    rewardapp.NewAccruer(tok, pool),
		Root:   dist.Root,
	}

	st, err := store.NewStore(path)
	require.NoError(t, err)
	cfg.Store = st
	d, err := distributor.New(cfg)
	require.NoError(t, err)
	require.NoError(t, d.ClaimMerkle(mustClaim(t, dist, s1)))
	require.NoError(t, d.RotateRoot(owner, newRoot))
	require.NoError(t, st.Close())

	st, err = store.NewStore(path)
	require.NoError(t, err)
	defer st.Close()
	cfg.Store = st
	cfg.Root = dist.Root // stale configured root must lose to the persisted one
	d, err = distributor.New(cfg)
	require.NoError(t, err)

	require.Equal(t, newRoot, d.Root())
	require.Equal(t, uint256.NewInt(100), d.EffectiveClaimed(s1))

	err = d.ClaimMerkle(mustClaim(t, dist, s1))
	require.ErrorIs(t, err, droperrors.ErrCStaleRoot)
}

// A failed batch must leave no trace in the store either.
func TestPersistedBatchAtomicity(t *testing.T) {
	dist := buildDistribution(t,
		distribution.Entry{Account: s1, Beneficiary: b1, Cumulative: uint256.NewInt(100)},
		distribution.Entry{Account: s2, Beneficiary: b2, Cumulative: uint256.NewInt(40)},
	)
	st, err := store.NewMemoryStore()
	require.NoError(t, err)
	defer st.Close()

	tok := token.NewMemLedger(tokenAddr)
	tok.Mint(holder, uint256.NewInt(1_000_000))
	d, err := distributor.New(distributor.Config{
		Owner:  owner,
		Token:  tok,
		Holder: holder,
		App:    rewardapp.NewAccruer(tok, pool),
		Root:   dist.Root,
		Store:  st,
	})
	require.NoError(t, err)

	bad := mustClaim(t, dist, s2)
	bad.Proof = nil
	err = d.ClaimMerkleBatch([]distributor.ClaimRequest{mustClaim(t, dist, s1), bad})
	require.ErrorIs(t, err, droperrors.ErrCInvalidProof)

	_, found, err := st.GetClaimed(s1)
	require.NoError(t, err)
	require.False(t, found, "no record may land for any element of a failed batch")
}
