package distributor_test

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/stakeworks/merkledrop/common"
	"github.com/stakeworks/merkledrop/distribution"
	"github.com/stakeworks/merkledrop/distributor"
	"github.com/stakeworks/merkledrop/droperrors"
	"github.com/stakeworks/merkledrop/rewardapp"
	"github.com/stakeworks/merkledrop/token"
)

var (
	owner     = common.HexToAddress("0x00000000000000000000000000000000000000a1")
	holder    = common.HexToAddress("0x00000000000000000000000000000000000000a2")
	pool      = common.HexToAddress("0x00000000000000000000000000000000000000a3")
	tokenAddr = common.HexToAddress("0x00000000000000000000000000000000000000d0")
	s1        = common.HexToAddress("0x0000000000000000000000000000000000000051")
	s2        = common.HexToAddress("0x0000000000000000000000000000000000000052")
	b1        = common.HexToAddress("0x00000000000000000000000000000000000000b1")
	b2        = common.HexToAddress("0x00000000000000000000000000000000000000b2")
)

type fixture struct {
	token *token.MemLedger
	app   *rewardapp.Accruer
	d     *distributor.Distributor
}

// newFixture builds a funded token, a live reward app and a
// distributor rooted at the given distribution.
func newFixture(t *testing.T, root common.Hash, legacy distributor.LegacyLookup) *fixture {
	t.Helper()
	tok := token.NewMemLedger(tokenAddr)
	tok.Mint(holder, uint256.NewInt(1_000_000))
	tok.Mint(pool, uint256.NewInt(1_000_000))
	app := rewardapp.NewAccruer(tok, pool)
	d, err := distributor.New(distributor.Config{
		Owner:  owner,
		Token:  tok,
		Holder: holder,
		App:    app,
		Legacy: legacy,
		Root:   root,
	})
	require.NoError(t, err)
	return &fixture{token: tok, app: app, d: d}
}

func buildDistribution(t *testing.T, entries ...distribution.Entry) *distribution.File {
	t.Helper()
	file, err := distribution.Build(entries)
	require.NoError(t, err)
	return file
}

func mustClaim(t *testing.T, f *distribution.File, account common.Address) distributor.ClaimRequest {
	t.Helper()
	req, ok := f.Claim(account)
	require.True(t, ok, "no claim for %s", account.Hex())
	return req
}

func TestConstructionValidation(t *testing.T) {
	tok := token.NewMemLedger(tokenAddr)
	app := rewardapp.NewAccruer(tok, pool)

	_, err := distributor.New(distributor.Config{Owner: owner, Holder: holder, App: app})
	require.ErrorIs(t, err, droperrors.ErrAInvalidAddress, "nil token")

	_, err = distributor.New(distributor.Config{Owner: owner, Token: tok, Holder: holder, App: app})
	require.ErrorIs(t, err, droperrors.ErrATokenNotLive, "zero supply")

	tok.Mint(holder, uint256.NewInt(1000))
	_, err = distributor.New(distributor.Config{Token: tok, Holder: holder, App: app})
	require.ErrorIs(t, err, droperrors.ErrAInvalidAddress, "zero owner")

	_, err = distributor.New(distributor.Config{Owner: owner, Token: tok, App: app})
	require.ErrorIs(t, err, droperrors.ErrAInvalidAddress, "zero holder")

	_, err = distributor.New(distributor.Config{Owner: owner, Token: tok, Holder: holder})
	require.ErrorIs(t, err, droperrors.ErrAInvalidAddress, "nil app")

	otherToken := token.NewMemLedger(common.HexToAddress("0xdddddddddddddddddddddddddddddddddddddddd"))
	otherToken.Mint(holder, uint256.NewInt(1000))
	legacyApp := rewardapp.NewAccruer(otherToken, pool)
	legacyD, err := distributor.New(distributor.Config{Owner: owner, Token: otherToken, Holder: holder, App: legacyApp})
	require.NoError(t, err)

	_, err = distributor.New(distributor.Config{Owner: owner, Token: tok, Holder: holder, App: app, Legacy: legacyD})
	require.ErrorIs(t, err, droperrors.ErrAIncompatibleLegacy, "legacy on a different token")
}

// Distribution D1 grants S1 100 under R1; claiming pays 100. D2 raises
// the cumulative entitlement to 250 under R2; claiming pays exactly
// 150 more and EffectiveClaimed reads 250.
func TestTwoDistributionScenario(t *testing.T) {
	d1 := buildDistribution(t,
		distribution.Entry{Account: s1, Beneficiary: b1, Cumulative: uint256.NewInt(100)},
		distribution.Entry{Account: s2, Beneficiary: b2, Cumulative: uint256.NewInt(40)},
	)
	fx := newFixture(t, d1.Root, nil)

	require.NoError(t, fx.d.ClaimMerkle(mustClaim(t, d1, s1)))
	require.Equal(t, uint256.NewInt(100), fx.token.BalanceOf(b1))
	require.Equal(t, uint256.NewInt(100), fx.d.EffectiveClaimed(s1))

	d2 := buildDistribution(t,
		distribution.Entry{Account: s1, Beneficiary: b1, Cumulative: uint256.NewInt(250)},
		distribution.Entry{Account: s2, Beneficiary: b2, Cumulative: uint256.NewInt(90)},
	)
	require.NoError(t, fx.d.RotateRoot(owner, d2.Root))

	holderBefore := fx.token.BalanceOf(holder)
	require.NoError(t, fx.d.ClaimMerkle(mustClaim(t, d2, s1)))
	require.Equal(t, uint256.NewInt(250), fx.token.BalanceOf(b1))
	require.Equal(t, uint256.NewInt(250), fx.d.EffectiveClaimed(s1))

	holderAfter := fx.token.BalanceOf(holder)
	require.Equal(t, uint256.NewInt(150), new(uint256.Int).Sub(holderBefore, holderAfter))
}

func TestReplayRejection(t *testing.T) {
	dist := buildDistribution(t,
		distribution.Entry{Account: s1, Beneficiary: b1, Cumulative: uint256.NewInt(100)},
	)
	fx := newFixture(t, dist.Root, nil)
	req := mustClaim(t, dist, s1)

	require.NoError(t, fx.d.ClaimMerkle(req))
	err := fx.d.ClaimMerkle(req)
	require.ErrorIs(t, err, droperrors.ErrCNothingToClaim)
	require.Equal(t, uint256.NewInt(100), fx.token.BalanceOf(b1), "replay must not pay twice")
}

func TestStaleRootAndRotationSafety(t *testing.T) {
	d1 := buildDistribution(t,
		distribution.Entry{Account: s1, Beneficiary: b1, Cumulative: uint256.NewInt(100)},
		distribution.Entry{Account: s2, Beneficiary: b2, Cumulative: uint256.NewInt(70)},
	)
	fx := newFixture(t, d1.Root, nil)
	require.NoError(t, fx.d.ClaimMerkle(mustClaim(t, d1, s2)))

	newRoot := common.HexToHash("0x4242424242424242424242424242424242424242424242424242424242424242")
	require.NoError(t, fx.d.RotateRoot(owner, newRoot))

	// Rotation must not disturb claim records.
	require.Equal(t, uint256.NewInt(70), fx.d.EffectiveClaimed(s2))

	err := fx.d.ClaimMerkle(mustClaim(t, d1, s1))
	require.ErrorIs(t, err, droperrors.ErrCStaleRoot)
	require.True(t, fx.token.BalanceOf(b1).IsZero())
}

func TestInvalidProof(t *testing.T) {
	dist := buildDistribution(t,
		distribution.Entry{Account: s1, Beneficiary: b1, Cumulative: uint256.NewInt(100)},
		distribution.Entry{Account: s2, Beneficiary: b2, Cumulative: uint256.NewInt(50)},
	)
	fx := newFixture(t, dist.Root, nil)

	// Proof for a different leaf.
	req := mustClaim(t, dist, s1)
	req.Proof = mustClaim(t, dist, s2).Proof
	require.ErrorIs(t, fx.d.ClaimMerkle(req), droperrors.ErrCInvalidProof)

	// Inflated amount under a valid proof.
	req = mustClaim(t, dist, s1)
	req.Cumulative = uint256.NewInt(100_000)
	require.ErrorIs(t, fx.d.ClaimMerkle(req), droperrors.ErrCInvalidProof)

	// Redirected beneficiary under a valid proof.
	req = mustClaim(t, dist, s1)
	req.Beneficiary = b2
	require.ErrorIs(t, fx.d.ClaimMerkle(req), droperrors.ErrCInvalidProof)

	require.True(t, fx.token.BalanceOf(b1).IsZero())
	require.True(t, fx.d.EffectiveClaimed(s1).IsZero())
}

// Legacy chain: S1 claimed 100 in the predecessor. The fresh instance
// grants 250 and must pay exactly the 150 difference, then a second
// predecessor lookup no longer matters because the local record
// dominates.
func TestLegacyFallback(t *testing.T) {
	legacyDist := buildDistribution(t,
		distribution.Entry{Account: s1, Beneficiary: b1, Cumulative: uint256.NewInt(100)},
	)
	legacyFx := newFixture(t, legacyDist.Root, nil)
	require.NoError(t, legacyFx.d.ClaimMerkle(mustClaim(t, legacyDist, s1)))

	freshDist := buildDistribution(t,
		distribution.Entry{Account: s1, Beneficiary: b1, Cumulative: uint256.NewInt(250)},
	)
	freshFx := newFixture(t, freshDist.Root, legacyFx.d)

	require.Equal(t, uint256.NewInt(100), freshFx.d.EffectiveClaimed(s1), "fallthrough to legacy record")

	require.NoError(t, freshFx.d.ClaimMerkle(mustClaim(t, freshDist, s1)))
	require.Equal(t, uint256.NewInt(150), freshFx.token.BalanceOf(b1), "only the delta over the legacy record")
	require.Equal(t, uint256.NewInt(250), freshFx.d.EffectiveClaimed(s1))
}

func TestLegacyChainDepthTwo(t *testing.T) {
	gen1Dist := buildDistribution(t,
		distribution.Entry{Account: s1, Beneficiary: b1, Cumulative: uint256.NewInt(30)},
	)
	gen1 := newFixture(t, gen1Dist.Root, nil)
	require.NoError(t, gen1.d.ClaimMerkle(mustClaim(t, gen1Dist, s1)))

	// Middle generation: never saw a claim from S1.
	gen2 := newFixture(t, common.HexToHash("0x01"), gen1.d)
	gen3 := newFixture(t, common.HexToHash("0x02"), gen2.d)

	require.Equal(t, uint256.NewInt(30), gen3.d.EffectiveClaimed(s1), "lookup recurses through the chain")
}

// Once a local record exists it is authoritative even if the legacy
// value later exceeds it.
func TestLocalRecordDominatesLegacy(t *testing.T) {
	legacy := &legacyStub{tokenAddr: tokenAddr, claims: map[common.Address]*uint256.Int{
		s1: uint256.NewInt(100),
	}}
	dist := buildDistribution(t,
		distribution.Entry{Account: s1, Beneficiary: b1, Cumulative: uint256.NewInt(200)},
	)
	fx := newFixture(t, dist.Root, legacy)
	require.NoError(t, fx.d.ClaimMerkle(mustClaim(t, dist, s1)))
	require.Equal(t, uint256.NewInt(200), fx.d.EffectiveClaimed(s1))

	// Legacy record grows past the local one; local still wins.
	legacy.claims[s1] = uint256.NewInt(500)
	require.Equal(t, uint256.NewInt(200), fx.d.EffectiveClaimed(s1))
}

func TestMonotonicityAndExactPayout(t *testing.T) {
	fx := newFixture(t, common.HexToHash("0x01"), nil)
	prev := new(uint256.Int)
	for _, cumulative := range []uint64{10, 25, 26, 500, 10_000} {
		dist := buildDistribution(t,
			distribution.Entry{Account: s1, Beneficiary: b1, Cumulative: uint256.NewInt(cumulative)},
		)
		require.NoError(t, fx.d.RotateRoot(owner, dist.Root))

		before := fx.d.EffectiveClaimed(s1)
		holderBefore := fx.token.BalanceOf(holder)
		beneficiaryBefore := fx.token.BalanceOf(b1)

		require.NoError(t, fx.d.ClaimMerkle(mustClaim(t, dist, s1)))

		after := fx.d.EffectiveClaimed(s1)
		require.True(t, prev.Lt(after) || prev.Eq(after), "effective claimed decreased")
		prev = after

		delta := new(uint256.Int).Sub(uint256.NewInt(cumulative), before)
		require.Equal(t, delta, new(uint256.Int).Sub(fx.token.BalanceOf(b1), beneficiaryBefore))
		require.Equal(t, delta, new(uint256.Int).Sub(holderBefore, fx.token.BalanceOf(holder)))
	}
}

func TestRotateRootUnauthorized(t *testing.T) {
	fx := newFixture(t, common.HexToHash("0x01"), nil)
	err := fx.d.RotateRoot(s1, common.HexToHash("0x02"))
	require.ErrorIs(t, err, droperrors.ErrAUnauthorized)
	require.Equal(t, common.HexToHash("0x01"), fx.d.Root())
}

func TestRotateHolder(t *testing.T) {
	fx := newFixture(t, common.HexToHash("0x01"), nil)

	err := fx.d.RotateRewardHolder(owner, common.ZeroAddress)
	require.ErrorIs(t, err, droperrors.ErrAInvalidAddress)
	require.Equal(t, holder, fx.d.RewardHolder(), "holder unchanged after rejected rotation")

	err = fx.d.RotateRewardHolder(s1, b1)
	require.ErrorIs(t, err, droperrors.ErrAUnauthorized)

	require.NoError(t, fx.d.RotateRewardHolder(owner, b2))
	require.Equal(t, b2, fx.d.RewardHolder())
}

type legacyStub struct {
	tokenAddr common.Address
	claims    map[common.Address]*uint256.Int
}

func (l *legacyStub) EffectiveClaimed(account common.Address) *uint256.Int {
	if amount, ok := l.claims[account]; ok {
		return new(uint256.Int).Set(amount)
	}
	return new(uint256.Int)
}

func (l *legacyStub) TokenAddress() common.Address {
	return l.tokenAddr
}
