package token

import (
	"testing"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/require"

	"github.com/stakeworks/merkledrop/common"
)

func TestMintTransfer(t *testing.T) {
	l := NewMemLedger(common.HexToAddress("0xd0"))
	a := common.HexToAddress("0x01")
	b := common.HexToAddress("0x02")

	require.True(t, l.TotalSupply().IsZero())
	l.Mint(a, uint256.NewInt(100))
	require.Equal(t, uint256.NewInt(100), l.TotalSupply())
	require.Equal(t, uint256.NewInt(100), l.BalanceOf(a))

	require.NoError(t, l.TransferFrom(a, b, uint256.NewInt(30)))
	require.Equal(t, uint256.NewInt(70), l.BalanceOf(a))
	require.Equal(t, uint256.NewInt(30), l.BalanceOf(b))

	// Overdraft fails without side effects.
	err := l.TransferFrom(a, b, uint256.NewInt(71))
	require.Error(t, err)
	require.Equal(t, uint256.NewInt(70), l.BalanceOf(a))
	require.Equal(t, uint256.NewInt(30), l.BalanceOf(b))
}
