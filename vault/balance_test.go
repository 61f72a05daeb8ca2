package vault_test

import (
	"math"
	"testing"

	"github.com/ferreirogomes/tijolo/vault"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fundedBalance(t *testing.T, amount uint64) *vault.Balance {
	t.Helper()
	c := vault.NewCustody(true)
	addr := solana.NewWallet().PublicKey()
	require.NoError(t, c.Fund(addr, amount))
	b, err := c.Withdraw(addr, amount)
	require.NoError(t, err)
	return b
}

func TestSplitExtractsExactAmount(t *testing.T) {
	b := fundedBalance(t, 1500)

	part, err := b.Split(1000)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), part.Value())
	assert.Equal(t, uint64(500), b.Value())
}

func TestSplitMoreThanAvailableLeavesBalanceUntouched(t *testing.T) {
	b := fundedBalance(t, 10)

	_, err := b.Split(11)
	assert.ErrorIs(t, err, vault.ErrInsufficientBalance)
	assert.Equal(t, uint64(10), b.Value())
}

func TestJoinEmptiesTheOtherBalance(t *testing.T) {
	a := fundedBalance(t, 7)
	b := fundedBalance(t, 5)

	require.NoError(t, a.Join(b))
	assert.Equal(t, uint64(12), a.Value())
	assert.Equal(t, uint64(0), b.Value())
}

func TestJoinRejectsOverflow(t *testing.T) {
	a := fundedBalance(t, math.MaxUint64)
	b := fundedBalance(t, 1)

	err := a.Join(b)
	assert.ErrorIs(t, err, vault.ErrOverflow)
	assert.Equal(t, uint64(math.MaxUint64), a.Value())
	assert.Equal(t, uint64(1), b.Value())
}

func TestDestroyZero(t *testing.T) {
	assert.NoError(t, vault.Zero().DestroyZero())
	assert.ErrorIs(t, fundedBalance(t, 1).DestroyZero(), vault.ErrNonZeroBalance)
}

func TestMulDiv(t *testing.T) {
	q, err := vault.MulDiv(1900, 100, 100)
	require.NoError(t, err)
	assert.Equal(t, uint64(1900), q)

	q, err = vault.MulDiv(10, 1, 3)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), q)

	// produto intermediário acima de 64 bits
	q, err = vault.MulDiv(math.MaxUint64, 3, 4)
	require.NoError(t, err)
	assert.Equal(t, uint64(math.MaxUint64/4*3+2), q)

	_, err = vault.MulDiv(1, 1, 0)
	assert.ErrorIs(t, err, vault.ErrOverflow)
}

func TestMulOverflow(t *testing.T) {
	_, err := vault.Mul(math.MaxUint64, 2)
	assert.ErrorIs(t, err, vault.ErrOverflow)

	v, err := vault.Mul(100, 10)
	require.NoError(t, err)
	assert.Equal(t, uint64(1000), v)
}
