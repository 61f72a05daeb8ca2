package vault_test

import (
	"testing"

	"github.com/ferreirogomes/tijolo/vault"
	"github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCustodyFundWithdrawDeposit(t *testing.T) {
	c := vault.NewCustody(true)
	alice := solana.NewWallet().PublicKey()
	bob := solana.NewWallet().PublicKey()

	require.NoError(t, c.Fund(alice, 100))
	b, err := c.Withdraw(alice, 40)
	require.NoError(t, err)
	assert.Equal(t, uint64(60), c.BalanceOf(alice))

	require.NoError(t, c.Deposit(bob, b))
	assert.Equal(t, uint64(40), c.BalanceOf(bob))
	assert.Equal(t, uint64(0), b.Value())
	assert.Equal(t, uint64(100), c.Supply())
}

func TestCustodyWithdrawInsufficient(t *testing.T) {
	c := vault.NewCustody(true)
	alice := solana.NewWallet().PublicKey()
	require.NoError(t, c.Fund(alice, 10))

	_, err := c.Withdraw(alice, 11)
	assert.ErrorIs(t, err, vault.ErrInsufficientBalance)
	assert.Equal(t, uint64(10), c.BalanceOf(alice))
}

func TestCustodyFaucetDisabled(t *testing.T) {
	c := vault.NewCustody(false)
	err := c.Fund(solana.NewWallet().PublicKey(), 10)
	assert.ErrorIs(t, err, vault.ErrFaucetDisabled)
	assert.Equal(t, uint64(0), c.Supply())
}

func TestDisplay(t *testing.T) {
	assert.Equal(t, "$10.00", vault.Display(1000, "USD"))
	assert.Equal(t, "1000", vault.Display(1000, "XXX-not-a-currency"))
}
