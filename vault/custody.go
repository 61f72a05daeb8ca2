package vault

import (
	"errors"
	"fmt"

	"github.com/ferreirogomes/tijolo/models"
	"github.com/sasha-s/go-deadlock"
)

var ErrFaucetDisabled = errors.New("faucet desabilitado")

// Custody mantém as contas de valor de cada endereço. Todo valor que entra
// em um tesouro sai daqui e todo valor pago por um tesouro volta para cá.
type Custody struct {
	mu       deadlock.Mutex
	accounts map[models.Address]*Balance
	supply   uint64
	faucet   bool
}

// NewCustody cria a custódia. Com faucet habilitado, Fund cria valor novo.
func NewCustody(faucet bool) *Custody {
	return &Custody{
		accounts: make(map[models.Address]*Balance),
		faucet:   faucet,
	}
}

// Fund credita amount novo na conta de addr.
func (c *Custody) Fund(addr models.Address, amount uint64) error {
	if !c.faucet {
		return ErrFaucetDisabled
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, carry := addCarry(c.supply, amount); carry {
		return fmt.Errorf("%w: oferta total", ErrOverflow)
	}
	acc := c.account(addr)
	if err := acc.Join(&Balance{value: amount}); err != nil {
		return err
	}
	c.supply += amount
	return nil
}

// Withdraw retira amount da conta de addr como um Balance avulso.
func (c *Custody) Withdraw(addr models.Address, amount uint64) (*Balance, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	out, err := c.account(addr).Split(amount)
	if err != nil {
		return nil, fmt.Errorf("falha ao retirar da conta %s: %w", addr, err)
	}
	return out, nil
}

// Deposit credita b na conta de addr; b fica zerado.
func (c *Custody) Deposit(addr models.Address, b *Balance) error {
	if b == nil {
		return ErrNilBalance
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.account(addr).Join(b); err != nil {
		return fmt.Errorf("falha ao depositar na conta %s: %w", addr, err)
	}
	return nil
}

// BalanceOf retorna o saldo da conta de addr.
func (c *Custody) BalanceOf(addr models.Address) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if acc, ok := c.accounts[addr]; ok {
		return acc.Value()
	}
	return 0
}

// Supply é o total de valor já criado pelo faucet.
func (c *Custody) Supply() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.supply
}

func (c *Custody) account(addr models.Address) *Balance {
	acc, ok := c.accounts[addr]
	if !ok {
		acc = Zero()
		c.accounts[addr] = acc
	}
	return acc
}

func addCarry(a, b uint64) (uint64, bool) {
	s := a + b
	return s, s < a
}
