// Package vault fornece o armazenamento de valor fungível usado para
// pagamentos e para o tesouro dos imóveis, além da custódia de contas.
package vault

import (
	"errors"
	"fmt"
	"math/bits"
)

var (
	ErrInsufficientBalance = errors.New("saldo insuficiente")
	ErrOverflow            = errors.New("estouro aritmético")
	ErrNonZeroBalance      = errors.New("saldo não é zero")
	ErrNilBalance          = errors.New("saldo nulo")
)

// Balance é uma quantia de valor que só pode ser dividida ou combinada,
// nunca criada do nada fora da custódia. Use sempre por ponteiro.
type Balance struct {
	value uint64
}

// Zero cria um saldo vazio.
func Zero() *Balance {
	return &Balance{}
}

func (b *Balance) Value() uint64 {
	if b == nil {
		return 0
	}
	return b.value
}

// Split extrai exatamente amount do saldo para um novo Balance.
func (b *Balance) Split(amount uint64) (*Balance, error) {
	if b == nil {
		return nil, ErrNilBalance
	}
	if amount > b.value {
		return nil, fmt.Errorf("%w: pedido %d, disponível %d", ErrInsufficientBalance, amount, b.value)
	}
	b.value -= amount
	return &Balance{value: amount}, nil
}

// Join absorve other por completo; other fica zerado.
func (b *Balance) Join(other *Balance) error {
	if b == nil || other == nil {
		return ErrNilBalance
	}
	if err := b.CanAccept(other.value); err != nil {
		return err
	}
	b.value += other.value
	other.value = 0
	return nil
}

// CanAccept verifica se amount pode ser somado sem estouro.
func (b *Balance) CanAccept(amount uint64) error {
	if _, carry := bits.Add64(b.Value(), amount, 0); carry != 0 {
		return fmt.Errorf("%w: %d + %d", ErrOverflow, b.Value(), amount)
	}
	return nil
}

// DestroyZero descarta um saldo vazio. Saldos com valor não podem ser descartados.
func (b *Balance) DestroyZero() error {
	if b.Value() != 0 {
		return fmt.Errorf("%w: %d", ErrNonZeroBalance, b.value)
	}
	return nil
}

// MulDiv calcula floor(a*b/c) com produto intermediário de 128 bits.
func MulDiv(a, b, c uint64) (uint64, error) {
	if c == 0 {
		return 0, fmt.Errorf("%w: divisão por zero", ErrOverflow)
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= c {
		return 0, fmt.Errorf("%w: %d*%d/%d", ErrOverflow, a, b, c)
	}
	q, _ := bits.Div64(hi, lo, c)
	return q, nil
}

// Mul multiplica com verificação de estouro.
func Mul(a, b uint64) (uint64, error) {
	hi, lo := bits.Mul64(a, b)
	if hi != 0 {
		return 0, fmt.Errorf("%w: %d*%d", ErrOverflow, a, b)
	}
	return lo, nil
}
