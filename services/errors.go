package services

import "errors"

var (
	ErrPropertyInactive   = errors.New("imóvel inativo")
	ErrInvalidShareAmount = errors.New("quantidade de cotas inválida")
	ErrInsufficientShares = errors.New("cotas disponíveis insuficientes")
	ErrInsufficientFunds  = errors.New("pagamento insuficiente")
	ErrArithmeticOverflow = errors.New("estouro aritmético")
	ErrPropertyMismatch   = errors.New("investimento não pertence a este imóvel")
	ErrSellerMismatch     = errors.New("vendedor informado não é o detentor do investimento")
	ErrUnauthorized       = errors.New("capacidade ausente ou não corresponde ao imóvel")
	ErrNotRecordHolder    = errors.New("chamador não é o detentor do investimento")
	ErrNotFound           = errors.New("não encontrado")
)

// ErrorKind classifica as falhas para quem chama o núcleo.
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindAuthorization ErrorKind = "authorization"
	KindNotFound      ErrorKind = "not_found"
	KindInternal      ErrorKind = "internal"
)

// Classify devolve a classe de err. Erros desconhecidos são internos.
func Classify(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrPropertyInactive),
		errors.Is(err, ErrInvalidShareAmount),
		errors.Is(err, ErrInsufficientShares),
		errors.Is(err, ErrInsufficientFunds),
		errors.Is(err, ErrArithmeticOverflow),
		errors.Is(err, ErrPropertyMismatch),
		errors.Is(err, ErrSellerMismatch):
		return KindValidation
	case errors.Is(err, ErrUnauthorized), errors.Is(err, ErrNotRecordHolder):
		return KindAuthorization
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	default:
		return KindInternal
	}
}

// Code é o identificador estável de err usado nas respostas HTTP.
func Code(err error) string {
	codes := []struct {
		err  error
		code string
	}{
		{ErrPropertyInactive, "property_inactive"},
		{ErrInvalidShareAmount, "invalid_share_amount"},
		{ErrInsufficientShares, "insufficient_shares"},
		{ErrInsufficientFunds, "insufficient_funds"},
		{ErrArithmeticOverflow, "arithmetic_overflow"},
		{ErrPropertyMismatch, "property_mismatch"},
		{ErrSellerMismatch, "seller_mismatch"},
		{ErrUnauthorized, "unauthorized"},
		{ErrNotRecordHolder, "not_record_holder"},
		{ErrNotFound, "not_found"},
	}
	for _, c := range codes {
		if errors.Is(err, c.err) {
			return c.code
		}
	}
	return "internal"
}
