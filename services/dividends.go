package services

import (
	"context"
	"fmt"

	"github.com/ferreirogomes/tijolo/logging"
	"github.com/ferreirogomes/tijolo/models"
	"github.com/ferreirogomes/tijolo/notifications"
	"github.com/ferreirogomes/tijolo/vault"
)

// DistributionReport é o que DistributeDividends informa. PerShare é apenas
// informativo: nada é reservado por cota nem por investidor.
type DistributionReport struct {
	Amount   uint64 `json:"amount"`
	PerShare uint64 `json:"per_share_amount"`
}

// DistributeDividends deposita funding inteiro no tesouro do imóvel.
// O tesouro é um único caixa, sem separar dividendos do produto das vendas.
func (s *TokenizationService) DistributeDividends(ctx context.Context, caller models.Address, propertyID, capabilityID string, funding *vault.Balance) (DistributionReport, error) {
	if err := ctx.Err(); err != nil {
		return DistributionReport{}, err
	}
	if funding == nil {
		funding = vault.Zero()
	}
	e, err := s.entry(propertyID)
	if err != nil {
		return DistributionReport{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := s.authorize(caller, propertyID, capabilityID); err != nil {
		return DistributionReport{}, err
	}

	amount := funding.Value()
	if err := e.treasury.CanAccept(amount); err != nil {
		return DistributionReport{}, fmt.Errorf("%w: %v", ErrArithmeticOverflow, err)
	}
	report := DistributionReport{Amount: amount}
	if sold := e.property.SoldShares(); sold > 0 {
		report.PerShare = amount / sold
	}
	n, err := notifications.Encode(models.NotificationDividendsDistributed, propertyID, models.DividendsDistributedPayload{
		PropertyID:     propertyID,
		TotalAmount:    report.Amount,
		PerShareAmount: report.PerShare,
	})
	if err != nil {
		return DistributionReport{}, err
	}
	_ = e.treasury.Join(funding)
	s.emit(n, s.nowFn())

	logging.Debug("imóvel %s recebeu %d em dividendos (%d por cota)", propertyID, report.Amount, report.PerShare)
	return report, nil
}

// ClaimDividends paga ao detentor a fração do tesouro atual proporcional às
// suas cotas sobre as cotas vendidas: floor(tesouro * cotas / vendidas).
//
// Nenhum registro do resgate é mantido. Cada chamada recalcula sobre o tesouro
// do momento, então resgates repetidos são possíveis e a ordem dos resgates
// decide quanto cada investidor recebe.
func (s *TokenizationService) ClaimDividends(ctx context.Context, caller models.Address, propertyID, investmentID string) (uint64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	inv, err := s.investment(investmentID)
	if err != nil {
		return 0, err
	}
	if inv.PropertyID != propertyID {
		return 0, fmt.Errorf("%w: investimento %s é do imóvel %s", ErrPropertyMismatch, investmentID, inv.PropertyID)
	}
	e, err := s.entry(propertyID)
	if err != nil {
		return 0, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if inv.Holder != caller {
		return 0, fmt.Errorf("%w: investimento %s", ErrNotRecordHolder, investmentID)
	}

	var amount uint64
	if sold := e.property.SoldShares(); sold > 0 {
		amount, err = vault.MulDiv(e.treasury.Value(), inv.SharesOwned, sold)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrArithmeticOverflow, err)
		}
	}
	n, err := notifications.Encode(models.NotificationDividendsClaimed, propertyID, models.DividendsClaimedPayload{
		PropertyID:   propertyID,
		InvestmentID: investmentID,
		Holder:       caller,
		Amount:       amount,
	})
	if err != nil {
		return 0, err
	}
	if amount > 0 {
		payout, err := e.treasury.Split(amount)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrInsufficientFunds, err)
		}
		if err := s.custody.Deposit(caller, payout); err != nil {
			_ = e.treasury.Join(payout)
			return 0, fmt.Errorf("falha ao pagar dividendos a %s: %w", caller, err)
		}
	}
	s.emit(n, s.nowFn())

	logging.Debug("investimento %s resgatou %d do imóvel %s", investmentID, amount, propertyID)
	return amount, nil
}
