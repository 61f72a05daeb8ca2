package services

import (
	"context"
	"fmt"

	"github.com/ferreirogomes/tijolo/logging"
	"github.com/ferreirogomes/tijolo/models"
	"github.com/ferreirogomes/tijolo/notifications"
	"github.com/ferreirogomes/tijolo/vault"

	"github.com/google/uuid"
)

// Invest compra sharesToBuy cotas do imóvel com payment.
//
// O valor exigido (cotas x preço) vai para o tesouro; o excedente volta para a
// conta de custódia do chamador. Em caso de erro o pagamento não é tocado e
// continua pertencendo ao chamador.
func (s *TokenizationService) Invest(ctx context.Context, caller models.Address, propertyID string, payment *vault.Balance, sharesToBuy uint64) (models.Investment, error) {
	if err := ctx.Err(); err != nil {
		return models.Investment{}, err
	}
	if payment == nil {
		payment = vault.Zero()
	}
	e, err := s.entry(propertyID)
	if err != nil {
		return models.Investment{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()

	p := &e.property
	if !p.IsActive {
		return models.Investment{}, fmt.Errorf("%w: %s", ErrPropertyInactive, propertyID)
	}
	if sharesToBuy == 0 {
		return models.Investment{}, ErrInvalidShareAmount
	}
	if p.AvailableShares < sharesToBuy {
		return models.Investment{}, fmt.Errorf("%w: pedido %d, disponível %d", ErrInsufficientShares, sharesToBuy, p.AvailableShares)
	}
	required, err := vault.Mul(sharesToBuy, p.PricePerShare)
	if err != nil {
		return models.Investment{}, fmt.Errorf("%w: %v", ErrArithmeticOverflow, err)
	}
	if payment.Value() < required {
		return models.Investment{}, fmt.Errorf("%w: exigido %d, recebido %d", ErrInsufficientFunds, required, payment.Value())
	}
	if err := e.treasury.CanAccept(required); err != nil {
		return models.Investment{}, fmt.Errorf("%w: %v", ErrArithmeticOverflow, err)
	}

	now := s.nowFn()
	inv := &models.Investment{
		ID:          uuid.NewString(),
		PropertyID:  propertyID,
		Holder:      caller,
		SharesOwned: sharesToBuy,
		AmountPaid:  required,
		CreatedAt:   now,
	}
	n, err := notifications.Encode(models.NotificationInvestmentPurchased, propertyID, models.InvestmentPurchasedPayload{
		PropertyID:      propertyID,
		InvestmentID:    inv.ID,
		Investor:        caller,
		SharesPurchased: sharesToBuy,
		AmountPaid:      required,
	})
	if err != nil {
		return models.Investment{}, err
	}

	portion, err := payment.Split(required)
	if err != nil {
		return models.Investment{}, fmt.Errorf("%w: %v", ErrInsufficientFunds, err)
	}
	if payment.Value() > 0 {
		if err := s.custody.Deposit(caller, payment); err != nil {
			_ = payment.Join(portion)
			return models.Investment{}, fmt.Errorf("falha ao devolver troco a %s: %w", caller, err)
		}
	}
	if err := payment.DestroyZero(); err != nil {
		return models.Investment{}, err
	}
	// CanAccept já garantiu que não há estouro
	_ = e.treasury.Join(portion)
	p.AvailableShares -= sharesToBuy

	s.mu.Lock()
	s.investments[inv.ID] = inv
	s.mu.Unlock()
	s.emit(n, now)

	logging.Debug("investimento %s: %s comprou %d cotas de %s por %d", inv.ID, caller, sharesToBuy, propertyID, required)
	return *inv, nil
}

// TransferInvestment passa o investimento inteiro para to. Só o detentor atual pode transferir.
func (s *TokenizationService) TransferInvestment(ctx context.Context, caller models.Address, investmentID string, to models.Address) (models.Investment, error) {
	if err := ctx.Err(); err != nil {
		return models.Investment{}, err
	}
	inv, e, err := s.lockInvestment(investmentID)
	if err != nil {
		return models.Investment{}, err
	}
	defer e.mu.Unlock()
	if inv.Holder != caller {
		return models.Investment{}, fmt.Errorf("%w: investimento %s", ErrNotRecordHolder, investmentID)
	}
	n, err := notifications.Encode(models.NotificationInvestmentTransferred, inv.PropertyID, models.InvestmentTransferredPayload{
		InvestmentID: investmentID,
		From:         caller,
		To:           to,
	})
	if err != nil {
		return models.Investment{}, err
	}
	inv.Holder = to
	s.emit(n, s.nowFn())
	return *inv, nil
}

// ListInvestmentForSale apenas anuncia a oferta. Não há custódia, reserva nem
// oferta exigível: o anúncio serve à descoberta fora do ledger.
func (s *TokenizationService) ListInvestmentForSale(ctx context.Context, caller models.Address, investmentID string, price uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	inv, e, err := s.lockInvestment(investmentID)
	if err != nil {
		return err
	}
	defer e.mu.Unlock()
	if inv.Holder != caller {
		return fmt.Errorf("%w: investimento %s", ErrNotRecordHolder, investmentID)
	}
	n, err := notifications.Encode(models.NotificationInvestmentListed, inv.PropertyID, models.InvestmentListedPayload{
		InvestmentID: investmentID,
		Seller:       caller,
		Shares:       inv.SharesOwned,
		Price:        price,
	})
	if err != nil {
		return err
	}
	s.emit(n, s.nowFn())
	return nil
}

// BuyListedInvestment paga seller com payment e passa o investimento ao chamador.
//
// O valor pago não é comparado ao preço anunciado e não existe estado de
// anúncio aberto: basta que seller ainda seja o detentor. Entre dois
// compradores, vence quem for ordenado primeiro; o segundo falha porque o
// vendedor já não detém o investimento.
func (s *TokenizationService) BuyListedInvestment(ctx context.Context, caller models.Address, investmentID string, seller models.Address, payment *vault.Balance) (models.Investment, error) {
	if err := ctx.Err(); err != nil {
		return models.Investment{}, err
	}
	if payment == nil {
		payment = vault.Zero()
	}
	inv, e, err := s.lockInvestment(investmentID)
	if err != nil {
		return models.Investment{}, err
	}
	defer e.mu.Unlock()
	if inv.Holder != seller {
		return models.Investment{}, fmt.Errorf("%w: investimento %s", ErrSellerMismatch, investmentID)
	}
	amount := payment.Value()
	n, err := notifications.Encode(models.NotificationListingSold, inv.PropertyID, models.ListingSoldPayload{
		InvestmentID: investmentID,
		Seller:       seller,
		Buyer:        caller,
		AmountPaid:   amount,
	})
	if err != nil {
		return models.Investment{}, err
	}
	if err := s.custody.Deposit(seller, payment); err != nil {
		return models.Investment{}, fmt.Errorf("falha ao pagar o vendedor %s: %w", seller, err)
	}
	inv.Holder = caller
	s.emit(n, s.nowFn())
	logging.Debug("investimento %s vendido por %s a %s por %d", investmentID, seller, caller, amount)
	return *inv, nil
}

// lockInvestment devolve o investimento com o lock do seu imóvel já travado.
func (s *TokenizationService) lockInvestment(investmentID string) (*models.Investment, *propertyEntry, error) {
	inv, err := s.investment(investmentID)
	if err != nil {
		return nil, nil, err
	}
	e, err := s.entry(inv.PropertyID)
	if err != nil {
		return nil, nil, err
	}
	e.mu.Lock()
	return inv, e, nil
}
