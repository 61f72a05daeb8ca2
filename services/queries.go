package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/ferreirogomes/tijolo/models"
)

// GetProperty retorna a visão atual do imóvel, com o saldo do tesouro.
func (s *TokenizationService) GetProperty(ctx context.Context, propertyID string) (models.Property, error) {
	if err := ctx.Err(); err != nil {
		return models.Property{}, err
	}
	e, err := s.entry(propertyID)
	if err != nil {
		return models.Property{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshot(), nil
}

// TreasuryBalance retorna o saldo atual do tesouro do imóvel.
func (s *TokenizationService) TreasuryBalance(ctx context.Context, propertyID string) (uint64, error) {
	p, err := s.GetProperty(ctx, propertyID)
	if err != nil {
		return 0, err
	}
	return p.Treasury, nil
}

func (s *TokenizationService) GetInvestment(ctx context.Context, investmentID string) (models.Investment, error) {
	if err := ctx.Err(); err != nil {
		return models.Investment{}, err
	}
	inv, e, err := s.lockInvestment(investmentID)
	if err != nil {
		return models.Investment{}, err
	}
	defer e.mu.Unlock()
	return *inv, nil
}

func (s *TokenizationService) GetCapability(ctx context.Context, capabilityID string) (models.Capability, error) {
	if err := ctx.Err(); err != nil {
		return models.Capability{}, err
	}
	s.mu.RLock()
	capability, ok := s.capabilities[capabilityID]
	s.mu.RUnlock()
	if !ok {
		return models.Capability{}, fmt.Errorf("%w: capacidade %s", ErrNotFound, capabilityID)
	}
	e, err := s.entry(capability.PropertyID)
	if err != nil {
		return models.Capability{}, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	return *capability, nil
}

// ListProperties lista os imóveis em ordem de criação. Com activeOnly, só os ativos.
func (s *TokenizationService) ListProperties(ctx context.Context, activeOnly bool) ([]models.Property, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	entries := make([]*propertyEntry, 0, len(s.properties))
	for _, e := range s.properties {
		entries = append(entries, e)
	}
	s.mu.RUnlock()

	out := make([]models.Property, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		p := e.snapshot()
		e.mu.Unlock()
		if activeOnly && !p.IsActive {
			continue
		}
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// InvestmentsByHolder lista os investimentos detidos hoje por holder.
func (s *TokenizationService) InvestmentsByHolder(ctx context.Context, holder models.Address) ([]models.Investment, error) {
	return s.filterInvestments(ctx, func(inv *models.Investment) bool { return inv.Holder == holder })
}

// InvestmentsByProperty lista todos os investimentos de um imóvel.
func (s *TokenizationService) InvestmentsByProperty(ctx context.Context, propertyID string) ([]models.Investment, error) {
	if _, err := s.entry(propertyID); err != nil {
		return nil, err
	}
	return s.filterInvestments(ctx, func(inv *models.Investment) bool { return inv.PropertyID == propertyID })
}

func (s *TokenizationService) filterInvestments(ctx context.Context, keep func(*models.Investment) bool) ([]models.Investment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	all := make([]*models.Investment, 0, len(s.investments))
	for _, inv := range s.investments {
		all = append(all, inv)
	}
	s.mu.RUnlock()

	var out []models.Investment
	for _, inv := range all {
		e, err := s.entry(inv.PropertyID)
		if err != nil {
			return nil, err
		}
		e.mu.Lock()
		if keep(inv) {
			out = append(out, *inv)
		}
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}
