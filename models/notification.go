package models

import (
	"encoding/json"
	"time"
)

const (
	NotificationPropertyCreated       = "property.created"
	NotificationPropertyStatusChanged = "property.status_changed"
	NotificationInvestmentPurchased   = "investment.purchased"
	NotificationDividendsDistributed  = "dividends.distributed"
	NotificationDividendsClaimed      = "dividends.claimed"
	NotificationInvestmentTransferred = "investment.transferred"
	NotificationInvestmentListed      = "investment.listed"
	NotificationListingSold           = "investment.listing_sold"
	NotificationCapabilityTransferred = "capability.transferred"
)

// Notification é uma entrada do log de notificações consumido pelos indexadores.
type Notification struct {
	Seq        uint64          `json:"seq"`
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	PropertyID string          `json:"property_id"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

// IsInvestmentEvent indica se a notificação altera um Investment.
func (n Notification) IsInvestmentEvent() bool {
	switch n.Type {
	case NotificationInvestmentPurchased, NotificationInvestmentTransferred, NotificationListingSold:
		return true
	}
	return false
}

type PropertyCreatedPayload struct {
	PropertyID    string  `json:"property_id"`
	Name          string  `json:"name"`
	TotalValue    uint64  `json:"total_value"`
	TotalShares   uint64  `json:"total_shares"`
	PricePerShare uint64  `json:"price_per_share"`
	Owner         Address `json:"owner"`
	CapabilityID  string  `json:"capability_id"`
}

type PropertyStatusChangedPayload struct {
	PropertyID string `json:"property_id"`
	IsActive   bool   `json:"is_active"`
}

type InvestmentPurchasedPayload struct {
	PropertyID      string  `json:"property_id"`
	InvestmentID    string  `json:"investment_id"`
	Investor        Address `json:"investor"`
	SharesPurchased uint64  `json:"shares_purchased"`
	AmountPaid      uint64  `json:"amount_paid"`
}

// DividendsDistributedPayload reporta o aporte e o valor por cota calculado.
// O valor por cota é apenas informativo: nenhum resgate é vinculado a ele.
type DividendsDistributedPayload struct {
	PropertyID     string `json:"property_id"`
	TotalAmount    uint64 `json:"total_amount"`
	PerShareAmount uint64 `json:"per_share_amount"`
}

type DividendsClaimedPayload struct {
	PropertyID   string  `json:"property_id"`
	InvestmentID string  `json:"investment_id"`
	Holder       Address `json:"holder"`
	Amount       uint64  `json:"amount"`
}

type InvestmentTransferredPayload struct {
	InvestmentID string  `json:"investment_id"`
	From         Address `json:"from"`
	To           Address `json:"to"`
}

type InvestmentListedPayload struct {
	InvestmentID string  `json:"investment_id"`
	Seller       Address `json:"seller"`
	Shares       uint64  `json:"shares"`
	Price        uint64  `json:"price"`
}

type ListingSoldPayload struct {
	InvestmentID string  `json:"investment_id"`
	Seller       Address `json:"seller"`
	Buyer        Address `json:"buyer"`
	AmountPaid   uint64  `json:"amount_paid"`
}

type CapabilityTransferredPayload struct {
	CapabilityID string  `json:"capability_id"`
	From         Address `json:"from"`
	To           Address `json:"to"`
}
