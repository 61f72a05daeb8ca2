package models

import (
	"time"

	"github.com/gagliardetto/solana-go"
)

// Address identifica um participante do ledger (chave pública ed25519 em base58).
type Address = solana.PublicKey

// Property representa um imóvel tokenizado em cotas fracionárias.
// É a visão somente-leitura da entidade mantida pelo núcleo contábil.
type Property struct {
	ID              string    `json:"id"`
	Name            string    `json:"name"`
	Description     string    `json:"description"`
	Location        string    `json:"location"`
	PropertyType    string    `json:"property_type"`
	ImageURL        string    `json:"image_url"`
	RentalYield     string    `json:"rental_yield"` // rótulo livre, não usado na contabilidade
	TotalValue      uint64    `json:"total_value"`
	TotalShares     uint64    `json:"total_shares"`
	AvailableShares uint64    `json:"available_shares"`
	PricePerShare   uint64    `json:"price_per_share"`
	IsActive        bool      `json:"is_active"`
	Owner           Address   `json:"owner"`
	Treasury        uint64    `json:"treasury"`
	CreatedAt       time.Time `json:"created_at"`
}

// SoldShares retorna total_shares - available_shares.
func (p Property) SoldShares() uint64 {
	return p.TotalShares - p.AvailableShares
}
