package models

import "time"

// Investment é o recibo de uma compra de cotas. Pode ser transferido como um todo.
type Investment struct {
	ID          string    `json:"id"`
	PropertyID  string    `json:"property_id"`
	Holder      Address   `json:"holder"`
	SharesOwned uint64    `json:"shares_owned"`
	AmountPaid  uint64    `json:"amount_paid"` // valor efetivamente levado ao tesouro, já descontado o troco
	CreatedAt   time.Time `json:"created_at"`
}

// Capability é a credencial ao portador que autoriza operações do dono sobre um imóvel.
type Capability struct {
	ID         string  `json:"id"`
	PropertyID string  `json:"property_id"`
	Holder     Address `json:"holder"`
}
