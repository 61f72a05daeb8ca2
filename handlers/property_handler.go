package handlers

import (
	"context"
	"net/http"

	"github.com/ferreirogomes/tijolo/models"
	"github.com/ferreirogomes/tijolo/services"
	"github.com/ferreirogomes/tijolo/vault"

	"github.com/go-chi/chi/v5"
)

// Queries são as consultas de listagem, servidas pelo núcleo ou pelo espelho.
type Queries interface {
	ListProperties(ctx context.Context, activeOnly bool) ([]models.Property, error)
	InvestmentsByHolder(ctx context.Context, holder models.Address) ([]models.Investment, error)
}

// PropertyHandler lida com requisições HTTP relacionadas a imóveis.
type PropertyHandler struct {
	Service  *services.TokenizationService
	Queries  Queries
	Custody  *vault.Custody
	Currency string
}

// NewPropertyHandler cria uma nova instância do handler de imóveis.
func NewPropertyHandler(s *services.TokenizationService, q Queries, c *vault.Custody, currency string) *PropertyHandler {
	return &PropertyHandler{Service: s, Queries: q, Custody: c, Currency: currency}
}

type createPropertyResponse struct {
	Property   models.Property   `json:"property"`
	Capability models.Capability `json:"capability"`
}

// CreateProperty cria um novo imóvel tokenizado.
// POST /properties
func (h *PropertyHandler) CreateProperty(w http.ResponseWriter, r *http.Request) {
	caller, ok := mustCaller(w, r)
	if !ok {
		return
	}
	var requestBody services.CreatePropertyInput
	if !decodeBody(w, r, &requestBody) {
		return
	}

	p, capability, err := h.Service.CreateProperty(r.Context(), caller, requestBody)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createPropertyResponse{Property: p, Capability: capability})
}

// ListProperties lista os imóveis.
// GET /properties?active=true
func (h *PropertyHandler) ListProperties(w http.ResponseWriter, r *http.Request) {
	activeOnly := r.URL.Query().Get("active") == "true"
	properties, err := h.Queries.ListProperties(r.Context(), activeOnly)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, properties)
}

// GetPropertyByID obtém um imóvel pelo ID.
// GET /properties/{id}
func (h *PropertyHandler) GetPropertyByID(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.GetProperty(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

type treasuryResponse struct {
	PropertyID string `json:"property_id"`
	Treasury   uint64 `json:"treasury"`
	Display    string `json:"display"`
}

// GetTreasury retorna o saldo do tesouro.
// GET /properties/{id}/treasury
func (h *PropertyHandler) GetTreasury(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	balance, err := h.Service.TreasuryBalance(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, treasuryResponse{PropertyID: id, Treasury: balance, Display: vault.Display(balance, h.Currency)})
}

// Invest compra cotas com valor retirado da conta do chamador.
// POST /properties/{id}/invest
func (h *PropertyHandler) Invest(w http.ResponseWriter, r *http.Request) {
	caller, ok := mustCaller(w, r)
	if !ok {
		return
	}
	var requestBody struct {
		Shares  uint64 `json:"shares"`
		Payment uint64 `json:"payment"`
	}
	if !decodeBody(w, r, &requestBody) {
		return
	}

	payment, err := h.Custody.Withdraw(caller, requestBody.Payment)
	if err != nil {
		writeError(w, err)
		return
	}
	inv, err := h.Service.Invest(r.Context(), caller, chi.URLParam(r, "id"), payment, requestBody.Shares)
	if err != nil {
		h.refund(caller, payment)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

// DistributeDividends aporta dividendos com valor retirado da conta do chamador.
// POST /properties/{id}/dividends
func (h *PropertyHandler) DistributeDividends(w http.ResponseWriter, r *http.Request) {
	caller, ok := mustCaller(w, r)
	if !ok {
		return
	}
	var requestBody struct {
		CapabilityID string `json:"capability_id"`
		Amount       uint64 `json:"amount"`
	}
	if !decodeBody(w, r, &requestBody) {
		return
	}

	funding, err := h.Custody.Withdraw(caller, requestBody.Amount)
	if err != nil {
		writeError(w, err)
		return
	}
	report, err := h.Service.DistributeDividends(r.Context(), caller, chi.URLParam(r, "id"), requestBody.CapabilityID, funding)
	if err != nil {
		h.refund(caller, funding)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// SetStatus liga ou desliga as compras.
// POST /properties/{id}/status
func (h *PropertyHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	caller, ok := mustCaller(w, r)
	if !ok {
		return
	}
	var requestBody struct {
		CapabilityID string `json:"capability_id"`
		Active       bool   `json:"active"`
	}
	if !decodeBody(w, r, &requestBody) {
		return
	}
	p, err := h.Service.SetActive(r.Context(), caller, chi.URLParam(r, "id"), requestBody.CapabilityID, requestBody.Active)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

// TransferCapability entrega a capacidade de dono a outro endereço.
// POST /capabilities/{id}/transfer
func (h *PropertyHandler) TransferCapability(w http.ResponseWriter, r *http.Request) {
	caller, ok := mustCaller(w, r)
	if !ok {
		return
	}
	var requestBody struct {
		To models.Address `json:"to"`
	}
	if !decodeBody(w, r, &requestBody) {
		return
	}
	capability, err := h.Service.TransferCapability(r.Context(), caller, chi.URLParam(r, "id"), requestBody.To)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, capability)
}

// GetCapability obtém uma capacidade e seu detentor atual.
// GET /capabilities/{id}
func (h *PropertyHandler) GetCapability(w http.ResponseWriter, r *http.Request) {
	capability, err := h.Service.GetCapability(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, capability)
}

// GetPropertyInvestments lista os investimentos de um imóvel.
// GET /properties/{id}/investments
func (h *PropertyHandler) GetPropertyInvestments(w http.ResponseWriter, r *http.Request) {
	investments, err := h.Service.InvestmentsByProperty(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	if investments == nil {
		investments = []models.Investment{}
	}
	writeJSON(w, http.StatusOK, investments)
}

// refund devolve à conta do chamador um pagamento que o núcleo recusou.
func (h *PropertyHandler) refund(caller models.Address, b *vault.Balance) {
	refund(h.Custody, caller, b)
}
