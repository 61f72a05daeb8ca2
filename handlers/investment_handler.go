package handlers

import (
	"net/http"

	"github.com/ferreirogomes/tijolo/logging"
	"github.com/ferreirogomes/tijolo/models"
	"github.com/ferreirogomes/tijolo/services"
	"github.com/ferreirogomes/tijolo/vault"

	"github.com/go-chi/chi/v5"
)

// InvestmentHandler lida com requisições HTTP relacionadas a investimentos.
type InvestmentHandler struct {
	Service  *services.TokenizationService
	Custody  *vault.Custody
	Currency string
}

// NewInvestmentHandler cria uma nova instância do handler de investimentos.
func NewInvestmentHandler(s *services.TokenizationService, c *vault.Custody, currency string) *InvestmentHandler {
	return &InvestmentHandler{Service: s, Custody: c, Currency: currency}
}

// GetInvestmentByID obtém um investimento pelo ID.
// GET /investments/{id}
func (h *InvestmentHandler) GetInvestmentByID(w http.ResponseWriter, r *http.Request) {
	inv, err := h.Service.GetInvestment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

type claimResponse struct {
	InvestmentID string `json:"investment_id"`
	Amount       uint64 `json:"amount"`
	Display      string `json:"display"`
}

// ClaimDividends resgata dividendos para a conta do detentor.
// POST /investments/{id}/claim
func (h *InvestmentHandler) ClaimDividends(w http.ResponseWriter, r *http.Request) {
	caller, ok := mustCaller(w, r)
	if !ok {
		return
	}
	id := chi.URLParam(r, "id")
	inv, err := h.Service.GetInvestment(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	amount, err := h.Service.ClaimDividends(r.Context(), caller, inv.PropertyID, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, claimResponse{InvestmentID: id, Amount: amount, Display: vault.Display(amount, h.Currency)})
}

// Transfer transfere o investimento para outro endereço.
// POST /investments/{id}/transfer
func (h *InvestmentHandler) Transfer(w http.ResponseWriter, r *http.Request) {
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
	inv, err := h.Service.TransferInvestment(r.Context(), caller, chi.URLParam(r, "id"), requestBody.To)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// List anuncia o investimento à venda.
// POST /investments/{id}/list
func (h *InvestmentHandler) List(w http.ResponseWriter, r *http.Request) {
	caller, ok := mustCaller(w, r)
	if !ok {
		return
	}
	var requestBody struct {
		Price uint64 `json:"price"`
	}
	if !decodeBody(w, r, &requestBody) {
		return
	}
	id := chi.URLParam(r, "id")
	if err := h.Service.ListInvestmentForSale(r.Context(), caller, id, requestBody.Price); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]interface{}{
		"investment_id": id,
		"price":         requestBody.Price,
		"display":       vault.Display(requestBody.Price, h.Currency),
	})
}

// Buy compra um investimento anunciado, pagando direto ao vendedor.
// POST /investments/{id}/buy
func (h *InvestmentHandler) Buy(w http.ResponseWriter, r *http.Request) {
	caller, ok := mustCaller(w, r)
	if !ok {
		return
	}
	var requestBody struct {
		Seller  models.Address `json:"seller"`
		Payment uint64         `json:"payment"`
	}
	if !decodeBody(w, r, &requestBody) {
		return
	}

	payment, err := h.Custody.Withdraw(caller, requestBody.Payment)
	if err != nil {
		writeError(w, err)
		return
	}
	inv, err := h.Service.BuyListedInvestment(r.Context(), caller, chi.URLParam(r, "id"), requestBody.Seller, payment)
	if err != nil {
		refund(h.Custody, caller, payment)
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

func refund(c *vault.Custody, caller models.Address, b *vault.Balance) {
	if b.Value() == 0 {
		return
	}
	if err := c.Deposit(caller, b); err != nil {
		logging.Error("falha ao devolver %d a %s: %v", b.Value(), caller, err)
	}
}
