package handlers

import (
	"net/http"

	"github.com/ferreirogomes/tijolo/models"
	"github.com/ferreirogomes/tijolo/vault"

	"github.com/gagliardetto/solana-go"
	"github.com/go-chi/chi/v5"
)

// UserHandler lida com as contas de custódia e os investimentos de um endereço.
type UserHandler struct {
	Queries  Queries
	Custody  *vault.Custody
	Currency string
}

// NewUserHandler cria uma nova instância do handler de usuários.
func NewUserHandler(q Queries, c *vault.Custody, currency string) *UserHandler {
	return &UserHandler{Queries: q, Custody: c, Currency: currency}
}

func addressParam(w http.ResponseWriter, r *http.Request) (models.Address, bool) {
	addr, err := solana.PublicKeyFromBase58(chi.URLParam(r, "address"))
	if err != nil {
		writeErrorCode(w, http.StatusBadRequest, "invalid_address", err.Error())
		return models.Address{}, false
	}
	return addr, true
}

// GetUserInvestments obtém os investimentos detidos por um endereço.
// GET /users/{address}/investments
func (h *UserHandler) GetUserInvestments(w http.ResponseWriter, r *http.Request) {
	addr, ok := addressParam(w, r)
	if !ok {
		return
	}
	investments, err := h.Queries.InvestmentsByHolder(r.Context(), addr)
	if err != nil {
		writeError(w, err)
		return
	}
	if investments == nil {
		investments = []models.Investment{}
	}
	writeJSON(w, http.StatusOK, investments)
}

type walletResponse struct {
	Address models.Address `json:"address"`
	Balance uint64         `json:"balance"`
	Display string         `json:"display"`
}

// GetWallet obtém o saldo da conta de custódia.
// GET /wallets/{address}
func (h *UserHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	addr, ok := addressParam(w, r)
	if !ok {
		return
	}
	balance := h.Custody.BalanceOf(addr)
	writeJSON(w, http.StatusOK, walletResponse{Address: addr, Balance: balance, Display: vault.Display(balance, h.Currency)})
}

// FundWallet credita valor novo na própria conta do chamador (apenas com o
// faucet habilitado).
// POST /wallets/{address}/fund
func (h *UserHandler) FundWallet(w http.ResponseWriter, r *http.Request) {
	caller, ok := mustCaller(w, r)
	if !ok {
		return
	}
	addr, ok := addressParam(w, r)
	if !ok {
		return
	}
	if addr != caller {
		writeErrorCode(w, http.StatusForbidden, "unauthorized", "só é possível abastecer a própria conta")
		return
	}
	var requestBody struct {
		Amount uint64 `json:"amount"`
	}
	if !decodeBody(w, r, &requestBody) {
		return
	}
	if err := h.Custody.Fund(addr, requestBody.Amount); err != nil {
		writeError(w, err)
		return
	}
	balance := h.Custody.BalanceOf(addr)
	writeJSON(w, http.StatusOK, walletResponse{Address: addr, Balance: balance, Display: vault.Display(balance, h.Currency)})
}
