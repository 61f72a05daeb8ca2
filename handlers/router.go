package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Handlers agrupa os handlers montados por NewRouter.
type Handlers struct {
	Properties    *PropertyHandler
	Investments   *InvestmentHandler
	Users         *UserHandler
	Notifications *NotificationHandler

	// Auth é opcional; sem ele é usada a janela padrão.
	Auth *Authenticator
}

// NewRouter monta as rotas HTTP. Toda mutação passa por RequireSignature.
func NewRouter(h Handlers) http.Handler {
	auth := h.Auth
	if auth == nil {
		auth = NewAuthenticator(DefaultSignatureWindow)
	}

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Route("/properties", func(r chi.Router) {
		r.Get("/", h.Properties.ListProperties)
		r.Get("/{id}", h.Properties.GetPropertyByID)
		r.Get("/{id}/treasury", h.Properties.GetTreasury)
		r.Get("/{id}/investments", h.Properties.GetPropertyInvestments)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSignature)
			r.Post("/", h.Properties.CreateProperty)
			r.Post("/{id}/invest", h.Properties.Invest)
			r.Post("/{id}/dividends", h.Properties.DistributeDividends)
			r.Post("/{id}/status", h.Properties.SetStatus)
		})
	})

	r.Get("/capabilities/{id}", h.Properties.GetCapability)
	r.With(auth.RequireSignature).Post("/capabilities/{id}/transfer", h.Properties.TransferCapability)

	r.Route("/investments/{id}", func(r chi.Router) {
		r.Get("/", h.Investments.GetInvestmentByID)
		r.Group(func(r chi.Router) {
			r.Use(auth.RequireSignature)
			r.Post("/claim", h.Investments.ClaimDividends)
			r.Post("/transfer", h.Investments.Transfer)
			r.Post("/list", h.Investments.List)
			r.Post("/buy", h.Investments.Buy)
		})
	})

	r.Get("/users/{address}/investments", h.Users.GetUserInvestments)
	r.Get("/wallets/{address}", h.Users.GetWallet)
	r.With(auth.RequireSignature).Post("/wallets/{address}/fund", h.Users.FundWallet)

	r.Get("/notifications", h.Notifications.ListNotifications)
	return r
}
