package transport

import (
	"net/http"

	"thrift-store/internal/domain"
	"thrift-store/internal/middleware"
	"thrift-store/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// PurchaseCreditsRequest tops up the caller's balance
type PurchaseCreditsRequest struct {
	Amount int `json:"amount" validate:"required,gt=0"`
}

// CreditsResponse is the balance page: current balance, recent entries and the
// packages on offer.
type CreditsResponse struct {
	Balance  int                    `json:"balance"`
	History  []*domain.CreditEntry  `json:"history"`
	Packages []domain.CreditPackage `json:"packages"`
}

// CreditHandler exposes the ledger
type CreditHandler struct {
	ledger service.LedgerService
	logger *zap.Logger
}

// NewCreditHandler creates a new CreditHandler
func NewCreditHandler(ledger service.LedgerService, logger *zap.Logger) *CreditHandler {
	return &CreditHandler{ledger: ledger, logger: logger}
}

// RegisterRoutes registers the credit routes, all of which need a user
func (h *CreditHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/credits", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.GetCredits)
		r.Post("/", h.PurchaseCredits)
	})
}

// GetCredits returns the caller's balance and history
func (h *CreditHandler) GetCredits(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	profile, err := h.ledger.Balance(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, h.logger, "Get balance", err)
		return
	}

	history, err := h.ledger.History(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, h.logger, "Credit history", err)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, CreditsResponse{
		Balance:  profile.Credits,
		History:  history,
		Packages: domain.CreditPackages,
	})
}

// PurchaseCredits adds the requested amount to the caller's balance
func (h *CreditHandler) PurchaseCredits(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req PurchaseCreditsRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	balance, err := h.ledger.Credit(r.Context(), userID, req.Amount)
	if err != nil {
		respondWithServiceError(w, h.logger, "Purchase credits", err)
		return
	}

	h.logger.Info("Credits purchased",
		zap.String("user_id", userID.String()),
		zap.Int("amount", req.Amount),
		zap.Int("balance", balance),
	)
	middleware.RespondWithJSON(w, http.StatusOK, map[string]int{"balance": balance})
}
