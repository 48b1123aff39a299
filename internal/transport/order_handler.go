package transport

import (
	"net/http"

	"thrift-store/internal/middleware"
	"thrift-store/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// OrderHandler exposes purchases and sales
type OrderHandler struct {
	checkout service.CheckoutService
	logger   *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(checkout service.CheckoutService, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{checkout: checkout, logger: logger}
}

// RegisterRoutes registers the order routes, all of which need a user
func (h *OrderHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/orders", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.ListPurchases)
		r.Get("/sales", h.ListSales)
		r.Get("/{id}", h.GetOrder)
	})
}

// ListPurchases returns the caller's orders as buyer, newest first
func (h *OrderHandler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	orders, err := h.checkout.ListPurchases(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, h.logger, "List purchases", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

// ListSales returns the caller's orders as seller, newest first
func (h *OrderHandler) ListSales(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	orders, err := h.checkout.ListSales(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, h.logger, "List sales", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, orders)
}

// GetOrder returns one order visible to the caller
func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	orderID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	order, err := h.checkout.GetOrder(r.Context(), orderID, userID)
	if err != nil {
		respondWithServiceError(w, h.logger, "Get order", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, order)
}
