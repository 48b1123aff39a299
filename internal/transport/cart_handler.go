package transport

import (
	"net/http"

	"thrift-store/internal/domain"
	"thrift-store/internal/middleware"
	"thrift-store/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AddToCartRequest adds an item to the caller's cart
type AddToCartRequest struct {
	ItemID   uuid.UUID `json:"item_id" validate:"required"`
	Quantity int       `json:"quantity" validate:"gte=0,lte=99"`
}

// SetQuantityRequest replaces a line quantity. Zero removes the line.
type SetQuantityRequest struct {
	Quantity int `json:"quantity" validate:"gte=0,lte=99"`
}

// CartResponse is the cart with its derived totals
type CartResponse struct {
	*domain.Cart
	Total     decimal.Decimal `json:"total"`
	ItemCount int             `json:"item_count"`
}

// CheckoutResponse lists the orders created by a checkout
type CheckoutResponse struct {
	Orders []*domain.Order `json:"orders"`
}

func toCartResponse(cart *domain.Cart) CartResponse {
	return CartResponse{Cart: cart, Total: cart.Total(), ItemCount: cart.ItemCount()}
}

// CartHandler handles the cart and checkout
type CartHandler struct {
	carts    service.CartService
	checkout service.CheckoutService
	logger   *zap.Logger
}

// NewCartHandler creates a new CartHandler
func NewCartHandler(carts service.CartService, checkout service.CheckoutService, logger *zap.Logger) *CartHandler {
	return &CartHandler{carts: carts, checkout: checkout, logger: logger}
}

// RegisterRoutes registers the cart routes, all of which need a user
func (h *CartHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Route("/api/cart", func(r chi.Router) {
		r.Use(authMiddleware)
		r.Get("/", h.GetCart)
		r.Post("/items", h.AddItem)
		r.Put("/items/{itemID}", h.SetQuantity)
		r.Delete("/items/{itemID}", h.RemoveItem)
		r.Post("/checkout", h.Checkout)
	})
}

// GetCart returns the caller's cart with live item data
func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	cart, err := h.carts.View(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, h.logger, "View cart", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, toCartResponse(cart))
}

// AddItem adds an item to the cart. A missing quantity counts as one.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req AddToCartRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	cart, err := h.carts.AddItem(r.Context(), userID, req.ItemID, req.Quantity)
	if err != nil {
		respondWithServiceError(w, h.logger, "Add to cart", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, toCartResponse(cart))
}

// SetQuantity replaces the quantity of a cart line
func (h *CartHandler) SetQuantity(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	itemID, ok := uuidParam(w, r, "itemID")
	if !ok {
		return
	}

	var req SetQuantityRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	cart, err := h.carts.SetQuantity(r.Context(), userID, itemID, req.Quantity)
	if err != nil {
		respondWithServiceError(w, h.logger, "Set quantity", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, toCartResponse(cart))
}

// RemoveItem drops a line from the cart. Removing an absent item is not an error.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	itemID, ok := uuidParam(w, r, "itemID")
	if !ok {
		return
	}

	cart, err := h.carts.RemoveItem(r.Context(), userID, itemID)
	if err != nil {
		respondWithServiceError(w, h.logger, "Remove from cart", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, toCartResponse(cart))
}

// Checkout buys everything in the cart or nothing
func (h *CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	orders, err := h.checkout.Checkout(r.Context(), userID)
	if err != nil {
		respondWithServiceError(w, h.logger, "Checkout", err)
		return
	}

	h.logger.Info("Checkout completed",
		zap.String("user_id", userID.String()),
		zap.Int("orders", len(orders)),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, CheckoutResponse{Orders: orders})
}
