package transport

import (
	"net/http"
	"strconv"
	"strings"

	"thrift-store/internal/domain"
	"thrift-store/internal/middleware"
	"thrift-store/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ListingRequest creates or replaces the editable fields of a listing
type ListingRequest struct {
	Title       string          `json:"title" validate:"required,max=200"`
	Description string          `json:"description" validate:"max=5000"`
	Price       decimal.Decimal `json:"price" validate:"positive_decimal"`
	CategoryID  *uuid.UUID      `json:"category_id"`
	Condition   string          `json:"condition" validate:"omitempty,oneof=new like_new good fair poor"`
}

func (req ListingRequest) toInput() domain.ListingInput {
	return domain.ListingInput{
		Title:       req.Title,
		Description: req.Description,
		Price:       req.Price,
		CategoryID:  req.CategoryID,
		Condition:   domain.Condition(req.Condition),
	}
}

// CategoryRequest creates a category
type CategoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=1000"`
}

// ItemListResponse is one page of browse results
type ItemListResponse struct {
	Items    []*domain.Item `json:"items"`
	Total    int            `json:"total"`
	Page     int            `json:"page"`
	PageSize int            `json:"page_size"`
}

// ItemHandler handles catalog browsing and listing management
type ItemHandler struct {
	catalog  service.CatalogService
	checkout service.CheckoutService
	logger   *zap.Logger
}

// NewItemHandler creates a new ItemHandler
func NewItemHandler(catalog service.CatalogService, checkout service.CheckoutService, logger *zap.Logger) *ItemHandler {
	return &ItemHandler{catalog: catalog, checkout: checkout, logger: logger}
}

// RegisterRoutes registers the category and item routes
func (h *ItemHandler) RegisterRoutes(r chi.Router, authMiddleware, optionalAuth, adminOnly func(http.Handler) http.Handler) {
	r.Get("/api/categories", h.ListCategories)
	r.With(authMiddleware, adminOnly).Post("/api/categories", h.CreateCategory)

	r.Get("/api/items", h.ListItems)
	r.With(optionalAuth).Get("/api/items/featured", h.Featured)
	r.Get("/api/items/{id}", h.GetItem)

	r.Group(func(r chi.Router) {
		r.Use(authMiddleware)
		r.Post("/api/items", h.CreateListing)
		r.Put("/api/items/{id}", h.UpdateListing)
		r.Post("/api/items/{id}/reserve", h.Reserve)
		r.Post("/api/items/{id}/buy", h.Buy)
	})
}

// ListCategories returns every category by name
func (h *ItemHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.catalog.ListCategories(r.Context())
	if err != nil {
		respondWithServiceError(w, h.logger, "List categories", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, categories)
}

// CreateCategory adds a category. Admin only.
func (h *ItemHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req CategoryRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	category, err := h.catalog.CreateCategory(r.Context(), req.Name, req.Description)
	if err != nil {
		respondWithServiceError(w, h.logger, "Create category", err)
		return
	}

	h.logger.Info("Category created", zap.String("category_id", category.ID.String()))
	middleware.RespondWithJSON(w, http.StatusCreated, category)
}

// ListItems browses available items
func (h *ItemHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	filter, err := parseItemFilter(r)
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, err.Error())
		return
	}

	items, total, err := h.catalog.ListItems(r.Context(), filter)
	if err != nil {
		respondWithServiceError(w, h.logger, "List items", err)
		return
	}

	filter.Normalize()
	middleware.RespondWithJSON(w, http.StatusOK, ItemListResponse{
		Items:    items,
		Total:    total,
		Page:     filter.Page,
		PageSize: filter.PageSize,
	})
}

// Featured returns the newest available items, minus what the viewer already carts
func (h *ItemHandler) Featured(w http.ResponseWriter, r *http.Request) {
	var viewer *uuid.UUID
	if userID, ok := middleware.GetUserID(r.Context()); ok {
		viewer = &userID
	}

	items, err := h.catalog.Featured(r.Context(), viewer)
	if err != nil {
		respondWithServiceError(w, h.logger, "Featured items", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, items)
}

// GetItem returns one item in any status
func (h *ItemHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	itemID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	item, err := h.catalog.GetItem(r.Context(), itemID)
	if err != nil {
		respondWithServiceError(w, h.logger, "Get item", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, item)
}

// CreateListing publishes a new item and charges the listing fee
func (h *ItemHandler) CreateListing(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}

	var req ListingRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	item, err := h.catalog.CreateListing(r.Context(), userID, req.toInput())
	if err != nil {
		respondWithServiceError(w, h.logger, "Create listing", err)
		return
	}

	h.logger.Info("Listing created",
		zap.String("item_id", item.ID.String()),
		zap.String("seller_id", userID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, item)
}

// UpdateListing replaces the editable fields of the caller's item
func (h *ItemHandler) UpdateListing(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	itemID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req ListingRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	item, err := h.catalog.UpdateListing(r.Context(), itemID, userID, req.toInput())
	if err != nil {
		respondWithServiceError(w, h.logger, "Update listing", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, item)
}

// Reserve marks the caller's available item as reserved
func (h *ItemHandler) Reserve(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	itemID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	item, err := h.catalog.MarkReserved(r.Context(), itemID, userID)
	if err != nil {
		respondWithServiceError(w, h.logger, "Reserve item", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, item)
}

// Buy purchases a single item directly
func (h *ItemHandler) Buy(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	itemID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	order, err := h.checkout.BuyItem(r.Context(), userID, itemID)
	if err != nil {
		respondWithServiceError(w, h.logger, "Buy item", err)
		return
	}

	h.logger.Info("Item bought",
		zap.String("order_id", order.ID.String()),
		zap.String("item_id", itemID.String()),
		zap.String("buyer_id", userID.String()),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, order)
}

type filterError string

func (e filterError) Error() string { return string(e) }

// parseItemFilter reads browse parameters from the query string
func parseItemFilter(r *http.Request) (domain.ItemFilter, error) {
	q := r.URL.Query()
	filter := domain.ItemFilter{
		Query:     strings.TrimSpace(q.Get("q")),
		SortBy:    q.Get("sort_by"),
		SortOrder: domain.SortOrder(strings.ToUpper(q.Get("sort_order"))),
	}

	if raw := q.Get("category"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return filter, filterError("invalid category")
		}
		filter.CategoryID = &id
	}

	for name, dst := range map[string]**decimal.Decimal{"min_price": &filter.MinPrice, "max_price": &filter.MaxPrice} {
		if raw := q.Get(name); raw != "" {
			d, err := decimal.NewFromString(raw)
			if err != nil || d.IsNegative() {
				return filter, filterError("invalid " + name)
			}
			*dst = &d
		}
	}

	if raw := q.Get("condition"); raw != "" {
		filter.Condition = domain.Condition(raw)
		if !filter.Condition.Valid() {
			return filter, filterError("invalid condition")
		}
	}

	for name, dst := range map[string]*int{"page": &filter.Page, "page_size": &filter.PageSize} {
		if raw := q.Get(name); raw != "" {
			n, err := strconv.Atoi(raw)
			if err != nil {
				return filter, filterError("invalid " + name)
			}
			*dst = n
		}
	}

	return filter, nil
}
