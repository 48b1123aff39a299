package transport

import (
	"net/http"

	"thrift-store/internal/middleware"
	"thrift-store/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ReviewRequest rates a purchased item
type ReviewRequest struct {
	Rating  int    `json:"rating" validate:"required"`
	Comment string `json:"comment" validate:"max=2000"`
}

// ReviewHandler handles item reviews
type ReviewHandler struct {
	reviews service.ReviewService
	logger  *zap.Logger
}

// NewReviewHandler creates a new ReviewHandler
func NewReviewHandler(reviews service.ReviewService, logger *zap.Logger) *ReviewHandler {
	return &ReviewHandler{reviews: reviews, logger: logger}
}

// RegisterRoutes registers the review routes
func (h *ReviewHandler) RegisterRoutes(r chi.Router, authMiddleware func(http.Handler) http.Handler) {
	r.Get("/api/items/{id}/reviews", h.ListReviews)
	r.With(authMiddleware).Post("/api/items/{id}/reviews", h.AddReview)
}

// ListReviews returns an item's reviews, newest first
func (h *ReviewHandler) ListReviews(w http.ResponseWriter, r *http.Request) {
	itemID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	reviews, err := h.reviews.ListReviews(r.Context(), itemID)
	if err != nil {
		respondWithServiceError(w, h.logger, "List reviews", err)
		return
	}
	middleware.RespondWithJSON(w, http.StatusOK, reviews)
}

// AddReview stores the caller's review. The rating range is checked by the service.
func (h *ReviewHandler) AddReview(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	itemID, ok := uuidParam(w, r, "id")
	if !ok {
		return
	}

	var req ReviewRequest
	if !decode(w, r, h.logger, &req) {
		return
	}

	review, err := h.reviews.AddReview(r.Context(), service.ReviewInput{
		ItemID:   itemID,
		AuthorID: userID,
		Rating:   req.Rating,
		Comment:  req.Comment,
	})
	if err != nil {
		respondWithServiceError(w, h.logger, "Add review", err)
		return
	}

	h.logger.Info("Review added",
		zap.String("item_id", itemID.String()),
		zap.String("author_id", userID.String()),
		zap.Int("rating", review.Rating),
	)
	middleware.RespondWithJSON(w, http.StatusCreated, review)
}
