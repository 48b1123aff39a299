package transport

import (
	"errors"
	"net/http"

	"thrift-store/internal/domain"
	"thrift-store/internal/middleware"
	"thrift-store/internal/repository"
	"thrift-store/internal/service"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type errorMapping struct {
	err    error
	status int
	code   string
}

// errorMappings is checked in order with errors.Is. Anything unmatched is a 500.
var errorMappings = []errorMapping{
	{domain.ErrInsufficientCredits, http.StatusPaymentRequired, "INSUFFICIENT_CREDITS"},
	{domain.ErrInvalidAmount, http.StatusBadRequest, "INVALID_AMOUNT"},
	{domain.ErrInvalidRating, http.StatusBadRequest, "INVALID_RATING"},
	{domain.ErrInvalidListing, http.StatusBadRequest, "INVALID_LISTING"},
	{domain.ErrEmptyContent, http.StatusBadRequest, "EMPTY_CONTENT"},
	{domain.ErrEmptyCart, http.StatusBadRequest, "EMPTY_CART"},
	{domain.ErrOwnItemForbidden, http.StatusBadRequest, "OWN_ITEM"},
	{domain.ErrRecipientRequired, http.StatusBadRequest, "RECIPIENT_REQUIRED"},
	{domain.ErrPermissionDenied, http.StatusForbidden, "PERMISSION_DENIED"},
	{domain.ErrNotPermitted, http.StatusForbidden, "NOT_PERMITTED"},
	{domain.ErrPurchaseRequired, http.StatusForbidden, "PURCHASE_REQUIRED"},
	{domain.ErrItemUnavailable, http.StatusConflict, "ITEM_UNAVAILABLE"},
	{domain.ErrItemNoLongerAvailable, http.StatusConflict, "ITEM_NO_LONGER_AVAILABLE"},
	{domain.ErrAlreadySold, http.StatusConflict, "ALREADY_SOLD"},
	{domain.ErrAlreadyReviewed, http.StatusConflict, "ALREADY_REVIEWED"},
	{domain.ErrConflict, http.StatusConflict, "CONFLICT"},
	{repository.ErrUserAlreadyExists, http.StatusConflict, "USERNAME_TAKEN"},
	{repository.ErrCategoryAlreadyExists, http.StatusConflict, "CATEGORY_EXISTS"},
	{repository.ErrItemNotFound, http.StatusNotFound, "ITEM_NOT_FOUND"},
	{repository.ErrOrderNotFound, http.StatusNotFound, "ORDER_NOT_FOUND"},
	{repository.ErrUserNotFound, http.StatusNotFound, "USER_NOT_FOUND"},
	{repository.ErrProfileNotFound, http.StatusNotFound, "PROFILE_NOT_FOUND"},
	{repository.ErrCategoryNotFound, http.StatusNotFound, "CATEGORY_NOT_FOUND"},
	{repository.ErrCartLineNotFound, http.StatusNotFound, "CART_LINE_NOT_FOUND"},
	{service.ErrInvalidCredentials, http.StatusUnauthorized, "INVALID_CREDENTIALS"},
	{service.ErrInvalidToken, http.StatusUnauthorized, "INVALID_TOKEN"},
}

// statusFor resolves an error returned by a service to its HTTP status and code
func statusFor(err error) (int, string) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, "INTERNAL_ERROR"
}

// respondWithServiceError writes err as a structured error response. Only
// unexpected failures are logged at error level.
func respondWithServiceError(w http.ResponseWriter, logger *zap.Logger, op string, err error) {
	status, code := statusFor(err)
	if status == http.StatusInternalServerError {
		logger.Error(op+" failed", zap.Error(err))
		middleware.RespondWithErrorCode(w, status, code, "internal server error")
		return
	}

	logger.Debug(op+" rejected", zap.Error(err), zap.String("code", code))
	middleware.RespondWithErrorCode(w, status, code, err.Error())
}

// currentUser returns the authenticated user id or writes a 401
func currentUser(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	userID, ok := middleware.GetUserID(r.Context())
	if !ok {
		middleware.RespondWithError(w, http.StatusUnauthorized, "unauthorized")
		return uuid.Nil, false
	}
	return userID, true
}

// uuidParam parses a uuid path parameter or writes a 400
func uuidParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

// decode reads and validates the request body, writing a 400 on failure
func decode(w http.ResponseWriter, r *http.Request, logger *zap.Logger, v interface{}) bool {
	if err := middleware.DecodeAndValidate(w, r, v); err != nil {
		logger.Debug("Request validation failed", zap.Error(err), zap.String("path", r.URL.Path))
		middleware.RespondWithDecodeError(w, err)
		return false
	}
	return true
}
