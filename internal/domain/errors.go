package domain

import "errors"

// Marketplace error kinds. All of them are recoverable and scoped to a single request.
var (
	ErrInsufficientCredits   = errors.New("insufficient credits")
	ErrInvalidAmount         = errors.New("invalid credit amount")
	ErrPermissionDenied      = errors.New("permission denied")
	ErrOwnItemForbidden      = errors.New("cannot buy or cart your own item")
	ErrItemUnavailable       = errors.New("item is not available")
	ErrItemNoLongerAvailable = errors.New("item is no longer available")
	ErrAlreadySold           = errors.New("item already sold")
	ErrEmptyCart             = errors.New("cart is empty")
	ErrNotPermitted          = errors.New("messaging not permitted for this item")
	ErrEmptyContent          = errors.New("message content is empty")
	ErrPurchaseRequired      = errors.New("purchase required to review this item")

	ErrInvalidRating     = errors.New("rating must be between 1 and 5")
	ErrAlreadyReviewed   = errors.New("item already reviewed by this user")
	ErrRecipientRequired = errors.New("recipient must be specified")
	ErrInvalidListing    = errors.New("invalid listing")

	// ErrConflict marks a transaction aborted by the store (serialization failure,
	// deadlock or lock timeout). Callers may retry the whole unit of work.
	ErrConflict = errors.New("transaction conflict")
)
