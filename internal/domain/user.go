package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is the external identity handle threaded through every core operation
type User struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Username     string    `json:"username" db:"username"`
	Email        string    `json:"email" db:"email"`
	PasswordHash string    `json:"-" db:"password_hash"`
	Role         string    `json:"role" db:"role"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// Mode is the side of the marketplace a user is currently browsing as
type Mode string

const (
	ModeBuyer  Mode = "buyer"
	ModeSeller Mode = "seller"
)

// Toggle returns the opposite mode
func (m Mode) Toggle() Mode {
	if m == ModeSeller {
		return ModeBuyer
	}
	return ModeSeller
}

// Profile holds the marketplace attributes of a user. Exactly one exists per user.
type Profile struct {
	UserID      uuid.UUID       `json:"user_id" db:"user_id"`
	IsSeller    bool            `json:"is_seller" db:"is_seller"`
	CurrentMode Mode            `json:"current_mode" db:"current_mode"`
	Credits     int             `json:"credits" db:"credits"`
	Rating      decimal.Decimal `json:"rating" db:"rating"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
}

// DefaultRating is assigned to new profiles before any review exists
var DefaultRating = decimal.NewFromInt(5)

// NewProfile builds the profile created at registration
func NewProfile(userID uuid.UUID, signupCredits int) *Profile {
	return &Profile{
		UserID:      userID,
		IsSeller:    true,
		CurrentMode: ModeBuyer,
		Credits:     signupCredits,
		Rating:      DefaultRating,
		CreatedAt:   time.Now(),
	}
}

// ProfileStats summarises a user's activity for the profile screen
type ProfileStats struct {
	ActiveListings int              `json:"active_listings"`
	Purchases      int              `json:"purchases"`
	ReviewsWritten int              `json:"reviews_written"`
	AverageGiven   *decimal.Decimal `json:"average_rating_given,omitempty"`
}
