package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	// ListingFee is charged to the seller for every new listing
	ListingFee = 10
	// MinimumPurchase is the smallest credit top-up accepted
	MinimumPurchase = 10
	// SignupCredits is granted with the profile at registration
	SignupCredits = 20
)

// CreditReason describes why a balance changed
type CreditReason string

const (
	CreditReasonSignup   CreditReason = "signup"
	CreditReasonPurchase CreditReason = "purchase"
	CreditReasonListing  CreditReason = "listing_fee"
)

// CreditEntry is an immutable record of one balance change
type CreditEntry struct {
	ID        uuid.UUID    `json:"id" db:"id"`
	UserID    uuid.UUID    `json:"user_id" db:"user_id"`
	Delta     int          `json:"delta" db:"delta"`
	Balance   int          `json:"balance" db:"balance"`
	Reason    CreditReason `json:"reason" db:"reason"`
	ItemID    *uuid.UUID   `json:"item_id,omitempty" db:"item_id"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
}

// CreditPackage is a purchasable bundle offered to users
type CreditPackage struct {
	Credits int    `json:"credits"`
	Price   string `json:"price"`
}

// CreditPackages lists the bundles shown on the top-up screen. Any amount of at least
// MinimumPurchase is accepted.
var CreditPackages = []CreditPackage{
	{Credits: 10, Price: "$0.99"},
	{Credits: 50, Price: "$4.99"},
	{Credits: 100, Price: "$9.99"},
	{Credits: 250, Price: "$24.99"},
	{Credits: 500, Price: "$49.99"},
}
