package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ItemStatus is the lifecycle state of a listing
type ItemStatus string

const (
	ItemStatusAvailable ItemStatus = "available"
	ItemStatusReserved  ItemStatus = "reserved"
	ItemStatusSold      ItemStatus = "sold"
)

// Valid reports whether s is a known status
func (s ItemStatus) Valid() bool {
	switch s {
	case ItemStatusAvailable, ItemStatusReserved, ItemStatusSold:
		return true
	}
	return false
}

// CanTransition reports whether an item may move from s to next.
// Sold is terminal.
func (s ItemStatus) CanTransition(next ItemStatus) bool {
	switch s {
	case ItemStatusAvailable:
		return next == ItemStatusReserved || next == ItemStatusSold
	case ItemStatusReserved:
		return next == ItemStatusSold
	}
	return false
}

// Condition describes the wear of a secondhand item
type Condition string

const (
	ConditionNew     Condition = "new"
	ConditionLikeNew Condition = "like_new"
	ConditionGood    Condition = "good"
	ConditionFair    Condition = "fair"
	ConditionPoor    Condition = "poor"
)

// Valid reports whether c is a known condition
func (c Condition) Valid() bool {
	switch c {
	case ConditionNew, ConditionLikeNew, ConditionGood, ConditionFair, ConditionPoor:
		return true
	}
	return false
}

// Item represents a listing in the catalog
type Item struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	SellerID    uuid.UUID       `json:"seller_id" db:"seller_id"`
	CategoryID  *uuid.UUID      `json:"category_id,omitempty" db:"category_id"`
	Title       string          `json:"title" db:"title"`
	Description string          `json:"description" db:"description"`
	Price       decimal.Decimal `json:"price" db:"price"`
	Condition   Condition       `json:"condition" db:"condition"`
	Status      ItemStatus      `json:"status" db:"status"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// IsAvailable reports whether the item can be carted or bought
func (i *Item) IsAvailable() bool {
	return i.Status == ItemStatusAvailable
}

// ListingInput carries the editable fields of a listing
type ListingInput struct {
	Title       string
	Description string
	Price       decimal.Decimal
	CategoryID  *uuid.UUID
	Condition   Condition
}

// Validate checks the listing fields. Prices are rounded to cents before the
// positivity check. An empty condition defaults to good.
func (in *ListingInput) Validate() error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" || len(in.Title) > 200 {
		return ErrInvalidListing
	}
	in.Price = in.Price.Round(2)
	if !in.Price.IsPositive() {
		return ErrInvalidListing
	}
	if in.Condition == "" {
		in.Condition = ConditionGood
	}
	if !in.Condition.Valid() {
		return ErrInvalidListing
	}
	return nil
}

// Apply copies the listing fields onto the item. Seller and status are never touched.
func (in ListingInput) Apply(item *Item) {
	item.Title = in.Title
	item.Description = in.Description
	item.Price = in.Price.Round(2)
	item.CategoryID = in.CategoryID
	item.Condition = in.Condition
}

// SortOrder represents the sort direction
type SortOrder string

const (
	SortOrderAsc  SortOrder = "ASC"
	SortOrderDesc SortOrder = "DESC"
)

// ItemFilter narrows catalog browsing to available items
type ItemFilter struct {
	Query      string
	CategoryID *uuid.UUID
	MinPrice   *decimal.Decimal
	MaxPrice   *decimal.Decimal
	Condition  Condition
	ExcludeIDs []uuid.UUID
	Page       int
	PageSize   int
	SortBy     string
	SortOrder  SortOrder
}

// Normalize applies paging defaults
func (f *ItemFilter) Normalize() {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PageSize < 1 || f.PageSize > 100 {
		f.PageSize = 20
	}
}

// Category groups listings. AvailableItems is filled when categories are listed.
type Category struct {
	ID             uuid.UUID `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	Description    string    `json:"description" db:"description"`
	AvailableItems int       `json:"available_items" db:"-"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}
