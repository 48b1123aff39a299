package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderStatus is the fulfilment state of an order
type OrderStatus string

const (
	OrderStatusPending   OrderStatus = "pending"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusShipped   OrderStatus = "shipped"
	OrderStatusDelivered OrderStatus = "delivered"
	OrderStatusCancelled OrderStatus = "cancelled"
)

// Order records one purchased item. TotalPrice is captured at creation and never
// follows later price edits.
type Order struct {
	ID         uuid.UUID       `json:"id" db:"id"`
	ItemID     uuid.UUID       `json:"item_id" db:"item_id"`
	BuyerID    uuid.UUID       `json:"buyer_id" db:"buyer_id"`
	SellerID   uuid.UUID       `json:"seller_id" db:"seller_id"`
	ItemTitle  string          `json:"item_title" db:"item_title"`
	Quantity   int             `json:"quantity" db:"quantity"`
	TotalPrice decimal.Decimal `json:"total_price" db:"total_price"`
	Status     OrderStatus     `json:"status" db:"status"`
	CreatedAt  time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at" db:"updated_at"`
}

// NewOrder snapshots the item price for the given quantity
func NewOrder(item *Item, buyerID uuid.UUID, quantity int) *Order {
	now := time.Now()
	return &Order{
		ID:         uuid.New(),
		ItemID:     item.ID,
		BuyerID:    buyerID,
		SellerID:   item.SellerID,
		ItemTitle:  item.Title,
		Quantity:   quantity,
		TotalPrice: item.Price.Mul(decimal.NewFromInt(int64(quantity))).Round(2),
		Status:     OrderStatusPending,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}
