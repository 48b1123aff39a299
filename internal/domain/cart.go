package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MaxLineQuantity caps the quantity of a single cart line. Adding to a full
// line leaves it at the cap.
const MaxLineQuantity = 99

// ClampQuantity bounds a requested line quantity to [1, MaxLineQuantity]
func ClampQuantity(quantity int) int {
	return max(1, min(quantity, MaxLineQuantity))
}

// Cart is the per-user staging area, created lazily on first access
type Cart struct {
	ID        uuid.UUID   `json:"id" db:"id"`
	UserID    uuid.UUID   `json:"user_id" db:"user_id"`
	Lines     []*CartLine `json:"lines"`
	CreatedAt time.Time   `json:"created_at" db:"created_at"`
	UpdatedAt time.Time   `json:"updated_at" db:"updated_at"`
}

// CartLine is one (cart, item) pair together with the live item it references
type CartLine struct {
	ID       uuid.UUID `json:"id" db:"id"`
	CartID   uuid.UUID `json:"cart_id" db:"cart_id"`
	ItemID   uuid.UUID `json:"item_id" db:"item_id"`
	Quantity int       `json:"quantity" db:"quantity"`
	AddedAt  time.Time `json:"added_at" db:"added_at"`
	Item     *Item     `json:"item,omitempty"`
}

// Subtotal is price × quantity at the item's current price
func (l *CartLine) Subtotal() decimal.Decimal {
	if l.Item == nil {
		return decimal.Zero
	}
	return l.Item.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Total sums the subtotals of every line. It is never cached.
func (c *Cart) Total() decimal.Decimal {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

// ItemCount sums the quantities of every line
func (c *Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

// IsEmpty reports whether the cart has no lines
func (c *Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}
