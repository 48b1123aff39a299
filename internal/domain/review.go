package domain

import (
	"time"

	"github.com/google/uuid"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is post-purchase feedback on an item
type Review struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ItemID    uuid.UUID `json:"item_id" db:"item_id"`
	AuthorID  uuid.UUID `json:"author_id" db:"author_id"`
	Rating    int       `json:"rating" db:"rating"`
	Comment   string    `json:"comment" db:"comment"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// ValidRating reports whether r is within 1..5
func ValidRating(r int) bool {
	return r >= MinRating && r <= MaxRating
}
