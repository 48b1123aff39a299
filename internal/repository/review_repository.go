package repository

import (
	"context"
	"database/sql"
	"fmt"

	"thrift-store/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ReviewRepository defines the interface for review data access
type ReviewRepository interface {
	// Create inserts a review. A second review of the same item by the same
	// author fails with domain.ErrAlreadyReviewed.
	Create(ctx context.Context, review *domain.Review) error
	ListByItem(ctx context.Context, itemID uuid.UUID) ([]*domain.Review, error)
	// AverageForSeller averages every review on the seller's items. It returns
	// nil when the seller has no reviews.
	AverageForSeller(ctx context.Context, sellerID uuid.UUID) (*decimal.Decimal, error)
}

type reviewRepository struct {
	db *sql.DB
}

// NewReviewRepository creates a new instance of ReviewRepository
func NewReviewRepository(db *sql.DB) ReviewRepository {
	return &reviewRepository{db: db}
}

func (r *reviewRepository) Create(ctx context.Context, review *domain.Review) error {
	query := `
		INSERT INTO reviews (id, item_id, author_id, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := executor(ctx, r.db).ExecContext(
		ctx,
		query,
		review.ID,
		review.ItemID,
		review.AuthorID,
		review.Rating,
		review.Comment,
		review.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err, "reviews_item_id_author_id_key") {
			return domain.ErrAlreadyReviewed
		}
		return fmt.Errorf("failed to create review: %w", err)
	}

	return nil
}

// ListByItem returns the item's reviews newest first
func (r *reviewRepository) ListByItem(ctx context.Context, itemID uuid.UUID) ([]*domain.Review, error) {
	query := `
		SELECT id, item_id, author_id, rating, comment, created_at
		FROM reviews
		WHERE item_id = $1
		ORDER BY created_at DESC, id
	`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	defer rows.Close()

	reviews := []*domain.Review{}
	for rows.Next() {
		review := &domain.Review{}
		err := rows.Scan(
			&review.ID,
			&review.ItemID,
			&review.AuthorID,
			&review.Rating,
			&review.Comment,
			&review.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan review: %w", err)
		}
		reviews = append(reviews, review)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating reviews: %w", err)
	}

	return reviews, nil
}

func (r *reviewRepository) AverageForSeller(ctx context.Context, sellerID uuid.UUID) (*decimal.Decimal, error) {
	query := `
		SELECT ROUND(AVG(r.rating), 2)
		FROM reviews r
		JOIN items i ON i.id = r.item_id
		WHERE i.seller_id = $1
	`

	var avg decimal.NullDecimal
	if err := executor(ctx, r.db).QueryRowContext(ctx, query, sellerID).Scan(&avg); err != nil {
		return nil, fmt.Errorf("failed to average seller reviews: %w", err)
	}

	if !avg.Valid {
		return nil, nil
	}
	return &avg.Decimal, nil
}
