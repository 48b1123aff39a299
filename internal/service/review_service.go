package service

import (
	"context"
	"strings"
	"time"

	"thrift-store/internal/domain"
	"thrift-store/internal/repository"

	"github.com/google/uuid"
)

// ReviewInput carries a new review
type ReviewInput struct {
	ItemID   uuid.UUID
	AuthorID uuid.UUID
	Rating   int
	Comment  string
}

// ReviewService records post-purchase feedback
type ReviewService interface {
	// AddReview requires an order linking the author to the item. The seller's
	// rating is recomputed in the same transaction.
	AddReview(ctx context.Context, input ReviewInput) (*domain.Review, error)
	ListReviews(ctx context.Context, itemID uuid.UUID) ([]*domain.Review, error)
}

type reviewService struct {
	tx          repository.TxManager
	reviewRepo  repository.ReviewRepository
	orderRepo   repository.OrderRepository
	itemRepo    repository.ItemRepository
	profileRepo repository.ProfileRepository
}

// NewReviewService creates a new instance of ReviewService
func NewReviewService(
	tx repository.TxManager,
	reviewRepo repository.ReviewRepository,
	orderRepo repository.OrderRepository,
	itemRepo repository.ItemRepository,
	profileRepo repository.ProfileRepository,
) ReviewService {
	return &reviewService{
		tx:          tx,
		reviewRepo:  reviewRepo,
		orderRepo:   orderRepo,
		itemRepo:    itemRepo,
		profileRepo: profileRepo,
	}
}

func (s *reviewService) AddReview(ctx context.Context, input ReviewInput) (*domain.Review, error) {
	if !domain.ValidRating(input.Rating) {
		return nil, domain.ErrInvalidRating
	}

	item, err := s.itemRepo.FindByID(ctx, input.ItemID)
	if err != nil {
		return nil, err
	}

	review := &domain.Review{
		ID:        uuid.New(),
		ItemID:    item.ID,
		AuthorID:  input.AuthorID,
		Rating:    input.Rating,
		Comment:   strings.TrimSpace(input.Comment),
		CreatedAt: time.Now(),
	}

	err = s.tx.WithinTx(ctx, func(ctx context.Context) error {
		bought, err := s.orderRepo.ExistsForBuyer(ctx, item.ID, input.AuthorID)
		if err != nil {
			return err
		}
		if !bought {
			return domain.ErrPurchaseRequired
		}

		// Concurrent reviews of the same seller queue here so each average
		// includes every committed review.
		if err := s.profileRepo.LockForUpdate(ctx, item.SellerID); err != nil {
			return err
		}
		if err := s.reviewRepo.Create(ctx, review); err != nil {
			return err
		}

		avg, err := s.reviewRepo.AverageForSeller(ctx, item.SellerID)
		if err != nil {
			return err
		}
		rating := domain.DefaultRating
		if avg != nil {
			rating = *avg
		}
		return s.profileRepo.SetRating(ctx, item.SellerID, rating)
	})
	if err != nil {
		return nil, err
	}

	return review, nil
}

func (s *reviewService) ListReviews(ctx context.Context, itemID uuid.UUID) ([]*domain.Review, error) {
	if _, err := s.itemRepo.FindByID(ctx, itemID); err != nil {
		return nil, err
	}
	return s.reviewRepo.ListByItem(ctx, itemID)
}
