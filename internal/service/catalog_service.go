package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"thrift-store/internal/domain"
	"thrift-store/internal/repository"

	"github.com/google/uuid"
)

// FeaturedLimit is the number of items shown on the home page
const FeaturedLimit = 6

// CatalogService manages listings and their lifecycle
type CatalogService interface {
	CreateListing(ctx context.Context, sellerID uuid.UUID, input domain.ListingInput) (*domain.Item, error)
	UpdateListing(ctx context.Context, itemID, editorID uuid.UUID, input domain.ListingInput) (*domain.Item, error)
	// MarkSold moves an available or reserved item to sold. Selling twice fails
	// with domain.ErrAlreadySold.
	MarkSold(ctx context.Context, itemID uuid.UUID) error
	MarkReserved(ctx context.Context, itemID, editorID uuid.UUID) (*domain.Item, error)
	GetItem(ctx context.Context, itemID uuid.UUID) (*domain.Item, error)
	ListItems(ctx context.Context, filter domain.ItemFilter) ([]*domain.Item, int, error)
	// Featured returns the newest available items, skipping those already in the
	// viewer's cart. viewerID may be nil for anonymous visitors.
	Featured(ctx context.Context, viewerID *uuid.UUID) ([]*domain.Item, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID, status *domain.ItemStatus) ([]*domain.Item, error)
	ListCategories(ctx context.Context) ([]*domain.Category, error)
	CreateCategory(ctx context.Context, name, description string) (*domain.Category, error)
}

type catalogService struct {
	tx           repository.TxManager
	itemRepo     repository.ItemRepository
	categoryRepo repository.CategoryRepository
	cartRepo     repository.CartRepository
	ledger       LedgerService
	listingFee   int
}

// NewCatalogService creates a new instance of CatalogService
func NewCatalogService(
	tx repository.TxManager,
	itemRepo repository.ItemRepository,
	categoryRepo repository.CategoryRepository,
	cartRepo repository.CartRepository,
	ledger LedgerService,
	listingFee int,
) CatalogService {
	return &catalogService{
		tx:           tx,
		itemRepo:     itemRepo,
		categoryRepo: categoryRepo,
		cartRepo:     cartRepo,
		ledger:       ledger,
		listingFee:   listingFee,
	}
}

// CreateListing charges the listing fee and creates the item in one transaction
func (s *catalogService) CreateListing(ctx context.Context, sellerID uuid.UUID, input domain.ListingInput) (*domain.Item, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	now := time.Now()
	item := &domain.Item{
		ID:        uuid.New(),
		SellerID:  sellerID,
		Status:    domain.ItemStatusAvailable,
		CreatedAt: now,
		UpdatedAt: now,
	}
	input.Apply(item)

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if _, err := s.ledger.Debit(ctx, sellerID, s.listingFee, domain.CreditReasonListing, &item.ID); err != nil {
			return err
		}
		return s.itemRepo.Create(ctx, item)
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

func (s *catalogService) UpdateListing(ctx context.Context, itemID, editorID uuid.UUID, input domain.ListingInput) (*domain.Item, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, input.CategoryID); err != nil {
		return nil, err
	}

	var item *domain.Item
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		item, err = s.lock(ctx, itemID)
		if err != nil {
			return err
		}
		if item.SellerID != editorID {
			return domain.ErrPermissionDenied
		}
		if item.Status == domain.ItemStatusSold {
			return domain.ErrAlreadySold
		}

		input.Apply(item)
		return s.itemRepo.Update(ctx, item)
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

func (s *catalogService) MarkSold(ctx context.Context, itemID uuid.UUID) error {
	return s.tx.WithinTx(ctx, func(ctx context.Context) error {
		item, err := s.lock(ctx, itemID)
		if err != nil {
			return err
		}
		return s.transition(ctx, item, domain.ItemStatusSold)
	})
}

// MarkReserved reserves an available item. Reserving a reserved item is a no-op.
func (s *catalogService) MarkReserved(ctx context.Context, itemID, editorID uuid.UUID) (*domain.Item, error) {
	var item *domain.Item
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		item, err = s.lock(ctx, itemID)
		if err != nil {
			return err
		}
		if item.SellerID != editorID {
			return domain.ErrPermissionDenied
		}
		if item.Status == domain.ItemStatusReserved {
			return nil
		}
		return s.transition(ctx, item, domain.ItemStatusReserved)
	})
	if err != nil {
		return nil, err
	}

	return item, nil
}

func (s *catalogService) GetItem(ctx context.Context, itemID uuid.UUID) (*domain.Item, error) {
	return s.itemRepo.FindByID(ctx, itemID)
}

func (s *catalogService) ListItems(ctx context.Context, filter domain.ItemFilter) ([]*domain.Item, int, error) {
	filter.Normalize()
	return s.itemRepo.List(ctx, filter)
}

func (s *catalogService) Featured(ctx context.Context, viewerID *uuid.UUID) ([]*domain.Item, error) {
	filter := domain.ItemFilter{
		Page:      1,
		PageSize:  FeaturedLimit,
		SortBy:    "created_at",
		SortOrder: domain.SortOrderDesc,
	}

	if viewerID != nil {
		cart, err := s.cartRepo.FindByUserID(ctx, *viewerID)
		switch {
		case err == nil:
			lines, err := s.cartRepo.Lines(ctx, cart.ID)
			if err != nil {
				return nil, err
			}
			for _, l := range lines {
				filter.ExcludeIDs = append(filter.ExcludeIDs, l.ItemID)
			}
		case !errors.Is(err, repository.ErrCartNotFound):
			return nil, err
		}
	}

	items, _, err := s.itemRepo.List(ctx, filter)
	return items, err
}

func (s *catalogService) ListBySeller(ctx context.Context, sellerID uuid.UUID, status *domain.ItemStatus) ([]*domain.Item, error) {
	if status != nil && !status.Valid() {
		return nil, domain.ErrInvalidListing
	}
	return s.itemRepo.FindBySeller(ctx, sellerID, status)
}

func (s *catalogService) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return s.categoryRepo.List(ctx)
}

func (s *catalogService) CreateCategory(ctx context.Context, name, description string) (*domain.Category, error) {
	category := &domain.Category{
		ID:          uuid.New(),
		Name:        strings.TrimSpace(name),
		Description: description,
		CreatedAt:   time.Now(),
	}
	if category.Name == "" {
		return nil, domain.ErrInvalidListing
	}

	if err := s.categoryRepo.Create(ctx, category); err != nil {
		return nil, err
	}

	return category, nil
}

// lock loads the item with a row lock held until the transaction ends
func (s *catalogService) lock(ctx context.Context, itemID uuid.UUID) (*domain.Item, error) {
	items, err := s.itemRepo.LockByIDs(ctx, []uuid.UUID{itemID})
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, repository.ErrItemNotFound
	}
	return items[0], nil
}

func (s *catalogService) transition(ctx context.Context, item *domain.Item, next domain.ItemStatus) error {
	if item.Status == domain.ItemStatusSold {
		return domain.ErrAlreadySold
	}
	if !item.Status.CanTransition(next) {
		return fmt.Errorf("cannot move item from %s to %s: %w", item.Status, next, domain.ErrItemUnavailable)
	}

	if err := s.itemRepo.SetStatus(ctx, item.ID, item.Status, next); err != nil {
		if errors.Is(err, repository.ErrStatusChanged) {
			return domain.ErrItemNoLongerAvailable
		}
		return err
	}

	item.Status = next
	return nil
}

func (s *catalogService) checkCategory(ctx context.Context, categoryID *uuid.UUID) error {
	if categoryID == nil {
		return nil
	}
	if _, err := s.categoryRepo.FindByID(ctx, *categoryID); err != nil {
		return err
	}
	return nil
}
