package service

import (
	"context"

	"thrift-store/internal/domain"
	"thrift-store/internal/repository"

	"github.com/google/uuid"
)

// CartService manages each user's singleton cart
type CartService interface {
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
	// AddItem adds quantity units of the item, incrementing an existing line
	AddItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*domain.Cart, error)
	RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*domain.Cart, error)
	// SetQuantity replaces the line quantity. A quantity of zero or less removes the line.
	SetQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*domain.Cart, error)
	// View returns the cart with its lines joined to live item data
	View(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
}

type cartService struct {
	cartRepo repository.CartRepository
	itemRepo repository.ItemRepository
}

// NewCartService creates a new instance of CartService
func NewCartService(cartRepo repository.CartRepository, itemRepo repository.ItemRepository) CartService {
	return &cartService{
		cartRepo: cartRepo,
		itemRepo: itemRepo,
	}
}

func (s *cartService) GetOrCreate(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	return s.cartRepo.GetOrCreate(ctx, userID)
}

func (s *cartService) AddItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*domain.Cart, error) {
	quantity = domain.ClampQuantity(quantity)

	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.SellerID == userID {
		return nil, domain.ErrOwnItemForbidden
	}
	if !item.IsAvailable() {
		return nil, domain.ErrItemUnavailable
	}

	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if _, err := s.cartRepo.AddLine(ctx, cart.ID, itemID, quantity); err != nil {
		return nil, err
	}

	return s.load(ctx, cart)
}

func (s *cartService) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*domain.Cart, error) {
	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.cartRepo.RemoveLine(ctx, cart.ID, itemID); err != nil {
		return nil, err
	}

	return s.load(ctx, cart)
}

func (s *cartService) SetQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*domain.Cart, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, userID, itemID)
	}

	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.cartRepo.SetLineQuantity(ctx, cart.ID, itemID, domain.ClampQuantity(quantity)); err != nil {
		return nil, err
	}

	return s.load(ctx, cart)
}

func (s *cartService) View(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	cart, err := s.cartRepo.GetOrCreate(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.load(ctx, cart)
}

func (s *cartService) load(ctx context.Context, cart *domain.Cart) (*domain.Cart, error) {
	lines, err := s.cartRepo.Lines(ctx, cart.ID)
	if err != nil {
		return nil, err
	}
	cart.Lines = lines
	return cart, nil
}
