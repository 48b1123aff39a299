package service

import (
	"context"
	"errors"

	"thrift-store/internal/domain"
	"thrift-store/internal/repository"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CheckoutService converts carts and single items into orders
type CheckoutService interface {
	// Checkout turns every cart line into an order and empties the cart. Either
	// all lines are sold or nothing changes.
	Checkout(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error)
	// BuyItem purchases one item directly, bypassing the cart
	BuyItem(ctx context.Context, buyerID, itemID uuid.UUID) (*domain.Order, error)
	ListPurchases(ctx context.Context, buyerID uuid.UUID) ([]*domain.Order, error)
	ListSales(ctx context.Context, sellerID uuid.UUID) ([]*domain.Order, error)
	// GetOrder returns the order if userID is its buyer or seller
	GetOrder(ctx context.Context, orderID, userID uuid.UUID) (*domain.Order, error)
}

type checkoutService struct {
	tx        repository.TxManager
	cartRepo  repository.CartRepository
	itemRepo  repository.ItemRepository
	orderRepo repository.OrderRepository
	catalog   CatalogService
	logger    *zap.Logger
}

// NewCheckoutService creates a new instance of CheckoutService
func NewCheckoutService(
	tx repository.TxManager,
	cartRepo repository.CartRepository,
	itemRepo repository.ItemRepository,
	orderRepo repository.OrderRepository,
	catalog CatalogService,
	logger *zap.Logger,
) CheckoutService {
	return &checkoutService{
		tx:        tx,
		cartRepo:  cartRepo,
		itemRepo:  itemRepo,
		orderRepo: orderRepo,
		catalog:   catalog,
		logger:    logger,
	}
}

func (s *checkoutService) Checkout(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	var orders []*domain.Order
	err := s.retryOnce(ctx, "checkout", func(ctx context.Context) error {
		var err error
		orders, err = s.checkout(ctx, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Checkout completed",
		zap.String("user_id", userID.String()),
		zap.Int("orders", len(orders)),
	)
	return orders, nil
}

func (s *checkoutService) checkout(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	var orders []*domain.Order
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		cart, err := s.cartRepo.FindByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, repository.ErrCartNotFound) {
				return domain.ErrEmptyCart
			}
			return err
		}

		lines, err := s.cartRepo.Lines(ctx, cart.ID)
		if err != nil {
			return err
		}
		if len(lines) == 0 {
			return domain.ErrEmptyCart
		}

		ids := make([]uuid.UUID, 0, len(lines))
		for _, line := range lines {
			ids = append(ids, line.ItemID)
		}

		locked, err := s.itemRepo.LockByIDs(ctx, ids)
		if err != nil {
			return err
		}
		byID := make(map[uuid.UUID]*domain.Item, len(locked))
		for _, item := range locked {
			byID[item.ID] = item
		}

		// Validate every line before the first write
		for _, line := range lines {
			item, ok := byID[line.ItemID]
			if !ok || !item.IsAvailable() {
				return domain.ErrItemNoLongerAvailable
			}
			if item.SellerID == userID {
				return domain.ErrOwnItemForbidden
			}
		}

		orders = make([]*domain.Order, 0, len(lines))
		for _, line := range lines {
			order, err := s.sell(ctx, byID[line.ItemID], userID, line.Quantity)
			if err != nil {
				return err
			}
			orders = append(orders, order)
		}

		return s.cartRepo.ClearLines(ctx, cart.ID)
	})
	if err != nil {
		return nil, err
	}

	return orders, nil
}

func (s *checkoutService) BuyItem(ctx context.Context, buyerID, itemID uuid.UUID) (*domain.Order, error) {
	var order *domain.Order
	err := s.retryOnce(ctx, "buy", func(ctx context.Context) error {
		return s.tx.WithinTx(ctx, func(ctx context.Context) error {
			locked, err := s.itemRepo.LockByIDs(ctx, []uuid.UUID{itemID})
			if err != nil {
				return err
			}
			if len(locked) == 0 {
				return repository.ErrItemNotFound
			}

			item := locked[0]
			if item.SellerID == buyerID {
				return domain.ErrOwnItemForbidden
			}
			if !item.IsAvailable() {
				return domain.ErrItemNoLongerAvailable
			}

			order, err = s.sell(ctx, item, buyerID, 1)
			if err != nil {
				return err
			}

			// The buyer's cart must not keep a line for an item they now own
			cart, err := s.cartRepo.FindByUserID(ctx, buyerID)
			if errors.Is(err, repository.ErrCartNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			return s.cartRepo.RemoveLine(ctx, cart.ID, itemID)
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Item bought",
		zap.String("user_id", buyerID.String()),
		zap.String("item_id", itemID.String()),
		zap.String("order_id", order.ID.String()),
	)
	return order, nil
}

// sell records the order at the current price and marks the item sold
func (s *checkoutService) sell(ctx context.Context, item *domain.Item, buyerID uuid.UUID, quantity int) (*domain.Order, error) {
	order := domain.NewOrder(item, buyerID, quantity)
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	if err := s.catalog.MarkSold(ctx, item.ID); err != nil {
		if errors.Is(err, domain.ErrAlreadySold) {
			return nil, domain.ErrItemNoLongerAvailable
		}
		return nil, err
	}

	return order, nil
}

// retryOnce runs fn again after a transaction conflict. A second conflict is
// reported as domain.ErrItemNoLongerAvailable.
func (s *checkoutService) retryOnce(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	err := fn(ctx)
	if !errors.Is(err, domain.ErrConflict) {
		return err
	}

	s.logger.Warn("Transaction conflict, retrying", zap.String("operation", op), zap.Error(err))

	err = fn(ctx)
	if errors.Is(err, domain.ErrConflict) {
		s.logger.Warn("Transaction conflict on retry", zap.String("operation", op), zap.Error(err))
		return domain.ErrItemNoLongerAvailable
	}
	return err
}

func (s *checkoutService) ListPurchases(ctx context.Context, buyerID uuid.UUID) ([]*domain.Order, error) {
	return s.orderRepo.ListByBuyer(ctx, buyerID)
}

func (s *checkoutService) ListSales(ctx context.Context, sellerID uuid.UUID) ([]*domain.Order, error) {
	return s.orderRepo.ListBySeller(ctx, sellerID)
}

func (s *checkoutService) GetOrder(ctx context.Context, orderID, userID uuid.UUID) (*domain.Order, error) {
	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != userID && order.SellerID != userID {
		return nil, domain.ErrPermissionDenied
	}
	return order, nil
}
