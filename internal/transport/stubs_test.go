package transport

import (
	"context"

	"thrift-store/internal/domain"
	"thrift-store/internal/repository"
	"thrift-store/internal/service"

	"github.com/google/uuid"
)

// stubCatalog returns canned data and records what it was asked for
type stubCatalog struct {
	items      map[uuid.UUID]*domain.Item
	err        error
	lastFilter domain.ItemFilter
	lastViewer *uuid.UUID
	lastInput  domain.ListingInput
}

func (s *stubCatalog) CreateListing(ctx context.Context, sellerID uuid.UUID, input domain.ListingInput) (*domain.Item, error) {
	s.lastInput = input
	if s.err != nil {
		return nil, s.err
	}
	item := &domain.Item{ID: uuid.New(), SellerID: sellerID, Status: domain.ItemStatusAvailable}
	input.Apply(item)
	return item, nil
}

func (s *stubCatalog) UpdateListing(ctx context.Context, itemID, editorID uuid.UUID, input domain.ListingInput) (*domain.Item, error) {
	s.lastInput = input
	if s.err != nil {
		return nil, s.err
	}
	item := &domain.Item{ID: itemID, SellerID: editorID}
	input.Apply(item)
	return item, nil
}

func (s *stubCatalog) MarkSold(ctx context.Context, itemID uuid.UUID) error { return s.err }

func (s *stubCatalog) MarkReserved(ctx context.Context, itemID, editorID uuid.UUID) (*domain.Item, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Item{ID: itemID, SellerID: editorID, Status: domain.ItemStatusReserved}, nil
}

func (s *stubCatalog) GetItem(ctx context.Context, itemID uuid.UUID) (*domain.Item, error) {
	if item, ok := s.items[itemID]; ok {
		return item, nil
	}
	if s.err != nil {
		return nil, s.err
	}
	return nil, repository.ErrItemNotFound
}

func (s *stubCatalog) ListItems(ctx context.Context, filter domain.ItemFilter) ([]*domain.Item, int, error) {
	s.lastFilter = filter
	return []*domain.Item{}, 0, s.err
}

func (s *stubCatalog) Featured(ctx context.Context, viewerID *uuid.UUID) ([]*domain.Item, error) {
	s.lastViewer = viewerID
	return []*domain.Item{}, s.err
}

func (s *stubCatalog) ListBySeller(ctx context.Context, sellerID uuid.UUID, status *domain.ItemStatus) ([]*domain.Item, error) {
	return []*domain.Item{}, s.err
}

func (s *stubCatalog) ListCategories(ctx context.Context) ([]*domain.Category, error) {
	return []*domain.Category{}, s.err
}

func (s *stubCatalog) CreateCategory(ctx context.Context, name, description string) (*domain.Category, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Category{ID: uuid.New(), Name: name, Description: description}, nil
}

// stubCheckout fails every call with err when set
type stubCheckout struct {
	err error
}

func (s *stubCheckout) Checkout(ctx context.Context, userID uuid.UUID) ([]*domain.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []*domain.Order{{ID: uuid.New(), BuyerID: userID}}, nil
}

func (s *stubCheckout) BuyItem(ctx context.Context, buyerID, itemID uuid.UUID) (*domain.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Order{ID: uuid.New(), ItemID: itemID, BuyerID: buyerID, Quantity: 1}, nil
}

func (s *stubCheckout) ListPurchases(ctx context.Context, buyerID uuid.UUID) ([]*domain.Order, error) {
	return []*domain.Order{}, s.err
}

func (s *stubCheckout) ListSales(ctx context.Context, sellerID uuid.UUID) ([]*domain.Order, error) {
	return []*domain.Order{}, s.err
}

func (s *stubCheckout) GetOrder(ctx context.Context, orderID, userID uuid.UUID) (*domain.Order, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Order{ID: orderID, BuyerID: userID}, nil
}

// stubCart keeps one cart per user
type stubCart struct {
	carts map[uuid.UUID]*domain.Cart
	err   error
}

func (s *stubCart) cart(userID uuid.UUID) *domain.Cart {
	if s.carts == nil {
		s.carts = map[uuid.UUID]*domain.Cart{}
	}
	c, ok := s.carts[userID]
	if !ok {
		c = &domain.Cart{ID: uuid.New(), UserID: userID, Lines: []*domain.CartLine{}}
		s.carts[userID] = c
	}
	return c
}

func (s *stubCart) GetOrCreate(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	return s.cart(userID), s.err
}

func (s *stubCart) AddItem(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*domain.Cart, error) {
	if s.err != nil {
		return nil, s.err
	}
	c := s.cart(userID)
	c.Lines = append(c.Lines, &domain.CartLine{ID: uuid.New(), CartID: c.ID, ItemID: itemID, Quantity: quantity})
	return c, nil
}

func (s *stubCart) RemoveItem(ctx context.Context, userID, itemID uuid.UUID) (*domain.Cart, error) {
	return s.cart(userID), s.err
}

func (s *stubCart) SetQuantity(ctx context.Context, userID, itemID uuid.UUID, quantity int) (*domain.Cart, error) {
	return s.cart(userID), s.err
}

func (s *stubCart) View(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	return s.cart(userID), s.err
}

// stubConversation records the last thread lookup and send
type stubConversation struct {
	err             error
	lastCounterpart uuid.UUID
	lastSend        service.SendInput
}

func (s *stubConversation) Send(ctx context.Context, input service.SendInput) (*domain.Message, error) {
	s.lastSend = input
	if s.err != nil {
		return nil, s.err
	}
	msg := &domain.Message{ID: uuid.New(), ItemID: input.ItemID, SenderID: input.SenderID, Content: input.Content}
	if input.RecipientID != nil {
		msg.RecipientID = *input.RecipientID
	}
	return msg, nil
}

func (s *stubConversation) Thread(ctx context.Context, itemID, userID, counterpartID uuid.UUID) ([]*domain.Message, error) {
	s.lastCounterpart = counterpartID
	return []*domain.Message{}, s.err
}

func (s *stubConversation) MarkRead(ctx context.Context, itemID, recipientID uuid.UUID) (int64, error) {
	return 3, s.err
}

func (s *stubConversation) Inbox(ctx context.Context, userID uuid.UUID) ([]*domain.Conversation, error) {
	return []*domain.Conversation{}, s.err
}

func (s *stubConversation) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return 2, s.err
}

// stubReviews rejects with err when set
type stubReviews struct {
	err error
}

func (s *stubReviews) AddReview(ctx context.Context, input service.ReviewInput) (*domain.Review, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Review{ID: uuid.New(), ItemID: input.ItemID, AuthorID: input.AuthorID, Rating: input.Rating}, nil
}

func (s *stubReviews) ListReviews(ctx context.Context, itemID uuid.UUID) ([]*domain.Review, error) {
	return []*domain.Review{}, s.err
}
