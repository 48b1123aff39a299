package service

import (
	"context"
	"slices"
	"strings"
	"time"

	"thrift-store/internal/domain"
	"thrift-store/internal/repository"

	"github.com/google/uuid"
)

// SendInput carries a new message. RecipientID is only needed when a seller
// answers an item with several interested buyers.
type SendInput struct {
	ItemID      uuid.UUID
	SenderID    uuid.UUID
	RecipientID *uuid.UUID
	Content     string
}

// ConversationService gates and stores buyer/seller messages about items
type ConversationService interface {
	Send(ctx context.Context, input SendInput) (*domain.Message, error)
	// Thread returns the conversation about itemID between userID and counterpartID
	// and marks the messages userID received in it as read.
	Thread(ctx context.Context, itemID, userID, counterpartID uuid.UUID) ([]*domain.Message, error)
	MarkRead(ctx context.Context, itemID, recipientID uuid.UUID) (int64, error)
	Inbox(ctx context.Context, userID uuid.UUID) ([]*domain.Conversation, error)
	UnreadCount(ctx context.Context, userID uuid.UUID) (int, error)
}

type conversationService struct {
	messageRepo repository.MessageRepository
	itemRepo    repository.ItemRepository
	cartRepo    repository.CartRepository
}

// NewConversationService creates a new instance of ConversationService
func NewConversationService(
	messageRepo repository.MessageRepository,
	itemRepo repository.ItemRepository,
	cartRepo repository.CartRepository,
) ConversationService {
	return &conversationService{
		messageRepo: messageRepo,
		itemRepo:    itemRepo,
		cartRepo:    cartRepo,
	}
}

func (s *conversationService) Send(ctx context.Context, input SendInput) (*domain.Message, error) {
	content := strings.TrimSpace(input.Content)
	if content == "" {
		return nil, domain.ErrEmptyContent
	}

	item, err := s.itemRepo.FindByID(ctx, input.ItemID)
	if err != nil {
		return nil, err
	}

	var recipientID uuid.UUID
	if input.SenderID == item.SellerID {
		recipientID, err = s.sellerRecipient(ctx, item, input.RecipientID)
	} else {
		recipientID, err = s.buyerRecipient(ctx, item, input.SenderID, input.RecipientID)
	}
	if err != nil {
		return nil, err
	}

	message := &domain.Message{
		ID:          uuid.New(),
		ItemID:      item.ID,
		SenderID:    input.SenderID,
		RecipientID: recipientID,
		Content:     content,
		CreatedAt:   time.Now(),
	}
	if err := s.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	return message, nil
}

// buyerRecipient applies the cart gate. A buyer always writes to the seller.
func (s *conversationService) buyerRecipient(ctx context.Context, item *domain.Item, senderID uuid.UUID, requested *uuid.UUID) (uuid.UUID, error) {
	if requested != nil && *requested != item.SellerID {
		return uuid.Nil, domain.ErrNotPermitted
	}

	inCart, err := s.cartRepo.ContainsItem(ctx, senderID, item.ID)
	if err != nil {
		return uuid.Nil, err
	}
	if !inCart {
		return uuid.Nil, domain.ErrNotPermitted
	}

	return item.SellerID, nil
}

// sellerRecipient lets the seller answer buyers that have already written
func (s *conversationService) sellerRecipient(ctx context.Context, item *domain.Item, requested *uuid.UUID) (uuid.UUID, error) {
	initiators, err := s.messageRepo.Initiators(ctx, item.ID, item.SellerID)
	if err != nil {
		return uuid.Nil, err
	}

	if requested != nil {
		if !slices.Contains(initiators, *requested) {
			return uuid.Nil, domain.ErrNotPermitted
		}
		return *requested, nil
	}

	switch len(initiators) {
	case 0:
		return uuid.Nil, domain.ErrNotPermitted
	case 1:
		return initiators[0], nil
	default:
		return uuid.Nil, domain.ErrRecipientRequired
	}
}

func (s *conversationService) Thread(ctx context.Context, itemID, userID, counterpartID uuid.UUID) ([]*domain.Message, error) {
	item, err := s.itemRepo.FindByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if userID != item.SellerID && counterpartID != item.SellerID {
		return nil, domain.ErrNotPermitted
	}

	messages, err := s.messageRepo.Thread(ctx, itemID, userID, counterpartID)
	if err != nil {
		return nil, err
	}

	if _, err := s.messageRepo.MarkRead(ctx, itemID, userID, &counterpartID); err != nil {
		return nil, err
	}
	for _, m := range messages {
		if m.RecipientID == userID {
			m.IsRead = true
		}
	}

	return messages, nil
}

func (s *conversationService) MarkRead(ctx context.Context, itemID, recipientID uuid.UUID) (int64, error) {
	return s.messageRepo.MarkRead(ctx, itemID, recipientID, nil)
}

func (s *conversationService) Inbox(ctx context.Context, userID uuid.UUID) ([]*domain.Conversation, error) {
	return s.messageRepo.Inbox(ctx, userID)
}

func (s *conversationService) UnreadCount(ctx context.Context, userID uuid.UUID) (int, error) {
	return s.messageRepo.UnreadCount(ctx, userID)
}
