package service

import (
	"context"
	"fmt"
	"time"

	"thrift-store/internal/domain"
	"thrift-store/internal/repository"

	"github.com/google/uuid"
)

// historyLimit caps the credit history returned to a user
const historyLimit = 100

// LedgerService owns every change to a profile's credit balance
type LedgerService interface {
	// Debit removes amount credits. It fails with domain.ErrInsufficientCredits
	// when the balance is lower than amount and leaves it unchanged.
	Debit(ctx context.Context, userID uuid.UUID, amount int, reason domain.CreditReason, itemID *uuid.UUID) (int, error)
	// Credit adds purchased credits. Amounts below the minimum purchase fail with
	// domain.ErrInvalidAmount.
	Credit(ctx context.Context, userID uuid.UUID, amount int) (int, error)
	Balance(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
	History(ctx context.Context, userID uuid.UUID) ([]*domain.CreditEntry, error)
}

type ledgerService struct {
	tx              repository.TxManager
	profileRepo     repository.ProfileRepository
	entryRepo       repository.CreditEntryRepository
	minimumPurchase int
}

// NewLedgerService creates a new instance of LedgerService
func NewLedgerService(
	tx repository.TxManager,
	profileRepo repository.ProfileRepository,
	entryRepo repository.CreditEntryRepository,
	minimumPurchase int,
) LedgerService {
	return &ledgerService{
		tx:              tx,
		profileRepo:     profileRepo,
		entryRepo:       entryRepo,
		minimumPurchase: minimumPurchase,
	}
}

func (s *ledgerService) Debit(ctx context.Context, userID uuid.UUID, amount int, reason domain.CreditReason, itemID *uuid.UUID) (int, error) {
	if amount <= 0 {
		return 0, domain.ErrInvalidAmount
	}
	return s.apply(ctx, userID, -amount, reason, itemID)
}

func (s *ledgerService) Credit(ctx context.Context, userID uuid.UUID, amount int) (int, error) {
	if amount < s.minimumPurchase {
		return 0, domain.ErrInvalidAmount
	}
	return s.apply(ctx, userID, amount, domain.CreditReasonPurchase, nil)
}

// apply changes the balance and records the entry in one transaction
func (s *ledgerService) apply(ctx context.Context, userID uuid.UUID, delta int, reason domain.CreditReason, itemID *uuid.UUID) (int, error) {
	var balance int
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		balance, err = s.profileRepo.AdjustCredits(ctx, userID, delta)
		if err != nil {
			return err
		}

		entry := &domain.CreditEntry{
			ID:        uuid.New(),
			UserID:    userID,
			Delta:     delta,
			Balance:   balance,
			Reason:    reason,
			ItemID:    itemID,
			CreatedAt: time.Now(),
		}
		if err := s.entryRepo.Create(ctx, entry); err != nil {
			return fmt.Errorf("failed to record credit entry: %w", err)
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	return balance, nil
}

func (s *ledgerService) Balance(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	return s.profileRepo.FindByUserID(ctx, userID)
}

func (s *ledgerService) History(ctx context.Context, userID uuid.UUID) ([]*domain.CreditEntry, error) {
	return s.entryRepo.ListByUser(ctx, userID, historyLimit)
}
