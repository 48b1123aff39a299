package service

import (
	"context"

	"thrift-store/internal/domain"
	"thrift-store/internal/repository"

	"github.com/google/uuid"
)

// ProfileService exposes the marketplace profile of a user
type ProfileService interface {
	GetProfile(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
	// ToggleMode switches between buyer and seller mode and returns the updated profile
	ToggleMode(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
	Stats(ctx context.Context, userID uuid.UUID) (*domain.ProfileStats, error)
}

type profileService struct {
	tx          repository.TxManager
	profileRepo repository.ProfileRepository
}

// NewProfileService creates a new instance of ProfileService
func NewProfileService(tx repository.TxManager, profileRepo repository.ProfileRepository) ProfileService {
	return &profileService{tx: tx, profileRepo: profileRepo}
}

func (s *profileService) GetProfile(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	return s.profileRepo.FindByUserID(ctx, userID)
}

func (s *profileService) ToggleMode(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	var profile *domain.Profile
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		profile, err = s.profileRepo.FindByUserID(ctx, userID)
		if err != nil {
			return err
		}

		profile.CurrentMode = profile.CurrentMode.Toggle()
		return s.profileRepo.SetMode(ctx, userID, profile.CurrentMode)
	})
	if err != nil {
		return nil, err
	}

	return profile, nil
}

func (s *profileService) Stats(ctx context.Context, userID uuid.UUID) (*domain.ProfileStats, error) {
	if _, err := s.profileRepo.FindByUserID(ctx, userID); err != nil {
		return nil, err
	}
	return s.profileRepo.Stats(ctx, userID)
}
