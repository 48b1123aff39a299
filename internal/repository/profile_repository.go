package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"thrift-store/internal/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/shopspring/decimal"
)

var ErrProfileNotFound = errors.New("profile not found")

// ProfileRepository defines the interface for profile data access
type ProfileRepository interface {
	Create(ctx context.Context, profile *domain.Profile) error
	FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error)
	// AdjustCredits adds delta to the balance and returns the new balance. The
	// update only applies when the result stays non-negative, otherwise
	// domain.ErrInsufficientCredits is returned and nothing changes.
	AdjustCredits(ctx context.Context, userID uuid.UUID, delta int) (int, error)
	// LockForUpdate takes the row lock on the profile until the surrounding
	// transaction ends.
	LockForUpdate(ctx context.Context, userID uuid.UUID) error
	SetMode(ctx context.Context, userID uuid.UUID, mode domain.Mode) error
	SetRating(ctx context.Context, userID uuid.UUID, rating decimal.Decimal) error
	Stats(ctx context.Context, userID uuid.UUID) (*domain.ProfileStats, error)
}

type profileRepository struct {
	db *sql.DB
}

// NewProfileRepository creates a new instance of ProfileRepository
func NewProfileRepository(db *sql.DB) ProfileRepository {
	return &profileRepository{db: db}
}

func (r *profileRepository) Create(ctx context.Context, profile *domain.Profile) error {
	query := `
		INSERT INTO profiles (user_id, is_seller, current_mode, credits, rating, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := executor(ctx, r.db).ExecContext(
		ctx,
		query,
		profile.UserID,
		profile.IsSeller,
		profile.CurrentMode,
		profile.Credits,
		profile.Rating,
		profile.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create profile: %w", err)
	}

	return nil
}

func (r *profileRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.Profile, error) {
	query := `
		SELECT user_id, is_seller, current_mode, credits, rating, created_at
		FROM profiles
		WHERE user_id = $1
	`

	profile := &domain.Profile{}
	err := executor(ctx, r.db).QueryRowContext(ctx, query, userID).Scan(
		&profile.UserID,
		&profile.IsSeller,
		&profile.CurrentMode,
		&profile.Credits,
		&profile.Rating,
		&profile.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("failed to find profile: %w", err)
	}

	return profile, nil
}

func (r *profileRepository) AdjustCredits(ctx context.Context, userID uuid.UUID, delta int) (int, error) {
	query := `
		UPDATE profiles
		SET credits = credits + $2
		WHERE user_id = $1 AND credits + $2 >= 0
		RETURNING credits
	`

	var balance int
	err := executor(ctx, r.db).QueryRowContext(ctx, query, userID, delta).Scan(&balance)
	if err == nil {
		return balance, nil
	}

	if isConstraintViolation(err, pgerrcode.CheckViolation, "chk_profiles_credits") {
		return 0, domain.ErrInsufficientCredits
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("failed to adjust credits: %w", err)
	}

	// No row matched: either the profile is missing or the balance is too low
	if _, err := r.FindByUserID(ctx, userID); err != nil {
		return 0, err
	}
	return 0, domain.ErrInsufficientCredits
}

func (r *profileRepository) LockForUpdate(ctx context.Context, userID uuid.UUID) error {
	var locked uuid.UUID
	err := executor(ctx, r.db).QueryRowContext(ctx, `SELECT user_id FROM profiles WHERE user_id = $1 FOR UPDATE`, userID).Scan(&locked)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrProfileNotFound
		}
		return fmt.Errorf("failed to lock profile: %w", err)
	}
	return nil
}

func (r *profileRepository) SetMode(ctx context.Context, userID uuid.UUID, mode domain.Mode) error {
	return r.update(ctx, `UPDATE profiles SET current_mode = $2 WHERE user_id = $1`, userID, mode)
}

func (r *profileRepository) SetRating(ctx context.Context, userID uuid.UUID, rating decimal.Decimal) error {
	return r.update(ctx, `UPDATE profiles SET rating = $2 WHERE user_id = $1`, userID, rating.Round(2))
}

func (r *profileRepository) update(ctx context.Context, query string, userID uuid.UUID, value any) error {
	result, err := executor(ctx, r.db).ExecContext(ctx, query, userID, value)
	if err != nil {
		return fmt.Errorf("failed to update profile: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrProfileNotFound
	}

	return nil
}

// Stats aggregates the dashboard counters of a user
func (r *profileRepository) Stats(ctx context.Context, userID uuid.UUID) (*domain.ProfileStats, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM items WHERE seller_id = $1 AND status = 'available'),
			(SELECT COUNT(*) FROM orders WHERE buyer_id = $1 AND status <> 'cancelled'),
			(SELECT COUNT(*) FROM reviews WHERE author_id = $1),
			(SELECT ROUND(AVG(rating), 2) FROM reviews WHERE author_id = $1)
	`

	stats := &domain.ProfileStats{}
	var avg decimal.NullDecimal
	err := executor(ctx, r.db).QueryRowContext(ctx, query, userID).Scan(
		&stats.ActiveListings,
		&stats.Purchases,
		&stats.ReviewsWritten,
		&avg,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load profile stats: %w", err)
	}

	if avg.Valid {
		stats.AverageGiven = &avg.Decimal
	}

	return stats, nil
}
