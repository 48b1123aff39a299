package repository

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"thrift-store/internal/domain"

	"github.com/google/uuid"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Feature: thrift-store, Property 1: Credit balance never goes negative
// Validates: ledger debit/credit atomicity
func TestProperty_CreditsNeverNegative(t *testing.T) {
	repo := NewProfileRepository(testDB)
	ctx := context.Background()

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 20
	properties := gopter.NewProperties(parameters)

	properties.Property("applying any delta sequence keeps the stored balance equal to the model and >= 0", prop.ForAll(
		func(start int, deltas []int) bool {
			user := newUser(t, start)
			expected := start

			for _, d := range deltas {
				balance, err := repo.AdjustCredits(ctx, user.ID, d)
				if expected+d < 0 {
					if !errors.Is(err, domain.ErrInsufficientCredits) {
						t.Logf("expected ErrInsufficientCredits for %d%+d, got %v", expected, d, err)
						return false
					}
					continue
				}
				if err != nil || balance != expected+d {
					t.Logf("adjust %d%+d: balance=%d err=%v", expected, d, balance, err)
					return false
				}
				expected += d
			}

			profile, err := repo.FindByUserID(ctx, user.ID)
			return err == nil && profile.Credits == expected && profile.Credits >= 0
		},
		gen.IntRange(0, 50),
		gen.SliceOfN(8, gen.IntRange(-30, 30)),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestAdjustCreditsConcurrentDebits(t *testing.T) {
	repo := NewProfileRepository(testDB)
	ctx := context.Background()
	user := newUser(t, 50)

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := repo.AdjustCredits(ctx, user.ID, -10); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 5, succeeded)

	profile, err := repo.FindByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, profile.Credits)
}

func TestAdjustCreditsUnknownProfile(t *testing.T) {
	_, err := NewProfileRepository(testDB).AdjustCredits(context.Background(), uuid.New(), 10)
	assert.ErrorIs(t, err, ErrProfileNotFound)
}

func TestProfileModeAndRating(t *testing.T) {
	repo := NewProfileRepository(testDB)
	ctx := context.Background()
	user := newUser(t, 20)

	require.NoError(t, repo.SetMode(ctx, user.ID, domain.ModeSeller))
	require.NoError(t, repo.SetRating(ctx, user.ID, decimal.RequireFromString("4.333")))

	profile, err := repo.FindByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ModeSeller, profile.CurrentMode)
	assert.True(t, profile.Rating.Equal(decimal.RequireFromString("4.33")), "rating %s", profile.Rating)

	assert.ErrorIs(t, repo.SetMode(ctx, uuid.New(), domain.ModeBuyer), ErrProfileNotFound)
}

func TestProfileStats(t *testing.T) {
	ctx := context.Background()
	seller := newUser(t, 20)
	buyer := newUser(t, 20)

	newItem(t, buyer.ID, "lamp", "12.00")
	sold := newItem(t, seller.ID, "chair", "30.00")

	order := domain.NewOrder(sold, buyer.ID, 1)
	require.NoError(t, NewOrderRepository(testDB).Create(ctx, order))
	require.NoError(t, NewReviewRepository(testDB).Create(ctx, &domain.Review{
		ID: uuid.New(), ItemID: sold.ID, AuthorID: buyer.ID, Rating: 4, CreatedAt: order.CreatedAt,
	}))

	stats, err := NewProfileRepository(testDB).Stats(ctx, buyer.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.ActiveListings)
	assert.Equal(t, 1, stats.Purchases)
	assert.Equal(t, 1, stats.ReviewsWritten)
	require.NotNil(t, stats.AverageGiven)
	assert.True(t, stats.AverageGiven.Equal(decimal.NewFromInt(4)))

	empty, err := NewProfileRepository(testDB).Stats(ctx, seller.ID)
	require.NoError(t, err)
	assert.Nil(t, empty.AverageGiven)
}

func TestCreateUserDuplicateUsername(t *testing.T) {
	user := newUser(t, 0)

	dup := *user
	dup.ID = uuid.New()
	err := NewUserRepository(testDB).Create(context.Background(), &dup)
	assert.ErrorIs(t, err, ErrUserAlreadyExists)

	found, err := NewUserRepository(testDB).FindByUsername(context.Background(), user.Username)
	require.NoError(t, err)
	assert.Equal(t, user.ID, found.ID)

	_, err = NewUserRepository(testDB).FindByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestCreditEntriesNewestFirst(t *testing.T) {
	repo := NewCreditEntryRepository(testDB)
	ctx := context.Background()
	user := newUser(t, 20)

	first := &domain.CreditEntry{ID: uuid.New(), UserID: user.ID, Delta: 20, Balance: 20, Reason: domain.CreditReasonSignup}
	first.CreatedAt = user.CreatedAt
	second := &domain.CreditEntry{ID: uuid.New(), UserID: user.ID, Delta: -10, Balance: 10, Reason: domain.CreditReasonListing}
	second.CreatedAt = user.CreatedAt.Add(time.Second)

	require.NoError(t, repo.Create(ctx, first))
	require.NoError(t, repo.Create(ctx, second))

	entries, err := repo.ListByUser(ctx, user.ID, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, second.ID, entries[0].ID)
	assert.Nil(t, entries[0].ItemID)
}

func TestProfileLockBlocksSecondLocker(t *testing.T) {
	holder := NewTxManager(testDB, time.Second)
	waiter := NewTxManager(testDB, 100*time.Millisecond)
	profiles := NewProfileRepository(testDB)
	seller := newUser(t, 0)

	locked := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- holder.WithinTx(context.Background(), func(ctx context.Context) error {
			if err := profiles.LockForUpdate(ctx, seller.ID); err != nil {
				return err
			}
			close(locked)
			<-release
			return nil
		})
	}()

	<-locked
	err := waiter.WithinTx(context.Background(), func(ctx context.Context) error {
		return profiles.LockForUpdate(ctx, seller.ID)
	})
	close(release)

	assert.ErrorIs(t, err, domain.ErrConflict)
	require.NoError(t, <-done)
	assert.ErrorIs(t, profiles.LockForUpdate(context.Background(), uuid.New()), ErrProfileNotFound)
}

func TestConcurrentReviewsKeepSellerRatingCurrent(t *testing.T) {
	tm := NewTxManager(testDB, 5*time.Second)
	profiles := NewProfileRepository(testDB)
	reviews := NewReviewRepository(testDB)
	seller := newUser(t, 0)
	ratings := []int{5, 2, 4, 1}

	var wg sync.WaitGroup
	errs := make([]error, len(ratings))
	for i, rating := range ratings {
		author := newUser(t, 0)
		item := newItem(t, seller.ID, "lot", "3.00")
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = tm.WithinTx(context.Background(), func(ctx context.Context) error {
				if err := profiles.LockForUpdate(ctx, seller.ID); err != nil {
					return err
				}
				review := &domain.Review{ID: uuid.New(), ItemID: item.ID, AuthorID: author.ID, Rating: rating, CreatedAt: time.Now()}
				if err := reviews.Create(ctx, review); err != nil {
					return err
				}
				avg, err := reviews.AverageForSeller(ctx, seller.ID)
				if err != nil {
					return err
				}
				return profiles.SetRating(ctx, seller.ID, *avg)
			})
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	profile, err := profiles.FindByUserID(context.Background(), seller.ID)
	require.NoError(t, err)
	assert.True(t, profile.Rating.Equal(decimal.RequireFromString("3")), "rating %s", profile.Rating)
}
