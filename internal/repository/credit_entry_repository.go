package repository

import (
	"context"
	"database/sql"
	"fmt"

	"thrift-store/internal/domain"

	"github.com/google/uuid"
)

// CreditEntryRepository stores the balance audit trail
type CreditEntryRepository interface {
	Create(ctx context.Context, entry *domain.CreditEntry) error
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.CreditEntry, error)
}

type creditEntryRepository struct {
	db *sql.DB
}

// NewCreditEntryRepository creates a new instance of CreditEntryRepository
func NewCreditEntryRepository(db *sql.DB) CreditEntryRepository {
	return &creditEntryRepository{db: db}
}

func (r *creditEntryRepository) Create(ctx context.Context, entry *domain.CreditEntry) error {
	query := `
		INSERT INTO credit_entries (id, user_id, delta, balance, reason, item_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := executor(ctx, r.db).ExecContext(
		ctx,
		query,
		entry.ID,
		entry.UserID,
		entry.Delta,
		entry.Balance,
		entry.Reason,
		entry.ItemID,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create credit entry: %w", err)
	}

	return nil
}

// ListByUser returns the most recent entries first
func (r *creditEntryRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.CreditEntry, error) {
	query := `
		SELECT id, user_id, delta, balance, reason, item_id, created_at
		FROM credit_entries
		WHERE user_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2
	`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list credit entries: %w", err)
	}
	defer rows.Close()

	entries := []*domain.CreditEntry{}
	for rows.Next() {
		entry := &domain.CreditEntry{}
		err := rows.Scan(
			&entry.ID,
			&entry.UserID,
			&entry.Delta,
			&entry.Balance,
			&entry.Reason,
			&entry.ItemID,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan credit entry: %w", err)
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating credit entries: %w", err)
	}

	return entries, nil
}
