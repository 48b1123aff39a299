package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"thrift-store/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrItemNotFound = errors.New("item not found")
	// ErrStatusChanged is returned by conditional status updates when the row no
	// longer has the expected status.
	ErrStatusChanged = errors.New("item status changed concurrently")
)

const itemColumns = `id, seller_id, category_id, title, description, price, condition, status, created_at, updated_at`

// ItemRepository defines the interface for item data access
type ItemRepository interface {
	Create(ctx context.Context, item *domain.Item) error
	// Update writes the editable listing fields. Seller and status are left alone.
	Update(ctx context.Context, item *domain.Item) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Item, error)
	// LockByIDs row-locks the given items in id order for the rest of the
	// transaction. Missing ids are silently skipped.
	LockByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Item, error)
	// SetStatus moves an item from one status to another. It fails with
	// ErrStatusChanged when the current status is not from.
	SetStatus(ctx context.Context, id uuid.UUID, from, to domain.ItemStatus) error
	List(ctx context.Context, filter domain.ItemFilter) ([]*domain.Item, int, error)
	FindBySeller(ctx context.Context, sellerID uuid.UUID, status *domain.ItemStatus) ([]*domain.Item, error)
}

type itemRepository struct {
	db *sql.DB
}

// NewItemRepository creates a new instance of ItemRepository
func NewItemRepository(db *sql.DB) ItemRepository {
	return &itemRepository{db: db}
}

// Create inserts a new item using parameterized queries
func (r *itemRepository) Create(ctx context.Context, item *domain.Item) error {
	query := `
		INSERT INTO items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := executor(ctx, r.db).ExecContext(
		ctx,
		query,
		item.ID,
		item.SellerID,
		item.CategoryID,
		item.Title,
		item.Description,
		item.Price,
		item.Condition,
		item.Status,
		item.CreatedAt,
		item.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create item: %w", err)
	}

	return nil
}

func (r *itemRepository) Update(ctx context.Context, item *domain.Item) error {
	query := `
		UPDATE items
		SET title = $2, description = $3, price = $4, category_id = $5, condition = $6
		WHERE id = $1
		RETURNING updated_at
	`

	err := executor(ctx, r.db).QueryRowContext(
		ctx,
		query,
		item.ID,
		item.Title,
		item.Description,
		item.Price,
		item.CategoryID,
		item.Condition,
	).Scan(&item.UpdatedAt)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrItemNotFound
		}
		return fmt.Errorf("failed to update item: %w", err)
	}

	return nil
}

func (r *itemRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE id = $1`

	item, err := scanItem(executor(ctx, r.db).QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrItemNotFound
		}
		return nil, fmt.Errorf("failed to find item by ID: %w", err)
	}

	return item, nil
}

func (r *itemRepository) LockByIDs(ctx context.Context, ids []uuid.UUID) ([]*domain.Item, error) {
	if len(ids) == 0 {
		return []*domain.Item{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	// A fixed lock order keeps concurrent checkouts from deadlocking each other
	query := fmt.Sprintf(`
		SELECT %s
		FROM items
		WHERE id IN (%s)
		ORDER BY id
		FOR UPDATE
	`, itemColumns, strings.Join(placeholders, ", "))

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to lock items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

func (r *itemRepository) SetStatus(ctx context.Context, id uuid.UUID, from, to domain.ItemStatus) error {
	query := `UPDATE items SET status = $3 WHERE id = $1 AND status = $2`

	result, err := executor(ctx, r.db).ExecContext(ctx, query, id, from, to)
	if err != nil {
		return fmt.Errorf("failed to update item status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		if _, err := r.FindByID(ctx, id); err != nil {
			return err
		}
		return ErrStatusChanged
	}

	return nil
}

// List returns available items matching the filter, with pagination and sorting
func (r *itemRepository) List(ctx context.Context, filter domain.ItemFilter) ([]*domain.Item, int, error) {
	filter.Normalize()

	// Validate sort field to prevent SQL injection
	validSortFields := map[string]bool{
		"title":      true,
		"price":      true,
		"created_at": true,
	}

	sortBy := filter.SortBy
	if !validSortFields[sortBy] {
		sortBy = "created_at"
	}

	sortOrder := filter.SortOrder
	if sortOrder != domain.SortOrderAsc && sortOrder != domain.SortOrderDesc {
		sortOrder = domain.SortOrderDesc
	}

	conditions := []string{"status = 'available'"}
	args := []any{}
	argIndex := 1

	addArg := func(clause string, value any) {
		conditions = append(conditions, fmt.Sprintf(clause, argIndex))
		args = append(args, value)
		argIndex++
	}

	if q := strings.TrimSpace(filter.Query); q != "" {
		// Use ILIKE for case-insensitive search
		addArg("(title ILIKE $%[1]d OR description ILIKE $%[1]d)", "%"+q+"%")
	}
	if filter.CategoryID != nil {
		addArg("category_id = $%d", *filter.CategoryID)
	}
	if filter.MinPrice != nil {
		addArg("price >= $%d", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		addArg("price <= $%d", *filter.MaxPrice)
	}
	if filter.Condition != "" {
		addArg("condition = $%d", filter.Condition)
	}
	for _, id := range filter.ExcludeIDs {
		addArg("id <> $%d", id)
	}

	whereClause := "WHERE " + strings.Join(conditions, " AND ")
	db := executor(ctx, r.db)

	countQuery := fmt.Sprintf("SELECT COUNT(*) FROM items %s", whereClause)
	var total int
	if err := db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count items: %w", err)
	}

	offset := (filter.Page - 1) * filter.PageSize

	query := fmt.Sprintf(`
		SELECT %s
		FROM items
		%s
		ORDER BY %s %s, id
		LIMIT $%d OFFSET $%d
	`, itemColumns, whereClause, sortBy, sortOrder, argIndex, argIndex+1)

	args = append(args, filter.PageSize, offset)

	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items, err := collectItems(rows)
	if err != nil {
		return nil, 0, err
	}

	return items, total, nil
}

// FindBySeller lists a seller's items newest first, optionally restricted to one status
func (r *itemRepository) FindBySeller(ctx context.Context, sellerID uuid.UUID, status *domain.ItemStatus) ([]*domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items WHERE seller_id = $1`
	args := []any{sellerID}

	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list seller items: %w", err)
	}
	defer rows.Close()

	return collectItems(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanItem(row rowScanner) (*domain.Item, error) {
	item := &domain.Item{}
	err := row.Scan(
		&item.ID,
		&item.SellerID,
		&item.CategoryID,
		&item.Title,
		&item.Description,
		&item.Price,
		&item.Condition,
		&item.Status,
		&item.CreatedAt,
		&item.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return item, nil
}

func collectItems(rows *sql.Rows) ([]*domain.Item, error) {
	items := []*domain.Item{}
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating items: %w", err)
	}

	return items, nil
}
