package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"thrift-store/internal/domain"

	"github.com/google/uuid"
)

var (
	ErrCartNotFound     = errors.New("cart not found")
	ErrCartLineNotFound = errors.New("cart line not found")
)

// CartRepository defines the interface for cart data access
type CartRepository interface {
	// GetOrCreate returns the user's cart, creating it on first access. Lines
	// are not loaded.
	GetOrCreate(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
	FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.Cart, error)
	// AddLine inserts the (cart, item) line or increments its quantity
	AddLine(ctx context.Context, cartID, itemID uuid.UUID, quantity int) (*domain.CartLine, error)
	SetLineQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) error
	RemoveLine(ctx context.Context, cartID, itemID uuid.UUID) error
	ClearLines(ctx context.Context, cartID uuid.UUID) error
	// Lines returns the cart lines joined with their live items, oldest first
	Lines(ctx context.Context, cartID uuid.UUID) ([]*domain.CartLine, error)
	ContainsItem(ctx context.Context, userID, itemID uuid.UUID) (bool, error)
}

type cartRepository struct {
	db *sql.DB
}

// NewCartRepository creates a new instance of CartRepository
func NewCartRepository(db *sql.DB) CartRepository {
	return &cartRepository{db: db}
}

func (r *cartRepository) GetOrCreate(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	now := time.Now()
	query := `
		INSERT INTO carts (id, user_id, created_at, updated_at)
		VALUES ($1, $2, $3, $3)
		ON CONFLICT (user_id) DO NOTHING
	`

	if _, err := executor(ctx, r.db).ExecContext(ctx, query, uuid.New(), userID, now); err != nil {
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	return r.FindByUserID(ctx, userID)
}

func (r *cartRepository) FindByUserID(ctx context.Context, userID uuid.UUID) (*domain.Cart, error) {
	query := `
		SELECT id, user_id, created_at, updated_at
		FROM carts
		WHERE user_id = $1
	`

	cart := &domain.Cart{Lines: []*domain.CartLine{}}
	err := executor(ctx, r.db).QueryRowContext(ctx, query, userID).Scan(
		&cart.ID,
		&cart.UserID,
		&cart.CreatedAt,
		&cart.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrCartNotFound
		}
		return nil, fmt.Errorf("failed to find cart: %w", err)
	}

	return cart, nil
}

func (r *cartRepository) AddLine(ctx context.Context, cartID, itemID uuid.UUID, quantity int) (*domain.CartLine, error) {
	query := `
		INSERT INTO cart_items (id, cart_id, item_id, quantity, added_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (cart_id, item_id)
		DO UPDATE SET quantity = LEAST(cart_items.quantity + EXCLUDED.quantity, $6)
		RETURNING id, cart_id, item_id, quantity, added_at
	`

	line := &domain.CartLine{}
	err := executor(ctx, r.db).QueryRowContext(
		ctx, query, uuid.New(), cartID, itemID, domain.ClampQuantity(quantity), time.Now(), domain.MaxLineQuantity,
	).Scan(
		&line.ID,
		&line.CartID,
		&line.ItemID,
		&line.Quantity,
		&line.AddedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to add cart line: %w", err)
	}

	if err := r.touch(ctx, cartID); err != nil {
		return nil, err
	}
	return line, nil
}

func (r *cartRepository) SetLineQuantity(ctx context.Context, cartID, itemID uuid.UUID, quantity int) error {
	query := `UPDATE cart_items SET quantity = $3 WHERE cart_id = $1 AND item_id = $2`

	result, err := executor(ctx, r.db).ExecContext(ctx, query, cartID, itemID, quantity)
	if err != nil {
		return fmt.Errorf("failed to set cart line quantity: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return ErrCartLineNotFound
	}

	return r.touch(ctx, cartID)
}

// RemoveLine deletes the line if present. Removing a missing line is not an error.
func (r *cartRepository) RemoveLine(ctx context.Context, cartID, itemID uuid.UUID) error {
	query := `DELETE FROM cart_items WHERE cart_id = $1 AND item_id = $2`

	if _, err := executor(ctx, r.db).ExecContext(ctx, query, cartID, itemID); err != nil {
		return fmt.Errorf("failed to remove cart line: %w", err)
	}

	return r.touch(ctx, cartID)
}

func (r *cartRepository) ClearLines(ctx context.Context, cartID uuid.UUID) error {
	if _, err := executor(ctx, r.db).ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID); err != nil {
		return fmt.Errorf("failed to clear cart: %w", err)
	}

	return r.touch(ctx, cartID)
}

func (r *cartRepository) Lines(ctx context.Context, cartID uuid.UUID) ([]*domain.CartLine, error) {
	query := `
		SELECT ci.id, ci.cart_id, ci.item_id, ci.quantity, ci.added_at,
		       i.id, i.seller_id, i.category_id, i.title, i.description, i.price,
		       i.condition, i.status, i.created_at, i.updated_at
		FROM cart_items ci
		JOIN items i ON i.id = ci.item_id
		WHERE ci.cart_id = $1
		ORDER BY ci.added_at, ci.id
	`

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, cartID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart lines: %w", err)
	}
	defer rows.Close()

	lines := []*domain.CartLine{}
	for rows.Next() {
		line := &domain.CartLine{Item: &domain.Item{}}
		err := rows.Scan(
			&line.ID,
			&line.CartID,
			&line.ItemID,
			&line.Quantity,
			&line.AddedAt,
			&line.Item.ID,
			&line.Item.SellerID,
			&line.Item.CategoryID,
			&line.Item.Title,
			&line.Item.Description,
			&line.Item.Price,
			&line.Item.Condition,
			&line.Item.Status,
			&line.Item.CreatedAt,
			&line.Item.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart line: %w", err)
		}
		lines = append(lines, line)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart lines: %w", err)
	}

	return lines, nil
}

func (r *cartRepository) ContainsItem(ctx context.Context, userID, itemID uuid.UUID) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM cart_items ci
			JOIN carts c ON c.id = ci.cart_id
			WHERE c.user_id = $1 AND ci.item_id = $2
		)
	`

	var exists bool
	if err := executor(ctx, r.db).QueryRowContext(ctx, query, userID, itemID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check cart membership: %w", err)
	}

	return exists, nil
}

// touch bumps the cart's updated_at through the row trigger
func (r *cartRepository) touch(ctx context.Context, cartID uuid.UUID) error {
	if _, err := executor(ctx, r.db).ExecContext(ctx, `UPDATE carts SET updated_at = NOW() WHERE id = $1`, cartID); err != nil {
		return fmt.Errorf("failed to touch cart: %w", err)
	}
	return nil
}
