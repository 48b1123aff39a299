package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"thrift-store/internal/domain"

	"github.com/google/uuid"
)

var ErrOrderNotFound = errors.New("order not found")

const orderColumns = `id, item_id, buyer_id, seller_id, item_title, quantity, total_price, status, created_at, updated_at`

// OrderRepository defines the interface for order data access
type OrderRepository interface {
	// Create inserts the order. A second live order for the same item fails with
	// domain.ErrItemNoLongerAvailable.
	Create(ctx context.Context, order *domain.Order) error
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]*domain.Order, error)
	ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]*domain.Order, error)
	ExistsForBuyer(ctx context.Context, itemID, buyerID uuid.UUID) (bool, error)
}

type orderRepository struct {
	db *sql.DB
}

// NewOrderRepository creates a new instance of OrderRepository
func NewOrderRepository(db *sql.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) Create(ctx context.Context, order *domain.Order) error {
	query := `
		INSERT INTO orders (` + orderColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := executor(ctx, r.db).ExecContext(
		ctx,
		query,
		order.ID,
		order.ItemID,
		order.BuyerID,
		order.SellerID,
		order.ItemTitle,
		order.Quantity,
		order.TotalPrice,
		order.Status,
		order.CreatedAt,
		order.UpdatedAt,
	)

	if err != nil {
		if isUniqueViolation(err, "idx_orders_item_live") {
			return domain.ErrItemNoLongerAvailable
		}
		return fmt.Errorf("failed to create order: %w", err)
	}

	return nil
}

func (r *orderRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1`

	order := &domain.Order{}
	err := executor(ctx, r.db).QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.ItemID,
		&order.BuyerID,
		&order.SellerID,
		&order.ItemTitle,
		&order.Quantity,
		&order.TotalPrice,
		&order.Status,
		&order.CreatedAt,
		&order.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to find order by ID: %w", err)
	}

	return order, nil
}

func (r *orderRepository) ListByBuyer(ctx context.Context, buyerID uuid.UUID) ([]*domain.Order, error) {
	return r.list(ctx, "buyer_id", buyerID)
}

func (r *orderRepository) ListBySeller(ctx context.Context, sellerID uuid.UUID) ([]*domain.Order, error) {
	return r.list(ctx, "seller_id", sellerID)
}

func (r *orderRepository) list(ctx context.Context, column string, userID uuid.UUID) ([]*domain.Order, error) {
	query := fmt.Sprintf(`
		SELECT %s
		FROM orders
		WHERE %s = $1
		ORDER BY created_at DESC, id
	`, orderColumns, column)

	rows, err := executor(ctx, r.db).QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer rows.Close()

	orders := []*domain.Order{}
	for rows.Next() {
		order := &domain.Order{}
		err := rows.Scan(
			&order.ID,
			&order.ItemID,
			&order.BuyerID,
			&order.SellerID,
			&order.ItemTitle,
			&order.Quantity,
			&order.TotalPrice,
			&order.Status,
			&order.CreatedAt,
			&order.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, order)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating orders: %w", err)
	}

	return orders, nil
}

func (r *orderRepository) ExistsForBuyer(ctx context.Context, itemID, buyerID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM orders WHERE item_id = $1 AND buyer_id = $2)`

	var exists bool
	if err := executor(ctx, r.db).QueryRowContext(ctx, query, itemID, buyerID).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check order: %w", err)
	}

	return exists, nil
}
