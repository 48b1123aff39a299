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
	ErrCategoryNotFound      = errors.New("category not found")
	ErrCategoryAlreadyExists = errors.New("category with this name already exists")
)

// CategoryRepository stores the category taxonomy
type CategoryRepository interface {
	// Create sets CreatedAt from the database
	Create(ctx context.Context, category *domain.Category) error
	// List returns every category by name with its count of available items
	List(ctx context.Context) ([]*domain.Category, error)
	FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error)
}

type categoryRepository struct {
	db *sql.DB
}

// NewCategoryRepository creates a new instance of CategoryRepository
func NewCategoryRepository(db *sql.DB) CategoryRepository {
	return &categoryRepository{db: db}
}

func (r *categoryRepository) Create(ctx context.Context, category *domain.Category) error {
	category.Name = strings.TrimSpace(category.Name)

	err := executor(ctx, r.db).QueryRowContext(ctx,
		`INSERT INTO categories (id, name, description) VALUES ($1, $2, $3) RETURNING created_at`,
		category.ID, category.Name, category.Description,
	).Scan(&category.CreatedAt)
	if isUniqueViolation(err, "categories_name_key") {
		return ErrCategoryAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to create category %q: %w", category.Name, err)
	}
	return nil
}

func (r *categoryRepository) List(ctx context.Context) ([]*domain.Category, error) {
	rows, err := executor(ctx, r.db).QueryContext(ctx, `
		SELECT c.id, c.name, c.description, c.created_at, COUNT(i.id)
		FROM categories c
		LEFT JOIN items i ON i.category_id = c.id AND i.status = 'available'
		GROUP BY c.id
		ORDER BY c.name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		c := &domain.Category{}
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt, &c.AvailableItems); err != nil {
			return nil, fmt.Errorf("failed to scan category: %w", err)
		}
		categories = append(categories, c)
	}
	return categories, rows.Err()
}

func (r *categoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Category, error) {
	c := &domain.Category{}
	err := executor(ctx, r.db).QueryRowContext(ctx,
		`SELECT id, name, description, created_at FROM categories WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name, &c.Description, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find category %s: %w", id, err)
	}
	return c, nil
}
