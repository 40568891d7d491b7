package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"ecommerce-price-tracker/internal/domain"
	"ecommerce-price-tracker/internal/storage"
)

// ProductStore implements storage.ProductStore using PostgreSQL.
type ProductStore struct {
	q querier
}

// NewProductStore creates a new ProductStore.
func NewProductStore(pool *Pool) *ProductStore {
	return &ProductStore{q: pool}
}

// Compile-time interface check.
var _ storage.ProductStore = (*ProductStore)(nil)

const productColumns = `id, external_id, title, description, base_price, rating, created_at`

// Insert adds a new product and assigns its ID. Returns ErrDuplicateKey if external_id exists.
// An existing row is never updated, so base_price stays as first seen.
func (s *ProductStore) Insert(ctx context.Context, p *domain.Product) error {
	if p == nil {
		return storage.ErrInvalidInput
	}

	query := `
		INSERT INTO products (external_id, title, description, base_price, rating)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (external_id) DO NOTHING
		RETURNING id, created_at
	`

	err := s.q.QueryRow(ctx, query,
		p.ExternalID,
		p.Title,
		p.Description,
		p.BasePrice,
		p.Rating,
	).Scan(&p.ID, &p.CreatedAt)
	if err != nil {
		if isNotFoundError(err) || isDuplicateKeyError(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

// GetByID retrieves a product by ID. Returns ErrNotFound if not exists.
func (s *ProductStore) GetByID(ctx context.Context, id int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	p, err := scanProduct(s.q.QueryRow(ctx, query, id))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get product by id: %w", err)
	}
	return p, nil
}

// GetByExternalID retrieves a product by its catalog ID. Returns ErrNotFound if not exists.
func (s *ProductStore) GetByExternalID(ctx context.Context, externalID int64) (*domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE external_id = $1`

	p, err := scanProduct(s.q.QueryRow(ctx, query, externalID))
	if err != nil {
		if isNotFoundError(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get product by external id: %w", err)
	}
	return p, nil
}

// List retrieves products ordered by rating DESC, id ASC. A zero limit returns all rows.
func (s *ProductStore) List(ctx context.Context, offset, limit int) ([]*domain.Product, error) {
	if offset < 0 || limit < 0 {
		return nil, storage.ErrInvalidInput
	}

	query := `
		SELECT ` + productColumns + `
		FROM products
		ORDER BY rating DESC, id ASC
		OFFSET $1
		LIMIT NULLIF($2::int, 0)
	`

	rows, err := s.q.Query(ctx, query, offset, limit)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []*domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product row: %w", err)
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product rows: %w", err)
	}
	return products, nil
}

// Count returns the number of products.
func (s *ProductStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.q.QueryRow(ctx, `SELECT COUNT(*) FROM products`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count products: %w", err)
	}
	return count, nil
}

// scanProduct scans a single row into a Product.
func scanProduct(row pgx.Row) (*domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID,
		&p.ExternalID,
		&p.Title,
		&p.Description,
		&p.BasePrice,
		&p.Rating,
		&p.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}
