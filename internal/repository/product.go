package repository

import (
	"context"
	"errors"
	"fmt"

	json "github.com/goccy/go-json"
	"github.com/jackc/pgx/v5"

	"github.com/brightcart/recommendation-engine/internal/domain"
)

const productColumns = `id, name, description, category, price, tags, attributes, featured, created_at`

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	var attrs []byte
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Category, &p.Price,
		&p.Tags, &attrs, &p.Featured, &p.CreatedAt)
	if err != nil {
		return p, err
	}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &p.Attributes); err != nil {
			return p, fmt.Errorf("unmarshal attributes for product %d: %w", p.ID, err)
		}
	}
	return p, nil
}

func (r *Repository) collectProducts(rows pgx.Rows) ([]domain.Product, error) {
	defer rows.Close()
	var items []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		items = append(items, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate products: %w", err)
	}
	return items, nil
}

// ListProducts returns a read-only snapshot of the catalog.
func (r *Repository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	return r.collectProducts(rows)
}

// GetProduct returns a single product
func (r *Repository) GetProduct(ctx context.Context, productID int64) (*domain.Product, error) {
	p, err := scanProduct(r.pool.QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, productID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("query product id=%d: %w", productID, err)
	}
	return &p, nil
}

// ProductsByIDs fetches the given products keyed by id; missing ids are
// simply absent from the map.
func (r *Repository) ProductsByIDs(ctx context.Context, ids []int64) (map[int64]domain.Product, error) {
	if len(ids) == 0 {
		return map[int64]domain.Product{}, nil
	}
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query products by ids: %w", err)
	}
	items, err := r.collectProducts(rows)
	if err != nil {
		return nil, err
	}
	out := make(map[int64]domain.Product, len(items))
	for _, p := range items {
		out[p.ID] = p
	}
	return out, nil
}

// FeaturedProducts returns editorially featured products in id order.
func (r *Repository) FeaturedProducts(ctx context.Context, limit int) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE featured ORDER BY id LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query featured products: %w", err)
	}
	return r.collectProducts(rows)
}

// MostInteracted returns the products with the most interactions overall,
// the global popularity fallback for cold starts.
func (r *Repository) MostInteracted(ctx context.Context, limit int) ([]domain.ProductCount, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT product_id, COUNT(*) AS cnt
		 FROM user_interactions
		 GROUP BY product_id
		 ORDER BY cnt DESC, product_id
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query most interacted products: %w", err)
	}
	return collectProductCounts(rows)
}

func collectProductCounts(rows pgx.Rows) ([]domain.ProductCount, error) {
	defer rows.Close()
	var items []domain.ProductCount
	for rows.Next() {
		var c domain.ProductCount
		if err := rows.Scan(&c.ProductID, &c.Count); err != nil {
			return nil, fmt.Errorf("scan product count: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate product counts: %w", err)
	}
	return items, nil
}
