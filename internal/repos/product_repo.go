package repos

import (
	"context"
	"strings"

	"github.com/jmoiron/sqlx"

	"bazaar/internal/domain"
)

type ProductRepo struct{ q sqlx.ExtContext }

func NewProductRepo(q sqlx.ExtContext) *ProductRepo { return &ProductRepo{q: q} }

const productCols = `
    id, name, slug, description, price, stock, is_active, average_rating, review_count,
    total_orders, category_id, seller_id,
    COALESCE(created_at,'') AS created_at, COALESCE(updated_at,'') AS updated_at`

type ProductFilter struct {
	Search     string
	CategoryID string
	SortBy     string // price | createdAt
	Desc       bool
	Limit      int
	Offset     int
}

func (r *ProductRepo) Get(ctx context.Context, id string) (*domain.Product, error) {
	var p domain.Product
	if err := sqlx.GetContext(ctx, r.q, &p, `SELECT `+productCols+` FROM products WHERE id=?`, id); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *ProductRepo) GetBySlug(ctx context.Context, slug string) (*domain.Product, error) {
	var p domain.Product
	if err := sqlx.GetContext(ctx, r.q, &p, `SELECT `+productCols+` FROM products WHERE slug=?`, slug); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns one page of active products and the total match count.
func (r *ProductRepo) List(ctx context.Context, f ProductFilter) ([]domain.Product, int, error) {
	where := `is_active = 1`
	args := []any{}
	if q := strings.ToLower(strings.TrimSpace(f.Search)); q != "" {
		where += ` AND (LOWER(name) LIKE ? OR LOWER(description) LIKE ?)`
		args = append(args, "%"+q+"%", "%"+q+"%")
	}
	if f.CategoryID != "" {
		where += ` AND category_id = ?`
		args = append(args, f.CategoryID)
	}

	var total int
	if err := sqlx.GetContext(ctx, r.q, &total, `SELECT COUNT(*) FROM products WHERE `+where, args...); err != nil {
		return nil, 0, err
	}

	order := `created_at`
	if f.SortBy == "price" {
		order = `CAST(price AS REAL)`
	}
	if f.Desc {
		order += ` DESC`
	} else {
		order += ` ASC`
	}

	out := []domain.Product{}
	err := sqlx.SelectContext(ctx, r.q, &out, `
	  SELECT `+productCols+`
	  FROM products
	  WHERE `+where+`
	  ORDER BY `+order+`, id
	  LIMIT ? OFFSET ?`, append(args, f.Limit, f.Offset)...)
	return out, total, err
}

func (r *ProductRepo) Create(ctx context.Context, p *domain.Product) error {
	_, err := r.q.ExecContext(ctx, `
	  INSERT INTO products(id,name,slug,description,price,stock,is_active,category_id,seller_id)
	  VALUES(?,?,?,?,?,?,?,?,?)`,
		p.ID, p.Name, p.Slug, p.Description, p.Price, p.Stock, p.IsActive, p.CategoryID, p.SellerID)
	return err
}

func (r *ProductRepo) Update(ctx context.Context, p *domain.Product) error {
	return affected(r.q.ExecContext(ctx, `
	  UPDATE products
	  SET name=?, slug=?, description=?, price=?, stock=?, is_active=?, category_id=?,
	      updated_at=CURRENT_TIMESTAMP
	  WHERE id=?`,
		p.Name, p.Slug, p.Description, p.Price, p.Stock, p.IsActive, p.CategoryID, p.ID))
}

// DecrementStock takes qty units only if that many remain. ErrNoRows means
// the product is gone or short on stock.
func (r *ProductRepo) DecrementStock(ctx context.Context, id string, qty int) error {
	return affected(r.q.ExecContext(ctx, `
	  UPDATE products
	  SET stock = stock - ?, total_orders = total_orders + 1, updated_at = CURRENT_TIMESTAMP
	  WHERE id = ? AND stock >= ?`, qty, id, qty))
}

func (r *ProductRepo) SetRating(ctx context.Context, id string, avg float64, count int) error {
	return affected(r.q.ExecContext(ctx, `
	  UPDATE products SET average_rating=?, review_count=?, updated_at=CURRENT_TIMESTAMP
	  WHERE id=?`, avg, count, id))
}
