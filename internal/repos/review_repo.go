package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"bazaar/internal/domain"
)

type ReviewRepo struct{ q sqlx.ExtContext }

func NewReviewRepo(q sqlx.ExtContext) *ReviewRepo { return &ReviewRepo{q: q} }

// Create fails with a unique violation on a second review by the same user.
func (r *ReviewRepo) Create(ctx context.Context, rv *domain.Review) error {
	_, err := r.q.ExecContext(ctx, `
	  INSERT INTO reviews(id, product_id, user_id, rating, comment) VALUES(?,?,?,?,?)`,
		rv.ID, rv.ProductID, rv.UserID, rv.Rating, rv.Comment)
	return err
}

func (r *ReviewRepo) Exists(ctx context.Context, productID, userID string) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, r.q, &n, `SELECT COUNT(*) FROM reviews WHERE product_id=? AND user_id=?`, productID, userID)
	return n > 0, err
}

func (r *ReviewRepo) ListByProduct(ctx context.Context, productID string) ([]domain.Review, error) {
	out := []domain.Review{}
	err := sqlx.SelectContext(ctx, r.q, &out, `
	  SELECT rv.id, rv.product_id, rv.user_id, u.name AS user_name, rv.rating, rv.comment,
	         COALESCE(rv.created_at,'') AS created_at
	  FROM reviews rv JOIN users u ON u.id = rv.user_id
	  WHERE rv.product_id = ?
	  ORDER BY rv.created_at DESC, rv.rowid DESC`, productID)
	return out, err
}

// Ratings returns every rating on the product, for full recomputation.
func (r *ReviewRepo) Ratings(ctx context.Context, productID string) ([]int, error) {
	var out []int
	err := sqlx.SelectContext(ctx, r.q, &out, `SELECT rating FROM reviews WHERE product_id=?`, productID)
	return out, err
}
