package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"bazaar/internal/domain"
)

type WishlistRepo struct{ q sqlx.ExtContext }

func NewWishlistRepo(q sqlx.ExtContext) *WishlistRepo { return &WishlistRepo{q: q} }

// Add fails with a unique violation when the product is already listed.
func (r *WishlistRepo) Add(ctx context.Context, userID, productID string) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO wishlist_items(user_id,product_id) VALUES(?,?)`, userID, productID)
	return err
}

func (r *WishlistRepo) Remove(ctx context.Context, userID, productID string) error {
	return affected(r.q.ExecContext(ctx, `DELETE FROM wishlist_items WHERE user_id=? AND product_id=?`, userID, productID))
}

func (r *WishlistRepo) Items(ctx context.Context, userID string) ([]domain.WishlistItem, error) {
	out := []domain.WishlistItem{}
	err := sqlx.SelectContext(ctx, r.q, &out, `
	  SELECT w.product_id, p.name, p.slug, p.price, p.is_active, COALESCE(w.created_at,'') AS created_at
	  FROM wishlist_items w JOIN products p ON p.id = w.product_id
	  WHERE w.user_id = ?
	  ORDER BY w.created_at DESC, w.product_id`, userID)
	return out, err
}
