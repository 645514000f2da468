package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"bazaar/internal/domain"
)

type CartRepo struct{ q sqlx.ExtContext }

func NewCartRepo(q sqlx.ExtContext) *CartRepo { return &CartRepo{q: q} }

// EnsureCart returns the user's cart id, creating the cart on first use.
func (r *CartRepo) EnsureCart(ctx context.Context, userID string) (string, error) {
	var cartID string
	err := sqlx.GetContext(ctx, r.q, &cartID, `SELECT id FROM carts WHERE user_id = ?`, userID)
	if err == nil {
		return cartID, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return "", err
	}
	cartID = uuid.NewString()
	_, err = r.q.ExecContext(ctx, `
		INSERT INTO carts(id,user_id,updated_at) VALUES(?,?,CURRENT_TIMESTAMP)
		ON CONFLICT(user_id) DO NOTHING`, cartID, userID)
	if err != nil {
		return "", err
	}
	// Lost a race with another request: read back the winner.
	err = sqlx.GetContext(ctx, r.q, &cartID, `SELECT id FROM carts WHERE user_id = ?`, userID)
	return cartID, err
}

// UpsertItem adds qty to an existing line or inserts a new one. A merge
// that would take the line above max changes nothing and returns ErrNoRows.
func (r *CartRepo) UpsertItem(ctx context.Context, cartID, productID string, qty, max int) error {
	err := affected(r.q.ExecContext(ctx, `
		INSERT INTO cart_items(cart_id,product_id,quantity,created_at)
		VALUES(?,?,?,CURRENT_TIMESTAMP)
		ON CONFLICT(cart_id,product_id) DO UPDATE
		SET quantity = cart_items.quantity + excluded.quantity, updated_at = CURRENT_TIMESTAMP
		WHERE cart_items.quantity + excluded.quantity <= ?
	`, cartID, productID, qty, max))
	if err != nil {
		return err
	}
	return r.touch(ctx, cartID)
}

func (r *CartRepo) Items(ctx context.Context, cartID string) ([]domain.CartItem, error) {
	out := []domain.CartItem{}
	err := sqlx.SelectContext(ctx, r.q, &out, `
	  SELECT ci.product_id, p.name, ci.quantity, p.price, p.stock
	  FROM cart_items ci JOIN products p ON p.id = ci.product_id
	  WHERE ci.cart_id = ?
	  ORDER BY ci.created_at, ci.product_id
	`, cartID)
	return out, err
}

func (r *CartRepo) SetQty(ctx context.Context, cartID, productID string, qty int) error {
	return affected(r.q.ExecContext(ctx, `
		UPDATE cart_items SET quantity=?, updated_at=CURRENT_TIMESTAMP
		WHERE cart_id=? AND product_id=?`, qty, cartID, productID))
}

func (r *CartRepo) Remove(ctx context.Context, cartID, productID string) error {
	return affected(r.q.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id=? AND product_id=?`, cartID, productID))
}

func (r *CartRepo) Clear(ctx context.Context, cartID string) error {
	if _, err := r.q.ExecContext(ctx, `DELETE FROM cart_items WHERE cart_id = ?`, cartID); err != nil {
		return err
	}
	return r.touch(ctx, cartID)
}

func (r *CartRepo) touch(ctx context.Context, cartID string) error {
	_, err := r.q.ExecContext(ctx, `UPDATE carts SET updated_at=CURRENT_TIMESTAMP WHERE id=?`, cartID)
	return err
}
