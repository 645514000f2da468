package repos

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"
)

type IdempotencyRepo struct{ q sqlx.ExtContext }

func NewIdempotencyRepo(q sqlx.ExtContext) *IdempotencyRepo { return &IdempotencyRepo{q: q} }

// Claim inserts key with an empty order id. It returns false if the key
// already exists.
func (r *IdempotencyRepo) Claim(ctx context.Context, key string) (bool, error) {
	res, err := r.q.ExecContext(ctx, `INSERT INTO idempotency_keys(idem_key) VALUES(?) ON CONFLICT DO NOTHING`, key)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

// OrderID returns the order stored under key; "" while still in flight.
func (r *IdempotencyRepo) OrderID(ctx context.Context, key string) (string, bool, error) {
	var id string
	err := sqlx.GetContext(ctx, r.q, &id, `SELECT order_id FROM idempotency_keys WHERE idem_key=?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	return id, err == nil, err
}

func (r *IdempotencyRepo) Complete(ctx context.Context, key, orderID string) error {
	_, err := r.q.ExecContext(ctx, `UPDATE idempotency_keys SET order_id=? WHERE idem_key=?`, orderID, key)
	return err
}

func (r *IdempotencyRepo) Release(ctx context.Context, key string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM idempotency_keys WHERE idem_key=? AND order_id=''`, key)
	return err
}
