package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"bazaar/internal/domain"
)

type AddressRepo struct{ q sqlx.ExtContext }

func NewAddressRepo(q sqlx.ExtContext) *AddressRepo { return &AddressRepo{q: q} }

const addressCols = `id, user_id, line1, line2, city, state, postal_code, country, phone, COALESCE(created_at,'') AS created_at`

func (r *AddressRepo) Create(ctx context.Context, a *domain.Address) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO addresses(id,user_id,line1,line2,city,state,postal_code,country,phone)
		VALUES(?,?,?,?,?,?,?,?,?)`,
		a.ID, a.UserID, a.Line1, a.Line2, a.City, a.State, a.PostalCode, a.Country, a.Phone)
	return err
}

// Owned returns the address only if it belongs to userID.
func (r *AddressRepo) Owned(ctx context.Context, id, userID string) (*domain.Address, error) {
	var a domain.Address
	err := sqlx.GetContext(ctx, r.q, &a, `SELECT `+addressCols+` FROM addresses WHERE id=? AND user_id=?`, id, userID)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AddressRepo) ByID(ctx context.Context, id string) (*domain.Address, error) {
	var a domain.Address
	if err := sqlx.GetContext(ctx, r.q, &a, `SELECT `+addressCols+` FROM addresses WHERE id=?`, id); err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AddressRepo) ListByUser(ctx context.Context, userID string) ([]domain.Address, error) {
	out := []domain.Address{}
	err := sqlx.SelectContext(ctx, r.q, &out, `SELECT `+addressCols+` FROM addresses WHERE user_id=? ORDER BY created_at`, userID)
	return out, err
}

func (r *AddressRepo) Delete(ctx context.Context, id, userID string) error {
	return affected(r.q.ExecContext(ctx, `DELETE FROM addresses WHERE id=? AND user_id=?`, id, userID))
}
