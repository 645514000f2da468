package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"bazaar/internal/domain"
)

type UserRepo struct{ q sqlx.ExtContext }

func NewUserRepo(q sqlx.ExtContext) *UserRepo { return &UserRepo{q: q} }

const userCols = `id, email, name, phone, password_hash, role, COALESCE(created_at,'') AS created_at`

func (r *UserRepo) ByEmail(ctx context.Context, email string) (*domain.User, error) {
	var u domain.User
	err := sqlx.GetContext(ctx, r.q, &u, `SELECT `+userCols+` FROM users WHERE LOWER(email)=LOWER(?)`, email)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *UserRepo) ByID(ctx context.Context, id string) (*domain.User, error) {
	var u domain.User
	err := sqlx.GetContext(ctx, r.q, &u, `SELECT `+userCols+` FROM users WHERE id=?`, id)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// Create fails with a unique violation when the email is taken.
func (r *UserRepo) Create(ctx context.Context, u *domain.User) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO users(id,email,name,phone,password_hash,role)
		VALUES(?,?,?,?,?,?)`, u.ID, u.Email, u.Name, u.Phone, u.Hash, u.Role)
	return err
}
