package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"bazaar/internal/domain"
)

type CategoryRepo struct{ q sqlx.ExtContext }

func NewCategoryRepo(q sqlx.ExtContext) *CategoryRepo { return &CategoryRepo{q: q} }

const categoryCols = `id, name, COALESCE(created_at,'') AS created_at, COALESCE(updated_at,'') AS updated_at`

func (r *CategoryRepo) List(ctx context.Context) ([]domain.Category, error) {
	out := []domain.Category{}
	err := sqlx.SelectContext(ctx, r.q, &out, `SELECT `+categoryCols+` FROM categories ORDER BY name`)
	return out, err
}

func (r *CategoryRepo) Get(ctx context.Context, id string) (*domain.Category, error) {
	var c domain.Category
	if err := sqlx.GetContext(ctx, r.q, &c, `SELECT `+categoryCols+` FROM categories WHERE id=?`, id); err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *CategoryRepo) Create(ctx context.Context, id, name string) error {
	_, err := r.q.ExecContext(ctx, `INSERT INTO categories(id,name) VALUES(?,?)`, id, name)
	return err
}

func (r *CategoryRepo) Rename(ctx context.Context, id, name string) error {
	return affected(r.q.ExecContext(ctx,
		`UPDATE categories SET name=?, updated_at=CURRENT_TIMESTAMP WHERE id=?`, name, id))
}

// Delete leaves products in place; their category_id is nulled by the FK.
func (r *CategoryRepo) Delete(ctx context.Context, id string) error {
	return affected(r.q.ExecContext(ctx, `DELETE FROM categories WHERE id=?`, id))
}
