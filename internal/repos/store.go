package repos

import (
	"context"
	"errors"
	"strings"

	"github.com/jmoiron/sqlx"
)

// ErrNoRows is returned when a conditional update matched nothing.
var ErrNoRows = errors.New("no rows affected")

// Store groups every repo over one queryer, either the pool or a transaction.
type Store struct {
	Users      *UserRepo
	Addresses  *AddressRepo
	Categories *CategoryRepo
	Products   *ProductRepo
	Carts      *CartRepo
	Orders     *OrderRepo
	Payments   *PaymentRepo
	Reviews    *ReviewRepo
	Wishlists  *WishlistRepo
}

func NewStore(q sqlx.ExtContext) *Store {
	return &Store{
		Users:      NewUserRepo(q),
		Addresses:  NewAddressRepo(q),
		Categories: NewCategoryRepo(q),
		Products:   NewProductRepo(q),
		Carts:      NewCartRepo(q),
		Orders:     NewOrderRepo(q),
		Payments:   NewPaymentRepo(q),
		Reviews:    NewReviewRepo(q),
		Wishlists:  NewWishlistRepo(q),
	}
}

// InTx runs fn against a transaction-scoped Store and commits if fn
// returns nil. fn must not touch the pool while it runs.
func InTx(ctx context.Context, db *sqlx.DB, fn func(s *Store) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(NewStore(tx)); err != nil {
		return err
	}
	return tx.Commit()
}

func IsUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func affected(res interface{ RowsAffected() (int64, error) }, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNoRows
	}
	return nil
}
