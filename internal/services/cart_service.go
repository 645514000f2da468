package services

import (
	"context"
	"errors"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"bazaar/internal/domain"
	"bazaar/internal/repos"
	"bazaar/internal/validate"
)

type CartService struct {
	DB *sqlx.DB
}

type CartView struct {
	Items    []domain.CartItem `json:"items"`
	Subtotal decimal.Decimal   `json:"subtotal"`
}

// Add merges qty into an existing line for the same product.
func (s *CartService) Add(ctx context.Context, userID, productID string, qty int) (*CartView, error) {
	if !validate.Qty(qty) {
		return nil, fail(ErrInvalidInput, "quantity must be between 1 and %d", validate.MaxQty)
	}
	st := repos.NewStore(s.DB)
	p, err := st.Products.Get(ctx, productID)
	if err != nil {
		return nil, notFound(err, "product")
	}
	if !p.IsActive {
		return nil, fail(ErrInvalidInput, "product %s is not available", p.Name)
	}
	cartID, err := st.Carts.EnsureCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := st.Carts.UpsertItem(ctx, cartID, productID, qty, validate.MaxQty); err != nil {
		if errors.Is(err, repos.ErrNoRows) {
			return nil, fail(ErrInvalidInput, "a cart line cannot hold more than %d units", validate.MaxQty)
		}
		return nil, err
	}
	return s.view(ctx, st, cartID)
}

func (s *CartService) View(ctx context.Context, userID string) (*CartView, error) {
	st := repos.NewStore(s.DB)
	cartID, err := st.Carts.EnsureCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.view(ctx, st, cartID)
}

// Update sets a line's quantity; zero or less removes the line.
func (s *CartService) Update(ctx context.Context, userID, productID string, qty int) (*CartView, error) {
	st := repos.NewStore(s.DB)
	cartID, err := st.Carts.EnsureCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if qty <= 0 {
		err = st.Carts.Remove(ctx, cartID, productID)
	} else if !validate.Qty(qty) {
		return nil, fail(ErrInvalidInput, "quantity must be between 1 and %d", validate.MaxQty)
	} else {
		err = st.Carts.SetQty(ctx, cartID, productID, qty)
	}
	if err != nil {
		return nil, notFound(err, "cart item")
	}
	return s.view(ctx, st, cartID)
}

func (s *CartService) Remove(ctx context.Context, userID, productID string) (*CartView, error) {
	return s.Update(ctx, userID, productID, 0)
}

func (s *CartService) view(ctx context.Context, st *repos.Store, cartID string) (*CartView, error) {
	items, err := st.Carts.Items(ctx, cartID)
	if err != nil {
		return nil, err
	}
	sub := decimal.Zero
	for _, it := range items {
		sub = sub.Add(it.Subtotal())
	}
	return &CartView{Items: items, Subtotal: sub}, nil
}
