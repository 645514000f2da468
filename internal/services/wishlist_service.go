package services

import (
	"context"

	"github.com/jmoiron/sqlx"

	"bazaar/internal/domain"
	"bazaar/internal/repos"
)

type WishlistService struct {
	DB *sqlx.DB
}

func (s *WishlistService) Add(ctx context.Context, userID, productID string) error {
	st := repos.NewStore(s.DB)
	if _, err := st.Products.Get(ctx, productID); err != nil {
		return notFound(err, "product")
	}
	if err := st.Wishlists.Add(ctx, userID, productID); err != nil {
		if repos.IsUniqueViolation(err) {
			return fail(ErrConflict, "product already in wishlist")
		}
		return err
	}
	return nil
}

func (s *WishlistService) Remove(ctx context.Context, userID, productID string) error {
	return notFound(repos.NewWishlistRepo(s.DB).Remove(ctx, userID, productID), "wishlist item")
}

func (s *WishlistService) List(ctx context.Context, userID string) ([]domain.WishlistItem, error) {
	return repos.NewWishlistRepo(s.DB).Items(ctx, userID)
}
