package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"bazaar/internal/domain"
	"bazaar/internal/repos"
	"bazaar/internal/validate"
)

type ReviewService struct {
	DB *sqlx.DB
}

type ReviewInput struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

// Create stores a review from a customer who received the product and
// recomputes the product's rating from every review.
func (s *ReviewService) Create(ctx context.Context, a Actor, productID string, in ReviewInput) (*domain.Review, error) {
	if a.Role != domain.RoleCustomer {
		return nil, fail(ErrForbidden, "only customers can review products")
	}
	if !validate.Rating(in.Rating) {
		return nil, fail(ErrInvalidInput, "rating must be between 1 and 5")
	}
	comment := strings.TrimSpace(in.Comment)
	if len(comment) > 2000 {
		return nil, fail(ErrInvalidInput, "comment is too long")
	}

	rv := &domain.Review{
		ID: uuid.NewString(), ProductID: productID, UserID: a.UserID,
		Rating: in.Rating, Comment: comment,
	}
	err := repos.InTx(ctx, s.DB, func(st *repos.Store) error {
		if _, err := st.Products.Get(ctx, productID); err != nil {
			return notFound(err, "product")
		}
		ok, err := st.Orders.HasDeliveredPurchase(ctx, a.UserID, productID)
		if err != nil {
			return err
		}
		if !ok {
			return fail(ErrForbidden, "you can only review products from delivered orders")
		}
		dup, err := st.Reviews.Exists(ctx, productID, a.UserID)
		if err != nil {
			return err
		}
		if dup {
			return fail(ErrConflict, "you have already reviewed this product")
		}
		if err := st.Reviews.Create(ctx, rv); err != nil {
			if repos.IsUniqueViolation(err) {
				return fail(ErrConflict, "you have already reviewed this product")
			}
			return err
		}
		ratings, err := st.Reviews.Ratings(ctx, productID)
		if err != nil {
			return err
		}
		avg, n := AverageRating(ratings)
		return st.Products.SetRating(ctx, productID, avg, n)
	})
	if err != nil {
		return nil, err
	}
	return rv, nil
}

func (s *ReviewService) List(ctx context.Context, productID string) ([]domain.Review, error) {
	st := repos.NewStore(s.DB)
	if _, err := st.Products.Get(ctx, productID); err != nil {
		return nil, notFound(err, "product")
	}
	return st.Reviews.ListByProduct(ctx, productID)
}

// AverageRating is the mean rounded to one decimal place.
func AverageRating(ratings []int) (float64, int) {
	if len(ratings) == 0 {
		return 0, 0
	}
	var sum int64
	for _, r := range ratings {
		sum += int64(r)
	}
	avg, _ := decimal.NewFromInt(sum).Div(decimal.NewFromInt(int64(len(ratings)))).Round(1).Float64()
	return avg, len(ratings)
}
