package services

import (
	"context"

	"github.com/jmoiron/sqlx"

	"bazaar/internal/domain"
	"bazaar/internal/repos"
)

type InventoryService struct {
	DB *sqlx.DB
}

// CheckAvailability converts stock to IN_STOCK / LOW_STOCK / OUT_OF_STOCK.
// Inactive products read as out of stock.
func (s *InventoryService) CheckAvailability(ctx context.Context, productID string) (domain.Availability, error) {
	p, err := repos.NewProductRepo(s.DB).Get(ctx, productID)
	if err != nil {
		return domain.Availability{}, notFound(err, "product")
	}
	qty := p.Stock
	if !p.IsActive {
		qty = 0
	}

	status := "OUT_OF_STOCK"
	switch {
	case qty >= 5:
		status = "IN_STOCK"
	case qty > 0:
		status = "LOW_STOCK"
	}
	return domain.Availability{Status: status, Qty: qty}, nil
}
