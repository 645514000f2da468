package services

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"bazaar/internal/domain"
	"bazaar/internal/repos"
	"bazaar/internal/validate"
)

type AddressService struct {
	DB *sqlx.DB
}

type AddressInput struct {
	Line1      string `json:"addressLine1"`
	Line2      string `json:"addressLine2"`
	City       string `json:"city"`
	State      string `json:"state"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
	Phone      string `json:"phone"`
}

func (s *AddressService) Create(ctx context.Context, userID string, in AddressInput) (*domain.Address, error) {
	line1, ok := validate.Name(in.Line1, 200)
	if !ok {
		return nil, fail(ErrInvalidInput, "addressLine1 is required")
	}
	city, ok := validate.Name(in.City, 80)
	if !ok {
		return nil, fail(ErrInvalidInput, "city is required")
	}
	phone, ok := validate.Phone(in.Phone)
	if !ok {
		return nil, fail(ErrInvalidInput, "invalid phone")
	}
	country := strings.TrimSpace(in.Country)
	if country == "" {
		country = "Bangladesh"
	}
	a := &domain.Address{
		ID:         uuid.NewString(),
		UserID:     userID,
		Line1:      line1,
		Line2:      strings.TrimSpace(in.Line2),
		City:       city,
		State:      strings.TrimSpace(in.State),
		PostalCode: strings.TrimSpace(in.PostalCode),
		Country:    country,
		Phone:      phone,
	}
	repo := repos.NewAddressRepo(s.DB)
	if err := repo.Create(ctx, a); err != nil {
		return nil, err
	}
	return repo.Owned(ctx, a.ID, userID)
}

func (s *AddressService) List(ctx context.Context, userID string) ([]domain.Address, error) {
	return repos.NewAddressRepo(s.DB).ListByUser(ctx, userID)
}

// Delete only removes the caller's own address.
func (s *AddressService) Delete(ctx context.Context, userID, id string) error {
	return notFound(repos.NewAddressRepo(s.DB).Delete(ctx, id, userID), "address")
}
