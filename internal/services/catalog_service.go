package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"bazaar/internal/domain"
	"bazaar/internal/repos"
	"bazaar/internal/validate"
)

// maxProductPrice bounds a single unit price. Prices carry at most two
// decimal places, the precision the gateway charges in.
var maxProductPrice = decimal.NewFromInt(10_000_000)

type CatalogService struct {
	DB *sqlx.DB
}

func (s *CatalogService) store() *repos.Store { return repos.NewStore(s.DB) }

// ---------- categories ----------

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	return s.store().Categories.List(ctx)
}

func (s *CatalogService) CreateCategory(ctx context.Context, name string) (*domain.Category, error) {
	name, ok := validate.Name(name, 60)
	if !ok {
		return nil, fail(ErrInvalidInput, "category name is required (max 60 chars)")
	}
	st := s.store()
	id := uuid.NewString()
	if err := st.Categories.Create(ctx, id, name); err != nil {
		if repos.IsUniqueViolation(err) {
			return nil, fail(ErrConflict, "category %q already exists", name)
		}
		return nil, err
	}
	return st.Categories.Get(ctx, id)
}

func (s *CatalogService) RenameCategory(ctx context.Context, id, name string) (*domain.Category, error) {
	name, ok := validate.Name(name, 60)
	if !ok {
		return nil, fail(ErrInvalidInput, "category name is required (max 60 chars)")
	}
	st := s.store()
	if err := st.Categories.Rename(ctx, id, name); err != nil {
		if repos.IsUniqueViolation(err) {
			return nil, fail(ErrConflict, "category %q already exists", name)
		}
		return nil, notFound(err, "category")
	}
	return st.Categories.Get(ctx, id)
}

func (s *CatalogService) DeleteCategory(ctx context.Context, id string) error {
	return notFound(s.store().Categories.Delete(ctx, id), "category")
}

// ---------- products ----------

// ProductInput is the create payload; unknown keys are rejected upstream.
type ProductInput struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CategoryID  *string         `json:"categoryId"`
	IsActive    *bool           `json:"isActive"`
}

// ProductPatch holds the fields an update may change.
type ProductPatch struct {
	Name        *string          `json:"name"`
	Description *string          `json:"description"`
	Price       *decimal.Decimal `json:"price"`
	Stock       *int             `json:"stock"`
	CategoryID  *string          `json:"categoryId"`
	IsActive    *bool            `json:"isActive"`
}

type ProductQuery struct {
	Page       int
	Limit      int
	Search     string
	CategoryID string
	SortBy     string
	OrderBy    string
}

type PageMeta struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
}

type ProductPage struct {
	Meta PageMeta         `json:"meta"`
	Data []domain.Product `json:"data"`
}

func (s *CatalogService) CreateProduct(ctx context.Context, a Actor, in ProductInput) (*domain.Product, error) {
	if a.Role != domain.RoleSeller && !a.IsAdmin() {
		return nil, fail(ErrForbidden, "only sellers can create products")
	}
	p := &domain.Product{
		ID:          uuid.NewString(),
		Description: strings.TrimSpace(in.Description),
		Price:       in.Price,
		Stock:       in.Stock,
		IsActive:    true,
		CategoryID:  in.CategoryID,
		SellerID:    a.UserID,
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	name, ok := validate.Name(in.Name, 120)
	if !ok {
		return nil, fail(ErrInvalidInput, "product name is required (max 120 chars)")
	}
	p.Name, p.Slug = name, validate.Slug(name)

	st := s.store()
	if err := s.checkProduct(ctx, st, p); err != nil {
		return nil, err
	}
	if err := st.Products.Create(ctx, p); err != nil {
		if repos.IsUniqueViolation(err) {
			return nil, fail(ErrConflict, "a product named %q already exists", name)
		}
		return nil, err
	}
	return st.Products.Get(ctx, p.ID)
}

// UpdateProduct is allowed for the owning seller or an admin.
func (s *CatalogService) UpdateProduct(ctx context.Context, a Actor, id string, in ProductPatch) (*domain.Product, error) {
	st := s.store()
	p, err := st.Products.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "product")
	}
	if !a.IsAdmin() && !(a.Role == domain.RoleSeller && p.SellerID == a.UserID) {
		return nil, fail(ErrForbidden, "you can only update your own products")
	}
	if in.Name != nil {
		name, ok := validate.Name(*in.Name, 120)
		if !ok {
			return nil, fail(ErrInvalidInput, "product name is required (max 120 chars)")
		}
		p.Name, p.Slug = name, validate.Slug(name)
	}
	if in.Description != nil {
		p.Description = strings.TrimSpace(*in.Description)
	}
	if in.Price != nil {
		p.Price = *in.Price
	}
	if in.Stock != nil {
		p.Stock = *in.Stock
	}
	if in.CategoryID != nil {
		p.CategoryID = in.CategoryID
		if *in.CategoryID == "" {
			p.CategoryID = nil
		}
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	if err := s.checkProduct(ctx, st, p); err != nil {
		return nil, err
	}
	if err := st.Products.Update(ctx, p); err != nil {
		if repos.IsUniqueViolation(err) {
			return nil, fail(ErrConflict, "a product named %q already exists", p.Name)
		}
		return nil, notFound(err, "product")
	}
	return st.Products.Get(ctx, id)
}

func (s *CatalogService) checkProduct(ctx context.Context, st *repos.Store, p *domain.Product) error {
	if !p.Price.IsPositive() {
		return fail(ErrInvalidInput, "price must be greater than zero")
	}
	if p.Price.GreaterThan(maxProductPrice) {
		return fail(ErrInvalidInput, "price cannot exceed %s", maxProductPrice)
	}
	if !p.Price.Equal(p.Price.Round(2)) {
		return fail(ErrInvalidInput, "price cannot have more than two decimal places")
	}
	if p.Stock < 0 {
		return fail(ErrInvalidInput, "stock cannot be negative")
	}
	if p.CategoryID != nil {
		if _, err := st.Categories.Get(ctx, *p.CategoryID); err != nil {
			return notFound(err, "category")
		}
	}
	return nil
}

// GetProduct resolves an id first and falls back to a slug.
func (s *CatalogService) GetProduct(ctx context.Context, idOrSlug string) (*domain.Product, error) {
	st := s.store()
	p, err := st.Products.Get(ctx, idOrSlug)
	if errors.Is(err, sql.ErrNoRows) {
		p, err = st.Products.GetBySlug(ctx, idOrSlug)
	}
	if err != nil {
		return nil, notFound(err, "product")
	}
	return p, nil
}

func (s *CatalogService) ListProducts(ctx context.Context, q ProductQuery) (*ProductPage, error) {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = 10
	}
	if q.Limit > 100 {
		q.Limit = 100
	}
	f := repos.ProductFilter{
		CategoryID: q.CategoryID,
		Limit:      q.Limit,
		Offset:     (q.Page - 1) * q.Limit,
	}
	switch q.SortBy {
	case "", "createdAt":
		f.SortBy = "createdAt"
	case "price":
		f.SortBy = "price"
	default:
		return nil, fail(ErrInvalidInput, "sortBy must be price or createdAt")
	}
	switch strings.ToLower(q.OrderBy) {
	case "", "desc":
		f.Desc = true
	case "asc":
	default:
		return nil, fail(ErrInvalidInput, "orderBy must be asc or desc")
	}
	if q.Search != "" {
		term, ok := validate.Q(q.Search)
		if !ok {
			return nil, fail(ErrInvalidInput, "invalid search term")
		}
		f.Search = term
	}

	items, total, err := s.store().Products.List(ctx, f)
	if err != nil {
		return nil, err
	}
	return &ProductPage{Meta: PageMeta{Page: q.Page, Limit: q.Limit, Total: total}, Data: items}, nil
}
