package handlers

import (
	"github.com/jmoiron/sqlx"

	"bazaar/internal/config"
	"bazaar/internal/gateway"
	"bazaar/internal/idempotency"
	"bazaar/internal/metrics"
	"bazaar/internal/services"
)

type Deps struct {
	Auth             *services.AuthService
	AuthHandler      *AuthHandler
	CategoryHandler  *CategoryHandler
	ProductHandler   *ProductHandler
	InventoryHandler *InventoryHandler
	ReviewHandler    *ReviewHandler
	CartHandler      *CartHandler
	WishlistHandler  *WishlistHandler
	AddressHandler   *AddressHandler
	OrderHandler     *OrderHandler
	PaymentHandler   *PaymentHandler
	AdminHandler     *AdminHandler
}

func NewDeps(db *sqlx.DB, cfg config.Config, gw gateway.Gateway, idem idempotency.Store, m *metrics.Metrics) *Deps {
	authSvc := &services.AuthService{DB: db, Secret: []byte(cfg.JWTSecret), TTL: cfg.JWTTTL, HashCost: cfg.BcryptCost}
	catalogSvc := &services.CatalogService{DB: db}
	orderSvc := &services.OrderService{DB: db, Idem: idem, Metrics: m}
	paySvc := &services.PaymentService{DB: db, Gateway: gw, Currency: cfg.Gateway.Currency, Metrics: m}

	return &Deps{
		Auth:             authSvc,
		AuthHandler:      &AuthHandler{Auth: authSvc, Secure: cfg.SecureCookies},
		CategoryHandler:  &CategoryHandler{Catalog: catalogSvc},
		ProductHandler:   &ProductHandler{Catalog: catalogSvc},
		InventoryHandler: &InventoryHandler{Inv: &services.InventoryService{DB: db}},
		ReviewHandler:    &ReviewHandler{Reviews: &services.ReviewService{DB: db}},
		CartHandler:      &CartHandler{Cart: &services.CartService{DB: db}},
		WishlistHandler:  &WishlistHandler{Wish: &services.WishlistService{DB: db}},
		AddressHandler:   &AddressHandler{Addresses: &services.AddressService{DB: db}},
		OrderHandler:     &OrderHandler{Orders: orderSvc, Payments: paySvc},
		PaymentHandler:   &PaymentHandler{Payments: paySvc, Frontend: cfg.Frontend},
		AdminHandler:     &AdminHandler{Orders: orderSvc},
	}
}
