package domain

import "github.com/shopspring/decimal"

type Category struct {
	ID        string `db:"id" json:"id"`
	Name      string `db:"name" json:"name"`
	CreatedAt string `db:"created_at" json:"createdAt"`
	UpdatedAt string `db:"updated_at" json:"updatedAt,omitempty"`
}

type Product struct {
	ID            string          `db:"id" json:"id"`
	Name          string          `db:"name" json:"name"`
	Slug          string          `db:"slug" json:"slug"`
	Description   string          `db:"description" json:"description"`
	Price         decimal.Decimal `db:"price" json:"price"`
	Stock         int             `db:"stock" json:"stock"`
	IsActive      bool            `db:"is_active" json:"isActive"`
	AverageRating float64         `db:"average_rating" json:"averageRating"`
	ReviewCount   int             `db:"review_count" json:"reviewCount"`
	TotalOrders   int             `db:"total_orders" json:"totalOrders"`
	CategoryID    *string         `db:"category_id" json:"categoryId"`
	SellerID      string          `db:"seller_id" json:"sellerId"`
	CreatedAt     string          `db:"created_at" json:"createdAt"`
	UpdatedAt     string          `db:"updated_at" json:"updatedAt,omitempty"`
}

type Availability struct {
	Status string `json:"status"` // IN_STOCK | LOW_STOCK | OUT_OF_STOCK
	Qty    int    `json:"qty"`
}

type CartItem struct {
	ProductID string          `db:"product_id" json:"productId"`
	Name      string          `db:"name" json:"name"`
	Quantity  int             `db:"quantity" json:"quantity"`
	Price     decimal.Decimal `db:"price" json:"price"`
	Stock     int             `db:"stock" json:"stock"`
}

func (it CartItem) Subtotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

type Review struct {
	ID        string `db:"id" json:"id"`
	ProductID string `db:"product_id" json:"productId"`
	UserID    string `db:"user_id" json:"userId"`
	UserName  string `db:"user_name" json:"userName"`
	Rating    int    `db:"rating" json:"rating"`
	Comment   string `db:"comment" json:"comment,omitempty"`
	CreatedAt string `db:"created_at" json:"createdAt"`
}

type WishlistItem struct {
	ProductID string          `db:"product_id" json:"productId"`
	Name      string          `db:"name" json:"name"`
	Slug      string          `db:"slug" json:"slug"`
	Price     decimal.Decimal `db:"price" json:"price"`
	IsActive  bool            `db:"is_active" json:"isActive"`
	CreatedAt string          `db:"created_at" json:"createdAt"`
}
