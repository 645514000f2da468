package repos

import (
	"context"

	"github.com/jmoiron/sqlx"

	"bazaar/internal/domain"
)

type OrderRepo struct{ q sqlx.ExtContext }

func NewOrderRepo(q sqlx.ExtContext) *OrderRepo { return &OrderRepo{q: q} }

const orderCols = `
    o.id, o.order_number, o.user_id, o.shipping_address_id, o.billing_address_id,
    o.subtotal, o.shipping_fee, o.tax, o.discount, o.total_amount, o.status,
    o.shipping_method, o.customer_notes,
    COALESCE(o.created_at,'') AS created_at, COALESCE(o.updated_at,'') AS updated_at`

// Create inserts the order header.
func (r *OrderRepo) Create(ctx context.Context, o *domain.Order) error {
	_, err := r.q.ExecContext(ctx, `
	  INSERT INTO orders
	    (id, order_number, user_id, shipping_address_id, billing_address_id,
	     subtotal, shipping_fee, tax, discount, total_amount, status, shipping_method, customer_notes)
	  VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		o.ID, o.OrderNumber, o.UserID, o.ShippingAddressID, o.BillingAddressID,
		o.Subtotal, o.ShippingFee, o.Tax, o.Discount, o.TotalAmount, o.Status, o.ShippingMethod, o.CustomerNotes)
	return err
}

// InsertItem inserts a single line item; pos keeps request order.
func (r *OrderRepo) InsertItem(ctx context.Context, it *domain.OrderItem, pos int) error {
	_, err := r.q.ExecContext(ctx, `
	  INSERT INTO order_items(id, order_id, product_id, quantity, price, name, position)
	  VALUES(?, ?, ?, ?, ?, ?, ?)`,
		it.ID, it.OrderID, it.ProductID, it.Quantity, it.Price, it.Name, pos)
	return err
}

// Get returns the order with its items and payment.
func (r *OrderRepo) Get(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	if err := sqlx.GetContext(ctx, r.q, &o, `SELECT `+orderCols+` FROM orders o WHERE o.id = ?`, id); err != nil {
		return nil, err
	}
	if err := r.hydrate(ctx, &o); err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *OrderRepo) Items(ctx context.Context, orderID string) ([]domain.OrderItem, error) {
	items := []domain.OrderItem{}
	err := sqlx.SelectContext(ctx, r.q, &items, `
		SELECT id, order_id, product_id, quantity, price, name
		FROM order_items WHERE order_id = ?
		ORDER BY position, id`, orderID)
	return items, err
}

func (r *OrderRepo) hydrate(ctx context.Context, o *domain.Order) error {
	items, err := r.Items(ctx, o.ID)
	if err != nil {
		return err
	}
	o.Items = items

	var pays []domain.Payment
	if err := sqlx.SelectContext(ctx, r.q, &pays, `SELECT `+paymentCols+` FROM payments WHERE order_id = ?`, o.ID); err != nil {
		return err
	}
	if len(pays) > 0 {
		o.Payment = &pays[0]
	}
	return nil
}

func (r *OrderRepo) list(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	out := []domain.Order{}
	if err := sqlx.SelectContext(ctx, r.q, &out, query, args...); err != nil {
		return nil, err
	}
	for i := range out {
		if err := r.hydrate(ctx, &out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *OrderRepo) ListByUser(ctx context.Context, userID string) ([]domain.Order, error) {
	return r.list(ctx, `SELECT `+orderCols+` FROM orders o WHERE o.user_id = ?
		ORDER BY o.created_at DESC, o.id`, userID)
}

func (r *OrderRepo) ListAll(ctx context.Context) ([]domain.Order, error) {
	return r.list(ctx, `SELECT `+orderCols+` FROM orders o ORDER BY o.created_at DESC, o.id`)
}

// ListForSeller returns orders holding at least one of the seller's
// products, with Items narrowed to those products.
func (r *OrderRepo) ListForSeller(ctx context.Context, sellerID string) ([]domain.Order, error) {
	out, err := r.list(ctx, `
		SELECT `+orderCols+` FROM orders o
		WHERE EXISTS (
		  SELECT 1 FROM order_items oi JOIN products p ON p.id = oi.product_id
		  WHERE oi.order_id = o.id AND p.seller_id = ?)
		ORDER BY o.created_at DESC, o.id`, sellerID)
	if err != nil {
		return nil, err
	}
	for i := range out {
		items := []domain.OrderItem{}
		if err := sqlx.SelectContext(ctx, r.q, &items, `
			SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price, oi.name
			FROM order_items oi JOIN products p ON p.id = oi.product_id
			WHERE oi.order_id = ? AND p.seller_id = ?
			ORDER BY oi.position, oi.id`, out[i].ID, sellerID); err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

// UpdateStatus moves the order from -> to. ErrNoRows means the order is
// gone or another writer changed its status first.
func (r *OrderRepo) UpdateStatus(ctx context.Context, id string, from, to domain.OrderStatus) error {
	return affected(r.q.ExecContext(ctx, `
		UPDATE orders SET status = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ? AND status = ?`, to, id, from))
}

// Delete removes the order; items, payment and gateway rows cascade.
func (r *OrderRepo) Delete(ctx context.Context, id string) error {
	return affected(r.q.ExecContext(ctx, `DELETE FROM orders WHERE id = ?`, id))
}

// FirstItemSeller returns the seller of the order's first line.
func (r *OrderRepo) FirstItemSeller(ctx context.Context, orderID string) (string, error) {
	var seller string
	err := sqlx.GetContext(ctx, r.q, &seller, `
		SELECT p.seller_id FROM order_items oi JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ? ORDER BY oi.position, oi.id LIMIT 1`, orderID)
	return seller, err
}

// SellerHasItem reports whether any line of the order is sold by sellerID.
func (r *OrderRepo) SellerHasItem(ctx context.Context, orderID, sellerID string) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, r.q, &n, `
		SELECT COUNT(*) FROM order_items oi JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ? AND p.seller_id = ?`, orderID, sellerID)
	return n > 0, err
}

// HasDeliveredPurchase reports whether userID has a DELIVERED order
// containing productID.
func (r *OrderRepo) HasDeliveredPurchase(ctx context.Context, userID, productID string) (bool, error) {
	var n int
	err := sqlx.GetContext(ctx, r.q, &n, `
		SELECT COUNT(*) FROM orders o JOIN order_items oi ON oi.order_id = o.id
		WHERE o.user_id = ? AND oi.product_id = ? AND o.status = ?`,
		userID, productID, domain.OrderDelivered)
	return n > 0, err
}
