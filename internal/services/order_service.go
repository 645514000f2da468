package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"bazaar/internal/domain"
	"bazaar/internal/idempotency"
	applog "bazaar/internal/log"
	"bazaar/internal/metrics"
	"bazaar/internal/repos"
	"bazaar/internal/validate"
)

var tracer = otel.Tracer("bazaar/services")

type OrderService struct {
	DB      *sqlx.DB
	Idem    idempotency.Store // optional
	Metrics *metrics.Metrics  // optional
	Now     func() time.Time
}

// OrderLineInput is one requested line. Price and Name are accepted for
// compatibility but the catalog values always win.
type OrderLineInput struct {
	ProductID string           `json:"productId"`
	Quantity  int              `json:"quantity"`
	Price     *decimal.Decimal `json:"price,omitempty"`
	Name      string           `json:"name,omitempty"`
}

type CreateOrderInput struct {
	Items             []OrderLineInput `json:"items"`
	FromCart          bool             `json:"fromCart"`
	ShippingAddressID string           `json:"shippingAddressId"`
	BillingAddressID  string           `json:"billingAddressId"`
	CustomerNotes     string           `json:"customerNotes"`
	ShippingMethod    string           `json:"shippingMethod"`
	PaymentMethod     string           `json:"paymentMethod"`
	IdempotencyKey    string           `json:"-"`
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Create runs the whole checkout in one transaction. replay is true when
// the order came from an earlier request with the same idempotency key.
func (s *OrderService) Create(ctx context.Context, userID string, in CreateOrderInput) (order *domain.Order, replay bool, err error) {
	ctx, span := tracer.Start(ctx, "order.create")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	ship, ok := domain.ParseShippingMethod(strings.ToUpper(strings.TrimSpace(in.ShippingMethod)))
	if !ok {
		return nil, false, fail(ErrInvalidInput, "shippingMethod must be STANDARD, EXPRESS or FREE")
	}
	pay, ok := domain.ParsePaymentMethod(strings.ToUpper(strings.TrimSpace(in.PaymentMethod)))
	if !ok {
		return nil, false, fail(ErrInvalidInput, "paymentMethod must be CASH_ON_DELIVERY or SSL_COMMERZ")
	}
	if len(in.CustomerNotes) > 500 {
		return nil, false, fail(ErrInvalidInput, "customerNotes is too long")
	}

	var key string
	if in.IdempotencyKey != "" && s.Idem != nil {
		key = idempotency.Scope(userID, in.IdempotencyKey)
		prev, rerr := s.Idem.Reserve(ctx, key)
		if errors.Is(rerr, idempotency.ErrInFlight) {
			return nil, false, wrap(ErrConflict, rerr, "an order with this idempotency key is still being processed")
		}
		if rerr != nil {
			return nil, false, rerr
		}
		if prev != "" {
			o, gerr := repos.NewOrderRepo(s.DB).Get(ctx, prev)
			if gerr != nil {
				return nil, false, notFound(gerr, "order")
			}
			span.SetAttributes(attribute.Bool("order.replay", true))
			return o, true, nil
		}
		defer func() {
			if err != nil {
				_ = s.Idem.Release(context.WithoutCancel(ctx), key)
			}
		}()
	}

	err = repos.InTx(ctx, s.DB, func(st *repos.Store) error {
		o, err := s.create(ctx, st, userID, in, ship, pay)
		order = o
		return err
	})
	if err != nil {
		return nil, false, err
	}

	if key != "" {
		// The order is committed; a lost key only costs replay protection.
		if err := s.Idem.Complete(ctx, key, order.ID); err != nil {
			applog.Error(nil, "order.idempotency_complete", err, map[string]any{"order_id": order.ID})
		}
	}
	s.Metrics.OrderCreated(string(pay))
	span.SetAttributes(
		attribute.String("order.id", order.ID),
		attribute.String("order.number", order.OrderNumber),
		attribute.String("order.total", order.TotalAmount.String()),
	)
	return order, false, nil
}

func (s *OrderService) create(ctx context.Context, st *repos.Store, userID string, in CreateOrderInput,
	ship domain.ShippingMethod, pay domain.PaymentMethod) (*domain.Order, error) {

	var cartID string
	requested := in.Items
	if in.FromCart {
		var err error
		if cartID, err = st.Carts.EnsureCart(ctx, userID); err != nil {
			return nil, err
		}
		items, err := st.Carts.Items(ctx, cartID)
		if err != nil {
			return nil, err
		}
		requested = make([]OrderLineInput, len(items))
		for i, it := range items {
			requested[i] = OrderLineInput{ProductID: it.ProductID, Quantity: it.Quantity}
		}
	}
	if len(requested) == 0 {
		return nil, fail(ErrInvalidInput, "order must contain at least one item")
	}

	lines, err := mergeLines(requested)
	if err != nil {
		return nil, err
	}
	for i := range lines {
		p, err := st.Products.Get(ctx, lines[i].ProductID)
		if err != nil {
			return nil, notFound(err, "product "+lines[i].ProductID)
		}
		if !p.IsActive {
			return nil, fail(ErrInvalidInput, "product %s is not available", p.Name)
		}
		if p.Stock < lines[i].Quantity {
			return nil, fail(ErrInsufficientStock, "insufficient stock for %s: requested %d, available %d",
				p.Name, lines[i].Quantity, p.Stock)
		}
		lines[i].Price, lines[i].Name = p.Price, p.Name
	}

	var shipID, billID *string
	if id := strings.TrimSpace(in.ShippingAddressID); id != "" {
		if _, err := st.Addresses.Owned(ctx, id, userID); err != nil {
			return nil, notFound(err, "shipping address")
		}
		shipID, billID = &id, &id
	}
	if id := strings.TrimSpace(in.BillingAddressID); id != "" {
		if _, err := st.Addresses.Owned(ctx, id, userID); err != nil {
			return nil, notFound(err, "billing address")
		}
		billID = &id
	}

	tot := domain.ComputeTotals(lines, ship)
	now := s.now()
	o := &domain.Order{
		ID:                uuid.NewString(),
		OrderNumber:       newOrderNumber(now),
		UserID:            userID,
		ShippingAddressID: shipID,
		BillingAddressID:  billID,
		Subtotal:          tot.Subtotal,
		ShippingFee:       tot.ShippingFee,
		Tax:               tot.Tax,
		Discount:          tot.Discount,
		TotalAmount:       tot.Total,
		Status:            domain.OrderPending,
		ShippingMethod:    ship,
		CustomerNotes:     strings.TrimSpace(in.CustomerNotes),
	}
	if err := st.Orders.Create(ctx, o); err != nil {
		return nil, err
	}
	for i, l := range lines {
		it := &domain.OrderItem{
			ID: uuid.NewString(), OrderID: o.ID, ProductID: l.ProductID,
			Quantity: l.Quantity, Price: l.Price, Name: l.Name,
		}
		if err := st.Orders.InsertItem(ctx, it, i); err != nil {
			return nil, err
		}
	}
	p := &domain.Payment{
		ID:            uuid.NewString(),
		OrderID:       o.ID,
		Amount:        tot.Total,
		Method:        pay,
		Status:        domain.PaymentPending,
		TransactionID: NewTransactionID(),
	}
	if err := st.Payments.Create(ctx, p); err != nil {
		return nil, err
	}

	// The read above only produces a friendly message; this guard is
	// what actually prevents overselling.
	for _, l := range lines {
		err := st.Products.DecrementStock(ctx, l.ProductID, l.Quantity)
		if errors.Is(err, repos.ErrNoRows) {
			return nil, fail(ErrInsufficientStock, "insufficient stock for %s", l.Name)
		}
		if err != nil {
			return nil, err
		}
	}

	if cartID != "" {
		if err := st.Carts.Clear(ctx, cartID); err != nil {
			return nil, err
		}
	}

	if pay == domain.PayCOD {
		if err := st.Payments.SetStatus(ctx, p.TransactionID, domain.PaymentCompleted); err != nil {
			return nil, err
		}
		if err := st.Orders.UpdateStatus(ctx, o.ID, domain.OrderPending, domain.OrderConfirmed); err != nil {
			return nil, err
		}
	}
	return st.Orders.Get(ctx, o.ID)
}

// mergeLines folds duplicate products into one line, keeping first-seen order.
func mergeLines(in []OrderLineInput) ([]domain.Line, error) {
	idx := map[string]int{}
	var out []domain.Line
	for _, l := range in {
		id, ok := validate.ID(l.ProductID)
		if !ok {
			return nil, fail(ErrInvalidInput, "invalid productId")
		}
		if l.Quantity < 1 {
			return nil, fail(ErrInvalidInput, "quantity must be at least 1")
		}
		if i, seen := idx[id]; seen {
			out[i].Quantity += l.Quantity
			continue
		}
		idx[id] = len(out)
		out = append(out, domain.Line{ProductID: id, Quantity: l.Quantity})
	}
	for _, l := range out {
		if !validate.Qty(l.Quantity) {
			return nil, fail(ErrInvalidInput, "quantity must be between 1 and %d", validate.MaxQty)
		}
	}
	return out, nil
}

// newOrderNumber is ORD-YYYYMMDD-XXXXXXXX using the random tail of a ULID.
func newOrderNumber(t time.Time) string {
	id := ulid.Make().String()
	return "ORD-" + t.UTC().Format("20060102") + "-" + id[len(id)-8:]
}

func NewTransactionID() string { return "TXN-" + ulid.Make().String() }

// ---------- reads ----------

// Get returns the order to its owner or an admin.
func (s *OrderService) Get(ctx context.Context, a Actor, id string) (*domain.Order, error) {
	o, err := repos.NewOrderRepo(s.DB).Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "order")
	}
	if o.UserID != a.UserID && !a.IsAdmin() {
		return nil, fail(ErrForbidden, "you do not have access to this order")
	}
	return o, nil
}

func (s *OrderService) ListMine(ctx context.Context, userID string) ([]domain.Order, error) {
	return repos.NewOrderRepo(s.DB).ListByUser(ctx, userID)
}

func (s *OrderService) ListAll(ctx context.Context, a Actor) ([]domain.Order, error) {
	if !a.IsAdmin() {
		return nil, fail(ErrForbidden, "admin only")
	}
	return repos.NewOrderRepo(s.DB).ListAll(ctx)
}

func (s *OrderService) ListForSeller(ctx context.Context, a Actor) ([]domain.Order, error) {
	if a.Role != domain.RoleSeller && !a.IsAdmin() {
		return nil, fail(ErrForbidden, "seller only")
	}
	return repos.NewOrderRepo(s.DB).ListForSeller(ctx, a.UserID)
}

// ---------- writes ----------

// UpdateStatus applies a manual transition. Admins may move any order;
// sellers only orders containing one of their products.
func (s *OrderService) UpdateStatus(ctx context.Context, a Actor, id, status string) (*domain.Order, error) {
	to, ok := domain.ParseOrderStatus(status)
	if !ok {
		return nil, fail(ErrInvalidInput, "unknown order status %q", status)
	}
	ctx, span := tracer.Start(ctx, "order.update_status")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", id), attribute.String("order.to", string(to)))

	orders := repos.NewOrderRepo(s.DB)
	o, err := orders.Get(ctx, id)
	if err != nil {
		return nil, notFound(err, "order")
	}
	if err := s.canManage(ctx, orders, a, id); err != nil {
		return nil, err
	}
	changed, err := domain.CheckTransition(o.Status, to)
	if err != nil {
		return nil, wrap(ErrInvalidTransition, err, err.Error())
	}
	if !changed {
		return o, nil
	}
	if err := orders.UpdateStatus(ctx, id, o.Status, to); err != nil {
		if errors.Is(err, repos.ErrNoRows) {
			return nil, fail(ErrConflict, "order status changed concurrently; reload and retry")
		}
		return nil, err
	}
	return orders.Get(ctx, id)
}

func (s *OrderService) canManage(ctx context.Context, orders *repos.OrderRepo, a Actor, id string) error {
	if a.IsAdmin() {
		return nil
	}
	if a.Role == domain.RoleSeller {
		ok, err := orders.SellerHasItem(ctx, id, a.UserID)
		if err != nil {
			return err
		}
		if ok {
			return nil
		}
	}
	return fail(ErrForbidden, "you cannot manage this order")
}

// Delete is allowed for admins and for the seller of the order's first item.
func (s *OrderService) Delete(ctx context.Context, a Actor, id string) error {
	orders := repos.NewOrderRepo(s.DB)
	if _, err := orders.Get(ctx, id); err != nil {
		return notFound(err, "order")
	}
	if !a.IsAdmin() {
		seller, err := orders.FirstItemSeller(ctx, id)
		if err != nil && !errors.Is(err, sql.ErrNoRows) {
			return err
		}
		if a.Role != domain.RoleSeller || seller != a.UserID {
			return fail(ErrForbidden, "you cannot delete this order")
		}
	}
	return notFound(orders.Delete(ctx, id), "order")
}
