package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"bazaar/internal/domain"
	"bazaar/internal/gateway"
	"bazaar/internal/metrics"
	"bazaar/internal/repos"
)

// Customer defaults sent when the profile or address lacks a value.
const (
	defaultPhone    = "01700000000"
	defaultCity     = "Dhaka"
	defaultPostcode = "1200"
	defaultAddress  = "Not provided"
	defaultCountry  = "Bangladesh"
)

type PaymentService struct {
	DB       *sqlx.DB
	Gateway  gateway.Gateway
	Currency string
	Metrics  *metrics.Metrics // optional
}

type InitResult struct {
	PaymentURL    string          `json:"paymentUrl"`
	TransactionID string          `json:"transactionId"`
	OrderID       string          `json:"orderId"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	OrderNumber   string          `json:"orderNumber"`
}

// Initiate opens a hosted checkout session for the caller's PENDING payment.
func (s *PaymentService) Initiate(ctx context.Context, userID, orderID string) (res *InitResult, err error) {
	ctx, span := tracer.Start(ctx, "payment.initiate")
	span.SetAttributes(attribute.String("order.id", orderID))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	st := repos.NewStore(s.DB)
	o, err := st.Orders.Get(ctx, orderID)
	if err != nil {
		return nil, notFound(err, "order")
	}
	if o.UserID != userID {
		return nil, fail(ErrForbidden, "you do not have access to this order")
	}
	if o.Payment == nil {
		return nil, fail(ErrNotFound, "payment not found for order")
	}
	switch o.Payment.Status {
	case domain.PaymentPending:
	case domain.PaymentCompleted:
		return nil, fail(ErrAlreadyCompleted, "payment already completed")
	default:
		return nil, fail(ErrInvalidState, "payment is %s and cannot be initiated", o.Payment.Status)
	}

	u, err := st.Users.ByID(ctx, o.UserID)
	if err != nil {
		return nil, notFound(err, "user")
	}
	var addr *domain.Address
	if o.ShippingAddressID != nil {
		if addr, err = st.Addresses.ByID(ctx, *o.ShippingAddressID); err != nil {
			addr = nil
		}
	}

	req := buildInitRequest(o, u, addr, s.currency())
	span.SetAttributes(attribute.String("payment.transaction_id", req.TransactionID))

	resp, err := s.Gateway.Init(ctx, req)
	if err != nil {
		s.Metrics.PaymentInit("failed")
		// Use a fresh context: the request one may be the thing that timed out.
		if mErr := st.Payments.SetStatus(context.WithoutCancel(ctx), req.TransactionID, domain.PaymentFailed); mErr != nil && !errors.Is(mErr, repos.ErrNoRows) {
			return nil, mErr
		}
		return nil, wrap(ErrPaymentInitFailed, err, reason(err))
	}

	g := &domain.GatewayTransaction{
		ID:            uuid.NewString(),
		TransactionID: req.TransactionID,
		OrderID:       o.ID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		SessionKey:    resp.SessionKey,
		GatewayURL:    resp.PaymentURL(),
		CusName:       req.CusName,
		CusEmail:      req.CusEmail,
		CusPhone:      req.CusPhone,
		CusAddress:    req.CusAddress,
	}
	if err := st.Payments.UpsertGateway(ctx, g); err != nil {
		return nil, err
	}
	s.Metrics.PaymentInit("ok")
	return &InitResult{
		PaymentURL:    resp.PaymentURL(),
		TransactionID: req.TransactionID,
		OrderID:       o.ID,
		Amount:        req.Amount,
		Currency:      req.Currency,
		OrderNumber:   o.OrderNumber,
	}, nil
}

func (s *PaymentService) currency() string {
	if s.Currency == "" {
		return "BDT"
	}
	return s.Currency
}

func reason(err error) string {
	msg := strings.TrimPrefix(err.Error(), gateway.ErrInitFailed.Error()+": ")
	return "payment initialization failed: " + msg
}

func buildInitRequest(o *domain.Order, u *domain.User, addr *domain.Address, currency string) gateway.InitRequest {
	req := gateway.InitRequest{
		TransactionID: o.Payment.TransactionID,
		OrderID:       o.ID,
		Amount:        o.TotalAmount,
		Currency:      currency,
		CusName:       u.Name,
		CusEmail:      u.Email,
		CusPhone:      orDefault(u.Phone, defaultPhone),
		CusAddress:    defaultAddress,
		CusCity:       defaultCity,
		CusState:      defaultCity,
		CusPostcode:   defaultPostcode,
		CusCountry:    defaultCountry,
		NumItems:      len(o.Items),
	}
	if addr != nil {
		req.CusAddress = orDefault(addr.Line1, defaultAddress)
		req.CusCity = orDefault(addr.City, defaultCity)
		req.CusState = orDefault(addr.State, defaultCity)
		req.CusPostcode = orDefault(addr.PostalCode, defaultPostcode)
		req.CusCountry = orDefault(addr.Country, defaultCountry)
		if u.Phone == "" {
			req.CusPhone = orDefault(addr.Phone, defaultPhone)
		}
	}
	req.ProductName, req.ProductCategory = productLabels(o.Items)
	return req
}

// productLabels names the first item, and "<first> & N more" when there
// are other distinct products.
func productLabels(items []domain.OrderItem) (name, category string) {
	if len(items) == 0 {
		return "Order", "General"
	}
	first := items[0].Name
	seen := map[string]bool{items[0].ProductID: true}
	for _, it := range items[1:] {
		seen[it.ProductID] = true
	}
	if n := len(seen) - 1; n > 0 {
		return first, fmt.Sprintf("%s & %d more", first, n)
	}
	return first, first
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}

// ---------- callbacks ----------

type CallbackInput struct {
	TransactionID string
	ValID         string
	BankTranID    string
	Status        string
}

type CallbackResult struct {
	TransactionID string
	OrderID       string
	// Replay is set when the callback changed nothing because an earlier
	// one already settled the transaction.
	Replay bool
}

// HandleSuccess settles the payment and confirms a PENDING order in one
// transaction. A gateway status other than VALID/VALIDATED is recorded as
// a failure.
func (s *PaymentService) HandleSuccess(ctx context.Context, in CallbackInput) (res *CallbackResult, err error) {
	ctx, span := tracer.Start(ctx, "payment.callback.success")
	span.SetAttributes(attribute.String("payment.transaction_id", in.TransactionID))
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
		s.Metrics.Callback("success", outcome(res, err))
	}()

	if in.TransactionID == "" {
		return nil, fail(ErrInvalidInput, "transaction id is required")
	}
	switch strings.ToUpper(in.Status) {
	case "VALID", "VALIDATED":
	default:
		res, ferr := s.settle(ctx, in.TransactionID, domain.GatewayFailed, domain.PaymentFailed)
		if ferr != nil {
			return nil, ferr
		}
		return res, fail(ErrInvalidState, "payment was not validated (status %q)", in.Status)
	}

	res = &CallbackResult{TransactionID: in.TransactionID}
	err = repos.InTx(ctx, s.DB, func(st *repos.Store) error {
		g, err := st.Payments.Gateway(ctx, in.TransactionID)
		if err != nil {
			return notFound(err, "transaction")
		}
		res.OrderID = g.OrderID

		err = st.Payments.SucceedGateway(ctx, in.TransactionID, in.ValID, in.BankTranID)
		if errors.Is(err, repos.ErrNoRows) {
			res.Replay = true
			return nil
		}
		if err != nil {
			return err
		}
		if err := st.Payments.Complete(ctx, in.TransactionID, in.ValID, in.BankTranID); err != nil {
			return notFound(err, "payment")
		}
		o, err := st.Orders.Get(ctx, g.OrderID)
		if err != nil {
			return notFound(err, "order")
		}
		if to, ok := domain.ConfirmByPayment(o.Status); ok {
			return st.Orders.UpdateStatus(ctx, o.ID, o.Status, to)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func (s *PaymentService) HandleFail(ctx context.Context, in CallbackInput) (res *CallbackResult, err error) {
	ctx, span := tracer.Start(ctx, "payment.callback.fail")
	defer func() {
		span.End()
		s.Metrics.Callback("fail", outcome(res, err))
	}()
	if in.TransactionID == "" {
		return nil, fail(ErrInvalidInput, "transaction id is required")
	}
	return s.settle(ctx, in.TransactionID, domain.GatewayFailed, domain.PaymentFailed)
}

func (s *PaymentService) HandleCancel(ctx context.Context, in CallbackInput) (res *CallbackResult, err error) {
	ctx, span := tracer.Start(ctx, "payment.callback.cancel")
	defer func() {
		span.End()
		s.Metrics.Callback("cancel", outcome(res, err))
	}()
	if in.TransactionID == "" {
		return nil, fail(ErrInvalidInput, "transaction id is required")
	}
	return s.settle(ctx, in.TransactionID, domain.GatewayCancelled, domain.PaymentCancelled)
}

// MarkFailed is the best-effort cleanup after a success callback errored.
func (s *PaymentService) MarkFailed(ctx context.Context, txnID string) error {
	if txnID == "" {
		return nil
	}
	_, err := s.settle(ctx, txnID, domain.GatewayFailed, domain.PaymentFailed)
	return err
}

// settle records a failed or cancelled outcome. It never downgrades a
// SUCCESS transaction or a COMPLETED payment; the order is left alone.
func (s *PaymentService) settle(ctx context.Context, txnID string, gs domain.GatewayStatus, ps domain.PaymentStatus) (*CallbackResult, error) {
	res := &CallbackResult{TransactionID: txnID}
	err := repos.InTx(ctx, s.DB, func(st *repos.Store) error {
		g, err := st.Payments.Gateway(ctx, txnID)
		if err != nil {
			return notFound(err, "transaction")
		}
		res.OrderID = g.OrderID
		if g.Status == domain.GatewaySuccess {
			res.Replay = true
			return nil
		}
		if err := st.Payments.SetGatewayStatus(ctx, txnID, gs); err != nil && !errors.Is(err, repos.ErrNoRows) {
			return err
		}
		if err := st.Payments.SetStatus(ctx, txnID, ps); err != nil && !errors.Is(err, repos.ErrNoRows) {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return res, nil
}

func outcome(res *CallbackResult, err error) string {
	switch {
	case err != nil:
		return "error"
	case res != nil && res.Replay:
		return "ignored"
	}
	return "ok"
}
