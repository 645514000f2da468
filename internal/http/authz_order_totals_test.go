package handlers_test

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazaar/internal/domain"
)

// Client-supplied prices are ignored; totals come from the catalog.
func TestOrderTotalsRecomputed(t *testing.T) {
	a := newApp(t)

	resp, body := a.call(t, "POST", "/api/v1/orders", aliceTok(t), map[string]any{
		"items": []map[string]any{
			{"productId": "p-kettle", "quantity": 1, "price": "1.00", "name": "free kettle"},
		},
		"shippingMethod": "EXPRESS",
		"paymentMethod":  "CASH_ON_DELIVERY",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Message)
	var p placed
	decodeData(t, body, &p)
	assert.Equal(t, "1800", p.Order.Subtotal.String())
	assert.Equal(t, "120", p.Order.ShippingFee.String())
	assert.Equal(t, "90", p.Order.Tax.String())
	assert.Equal(t, "2010", p.Order.TotalAmount.String())
	assert.Equal(t, "Electric Kettle", p.Order.Items[0].Name)
}

func TestPlaceOrderCOD(t *testing.T) {
	a := newApp(t)

	resp, body := a.call(t, "POST", "/api/v1/orders", aliceTok(t), map[string]any{
		"items":         []map[string]any{{"productId": "p-tshirt", "quantity": 2}},
		"paymentMethod": "CASH_ON_DELIVERY",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Message)
	var p placed
	decodeData(t, body, &p)
	assert.Equal(t, domain.OrderConfirmed, p.Order.Status)
	assert.Equal(t, domain.PaymentCompleted, p.Order.Payment.Status)
	assert.Nil(t, p.Payment, "COD orders never reach the gateway")
	assert.Empty(t, a.gw.calls)
}

func TestPlaceOrderGatewayReturnsPaymentURL(t *testing.T) {
	a := newApp(t)

	resp, body := a.call(t, "POST", "/api/v1/orders", aliceTok(t), map[string]any{
		"items": []map[string]any{{"productId": "p-headphones", "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Message)
	var p placed
	decodeData(t, body, &p)
	assert.Equal(t, domain.OrderPending, p.Order.Status)
	require.NotNil(t, p.Payment)
	assert.Equal(t, p.Order.Payment.TransactionID, p.Payment.TransactionID)
	assert.Equal(t, "https://pay.test/"+p.Payment.TransactionID, p.Payment.PaymentURL)
	assert.Equal(t, "BDT", p.Payment.Currency)
	assert.Equal(t, p.Order.TotalAmount.String(), p.Payment.Amount.String())
	require.Len(t, a.gw.calls, 1)

	// A second init for the same PENDING payment is allowed.
	resp, body = a.call(t, "POST", "/api/v1/orders/"+p.Order.ID+"/payment", aliceTok(t), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode, body.Message)
	resp, _ = a.call(t, "POST", "/api/v1/orders/"+p.Order.ID+"/payment", bobTok(t), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

func TestPlaceOrderGatewayFailureKeepsOrder(t *testing.T) {
	a := newApp(t)
	a.gw.err = errors.New("connection refused")

	resp, body := a.call(t, "POST", "/api/v1/orders", aliceTok(t), map[string]any{
		"items": []map[string]any{{"productId": "p-headphones", "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Message)
	var p placed
	decodeData(t, body, &p)
	assert.Nil(t, p.Payment)
	assert.Contains(t, p.PaymentError, "payment initialization failed")

	// The payment is FAILED now, so a retry is refused.
	resp, _ = a.call(t, "POST", "/api/v1/orders/"+p.Order.ID+"/payment", aliceTok(t), nil)
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	a := newApp(t)

	resp, body := a.call(t, "POST", "/api/v1/orders", aliceTok(t), map[string]any{
		"items":         []map[string]any{{"productId": "p-tshirt", "quantity": 4}},
		"paymentMethod": "CASH_ON_DELIVERY",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
	assert.Contains(t, body.Message, "insufficient stock")
}

func TestPlaceOrderIdempotencyKey(t *testing.T) {
	a := newApp(t)
	order := map[string]any{
		"items":         []map[string]any{{"productId": "p-kettle", "quantity": 1}},
		"paymentMethod": "CASH_ON_DELIVERY",
	}

	resp, body := a.call(t, "POST", "/api/v1/orders", aliceTok(t), order, "Idempotency-Key", "checkout-1")
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Message)
	var first placed
	decodeData(t, body, &first)

	resp, body = a.call(t, "POST", "/api/v1/orders", aliceTok(t), order, "Idempotency-Key", "checkout-1")
	require.Equal(t, http.StatusOK, resp.StatusCode, body.Message)
	var again placed
	decodeData(t, body, &again)
	assert.Equal(t, first.Order.ID, again.Order.ID)

	// Keys are scoped per user.
	resp, body = a.call(t, "POST", "/api/v1/orders", bobTok(t), order, "Idempotency-Key", "checkout-1")
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Message)
	var bobs placed
	decodeData(t, body, &bobs)
	assert.NotEqual(t, first.Order.ID, bobs.Order.ID)
}

func TestOrderFromCart(t *testing.T) {
	a := newApp(t)
	tok := aliceTok(t)

	resp, body := a.call(t, "POST", "/api/v1/cart/items", tok, map[string]any{"productId": "p-tshirt", "quantity": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode, body.Message)
	resp, _ = a.call(t, "POST", "/api/v1/cart/items", tok, map[string]any{"productId": "p-tshirt", "quantity": 1})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var cart struct {
		Items    []domain.CartItem `json:"items"`
		Subtotal string            `json:"subtotal"`
	}
	resp, body = a.call(t, "GET", "/api/v1/cart", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeData(t, body, &cart)
	require.Len(t, cart.Items, 1)
	assert.Equal(t, 2, cart.Items[0].Quantity)
	assert.Equal(t, "900", cart.Subtotal)

	resp, body = a.call(t, "POST", "/api/v1/orders", tok, map[string]any{
		"fromCart": true, "paymentMethod": "CASH_ON_DELIVERY",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Message)
	var p placed
	decodeData(t, body, &p)
	assert.Equal(t, "900", p.Order.Subtotal.String())

	resp, body = a.call(t, "GET", "/api/v1/cart", tok, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	decodeData(t, body, &cart)
	assert.Empty(t, cart.Items)
}
