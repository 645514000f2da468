package handlers_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bazaar/internal/domain"
)

func placeCOD(t *testing.T, a *testApp, tok, productID string, qty int) domain.Order {
	t.Helper()
	resp, body := a.call(t, "POST", "/api/v1/orders", tok, map[string]any{
		"items":         []map[string]any{{"productId": productID, "quantity": qty}},
		"paymentMethod": "CASH_ON_DELIVERY",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Message)
	var p placed
	decodeData(t, body, &p)
	return p.Order
}

func setStatus(t *testing.T, a *testApp, tok, id, status string) (int, apiResponse) {
	t.Helper()
	resp, body := a.call(t, "PATCH", "/api/v1/orders/"+id+"/status", tok, map[string]string{"status": status})
	return resp.StatusCode, body
}

func TestOrderLifecycleAndReview(t *testing.T) {
	a := newApp(t)
	seller, alice := sellerTok(t), aliceTok(t)
	o := placeCOD(t, a, alice, "p-kettle", 1)

	// Not deliverable yet, so no review.
	resp, _ := a.call(t, "POST", "/api/v1/products/p-kettle/reviews", alice, map[string]any{"rating": 5})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	for _, next := range []string{"PROCESSING", "SHIPPED", "DELIVERED"} {
		code, body := setStatus(t, a, seller, o.ID, next)
		require.Equal(t, http.StatusOK, code, body.Message)
	}

	code, body := setStatus(t, a, seller, o.ID, "PENDING")
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Contains(t, body.Message, "DELIVERED")

	code, _ = setStatus(t, a, seller, o.ID, "DELIVERED")
	assert.Equal(t, http.StatusOK, code, "same-state update is a no-op")

	resp, body = a.call(t, "POST", "/api/v1/products/p-kettle/reviews", alice, map[string]any{"rating": 4, "comment": "boils fast"})
	require.Equal(t, http.StatusCreated, resp.StatusCode, body.Message)
	resp, _ = a.call(t, "POST", "/api/v1/products/p-kettle/reviews", alice, map[string]any{"rating": 1})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	resp, _ = a.call(t, "POST", "/api/v1/products/p-kettle/reviews", bobTok(t), map[string]any{"rating": 1})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, body = a.call(t, "GET", "/api/v1/products/p-kettle/reviews", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var reviews []domain.Review
	decodeData(t, body, &reviews)
	require.Len(t, reviews, 1)
	assert.Equal(t, "boils fast", reviews[0].Comment)

	resp, body = a.call(t, "GET", "/api/v1/products/p-kettle", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var p domain.Product
	decodeData(t, body, &p)
	assert.Equal(t, 4.0, p.AverageRating)
	assert.Equal(t, 1, p.ReviewCount)
}

func TestOrderStatusGuards(t *testing.T) {
	a := newApp(t)
	o := placeCOD(t, a, aliceTok(t), "p-tshirt", 1)

	code, _ := setStatus(t, a, aliceTok(t), o.ID, "CANCELLED")
	assert.Equal(t, http.StatusForbidden, code, "customers cannot move orders")

	code, _ = setStatus(t, a, token(t, "u-other-seller", domain.RoleSeller), o.ID, "CANCELLED")
	assert.Equal(t, http.StatusForbidden, code, "sellers only manage orders with their items")

	code, _ = setStatus(t, a, adminTok(t), o.ID, "SHIPPED")
	assert.Equal(t, http.StatusBadRequest, code)

	code, _ = setStatus(t, a, adminTok(t), o.ID, "LOST")
	assert.Equal(t, http.StatusBadRequest, code)

	code, body := setStatus(t, a, adminTok(t), o.ID, "CANCELLED")
	require.Equal(t, http.StatusOK, code, body.Message)
	var got domain.Order
	decodeData(t, body, &got)
	assert.Equal(t, domain.OrderCancelled, got.Status)
}

func TestOrderDelete(t *testing.T) {
	a := newApp(t)
	o := placeCOD(t, a, aliceTok(t), "p-kettle", 1)

	resp, _ := a.call(t, "DELETE", "/api/v1/orders/"+o.ID, token(t, "u-other-seller", domain.RoleSeller), nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp, _ = a.call(t, "DELETE", "/api/v1/orders/"+o.ID, sellerTok(t), nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, _ = a.call(t, "GET", "/api/v1/orders/"+o.ID, adminTok(t), nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
