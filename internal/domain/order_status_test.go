package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckTransition(t *testing.T) {
	cases := []struct {
		from, to OrderStatus
		changed  bool
		ok       bool
	}{
		{OrderPending, OrderProcessing, true, true},
		{OrderPending, OrderCancelled, true, true},
		{OrderPending, OrderShipped, false, false},
		{OrderPending, OrderPending, false, true},
		{OrderConfirmed, OrderProcessing, true, true},
		{OrderProcessing, OrderPending, false, false},
		{OrderProcessing, OrderShipped, true, true},
		{OrderShipped, OrderDelivered, true, true},
		{OrderShipped, OrderCancelled, false, false},
		{OrderDelivered, OrderCancelled, false, false},
		{OrderDelivered, OrderPending, false, false},
		{OrderCancelled, OrderProcessing, false, false},
		{OrderCancelled, OrderCancelled, false, true},
	}
	for _, tc := range cases {
		changed, err := CheckTransition(tc.from, tc.to)
		assert.Equal(t, tc.changed, changed, "%s -> %s", tc.from, tc.to)
		if tc.ok {
			assert.NoError(t, err, "%s -> %s", tc.from, tc.to)
		} else {
			var te *TransitionError
			require.True(t, errors.As(err, &te), "%s -> %s", tc.from, tc.to)
			assert.Equal(t, tc.from.AllowedNext(), te.Allowed)
		}
	}
}

func TestTransitionErrorNamesAllowed(t *testing.T) {
	_, err := CheckTransition(OrderProcessing, OrderPending)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHIPPED, CANCELLED")

	_, err = CheckTransition(OrderDelivered, OrderShipped)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot change status")
}

func TestTerminal(t *testing.T) {
	assert.True(t, OrderDelivered.Terminal())
	assert.True(t, OrderCancelled.Terminal())
	assert.False(t, OrderShipped.Terminal())
}

func TestConfirmByPayment(t *testing.T) {
	to, ok := ConfirmByPayment(OrderPending)
	assert.True(t, ok)
	assert.Equal(t, OrderConfirmed, to)

	for _, s := range []OrderStatus{OrderConfirmed, OrderProcessing, OrderCancelled, OrderDelivered} {
		_, ok := ConfirmByPayment(s)
		assert.False(t, ok, s)
	}
}

func TestParseOrderStatus(t *testing.T) {
	s, ok := ParseOrderStatus(" shipped ")
	assert.True(t, ok)
	assert.Equal(t, OrderShipped, s)
	_, ok = ParseOrderStatus("LOST")
	assert.False(t, ok)
}

func TestComputeTotals(t *testing.T) {
	lines := []Line{
		{ProductID: "p1", Quantity: 2, Price: decimal.NewFromInt(300)},
		{ProductID: "p2", Quantity: 1, Price: decimal.NewFromInt(400)},
	}
	tot := ComputeTotals(lines, ShipExpress)
	assert.True(t, tot.Subtotal.Equal(decimal.NewFromInt(1000)))
	assert.True(t, tot.ShippingFee.Equal(decimal.NewFromInt(120)))
	assert.True(t, tot.Tax.Equal(decimal.NewFromInt(50)))
	assert.True(t, tot.Total.Equal(decimal.NewFromInt(1170)), tot.Total.String())

	assert.True(t, ComputeTotals(lines, ShipStandard).Total.Equal(decimal.NewFromInt(1110)))
	assert.True(t, ComputeTotals(lines, ShipFree).Total.Equal(decimal.NewFromInt(1050)))
}

func TestComputeTotalsRoundsTax(t *testing.T) {
	tot := ComputeTotals([]Line{{Quantity: 1, Price: decimal.RequireFromString("129.99")}}, ShipFree)
	assert.Equal(t, "6.5", tot.Tax.String())
	assert.Equal(t, "136.49", tot.Total.String())
}

func TestParseMethods(t *testing.T) {
	m, ok := ParseShippingMethod("")
	assert.True(t, ok)
	assert.Equal(t, ShipStandard, m)
	_, ok = ParseShippingMethod("DRONE")
	assert.False(t, ok)

	p, ok := ParsePaymentMethod("")
	assert.True(t, ok)
	assert.Equal(t, PayGateway, p)
	p, ok = ParsePaymentMethod("CASH_ON_DELIVERY")
	assert.True(t, ok)
	assert.Equal(t, PayCOD, p)
}
