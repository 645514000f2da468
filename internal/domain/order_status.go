package domain

import (
	"fmt"
	"strings"
)

type OrderStatus string

const (
	OrderPending    OrderStatus = "PENDING"
	OrderConfirmed  OrderStatus = "CONFIRMED"
	OrderProcessing OrderStatus = "PROCESSING"
	OrderShipped    OrderStatus = "SHIPPED"
	OrderDelivered  OrderStatus = "DELIVERED"
	OrderCancelled  OrderStatus = "CANCELLED"
)

// orderTransitions is the only place order status rules live. Statuses
// without an entry are terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderPending:    {OrderProcessing, OrderCancelled},
	OrderConfirmed:  {OrderProcessing, OrderCancelled},
	OrderProcessing: {OrderShipped, OrderCancelled},
	OrderShipped:    {OrderDelivered},
}

// paymentConfirmations are the edges a settled payment may take.
var paymentConfirmations = map[OrderStatus]OrderStatus{
	OrderPending: OrderConfirmed,
}

func ParseOrderStatus(s string) (OrderStatus, bool) {
	switch st := OrderStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case OrderPending, OrderConfirmed, OrderProcessing, OrderShipped, OrderDelivered, OrderCancelled:
		return st, true
	}
	return "", false
}

func (s OrderStatus) Terminal() bool { return len(orderTransitions[s]) == 0 }

func (s OrderStatus) AllowedNext() []OrderStatus {
	return append([]OrderStatus(nil), orderTransitions[s]...)
}

type TransitionError struct {
	From    OrderStatus
	To      OrderStatus
	Allowed []OrderStatus
}

func (e *TransitionError) Error() string {
	if e.From.Terminal() {
		return fmt.Sprintf("order is %s and cannot change status", e.From)
	}
	names := make([]string, len(e.Allowed))
	for i, a := range e.Allowed {
		names[i] = string(a)
	}
	return fmt.Sprintf("cannot move order from %s to %s; allowed: %s", e.From, e.To, strings.Join(names, ", "))
}

// CheckTransition reports whether moving from -> to changes anything.
// Same-state requests are a no-op, not an error.
func CheckTransition(from, to OrderStatus) (bool, error) {
	if from == to {
		return false, nil
	}
	for _, next := range orderTransitions[from] {
		if next == to {
			return true, nil
		}
	}
	return false, &TransitionError{From: from, To: to, Allowed: from.AllowedNext()}
}

// ConfirmByPayment returns the status an order takes once its payment
// settles, and false when the order must be left as is.
func ConfirmByPayment(from OrderStatus) (OrderStatus, bool) {
	to, ok := paymentConfirmations[from]
	return to, ok
}
