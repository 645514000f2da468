package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"bazaar/internal/domain"
	"bazaar/internal/idempotency"
	"bazaar/internal/log"
	"bazaar/internal/services"
)

type OrderHandler struct {
	Orders   *services.OrderService
	Payments *services.PaymentService
}

type statusInput struct {
	Status string `json:"status"`
}

// Place creates an order and, for gateway orders, opens the checkout
// session straight away. A failed init still returns the created order.
func (h *OrderHandler) Place(c *fiber.Ctx) error {
	var in services.CreateOrderInput
	if err := decode(c, &in); err != nil {
		return err
	}
	in.IdempotencyKey = strings.TrimSpace(c.Get(idempotency.Header))

	me := actor(c)
	o, replay, err := h.Orders.Create(c.UserContext(), me.UserID, in)
	if err != nil {
		log.Security(c, "order.create.fail", map[string]any{"reason": err.Error()})
		return err
	}
	status, msg := fiber.StatusCreated, "order placed"
	if replay {
		status, msg = fiber.StatusOK, "order already placed"
	} else {
		log.Audit(c, "order.create", map[string]any{
			"order": o.ID, "number": o.OrderNumber, "total": o.TotalAmount.String(), "items": len(o.Items),
		})
	}

	data := fiber.Map{"order": o}
	if o.Payment != nil && o.Payment.Method == domain.PayGateway && o.Payment.Status == domain.PaymentPending {
		res, perr := h.Payments.Initiate(c.UserContext(), me.UserID, o.ID)
		if perr != nil {
			log.Error(c, "order.payment.init", perr, map[string]any{"order": o.ID})
			data["paymentError"] = perr.Error()
		} else {
			data["payment"] = res
		}
	}
	return ok(c, status, msg, data)
}

// InitPayment retries the checkout session for a PENDING payment.
func (h *OrderHandler) InitPayment(c *fiber.Ctx) error {
	res, err := h.Payments.Initiate(c.UserContext(), actor(c).UserID, c.Params("id"))
	if err != nil {
		return err
	}
	log.Audit(c, "payment.init", map[string]any{"order": res.OrderID, "txn": res.TransactionID})
	return ok(c, fiber.StatusOK, "payment initiated", res)
}

func (h *OrderHandler) Get(c *fiber.Ctx) error {
	o, err := h.Orders.Get(c.UserContext(), actor(c), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, "order", o)
}

func (h *OrderHandler) Mine(c *fiber.Ctx) error {
	list, err := h.Orders.ListMine(c.UserContext(), actor(c).UserID)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, "orders", list)
}

func (h *OrderHandler) All(c *fiber.Ctx) error {
	list, err := h.Orders.ListAll(c.UserContext(), actor(c))
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, "orders", list)
}

func (h *OrderHandler) Seller(c *fiber.Ctx) error {
	list, err := h.Orders.ListForSeller(c.UserContext(), actor(c))
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, "orders", list)
}

func (h *OrderHandler) UpdateStatus(c *fiber.Ctx) error {
	var in statusInput
	if err := decode(c, &in); err != nil {
		return err
	}
	id := c.Params("id")
	o, err := h.Orders.UpdateStatus(c.UserContext(), actor(c), id, in.Status)
	if err != nil {
		log.Security(c, "order.status.fail", map[string]any{"order": id, "to": in.Status, "reason": err.Error()})
		return err
	}
	log.Audit(c, "order.status.update", map[string]any{"order": id, "status": o.Status})
	return ok(c, fiber.StatusOK, "order status updated", o)
}

func (h *OrderHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Orders.Delete(c.UserContext(), actor(c), id); err != nil {
		return err
	}
	log.Audit(c, "order.delete", map[string]any{"order": id})
	return ok(c, fiber.StatusOK, "order deleted", nil)
}
