package handlers

import (
	"github.com/gofiber/fiber/v2"

	"bazaar/internal/services"
)

type CartHandler struct {
	Cart *services.CartService
}

type cartItemInput struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type cartQtyInput struct {
	Quantity int `json:"quantity"`
}

func (h *CartHandler) View(c *fiber.Ctx) error {
	v, err := h.Cart.View(c.UserContext(), actor(c).UserID)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, "cart", v)
}

func (h *CartHandler) Add(c *fiber.Ctx) error {
	var in cartItemInput
	if err := decode(c, &in); err != nil {
		return err
	}
	v, err := h.Cart.Add(c.UserContext(), actor(c).UserID, in.ProductID, in.Quantity)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, "added to cart", v)
}

func (h *CartHandler) Update(c *fiber.Ctx) error {
	var in cartQtyInput
	if err := decode(c, &in); err != nil {
		return err
	}
	v, err := h.Cart.Update(c.UserContext(), actor(c).UserID, c.Params("productId"), in.Quantity)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, "cart updated", v)
}

func (h *CartHandler) Remove(c *fiber.Ctx) error {
	v, err := h.Cart.Remove(c.UserContext(), actor(c).UserID, c.Params("productId"))
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, "removed from cart", v)
}
