package handlers

import (
	"github.com/gofiber/fiber/v2"

	"bazaar/internal/services"
)

type WishlistHandler struct {
	Wish *services.WishlistService
}

func (h *WishlistHandler) List(c *fiber.Ctx) error {
	items, err := h.Wish.List(c.UserContext(), actor(c).UserID)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, "wishlist", items)
}

func (h *WishlistHandler) Save(c *fiber.Ctx) error {
	if err := h.Wish.Add(c.UserContext(), actor(c).UserID, c.Params("productId")); err != nil {
		return err
	}
	return ok(c, fiber.StatusCreated, "saved to wishlist", nil)
}

func (h *WishlistHandler) Unsave(c *fiber.Ctx) error {
	if err := h.Wish.Remove(c.UserContext(), actor(c).UserID, c.Params("productId")); err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, "removed from wishlist", nil)
}
