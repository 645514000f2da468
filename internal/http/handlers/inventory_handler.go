package handlers

import (
	"github.com/gofiber/fiber/v2"

	"bazaar/internal/services"
)

type InventoryHandler struct {
	Inv *services.InventoryService
}

// Check returns the stock band for a product.
func (h *InventoryHandler) Check(c *fiber.Ctx) error {
	a, err := h.Inv.CheckAvailability(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, "availability", a)
}
