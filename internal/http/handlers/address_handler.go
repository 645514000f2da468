package handlers

import (
	"github.com/gofiber/fiber/v2"

	"bazaar/internal/services"
)

type AddressHandler struct {
	Addresses *services.AddressService
}

func (h *AddressHandler) List(c *fiber.Ctx) error {
	list, err := h.Addresses.List(c.UserContext(), actor(c).UserID)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, "addresses", list)
}

func (h *AddressHandler) Create(c *fiber.Ctx) error {
	var in services.AddressInput
	if err := decode(c, &in); err != nil {
		return err
	}
	a, err := h.Addresses.Create(c.UserContext(), actor(c).UserID, in)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusCreated, "address saved", a)
}

func (h *AddressHandler) Delete(c *fiber.Ctx) error {
	if err := h.Addresses.Delete(c.UserContext(), actor(c).UserID, c.Params("id")); err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, "address deleted", nil)
}
