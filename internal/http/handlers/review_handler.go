package handlers

import (
	"github.com/gofiber/fiber/v2"

	"bazaar/internal/log"
	"bazaar/internal/services"
)

type ReviewHandler struct {
	Reviews *services.ReviewService
}

func (h *ReviewHandler) List(c *fiber.Ctx) error {
	list, err := h.Reviews.List(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, "reviews", list)
}

func (h *ReviewHandler) Create(c *fiber.Ctx) error {
	var in services.ReviewInput
	if err := decode(c, &in); err != nil {
		return err
	}
	r, err := h.Reviews.Create(c.UserContext(), actor(c), c.Params("id"), in)
	if err != nil {
		return err
	}
	log.Audit(c, "review.create", map[string]any{"product": r.ProductID, "rating": r.Rating})
	return ok(c, fiber.StatusCreated, "review added", r)
}
