package handlers

import (
	"github.com/gofiber/fiber/v2"

	"bazaar/internal/log"
	"bazaar/internal/services"
)

type CategoryHandler struct {
	Catalog *services.CatalogService
}

type categoryInput struct {
	Name string `json:"name"`
}

func (h *CategoryHandler) List(c *fiber.Ctx) error {
	cats, err := h.Catalog.ListCategories(c.UserContext())
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, "categories", cats)
}

func (h *CategoryHandler) Create(c *fiber.Ctx) error {
	var in categoryInput
	if err := decode(c, &in); err != nil {
		return err
	}
	cat, err := h.Catalog.CreateCategory(c.UserContext(), in.Name)
	if err != nil {
		return err
	}
	log.Audit(c, "category.create", map[string]any{"id": cat.ID})
	return ok(c, fiber.StatusCreated, "category created", cat)
}

func (h *CategoryHandler) Rename(c *fiber.Ctx) error {
	var in categoryInput
	if err := decode(c, &in); err != nil {
		return err
	}
	cat, err := h.Catalog.RenameCategory(c.UserContext(), c.Params("id"), in.Name)
	if err != nil {
		return err
	}
	log.Audit(c, "category.rename", map[string]any{"id": cat.ID})
	return ok(c, fiber.StatusOK, "category updated", cat)
}

func (h *CategoryHandler) Delete(c *fiber.Ctx) error {
	id := c.Params("id")
	if err := h.Catalog.DeleteCategory(c.UserContext(), id); err != nil {
		return err
	}
	log.Audit(c, "category.delete", map[string]any{"id": id})
	return ok(c, fiber.StatusOK, "category deleted", nil)
}
