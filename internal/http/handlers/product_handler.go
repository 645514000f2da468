package handlers

import (
	"github.com/gofiber/fiber/v2"

	"bazaar/internal/log"
	"bazaar/internal/services"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

// List serves GET /products?page&limit&searchTerm&categoryId&sortBy&orderBy.
func (h *ProductHandler) List(c *fiber.Ctx) error {
	page, err := h.Catalog.ListProducts(c.UserContext(), services.ProductQuery{
		Page:       c.QueryInt("page", 1),
		Limit:      c.QueryInt("limit", 10),
		Search:     c.Query("searchTerm"),
		CategoryID: c.Query("categoryId"),
		SortBy:     c.Query("sortBy"),
		OrderBy:    c.Query("orderBy"),
	})
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, "products", page)
}

func (h *ProductHandler) Get(c *fiber.Ctx) error {
	p, err := h.Catalog.GetProduct(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, "product", p)
}

func (h *ProductHandler) Create(c *fiber.Ctx) error {
	var in services.ProductInput
	if err := decode(c, &in); err != nil {
		return err
	}
	p, err := h.Catalog.CreateProduct(c.UserContext(), actor(c), in)
	if err != nil {
		return err
	}
	log.Audit(c, "product.create", map[string]any{"id": p.ID, "price": p.Price.String(), "stock": p.Stock})
	return ok(c, fiber.StatusCreated, "product created", p)
}

func (h *ProductHandler) Update(c *fiber.Ctx) error {
	var in services.ProductPatch
	if err := decode(c, &in); err != nil {
		return err
	}
	p, err := h.Catalog.UpdateProduct(c.UserContext(), actor(c), c.Params("id"), in)
	if err != nil {
		return err
	}
	log.Audit(c, "product.update", map[string]any{"id": p.ID, "price": p.Price.String(), "stock": p.Stock})
	return ok(c, fiber.StatusOK, "product updated", p)
}
