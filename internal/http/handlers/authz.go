package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"bazaar/internal/domain"
	applog "bazaar/internal/log"
	"bazaar/internal/services"
)

const tokenCookie = "accessToken"

// Authenticate attaches the caller to c.Locals("user") when a valid bearer
// token or access cookie is present. Anonymous requests pass through.
func Authenticate(auth *services.AuthService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		raw := bearer(c)
		if raw == "" {
			return c.Next()
		}
		claims, err := auth.ParseToken(raw)
		if err != nil {
			applog.Security(c, "auth.token.invalid", map[string]any{"reason": err.Error()})
			return c.Next()
		}
		c.Locals("user", &domain.User{ID: claims.UserID, Role: claims.Role})
		return c.Next()
	}
}

func bearer(c *fiber.Ctx) string {
	h := c.Get(fiber.HeaderAuthorization)
	if len(h) > 7 && strings.EqualFold(h[:7], "bearer ") {
		return strings.TrimSpace(h[7:])
	}
	return c.Cookies(tokenCookie)
}

func RequireAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if currentUser(c) == nil {
			applog.Security(c, "access.denied.anonymous", nil)
			return problem(c, fiber.StatusUnauthorized, "authentication required")
		}
		return c.Next()
	}
}

// RequireRole admits only the listed roles. It implies RequireAuth.
func RequireRole(roles ...domain.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		u := currentUser(c)
		if u == nil {
			applog.Security(c, "access.denied.anonymous", nil)
			return problem(c, fiber.StatusUnauthorized, "authentication required")
		}
		for _, r := range roles {
			if u.Role == r {
				return c.Next()
			}
		}
		applog.Security(c, "access.denied.role", map[string]any{"role": u.Role})
		return problem(c, fiber.StatusForbidden, "you do not have access to this resource")
	}
}

func currentUser(c *fiber.Ctx) *domain.User {
	u, _ := c.Locals("user").(*domain.User)
	return u
}

// actor must only be called behind RequireAuth or RequireRole.
func actor(c *fiber.Ctx) services.Actor {
	u := currentUser(c)
	return services.Actor{UserID: u.ID, Role: u.Role}
}
