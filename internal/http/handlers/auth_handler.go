package handlers

import (
	"errors"
	"time"

	"github.com/gofiber/fiber/v2"

	"bazaar/internal/log"
	"bazaar/internal/services"
)

type AuthHandler struct {
	Auth *services.AuthService
	// Secure marks the access cookie HTTPS-only.
	Secure bool
}

func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var in services.RegisterInput
	if err := decode(c, &in); err != nil {
		return err
	}
	u, err := h.Auth.Register(c.UserContext(), in)
	if err != nil {
		log.Security(c, "auth.register.fail", map[string]any{"email": in.Email, "reason": err.Error()})
		return err
	}
	log.Audit(c, "auth.register.success", map[string]any{"user": u.ID, "role": u.Role})
	return ok(c, fiber.StatusCreated, "registered", u)
}

type loginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var in loginInput
	if err := decode(c, &in); err != nil {
		return err
	}
	tok, u, err := h.Auth.Login(c.UserContext(), in.Email, in.Password)
	if err != nil {
		if errors.Is(err, services.ErrUnauthorized) {
			log.Security(c, "auth.login.fail", map[string]any{"email": in.Email})
		}
		return err
	}

	c.Cookie(&fiber.Cookie{
		Name:     tokenCookie,
		Value:    tok,
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   h.Secure,
		Expires:  time.Now().Add(h.Auth.TTL),
	})
	c.Locals("user", u)
	log.Audit(c, "auth.login.success", map[string]any{"email": u.Email})
	return ok(c, fiber.StatusOK, "logged in", fiber.Map{"accessToken": tok, "user": u})
}

// Logout only clears the cookie; bearer tokens expire on their own.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	c.Cookie(&fiber.Cookie{
		Name:     tokenCookie,
		Value:    "",
		Path:     "/",
		HTTPOnly: true,
		SameSite: fiber.CookieSameSiteLaxMode,
		Secure:   h.Secure,
		Expires:  time.Now().Add(-1 * time.Hour),
	})
	log.Audit(c, "auth.logout", nil)
	return ok(c, fiber.StatusOK, "logged out", nil)
}

func (h *AuthHandler) Me(c *fiber.Ctx) error {
	u, err := h.Auth.Me(c.UserContext(), actor(c).UserID)
	if err != nil {
		return err
	}
	return ok(c, fiber.StatusOK, "profile", u)
}
