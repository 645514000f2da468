package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	applog "bazaar/internal/log"
	"bazaar/internal/services"
)

// envelope is the body every JSON endpoint answers with.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

func ok(c *fiber.Ctx, status int, msg string, data any) error {
	return c.Status(status).JSON(envelope{Success: true, Message: msg, Data: data})
}

func problem(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(envelope{Success: false, Message: msg, Error: utils.StatusMessage(status)})
}

// statusFor maps a service error kind to an HTTP status. Zero means the
// error is not a domain failure and must not be shown to the client.
func statusFor(err error) int {
	switch {
	case errors.Is(err, services.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(err, services.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(err, services.ErrForbidden):
		return fiber.StatusForbidden
	case errors.Is(err, services.ErrInvalidInput), errors.Is(err, services.ErrInvalidTransition):
		return fiber.StatusBadRequest
	case errors.Is(err, services.ErrInsufficientStock):
		return fiber.StatusUnprocessableEntity
	case errors.Is(err, services.ErrConflict),
		errors.Is(err, services.ErrAlreadyCompleted),
		errors.Is(err, services.ErrInvalidState):
		return fiber.StatusConflict
	case errors.Is(err, services.ErrPaymentInitFailed):
		return fiber.StatusBadGateway
	}
	return 0
}

// ErrorHandler renders domain errors with their message and hides
// everything else behind a generic 500.
func ErrorHandler(c *fiber.Ctx, err error) error {
	if status := statusFor(err); status != 0 {
		switch status {
		case fiber.StatusUnauthorized, fiber.StatusForbidden:
			applog.Security(c, "access.denied", map[string]any{"reason": err.Error()})
		case fiber.StatusBadGateway:
			applog.Error(c, "payment.init.fail", err, nil)
		}
		return problem(c, status, err.Error())
	}

	var fe *fiber.Error
	if errors.As(err, &fe) {
		return problem(c, fe.Code, fe.Message)
	}

	applog.Error(c, "server.error", err, nil)
	return problem(c, fiber.StatusInternalServerError, "Something went wrong. Please try again.")
}

// decode reads a JSON body and rejects unknown fields.
func decode(c *fiber.Ctx, dst any) error {
	dec := json.NewDecoder(bytes.NewReader(c.Body()))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return invalid("request body is required")
		}
		return invalid("invalid request body: " + err.Error())
	}
	if dec.More() {
		return invalid("invalid request body: trailing data")
	}
	return nil
}

func invalid(msg string) error {
	return &services.Error{Kind: services.ErrInvalidInput, Msg: msg}
}
