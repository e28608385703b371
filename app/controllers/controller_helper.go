package controllers

import (
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/audira/commerce-service/internal/pkg/payment"
)

// respondError maps the payment error taxonomy onto HTTP statuses.
func respondError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, payment.ErrValidation):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": err.Error()})
	case errors.Is(err, payment.ErrPaymentNotFound), errors.Is(err, payment.ErrOrderNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": err.Error()})
	case errors.Is(err, payment.ErrInvalidStateTransition):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "invalid_state", "message": err.Error()})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Something went wrong"})
	}
}

// parseUintParam parses a numeric route parameter.
func parseUintParam(c *fiber.Ctx, name string) (uint, error) {
	raw := c.Params(name)
	value, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, err
	}
	return uint(value), nil
}

func badParam(c *fiber.Ctx, name string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid " + name + " parameter"})
}
