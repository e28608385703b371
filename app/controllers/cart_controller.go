package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/audira/commerce-service/app/repository"
)

// HandleGetCart returns a user's cart. A user without a cart gets an empty one.
func HandleGetCart(c *fiber.Ctx) error {
	userID, err := parseUintParam(c, "userId")
	if err != nil {
		return badParam(c, "userId")
	}

	cart, err := repository.GetGlobalFactory().GetCartRepository().GetByUserID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(fiber.Map{"user_id": userID, "items": []interface{}{}})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load cart"})
	}
	return c.JSON(cart)
}
