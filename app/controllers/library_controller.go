package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/audira/commerce-service/app/repository"
)

// HandleGetLibrary lists the items in a user's library, newest first.
func HandleGetLibrary(c *fiber.Ctx) error {
	userID, err := parseUintParam(c, "userId")
	if err != nil {
		return badParam(c, "userId")
	}

	items, err := repository.GetGlobalFactory().GetLibraryRepository().GetByUserID(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load library"})
	}
	return c.JSON(items)
}
