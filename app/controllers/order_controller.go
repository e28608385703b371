package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/audira/commerce-service/app/repository"
)

// HandleGetOrder returns an order with its items.
func HandleGetOrder(c *fiber.Ctx) error {
	orderID, err := parseUintParam(c, "id")
	if err != nil {
		return badParam(c, "id")
	}

	order, err := repository.GetGlobalFactory().GetOrderRepository().GetByID(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Order not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load order"})
	}
	return c.JSON(order)
}

// HandleGetOrderByNumber returns an order looked up by its order number.
func HandleGetOrderByNumber(c *fiber.Ctx) error {
	orderNumber := c.Params("orderNumber")
	if orderNumber == "" {
		return badParam(c, "orderNumber")
	}

	order, err := repository.GetGlobalFactory().GetOrderRepository().GetByOrderNumber(orderNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Order not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load order"})
	}
	return c.JSON(order)
}

// HandleGetOrdersByUser lists a user's orders, newest first.
func HandleGetOrdersByUser(c *fiber.Ctx) error {
	userID, err := parseUintParam(c, "userId")
	if err != nil {
		return badParam(c, "userId")
	}

	orders, err := repository.GetGlobalFactory().GetOrderRepository().GetByUserID(userID)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load orders"})
	}
	return c.JSON(orders)
}
