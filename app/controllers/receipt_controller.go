package controllers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/audira/commerce-service/internal/pkg/receipt"
)

var receiptService *receipt.Service

// InitializeReceiptController wires the receipt service into the handlers.
func InitializeReceiptController(service *receipt.Service) {
	receiptService = service
}

// HandleGetReceipt returns the receipt for a completed payment.
func HandleGetReceipt(c *fiber.Ctx) error {
	transactionID := c.Params("txn")
	if transactionID == "" {
		return badParam(c, "txn")
	}

	r, err := receiptService.Build(transactionID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(r)
}
