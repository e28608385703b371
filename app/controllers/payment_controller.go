package controllers

import (
	"encoding/json"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/audira/commerce-service/app/models"
	"github.com/audira/commerce-service/internal/pkg/cache"
	"github.com/audira/commerce-service/internal/pkg/payment"
)

const paymentCacheTTL = 5 * time.Minute

var paymentService *payment.Service

// viewCache fronts the Redis cache so handler tests can swap in a fake.
type viewCache interface {
	Get(key string) (string, error)
	Set(key string, value interface{}, expiration time.Duration) error
	Delete(key string) error
}

type redisViewCache struct{}

func (redisViewCache) Get(key string) (string, error) { return cache.Get(key) }
func (redisViewCache) Set(key string, value interface{}, expiration time.Duration) error {
	return cache.Set(key, value, expiration)
}
func (redisViewCache) Delete(key string) error { return cache.Delete(key) }

var paymentViews viewCache = redisViewCache{}

func paymentCacheKey(transactionID string) string {
	return "payment:txn:" + transactionID
}

// InitializePaymentController wires the payment service into the handlers.
func InitializePaymentController(service *payment.Service) {
	paymentService = service
}

// HandleProcessPayment runs a settlement attempt for an order. Gateway
// declines are a modeled outcome, not an HTTP error: the response carries
// success=false with status 200.
func HandleProcessPayment(c *fiber.Ctx) error {
	var req payment.ProcessPaymentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}

	resp, err := paymentService.ProcessPayment(&req)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// HandleRetryPayment re-enters settlement for a failed payment.
func HandleRetryPayment(c *fiber.Ctx) error {
	paymentID, err := parseUintParam(c, "id")
	if err != nil {
		return badParam(c, "id")
	}

	resp, err := paymentService.RetryPayment(paymentID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(resp)
}

// HandleRefundPayment refunds a completed payment.
func HandleRefundPayment(c *fiber.Ctx) error {
	paymentID, err := parseUintParam(c, "id")
	if err != nil {
		return badParam(c, "id")
	}

	resp, err := paymentService.RefundPayment(paymentID)
	if err != nil {
		return respondError(c, err)
	}

	// The COMPLETED view may still be cached; a poller must not read it after
	// the refund committed.
	if err := paymentViews.Delete(paymentCacheKey(resp.TransactionID)); err != nil {
		log.Warnf("[Payment] Could not invalidate cached view for %s: %v", resp.TransactionID, err)
	}
	return c.JSON(resp)
}

// HandleGetPayment returns a payment by primary id.
func HandleGetPayment(c *fiber.Ctx) error {
	paymentID, err := parseUintParam(c, "id")
	if err != nil {
		return badParam(c, "id")
	}

	dto, err := paymentService.GetPaymentByID(paymentID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dto)
}

// HandleGetPaymentByTransaction returns a payment by transaction id. Terminal
// views (COMPLETED/REFUNDED cannot change anymore) are served from Redis.
func HandleGetPaymentByTransaction(c *fiber.Ctx) error {
	transactionID := c.Params("txn")
	cacheKey := paymentCacheKey(transactionID)

	if cached, err := paymentViews.Get(cacheKey); err == nil {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(cached)
	}

	dto, err := paymentService.GetPaymentByTransactionID(transactionID)
	if err != nil {
		return respondError(c, err)
	}

	if dto.Status == models.PaymentStatusCompleted || dto.Status == models.PaymentStatusRefunded {
		if raw, err := json.Marshal(dto); err == nil {
			if err := paymentViews.Set(cacheKey, string(raw), paymentCacheTTL); err != nil {
				log.Warnf("[Payment] Could not cache payment view %s: %v", transactionID, err)
			}
		}
	}
	return c.JSON(dto)
}

// HandleGetPaymentsByUser lists a user's payments.
func HandleGetPaymentsByUser(c *fiber.Ctx) error {
	userID, err := parseUintParam(c, "userId")
	if err != nil {
		return badParam(c, "userId")
	}

	dtos, err := paymentService.GetPaymentsByUserID(userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dtos)
}

// HandleGetPaymentsByOrder lists the payments tied to an order.
func HandleGetPaymentsByOrder(c *fiber.Ctx) error {
	orderID, err := parseUintParam(c, "orderId")
	if err != nil {
		return badParam(c, "orderId")
	}

	dtos, err := paymentService.GetPaymentsByOrderID(orderID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(dtos)
}
