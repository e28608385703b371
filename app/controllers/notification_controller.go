package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"

	"github.com/audira/commerce-service/app/models"
	"github.com/audira/commerce-service/app/repository"
	"github.com/audira/commerce-service/internal/pkg/notification"
)

var notificationDispatcher *notification.Dispatcher

// InitializeNotificationController wires the dispatcher into the handlers.
func InitializeNotificationController(dispatcher *notification.Dispatcher) {
	notificationDispatcher = dispatcher
}

type registerTokenRequest struct {
	UserID uint   `json:"user_id"`
	Token  string `json:"token"`
	Device string `json:"device"`
}

type topicNotificationRequest struct {
	Topic         string `json:"topic"`
	Title         string `json:"title"`
	Body          string `json:"body"`
	Type          string `json:"type"`
	ReferenceID   string `json:"reference_id"`
	ReferenceType string `json:"reference_type"`
}

// HandleRegisterToken registers (or reassigns) a device token for a user.
func HandleRegisterToken(c *fiber.Ctx) error {
	var req registerTokenRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if req.UserID == 0 || req.Token == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "user_id and token are required"})
	}

	token := &models.FcmToken{
		UserID: req.UserID,
		Token:  req.Token,
		Device: req.Device,
	}
	if err := repository.GetGlobalFactory().GetFcmTokenRepository().Register(token); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to register token"})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Token registered"})
}

// HandleUnregisterToken removes a device token. Removing an unknown token
// succeeds; the registry treats it as already gone.
func HandleUnregisterToken(c *fiber.Ctx) error {
	token := c.Params("token")
	if token == "" {
		return badParam(c, "token")
	}

	if err := repository.GetGlobalFactory().GetFcmTokenRepository().DeleteByToken(token); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to remove token"})
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// HandleListNotifications lists a user's in-app notifications, newest first.
func HandleListNotifications(c *fiber.Ctx) error {
	userID, err := parseUintParam(c, "userId")
	if err != nil {
		return badParam(c, "userId")
	}

	notifications, err := repository.GetGlobalFactory().GetNotificationRepository().GetByUserID(userID, c.QueryInt("offset", 0), c.QueryInt("limit", 50))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to load notifications"})
	}
	return c.JSON(notifications)
}

// HandleMarkNotificationRead flags an in-app notification as read.
func HandleMarkNotificationRead(c *fiber.Ctx) error {
	notificationID, err := parseUintParam(c, "id")
	if err != nil {
		return badParam(c, "id")
	}

	updated, err := repository.GetGlobalFactory().GetNotificationRepository().MarkRead(notificationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Notification not found"})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal_server_error", "message": "Failed to update notification"})
	}
	return c.JSON(updated)
}

// HandleSendTopicNotification broadcasts a message to a topic subscription.
func HandleSendTopicNotification(c *fiber.Ctx) error {
	var req topicNotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "Invalid request body"})
	}
	if req.Topic == "" || req.Type == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "bad_request", "message": "topic and type are required"})
	}

	sent := notificationDispatcher.SendToTopic(c.Context(), req.Topic, notification.PushMessage{
		Title:         req.Title,
		Body:          req.Body,
		Type:          req.Type,
		ReferenceID:   req.ReferenceID,
		ReferenceType: req.ReferenceType,
	})
	return c.JSON(fiber.Map{"success": sent})
}
