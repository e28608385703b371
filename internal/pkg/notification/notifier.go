package notification

import (
	"context"
	"fmt"
	"strconv"

	"github.com/audira/commerce-service/app/models"
	"github.com/audira/commerce-service/app/repository"
)

// Notifier composes the user-facing messages for commerce events. Every event
// is recorded as an in-app notification row and pushed to the user's devices.
type Notifier struct {
	dispatcher    *Dispatcher
	notifications repository.NotificationRepository
}

// NewNotifier creates an event notifier on top of a dispatcher and the
// notification record store.
func NewNotifier(dispatcher *Dispatcher, notifications repository.NotificationRepository) *Notifier {
	return &Notifier{
		dispatcher:    dispatcher,
		notifications: notifications,
	}
}

// NotifySuccessfulPurchase tells the buyer their order is in the library.
func (n *Notifier) NotifySuccessfulPurchase(order *models.Order, payment *models.Payment) error {
	title := "Purchase successful"
	body := fmt.Sprintf("Your order %s has been delivered to your library.", order.OrderNumber)
	return n.notify(order.UserID, models.NotificationTypePurchase, title, body, order.ID, models.ReferenceTypeOrder)
}

// NotifyFailedPayment tells the buyer a settlement attempt was declined.
func (n *Notifier) NotifyFailedPayment(order *models.Order, reason string) error {
	title := "Payment failed"
	body := fmt.Sprintf("Payment for order %s could not be processed: %s", order.OrderNumber, reason)
	return n.notify(order.UserID, models.NotificationTypePayment, title, body, order.ID, models.ReferenceTypeOrder)
}

// NotifyRefund tells the buyer a completed payment was refunded.
func (n *Notifier) NotifyRefund(payment *models.Payment) error {
	title := "Payment refunded"
	body := fmt.Sprintf("Your payment %s has been refunded.", payment.TransactionID)
	return n.notify(payment.UserID, models.NotificationTypeRefund, title, body, payment.ID, models.ReferenceTypePayment)
}

// NotifyOrderStatusChange tells the buyer their order moved to a new status.
func (n *Notifier) NotifyOrderStatusChange(order *models.Order, oldStatus, newStatus string) error {
	title := "Order update"
	body := fmt.Sprintf("Your order %s changed from %s to %s.", order.OrderNumber, oldStatus, newStatus)
	return n.notify(order.UserID, models.NotificationTypeOrderStatus, title, body, order.ID, models.ReferenceTypeOrder)
}

// notify records the event and pushes it. The in-app row is written even when
// push delivery fails, so the event stays visible to the user.
func (n *Notifier) notify(userID uint, notificationType, title, body string, referenceID uint, referenceType string) error {
	record := &models.Notification{
		UserID:        userID,
		Type:          notificationType,
		Title:         title,
		Body:          body,
		ReferenceID:   referenceID,
		ReferenceType: referenceType,
	}
	if err := n.notifications.Create(record); err != nil {
		return fmt.Errorf("persist notification record: %w", err)
	}

	msg := PushMessage{
		Title:         title,
		Body:          body,
		Type:          notificationType,
		ReferenceID:   strconv.FormatUint(uint64(referenceID), 10),
		ReferenceType: referenceType,
	}
	if !n.dispatcher.SendToUser(context.Background(), userID, msg) {
		return fmt.Errorf("push delivery failed for user %d", userID)
	}
	return nil
}
