package notification

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/audira/commerce-service/app/models"
)

type fakeNotificationRepo struct {
	records   []models.Notification
	createErr error
}

func (r *fakeNotificationRepo) Create(notification *models.Notification) error {
	if r.createErr != nil {
		return r.createErr
	}
	notification.ID = uint(len(r.records) + 1)
	r.records = append(r.records, *notification)
	return nil
}

func (r *fakeNotificationRepo) MarkRead(id uint) (*models.Notification, error) {
	for i := range r.records {
		if r.records[i].ID == id {
			r.records[i].IsRead = true
			return &r.records[i], nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *fakeNotificationRepo) GetByUserID(userID uint, offset, limit int) ([]models.Notification, error) {
	var out []models.Notification
	for _, record := range r.records {
		if record.UserID == userID {
			out = append(out, record)
		}
	}
	return out, nil
}

func notifierFixture(t *testing.T) (*Notifier, *fakeProvider, *fakeNotificationRepo) {
	t.Helper()
	provider := newFakeProvider()
	store := newFakeTokenStore(42, "device-1")
	repo := &fakeNotificationRepo{}
	return NewNotifier(NewDispatcher(provider, store), repo), provider, repo
}

func sampleOrder() *models.Order {
	return &models.Order{ID: 1, OrderNumber: "ORD-1001", UserID: 42, Status: models.OrderStatusPending}
}

func samplePayment() *models.Payment {
	return &models.Payment{ID: 5, TransactionID: "TXN-abc", UserID: 42, OrderID: 1}
}

func TestNotifySuccessfulPurchase(t *testing.T) {
	notifier, provider, repo := notifierFixture(t)

	err := notifier.NotifySuccessfulPurchase(sampleOrder(), samplePayment())
	require.NoError(t, err)

	require.Len(t, repo.records, 1)
	record := repo.records[0]
	assert.Equal(t, uint(42), record.UserID)
	assert.Equal(t, models.NotificationTypePurchase, record.Type)
	assert.Equal(t, "Purchase successful", record.Title)
	assert.Contains(t, record.Body, "ORD-1001")
	assert.Equal(t, uint(1), record.ReferenceID)
	assert.Equal(t, models.ReferenceTypeOrder, record.ReferenceType)

	assert.Equal(t, []string{"device-1"}, provider.sent)
	assert.Equal(t, models.NotificationTypePurchase, provider.lastMsg.Type)
	assert.Equal(t, "1", provider.lastMsg.ReferenceID)
}

func TestNotifyFailedPaymentIncludesReason(t *testing.T) {
	notifier, provider, repo := notifierFixture(t)

	err := notifier.NotifyFailedPayment(sampleOrder(), "Payment declined by gateway")
	require.NoError(t, err)

	require.Len(t, repo.records, 1)
	assert.Equal(t, models.NotificationTypePayment, repo.records[0].Type)
	assert.Contains(t, repo.records[0].Body, "Payment declined by gateway")
	assert.Equal(t, "Payment failed", provider.lastMsg.Title)
}

func TestNotifyRefundReferencesPayment(t *testing.T) {
	notifier, _, repo := notifierFixture(t)

	err := notifier.NotifyRefund(samplePayment())
	require.NoError(t, err)

	require.Len(t, repo.records, 1)
	assert.Equal(t, models.NotificationTypeRefund, repo.records[0].Type)
	assert.Equal(t, uint(5), repo.records[0].ReferenceID)
	assert.Equal(t, models.ReferenceTypePayment, repo.records[0].ReferenceType)
	assert.Contains(t, repo.records[0].Body, "TXN-abc")
}

func TestNotifyOrderStatusChange(t *testing.T) {
	notifier, provider, repo := notifierFixture(t)

	err := notifier.NotifyOrderStatusChange(sampleOrder(), models.OrderStatusPending, models.OrderStatusDelivered)
	require.NoError(t, err)

	require.Len(t, repo.records, 1)
	assert.Equal(t, models.NotificationTypeOrderStatus, repo.records[0].Type)
	assert.Contains(t, repo.records[0].Body, "PENDING")
	assert.Contains(t, repo.records[0].Body, "DELIVERED")
	assert.Equal(t, "Order update", provider.lastMsg.Title)
}

func TestNotifyPersistsRecordEvenWhenPushFails(t *testing.T) {
	provider := newFakeProvider()
	repo := &fakeNotificationRepo{}
	// No tokens registered: push delivery is a defined failure.
	notifier := NewNotifier(NewDispatcher(provider, newFakeTokenStore(42)), repo)

	err := notifier.NotifySuccessfulPurchase(sampleOrder(), samplePayment())
	assert.Error(t, err)

	// The in-app record survives the failed push.
	require.Len(t, repo.records, 1)
	assert.Equal(t, models.NotificationTypePurchase, repo.records[0].Type)
}

func TestNotifyFailsWhenRecordCannotBePersisted(t *testing.T) {
	provider := newFakeProvider()
	repo := &fakeNotificationRepo{createErr: errors.New("db down")}
	notifier := NewNotifier(NewDispatcher(provider, newFakeTokenStore(42, "device-1")), repo)

	err := notifier.NotifyRefund(samplePayment())
	assert.Error(t, err)
	assert.Empty(t, provider.sent, "no push without a persisted record")
}
