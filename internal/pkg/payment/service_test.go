package payment

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/audira/commerce-service/app/models"
)

type fakeRepo struct {
	payments      map[uint]models.Payment
	orders        map[uint]models.Order
	granted       []models.LibraryItem
	nextPaymentID uint
	grantErr      error
	beforeMark    func() // runs before the guarded retry update, simulates interleavings
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		payments: make(map[uint]models.Payment),
		orders:   make(map[uint]models.Order),
	}
}

func (f *fakeRepo) CreatePayment(p *models.Payment) error {
	f.nextPaymentID++
	p.ID = f.nextPaymentID
	p.CreatedAt = time.Now()
	f.payments[p.ID] = *p
	return nil
}

func (f *fakeRepo) SavePayment(p *models.Payment) error {
	p.UpdatedAt = time.Now()
	f.payments[p.ID] = *p
	return nil
}

func (f *fakeRepo) GetPaymentByID(id uint) (*models.Payment, error) {
	p, ok := f.payments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := p
	return &clone, nil
}

func (f *fakeRepo) GetPaymentByTransactionID(transactionID string) (*models.Payment, error) {
	for _, p := range f.payments {
		if p.TransactionID == transactionID {
			clone := p
			return &clone, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (f *fakeRepo) ListPaymentsByUserID(userID uint) ([]models.Payment, error) {
	var out []models.Payment
	for _, p := range f.payments {
		if p.UserID == userID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepo) ListPaymentsByOrderID(orderID uint) ([]models.Payment, error) {
	var out []models.Payment
	for _, p := range f.payments {
		if p.OrderID == orderID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepo) MarkPaymentRetrying(id uint) (bool, error) {
	if f.beforeMark != nil {
		f.beforeMark()
	}
	p, ok := f.payments[id]
	if !ok {
		return false, nil
	}
	if p.Status != models.PaymentStatusFailed {
		return false, nil
	}
	p.Status = models.PaymentStatusProcessing
	p.ErrorMessage = nil
	p.RetryCount++
	f.payments[id] = p
	return true, nil
}

func (f *fakeRepo) GetOrder(id uint) (*models.Order, error) {
	o, ok := f.orders[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	clone := o
	clone.Items = append([]models.OrderItem(nil), o.Items...)
	return &clone, nil
}

func (f *fakeRepo) SaveOrder(o *models.Order) error {
	f.orders[o.ID] = *o
	return nil
}

func (f *fakeRepo) GrantOrderToLibrary(order *models.Order, paymentID uint) error {
	if f.grantErr != nil {
		return f.grantErr
	}
	for _, item := range order.Items {
		f.granted = append(f.granted, models.LibraryItem{
			UserID:    order.UserID,
			ItemID:    item.ItemID,
			ItemType:  item.ItemType,
			PaymentID: paymentID,
		})
	}
	return nil
}

// WithinTransaction snapshots state and restores it when fn fails, mirroring
// the rollback of the real implementation.
func (f *fakeRepo) WithinTransaction(fn func(Repository) error) error {
	payments := make(map[uint]models.Payment, len(f.payments))
	for id, p := range f.payments {
		payments[id] = p
	}
	orders := make(map[uint]models.Order, len(f.orders))
	for id, o := range f.orders {
		orders[id] = o
	}
	granted := append([]models.LibraryItem(nil), f.granted...)

	if err := fn(f); err != nil {
		f.payments = payments
		f.orders = orders
		f.granted = granted
		return err
	}
	return nil
}

type stubGateway struct {
	approve bool
	lastReq *ProcessPaymentRequest
}

func (g *stubGateway) Process(req *ProcessPaymentRequest) bool {
	g.lastReq = req
	return g.approve
}

type recordNotifier struct {
	purchases     []uint // order ids
	failures      []string
	refunds       []uint // payment ids
	statusChanges []string
	err           error
}

func (n *recordNotifier) NotifySuccessfulPurchase(order *models.Order, payment *models.Payment) error {
	n.purchases = append(n.purchases, order.ID)
	return n.err
}

func (n *recordNotifier) NotifyFailedPayment(order *models.Order, reason string) error {
	n.failures = append(n.failures, reason)
	return n.err
}

func (n *recordNotifier) NotifyRefund(payment *models.Payment) error {
	n.refunds = append(n.refunds, payment.ID)
	return n.err
}

func (n *recordNotifier) NotifyOrderStatusChange(order *models.Order, oldStatus, newStatus string) error {
	n.statusChanges = append(n.statusChanges, oldStatus+"->"+newStatus)
	return n.err
}

type recordCarts struct {
	cleared []uint
	err     error
}

func (c *recordCarts) ClearByUserID(userID uint) error {
	c.cleared = append(c.cleared, userID)
	return c.err
}

func seedOrder(repo *fakeRepo) models.Order {
	order := models.Order{
		ID:          1,
		OrderNumber: "ORD-1001",
		UserID:      42,
		Status:      models.OrderStatusPending,
		TotalAmount: 1998,
		Items: []models.OrderItem{
			{ID: 1, OrderID: 1, ItemID: 11, ItemType: models.OrderItemTypeSong, Price: 999},
			{ID: 2, OrderID: 1, ItemID: 12, ItemType: models.OrderItemTypeAlbum, Price: 999},
		},
	}
	repo.orders[order.ID] = order
	return order
}

func validRequest() *ProcessPaymentRequest {
	return &ProcessPaymentRequest{
		OrderID:       1,
		UserID:        42,
		PaymentMethod: models.PaymentMethodCreditCard,
		Amount:        1998,
	}
}

func TestProcessPaymentSuccess(t *testing.T) {
	repo := newFakeRepo()
	seedOrder(repo)
	gateway := &stubGateway{approve: true}
	notifier := &recordNotifier{}
	carts := &recordCarts{}
	svc := NewService(repo, gateway, notifier, carts)

	resp, err := svc.ProcessPayment(validRequest())
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, models.PaymentStatusCompleted, resp.Status)
	assert.Contains(t, resp.TransactionID, "TXN-")
	require.NotNil(t, resp.Payment)
	assert.Equal(t, models.PaymentStatusCompleted, resp.Payment.Status)
	assert.NotNil(t, resp.Payment.CompletedAt)

	assert.Equal(t, models.OrderStatusDelivered, repo.orders[1].Status)

	require.Len(t, repo.granted, 2)
	for _, item := range repo.granted {
		assert.Equal(t, uint(42), item.UserID)
		assert.Equal(t, resp.Payment.ID, item.PaymentID)
	}

	assert.Equal(t, []uint{42}, carts.cleared)
	assert.Equal(t, []uint{1}, notifier.purchases)
	assert.Equal(t, []string{"PENDING->DELIVERED"}, notifier.statusChanges)
	assert.Empty(t, notifier.failures)
}

func TestProcessPaymentDeclined(t *testing.T) {
	repo := newFakeRepo()
	seedOrder(repo)
	notifier := &recordNotifier{}
	carts := &recordCarts{}
	svc := NewService(repo, &stubGateway{approve: false}, notifier, carts)

	resp, err := svc.ProcessPayment(validRequest())
	require.NoError(t, err)

	assert.False(t, resp.Success)
	assert.Equal(t, models.PaymentStatusFailed, resp.Status)
	require.NotNil(t, resp.Payment)
	require.NotNil(t, resp.Payment.ErrorMessage)
	assert.Equal(t, "Payment declined by gateway", *resp.Payment.ErrorMessage)

	// Order and library are untouched; only the failure notification fires.
	assert.Equal(t, models.OrderStatusPending, repo.orders[1].Status)
	assert.Empty(t, repo.granted)
	assert.Empty(t, carts.cleared)
	assert.Equal(t, []string{"Payment declined by gateway"}, notifier.failures)
	assert.Empty(t, notifier.statusChanges)
}

func TestProcessPaymentValidation(t *testing.T) {
	repo := newFakeRepo()
	seedOrder(repo)
	svc := NewService(repo, &stubGateway{approve: true}, &recordNotifier{}, &recordCarts{})

	tests := []struct {
		name    string
		mutate  func(req *ProcessPaymentRequest)
		wantErr error
	}{
		{"zero amount", func(r *ProcessPaymentRequest) { r.Amount = 0 }, ErrValidation},
		{"negative amount", func(r *ProcessPaymentRequest) { r.Amount = -5 }, ErrValidation},
		{"missing user", func(r *ProcessPaymentRequest) { r.UserID = 0 }, ErrValidation},
		{"bad method", func(r *ProcessPaymentRequest) { r.PaymentMethod = "CASH" }, ErrValidation},
		{"unknown order", func(r *ProcessPaymentRequest) { r.OrderID = 999 }, ErrOrderNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)
			resp, err := svc.ProcessPayment(req)
			assert.Nil(t, resp)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}

	// No payment record may exist after rejected requests.
	assert.Empty(t, repo.payments)
}

func TestProcessPaymentLibraryGrantFailureAbortsSuccessPath(t *testing.T) {
	repo := newFakeRepo()
	seedOrder(repo)
	repo.grantErr = errors.New("library unavailable")
	notifier := &recordNotifier{}
	carts := &recordCarts{}
	svc := NewService(repo, &stubGateway{approve: true}, notifier, carts)

	resp, err := svc.ProcessPayment(validRequest())
	require.NoError(t, err)

	assert.False(t, resp.Success)
	assert.Equal(t, models.PaymentStatusFailed, resp.Status)
	assert.Contains(t, resp.Message, "An error occurred while processing your payment")

	// The rollback reverted the transactional writes; the durable record must
	// still end up FAILED, not stuck in PROCESSING.
	stored := repo.payments[1]
	assert.Equal(t, models.PaymentStatusFailed, stored.Status)
	require.NotNil(t, stored.ErrorMessage)
	assert.Contains(t, *stored.ErrorMessage, "library unavailable")
	assert.Nil(t, stored.CompletedAt)
	assert.Equal(t, models.OrderStatusPending, repo.orders[1].Status)
	assert.Empty(t, repo.granted)

	// Best-effort steps never ran for an aborted unit of work.
	assert.Empty(t, carts.cleared)
	assert.Empty(t, notifier.purchases)

	// The aborted payment stays recoverable through the retry path.
	repo.grantErr = nil
	resp, err = svc.RetryPayment(stored.ID)
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, models.PaymentStatusCompleted, resp.Payment.Status)
	assert.Equal(t, 1, resp.Payment.RetryCount)
	assert.Len(t, repo.granted, 2)
}

func TestProcessPaymentBestEffortFailuresDoNotSurface(t *testing.T) {
	repo := newFakeRepo()
	seedOrder(repo)
	notifier := &recordNotifier{err: errors.New("push provider down")}
	carts := &recordCarts{err: errors.New("cart service down")}
	svc := NewService(repo, &stubGateway{approve: true}, notifier, carts)

	resp, err := svc.ProcessPayment(validRequest())
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, models.PaymentStatusCompleted, resp.Status)
	assert.Equal(t, models.OrderStatusDelivered, repo.orders[1].Status)
	assert.Len(t, repo.granted, 2)
}

func TestRetryPaymentReusesRecordAndDetails(t *testing.T) {
	repo := newFakeRepo()
	seedOrder(repo)
	gateway := &stubGateway{approve: false}
	svc := NewService(repo, gateway, &recordNotifier{}, &recordCarts{})

	req := validRequest()
	req.PaymentDetails = map[string]string{"cardNumber": "4000123412341234"}
	resp, err := svc.ProcessPayment(req)
	require.NoError(t, err)
	require.False(t, resp.Success)
	paymentID := resp.Payment.ID

	resp, err = svc.RetryPayment(paymentID)
	require.NoError(t, err)

	assert.False(t, resp.Success)
	require.NotNil(t, resp.Payment)
	assert.Equal(t, paymentID, resp.Payment.ID, "retry must reuse the payment record")
	assert.Equal(t, 1, resp.Payment.RetryCount)

	// The original details bag must reach the gateway again.
	require.NotNil(t, gateway.lastReq)
	assert.Equal(t, "4000123412341234", gateway.lastReq.PaymentDetails["cardNumber"])

	// Only one payment row exists for both attempts.
	assert.Len(t, repo.payments, 1)
}

func TestRetryPaymentClearsErrorBeforeSettlement(t *testing.T) {
	repo := newFakeRepo()
	seedOrder(repo)
	svc := NewService(repo, &stubGateway{approve: true}, &recordNotifier{}, &recordCarts{})

	resp, err := svc.ProcessPayment(validRequest())
	require.NoError(t, err)
	paymentID := resp.Payment.ID

	// Force a FAILED state with an error message, then retry into success.
	msg := "Payment declined by gateway"
	failed := repo.payments[paymentID]
	failed.Status = models.PaymentStatusFailed
	failed.ErrorMessage = &msg
	repo.payments[paymentID] = failed

	resp, err = svc.RetryPayment(paymentID)
	require.NoError(t, err)

	assert.True(t, resp.Success)
	assert.Equal(t, models.PaymentStatusCompleted, resp.Payment.Status)
	assert.Nil(t, resp.Payment.ErrorMessage)
	assert.Equal(t, 1, resp.Payment.RetryCount)
}

func TestRetryPaymentPreconditions(t *testing.T) {
	repo := newFakeRepo()
	seedOrder(repo)
	svc := NewService(repo, &stubGateway{approve: true}, &recordNotifier{}, &recordCarts{})

	_, err := svc.RetryPayment(999)
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	resp, err := svc.ProcessPayment(validRequest())
	require.NoError(t, err)
	require.True(t, resp.Success)

	_, err = svc.RetryPayment(resp.Payment.ID)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
}

func TestRetryPaymentLosesRaceToConcurrentRetry(t *testing.T) {
	repo := newFakeRepo()
	seedOrder(repo)
	svc := NewService(repo, &stubGateway{approve: false}, &recordNotifier{}, &recordCarts{})

	resp, err := svc.ProcessPayment(validRequest())
	require.NoError(t, err)
	require.False(t, resp.Success)
	paymentID := resp.Payment.ID

	// Another worker settles the retry between our FAILED observation and the
	// guarded update; the guard must admit at most one winner.
	repo.beforeMark = func() {
		winner := repo.payments[paymentID]
		winner.Status = models.PaymentStatusCompleted
		winner.RetryCount = 1
		repo.payments[paymentID] = winner
	}

	_, err = svc.RetryPayment(paymentID)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
	assert.Equal(t, 1, repo.payments[paymentID].RetryCount, "loser must not touch the record")
	assert.Equal(t, models.PaymentStatusCompleted, repo.payments[paymentID].Status)
}

func TestRefundPayment(t *testing.T) {
	repo := newFakeRepo()
	seedOrder(repo)
	notifier := &recordNotifier{}
	svc := NewService(repo, &stubGateway{approve: true}, notifier, &recordCarts{})

	resp, err := svc.ProcessPayment(validRequest())
	require.NoError(t, err)
	require.True(t, resp.Success)
	paymentID := resp.Payment.ID

	refund, err := svc.RefundPayment(paymentID)
	require.NoError(t, err)

	assert.True(t, refund.Success)
	assert.Equal(t, models.PaymentStatusRefunded, refund.Status)
	assert.Equal(t, "Payment refunded successfully", refund.Message)
	assert.Equal(t, models.OrderStatusCancelled, repo.orders[1].Status)
	assert.Equal(t, []uint{paymentID}, notifier.refunds)
	assert.Contains(t, notifier.statusChanges, "DELIVERED->CANCELLED")

	// Refunding twice is an invalid transition and changes nothing.
	_, err = svc.RefundPayment(paymentID)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
	assert.Equal(t, models.PaymentStatusRefunded, repo.payments[paymentID].Status)
}

func TestRefundPaymentPreconditions(t *testing.T) {
	repo := newFakeRepo()
	seedOrder(repo)
	svc := NewService(repo, &stubGateway{approve: false}, &recordNotifier{}, &recordCarts{})

	_, err := svc.RefundPayment(999)
	assert.ErrorIs(t, err, ErrPaymentNotFound)

	resp, err := svc.ProcessPayment(validRequest())
	require.NoError(t, err)
	require.False(t, resp.Success)

	_, err = svc.RefundPayment(resp.Payment.ID)
	assert.ErrorIs(t, err, ErrInvalidStateTransition)
	assert.Equal(t, models.PaymentStatusFailed, repo.payments[resp.Payment.ID].Status)
}

func TestGetPaymentByTransactionIDIsIdempotent(t *testing.T) {
	repo := newFakeRepo()
	seedOrder(repo)
	svc := NewService(repo, &stubGateway{approve: true}, &recordNotifier{}, &recordCarts{})

	resp, err := svc.ProcessPayment(validRequest())
	require.NoError(t, err)

	first, err := svc.GetPaymentByTransactionID(resp.TransactionID)
	require.NoError(t, err)
	second, err := svc.GetPaymentByTransactionID(resp.TransactionID)
	require.NoError(t, err)
	assert.Equal(t, first, second)

	_, err = svc.GetPaymentByTransactionID("TXN-does-not-exist")
	assert.ErrorIs(t, err, ErrPaymentNotFound)
}

func TestLookupsProjectAllPersistedFields(t *testing.T) {
	repo := newFakeRepo()
	seedOrder(repo)
	svc := NewService(repo, &stubGateway{approve: true}, &recordNotifier{}, &recordCarts{})

	req := validRequest()
	req.PaymentDetails = map[string]string{"cardNumber": "5100000000000000"}
	resp, err := svc.ProcessPayment(req)
	require.NoError(t, err)

	dto, err := svc.GetPaymentByID(resp.Payment.ID)
	require.NoError(t, err)
	assert.Equal(t, resp.TransactionID, dto.TransactionID)
	assert.Equal(t, uint(1), dto.OrderID)
	assert.Equal(t, uint(42), dto.UserID)
	assert.Equal(t, models.PaymentMethodCreditCard, dto.PaymentMethod)
	assert.Equal(t, int64(1998), dto.Amount)
	assert.Contains(t, dto.Metadata, "cardNumber")

	byUser, err := svc.GetPaymentsByUserID(42)
	require.NoError(t, err)
	assert.Len(t, byUser, 1)

	byOrder, err := svc.GetPaymentsByOrderID(1)
	require.NoError(t, err)
	assert.Len(t, byOrder, 1)
}

func TestProcessPaymentNeverReturnsProcessing(t *testing.T) {
	repo := newFakeRepo()
	seedOrder(repo)

	for i, approve := range []bool{true, false} {
		svc := NewService(repo, &stubGateway{approve: approve}, &recordNotifier{}, &recordCarts{})
		resp, err := svc.ProcessPayment(validRequest())
		require.NoError(t, err, fmt.Sprintf("attempt %d", i))
		assert.Contains(t, []string{models.PaymentStatusCompleted, models.PaymentStatusFailed}, resp.Status)
		assert.NotEqual(t, models.PaymentStatusProcessing, repo.payments[resp.Payment.ID].Status)
	}
}
