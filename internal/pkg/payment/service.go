package payment

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/audira/commerce-service/app/models"
)

const declinedMessage = "Payment declined by gateway"

// Notifier delivers user-facing messages for payment lifecycle events. Every
// call is a best-effort step: the service logs a returned error and moves on,
// it never fails or reverses a committed payment because of one.
type Notifier interface {
	NotifySuccessfulPurchase(order *models.Order, payment *models.Payment) error
	NotifyFailedPayment(order *models.Order, reason string) error
	NotifyRefund(payment *models.Payment) error
	NotifyOrderStatusChange(order *models.Order, oldStatus, newStatus string) error
}

// CartClearer empties a user's cart after a successful purchase. Best-effort.
type CartClearer interface {
	ClearByUserID(userID uint) error
}

// Service owns the payment state machine and sequences the post-settlement
// side effects: order delivery, library grant, cart clear and notifications.
type Service struct {
	repo     Repository
	gateway  Gateway
	notifier Notifier
	carts    CartClearer
	validate *validator.Validate
}

// NewService creates a payment service from injected collaborators.
func NewService(repo Repository, gateway Gateway, notifier Notifier, carts CartClearer) *Service {
	return &Service{
		repo:     repo,
		gateway:  gateway,
		notifier: notifier,
		carts:    carts,
		validate: validator.New(),
	}
}

// NewServiceFromDB creates a payment service from a GORM DB handle and the
// default simulated gateway.
func NewServiceFromDB(db *gorm.DB, notifier Notifier, carts CartClearer) *Service {
	return NewService(NewRepository(db), NewSimulatedGateway(), notifier, carts)
}

// ProcessPayment runs one settlement attempt for an order.
//
// Validation and unknown-order errors are returned before any state is
// mutated. Once the PROCESSING record exists, unexpected errors surface as a
// failure response instead; the caller re-queries by transaction id for
// ground truth, since a partially completed success path is not rolled back
// beyond its transactional unit.
func (s *Service) ProcessPayment(req *ProcessPaymentRequest) (*PaymentResponse, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	order, err := s.repo.GetOrder(req.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrOrderNotFound, req.OrderID)
		}
		return nil, err
	}

	log.Infof("[Payment] Processing payment for order %d, method %s", req.OrderID, req.PaymentMethod)

	payment := &models.Payment{
		TransactionID: "TXN-" + uuid.NewString(),
		OrderID:       req.OrderID,
		UserID:        req.UserID,
		PaymentMethod: req.PaymentMethod,
		Amount:        req.Amount,
		Status:        models.PaymentStatusProcessing,
		Metadata:      encodeDetails(req.PaymentDetails),
	}

	// The PROCESSING row must be durable before settlement starts; a crash
	// mid-settlement then shows up as a stuck PROCESSING record, not lost work.
	if err := s.repo.CreatePayment(payment); err != nil {
		return nil, err
	}

	return s.settle(payment, order, req), nil
}

// RetryPayment re-enters settlement for a FAILED payment, reusing the same
// record: the retry counter is incremented and the error message cleared
// instead of creating a sibling row.
func (s *Service) RetryPayment(paymentID uint) (*PaymentResponse, error) {
	payment, err := s.getPayment(paymentID)
	if err != nil {
		return nil, err
	}
	if !payment.CanRetry() {
		return nil, fmt.Errorf("%w: only failed payments can be retried, payment %d is %s",
			ErrInvalidStateTransition, paymentID, payment.Status)
	}

	ok, err := s.repo.MarkPaymentRetrying(paymentID)
	if err != nil {
		return nil, err
	}
	if !ok {
		// Lost the race against a concurrent retry on the same FAILED state.
		return nil, fmt.Errorf("%w: payment %d is no longer FAILED", ErrInvalidStateTransition, paymentID)
	}

	payment, err = s.getPayment(paymentID)
	if err != nil {
		return nil, err
	}
	order, err := s.repo.GetOrder(payment.OrderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: order %d", ErrOrderNotFound, payment.OrderID)
		}
		return nil, err
	}

	// The original details bag rides along in the payment metadata so a retry
	// reproduces the gateway behavior of the first attempt.
	req := &ProcessPaymentRequest{
		OrderID:        payment.OrderID,
		UserID:         payment.UserID,
		PaymentMethod:  payment.PaymentMethod,
		Amount:         payment.Amount,
		PaymentDetails: decodeDetails(payment.Metadata),
	}

	log.Infof("[Payment] Retrying payment %d (attempt %d)", paymentID, payment.RetryCount)
	return s.settle(payment, order, req), nil
}

// RefundPayment refunds a COMPLETED payment and cancels the associated order.
func (s *Service) RefundPayment(paymentID uint) (*PaymentResponse, error) {
	payment, err := s.getPayment(paymentID)
	if err != nil {
		return nil, err
	}
	if !payment.CanRefund() {
		return nil, fmt.Errorf("%w: only completed payments can be refunded, payment %d is %s",
			ErrInvalidStateTransition, paymentID, payment.Status)
	}

	var (
		order     *models.Order
		oldStatus string
	)
	err = s.repo.WithinTransaction(func(r Repository) error {
		fresh, err := r.GetPaymentByID(paymentID)
		if err != nil {
			return err
		}
		// Re-check under the transaction; a concurrent refund may have won.
		if !fresh.CanRefund() {
			return fmt.Errorf("%w: payment %d is %s", ErrInvalidStateTransition, paymentID, fresh.Status)
		}
		fresh.Status = models.PaymentStatusRefunded
		if err := r.SavePayment(fresh); err != nil {
			return err
		}
		payment = fresh

		order, oldStatus, err = changeOrderStatus(r, fresh.OrderID, models.OrderStatusCancelled)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.attempt("order status notification", func() error {
		return s.notifier.NotifyOrderStatusChange(order, oldStatus, models.OrderStatusCancelled)
	})
	s.attempt("refund notification", func() error {
		return s.notifier.NotifyRefund(payment)
	})

	log.Infof("[Payment] Payment refunded: %s", payment.TransactionID)
	return &PaymentResponse{
		Success:       true,
		TransactionID: payment.TransactionID,
		Status:        models.PaymentStatusRefunded,
		Message:       "Payment refunded successfully",
		Payment:       mapToDTO(payment),
	}, nil
}

// GetPaymentByID returns the external view of a payment.
func (s *Service) GetPaymentByID(paymentID uint) (*PaymentDTO, error) {
	payment, err := s.getPayment(paymentID)
	if err != nil {
		return nil, err
	}
	return mapToDTO(payment), nil
}

// GetPaymentByTransactionID returns the external view of a payment looked up
// by its gateway transaction identifier.
func (s *Service) GetPaymentByTransactionID(transactionID string) (*PaymentDTO, error) {
	payment, err := s.repo.GetPaymentByTransactionID(transactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: transaction %s", ErrPaymentNotFound, transactionID)
		}
		return nil, err
	}
	return mapToDTO(payment), nil
}

// GetPaymentsByUserID lists all payments of a user, newest first.
func (s *Service) GetPaymentsByUserID(userID uint) ([]PaymentDTO, error) {
	payments, err := s.repo.ListPaymentsByUserID(userID)
	if err != nil {
		return nil, err
	}
	return mapAllToDTO(payments), nil
}

// GetPaymentsByOrderID lists all payments tied to an order, newest first.
func (s *Service) GetPaymentsByOrderID(orderID uint) ([]PaymentDTO, error) {
	payments, err := s.repo.ListPaymentsByOrderID(orderID)
	if err != nil {
		return nil, err
	}
	return mapAllToDTO(payments), nil
}

// settle obtains the gateway outcome and advances the payment accordingly.
func (s *Service) settle(payment *models.Payment, order *models.Order, req *ProcessPaymentRequest) *PaymentResponse {
	if s.gateway.Process(req) {
		return s.completePayment(payment, order)
	}
	return s.failPayment(payment, order)
}

// completePayment runs the success path. Payment COMPLETED, order DELIVERED
// and the library grant form one transactional unit; its commit is the
// visibility point for pollers. Cart clear and notifications run after the
// commit and can neither delay nor undo it.
func (s *Service) completePayment(payment *models.Payment, order *models.Order) *PaymentResponse {
	now := time.Now()
	var oldStatus string

	err := s.repo.WithinTransaction(func(r Repository) error {
		payment.Status = models.PaymentStatusCompleted
		payment.CompletedAt = &now
		if err := r.SavePayment(payment); err != nil {
			return fmt.Errorf("persist completed payment: %w", err)
		}

		delivered, old, err := changeOrderStatus(r, order.ID, models.OrderStatusDelivered)
		if err != nil {
			return err
		}
		order, oldStatus = delivered, old

		// Entitlements are the point of the purchase; a grant failure aborts
		// the whole unit of work.
		if err := r.GrantOrderToLibrary(delivered, payment.ID); err != nil {
			return fmt.Errorf("grant order to library: %w", err)
		}
		return nil
	})
	if err != nil {
		log.Errorf("[Payment] Success path aborted for transaction %s: %v", payment.TransactionID, err)
		// The rollback reverted the durable row to PROCESSING, a state the
		// retry path refuses. Record the failure autocommit so the payment
		// stays recoverable.
		reason := err.Error()
		payment.Status = models.PaymentStatusFailed
		payment.ErrorMessage = &reason
		payment.CompletedAt = nil
		if saveErr := s.repo.SavePayment(payment); saveErr != nil {
			log.Errorf("[Payment] Could not record aborted transaction %s as failed: %v", payment.TransactionID, saveErr)
		}
		return s.errorResponse(payment.TransactionID, err)
	}

	s.attempt("order status notification", func() error {
		return s.notifier.NotifyOrderStatusChange(order, oldStatus, models.OrderStatusDelivered)
	})
	s.attempt("cart clear", func() error {
		return s.carts.ClearByUserID(order.UserID)
	})
	s.attempt("purchase notification", func() error {
		return s.notifier.NotifySuccessfulPurchase(order, payment)
	})

	// Re-read so the returned view reflects the persisted state, not an
	// in-memory snapshot predating the side effects.
	if fresh, err := s.repo.GetPaymentByID(payment.ID); err == nil {
		payment = fresh
	} else {
		log.Warnf("[Payment] Could not re-read payment %d after completion: %v", payment.ID, err)
	}

	log.Infof("[Payment] Payment completed successfully: %s", payment.TransactionID)
	return &PaymentResponse{
		Success:       true,
		TransactionID: payment.TransactionID,
		Status:        models.PaymentStatusCompleted,
		Message:       "Payment processed successfully",
		Payment:       mapToDTO(payment),
	}
}

// failPayment records a gateway decline and notifies the buyer.
func (s *Service) failPayment(payment *models.Payment, order *models.Order) *PaymentResponse {
	reason := declinedMessage
	payment.Status = models.PaymentStatusFailed
	payment.ErrorMessage = &reason
	if err := s.repo.SavePayment(payment); err != nil {
		log.Errorf("[Payment] Failed to persist declined payment %s: %v", payment.TransactionID, err)
		return s.errorResponse(payment.TransactionID, err)
	}

	s.attempt("payment failure notification", func() error {
		return s.notifier.NotifyFailedPayment(order, reason)
	})

	log.Warnf("[Payment] Payment declined for order %d", payment.OrderID)
	return &PaymentResponse{
		Success:       false,
		TransactionID: payment.TransactionID,
		Status:        models.PaymentStatusFailed,
		Message:       "Payment was declined. Please try again or use a different payment method.",
		Payment:       mapToDTO(payment),
	}
}

// changeOrderStatus is the single choke point for order state transitions:
// load, record the previous status, apply, persist. Callers fire the
// status-change notification exactly once after their unit of work commits.
func changeOrderStatus(r Repository, orderID uint, newStatus string) (*models.Order, string, error) {
	order, err := r.GetOrder(orderID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", fmt.Errorf("%w: order %d", ErrOrderNotFound, orderID)
		}
		return nil, "", err
	}
	oldStatus := order.Status
	order.Status = newStatus
	if err := r.SaveOrder(order); err != nil {
		return nil, "", err
	}
	return order, oldStatus, nil
}

// attempt runs a best-effort step; failures are logged and never propagated.
func (s *Service) attempt(step string, fn func() error) {
	if err := fn(); err != nil {
		log.Errorf("[Payment] Best-effort step %s failed: %v", step, err)
	}
}

func (s *Service) getPayment(paymentID uint) (*models.Payment, error) {
	payment, err := s.repo.GetPaymentByID(paymentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: id %d", ErrPaymentNotFound, paymentID)
		}
		return nil, err
	}
	return payment, nil
}

func (s *Service) errorResponse(transactionID string, err error) *PaymentResponse {
	return &PaymentResponse{
		Success:       false,
		TransactionID: transactionID,
		Status:        models.PaymentStatusFailed,
		Message:       "An error occurred while processing your payment: " + err.Error(),
	}
}

func mapAllToDTO(payments []models.Payment) []PaymentDTO {
	dtos := make([]PaymentDTO, 0, len(payments))
	for i := range payments {
		dtos = append(dtos, *mapToDTO(&payments[i]))
	}
	return dtos
}

func encodeDetails(details map[string]string) string {
	if len(details) == 0 {
		return ""
	}
	raw, err := json.Marshal(details)
	if err != nil {
		log.Warnf("[Payment] Could not encode payment details: %v", err)
		return ""
	}
	return string(raw)
}

func decodeDetails(metadata string) map[string]string {
	if metadata == "" {
		return nil
	}
	var details map[string]string
	if err := json.Unmarshal([]byte(metadata), &details); err != nil {
		log.Warnf("[Payment] Could not decode payment metadata: %v", err)
		return nil
	}
	return details
}
