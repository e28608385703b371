package payment

import (
	"time"

	"github.com/audira/commerce-service/app/models"
)

// ProcessPaymentRequest carries one settlement attempt for one order. The
// PaymentDetails bag is opaque to the service and forwarded to the gateway;
// it is also persisted into the payment metadata so retries replay it.
type ProcessPaymentRequest struct {
	OrderID        uint              `json:"order_id" validate:"required"`
	UserID         uint              `json:"user_id" validate:"required"`
	PaymentMethod  string            `json:"payment_method" validate:"required,oneof=CREDIT_CARD DEBIT_CARD PAYPAL WALLET"`
	Amount         int64             `json:"amount" validate:"required,gt=0"`
	PaymentDetails map[string]string `json:"payment_details,omitempty"`
}

// PaymentDTO is the external view of a payment record.
type PaymentDTO struct {
	ID            uint       `json:"id"`
	TransactionID string     `json:"transaction_id"`
	OrderID       uint       `json:"order_id"`
	UserID        uint       `json:"user_id"`
	PaymentMethod string     `json:"payment_method"`
	Status        string     `json:"status"`
	Amount        int64      `json:"amount"`
	ErrorMessage  *string    `json:"error_message,omitempty"`
	RetryCount    int        `json:"retry_count"`
	Metadata      string     `json:"metadata,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

// PaymentResponse summarizes the outcome of a process, retry or refund call.
type PaymentResponse struct {
	Success       bool        `json:"success"`
	TransactionID string      `json:"transaction_id,omitempty"`
	Status        string      `json:"status"`
	Message       string      `json:"message"`
	Payment       *PaymentDTO `json:"payment,omitempty"`
}

func mapToDTO(p *models.Payment) *PaymentDTO {
	return &PaymentDTO{
		ID:            p.ID,
		TransactionID: p.TransactionID,
		OrderID:       p.OrderID,
		UserID:        p.UserID,
		PaymentMethod: p.PaymentMethod,
		Status:        p.Status,
		Amount:        p.Amount,
		ErrorMessage:  p.ErrorMessage,
		RetryCount:    p.RetryCount,
		Metadata:      p.Metadata,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
		CompletedAt:   p.CompletedAt,
	}
}
