package models

import "time"

const (
	PaymentStatusProcessing = "PROCESSING"
	PaymentStatusCompleted  = "COMPLETED"
	PaymentStatusFailed     = "FAILED"
	PaymentStatusRefunded   = "REFUNDED"
)

const (
	PaymentMethodCreditCard = "CREDIT_CARD"
	PaymentMethodDebitCard  = "DEBIT_CARD"
	PaymentMethodPaypal     = "PAYPAL"
	PaymentMethodWallet     = "WALLET"
)

// Payment is one settlement attempt for one order. Rows are created in
// PROCESSING, mutated only by the payment service and never deleted; a retry
// reuses the same row and increments RetryCount instead of creating a sibling.
type Payment struct {
	ID            uint       `gorm:"primaryKey" json:"id"`
	TransactionID string     `gorm:"type:varchar(64);not null;uniqueIndex" json:"transaction_id"`
	OrderID       uint       `gorm:"not null;index" json:"order_id"`
	UserID        uint       `gorm:"not null;index" json:"user_id"`
	PaymentMethod string     `gorm:"type:varchar(32);not null" json:"payment_method"`
	Status        string     `gorm:"type:varchar(16);not null;default:'PROCESSING';index" json:"status"`
	Amount        int64      `gorm:"not null" json:"amount"` // cents
	ErrorMessage  *string    `gorm:"type:varchar(255)" json:"error_message,omitempty"`
	RetryCount    int        `gorm:"not null;default:0" json:"retry_count"`
	Metadata      string     `gorm:"type:longtext" json:"metadata,omitempty"`
	CompletedAt   *time.Time `gorm:"type:timestamp;default:null" json:"completed_at,omitempty"`
	CreatedAt     time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt     time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

// CanRetry reports whether the payment is in a state the retry path accepts.
func (p *Payment) CanRetry() bool {
	return p.Status == PaymentStatusFailed
}

// CanRefund reports whether the payment is in a state the refund path accepts.
// COMPLETED is deliberately not a final state: the refund transition still
// applies to it. Only REFUNDED has no outgoing transitions.
func (p *Payment) CanRefund() bool {
	return p.Status == PaymentStatusCompleted
}

// IsValidPaymentMethod checks a client-supplied payment method string.
func IsValidPaymentMethod(method string) bool {
	switch method {
	case PaymentMethodCreditCard, PaymentMethodDebitCard, PaymentMethodPaypal, PaymentMethodWallet:
		return true
	}
	return false
}
