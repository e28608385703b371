package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPaymentStateChecks(t *testing.T) {
	tests := []struct {
		status    string
		canRetry  bool
		canRefund bool
	}{
		{PaymentStatusProcessing, false, false},
		// COMPLETED still has the refund transition open; only REFUNDED is final.
		{PaymentStatusCompleted, false, true},
		{PaymentStatusFailed, true, false},
		{PaymentStatusRefunded, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			p := Payment{Status: tt.status}
			assert.Equal(t, tt.canRetry, p.CanRetry())
			assert.Equal(t, tt.canRefund, p.CanRefund())
		})
	}
}

func TestIsValidPaymentMethod(t *testing.T) {
	for _, method := range []string{PaymentMethodCreditCard, PaymentMethodDebitCard, PaymentMethodPaypal, PaymentMethodWallet} {
		assert.True(t, IsValidPaymentMethod(method), method)
	}
	assert.False(t, IsValidPaymentMethod("CASH"))
	assert.False(t, IsValidPaymentMethod("credit_card"))
	assert.False(t, IsValidPaymentMethod(""))
}
