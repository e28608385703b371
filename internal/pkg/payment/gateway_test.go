package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fixedRand returns a sequence of values, one per call, then repeats the last.
func fixedRand(values ...int) func(int) int {
	i := 0
	return func(n int) int {
		v := values[i]
		if i < len(values)-1 {
			i++
		}
		return v
	}
}

func TestSimulatedGatewayDeclinesTestCardPrefix(t *testing.T) {
	// Even with randomness pinned to the success side, the reserved card
	// prefix must always decline.
	gw := NewSimulatedGatewayWith(fixedRand(0), func(time.Duration) {})

	req := &ProcessPaymentRequest{
		PaymentDetails: map[string]string{"cardNumber": "4000123412341234"},
	}
	assert.False(t, gw.Process(req))
}

func TestSimulatedGatewaySuccessRateBoundary(t *testing.T) {
	tests := []struct {
		name    string
		roll    int
		approve bool
	}{
		{"lowest roll succeeds", 0, true},
		{"roll just under threshold succeeds", 89, true},
		{"roll at threshold fails", 90, false},
		{"highest roll fails", 99, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// First draw feeds the delay, second the outcome roll.
			gw := NewSimulatedGatewayWith(fixedRand(0, tt.roll), func(time.Duration) {})
			req := &ProcessPaymentRequest{
				PaymentDetails: map[string]string{"cardNumber": "5100000000000000"},
			}
			assert.Equal(t, tt.approve, gw.Process(req))
		})
	}
}

func TestSimulatedGatewayIgnoresMissingCardDetails(t *testing.T) {
	gw := NewSimulatedGatewayWith(fixedRand(0), func(time.Duration) {})

	// No details bag at all (e.g. wallet payments) still settles.
	assert.True(t, gw.Process(&ProcessPaymentRequest{}))
	assert.True(t, gw.Process(&ProcessPaymentRequest{PaymentDetails: map[string]string{}}))
}

func TestSimulatedGatewayDelayBounds(t *testing.T) {
	var slept time.Duration
	record := func(d time.Duration) { slept = d }

	gw := NewSimulatedGatewayWith(fixedRand(0), record)
	gw.Process(&ProcessPaymentRequest{})
	assert.Equal(t, time.Second, slept, "minimum delay is one second")

	gw = NewSimulatedGatewayWith(fixedRand(1999, 0), record)
	gw.Process(&ProcessPaymentRequest{})
	assert.Equal(t, 2999*time.Millisecond, slept, "maximum delay is just under three seconds")
}
