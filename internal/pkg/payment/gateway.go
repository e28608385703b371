package payment

import (
	"math/rand"
	"strings"
	"time"
)

// Card numbers with this prefix always decline; kept for end-to-end testing of
// the failure path against a running instance.
const declineCardPrefix = "4000"

const gatewaySuccessRate = 90

// Gateway produces a settlement outcome for a payment attempt.
type Gateway interface {
	Process(req *ProcessPaymentRequest) bool
}

// SimulatedGateway stands in for an external payment gateway. The randomness
// source and the delay function are injectable so tests can force outcomes and
// skip the simulated network latency.
type SimulatedGateway struct {
	randInt func(n int) int
	sleep   func(d time.Duration)
}

// NewSimulatedGateway creates a gateway simulator with real randomness and a
// real 1-3s processing delay.
func NewSimulatedGateway() *SimulatedGateway {
	return &SimulatedGateway{
		randInt: rand.Intn,
		sleep:   time.Sleep,
	}
}

// NewSimulatedGatewayWith creates a gateway simulator with injected randomness
// and delay.
func NewSimulatedGatewayWith(randInt func(n int) int, sleep func(d time.Duration)) *SimulatedGateway {
	return &SimulatedGateway{
		randInt: randInt,
		sleep:   sleep,
	}
}

// Process simulates settlement: a 1-3 second delay, a hard decline for the
// reserved test card prefix, and otherwise a 90% success rate.
func (g *SimulatedGateway) Process(req *ProcessPaymentRequest) bool {
	g.sleep(time.Second + time.Duration(g.randInt(2000))*time.Millisecond)

	if req.PaymentDetails != nil {
		if cardNumber, ok := req.PaymentDetails["cardNumber"]; ok {
			if strings.HasPrefix(cardNumber, declineCardPrefix) {
				return false
			}
		}
	}

	return g.randInt(100) < gatewaySuccessRate
}
