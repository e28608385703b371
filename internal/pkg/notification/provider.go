package notification

import (
	"context"
	"errors"
)

// ErrTokenInvalid marks a delivery address the provider will never again
// accept. The dispatcher purges tokens whose send fails with this error; any
// other failure leaves the registry untouched.
var ErrTokenInvalid = errors.New("token permanently invalid")

// PushMessage is the payload for one push delivery: a human-readable
// title/body plus a structured data payload (type tag and optional
// reference correlation fields).
type PushMessage struct {
	Title         string
	Body          string
	Type          string
	ReferenceID   string
	ReferenceType string
}

// Data builds the structured payload sent alongside the notification.
func (m PushMessage) Data() map[string]string {
	data := map[string]string{"type": m.Type}
	if m.ReferenceID != "" {
		data["referenceId"] = m.ReferenceID
	}
	if m.ReferenceType != "" {
		data["referenceType"] = m.ReferenceType
	}
	return data
}

// BatchResult aggregates a multicast send. InvalidTokens lists the tokens the
// provider classified as permanently invalid.
type BatchResult struct {
	SuccessCount  int
	FailureCount  int
	InvalidTokens []string
}

// Provider is the push delivery backend. Send returns an error wrapping
// ErrTokenInvalid when the recipient is permanently gone.
type Provider interface {
	Send(ctx context.Context, token string, msg PushMessage) error
	SendMulticast(ctx context.Context, tokens []string, msg PushMessage) (*BatchResult, error)
	SendToTopic(ctx context.Context, topic string, msg PushMessage) error
}
