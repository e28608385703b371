package notification

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2/log"

	"github.com/audira/commerce-service/app/models"
)

// TokenStore is the device token registry the dispatcher resolves recipients
// from and prunes permanently invalid tokens out of. DeleteByToken must be
// idempotent: concurrent multicast and single-send pruning can race on the
// same token.
type TokenStore interface {
	GetByUserID(userID uint) ([]models.FcmToken, error)
	DeleteByToken(token string) error
}

// Dispatcher delivers push notifications to devices, batches and topics. A
// dispatcher built with a nil provider (push backend failed to initialize)
// turns every send into a logged no-op failure instead of an error.
type Dispatcher struct {
	provider Provider
	tokens   TokenStore
}

// NewDispatcher creates a dispatcher. Pass a nil provider when initialization
// of the push backend failed; sends then degrade to logged failures.
func NewDispatcher(provider Provider, tokens TokenStore) *Dispatcher {
	if provider == nil {
		log.Warn("[Notification] Push provider not initialized, notifications will not be delivered")
	}
	return &Dispatcher{provider: provider, tokens: tokens}
}

// IsInitialized reports whether a push backend is available.
func (d *Dispatcher) IsInitialized() bool {
	return d.provider != nil
}

// SendToUser delivers a message to every registered device of a user,
// independently per device. It reports true when at least one delivery
// succeeded; a user with no registered tokens is a defined failure.
func (d *Dispatcher) SendToUser(ctx context.Context, userID uint, msg PushMessage) bool {
	if !d.IsInitialized() {
		log.Errorf("[Notification] Cannot send to user %d: push provider not initialized", userID)
		return false
	}

	tokens, err := d.tokens.GetByUserID(userID)
	if err != nil {
		log.Errorf("[Notification] Could not resolve tokens for user %d: %v", userID, err)
		return false
	}
	if len(tokens) == 0 {
		log.Warnf("[Notification] No device tokens registered for user %d", userID)
		return false
	}

	successCount := 0
	failureCount := 0
	for _, token := range tokens {
		if d.SendToToken(ctx, token.Token, msg) {
			successCount++
		} else {
			failureCount++
		}
	}

	log.Infof("[Notification] Sent to user %d: %d success, %d failures", userID, successCount, failureCount)
	return successCount > 0
}

// SendToToken delivers one message to one device. A permanently invalid token
// is deleted from the registry before the failure is reported; transient
// failures leave the registry untouched.
func (d *Dispatcher) SendToToken(ctx context.Context, token string, msg PushMessage) bool {
	if !d.IsInitialized() {
		log.Error("[Notification] Cannot send to token: push provider not initialized")
		return false
	}

	if err := d.provider.Send(ctx, token, msg); err != nil {
		if errors.Is(err, ErrTokenInvalid) {
			log.Infof("[Notification] Removing invalid device token: %s", token)
			if delErr := d.tokens.DeleteByToken(token); delErr != nil {
				log.Errorf("[Notification] Could not remove invalid token: %v", delErr)
			}
		} else {
			log.Errorf("[Notification] Error sending to token: %v", err)
		}
		return false
	}
	return true
}

// SendMulticast delivers one message to many tokens in a single batched
// provider call, prunes every token the provider classified as permanently
// invalid, and reports aggregate counts. It tolerates partial failure and
// never returns an error to the caller.
func (d *Dispatcher) SendMulticast(ctx context.Context, tokens []string, msg PushMessage) *BatchResult {
	if !d.IsInitialized() {
		log.Error("[Notification] Cannot send multicast: push provider not initialized")
		return &BatchResult{FailureCount: len(tokens)}
	}
	if len(tokens) == 0 {
		log.Warn("[Notification] No tokens provided for multicast message")
		return &BatchResult{}
	}

	result, err := d.provider.SendMulticast(ctx, tokens, msg)
	if err != nil {
		log.Errorf("[Notification] Error sending multicast message: %v", err)
		return &BatchResult{FailureCount: len(tokens)}
	}

	log.Infof("[Notification] Multicast message sent: %d success, %d failures",
		result.SuccessCount, result.FailureCount)

	for _, invalid := range result.InvalidTokens {
		log.Infof("[Notification] Removing invalid token from multicast: %s", invalid)
		if err := d.tokens.DeleteByToken(invalid); err != nil {
			log.Errorf("[Notification] Could not remove invalid token: %v", err)
		}
	}
	return result
}

// SendToTopic delivers a message to a provider-managed topic subscription.
func (d *Dispatcher) SendToTopic(ctx context.Context, topic string, msg PushMessage) bool {
	if !d.IsInitialized() {
		log.Errorf("[Notification] Cannot send to topic %s: push provider not initialized", topic)
		return false
	}

	if err := d.provider.SendToTopic(ctx, topic, msg); err != nil {
		log.Errorf("[Notification] Error sending to topic %s: %v", topic, err)
		return false
	}
	return true
}
