package notification

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"github.com/gofiber/fiber/v2/log"
	"google.golang.org/api/option"
)

// FCMProvider delivers push messages through Firebase Cloud Messaging.
type FCMProvider struct {
	client *messaging.Client
}

// NewFCMProvider initializes the Firebase Admin SDK from a service-account
// credentials file and returns a messaging-backed provider.
func NewFCMProvider(ctx context.Context, credentialsFile string) (*FCMProvider, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase messaging: %w", err)
	}
	log.Info("[FCM] Firebase Admin SDK initialized successfully")
	return &FCMProvider{client: client}, nil
}

func (p *FCMProvider) Send(ctx context.Context, token string, msg PushMessage) error {
	fcmMessage := &messaging.Message{
		Token:        token,
		Notification: &messaging.Notification{Title: msg.Title, Body: msg.Body},
		Data:         msg.Data(),
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				Sound: "default",
				Color: "#1E88E5",
			},
		},
		APNS: &messaging.APNSConfig{
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{Sound: "default"},
			},
		},
	}

	if _, err := p.client.Send(ctx, fcmMessage); err != nil {
		return classify(err)
	}
	return nil
}

func (p *FCMProvider) SendMulticast(ctx context.Context, tokens []string, msg PushMessage) (*BatchResult, error) {
	multicast := &messaging.MulticastMessage{
		Tokens:       tokens,
		Notification: &messaging.Notification{Title: msg.Title, Body: msg.Body},
		Data:         msg.Data(),
		Android: &messaging.AndroidConfig{
			Priority: "high",
		},
	}

	batch, err := p.client.SendEachForMulticast(ctx, multicast)
	if err != nil {
		return nil, err
	}

	result := &BatchResult{
		SuccessCount: batch.SuccessCount,
		FailureCount: batch.FailureCount,
	}
	for i, resp := range batch.Responses {
		if resp.Success || resp.Error == nil {
			continue
		}
		if messaging.IsUnregistered(resp.Error) || messaging.IsInvalidArgument(resp.Error) {
			result.InvalidTokens = append(result.InvalidTokens, tokens[i])
		}
	}
	return result, nil
}

func (p *FCMProvider) SendToTopic(ctx context.Context, topic string, msg PushMessage) error {
	fcmMessage := &messaging.Message{
		Topic:        topic,
		Notification: &messaging.Notification{Title: msg.Title, Body: msg.Body},
		Data:         msg.Data(),
	}

	if _, err := p.client.Send(ctx, fcmMessage); err != nil {
		return err
	}
	return nil
}

// classify maps provider error codes onto the dispatcher's taxonomy:
// unregistered and malformed tokens are permanently invalid, everything else
// is transient.
func classify(err error) error {
	if messaging.IsUnregistered(err) || messaging.IsInvalidArgument(err) {
		return fmt.Errorf("%w: %v", ErrTokenInvalid, err)
	}
	return err
}
