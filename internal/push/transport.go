package push

import (
	"context"
	"fmt"
	"net/http"

	"firebase.google.com/go/v4/messaging"
	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/huddlehq/huddle/backend/internal/models"
)

// Outcome classifies a single delivery attempt. The transport only reports
// the outcome; the dispatcher decides what to do about it (in particular,
// pruning the registry on a permanent failure).
type Outcome int

const (
	OutcomeDelivered Outcome = iota
	OutcomeTransientFailure
	OutcomePermanentFailure
)

// Transport delivers one payload to one subscription endpoint
type Transport interface {
	Send(ctx context.Context, sub models.PushSubscription, payload []byte) (Outcome, error)
}

// WebPushConfig holds the VAPID key material for Web Push delivery
type WebPushConfig struct {
	Subscriber      string // mailto: contact for the push service
	VAPIDPublicKey  string
	VAPIDPrivateKey string
}

// webPushTransport delivers payloads over the Web Push protocol
type webPushTransport struct {
	config WebPushConfig
}

// NewWebPushTransport creates a Transport backed by the Web Push protocol
func NewWebPushTransport(config WebPushConfig) Transport {
	return &webPushTransport{config: config}
}

func (t *webPushTransport) Send(ctx context.Context, sub models.PushSubscription, payload []byte) (Outcome, error) {
	resp, err := webpush.SendNotificationWithContext(ctx, payload, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dh,
			Auth:   sub.Auth,
		},
	}, &webpush.Options{
		Subscriber:      t.config.Subscriber,
		VAPIDPublicKey:  t.config.VAPIDPublicKey,
		VAPIDPrivateKey: t.config.VAPIDPrivateKey,
		TTL:             60,
	})
	if err != nil {
		return OutcomeTransientFailure, err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusGone:
		// The push service reports the endpoint will never succeed again.
		return OutcomePermanentFailure, fmt.Errorf("push service returned %d for endpoint", resp.StatusCode)
	case resp.StatusCode >= 400:
		return OutcomeTransientFailure, fmt.Errorf("push service returned %d", resp.StatusCode)
	default:
		return OutcomeDelivered, nil
	}
}

// fcmTransport delivers payloads to FCM device registrations
type fcmTransport struct {
	client *messaging.Client
}

// NewFCMTransport creates a Transport backed by Firebase Cloud Messaging.
// A nil client is allowed; every send then fails transiently, so FCM
// subscriptions survive until the credential is configured.
func NewFCMTransport(client *messaging.Client) Transport {
	return &fcmTransport{client: client}
}

func (t *fcmTransport) Send(ctx context.Context, sub models.PushSubscription, payload []byte) (Outcome, error) {
	if t.client == nil {
		return OutcomeTransientFailure, fmt.Errorf("FCM client not configured")
	}

	_, err := t.client.Send(ctx, &messaging.Message{
		Token: sub.FCMToken,
		Data:  map[string]string{"payload": string(payload)},
	})
	if err != nil {
		if messaging.IsUnregistered(err) {
			return OutcomePermanentFailure, err
		}
		return OutcomeTransientFailure, err
	}
	return OutcomeDelivered, nil
}
