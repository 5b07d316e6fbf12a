package models

import "time"

// PushSubscription represents a push delivery endpoint stored in MongoDB.
// The endpoint string is the natural unique key; re-subscribing the same
// endpoint refreshes the key material instead of creating a duplicate.
//
// A subscription is addressed by exactly one transport: browser Web Push
// subscriptions carry p256dh/auth key material, FCM device registrations
// carry the device token in Endpoint and no key material.
type PushSubscription struct {
	Endpoint  string    `json:"endpoint" bson:"_id"`
	P256dh    string    `json:"p256dh,omitempty" bson:"p256dh,omitempty"`
	Auth      string    `json:"auth,omitempty" bson:"auth,omitempty"`
	FCMToken  string    `json:"fcm_token,omitempty" bson:"fcm_token,omitempty"`
	UserID    uint      `json:"user_id,omitempty" bson:"user_id,omitempty"` // 0 when registered anonymously
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

// IsWebPush reports whether the subscription is addressed via the Web Push protocol.
func (s *PushSubscription) IsWebPush() bool {
	return s.P256dh != "" && s.Auth != ""
}

// SubscribeRequest defines the request body for registering a push subscription.
// Mirrors the browser PushSubscription JSON shape; keys are absent for FCM registrations.
type SubscribeRequest struct {
	Endpoint string `json:"endpoint" validate:"required"`
	Keys     struct {
		P256dh string `json:"p256dh"`
		Auth   string `json:"auth"`
	} `json:"keys"`
	FCMToken string `json:"fcm_token,omitempty"`
}

// SendPushRequest defines the request body for sending a push notification
type SendPushRequest struct {
	UserID uint              `json:"userId" validate:"required"`
	Title  string            `json:"title" validate:"required"`
	Body   string            `json:"body" validate:"required"`
	Data   map[string]string `json:"data,omitempty"`
}
