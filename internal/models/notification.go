package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Notification types
const (
	NotificationTypeFollow  = "follow"
	NotificationTypeLike    = "like"
	NotificationTypeComment = "comment"
)

// Notification represents a user notification stored in MongoDB
type Notification struct {
	ID         primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	UserID     uint               `json:"user_id" bson:"user_id"`           // Recipient of the notification
	Type       string             `json:"type" bson:"type"`                 // follow, like, comment
	FromUserID uint               `json:"from_user_id" bson:"from_user_id"` // User who triggered the notification
	PostID     string             `json:"post_id,omitempty" bson:"post_id,omitempty"`
	CommentID  uint               `json:"comment_id,omitempty" bson:"comment_id,omitempty"`
	Message    string             `json:"message" bson:"message"` // Rendered at creation time, never recomputed
	Read       bool               `json:"read" bson:"read"`
	CreatedAt  time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt  time.Time          `json:"updated_at" bson:"updated_at"`
}

// EnrichedNotification includes compact projections of the actor and referenced post
type EnrichedNotification struct {
	Notification
	FromUser *UserCompact `json:"from_user,omitempty"`
	Post     *PostCompact `json:"post,omitempty"`
}

// MarkReadRequest defines the request body for marking notifications as read
type MarkReadRequest struct {
	MarkAllRead     bool     `json:"markAllRead"`
	NotificationIDs []string `json:"notificationIds"`
}
