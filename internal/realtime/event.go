package realtime

import (
	"encoding/json"
	"fmt"
	"log"
)

// Client-to-server events
const (
	EventUserJoin    = "user:join"
	EventUserLeave   = "user:leave"
	EventPostNew     = "post:new"
	EventPostLike    = "post:like"
	EventCommentNew  = "comment:new"
	EventFollowNew   = "follow:new"
	EventMessageSend = "message:send"
)

// Server-to-client events
const (
	EventUserOnline          = "user:online"
	EventUserOffline         = "user:offline"
	EventPostCreated         = "post:created"
	EventNotificationLike    = "notification:like"
	EventCommentCreated      = "comment:created"
	EventNotificationComment = "notification:comment"
	EventNotificationFollow  = "notification:follow"
	EventMessageReceived     = "message:received"
)

// Message is the wire format on the broadcast channel
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewMessage builds a Message with a marshalled data payload
func NewMessage(event string, data interface{}) Message {
	b, err := json.Marshal(data)
	if err != nil {
		log.Printf("Failed to marshal %s payload: %v", event, err)
	}
	return Message{Event: event, Data: b}
}

// UserRoom returns the room name for a user id
func UserRoom(userID uint) string {
	return fmt.Sprintf("user:%d", userID)
}
