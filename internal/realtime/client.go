package realtime

import (
	"encoding/json"
	"log"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = 30 * time.Second
	maxMessageSize = 8 * 1024
)

// Client is one broadcast connection, optionally joined to a user room
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID uint   // set by user:join, 0 until then
	room   string // guarded by hub.mu
}

// NewClient wraps an upgraded connection and registers it with the hub
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	c := &Client{
		hub:  hub,
		conn: conn,
		send: make(chan []byte, 64),
	}
	hub.Register(c)
	return c
}

// Run starts the read and write pumps; it returns when the connection closes
func (c *Client) Run() {
	go c.writePump()
	c.readPump()
}

// trySend queues a message without blocking; a slow consumer drops it.
// Fire-and-forget: this channel makes no delivery guarantee.
func (c *Client) trySend(b []byte) {
	select {
	case c.send <- b:
	default:
	}
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("Unexpected websocket close: %v", err)
			}
			break
		}
		var msg Message
		if err := json.Unmarshal(raw, &msg); err != nil {
			log.Printf("Failed to parse websocket message: %v", err)
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// handleMessage routes one client event. Relayed payloads are passed through
// as received; only the routing keys are decoded.
func (c *Client) handleMessage(msg Message) {
	switch msg.Event {
	case EventUserJoin:
		var d struct {
			UserID uint `json:"userId"`
		}
		if err := json.Unmarshal(msg.Data, &d); err != nil || d.UserID == 0 {
			return
		}
		c.userID = d.UserID
		c.hub.JoinRoom(c, UserRoom(d.UserID))
		c.hub.BroadcastExcept(c, NewMessage(EventUserOnline, map[string]uint{"userId": d.UserID}))

	case EventUserLeave:
		var d struct {
			UserID uint `json:"userId"`
		}
		if err := json.Unmarshal(msg.Data, &d); err != nil {
			return
		}
		c.hub.LeaveRoom(c)
		c.hub.BroadcastExcept(c, NewMessage(EventUserOffline, map[string]uint{"userId": d.UserID}))

	case EventPostNew:
		c.hub.BroadcastExcept(c, Message{Event: EventPostCreated, Data: msg.Data})

	case EventPostLike:
		var d struct {
			PostAuthorID uint `json:"postAuthorId"`
		}
		if err := json.Unmarshal(msg.Data, &d); err != nil {
			return
		}
		c.hub.SendToRoom(UserRoom(d.PostAuthorID), Message{Event: EventNotificationLike, Data: msg.Data})

	case EventCommentNew:
		var d struct {
			PostAuthorID uint `json:"postAuthorId"`
		}
		if err := json.Unmarshal(msg.Data, &d); err != nil {
			return
		}
		c.hub.BroadcastExcept(c, Message{Event: EventCommentCreated, Data: msg.Data})
		c.hub.SendToRoom(UserRoom(d.PostAuthorID), Message{Event: EventNotificationComment, Data: msg.Data})

	case EventFollowNew:
		var d struct {
			FollowedID uint `json:"followedId"`
		}
		if err := json.Unmarshal(msg.Data, &d); err != nil {
			return
		}
		c.hub.SendToRoom(UserRoom(d.FollowedID), Message{Event: EventNotificationFollow, Data: msg.Data})

	case EventMessageSend:
		var d struct {
			RecipientID uint `json:"recipientId"`
		}
		if err := json.Unmarshal(msg.Data, &d); err != nil {
			return
		}
		c.hub.SendToRoom(UserRoom(d.RecipientID), Message{Event: EventMessageReceived, Data: msg.Data})

	default:
		log.Printf("Unknown websocket event: %s", msg.Event)
	}
}
