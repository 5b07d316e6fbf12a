package realtime

import (
	"encoding/json"
	"fmt"
	"testing"
)

func newTestClient(h *Hub) *Client {
	return NewClient(h, nil)
}

func joinUser(c *Client, userID uint) {
	c.handleMessage(Message{
		Event: EventUserJoin,
		Data:  json.RawMessage(fmt.Sprintf(`{"userId":%d}`, userID)),
	})
}

// recvAll drains every queued message from a client's send channel
func recvAll(c *Client) []Message {
	var out []Message
	for {
		select {
		case b, ok := <-c.send:
			if !ok {
				return out
			}
			var msg Message
			if err := json.Unmarshal(b, &msg); err == nil {
				out = append(out, msg)
			}
		default:
			return out
		}
	}
}

func eventsOf(msgs []Message) []string {
	out := make([]string, len(msgs))
	for i, m := range msgs {
		out[i] = m.Event
	}
	return out
}

func containsEvent(msgs []Message, event string) bool {
	for _, m := range msgs {
		if m.Event == event {
			return true
		}
	}
	return false
}

func TestLikeEventReachesOnlyTheAuthorRoom(t *testing.T) {
	h := NewHub()
	defer h.Shutdown()

	// Two devices of user A plus one unrelated connection.
	a1 := newTestClient(h)
	a2 := newTestClient(h)
	outsider := newTestClient(h)
	liker := newTestClient(h)

	joinUser(a1, 10)
	joinUser(a2, 10)
	joinUser(outsider, 99)

	// Drain the presence chatter from the joins.
	recvAll(a1)
	recvAll(a2)
	recvAll(outsider)
	recvAll(liker)

	liker.handleMessage(Message{
		Event: EventPostLike,
		Data:  json.RawMessage(`{"postId":"p1","postAuthorId":10,"fromUserId":7}`),
	})

	for i, c := range []*Client{a1, a2} {
		msgs := recvAll(c)
		if !containsEvent(msgs, EventNotificationLike) {
			t.Fatalf("room member %d did not receive like event, got %v", i, eventsOf(msgs))
		}
	}
	if msgs := recvAll(outsider); len(msgs) != 0 {
		t.Fatalf("connection outside the room received %v", eventsOf(msgs))
	}
	if msgs := recvAll(liker); len(msgs) != 0 {
		t.Fatalf("sender received its own relayed event: %v", eventsOf(msgs))
	}
}

func TestNewPostBroadcastsToEveryoneExceptSender(t *testing.T) {
	h := NewHub()
	defer h.Shutdown()

	sender := newTestClient(h)
	other1 := newTestClient(h)
	other2 := newTestClient(h)

	sender.handleMessage(Message{
		Event: EventPostNew,
		Data:  json.RawMessage(`{"postId":"p1","userId":3}`),
	})

	for i, c := range []*Client{other1, other2} {
		if msgs := recvAll(c); !containsEvent(msgs, EventPostCreated) {
			t.Fatalf("connection %d did not receive post:created, got %v", i, eventsOf(msgs))
		}
	}
	if msgs := recvAll(sender); len(msgs) != 0 {
		t.Fatalf("sender received its own broadcast: %v", eventsOf(msgs))
	}
}

func TestCommentEventBroadcastsAndNotifiesAuthor(t *testing.T) {
	h := NewHub()
	defer h.Shutdown()

	author := newTestClient(h)
	bystander := newTestClient(h)
	commenter := newTestClient(h)

	joinUser(author, 5)
	recvAll(author)
	recvAll(bystander)
	recvAll(commenter)

	commenter.handleMessage(Message{
		Event: EventCommentNew,
		Data:  json.RawMessage(`{"postId":"p1","postAuthorId":5,"commentId":1,"fromUserId":8}`),
	})

	authorMsgs := recvAll(author)
	if !containsEvent(authorMsgs, EventCommentCreated) || !containsEvent(authorMsgs, EventNotificationComment) {
		t.Fatalf("author expected both comment events, got %v", eventsOf(authorMsgs))
	}
	bystanderMsgs := recvAll(bystander)
	if !containsEvent(bystanderMsgs, EventCommentCreated) {
		t.Fatalf("bystander expected comment:created, got %v", eventsOf(bystanderMsgs))
	}
	if containsEvent(bystanderMsgs, EventNotificationComment) {
		t.Fatalf("bystander must not receive the author's notification, got %v", eventsOf(bystanderMsgs))
	}
}

func TestDirectMessageIsUnicastToRecipientRoom(t *testing.T) {
	h := NewHub()
	defer h.Shutdown()

	recipient := newTestClient(h)
	other := newTestClient(h)
	sender := newTestClient(h)

	joinUser(recipient, 21)
	joinUser(other, 22)
	recvAll(recipient)
	recvAll(other)
	recvAll(sender)

	sender.handleMessage(Message{
		Event: EventMessageSend,
		Data:  json.RawMessage(`{"recipientId":21,"text":"hey"}`),
	})

	if msgs := recvAll(recipient); !containsEvent(msgs, EventMessageReceived) {
		t.Fatalf("recipient did not receive direct message, got %v", eventsOf(msgs))
	}
	if msgs := recvAll(other); len(msgs) != 0 {
		t.Fatalf("unrelated room received direct message: %v", eventsOf(msgs))
	}
}

// Explicit user:leave broadcasts offline; an implicit disconnect does not.
// The asymmetry is deliberate and this test documents it.
func TestPresenceAsymmetry(t *testing.T) {
	h := NewHub()
	defer h.Shutdown()

	watcher := newTestClient(h)
	leaver := newTestClient(h)
	dropper := newTestClient(h)

	joinUser(leaver, 1)
	joinUser(dropper, 2)
	recvAll(watcher)
	recvAll(leaver)
	recvAll(dropper)

	// Implicit disconnect: nothing is broadcast.
	h.Unregister(dropper)
	if msgs := recvAll(watcher); len(msgs) != 0 {
		t.Fatalf("implicit disconnect must not broadcast, got %v", eventsOf(msgs))
	}

	// Explicit leave: offline is broadcast.
	leaver.handleMessage(Message{
		Event: EventUserLeave,
		Data:  json.RawMessage(`{"userId":1}`),
	})
	if msgs := recvAll(watcher); !containsEvent(msgs, EventUserOffline) {
		t.Fatalf("explicit leave must broadcast offline, got %v", eventsOf(msgs))
	}
}

func TestUnregisterRemovesRoomMembership(t *testing.T) {
	h := NewHub()
	defer h.Shutdown()

	member := newTestClient(h)
	joinUser(member, 4)
	h.Unregister(member)

	survivor := newTestClient(h)
	joinUser(survivor, 4)
	recvAll(survivor)

	sender := newTestClient(h)
	sender.handleMessage(Message{
		Event: EventFollowNew,
		Data:  json.RawMessage(`{"followedId":4,"fromUserId":9}`),
	})

	if msgs := recvAll(survivor); !containsEvent(msgs, EventNotificationFollow) {
		t.Fatalf("surviving room member did not receive event, got %v", eventsOf(msgs))
	}
	// The unregistered client's channel is closed and got nothing new.
	if _, ok := <-member.send; ok {
		t.Fatal("unregistered client's send channel should be closed")
	}
}

func TestShutdownDrainsConnections(t *testing.T) {
	h := NewHub()

	c1 := newTestClient(h)
	c2 := newTestClient(h)
	joinUser(c1, 1)
	recvAll(c1)
	recvAll(c2)

	h.Shutdown()

	if h.ConnectionCount() != 0 {
		t.Fatalf("expected 0 connections after shutdown, got %d", h.ConnectionCount())
	}
	for i, c := range []*Client{c1, c2} {
		if _, ok := <-c.send; ok {
			t.Fatalf("client %d send channel not closed on shutdown", i)
		}
	}

	// Registrations after shutdown are rejected.
	late := NewClient(h, nil)
	if _, ok := <-late.send; ok {
		t.Fatal("late registration should be rejected with a closed channel")
	}
	if h.ConnectionCount() != 0 {
		t.Fatal("late client must not be tracked after shutdown")
	}
}
