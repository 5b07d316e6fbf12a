package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/huddlehq/huddle/backend/internal/models"
	"github.com/huddlehq/huddle/backend/internal/push"
	"github.com/huddlehq/huddle/backend/internal/validators"
	"github.com/labstack/echo/v4"
)

// fakeSubscriptionRepo stores subscriptions keyed by endpoint, matching the
// unique-key behavior of the Mongo upsert
type fakeSubscriptionRepo struct {
	mu   sync.Mutex
	subs map[string]models.PushSubscription
}

func newFakeSubscriptionRepo() *fakeSubscriptionRepo {
	return &fakeSubscriptionRepo{subs: make(map[string]models.PushSubscription)}
}

func (r *fakeSubscriptionRepo) Upsert(_ context.Context, sub *models.PushSubscription) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.subs[sub.Endpoint] = *sub
	return nil
}

func (r *fakeSubscriptionRepo) Remove(_ context.Context, endpoint string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.subs, endpoint)
	return nil
}

func (r *fakeSubscriptionRepo) ListByUser(_ context.Context, userID uint) ([]models.PushSubscription, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.PushSubscription
	for _, s := range r.subs {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

// outcomeTransport returns a fixed outcome per endpoint, delivered by default
type outcomeTransport struct {
	outcomes map[string]push.Outcome
}

func (t *outcomeTransport) Send(_ context.Context, sub models.PushSubscription, _ []byte) (push.Outcome, error) {
	if outcome, ok := t.outcomes[sub.Endpoint]; ok && outcome != push.OutcomeDelivered {
		return outcome, errors.New("delivery failed")
	}
	return push.OutcomeDelivered, nil
}

func newPushTestEnv(repo *fakeSubscriptionRepo, transport push.Transport) (*echo.Echo, *PushHandler) {
	e := echo.New()
	e.Validator = validators.NewValidator()
	h := NewPushHandler(repo, push.NewDispatcher(repo, transport, transport))
	return e, h
}

func subscribeBody(endpoint string, p256dh, auth string) string {
	return `{"endpoint":"` + endpoint + `","keys":{"p256dh":"` + p256dh + `","auth":"` + auth + `"}}`
}

func TestSubscribeSameEndpointTwiceStoresOne(t *testing.T) {
	repo := newFakeSubscriptionRepo()
	e, h := newPushTestEnv(repo, &outcomeTransport{})

	for _, body := range []string{
		subscribeBody("https://push.example/dev1", "old-p256dh", "old-auth"),
		subscribeBody("https://push.example/dev1", "new-p256dh", "new-auth"),
	} {
		req := httptest.NewRequest(http.MethodPost, "/push/subscribe", strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
		rec := httptest.NewRecorder()
		c := authedContext(e, req, rec, 1)
		if err := h.Subscribe(c); err != nil {
			t.Fatalf("Subscribe failed: %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
	}

	if len(repo.subs) != 1 {
		t.Fatalf("expected 1 stored subscription, got %d", len(repo.subs))
	}
	sub := repo.subs["https://push.example/dev1"]
	if sub.P256dh != "new-p256dh" || sub.Auth != "new-auth" {
		t.Fatalf("re-subscribe did not refresh key material: %+v", sub)
	}
	if sub.UserID != 1 {
		t.Fatalf("expected subscription bound to user 1, got %d", sub.UserID)
	}
}

func TestSubscribeAnonymously(t *testing.T) {
	repo := newFakeSubscriptionRepo()
	e, h := newPushTestEnv(repo, &outcomeTransport{})

	req := httptest.NewRequest(http.MethodPost, "/push/subscribe", strings.NewReader(subscribeBody("https://push.example/anon", "k", "a")))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := authedContext(e, req, rec, 0)

	if err := h.Subscribe(c); err != nil {
		t.Fatalf("Subscribe failed: %v", err)
	}
	if sub := repo.subs["https://push.example/anon"]; sub.UserID != 0 {
		t.Fatalf("anonymous subscription must not carry a user id, got %d", sub.UserID)
	}
}

func TestSubscribeRejectsMissingEndpoint(t *testing.T) {
	repo := newFakeSubscriptionRepo()
	e, h := newPushTestEnv(repo, &outcomeTransport{})

	req := httptest.NewRequest(http.MethodPost, "/push/subscribe", strings.NewReader(`{"keys":{"p256dh":"k","auth":"a"}}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := authedContext(e, req, rec, 1)

	err := h.Subscribe(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
	if len(repo.subs) != 0 {
		t.Fatal("invalid subscription must not be stored")
	}
}

func TestSendRejectsMissingTitle(t *testing.T) {
	repo := newFakeSubscriptionRepo()
	e, h := newPushTestEnv(repo, &outcomeTransport{})

	req := httptest.NewRequest(http.MethodPost, "/push/send", strings.NewReader(`{"userId":1,"body":"hi"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := authedContext(e, req, rec, 1)

	err := h.Send(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 HTTPError, got %v", err)
	}
}

func TestSendWithoutSubscriptionsIsNotFound(t *testing.T) {
	repo := newFakeSubscriptionRepo()
	e, h := newPushTestEnv(repo, &outcomeTransport{})

	req := httptest.NewRequest(http.MethodPost, "/push/send", strings.NewReader(`{"userId":42,"title":"t","body":"b"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := authedContext(e, req, rec, 1)

	err := h.Send(c)
	var httpErr *echo.HTTPError
	if !errors.As(err, &httpErr) || httpErr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 HTTPError, got %v", err)
	}
}

func TestSendReportsMixedResults(t *testing.T) {
	repo := newFakeSubscriptionRepo()
	repo.subs["https://push.example/a"] = models.PushSubscription{Endpoint: "https://push.example/a", P256dh: "k", Auth: "a", UserID: 2}
	repo.subs["https://push.example/gone"] = models.PushSubscription{Endpoint: "https://push.example/gone", P256dh: "k", Auth: "a", UserID: 2}
	transport := &outcomeTransport{outcomes: map[string]push.Outcome{
		"https://push.example/gone": push.OutcomePermanentFailure,
	}}
	e, h := newPushTestEnv(repo, transport)

	req := httptest.NewRequest(http.MethodPost, "/push/send", strings.NewReader(`{"userId":2,"title":"t","body":"b"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := authedContext(e, req, rec, 1)

	if err := h.Send(c); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 even with partial failures, got %d", rec.Code)
	}

	var body struct {
		Success bool                 `json:"success"`
		Sent    int                  `json:"sent"`
		Failed  int                  `json:"failed"`
		Results []push.AttemptResult `json:"results"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid response body: %v", err)
	}
	if !body.Success || body.Sent != 1 || body.Failed != 1 || len(body.Results) != 2 {
		t.Fatalf("unexpected body: %+v", body)
	}

	// The dead endpoint was pruned as a side effect.
	repo.mu.Lock()
	_, goneStillThere := repo.subs["https://push.example/gone"]
	repo.mu.Unlock()
	if goneStillThere {
		t.Fatal("permanently failed endpoint should have been pruned")
	}
}
