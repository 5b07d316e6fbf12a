package push

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/huddlehq/huddle/backend/internal/models"
	"github.com/huddlehq/huddle/backend/internal/repositories"
)

// ErrNoSubscriptions reports that the target user has no registered push
// endpoints. It is an outcome, not a fault; handlers map it to not-found.
var ErrNoSubscriptions = errors.New("no push subscriptions for user")

// Payload is the push message fanned out to every endpoint of a user
type Payload struct {
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Icon      string            `json:"icon"`
	Badge     string            `json:"badge"`
	Data      map[string]string `json:"data,omitempty"`
	Timestamp int64             `json:"timestamp"`
}

// AttemptResult records the outcome of one delivery attempt
type AttemptResult struct {
	Endpoint string `json:"endpoint"`
	Success  bool   `json:"success"`
	Error    string `json:"error,omitempty"`
}

// Result aggregates the per-endpoint outcomes of one dispatch
type Result struct {
	Sent    int             `json:"sent"`
	Failed  int             `json:"failed"`
	Results []AttemptResult `json:"results"`
}

// Dispatcher fans a push payload out to every registered subscription of a
// user. Endpoints fail independently; endpoints the transport reports as
// permanently gone are pruned from the registry as a side effect, so stale
// subscriptions heal lazily without a sweep job.
type Dispatcher struct {
	registry repositories.SubscriptionRepository
	webPush  Transport
	fcm      Transport
}

// NewDispatcher creates a new Dispatcher
func NewDispatcher(registry repositories.SubscriptionRepository, webPush, fcm Transport) *Dispatcher {
	return &Dispatcher{
		registry: registry,
		webPush:  webPush,
		fcm:      fcm,
	}
}

// Dispatch delivers one notification payload to all subscriptions of userID
// concurrently. It returns ErrNoSubscriptions when the user has no endpoints;
// individual delivery failures are recorded in the Result, never returned as
// an error.
func (d *Dispatcher) Dispatch(ctx context.Context, userID uint, title, body string, data map[string]string) (*Result, error) {
	subs, err := d.registry.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(subs) == 0 {
		return nil, ErrNoSubscriptions
	}

	payload, err := json.Marshal(Payload{
		Title:     title,
		Body:      body,
		Icon:      "/icons/icon-192.png",
		Badge:     "/icons/badge-72.png",
		Data:      data,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		return nil, err
	}

	type attempt struct {
		result  AttemptResult
		outcome Outcome
	}
	attempts := make([]attempt, len(subs))

	// Every attempt runs and settles independently; a slow endpoint delays
	// only the final tally, never its siblings.
	var wg sync.WaitGroup
	for i, sub := range subs {
		wg.Add(1)
		go func(i int, sub models.PushSubscription) {
			defer wg.Done()
			outcome, sendErr := d.transportFor(sub).Send(ctx, sub, payload)
			attempts[i] = attempt{
				result:  AttemptResult{Endpoint: sub.Endpoint, Success: outcome == OutcomeDelivered},
				outcome: outcome,
			}
			if sendErr != nil {
				attempts[i].result.Error = sendErr.Error()
			}
		}(i, sub)
	}
	wg.Wait()

	result := &Result{Results: make([]AttemptResult, 0, len(attempts))}
	for _, a := range attempts {
		result.Results = append(result.Results, a.result)
		if a.result.Success {
			result.Sent++
			continue
		}
		result.Failed++
		if a.outcome == OutcomePermanentFailure {
			if err := d.registry.Remove(ctx, a.result.Endpoint); err != nil {
				log.Printf("Failed to prune dead push endpoint: %v", err)
			} else {
				log.Printf("Pruned dead push endpoint for user %d", userID)
			}
		}
	}
	return result, nil
}

func (d *Dispatcher) transportFor(sub models.PushSubscription) Transport {
	if sub.IsWebPush() {
		return d.webPush
	}
	return d.fcm
}
