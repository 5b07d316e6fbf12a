package handlers

import (
	"errors"
	"net/http"

	"github.com/huddlehq/huddle/backend/internal/models"
	"github.com/huddlehq/huddle/backend/internal/push"
	"github.com/huddlehq/huddle/backend/internal/repositories"
	"github.com/labstack/echo/v4"
)

// PushHandler handles push subscription registration and push sending
type PushHandler struct {
	subscriptionRepo repositories.SubscriptionRepository
	dispatcher       *push.Dispatcher
}

// NewPushHandler creates a new PushHandler
func NewPushHandler(subscriptionRepo repositories.SubscriptionRepository, dispatcher *push.Dispatcher) *PushHandler {
	return &PushHandler{
		subscriptionRepo: subscriptionRepo,
		dispatcher:       dispatcher,
	}
}

// RegisterPushRoutes registers push routes on an authenticated group
func (h *PushHandler) RegisterPushRoutes(g *echo.Group) {
	g.POST("/push/send", h.Send)
}

// RegisterPublicPushRoutes registers routes that accept anonymous callers
func (h *PushHandler) RegisterPublicPushRoutes(g *echo.Group) {
	g.POST("/push/subscribe", h.Subscribe)
}

// Subscribe upserts a push subscription keyed by its endpoint. A caller
// without a session may register anonymously; the subscription is then not
// associated with any user.
func (h *PushHandler) Subscribe(c echo.Context) error {
	var req models.SubscribeRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	sub := &models.PushSubscription{
		Endpoint: req.Endpoint,
		P256dh:   req.Keys.P256dh,
		Auth:     req.Keys.Auth,
		FCMToken: req.FCMToken,
		UserID:   optionalUserID(c),
	}
	if err := h.subscriptionRepo.Upsert(c.Request().Context(), sub); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"message": "Push subscription registered",
	})
}

// Send fans a push notification out to every subscription of the target user
func (h *PushHandler) Send(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.SendPushRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := h.dispatcher.Dispatch(c.Request().Context(), req.UserID, req.Title, req.Body, req.Data)
	if err != nil {
		if errors.Is(err, push.ErrNoSubscriptions) {
			return echo.NewHTTPError(http.StatusNotFound, "No push subscriptions for user")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Failed deliveries are data in the result, not a request failure.
	return c.JSON(http.StatusOK, echo.Map{
		"success": true,
		"sent":    result.Sent,
		"failed":  result.Failed,
		"results": result.Results,
	})
}
