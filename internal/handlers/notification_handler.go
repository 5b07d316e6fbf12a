package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/huddlehq/huddle/backend/internal/models"
	"github.com/huddlehq/huddle/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// streamLimit is how many unread notifications each stream update carries
const streamLimit = 5

// NotificationHandler handles notification-related HTTP requests, including
// the long-lived event stream
type NotificationHandler struct {
	notificationService services.NotificationService
	streamInterval      time.Duration
}

// NewNotificationHandler creates a new NotificationHandler
func NewNotificationHandler(notificationService services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
		streamInterval:      5 * time.Second,
	}
}

// RegisterNotificationRoutes registers notification routes
func (h *NotificationHandler) RegisterNotificationRoutes(g *echo.Group) {
	g.GET("/notifications", h.GetNotifications)
	g.PUT("/notifications/read", h.MarkRead)
	g.GET("/notifications/stream", h.Stream)
}

// GetNotifications returns notifications newest-first with a fresh unread count
func (h *NotificationHandler) GetNotifications(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	unreadOnly := c.QueryParam("unread") == "true"
	limit, _ := strconv.ParseInt(c.QueryParam("limit"), 10, 64)
	skip, _ := strconv.ParseInt(c.QueryParam("skip"), 10, 64)

	notifications, unreadCount, err := h.notificationService.List(c.Request().Context(), currentUserID, services.ListNotificationsParams{
		UnreadOnly: unreadOnly,
		Limit:      limit,
		Skip:       skip,
	})
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{
		"notifications": notifications,
		"unreadCount":   unreadCount,
	})
}

// MarkRead marks the given notifications (or all of them) as read
func (h *NotificationHandler) MarkRead(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	var req models.MarkReadRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if !req.MarkAllRead && len(req.NotificationIDs) == 0 {
		return echo.NewHTTPError(http.StatusBadRequest, "markAllRead or notificationIds required")
	}

	unreadCount, err := h.notificationService.MarkRead(c.Request().Context(), currentUserID, req)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "unreadCount": unreadCount})
}

type streamConnectedEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type streamUpdateEvent struct {
	Type          string                `json:"type"`
	UnreadCount   int64                 `json:"unreadCount"`
	Notifications []models.Notification `json:"notifications"`
}

// Stream is the one-way polling event stream: a connected event immediately,
// then an update with the unread count and newest unread notifications on a
// fixed interval until the client disconnects.
func (h *NotificationHandler) Stream(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set("Cache-Control", "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)

	if err := writeStreamEvent(resp, streamConnectedEvent{
		Type:    "connected",
		Message: "Notification stream connected",
	}); err != nil {
		return nil
	}

	ctx := c.Request().Context()
	ticker := time.NewTicker(h.streamInterval)
	// The timer dies with the connection; a tick surviving its client is a
	// resource leak.
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			unreadCount, notifications, err := h.notificationService.UnreadSnapshot(ctx, currentUserID, streamLimit)
			if err != nil {
				// One failed tick never tears down the stream.
				log.Printf("Notification stream tick failed for user %d: %v", currentUserID, err)
				continue
			}
			if err := writeStreamEvent(resp, streamUpdateEvent{
				Type:          "update",
				UnreadCount:   unreadCount,
				Notifications: notifications,
			}); err != nil {
				return nil
			}
		}
	}
}

func writeStreamEvent(resp *echo.Response, event interface{}) error {
	b, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(resp, "data: %s\n\n", b); err != nil {
		return err
	}
	resp.Flush()
	return nil
}
