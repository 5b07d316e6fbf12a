package handlers

import (
	"net/http"
	"strconv"

	"github.com/huddlehq/huddle/backend/internal/models"
	"github.com/huddlehq/huddle/backend/internal/push"
	"github.com/huddlehq/huddle/backend/internal/realtime"
	"github.com/huddlehq/huddle/backend/internal/repositories"
	"github.com/huddlehq/huddle/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// FollowHandler handles follow/unfollow HTTP requests
type FollowHandler struct {
	followRepository    repositories.FollowRepository
	userRepository      repositories.UserRepository
	notificationService services.NotificationService
	hub                 *realtime.Hub
	dispatcher          *push.Dispatcher
}

// NewFollowHandler creates a new FollowHandler
func NewFollowHandler(followRepo repositories.FollowRepository, userRepo repositories.UserRepository, notificationService services.NotificationService, hub *realtime.Hub, dispatcher *push.Dispatcher) *FollowHandler {
	return &FollowHandler{
		followRepository:    followRepo,
		userRepository:      userRepo,
		notificationService: notificationService,
		hub:                 hub,
		dispatcher:          dispatcher,
	}
}

// RegisterFollowRoutes registers follow-related routes
func (h *FollowHandler) RegisterFollowRoutes(g *echo.Group) {
	g.POST("/users/:id/follow", h.FollowUser)
	g.DELETE("/users/:id/follow", h.UnfollowUser)
}

// FollowUser follows a user
func (h *FollowHandler) FollowUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	targetID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	if currentUserID == uint(targetID) {
		return echo.NewHTTPError(http.StatusBadRequest, "Cannot follow yourself")
	}

	// Check if already following
	isFollowing, err := h.followRepository.IsFollowing(currentUserID, uint(targetID))
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if isFollowing {
		return echo.NewHTTPError(http.StatusConflict, "Already following this user")
	}

	follow := &models.Follow{
		FollowerID:  currentUserID,
		FollowingID: uint(targetID),
		Status:      models.FollowStatusAccepted,
	}

	if err := h.followRepository.CreateFollow(follow); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Notification and realtime delivery are best-effort: the follow above
	// already succeeded and stays successful.
	message := "Someone started following you"
	if actor, err := h.userRepository.GetUserByID(currentUserID); err == nil {
		message = actor.Name + " started following you"
	}
	h.notificationService.Create(c.Request().Context(), services.CreateNotificationParams{
		UserID:     uint(targetID),
		FromUserID: currentUserID,
		Type:       models.NotificationTypeFollow,
		Message:    message,
	})

	h.hub.SendToRoom(realtime.UserRoom(uint(targetID)), realtime.NewMessage(realtime.EventNotificationFollow, echo.Map{
		"fromUserId": currentUserID,
		"followedId": targetID,
	}))
	dispatchPush(h.dispatcher, uint(targetID), "New follower", message, map[string]string{"type": models.NotificationTypeFollow})

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"following": true}})
}

// UnfollowUser unfollows a user
func (h *FollowHandler) UnfollowUser(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}

	targetID, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid user ID")
	}

	if err := h.followRepository.DeleteFollow(currentUserID, uint(targetID)); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	return c.JSON(http.StatusOK, echo.Map{"success": true, "data": echo.Map{"following": false}})
}
