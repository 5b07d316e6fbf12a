package handlers

import (
	"net/http"

	"github.com/huddlehq/huddle/backend/internal/models"
	"github.com/huddlehq/huddle/backend/internal/push"
	"github.com/huddlehq/huddle/backend/internal/realtime"
	"github.com/huddlehq/huddle/backend/internal/repositories"
	"github.com/huddlehq/huddle/backend/internal/services"
	"github.com/labstack/echo/v4"
)

// LikeHandler handles HTTP requests related to likes
type LikeHandler struct {
	likeRepository      repositories.LikeRepository
	postRepository      repositories.PostRepository
	userRepository      repositories.UserRepository
	notificationService services.NotificationService
	hub                 *realtime.Hub
	dispatcher          *push.Dispatcher
}

// NewLikeHandler creates a new LikeHandler
func NewLikeHandler(likeRepo repositories.LikeRepository, postRepo repositories.PostRepository, userRepo repositories.UserRepository, notificationService services.NotificationService, hub *realtime.Hub, dispatcher *push.Dispatcher) *LikeHandler {
	return &LikeHandler{
		likeRepository:      likeRepo,
		postRepository:      postRepo,
		userRepository:      userRepo,
		notificationService: notificationService,
		hub:                 hub,
		dispatcher:          dispatcher,
	}
}

// RegisterLikeRoutes registers like-related routes
func (h *LikeHandler) RegisterLikeRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/likes", h.LikePost)
	g.DELETE("/posts/:post_id/likes", h.UnlikePost)
}

// LikePost handles liking a post
func (h *LikeHandler) LikePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	postID := c.Param("post_id")

	// Verify post exists
	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	// Check if user has already liked the post
	hasLiked, err := h.likeRepository.HasUserLikedPost(postID, currentUserID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	if hasLiked {
		return echo.NewHTTPError(http.StatusConflict, "Post already liked by this user")
	}

	like := &models.Like{
		PostID: postID,
		UserID: currentUserID,
	}

	if err := h.likeRepository.CreateLike(like); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Increment likes count in the post
	go h.postRepository.IncrementLikesCount(c.Request().Context(), postID)

	// Best-effort fan-out to the post author; self-likes are suppressed by
	// the notification service.
	message := "Someone liked your post"
	if actor, err := h.userRepository.GetUserByID(currentUserID); err == nil {
		message = actor.Name + " liked your post"
	}
	h.notificationService.Create(c.Request().Context(), services.CreateNotificationParams{
		UserID:     post.UserID,
		FromUserID: currentUserID,
		Type:       models.NotificationTypeLike,
		PostID:     postID,
		Message:    message,
	})

	if post.UserID != currentUserID {
		h.hub.SendToRoom(realtime.UserRoom(post.UserID), realtime.NewMessage(realtime.EventNotificationLike, echo.Map{
			"postId":       postID,
			"postAuthorId": post.UserID,
			"fromUserId":   currentUserID,
		}))
		dispatchPush(h.dispatcher, post.UserID, "New like", message, map[string]string{
			"type":   models.NotificationTypeLike,
			"postId": postID,
		})
	}

	return c.JSON(http.StatusCreated, like)
}

// UnlikePost handles unliking a post
func (h *LikeHandler) UnlikePost(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	postID := c.Param("post_id")

	// Verify post exists
	_, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	if err := h.likeRepository.DeleteLike(postID, currentUserID); err != nil {
		if err.Error() == "like not found" {
			return echo.NewHTTPError(http.StatusNotFound, "Like not found")
		}
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Decrement likes count in the post
	go h.postRepository.DecrementLikesCount(c.Request().Context(), postID)

	return c.NoContent(http.StatusNoContent)
}
