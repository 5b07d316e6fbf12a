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

// CommentHandler handles HTTP requests related to comments
type CommentHandler struct {
	commentRepository   repositories.CommentRepository
	postRepository      repositories.PostRepository
	userRepository      repositories.UserRepository
	notificationService services.NotificationService
	hub                 *realtime.Hub
	dispatcher          *push.Dispatcher
}

// NewCommentHandler creates a new CommentHandler
func NewCommentHandler(commentRepo repositories.CommentRepository, postRepo repositories.PostRepository, userRepo repositories.UserRepository, notificationService services.NotificationService, hub *realtime.Hub, dispatcher *push.Dispatcher) *CommentHandler {
	return &CommentHandler{
		commentRepository:   commentRepo,
		postRepository:      postRepo,
		userRepository:      userRepo,
		notificationService: notificationService,
		hub:                 hub,
		dispatcher:          dispatcher,
	}
}

// RegisterCommentRoutes registers comment-related routes
func (h *CommentHandler) RegisterCommentRoutes(g *echo.Group) {
	g.POST("/posts/:post_id/comments", h.CreateComment)
	g.GET("/posts/:post_id/comments", h.GetComments)
}

// CreateComment adds a comment to a post
func (h *CommentHandler) CreateComment(c echo.Context) error {
	currentUserID := getUserIDFromContext(c)
	if currentUserID == 0 {
		return echo.NewHTTPError(http.StatusUnauthorized, "User not authenticated")
	}
	postID := c.Param("post_id")

	var req models.CreateCommentRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "Invalid request body")
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	// Verify post exists
	post, err := h.postRepository.GetPostByID(c.Request().Context(), postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusNotFound, "Post not found")
	}

	comment := &models.Comment{
		PostID:  postID,
		UserID:  currentUserID,
		Content: req.Content,
	}
	if err := h.commentRepository.CreateComment(comment); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}

	// Increment comments count in the post
	go h.postRepository.IncrementCommentsCount(c.Request().Context(), postID)

	message := "Someone commented on your post"
	if actor, err := h.userRepository.GetUserByID(currentUserID); err == nil {
		message = actor.Name + " commented on your post"
	}
	h.notificationService.Create(c.Request().Context(), services.CreateNotificationParams{
		UserID:     post.UserID,
		FromUserID: currentUserID,
		Type:       models.NotificationTypeComment,
		PostID:     postID,
		CommentID:  comment.ID,
		Message:    message,
	})

	if post.UserID != currentUserID {
		h.hub.SendToRoom(realtime.UserRoom(post.UserID), realtime.NewMessage(realtime.EventNotificationComment, echo.Map{
			"postId":       postID,
			"postAuthorId": post.UserID,
			"commentId":    comment.ID,
			"fromUserId":   currentUserID,
		}))
		dispatchPush(h.dispatcher, post.UserID, "New comment", message, map[string]string{
			"type":   models.NotificationTypeComment,
			"postId": postID,
		})
	}

	return c.JSON(http.StatusCreated, comment)
}

// GetComments lists the comments of a post
func (h *CommentHandler) GetComments(c echo.Context) error {
	postID := c.Param("post_id")

	comments, err := h.commentRepository.GetCommentsByPostID(postID)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, echo.Map{"comments": comments})
}
