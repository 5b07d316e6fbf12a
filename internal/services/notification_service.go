package services

import (
	"context"
	"log"

	"github.com/huddlehq/huddle/backend/internal/models"
	"github.com/huddlehq/huddle/backend/internal/repositories"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CreateNotificationParams carries everything needed to persist one notification.
// Message is rendered by the caller and stored as-is.
type CreateNotificationParams struct {
	UserID     uint   // recipient
	FromUserID uint   // actor
	Type       string // follow, like, comment
	PostID     string
	CommentID  uint
	Message    string
}

// ListNotificationsParams controls the notification list query
type ListNotificationsParams struct {
	UnreadOnly bool
	Limit      int64
	Skip       int64
}

// NotificationService creates notifications from domain events and exposes
// the read/unread query surface
type NotificationService interface {
	// Create persists a notification. Self-actions are a silent no-op and any
	// persistence failure is logged and swallowed, so callers never fail the
	// triggering domain action. Returns nil in both cases.
	Create(ctx context.Context, params CreateNotificationParams) *models.Notification
	// List returns enriched notifications newest-first together with a freshly
	// computed unread count.
	List(ctx context.Context, userID uint, params ListNotificationsParams) ([]models.EnrichedNotification, int64, error)
	// MarkRead flips the read flag on the given notifications (or all unread
	// ones) owned by userID and returns the recomputed unread count.
	MarkRead(ctx context.Context, userID uint, req models.MarkReadRequest) (int64, error)
	// UnreadSnapshot returns the unread count and the newest unread
	// notifications, capped at limit. Used by the event stream ticks.
	UnreadSnapshot(ctx context.Context, userID uint, limit int64) (int64, []models.Notification, error)
}

type notificationService struct {
	notificationRepo repositories.NotificationRepository
	userRepo         repositories.UserRepository
	postRepo         repositories.PostRepository
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(notificationRepo repositories.NotificationRepository, userRepo repositories.UserRepository, postRepo repositories.PostRepository) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		userRepo:         userRepo,
		postRepo:         postRepo,
	}
}

func (s *notificationService) Create(ctx context.Context, params CreateNotificationParams) *models.Notification {
	// A self-action never produces a notification. Policy, not validation:
	// callers do not need to pre-check.
	if params.UserID == params.FromUserID {
		return nil
	}

	notification := &models.Notification{
		UserID:     params.UserID,
		Type:       params.Type,
		FromUserID: params.FromUserID,
		PostID:     params.PostID,
		CommentID:  params.CommentID,
		Message:    params.Message,
		Read:       false,
	}

	if err := s.notificationRepo.Insert(ctx, notification); err != nil {
		// A lost notification must never abort the domain action that
		// triggered it.
		log.Printf("Failed to create %s notification for user %d: %v", params.Type, params.UserID, err)
		return nil
	}
	return notification
}

func (s *notificationService) List(ctx context.Context, userID uint, params ListNotificationsParams) ([]models.EnrichedNotification, int64, error) {
	if params.Limit < 1 || params.Limit > 50 {
		params.Limit = 20
	}
	if params.Skip < 0 {
		params.Skip = 0
	}

	notifications, err := s.notificationRepo.ListByRecipient(ctx, userID, params.UnreadOnly, params.Limit, params.Skip)
	if err != nil {
		return nil, 0, err
	}

	// Recomputed on every read so count and list cannot silently desync
	// within one response.
	unreadCount, err := s.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	return s.enrich(ctx, notifications), unreadCount, nil
}

// enrich attaches compact actor and post projections via an explicit two-step
// batch read: collect referenced ids, then resolve each set in one query.
func (s *notificationService) enrich(ctx context.Context, notifications []models.Notification) []models.EnrichedNotification {
	actorIDs := make([]uint, 0, len(notifications))
	postIDs := make([]string, 0, len(notifications))
	seenActors := make(map[uint]bool)
	seenPosts := make(map[string]bool)
	for _, n := range notifications {
		if !seenActors[n.FromUserID] {
			seenActors[n.FromUserID] = true
			actorIDs = append(actorIDs, n.FromUserID)
		}
		if n.PostID != "" && !seenPosts[n.PostID] {
			seenPosts[n.PostID] = true
			postIDs = append(postIDs, n.PostID)
		}
	}

	actors := make(map[uint]models.UserCompact)
	if users, err := s.userRepo.GetUsersByIDs(actorIDs); err != nil {
		log.Printf("Failed to resolve notification actors: %v", err)
	} else {
		for _, u := range users {
			actors[u.ID] = u.ToCompact()
		}
	}

	posts := make(map[string]models.PostCompact)
	if resolved, err := s.postRepo.GetPostsByIDs(ctx, postIDs); err != nil {
		log.Printf("Failed to resolve notification posts: %v", err)
	} else {
		for _, p := range resolved {
			posts[p.ID.Hex()] = p.ToCompact()
		}
	}

	enriched := make([]models.EnrichedNotification, len(notifications))
	for i, n := range notifications {
		enriched[i] = models.EnrichedNotification{Notification: n}
		if actor, ok := actors[n.FromUserID]; ok {
			actorCopy := actor
			enriched[i].FromUser = &actorCopy
		}
		if post, ok := posts[n.PostID]; ok {
			postCopy := post
			enriched[i].Post = &postCopy
		}
	}
	return enriched
}

func (s *notificationService) MarkRead(ctx context.Context, userID uint, req models.MarkReadRequest) (int64, error) {
	if req.MarkAllRead {
		if err := s.notificationRepo.MarkAllRead(ctx, userID); err != nil {
			return 0, err
		}
	} else {
		ids := make([]primitive.ObjectID, 0, len(req.NotificationIDs))
		for _, raw := range req.NotificationIDs {
			id, err := primitive.ObjectIDFromHex(raw)
			if err != nil {
				continue
			}
			ids = append(ids, id)
		}
		if err := s.notificationRepo.MarkRead(ctx, userID, ids); err != nil {
			return 0, err
		}
	}

	return s.notificationRepo.CountUnread(ctx, userID)
}

func (s *notificationService) UnreadSnapshot(ctx context.Context, userID uint, limit int64) (int64, []models.Notification, error) {
	unreadCount, err := s.notificationRepo.CountUnread(ctx, userID)
	if err != nil {
		return 0, nil, err
	}
	notifications, err := s.notificationRepo.ListByRecipient(ctx, userID, true, limit, 0)
	if err != nil {
		return 0, nil, err
	}
	return unreadCount, notifications, nil
}
