package repositories

import (
	"context"
	"time"

	"github.com/huddlehq/huddle/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// NotificationRepository defines the interface for notification persistence
type NotificationRepository interface {
	Insert(ctx context.Context, notification *models.Notification) error
	ListByRecipient(ctx context.Context, userID uint, unreadOnly bool, limit, skip int64) ([]models.Notification, error)
	CountUnread(ctx context.Context, userID uint) (int64, error)
	MarkRead(ctx context.Context, userID uint, ids []primitive.ObjectID) error
	MarkAllRead(ctx context.Context, userID uint) error
}

// MongoNotificationRepository implements NotificationRepository for MongoDB
type MongoNotificationRepository struct {
	collection *mongo.Collection
}

// NewMongoNotificationRepository creates a new MongoNotificationRepository
func NewMongoNotificationRepository(db *mongo.Database) *MongoNotificationRepository {
	return &MongoNotificationRepository{collection: db.Collection("notifications")}
}

// Insert stores a new notification
func (r *MongoNotificationRepository) Insert(ctx context.Context, notification *models.Notification) error {
	notification.ID = primitive.NewObjectID()
	notification.CreatedAt = time.Now()
	notification.UpdatedAt = time.Now()
	_, err := r.collection.InsertOne(ctx, notification)
	return err
}

// ListByRecipient retrieves notifications for a user ordered newest-first
func (r *MongoNotificationRepository) ListByRecipient(ctx context.Context, userID uint, unreadOnly bool, limit, skip int64) ([]models.Notification, error) {
	filter := bson.M{"user_id": userID}
	if unreadOnly {
		filter["read"] = false
	}

	findOptions := options.Find().SetSkip(skip).SetLimit(limit).SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	notifications := []models.Notification{}
	if err = cursor.All(ctx, &notifications); err != nil {
		return nil, err
	}
	return notifications, nil
}

// CountUnread returns the number of unread notifications for a user
func (r *MongoNotificationRepository) CountUnread(ctx context.Context, userID uint) (int64, error) {
	return r.collection.CountDocuments(ctx, bson.M{"user_id": userID, "read": false})
}

// MarkRead marks the given notifications as read. The filter includes the
// recipient so a user can never flip another user's rows by guessing ids.
func (r *MongoNotificationRepository) MarkRead(ctx context.Context, userID uint, ids []primitive.ObjectID) error {
	if len(ids) == 0 {
		return nil
	}
	filter := bson.M{"_id": bson.M{"$in": ids}, "user_id": userID}
	update := bson.M{"$set": bson.M{"read": true, "updated_at": time.Now()}}
	_, err := r.collection.UpdateMany(ctx, filter, update)
	return err
}

// MarkAllRead marks every unread notification for a user as read
func (r *MongoNotificationRepository) MarkAllRead(ctx context.Context, userID uint) error {
	filter := bson.M{"user_id": userID, "read": false}
	update := bson.M{"$set": bson.M{"read": true, "updated_at": time.Now()}}
	_, err := r.collection.UpdateMany(ctx, filter, update)
	return err
}
