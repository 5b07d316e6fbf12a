package repositories

import (
	"context"
	"time"

	"github.com/huddlehq/huddle/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SubscriptionRepository defines the interface for push subscription persistence
type SubscriptionRepository interface {
	Upsert(ctx context.Context, sub *models.PushSubscription) error
	Remove(ctx context.Context, endpoint string) error
	ListByUser(ctx context.Context, userID uint) ([]models.PushSubscription, error)
}

// MongoSubscriptionRepository implements SubscriptionRepository for MongoDB.
// The delivery endpoint is the document id, so re-subscribing is an upsert
// rather than an insert and no endpoint is ever stored twice.
type MongoSubscriptionRepository struct {
	collection *mongo.Collection
}

// NewMongoSubscriptionRepository creates a new MongoSubscriptionRepository
func NewMongoSubscriptionRepository(db *mongo.Database) *MongoSubscriptionRepository {
	return &MongoSubscriptionRepository{collection: db.Collection("push_subscriptions")}
}

// Upsert stores or refreshes a subscription keyed by its endpoint
func (r *MongoSubscriptionRepository) Upsert(ctx context.Context, sub *models.PushSubscription) error {
	now := time.Now()
	filter := bson.M{"_id": sub.Endpoint}
	update := bson.M{
		"$set": bson.M{
			"p256dh":     sub.P256dh,
			"auth":       sub.Auth,
			"fcm_token":  sub.FCMToken,
			"user_id":    sub.UserID,
			"updated_at": now,
		},
		"$setOnInsert": bson.M{"created_at": now},
	}
	_, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	return err
}

// Remove deletes a subscription by endpoint; removing an absent endpoint is a no-op
func (r *MongoSubscriptionRepository) Remove(ctx context.Context, endpoint string) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": endpoint})
	return err
}

// ListByUser retrieves all live subscriptions for a user
func (r *MongoSubscriptionRepository) ListByUser(ctx context.Context, userID uint) ([]models.PushSubscription, error) {
	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	subs := []models.PushSubscription{}
	if err = cursor.All(ctx, &subs); err != nil {
		return nil, err
	}
	return subs, nil
}
