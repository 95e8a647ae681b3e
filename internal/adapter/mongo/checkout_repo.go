package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/saiko-shop/storefront/internal/domain/entity"
	"github.com/saiko-shop/storefront/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	checkoutCollectionName = "checkout_sessions"
)

type checkoutRepository struct {
	collection *mongo.Collection
}

func NewCheckoutRepository(client *mongo.Client, database string) repository.CheckoutRecorder {
	return &checkoutRepository{
		collection: client.Database(database).Collection(checkoutCollectionName),
	}
}

// EnsureIndexes creates the lookup index used by MarkCompleted.
func EnsureIndexes(ctx context.Context, client *mongo.Client, database string) error {
	collection := client.Database(database).Collection(checkoutCollectionName)
	_, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "session_key", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
	})
	if err != nil {
		return fmt.Errorf("failed to create checkout index: %w", err)
	}
	return nil
}

func (r *checkoutRepository) Create(ctx context.Context, record entity.CheckoutRecord) error {
	if _, err := r.collection.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to create checkout record for %s: %w", record.SessionKey, err)
	}
	return nil
}

// MarkCompleted completes the newest pending checkout of the session.
func (r *checkoutRepository) MarkCompleted(ctx context.Context, sessionKey string, completedAt time.Time) error {
	filter := bson.M{
		"session_key": sessionKey,
		"status":      entity.CheckoutStatusPending,
	}
	update := bson.M{
		"$set": bson.M{
			"status":       entity.CheckoutStatusCompleted,
			"completed_at": completedAt.UTC(),
		},
	}
	opts := options.FindOneAndUpdate().SetSort(bson.D{{Key: "created_at", Value: -1}})

	err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return repository.ErrNotFound
		}
		return fmt.Errorf("failed to complete checkout for %s: %w", sessionKey, err)
	}
	return nil
}
