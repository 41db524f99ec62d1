package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mansoorceksport/fitcoach/internal/domain"
)

type MongoConversationRepository struct {
	collection *mongo.Collection
}

func NewMongoConversationRepository(ctx context.Context, db *mongo.Database) *MongoConversationRepository {
	collection := db.Collection("conversations")

	_, _ = collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "user_id", Value: 1},
			{Key: "created_at", Value: -1},
		},
	})

	return &MongoConversationRepository{collection: collection}
}

// Append stores the messages in order. Ids and timestamps are filled when empty.
func (r *MongoConversationRepository) Append(ctx context.Context, msgs ...*domain.ConversationMessage) error {
	if len(msgs) == 0 {
		return nil
	}
	now := time.Now().UTC()
	docs := make([]interface{}, 0, len(msgs))
	for i, m := range msgs {
		if m.ID == "" {
			m.ID = ulid.Make().String()
		}
		if m.CreatedAt.IsZero() {
			// keep insertion order stable for messages appended together
			m.CreatedAt = now.Add(time.Duration(i) * time.Millisecond)
		}
		docs = append(docs, m)
	}
	if _, err := r.collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to append conversation: %w", err)
	}
	return nil
}

func (r *MongoConversationRepository) ListRecent(ctx context.Context, userID string, limit int) ([]*domain.ConversationMessage, error) {
	if limit <= 0 {
		limit = 20
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list conversation: %w", err)
	}
	defer cursor.Close(ctx)

	var msgs []*domain.ConversationMessage
	if err := cursor.All(ctx, &msgs); err != nil {
		return nil, fmt.Errorf("failed to decode conversation: %w", err)
	}
	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}
