package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/oklog/ulid/v2"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/mansoorceksport/fitcoach/internal/domain"
	"github.com/mansoorceksport/fitcoach/internal/telemetry"
)

// MongoKnowledgeRetriever ranks knowledge chunks with a MongoDB $text index.
type MongoKnowledgeRetriever struct {
	collection *mongo.Collection
}

func NewMongoKnowledgeRetriever(db *mongo.Database) *MongoKnowledgeRetriever {
	return &MongoKnowledgeRetriever{collection: db.Collection("knowledge_chunks")}
}

// EnsureIndexes creates the weighted text index used by Retrieve.
func (r *MongoKnowledgeRetriever) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "title", Value: "text"},
			{Key: "content", Value: "text"},
			{Key: "tags", Value: "text"},
		},
		Options: options.Index().
			SetName("knowledge_text").
			SetWeights(bson.D{{Key: "title", Value: 5}, {Key: "tags", Value: 3}, {Key: "content", Value: 1}}),
	})
	if err != nil {
		return fmt.Errorf("failed to create knowledge text index: %w", err)
	}
	return nil
}

// Upsert replaces chunks by id, assigning ids to new ones. It returns the
// number of chunks written.
func (r *MongoKnowledgeRetriever) Upsert(ctx context.Context, chunks []domain.KnowledgeChunk) (int, error) {
	if len(chunks) == 0 {
		return 0, nil
	}
	models := make([]mongo.WriteModel, 0, len(chunks))
	for i := range chunks {
		if chunks[i].ID == "" {
			chunks[i].ID = ulid.Make().String()
		}
		models = append(models, mongo.NewReplaceOneModel().
			SetFilter(bson.M{"_id": chunks[i].ID}).
			SetReplacement(chunks[i]).
			SetUpsert(true))
	}
	res, err := r.collection.BulkWrite(ctx, models, options.BulkWrite().SetOrdered(false))
	if err != nil {
		return 0, fmt.Errorf("failed to upsert knowledge: %w", err)
	}
	return int(res.UpsertedCount + res.MatchedCount), nil
}

func (r *MongoKnowledgeRetriever) Retrieve(ctx context.Context, query string, k int) ([]string, error) {
	ctx, span := telemetry.Tracer().Start(ctx, "knowledge.Retrieve",
		trace.WithAttributes(attribute.Int("retrieval.k", k)),
	)
	defer span.End()

	query = strings.TrimSpace(query)
	if query == "" || k <= 0 {
		return nil, nil
	}

	opts := options.Find().
		SetProjection(bson.M{"score": bson.M{"$meta": "textScore"}}).
		SetSort(bson.D{{Key: "score", Value: bson.M{"$meta": "textScore"}}}).
		SetLimit(int64(k))

	cursor, err := r.collection.Find(ctx, bson.M{"$text": bson.M{"$search": query}}, opts)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to search knowledge: %w", err)
	}
	defer cursor.Close(ctx)

	var chunks []domain.KnowledgeChunk
	if err := cursor.All(ctx, &chunks); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("failed to decode knowledge: %w", err)
	}

	snippets := make([]string, 0, len(chunks))
	for _, c := range chunks {
		if c.Title != "" {
			snippets = append(snippets, c.Title+": "+c.Content)
			continue
		}
		snippets = append(snippets, c.Content)
	}
	span.SetAttributes(attribute.Int("retrieval.results", len(snippets)))
	return snippets, nil
}
