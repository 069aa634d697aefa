package mongo

import (
	"context"
	"time"

	"github.com/plagiafix/plagiafix/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type ChunkRepository interface {
	InsertChunk(ctx context.Context, c *models.LiveChunk) error
	UpdateSTT(ctx context.Context, sessionID string, chunkIndex int64, transcript string, confidence float64, status string) error
	UpdateRewrite(ctx context.Context, sessionID string, chunkIndex int64, text string, status string, processingMS int64) error
	ListBySession(ctx context.Context, sessionID string, limit int64) ([]models.LiveChunk, error)
}

type chunkRepo struct {
	col *mongo.Collection
}

func NewChunkRepo(db *mongo.Database) ChunkRepository {
	return &chunkRepo{col: db.Collection("live_chunks")}
}

func (r *chunkRepo) InsertChunk(ctx context.Context, c *models.LiveChunk) error {
	if c.Timestamp.IsZero() {
		c.Timestamp = time.Now().UTC()
	}
	_, err := r.col.InsertOne(ctx, c)
	return err
}

func (r *chunkRepo) UpdateSTT(ctx context.Context, sessionID string, chunkIndex int64, transcript string, confidence float64, status string) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID, "chunk_index": chunkIndex},
		bson.M{"$set": bson.M{
			"transcript":     transcript,
			"stt_confidence": confidence,
			"stt_status":     status,
		}},
	)
	return err
}

func (r *chunkRepo) UpdateRewrite(ctx context.Context, sessionID string, chunkIndex int64, text string, status string, processingMS int64) error {
	_, err := r.col.UpdateOne(ctx,
		bson.M{"session_id": sessionID, "chunk_index": chunkIndex},
		bson.M{"$set": bson.M{
			"rewrite_text":       text,
			"rewrite_status":     status,
			"processing_time_ms": processingMS,
		}},
	)
	return err
}

func (r *chunkRepo) ListBySession(ctx context.Context, sessionID string, limit int64) ([]models.LiveChunk, error) {
	if limit <= 0 {
		limit = 200
	}

	cur, err := r.col.Find(ctx,
		bson.M{"session_id": sessionID},
		options.Find().
			SetSort(bson.D{{Key: "chunk_index", Value: 1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.LiveChunk
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
