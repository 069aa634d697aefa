package telemetry

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Recorder is the fire-and-forget event sink. Implementations must never
// let a recording failure reach the caller; the main flow does not depend
// on telemetry.
type Recorder interface {
	Record(event string, details map[string]any)
}

// Nop drops every event. Used in tests and when telemetry is disabled.
type Nop struct{}

func (Nop) Record(string, map[string]any) {}

// MongoRecorder writes events to a capped-by-TTL mongo collection in the
// background. Insert errors are logged at debug and swallowed.
type MongoRecorder struct {
	col *mongo.Collection
	log *logrus.Logger
	ttl time.Duration
}

func NewMongoRecorder(db *mongo.Database, log *logrus.Logger, ttl time.Duration) *MongoRecorder {
	if ttl <= 0 {
		ttl = 30 * 24 * time.Hour
	}
	return &MongoRecorder{col: db.Collection("telemetry_events"), log: log, ttl: ttl}
}

type eventDoc struct {
	Event     string         `bson:"event"`
	Details   map[string]any `bson:"details,omitempty"`
	Timestamp time.Time      `bson:"timestamp"`
	ExpiresAt time.Time      `bson:"expires_at"`
}

func (r *MongoRecorder) Record(event string, details map[string]any) {
	now := time.Now().UTC()
	doc := eventDoc{Event: event, Details: details, Timestamp: now, ExpiresAt: now.Add(r.ttl)}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := r.col.InsertOne(ctx, doc); err != nil && r.log != nil {
			r.log.WithError(err).WithField("event", event).Debug("telemetry insert failed")
		}
	}()
}

// Event is the read-side shape served to the admin dashboard.
type Event struct {
	Event     string         `bson:"event" json:"event"`
	Details   map[string]any `bson:"details,omitempty" json:"details,omitempty"`
	Timestamp time.Time      `bson:"timestamp" json:"timestamp"`
}

// Recent returns the latest events, optionally filtered by event name.
func (r *MongoRecorder) Recent(ctx context.Context, event string, limit int64) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}

	filter := bson.M{}
	if event != "" {
		filter["event"] = event
	}

	cur, err := r.col.Find(ctx, filter,
		options.Find().
			SetSort(bson.D{{Key: "timestamp", Value: -1}}).
			SetLimit(limit),
	)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []Event
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
