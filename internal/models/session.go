package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type LiveSession struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SessionID string             `bson:"session_id" json:"session_id"` // uuid v4
	UserID    string             `bson:"user_id" json:"user_id"`       // uuid from Supabase Auth

	Mode    string          `bson:"mode" json:"mode"`       // dictation|readback
	Dialect string          `bson:"dialect" json:"dialect"` // en-US|en-GB|en-AU
	Status  string          `bson:"status" json:"status"`   // active|ended|paused
	Options LiveSessionOpts `bson:"options,omitempty" json:"options,omitempty"`

	CreatedAt time.Time  `bson:"created_at" json:"created_at"`
	EndedAt   *time.Time `bson:"ended_at,omitempty" json:"ended_at,omitempty"`

	DurationSeconds int64 `bson:"duration_seconds" json:"duration_seconds"`
	Turns           int64 `bson:"turns" json:"turns"`
}

type LiveSessionOpts struct {
	Style     string `bson:"style,omitempty" json:"style,omitempty"`
	Citations bool   `bson:"citations,omitempty" json:"citations,omitempty"`
}
