package models

import (
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"gorm.io/datatypes"
)

type ReportKind string

const (
	ReportAnalysis ReportKind = "analysis"
	ReportHumanize ReportKind = "humanize"
)

type Report struct {
	ID     string     `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID string     `gorm:"column:user_id;type:uuid;index" json:"user_id"`
	Kind   ReportKind `gorm:"column:kind;type:text" json:"kind"`

	FileName     string `gorm:"column:file_name;type:text" json:"file_name"`
	SourceDigest string `gorm:"column:source_digest;type:text;index" json:"source_digest"`

	PlagiarismScore float64 `gorm:"column:plagiarism_score;type:double precision" json:"plagiarism_score"`
	AIScore         float64 `gorm:"column:ai_score;type:double precision" json:"ai_score"`
	Critique        string  `gorm:"column:critique;type:text" json:"critique"`

	// JSONB, stored as raw JSON so the shape can evolve
	Issues    datatypes.JSON `gorm:"column:issues;type:jsonb" json:"issues"`
	Forensics datatypes.JSON `gorm:"column:forensics;type:jsonb" json:"forensics"`
	Metadata  datatypes.JSON `gorm:"column:metadata;type:jsonb" json:"metadata"`

	RewrittenPath string         `gorm:"column:rewritten_path;type:text" json:"rewritten_path,omitempty"`
	Improvements  pq.StringArray `gorm:"column:improvements;type:text[]" json:"improvements,omitempty"`

	// pgvector
	Fingerprint pgvector.Vector `gorm:"column:fingerprint;type:vector(256)" json:"fingerprint"`

	CreatedAt time.Time `gorm:"column:created_at;type:timestamptz;index" json:"created_at"`
}

func (Report) TableName() string { return "reports" }
