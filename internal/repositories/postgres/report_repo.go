package postgres

import (
	"context"
	"errors"

	"github.com/pgvector/pgvector-go"
	"github.com/plagiafix/plagiafix/internal/models"
	"github.com/plagiafix/plagiafix/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type ReportRepository interface {
	Insert(ctx context.Context, rep *models.Report) error
	GetByID(ctx context.Context, userID, id string) (*models.Report, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Report, error)
	// NearestByFingerprint finds earlier reports whose document fingerprint
	// is close to vec, cosine distance ascending.
	NearestByFingerprint(ctx context.Context, userID string, vec pgvector.Vector, limit int) ([]models.Report, error)
}

type reportRepo struct {
	db *gorm.DB
}

func NewReportRepo(db *gorm.DB) ReportRepository {
	return &reportRepo{db: db}
}

func (r *reportRepo) Insert(ctx context.Context, rep *models.Report) error {
	return r.db.WithContext(ctx).Create(rep).Error
}

func (r *reportRepo) GetByID(ctx context.Context, userID, id string) (*models.Report, error) {
	var row models.Report
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Take(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, utils.ErrNotFound
	}
	return &row, err
}

func (r *reportRepo) ListByUser(ctx context.Context, userID string, limit int) ([]models.Report, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []models.Report
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}

func (r *reportRepo) NearestByFingerprint(ctx context.Context, userID string, vec pgvector.Vector, limit int) ([]models.Report, error) {
	if limit <= 0 {
		limit = 5
	}

	var rows []models.Report
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Clauses(clause.OrderBy{
			Expression: clause.Expr{SQL: "fingerprint <=> ?", Vars: []interface{}{vec}},
		}).
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
