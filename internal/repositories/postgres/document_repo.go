package postgres

import (
	"context"

	"github.com/plagiafix/plagiafix/internal/models"
	"gorm.io/gorm"
)

type DocumentRepository interface {
	Insert(ctx context.Context, d *models.Document) error
	LatestByUser(ctx context.Context, userID string) (*models.Document, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]models.Document, error)
}

type documentRepo struct {
	db *gorm.DB
}

func NewDocumentRepo(db *gorm.DB) DocumentRepository {
	return &documentRepo{db: db}
}

func (r *documentRepo) Insert(ctx context.Context, d *models.Document) error {
	return r.db.WithContext(ctx).Create(d).Error
}

func (r *documentRepo) LatestByUser(ctx context.Context, userID string) (*models.Document, error) {
	var row models.Document
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("upload_at DESC").
		Take(&row).Error
	return &row, err
}

func (r *documentRepo) ListByUser(ctx context.Context, userID string, limit int) ([]models.Document, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []models.Document
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("upload_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
