package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/plagiafix/plagiafix/internal/models"
	"github.com/plagiafix/plagiafix/internal/utils"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type CreditRepository interface {
	Balance(ctx context.Context, userID string) (int64, error)
	// Apply records a ledger entry and moves the balance in one transaction.
	// A negative delta fails with INSUFFICIENT_CREDITS instead of going below
	// zero. A duplicate non-empty reference fails with CONFLICT.
	Apply(ctx context.Context, entry *models.CreditEntry) (int64, error)
	History(ctx context.Context, userID string, limit int) ([]models.CreditEntry, error)
}

type creditRepo struct {
	db *gorm.DB
}

func NewCreditRepo(db *gorm.DB) CreditRepository {
	return &creditRepo{db: db}
}

func (r *creditRepo) Balance(ctx context.Context, userID string) (int64, error) {
	var acc models.Account
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Take(&acc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	return acc.Credits, err
}

func (r *creditRepo) Apply(ctx context.Context, entry *models.CreditEntry) (int64, error) {
	const op = "CreditRepo.Apply"

	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}

	var balance int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if entry.Reference != "" {
			var count int64
			if err := tx.Model(&models.CreditEntry{}).
				Where("reference = ?", entry.Reference).
				Count(&count).Error; err != nil {
				return err
			}
			if count > 0 {
				return utils.E(utils.CodeConflict, op, "reference already credited", nil)
			}
		}

		var acc models.Account
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ?", entry.UserID).
			Take(&acc).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			acc = models.Account{UserID: entry.UserID}
			if err := tx.Create(&acc).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		next := acc.Credits + entry.Delta
		if next < 0 {
			return utils.E(utils.CodeInsufficient, op, "not enough credits", nil)
		}

		if err := tx.Create(entry).Error; err != nil {
			return err
		}
		if err := tx.Model(&models.Account{}).
			Where("user_id = ?", entry.UserID).
			Updates(map[string]interface{}{
				"credits":    next,
				"updated_at": time.Now().UTC(),
			}).Error; err != nil {
			return err
		}

		balance = next
		return nil
	})
	return balance, err
}

func (r *creditRepo) History(ctx context.Context, userID string, limit int) ([]models.CreditEntry, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows []models.CreditEntry
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Limit(limit).
		Find(&rows).Error
	return rows, err
}
