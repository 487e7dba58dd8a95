package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/noah-isme/enrollment-api/internal/models"
)

type actionLogRepository struct {
	db *gorm.DB
}

// NewActionLogRepository constructs the action log repository.
func NewActionLogRepository(db *gorm.DB) ActionLogRepository {
	return &actionLogRepository{db: db}
}

func (r *actionLogRepository) Append(ctx context.Context, entry *models.ActionLog) error {
	return translateError(r.db.WithContext(ctx).Create(entry).Error)
}

func (r *actionLogRepository) List(ctx context.Context, filter ActionLogFilter) ([]models.ActionLog, error) {
	query := r.db.WithContext(ctx).Model(&models.ActionLog{})

	if filter.Action != "" {
		query = query.Where("action = ?", filter.Action)
	}

	if filter.PerformedBy != "" {
		query = query.Where("performed_by = ?", filter.PerformedBy)
	}

	if filter.Limit > 0 {
		query = query.Limit(filter.Limit)
	}

	var entries []models.ActionLog
	if err := query.Order("created_at DESC").Order("id DESC").Find(&entries).Error; err != nil {
		return nil, translateError(err)
	}

	return entries, nil
}
