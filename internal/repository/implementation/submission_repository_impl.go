package implementation

import (
	"context"
	"errors"
	"time"

	"line-intake-bot/internal/entity"
	"line-intake-bot/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SubmissionRepositoryImpl struct {
	db *gorm.DB
}

func NewSubmissionRepository(db *gorm.DB) repository.SubmissionRepository {
	return &SubmissionRepositoryImpl{db: db}
}

func (r *SubmissionRepositoryImpl) Create(ctx context.Context, submission *entity.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *SubmissionRepositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*entity.Submission, error) {
	var submission entity.Submission
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&submission).Error
	if err != nil {
		return nil, err
	}
	return &submission, nil
}

func (r *SubmissionRepositoryImpl) FindAll(ctx context.Context, status string, limit, offset int) ([]entity.Submission, int64, error) {
	var submissions []entity.Submission
	var total int64

	db := r.db.WithContext(ctx).Model(&entity.Submission{})
	if status != "" {
		db = db.Where("status = ?", status)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	err := db.Order("submitted_at DESC").
		Limit(limit).
		Offset(offset).
		Find(&submissions).Error

	return submissions, total, err
}

func (r *SubmissionRepositoryImpl) MarkDelivered(ctx context.Context, id uuid.UUID, attempts int) error {
	now := time.Now()
	result := r.db.WithContext(ctx).
		Model(&entity.Submission{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       string(entity.DeliveryStatusDelivered),
			"attempts":     attempts,
			"last_error":   "",
			"delivered_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("submission not found")
	}
	return nil
}

func (r *SubmissionRepositoryImpl) MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastError string) error {
	result := r.db.WithContext(ctx).
		Model(&entity.Submission{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     string(entity.DeliveryStatusFailed),
			"attempts":   attempts,
			"last_error": lastError,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return errors.New("submission not found")
	}
	return nil
}
