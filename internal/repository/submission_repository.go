package repository

import (
	"context"

	"line-intake-bot/internal/entity"

	"github.com/google/uuid"
)

type SubmissionRepository interface {
	Create(ctx context.Context, submission *entity.Submission) error
	FindByID(ctx context.Context, id uuid.UUID) (*entity.Submission, error)
	FindAll(ctx context.Context, status string, limit, offset int) ([]entity.Submission, int64, error)
	MarkDelivered(ctx context.Context, id uuid.UUID, attempts int) error
	MarkFailed(ctx context.Context, id uuid.UUID, attempts int, lastError string) error
}
