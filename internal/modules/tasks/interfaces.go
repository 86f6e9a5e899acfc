package tasks

import (
	"context"

	"taskflow/internal/domain"
	"taskflow/internal/repository"
)

// TaskRepositoryInterface — only the methods the task service uses
type TaskRepositoryInterface interface {
	Create(ctx context.Context, t *domain.Task) error
	GetByID(ctx context.Context, id, userID int64) (*domain.Task, error)
	List(ctx context.Context, userID int64, f repository.TaskFilter) ([]domain.Task, int64, error)
	Save(ctx context.Context, t *domain.Task) error
	Delete(ctx context.Context, id, userID int64) error
	MaxPosition(ctx context.Context, userID int64) (int, error)
	UpdatePosition(ctx context.Context, id, userID int64, position int, status domain.TaskStatus) error
	UpdateActualTime(ctx context.Context, id, userID int64, actualTime int) error
	Stats(ctx context.Context, userID int64) (*repository.TaskStats, error)
}
