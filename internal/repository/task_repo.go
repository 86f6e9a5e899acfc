package repository

import (
	"context"
	"strings"
	"time"

	"taskflow/internal/domain"

	"gorm.io/gorm"
)

type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// TaskFilter narrows List results. Zero values mean "no filter".
type TaskFilter struct {
	Status   domain.TaskStatus
	Priority domain.TaskPriority
	Search   string
	Page     int
	Limit    int
}

// TaskStats mirrors the stats summary endpoint.
type TaskStats struct {
	Total        int64
	Completed    int64
	InProgress   int64
	Todo         int64
	HighPriority int64
}

func (r *TaskRepository) Create(ctx context.Context, t *domain.Task) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *TaskRepository) GetByID(ctx context.Context, id, userID int64) (*domain.Task, error) {
	var t domain.Task
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepository) List(ctx context.Context, userID int64, f TaskFilter) ([]domain.Task, int64, error) {
	q := r.db.WithContext(ctx).Model(&domain.Task{}).Where("user_id = ?", userID)

	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.Priority != "" {
		q = q.Where("priority = ?", f.Priority)
	}
	if f.Search != "" {
		like := "%" + strings.ToLower(f.Search) + "%"
		q = q.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ?", like, like)
	}

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (f.Page - 1) * f.Limit
	tasks := make([]domain.Task, 0, f.Limit)
	err := q.Order("created_at DESC").Offset(offset).Limit(f.Limit).Find(&tasks).Error
	if err != nil {
		return nil, 0, err
	}
	return tasks, total, nil
}

func (r *TaskRepository) Save(ctx context.Context, t *domain.Task) error {
	return r.db.WithContext(ctx).Save(t).Error
}

// Delete removes a task permanently. Returns gorm.ErrRecordNotFound when no
// row matched, so callers can map it to a 404.
func (r *TaskRepository) Delete(ctx context.Context, id, userID int64) error {
	res := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&domain.Task{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// MaxPosition returns the highest ordering index among the user's tasks, or
// -1 when the user has none yet.
func (r *TaskRepository) MaxPosition(ctx context.Context, userID int64) (int, error) {
	var max *int
	err := r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("user_id = ?", userID).
		Select("MAX(position)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	if max == nil {
		return -1, nil
	}
	return *max, nil
}

func (r *TaskRepository) UpdatePosition(ctx context.Context, id, userID int64, position int, status domain.TaskStatus) error {
	res := r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{"position": position, "status": status, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *TaskRepository) UpdateActualTime(ctx context.Context, id, userID int64, actualTime int) error {
	res := r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("id = ? AND user_id = ?", id, userID).
		Updates(map[string]any{"actual_time": actualTime, "updated_at": time.Now()})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *TaskRepository) Stats(ctx context.Context, userID int64) (*TaskStats, error) {
	stats := &TaskStats{}

	type row struct {
		Status string
		Count  int64
	}
	var rows []row
	err := r.db.WithContext(ctx).Model(&domain.Task{}).
		Select("status, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	for _, rw := range rows {
		stats.Total += rw.Count
		switch domain.TaskStatus(rw.Status) {
		case domain.StatusCompleted:
			stats.Completed = rw.Count
		case domain.StatusInProgress:
			stats.InProgress = rw.Count
		case domain.StatusTodo:
			stats.Todo = rw.Count
		}
	}

	err = r.db.WithContext(ctx).Model(&domain.Task{}).
		Where("user_id = ? AND priority = ?", userID, domain.PriorityHigh).
		Count(&stats.HighPriority).Error
	if err != nil {
		return nil, err
	}
	return stats, nil
}
