package tasks

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"taskflow/internal/domain"
	"taskflow/internal/repository"

	"gorm.io/gorm"
)

const (
	defaultPageLimit = 20
	maxPageLimit     = 100
)

// Service contains all business logic for tasks. Every operation is scoped
// by the owning user id; a task of another user behaves exactly like a
// missing one.
type Service struct {
	tasks TaskRepositoryInterface
}

func NewService(tasks TaskRepositoryInterface) *Service {
	return &Service{tasks: tasks}
}

func (s *Service) List(ctx context.Context, userID int64, q ListQuery) (*ListResponse, error) {
	filter := repository.TaskFilter{
		Search: strings.TrimSpace(q.Search),
		Page:   q.Page,
		Limit:  q.Limit,
	}
	if q.Status != "" {
		status := domain.TaskStatus(q.Status)
		if !status.Valid() {
			return nil, &ValidationError{Field: "status", Message: "must be one of: todo, in-progress, completed"}
		}
		filter.Status = status
	}
	if q.Priority != "" {
		priority := domain.TaskPriority(q.Priority)
		if !priority.Valid() {
			return nil, &ValidationError{Field: "priority", Message: "must be one of: low, medium, high"}
		}
		filter.Priority = priority
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > maxPageLimit {
		filter.Limit = defaultPageLimit
	}

	items, total, err := s.tasks.List(ctx, userID, filter)
	if err != nil {
		return nil, err
	}

	return &ListResponse{
		Tasks: items,
		Pagination: Pagination{
			Page:       filter.Page,
			Limit:      filter.Limit,
			Total:      total,
			TotalPages: int(math.Ceil(float64(total) / float64(filter.Limit))),
		},
	}, nil
}

func (s *Service) Get(ctx context.Context, id, userID int64) (*domain.Task, error) {
	task, err := s.tasks.GetByID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, err
	}
	return task, nil
}

func (s *Service) Create(ctx context.Context, userID int64, req CreateTaskRequest) (*domain.Task, error) {
	task := &domain.Task{
		Title:       strings.TrimSpace(req.Title),
		Description: strings.TrimSpace(req.Description),
		Status:      domain.StatusTodo,
		Priority:    domain.PriorityMedium,
		DueDate:     req.DueDate,
		Tags:        req.Tags,
		UserID:      userID,
	}
	if req.Status != "" {
		task.Status = domain.TaskStatus(req.Status)
	}
	if req.Priority != "" {
		task.Priority = domain.TaskPriority(req.Priority)
	}
	if req.EstimatedTime != nil {
		task.EstimatedTime = *req.EstimatedTime
	}
	if req.IsImportant != nil {
		task.IsImportant = *req.IsImportant
	}

	if err := validateTask(task, true); err != nil {
		return nil, err
	}

	// New tasks go to the end of the user's ordering.
	maxPos, err := s.tasks.MaxPosition(ctx, userID)
	if err != nil {
		return nil, err
	}
	task.Position = maxPos + 1

	if err := s.tasks.Create(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Service) Update(ctx context.Context, id, userID int64, req UpdateTaskRequest) (*domain.Task, error) {
	task, err := s.Get(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if req.Title != nil {
		task.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		task.Description = strings.TrimSpace(*req.Description)
	}
	if req.Status != nil {
		task.Status = domain.TaskStatus(*req.Status)
	}
	if req.Priority != nil {
		task.Priority = domain.TaskPriority(*req.Priority)
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	if req.Tags != nil {
		task.Tags = req.Tags
	}
	if req.EstimatedTime != nil {
		task.EstimatedTime = *req.EstimatedTime
	}
	if req.ActualTime != nil {
		task.ActualTime = *req.ActualTime
	}
	if req.IsImportant != nil {
		task.IsImportant = *req.IsImportant
	}

	// The due date may already lie in the past here: "must be future" is a
	// creation-time rule only.
	if err := validateTask(task, false); err != nil {
		return nil, err
	}

	if err := s.tasks.Save(ctx, task); err != nil {
		return nil, err
	}
	return task, nil
}

func (s *Service) Delete(ctx context.Context, id, userID int64) error {
	if err := s.tasks.Delete(ctx, id, userID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return err
	}
	return nil
}

func (s *Service) UpdatePosition(ctx context.Context, id, userID int64, position int, status string) error {
	st := domain.TaskStatus(status)
	if !st.Valid() {
		return &ValidationError{Field: "status", Message: "must be one of: todo, in-progress, completed"}
	}
	if err := s.tasks.UpdatePosition(ctx, id, userID, position, st); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return err
	}
	return nil
}

func (s *Service) UpdateTime(ctx context.Context, id, userID int64, actualTime int) error {
	if actualTime < 0 {
		return &ValidationError{Field: "actualTime", Message: "must be positive"}
	}
	if err := s.tasks.UpdateActualTime(ctx, id, userID, actualTime); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrTaskNotFound
		}
		return err
	}
	return nil
}

func (s *Service) Stats(ctx context.Context, userID int64) (*StatsResponse, error) {
	stats, err := s.tasks.Stats(ctx, userID)
	if err != nil {
		return nil, err
	}

	completionRate := 0
	if stats.Total > 0 {
		completionRate = int(math.Round(float64(stats.Completed) / float64(stats.Total) * 100))
	}

	return &StatsResponse{
		Summary: StatsSummary{
			Total:        stats.Total,
			Completed:    stats.Completed,
			InProgress:   stats.InProgress,
			Todo:         stats.Todo,
			HighPriority: stats.HighPriority,
		},
		Rates:       StatsRates{CompletionRate: completionRate},
		LastUpdated: time.Now(),
	}, nil
}

func validateTask(t *domain.Task, creating bool) error {
	if t.Title == "" {
		return &ValidationError{Field: "title", Message: "Title is required"}
	}
	if len(t.Title) > domain.MaxTitleLen {
		return &ValidationError{Field: "title", Message: "Title cannot be more than 200 characters"}
	}
	if len(t.Description) > domain.MaxDescriptionLen {
		return &ValidationError{Field: "description", Message: "Description cannot be more than 1000 characters"}
	}
	if !t.Status.Valid() {
		return &ValidationError{Field: "status", Message: "must be one of: todo, in-progress, completed"}
	}
	if !t.Priority.Valid() {
		return &ValidationError{Field: "priority", Message: "must be one of: low, medium, high"}
	}
	if creating && t.DueDate != nil && !t.DueDate.After(time.Now()) {
		return &ValidationError{Field: "dueDate", Message: "Due date must be in the future"}
	}
	if t.EstimatedTime < 0 {
		return &ValidationError{Field: "estimatedTime", Message: "must be positive"}
	}
	if t.ActualTime < 0 {
		return &ValidationError{Field: "actualTime", Message: "must be positive"}
	}
	return nil
}
