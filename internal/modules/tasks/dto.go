package tasks

import (
	"time"

	"taskflow/internal/domain"
)

type CreateTaskRequest struct {
	Title         string     `json:"title" binding:"required,max=200"`
	Description   string     `json:"description" binding:"max=1000"`
	Status        string     `json:"status"`
	Priority      string     `json:"priority"`
	DueDate       *time.Time `json:"dueDate"`
	Tags          []string   `json:"tags"`
	EstimatedTime *int       `json:"estimatedTime"`
	IsImportant   *bool      `json:"isImportant"`
}

// UpdateTaskRequest is a partial update: nil fields are left unchanged.
type UpdateTaskRequest struct {
	Title         *string    `json:"title"`
	Description   *string    `json:"description"`
	Status        *string    `json:"status"`
	Priority      *string    `json:"priority"`
	DueDate       *time.Time `json:"dueDate"`
	Tags          []string   `json:"tags"`
	EstimatedTime *int       `json:"estimatedTime"`
	ActualTime    *int       `json:"actualTime"`
	IsImportant   *bool      `json:"isImportant"`
}

type PositionRequest struct {
	Position *int   `json:"position" binding:"required"`
	Status   string `json:"status" binding:"required"`
}

type TimeRequest struct {
	ActualTime *int `json:"actualTime" binding:"required"`
}

type ListQuery struct {
	Status   string `form:"status"`
	Priority string `form:"priority"`
	Search   string `form:"search"`
	Page     int    `form:"page,default=1"`
	Limit    int    `form:"limit,default=20"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type ListResponse struct {
	Tasks      []domain.Task `json:"tasks"`
	Pagination Pagination    `json:"pagination"`
}

type StatsSummary struct {
	Total        int64 `json:"total"`
	Completed    int64 `json:"completed"`
	InProgress   int64 `json:"inProgress"`
	Todo         int64 `json:"todo"`
	HighPriority int64 `json:"highPriority"`
}

type StatsRates struct {
	CompletionRate int `json:"completionRate"`
}

type StatsResponse struct {
	Summary     StatsSummary `json:"summary"`
	Rates       StatsRates   `json:"rates"`
	LastUpdated time.Time    `json:"lastUpdated"`
}
