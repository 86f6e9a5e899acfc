package client

import "time"

// Plain data objects mirroring the wire contract. The client deliberately
// has its own copies so it can be consumed without the server packages.

type User struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Email     string `json:"email"`
	Role      string `json:"role"`
	CreatedAt string `json:"createdAt"`
}

type Task struct {
	ID            int64      `json:"id"`
	Title         string     `json:"title"`
	Description   string     `json:"description"`
	Status        string     `json:"status"`
	Priority      string     `json:"priority"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	Position      int        `json:"position"`
	EstimatedTime int        `json:"estimatedTime"`
	ActualTime    int        `json:"actualTime"`
	IsImportant   bool       `json:"isImportant"`

	// localID identifies a provisional task until the server assigns a real
	// id. Never serialized.
	localID string
}

// Provisional reports whether the task only exists locally so far.
func (t Task) Provisional() bool { return t.ID == 0 && t.localID != "" }

// TaskPatch is a partial mutation; nil fields keep their current value.
type TaskPatch struct {
	Title         *string    `json:"title,omitempty"`
	Description   *string    `json:"description,omitempty"`
	Status        *string    `json:"status,omitempty"`
	Priority      *string    `json:"priority,omitempty"`
	DueDate       *time.Time `json:"dueDate,omitempty"`
	Tags          []string   `json:"tags,omitempty"`
	EstimatedTime *int       `json:"estimatedTime,omitempty"`
	ActualTime    *int       `json:"actualTime,omitempty"`
	IsImportant   *bool      `json:"isImportant,omitempty"`
}

type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
}

type StatsSummary struct {
	Total        int64 `json:"total"`
	Completed    int64 `json:"completed"`
	InProgress   int64 `json:"inProgress"`
	Todo         int64 `json:"todo"`
	HighPriority int64 `json:"highPriority"`
}

type Stats struct {
	Summary StatsSummary `json:"summary"`
	Rates   struct {
		CompletionRate int `json:"completionRate"`
	} `json:"rates"`
}

type ListOptions struct {
	Status   string
	Priority string
	Search   string
	Page     int
	Limit    int
}
