package client

import (
	"context"
	"math"
	"net/http"
	"strconv"
	"sync"

	"github.com/google/uuid"
)

// TaskSync is the optimistic mutation layer over the task API: every
// mutation is applied to the local list immediately and reconciled or rolled
// back when the server answers. The UI can therefore render from Tasks()
// without waiting for the network.
type TaskSync struct {
	client *Client

	mu    sync.Mutex
	tasks []Task
}

func NewTaskSync(c *Client) *TaskSync {
	return &TaskSync{client: c}
}

// Tasks returns a snapshot of the local list.
func (s *TaskSync) Tasks() []Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// Load replaces the local list with the server's view.
func (s *TaskSync) Load(ctx context.Context, opts ListOptions) (*Pagination, error) {
	var payload struct {
		Tasks      []Task     `json:"tasks"`
		Pagination Pagination `json:"pagination"`
	}
	err := s.client.do(ctx, http.MethodGet, "/tasks"+listQuery(opts), nil, &payload)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.tasks = payload.Tasks
	s.mu.Unlock()
	return &payload.Pagination, nil
}

// Create prepends a provisional task immediately. On success the provisional
// entry is swapped for the server copy (which carries the real id and
// position); on failure it is removed again.
func (s *TaskSync) Create(ctx context.Context, draft Task) (*Task, error) {
	provisional := draft
	provisional.ID = 0
	provisional.localID = uuid.NewString()
	if provisional.Status == "" {
		provisional.Status = "todo"
	}
	if provisional.Priority == "" {
		provisional.Priority = "medium"
	}

	s.mu.Lock()
	s.tasks = append([]Task{provisional}, s.tasks...)
	s.mu.Unlock()

	var created Task
	err := s.client.do(ctx, http.MethodPost, "/tasks", map[string]any{
		"title":         draft.Title,
		"description":   draft.Description,
		"status":        provisional.Status,
		"priority":      provisional.Priority,
		"dueDate":       draft.DueDate,
		"tags":          draft.Tags,
		"estimatedTime": draft.EstimatedTime,
		"isImportant":   draft.IsImportant,
	}, &created)

	s.mu.Lock()
	defer s.mu.Unlock()
	if err != nil {
		s.removeLocalLocked(provisional.localID)
		return nil, err
	}
	for i := range s.tasks {
		if s.tasks[i].localID == provisional.localID {
			s.tasks[i] = created
			break
		}
	}
	return &created, nil
}

// Update applies the patch locally, then sends the full merged record rather
// than the patch alone — a partial payload could fail the server's
// validation of fields the user never touched. On failure the snapshot is
// restored.
func (s *TaskSync) Update(ctx context.Context, id int64, patch TaskPatch) (*Task, error) {
	s.mu.Lock()
	idx := s.indexLocked(id)
	if idx < 0 {
		s.mu.Unlock()
		return nil, &APIError{StatusCode: http.StatusNotFound, Message: "task not found"}
	}
	snapshot := s.tasks[idx]
	merged := applyPatch(snapshot, patch)
	s.tasks[idx] = merged
	s.mu.Unlock()

	var updated Task
	err := s.client.do(ctx, http.MethodPut, "/tasks/"+formatID(id), fullPayload(merged), &updated)

	s.mu.Lock()
	defer s.mu.Unlock()
	idx = s.indexLocked(id)
	if err != nil {
		if idx >= 0 {
			s.tasks[idx] = snapshot
		}
		return nil, err
	}
	if idx >= 0 {
		s.tasks[idx] = updated
	}
	return &updated, nil
}

// Delete removes the task locally before the server confirms. There is no
// rollback when the server call fails; the entry stays gone until the next
// Load.
func (s *TaskSync) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	if idx := s.indexLocked(id); idx >= 0 {
		s.tasks = append(s.tasks[:idx], s.tasks[idx+1:]...)
	}
	s.mu.Unlock()

	return s.client.do(ctx, http.MethodDelete, "/tasks/"+formatID(id), nil, nil)
}

// Move updates position and status, fire-and-forget: the local order is not
// restored when the server call fails.
func (s *TaskSync) Move(ctx context.Context, id int64, position int, status string) error {
	s.mu.Lock()
	if idx := s.indexLocked(id); idx >= 0 {
		s.tasks[idx].Position = position
		s.tasks[idx].Status = status
	}
	s.mu.Unlock()

	return s.client.do(ctx, http.MethodPatch, "/tasks/"+formatID(id)+"/position",
		map[string]any{"position": position, "status": status}, nil)
}

// LogTime records actual time spent on a task.
func (s *TaskSync) LogTime(ctx context.Context, id int64, actualTime int) error {
	s.mu.Lock()
	if idx := s.indexLocked(id); idx >= 0 {
		s.tasks[idx].ActualTime = actualTime
	}
	s.mu.Unlock()

	return s.client.do(ctx, http.MethodPatch, "/tasks/"+formatID(id)+"/time",
		map[string]any{"actualTime": actualTime}, nil)
}

// Stats fetches the server aggregates. When the fetch fails it falls back to
// aggregates computed from the local list so the caller never sees a blank
// state; the second return value reports whether the numbers are server
// truth. The fallback can diverge from the server (the local list is capped
// by pagination).
func (s *TaskSync) Stats(ctx context.Context) (*Stats, bool) {
	var stats Stats
	err := s.client.do(ctx, http.MethodGet, "/tasks/stats/summary", nil, &stats)
	if err == nil {
		return &stats, true
	}
	return s.localStats(), false
}

func (s *TaskSync) localStats() *Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := &Stats{}
	for _, t := range s.tasks {
		stats.Summary.Total++
		switch t.Status {
		case "completed":
			stats.Summary.Completed++
		case "in-progress":
			stats.Summary.InProgress++
		case "todo":
			stats.Summary.Todo++
		}
		if t.Priority == "high" {
			stats.Summary.HighPriority++
		}
	}
	if stats.Summary.Total > 0 {
		stats.Rates.CompletionRate = int(math.Round(float64(stats.Summary.Completed) / float64(stats.Summary.Total) * 100))
	}
	return stats
}

func (s *TaskSync) indexLocked(id int64) int {
	for i := range s.tasks {
		if s.tasks[i].ID == id {
			return i
		}
	}
	return -1
}

func (s *TaskSync) removeLocalLocked(localID string) {
	for i := range s.tasks {
		if s.tasks[i].localID == localID {
			s.tasks = append(s.tasks[:i], s.tasks[i+1:]...)
			return
		}
	}
}

func applyPatch(t Task, p TaskPatch) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.DueDate != nil {
		t.DueDate = p.DueDate
	}
	if p.Tags != nil {
		t.Tags = p.Tags
	}
	if p.EstimatedTime != nil {
		t.EstimatedTime = *p.EstimatedTime
	}
	if p.ActualTime != nil {
		t.ActualTime = *p.ActualTime
	}
	if p.IsImportant != nil {
		t.IsImportant = *p.IsImportant
	}
	return t
}

// fullPayload serializes every mutable field of the merged record.
func fullPayload(t Task) map[string]any {
	return map[string]any{
		"title":         t.Title,
		"description":   t.Description,
		"status":        t.Status,
		"priority":      t.Priority,
		"dueDate":       t.DueDate,
		"tags":          t.Tags,
		"estimatedTime": t.EstimatedTime,
		"actualTime":    t.ActualTime,
		"isImportant":   t.IsImportant,
	}
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}
