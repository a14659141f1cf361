// Package board exposes the in-process API over the local cache:
// repositories for tasks and contacts, the free-text filter and the
// column projection. Every mutation writes through the cache exactly
// once and then schedules a best-effort remote push.
package board

import (
	"context"
	"strings"
	"sync"

	"github.com/google/uuid"

	"join-board/domain"
	"join-board/storage"
)

// TaskSyncer schedules a push of the task collection after a local
// mutation.
type TaskSyncer interface {
	ScheduleTasksPush()
}

// CreateTaskInput carries the fields of a task create request.
// SubtaskText is free text split into at most three subtask titles.
type CreateTaskInput struct {
	Title       string              `json:"title"`
	Description string              `json:"description"`
	DueDate     string              `json:"dueDate"`
	Category    domain.TaskCategory `json:"category"`
	Priority    domain.TaskPriority `json:"priority"`
	Status      domain.TaskStatus   `json:"status"`
	Assigned    []string            `json:"assigned"`
	SubtaskText string              `json:"subtaskText"`
}

// TaskRepository implements task CRUD and status transitions. A mutex
// serializes mutations, standing in for the single-threaded event loop
// the board UI drives it from: two mutations never interleave
// mid-operation.
type TaskRepository struct {
	cache  *storage.Cache
	syncer TaskSyncer
	mu     sync.Mutex
}

// NewTaskRepository creates a repository over the given cache.
func NewTaskRepository(cache *storage.Cache, syncer TaskSyncer) *TaskRepository {
	if cache == nil {
		panic("board.NewTaskRepository: cache is required")
	}
	if syncer == nil {
		panic("board.NewTaskRepository: syncer is required")
	}
	return &TaskRepository{cache: cache, syncer: syncer}
}

// All returns the full task collection.
func (r *TaskRepository) All() []domain.Task {
	return r.cache.Tasks()
}

// Get returns the task with the given id.
func (r *TaskRepository) Get(id string) (domain.Task, error) {
	for _, t := range r.cache.Tasks() {
		if t.ID == id {
			return t, nil
		}
	}
	return domain.Task{}, &domain.NotFoundError{Entity: "task", ID: id}
}

// Create validates the input, assigns a fresh id and appends the task.
// Status defaults to todo when the caller context supplies none,
// priority to medium. Validation failures perform no write.
func (r *TaskRepository) Create(ctx context.Context, input CreateTaskInput) (domain.Task, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return domain.Task{}, &domain.ValidationError{Field: "title", Reason: "required"}
	}
	dueDate := strings.TrimSpace(input.DueDate)
	if dueDate == "" {
		return domain.Task{}, &domain.ValidationError{Field: "dueDate", Reason: "required"}
	}
	if input.Category == "" {
		return domain.Task{}, &domain.ValidationError{Field: "category", Reason: "required"}
	}
	if !domain.KnownCategory(input.Category) {
		return domain.Task{}, &domain.ValidationError{Field: "category", Reason: "unknown category"}
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !domain.KnownPriority(priority) {
		return domain.Task{}, &domain.ValidationError{Field: "priority", Reason: "unknown priority"}
	}
	status := input.Status
	if status == "" {
		status = domain.StatusTodo
	}
	if !domain.KnownStatus(status) {
		return domain.Task{}, &domain.ValidationError{Field: "status", Reason: "unknown workflow stage"}
	}

	task := domain.Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		DueDate:     dueDate,
		Category:    input.Category,
		Priority:    priority,
		Status:      status,
		Assigned:    append([]string(nil), input.Assigned...),
		Subtasks:    domain.ParseSubtaskTitles(input.SubtaskText, domain.MaxSubtasksAtCreation),
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	tasks := append(r.cache.Tasks(), task)
	r.cache.PutTasks(ctx, tasks)
	r.syncer.ScheduleTasksPush()
	return task, nil
}

// Update merges the patch into an existing task. Fields absent from
// the patch keep their prior values.
func (r *TaskRepository) Update(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, error) {
	if err := patch.Validate(); err != nil {
		return domain.Task{}, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	tasks := r.cache.Tasks()
	for i := range tasks {
		if tasks[i].ID != id {
			continue
		}
		patch.Apply(&tasks[i])
		updated := tasks[i]
		r.cache.PutTasks(ctx, tasks)
		r.syncer.ScheduleTasksPush()
		return updated, nil
	}
	return domain.Task{}, &domain.NotFoundError{Entity: "task", ID: id}
}

// Remove deletes a task. Removing a missing id reports not-found and
// changes nothing, so a second call on the same id is safe.
func (r *TaskRepository) Remove(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	tasks := r.cache.Tasks()
	for i := range tasks {
		if tasks[i].ID != id {
			continue
		}
		tasks = append(tasks[:i], tasks[i+1:]...)
		r.cache.PutTasks(ctx, tasks)
		r.syncer.ScheduleTasksPush()
		return nil
	}
	return &domain.NotFoundError{Entity: "task", ID: id}
}

// SetStatus moves a task to another workflow stage. Setting the
// current stage again is a no-op write that still persists and syncs.
func (r *TaskRepository) SetStatus(ctx context.Context, id string, status domain.TaskStatus) (domain.Task, error) {
	if !domain.KnownStatus(status) {
		return domain.Task{}, &domain.ValidationError{Field: "status", Reason: "unknown workflow stage"}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	tasks := r.cache.Tasks()
	for i := range tasks {
		if tasks[i].ID != id {
			continue
		}
		tasks[i].Status = status
		moved := tasks[i]
		r.cache.PutTasks(ctx, tasks)
		r.syncer.ScheduleTasksPush()
		return moved, nil
	}
	return domain.Task{}, &domain.NotFoundError{Entity: "task", ID: id}
}

// ToggleSubtask flips the done flag of the addressed subtask. An
// out-of-range index changes nothing.
func (r *TaskRepository) ToggleSubtask(ctx context.Context, id string, index int) (domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	tasks := r.cache.Tasks()
	for i := range tasks {
		if tasks[i].ID != id {
			continue
		}
		if index < 0 || index >= len(tasks[i].Subtasks) {
			return tasks[i], nil
		}
		tasks[i].Subtasks[index].Done = !tasks[i].Subtasks[index].Done
		toggled := tasks[i]
		r.cache.PutTasks(ctx, tasks)
		r.syncer.ScheduleTasksPush()
		return toggled, nil
	}
	return domain.Task{}, &domain.NotFoundError{Entity: "task", ID: id}
}
