package domain

import (
	"strings"

	"github.com/bytedance/sonic"
)

// TaskStatus is the workflow stage a task currently occupies, i.e. the
// board column it belongs to.
type TaskStatus string

const (
	StatusTodo       TaskStatus = "todo"
	StatusInProgress TaskStatus = "inProgress"
	StatusReview     TaskStatus = "review"
	StatusDone       TaskStatus = "done"
)

// Statuses returns the known workflow stages in board column order.
func Statuses() []TaskStatus {
	return []TaskStatus{StatusTodo, StatusInProgress, StatusReview, StatusDone}
}

// KnownStatus reports whether s is one of the workflow stages.
func KnownStatus(s TaskStatus) bool {
	switch s {
	case StatusTodo, StatusInProgress, StatusReview, StatusDone:
		return true
	}
	return false
}

// TaskPriority is the urgency marker rendered on a card.
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityUrgent TaskPriority = "urgent"
)

// KnownPriority reports whether p is one of the priority levels.
func KnownPriority(p TaskPriority) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityUrgent:
		return true
	}
	return false
}

// TaskCategory tags a task with the kind of work it represents.
type TaskCategory string

const (
	CategoryTechnical TaskCategory = "technical"
	CategoryUserStory TaskCategory = "userStory"
)

// KnownCategory reports whether c is one of the category tags.
func KnownCategory(c TaskCategory) bool {
	return c == CategoryTechnical || c == CategoryUserStory
}

// CategoryLabel returns the human readable label for a category tag.
// Unknown tags fall back to the raw tag value.
func CategoryLabel(c TaskCategory) string {
	switch c {
	case CategoryTechnical:
		return "Technical Task"
	case CategoryUserStory:
		return "User Story"
	}
	return string(c)
}

// MaxSubtasksAtCreation bounds how many subtasks a create request may
// carry. Edits after creation are not bounded.
const MaxSubtasksAtCreation = 3

// Subtask is a single checklist entry on a task.
type Subtask struct {
	Title string `json:"title"`
	Done  bool   `json:"done"`
}

// Task represents a single board card.
type Task struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	DueDate     string       `json:"dueDate"`
	Category    TaskCategory `json:"category"`
	Priority    TaskPriority `json:"priority"`
	Status      TaskStatus   `json:"status"`
	Assigned    []string     `json:"assigned,omitempty"`
	Subtasks    []Subtask    `json:"subtasks,omitempty"`
}

// taskWire mirrors Task but keeps the fields whose shape varies across
// legacy payloads raw, so UnmarshalJSON can normalize them.
type taskWire struct {
	ID            string                 `json:"id"`
	Title         string                 `json:"title"`
	Description   string                 `json:"description"`
	DueDate       string                 `json:"dueDate"`
	LegacyDueDate string                 `json:"due_date"`
	Category      TaskCategory           `json:"category"`
	Priority      TaskPriority           `json:"priority"`
	Status        TaskStatus             `json:"status"`
	Assigned      sonic.NoCopyRawMessage `json:"assigned"`
	Subtasks      []Subtask              `json:"subtasks"`
}

// UnmarshalJSON decodes a task from its wire form, accepting the shapes
// older payloads carry: `assigned` as a single string instead of a
// list, and the due date under `due_date`. Internal code only ever sees
// the canonical shape.
func (t *Task) UnmarshalJSON(data []byte) error {
	var w taskWire
	if err := sonic.ConfigStd.Unmarshal(data, &w); err != nil {
		return err
	}
	t.ID = w.ID
	t.Title = w.Title
	t.Description = w.Description
	t.DueDate = w.DueDate
	if t.DueDate == "" {
		t.DueDate = w.LegacyDueDate
	}
	t.Category = w.Category
	t.Priority = w.Priority
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	t.Status = w.Status
	t.Subtasks = w.Subtasks
	t.Assigned = nil
	if len(w.Assigned) > 0 {
		assigned, err := decodeAssigned(w.Assigned)
		if err != nil {
			return err
		}
		t.Assigned = assigned
	}
	return nil
}

func decodeAssigned(raw []byte) ([]string, error) {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var ids []string
		if err := sonic.ConfigStd.Unmarshal(raw, &ids); err != nil {
			return nil, err
		}
		return ids, nil
	}
	var id string
	if err := sonic.ConfigStd.Unmarshal(raw, &id); err != nil {
		return nil, err
	}
	if id == "" {
		return nil, nil
	}
	return []string{id}, nil
}

// Clone returns a deep copy so callers can hand tasks out without
// sharing the assigned and subtask slices.
func (t Task) Clone() Task {
	cp := t
	if t.Assigned != nil {
		cp.Assigned = append([]string(nil), t.Assigned...)
	}
	if t.Subtasks != nil {
		cp.Subtasks = append([]Subtask(nil), t.Subtasks...)
	}
	return cp
}

// CloneTasks deep-copies a task collection.
func CloneTasks(tasks []Task) []Task {
	if tasks == nil {
		return nil
	}
	out := make([]Task, len(tasks))
	for i := range tasks {
		out[i] = tasks[i].Clone()
	}
	return out
}

// ParseSubtaskTitles splits ad hoc free text into subtask titles. Text
// is split on commas, semicolons and newlines, entries are trimmed,
// empties dropped and the result truncated to max entries.
func ParseSubtaskTitles(raw string, max int) []Subtask {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	parts := strings.FieldsFunc(raw, func(r rune) bool {
		return r == ',' || r == ';' || r == '\n'
	})
	subtasks := make([]Subtask, 0, len(parts))
	for _, p := range parts {
		title := strings.TrimSpace(p)
		if title == "" {
			continue
		}
		subtasks = append(subtasks, Subtask{Title: title})
		if max > 0 && len(subtasks) == max {
			break
		}
	}
	if len(subtasks) == 0 {
		return nil
	}
	return subtasks
}
