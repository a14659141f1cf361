package api

import (
	"context"

	"join-board/board"
	"join-board/domain"
)

// Tasks is the task intent surface the handlers drive. Each method
// maps 1:1 to a board intent: create, edit, delete, move, subtask
// toggle.
type Tasks interface {
	All() []domain.Task
	Get(id string) (domain.Task, error)
	Create(ctx context.Context, input board.CreateTaskInput) (domain.Task, error)
	Update(ctx context.Context, id string, patch domain.TaskPatch) (domain.Task, error)
	Remove(ctx context.Context, id string) error
	SetStatus(ctx context.Context, id string, status domain.TaskStatus) (domain.Task, error)
	ToggleSubtask(ctx context.Context, id string, index int) (domain.Task, error)
}

// Contacts is the contact intent surface.
type Contacts interface {
	All() []domain.Contact
	Get(id string) (domain.Contact, error)
	Create(ctx context.Context, input board.CreateContactInput) (domain.Contact, error)
	Update(ctx context.Context, id string, patch domain.ContactPatch) (domain.Contact, error)
	Remove(ctx context.Context, id string) error
}

// Health reports whether the last startup sync reached the remote
// store.
type Health interface {
	Degraded() bool
}

// Readiness reports whether the local cache has been primed.
type Readiness interface {
	Primed() bool
}
