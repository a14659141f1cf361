package board

import (
	"sync"

	"join-board/domain"
)

// SessionState holds the transient UI state the board projection keeps
// between intents: the active search query, the selected entities and
// subtasks collected in the open task form but not yet saved. State
// lives here rather than in ambient package variables so it has
// explicit reset points.
type SessionState struct {
	mu sync.Mutex

	query             string
	selectedTaskID    string
	selectedContactID string
	pendingSubtasks   []domain.Subtask
}

// SetQuery records the active search query.
func (s *SessionState) SetQuery(q string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = q
}

// Query returns the active search query.
func (s *SessionState) Query() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.query
}

// SelectTask records the task the user has open.
func (s *SessionState) SelectTask(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedTaskID = id
}

// SelectedTask returns the open task id.
func (s *SessionState) SelectedTask() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedTaskID
}

// SelectContact records the contact the user has open.
func (s *SessionState) SelectContact(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedContactID = id
}

// SelectedContact returns the open contact id.
func (s *SessionState) SelectedContact() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selectedContactID
}

// StagePendingSubtasks replaces the unsaved subtask list of the open
// task form.
func (s *SessionState) StagePendingSubtasks(subtasks []domain.Subtask) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingSubtasks = append([]domain.Subtask(nil), subtasks...)
}

// PendingSubtasks returns the unsaved subtask list.
func (s *SessionState) PendingSubtasks() []domain.Subtask {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.Subtask(nil), s.pendingSubtasks...)
}

// CloseOverlay clears the selection and unsaved form state, the reset
// point reached whenever an overlay is dismissed.
func (s *SessionState) CloseOverlay() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selectedTaskID = ""
	s.selectedContactID = ""
	s.pendingSubtasks = nil
}

// Reset clears the whole session, overlay state and query alike.
func (s *SessionState) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.query = ""
	s.selectedTaskID = ""
	s.selectedContactID = ""
	s.pendingSubtasks = nil
}
