package domain

// TaskPatch carries a partial task update. Nil fields keep the prior
// value.
type TaskPatch struct {
	Title       *string       `json:"title,omitempty"`
	Description *string       `json:"description,omitempty"`
	DueDate     *string       `json:"dueDate,omitempty"`
	Category    *TaskCategory `json:"category,omitempty"`
	Priority    *TaskPriority `json:"priority,omitempty"`
	Status      *TaskStatus   `json:"status,omitempty"`
	Assigned    *[]string     `json:"assigned,omitempty"`
	Subtasks    *[]Subtask    `json:"subtasks,omitempty"`
}

// Validate checks the required-field rule for the fields present in
// the patch. Fields absent from the patch are not checked.
func (p TaskPatch) Validate() error {
	if p.Title != nil && *p.Title == "" {
		return &ValidationError{Field: "title", Reason: "must not be empty"}
	}
	if p.DueDate != nil && *p.DueDate == "" {
		return &ValidationError{Field: "dueDate", Reason: "must not be empty"}
	}
	if p.Category != nil && !KnownCategory(*p.Category) {
		return &ValidationError{Field: "category", Reason: "unknown category"}
	}
	if p.Priority != nil && !KnownPriority(*p.Priority) {
		return &ValidationError{Field: "priority", Reason: "unknown priority"}
	}
	if p.Status != nil && !KnownStatus(*p.Status) {
		return &ValidationError{Field: "status", Reason: "unknown workflow stage"}
	}
	return nil
}

// Apply merges the patch into t.
func (p TaskPatch) Apply(t *Task) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	if p.Category != nil {
		t.Category = *p.Category
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Assigned != nil {
		t.Assigned = append([]string(nil), (*p.Assigned)...)
	}
	if p.Subtasks != nil {
		t.Subtasks = append([]Subtask(nil), (*p.Subtasks)...)
	}
}

// ContactPatch carries a partial contact update. Nil fields keep the
// prior value.
type ContactPatch struct {
	Name  *string `json:"name,omitempty"`
	Email *string `json:"email,omitempty"`
	Phone *string `json:"phone,omitempty"`
}

// Validate checks the required-field rule for the fields present in
// the patch.
func (p ContactPatch) Validate() error {
	if p.Name != nil && NormalizeName(*p.Name) == "" {
		return &ValidationError{Field: "name", Reason: "must not be empty"}
	}
	if p.Email != nil && NormalizeEmail(*p.Email) == "" {
		return &ValidationError{Field: "email", Reason: "must not be empty"}
	}
	return nil
}

// Apply merges the patch into c, normalizing name and email.
func (p ContactPatch) Apply(c *Contact) {
	if p.Name != nil {
		c.Name = NormalizeName(*p.Name)
	}
	if p.Email != nil {
		c.Email = NormalizeEmail(*p.Email)
	}
	if p.Phone != nil {
		c.Phone = NormalizeName(*p.Phone)
	}
}
