package board

import (
	"strings"

	"join-board/domain"
)

// Filter returns the order-preserving subsequence of tasks whose
// search surface contains the normalized query as a substring. An
// empty query returns the input unchanged. This is a contains-match:
// a multi-word query matches only where it appears contiguously in the
// concatenated surface, which is intentional and kept as documented
// behavior rather than token-AND semantics.
func Filter(tasks []domain.Task, contacts []domain.Contact, rawQuery string) []domain.Task {
	query := strings.ToLower(strings.TrimSpace(rawQuery))
	if query == "" {
		return tasks
	}
	names := make(map[string]string, len(contacts))
	for _, c := range contacts {
		names[c.ID] = c.Name
	}
	matched := make([]domain.Task, 0, len(tasks))
	for _, t := range tasks {
		if strings.Contains(searchSurface(t, names), query) {
			matched = append(matched, t)
		}
	}
	return matched
}

// searchSurface flattens a task into the normalized text the filter
// matches against: title, description, category label and tag, status,
// priority, due date, resolved assignee names and subtask titles.
// Assignees without a matching contact contribute their raw id, the
// same fallback the display layer uses.
func searchSurface(t domain.Task, names map[string]string) string {
	parts := make([]string, 0, 8+len(t.Assigned)+len(t.Subtasks))
	parts = append(parts,
		t.Title,
		t.Description,
		domain.CategoryLabel(t.Category),
		string(t.Category),
		string(t.Status),
		string(t.Priority),
		t.DueDate,
	)
	for _, id := range t.Assigned {
		if name, ok := names[id]; ok {
			parts = append(parts, name)
		} else {
			parts = append(parts, id)
		}
	}
	for _, st := range t.Subtasks {
		parts = append(parts, st.Title)
	}
	return strings.ToLower(strings.Join(parts, " "))
}
