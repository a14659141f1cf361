package board

import "join-board/domain"

// Column is one board column with the tasks it currently holds.
type Column struct {
	Status domain.TaskStatus `json:"status"`
	Tasks  []domain.Task     `json:"tasks"`
}

// Columns projects tasks onto the board columns in stage order. Every
// task lands in exactly one column; a task with an unknown status is
// projected into the todo column instead of vanishing from the board.
func Columns(tasks []domain.Task) []Column {
	statuses := domain.Statuses()
	index := make(map[domain.TaskStatus]int, len(statuses))
	columns := make([]Column, len(statuses))
	for i, s := range statuses {
		columns[i] = Column{Status: s, Tasks: []domain.Task{}}
		index[s] = i
	}
	for _, t := range tasks {
		i, ok := index[t.Status]
		if !ok {
			i = index[domain.StatusTodo]
		}
		columns[i].Tasks = append(columns[i].Tasks, t)
	}
	return columns
}
