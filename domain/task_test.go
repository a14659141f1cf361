package domain

import (
	"encoding/json"
	"reflect"
	"testing"
)

func TestParseSubtaskTitles(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want []Subtask
	}{
		{name: "empty", raw: "   ", want: nil},
		{name: "commas", raw: "write, review, ship", want: []Subtask{{Title: "write"}, {Title: "review"}, {Title: "ship"}}},
		{name: "mixed separators", raw: "write; review\nship", want: []Subtask{{Title: "write"}, {Title: "review"}, {Title: "ship"}}},
		{name: "drops empties", raw: "write,, ,review", want: []Subtask{{Title: "write"}, {Title: "review"}}},
		{name: "truncates to bound", raw: "a,b,c,d,e", want: []Subtask{{Title: "a"}, {Title: "b"}, {Title: "c"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ParseSubtaskTitles(tt.raw, MaxSubtasksAtCreation)
			if !reflect.DeepEqual(got, tt.want) {
				t.Fatalf("ParseSubtaskTitles(%q) = %#v, want %#v", tt.raw, got, tt.want)
			}
		})
	}
}

func TestTaskUnmarshalCanonicalShape(t *testing.T) {
	payload := `{"id":"t1","title":"Write release notes","description":"for the board","dueDate":"2024-01-10","category":"technical","priority":"urgent","status":"todo","assigned":["c1","c2"],"subtasks":[{"title":"draft","done":true}]}`
	var task Task
	if err := json.Unmarshal([]byte(payload), &task); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if task.ID != "t1" || task.Title != "Write release notes" || task.DueDate != "2024-01-10" {
		t.Fatalf("unexpected task: %#v", task)
	}
	if !reflect.DeepEqual(task.Assigned, []string{"c1", "c2"}) {
		t.Fatalf("unexpected assigned: %#v", task.Assigned)
	}
	if len(task.Subtasks) != 1 || !task.Subtasks[0].Done {
		t.Fatalf("unexpected subtasks: %#v", task.Subtasks)
	}
}

func TestTaskUnmarshalLegacyShapes(t *testing.T) {
	tests := []struct {
		name         string
		payload      string
		wantAssigned []string
		wantDueDate  string
		wantPriority TaskPriority
	}{
		{
			name:         "assigned as single string",
			payload:      `{"id":"t1","title":"x","dueDate":"2024-01-10","assigned":"c1"}`,
			wantAssigned: []string{"c1"},
			wantDueDate:  "2024-01-10",
			wantPriority: PriorityMedium,
		},
		{
			name:         "due date under legacy key",
			payload:      `{"id":"t1","title":"x","due_date":"2024-02-20"}`,
			wantAssigned: nil,
			wantDueDate:  "2024-02-20",
			wantPriority: PriorityMedium,
		},
		{
			name:         "canonical key wins over legacy",
			payload:      `{"id":"t1","title":"x","dueDate":"2024-01-10","due_date":"2024-02-20","priority":"low"}`,
			wantAssigned: nil,
			wantDueDate:  "2024-01-10",
			wantPriority: PriorityLow,
		},
		{
			name:         "null assigned",
			payload:      `{"id":"t1","title":"x","dueDate":"2024-01-10","assigned":null}`,
			wantAssigned: nil,
			wantDueDate:  "2024-01-10",
			wantPriority: PriorityMedium,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var task Task
			if err := json.Unmarshal([]byte(tt.payload), &task); err != nil {
				t.Fatalf("unmarshal: %v", err)
			}
			if !reflect.DeepEqual(task.Assigned, tt.wantAssigned) {
				t.Fatalf("assigned = %#v, want %#v", task.Assigned, tt.wantAssigned)
			}
			if task.DueDate != tt.wantDueDate {
				t.Fatalf("dueDate = %q, want %q", task.DueDate, tt.wantDueDate)
			}
			if task.Priority != tt.wantPriority {
				t.Fatalf("priority = %q, want %q", task.Priority, tt.wantPriority)
			}
		})
	}
}

func TestKnownStatus(t *testing.T) {
	for _, s := range Statuses() {
		if !KnownStatus(s) {
			t.Fatalf("expected %q to be known", s)
		}
	}
	if KnownStatus("archived") {
		t.Fatal("expected unknown stage to be rejected")
	}
}

func TestCategoryLabel(t *testing.T) {
	if got := CategoryLabel(CategoryTechnical); got != "Technical Task" {
		t.Fatalf("unexpected label: %q", got)
	}
	if got := CategoryLabel(CategoryUserStory); got != "User Story" {
		t.Fatalf("unexpected label: %q", got)
	}
	if got := CategoryLabel("weird"); got != "weird" {
		t.Fatalf("unknown category must fall back to the raw tag, got %q", got)
	}
}

func TestCloneIsDeep(t *testing.T) {
	task := Task{ID: "t1", Assigned: []string{"c1"}, Subtasks: []Subtask{{Title: "a"}}}
	cp := task.Clone()
	cp.Assigned[0] = "c2"
	cp.Subtasks[0].Done = true
	if task.Assigned[0] != "c1" || task.Subtasks[0].Done {
		t.Fatalf("clone shares slices with original: %#v", task)
	}
}
