package board

import (
	"testing"

	"join-board/domain"
)

func TestSessionCloseOverlayKeepsQuery(t *testing.T) {
	var s SessionState
	s.SetQuery("urgent")
	s.SelectTask("t1")
	s.SelectContact("c1")
	s.StagePendingSubtasks([]domain.Subtask{{Title: "draft"}})

	s.CloseOverlay()
	if s.SelectedTask() != "" || s.SelectedContact() != "" {
		t.Fatal("overlay selection survived close")
	}
	if len(s.PendingSubtasks()) != 0 {
		t.Fatal("pending subtasks survived close")
	}
	if s.Query() != "urgent" {
		t.Fatalf("query = %q, closing an overlay must not clear it", s.Query())
	}
}

func TestSessionResetClearsEverything(t *testing.T) {
	var s SessionState
	s.SetQuery("urgent")
	s.SelectTask("t1")
	s.StagePendingSubtasks([]domain.Subtask{{Title: "draft"}})

	s.Reset()
	if s.Query() != "" || s.SelectedTask() != "" || len(s.PendingSubtasks()) != 0 {
		t.Fatal("reset left state behind")
	}
}

func TestSessionPendingSubtasksAreCopied(t *testing.T) {
	var s SessionState
	staged := []domain.Subtask{{Title: "draft"}}
	s.StagePendingSubtasks(staged)
	staged[0].Title = "mutated"

	got := s.PendingSubtasks()
	if got[0].Title != "draft" {
		t.Fatalf("staged slice shared with caller: %#v", got)
	}
	got[0].Done = true
	if s.PendingSubtasks()[0].Done {
		t.Fatal("returned slice shared with session state")
	}
}
