package reconcile

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"join-board/domain"
	"join-board/storage"
)

type stubStore struct {
	mu             sync.Mutex
	pullTasksFn    func(ctx context.Context) ([]domain.Task, error)
	pullContactsFn func(ctx context.Context) ([]domain.Contact, error)
	pushTasksFn    func(ctx context.Context, tasks []domain.Task) error
	pushContactsFn func(ctx context.Context, contacts []domain.Contact) error
	pushedTasks    [][]domain.Task
	pushedContacts [][]domain.Contact
}

func (s *stubStore) PullTasks(ctx context.Context) ([]domain.Task, error) {
	if s.pullTasksFn == nil {
		return []domain.Task{}, nil
	}
	return s.pullTasksFn(ctx)
}

func (s *stubStore) PullContacts(ctx context.Context) ([]domain.Contact, error) {
	if s.pullContactsFn == nil {
		return []domain.Contact{}, nil
	}
	return s.pullContactsFn(ctx)
}

func (s *stubStore) PushTasks(ctx context.Context, tasks []domain.Task) error {
	s.mu.Lock()
	s.pushedTasks = append(s.pushedTasks, tasks)
	s.mu.Unlock()
	if s.pushTasksFn == nil {
		return nil
	}
	return s.pushTasksFn(ctx, tasks)
}

func (s *stubStore) PushContacts(ctx context.Context, contacts []domain.Contact) error {
	s.mu.Lock()
	s.pushedContacts = append(s.pushedContacts, contacts)
	s.mu.Unlock()
	if s.pushContactsFn == nil {
		return nil
	}
	return s.pushContactsFn(ctx, contacts)
}

func (s *stubStore) taskPushes() [][]domain.Task {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([][]domain.Task(nil), s.pushedTasks...)
}

func newTestCache(t *testing.T) *storage.Cache {
	t.Helper()
	logger, _ := logtest.NewNullLogger()
	return storage.NewCache(nil, logger)
}

func TestStartupRemoteWinsOverLocalCache(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	cache.Prime(ctx)
	cache.PutTasks(ctx, []domain.Task{{ID: "local", Title: "stale local edit", DueDate: "2024-01-01", Category: domain.CategoryTechnical, Priority: domain.PriorityMedium, Status: domain.StatusTodo}})

	store := &stubStore{
		pullTasksFn: func(ctx context.Context) ([]domain.Task, error) {
			return []domain.Task{{ID: "remote", Title: "remote truth", DueDate: "2024-01-02", Category: domain.CategoryUserStory, Priority: domain.PriorityMedium, Status: domain.StatusDone}}, nil
		},
	}
	logger, _ := logtest.NewNullLogger()
	rec := New(cache, store, logger, Config{})
	defer rec.Close()

	rec.Startup(ctx)
	if rec.Degraded() {
		t.Fatal("expected healthy startup")
	}
	tasks := cache.Tasks()
	if len(tasks) != 1 || tasks[0].ID != "remote" {
		t.Fatalf("remote collection must overwrite local cache, got %#v", tasks)
	}
}

func TestStartupPullFailureKeepsLocalStateUsable(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	cache.Prime(ctx)
	prior := []domain.Task{{ID: "t1", Title: "from last session", DueDate: "2024-01-01", Category: domain.CategoryTechnical, Priority: domain.PriorityMedium, Status: domain.StatusTodo}}
	cache.PutTasks(ctx, prior)

	store := &stubStore{
		pullTasksFn: func(ctx context.Context) ([]domain.Task, error) {
			return nil, errors.New("connection refused")
		},
		pullContactsFn: func(ctx context.Context) ([]domain.Contact, error) {
			return nil, errors.New("connection refused")
		},
	}
	logger, hook := logtest.NewNullLogger()
	rec := New(cache, store, logger, Config{})
	defer rec.Close()

	rec.Startup(ctx)
	if !rec.Degraded() {
		t.Fatal("expected degraded mode")
	}
	tasks := cache.Tasks()
	if len(tasks) != 1 || tasks[0].ID != "t1" {
		t.Fatalf("local state lost on failed pull: %#v", tasks)
	}

	// Still mutable: a local write goes through and schedules a push.
	tasks = append(tasks, domain.Task{ID: "t2", Title: "new", DueDate: "2024-01-02", Category: domain.CategoryTechnical, Priority: domain.PriorityMedium, Status: domain.StatusTodo})
	cache.PutTasks(ctx, tasks)
	if got := cache.Tasks(); len(got) != 2 {
		t.Fatalf("cache not mutable in degraded mode: %#v", got)
	}

	var warned bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == log.WarnLevel {
			warned = true
		}
	}
	if !warned {
		t.Fatal("expected startup failure to be logged")
	}
}

func TestSchedulePushSendsSnapshotAtScheduleTime(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	cache.Prime(ctx)
	cache.PutTasks(ctx, []domain.Task{{ID: "t1", Title: "v1", DueDate: "2024-01-01", Category: domain.CategoryTechnical, Priority: domain.PriorityMedium, Status: domain.StatusTodo}})

	pushed := make(chan []domain.Task, 1)
	store := &stubStore{
		pushTasksFn: func(ctx context.Context, tasks []domain.Task) error {
			pushed <- tasks
			return nil
		},
	}
	logger, _ := logtest.NewNullLogger()
	rec := New(cache, store, logger, Config{})
	defer rec.Close()

	rec.ScheduleTasksPush()

	select {
	case tasks := <-pushed:
		if len(tasks) != 1 || tasks[0].Title != "v1" {
			t.Fatalf("unexpected snapshot: %#v", tasks)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("push never happened")
	}
}

func TestPushFailureIsLoggedAndLocalStateUntouched(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	cache.Prime(ctx)
	cache.PutTasks(ctx, []domain.Task{{ID: "t1", Title: "keep me", DueDate: "2024-01-01", Category: domain.CategoryTechnical, Priority: domain.PriorityMedium, Status: domain.StatusTodo}})

	store := &stubStore{
		pushTasksFn: func(ctx context.Context, tasks []domain.Task) error {
			return errors.New("remote store down")
		},
	}
	logger, hook := logtest.NewNullLogger()
	rec := New(cache, store, logger, Config{})

	rec.ScheduleTasksPush()
	rec.Close()

	if got := cache.Tasks(); len(got) != 1 || got[0].Title != "keep me" {
		t.Fatalf("push failure must not roll back local state: %#v", got)
	}
	var logged bool
	for _, entry := range hook.AllEntries() {
		if entry.Level == log.ErrorLevel {
			logged = true
		}
	}
	if !logged {
		t.Fatal("expected push failure to be logged")
	}
}

func TestCloseDrainsQueuedPushes(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	cache.Prime(ctx)
	cache.PutContacts(ctx, []domain.Contact{{ID: "c1", Name: "Ada", Email: "ada@example.com"}})

	store := &stubStore{}
	logger, _ := logtest.NewNullLogger()
	rec := New(cache, store, logger, Config{Workers: 1})

	rec.ScheduleContactsPush()
	rec.ScheduleContactsPush()
	rec.Close()

	store.mu.Lock()
	pushes := len(store.pushedContacts)
	store.mu.Unlock()
	if pushes != 2 {
		t.Fatalf("expected 2 drained pushes, got %d", pushes)
	}

	// Scheduling after Close is a logged no-op, not a panic.
	rec.ScheduleContactsPush()
}

func TestRapidMutationsEachPushSelfConsistentSnapshot(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()
	cache.Prime(ctx)

	store := &stubStore{}
	logger, _ := logtest.NewNullLogger()
	rec := New(cache, store, logger, Config{Workers: 2})

	for i := 0; i < 5; i++ {
		tasks := cache.Tasks()
		tasks = append(tasks, domain.Task{ID: string(rune('a' + i)), Title: "t", DueDate: "2024-01-01", Category: domain.CategoryTechnical, Priority: domain.PriorityMedium, Status: domain.StatusTodo})
		cache.PutTasks(ctx, tasks)
		rec.ScheduleTasksPush()
	}
	rec.Close()

	pushes := store.taskPushes()
	if len(pushes) != 5 {
		t.Fatalf("expected 5 pushes, got %d", len(pushes))
	}
	// Pushes may land out of order but each one is a valid snapshot:
	// strictly growing sizes were captured at schedule time.
	sizes := map[int]bool{}
	for _, p := range pushes {
		sizes[len(p)] = true
	}
	for i := 1; i <= 5; i++ {
		if !sizes[i] {
			t.Fatalf("missing snapshot of size %d", i)
		}
	}
}
