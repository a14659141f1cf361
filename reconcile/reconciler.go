// Package reconcile keeps the local cache and the remote store in
// step: remote wins at startup, local wins for the rest of the
// session. Both directions transfer whole collections, so concurrent
// sessions resolve to whichever push lands last. That weak-consistency
// model is deliberate and documented, not a bug to fix here.
package reconcile

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"join-board/domain"
	"join-board/storage"
)

// Store is the remote side of the reconciliation.
type Store interface {
	PullTasks(ctx context.Context) ([]domain.Task, error)
	PushTasks(ctx context.Context, tasks []domain.Task) error
	PullContacts(ctx context.Context) ([]domain.Contact, error)
	PushContacts(ctx context.Context, contacts []domain.Contact) error
}

// Config tunes the push worker pool.
type Config struct {
	Workers        int
	Buffer         int
	PushTimeout    time.Duration
	HandoffTimeout time.Duration
}

type pushJob struct {
	collection string
	tasks      []domain.Task
	contacts   []domain.Contact
}

// Reconciler orchestrates startup sync and post-mutation pushes. A
// scheduled push captures the collection snapshot at schedule time and
// hands it to a worker; each push is a self-consistent snapshot but two
// rapid mutations may race their pushes over the network.
type Reconciler struct {
	cache  *storage.Cache
	store  Store
	logger *log.Logger
	cfg    Config

	workCh   chan pushJob
	wg       sync.WaitGroup
	mu       sync.Mutex
	closed   bool
	degraded atomic.Bool
}

// New creates a reconciler and starts its push workers.
func New(cache *storage.Cache, store Store, logger *log.Logger, cfg Config) *Reconciler {
	if cache == nil {
		panic("reconcile.New: cache is required")
	}
	if store == nil {
		panic("reconcile.New: store is required")
	}
	if logger == nil {
		panic("reconcile.New: logger is required")
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = 64
	}
	if cfg.PushTimeout <= 0 {
		cfg.PushTimeout = 30 * time.Second
	}
	if cfg.HandoffTimeout <= 0 {
		cfg.HandoffTimeout = 25 * time.Millisecond
	}
	r := &Reconciler{
		cache:  cache,
		store:  store,
		logger: logger,
		cfg:    cfg,
		workCh: make(chan pushJob, cfg.Buffer),
	}
	for i := 0; i < cfg.Workers; i++ {
		r.wg.Add(1)
		go r.worker()
	}
	return r
}

// Startup primes the cache and pulls both remote collections. A
// successful pull overwrites the local cache unconditionally, including
// unsynced edits from a previous disconnected session. A failed pull is
// logged and the session continues on last-known local state.
func (r *Reconciler) Startup(ctx context.Context) {
	r.cache.Prime(ctx)

	degraded := false
	if tasks, err := r.store.PullTasks(ctx); err != nil {
		degraded = true
		r.logger.WithError(err).Warn("startup pull failed, continuing with local tasks")
	} else {
		r.cache.PutTasks(ctx, tasks)
	}
	if contacts, err := r.store.PullContacts(ctx); err != nil {
		degraded = true
		r.logger.WithError(err).Warn("startup pull failed, continuing with local contacts")
	} else {
		r.cache.PutContacts(ctx, contacts)
	}
	r.degraded.Store(degraded)
}

// Degraded reports whether the last startup sync ran without the
// remote store.
func (r *Reconciler) Degraded() bool { return r.degraded.Load() }

// ScheduleTasksPush snapshots the task collection and queues a
// best-effort push. Failures are logged, never retried and never
// surfaced to the mutation that triggered them.
func (r *Reconciler) ScheduleTasksPush() {
	r.schedule(pushJob{collection: "tasks", tasks: r.cache.Tasks()})
}

// ScheduleContactsPush mirrors ScheduleTasksPush for contacts.
func (r *Reconciler) ScheduleContactsPush() {
	r.schedule(pushJob{collection: "contacts", contacts: r.cache.Contacts()})
}

// schedule holds the mutex across the hand-off so Close never closes
// the channel while a send is in flight.
func (r *Reconciler) schedule(job pushJob) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		r.logger.WithField("collection", job.collection).Warn("push dropped, reconciler closed")
		return
	}

	select {
	case r.workCh <- job:
		return
	default:
	}

	timer := time.NewTimer(r.cfg.HandoffTimeout)
	defer timer.Stop()
	select {
	case r.workCh <- job:
	case <-timer.C:
		// A later mutation pushes a fresher snapshot anyway.
		r.logger.WithField("collection", job.collection).Warn("push dropped, buffer saturated")
	}
}

func (r *Reconciler) worker() {
	defer r.wg.Done()
	for job := range r.workCh {
		ctx, cancel := context.WithTimeout(context.Background(), r.cfg.PushTimeout)
		var err error
		switch job.collection {
		case "tasks":
			err = r.store.PushTasks(ctx, job.tasks)
		case "contacts":
			err = r.store.PushContacts(ctx, job.contacts)
		}
		cancel()
		if err != nil {
			r.logger.WithError(err).WithField("collection", job.collection).Error("remote push failed")
		}
	}
}

// Close stops accepting pushes and drains the ones already queued.
func (r *Reconciler) Close() {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return
	}
	r.closed = true
	close(r.workCh)
	r.mu.Unlock()
	r.wg.Wait()
}
