package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"

	"join-board/domain"
)

// Logical names of the persisted collections.
const (
	tasksKey    = "join:tasks"
	contactsKey = "join:contacts"
)

// Cache is the process-local source of truth for both collections. It
// keeps an authoritative in-memory snapshot and mirrors every write to
// Redis so the next process start can resume from the last persisted
// state. Durable write failures downgrade the affected collection to
// memory-only for the rest of the process lifetime: the in-memory view
// stays correct and the stale durable copy is never read back.
type Cache struct {
	redis  *redis.Client
	logger *log.Logger

	mu       sync.RWMutex
	primed   bool
	tasks    []domain.Task
	contacts []domain.Contact
}

// NewCache creates a cache backed by the given Redis client. The client
// may be nil, in which case the cache is memory-only.
func NewCache(client *redis.Client, logger *log.Logger) *Cache {
	if logger == nil {
		panic("storage.NewCache: logger is required")
	}
	return &Cache{redis: client, logger: logger}
}

// Prime loads both collections from the durable store. It must complete
// before the first read. Missing keys yield empty collections; Redis or
// decode failures are logged and yield empty collections too, leaving
// the process usable in memory-only mode. Priming twice is a no-op.
func (c *Cache) Prime(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.primed {
		return
	}
	c.tasks = c.loadTasks(ctx)
	c.contacts = c.loadContacts(ctx)
	c.primed = true
}

// Primed reports whether Prime has completed.
func (c *Cache) Primed() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.primed
}

// Tasks returns a copy of the current task collection. Calling it
// before Prime is a programming error.
func (c *Cache) Tasks() []domain.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.primed {
		panic("storage.Cache: read before Prime")
	}
	return domain.CloneTasks(c.tasks)
}

// Contacts returns a copy of the current contact collection. Calling it
// before Prime is a programming error.
func (c *Cache) Contacts() []domain.Contact {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.primed {
		panic("storage.Cache: read before Prime")
	}
	return domain.CloneContacts(c.contacts)
}

// PutTasks replaces the task collection. The in-memory replace always
// succeeds; the durable write is best effort and idempotent.
func (c *Cache) PutTasks(ctx context.Context, tasks []domain.Task) {
	snapshot := domain.CloneTasks(tasks)
	if snapshot == nil {
		snapshot = []domain.Task{}
	}
	c.mu.Lock()
	c.tasks = snapshot
	c.primed = true
	c.mu.Unlock()
	c.persist(ctx, tasksKey, snapshot)
}

// PutContacts replaces the contact collection, mirroring PutTasks.
func (c *Cache) PutContacts(ctx context.Context, contacts []domain.Contact) {
	snapshot := domain.CloneContacts(contacts)
	if snapshot == nil {
		snapshot = []domain.Contact{}
	}
	c.mu.Lock()
	c.contacts = snapshot
	c.primed = true
	c.mu.Unlock()
	c.persist(ctx, contactsKey, snapshot)
}

func (c *Cache) loadTasks(ctx context.Context) []domain.Task {
	data, ok := c.loadRaw(ctx, tasksKey)
	if !ok {
		return []domain.Task{}
	}
	var tasks []domain.Task
	if err := json.Unmarshal(data, &tasks); err != nil {
		c.logger.WithError(err).WithField("key", tasksKey).Warn("discarding undecodable persisted collection")
		return []domain.Task{}
	}
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return tasks
}

func (c *Cache) loadContacts(ctx context.Context) []domain.Contact {
	data, ok := c.loadRaw(ctx, contactsKey)
	if !ok {
		return []domain.Contact{}
	}
	var contacts []domain.Contact
	if err := json.Unmarshal(data, &contacts); err != nil {
		c.logger.WithError(err).WithField("key", contactsKey).Warn("discarding undecodable persisted collection")
		return []domain.Contact{}
	}
	if contacts == nil {
		contacts = []domain.Contact{}
	}
	return contacts
}

func (c *Cache) loadRaw(ctx context.Context, key string) ([]byte, bool) {
	if c.redis == nil {
		return nil, false
	}
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.WithError(err).WithField("key", key).Warn("durable read failed, starting from empty collection")
		}
		return nil, false
	}
	return data, true
}

func (c *Cache) persist(ctx context.Context, key string, v any) {
	if c.redis == nil {
		return
	}
	data, err := json.Marshal(v)
	if err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("durable write skipped, in-memory state unaffected")
		return
	}
	if err := c.redis.Set(ctx, key, data, 0).Err(); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("durable write failed, in-memory state unaffected")
		// Drop the stale durable copy so a later process start cannot
		// mistake it for the state we failed to persist.
		_ = c.redis.Del(ctx, key).Err()
	}
}
