// Package remote talks to the shared store: one collection endpoint
// per entity type with whole-collection pull/push semantics.
package remote

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"

	"join-board/domain"
)

// Error marks a pull or push failure: network, HTTP status or payload
// decode. Callers log it and keep working from local state.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return fmt.Sprintf("remote %s: %v", e.Op, e.Err) }
func (e *Error) Unwrap() error { return e.Err }

// maxPayloadSize bounds how much of a remote response is read.
const maxPayloadSize = 8 << 20

// Client implements pull/push against the remote store. All requests
// run through a circuit breaker so a dead remote fails fast instead of
// stalling every scheduled push on a full network timeout.
type Client struct {
	http    *http.Client
	baseURL string
	breaker *gobreaker.CircuitBreaker
	logger  *log.Logger
}

// NewClient creates a client for the given base URL. httpClient may be
// nil, in which case a client with a 10s timeout is used.
func NewClient(baseURL string, httpClient *http.Client, logger *log.Logger) *Client {
	if logger == nil {
		panic("remote.NewClient: logger is required")
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "remote-store",
		MaxRequests: 1,
		Timeout:     5 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 3
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.WithFields(log.Fields{"breaker": name, "from": from.String(), "to": to.String()}).Info("circuit breaker state changed")
		},
	})
	return &Client{
		http:    httpClient,
		baseURL: strings.TrimRight(baseURL, "/"),
		breaker: breaker,
		logger:  logger,
	}
}

// PullTasks fetches the full remote task collection. A missing or null
// remote collection is an empty collection, not an error.
func (c *Client) PullTasks(ctx context.Context) ([]domain.Task, error) {
	data, err := c.get(ctx, "tasks")
	if err != nil {
		return nil, err
	}
	tasks, err := decodeCollection(data, func(t *domain.Task) *string { return &t.ID })
	if err != nil {
		return nil, &Error{Op: "pull tasks", Err: err}
	}
	return tasks, nil
}

// PushTasks replaces the full remote task collection.
func (c *Client) PushTasks(ctx context.Context, tasks []domain.Task) error {
	if tasks == nil {
		tasks = []domain.Task{}
	}
	return c.put(ctx, "tasks", tasks)
}

// PullContacts fetches the full remote contact collection.
func (c *Client) PullContacts(ctx context.Context) ([]domain.Contact, error) {
	data, err := c.get(ctx, "contacts")
	if err != nil {
		return nil, err
	}
	contacts, err := decodeCollection(data, func(ct *domain.Contact) *string { return &ct.ID })
	if err != nil {
		return nil, &Error{Op: "pull contacts", Err: err}
	}
	return contacts, nil
}

// PushContacts replaces the full remote contact collection.
func (c *Client) PushContacts(ctx context.Context, contacts []domain.Contact) error {
	if contacts == nil {
		contacts = []domain.Contact{}
	}
	return c.put(ctx, "contacts", contacts)
}

func (c *Client) get(ctx context.Context, collection string) ([]byte, error) {
	body, err := c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(collection), nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode == http.StatusNotFound {
			// Absent collection reads as empty.
			return []byte(nil), nil
		}
		if resp.StatusCode != http.StatusOK {
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		data, err := io.ReadAll(io.LimitReader(resp.Body, maxPayloadSize))
		if err != nil {
			return nil, err
		}
		return data, nil
	})
	if err != nil {
		return nil, &Error{Op: "pull " + collection, Err: err}
	}
	return body.([]byte), nil
}

func (c *Client) put(ctx context.Context, collection string, v any) error {
	payload, err := sonic.ConfigStd.Marshal(v)
	if err != nil {
		return &Error{Op: "push " + collection, Err: err}
	}
	_, err = c.breaker.Execute(func() (any, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.endpoint(collection), strings.NewReader(string(payload)))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		resp, err := c.http.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()
		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
		}
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, nil
	})
	if err != nil {
		return &Error{Op: "push " + collection, Err: err}
	}
	return nil
}

func (c *Client) endpoint(collection string) string {
	return c.baseURL + "/" + collection
}

// decodeCollection accepts the three shapes a collection endpoint may
// return: null (or nothing), a JSON array of entities, or a JSON object
// keyed by entity id. Object entries missing an embedded id inherit the
// key; keyed results are ordered by key so decoding is deterministic.
func decodeCollection[T any](data []byte, id func(*T) *string) ([]T, error) {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "" || trimmed == "null" {
		return []T{}, nil
	}
	if strings.HasPrefix(trimmed, "[") {
		var entities []T
		if err := sonic.ConfigStd.Unmarshal(data, &entities); err != nil {
			return nil, err
		}
		if entities == nil {
			entities = []T{}
		}
		return entities, nil
	}
	var keyed map[string]T
	if err := sonic.ConfigStd.Unmarshal(data, &keyed); err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(keyed))
	for k := range keyed {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	entities := make([]T, 0, len(keyed))
	for _, k := range keys {
		ent := keyed[k]
		if idField := id(&ent); *idField == "" {
			*idField = k
		}
		entities = append(entities, ent)
	}
	return entities, nil
}
