// Package backend defines the two capability sets that every queue and
// result-store implementation satisfies, plus the error taxonomy shared
// across the memory and remote (Redis) backends.
package backend

import (
	"context"
	"errors"
	"time"

	"github.com/guido-cesarano/distributedq/pkg/tasks"
)

// Namespace prefixes the sentinel errors below so they read unambiguously
// in logs that mix errors from several packages.
const Namespace = "backend"

var (
	// ErrBackendUnavailable is returned when the underlying transport (a
	// remote KV store connection) is down. The memory backends never
	// return it. Transient; callers retry with backoff.
	ErrBackendUnavailable = errors.New(Namespace + ": backend unavailable")

	// ErrMalformedEntry names the case of a popped entry that could not be
	// decoded into a Task. No Queue's Pop returns it: the redis Queue
	// discards such an entry (it is not re-enqueued), reports it through its
	// onMalformed callback, and keeps popping.
	ErrMalformedEntry = errors.New(Namespace + ": malformed queue entry")

	// ErrNotFound is returned by ResultStore.Get for an id with no record,
	// or whose record has expired.
	ErrNotFound = errors.New(Namespace + ": result not found")
)

// Queue is the push/pop/length capability set (§4.A). Implementations must
// make every operation atomic with respect to other operations on the same
// queue.
type Queue interface {
	// Push appends a task to the tail. Returns ErrBackendUnavailable when
	// the underlying transport is down.
	Push(ctx context.Context, task tasks.Task) error

	// Pop removes and returns the head, blocking up to timeout. ok is false
	// on timeout (not an error). Returns ErrBackendUnavailable on transport
	// failure.
	Pop(ctx context.Context, timeout time.Duration) (task tasks.Task, ok bool, err error)

	// Length is a best-effort current count; it may be stale under
	// concurrent mutation.
	Length(ctx context.Context) (int64, error)
}

// ResultStore is the put/get/delete/exists capability set (§4.A), with
// per-record TTL. Implementations must make every operation atomic with
// respect to other operations on the same id.
type ResultStore interface {
	// Put stores record under id, overwriting any prior record, with
	// expiry = now + ttl. Returns ErrBackendUnavailable on transport
	// failure.
	Put(ctx context.Context, id string, record tasks.Task, ttl time.Duration) error

	// Get returns the record for id. ok is false, err is ErrNotFound when
	// absent or expired; Get never returns an expired record.
	Get(ctx context.Context, id string) (record tasks.Task, ok bool, err error)

	// Delete removes id. Idempotent: deleting an absent id succeeds.
	Delete(ctx context.Context, id string) error

	// Exists is equivalent to Get(id) succeeding.
	Exists(ctx context.Context, id string) (bool, error)
}
