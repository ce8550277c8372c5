// Package redis implements backend.Queue and backend.ResultStore against a
// remote Redis-compatible key-value store, using atomic list push/pop for
// the queue and per-key TTL for the result store.
package redis

import (
	"context"
	"errors"
	"time"

	"github.com/guido-cesarano/distributedq/pkg/backend"
	"github.com/guido-cesarano/distributedq/pkg/tasks"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// maxMalformedSkips bounds how many consecutive undecodable entries Pop
// will discard in a single call before giving up, so one corrupt run can't
// wedge a caller's poll loop forever.
const maxMalformedSkips = 8

// Queue pushes serialized tasks onto a well-known Redis list key and pops
// them with a blocking left-pop.
type Queue struct {
	rdb *goredis.Client
	key string
	log zerolog.Logger

	malformed func()
}

// NewQueue constructs a Queue bound to a single list key. onMalformed, if
// non-nil, is invoked once per discarded undecodable entry (§7: counted,
// not re-enqueued) — callers typically wire this to a Prometheus counter.
func NewQueue(rdb *goredis.Client, key string, log zerolog.Logger, onMalformed func()) *Queue {
	if onMalformed == nil {
		onMalformed = func() {}
	}
	return &Queue{rdb: rdb, key: key, log: log, malformed: onMalformed}
}

// Push serializes task and performs an atomic right-push onto the queue's
// list key.
func (q *Queue) Push(ctx context.Context, task tasks.Task) error {
	data, err := tasks.Encode(task)
	if err != nil {
		return err
	}
	if err := q.rdb.RPush(ctx, q.key, data).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// Pop performs a blocking left-pop with the given timeout. A malformed
// (undecodable) entry is discarded and counted, then popping continues
// rather than surfacing a decode error to the caller, per §7. Pops after a
// discarded entry wait only for what is left of the original timeout.
func (q *Queue) Pop(ctx context.Context, timeout time.Duration) (tasks.Task, bool, error) {
	deadline := time.Now().Add(timeout)
	for attempt := 0; attempt < maxMalformedSkips; attempt++ {
		wait := timeout
		if attempt > 0 {
			wait = time.Until(deadline)
			if wait <= 0 {
				return tasks.Task{}, false, nil
			}
		}
		result, err := q.rdb.BLPop(ctx, wait, q.key).Result()
		if errors.Is(err, goredis.Nil) {
			return tasks.Task{}, false, nil
		}
		if err != nil {
			return tasks.Task{}, false, unavailable(err)
		}

		// BLPop returns [key, value].
		if len(result) != 2 {
			q.malformed()
			q.log.Warn().Int("fields", len(result)).Msg("redis queue: unexpected BLPOP reply shape")
			continue
		}

		task, err := tasks.Decode([]byte(result[1]))
		if err != nil {
			q.malformed()
			q.log.Warn().Err(err).Msg("redis queue: discarding malformed entry")
			continue
		}
		return task, true, nil
	}
	return tasks.Task{}, false, nil
}

// Length issues a list-length query.
func (q *Queue) Length(ctx context.Context) (int64, error) {
	n, err := q.rdb.LLen(ctx, q.key).Result()
	if err != nil {
		return 0, unavailable(err)
	}
	return n, nil
}

func unavailable(err error) error {
	return &backendUnavailableError{cause: err}
}

type backendUnavailableError struct {
	cause error
}

func (e *backendUnavailableError) Error() string {
	return backend.ErrBackendUnavailable.Error() + ": " + e.cause.Error()
}

func (e *backendUnavailableError) Unwrap() error {
	return backend.ErrBackendUnavailable
}
