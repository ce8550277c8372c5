package redis

import (
	"context"
	"errors"
	"time"

	"github.com/guido-cesarano/distributedq/pkg/backend"
	"github.com/guido-cesarano/distributedq/pkg/tasks"
	goredis "github.com/redis/go-redis/v9"
)

// Store stores each result as a single key "<prefix>:<id>" holding the
// serialized record, with expiry handled entirely by Redis (no local
// reaper).
type Store struct {
	rdb    *goredis.Client
	prefix string
}

// NewStore constructs a Store whose keys are "<prefix>:<id>".
func NewStore(rdb *goredis.Client, prefix string) *Store {
	return &Store{rdb: rdb, prefix: prefix}
}

func (s *Store) key(id string) string {
	return s.prefix + ":" + id
}

// Put stores record under id with expiry = now + ttl, overwriting any
// prior record for id.
func (s *Store) Put(ctx context.Context, id string, record tasks.Task, ttl time.Duration) error {
	data, err := tasks.Encode(record)
	if err != nil {
		return err
	}
	if err := s.rdb.Set(ctx, s.key(id), data, ttl).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// Get returns the record for id, or backend.ErrNotFound when the key is
// missing or has already expired per Redis' own TTL accounting.
func (s *Store) Get(ctx context.Context, id string) (tasks.Task, bool, error) {
	data, err := s.rdb.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, goredis.Nil) {
		return tasks.Task{}, false, backend.ErrNotFound
	}
	if err != nil {
		return tasks.Task{}, false, unavailable(err)
	}
	task, err := tasks.Decode(data)
	if err != nil {
		return tasks.Task{}, false, err
	}
	return task, true, nil
}

// Delete removes id unconditionally. Idempotent: deleting an absent id
// succeeds.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.rdb.Del(ctx, s.key(id)).Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// Exists queries key presence.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	n, err := s.rdb.Exists(ctx, s.key(id)).Result()
	if err != nil {
		return false, unavailable(err)
	}
	return n > 0, nil
}
