package redis

import (
	"context"
	"testing"
	"time"

	"github.com/guido-cesarano/distributedq/pkg/backend"
	"github.com/guido-cesarano/distributedq/pkg/tasks"
)

func TestStorePutGetDelete(t *testing.T) {
	_, rdb := setupTestRedis(t)
	store := NewStore(rdb, "result")
	ctx := context.Background()

	record := tasks.Task{ID: "x", Status: tasks.StatusSucceeded, Result: float64(49)}
	if err := store.Put(ctx, "x", record, time.Hour); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := store.Get(ctx, "x")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.ID != "x" || got.Status != tasks.StatusSucceeded {
		t.Errorf("unexpected record: %+v", got)
	}

	if err := store.Delete(ctx, "x"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, err := store.Get(ctx, "x"); ok || err != backend.ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got ok=%v err=%v", ok, err)
	}
}

func TestStoreDeleteIdempotent(t *testing.T) {
	_, rdb := setupTestRedis(t)
	store := NewStore(rdb, "result")
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := store.Delete(ctx, "missing"); err != nil {
			t.Fatalf("Delete iteration %d: %v", i, err)
		}
	}
	if exists, _ := store.Exists(ctx, "missing"); exists {
		t.Fatal("expected exists=false after repeated delete")
	}
}

func TestStoreTTLExpiry(t *testing.T) {
	s, rdb := setupTestRedis(t)
	store := NewStore(rdb, "result")
	ctx := context.Background()

	store.Put(ctx, "y", tasks.Task{ID: "y"}, 5*time.Second)

	if exists, _ := store.Exists(ctx, "y"); !exists {
		t.Fatal("expected exists=true before TTL elapses")
	}

	s.FastForward(6 * time.Second)

	if exists, _ := store.Exists(ctx, "y"); exists {
		t.Fatal("expected exists=false after TTL elapses")
	}
}
