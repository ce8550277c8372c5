package memory

import (
	"context"
	"testing"
	"time"

	"github.com/guido-cesarano/distributedq/pkg/backend"
	"github.com/guido-cesarano/distributedq/pkg/tasks"
	"github.com/rs/zerolog"
)

func newTestStore(interval time.Duration) *Store {
	return NewStore(interval, zerolog.Nop())
}

func TestStorePutGetDelete(t *testing.T) {
	s := newTestStore(time.Hour)
	defer s.Close()
	ctx := context.Background()

	record := tasks.Task{ID: "x", Status: tasks.StatusSucceeded, Result: float64(49)}
	if err := s.Put(ctx, "x", record, time.Hour); err != nil {
		t.Fatalf("Put: %v", err)
	}

	got, ok, err := s.Get(ctx, "x")
	if err != nil || !ok {
		t.Fatalf("Get: ok=%v err=%v", ok, err)
	}
	if got.ID != "x" {
		t.Errorf("unexpected record: %+v", got)
	}

	if err := s.Delete(ctx, "x"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, err := s.Get(ctx, "x"); ok || err != backend.ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got ok=%v err=%v", ok, err)
	}
}

func TestStoreDeleteIdempotent(t *testing.T) {
	s := newTestStore(time.Hour)
	defer s.Close()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.Delete(ctx, "missing"); err != nil {
			t.Fatalf("Delete iteration %d: %v", i, err)
		}
	}
	if exists, _ := s.Exists(ctx, "missing"); exists {
		t.Fatal("expected exists=false after repeated delete")
	}
}

func TestStoreLazyExpiry(t *testing.T) {
	s := newTestStore(time.Hour) // reaper interval far longer than the TTL under test
	defer s.Close()
	ctx := context.Background()

	s.Put(ctx, "y", tasks.Task{ID: "y"}, 20*time.Millisecond)

	if exists, _ := s.Exists(ctx, "y"); !exists {
		t.Fatal("expected exists=true immediately after Put")
	}

	time.Sleep(40 * time.Millisecond)

	if exists, _ := s.Exists(ctx, "y"); exists {
		t.Fatal("expected exists=false after TTL elapsed, before reaper runs")
	}
	if _, ok, err := s.Get(ctx, "y"); ok || err != backend.ErrNotFound {
		t.Fatalf("expected ErrNotFound for expired entry, got ok=%v err=%v", ok, err)
	}
}

func TestStoreReaperRemovesExpired(t *testing.T) {
	s := newTestStore(20 * time.Millisecond)
	defer s.Close()
	ctx := context.Background()

	s.Put(ctx, "z", tasks.Task{ID: "z"}, 5*time.Millisecond)

	time.Sleep(100 * time.Millisecond)

	s.mu.RLock()
	_, found := s.entries["z"]
	s.mu.RUnlock()
	if found {
		t.Fatal("expected reaper to have removed the expired entry")
	}
}

func TestStoreOverwrite(t *testing.T) {
	s := newTestStore(time.Hour)
	defer s.Close()
	ctx := context.Background()

	s.Put(ctx, "a", tasks.Task{ID: "a", Status: tasks.StatusFailed, Error: "boom"}, time.Hour)
	s.Put(ctx, "a", tasks.Task{ID: "a", Status: tasks.StatusSucceeded, Result: "ok"}, time.Hour)

	got, _, err := s.Get(ctx, "a")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != tasks.StatusSucceeded || got.Result != "ok" {
		t.Fatalf("expected overwrite to take effect, got %+v", got)
	}
}
