package retrieve

import (
	"context"
	"testing"
	"time"

	"github.com/guido-cesarano/distributedq/pkg/backend"
	"github.com/guido-cesarano/distributedq/pkg/backend/memory"
	"github.com/guido-cesarano/distributedq/pkg/tasks"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestRetrieveGetDeleteExists(t *testing.T) {
	store := memory.NewStore(time.Hour, zerolog.Nop())
	defer store.Close()
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "a", tasks.Task{ID: "a", Status: tasks.StatusSucceeded, Result: float64(49)}, time.Hour))

	r := New(store)

	exists, err := r.Exists(ctx, "a")
	require.NoError(t, err)
	require.True(t, exists)

	got, err := r.Get(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, "a", got.ID)

	require.NoError(t, r.Delete(ctx, "a"))

	exists, err = r.Exists(ctx, "a")
	require.NoError(t, err)
	require.False(t, exists)

	_, err = r.Get(ctx, "a")
	require.ErrorIs(t, err, backend.ErrNotFound)
}

func TestRetrieveDeleteIdempotent(t *testing.T) {
	store := memory.NewStore(time.Hour, zerolog.Nop())
	defer store.Close()
	r := New(store)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		require.NoError(t, r.Delete(ctx, "missing"), "iteration %d", i)
	}
}
