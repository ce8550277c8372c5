// Package retrieve implements the retrieval API: get/delete/exists on
// result records, mapped one-to-one onto a ResultStore. Retrieval never
// blocks waiting for a result; polling is the caller's responsibility.
package retrieve

import (
	"context"

	"github.com/guido-cesarano/distributedq/pkg/backend"
	"github.com/guido-cesarano/distributedq/pkg/tasks"
)

// Retriever reads and deletes results by task id.
type Retriever struct {
	store backend.ResultStore
}

// New constructs a Retriever bound to a result store backend.
func New(store backend.ResultStore) *Retriever {
	return &Retriever{store: store}
}

// Get returns the record for id, or backend.ErrNotFound if absent.
func (r *Retriever) Get(ctx context.Context, id string) (tasks.Task, error) {
	record, _, err := r.store.Get(ctx, id)
	return record, err
}

// Delete removes id. Idempotent.
func (r *Retriever) Delete(ctx context.Context, id string) error {
	return r.store.Delete(ctx, id)
}

// Exists reports whether id has a live record.
func (r *Retriever) Exists(ctx context.Context, id string) (bool, error) {
	return r.store.Exists(ctx, id)
}
