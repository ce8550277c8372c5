// Package submit implements the submission API: assign identity, stamp
// submission time, and enqueue.
package submit

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/guido-cesarano/distributedq/pkg/backend"
	"github.com/guido-cesarano/distributedq/pkg/tasks"
)

// ErrEmptyKind is returned when Submit is called with an empty kind.
var ErrEmptyKind = errors.New("submit: kind must not be empty")

// ErrPayloadNotSerializable is returned when payload cannot be encoded onto
// the wire, per §6's requirement that submission reject a bad payload up
// front rather than let it fail later, unobserved, inside a backend.
var ErrPayloadNotSerializable = errors.New("submit: payload is not serializable")

// Submitter accepts a task specification, assigns identity, enqueues it,
// and returns a handle (the assigned id).
type Submitter struct {
	queue backend.Queue
}

// New constructs a Submitter bound to a queue backend.
func New(queue backend.Queue) *Submitter {
	return &Submitter{queue: queue}
}

// Submit validates kind and payload, assigns an id, sets status = pending
// and submitted_at = now, and pushes the task onto the queue. On
// backend.ErrBackendUnavailable the submission fails and no id is
// returned; the caller may retry. submitted_at is recorded by this
// caller's clock, not the queue backend's, per the design's resolution of
// that open question.
func (s *Submitter) Submit(ctx context.Context, kind string, payload map[string]any) (string, error) {
	if kind == "" {
		return "", ErrEmptyKind
	}

	task := tasks.Task{
		ID:          tasks.NewID(),
		Kind:        kind,
		Payload:     payload,
		Status:      tasks.StatusPending,
		SubmittedAt: time.Now(),
	}

	// Probe serializability up front: the memory queue stores the Task
	// value directly with no encode step, so without this check a
	// payload that can't round-trip through the wire format would sail
	// straight into the queue and only surface much later, as a handler
	// or result-store failure instead of a rejected submission.
	if _, err := tasks.Encode(task); err != nil {
		return "", fmt.Errorf("%w: %v", ErrPayloadNotSerializable, err)
	}

	if err := s.queue.Push(ctx, task); err != nil {
		return "", err
	}
	return task.ID, nil
}
