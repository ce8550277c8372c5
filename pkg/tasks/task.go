// Package tasks defines the canonical record passed through the queue and
// result store: identity, payload, status, result, and timing.
package tasks

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle stage of a Task. Transitions are monotonic:
// StatusPending -> StatusRunning -> {StatusSucceeded, StatusFailed}. There
// are no back-transitions.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Task is a unit of work moving through the submission, queue, worker, and
// result-store stages described in the core.
type Task struct {
	// ID is an opaque unique identifier assigned at submission.
	ID string `json:"id"`

	// Kind names the handler registered to process this task.
	Kind string `json:"kind"`

	// Payload is an opaque bag of key->value arguments for the handler.
	Payload map[string]any `json:"payload"`

	Status Status `json:"status"`

	// Result is present iff Status == StatusSucceeded.
	Result any `json:"result,omitempty"`

	// Error is present iff Status == StatusFailed.
	Error string `json:"error,omitempty"`

	SubmittedAt time.Time  `json:"submitted_at"`
	StartedAt   *time.Time `json:"started_at,omitempty"`
	FinishedAt  *time.Time `json:"finished_at,omitempty"`
}

// NewID returns a 128-bit random identifier rendered as 32 hex digits, per
// the identity rule: collision probability is treated as negligible.
func NewID() string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")
}

// wire is the on-the-wire shape of Task: millisecond-epoch timestamps so the
// encoding is stable across producer and consumer processes regardless of
// their local time.Time representation.
type wire struct {
	ID          string         `json:"id"`
	Kind        string         `json:"kind"`
	Payload     map[string]any `json:"payload"`
	Status      Status         `json:"status"`
	Result      any            `json:"result,omitempty"`
	Error       string         `json:"error,omitempty"`
	SubmittedAt int64          `json:"submitted_at"`
	StartedAt   *int64         `json:"started_at,omitempty"`
	FinishedAt  *int64         `json:"finished_at,omitempty"`
}

func toMillis(t time.Time) int64 {
	return t.UnixMilli()
}

func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}

// Encode serializes a Task to its stable wire format: a self-describing
// key-value encoding with integer-millisecond timestamps.
func Encode(t Task) ([]byte, error) {
	w := wire{
		ID:          t.ID,
		Kind:        t.Kind,
		Payload:     t.Payload,
		Status:      t.Status,
		Result:      t.Result,
		Error:       t.Error,
		SubmittedAt: toMillis(t.SubmittedAt),
	}
	if t.StartedAt != nil {
		ms := toMillis(*t.StartedAt)
		w.StartedAt = &ms
	}
	if t.FinishedAt != nil {
		ms := toMillis(*t.FinishedAt)
		w.FinishedAt = &ms
	}
	data, err := json.Marshal(w)
	if err != nil {
		return nil, fmt.Errorf("tasks: encode %s: %w", t.ID, err)
	}
	return data, nil
}

// Decode parses the wire format produced by Encode. Callers that receive a
// decode error from a queue-popped entry should treat it as a malformed
// entry (discard and count), not an application error.
func Decode(data []byte) (Task, error) {
	var w wire
	if err := json.Unmarshal(data, &w); err != nil {
		return Task{}, fmt.Errorf("tasks: decode: %w", err)
	}
	t := Task{
		ID:          w.ID,
		Kind:        w.Kind,
		Payload:     w.Payload,
		Status:      w.Status,
		Result:      w.Result,
		Error:       w.Error,
		SubmittedAt: fromMillis(w.SubmittedAt),
	}
	if w.StartedAt != nil {
		v := fromMillis(*w.StartedAt)
		t.StartedAt = &v
	}
	if w.FinishedAt != nil {
		v := fromMillis(*w.FinishedAt)
		t.FinishedAt = &v
	}
	return t, nil
}
