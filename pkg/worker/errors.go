package worker

import "errors"

// Namespace prefixes the pool's sentinel errors, in the style of
// ygrebnov-workers' package-level sentinel errors. ErrHandlerTimeout is the
// exception: its text is recorded verbatim as task.Error and carries no
// prefix.
const Namespace = "worker"

var (
	// ErrHandlerTimeout is the task.Error diagnostic recorded when a
	// handler exceeds its per-task execution deadline.
	ErrHandlerTimeout = errors.New("timeout")

	// ErrResultPublishLost marks a task whose outcome was computed but
	// could not be published to the result store after the configured
	// number of attempts. The task's outcome is lost; only a counter
	// records that it happened.
	ErrResultPublishLost = errors.New(Namespace + ": result publish lost after max attempts")
)
