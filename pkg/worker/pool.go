// Package worker implements the worker runtime: a handler registry and a
// pool of concurrent executors that pop tasks from a Queue, invoke the
// registered handler, and publish the outcome to a ResultStore.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/guido-cesarano/distributedq/pkg/backend"
	"github.com/guido-cesarano/distributedq/pkg/tasks"
	"github.com/rs/zerolog"
)

// Config controls the pool's concurrency and retry behavior. Zero values
// for the optional fields fall back to the defaults below.
type Config struct {
	// NumWorkers is the number of concurrent executors.
	NumWorkers int

	// PollTimeout bounds each Queue.Pop call.
	PollTimeout time.Duration

	// ExecutionDeadline bounds handler invocation. Zero means no deadline.
	ExecutionDeadline time.Duration

	// ResultTTL is the TTL passed to ResultStore.Put.
	ResultTTL time.Duration

	// MaxPublishAttempts bounds ResultStore.Put retries before the
	// outcome is dropped (default 5).
	MaxPublishAttempts int

	// PublishBackoffBase is the first retry delay (default 100ms),
	// doubling on each attempt up to PublishBackoffCap (default 5s).
	PublishBackoffBase time.Duration
	PublishBackoffCap  time.Duration

	// ShutdownGrace bounds how long Shutdown waits for in-flight
	// executors before detaching them.
	ShutdownGrace time.Duration
}

const (
	defaultPollTimeout        = time.Second
	defaultResultTTL          = time.Hour
	defaultMaxPublishAttempts = 5
	defaultPublishBackoffBase = 100 * time.Millisecond
	defaultPublishBackoffCap  = 5 * time.Second
	defaultShutdownGrace      = 30 * time.Second
)

func (c Config) withDefaults() Config {
	if c.NumWorkers <= 0 {
		c.NumWorkers = 1
	}
	if c.PollTimeout <= 0 {
		c.PollTimeout = defaultPollTimeout
	}
	if c.ResultTTL <= 0 {
		c.ResultTTL = defaultResultTTL
	}
	if c.MaxPublishAttempts <= 0 {
		c.MaxPublishAttempts = defaultMaxPublishAttempts
	}
	if c.PublishBackoffBase <= 0 {
		c.PublishBackoffBase = defaultPublishBackoffBase
	}
	if c.PublishBackoffCap <= 0 {
		c.PublishBackoffCap = defaultPublishBackoffCap
	}
	if c.ShutdownGrace <= 0 {
		c.ShutdownGrace = defaultShutdownGrace
	}
	return c
}

// Pool runs Config.NumWorkers concurrent executors against a shared queue
// and result store, dispatching each popped task to the handler registered
// for its kind.
type Pool struct {
	cfg      Config
	queue    backend.Queue
	store    backend.ResultStore
	registry *Registry
	metrics  *Metrics
	log      zerolog.Logger

	wg      sync.WaitGroup
	allDone chan struct{}
}

// NewPool constructs a Pool. metrics may be nil, in which case
// observations are silently dropped.
func NewPool(cfg Config, queue backend.Queue, store backend.ResultStore, registry *Registry, metrics *Metrics, log zerolog.Logger) *Pool {
	return &Pool{
		cfg:      cfg.withDefaults(),
		queue:    queue,
		store:    store,
		registry: registry,
		metrics:  metrics,
		log:      log,
	}
}

// Start launches the executor goroutines. It returns immediately; each
// executor runs until ctx is done, finishing its current task (respecting
// the execution deadline) before exiting.
func (p *Pool) Start(ctx context.Context) {
	p.allDone = make(chan struct{})
	for i := 0; i < p.cfg.NumWorkers; i++ {
		p.wg.Add(1)
		go p.executorLoop(ctx, i)
	}
	go func() {
		p.wg.Wait()
		close(p.allDone)
	}()
}

// Shutdown blocks until all executors have exited, graceCtx is done, or
// Config.ShutdownGrace elapses, whichever comes first. Past that point,
// remaining executors are detached and any results they were about to
// publish may be lost.
func (p *Pool) Shutdown(graceCtx context.Context) error {
	graceCtx, cancel := context.WithTimeout(graceCtx, p.cfg.ShutdownGrace)
	defer cancel()
	select {
	case <-p.allDone:
		return nil
	case <-graceCtx.Done():
		return graceCtx.Err()
	}
}

func (p *Pool) executorLoop(ctx context.Context, id int) {
	defer p.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		task, ok, err := p.queue.Pop(ctx, p.cfg.PollTimeout)
		if err != nil {
			p.log.Error().Err(err).Int("executor", id).Msg("queue pop failed")
			continue
		}
		if !ok {
			continue
		}

		p.process(task)
	}
}

// process runs one task from pop through result publication. It never
// returns an error: every failure mode (no handler, handler error, panic,
// timeout) is captured as the task's terminal outcome instead.
func (p *Pool) process(task tasks.Task) {
	now := time.Now()
	task.Status = tasks.StatusRunning
	task.StartedAt = &now

	if p.metrics != nil {
		p.metrics.QueueLatency.WithLabelValues(task.Kind).Observe(now.Sub(task.SubmittedAt).Seconds())
	}

	handler, found := p.registry.Lookup(task.Kind)

	var result any
	var outcomeErr error
	if !found {
		outcomeErr = fmt.Errorf("no handler for kind %s", task.Kind)
	} else {
		result, outcomeErr = p.invoke(handler, task)
	}

	finished := time.Now()
	task.FinishedAt = &finished
	if p.metrics != nil {
		p.metrics.Duration.WithLabelValues(task.Kind).Observe(finished.Sub(now).Seconds())
	}

	if outcomeErr != nil {
		task.Status = tasks.StatusFailed
		task.Error = outcomeErr.Error()
		p.log.Error().Err(outcomeErr).Str("task_id", task.ID).Str("kind", task.Kind).Msg("task failed")
	} else {
		task.Status = tasks.StatusSucceeded
		task.Result = result
	}

	p.publish(task)
}

// invoke runs handler under a context scoped only to the execution
// deadline, deliberately not derived from the executor loop's context:
// worker shutdown cancels the loop, not an in-flight handler. A panicking
// handler is recovered and reported as a failed outcome; the executor
// itself is never terminated by a handler fault. A handler that ignores
// ctx cancellation past its deadline leaks its goroutine until it returns
// on its own — treating handlers as opaque rules out forcibly killing one.
func (p *Pool) invoke(handler Handler, task tasks.Task) (any, error) {
	callCtx := context.Background()
	var cancel context.CancelFunc
	if p.cfg.ExecutionDeadline > 0 {
		callCtx, cancel = context.WithTimeout(callCtx, p.cfg.ExecutionDeadline)
		defer cancel()
	}

	type outcome struct {
		result any
		err    error
	}
	done := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- outcome{nil, fmt.Errorf("handler panicked: %v", r)}
			}
		}()
		result, err := handler(callCtx, task.Payload)
		done <- outcome{result, err}
	}()

	select {
	case o := <-done:
		return o.result, o.err
	case <-callCtx.Done():
		return nil, ErrHandlerTimeout
	}
}

// publish stores task's terminal record, retrying any Put error with
// bounded exponential backoff. After MaxPublishAttempts failures the
// outcome is dropped and PublishLost is incremented; the result-publication
// context is independent of the executor loop's context so a shutdown
// signal does not cut off a publish already in flight.
func (p *Pool) publish(task tasks.Task) {
	ctx := context.Background()
	backoff := p.cfg.PublishBackoffBase

	for attempt := 1; attempt <= p.cfg.MaxPublishAttempts; attempt++ {
		err := p.store.Put(ctx, task.ID, task, p.cfg.ResultTTL)
		if err == nil {
			if p.metrics != nil {
				p.metrics.Processed.WithLabelValues(string(task.Status), task.Kind).Inc()
			}
			return
		}

		if attempt == p.cfg.MaxPublishAttempts {
			p.log.Error().Err(err).Str("task_id", task.ID).Int("attempts", attempt).
				Msg("result publish lost after max attempts")
			if p.metrics != nil {
				p.metrics.PublishLost.Inc()
			}
			return
		}

		p.log.Warn().Err(err).Str("task_id", task.ID).Int("attempt", attempt).
			Dur("backoff", backoff).Msg("result publish failed, retrying")
		time.Sleep(backoff)
		backoff *= 2
		if backoff > p.cfg.PublishBackoffCap {
			backoff = p.cfg.PublishBackoffCap
		}
	}
}
