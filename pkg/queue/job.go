package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Job defines a queue job handler.
type Job interface {
	// Name returns the unique identifier of the job.
	Name() string

	// Type returns the type of message that the job handles.
	Type() string

	// Handle processes the job with the given payload.
	Handle(ctx context.Context, payload json.RawMessage) error
}

// Outcome is what the queue should do with a message after dispatch.
type Outcome int

const (
	OutcomeDone Outcome = iota
	OutcomeRetry
	OutcomeDead
	OutcomeCancelled
)

// ErrUnknownJob is returned for messages no job is registered for.
var ErrUnknownJob = errors.New("queue: no job registered")

// Dispatcher routes messages to registered jobs and decides retries.
type Dispatcher struct {
	mu         sync.RWMutex
	jobs       map[string]Job
	retryLimit int
	timeout    time.Duration
}

func NewDispatcher(retryLimit int, timeout time.Duration) *Dispatcher {
	return &Dispatcher{jobs: make(map[string]Job), retryLimit: retryLimit, timeout: timeout}
}

// Register adds job; it reports false if its type is taken.
func (d *Dispatcher) Register(job Job) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, exists := d.jobs[job.Type()]; exists {
		return false
	}
	d.jobs[job.Type()] = job
	return true
}

// Has reports whether a job handles msgType.
func (d *Dispatcher) Has(msgType string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.jobs[msgType]
	return ok
}

// Dispatch runs the job for msg. On failure msg.Attempts is bumped when a
// retry is due. The returned error is the job's, for logging.
func (d *Dispatcher) Dispatch(ctx context.Context, msg *Message) (Outcome, error) {
	d.mu.RLock()
	job, ok := d.jobs[msg.Type]
	d.mu.RUnlock()
	if !ok {
		return OutcomeDead, fmt.Errorf("%w: %s", ErrUnknownJob, msg.Type)
	}

	if d.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.timeout)
		defer cancel()
	}

	err := job.Handle(ctx, msg.Payload)
	switch {
	case err == nil:
		return OutcomeDone, nil
	case errors.Is(err, context.Canceled):
		return OutcomeCancelled, err
	case msg.Attempts < d.retryLimit:
		msg.Attempts++
		return OutcomeRetry, err
	default:
		return OutcomeDead, err
	}
}
