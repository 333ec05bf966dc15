// Package bridge runs native operations off the caller's thread and reports
// each completion through a callback, exactly once.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"portbridge/internal/metrics"
	"portbridge/logger"
	"portbridge/sdkerr"
)

// ErrRuntimeClosed is returned by Execute once Shutdown has begun.
var ErrRuntimeClosed = errors.New("bridge: runtime closed")

const defaultWorkers = 16

// Operation is the native work to run. Its value is serialized to JSON for
// the callback; json.RawMessage and []byte values are passed through as is.
type Operation func(ctx context.Context) (any, error)

// Callback receives either the serialized value or a SimpleError, never both.
type Callback func(value []byte, err *sdkerr.SimpleError)

// Runtime bounds how many operations run at once. Operations beyond the
// bound wait for a worker; Execute itself never waits.
type Runtime struct {
	sem *semaphore.Weighted
	log *logger.Entry

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup
}

func NewRuntime(workers int) *Runtime {
	if workers <= 0 {
		workers = defaultWorkers
	}
	log := logger.GetLogger().WithComponent("async_bridge")
	log.WithField("workers", workers).Debug("runtime started")
	return &Runtime{
		sem: semaphore.NewWeighted(int64(workers)),
		log: log,
	}
}

// Execute schedules op and returns its operation id. cb is invoked exactly
// once when op finishes, on a goroutine owned by the runtime. When the
// runtime is closed Execute returns ErrRuntimeClosed and cb is never called.
func (r *Runtime) Execute(op Operation, cb Callback) (string, error) {
	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return "", ErrRuntimeClosed
	}
	r.wg.Add(1)
	r.mu.RUnlock()

	id := uuid.NewString()
	metrics.OperationScheduled()
	logger.Count("operations_in_flight", 1)
	go r.run(id, op, cb)
	return id, nil
}

func (r *Runtime) run(id string, op Operation, cb Callback) {
	defer r.wg.Done()
	defer logger.Count("operations_in_flight", -1)
	log := r.log.WithField("operation_id", id)

	ctx := context.Background()
	// Acquire on a background context cannot fail.
	_ = r.sem.Acquire(ctx, 1)
	start := time.Now()
	value, serr, outcome := r.invoke(ctx, op, log)
	r.sem.Release(1)

	metrics.OperationCompleted(outcome)
	logger.LogPerformanceEntry(log, "async_bridge", "operation", time.Since(start), logger.Fields{"outcome": outcome})
	r.deliver(cb, value, serr, log)
}

func (r *Runtime) invoke(ctx context.Context, op Operation, log *logger.Entry) (value []byte, serr *sdkerr.SimpleError, outcome string) {
	defer func() {
		if p := recover(); p != nil {
			log.WithFields(logger.Fields{"panic": fmt.Sprint(p), "stack": string(debug.Stack())}).Error("operation panicked")
			value, serr, outcome = nil, sdkerr.Other(fmt.Sprintf("panic: %v", p)), metrics.OutcomePanic
		}
	}()

	v, err := op(ctx)
	if err != nil {
		return nil, sdkerr.Simplify(err), metrics.OutcomeError
	}
	b, err := encode(v)
	if err != nil {
		return nil, sdkerr.Other(fmt.Sprintf("encode result: %v", err)), metrics.OutcomeError
	}
	return b, nil, metrics.OutcomeOK
}

func encode(v any) ([]byte, error) {
	switch t := v.(type) {
	case json.RawMessage:
		if t == nil {
			return []byte("null"), nil
		}
		return t, nil
	case []byte:
		return t, nil
	default:
		return json.Marshal(v)
	}
}

// deliver invokes cb. A panicking callback is logged and contained so the
// runtime keeps serving other operations.
func (r *Runtime) deliver(cb Callback, value []byte, serr *sdkerr.SimpleError, log *logger.Entry) {
	defer func() {
		if p := recover(); p != nil {
			log.WithField("panic", fmt.Sprint(p)).Error("callback panicked")
		}
	}()
	metrics.CallbackDelivered()
	if cb != nil {
		cb(value, serr)
	}
}

// Shutdown stops accepting operations and waits for in-flight ones to call
// back, or for ctx to end.
func (r *Runtime) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		r.log.Debug("runtime stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
