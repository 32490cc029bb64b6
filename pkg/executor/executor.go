// Package executor bridges blocking inference calls onto a bounded worker
// pool so callers on the request path never block a goroutine scheduler the
// way a raw blocking call would starve an async event loop. It is the direct
// Go counterpart of a ThreadPoolExecutor fronted by RunSync/RunSyncGenerator.
package executor

import (
	"context"
	"fmt"
	"runtime"
	"sync"

	"go.uber.org/zap"
)

// Executor runs blocking work on a bounded pool of goroutines. Submission
// order is not preserved across workers; the pool performs arbitrary work
// stealing via a shared channel, exactly as spec'd ("FIFO admission is not
// required").
type Executor struct {
	sem      chan struct{}
	wg       sync.WaitGroup
	mu       sync.Mutex
	draining bool
}

// New builds an Executor with the given worker cap. A cap <= 0 defaults to
// max(4, runtime.NumCPU()).
func New(maxWorkers int) *Executor {
	if maxWorkers <= 0 {
		maxWorkers = runtime.NumCPU()
		if maxWorkers < 4 {
			maxWorkers = 4
		}
	}
	return &Executor{sem: make(chan struct{}, maxWorkers)}
}

// RunSync schedules fn on a worker and blocks the caller (but not the whole
// process — the caller is expected to be its own goroutine) until fn
// returns or ctx is cancelled first.
func RunSync[T any](ctx context.Context, ex *Executor, fn func() (T, error)) (T, error) {
	var zero T

	ex.mu.Lock()
	if ex.draining {
		ex.mu.Unlock()
		return zero, fmt.Errorf("executor: shutting down")
	}
	ex.wg.Add(1)
	ex.mu.Unlock()
	defer ex.wg.Done()

	select {
	case ex.sem <- struct{}{}:
	case <-ctx.Done():
		return zero, ctx.Err()
	}
	defer func() { <-ex.sem }()

	type result struct {
		v   T
		err error
	}
	done := make(chan result, 1)
	go func() {
		v, err := fn()
		done <- result{v, err}
	}()

	select {
	case r := <-done:
		return r.v, r.err
	case <-ctx.Done():
		// Cooperative: the worker goroutine still runs fn to completion and
		// its result is discarded; Go has no safe preemption primitive, so
		// callers of blocking generators should select on ctx themselves.
		return zero, ctx.Err()
	}
}

// RunSyncGenerator adapts a blocking generator function (one that pushes
// values through `emit` until it returns) into a channel the caller can
// range over. The channel is closed after either a final value, an error, or
// context cancellation; the producer goroutine checks ctx cooperatively
// between emits and exits on its next opportunity once cancelled.
func RunSyncGenerator[T any](ctx context.Context, ex *Executor, queueSize int, generate func(emit func(T) bool)) <-chan streamItemPublic[T] {
	if queueSize <= 0 {
		queueSize = 16
	}
	out := make(chan streamItemPublic[T], queueSize)

	ex.mu.Lock()
	draining := ex.draining
	if !draining {
		ex.wg.Add(1)
	}
	ex.mu.Unlock()
	if draining {
		close(out)
		return out
	}

	select {
	case ex.sem <- struct{}{}:
	case <-ctx.Done():
		ex.wg.Done()
		close(out)
		return out
	}

	go func() {
		defer ex.wg.Done()
		defer func() { <-ex.sem }()
		defer close(out)

		defer func() {
			if r := recover(); r != nil {
				select {
				case out <- streamItemPublic[T]{Err: fmt.Errorf("generator panic: %v", r)}:
				case <-ctx.Done():
				}
			}
		}()

		emit := func(v T) bool {
			select {
			case out <- streamItemPublic[T]{Value: v}:
				return true
			case <-ctx.Done():
				return false
			}
		}
		generate(emit)
	}()

	return out
}

// streamItemPublic is the item type yielded to RunSyncGenerator callers.
type streamItemPublic[T any] struct {
	Value T
	Err   error
}

// BridgeChannel drains src on a bounded pool worker instead of letting the
// caller's own goroutine absorb src's production cost directly — the
// streaming equivalent of RunSync, for callers that already hold a channel
// from an engine call (e.g. a synthesis stream) and forward its values
// incrementally rather than collecting them into one result.
func BridgeChannel[T any](ctx context.Context, ex *Executor, queueSize int, src <-chan T) <-chan T {
	if queueSize <= 0 {
		queueSize = 16
	}
	items := RunSyncGenerator(ctx, ex, queueSize, func(emit func(T) bool) {
		for v := range src {
			if !emit(v) {
				return
			}
		}
	})
	out := make(chan T, queueSize)
	go func() {
		defer close(out)
		for item := range items {
			if item.Err != nil {
				return
			}
			select {
			case out <- item.Value:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Shutdown waits for in-flight work to drain (wait=true semantics) and
// refuses further submissions.
func (ex *Executor) Shutdown() {
	ex.mu.Lock()
	ex.draining = true
	ex.mu.Unlock()
	ex.wg.Wait()
}

// Logf is a small convenience so callers can log pool construction without
// importing zap directly at every call site.
func Logf(logger *zap.Logger, maxWorkers int) {
	logger.Info("inference executor created", zap.Int("max_workers", maxWorkers))
}
