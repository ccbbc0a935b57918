package ygggo_db

import (
	"context"
	"errors"
	"sync"

	"github.com/google/uuid"
)

type jobIDKey struct{}

// WithJobID attaches a diagnostic job ID to the context; statement and
// transaction log lines include it.
func WithJobID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, jobIDKey{}, id)
}

// JobIDFromContext returns the diagnostic job ID, or "".
func JobIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(jobIDKey{}).(string)
	return id
}

// AsyncRunner runs units of work on background goroutines with a bounded
// worker pool. Each job gets its own provider (its own connection) and a
// generated job ID propagated through the context into every log line, so
// results can be correlated after the fact.
//
// There is no retry: a failed transaction is reported on the result
// channel, never repeated.
type AsyncRunner struct {
	b    *Builder
	sem  chan struct{}
	wg   sync.WaitGroup
	mu   sync.Mutex
	done bool
}

// NewAsyncRunner creates a runner executing at most workers transactions
// concurrently.
func NewAsyncRunner(b *Builder, workers int) *AsyncRunner {
	if workers < 1 {
		workers = 1
	}
	return &AsyncRunner{b: b, sem: make(chan struct{}, workers)}
}

// TransactAsync schedules fn as one unit of work and returns a channel
// delivering its single result. The caller's context is honored while
// waiting for a worker slot and during execution.
func (r *AsyncRunner) TransactAsync(ctx context.Context, fn func(*Database) error) <-chan error {
	out := make(chan error, 1)
	r.mu.Lock()
	if r.done {
		r.mu.Unlock()
		out <- errors.New("async runner already closed")
		return out
	}
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		select {
		case r.sem <- struct{}{}:
			defer func() { <-r.sem }()
		case <-ctx.Done():
			out <- ctx.Err()
			return
		}
		jobCtx := ctx
		if JobIDFromContext(ctx) == "" {
			jobCtx = WithJobID(ctx, uuid.NewString()[:8])
		}
		out <- r.b.Transact(jobCtx, fn)
	}()
	return out
}

// Close waits for in-flight jobs and refuses new ones.
func (r *AsyncRunner) Close() {
	r.mu.Lock()
	r.done = true
	r.mu.Unlock()
	r.wg.Wait()
}
