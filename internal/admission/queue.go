// Package admission bounds the number of concurrent outbound requests.
// Requests over the limit wait in FIFO order; a waiter whose context is
// cancelled leaves the queue without ever running.
package admission

import (
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

const DefaultMaxConcurrent = 3

type Queue struct {
	sem     *semaphore.Weighted
	limit   int
	active  atomic.Int64
	waiting atomic.Int64
}

// New returns a queue admitting at most limit requests at a time.
func New(limit int) *Queue {
	if limit <= 0 {
		limit = DefaultMaxConcurrent
	}
	return &Queue{sem: semaphore.NewWeighted(int64(limit)), limit: limit}
}

// Acquire blocks until a slot is free or ctx is done. The returned release
// func frees the slot; calling it more than once is a no-op.
func (q *Queue) Acquire(ctx context.Context) (release func(), err error) {
	q.waiting.Add(1)
	err = q.sem.Acquire(ctx, 1)
	q.waiting.Add(-1)
	if err != nil {
		return nil, err
	}

	q.active.Add(1)
	var once sync.Once
	return func() {
		once.Do(func() {
			// decrement before handing the slot on so Active never exceeds the limit
			q.active.Add(-1)
			q.sem.Release(1)
		})
	}, nil
}

// Do runs fn once admitted and releases the slot when fn returns or panics.
func (q *Queue) Do(ctx context.Context, fn func(context.Context) error) error {
	release, err := q.Acquire(ctx)
	if err != nil {
		return err
	}
	defer release()
	return fn(ctx)
}

// Run is Do for calls that produce a value.
func Run[T any](ctx context.Context, q *Queue, fn func(context.Context) (T, error)) (T, error) {
	release, err := q.Acquire(ctx)
	if err != nil {
		var zero T
		return zero, err
	}
	defer release()
	return fn(ctx)
}

// Active is the number of admitted requests still running.
func (q *Queue) Active() int { return int(q.active.Load()) }

// Waiting is the number of requests queued for a slot.
func (q *Queue) Waiting() int { return int(q.waiting.Load()) }

func (q *Queue) Limit() int { return q.limit }
