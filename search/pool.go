package search

import (
	"context"
	"fmt"
	"sync"

	"github.com/TuftsBCB/motif"
)

// pool is a fixed set of goroutines owned by a single query. Work is handed
// out in batches by forEach, which doubles as the barrier between
// generations. The pool must be closed before the query returns, which waits
// for every goroutine to exit.
type pool struct {
	jobs chan func()
	wg   sync.WaitGroup
}

func newPool(threads int) *pool {
	if threads < 1 {
		threads = 1
	}
	p := &pool{jobs: make(chan func(), threads*2)}
	p.wg.Add(threads)
	for w := 0; w < threads; w++ {
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				job()
			}
		}()
	}
	return p
}

// forEach calls f(ctx, i) for every i in [0, n) on the goroutines of the
// pool and returns once every call has returned. The first error stops the
// calls that have not started yet and cancels the context seen by the calls
// that are running. A panic in f is returned as a *motif.InternalError.
//
// The error returned is the first error of f, or the error of ctx if it was
// done before all calls could be made.
func (p *pool) forEach(
	ctx context.Context,
	n int,
	f func(ctx context.Context, i int) error,
) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

feed:
	for i := 0; i < n; i++ {
		i := i
		job := func() {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					fail(&motif.InternalError{
						Cause: fmt.Errorf("Worker panicked: %v", r),
					})
				}
			}()
			if ctx.Err() != nil {
				return
			}
			if err := f(ctx, i); err != nil {
				fail(err)
			}
		}

		wg.Add(1)
		select {
		case p.jobs <- job:
		case <-ctx.Done():
			wg.Done()
			break feed
		}
	}
	wg.Wait()

	if firstErr != nil {
		return firstErr
	}
	return ctx.Err()
}

// close stops the goroutines of the pool and waits for them to exit.
func (p *pool) close() {
	close(p.jobs)
	p.wg.Wait()
}
