package worker

import (
	"context"
	"sync"
)

// TaskSet tracks background work spawned by request handling: the
// fire-and-forget refreshes of cache-first dispatch and the update
// checks triggered by navigations. Tracking them lets a host wait for
// every pending continuation before recycling the worker, and lets
// tests observe completion instead of sleeping.
type TaskSet struct {
	wg sync.WaitGroup

	mu     sync.Mutex
	active int
}

// Go runs fn on a new goroutine and tracks it until it returns.
func (s *TaskSet) Go(fn func()) {
	s.mu.Lock()
	s.active++
	s.mu.Unlock()

	s.wg.Add(1)
	go func() {
		defer func() {
			s.mu.Lock()
			s.active--
			s.mu.Unlock()
			s.wg.Done()
		}()
		fn()
	}()
}

// Active reports the number of tasks currently running.
func (s *TaskSet) Active() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Wait blocks until every tracked task has settled or ctx is done.
// Tasks themselves are never cancelled; they run to completion or
// local error.
func (s *TaskSet) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
