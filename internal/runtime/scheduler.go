package runtime

import (
	"sync"

	loggingpkg "github.com/drblury/relay/internal/runtime/logging"
)

// Scheduler runs handler invocations off the dispatching goroutine. Schedule
// must not run task before returning.
type Scheduler interface {
	Schedule(task func())
}

// SchedulerFunc adapts a function to Scheduler.
type SchedulerFunc func(task func())

func (f SchedulerFunc) Schedule(task func()) { f(task) }

// GoroutineScheduler starts one goroutine per task. Slow handlers never delay
// other handlers, and completions may interleave in any order.
type GoroutineScheduler struct{}

func (GoroutineScheduler) Schedule(task func()) {
	go task()
}

// SerialScheduler runs tasks one at a time, in submission order, on a single
// worker goroutine. The queue is unbounded so Schedule never blocks.
type SerialScheduler struct {
	mu      sync.Mutex
	queue   []func()
	wake    chan struct{}
	closed  bool
	dropped int
	done    chan struct{}

	logger loggingpkg.ServiceLogger
}

// NewSerialScheduler starts the worker goroutine. Call Close to stop it.
// Tasks scheduled after Close are dropped and reported to logger, which may
// be nil.
func NewSerialScheduler(logger loggingpkg.ServiceLogger) *SerialScheduler {
	s := &SerialScheduler{
		wake:   make(chan struct{}, 1),
		done:   make(chan struct{}),
		logger: loggingpkg.OrNop(logger),
	}
	go s.loop()
	return s
}

func (s *SerialScheduler) Schedule(task func()) {
	s.mu.Lock()
	if s.closed {
		s.dropped++
		dropped := s.dropped
		s.mu.Unlock()
		// A dropped request handler means its response is never sent.
		s.logger.Error("Dropping task, scheduler is closed", nil, loggingpkg.LogFields{
			"dropped_total": dropped,
		})
		return
	}
	s.queue = append(s.queue, task)
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Dropped reports how many tasks were refused after Close.
func (s *SerialScheduler) Dropped() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dropped
}

// Close stops accepting tasks, drains the queue and waits for the worker.
func (s *SerialScheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		<-s.done
		return
	}
	s.closed = true
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
	<-s.done
}

func (s *SerialScheduler) loop() {
	defer close(s.done)
	for {
		s.mu.Lock()
		if len(s.queue) == 0 {
			closed := s.closed
			s.mu.Unlock()
			if closed {
				return
			}
			<-s.wake
			continue
		}
		task := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.mu.Unlock()

		task()
	}
}
