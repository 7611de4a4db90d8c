// Package sched provides the timer abstraction the engine runs on:
// periodic entries with second granularity plus cancellable one-shot
// timers. Periodic scheduling is delegated to robfig/cron; jobs run on
// cron's own goroutines, so callers that need single-writer discipline
// must hand off to their own loop (see internal/engine).
package sched

import (
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// CancelFunc stops a scheduled entry. Calling it more than once is safe.
type CancelFunc func()

// Scheduler owns a set of periodic and one-shot timers with a common
// lifecycle: nothing fires before Start, nothing fires after Stop.
type Scheduler struct {
	cron *cron.Cron

	mu     sync.Mutex
	timers map[int]*time.Timer
	nextID int
}

// New creates a stopped scheduler.
func New() *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		timers: make(map[int]*time.Timer),
	}
}

// Start begins dispatching scheduled entries.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts periodic dispatch and cancels all pending one-shot timers.
// Jobs already in flight run to completion.
func (s *Scheduler) Stop() {
	s.cron.Stop()

	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// Every schedules fn to run repeatedly with the given period. Periods are
// rounded to whole seconds with a minimum of one second (cron granularity).
func (s *Scheduler) Every(period time.Duration, fn func()) CancelFunc {
	id := s.cron.Schedule(cron.Every(period), cron.FuncJob(fn))
	var once sync.Once
	return func() {
		once.Do(func() { s.cron.Remove(id) })
	}
}

// After schedules fn to run once after the given delay.
func (s *Scheduler) After(delay time.Duration, fn func()) CancelFunc {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.mu.Unlock()

	t := time.AfterFunc(delay, func() {
		s.mu.Lock()
		delete(s.timers, id)
		s.mu.Unlock()
		fn()
	})

	s.mu.Lock()
	s.timers[id] = t
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if t, ok := s.timers[id]; ok {
			t.Stop()
			delete(s.timers, id)
		}
	}
}
