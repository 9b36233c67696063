// Package scheduler implements the one-shot, cancellable delayed tasks the
// session uses for delayed responses, scheduled variable writes, and
// unsolicited item emissions. Every fired task is delivered back onto the
// session's single event-loop goroutine rather than run on the timer's own
// goroutine, preserving the single-threaded mutation model.
package scheduler

import (
	"sync"
	"time"
)

// Task is a payload of any shape the caller wants delivered once its delay
// elapses.
type Task struct {
	id      uint64
	payload interface{}
}

// Payload returns the value the task was scheduled with.
func (t Task) Payload() interface{} { return t.payload }

// Scheduler posts fired tasks onto a channel the owning session drains on
// its event loop; Cancel lets a state transition withdraw a still-pending
// task before it fires.
type Scheduler struct {
	mu      sync.Mutex
	timers  map[uint64]*time.Timer
	nextID  uint64
	fired   chan Task
	closed  bool
}

// New returns a Scheduler whose Fired channel the caller must drain.
func New() *Scheduler {
	return &Scheduler{
		timers: map[uint64]*time.Timer{},
		fired:  make(chan Task, 64),
	}
}

// Fired is the channel on which due tasks arrive.
func (s *Scheduler) Fired() <-chan Task {
	return s.fired
}

// Handle identifies one scheduled task for cancellation.
type Handle uint64

// After schedules payload to arrive on Fired() once delay elapses (delay<=0
// fires as soon as the runtime can schedule it, never synchronously).
func (s *Scheduler) After(delay time.Duration, payload interface{}) Handle {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	id := s.nextID
	t := Task{id: id, payload: payload}
	s.timers[id] = time.AfterFunc(delay, func() {
		s.mu.Lock()
		_, stillPending := s.timers[id]
		if stillPending {
			delete(s.timers, id)
		}
		closed := s.closed
		s.mu.Unlock()
		if stillPending && !closed {
			s.fired <- t
		}
	})
	return Handle(id)
}

// Cancel withdraws a still-pending task; it is a no-op if the task already
// fired or does not exist.
func (s *Scheduler) Cancel(h Handle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if t, ok := s.timers[uint64(h)]; ok {
		t.Stop()
		delete(s.timers, uint64(h))
	}
}

// CancelAll withdraws every pending task but, unlike Close, leaves the
// scheduler open for new ones.
func (s *Scheduler) CancelAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
}

// Close cancels every pending task and stops further delivery, used when
// the peer connection closes.
func (s *Scheduler) Close() {
	s.mu.Lock()
	s.closed = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	s.mu.Unlock()
}
