package live

import (
	"sync"
	"time"
)

// Sink starts playing one buffer at the given wall-clock time and returns
// a function that cancels the playback if it has not finished.
type Sink interface {
	Play(buf PCMBuffer, at time.Time) (stop func())
}

// Scheduler lays successive buffers back to back with no gap and no
// overlap: each buffer starts at max(now, cursor) and advances the cursor
// by its duration. The cursor only ever moves forward except on an
// explicit Interrupt, which also cancels everything still pending.
type Scheduler struct {
	mu      sync.Mutex
	sink    Sink
	now     func() time.Time
	cursor  time.Time
	pending map[int]func()
	nextID  int
}

func NewScheduler(sink Sink, now func() time.Time) *Scheduler {
	if now == nil {
		now = time.Now
	}
	return &Scheduler{sink: sink, now: now, pending: map[int]func(){}}
}

// Schedule queues one buffer for gapless playback and returns its start
// time.
func (s *Scheduler) Schedule(buf PCMBuffer) time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := s.now()
	if s.cursor.After(start) {
		start = s.cursor
	}
	s.cursor = start.Add(buf.Duration())

	id := s.nextID
	s.nextID++
	stop := s.sink.Play(buf, start)
	if stop != nil {
		s.pending[id] = stop
	}
	return start
}

// Interrupt models barge-in: every scheduled-but-unfinished source is
// stopped and discarded, and the cursor snaps back to now so the next
// buffer plays immediately.
func (s *Scheduler) Interrupt() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, stop := range s.pending {
		stop()
		delete(s.pending, id)
	}
	s.cursor = s.now()
}

// Cursor returns the time at which the next buffer would start if
// scheduled after the current queue drains.
func (s *Scheduler) Cursor() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cursor
}
