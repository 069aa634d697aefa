package live

import (
	"sync"
	"testing"
	"time"
)

type fakeSink struct {
	mu      sync.Mutex
	starts  []time.Time
	stopped int
}

func (f *fakeSink) Play(_ PCMBuffer, at time.Time) func() {
	f.mu.Lock()
	f.starts = append(f.starts, at)
	f.mu.Unlock()
	return func() {
		f.mu.Lock()
		f.stopped++
		f.mu.Unlock()
	}
}

func bufOf(seconds float64) PCMBuffer {
	return PCMBuffer{Samples: make([]float32, int(seconds*CaptureSampleRate)), SampleRate: CaptureSampleRate}
}

func TestSchedulerGaplessBackToBack(t *testing.T) {
	base := time.Unix(1000, 0)
	sink := &fakeSink{}
	s := NewScheduler(sink, func() time.Time { return base })

	// three buffers scheduled in receive order
	durs := []float64{0.5, 0.25, 1.0}
	var starts []time.Time
	for _, d := range durs {
		starts = append(starts, s.Schedule(bufOf(d)))
	}

	if !starts[0].Equal(base) {
		t.Fatalf("first buffer should start now, got %v", starts[0])
	}
	if !starts[1].Equal(base.Add(500 * time.Millisecond)) {
		t.Fatalf("second buffer should start at first's end, got %v", starts[1])
	}
	if !starts[2].Equal(base.Add(750 * time.Millisecond)) {
		t.Fatalf("third buffer should start at second's end, got %v", starts[2])
	}
	if want := base.Add(1750 * time.Millisecond); !s.Cursor().Equal(want) {
		t.Fatalf("cursor should equal total duration: want %v, got %v", want, s.Cursor())
	}
	for i := 1; i < len(starts); i++ {
		if starts[i].Before(starts[i-1]) {
			t.Fatal("start times must be non-decreasing")
		}
	}
}

func TestSchedulerStartsAtNowWhenCursorLags(t *testing.T) {
	now := time.Unix(1000, 0)
	s := NewScheduler(&fakeSink{}, func() time.Time { return now })

	s.Schedule(bufOf(0.1))
	now = now.Add(5 * time.Second) // queue long drained

	start := s.Schedule(bufOf(0.1))
	if !start.Equal(now) {
		t.Fatalf("stale cursor must not delay playback: want %v, got %v", now, start)
	}
}

func TestSchedulerInterruptStopsPendingAndResetsCursor(t *testing.T) {
	now := time.Unix(1000, 0)
	sink := &fakeSink{}
	s := NewScheduler(sink, func() time.Time { return now })

	s.Schedule(bufOf(1))
	s.Schedule(bufOf(1))
	s.Interrupt()

	if sink.stopped != 2 {
		t.Fatalf("expected 2 pending sources stopped, got %d", sink.stopped)
	}
	if !s.Cursor().Equal(now) {
		t.Fatalf("cursor should reset to now, got %v", s.Cursor())
	}

	// next buffer schedules at now, not at the stale cursor
	start := s.Schedule(bufOf(0.5))
	if !start.Equal(now) {
		t.Fatalf("post-interrupt buffer should start now, got %v", start)
	}
}
