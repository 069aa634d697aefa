package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"testing"
	"time"
)

func TestInBatchesPreservesOrder(t *testing.T) {
	items := []int{0, 1, 2, 3, 4, 5, 6}
	results, errs := InBatches(context.Background(), items, 3, 0,
		func(_ context.Context, item, index int) (string, error) {
			// later indexes finish first within a group
			time.Sleep(time.Duration(10-index) * time.Millisecond)
			return fmt.Sprintf("r%d", item), nil
		}, nil)

	if len(results) != len(items) {
		t.Fatalf("expected %d results, got %d", len(items), len(results))
	}
	for i := range items {
		if errs[i] != nil {
			t.Fatalf("unexpected error at %d: %v", i, errs[i])
		}
		if results[i] != fmt.Sprintf("r%d", i) {
			t.Fatalf("result %d out of order: %q", i, results[i])
		}
	}
}

func TestInBatchesBoundsConcurrency(t *testing.T) {
	const size = 4
	var inFlight, peak int64
	items := make([]int, 23)
	_, errs := InBatches(context.Background(), items, size, 0,
		func(context.Context, int, int) (struct{}, error) {
			n := atomic.AddInt64(&inFlight, 1)
			for {
				p := atomic.LoadInt64(&peak)
				if n <= p || atomic.CompareAndSwapInt64(&peak, p, n) {
					break
				}
			}
			time.Sleep(5 * time.Millisecond)
			atomic.AddInt64(&inFlight, -1)
			return struct{}{}, nil
		}, nil)

	for i, err := range errs {
		if err != nil {
			t.Fatalf("unexpected error at %d: %v", i, err)
		}
	}
	if peak > size {
		t.Fatalf("concurrency bound exceeded: peak %d > %d", peak, size)
	}
}

func TestInBatchesIsolatesFailures(t *testing.T) {
	items := []int{0, 1, 2, 3, 4}
	boom := errors.New("boom")
	results, errs := InBatches(context.Background(), items, 2, 0,
		func(_ context.Context, item, _ int) (int, error) {
			if item == 2 {
				return 0, boom
			}
			return item * 10, nil
		}, nil)

	if !errors.Is(errs[2], boom) {
		t.Fatalf("expected error at index 2, got %v", errs[2])
	}
	for _, i := range []int{0, 1, 3, 4} {
		if errs[i] != nil {
			t.Fatalf("index %d should have succeeded: %v", i, errs[i])
		}
		if results[i] != i*10 {
			t.Fatalf("index %d wrong result: %d", i, results[i])
		}
	}
}

func TestInBatchesReportsGroupCompletion(t *testing.T) {
	var marks [][2]int
	items := make([]int, 7)
	InBatches(context.Background(), items, 3, 0,
		func(context.Context, int, int) (struct{}, error) { return struct{}{}, nil },
		func(done, total int) { marks = append(marks, [2]int{done, total}) })

	want := [][2]int{{3, 7}, {6, 7}, {7, 7}}
	if len(marks) != len(want) {
		t.Fatalf("expected %d batch marks, got %d", len(want), len(marks))
	}
	for i := range want {
		if marks[i] != want[i] {
			t.Fatalf("mark %d: want %v, got %v", i, want[i], marks[i])
		}
	}
}

func TestInBatchesStopsBetweenGroupsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var calls int64
	items := make([]int, 10)
	_, errs := InBatches(ctx, items, 2, time.Hour, // delay would block forever
		func(context.Context, int, int) (struct{}, error) {
			atomic.AddInt64(&calls, 1)
			cancel()
			return struct{}{}, nil
		}, nil)

	if calls > 2 {
		t.Fatalf("expected at most one group to run, got %d calls", calls)
	}
	if !errors.Is(errs[len(errs)-1], context.Canceled) {
		t.Fatalf("expected trailing slots to carry cancellation, got %v", errs[len(errs)-1])
	}
}
