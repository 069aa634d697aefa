package pipeline

import (
	"context"
	"sync"
	"time"
)

// InBatches drives items through run with at most size concurrent calls,
// sleeping delay between consecutive groups (never after the last one).
// Results and errors come back in the original item order regardless of
// completion order; a failing item fills its error slot and the run keeps
// going, so the caller decides what partial failure means. Cancellation is
// checked between groups.
func InBatches[T, R any](
	ctx context.Context,
	items []T,
	size int,
	delay time.Duration,
	run func(ctx context.Context, item T, index int) (R, error),
	onBatchDone func(done, total int),
) ([]R, []error) {
	if size <= 0 {
		size = 1
	}
	results := make([]R, len(items))
	errs := make([]error, len(items))

	for start := 0; start < len(items); start += size {
		if err := ctx.Err(); err != nil {
			for i := start; i < len(items); i++ {
				errs[i] = err
			}
			return results, errs
		}

		end := start + size
		if end > len(items) {
			end = len(items)
		}

		var wg sync.WaitGroup
		for i := start; i < end; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], errs[i] = run(ctx, items[i], i)
			}(i)
		}
		wg.Wait()

		if onBatchDone != nil {
			onBatchDone(end, len(items))
		}
		if end < len(items) && delay > 0 {
			if err := sleepCtx(ctx, delay); err != nil {
				for i := end; i < len(items); i++ {
					errs[i] = err
				}
				return results, errs
			}
		}
	}
	return results, errs
}
