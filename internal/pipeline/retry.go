package pipeline

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/plagiafix/plagiafix/internal/utils"
)

// Retrier wraps exactly one remote call with bounded exponential backoff.
// Rate-limit failures get a distinct, longer wait than generic ones. It has
// no knowledge of chunk ordering or aggregation.
type Retrier struct {
	MaxAttempts     int           // default 15
	BaseDelay       time.Duration // default 1s, doubled per attempt
	MaxDelay        time.Duration // backoff cap, default 20s
	RateLimitDelay  time.Duration // default 15s
	RateLimitJitter time.Duration // default 5s, uniform random added

	// OnRetry receives a human-readable status line before each wait.
	OnRetry func(msg string)

	// Sleep is swappable in tests; nil means a ctx-aware real sleep.
	Sleep func(ctx context.Context, d time.Duration) error
}

// Do calls fn until it succeeds or MaxAttempts is reached. The final
// attempt's failure is wrapped as EXHAUSTED_RETRIES without sleeping again.
// Cancellation is honored before every retry wait.
func (r Retrier) Do(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	max := r.MaxAttempts
	if max <= 0 {
		max = 15
	}
	base := r.BaseDelay
	if base <= 0 {
		base = time.Second
	}
	cap := r.MaxDelay
	if cap <= 0 {
		cap = 20 * time.Second
	}
	rlDelay := r.RateLimitDelay
	if rlDelay <= 0 {
		rlDelay = 15 * time.Second
	}
	rlJitter := r.RateLimitJitter
	if rlJitter <= 0 {
		rlJitter = 5 * time.Second
	}
	sleep := r.Sleep
	if sleep == nil {
		sleep = sleepCtx
	}

	var lastErr error
	for attempt := 1; attempt <= max; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if attempt == max {
			break
		}

		var wait time.Duration
		var msg string
		if IsRateLimited(lastErr) {
			wait = rlDelay + time.Duration(rand.Int63n(int64(rlJitter)))
			msg = fmt.Sprintf("%s: rate limited, waiting %ds before retry %d/%d", op, int(wait.Seconds()), attempt+1, max)
		} else {
			wait = base << (attempt - 1)
			if wait > cap {
				wait = cap
			}
			msg = fmt.Sprintf("%s: attempt %d/%d failed, retrying in %ds", op, attempt, max, int(wait.Seconds()))
		}
		if r.OnRetry != nil {
			r.OnRetry(msg)
		}
		if err := sleep(ctx, wait); err != nil {
			return err
		}
	}
	return utils.E(utils.CodeExhaustedRetries, op, fmt.Sprintf("gave up after %d attempts", max), lastErr)
}

// IsRateLimited reports whether err signals an externally imposed request
// cap rather than a generic failure.
func IsRateLimited(err error) bool {
	if err == nil {
		return false
	}
	if utils.IsCode(err, utils.CodeRateLimited) {
		return true
	}
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "429") ||
		strings.Contains(s, "quota") ||
		strings.Contains(s, "rate limit") ||
		strings.Contains(s, "resource exhausted") ||
		strings.Contains(s, "resource_exhausted")
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
