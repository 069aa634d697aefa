package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/plagiafix/plagiafix/internal/utils"
)

func noSleep(waits *[]time.Duration) func(context.Context, time.Duration) error {
	return func(_ context.Context, d time.Duration) error {
		if waits != nil {
			*waits = append(*waits, d)
		}
		return nil
	}
}

func TestRetrySucceedsAfterFailures(t *testing.T) {
	calls := 0
	r := Retrier{MaxAttempts: 5, Sleep: noSleep(nil)}
	err := r.Do(context.Background(), "op", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("flaky")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetryExhaustionCallsAtMostNAndNeverSleepsAfterFinal(t *testing.T) {
	var waits []time.Duration
	calls := 0
	r := Retrier{MaxAttempts: 4, Sleep: noSleep(&waits)}
	err := r.Do(context.Background(), "op", func(context.Context) error {
		calls++
		return errors.New("always fails")
	})
	if calls != 4 {
		t.Fatalf("expected exactly 4 calls, got %d", calls)
	}
	if len(waits) != 3 {
		t.Fatalf("expected 3 sleeps (none after final attempt), got %d", len(waits))
	}
	if !utils.IsCode(err, utils.CodeExhaustedRetries) {
		t.Fatalf("expected EXHAUSTED_RETRIES, got %v", err)
	}
}

func TestRetryBackoffDoublesAndCaps(t *testing.T) {
	var waits []time.Duration
	r := Retrier{MaxAttempts: 8, Sleep: noSleep(&waits)}
	_ = r.Do(context.Background(), "op", func(context.Context) error {
		return errors.New("nope")
	})
	want := []time.Duration{1, 2, 4, 8, 16, 20, 20}
	for i, w := range want {
		if waits[i] != w*time.Second {
			t.Fatalf("wait %d: want %v, got %v", i, w*time.Second, waits[i])
		}
	}
}

func TestRetryRateLimitUsesLongerWait(t *testing.T) {
	var waits []time.Duration
	var msgs []string
	r := Retrier{
		MaxAttempts: 2,
		Sleep:       noSleep(&waits),
		OnRetry:     func(m string) { msgs = append(msgs, m) },
	}
	_ = r.Do(context.Background(), "op", func(context.Context) error {
		return errors.New("googleapi: Error 429: quota exceeded")
	})
	if len(waits) != 1 {
		t.Fatalf("expected 1 sleep, got %d", len(waits))
	}
	if waits[0] < 15*time.Second || waits[0] > 20*time.Second {
		t.Fatalf("rate-limit wait out of range: %v", waits[0])
	}
	if len(msgs) != 1 || !strings.Contains(msgs[0], "rate limited") {
		t.Fatalf("expected rate-limit wording in notify, got %q", msgs)
	}
}

func TestRetryGenericNotifyWording(t *testing.T) {
	var msgs []string
	r := Retrier{MaxAttempts: 2, Sleep: noSleep(nil), OnRetry: func(m string) { msgs = append(msgs, m) }}
	_ = r.Do(context.Background(), "op", func(context.Context) error {
		return errors.New("connection reset")
	})
	if len(msgs) != 1 || !strings.Contains(msgs[0], "retrying") || strings.Contains(msgs[0], "rate limited") {
		t.Fatalf("unexpected notify wording: %q", msgs)
	}
}

func TestRetryHonorsCancellationBeforeSleep(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	r := Retrier{MaxAttempts: 10} // real ctx-aware sleep
	errCh := make(chan error, 1)
	go func() {
		errCh <- r.Do(ctx, "op", func(context.Context) error {
			calls++
			return errors.New("fail")
		})
	}()
	time.Sleep(20 * time.Millisecond)
	cancel()
	select {
	case err := <-errCh:
		if !errors.Is(err, context.Canceled) {
			t.Fatalf("expected context.Canceled, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("retry did not observe cancellation")
	}
	if calls != 1 {
		t.Fatalf("expected a single call before cancellation, got %d", calls)
	}
}

func TestIsRateLimited(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{errors.New("HTTP 429 Too Many Requests"), true},
		{errors.New("RESOURCE_EXHAUSTED: quota"), true},
		{errors.New("rate limit reached"), true},
		{utils.E(utils.CodeRateLimited, "op", "slow down", nil), true},
		{errors.New("connection refused"), false},
		{nil, false},
	}
	for _, tc := range cases {
		if got := IsRateLimited(tc.err); got != tc.want {
			t.Errorf("IsRateLimited(%v) = %v, want %v", tc.err, got, tc.want)
		}
	}
}
