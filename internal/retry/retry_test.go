package retry

import (
	"context"
	"errors"
	"testing"
	"time"
)

// fastConfig keeps the retry bound but makes backoff negligible for tests.
var fastConfig = Config{
	MaxAttempts: 10,
	InitialWait: time.Microsecond,
	MaxWait:     time.Millisecond,
	Multiplier:  2.0,
}

func TestDo_SucceedsFirstAttempt(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig, func(ctx context.Context) error {
		calls++
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
}

func TestDo_StopsOnFirstSuccess(t *testing.T) {
	calls := 0
	err := Do(context.Background(), fastConfig, func(ctx context.Context) error {
		calls++
		if calls < 4 {
			return errors.New("transient")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 4 {
		t.Errorf("expected 4 calls, got %d", calls)
	}
}

func TestDo_ExhaustsAttemptsAndSurfacesLastError(t *testing.T) {
	calls := 0
	lastErr := errors.New("final failure")
	err := Do(context.Background(), fastConfig, func(ctx context.Context) error {
		calls++
		if calls == fastConfig.MaxAttempts {
			return lastErr
		}
		return errors.New("earlier failure")
	})
	if calls != 10 {
		t.Errorf("expected exactly 10 attempts, got %d", calls)
	}
	if !errors.Is(err, lastErr) {
		t.Errorf("expected last observed error, got %v", err)
	}
}

func TestDo_ContextCancellationInterruptsBackoff(t *testing.T) {
	cfg := Config{
		MaxAttempts: 10,
		InitialWait: time.Hour,
		MaxWait:     time.Hour,
		Multiplier:  2.0,
	}
	ctx, cancel := context.WithCancel(context.Background())

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- Do(ctx, cfg, func(ctx context.Context) error {
			calls++
			return errors.New("fail")
		})
	}()

	cancel()
	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Do did not return after cancellation")
	}
	if calls != 1 {
		t.Errorf("expected 1 call before cancellation, got %d", calls)
	}
}

func TestConfig_Wait(t *testing.T) {
	cfg := DefaultConfig

	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, 0},
		{2, 200 * time.Millisecond},
		{3, 400 * time.Millisecond},
		{4, 800 * time.Millisecond},
		{5, 1600 * time.Millisecond},
		{7, 6400 * time.Millisecond},
		{8, 10 * time.Second},
		{10, 10 * time.Second},
	}

	for _, tt := range tests {
		if got := cfg.Wait(tt.attempt); got != tt.want {
			t.Errorf("Wait(%d) = %v, expected %v", tt.attempt, got, tt.want)
		}
	}
}
