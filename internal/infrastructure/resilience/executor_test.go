package resilience

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"
)

func testExecutor(cfg Config) *Executor {
	return NewExecutor(cfg, slog.New(slog.DiscardHandler))
}

func fastConfig() Config {
	cfg := DefaultConfig()
	cfg.RetryInitialBackoff = time.Millisecond
	cfg.RetryMaxBackoff = 2 * time.Millisecond
	cfg.BreakerEnabled = false
	return cfg
}

func retryAll(error) ErrorClassification {
	return ErrorClassification{Retryable: true, RecordFailure: true}
}

func TestExecuteReturnsNilOnSuccess(t *testing.T) {
	exec := testExecutor(fastConfig())

	calls := 0
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		return nil
	}, retryAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestExecuteRetriesRetryableErrors(t *testing.T) {
	exec := testExecutor(fastConfig())

	calls := 0
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		if calls < 3 {
			return errors.New("transient")
		}
		return nil
	}, retryAll)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestExecuteStopsOnNonRetryableError(t *testing.T) {
	exec := testExecutor(fastConfig())

	permanent := errors.New("bad request")
	calls := 0
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		return permanent
	}, func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: true}
	})
	if !errors.Is(err, permanent) {
		t.Fatalf("expected permanent error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call, got %d", calls)
	}
}

func TestExecuteExhaustsAttempts(t *testing.T) {
	cfg := fastConfig()
	cfg.RetryMaxAttempts = 3
	exec := testExecutor(cfg)

	transient := errors.New("still down")
	calls := 0
	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		calls++
		return transient
	}, retryAll)
	if !errors.Is(err, transient) {
		t.Fatalf("expected transient error, got %v", err)
	}
	if calls != cfg.RetryMaxAttempts {
		t.Fatalf("expected %d calls, got %d", cfg.RetryMaxAttempts, calls)
	}
}

func TestExecuteHonorsContextCancellation(t *testing.T) {
	exec := testExecutor(fastConfig())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	calls := 0
	err := exec.Execute(ctx, "op", func(context.Context) error {
		calls++
		return nil
	}, retryAll)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 0 {
		t.Fatalf("expected no calls after cancellation, got %d", calls)
	}
}

func TestCircuitBreakerOpensAfterRepeatedFailures(t *testing.T) {
	cfg := fastConfig()
	cfg.RetryMaxAttempts = 1
	cfg.BreakerEnabled = true
	cfg.BreakerMinRequests = 3
	cfg.BreakerFailureRatio = 0.5
	cfg.BreakerOpenTimeout = time.Minute
	exec := testExecutor(cfg)

	boom := errors.New("downstream failure")
	for i := 0; i < 3; i++ {
		err := exec.Execute(context.Background(), "op", func(context.Context) error {
			return boom
		}, retryAll)
		if !errors.Is(err, boom) {
			t.Fatalf("attempt %d: expected downstream failure, got %v", i, err)
		}
	}

	err := exec.Execute(context.Background(), "op", func(context.Context) error {
		t.Fatal("callback must not run while circuit is open")
		return nil
	}, retryAll)
	if !IsCircuitOpen(err) {
		t.Fatalf("expected open-circuit error, got %v", err)
	}
}

func TestCircuitBreakerIgnoresNonRecordedFailures(t *testing.T) {
	cfg := fastConfig()
	cfg.RetryMaxAttempts = 1
	cfg.BreakerEnabled = true
	cfg.BreakerMinRequests = 3
	cfg.BreakerFailureRatio = 0.5
	exec := testExecutor(cfg)

	clientErr := errors.New("invalid input")
	classifier := func(error) ErrorClassification {
		return ErrorClassification{Retryable: false, RecordFailure: false}
	}

	for i := 0; i < 10; i++ {
		err := exec.Execute(context.Background(), "op", func(context.Context) error {
			return clientErr
		}, classifier)
		if !errors.Is(err, clientErr) {
			t.Fatalf("attempt %d: expected client error, got %v", i, err)
		}
		if IsCircuitOpen(err) {
			t.Fatalf("circuit must stay closed for non-recorded failures")
		}
	}
}
