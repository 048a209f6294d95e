package resilience_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/indianbaazaar/storefront-chat-go/internal/infra/resilience"

	"github.com/sony/gobreaker"
)

var errStoreDown = errors.New("supabase returned status 503")

func TestRetryWithBackoff_FirstAttemptSucceeds(t *testing.T) {
	cfg := resilience.Config{
		MaxRetries:     3,
		InitialBackoff: 10 * time.Millisecond,
	}

	inserts := 0
	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		inserts++
		return nil
	})

	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if inserts != 1 {
		t.Errorf("expected a single insert attempt, got %d", inserts)
	}
}

func TestRetryWithBackoff_RecoversFromTransientOutage(t *testing.T) {
	cfg := resilience.Config{
		MaxRetries:     3,
		InitialBackoff: 10 * time.Millisecond,
	}

	// Store comes back on the third attempt; the transcript must still
	// land exactly once.
	inserts := 0
	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		inserts++
		if inserts < 3 {
			return errStoreDown
		}
		return nil
	})

	if err != nil {
		t.Fatalf("expected success after retries, got %v", err)
	}
	if inserts != 3 {
		t.Errorf("expected 3 insert attempts, got %d", inserts)
	}
}

func TestRetryWithBackoff_SurfacesLastError(t *testing.T) {
	cfg := resilience.Config{
		MaxRetries:     2,
		InitialBackoff: 10 * time.Millisecond,
	}

	inserts := 0
	err := resilience.RetryWithBackoff(context.Background(), cfg, func() error {
		inserts++
		return fmt.Errorf("attempt %d: %w", inserts, errStoreDown)
	})

	if !errors.Is(err, errStoreDown) {
		t.Fatalf("expected the store error after retries exhausted, got %v", err)
	}
	if inserts != 3 {
		t.Errorf("expected MaxRetries+1 attempts, got %d", inserts)
	}
}

func TestRetryWithBackoff_StopsWhenSubmitTimeoutExpires(t *testing.T) {
	cfg := resilience.Config{
		MaxRetries:     5,
		InitialBackoff: 1 * time.Second,
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := resilience.RetryWithBackoff(ctx, cfg, func() error {
		return errStoreDown
	})

	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}

func TestCircuitBreaker_OpensAfterRepeatedStoreFailures(t *testing.T) {
	cb := resilience.NewCircuitBreaker("conversation-store")

	for i := 0; i < 5; i++ {
		_, _ = cb.Execute(func() (any, error) {
			return nil, errStoreDown
		})
	}

	called := false
	_, err := cb.Execute(func() (any, error) {
		called = true
		return nil, nil
	})

	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Fatalf("expected the breaker to be open, got %v", err)
	}
	if called {
		t.Error("expected the store call to be short-circuited while open")
	}
}

func TestBulkhead_LimitsConcurrentWrites(t *testing.T) {
	bh := resilience.NewBulkhead(2)

	if err := bh.Acquire(context.Background()); err != nil {
		t.Fatalf("expected acquire, got %v", err)
	}
	if err := bh.Acquire(context.Background()); err != nil {
		t.Fatalf("expected acquire, got %v", err)
	}

	// Both write slots taken: a third writer must wait, and give up when
	// its deadline passes.
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	if err := bh.Acquire(ctx); err == nil {
		t.Fatal("expected timeout on third acquire")
	}

	bh.Release()

	if err := bh.Acquire(context.Background()); err != nil {
		t.Fatalf("expected acquire after release, got %v", err)
	}
}

func TestNewBulkhead_ClampsNonPositiveConcurrency(t *testing.T) {
	bh := resilience.NewBulkhead(0)

	if err := bh.Acquire(context.Background()); err != nil {
		t.Fatalf("expected one usable slot, got %v", err)
	}
	bh.Release()
}
