package resilience

import (
	"context"
	"errors"
	"testing"
	"time"
)

func failingCall(_ context.Context) error { return errors.New("boom") }
func okCall(_ context.Context) error      { return nil }

func TestCircuitBreaker_OpensAfterThreshold(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 3, ResetTimeout: time.Minute})
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := cb.Execute(ctx, failingCall); err == nil {
			t.Fatal("expected failure")
		}
	}
	if got := cb.State(); got != CircuitOpen {
		t.Fatalf("expected open, got %s", got)
	}

	err := cb.Execute(ctx, okCall)
	if !errors.Is(err, ErrCircuitOpen) {
		t.Fatalf("expected ErrCircuitOpen, got %v", err)
	}
}

func TestCircuitBreaker_SuccessResetsCount(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 2, ResetTimeout: time.Minute})
	ctx := context.Background()

	_ = cb.Execute(ctx, failingCall)
	_ = cb.Execute(ctx, okCall)
	_ = cb.Execute(ctx, failingCall)

	if got := cb.State(); got != CircuitClosed {
		t.Fatalf("expected closed, got %s", got)
	}
}

func TestCircuitBreaker_HalfOpenProbe(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Millisecond})
	ctx := context.Background()

	_ = cb.Execute(ctx, failingCall)
	if got := cb.State(); got != CircuitOpen {
		t.Fatalf("expected open, got %s", got)
	}

	time.Sleep(5 * time.Millisecond)
	if got := cb.State(); got != CircuitHalfOpen {
		t.Fatalf("expected half-open, got %s", got)
	}

	if err := cb.Execute(ctx, okCall); err != nil {
		t.Fatalf("probe should pass: %v", err)
	}
	if got := cb.State(); got != CircuitClosed {
		t.Fatalf("expected closed after probe, got %s", got)
	}
}

func TestCircuitBreaker_HalfOpenFailureReopens(t *testing.T) {
	cb := NewCircuitBreaker(CircuitBreakerConfig{FailureThreshold: 1, ResetTimeout: time.Millisecond})
	ctx := context.Background()

	_ = cb.Execute(ctx, failingCall)
	time.Sleep(5 * time.Millisecond)
	_ = cb.Execute(ctx, failingCall)

	if got := cb.State(); got != CircuitOpen {
		t.Fatalf("expected open, got %s", got)
	}
}

func TestCircuitBreaker_StateChangeCallback(t *testing.T) {
	var transitions []string
	cb := NewCircuitBreaker(CircuitBreakerConfig{
		FailureThreshold: 1,
		ResetTimeout:     time.Minute,
		OnStateChange: func(from, to CircuitState) {
			transitions = append(transitions, from.String()+"->"+to.String())
		},
	})

	_ = cb.Execute(context.Background(), failingCall)
	if len(transitions) != 1 || transitions[0] != "closed->open" {
		t.Fatalf("unexpected transitions: %v", transitions)
	}
}

func TestIsTransient(t *testing.T) {
	if !IsTransient(NewTransientError(errors.New("x"), 503)) {
		t.Error("wrapped transient error should be transient")
	}
	if !IsTransient(errors.New("read tcp: connection reset by peer")) {
		t.Error("reset-by-peer string should be transient")
	}
	if IsTransient(errors.New("invalid request")) {
		t.Error("plain error should not be transient")
	}
	if IsTransient(nil) {
		t.Error("nil should not be transient")
	}
}

func TestIsTransientHTTPStatus(t *testing.T) {
	for _, code := range []int{408, 429, 500, 502, 503, 504} {
		if !IsTransientHTTPStatus(code) {
			t.Errorf("expected %d to be transient", code)
		}
	}
	for _, code := range []int{200, 400, 401, 403, 404} {
		if IsTransientHTTPStatus(code) {
			t.Errorf("expected %d to not be transient", code)
		}
	}
}
