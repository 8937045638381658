package guard

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/dshills/t32remote/internal/remote/status"
)

func fastRetry(attempts int) RetryConfig {
	cfg := ConnectRetryConfig()
	cfg.MaxAttempts = attempts
	cfg.InitialDelay = time.Millisecond
	cfg.MaxDelay = 5 * time.Millisecond
	return cfg
}

func statusErr(op string, code int32) error {
	return status.DefaultResolver().Check(op, code, true)
}

// refused is what T32_Init reports while nothing listens on the port.
var refused = statusErr("T32_Init", -1)

func TestRetry_FirstCall(t *testing.T) {
	var calls int
	result, err := Retry(context.Background(), fastRetry(3), func() (int, error) {
		calls++
		return 42, nil
	})
	if err != nil {
		t.Errorf("Retry error: %v", err)
	}
	if result != 42 || calls != 1 {
		t.Errorf("result = %d after %d calls, want 42 after 1", result, calls)
	}
}

func TestRetry_DebuggerComesUp(t *testing.T) {
	var calls int
	err := RetryFunc(context.Background(), fastRetry(5), func() error {
		calls++
		if calls < 3 {
			return refused
		}
		return nil
	})
	if err != nil {
		t.Errorf("RetryFunc error: %v", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetry_DebuggerNeverAnswers(t *testing.T) {
	var calls int
	err := RetryFunc(context.Background(), fastRetry(3), func() error {
		calls++
		return refused
	})
	if !errors.Is(err, status.Client) {
		t.Errorf("error = %v, want a communication failure", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestRetry_DebuggerAnswered(t *testing.T) {
	var calls int
	err := RetryFunc(context.Background(), fastRetry(5), func() error {
		calls++
		return statusErr("T32_Init", 113)
	})
	if !errors.Is(err, status.Failed) {
		t.Errorf("error = %v, want a command failure", err)
	}
	if calls != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestRetry_NilRetryable(t *testing.T) {
	cfg := fastRetry(2)
	cfg.Retryable = nil

	var calls int
	RetryFunc(context.Background(), cfg, func() error {
		calls++
		return errors.New("any")
	})
	if calls != 2 {
		t.Errorf("calls = %d, want 2", calls)
	}
}

func TestRetry_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cfg := fastRetry(5)
	cfg.InitialDelay = time.Second

	err := RetryFunc(ctx, cfg, func() error { return refused })
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestRetryConfig_Backoff(t *testing.T) {
	cfg := ConnectRetryConfig()
	d := cfg.InitialDelay
	for i := 0; i < 10; i++ {
		d = cfg.next(d)
	}
	if d != cfg.MaxDelay {
		t.Errorf("delay = %v, want capped at %v", d, cfg.MaxDelay)
	}
}

func TestCommunicationFailure(t *testing.T) {
	tests := []struct {
		code int32
		want bool
	}{
		{-1, true},
		{-3, true},
		{113, false},
		{0x1050, false},
	}
	for _, tt := range tests {
		if got := CommunicationFailure(statusErr("T32_Ping", tt.code)); got != tt.want {
			t.Errorf("CommunicationFailure(%d) = %v, want %v", tt.code, got, tt.want)
		}
	}
	if CommunicationFailure(errors.New("other")) {
		t.Error("plain error reported as communication failure")
	}
}
