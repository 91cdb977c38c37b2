package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/flowbridge/flowbridge/engine"
)

// TestContext returns a context with a 30 second timeout, cancelled when
// the test finishes.
func TestContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// TestContextWithTimeout returns a context with a custom timeout,
// cancelled when the test finishes.
func TestContextWithTimeout(t *testing.T, timeout time.Duration) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	t.Cleanup(cancel)
	return ctx
}

// CancelledContext returns an already cancelled context.
func CancelledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}

// WaitForRun blocks until the run completes or the timeout elapses.
func WaitForRun(t *testing.T, rc *engine.RunContext, timeout time.Duration) {
	t.Helper()
	select {
	case <-rc.Done():
	case <-time.After(timeout):
		t.Fatalf("run %s did not finish within %s", rc.ID(), timeout)
	}
}

// Eventually polls cond every 10ms until it returns true or the timeout
// elapses.
func Eventually(t *testing.T, cond func() bool, timeout time.Duration, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatal(msg)
}
