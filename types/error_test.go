package types

import (
	"errors"
	"testing"
)

func TestError_ChainingAndHelpers(t *testing.T) {
	t.Parallel()

	root := errors.New("root")
	err := NewError(ErrBridgeUnavailable, "bridge backend unreachable").
		WithCause(root).
		WithGuidance("check bridge service status and try again").
		WithRetryable(true).
		WithNodeID("node-1")

	if GetErrorCode(err) != ErrBridgeUnavailable {
		t.Fatalf("expected code %s, got %s", ErrBridgeUnavailable, GetErrorCode(err))
	}
	if !IsRetryable(err) {
		t.Fatalf("expected retryable")
	}
	if !errors.Is(err, root) {
		t.Fatalf("expected errors.Is unwrap to root")
	}
	if got := err.Error(); got == "" {
		t.Fatalf("expected non-empty error string")
	}
	if err.NodeID != "node-1" {
		t.Fatalf("expected node attribution")
	}
}

func TestError_WithoutCause(t *testing.T) {
	t.Parallel()

	err := NewError(ErrWalletNotConnected, "connect a wallet before executing bridge nodes")
	if errors.Unwrap(err) != nil {
		t.Fatalf("expected no cause")
	}
	if got := err.Error(); got != "[WALLET_NOT_CONNECTED] connect a wallet before executing bridge nodes" {
		t.Fatalf("unexpected error string: %s", got)
	}
}

func TestIsPrecondition(t *testing.T) {
	t.Parallel()

	precond := []ErrorCode{ErrWalletNotConnected, ErrMissingRecipient, ErrMissingAmount, ErrInvalidAmount}
	for _, code := range precond {
		if !IsPrecondition(code) {
			t.Fatalf("expected %s to be a precondition code", code)
		}
	}
	if IsPrecondition(ErrBridgeRejected) {
		t.Fatalf("adapter failure misclassified as precondition")
	}
	if IsPrecondition(ErrNotFound) {
		t.Fatalf("graph error misclassified as precondition")
	}
}

func TestHelpers_NonStructuredError(t *testing.T) {
	t.Parallel()

	plain := errors.New("plain")
	if IsRetryable(plain) {
		t.Fatalf("plain errors are not retryable")
	}
	if GetErrorCode(plain) != "" {
		t.Fatalf("plain errors carry no code")
	}
}
