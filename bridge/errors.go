package bridge

import (
	"context"
	"errors"
	"strings"

	"github.com/flowbridge/flowbridge/types"
)

// errorPattern maps a recognized failure substring to an error kind and
// the guidance text shown to the user. First match wins; patterns are
// matched case-insensitively against the adapter's failure text.
type errorPattern struct {
	substrings []string
	code       types.ErrorCode
	guidance   string
}

var errorPatterns = []errorPattern{
	{
		substrings: []string{"user rejected", "user denied", "signature rejected", "rejected the request"},
		code:       types.ErrUserRejected,
		guidance:   "the signature request was declined in the wallet; execute again and approve it",
	},
	{
		substrings: []string{"insufficient funds", "insufficient balance", "exceeds balance"},
		code:       types.ErrInsufficientFunds,
		guidance:   "the connected wallet does not hold enough funds for this amount plus fees",
	},
	{
		substrings: []string{"wrong network", "network mismatch", "unsupported chain", "chain mismatch"},
		code:       types.ErrWrongNetwork,
		guidance:   "switch the wallet to the source chain configured on this node",
	},
	{
		substrings: []string{"service unavailable", "bad gateway", "backend", "connection refused", "eof"},
		code:       types.ErrBridgeUnavailable,
		guidance:   "the bridge service is unreachable; wait a moment and execute again",
	},
	{
		substrings: []string{"timeout", "timed out", "deadline exceeded"},
		code:       types.ErrTimeout,
		guidance:   "the bridge did not settle in time; check the explorer before retrying",
	},
}

// Classify maps an adapter failure to a structured error with guidance.
// Context cancellation and deadline errors classify as TIMEOUT; anything
// unrecognized becomes BRIDGE_REJECTED.
func Classify(err error) *types.Error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return types.NewError(types.ErrTimeout, "bridge transfer timed out").
			WithGuidance("the bridge did not settle in time; check the explorer before retrying").
			WithCause(err)
	}
	return ClassifyMessage(err.Error()).WithCause(err)
}

// ClassifyMessage classifies a bare failure string, as returned in a
// TransferResult.
func ClassifyMessage(message string) *types.Error {
	lower := strings.ToLower(message)
	for _, p := range errorPatterns {
		for _, sub := range p.substrings {
			if strings.Contains(lower, sub) {
				return types.NewError(p.code, message).WithGuidance(p.guidance)
			}
		}
	}
	return types.NewError(types.ErrBridgeRejected, message).
		WithGuidance("the bridge rejected this transfer; review the node configuration")
}
