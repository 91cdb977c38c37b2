package bridge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/flowbridge/flowbridge/types"
)

func TestClassifyMessage(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		message string
		want    types.ErrorCode
	}{
		{"user rejected", "MetaMask Tx Signature: User denied transaction signature", types.ErrUserRejected},
		{"signature rejected", "signature rejected by user", types.ErrUserRejected},
		{"insufficient funds", "err: insufficient funds for gas * price + value", types.ErrInsufficientFunds},
		{"wrong network", "network mismatch: expected base, wallet on ethereum", types.ErrWrongNetwork},
		{"backend outage", "503 Service Unavailable", types.ErrBridgeUnavailable},
		{"connection refused", "dial tcp: connection refused", types.ErrBridgeUnavailable},
		{"timeout", "request timed out after 30s", types.ErrTimeout},
		{"unrecognized", "quantum flux inversion", types.ErrBridgeRejected},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := ClassifyMessage(tc.message)
			assert.Equal(t, tc.want, got.Code)
			assert.NotEmpty(t, got.Guidance, "every classified error carries guidance text")
			assert.Equal(t, tc.message, got.Message)
		})
	}
}

func TestClassify_ContextErrors(t *testing.T) {
	t.Parallel()

	got := Classify(context.DeadlineExceeded)
	assert.Equal(t, types.ErrTimeout, got.Code)
	assert.True(t, errors.Is(got, context.DeadlineExceeded))

	got = Classify(context.Canceled)
	assert.Equal(t, types.ErrTimeout, got.Code)
}

func TestClassify_Nil(t *testing.T) {
	t.Parallel()
	require.Nil(t, Classify(nil))
}

func TestClassify_WrapsCause(t *testing.T) {
	t.Parallel()

	cause := errors.New("user rejected the request")
	got := Classify(cause)
	assert.Equal(t, types.ErrUserRejected, got.Code)
	assert.True(t, errors.Is(got, cause))
}
