package bridge

import "context"

// Step names a phase of a bridge transfer. Steps advance monotonically and
// end in exactly one terminal step.
type Step string

const (
	StepInitializing Step = "initializing"
	StepSubmitting   Step = "submitting"
	StepAwaiting     Step = "awaiting-confirmation"
	StepCompleted    Step = "completed"
	StepError        Step = "error"
)

// Terminal reports whether s ends a transfer.
func (s Step) Terminal() bool {
	return s == StepCompleted || s == StepError
}

// rank orders steps for monotonicity checks. Unknown steps rank lowest.
func (s Step) rank() int {
	switch s {
	case StepInitializing:
		return 1
	case StepSubmitting:
		return 2
	case StepAwaiting:
		return 3
	case StepCompleted, StepError:
		return 4
	}
	return 0
}

// Progress is a single progress event emitted during a transfer.
type Progress struct {
	Step    Step   `json:"step"`
	Message string `json:"message"`
	TxHash  string `json:"tx_hash,omitempty"`
}

// ProgressFunc receives progress events. It is called from the transfer
// goroutine; implementations must not block.
type ProgressFunc func(Progress)

// TransferRequest describes a cross-chain transfer.
type TransferRequest struct {
	RecipientAddress string `json:"recipient_address"`
	Amount           string `json:"amount"`
	SourceChain      string `json:"source_chain,omitempty"`
	TargetChain      string `json:"target_chain,omitempty"`
	SenderAddress    string `json:"sender_address,omitempty"`
}

// TransferResult is the terminal outcome of a transfer.
type TransferResult struct {
	Success bool   `json:"success"`
	TxHash  string `json:"tx_hash,omitempty"`
	Err     string `json:"error,omitempty"`
}

// Adapter is the external bridge service boundary. Implementations may
// call onProgress zero or more times before settling. Transfers are not
// idempotent; callers must not retry automatically without user
// confirmation.
type Adapter interface {
	// Name identifies the bridge family for logs and metrics.
	Name() string
	// Transfer submits the request and blocks until a terminal outcome or
	// context cancellation. A non-nil error means the transfer could not
	// reach a terminal state (infrastructure failure, timeout); a result
	// with Success=false means the bridge itself rejected the transfer.
	Transfer(ctx context.Context, req TransferRequest, onProgress ProgressFunc) (*TransferResult, error)
}
