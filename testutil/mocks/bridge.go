// Package mocks provides scripted fakes for flowbridge's external
// boundaries.
package mocks

import (
	"context"
	"sync"

	"github.com/flowbridge/flowbridge/bridge"
)

// ScriptedAdapter is a bridge.Adapter whose outcomes are queued per
// call. With an empty queue every transfer succeeds with TxHash "0xmock".
// A non-nil Gate blocks each transfer until the channel is closed, for
// tests that need a run held in flight.
type ScriptedAdapter struct {
	AdapterName string
	Gate        chan struct{}

	mu       sync.Mutex
	queue    []Outcome
	requests []bridge.TransferRequest
}

// Outcome scripts one Transfer call.
type Outcome struct {
	Result *bridge.TransferResult
	Err    error
}

// NewScriptedAdapter creates an adapter named name.
func NewScriptedAdapter(name string) *ScriptedAdapter {
	return &ScriptedAdapter{AdapterName: name}
}

// Queue appends outcomes consumed by subsequent Transfer calls in order.
func (a *ScriptedAdapter) Queue(outcomes ...Outcome) *ScriptedAdapter {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.queue = append(a.queue, outcomes...)
	return a
}

// Requests returns a copy of every request seen so far.
func (a *ScriptedAdapter) Requests() []bridge.TransferRequest {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]bridge.TransferRequest, len(a.requests))
	copy(out, a.requests)
	return out
}

// Calls returns the number of Transfer calls so far.
func (a *ScriptedAdapter) Calls() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.requests)
}

func (a *ScriptedAdapter) Name() string { return a.AdapterName }

func (a *ScriptedAdapter) Transfer(ctx context.Context, req bridge.TransferRequest, onProgress bridge.ProgressFunc) (*bridge.TransferResult, error) {
	a.mu.Lock()
	a.requests = append(a.requests, req)
	var outcome *Outcome
	if len(a.queue) > 0 {
		outcome = &a.queue[0]
		a.queue = a.queue[1:]
	}
	a.mu.Unlock()

	if onProgress != nil {
		onProgress(bridge.Progress{Step: bridge.StepInitializing, Message: "initializing transfer"})
		onProgress(bridge.Progress{Step: bridge.StepSubmitting, Message: "submitting transaction"})
	}
	if a.Gate != nil {
		select {
		case <-a.Gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if outcome == nil {
		if onProgress != nil {
			onProgress(bridge.Progress{Step: bridge.StepCompleted, Message: "transfer confirmed", TxHash: "0xmock"})
		}
		return &bridge.TransferResult{Success: true, TxHash: "0xmock"}, nil
	}
	if outcome.Err != nil {
		return nil, outcome.Err
	}
	if onProgress != nil && outcome.Result != nil && outcome.Result.Success {
		onProgress(bridge.Progress{Step: bridge.StepCompleted, Message: "transfer confirmed", TxHash: outcome.Result.TxHash})
	}
	return outcome.Result, nil
}

// RecordingNotifier captures sent messages.
type RecordingNotifier struct {
	mu       sync.Mutex
	messages []string
	Fail     error
}

// Send records text, or returns Fail when set.
func (n *RecordingNotifier) Send(ctx context.Context, chatID, text string) error {
	if n.Fail != nil {
		return n.Fail
	}
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, text)
	return nil
}

// Messages returns a copy of everything sent.
func (n *RecordingNotifier) Messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]string, len(n.messages))
	copy(out, n.messages)
	return out
}
