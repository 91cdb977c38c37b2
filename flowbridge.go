// Package flowbridge provides a top-level convenience entry point for
// building and running workflow graphs with minimal boilerplate.
//
// Usage:
//
//	import "github.com/flowbridge/flowbridge"
//
//	wf := flowbridge.New(
//		flowbridge.WithWallet(&wallet.Static{Account: "0xabc", Chain: "base-mainnet"}),
//		flowbridge.WithBridge(graph.NodeTypeBridgeBase, baseClient),
//	)
//	trigger, _ := wf.Store.AddNode(graph.NodeTypeTrigger, nil)
//	rc, err := wf.Executor.Execute(ctx)
//
// This is a thin wrapper over [graph.NewStore] and [engine.NewExecutor];
// services embedding flowbridge with their own persistence or HTTP layer
// should wire those packages directly.
package flowbridge

import (
	"time"

	"go.uber.org/zap"

	"github.com/flowbridge/flowbridge/bridge"
	"github.com/flowbridge/flowbridge/engine"
	"github.com/flowbridge/flowbridge/graph"
	"github.com/flowbridge/flowbridge/notify"
	"github.com/flowbridge/flowbridge/wallet"
)

// Workflow bundles a graph store with an executor over it.
type Workflow struct {
	Store    *graph.Store
	Executor *engine.Executor
}

type settings struct {
	logger *zap.Logger
	deps   engine.Deps
	cfg    engine.Config
}

// Option configures the workflow created by [New].
type Option func(*settings)

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *settings) { s.logger = logger }
}

// WithWallet sets the wallet provider consulted by bridge nodes.
func WithWallet(p wallet.Provider) Option {
	return func(s *settings) { s.deps.Wallet = p }
}

// WithBridge registers an adapter for one bridge node family.
func WithBridge(family graph.NodeType, adapter bridge.Adapter) Option {
	return func(s *settings) {
		if s.deps.Bridges == nil {
			s.deps.Bridges = make(map[graph.NodeType]bridge.Adapter)
		}
		s.deps.Bridges[family] = adapter
	}
}

// WithNotifier sets the notification sink.
func WithNotifier(n notify.Notifier) Option {
	return func(s *settings) { s.deps.Notifier = n }
}

// WithBatchExecutor sets the delegate used when a plan contains batch
// bridge nodes.
func WithBatchExecutor(b engine.BatchExecutor) Option {
	return func(s *settings) { s.deps.Batch = b }
}

// WithPacing sets the per-node visual delay.
func WithPacing(d time.Duration) Option {
	return func(s *settings) { s.cfg.Pacing = d }
}

// WithBridgeTimeout bounds each bridge transfer.
func WithBridgeTimeout(d time.Duration) Option {
	return func(s *settings) { s.cfg.BridgeTimeout = d }
}

// WithDefaults sets fallback recipient and amount for bridge nodes that
// leave them unset.
func WithDefaults(recipient, amount string) Option {
	return func(s *settings) {
		s.cfg.DefaultRecipient = recipient
		s.cfg.DefaultAmount = amount
	}
}

// New creates an empty workflow with an executor wired per the options.
// Without options the workflow runs with no wallet, no bridges, and no
// notifier: trigger, conditional, and agent nodes still execute, bridge
// nodes fail their preconditions.
func New(opts ...Option) *Workflow {
	s := settings{}
	for _, opt := range opts {
		opt(&s)
	}
	store := graph.NewStore(s.logger)
	return &Workflow{
		Store:    store,
		Executor: engine.NewExecutor(store, s.deps, s.cfg, s.logger),
	}
}
