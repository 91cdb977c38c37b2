package engine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/flowbridge/flowbridge/bridge"
	"github.com/flowbridge/flowbridge/graph"
	"github.com/flowbridge/flowbridge/internal/metrics"
	"github.com/flowbridge/flowbridge/notify"
	"github.com/flowbridge/flowbridge/types"
	"github.com/flowbridge/flowbridge/wallet"
)

// Config tunes run behavior.
type Config struct {
	// Pacing is the per-node visual delay for non-bridge nodes.
	Pacing time.Duration `yaml:"pacing" json:"pacing"`
	// BridgeTimeout bounds a single adapter Transfer call. Zero disables
	// the bound and leaves cancellation to the run context.
	BridgeTimeout time.Duration `yaml:"bridge_timeout" json:"bridge_timeout"`
	// DefaultRecipient fills in for bridge nodes without one configured.
	DefaultRecipient string `yaml:"default_recipient" json:"default_recipient"`
	// DefaultAmount fills in for bridge nodes without one configured.
	DefaultAmount string `yaml:"default_amount" json:"default_amount"`
}

// Deps holds the executor's collaborators. Nil fields degrade gracefully:
// a nil wallet fails bridge preconditions, a nil notifier skips delivery,
// a nil batch executor rejects batch plans.
type Deps struct {
	Wallet   wallet.Provider
	Bridges  map[graph.NodeType]bridge.Adapter
	Notifier notify.Notifier
	Batch    BatchExecutor
	Metrics  *metrics.Collector
}

// Executor walks a planned traversal and runs each node's side effect in
// order. At most one run is in flight at a time.
type Executor struct {
	store    *graph.Store
	wallet   wallet.Provider
	bridges  map[graph.NodeType]bridge.Adapter
	notifier notify.Notifier
	batch    BatchExecutor
	metrics  *metrics.Collector
	cfg      Config
	logger   *zap.Logger
	tracer   trace.Tracer

	handlers map[graph.NodeType]Handler

	executing atomic.Bool

	mu        sync.RWMutex
	current   *RunContext
	observers []ObserverFunc
}

// NewExecutor builds an executor over the given store.
func NewExecutor(store *graph.Store, deps Deps, cfg Config, logger *zap.Logger) *Executor {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Executor{
		store:    store,
		wallet:   deps.Wallet,
		bridges:  deps.Bridges,
		notifier: deps.Notifier,
		batch:    deps.Batch,
		metrics:  deps.Metrics,
		cfg:      cfg,
		logger:   logger.With(zap.String("component", "executor")),
		tracer:   otel.Tracer("flowbridge/engine"),
	}
	e.handlers = e.buildHandlers()
	return e
}

// AddObserver registers an event observer for all subsequent runs.
func (e *Executor) AddObserver(fn ObserverFunc) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observers = append(e.observers, fn)
}

// Current returns the most recent run context, or nil before the first run.
func (e *Executor) Current() *RunContext {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.current
}

// Executing reports whether a run is in flight.
func (e *Executor) Executing() bool {
	return e.executing.Load()
}

func (e *Executor) emit(ev Event) {
	e.mu.RLock()
	observers := e.observers
	e.mu.RUnlock()
	for _, fn := range observers {
		fn(ev)
	}
}

// Start snapshots the graph, plans a traversal, and launches the run in
// the background, returning its context immediately. A call while a run
// is in flight fails with ErrRunActive. The returned context's Done
// channel closes when the run finishes; Err then reports the terminal
// error, if any. Node failures are recorded and are not terminal; only
// cancellation or a batch-executor failure ends a run with
// RunStatusFailed.
func (e *Executor) Start(ctx context.Context) (*RunContext, error) {
	if !e.executing.CompareAndSwap(false, true) {
		return nil, types.NewError(types.ErrRunActive, "a run is already in progress").
			WithGuidance("wait for the current run to finish before starting another")
	}

	snap := e.store.Snapshot()
	order, err := graph.Plan(snap)
	if err != nil {
		e.executing.Store(false)
		return nil, err
	}

	runID := uuid.NewString()
	rc := newRunContext(runID, order, snap, e.emit)
	e.mu.Lock()
	e.current = rc
	e.mu.Unlock()

	e.logger.Info("run started",
		zap.String("run_id", runID),
		zap.Int("nodes", len(order)),
	)
	e.metrics.RecordRunStart()
	start := time.Now()
	rc.publish(Event{Type: EventRunStarted, Message: fmt.Sprintf("%d nodes planned", len(order))})

	go func() {
		runCtx, span := e.tracer.Start(ctx, "workflow.run", trace.WithAttributes(
			attribute.String("run.id", runID),
			attribute.Int("run.nodes", len(order)),
		))

		var runErr error
		if hasBatchNode(snap, order) {
			runErr = e.executeBatch(runCtx, snap, order, rc)
		} else {
			runErr = e.executeSequential(runCtx, snap, order, rc)
		}

		status := string(rc.Status())
		span.SetAttributes(
			attribute.String("run.status", status),
			attribute.Int("run.failed_nodes", rc.FailedCount()),
		)
		if runErr != nil {
			span.RecordError(runErr)
		}
		span.End()
		e.metrics.RecordRunEnd(status, time.Since(start))
		e.logger.Info("run finished",
			zap.String("run_id", runID),
			zap.String("status", status),
			zap.Int("failed_nodes", rc.FailedCount()),
			zap.Duration("duration", rc.Duration()),
		)

		e.executing.Store(false)
		rc.complete(runErr)
	}()

	return rc, nil
}

// Execute runs Start and waits for the run to finish.
func (e *Executor) Execute(ctx context.Context) (*RunContext, error) {
	rc, err := e.Start(ctx)
	if err != nil {
		return nil, err
	}
	<-rc.Done()
	if err := rc.Err(); err != nil {
		return rc, err
	}
	return rc, nil
}

func hasBatchNode(snap *graph.Snapshot, order []string) bool {
	for _, id := range order {
		if node, ok := snap.Get(id); ok && node.Type.IsBatch() {
			return true
		}
	}
	return false
}

func (e *Executor) executeBatch(ctx context.Context, snap *graph.Snapshot, order []string, rc *RunContext) error {
	if e.batch == nil {
		err := types.NewError(types.ErrNoBatchExecutor, "plan contains a batch bridge node but no batch executor is configured").
			WithGuidance("configure a batch executor or remove batch bridge nodes from the workflow")
		rc.finish(RunStatusFailed, err.Message)
		return err
	}
	if err := e.batch.ExecuteBatch(ctx, snap, order, rc); err != nil {
		rc.finish(RunStatusFailed, err.Error())
		return err
	}
	rc.finish(RunStatusCompleted, "batch run completed")
	return nil
}

func (e *Executor) executeSequential(ctx context.Context, snap *graph.Snapshot, order []string, rc *RunContext) error {
	for _, nodeID := range order {
		if err := ctx.Err(); err != nil {
			rc.finish(RunStatusFailed, "run cancelled")
			return err
		}

		node, ok := snap.Get(nodeID)
		if !ok {
			// Plan ids come from the same snapshot, so this is unreachable
			// short of a programming error.
			continue
		}

		rc.StartNode(nodeID)
		nodeStart := time.Now()
		nodeCtx, span := e.tracer.Start(ctx, "workflow.node", trace.WithAttributes(
			attribute.String("node.id", nodeID),
			attribute.String("node.type", string(node.Type)),
		))

		handler, registered := e.handlers[node.Type]
		var nodeErr error
		if !registered {
			nodeErr = types.NewError(types.ErrInvalidNodeType,
				fmt.Sprintf("no handler registered for node type %q", node.Type)).
				WithNodeID(nodeID)
		} else {
			nodeErr = handler.Execute(nodeCtx, node, rc)
		}
		if nodeErr != nil {
			span.RecordError(nodeErr)
		}
		span.End()

		switch {
		case nodeErr == nil:
			result, _ := rc.Result(nodeID)
			rc.FinishNode(nodeID, NodeStatusSucceeded, "", result.TxHash)
			e.metrics.RecordNode(string(node.Type), "succeeded", time.Since(nodeStart))
		case ctx.Err() != nil:
			rc.FinishNode(nodeID, NodeStatusFailed, "run cancelled", "")
			e.metrics.RecordNode(string(node.Type), "failed", time.Since(nodeStart))
			rc.finish(RunStatusFailed, "run cancelled")
			return ctx.Err()
		default:
			e.logger.Warn("node failed",
				zap.String("run_id", rc.ID()),
				zap.String("node_id", nodeID),
				zap.String("node_type", string(node.Type)),
				zap.Error(nodeErr),
			)
			rc.FinishNode(nodeID, NodeStatusFailed, nodeErr.Error(), "")
			e.metrics.RecordNode(string(node.Type), "failed", time.Since(nodeStart))
		}
	}

	rc.finish(RunStatusCompleted, fmt.Sprintf("run completed, %d of %d nodes failed", rc.FailedCount(), len(order)))
	return nil
}
