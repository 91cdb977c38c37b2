package engine

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/flowbridge/flowbridge/bridge"
	"github.com/flowbridge/flowbridge/graph"
	"github.com/flowbridge/flowbridge/types"
)

// Handler executes the side effect of one node type. Returning an error
// marks the node failed; it never aborts the run.
type Handler interface {
	Execute(ctx context.Context, node graph.Node, rc *RunContext) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, node graph.Node, rc *RunContext) error

func (f HandlerFunc) Execute(ctx context.Context, node graph.Node, rc *RunContext) error {
	return f(ctx, node, rc)
}

// pace waits the configured visual delay, honoring cancellation. A zero
// delay returns immediately.
func pace(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// placeholderHandler covers non-side-effecting node types: trigger,
// conditional, and the AI agent placeholder. The node runs for the pacing
// delay and succeeds. Conditionals are not evaluated here; the planner
// already committed to the true branch.
func (e *Executor) placeholderHandler() Handler {
	return HandlerFunc(func(ctx context.Context, node graph.Node, rc *RunContext) error {
		return pace(ctx, e.cfg.Pacing)
	})
}

// notificationHandler delivers the node's configured message when one is
// present; otherwise it behaves as a placeholder. Delivery failure is
// logged and counted but never fails the node.
func (e *Executor) notificationHandler() Handler {
	return HandlerFunc(func(ctx context.Context, node graph.Node, rc *RunContext) error {
		if err := pace(ctx, e.cfg.Pacing); err != nil {
			return err
		}

		data, ok := node.Data.(graph.NotificationData)
		if !ok || data.Message == "" || e.notifier == nil {
			return nil
		}

		if err := e.notifier.Send(ctx, data.ChatID, data.Message); err != nil {
			e.logger.Warn("notification delivery failed",
				zap.String("node_id", node.ID),
				zap.Error(err),
			)
			e.metrics.RecordNotification("failed")
			return nil
		}
		e.metrics.RecordNotification("delivered")
		return nil
	})
}

// bridgeHandler runs a bridge transfer through the adapter registered for
// the node's family. Preconditions are checked before the adapter is
// invoked; a precondition failure performs no network call.
func (e *Executor) bridgeHandler(adapter bridge.Adapter) Handler {
	return HandlerFunc(func(ctx context.Context, node graph.Node, rc *RunContext) error {
		req, err := e.buildTransferRequest(node)
		if err != nil {
			return err
		}

		tracker := bridge.NewTracker()
		onProgress := func(p bridge.Progress) {
			if obsErr := tracker.Observe(p); obsErr != nil {
				e.logger.Warn("bridge progress rejected",
					zap.String("node_id", node.ID),
					zap.Error(obsErr),
				)
				return
			}
			rc.setStatusLine(node.ID, p.Message, p.TxHash)
		}

		callCtx := ctx
		if e.cfg.BridgeTimeout > 0 {
			var cancel context.CancelFunc
			callCtx, cancel = context.WithTimeout(ctx, e.cfg.BridgeTimeout)
			defer cancel()
		}

		start := time.Now()
		result, err := adapter.Transfer(callCtx, req, onProgress)
		if err != nil {
			e.metrics.RecordBridgeTransfer(adapter.Name(), "failure", time.Since(start))
			return bridge.Classify(err).WithNodeID(node.ID)
		}
		if result == nil {
			e.metrics.RecordBridgeTransfer(adapter.Name(), "failure", time.Since(start))
			return types.NewError(types.ErrBridgeRejected, "bridge returned no result").
				WithNodeID(node.ID)
		}
		if !result.Success {
			e.metrics.RecordBridgeTransfer(adapter.Name(), "failure", time.Since(start))
			return bridge.ClassifyMessage(result.Err).WithNodeID(node.ID)
		}
		e.metrics.RecordBridgeTransfer(adapter.Name(), "success", time.Since(start))

		rc.setStatusLine(node.ID, fmt.Sprintf("transfer confirmed: %s", result.TxHash), result.TxHash)

		// Success notification is best effort.
		if e.notifier != nil {
			text := fmt.Sprintf("Bridge transfer of %s to %s confirmed (tx %s)",
				req.Amount, req.RecipientAddress, result.TxHash)
			if notifyErr := e.notifier.Send(ctx, "", text); notifyErr != nil {
				e.logger.Warn("bridge success notification failed",
					zap.String("node_id", node.ID),
					zap.Error(notifyErr),
				)
				e.metrics.RecordNotification("failed")
			} else {
				e.metrics.RecordNotification("delivered")
			}
		}
		return nil
	})
}

// buildTransferRequest checks bridge preconditions and assembles the
// adapter request from node data with configured defaults.
func (e *Executor) buildTransferRequest(node graph.Node) (bridge.TransferRequest, error) {
	if e.wallet == nil || !e.wallet.IsConnected() {
		return bridge.TransferRequest{}, types.
			NewError(types.ErrWalletNotConnected, "wallet is not connected").
			WithGuidance("connect a wallet before executing bridge nodes").
			WithNodeID(node.ID)
	}

	data, _ := node.Data.(graph.BridgeData)

	recipient := data.RecipientAddress
	if recipient == "" {
		recipient = e.cfg.DefaultRecipient
	}
	if recipient == "" {
		return bridge.TransferRequest{}, types.
			NewError(types.ErrMissingRecipient, "no recipient address configured").
			WithGuidance("set a recipient address on the node or a default in configuration").
			WithNodeID(node.ID)
	}

	amount := data.Amount
	if amount == "" {
		amount = e.cfg.DefaultAmount
	}
	if amount == "" {
		return bridge.TransferRequest{}, types.
			NewError(types.ErrMissingAmount, "no transfer amount configured").
			WithGuidance("set an amount on the node or a default in configuration").
			WithNodeID(node.ID)
	}
	if v, err := strconv.ParseFloat(amount, 64); err != nil || v <= 0 {
		return bridge.TransferRequest{}, types.
			NewError(types.ErrInvalidAmount, fmt.Sprintf("amount %q is not a positive decimal", amount)).
			WithNodeID(node.ID)
	}

	return bridge.TransferRequest{
		RecipientAddress: recipient,
		Amount:           amount,
		SourceChain:      data.SourceChain,
		TargetChain:      data.TargetChain,
		SenderAddress:    e.wallet.Address(),
	}, nil
}

// buildHandlers assembles the dispatch table. The table is closed over the
// known node types; an unregistered bridge family fails its nodes at
// execution time with a clear message.
func (e *Executor) buildHandlers() map[graph.NodeType]Handler {
	handlers := map[graph.NodeType]Handler{
		graph.NodeTypeTrigger:      e.placeholderHandler(),
		graph.NodeTypeConditional:  e.placeholderHandler(),
		graph.NodeTypeAgent:        e.placeholderHandler(),
		graph.NodeTypeNotification: e.notificationHandler(),
	}
	for family, adapter := range e.bridges {
		handlers[family] = e.bridgeHandler(adapter)
	}
	return handlers
}
