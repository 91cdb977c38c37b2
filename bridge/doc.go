// Copyright (c) Flowbridge Authors.
// Licensed under the MIT License.

/*
Package bridge defines the external bridge service boundary consumed by the
execution engine.

# Overview

A bridge transfer is asynchronous: the adapter may emit progress events
(initializing, submitting, awaiting-confirmation) before settling in
completed or error. Transfers are not idempotent; the engine never retries
automatically, failures are surfaced to the user instead.

# Core types

  - Adapter           — the transfer contract: Transfer(ctx, req, onProgress)
  - Progress / Step   — ordered progress phases with terminal detection
  - Tracker           — progress state machine; rejects backward transitions
  - Classify          — maps adapter failures to error kinds with guidance
    text (user-rejected signature, insufficient funds, wrong network,
    backend outage, timeout)
  - MessagingClient   — direct cross-chain messaging bridge (submit + poll)
  - IntentClient      — intent-based aggregator bridge (quote, execute,
    settle)

The engine is agnostic to the bridge family; node type selects the adapter.
*/
package bridge
