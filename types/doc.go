// Copyright (c) Flowbridge Authors.
// Licensed under the MIT License.

/*
Package types provides shared type definitions for the Flowbridge engine.

# Overview

types is the lowest-level public package. It depends on no other package in
the module and supplies the error contract shared by graph, engine, bridge,
notify, and the API surface, avoiding circular dependencies.

# Core types

  - Error / ErrorCode — structured error taxonomy with guidance text,
    retryability, and node attribution
  - IsPrecondition    — distinguishes failures detected before any adapter
    call from failures returned by an adapter

# Error families

  - Precondition: WALLET_NOT_CONNECTED, MISSING_RECIPIENT, MISSING_AMOUNT,
    INVALID_AMOUNT — raised before side effects are attempted
  - Adapter: USER_REJECTED, INSUFFICIENT_FUNDS, WRONG_NETWORK,
    BRIDGE_UNAVAILABLE, BRIDGE_REJECTED, TIMEOUT — caught at the executor
    boundary and converted to node status
  - Notification: NOTIFICATION_FAILED — logged, never fatal to a run
  - Graph/run: NOT_FOUND, INVALID_BRANCH, GRAPH_INVARIANT_VIOLATED,
    RUN_ACTIVE
*/
package types
