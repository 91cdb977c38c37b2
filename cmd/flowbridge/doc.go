// Copyright (c) Flowbridge Authors.
// Licensed under the MIT License.

/*
Package main is the flowbridge server entry point.

Subcommands: serve (start the service), version, health. The serve
command loads YAML configuration with FLOWBRIDGE_* environment
overrides, builds the zap logger, initializes OpenTelemetry, and wires
the graph store, workflow persistence, bridge clients, Telegram
notifier, and executor behind the HTTP API. A second listener exposes
Prometheus metrics on /metrics.

The HTTP middleware chain is Recovery, RequestID, SecurityHeaders,
RequestLogger, CORS, per-IP RateLimiter, MetricsMiddleware, and
OTelTracing. Version, BuildTime, and GitCommit are injected through
ldflags.
*/
package main
