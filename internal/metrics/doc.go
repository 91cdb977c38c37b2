// Copyright (c) Flowbridge Authors.
// Licensed under the MIT License.

// Package metrics aggregates Prometheus metrics for the workflow engine:
// run and node outcomes, bridge transfer latencies, notification
// deliveries, and HTTP request counts. A nil *Collector is a valid
// no-op receiver so callers never need to guard metric calls.
package metrics
