// Copyright (c) Flowbridge Authors.
// Licensed under the MIT License.

// Package telemetry wraps OpenTelemetry SDK initialization for
// flowbridge, providing a centrally configured TracerProvider and
// MeterProvider. When telemetry is disabled the noop implementations are
// used and no external service is contacted.
package telemetry
