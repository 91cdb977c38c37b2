// Copyright (c) Flowbridge Authors.
// Licensed under the MIT License.

// Package handlers implements the flowbridge HTTP API: node editing,
// workflow persistence, run control, live run events over WebSocket, and
// health probes. All endpoints share the Response envelope; error codes
// map onto HTTP status codes in one place.
package handlers
