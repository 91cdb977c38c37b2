// Copyright (c) Flowbridge Authors.
// Licensed under the MIT License.

// Package server manages an HTTP server's lifecycle: non-blocking start,
// graceful shutdown bounded by a configurable timeout, and
// SIGINT/SIGTERM handling. Manager wraps net/http.Server and surfaces
// asynchronous serve errors through Errors().
package server
