// Copyright (c) Flowbridge Authors.
// Licensed under the MIT License.

// Package api defines the HTTP request and response types for the
// flowbridge workflow API. The handlers subpackage serves them.
package api
