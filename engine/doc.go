// Copyright (c) Flowbridge Authors.
// Licensed under the MIT License.

// Package engine executes planned workflow traversals. The Executor walks
// the node order produced by the graph planner, dispatches each node to a
// type-specific handler, and records per-node outcomes in a RunContext
// that observers and the API surface read from. At most one run is in
// flight at a time; node failures are isolated and never abort the run.
package engine
