// Copyright (c) Flowbridge Authors.
// Licensed under the MIT License.

/*
Package graph provides the workflow graph store and traversal planner.

# Overview

graph holds the authoritative node set of a workflow as a forest: every
non-root node references exactly one parent, and children of conditional
nodes carry a true/false branch tag. The package is pure data plus
structural queries; side effects live in the engine package.

# Core types

  - Node / NodeType / Branch — the graph data model; Node.Data is a closed
    tagged variant (TriggerData, ConditionalData, AgentData, BridgeData,
    NotificationData) selected by NodeType
  - Store     — mutable, mutex-guarded node collection: AddNode,
    AddConnection, DeleteNode (children promoted to roots), UpdateNodeData,
    ChildrenOf/ChildrenOn, Roots, Export/Import
  - Snapshot  — deep immutable copy taken at run start; in-flight runs are
    isolated from concurrent edits
  - Plan      — breadth-first execution order with false-branch exclusion
    and defensive cycle detection

# Invariants

  - The parent relation is acyclic; AddConnection refuses cycle-closing
    edges and Plan aborts with GRAPH_INVARIANT_VIOLATED if one slips in
  - A branch tag requires a conditional parent
  - Planning is deterministic: insertion order drives root and sibling
    ordering
*/
package graph
