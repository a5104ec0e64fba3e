// Package storage defines the persistence port for Armada's node registry
// and provides the concrete key-value backends the panel can run against.
//
// # Overview
//
// The registry treats persistence as an external collaborator: a flat
// key-value store reachable through Get, Set, and Delete. This package owns
// that contract and two implementations of it. Nothing above this layer
// knows which backend is in use.
//
// # Architecture
//
//	┌─────────────────────────────────────┐
//	│        Registry / Monitor           │
//	└─────────────────────────────────────┘
//	                 │
//	                 ▼
//	┌─────────────────────────────────────┐
//	│         Store Interface             │
//	│       (Get / Set / Delete)          │
//	└─────────────────────────────────────┘
//	                 │
//	        ┌────────┴────────┐
//	        ▼                 ▼
//	   ┌─────────┐      ┌──────────┐
//	   │ Memory  │      │   etcd   │
//	   │ Store   │      │  Store   │
//	   └─────────┘      └──────────┘
//
// # Implementations
//
// MemoryStore: In-memory map guarded by a sync.RWMutex
//   - No persistence (data lost on restart)
//   - Default backend for tests and local development
//
// EtcdStore: etcd cluster via go.etcd.io/etcd/client/v3
//   - All keys placed under a configurable prefix
//   - Production backend; survives panel restarts
//
// # Semantics
//
// Get on a missing key returns ErrKeyNotFound. Set overwrites whole values
// atomically from the caller's perspective; there are no partial writes.
// Delete is idempotent. The store offers no transactions: callers that need
// read-modify-write consistency (the registry's node index does) serialize
// those writes themselves.
package storage
