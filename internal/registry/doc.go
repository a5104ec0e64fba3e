// Package registry implements the durable node registry: the record store
// that keeps node records and the node index consistent inside the
// persistence port, and the admin operations that mutate them.
//
// # Overview
//
// Two keyed structures make up the persisted registry:
//
//	"nodes"      → ordered JSON list of known node ids
//	"{id}_node"  → JSON NodeRecord for one node
//
// Both key shapes are part of the panel's persisted contract and stay
// stable for external readers of the same store.
//
// # Consistency Model
//
// Every mutating operation keeps the two structures in sync: create writes
// the record and appends to the index, delete rewrites the index and drops
// the record key. An id in the index therefore always has exactly one
// record, and a record never outlives its index entry.
//
// The backing store is not transactional. Index updates are read-modify-
// write cycles, so Store serializes them behind a mutex; without it, two
// concurrent creates (or a create racing a delete) could each read the same
// index and silently drop the other's change. Record writes are single
// whole-value Sets and need no coordination.
//
// # Operations
//
// Registry wires the store to a Prober so that every mutation returns a
// freshly probed record:
//
//	Create  validate → put record (unknown) → append index → probe
//	Update  fetch (NotFound?) → replace record (unknown) → probe
//	Delete  guard empty id → rewrite index → drop record key
//
// Delete is idempotent: removing an unregistered id succeeds and leaves the
// index untouched. No operation retries on failure; surfaced errors are the
// operator's to act on.
package registry
