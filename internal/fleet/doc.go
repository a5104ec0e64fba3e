// Package fleet defines the core data model for Armada's node registry,
// providing the node record, probe wire types, instance aggregation, and the
// error taxonomy shared by every other subsystem in the panel.
//
// # Overview
//
// The fleet package holds the vocabulary of the control plane. It has no
// dependencies on storage, networking, or HTTP handling: the registry,
// monitor, and API layers all speak in terms of the types defined here.
//
// # Core Types
//
// NodeRecord: Identity and last-known state of one fleet member
//   - Operator metadata (name, tags, ram, disk, processor)
//   - Network location and daemon credentials (address, port, apiKey)
//   - Probe-owned state (status plus capability fields)
//
// NodeParams: Operator input for create/update operations
//   - Validated only for presence of address, port, and apiKey
//   - All other fields are free-form strings
//
// DaemonStatus: JSON body returned by a node daemon's status endpoint
//   - Parsed by the prober on a successful probe
//
// Instance: A workload unit assigned to exactly one node
//   - Ownership is tracked elsewhere; this package only counts them
//
// # Status Lifecycle
//
// A record's status moves through exactly three states:
//
//	        create/update
//	             │
//	             ▼
//	         ┌───────┐   probe ok   ┌────────┐
//	         │unknown├─────────────►│ online │
//	         └───┬───┘              └───┬────┘
//	             │ probe failed         │ probe failed
//	             ▼                      ▼
//	         ┌─────────────────────────────┐
//	         │           offline           │
//	         └─────────────────────────────┘
//
// Unknown only ever appears between a mutation and the probe that follows
// it. The capability fields survive offline transitions unchanged: stale
// capability data is more useful to an operator than an erased record.
//
// # Error Taxonomy
//
// ErrNotFound: operation referenced an id absent from the registry
// ErrInvalidArgument: malformed request, such as a delete with no id
// ValidationError: create/update missing address, port, or apiKey
//
// Probe failures are intentionally absent from this list. A failed probe is
// not an error anywhere in the system; it is encoded as StatusOffline on the
// returned record.
package fleet
