// Package monitor implements health probing for the fleet: the single-node
// prober that performs one authenticated status check, and the fleet
// monitor that fans the prober out across every registered node.
//
// # Probe Protocol
//
// A probe is one HTTP GET to the node daemon's root endpoint:
//
//	GET http://{address}:{port}/
//	Authorization: Basic base64("Armada:" + apiKey)
//
// A healthy daemon answers 2xx with a JSON body carrying versionFamily,
// versionRelease, online, remote, and docker. Any other outcome — refused
// connection, timeout, non-2xx, garbage body — classifies the node offline.
// No error body format is assumed and no distinction is drawn between
// failure modes.
//
// # Failure Absorption
//
// Probe failures never propagate as errors. The prober encodes the outcome
// in the record's status, leaves the capability fields at their last-known
// values on failure, persists the record, and returns it. The only errors a
// fleet refresh can surface are registry reads failing before the fan-out
// starts.
//
// # Fan-out / Fan-in
//
//	RefreshAll
//	    │  read index, fetch records (failures fatal here)
//	    ├──────────┬──────────┬──────────┐
//	    ▼          ▼          ▼          ▼
//	 probe n1   probe n2   probe n3   probe nN     (≤ limit at once)
//	    └──────────┴──────────┴──────────┘
//	    │  join barrier: wait for every probe
//	    ▼
//	 records, index order
//
// Probes run concurrently, bounded by a configurable cap (default 16), and
// complete in any order; each result slot is tied to the id it was fetched
// for, so ordering is preserved by construction rather than by completion
// order. There are no retries inside a pass — the next admin request
// re-probes from scratch.
package monitor
