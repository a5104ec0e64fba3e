package monitor

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/harborline/armada/internal/fleet"
)

// DefaultMaxConcurrent caps how many probes a single refresh runs at once.
// The registry fans out over every node unconditionally; the cap keeps a
// very large fleet from opening one socket per node in the same instant.
const DefaultMaxConcurrent = 16

// Source provides the registry view the monitor refreshes.
// *registry.Store satisfies it.
type Source interface {
	Index(ctx context.Context) ([]string, error)
	Get(ctx context.Context, id string) (fleet.NodeRecord, error)
}

// Monitor fans the prober out across the registered fleet and joins the
// results. Probes run concurrently and are failure-isolated: one
// unreachable node is classified offline without delaying, cancelling, or
// corrupting any other node's probe.
type Monitor struct {
	source Source
	probe  func(ctx context.Context, rec fleet.NodeRecord) fleet.NodeRecord
	limit  int
	log    *slog.Logger
}

// New creates a monitor refreshing source through prober.
func New(source Source, prober *Prober, log *slog.Logger) *Monitor {
	if log == nil {
		log = slog.Default()
	}
	return &Monitor{
		source: source,
		probe:  prober.Probe,
		limit:  DefaultMaxConcurrent,
		log:    log,
	}
}

// SetProbeFunc overrides the probe implementation.
// This is useful for testing or custom probe behavior.
func (m *Monitor) SetProbeFunc(probe func(ctx context.Context, rec fleet.NodeRecord) fleet.NodeRecord) {
	m.probe = probe
}

// SetMaxConcurrent changes the probe concurrency cap. Values below one
// disable the cap.
func (m *Monitor) SetMaxConcurrent(n int) {
	m.limit = n
}

// RefreshAll probes every registered node concurrently and returns the
// refreshed records in the same order as the node index. It returns only
// when every probe has finished: a caller gets the whole refreshed fleet or
// the call is still pending.
//
// Only a registry read failure (index or record fetch) fails the call.
// Probe outcomes, good or bad, are encoded in the returned records.
func (m *Monitor) RefreshAll(ctx context.Context) ([]fleet.NodeRecord, error) {
	ids, err := m.source.Index(ctx)
	if err != nil {
		return nil, err
	}

	// Fetch all records up front so a bad registry read fails the call
	// before any probe fires.
	records := make([]fleet.NodeRecord, len(ids))
	for i, id := range ids {
		rec, err := m.source.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		records[i] = rec
	}

	m.log.Debug("refreshing fleet", "nodes", len(records))

	// Each goroutine writes only its own slot, so the result for ids[i] is
	// always the probe of the record fetched for ids[i] regardless of
	// completion order.
	results := make([]fleet.NodeRecord, len(records))
	var g errgroup.Group
	if m.limit > 0 {
		g.SetLimit(m.limit)
	}
	for i, rec := range records {
		g.Go(func() error {
			results[i] = m.probe(ctx, rec)
			return nil
		})
	}
	// Join barrier. Probes never return errors; Wait only blocks until the
	// last one finishes.
	_ = g.Wait()

	return results, nil
}

// RefreshOne probes a single node by id and returns the refreshed record.
// Returns fleet.ErrNotFound if the id is not registered.
func (m *Monitor) RefreshOne(ctx context.Context, id string) (fleet.NodeRecord, error) {
	rec, err := m.source.Get(ctx, id)
	if err != nil {
		return fleet.NodeRecord{}, err
	}
	return m.probe(ctx, rec), nil
}
