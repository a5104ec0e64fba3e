package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/harborline/armada/internal/fleet"
)

const (
	// probeUsername is the fixed service identifier every node daemon
	// expects as the basic-auth username. The node's apiKey is the
	// password.
	probeUsername = "Armada"

	// DefaultProbeTimeout bounds a single status request so one
	// unreachable node cannot stall a fleet-wide refresh beyond it.
	DefaultProbeTimeout = 4 * time.Second
)

// RecordSink persists a probed record. *registry.Store satisfies it.
type RecordSink interface {
	Put(ctx context.Context, rec fleet.NodeRecord) error
}

// Prober issues one authenticated status request to a node daemon and
// classifies the outcome onto the record.
//
// A probe can never fail from its caller's point of view: connection
// errors, timeouts, non-2xx responses, and malformed bodies all collapse
// into StatusOffline on the returned record, with the capability fields
// left at their previous values. The result is persisted through the sink
// before it is returned, so callers need no separate write step.
type Prober struct {
	sink   RecordSink
	client *http.Client
	log    *slog.Logger
}

// NewProber creates a prober that persists results through sink.
func NewProber(sink RecordSink, log *slog.Logger) *Prober {
	if log == nil {
		log = slog.Default()
	}
	return &Prober{
		sink: sink,
		client: &http.Client{
			Timeout: DefaultProbeTimeout,
		},
		log: log,
	}
}

// SetHTTPClient overrides the probe transport.
// This is useful for tests and for tightening the per-probe timeout.
func (p *Prober) SetHTTPClient(client *http.Client) {
	p.client = client
}

// Probe checks one node and returns the record with status and capability
// fields refreshed. The refreshed record has already been written through
// the sink when Probe returns.
//
// The remote call is a read: it performs no mutation on the node's side.
func (p *Prober) Probe(ctx context.Context, rec fleet.NodeRecord) fleet.NodeRecord {
	status, err := p.fetchStatus(ctx, rec)
	if err != nil {
		// Failure is absorbed here, never raised: the node is offline and
		// its last-known capability fields stay as they were.
		rec.Status = fleet.StatusOffline
		p.log.Warn("probe failed",
			"id", rec.ID,
			"address", rec.Address,
			"port", rec.Port,
			"err", err)
	} else {
		rec.VersionFamily = status.VersionFamily
		rec.VersionRelease = status.VersionRelease
		rec.Remote = status.Remote
		rec.Docker = status.Docker
		if status.Online {
			rec.Status = fleet.StatusOnline
		} else {
			// Reachable daemon reporting itself offline.
			rec.Status = fleet.StatusOffline
		}
	}

	if err := p.sink.Put(ctx, rec); err != nil {
		p.log.Error("persist probe result", "id", rec.ID, "err", err)
	}
	return rec
}

// fetchStatus performs the HTTP GET against the node daemon and decodes its
// status body.
func (p *Prober) fetchStatus(ctx context.Context, rec fleet.NodeRecord) (fleet.DaemonStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rec.DaemonURL(), nil)
	if err != nil {
		return fleet.DaemonStatus{}, fmt.Errorf("build request: %w", err)
	}
	req.SetBasicAuth(probeUsername, rec.APIKey)

	resp, err := p.client.Do(req)
	if err != nil {
		return fleet.DaemonStatus{}, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fleet.DaemonStatus{}, fmt.Errorf("daemon returned status %d", resp.StatusCode)
	}

	var status fleet.DaemonStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return fleet.DaemonStatus{}, fmt.Errorf("decode status body: %w", err)
	}
	return status, nil
}
