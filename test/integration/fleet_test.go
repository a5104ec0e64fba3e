// Package integration exercises the whole registry stack in-process: real
// store, real prober over real HTTP, real fan-out — only the fleet daemons
// are fakes.
package integration

import (
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborline/armada/internal/fleet"
	"github.com/harborline/armada/internal/monitor"
	"github.com/harborline/armada/internal/registry"
	"github.com/harborline/armada/internal/storage"
)

// fakeDaemon is a stand-in fleet node speaking the probe protocol.
type fakeDaemon struct {
	srv    *httptest.Server
	apiKey string
	addr   string
	port   string
}

func startDaemon(t *testing.T, apiKey string, online bool) *fakeDaemon {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok || user != "Armada" || pass != apiKey {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		_ = json.NewEncoder(w).Encode(fleet.DaemonStatus{
			VersionFamily:  1,
			VersionRelease: "daemon 1.2.0",
			Online:         online,
			Remote:         "0.0.0.0",
			Docker:         true,
		})
	}))
	t.Cleanup(srv.Close)

	addr, port, err := net.SplitHostPort(srv.Listener.Addr().String())
	require.NoError(t, err)
	return &fakeDaemon{srv: srv, apiKey: apiKey, addr: addr, port: port}
}

func (d *fakeDaemon) params(name string) fleet.NodeParams {
	return fleet.NodeParams{
		Name:    name,
		Address: d.addr,
		Port:    d.port,
		APIKey:  d.apiKey,
	}
}

type stack struct {
	kv       *storage.MemoryStore
	store    *registry.Store
	registry *registry.Registry
	monitor  *monitor.Monitor
}

func newStack(t *testing.T) *stack {
	t.Helper()
	kv := storage.NewMemoryStore()
	store := registry.NewStore(kv)
	prober := monitor.NewProber(store, nil)
	prober.SetHTTPClient(&http.Client{Timeout: 2 * time.Second})
	return &stack{
		kv:       kv,
		store:    store,
		registry: registry.New(store, prober, nil),
		monitor:  monitor.New(store, prober, nil),
	}
}

// TestFleetLifecycle walks a fleet through registration, refresh, a node
// going dark, an update, and deletion.
func TestFleetLifecycle(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	d1 := startDaemon(t, "key-1", true)
	d2 := startDaemon(t, "key-2", true)

	// Register two reachable nodes
	n1, err := s.registry.Create(ctx, d1.params("rack1"))
	require.NoError(t, err)
	require.Equal(t, fleet.StatusOnline, n1.Status)
	require.Equal(t, 1, n1.VersionFamily)

	n2, err := s.registry.Create(ctx, d2.params("rack2"))
	require.NoError(t, err)
	require.Equal(t, fleet.StatusOnline, n2.Status)

	// Fleet refresh sees both online, in index order
	records, err := s.monitor.RefreshAll(ctx)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, n1.ID, records[0].ID)
	assert.Equal(t, n2.ID, records[1].ID)

	// rack2's daemon goes dark; the next refresh isolates it
	d2.srv.Close()
	records, err = s.monitor.RefreshAll(ctx)
	require.NoError(t, err)
	byID := map[string]fleet.NodeRecord{}
	for _, rec := range records {
		byID[rec.ID] = rec
	}
	assert.Equal(t, fleet.StatusOnline, byID[n1.ID].Status)
	assert.Equal(t, fleet.StatusOffline, byID[n2.ID].Status)
	assert.Equal(t, "daemon 1.2.0", byID[n2.ID].VersionRelease,
		"offline node keeps last-known capability fields")

	// The offline verdict was persisted, so the render path sees it too
	stored, err := s.registry.Get(ctx, n2.ID)
	require.NoError(t, err)
	assert.Equal(t, fleet.StatusOffline, stored.Status)

	// Point rack2's record at rack1's (healthy) daemon
	updated, err := s.registry.Update(ctx, n2.ID, d1.params("rack2"))
	require.NoError(t, err)
	assert.Equal(t, fleet.StatusOnline, updated.Status)

	// Delete rack1 and verify the registry converges
	require.NoError(t, s.registry.Delete(ctx, n1.ID))
	ids, err := s.store.Index(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{n2.ID}, ids)

	// Deleting it again is still fine
	assert.NoError(t, s.registry.Delete(ctx, n1.ID))
}

// TestFleetRefreshLatency registers several nodes where one daemon stalls,
// and verifies the stalled probe bounds the refresh rather than serial
// probing summing up.
func TestFleetRefreshLatency(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	const probeTimeout = 300 * time.Millisecond

	// Stalling daemon: accepts the connection, never answers
	release := make(chan struct{})
	stall := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
	}))
	t.Cleanup(func() { close(release); stall.Close() })
	stallAddr, stallPort, err := net.SplitHostPort(stall.Listener.Addr().String())
	require.NoError(t, err)

	prober := monitor.NewProber(s.store, nil)
	prober.SetHTTPClient(&http.Client{Timeout: probeTimeout})
	reg := registry.New(s.store, prober, nil)
	mon := monitor.New(s.store, prober, nil)

	for i := 0; i < 4; i++ {
		d := startDaemon(t, "key", true)
		_, err := reg.Create(ctx, d.params("ok"))
		require.NoError(t, err)
	}
	_, err = reg.Create(ctx, fleet.NodeParams{
		Name:    "stalled",
		Address: stallAddr,
		Port:    stallPort,
		APIKey:  "key",
	})
	require.NoError(t, err)

	start := time.Now()
	records, err := mon.RefreshAll(ctx)
	elapsed := time.Since(start)
	require.NoError(t, err)
	require.Len(t, records, 5)

	offline := 0
	for _, rec := range records {
		if rec.Status == fleet.StatusOffline {
			offline++
		}
	}
	assert.Equal(t, 1, offline)
	assert.Less(t, elapsed, 3*probeTimeout,
		"one stalled node must not stretch the refresh past its own timeout")
}

// TestInstanceCountsEndToEnd verifies aggregation over persisted state.
func TestInstanceCountsEndToEnd(t *testing.T) {
	ctx := context.Background()
	s := newStack(t)

	d := startDaemon(t, "key", true)
	a, err := s.registry.Create(ctx, d.params("a"))
	require.NoError(t, err)
	b, err := s.registry.Create(ctx, d.params("b"))
	require.NoError(t, err)

	raw, err := json.Marshal([]fleet.Instance{
		{ID: "i1", Node: a.ID},
		{ID: "i2", Node: a.ID},
		{ID: "i3", Node: b.ID},
	})
	require.NoError(t, err)
	require.NoError(t, s.kv.Set(ctx, "instances", raw))

	counts, err := s.registry.InstanceCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int{a.ID: 2, b.ID: 1}, counts)
}
