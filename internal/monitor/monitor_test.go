package monitor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harborline/armada/internal/fleet"
)

// fakeSource serves a fixed registry view.
type fakeSource struct {
	ids     []string
	records map[string]fleet.NodeRecord
	getErr  map[string]error
}

func (s *fakeSource) Index(context.Context) ([]string, error) {
	return s.ids, nil
}

func (s *fakeSource) Get(_ context.Context, id string) (fleet.NodeRecord, error) {
	if err := s.getErr[id]; err != nil {
		return fleet.NodeRecord{}, err
	}
	rec, ok := s.records[id]
	if !ok {
		return fleet.NodeRecord{}, fleet.ErrNotFound
	}
	return rec, nil
}

func sourceOf(ids ...string) *fakeSource {
	s := &fakeSource{ids: ids, records: make(map[string]fleet.NodeRecord)}
	for _, id := range ids {
		s.records[id] = fleet.NodeRecord{ID: id, Address: "10.0.0.1", Port: "8081"}
	}
	return s
}

func newTestMonitor(source Source) *Monitor {
	return New(source, NewProber(&fakeSink{}, nil), nil)
}

// TestRefreshAllOrder verifies results come back in index order regardless
// of which probes finish first, each re-associated with the right node.
func TestRefreshAllOrder(t *testing.T) {
	source := sourceOf("a", "b", "c", "d")
	m := newTestMonitor(source)

	// Earlier slots finish last
	delays := map[string]time.Duration{
		"a": 80 * time.Millisecond,
		"b": 40 * time.Millisecond,
		"c": 10 * time.Millisecond,
		"d": 0,
	}
	m.SetProbeFunc(func(_ context.Context, rec fleet.NodeRecord) fleet.NodeRecord {
		time.Sleep(delays[rec.ID])
		rec.Status = fleet.StatusOnline
		return rec
	})

	records, err := m.RefreshAll(context.Background())
	require.NoError(t, err)
	require.Len(t, records, 4)
	for i, id := range []string{"a", "b", "c", "d"} {
		assert.Equal(t, id, records[i].ID)
		assert.Equal(t, fleet.StatusOnline, records[i].Status)
	}
}

// TestRefreshAllIsolation verifies one failing node neither corrupts nor
// delays the rest: N records come back with only the bad one offline, and
// the whole pass takes about one probe duration, not N.
func TestRefreshAllIsolation(t *testing.T) {
	const probeTime = 100 * time.Millisecond

	source := sourceOf("a", "b", "bad", "d", "e")
	m := newTestMonitor(source)
	m.SetProbeFunc(func(_ context.Context, rec fleet.NodeRecord) fleet.NodeRecord {
		time.Sleep(probeTime)
		if rec.ID == "bad" {
			rec.Status = fleet.StatusOffline
			return rec
		}
		rec.Status = fleet.StatusOnline
		return rec
	})

	start := time.Now()
	records, err := m.RefreshAll(context.Background())
	elapsed := time.Since(start)

	require.NoError(t, err)
	require.Len(t, records, 5)
	for _, rec := range records {
		if rec.ID == "bad" {
			assert.Equal(t, fleet.StatusOffline, rec.Status)
		} else {
			assert.Equal(t, fleet.StatusOnline, rec.Status)
		}
	}

	// Concurrent fan-out: roughly one probe, with headroom for CI
	assert.Less(t, elapsed, 3*probeTime,
		"refresh must run probes concurrently, not serially")
}

// TestRefreshAllEmptyFleet verifies refreshing an empty registry succeeds.
func TestRefreshAllEmptyFleet(t *testing.T) {
	m := newTestMonitor(sourceOf())

	records, err := m.RefreshAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, records)
}

// TestRefreshAllReadFailure verifies a registry read failure fails the
// whole call before any probe fires.
func TestRefreshAllReadFailure(t *testing.T) {
	source := sourceOf("a", "b")
	source.getErr = map[string]error{"b": errors.New("store unavailable")}
	m := newTestMonitor(source)

	var probes atomic.Int32
	m.SetProbeFunc(func(_ context.Context, rec fleet.NodeRecord) fleet.NodeRecord {
		probes.Add(1)
		return rec
	})

	_, err := m.RefreshAll(context.Background())
	assert.Error(t, err)
	assert.Zero(t, probes.Load(), "no probe may fire when the registry read fails")
}

// TestRefreshAllConcurrencyCap verifies the fan-out never exceeds the
// configured probe concurrency.
func TestRefreshAllConcurrencyCap(t *testing.T) {
	source := sourceOf("a", "b", "c", "d", "e", "f", "g", "h")
	m := newTestMonitor(source)
	m.SetMaxConcurrent(2)

	var mu sync.Mutex
	inflight, peak := 0, 0
	m.SetProbeFunc(func(_ context.Context, rec fleet.NodeRecord) fleet.NodeRecord {
		mu.Lock()
		inflight++
		if inflight > peak {
			peak = inflight
		}
		mu.Unlock()

		time.Sleep(10 * time.Millisecond)

		mu.Lock()
		inflight--
		mu.Unlock()
		return rec
	})

	_, err := m.RefreshAll(context.Background())
	require.NoError(t, err)
	assert.LessOrEqual(t, peak, 2)
}

// TestRefreshOne verifies the single-node refresh path and its NotFound
// behavior.
func TestRefreshOne(t *testing.T) {
	source := sourceOf("a")
	m := newTestMonitor(source)
	m.SetProbeFunc(func(_ context.Context, rec fleet.NodeRecord) fleet.NodeRecord {
		rec.Status = fleet.StatusOnline
		return rec
	})

	rec, err := m.RefreshOne(context.Background(), "a")
	require.NoError(t, err)
	assert.Equal(t, fleet.StatusOnline, rec.Status)

	_, err = m.RefreshOne(context.Background(), "ghost")
	assert.ErrorIs(t, err, fleet.ErrNotFound)
}
