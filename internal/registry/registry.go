package registry

import (
	"context"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/harborline/armada/internal/fleet"
)

// Prober performs one authenticated status check against a node and returns
// the record with its probe-owned fields refreshed. Implementations persist
// their own result and never fail: an unreachable node comes back as
// StatusOffline, not as an error.
type Prober interface {
	Probe(ctx context.Context, rec fleet.NodeRecord) fleet.NodeRecord
}

// Registry implements the admin-facing node operations: create, update,
// delete, and the read paths. Mutations orchestrate the record store and the
// prober so a caller always gets back a record that has just been probed.
type Registry struct {
	store  *Store
	prober Prober
	log    *slog.Logger
	newID  func() string // Swappable for deterministic tests
}

// New creates a Registry operating on store, probing through prober.
func New(store *Store, prober Prober, log *slog.Logger) *Registry {
	if log == nil {
		log = slog.Default()
	}
	return &Registry{
		store:  store,
		prober: prober,
		log:    log,
		newID:  uuid.NewString,
	}
}

// Create registers a new node and returns it freshly probed.
//
// The record is persisted with StatusUnknown, the id is appended to the
// index, and a single probe then settles the status to Online or Offline.
// Missing address, port, or apiKey rejects the whole operation with a
// *fleet.ValidationError before anything is written.
func (r *Registry) Create(ctx context.Context, p fleet.NodeParams) (fleet.NodeRecord, error) {
	if err := p.Validate(); err != nil {
		return fleet.NodeRecord{}, err
	}

	rec := recordFromParams(r.newID(), p)
	if err := r.store.Put(ctx, rec); err != nil {
		return fleet.NodeRecord{}, err
	}
	if err := r.store.Append(ctx, rec.ID); err != nil {
		return fleet.NodeRecord{}, err
	}
	r.log.Info("node created", "id", rec.ID, "address", rec.Address, "port", rec.Port)

	return r.prober.Probe(ctx, rec), nil
}

// Update replaces the record for id with the given params and returns it
// freshly probed. Returns fleet.ErrNotFound, without writing anything, when
// id is not registered.
//
// The replacement keeps the id and the last-known capability fields; status
// is reset to StatusUnknown until the probe that follows settles it.
func (r *Registry) Update(ctx context.Context, id string, p fleet.NodeParams) (fleet.NodeRecord, error) {
	if err := p.Validate(); err != nil {
		return fleet.NodeRecord{}, err
	}

	existing, err := r.store.Get(ctx, id)
	if err != nil {
		return fleet.NodeRecord{}, err
	}

	rec := recordFromParams(id, p)
	rec.VersionFamily = existing.VersionFamily
	rec.VersionRelease = existing.VersionRelease
	rec.Remote = existing.Remote
	rec.Docker = existing.Docker

	if err := r.store.Put(ctx, rec); err != nil {
		return fleet.NodeRecord{}, err
	}
	r.log.Info("node updated", "id", id, "address", rec.Address, "port", rec.Port)

	return r.prober.Probe(ctx, rec), nil
}

// Delete removes a node from the registry. An empty id is rejected with
// fleet.ErrInvalidArgument; deleting an id that is not registered succeeds
// and leaves the index unchanged.
func (r *Registry) Delete(ctx context.Context, id string) error {
	if strings.TrimSpace(id) == "" {
		return fleet.ErrInvalidArgument
	}
	if err := r.store.Remove(ctx, id); err != nil {
		return err
	}
	r.log.Info("node deleted", "id", id)
	return nil
}

// Get returns the stored record for id without forcing a fresh probe. Used
// by render-only paths that can live with last-known state.
func (r *Registry) Get(ctx context.Context, id string) (fleet.NodeRecord, error) {
	return r.store.Get(ctx, id)
}

// List returns every stored record in index order, without probing.
func (r *Registry) List(ctx context.Context) ([]fleet.NodeRecord, error) {
	return r.store.List(ctx)
}

// InstanceCounts recomputes the per-node instance counts from the panel's
// instance list. Nodes without instances get an explicit zero entry.
func (r *Registry) InstanceCounts(ctx context.Context) (map[string]int, error) {
	ids, err := r.store.Index(ctx)
	if err != nil {
		return nil, err
	}
	instances, err := r.store.Instances(ctx)
	if err != nil {
		return nil, err
	}
	return fleet.CountInstances(ids, instances), nil
}

func recordFromParams(id string, p fleet.NodeParams) fleet.NodeRecord {
	return fleet.NodeRecord{
		ID:        id,
		Name:      p.Name,
		Tags:      p.Tags,
		RAM:       p.RAM,
		Disk:      p.Disk,
		Processor: p.Processor,
		Address:   p.Address,
		Port:      p.Port,
		APIKey:    p.APIKey,
		Status:    fleet.StatusUnknown,
	}
}
