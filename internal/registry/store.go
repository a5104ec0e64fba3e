package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"golang.org/x/exp/slices"

	"github.com/harborline/armada/internal/fleet"
	"github.com/harborline/armada/internal/storage"
)

const (
	// indexKey is the well-known key holding the ordered list of node ids.
	// The shape is shared with other readers of the persisted state and
	// must stay stable.
	indexKey = "nodes"

	// recordSuffix is appended to a node id to form its record key.
	recordSuffix = "_node"
)

// instancesKey holds the panel's instance list. It is owned by another part
// of the panel; this subsystem only reads it for per-node counts.
const instancesKey = "instances"

func recordKey(id string) string {
	return id + recordSuffix
}

// Store keeps node records and the node index consistent inside the
// persistence port. Records live under "{id}_node" and the index under
// "nodes"; every mutating operation touches both so neither can drift from
// the other.
//
// The underlying key-value store is not transactional, so the index
// read-modify-write is serialized by a mutex. Two mutations racing on the
// index would otherwise silently drop each other's change. Record writes
// need no such coordination: a record is always written whole with a single
// Set, and concurrent writers of different records never share a key.
type Store struct {
	kv storage.Store
	mu sync.Mutex // Serializes index read-modify-write
}

// NewStore creates a Store on top of the given persistence port.
func NewStore(kv storage.Store) *Store {
	return &Store{kv: kv}
}

// Index returns the ordered list of known node ids. A registry that has
// never held a node yields an empty list, not an error.
func (s *Store) Index(ctx context.Context) ([]string, error) {
	raw, err := s.kv.Get(ctx, indexKey)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read node index: %w", err)
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("decode node index: %w", err)
	}
	return ids, nil
}

// SetIndex replaces the node index wholesale.
func (s *Store) SetIndex(ctx context.Context, ids []string) error {
	raw, err := json.Marshal(ids)
	if err != nil {
		return fmt.Errorf("encode node index: %w", err)
	}
	if err := s.kv.Set(ctx, indexKey, raw); err != nil {
		return fmt.Errorf("write node index: %w", err)
	}
	return nil
}

// Get returns the record for id, or fleet.ErrNotFound if the id is unknown.
func (s *Store) Get(ctx context.Context, id string) (fleet.NodeRecord, error) {
	raw, err := s.kv.Get(ctx, recordKey(id))
	if errors.Is(err, storage.ErrKeyNotFound) {
		return fleet.NodeRecord{}, fleet.ErrNotFound
	}
	if err != nil {
		return fleet.NodeRecord{}, fmt.Errorf("read node %s: %w", id, err)
	}
	var rec fleet.NodeRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return fleet.NodeRecord{}, fmt.Errorf("decode node %s: %w", id, err)
	}
	return rec, nil
}

// Put writes a whole record with a single Set. Upsert: an existing record
// with the same id is replaced.
func (s *Store) Put(ctx context.Context, rec fleet.NodeRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode node %s: %w", rec.ID, err)
	}
	if err := s.kv.Set(ctx, recordKey(rec.ID), raw); err != nil {
		return fmt.Errorf("write node %s: %w", rec.ID, err)
	}
	return nil
}

// Append adds id to the index if it is not already present.
func (s *Store) Append(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.Index(ctx)
	if err != nil {
		return err
	}
	if slices.Contains(ids, id) {
		return nil
	}
	return s.SetIndex(ctx, append(ids, id))
}

// Remove deletes id from the index and removes its record key. Removing an
// id that was never registered is a no-op, not an error.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, err := s.Index(ctx)
	if err != nil {
		return err
	}
	kept := slices.DeleteFunc(ids, func(existing string) bool { return existing == id })
	if err := s.SetIndex(ctx, kept); err != nil {
		return err
	}
	if err := s.kv.Delete(ctx, recordKey(id)); err != nil {
		return fmt.Errorf("delete node %s: %w", id, err)
	}
	return nil
}

// List returns every registered record in index order.
func (s *Store) List(ctx context.Context) ([]fleet.NodeRecord, error) {
	ids, err := s.Index(ctx)
	if err != nil {
		return nil, err
	}
	records := make([]fleet.NodeRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// Instances reads the panel's instance list. A panel with no instances
// yields an empty list.
func (s *Store) Instances(ctx context.Context) ([]fleet.Instance, error) {
	raw, err := s.kv.Get(ctx, instancesKey)
	if errors.Is(err, storage.ErrKeyNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read instances: %w", err)
	}
	var instances []fleet.Instance
	if err := json.Unmarshal(raw, &instances); err != nil {
		return nil, fmt.Errorf("decode instances: %w", err)
	}
	return instances, nil
}
