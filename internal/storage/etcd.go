package storage

import (
	"context"
	"fmt"
	"time"

	clientv3 "go.etcd.io/etcd/client/v3"
)

// defaultDialTimeout bounds the initial etcd connection attempt.
const defaultDialTimeout = 5 * time.Second

// EtcdStore implements Store on top of an etcd cluster. Every key is placed
// under a fixed prefix so several panels (or other tenants) can share one
// etcd installation without colliding.
type EtcdStore struct {
	client *clientv3.Client
	prefix string
}

// NewEtcdStore connects to the given etcd endpoints and returns a store
// namespaced under prefix (e.g. "/armada/").
func NewEtcdStore(endpoints []string, prefix string) (*EtcdStore, error) {
	cli, err := clientv3.New(clientv3.Config{
		Endpoints:   endpoints,
		DialTimeout: defaultDialTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("connect etcd: %w", err)
	}
	return &EtcdStore{client: cli, prefix: prefix}, nil
}

// Get retrieves a value by key.
// Returns ErrKeyNotFound if the key doesn't exist.
func (e *EtcdStore) Get(ctx context.Context, key string) ([]byte, error) {
	resp, err := e.client.Get(ctx, e.prefix+key)
	if err != nil {
		return nil, fmt.Errorf("etcd get %q: %w", key, err)
	}
	if len(resp.Kvs) == 0 {
		return nil, ErrKeyNotFound
	}
	return resp.Kvs[0].Value, nil
}

// Set stores a value with the given key, overwriting any existing value.
func (e *EtcdStore) Set(ctx context.Context, key string, value []byte) error {
	if _, err := e.client.Put(ctx, e.prefix+key, string(value)); err != nil {
		return fmt.Errorf("etcd put %q: %w", key, err)
	}
	return nil
}

// Delete removes a key-value pair. Deleting a missing key is not an error.
func (e *EtcdStore) Delete(ctx context.Context, key string) error {
	if _, err := e.client.Delete(ctx, e.prefix+key); err != nil {
		return fmt.Errorf("etcd delete %q: %w", key, err)
	}
	return nil
}

// Close releases the underlying etcd client connection.
func (e *EtcdStore) Close() error {
	return e.client.Close()
}
