// Copyright 2023 CobaltStor Project Authors. Licensed under Apache-2.0.

package storage

import (
	"context"

	"github.com/cobaltstor/cobaltmeta/server/pgmap"
	clientv3 "go.etcd.io/etcd/client/v3"
)

// Storage persists the pgmap state: the latest full snapshot plus every
// committed delta past it. Derived statistics are never stored, they are
// rebuilt when the snapshot is decoded.
type Storage interface {
	// GetSnapshot loads the persisted full map. The bool is false when no
	// snapshot has been stored yet.
	GetSnapshot(ctx context.Context) (*pgmap.Map, bool, error)
	// PutSnapshot stores the full map wholesale.
	PutSnapshot(ctx context.Context, m *pgmap.Map) error
	// PutDelta stores one committed delta keyed by its version.
	PutDelta(ctx context.Context, d *pgmap.Delta) error
	// ListDeltas returns the stored deltas with version > sinceVersion in
	// ascending version order.
	ListDeltas(ctx context.Context, sinceVersion uint64) ([]*pgmap.Delta, error)
	// DeleteDeltasThrough drops stored deltas with version <= version. Used
	// after a new snapshot makes them redundant.
	DeleteDeltasThrough(ctx context.Context, version uint64) error
}

type Options struct {
	// MaxScanLimit is the max number of keys fetched per etcd range request.
	MaxScanLimit int
	// RootPath prefixes every key this storage touches.
	RootPath string
}

// NewStorageWithEtcdBackend creates a Storage backed by etcd.
func NewStorageWithEtcdBackend(client *clientv3.Client, opts Options) Storage {
	return newEtcdStorage(client, opts)
}
