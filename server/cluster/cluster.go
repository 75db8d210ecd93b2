// Copyright 2023 CobaltStor Project Authors. Licensed under Apache-2.0.

package cluster

import (
	"context"
	"sync"

	"github.com/cobaltstor/cobaltmeta/pkg/log"
	"github.com/cobaltstor/cobaltmeta/server/pgmap"
	"github.com/cobaltstor/cobaltmeta/server/storage"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

const defaultSnapshotEvery = 128

// Cluster owns the authoritative pgmap of one storage cluster and keeps it
// durable: every committed delta is persisted before it is applied, and a
// fresh full snapshot replaces the accumulated deltas periodically. Cluster
// is the serialization point for writers, callers may apply concurrently.
type Cluster struct {
	// lock serializes Load and ApplyDelta so the version check, the
	// persisted bytes and the applied delta always agree. Without it two
	// in-flight deltas for the same next version could each pass the check,
	// with one persisting its bytes while the map applies the other.
	lock sync.Mutex

	storage storage.Storage
	pgMap   *pgmap.Map

	// snapshotEvery is the number of versions between full snapshots.
	snapshotEvery uint64
}

type Options struct {
	SnapshotEvery uint64
}

func NewCluster(s storage.Storage, opts Options) *Cluster {
	if opts.SnapshotEvery == 0 {
		opts.SnapshotEvery = defaultSnapshotEvery
	}
	return &Cluster{
		storage:       s,
		pgMap:         pgmap.NewMap(),
		snapshotEvery: opts.SnapshotEvery,
	}
}

// Load restores the map from storage: latest snapshot first, then every
// stored delta past it. Starting from an empty store leaves a fresh map at
// version 0.
func (c *Cluster) Load(ctx context.Context) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	m, ok, err := c.storage.GetSnapshot(ctx)
	if err != nil {
		return errors.Wrap(err, "cluster load")
	}
	if !ok {
		m = pgmap.NewMap()
	}

	deltas, err := c.storage.ListDeltas(ctx, m.Version())
	if err != nil {
		return errors.Wrap(err, "cluster load")
	}
	for _, d := range deltas {
		if err := m.ApplyDelta(d); err != nil {
			return ErrReplaySnapshot.WithCausef("version:%d, err:%v", d.Version, err)
		}
	}

	c.pgMap = m
	c.pgMap.UpdateMetrics()
	log.Info("pgmap loaded",
		zap.Uint64("version", m.Version()),
		zap.Int("replayedDeltas", len(deltas)),
		zap.Int("groups", m.GroupCount()),
		zap.Int("devices", m.DeviceCount()))
	return nil
}

// ApplyDelta persists one committed delta and applies it to the map. The
// delta is durable before it is visible; a version mismatch is detected up
// front so nothing is persisted for an out-of-order delta.
func (c *Cluster) ApplyDelta(ctx context.Context, d *pgmap.Delta) error {
	c.lock.Lock()
	defer c.lock.Unlock()

	if expected := c.pgMap.Version() + 1; d.Version != expected {
		return ErrStaleDelta.WithCausef("expected:%d, got:%d", expected, d.Version)
	}

	if err := c.storage.PutDelta(ctx, d); err != nil {
		return errors.Wrapf(err, "cluster apply delta, version:%d", d.Version)
	}
	if err := c.pgMap.ApplyDelta(d); err != nil {
		// The version was validated above, so this cannot be a mismatch
		// unless another writer snuck in, which the caller contract forbids.
		return errors.Wrapf(err, "cluster apply delta, version:%d", d.Version)
	}
	c.pgMap.UpdateMetrics()

	if version := c.pgMap.Version(); version%c.snapshotEvery == 0 {
		c.trySnapshot(ctx, version)
	}
	return nil
}

// trySnapshot stores a fresh full snapshot and prunes the deltas it covers.
// Failures are logged and retried at the next boundary, the in-memory map
// stays correct either way.
func (c *Cluster) trySnapshot(ctx context.Context, version uint64) {
	if err := c.storage.PutSnapshot(ctx, c.pgMap); err != nil {
		log.Warn("put pgmap snapshot failed", zap.Uint64("version", version), zap.Error(err))
		return
	}
	if err := c.storage.DeleteDeltasThrough(ctx, version); err != nil {
		log.Warn("prune pgmap deltas failed", zap.Uint64("version", version), zap.Error(err))
		return
	}
	log.Info("pgmap snapshot stored", zap.Uint64("version", version))
}

// Map returns the live pgmap for readers.
func (c *Cluster) Map() *pgmap.Map {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.pgMap
}
