// Copyright 2023 CobaltStor Project Authors. Licensed under Apache-2.0.

package cluster

import (
	"context"
	"sort"
	"sync"
	"testing"

	"github.com/cobaltstor/cobaltmeta/pkg/coderr"
	"github.com/cobaltstor/cobaltmeta/server/pgmap"
	"github.com/stretchr/testify/require"
)

// memStorage is an in-memory storage.Storage for tests.
type memStorage struct {
	snapshot []byte
	deltas   map[uint64][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{deltas: make(map[uint64][]byte)}
}

func (s *memStorage) GetSnapshot(_ context.Context) (*pgmap.Map, bool, error) {
	if s.snapshot == nil {
		return nil, false, nil
	}
	m, err := pgmap.DecodeMap(s.snapshot)
	if err != nil {
		return nil, false, err
	}
	return m, true, nil
}

func (s *memStorage) PutSnapshot(_ context.Context, m *pgmap.Map) error {
	s.snapshot = m.Encode()
	return nil
}

func (s *memStorage) PutDelta(_ context.Context, d *pgmap.Delta) error {
	s.deltas[d.Version] = d.Encode()
	return nil
}

func (s *memStorage) ListDeltas(_ context.Context, sinceVersion uint64) ([]*pgmap.Delta, error) {
	versions := make([]uint64, 0, len(s.deltas))
	for v := range s.deltas {
		if v > sinceVersion {
			versions = append(versions, v)
		}
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i] < versions[j] })

	deltas := make([]*pgmap.Delta, 0, len(versions))
	for _, v := range versions {
		d, err := pgmap.DecodeDelta(s.deltas[v])
		if err != nil {
			return nil, err
		}
		deltas = append(deltas, d)
	}
	return deltas, nil
}

func (s *memStorage) DeleteDeltasThrough(_ context.Context, version uint64) error {
	for v := range s.deltas {
		if v <= version {
			delete(s.deltas, v)
		}
	}
	return nil
}

func groupDelta(version uint64, id pgmap.GroupID, status pgmap.GroupStatus, bytes int64) *pgmap.Delta {
	return &pgmap.Delta{
		Version: version,
		Groups: map[pgmap.GroupID]pgmap.GroupStats{
			id: {Status: status, Bytes: bytes, KB: bytes / 1024, Objects: 1},
		},
	}
}

func TestClusterApplyAndReload(t *testing.T) {
	re := require.New(t)
	ctx := context.Background()
	store := newMemStorage()

	c := NewCluster(store, Options{SnapshotEvery: 1000})
	re.NoError(c.Load(ctx))
	re.Equal(uint64(0), c.Map().Version())

	re.NoError(c.ApplyDelta(ctx, groupDelta(1, 10, pgmap.StatusCreating, 2048)))
	re.NoError(c.ApplyDelta(ctx, groupDelta(2, 10, pgmap.StatusActive, 4096)))
	re.NoError(c.ApplyDelta(ctx, &pgmap.Delta{
		Version: 3,
		Devices: map[pgmap.DeviceID]pgmap.DeviceStats{
			1: {KBTotal: 100, KBUsed: 10, KBAvail: 90, Objects: 1},
		},
	}))
	re.Equal(uint64(3), c.Map().Version())

	// A second coordinator built from the same store must converge.
	c2 := NewCluster(store, Options{SnapshotEvery: 1000})
	re.NoError(c2.Load(ctx))
	re.Equal(c.Map().Version(), c2.Map().Version())
	re.Equal(c.Map().Aggregates(), c2.Map().Aggregates())
	re.Equal(c.Map().Encode(), c2.Map().Encode())
}

func TestClusterRejectsOutOfOrderDelta(t *testing.T) {
	re := require.New(t)
	ctx := context.Background()
	store := newMemStorage()

	c := NewCluster(store, Options{})
	re.NoError(c.Load(ctx))
	re.NoError(c.ApplyDelta(ctx, groupDelta(1, 1, pgmap.StatusActive, 1)))

	err := c.ApplyDelta(ctx, groupDelta(3, 2, pgmap.StatusActive, 1))
	re.Error(err)
	re.True(coderr.Is(err, coderr.InvalidParams))
	// Nothing was persisted for the rejected delta.
	_, ok := store.deltas[3]
	re.False(ok)
	re.Equal(uint64(1), c.Map().Version())
}

// gatedStorage parks the first PutDelta between entering and finishing, so a
// test can schedule a second writer right into the middle of an apply.
type gatedStorage struct {
	*memStorage
	entered chan struct{}
	release chan struct{}
	once    sync.Once
}

func newGatedStorage() *gatedStorage {
	return &gatedStorage{
		memStorage: newMemStorage(),
		entered:    make(chan struct{}),
		release:    make(chan struct{}),
	}
}

func (s *gatedStorage) PutDelta(ctx context.Context, d *pgmap.Delta) error {
	gated := false
	s.once.Do(func() { gated = true })
	if gated {
		close(s.entered)
		<-s.release
	}
	return s.memStorage.PutDelta(ctx, d)
}

func TestClusterConcurrentApplySameVersion(t *testing.T) {
	re := require.New(t)
	ctx := context.Background()
	store := newGatedStorage()

	c := NewCluster(store, Options{SnapshotEvery: 1000})
	re.NoError(c.Load(ctx))

	// Two writers race to commit version 1 with different contents. The
	// first parks inside PutDelta; the second must not slip past it.
	errs := make(chan error, 2)
	go func() {
		errs <- c.ApplyDelta(ctx, groupDelta(1, 10, pgmap.StatusActive, 111))
	}()
	<-store.entered
	go func() {
		errs <- c.ApplyDelta(ctx, groupDelta(1, 20, pgmap.StatusActive, 222))
	}()
	close(store.release)

	errA, errB := <-errs, <-errs
	if errA == nil {
		re.Error(errB)
	} else {
		re.NoError(errB)
	}
	re.Equal(uint64(1), c.Map().Version())

	// Whatever was served must be exactly what a reload replays: the bytes
	// persisted at version 1 belong to the winning delta, not the loser.
	c2 := NewCluster(store, Options{SnapshotEvery: 1000})
	re.NoError(c2.Load(ctx))
	re.Equal(c.Map().Encode(), c2.Map().Encode())
}

func TestClusterSnapshotBoundary(t *testing.T) {
	re := require.New(t)
	ctx := context.Background()
	store := newMemStorage()

	c := NewCluster(store, Options{SnapshotEvery: 4})
	re.NoError(c.Load(ctx))
	for v := uint64(1); v <= 9; v++ {
		re.NoError(c.ApplyDelta(ctx, groupDelta(v, pgmap.GroupID(v), pgmap.StatusActive, 1)))
	}

	// Snapshots landed at versions 4 and 8; deltas through 8 were pruned.
	re.NotNil(store.snapshot)
	snap, ok, err := store.GetSnapshot(ctx)
	re.NoError(err)
	re.True(ok)
	re.Equal(uint64(8), snap.Version())
	re.Len(store.deltas, 1)
	_, ok = store.deltas[9]
	re.True(ok)

	// Reload from snapshot + tail.
	c2 := NewCluster(store, Options{SnapshotEvery: 4})
	re.NoError(c2.Load(ctx))
	re.Equal(uint64(9), c2.Map().Version())
	re.Equal(c.Map().Aggregates(), c2.Map().Aggregates())
}
