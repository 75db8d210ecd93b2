// Copyright 2023 CobaltStor Project Authors. Licensed under Apache-2.0.

package storage

import (
	"context"
	"testing"

	"github.com/cobaltstor/cobaltmeta/server/etcdutil"
	"github.com/cobaltstor/cobaltmeta/server/pgmap"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) Storage {
	_, client := etcdutil.PrepareEtcdServerAndClient(t)
	return NewStorageWithEtcdBackend(client, Options{MaxScanLimit: 5, RootPath: "/cobaltmeta"})
}

func TestSnapshotStorage(t *testing.T) {
	re := require.New(t)
	s := newTestStorage(t)
	ctx, cancel := context.WithTimeout(context.Background(), etcdutil.DefaultRequestTimeout)
	defer cancel()

	_, ok, err := s.GetSnapshot(ctx)
	re.NoError(err)
	re.False(ok)

	m := pgmap.NewMap()
	re.NoError(m.ApplyDelta(&pgmap.Delta{
		Version: 1,
		Groups: map[pgmap.GroupID]pgmap.GroupStats{
			1: {Status: pgmap.StatusCreating, Bytes: 100, KB: 1, Objects: 2},
		},
		Devices: map[pgmap.DeviceID]pgmap.DeviceStats{
			3: {KBTotal: 500, KBUsed: 100, KBAvail: 400, Objects: 2},
		},
		TopologyEpoch: 4,
	}))
	re.NoError(s.PutSnapshot(ctx, m))

	loaded, ok, err := s.GetSnapshot(ctx)
	re.NoError(err)
	re.True(ok)
	re.Equal(m.Version(), loaded.Version())
	re.Equal(m.Aggregates(), loaded.Aggregates())
	re.Equal(m.Encode(), loaded.Encode())
}

func TestDeltaStorage(t *testing.T) {
	re := require.New(t)
	s := newTestStorage(t)
	ctx, cancel := context.WithTimeout(context.Background(), etcdutil.DefaultRequestTimeout)
	defer cancel()

	// More deltas than one scan batch to exercise pagination.
	for v := uint64(1); v <= 12; v++ {
		re.NoError(s.PutDelta(ctx, &pgmap.Delta{
			Version: v,
			Groups: map[pgmap.GroupID]pgmap.GroupStats{
				pgmap.GroupID(v): {Status: pgmap.StatusActive, Bytes: int64(v)},
			},
		}))
	}

	deltas, err := s.ListDeltas(ctx, 0)
	re.NoError(err)
	re.Len(deltas, 12)
	for i, d := range deltas {
		re.Equal(uint64(i+1), d.Version)
	}

	deltas, err = s.ListDeltas(ctx, 7)
	re.NoError(err)
	re.Len(deltas, 5)
	re.Equal(uint64(8), deltas[0].Version)

	re.NoError(s.DeleteDeltasThrough(ctx, 10))
	deltas, err = s.ListDeltas(ctx, 0)
	re.NoError(err)
	re.Len(deltas, 2)
	re.Equal(uint64(11), deltas[0].Version)

	// Pruning an already pruned range is harmless.
	re.NoError(s.DeleteDeltasThrough(ctx, 10))
}
