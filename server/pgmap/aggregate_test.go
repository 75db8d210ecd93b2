// Copyright 2023 CobaltStor Project Authors. Licensed under Apache-2.0.

package pgmap

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStatusBucketLifecycle(t *testing.T) {
	re := require.New(t)
	e := newStatsEngine()

	s := GroupStats{Status: StatusActive | StatusClean, Bytes: 1, KB: 1, Objects: 1}
	e.addGroup(testGroup1, s)
	e.addGroup(testGroup2, s)
	re.Equal(int64(2), e.agg.GroupsByStatus[StatusActive|StatusClean])

	e.removeGroup(testGroup1, s)
	re.Equal(int64(1), e.agg.GroupsByStatus[StatusActive|StatusClean])

	// The bucket disappears entirely when it hits zero.
	e.removeGroup(testGroup2, s)
	_, ok := e.agg.GroupsByStatus[StatusActive|StatusClean]
	re.False(ok)
	re.Empty(e.agg.GroupsByStatus)
	re.Equal(int64(0), e.agg.GroupCount)
	re.Equal(int64(0), e.agg.GroupBytes)
}

func TestCreatingHookOnAddRemove(t *testing.T) {
	re := require.New(t)
	e := newStatsEngine()

	e.addGroup(testGroup1, GroupStats{Status: StatusCreating})
	e.addGroup(testGroup2, GroupStats{Status: StatusActive})
	re.True(e.creating.contains(testGroup1))
	re.False(e.creating.contains(testGroup2))

	e.removeGroup(testGroup1, GroupStats{Status: StatusCreating})
	re.False(e.creating.contains(testGroup1))
	re.Equal(0, e.creating.len())
}

func TestRemoveNeverAddedPanics(t *testing.T) {
	re := require.New(t)
	e := newStatsEngine()

	re.Panics(func() {
		e.removeGroup(testGroup1, GroupStats{Status: StatusActive})
	})
	re.Panics(func() {
		e.removeDevice(DeviceStats{KBTotal: 1})
	})
}

func TestZeroResetsEverything(t *testing.T) {
	re := require.New(t)
	e := newStatsEngine()

	e.addGroup(testGroup1, GroupStats{Status: StatusCreating, Bytes: 9, KB: 9, Objects: 9})
	e.addDevice(DeviceStats{KBTotal: 9, KBUsed: 9, KBAvail: 9, Objects: 9})
	e.zero()

	re.Equal(int64(0), e.agg.GroupCount)
	re.Equal(int64(0), e.agg.DeviceKBTotal)
	re.Empty(e.agg.GroupsByStatus)
	re.Equal(0, e.creating.len())
}

func TestSnapshotIsDetached(t *testing.T) {
	re := require.New(t)
	e := newStatsEngine()

	e.addGroup(testGroup1, GroupStats{Status: StatusActive})
	agg := e.snapshot()
	agg.GroupsByStatus[StatusDown] = 42

	_, ok := e.agg.GroupsByStatus[StatusDown]
	re.False(ok)
}
