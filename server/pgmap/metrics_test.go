// Copyright 2023 CobaltStor Project Authors. Licensed under Apache-2.0.

package pgmap

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestUpdateMetricsPublishesAggregates(t *testing.T) {
	re := require.New(t)
	m := NewMap()

	re.NoError(m.ApplyDelta(&Delta{
		Version: 1,
		Groups: map[GroupID]GroupStats{
			testGroup1: {Status: StatusCreating, Bytes: 100, KB: 1, Objects: 3},
			testGroup2: {Status: StatusActive | StatusClean, Bytes: 50, KB: 1, Objects: 2},
		},
		Devices: map[DeviceID]DeviceStats{
			testDevice1: {KBTotal: 1000, KBUsed: 400, KBAvail: 600, Objects: 5},
		},
	}))
	m.UpdateMetrics()

	re.Equal(2, testutil.CollectAndCount(groupsByStatusGauge))
	re.Equal(float64(1), testutil.ToFloat64(groupsByStatusGauge.WithLabelValues("creating")))
	re.Equal(float64(1), testutil.ToFloat64(groupsByStatusGauge.WithLabelValues("active+clean")))
	re.Equal(float64(2), testutil.ToFloat64(groupCountGauge))
	re.Equal(float64(150), testutil.ToFloat64(groupBytesGauge))
	re.Equal(float64(400), testutil.ToFloat64(deviceKBUsedGauge))
	re.Equal(float64(1), testutil.ToFloat64(creatingGroupsGauge))
}

func TestUpdateMetricsDropsEmptyStatusSeries(t *testing.T) {
	re := require.New(t)
	m := NewMap()

	re.NoError(m.ApplyDelta(&Delta{
		Version: 1,
		Groups: map[GroupID]GroupStats{
			testGroup1: {Status: StatusCreating},
		},
	}))
	m.UpdateMetrics()
	re.Equal(1, testutil.CollectAndCount(groupsByStatusGauge))

	// The group leaves creating; the creating series must vanish from the
	// published output, not linger at zero.
	re.NoError(m.ApplyDelta(&Delta{
		Version: 2,
		Groups: map[GroupID]GroupStats{
			testGroup1: {Status: StatusActive},
		},
	}))
	m.UpdateMetrics()
	re.Equal(1, testutil.CollectAndCount(groupsByStatusGauge))
	re.Equal(float64(1), testutil.ToFloat64(groupsByStatusGauge.WithLabelValues("active")))
	re.Equal(float64(0), testutil.ToFloat64(creatingGroupsGauge))
}
