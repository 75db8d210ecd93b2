// Copyright 2023 CobaltStor Project Authors. Licensed under Apache-2.0.

package pgmap

import "github.com/prometheus/client_golang/prometheus"

var (
	groupCountGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cobaltmeta",
		Subsystem: "pgmap",
		Name:      "group_total",
		Help:      "Number of placement groups in the map.",
	})
	groupsByStatusGauge = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "cobaltmeta",
		Subsystem: "pgmap",
		Name:      "groups_by_status",
		Help:      "Number of placement groups per status combination.",
	}, []string{"status"})
	groupBytesGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cobaltmeta",
		Subsystem: "pgmap",
		Name:      "group_bytes_total",
		Help:      "Bytes stored across all placement groups.",
	})
	groupObjectsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cobaltmeta",
		Subsystem: "pgmap",
		Name:      "group_objects_total",
		Help:      "Objects stored across all placement groups.",
	})
	deviceCountGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cobaltmeta",
		Subsystem: "pgmap",
		Name:      "device_total",
		Help:      "Number of devices in the map.",
	})
	deviceKBUsedGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cobaltmeta",
		Subsystem: "pgmap",
		Name:      "device_kb_used",
		Help:      "Kilobytes used across all devices.",
	})
	deviceKBAvailGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cobaltmeta",
		Subsystem: "pgmap",
		Name:      "device_kb_avail",
		Help:      "Kilobytes available across all devices.",
	})
	deviceKBTotalGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cobaltmeta",
		Subsystem: "pgmap",
		Name:      "device_kb_total",
		Help:      "Total kilobytes across all devices.",
	})
	creatingGroupsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "cobaltmeta",
		Subsystem: "pgmap",
		Name:      "creating_groups",
		Help:      "Number of placement groups still being created.",
	})
)

func init() {
	prometheus.MustRegister(
		groupCountGauge,
		groupsByStatusGauge,
		groupBytesGauge,
		groupObjectsGauge,
		deviceCountGauge,
		deviceKBUsedGauge,
		deviceKBAvailGauge,
		deviceKBTotalGauge,
		creatingGroupsGauge,
	)
}

// UpdateMetrics publishes the current aggregates to the prometheus gauges.
// Expected to be called after each successful apply.
func (m *Map) UpdateMetrics() {
	m.lock.RLock()
	agg := m.stats.snapshot()
	creating := m.stats.creating.len()
	m.lock.RUnlock()

	groupCountGauge.Set(float64(agg.GroupCount))
	groupBytesGauge.Set(float64(agg.GroupBytes))
	groupObjectsGauge.Set(float64(agg.GroupObjects))
	deviceCountGauge.Set(float64(agg.DeviceCount))
	deviceKBUsedGauge.Set(float64(agg.DeviceKBUsed))
	deviceKBAvailGauge.Set(float64(agg.DeviceKBAvail))
	deviceKBTotalGauge.Set(float64(agg.DeviceKBTotal))
	creatingGroupsGauge.Set(float64(creating))

	// Statuses with no groups left must disappear from the output.
	groupsByStatusGauge.Reset()
	for status, n := range agg.GroupsByStatus {
		groupsByStatusGauge.WithLabelValues(status.String()).Set(float64(n))
	}
}
