// Copyright 2023 CobaltStor Project Authors. Licensed under Apache-2.0.

package pgmap

import "sync"

// Map is the authoritative record of placement-group and device statistics,
// updated by versioned deltas committed upstream. The two tables are the only
// durable state; aggregates and the creating set are derived and rebuilt on
// load.
//
// Writes are expected from a single logical applier. The RWMutex exists so
// reporting readers can observe a consistent state between applies.
type Map struct {
	lock sync.RWMutex

	version uint64
	groups  map[GroupID]GroupStats
	devices map[DeviceID]DeviceStats

	topologyEpoch uint32
	scanEpoch     uint32

	stats statsEngine
}

func NewMap() *Map {
	return &Map{
		groups:  make(map[GroupID]GroupStats),
		devices: make(map[DeviceID]DeviceStats),
		stats:   newStatsEngine(),
	}
}

// ApplyDelta applies one committed delta. The delta must carry exactly the
// next version; anything else fails with ErrVersionMismatch and leaves the
// map untouched. The version check is the sole failure point, so a delta is
// applied either fully or not at all.
func (m *Map) ApplyDelta(delta *Delta) error {
	m.lock.Lock()
	defer m.lock.Unlock()

	if delta.Version != m.version+1 {
		return ErrVersionMismatch.WithCausef("expected:%d, got:%d", m.version+1, delta.Version)
	}

	for id, stats := range delta.Groups {
		if old, ok := m.groups[id]; ok {
			m.stats.removeGroup(id, old)
		}
		m.groups[id] = stats
		m.stats.addGroup(id, stats)
	}
	for id, stats := range delta.Devices {
		if old, ok := m.devices[id]; ok {
			m.stats.removeDevice(old)
		}
		m.devices[id] = stats
		m.stats.addDevice(stats)
	}
	for _, id := range delta.RemovedDevices {
		if old, ok := m.devices[id]; ok {
			m.stats.removeDevice(old)
			delete(m.devices, id)
		}
	}

	if delta.TopologyEpoch != 0 {
		m.topologyEpoch = delta.TopologyEpoch
	}
	if delta.ScanEpoch != 0 {
		m.scanEpoch = delta.ScanEpoch
	}

	m.version++
	return nil
}

func (m *Map) Version() uint64 {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return m.version
}

func (m *Map) TopologyEpoch() uint32 {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return m.topologyEpoch
}

func (m *Map) ScanEpoch() uint32 {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return m.scanEpoch
}

// Aggregates returns a copy of the current derived totals.
func (m *Map) Aggregates() Aggregates {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return m.stats.snapshot()
}

// Group returns the current stats of one placement group.
func (m *Map) Group(id GroupID) (GroupStats, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	stats, ok := m.groups[id]
	return stats, ok
}

// Device returns the current stats of one device.
func (m *Map) Device(id DeviceID) (DeviceStats, bool) {
	m.lock.RLock()
	defer m.lock.RUnlock()

	stats, ok := m.devices[id]
	return stats, ok
}

func (m *Map) GroupCount() int {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return len(m.groups)
}

func (m *Map) DeviceCount() int {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return len(m.devices)
}

// CreatingGroups returns the groups currently in creating status, newest
// insertions first, least recently pinged last.
func (m *Map) CreatingGroups() []GroupID {
	m.lock.RLock()
	defer m.lock.RUnlock()

	return m.stats.creating.ids()
}

// TouchCreating records that the group was just re-announced to its devices,
// moving it to the back of the creating order. Unknown ids are ignored.
func (m *Map) TouchCreating(id GroupID) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.stats.creating.touch(id)
}
