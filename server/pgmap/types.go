// Copyright 2023 CobaltStor Project Authors. Licensed under Apache-2.0.

package pgmap

// GroupID is the identity of a placement group. It is assigned by the
// placement layer and opaque to this package.
type GroupID uint64

// DeviceID is the identity of a storage device reporting its stats.
type DeviceID uint32

// GroupStatus is a bitset describing the current condition of a placement group.
type GroupStatus uint32

const (
	StatusCreating GroupStatus = 1 << iota
	StatusActive
	StatusClean
	StatusDown
	StatusDegraded
	StatusPeering
)

// Creating reports whether the group is still being instantiated on its devices.
func (s GroupStatus) Creating() bool {
	return s&StatusCreating != 0
}

var statusNames = []struct {
	flag GroupStatus
	name string
}{
	{StatusCreating, "creating"},
	{StatusActive, "active"},
	{StatusClean, "clean"},
	{StatusDown, "down"},
	{StatusDegraded, "degraded"},
	{StatusPeering, "peering"},
}

func (s GroupStatus) String() string {
	if s == 0 {
		return "none"
	}
	out := ""
	for _, sn := range statusNames {
		if s&sn.flag == 0 {
			continue
		}
		if out != "" {
			out += "+"
		}
		out += sn.name
	}
	if out == "" {
		return "unknown"
	}
	return out
}

// GroupStats is the snapshot a placement group reports about itself.
// Records are replaced wholesale on every update, never mutated in place.
type GroupStats struct {
	Status  GroupStatus
	Bytes   int64
	KB      int64
	Objects int64
}

// DeviceStats is the capacity snapshot a storage device reports about itself.
type DeviceStats struct {
	KBTotal int64
	KBUsed  int64
	KBAvail int64
	Objects int64
}

// Delta is a versioned incremental update to the map. Its version must be
// exactly one past the version of the map it is applied to; the upstream
// commit layer is responsible for producing them in that order.
type Delta struct {
	Version uint64

	Groups  map[GroupID]GroupStats
	Devices map[DeviceID]DeviceStats
	// RemovedDevices lists devices whose records should be dropped entirely.
	// Groups are never removed, only superseded.
	RemovedDevices []DeviceID

	// TopologyEpoch and ScanEpoch are sticky markers from the placement
	// layer, only overwritten by non-zero values.
	TopologyEpoch uint32
	ScanEpoch     uint32
}
