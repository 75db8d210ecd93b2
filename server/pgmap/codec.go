// Copyright 2023 CobaltStor Project Authors. Licensed under Apache-2.0.

package pgmap

import (
	"encoding/binary"
	"sort"
)

// The wire form is little-endian and order-significant: fields are encoded
// exactly in struct order, map containers carry a u32 length prefix and are
// written in ascending key order so that equal states encode to equal bytes.
// Aggregates and the creating set never hit the wire, decoding a full map
// rebuilds them by replaying the tables through the stats engine.

const (
	groupEntrySize   = 8 + 4 + 8 + 8 + 8
	deviceEntrySize  = 4 + 8 + 8 + 8 + 8
	removedEntrySize = 4
)

// Encode serializes the delta.
func (d *Delta) Encode() []byte {
	size := 8 + 4 + len(d.Groups)*groupEntrySize + 4 + len(d.Devices)*deviceEntrySize +
		4 + len(d.RemovedDevices)*removedEntrySize + 4 + 4
	buf := make([]byte, 0, size)

	buf = binary.LittleEndian.AppendUint64(buf, d.Version)
	buf = appendGroupTable(buf, d.Groups)
	buf = appendDeviceTable(buf, d.Devices)

	removed := make([]DeviceID, len(d.RemovedDevices))
	copy(removed, d.RemovedDevices)
	sort.Slice(removed, func(i, j int) bool { return removed[i] < removed[j] })
	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(removed)))
	for _, id := range removed {
		buf = binary.LittleEndian.AppendUint32(buf, uint32(id))
	}

	buf = binary.LittleEndian.AppendUint32(buf, d.TopologyEpoch)
	buf = binary.LittleEndian.AppendUint32(buf, d.ScanEpoch)
	return buf
}

// DecodeDelta parses an encoded delta. It fails with ErrMalformedInput on
// truncated or structurally invalid bytes and installs no partial result.
func DecodeDelta(data []byte) (*Delta, error) {
	r := reader{buf: data}

	var d Delta
	d.Version = r.u64()
	d.Groups = r.groupTable()
	d.Devices = r.deviceTable()

	n := r.count(removedEntrySize)
	d.RemovedDevices = make([]DeviceID, 0, n)
	for i := uint32(0); i < n; i++ {
		d.RemovedDevices = append(d.RemovedDevices, DeviceID(r.u32()))
	}

	d.TopologyEpoch = r.u32()
	d.ScanEpoch = r.u32()
	if err := r.finish(); err != nil {
		return nil, err
	}
	return &d, nil
}

// Encode serializes the authoritative state of the map: version, the two
// tables and the sticky epochs. Derived state is deliberately excluded.
func (m *Map) Encode() []byte {
	m.lock.RLock()
	defer m.lock.RUnlock()

	size := 8 + 4 + len(m.groups)*groupEntrySize + 4 + len(m.devices)*deviceEntrySize + 4 + 4
	buf := make([]byte, 0, size)

	buf = binary.LittleEndian.AppendUint64(buf, m.version)
	buf = appendGroupTable(buf, m.groups)
	buf = appendDeviceTable(buf, m.devices)
	buf = binary.LittleEndian.AppendUint32(buf, m.topologyEpoch)
	buf = binary.LittleEndian.AppendUint32(buf, m.scanEpoch)
	return buf
}

// DecodeMap parses an encoded full map and rebuilds all derived state by
// replaying the restored tables through the stats engine. That replay is the
// only way derived state is ever materialized from persisted bytes, so it can
// never diverge from the tables.
func DecodeMap(data []byte) (*Map, error) {
	r := reader{buf: data}

	m := NewMap()
	m.version = r.u64()
	m.groups = r.groupTable()
	m.devices = r.deviceTable()
	m.topologyEpoch = r.u32()
	m.scanEpoch = r.u32()
	if err := r.finish(); err != nil {
		return nil, err
	}

	m.stats.zero()
	for id, stats := range m.groups {
		m.stats.addGroup(id, stats)
	}
	for _, stats := range m.devices {
		m.stats.addDevice(stats)
	}
	return m, nil
}

func appendGroupTable(buf []byte, groups map[GroupID]GroupStats) []byte {
	ids := make([]GroupID, 0, len(groups))
	for id := range groups {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(ids)))
	for _, id := range ids {
		stats := groups[id]
		buf = binary.LittleEndian.AppendUint64(buf, uint64(id))
		buf = binary.LittleEndian.AppendUint32(buf, uint32(stats.Status))
		buf = binary.LittleEndian.AppendUint64(buf, uint64(stats.Bytes))
		buf = binary.LittleEndian.AppendUint64(buf, uint64(stats.KB))
		buf = binary.LittleEndian.AppendUint64(buf, uint64(stats.Objects))
	}
	return buf
}

func appendDeviceTable(buf []byte, devices map[DeviceID]DeviceStats) []byte {
	ids := make([]DeviceID, 0, len(devices))
	for id := range devices {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	buf = binary.LittleEndian.AppendUint32(buf, uint32(len(ids)))
	for _, id := range ids {
		stats := devices[id]
		buf = binary.LittleEndian.AppendUint32(buf, uint32(id))
		buf = binary.LittleEndian.AppendUint64(buf, uint64(stats.KBTotal))
		buf = binary.LittleEndian.AppendUint64(buf, uint64(stats.KBUsed))
		buf = binary.LittleEndian.AppendUint64(buf, uint64(stats.KBAvail))
		buf = binary.LittleEndian.AppendUint64(buf, uint64(stats.Objects))
	}
	return buf
}

// reader is a cursor over an encoded byte stream. The first structural
// problem latches malformed; all later reads return zero values and the
// caller surfaces the error once through finish.
type reader struct {
	buf       []byte
	off       int
	malformed bool
}

func (r *reader) take(n int) []byte {
	if r.malformed || len(r.buf)-r.off < n {
		r.malformed = true
		return nil
	}
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *reader) u32() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint32(b)
}

func (r *reader) u64() uint64 {
	b := r.take(8)
	if b == nil {
		return 0
	}
	return binary.LittleEndian.Uint64(b)
}

// count reads a container length prefix and rejects lengths the remaining
// bytes cannot possibly hold.
func (r *reader) count(entrySize int) uint32 {
	n := r.u32()
	if r.malformed || int(n)*entrySize > len(r.buf)-r.off {
		r.malformed = true
		return 0
	}
	return n
}

func (r *reader) groupTable() map[GroupID]GroupStats {
	n := r.count(groupEntrySize)
	groups := make(map[GroupID]GroupStats, n)
	for i := uint32(0); i < n; i++ {
		id := GroupID(r.u64())
		groups[id] = GroupStats{
			Status:  GroupStatus(r.u32()),
			Bytes:   int64(r.u64()),
			KB:      int64(r.u64()),
			Objects: int64(r.u64()),
		}
	}
	return groups
}

func (r *reader) deviceTable() map[DeviceID]DeviceStats {
	n := r.count(deviceEntrySize)
	devices := make(map[DeviceID]DeviceStats, n)
	for i := uint32(0); i < n; i++ {
		id := DeviceID(r.u32())
		devices[id] = DeviceStats{
			KBTotal: int64(r.u64()),
			KBUsed:  int64(r.u64()),
			KBAvail: int64(r.u64()),
			Objects: int64(r.u64()),
		}
	}
	return devices
}

// finish reports the latched decode error, also rejecting trailing garbage.
func (r *reader) finish() error {
	if r.malformed {
		return ErrMalformedInput.WithCausef("truncated or inconsistent input, len:%d, off:%d", len(r.buf), r.off)
	}
	if r.off != len(r.buf) {
		return ErrMalformedInput.WithCausef("trailing bytes, len:%d, off:%d", len(r.buf), r.off)
	}
	return nil
}
