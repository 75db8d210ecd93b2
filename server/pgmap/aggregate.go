// Copyright 2023 CobaltStor Project Authors. Licensed under Apache-2.0.

package pgmap

import "github.com/cobaltstor/cobaltmeta/pkg/assert"

// Aggregates holds the cluster-wide running totals derived from the
// authoritative tables. It is never persisted, always rebuilt by replay.
type Aggregates struct {
	GroupCount     int64
	GroupsByStatus map[GroupStatus]int64
	GroupBytes     int64
	GroupKB        int64
	GroupObjects   int64

	DeviceCount   int64
	DeviceKBTotal int64
	DeviceKBUsed  int64
	DeviceKBAvail int64
	DeviceObjects int64
}

// statsEngine maintains the aggregates and the creating set through the
// add/remove hooks. Every mutation of the authoritative tables must be
// bracketed by them: remove the old record before installing a new one, add
// the new record after. Removing a record that was never added corrupts the
// totals, so it panics instead of limping on.
type statsEngine struct {
	agg      Aggregates
	creating *creatingSet
}

func newStatsEngine() statsEngine {
	return statsEngine{
		agg: Aggregates{
			GroupsByStatus: make(map[GroupStatus]int64),
		},
		creating: newCreatingSet(),
	}
}

func (e *statsEngine) zero() {
	e.agg = Aggregates{
		GroupsByStatus: make(map[GroupStatus]int64),
	}
	e.creating = newCreatingSet()
}

func (e *statsEngine) addGroup(id GroupID, s GroupStats) {
	e.agg.GroupCount++
	e.agg.GroupsByStatus[s.Status]++
	e.agg.GroupBytes += s.Bytes
	e.agg.GroupKB += s.KB
	e.agg.GroupObjects += s.Objects
	if s.Status.Creating() {
		e.creating.insert(id)
	}
}

func (e *statsEngine) removeGroup(id GroupID, s GroupStats) {
	n, ok := e.agg.GroupsByStatus[s.Status]
	assert.Assertf(ok && n > 0, "remove of group never added, group:%d, status:%b", id, s.Status)

	e.agg.GroupCount--
	// Buckets are never retained at zero so reporting only sees live statuses.
	if n == 1 {
		delete(e.agg.GroupsByStatus, s.Status)
	} else {
		e.agg.GroupsByStatus[s.Status] = n - 1
	}
	e.agg.GroupBytes -= s.Bytes
	e.agg.GroupKB -= s.KB
	e.agg.GroupObjects -= s.Objects
	if s.Status.Creating() {
		e.creating.erase(id)
	}
}

func (e *statsEngine) addDevice(s DeviceStats) {
	e.agg.DeviceCount++
	e.agg.DeviceKBTotal += s.KBTotal
	e.agg.DeviceKBUsed += s.KBUsed
	e.agg.DeviceKBAvail += s.KBAvail
	e.agg.DeviceObjects += s.Objects
}

func (e *statsEngine) removeDevice(s DeviceStats) {
	assert.Assertf(e.agg.DeviceCount > 0, "remove of device never added")

	e.agg.DeviceCount--
	e.agg.DeviceKBTotal -= s.KBTotal
	e.agg.DeviceKBUsed -= s.KBUsed
	e.agg.DeviceKBAvail -= s.KBAvail
	e.agg.DeviceObjects -= s.Objects
}

// snapshot returns a copy safe to hand out to readers.
func (e *statsEngine) snapshot() Aggregates {
	agg := e.agg
	agg.GroupsByStatus = make(map[GroupStatus]int64, len(e.agg.GroupsByStatus))
	for status, n := range e.agg.GroupsByStatus {
		agg.GroupsByStatus[status] = n
	}
	return agg
}
