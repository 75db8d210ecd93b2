// Copyright 2023 CobaltStor Project Authors. Licensed under Apache-2.0.

package storage

import (
	"fmt"
	"path"
)

const (
	version  = "v1"
	pgmapKey = "pgmap"
	snapshot = "snapshot"
	delta    = "delta"
)

// makeSnapshotKey returns the key of the persisted full map.
// example: v1/pgmap/snapshot -> encoded pgmap.Map
func makeSnapshotKey(rootPath string) string {
	return path.Join(rootPath, version, pgmapKey, snapshot)
}

// makeDeltaKey returns the key of one committed delta.
// example: v1/pgmap/delta/00000000000000000007 -> encoded pgmap.Delta
func makeDeltaKey(rootPath string, deltaVersion uint64) string {
	return path.Join(rootPath, version, pgmapKey, delta, fmtID(deltaVersion))
}

// makeDeltaScanRange returns the key range covering deltas with version in
// (sinceVersion, maxVersion].
func makeDeltaScanRange(rootPath string, sinceVersion uint64) (string, string) {
	return makeDeltaKey(rootPath, sinceVersion+1), path.Join(rootPath, version, pgmapKey, delta+"0")
}

// fmtID pads the id so lexicographic key order matches numeric version order.
func fmtID(id uint64) string {
	return fmt.Sprintf("%020d", id)
}
