package recordsync

import "maisync/internal/records"

// DecideSyncKind compares the stored snapshot against freshly fetched player
// data. An unchanged play count is always a no-op, otherwise a missing, zero
// or decreased play count means the store was never (validly) synced.
func DecideSyncKind(prev *records.PlayerSnapshot, current records.PlayerSnapshot) records.SyncKind {
	if prev == nil {
		return records.SYNC_KIND_FULL
	}
	if current.TotalPlayCount == prev.TotalPlayCount {
		return records.SYNC_KIND_NOOP
	}
	if prev.TotalPlayCount == 0 || current.TotalPlayCount < prev.TotalPlayCount {
		return records.SYNC_KIND_FULL
	}
	return records.SYNC_KIND_INCREMENTAL
}
