package record

import "sort"

// Less reports whether a sorts before b in canonical history order:
// pinned before unpinned; pinned by PinnedAt descending, falling back to
// DetectedAt descending when either PinnedAt is absent; unpinned by
// DetectedAt descending.
func Less(a, b *Record) bool {
	if a.IsPinned != b.IsPinned {
		return a.IsPinned
	}
	if a.IsPinned && a.PinnedAt != nil && b.PinnedAt != nil && !a.PinnedAt.Equal(*b.PinnedAt) {
		return a.PinnedAt.After(*b.PinnedAt)
	}
	return a.DetectedAt.After(b.DetectedAt)
}

// Sort orders records canonically in place. Ties keep their input order.
func Sort(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return Less(&records[i], &records[j])
	})
}
