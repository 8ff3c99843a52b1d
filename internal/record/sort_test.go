package record

import (
	"testing"
	"time"
)

func ids(records []Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func equalIDs(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestSort(t *testing.T) {
	t0 := time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC)
	at := func(h int) time.Time { return t0.Add(time.Duration(h) * time.Hour) }
	ptr := func(tm time.Time) *time.Time { return &tm }

	tests := []struct {
		name    string
		records []Record
		want    []string
	}{
		{
			name: "unpinned by detectedAt desc",
			records: []Record{
				{ID: "a", DetectedAt: at(0)},
				{ID: "b", DetectedAt: at(2)},
				{ID: "c", DetectedAt: at(1)},
			},
			want: []string{"b", "c", "a"},
		},
		{
			name: "pinned before unpinned",
			records: []Record{
				{ID: "new", DetectedAt: at(10)},
				{ID: "old-pinned", DetectedAt: at(0), IsPinned: true, PinnedAt: ptr(at(1))},
			},
			want: []string{"old-pinned", "new"},
		},
		{
			name: "pinned by pinnedAt desc",
			records: []Record{
				{ID: "p1", DetectedAt: at(5), IsPinned: true, PinnedAt: ptr(at(6))},
				{ID: "p2", DetectedAt: at(1), IsPinned: true, PinnedAt: ptr(at(8))},
			},
			want: []string{"p2", "p1"},
		},
		{
			name: "pinned without pinnedAt falls back to detectedAt",
			records: []Record{
				{ID: "legacy", DetectedAt: at(1), IsPinned: true},
				{ID: "recent", DetectedAt: at(3), IsPinned: true, PinnedAt: ptr(at(4))},
			},
			want: []string{"recent", "legacy"},
		},
		{
			name: "equal timestamps keep input order",
			records: []Record{
				{ID: "x", DetectedAt: at(1)},
				{ID: "y", DetectedAt: at(1)},
				{ID: "z", DetectedAt: at(1)},
			},
			want: []string{"x", "y", "z"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			Sort(tt.records)
			if got := ids(tt.records); !equalIDs(got, tt.want) {
				t.Errorf("Sort() = %v, want %v", got, tt.want)
			}
		})
	}
}
