package record

import "time"

// Summary represents a record's metadata without its recommendation payload.
// Used for browse operations (list) to reduce data transfer.
type Summary struct {
	ID         string     `json:"id"`
	Kind       Kind       `json:"kind"`
	Label      string     `json:"label"`
	Title      string     `json:"title"`
	ImageURI   string     `json:"image_uri"`
	DetectedAt time.Time  `json:"detected_at"`
	IsPinned   bool       `json:"is_pinned"`
	PinnedAt   *time.Time `json:"pinned_at,omitempty"`
}

// ToSummary converts a Record to a Summary by stripping the variant payload.
func (r *Record) ToSummary() Summary {
	return Summary{
		ID:         r.ID,
		Kind:       r.Kind,
		Label:      r.Label,
		Title:      r.Title(),
		ImageURI:   r.ImageURI,
		DetectedAt: r.DetectedAt,
		IsPinned:   r.IsPinned,
		PinnedAt:   r.PinnedAt,
	}
}
