package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// wireRecord is the flat persisted shape: common fields plus the variant
// payload fields at top level, discriminated by "kind".
type wireRecord struct {
	ID         string     `json:"id"`
	ImageURI   string     `json:"imageUri"`
	DetectedAt time.Time  `json:"detectedAt"`
	Kind       Kind       `json:"kind"`
	Label      *string    `json:"label,omitempty"`
	IsPinned   *bool      `json:"isPinned,omitempty"`
	PinnedAt   *time.Time `json:"pinnedAt,omitempty"`
	*GrowthInfo
	*DiseaseInfo
}

// MarshalJSON encodes the record in its flat persisted shape.
// Missing nutrient and treatment lists encode as [] rather than null.
func (r Record) MarshalJSON() ([]byte, error) {
	label := r.Label
	pinned := r.IsPinned
	w := wireRecord{
		ID:         r.ID,
		ImageURI:   r.ImageURI,
		DetectedAt: r.DetectedAt,
		Kind:       r.Kind,
		Label:      &label,
		IsPinned:   &pinned,
		PinnedAt:   r.PinnedAt,
	}
	switch r.Kind {
	case KindGrowth:
		if g := r.Growth; g != nil && g.Nutrients == nil {
			c := *g
			c.Nutrients = []Nutrient{}
			w.GrowthInfo = &c
		} else {
			w.GrowthInfo = g
		}
	case KindDisease:
		if d := r.Disease; d != nil && d.Treatments == nil {
			c := *d
			c.Treatments = []string{}
			w.DiseaseInfo = &c
		} else {
			w.DiseaseInfo = d
		}
	}
	return json.Marshal(w)
}

// UnmarshalJSON decodes the flat shape, filling legacy defaults:
// missing isPinned is false, missing or blank label is LabelDefault,
// and a missing kind is inferred from the payload (growth when ambiguous).
// Unknown kinds are an error.
func (r *Record) UnmarshalJSON(data []byte) error {
	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	if w.ID == "" {
		return errors.New("record has no id")
	}
	if w.DetectedAt.IsZero() {
		return fmt.Errorf("record %s has no detectedAt", w.ID)
	}

	kind := w.Kind
	if kind == "" {
		kind = KindGrowth
		if w.DiseaseInfo != nil && w.GrowthInfo == nil {
			kind = KindDisease
		}
	}

	out := Record{
		ID:         w.ID,
		ImageURI:   w.ImageURI,
		DetectedAt: w.DetectedAt,
		Kind:       kind,
		Label:      LabelDefault,
		PinnedAt:   w.PinnedAt,
	}
	if w.Label != nil {
		out.Label = NormalizeLabel(*w.Label)
	}
	if w.IsPinned != nil {
		out.IsPinned = *w.IsPinned
	}

	switch kind {
	case KindGrowth:
		out.Growth = w.GrowthInfo
		if out.Growth == nil {
			out.Growth = &GrowthInfo{}
		}
	case KindDisease:
		out.Disease = w.DiseaseInfo
		if out.Disease == nil {
			out.Disease = &DiseaseInfo{}
		}
	default:
		return fmt.Errorf("record %s has unknown kind %q", w.ID, kind)
	}

	*r = out
	return nil
}

// DecodeList decodes a persisted history blob. Entries that fail to decode
// are returned verbatim in opaque, with the reason in skipped, so a later
// write can carry them through untouched. A blob that is not a JSON array is
// an error.
func DecodeList(data []byte) (records []Record, opaque []json.RawMessage, skipped []error, err error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, nil, fmt.Errorf("decode history: %w", err)
	}

	records = make([]Record, 0, len(raw))
	for i, msg := range raw {
		var rec Record
		if err := json.Unmarshal(msg, &rec); err != nil {
			skipped = append(skipped, fmt.Errorf("records[%d]: %w", i, err))
			opaque = append(opaque, msg)
			continue
		}
		records = append(records, rec)
	}
	return records, opaque, skipped, nil
}

// EncodeList encodes records as a JSON array, followed by any opaque entries
// exactly as they were read. A nil slice encodes as [].
func EncodeList(records []Record, opaque ...json.RawMessage) ([]byte, error) {
	if len(opaque) == 0 {
		if records == nil {
			records = []Record{}
		}
		return json.Marshal(records)
	}

	out := make([]json.RawMessage, 0, len(records)+len(opaque))
	for i := range records {
		data, err := json.Marshal(records[i])
		if err != nil {
			return nil, err
		}
		out = append(out, data)
	}
	out = append(out, opaque...)
	return json.Marshal(out)
}
