package record

import (
	"fmt"
	"time"
)

// Kind discriminates the two detection variants.
type Kind string

const (
	KindGrowth  Kind = "growth"
	KindDisease Kind = "disease"
)

// LabelDefault is the label assigned when none (or a blank one) is given.
const LabelDefault = "No Label"

// ParseKind validates a kind string. Matching is exact.
func ParseKind(s string) (Kind, error) {
	switch Kind(s) {
	case KindGrowth, KindDisease:
		return Kind(s), nil
	default:
		return "", fmt.Errorf("unknown kind %q (want %q or %q)", s, KindGrowth, KindDisease)
	}
}

// Record is one persisted detection result.
// Exactly one of Growth or Disease is non-nil, matching Kind.
type Record struct {
	// ID is a ULID generated at creation and never reused
	ID string

	// ImageURI references the locally cached photo; the record does not own the bytes
	ImageURI string

	// DetectedAt is set at creation and never mutated
	DetectedAt time.Time

	// Kind is fixed at creation
	Kind Kind

	// Label is user-editable and never empty
	Label string

	IsPinned bool

	// PinnedAt is set when pinned and cleared when unpinned
	PinnedAt *time.Time

	Growth  *GrowthInfo
	Disease *DiseaseInfo
}

// GrowthInfo is the growth-stage payload, supplied once by the reference service.
type GrowthInfo struct {
	StageID          int        `json:"stageId"`
	StageName        string     `json:"stageName"`
	HarvestEstimate  string     `json:"harvestEstimateText"`
	HarvestDate      *time.Time `json:"harvestDate,omitempty"`
	DaysUntilHarvest int        `json:"daysUntilHarvest"`
	Nutrients        []Nutrient `json:"nutrientRecommendations"`
}

// Nutrient is one nutrient recommendation for a growth stage.
type Nutrient struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	ECMin       *float64 `json:"ecMin,omitempty"`
	ECMax       *float64 `json:"ecMax,omitempty"`
	PHMin       *float64 `json:"phMin,omitempty"`
	PHMax       *float64 `json:"phMax,omitempty"`
	Notes       string   `json:"notes,omitempty"`
}

// DiseaseInfo is the disease payload, supplied once by the reference service.
type DiseaseInfo struct {
	DiseaseID   int      `json:"diseaseId"`
	DiseaseName string   `json:"diseaseName"`
	Description string   `json:"description"`
	Treatments  []string `json:"treatmentSteps"`
}

// Title returns the display name of the detection: stage name or disease name.
func (r *Record) Title() string {
	switch r.Kind {
	case KindGrowth:
		if r.Growth != nil {
			return r.Growth.StageName
		}
	case KindDisease:
		if r.Disease != nil {
			return r.Disease.DiseaseName
		}
	}
	return ""
}

// Validate checks the variant invariant: Kind is known and exactly the matching payload is set.
func (r *Record) Validate() error {
	switch r.Kind {
	case KindGrowth:
		if r.Growth == nil {
			return fmt.Errorf("growth record %s has no growth payload", r.ID)
		}
		if r.Disease != nil {
			return fmt.Errorf("growth record %s carries a disease payload", r.ID)
		}
	case KindDisease:
		if r.Disease == nil {
			return fmt.Errorf("disease record %s has no disease payload", r.ID)
		}
		if r.Growth != nil {
			return fmt.Errorf("disease record %s carries a growth payload", r.ID)
		}
	default:
		return fmt.Errorf("record %s has unknown kind %q", r.ID, r.Kind)
	}
	return nil
}

// Clone returns a deep copy so callers cannot mutate stored state.
func (r *Record) Clone() Record {
	c := *r
	if r.PinnedAt != nil {
		t := *r.PinnedAt
		c.PinnedAt = &t
	}
	if r.Growth != nil {
		g := *r.Growth
		if r.Growth.HarvestDate != nil {
			hd := *r.Growth.HarvestDate
			g.HarvestDate = &hd
		}
		g.Nutrients = append([]Nutrient(nil), r.Growth.Nutrients...)
		c.Growth = &g
	}
	if r.Disease != nil {
		d := *r.Disease
		d.Treatments = append([]string(nil), r.Disease.Treatments...)
		c.Disease = &d
	}
	return c
}
