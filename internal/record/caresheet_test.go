package record

import (
	"strings"
	"testing"
	"time"
)

func TestCareSheet_Growth(t *testing.T) {
	now := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	harvest := now.AddDate(0, 0, 10)
	ecMin, ecMax := 1.2, 1.8
	r := &Record{
		ID: "g", Kind: KindGrowth, Label: "Bed 1", DetectedAt: now.AddDate(0, 0, -20),
		Growth: &GrowthInfo{
			StageName:       "Vegetatif",
			HarvestEstimate: "±30 hari",
			HarvestDate:     &harvest,
			Nutrients: []Nutrient{
				{Name: "Nitrogen", Description: "Leaf growth", ECMin: &ecMin, ECMax: &ecMax, Notes: "weekly"},
				{Name: "Kalium"},
			},
		},
	}

	md := CareSheet(r, now)
	for _, want := range []string{
		"# Vegetatif",
		"**Label:** Bed 1",
		"## Harvest",
		"±30 hari",
		"About 10 days remaining.",
		"## Nutrient recommendations",
		"1. **Nitrogen**: Leaf growth (EC 1.2-1.8) _weekly_",
		"2. **Kalium**",
	} {
		if !strings.Contains(md, want) {
			t.Errorf("CareSheet() missing %q in:\n%s", want, md)
		}
	}
}

func TestCareSheet_Disease(t *testing.T) {
	r := &Record{
		ID: "d", Kind: KindDisease, Label: LabelDefault, IsPinned: true,
		DetectedAt: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		Disease: &DiseaseInfo{
			DiseaseName: "Bercak daun",
			Description: "Fungal leaf spot.",
			Treatments:  []string{"Remove infected leaves", "Reduce humidity"},
		},
	}

	md := CareSheet(r, time.Now())
	for _, want := range []string{"# Bercak daun", "- **Pinned**", "## Description", "Fungal leaf spot.", "## Treatment", "1. Remove infected leaves", "2. Reduce humidity"} {
		if !strings.Contains(md, want) {
			t.Errorf("CareSheet() missing %q in:\n%s", want, md)
		}
	}
	if strings.Contains(md, "## Harvest") {
		t.Error("disease care sheet should not include harvest section")
	}
}

func TestCareSheet_EmptyTitle(t *testing.T) {
	r := &Record{ID: "x", Kind: KindGrowth, Label: LabelDefault, Growth: &GrowthInfo{}}
	if md := CareSheet(r, time.Now()); !strings.HasPrefix(md, "# Unknown growth") {
		t.Errorf("CareSheet() = %q", md)
	}
}
