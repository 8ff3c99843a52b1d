package record

import (
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestMarshalJSON_FlatShape(t *testing.T) {
	detected := time.Date(2025, 4, 2, 7, 0, 0, 0, time.UTC)
	r := Record{
		ID:         "01J0000000000000000000GRW",
		ImageURI:   "file:///photos/1.jpg",
		DetectedAt: detected,
		Kind:       KindGrowth,
		Label:      "Bed 3",
		Growth: &GrowthInfo{
			StageID:         2,
			StageName:       "Vegetatif",
			HarvestEstimate: "±30 hari",
			Nutrients:       []Nutrient{{Name: "Nitrogen", Description: "Leaf growth"}},
		},
	}

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}

	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	for _, key := range []string{"id", "imageUri", "detectedAt", "kind", "label", "isPinned", "stageId", "stageName", "harvestEstimateText", "nutrientRecommendations"} {
		if _, ok := m[key]; !ok {
			t.Errorf("encoded record missing key %q: %s", key, data)
		}
	}
	if _, ok := m["diseaseName"]; ok {
		t.Errorf("growth record should not carry disease fields: %s", data)
	}
	if m["isPinned"] != false {
		t.Errorf("isPinned = %v, want false", m["isPinned"])
	}
	if _, ok := m["pinnedAt"]; ok {
		t.Errorf("unpinned record should omit pinnedAt: %s", data)
	}
}

func TestUnmarshalJSON_LegacyDefaults(t *testing.T) {
	blob := `{"id":"a","imageUri":"x.jpg","detectedAt":"2025-01-01T00:00:00.000Z","kind":"disease","diseaseId":3,"diseaseName":"Bercak daun","description":"d","treatmentSteps":["Buang daun"]}`

	var r Record
	if err := json.Unmarshal([]byte(blob), &r); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if r.Label != LabelDefault {
		t.Errorf("Label = %q, want %q", r.Label, LabelDefault)
	}
	if r.IsPinned {
		t.Error("IsPinned = true, want false for missing field")
	}
	if r.Disease == nil || r.Disease.DiseaseName != "Bercak daun" {
		t.Fatalf("Disease payload = %+v", r.Disease)
	}
	if r.Growth != nil {
		t.Error("Growth payload should be nil for disease record")
	}
	if err := r.Validate(); err != nil {
		t.Errorf("Validate() error = %v", err)
	}
}

func TestUnmarshalJSON_BlankLabel(t *testing.T) {
	blob := `{"id":"a","detectedAt":"2025-01-01T00:00:00Z","kind":"growth","label":"   ","stageName":"Semai"}`

	var r Record
	if err := json.Unmarshal([]byte(blob), &r); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if r.Label != LabelDefault {
		t.Errorf("Label = %q, want %q", r.Label, LabelDefault)
	}
}

func TestUnmarshalJSON_InferKind(t *testing.T) {
	tests := []struct {
		name string
		blob string
		want Kind
	}{
		{"growth fields", `{"id":"a","detectedAt":"2025-01-01T00:00:00Z","stageName":"Semai"}`, KindGrowth},
		{"disease fields", `{"id":"a","detectedAt":"2025-01-01T00:00:00Z","diseaseName":"Busuk"}`, KindDisease},
		{"no payload", `{"id":"a","detectedAt":"2025-01-01T00:00:00Z"}`, KindGrowth},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Record
			if err := json.Unmarshal([]byte(tt.blob), &r); err != nil {
				t.Fatalf("Unmarshal() error = %v", err)
			}
			if r.Kind != tt.want {
				t.Errorf("Kind = %q, want %q", r.Kind, tt.want)
			}
			if err := r.Validate(); err != nil {
				t.Errorf("Validate() error = %v", err)
			}
		})
	}
}

func TestUnmarshalJSON_Errors(t *testing.T) {
	tests := []struct {
		name string
		blob string
	}{
		{"unknown kind", `{"id":"a","detectedAt":"2025-01-01T00:00:00Z","kind":"pest"}`},
		{"missing id", `{"detectedAt":"2025-01-01T00:00:00Z","kind":"growth"}`},
		{"missing detectedAt", `{"id":"a","kind":"growth"}`},
		{"bad timestamp", `{"id":"a","detectedAt":"yesterday","kind":"growth"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var r Record
			if err := json.Unmarshal([]byte(tt.blob), &r); err == nil {
				t.Errorf("Unmarshal(%s) expected error", tt.blob)
			}
		})
	}
}

func TestDecodeList_SkipsInvalid(t *testing.T) {
	blob := `[
		{"id":"good1","detectedAt":"2025-01-01T00:00:00Z","kind":"growth","stageName":"Semai"},
		{"id":"bad","detectedAt":"2025-01-01T00:00:00Z","kind":"weed"},
		42,
		{"id":"good2","detectedAt":"2025-01-02T00:00:00Z","kind":"disease","diseaseName":"Busuk"}
	]`

	records, opaque, skipped, err := DecodeList([]byte(blob))
	if err != nil {
		t.Fatalf("DecodeList() error = %v", err)
	}
	if got := ids(records); !equalIDs(got, []string{"good1", "good2"}) {
		t.Errorf("records = %v, want [good1 good2]", got)
	}
	if len(skipped) != 2 {
		t.Errorf("skipped = %d, want 2", len(skipped))
	}
	if len(opaque) != 2 || string(opaque[1]) != "42" {
		t.Errorf("opaque = %q, want the two undecodable entries", opaque)
	}
}

func TestEncodeList_KeepsOpaqueEntries(t *testing.T) {
	blob := `[{"id":"legacy","kind":"disease","diseaseName":"Busuk"},{"id":"ok","detectedAt":"2025-01-01T00:00:00Z","kind":"growth","stageName":"Semai"}]`

	records, opaque, _, err := DecodeList([]byte(blob))
	if err != nil {
		t.Fatalf("DecodeList() error = %v", err)
	}
	records[0].Label = "renamed"

	data, err := EncodeList(records, opaque...)
	if err != nil {
		t.Fatalf("EncodeList() error = %v", err)
	}
	var out []map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Unmarshal: %v", err)
	}
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2: %s", len(out), data)
	}
	if out[0]["label"] != "renamed" {
		t.Errorf("out[0] = %v, want relabelled record", out[0])
	}
	if !strings.Contains(string(data), `{"id":"legacy","kind":"disease","diseaseName":"Busuk"}`) {
		t.Errorf("legacy entry not written back verbatim: %s", data)
	}
}

func TestMarshalJSON_EmptyListsNotNull(t *testing.T) {
	at := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, r := range []Record{
		{ID: "g", DetectedAt: at, Kind: KindGrowth, Label: LabelDefault, Growth: &GrowthInfo{StageName: "Semai"}},
		{ID: "d", DetectedAt: at, Kind: KindDisease, Label: LabelDefault, Disease: &DiseaseInfo{DiseaseName: "Busuk"}},
	} {
		data, err := json.Marshal(r)
		if err != nil {
			t.Fatalf("Marshal(%s): %v", r.ID, err)
		}
		if strings.Contains(string(data), "null") {
			t.Errorf("Marshal(%s) = %s, want no null lists", r.ID, data)
		}
	}
}

func TestDecodeList_NotArray(t *testing.T) {
	if _, _, _, err := DecodeList([]byte(`{"id":"a"}`)); err == nil {
		t.Fatal("DecodeList() expected error for non-array blob")
	}
}

func TestEncodeList_RoundTrip(t *testing.T) {
	pinned := time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	ec := 1.2
	in := []Record{
		{
			ID: "d", DetectedAt: pinned.Add(-time.Hour), Kind: KindDisease, Label: "Row 2",
			IsPinned: true, PinnedAt: &pinned,
			Disease: &DiseaseInfo{DiseaseID: 1, DiseaseName: "Busuk", Treatments: []string{"a", "b"}},
		},
		{
			ID: "g", DetectedAt: pinned, Kind: KindGrowth, Label: LabelDefault,
			Growth: &GrowthInfo{StageName: "Panen", Nutrients: []Nutrient{{Name: "K", ECMin: &ec}}},
		},
	}

	data, err := EncodeList(in)
	if err != nil {
		t.Fatalf("EncodeList() error = %v", err)
	}
	out, _, skipped, err := DecodeList(data)
	if err != nil || len(skipped) != 0 {
		t.Fatalf("DecodeList() err = %v, skipped = %v", err, skipped)
	}
	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if !out[0].IsPinned || out[0].PinnedAt == nil || !out[0].PinnedAt.Equal(pinned) {
		t.Errorf("pin state lost: %+v", out[0])
	}
	if out[1].Growth.Nutrients[0].ECMin == nil || *out[1].Growth.Nutrients[0].ECMin != 1.2 {
		t.Errorf("nutrient EC lost: %+v", out[1].Growth.Nutrients[0])
	}
}

func TestEncodeList_Nil(t *testing.T) {
	data, err := EncodeList(nil)
	if err != nil {
		t.Fatalf("EncodeList() error = %v", err)
	}
	if strings.TrimSpace(string(data)) != "[]" {
		t.Errorf("EncodeList(nil) = %s, want []", data)
	}
}

func TestClone_Independent(t *testing.T) {
	r := Record{ID: "a", Kind: KindDisease, Disease: &DiseaseInfo{Treatments: []string{"x"}}}
	c := r.Clone()
	c.Disease.Treatments[0] = "y"
	c.Disease.DiseaseName = "changed"
	if r.Disease.Treatments[0] != "x" || r.Disease.DiseaseName != "" {
		t.Error("Clone() shares payload with original")
	}
}
