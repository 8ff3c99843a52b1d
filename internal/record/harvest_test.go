package record

import (
	"testing"
	"time"
)

func TestParseEstimateDays(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"±30 hari", 30, true},
		{"± 45 hari", 45, true},
		{"21", 21, true},
		{"10-14 hari", 10, true},
		{"siap panen", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseEstimateDays(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("ParseEstimateDays(%q) = %d, %v; want %d, %v", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestHarvestDate(t *testing.T) {
	detected := time.Date(2025, 1, 20, 9, 30, 0, 0, time.UTC)
	got := HarvestDate(detected, 30)
	want := time.Date(2025, 2, 19, 9, 30, 0, 0, time.UTC)
	if !got.Equal(want) {
		t.Errorf("HarvestDate() = %v, want %v", got, want)
	}
}

func TestDaysRemaining(t *testing.T) {
	now := time.Date(2025, 2, 1, 12, 0, 0, 0, time.UTC)
	future := now.Add(36 * time.Hour)
	past := now.Add(-72 * time.Hour)

	tests := []struct {
		name   string
		g      *GrowthInfo
		want   int
		wantOK bool
	}{
		{"nil payload", nil, 0, false},
		{"rounds up partial days", &GrowthInfo{HarvestDate: &future}, 2, true},
		{"past harvest clamps to zero", &GrowthInfo{HarvestDate: &past}, 0, true},
		{"estimate fallback", &GrowthInfo{HarvestEstimate: "±25 hari"}, 25, true},
		{"nothing usable", &GrowthInfo{HarvestEstimate: "unknown"}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := DaysRemaining(tt.g, now)
			if got != tt.want || ok != tt.wantOK {
				t.Errorf("DaysRemaining() = %d, %v; want %d, %v", got, ok, tt.want, tt.wantOK)
			}
		})
	}
}
