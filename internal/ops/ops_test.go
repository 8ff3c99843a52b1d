package ops

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/aldorifkifirmansyah/LetVision/internal/history"
	"github.com/aldorifkifirmansyah/LetVision/internal/kv"
	"github.com/aldorifkifirmansyah/LetVision/internal/record"
	"github.com/aldorifkifirmansyah/LetVision/pkg/clients/classifier"
	"github.com/aldorifkifirmansyah/LetVision/pkg/clients/reference"
)

var t0 = time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC)

type testClock struct{ t time.Time }

func (c *testClock) Now() time.Time          { return c.t }
func (c *testClock) Set(t time.Time)         { c.t = t }
func (c *testClock) Advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestStore(t *testing.T) (*history.Store, *testClock) {
	t.Helper()
	sqlite, err := kv.Open(t.TempDir())
	if err != nil {
		t.Fatalf("kv.Open() error = %v", err)
	}
	t.Cleanup(func() { sqlite.Close() })

	clock := &testClock{t: t0}
	return history.New(sqlite, history.WithClock(clock.Now)), clock
}

func seedGrowth(t *testing.T, s *history.Store, label string) *record.Record {
	t.Helper()
	r, err := s.Create(context.Background(), history.Draft{
		Kind:   record.KindGrowth,
		Label:  label,
		Growth: &record.GrowthInfo{StageID: 2, StageName: "Vegetatif", HarvestEstimate: "±30 hari"},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return r
}

func seedDisease(t *testing.T, s *history.Store, label string) *record.Record {
	t.Helper()
	r, err := s.Create(context.Background(), history.Draft{
		Kind:    record.KindDisease,
		Label:   label,
		Disease: &record.DiseaseInfo{DiseaseID: 1, DiseaseName: "Bercak daun", Treatments: []string{"Buang daun"}},
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	return r
}

// fakeClassifier returns canned predictions and records the task it was asked for.
type fakeClassifier struct {
	predictions []classifier.Prediction
	err         error
	task        classifier.Task
	body        string
}

func (f *fakeClassifier) Detect(_ context.Context, task classifier.Task, _ string, image io.Reader) ([]classifier.Prediction, error) {
	f.task = task
	data, _ := io.ReadAll(image)
	f.body = string(data)
	return f.predictions, f.err
}

// fakeReference serves reference rows from maps; a missing key is ErrNotFound.
type fakeReference struct {
	stages     map[int]reference.GrowthStage
	nutrients  map[int][]reference.Nutrient
	diseases   map[int]reference.Disease
	treatments map[int][]string
	err        error
}

func (f *fakeReference) GrowthStage(_ context.Context, id int) (*reference.GrowthStage, error) {
	if f.err != nil {
		return nil, f.err
	}
	s, ok := f.stages[id]
	if !ok {
		return nil, reference.ErrNotFound
	}
	return &s, nil
}

func (f *fakeReference) Nutrients(_ context.Context, id int) ([]reference.Nutrient, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.nutrients[id], nil
}

func (f *fakeReference) Disease(_ context.Context, id int) (*reference.Disease, error) {
	if f.err != nil {
		return nil, f.err
	}
	d, ok := f.diseases[id]
	if !ok {
		return nil, reference.ErrNotFound
	}
	return &d, nil
}

func (f *fakeReference) Treatments(_ context.Context, id int) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.treatments[id], nil
}

func floatPtr(f float64) *float64 { return &f }
func stringPtr(s string) *string  { return &s }

func TestCleanIDs(t *testing.T) {
	got := cleanIDs([]string{" a ", "", "b", "a", "  "})
	if len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("cleanIDs() = %v, want [a b]", got)
	}
}
