package ops

import (
	"context"
	stderrors "errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aldorifkifirmansyah/LetVision/internal/errors"
	"github.com/aldorifkifirmansyah/LetVision/internal/record"
	"github.com/aldorifkifirmansyah/LetVision/pkg/clients/classifier"
	"github.com/aldorifkifirmansyah/LetVision/pkg/clients/reference"
)

func newReference() *fakeReference {
	n := reference.Nutrient{StageID: 2, ECMin: floatPtr(1.2), ECMax: floatPtr(1.8), Notes: stringPtr("weekly")}
	n.Info.Name = "Nitrogen"
	n.Info.Description = "Leaf growth"
	return &fakeReference{
		stages:     map[int]reference.GrowthStage{2: {ID: 2, Name: "Vegetatif", HarvestEstimate: "±30 hari"}},
		nutrients:  map[int][]reference.Nutrient{2: {n}},
		diseases:   map[int]reference.Disease{3: {ID: 3, Name: "Busuk lunak", Description: "Bacterial rot"}},
		treatments: map[int][]string{3: {"Remove infected plants", "Improve drainage"}},
	}
}

func TestDetect_Growth(t *testing.T) {
	store, _ := newTestStore(t)
	cls := &fakeClassifier{predictions: []classifier.Prediction{
		{ID: 0, ClassID: 1, ClassName: "vegetative", Confidence: 0.91},
		{ID: 1, ClassID: 0, ClassName: "seedling", Confidence: 0.40},
	}}

	out, err := Detect(context.Background(), store, Detector{Classifier: cls, Reference: newReference()}, DetectInput{
		Kind:     "growth",
		Image:    strings.NewReader("jpeg-bytes"),
		ImageURI: "file:///cache/a.jpg",
		Label:    "  Bed 4 ",
	})
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}

	if cls.task != classifier.TaskGrowth || cls.body != "jpeg-bytes" {
		t.Errorf("classifier called with task=%q body=%q", cls.task, cls.body)
	}
	if !out.Enriched {
		t.Error("Enriched = false, want true")
	}
	if out.ClassName != "vegetative" || out.Confidence != 0.91 {
		t.Errorf("top prediction = %q/%v", out.ClassName, out.Confidence)
	}

	r := out.Record
	if r.Kind != record.KindGrowth || r.Label != "Bed 4" || r.ImageURI != "file:///cache/a.jpg" {
		t.Errorf("record = %+v", r)
	}
	g := r.Growth
	if g.StageID != 2 || g.StageName != "Vegetatif" {
		t.Errorf("stage = %d/%q, want 2/Vegetatif (class_id+1)", g.StageID, g.StageName)
	}
	if g.DaysUntilHarvest != 30 || g.HarvestDate == nil || !g.HarvestDate.Equal(t0.AddDate(0, 0, 30)) {
		t.Errorf("harvest = %d days, date %v", g.DaysUntilHarvest, g.HarvestDate)
	}
	if len(g.Nutrients) != 1 || g.Nutrients[0].Name != "Nitrogen" || g.Nutrients[0].Notes != "weekly" {
		t.Errorf("nutrients = %+v", g.Nutrients)
	}

	// Persisted
	stored, err := store.Get(context.Background(), r.ID)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if stored.Growth.StageName != "Vegetatif" {
		t.Errorf("stored stage = %q", stored.Growth.StageName)
	}
}

func TestDetect_Disease(t *testing.T) {
	store, _ := newTestStore(t)
	cls := &fakeClassifier{predictions: []classifier.Prediction{{ClassID: 2, ClassName: "soft_rot", Confidence: 0.8}}}

	out, err := Detect(context.Background(), store, Detector{Classifier: cls, Reference: newReference()}, DetectInput{
		Kind:  "disease",
		Image: strings.NewReader("x"),
	})
	if err != nil {
		t.Fatalf("Detect() error = %v", err)
	}
	if cls.task != classifier.TaskDisease {
		t.Errorf("task = %q, want disease", cls.task)
	}
	d := out.Record.Disease
	if d.DiseaseID != 3 || d.DiseaseName != "Busuk lunak" || len(d.Treatments) != 2 {
		t.Errorf("disease = %+v", d)
	}
	if out.Record.Label != record.LabelDefault {
		t.Errorf("Label = %q, want default", out.Record.Label)
	}
}

func TestDetect_ReferenceFailureFallsBack(t *testing.T) {
	tests := []struct {
		name string
		ref  reference.Client
	}{
		{"lookup error", &fakeReference{err: stderrors.New("connection refused")}},
		{"not configured", reference.NewClient(reference.Config{}, nil)},
		{"nil client", nil},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			store, _ := newTestStore(t)
			cls := &fakeClassifier{predictions: []classifier.Prediction{{ClassID: 0, ClassName: "seedling", Confidence: 0.7}}}

			out, err := Detect(context.Background(), store, Detector{Classifier: cls, Reference: tc.ref}, DetectInput{
				Kind:  "growth",
				Image: strings.NewReader("x"),
			})
			if err != nil {
				t.Fatalf("Detect() error = %v", err)
			}
			if out.Enriched {
				t.Error("Enriched = true, want false")
			}
			g := out.Record.Growth
			if g.StageName != "seedling" || g.StageID != 1 {
				t.Errorf("fallback stage = %d/%q, want 1/seedling", g.StageID, g.StageName)
			}
			if g.Nutrients == nil || len(g.Nutrients) != 0 {
				t.Errorf("Nutrients = %v, want empty", g.Nutrients)
			}
		})
	}
}

func TestDetect_NoPredictions(t *testing.T) {
	store, _ := newTestStore(t)
	cls := &fakeClassifier{predictions: []classifier.Prediction{}}

	_, err := Detect(context.Background(), store, Detector{Classifier: cls}, DetectInput{Kind: "growth", Image: strings.NewReader("x")})
	if !errors.Is(err, errors.ErrDetectionFailed) {
		t.Fatalf("Detect() error = %v, want DETECTION_FAILED", err)
	}
	if n := len(store.List(context.Background())); n != 0 {
		t.Errorf("history has %d records, want 0", n)
	}
}

func TestDetect_ClassifierError(t *testing.T) {
	store, _ := newTestStore(t)
	cls := &fakeClassifier{err: stderrors.New("classifier api error: code=500")}

	_, err := Detect(context.Background(), store, Detector{Classifier: cls}, DetectInput{Kind: "disease", Image: strings.NewReader("x")})
	if !errors.Is(err, errors.ErrUpstream) {
		t.Fatalf("Detect() error = %v, want UPSTREAM", err)
	}
}

func TestDetect_InvalidInput(t *testing.T) {
	store, _ := newTestStore(t)
	cls := &fakeClassifier{}

	if _, err := Detect(context.Background(), store, Detector{Classifier: cls}, DetectInput{Kind: "leaf", Image: strings.NewReader("x")}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("unknown kind: error = %v, want INVALID_REQUEST", err)
	}
	if _, err := Detect(context.Background(), store, Detector{Classifier: cls}, DetectInput{Kind: "growth"}); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("missing image: error = %v, want INVALID_REQUEST", err)
	}
}

func TestDetectFile(t *testing.T) {
	store, _ := newTestStore(t)
	cls := &fakeClassifier{predictions: []classifier.Prediction{{ClassID: 0, ClassName: "seedling", Confidence: 0.6}}}
	path := filepath.Join(t.TempDir(), "leaf.jpg")
	if err := os.WriteFile(path, []byte("jpeg"), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	out, err := DetectFile(context.Background(), store, Detector{Classifier: cls}, DetectFileInput{Kind: "growth", Path: path})
	if err != nil {
		t.Fatalf("DetectFile() error = %v", err)
	}
	if cls.body != "jpeg" {
		t.Errorf("classifier body = %q", cls.body)
	}
	if !strings.HasPrefix(out.Record.ImageURI, "file://") || !strings.HasSuffix(out.Record.ImageURI, "/leaf.jpg") {
		t.Errorf("ImageURI = %q", out.Record.ImageURI)
	}

	_, err = DetectFile(context.Background(), store, Detector{Classifier: cls}, DetectFileInput{Kind: "growth", Path: path + ".missing"})
	if !errors.Is(err, errors.ErrFileNotFound) {
		t.Errorf("missing file: error = %v, want FILE_NOT_FOUND", err)
	}
}
