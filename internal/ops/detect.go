package ops

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/aldorifkifirmansyah/LetVision/internal/errors"
	"github.com/aldorifkifirmansyah/LetVision/internal/history"
	"github.com/aldorifkifirmansyah/LetVision/internal/record"
	"github.com/aldorifkifirmansyah/LetVision/pkg/clients/classifier"
	"github.com/aldorifkifirmansyah/LetVision/pkg/clients/reference"
)

// Detector bundles the external services a detection talks to.
type Detector struct {
	Classifier classifier.Client
	Reference  reference.Client
	Logger     *zap.Logger
}

// DetectInput contains parameters for the Detect operation.
type DetectInput struct {
	Kind     string    // required: "growth" or "disease"
	Image    io.Reader // required
	Filename string    // sent to the classifier; default: upload.jpg
	ImageURI string    // stored on the record as the photo reference
	Label    string    // optional, default: "No Label"
}

// DetectOutput contains the result of the Detect operation.
type DetectOutput struct {
	Record     record.Record `json:"record"`
	ClassName  string        `json:"class_name"`
	Confidence float64       `json:"confidence"`

	// Enriched is false when reference data was unavailable and the record
	// carries only the classifier's class name.
	Enriched bool `json:"enriched"`
}

// Detect classifies an image, enriches the top prediction with reference data
// and stores the result in the history.
func Detect(ctx context.Context, store *history.Store, d Detector, input DetectInput) (*DetectOutput, error) {
	kind, err := record.ParseKind(input.Kind)
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}
	if input.Image == nil {
		return nil, errors.NewInvalidRequest("image is required")
	}
	if d.Classifier == nil {
		return nil, errors.NewInternal(stderrors.New("classifier client is not configured"))
	}
	logger := d.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	task := classifier.TaskGrowth
	if kind == record.KindDisease {
		task = classifier.TaskDisease
	}
	predictions, err := d.Classifier.Detect(ctx, task, input.Filename, input.Image)
	if err != nil {
		if ctx.Err() != nil {
			return nil, errors.NewCancelled(ctx.Err())
		}
		logger.Warn("classifier request failed", zap.String("kind", string(kind)), zap.Error(err))
		return nil, errors.NewUpstream("classifier", err)
	}
	if len(predictions) == 0 {
		return nil, errors.NewDetectionFailed(string(kind))
	}

	top := predictions[0]
	refID := top.ClassID + 1
	draft := history.Draft{ImageURI: input.ImageURI, Kind: kind, Label: input.Label}

	var enriched bool
	switch kind {
	case record.KindGrowth:
		draft.Growth, enriched = growthInfo(ctx, d.Reference, refID, top.ClassName, logger)
	case record.KindDisease:
		draft.Disease, enriched = diseaseInfo(ctx, d.Reference, refID, top.ClassName, logger)
	}

	rec, err := store.Create(ctx, draft)
	if err != nil {
		return nil, err
	}

	logger.Info("detection stored",
		zap.String("id", rec.ID),
		zap.String("kind", string(kind)),
		zap.String("class_name", top.ClassName),
		zap.Float64("confidence", top.Confidence),
		zap.Bool("enriched", enriched),
	)

	return &DetectOutput{
		Record:     *rec,
		ClassName:  top.ClassName,
		Confidence: top.Confidence,
		Enriched:   enriched,
	}, nil
}

// DetectFileInput contains parameters for the DetectFile operation.
type DetectFileInput struct {
	Kind  string
	Path  string // local image file
	Label string
}

// DetectFile runs Detect on a local image file. The record references the
// file by its absolute file:// URI.
func DetectFile(ctx context.Context, store *history.Store, d Detector, input DetectFileInput) (*DetectOutput, error) {
	if input.Path == "" {
		return nil, errors.NewInvalidRequest("image path is required")
	}
	abs, err := filepath.Abs(input.Path)
	if err != nil {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid image path: %v", err))
	}
	f, err := os.Open(abs)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewFileNotFound(input.Path)
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open image: %w", err))
	}
	defer f.Close()

	uri := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return Detect(ctx, store, d, DetectInput{
		Kind:     input.Kind,
		Image:    f,
		Filename: filepath.Base(abs),
		ImageURI: uri.String(),
		Label:    input.Label,
	})
}

// growthInfo looks up the stage and its nutrients. Any lookup failure degrades
// to a payload named after the classifier class.
func growthInfo(ctx context.Context, ref reference.Client, id int, className string, logger *zap.Logger) (*record.GrowthInfo, bool) {
	fallback := &record.GrowthInfo{StageID: id, StageName: className, Nutrients: []record.Nutrient{}}
	if ref == nil {
		return fallback, false
	}

	stage, err := ref.GrowthStage(ctx, id)
	if err != nil {
		logReferenceFailure(logger, "growth stage", id, err)
		return fallback, false
	}
	rows, err := ref.Nutrients(ctx, id)
	if err != nil {
		logReferenceFailure(logger, "nutrients", id, err)
		return fallback, false
	}

	nutrients := make([]record.Nutrient, 0, len(rows))
	for _, n := range rows {
		item := record.Nutrient{
			Name:        n.Info.Name,
			Description: n.Info.Description,
			ECMin:       n.ECMin,
			ECMax:       n.ECMax,
			PHMin:       n.PHMin,
			PHMax:       n.PHMax,
		}
		if n.Notes != nil {
			item.Notes = *n.Notes
		}
		nutrients = append(nutrients, item)
	}

	return &record.GrowthInfo{
		StageID:         id,
		StageName:       stage.Name,
		HarvestEstimate: stage.HarvestEstimate,
		Nutrients:       nutrients,
	}, true
}

// diseaseInfo looks up the disease and its treatment steps. Any lookup failure
// degrades to a payload named after the classifier class.
func diseaseInfo(ctx context.Context, ref reference.Client, id int, className string, logger *zap.Logger) (*record.DiseaseInfo, bool) {
	fallback := &record.DiseaseInfo{DiseaseID: id, DiseaseName: className, Treatments: []string{}}
	if ref == nil {
		return fallback, false
	}

	disease, err := ref.Disease(ctx, id)
	if err != nil {
		logReferenceFailure(logger, "disease", id, err)
		return fallback, false
	}
	steps, err := ref.Treatments(ctx, id)
	if err != nil {
		logReferenceFailure(logger, "treatments", id, err)
		return fallback, false
	}

	return &record.DiseaseInfo{
		DiseaseID:   id,
		DiseaseName: disease.Name,
		Description: disease.Description,
		Treatments:  steps,
	}, true
}

func logReferenceFailure(logger *zap.Logger, what string, id int, err error) {
	if stderrors.Is(err, reference.ErrNotConfigured) {
		logger.Debug("reference lookups disabled", zap.String("lookup", what))
		return
	}
	logger.Warn(fmt.Sprintf("%s lookup failed, using classifier label", what),
		zap.Int("reference_id", id),
		zap.Error(err),
	)
}
