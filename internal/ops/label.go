package ops

import (
	"context"

	"github.com/aldorifkifirmansyah/LetVision/internal/errors"
	"github.com/aldorifkifirmansyah/LetVision/internal/history"
)

// LabelInput contains parameters for the Label operation.
type LabelInput struct {
	ID    string
	Label string // blank resets to "No Label"
}

// LabelOutput contains the result of the Label operation.
type LabelOutput struct {
	ID      string `json:"id"`
	Label   string `json:"label"`
	Updated bool   `json:"updated"`
}

// Label renames a record. An unknown id is reported as not updated, not as an error.
func Label(ctx context.Context, store *history.Store, input LabelInput) (*LabelOutput, error) {
	id, ok := ValidateID(input.ID)
	if !ok {
		return nil, errors.NewInvalidRequest("id is required")
	}

	r, err := store.UpdateLabel(ctx, id, input.Label)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return &LabelOutput{ID: id}, nil
	}
	return &LabelOutput{ID: id, Label: r.Label, Updated: true}, nil
}
