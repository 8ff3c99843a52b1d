package ops

import (
	"context"

	"github.com/aldorifkifirmansyah/LetVision/internal/errors"
	"github.com/aldorifkifirmansyah/LetVision/internal/history"
)

// DeleteInput contains parameters for the Delete operation.
type DeleteInput struct {
	ID string
}

// DeleteOutput contains the result of the Delete operation.
type DeleteOutput struct {
	Deleted bool   `json:"deleted"`
	ID      string `json:"id"`
}

// Delete removes one record. Deleting an unknown id succeeds with Deleted=false.
func Delete(ctx context.Context, store *history.Store, input DeleteInput) (*DeleteOutput, error) {
	id, ok := ValidateID(input.ID)
	if !ok {
		return nil, errors.NewInvalidRequest("id is required")
	}

	deleted, err := store.Delete(ctx, id)
	if err != nil {
		return nil, err
	}
	return &DeleteOutput{Deleted: deleted, ID: id}, nil
}
