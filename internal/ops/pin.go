package ops

import (
	"context"
	"time"

	"github.com/aldorifkifirmansyah/LetVision/internal/errors"
	"github.com/aldorifkifirmansyah/LetVision/internal/history"
)

// PinInput contains parameters for the Pin operation.
type PinInput struct {
	ID string
}

// PinOutput contains the result of the Pin operation.
type PinOutput struct {
	ID       string     `json:"id"`
	Found    bool       `json:"found"`
	IsPinned bool       `json:"is_pinned"`
	PinnedAt *time.Time `json:"pinned_at,omitempty"`
}

// Pin toggles the pin state of a record and reports the new state.
func Pin(ctx context.Context, store *history.Store, input PinInput) (*PinOutput, error) {
	id, ok := ValidateID(input.ID)
	if !ok {
		return nil, errors.NewInvalidRequest("id is required")
	}

	r, err := store.TogglePin(ctx, id)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return &PinOutput{ID: id}, nil
	}
	return &PinOutput{ID: id, Found: true, IsPinned: r.IsPinned, PinnedAt: r.PinnedAt}, nil
}
