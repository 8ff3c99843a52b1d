package ops

import (
	"context"

	"github.com/aldorifkifirmansyah/LetVision/internal/errors"
	"github.com/aldorifkifirmansyah/LetVision/internal/history"
	"github.com/aldorifkifirmansyah/LetVision/internal/record"
)

// ListInput contains parameters for the List operation.
type ListInput struct {
	Kind   string // optional: "growth" or "disease"
	Limit  int    // default: 20, max: 100
	Offset int    // default: 0
}

// ListOutput contains the result of the List operation.
type ListOutput struct {
	Items      []record.Summary `json:"items"`
	Pagination Pagination       `json:"pagination"`
	Sort       string           `json:"sort"`
}

// List returns record summaries in canonical order with pagination.
func List(ctx context.Context, store *history.Store, input ListInput) (*ListOutput, error) {
	var kind record.Kind
	if input.Kind != "" {
		k, err := record.ParseKind(input.Kind)
		if err != nil {
			return nil, errors.NewInvalidRequest(err.Error())
		}
		kind = k
	}

	// Apply limit defaults and bounds
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	offset := max(input.Offset, 0)

	all := store.List(ctx)
	filtered := all[:0]
	for _, r := range all {
		if kind == "" || r.Kind == kind {
			filtered = append(filtered, r)
		}
	}
	total := len(filtered)

	items := []record.Summary{}
	if offset < total {
		end := min(offset+limit, total)
		for i := offset; i < end; i++ {
			items = append(items, filtered[i].ToSummary())
		}
	}

	return &ListOutput{
		Items: items,
		Pagination: Pagination{
			Limit:   limit,
			Offset:  offset,
			HasMore: offset+len(items) < total,
			Total:   total,
		},
		Sort: "pinned_then_detected_at_desc",
	}, nil
}
