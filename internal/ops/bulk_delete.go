package ops

import (
	"context"
	"fmt"

	"github.com/aldorifkifirmansyah/LetVision/internal/errors"
	"github.com/aldorifkifirmansyah/LetVision/internal/history"
)

// BulkDeleteInput contains parameters for the BulkDelete operation.
type BulkDeleteInput struct {
	IDs []string
}

// BulkDeleteOutput contains the result of the BulkDelete operation.
type BulkDeleteOutput struct {
	Deleted int    `json:"deleted"`
	Message string `json:"message"`
}

// BulkDelete removes every record whose id is listed. Unknown ids are ignored.
// At least one non-blank id must be provided (safety guard).
func BulkDelete(ctx context.Context, store *history.Store, input BulkDeleteInput) (*BulkDeleteOutput, error) {
	ids := cleanIDs(input.IDs)
	if len(ids) == 0 {
		return nil, errors.NewInvalidRequest("at least one id is required")
	}
	if len(ids) > MaxBulkDeleteIDs {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("too many ids: %d (max %d)", len(ids), MaxBulkDeleteIDs))
	}

	count, err := store.DeleteMany(ctx, ids)
	if err != nil {
		return nil, err
	}

	return &BulkDeleteOutput{
		Deleted: count,
		Message: formatBulkDeleteMessage(count, len(ids)),
	}, nil
}

// formatBulkDeleteMessage creates a human-readable message for the bulk delete result.
func formatBulkDeleteMessage(count, requested int) string {
	if count == 0 {
		return "No records matched the given ids"
	}
	msg := fmt.Sprintf("Deleted %d %s", count, plural(count, "record"))
	if missing := requested - count; missing > 0 {
		msg += fmt.Sprintf(" (%d %s not found)", missing, plural(missing, "id"))
	}
	return msg
}
