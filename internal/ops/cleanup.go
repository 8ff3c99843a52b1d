package ops

import (
	"context"
	"fmt"

	"github.com/aldorifkifirmansyah/LetVision/internal/errors"
	"github.com/aldorifkifirmansyah/LetVision/internal/history"
)

// CleanupInput contains parameters for the Cleanup operation.
type CleanupInput struct {
	Retention string // e.g. "3m", "90d"; default: history.DefaultRetention
}

// CleanupOutput contains the result of the Cleanup operation.
type CleanupOutput struct {
	Removed   []string `json:"removed"`
	Count     int      `json:"count"`
	Retention string   `json:"retention"`
	Message   string   `json:"message"`
}

// Cleanup removes records older than the retention window.
func Cleanup(ctx context.Context, store *history.Store, input CleanupInput) (*CleanupOutput, error) {
	window := history.DefaultRetention
	if input.Retention != "" {
		parsed, err := history.ParseRetention(input.Retention)
		if err != nil {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("invalid retention: %v", err))
		}
		window = parsed
	}

	removed, err := store.CleanupExpired(ctx, window)
	if err != nil {
		return nil, err
	}

	return &CleanupOutput{
		Removed:   removed,
		Count:     len(removed),
		Retention: window.String(),
		Message:   formatCleanupMessage(len(removed), window),
	}, nil
}

// formatCleanupMessage creates a human-readable message for the cleanup result.
func formatCleanupMessage(count int, window history.Retention) string {
	if count == 0 {
		return fmt.Sprintf("No records older than %s", window)
	}
	return fmt.Sprintf("Removed %d %s older than %s", count, plural(count, "record"), window)
}
