package history

import (
	"context"
	"fmt"

	"github.com/aldorifkifirmansyah/LetVision/internal/errors"
	"github.com/aldorifkifirmansyah/LetVision/internal/record"
)

// ImportPolicy controls what happens when an imported id already exists.
type ImportPolicy string

const (
	ImportAbort   ImportPolicy = "error"   // fail the whole import, write nothing
	ImportReplace ImportPolicy = "replace" // overwrite the existing record
	ImportSkip    ImportPolicy = "skip"    // keep the existing record
)

// ImportResult reports the outcome of Import.
type ImportResult struct {
	Imported int
	Replaced int
	Skipped  int
}

// Import merges complete records (ids and timestamps preserved) into the
// history in one read-modify-write. Records must satisfy record.Validate.
func (s *Store) Import(ctx context.Context, recs []record.Record, policy ImportPolicy) (ImportResult, error) {
	var result ImportResult
	switch policy {
	case ImportAbort, ImportReplace, ImportSkip:
	default:
		return result, errors.NewInvalidRequest("mode must be one of: error, replace, skip")
	}
	for i := range recs {
		if recs[i].ID == "" {
			return result, errors.NewInvalidRequest(fmt.Sprintf("records[%d]: id is required", i))
		}
		if err := recs[i].Validate(); err != nil {
			return result, errors.NewInvalidRequest(fmt.Sprintf("records[%d]: %v", i, err))
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	records, err := s.loadForWrite(ctx)
	if err != nil {
		return result, err
	}

	index := make(map[string]int, len(records))
	for i, r := range records {
		index[r.ID] = i
	}

	for _, in := range recs {
		rec := in.Clone()
		rec.Label = record.NormalizeLabel(rec.Label)
		if !rec.IsPinned {
			rec.PinnedAt = nil
		}

		if i, exists := index[rec.ID]; exists {
			switch policy {
			case ImportAbort:
				conflict := errors.NewConflict(fmt.Sprintf("record id already exists: %s", rec.ID))
				conflict.Details = map[string]any{"id": rec.ID}
				return ImportResult{}, conflict
			case ImportSkip:
				result.Skipped++
				continue
			case ImportReplace:
				records[i] = rec
				result.Replaced++
				continue
			}
		}

		index[rec.ID] = len(records)
		records = append(records, rec)
		result.Imported++
	}

	if result.Imported == 0 && result.Replaced == 0 {
		return result, nil
	}
	if err := s.save(ctx, records); err != nil {
		return ImportResult{}, err
	}
	return result, nil
}
