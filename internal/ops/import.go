package ops

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/aldorifkifirmansyah/LetVision/internal/config"
	"github.com/aldorifkifirmansyah/LetVision/internal/errors"
	"github.com/aldorifkifirmansyah/LetVision/internal/history"
	"github.com/aldorifkifirmansyah/LetVision/internal/record"
)

// ImportMode controls collision behavior during import.
type ImportMode string

const (
	ImportModeError   ImportMode = "error"   // fail on collision, write nothing
	ImportModeReplace ImportMode = "replace" // overwrite on collision
	ImportModeSkip    ImportMode = "skip"    // keep the existing record on collision
)

// maxImportLine bounds a single JSONL line.
const maxImportLine = 4 << 20

// ImportInput contains parameters for the Import operation.
type ImportInput struct {
	Path string     // required
	Mode ImportMode // default: error
}

// ImportOutput contains the result of the Import operation.
type ImportOutput struct {
	Imported int           `json:"imported"`
	Replaced int           `json:"replaced"`
	Skipped  int           `json:"skipped"`
	Errors   []ImportError `json:"errors"`
}

// ImportError describes one line or record that could not be imported.
type ImportError struct {
	Line    int    `json:"line,omitempty"`
	ID      string `json:"id,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Import merges records from a JSONL export file into the history.
// In error mode any unreadable line or id collision aborts the import with
// nothing written; the problems are reported in Errors.
func Import(ctx context.Context, store *history.Store, cfg *config.Config, exportsDir string, input ImportInput) (*ImportOutput, error) {
	if input.Mode == "" {
		input.Mode = ImportModeError
	}
	policy, err := importPolicy(input.Mode)
	if err != nil {
		return nil, err
	}
	if err := ValidatePath(input.Path, PathCheckRead, cfg, exportsDir); err != nil {
		return nil, err
	}

	file, err := openNoFollow(input.Path, os.O_RDONLY, 0)
	if err != nil {
		if _, ok := errors.As(err); ok {
			return nil, err
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to open import file: %w", err))
	}
	defer file.Close()

	records, parseErrors := parseExportFile(file)
	output := &ImportOutput{Errors: []ImportError{}}

	if input.Mode == ImportModeError && len(parseErrors) > 0 {
		output.Errors = parseErrors
		return output, nil
	}
	output.Errors = append(output.Errors, parseErrors...)
	output.Skipped += len(parseErrors)

	result, err := store.Import(ctx, records, policy)
	if err != nil {
		if input.Mode == ImportModeError && errors.Is(err, errors.ErrConflict) {
			appErr, _ := errors.As(err)
			output.Errors = append(output.Errors, ImportError{
				ID:      collisionID(appErr),
				Code:    "ID_COLLISION",
				Message: appErr.Message,
			})
			return output, nil
		}
		return nil, err
	}

	output.Imported = result.Imported
	output.Replaced = result.Replaced
	output.Skipped += result.Skipped
	return output, nil
}

func importPolicy(mode ImportMode) (history.ImportPolicy, error) {
	switch mode {
	case ImportModeError:
		return history.ImportAbort, nil
	case ImportModeReplace:
		return history.ImportReplace, nil
	case ImportModeSkip:
		return history.ImportSkip, nil
	default:
		return "", errors.NewInvalidRequest("mode must be one of: error, replace, skip")
	}
}

func collisionID(e *errors.AppError) string {
	if e == nil || e.Details == nil {
		return ""
	}
	id, _ := e.Details["id"].(string)
	return id
}

// parseExportFile reads records from a JSONL export, skipping the header line.
func parseExportFile(r io.Reader) ([]record.Record, []ImportError) {
	var records []record.Record
	var parseErrors []ImportError

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxImportLine)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var probe struct {
			LetVisionExport bool `json:"_letvision_export"`
		}
		if err := json.Unmarshal(line, &probe); err != nil {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				Code:    "PARSE_ERROR",
				Message: fmt.Sprintf("invalid JSON: %v", err),
			})
			continue
		}
		if probe.LetVisionExport {
			continue
		}

		var rec record.Record
		if err := json.Unmarshal(line, &rec); err != nil {
			parseErrors = append(parseErrors, ImportError{
				Line:    lineNum,
				Code:    "INVALID_RECORD",
				Message: err.Error(),
			})
			continue
		}
		records = append(records, rec)
	}

	if err := scanner.Err(); err != nil {
		parseErrors = append(parseErrors, ImportError{
			Line:    lineNum,
			Code:    "READ_ERROR",
			Message: fmt.Sprintf("failed to read file: %v", err),
		})
	}

	return records, parseErrors
}
