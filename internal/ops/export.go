package ops

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/aldorifkifirmansyah/LetVision/internal/config"
	"github.com/aldorifkifirmansyah/LetVision/internal/errors"
	"github.com/aldorifkifirmansyah/LetVision/internal/history"
	"github.com/aldorifkifirmansyah/LetVision/internal/record"
)

// ExportInput contains parameters for the Export operation.
type ExportInput struct {
	Path string // optional, default: <exportsDir>/history-<timestamp>.jsonl
	Kind string // optional filter: "growth" or "disease"
}

// ExportOutput contains the result of the Export operation.
type ExportOutput struct {
	Path       string `json:"path"`
	Count      int    `json:"count"`
	ExportedAt int64  `json:"exported_at"`
}

// Export writes the history to a JSONL file: a header line, then one record
// per line in canonical order. The file is written to a temp name and renamed
// into place, so an existing file survives a failed export.
func Export(ctx context.Context, store *history.Store, cfg *config.Config, exportsDir string, input ExportInput) (*ExportOutput, error) {
	var kind record.Kind
	if input.Kind != "" {
		k, err := record.ParseKind(input.Kind)
		if err != nil {
			return nil, errors.NewInvalidRequest(err.Error())
		}
		kind = k
	}

	now := time.Now()
	exportPath := input.Path
	if exportPath == "" {
		exportPath = defaultExportPath(exportsDir, kind, now)
	}
	if err := ValidatePath(exportPath, PathCheckWrite, cfg, exportsDir); err != nil {
		return nil, err
	}

	records := make([]record.Record, 0)
	for _, r := range store.List(ctx) {
		if kind == "" || r.Kind == kind {
			records = append(records, r)
		}
	}

	if err := os.MkdirAll(filepath.Dir(exportPath), 0700); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := exportPath + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	w := bufio.NewWriter(file)
	enc := json.NewEncoder(w)
	header := record.ExportHeader{
		LetVisionExport: true,
		SchemaVersion:   record.ExportSchemaVersion,
		ExportedAt:      now.Unix(),
		Count:           len(records),
	}
	if err := enc.Encode(header); err != nil {
		return nil, errors.NewInternal(err)
	}
	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewCancelled(err)
		}
		if err := enc.Encode(r); err != nil {
			return nil, errors.NewInternal(err)
		}
	}
	if err := w.Flush(); err != nil {
		return nil, errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return nil, errors.NewInternal(err)
	}
	// Close before rename (required on Windows).
	if err := file.Close(); err != nil {
		return nil, errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlink planted at the destination.
	if info, err := os.Lstat(exportPath); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return nil, errors.NewInvalidRequest("export path is a symlink")
	}

	if err := os.Rename(tempPath, exportPath); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(exportPath); statErr == nil {
				return nil, errors.NewInvalidRequest("export destination already exists; choose a new path or delete the existing file")
			}
		}
		return nil, errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return &ExportOutput{
		Path:       exportPath,
		Count:      len(records),
		ExportedAt: now.Unix(),
	}, nil
}

// defaultExportPath builds <exportsDir>/history[-kind]-<timestamp>.jsonl.
func defaultExportPath(exportsDir string, kind record.Kind, now time.Time) string {
	name := "history"
	if kind != "" {
		name += "-" + string(kind)
	}
	return filepath.Join(exportsDir, fmt.Sprintf("%s-%s.jsonl", name, now.Format("2006-01-02T150405")))
}
