package mcp

import (
	"context"
	"encoding/json"

	"github.com/mark3labs/mcp-go/mcp"
	"go.uber.org/zap"

	"github.com/aldorifkifirmansyah/LetVision/internal/config"
	"github.com/aldorifkifirmansyah/LetVision/internal/errors"
	"github.com/aldorifkifirmansyah/LetVision/internal/history"
	"github.com/aldorifkifirmansyah/LetVision/internal/ops"
	"github.com/aldorifkifirmansyah/LetVision/pkg/clients/blogger"
)

// Deps are the services the MCP tools operate on.
type Deps struct {
	Store      *history.Store
	Config     *config.Config
	ExportsDir string
	Detector   ops.Detector
	Blog       blogger.Client
	Logger     *zap.Logger
}

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	store      *history.Store
	cfg        *config.Config
	exportsDir string
	detector   ops.Detector
	blog       blogger.Client
	logger     *zap.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(deps Deps) *Handlers {
	h := &Handlers{
		store:      deps.Store,
		cfg:        deps.Config,
		exportsDir: deps.ExportsDir,
		detector:   deps.Detector,
		blog:       deps.Blog,
		logger:     deps.Logger,
	}
	if h.cfg == nil {
		h.cfg = config.DefaultConfig()
	}
	if h.logger == nil {
		h.logger = zap.NewNop()
	}
	return h
}

// Request types for each tool

// ListRequest represents the arguments for history_list.
type ListRequest struct {
	Kind   string `json:"kind,omitempty"`
	Limit  int    `json:"limit,omitempty"`
	Offset int    `json:"offset,omitempty"`
}

// FetchRequest represents the arguments for history_fetch.
type FetchRequest struct {
	ID          string `json:"id"`
	IncludeCare bool   `json:"include_care,omitempty"`
}

// LabelRequest represents the arguments for history_label.
type LabelRequest struct {
	ID    string `json:"id"`
	Label string `json:"label,omitempty"`
}

// IDRequest represents the arguments for tools addressing one record.
type IDRequest struct {
	ID string `json:"id"`
}

// BulkDeleteRequest represents the arguments for history_bulk_delete.
type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// CleanupRequest represents the arguments for history_cleanup.
type CleanupRequest struct {
	Retention string `json:"retention,omitempty"`
}

// ExportRequest represents the arguments for history_export.
type ExportRequest struct {
	Path string `json:"path,omitempty"`
	Kind string `json:"kind,omitempty"`
}

// ImportRequest represents the arguments for history_import.
type ImportRequest struct {
	Path string `json:"path"`
	Mode string `json:"mode,omitempty"`
}

// DetectRequest represents the arguments for history_detect.
type DetectRequest struct {
	Kind      string `json:"kind"`
	ImagePath string `json:"image_path"`
	Label     string `json:"label,omitempty"`
}

// ArticlesRequest represents the arguments for articles_list.
type ArticlesRequest struct {
	Limit int `json:"limit,omitempty"`
}

// Handler implementations

// HandleList handles the history_list tool call.
func (h *Handlers) HandleList(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.List(ctx, h.store, ops.ListInput{
		Kind:   input.Kind,
		Limit:  input.Limit,
		Offset: input.Offset,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleFetch handles the history_fetch tool call.
func (h *Handlers) HandleFetch(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[FetchRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Fetch(ctx, h.store, ops.FetchInput{
		ID:          input.ID,
		IncludeCare: input.IncludeCare,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleLabel handles the history_label tool call.
func (h *Handlers) HandleLabel(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[LabelRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Label(ctx, h.store, ops.LabelInput{ID: input.ID, Label: input.Label})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandlePin handles the history_pin tool call.
func (h *Handlers) HandlePin(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Pin(ctx, h.store, ops.PinInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleDelete handles the history_delete tool call.
func (h *Handlers) HandleDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[IDRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Delete(ctx, h.store, ops.DeleteInput{ID: input.ID})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleBulkDelete handles the history_bulk_delete tool call.
func (h *Handlers) HandleBulkDelete(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[BulkDeleteRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.BulkDelete(ctx, h.store, ops.BulkDeleteInput{IDs: input.IDs})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleCleanup handles the history_cleanup tool call.
func (h *Handlers) HandleCleanup(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[CleanupRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	retention := input.Retention
	if retention == "" {
		retention = h.cfg.Retention
	}

	result, err := ops.Cleanup(ctx, h.store, ops.CleanupInput{Retention: retention})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleExport handles the history_export tool call.
func (h *Handlers) HandleExport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ExportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Export(ctx, h.store, h.cfg, h.exportsDir, ops.ExportInput{
		Path: input.Path,
		Kind: input.Kind,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleImport handles the history_import tool call.
func (h *Handlers) HandleImport(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ImportRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.Import(ctx, h.store, h.cfg, h.exportsDir, ops.ImportInput{
		Path: input.Path,
		Mode: ops.ImportMode(input.Mode),
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleDetect handles the history_detect tool call.
func (h *Handlers) HandleDetect(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[DetectRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	result, err := ops.DetectFile(ctx, h.store, h.detector, ops.DetectFileInput{
		Kind:  input.Kind,
		Path:  input.ImagePath,
		Label: input.Label,
	})
	if err != nil {
		return errorResult(err), nil
	}

	return successResult(result)
}

// HandleArticles handles the articles_list tool call.
func (h *Handlers) HandleArticles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ArticlesRequest](req)
	if err != nil {
		return errorResult(errors.NewInvalidRequest(err.Error())), nil
	}

	return successResult(ops.Articles(ctx, h.blog, h.logger, ops.ArticlesInput{Limit: input.Limit}))
}

// errorResult creates an MCP error result from an error.
func errorResult(err error) *mcp.CallToolResult {
	var payload map[string]any

	if appErr, ok := errors.As(err); ok {
		errorObj := map[string]any{
			"code":    appErr.Code,
			"message": appErr.Message,
			"status":  appErr.Status,
		}
		// Internal errors may carry file paths or storage details
		if appErr.Code != errors.ErrInternal && appErr.Details != nil {
			errorObj["details"] = appErr.Details
		}
		payload = map[string]any{"error": errorObj}
	} else {
		payload = map[string]any{
			"error": map[string]any{
				"code":    errors.ErrInternal,
				"message": "an internal error occurred",
				"status":  500,
			},
		}
	}

	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
