package web

import (
	stderrors "errors"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"github.com/aldorifkifirmansyah/LetVision/internal/config"
	"github.com/aldorifkifirmansyah/LetVision/internal/errors"
	"github.com/aldorifkifirmansyah/LetVision/internal/history"
	"github.com/aldorifkifirmansyah/LetVision/internal/ops"
	"github.com/aldorifkifirmansyah/LetVision/internal/record"
	"github.com/aldorifkifirmansyah/LetVision/pkg/clients/blogger"
)

var errNoRoute = &errors.AppError{Code: errors.ErrNotFound, Status: http.StatusNotFound, Message: "page not found"}

// Handlers contains HTTP route handlers for the UI pages and the JSON API.
type Handlers struct {
	store     *history.Store
	cfg       *config.Config
	detector  ops.Detector
	blog      blogger.Client
	imagesDir string
	logger    *zap.Logger
	renderer  *Renderer
}

// LabelRequest is the body of PATCH /api/history/:id/label.
type LabelRequest struct {
	Label string `json:"label"`
}

// BulkDeleteRequest is the body of POST /api/history/bulk-delete.
type BulkDeleteRequest struct {
	IDs []string `json:"ids"`
}

// CleanupRequest is the optional body of POST /api/history/cleanup.
type CleanupRequest struct {
	Retention string `json:"retention"`
}

// HandleListPage handles GET /history.
func (h *Handlers) HandleListPage(c *gin.Context) {
	kind := c.Query("kind")
	result, err := ops.List(c.Request.Context(), h.store, listInput(c))
	if err != nil {
		h.renderer.renderError(c, err)
		return
	}

	h.renderer.renderPage(c, "list", ListPageData{
		PageData:   h.renderer.page("History", "history"),
		Items:      result.Items,
		Pagination: result.Pagination,
		Kind:       kind,
	})
}

// HandleDetailPage handles GET /history/:id.
func (h *Handlers) HandleDetailPage(c *gin.Context) {
	result, err := ops.Fetch(c.Request.Context(), h.store, ops.FetchInput{ID: c.Param("id"), IncludeCare: true})
	if err != nil {
		h.renderer.renderError(c, err)
		return
	}

	title := result.Title
	if title == "" {
		title = result.Label
	}
	h.renderer.renderPage(c, "detail", DetailPageData{
		PageData: h.renderer.page(title, "history"),
		Record:   result,
		CareHTML: renderMarkdown(result.CareSheet),
	})
}

// HandleArticlesPage handles GET /articles.
func (h *Handlers) HandleArticlesPage(c *gin.Context) {
	result := ops.Articles(c.Request.Context(), h.blog, h.logger, ops.ArticlesInput{Limit: parseIntParam(c, "limit", 0)})
	h.renderer.renderPage(c, "articles", ArticlesPageData{
		PageData: h.renderer.page("Articles", "articles"),
		Items:    result.Items,
	})
}

// HandleList handles GET /api/history.
func (h *Handlers) HandleList(c *gin.Context) {
	result, err := ops.List(c.Request.Context(), h.store, listInput(c))
	if err != nil {
		h.renderer.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleFetch handles GET /api/history/:id.
func (h *Handlers) HandleFetch(c *gin.Context) {
	result, err := ops.Fetch(c.Request.Context(), h.store, ops.FetchInput{
		ID:          c.Param("id"),
		IncludeCare: parseBoolParam(c, "include_care"),
	})
	if err != nil {
		h.renderer.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleDetect handles POST /api/history/detect, a multipart upload with
// fields "kind", "image" and optionally "label".
func (h *Handlers) HandleDetect(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, MaxUploadBytes+uploadFormOverhead)
	if err := c.Request.ParseMultipartForm(MaxUploadBytes); err != nil {
		var tooLarge *http.MaxBytesError
		if stderrors.As(err, &tooLarge) || c.Request.ContentLength > MaxUploadBytes+uploadFormOverhead {
			h.renderer.renderError(c, errors.NewUploadTooLarge(MaxUploadBytes))
			return
		}
		h.renderer.renderError(c, errors.NewInvalidRequest("request must be multipart/form-data"))
		return
	}

	kind := c.PostForm("kind")
	if _, err := record.ParseKind(kind); err != nil {
		h.renderer.renderError(c, errors.NewInvalidRequest(err.Error()))
		return
	}
	file, err := c.FormFile("image")
	if err != nil {
		h.renderer.renderError(c, errors.NewInvalidRequest("image file is required"))
		return
	}
	if file.Size > MaxUploadBytes {
		h.renderer.renderError(c, errors.NewUploadTooLarge(MaxUploadBytes))
		return
	}
	label := c.PostForm("label")

	var result *ops.DetectOutput
	if h.imagesDir == "" {
		f, err := file.Open()
		if err != nil {
			h.renderer.renderError(c, errors.NewInvalidRequest("unreadable image upload"))
			return
		}
		defer f.Close()
		result, err = ops.Detect(c.Request.Context(), h.store, h.detector, ops.DetectInput{
			Kind:     kind,
			Image:    f,
			Filename: file.Filename,
			Label:    label,
		})
		if err != nil {
			h.renderer.renderError(c, err)
			return
		}
		c.JSON(http.StatusCreated, result)
		return
	}

	dst := filepath.Join(h.imagesDir, ulid.Make().String()+imageExt(file.Filename))
	if err := os.MkdirAll(h.imagesDir, 0700); err != nil {
		h.renderer.renderError(c, errors.NewInternal(err))
		return
	}
	if err := c.SaveUploadedFile(file, dst); err != nil {
		h.renderer.renderError(c, errors.NewInternal(err))
		return
	}

	result, err = ops.DetectFile(c.Request.Context(), h.store, h.detector, ops.DetectFileInput{
		Kind:  kind,
		Path:  dst,
		Label: label,
	})
	if err != nil {
		if rmErr := os.Remove(dst); rmErr != nil {
			h.logger.Warn("failed to remove rejected upload", zap.String("path", dst), zap.Error(rmErr))
		}
		h.renderer.renderError(c, err)
		return
	}
	c.JSON(http.StatusCreated, result)
}

// HandleLabel handles PATCH /api/history/:id/label.
func (h *Handlers) HandleLabel(c *gin.Context) {
	var req LabelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.renderer.renderError(c, errors.NewInvalidRequest("invalid request body"))
		return
	}

	result, err := ops.Label(c.Request.Context(), h.store, ops.LabelInput{ID: c.Param("id"), Label: req.Label})
	if err != nil {
		h.renderer.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandlePin handles POST /api/history/:id/pin.
func (h *Handlers) HandlePin(c *gin.Context) {
	result, err := ops.Pin(c.Request.Context(), h.store, ops.PinInput{ID: c.Param("id")})
	if err != nil {
		h.renderer.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleDelete handles DELETE /api/history/:id.
func (h *Handlers) HandleDelete(c *gin.Context) {
	result, err := ops.Delete(c.Request.Context(), h.store, ops.DeleteInput{ID: c.Param("id")})
	if err != nil {
		h.renderer.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleBulkDelete handles POST /api/history/bulk-delete.
func (h *Handlers) HandleBulkDelete(c *gin.Context) {
	var req BulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.renderer.renderError(c, errors.NewInvalidRequest("invalid request body"))
		return
	}

	result, err := ops.BulkDelete(c.Request.Context(), h.store, ops.BulkDeleteInput{IDs: req.IDs})
	if err != nil {
		h.renderer.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleCleanup handles POST /api/history/cleanup. An empty body uses the
// configured retention window.
func (h *Handlers) HandleCleanup(c *gin.Context) {
	var req CleanupRequest
	if err := c.ShouldBindJSON(&req); err != nil && !stderrors.Is(err, io.EOF) {
		h.renderer.renderError(c, errors.NewInvalidRequest("invalid request body"))
		return
	}
	if req.Retention == "" {
		req.Retention = h.cfg.Retention
	}

	result, err := ops.Cleanup(c.Request.Context(), h.store, ops.CleanupInput{Retention: req.Retention})
	if err != nil {
		h.renderer.renderError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// HandleArticles handles GET /api/articles.
func (h *Handlers) HandleArticles(c *gin.Context) {
	c.JSON(http.StatusOK, ops.Articles(c.Request.Context(), h.blog, h.logger, ops.ArticlesInput{
		Limit: parseIntParam(c, "limit", 0),
	}))
}

func listInput(c *gin.Context) ops.ListInput {
	return ops.ListInput{
		Kind:   c.Query("kind"),
		Limit:  parseIntParam(c, "limit", ops.DefaultListLimit),
		Offset: parseIntParam(c, "offset", 0),
	}
}

// parseIntParam parses an integer query parameter with a default value.
func parseIntParam(c *gin.Context, name string, defaultVal int) int {
	s := c.Query(name)
	if s == "" {
		return defaultVal
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return defaultVal
	}
	return v
}

// parseBoolParam parses a boolean query parameter.
func parseBoolParam(c *gin.Context, name string) bool {
	s := c.Query(name)
	return s == "true" || s == "1"
}

// imageExt keeps common photo extensions and falls back to .jpg.
func imageExt(filename string) string {
	switch ext := strings.ToLower(filepath.Ext(filename)); ext {
	case ".jpg", ".jpeg", ".png", ".webp":
		return ext
	default:
		return ".jpg"
	}
}
