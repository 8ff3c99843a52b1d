package web

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aldorifkifirmansyah/LetVision/internal/config"
	"github.com/aldorifkifirmansyah/LetVision/internal/history"
	"github.com/aldorifkifirmansyah/LetVision/internal/ops"
	"github.com/aldorifkifirmansyah/LetVision/pkg/clients/blogger"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static/*
var staticFS embed.FS

// MaxUploadBytes bounds the size of an uploaded photo.
const MaxUploadBytes = 10 << 20

// uploadFormOverhead allows for the multipart framing and text fields around the image.
const uploadFormOverhead = 1 << 20

// Deps are the services the HTTP handlers operate on.
type Deps struct {
	Store    *history.Store
	Config   *config.Config
	Detector ops.Detector
	Blog     blogger.Client

	// ImagesDir receives uploaded photos; detection records reference them by file URI.
	ImagesDir string

	Logger *zap.Logger
}

// NewRouter wires the Gin engine with the UI pages and the JSON API.
func NewRouter(deps Deps, version string) *gin.Engine {
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	if deps.Config == nil {
		deps.Config = config.DefaultConfig()
	}

	templateSub, err := fs.Sub(templateFS, "templates")
	if err != nil {
		panic(err)
	}
	staticSub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}

	h := &Handlers{
		store:     deps.Store,
		cfg:       deps.Config,
		detector:  deps.Detector,
		blog:      deps.Blog,
		imagesDir: deps.ImagesDir,
		logger:    deps.Logger,
		renderer:  NewRenderer(templateSub, version, deps.Logger),
	}

	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.MaxMultipartMemory = MaxUploadBytes
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(deps.Logger))
	r.Use(securityHeaders())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	r.GET("/", func(c *gin.Context) {
		c.Redirect(http.StatusFound, "/history")
	})
	r.GET("/history", h.HandleListPage)
	r.GET("/history/:id", h.HandleDetailPage)
	r.GET("/articles", h.HandleArticlesPage)
	r.StaticFS("/static", http.FS(staticSub))

	api := r.Group("/api")
	api.GET("/history", h.HandleList)
	api.GET("/history/:id", h.HandleFetch)
	api.POST("/history/detect", h.HandleDetect)
	api.PATCH("/history/:id/label", h.HandleLabel)
	api.POST("/history/:id/pin", h.HandlePin)
	api.DELETE("/history/:id", h.HandleDelete)
	api.POST("/history/bulk-delete", h.HandleBulkDelete)
	api.POST("/history/cleanup", h.HandleCleanup)
	api.GET("/articles", h.HandleArticles)

	r.NoRoute(func(c *gin.Context) {
		h.renderer.renderError(c, errNoRoute)
	})

	deps.Logger.Info("router initialized")
	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		logger.Info("request completed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()))
	}
}

// securityHeaders adds security-related HTTP headers to all responses.
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Security-Policy", "default-src 'self'; img-src 'self' data:; style-src 'self'")
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Next()
	}
}

// NewServer wraps the router in an http.Server listening on addr.
func NewServer(handler http.Handler, addr string) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func Run(ctx context.Context, srv *http.Server, logger *zap.Logger) error {
	if logger == nil {
		logger = zap.NewNop()
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Info("http server listening", zap.String("addr", srv.Addr))
	if strings.HasPrefix(srv.Addr, ":") || strings.Contains(srv.Addr, "0.0.0.0") {
		logger.Warn("server is binding to all interfaces and may be accessible from the network")
	}

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		logger.Info("shutting down http server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
