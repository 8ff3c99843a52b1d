package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/aldorifkifirmansyah/LetVision/internal/config"
	"github.com/aldorifkifirmansyah/LetVision/internal/history"
	"github.com/aldorifkifirmansyah/LetVision/internal/kv"
	"github.com/aldorifkifirmansyah/LetVision/internal/logging"
	"github.com/aldorifkifirmansyah/LetVision/internal/mcp"
	"github.com/aldorifkifirmansyah/LetVision/internal/ops"
	"github.com/aldorifkifirmansyah/LetVision/pkg/clients/blogger"
	"github.com/aldorifkifirmansyah/LetVision/pkg/clients/classifier"
	"github.com/aldorifkifirmansyah/LetVision/pkg/clients/reference"
)

// Version is set via -ldflags at build time.
var Version = "dev"

// cliCommands contains known CLI subcommands.
var cliCommands = map[string]bool{
	"detect": true, "list": true, "show": true, "label": true, "pin": true,
	"delete": true, "delete-many": true, "cleanup": true,
	"export": true, "import": true, "articles": true, "serve": true,
	"help": true,
}

// app bundles the services shared by the CLI, the MCP server and the HTTP server.
type app struct {
	baseDir  string
	cfg      *config.Config
	logger   *zap.Logger
	store    *history.Store
	detector ops.Detector
	blog     blogger.Client
}

// newApp opens the history database under baseDir and builds the external clients.
// The returned func closes the database.
func newApp(baseDir string, cfg *config.Config, logger *zap.Logger) (*app, func(), error) {
	sqlite, err := kv.Open(baseDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	kv.ConfigurePool(sqlite.DB(), cfg.DBMaxOpenConns, cfg.DBMaxIdleConns)

	timeout := time.Duration(cfg.HTTPTimeoutSeconds) * time.Second
	store := history.New(sqlite,
		history.WithLogger(logging.Named(logger, "history")),
		history.WithChunkSize(cfg.CleanupChunkSize),
		history.WithKeepPinned(cfg.CleanupKeepPinned),
	)

	a := &app{
		baseDir: baseDir,
		cfg:     cfg,
		logger:  logger,
		store:   store,
		detector: ops.Detector{
			Classifier: classifier.NewClient(classifier.Config{BaseURL: cfg.ClassifierURL, Timeout: timeout}),
			Reference: reference.NewClient(reference.Config{
				BaseURL:  cfg.ReferenceURL,
				APIKey:   cfg.ReferenceKey,
				CacheTTL: time.Duration(cfg.ReferenceCacheTTLSeconds) * time.Second,
				Timeout:  timeout,
			}, logging.Named(logger, "reference")),
			Logger: logging.Named(logger, "detect"),
		},
		blog: blogger.NewClient(blogger.Config{BlogID: cfg.BlogID, APIKey: cfg.BlogKey, Timeout: timeout}),
	}
	return a, func() { sqlite.Close() }, nil
}

// exportsDir is the default directory for history exports.
func (a *app) exportsDir() string {
	return ops.ExportsDir(a.baseDir)
}

// mcpDeps adapts the app for the MCP server.
func (a *app) mcpDeps() mcp.Deps {
	return mcp.Deps{
		Store:      a.store,
		Config:     a.cfg,
		ExportsDir: a.exportsDir(),
		Detector:   a.detector,
		Blog:       a.blog,
		Logger:     logging.Named(a.logger, "mcp"),
	}
}

// startupCleanup removes history older than the configured retention, once per
// process start. Failures are logged and never block startup.
func (a *app) startupCleanup(ctx context.Context) []string {
	window, err := history.ParseRetention(a.cfg.Retention)
	if err != nil {
		a.logger.Warn("invalid retention, using default", zap.String("retention", a.cfg.Retention), zap.Error(err))
		window = history.DefaultRetention
	}

	removed, err := a.store.CleanupExpired(ctx, window)
	if err != nil {
		a.logger.Warn("startup cleanup failed", zap.Error(err), zap.Int("removed", len(removed)))
		return removed
	}
	if len(removed) > 0 {
		a.logger.Info("startup cleanup removed expired records",
			zap.Int("count", len(removed)),
			zap.String("retention", window.String()),
		)
	}
	return removed
}

// needsStartupCleanup reports whether this invocation runs the startup
// cleanup itself. serve runs it through the scheduler and cleanup takes its
// own retention.
func needsStartupCleanup() bool {
	if len(os.Args) < 2 {
		return true
	}
	switch os.Args[1] {
	case "serve", "cleanup":
		return false
	}
	return true
}

// isCLIMode determines if we should run CLI vs MCP server.
func isCLIMode() bool {
	if len(os.Args) < 2 {
		return false // No args → MCP server
	}
	arg := os.Args[1]
	if cliCommands[arg] {
		return true
	}
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v"
}

// isHelpOrVersion returns true if the user is requesting help or version info.
func isHelpOrVersion() bool {
	if len(os.Args) < 2 {
		return false
	}
	arg := os.Args[1]
	return arg == "--help" || arg == "-h" || arg == "--version" || arg == "-v" || arg == "help"
}

// isTerminal returns true if stdin is a terminal (not piped).
func isTerminal() bool {
	stat, _ := os.Stdin.Stat()
	return (stat.Mode() & os.ModeCharDevice) != 0
}

// printBanner displays a friendly banner when run interactively without args.
func printBanner() {
	fmt.Println(`
   _          _ __     ___     _
  | |    ___ | |\ \   / (_)___(_) ___  _ __
  | |   / _ \| __\ \ / /| / __| |/ _ \| '_ \
  | |__|  __/| |_ \ V / | \__ \ | (_) | | | |
  |_____\___| \__| \_/  |_|___/_|\___/|_| |_|

  Lettuce growth and disease detection history

  Usage: letvision <command> [options]
         letvision --help

  MCP server mode requires piped input.`)
}

func main() {
	// No args + interactive terminal → show banner and exit
	if len(os.Args) < 2 && isTerminal() {
		printBanner()
		return
	}

	// Handle --help/--version before DB init (no DB needed)
	if isHelpOrVersion() {
		if err := newCLIApp(nil).Run(os.Args); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	// Unknown argument + terminal → show error (don't start MCP server)
	if !isCLIMode() && len(os.Args) >= 2 && isTerminal() {
		fmt.Fprintf(os.Stderr, "error: unknown command %q\n", os.Args[1])
		fmt.Fprintf(os.Stderr, "Run 'letvision --help' for usage.\n")
		os.Exit(1)
	}

	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	baseDir, err := config.DefaultBaseDir()
	if err != nil {
		return fmt.Errorf("could not determine home directory: %w", err)
	}
	cwd, _ := os.Getwd()

	cfg, err := config.LoadWithEnv(baseDir, cwd, "")
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	a, closeDB, err := newApp(baseDir, cfg, logger)
	if err != nil {
		return err
	}
	defer closeDB()

	if needsStartupCleanup() {
		a.startupCleanup(context.Background())
	}

	if isCLIMode() {
		return newCLIApp(a).Run(os.Args)
	}

	// MCP server mode (default)
	return mcp.Run(a.mcpDeps(), Version)
}
