package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/aldorifkifirmansyah/LetVision/internal/errors"
	"github.com/aldorifkifirmansyah/LetVision/internal/history"
	"github.com/aldorifkifirmansyah/LetVision/internal/logging"
	"github.com/aldorifkifirmansyah/LetVision/internal/ops"
	"github.com/aldorifkifirmansyah/LetVision/internal/scheduler"
	"github.com/aldorifkifirmansyah/LetVision/internal/web"
)

// maxStdinBytes bounds id lists piped to delete-many.
const maxStdinBytes = 1 << 20

// newCLIApp creates the CLI application with all commands.
// a may be nil when only help or version output is needed.
func newCLIApp(a *app) *cli.App {
	cliApp := &cli.App{
		Name:    "letvision",
		Usage:   "Lettuce growth and disease detection history",
		Version: Version,
		Commands: []*cli.Command{
			detectCmd(a),
			listCmd(a),
			showCmd(a),
			labelCmd(a),
			pinCmd(a),
			deleteCmd(a),
			deleteManyCmd(a),
			cleanupCmd(a),
			exportCmd(a),
			importCmd(a),
			articlesCmd(a),
			serveCmd(a),
		},
	}
	// Disable default exit error handler to allow proper error return in tests
	cliApp.ExitErrHandler = func(_ *cli.Context, _ error) {}
	return cliApp
}

// kindFlag filters by detection kind.
func kindFlag() cli.Flag {
	return &cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Usage: "Only this kind: growth|disease"}
}

// detectCmd creates the detect command.
func detectCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "detect",
		Usage:     "Classify a lettuce photo and save the result",
		ArgsUsage: "<image>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "kind", Aliases: []string{"k"}, Value: "growth", Usage: "Detection kind: growth|disease"},
			&cli.StringFlag{Name: "label", Aliases: []string{"l"}, Usage: "Label for the new record"},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return outputError(errors.NewInvalidRequest("exactly one image path is required"))
			}
			output, err := ops.DetectFile(c.Context, a.store, a.detector, ops.DetectFileInput{
				Kind:  c.String("kind"),
				Path:  c.Args().First(),
				Label: c.String("label"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// listCmd creates the list command.
func listCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List detections, pinned first then newest",
		Flags: []cli.Flag{
			kindFlag(),
			&cli.IntFlag{Name: "limit", Value: ops.DefaultListLimit, Usage: "Maximum records"},
			&cli.IntFlag{Name: "offset", Usage: "Records to skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.List(c.Context, a.store, ops.ListInput{
				Kind:   c.String("kind"),
				Limit:  c.Int("limit"),
				Offset: c.Int("offset"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// showCmd creates the show command.
func showCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show one detection",
		ArgsUsage: "<id>",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "care", Usage: "Print the care sheet as markdown instead of JSON"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Fetch(c.Context, a.store, ops.FetchInput{
				ID:          c.Args().First(),
				IncludeCare: c.Bool("care"),
			})
			if err != nil {
				return outputError(err)
			}
			if c.Bool("care") {
				_, err := fmt.Fprint(os.Stdout, output.CareSheet)
				return err
			}
			return outputJSON(output)
		},
	}
}

// labelCmd creates the label command.
func labelCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "label",
		Usage:     "Set the label of a detection (no label resets it)",
		ArgsUsage: "<id> [label...]",
		Action: func(c *cli.Context) error {
			output, err := ops.Label(c.Context, a.store, ops.LabelInput{
				ID:    c.Args().First(),
				Label: strings.Join(c.Args().Tail(), " "),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// pinCmd creates the pin command.
func pinCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "pin",
		Usage:     "Toggle the pin state of a detection",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Pin(c.Context, a.store, ops.PinInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// deleteCmd creates the delete command.
func deleteCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a detection",
		ArgsUsage: "<id>",
		Action: func(c *cli.Context) error {
			output, err := ops.Delete(c.Context, a.store, ops.DeleteInput{ID: c.Args().First()})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// deleteManyCmd creates the delete-many command.
func deleteManyCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "delete-many",
		Usage:     "Delete several detections (ids as arguments or one per line on stdin)",
		ArgsUsage: "[id...]",
		Action: func(c *cli.Context) error {
			ids := c.Args().Slice()
			if len(ids) == 0 && stdinHasData() {
				text, err := readStdinWithLimit(os.Stdin, maxStdinBytes)
				if err != nil {
					return outputError(err)
				}
				ids = strings.Fields(text)
			}

			output, err := ops.BulkDelete(c.Context, a.store, ops.BulkDeleteInput{IDs: ids})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// cleanupCmd creates the cleanup command.
func cleanupCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "cleanup",
		Usage: "Remove detections older than the retention window",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "retention", Aliases: []string{"r"}, Usage: "Window such as 3m, 90d, 12w, 1y (default: configured)"},
		},
		Action: func(c *cli.Context) error {
			retention := c.String("retention")
			if retention == "" {
				retention = a.cfg.Retention
			}
			output, err := ops.Cleanup(c.Context, a.store, ops.CleanupInput{Retention: retention})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// exportCmd creates the export command.
func exportCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "export",
		Usage: "Export detections to a JSONL file",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "path", Aliases: []string{"p"}, Usage: "Output path (default: <home>/exports/history-<ts>.jsonl)"},
			kindFlag(),
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Export(c.Context, a.store, a.cfg, a.exportsDir(), ops.ExportInput{
				Path: c.String("path"),
				Kind: c.String("kind"),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// importCmd creates the import command.
func importCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import detections from a JSONL export",
		ArgsUsage: "<path>",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "mode", Aliases: []string{"m"}, Value: "error", Usage: "Collision mode: error|replace|skip"},
		},
		Action: func(c *cli.Context) error {
			output, err := ops.Import(c.Context, a.store, a.cfg, a.exportsDir(), ops.ImportInput{
				Path: c.Args().First(),
				Mode: ops.ImportMode(c.String("mode")),
			})
			if err != nil {
				return outputError(err)
			}
			return outputJSON(output)
		},
	}
}

// articlesCmd creates the articles command.
func articlesCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "articles",
		Usage: "List lettuce care articles",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "limit", Usage: "Maximum articles (default: all)"},
		},
		Action: func(c *cli.Context) error {
			return outputJSON(ops.Articles(c.Context, a.blog, logging.Named(a.logger, "articles"), ops.ArticlesInput{
				Limit: c.Int("limit"),
			}))
		},
	}
}

// serveCmd creates the serve command: the web UI, the JSON API and scheduled cleanup.
func serveCmd(a *app) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the web UI and JSON API with scheduled retention cleanup",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Usage: "Listen address (default: configured http_addr)"},
			&cli.BoolFlag{Name: "no-cleanup", Usage: "Disable scheduled retention cleanup"},
		},
		Action: func(c *cli.Context) error {
			addr := c.String("addr")
			if addr == "" {
				addr = a.cfg.HTTPAddr
			}

			ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
			defer stop()

			if !c.Bool("no-cleanup") {
				window, err := history.ParseRetention(a.cfg.Retention)
				if err != nil {
					return outputError(errors.NewInvalidRequest(err.Error()))
				}
				sched := scheduler.NewScheduler(a.store, window, a.cfg.CleanupSchedule, logging.Named(a.logger, "scheduler"))
				if err := sched.Start(ctx); err != nil {
					return err
				}
				defer sched.Stop()
			}

			router := web.NewRouter(web.Deps{
				Store:     a.store,
				Config:    a.cfg,
				Detector:  a.detector,
				Blog:      a.blog,
				ImagesDir: filepath.Join(a.baseDir, "images"),
				Logger:    logging.Named(a.logger, "http"),
			}, Version)

			srv := web.NewServer(router, addr)
			a.logger.Info("letvision serving", zap.String("addr", addr), zap.String("version", Version))
			return web.Run(ctx, srv, a.logger)
		},
	}
}

// Helper functions

// outputJSON marshals result to stdout as JSON.
func outputJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// outputError formats error for CLI.
func outputError(err error) error {
	if appErr, ok := errors.As(err); ok {
		return cli.Exit(fmt.Sprintf("[%s] %s", appErr.Code, appErr.Message), 1)
	}
	return cli.Exit(err.Error(), 1)
}

// stdinHasData returns true if stdin has piped data (not a terminal).
func stdinHasData() bool {
	stat, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (stat.Mode() & os.ModeCharDevice) == 0
}

// readStdinWithLimit reads r up to limit bytes; longer input is rejected.
func readStdinWithLimit(r io.Reader, limit int64) (string, error) {
	data, err := io.ReadAll(io.LimitReader(bufio.NewReader(r), limit+1))
	if err != nil {
		return "", errors.NewInternal(err)
	}
	if int64(len(data)) > limit {
		return "", errors.NewInvalidRequest(fmt.Sprintf("stdin exceeds %d bytes", limit))
	}
	return strings.TrimSpace(string(data)), nil
}
