package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/joseph-ayodele/winelabel/internal/app"
	"github.com/joseph-ayodele/winelabel/internal/common"
	"github.com/joseph-ayodele/winelabel/internal/export"
	"github.com/joseph-ayodele/winelabel/internal/ingest"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

func main() {
	var (
		dir        = flag.String("dir", "", "directory of label photos (required)")
		out        = flag.String("out", "", "output XLSX path (defaults to <parent of dir>/labels.xlsx)")
		watch      = flag.Bool("watch", false, "keep running and process new photos as they appear")
		skipHidden = flag.Bool("skip-hidden", true, "skip hidden files and directories")
		debounce   = flag.Duration("debounce", 2*time.Second, "watch mode: wait this long after the last change")
	)
	flag.Parse()

	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *out == "" {
		*out = filepath.Join(filepath.Dir(filepath.Clean(*dir)), "labels.xlsx")
	}

	_ = godotenv.Load()
	cfg := common.LoadConfig()
	logger := app.NewLogger(os.Stdout, cfg.Log)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.Build(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}
	defer a.Close(context.Background())

	loader := ingest.NewFSLoader(logger)
	exporter := export.NewService(logger)

	images, failed, stats, err := loader.LoadDirectory(ctx, *dir, *skipHidden)
	if err != nil {
		logger.Error("failed to read directory", "dir", *dir, "error", err)
		os.Exit(1)
	}
	for _, f := range failed {
		logger.Warn("skipped file", "path", f.SourcePath, "error", f.Err)
	}

	rows, err := process(ctx, a, images)
	if err != nil {
		logger.Error("batch failed", "error", err)
		os.Exit(1)
	}
	if err := write(ctx, exporter, *out, rows); err != nil {
		logger.Error("failed to write report", "out", *out, "error", err)
		os.Exit(1)
	}
	logger.Info("batch complete", "dir", *dir, "out", *out, "images", stats.Loaded, "failed_files", stats.Failed)

	if !*watch {
		return
	}

	events, errs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
		Roots:      []string{*dir},
		SkipHidden: *skipHidden,
		Debounce:   *debounce,
	}, logger)
	if err != nil {
		logger.Error("failed to start watcher", "error", err)
		os.Exit(1)
	}
	logger.Info("watching for new labels", "dir", *dir)

	seen := map[string]bool{}
	for _, img := range images {
		seen[img.HashHex] = true
	}
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			logger.Warn("watcher error", "error", err)
		case path, ok := <-events:
			if !ok {
				return
			}
			img, err := loader.LoadPath(ctx, path)
			if err != nil {
				logger.Warn("skipped file", "path", path, "error", err)
				continue
			}
			if seen[img.HashHex] {
				continue
			}
			seen[img.HashHex] = true

			more, err := process(ctx, a, []ingest.Image{img})
			if err != nil {
				logger.Error("processing failed", "path", path, "error", err)
				continue
			}
			for i := range more {
				more[i].Outcome.Index = len(rows) + i
			}
			rows = append(rows, more...)
			if err := write(ctx, exporter, *out, rows); err != nil {
				logger.Error("failed to write report", "out", *out, "error", err)
			}
		}
	}
}

func process(ctx context.Context, a *app.App, images []ingest.Image) ([]export.Row, error) {
	data := make([][]byte, len(images))
	for i, img := range images {
		data[i] = img.Data
	}
	outcomes, err := a.Processor.ProcessImages(ctx, data)
	if err != nil {
		return nil, err
	}
	rows := make([]export.Row, len(outcomes))
	for i, o := range outcomes {
		rows[i] = export.Row{SourcePath: images[i].SourcePath, Outcome: o}
	}
	return rows, nil
}

func write(ctx context.Context, exporter *export.Service, path string, rows []export.Row) error {
	xlsx, err := exporter.ExportXLSX(ctx, rows)
	if err != nil {
		return err
	}
	return os.WriteFile(path, xlsx, 0o644)
}
