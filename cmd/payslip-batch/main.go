package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/joseph-ayodele/payslip-tracker/constants"
	"github.com/joseph-ayodele/payslip-tracker/internal/async"
	"github.com/joseph-ayodele/payslip-tracker/internal/common"
	"github.com/joseph-ayodele/payslip-tracker/internal/ingest"
	"github.com/joseph-ayodele/payslip-tracker/internal/server"
)

// printError prints an error message to stderr, falling back to stdout if stderr fails
func printError(format string, args ...interface{}) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		fmt.Printf(format, args...)
	}
}

type summary struct {
	mu        sync.Mutex
	processed int
	valid     int
	invalid   int
	stored    int
	failures  int
}

func (s *summary) add(r async.Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if r.Err != nil {
		s.failures++
		return
	}
	s.processed++
	if r.Outcome.Verdict.IsValid {
		s.valid++
	} else {
		s.invalid++
	}
	if r.Outcome.Payslip != nil {
		s.stored++
	}
}

func main() {
	// Parse CLI flags
	var (
		inmem     = flag.Bool("inmem", false, "use in-memory SQLite database")
		dir       = flag.String("dir", "", "directory to process payslips from (required)")
		out       = flag.String("out", "", "output XLSX file path (optional, defaults to parent directory)")
		period    = flag.String("period", "", "export only this period (MM/YYYY)")
		onlyValid = flag.Bool("only-valid", false, "store only payslips that pass validation")
	)
	flag.Parse()

	// Validate required flags
	if *dir == "" {
		printError("Error: --dir is required\n")
		os.Exit(1)
	}
	if *period != "" {
		if err := common.NewValidator().Field("period", *period, common.Period).Error(); err != nil {
			printError("Error: invalid --period: %v\n", err)
			os.Exit(1)
		}
	}

	// If output file not specified, use parent directory with default filename
	if *out == "" {
		parentDir := filepath.Dir(filepath.Clean(*dir))
		*out = filepath.Join(parentDir, "payslips.xlsx")
	}

	cfg := common.LoadConfig()
	if *inmem {
		cfg.Database.Driver = common.DriverSQLite
		cfg.Database.DSN = "file:payslips?mode=memory&cache=shared"
	}
	if *onlyValid {
		cfg.Extraction.PersistMode = constants.PersistValid
	}
	if err := cfg.Validate(); err != nil {
		printError("Error: %v\n", err)
		os.Exit(1)
	}

	// Setup logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := server.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	// Scan directory
	logger.Info("starting scan", "dir", *dir)
	files, stats, err := ingest.ScanDirectory(*dir, true)
	if err != nil {
		logger.Error("failed to scan directory", "error", err)
		os.Exit(1)
	}
	logger.Info("scan complete",
		"scanned", stats.Scanned,
		"matched", stats.Matched,
		"failed", stats.Failed)

	var sum summary
	queue := async.NewProcessorQueue(app.Processor, logger,
		async.WithWorkers(cfg.Processing.Workers),
		async.WithQueueSize(cfg.Processing.QueueSize),
		async.WithProcessTimeout(cfg.Processing.ProcessTimeout),
		async.WithResultHandler(sum.add),
	)

	seen := map[string]string{}
	skipped := 0
	for _, f := range files {
		if f.Err != "" {
			sum.add(async.Result{Err: errors.New(f.Err)})
			continue
		}
		if first, dup := seen[f.HashHex]; dup {
			logger.Info("skipping duplicate file", "path", f.Path, "same_as", first)
			skipped++
			continue
		}
		seen[f.HashHex] = f.Path

		if _, err := ingest.ValidateUpload(f.Path, f.Size, cfg.Server.MaxUploadBytes); err != nil {
			logger.Warn("skipping file", "path", f.Path, "error", err)
			sum.add(async.Result{Err: err})
			continue
		}
		data, err := os.ReadFile(f.Path)
		if err != nil {
			logger.Error("failed to read file", "path", f.Path, "error", err)
			sum.add(async.Result{Err: err})
			continue
		}
		if err := queue.Enqueue(ctx, async.Job{Filename: f.Path, Data: data}); err != nil {
			logger.Error("failed to enqueue file", "path", f.Path, "error", err)
			break
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Processing.ProcessTimeout+30*time.Second)
	queue.Shutdown(shutdownCtx)
	cancel()

	// Export to XLSX
	logger.Info("exporting to XLSX", "output", *out, "period", *period)
	xlsxBytes, err := app.Exporter.ExportPayslipsXLSX(ctx, *period)
	if err != nil {
		logger.Error("failed to export payslips", "error", err)
		os.Exit(1)
	}
	if err := os.WriteFile(*out, xlsxBytes, 0o644); err != nil {
		logger.Error("failed to write output file", "error", err)
		os.Exit(1)
	}

	logger.Info("batch processing complete",
		"files_found", len(files),
		"files_processed", sum.processed,
		"failures", sum.failures,
		"output_file", *out)

	fmt.Printf("Batch processing complete!\n")
	fmt.Printf("- Files found: %d (duplicates skipped: %d)\n", len(files), skipped)
	fmt.Printf("- Files processed: %d (valid: %d, invalid: %d)\n", sum.processed, sum.valid, sum.invalid)
	fmt.Printf("- Payslips stored: %d\n", sum.stored)
	fmt.Printf("- Failures: %d\n", sum.failures)
	fmt.Printf("- Output: %s\n", *out)
}
