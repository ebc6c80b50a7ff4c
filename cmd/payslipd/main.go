package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/joseph-ayodele/payslip-tracker/internal/async"
	"github.com/joseph-ayodele/payslip-tracker/internal/common"
	"github.com/joseph-ayodele/payslip-tracker/internal/ingest"
	svc "github.com/joseph-ayodele/payslip-tracker/internal/server"
)

func main() {
	cfg := common.LoadConfig()

	// Setup structured logger that outputs messages with variables but no time
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if a.Key == slog.TimeKey {
				return slog.Attr{}
			}
			return a
		},
	}))
	slog.SetDefault(logger)

	if err := cfg.Validate(); err != nil {
		logger.Error("invalid configuration", "error", err)
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := svc.NewApp(ctx, cfg, logger)
	if err != nil {
		logger.Error("failed to initialize", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	// Ping DB to ensure connectivity
	if err := svc.PingDB(ctx, app.DB, logger, 5*time.Second); err != nil {
		logger.Error("failed to ping database", "error", err)
		os.Exit(1)
	}

	queue := async.NewProcessorQueue(app.Processor, logger,
		async.WithWorkers(cfg.Processing.Workers),
		async.WithQueueSize(cfg.Processing.QueueSize),
		async.WithProcessTimeout(cfg.Processing.ProcessTimeout),
	)

	errCh := make(chan error, 2)

	// gRPC server
	var grpcStop func()
	if addr := cfg.Server.GRPCAddr; addr != "" {
		lis, err := net.Listen("tcp", addr)
		if err != nil {
			logger.Error("failed to listen on address", "addr", addr, "error", err)
			os.Exit(1)
		}
		grpcServer, _ := svc.NewGRPCServer(svc.NewPayslipServer(app.Processor, app.Payslips, app.Exporter, logger), logger)
		grpcStop = grpcServer.GracefulStop
		logger.Info("grpc listening", "addr", addr)
		go func() {
			if err := grpcServer.Serve(lis); err != nil {
				errCh <- err
			}
		}()
	}

	// HTTP server
	var httpServer *http.Server
	if addr := cfg.Server.HTTPAddr; addr != "" {
		if cfg.LogLevel > slog.LevelDebug {
			gin.SetMode(gin.ReleaseMode)
		}
		handler := svc.NewHTTPHandler(svc.HTTPConfig{
			Processor:      app.Processor,
			Payslips:       app.Payslips,
			Logs:           app.Logs,
			Exporter:       app.Exporter,
			DB:             app.DB,
			MaxUploadBytes: cfg.Server.MaxUploadBytes,
		}, logger)
		httpServer = &http.Server{
			Addr:              addr,
			Handler:           handler.Router(),
			ReadHeaderTimeout: 10 * time.Second,
		}
		logger.Info("http listening", "addr", addr)
		go func() {
			if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()
	}

	// Watch mode
	if dir := cfg.Processing.WatchDir; dir != "" {
		events, watchErrs, err := ingest.StartWatcher(ctx, ingest.WatchConfig{
			Roots:       []string{dir},
			InitialScan: true,
			Debounce:    500 * time.Millisecond,
			SkipHidden:  true,
		}, logger)
		if err != nil {
			logger.Error("failed to start watcher", "dir", dir, "error", err)
			os.Exit(1)
		}
		logger.Info("watching directory", "dir", dir)
		go feedQueue(ctx, queue, events, cfg.Server.MaxUploadBytes, logger)
		go func() {
			for err := range watchErrs {
				logger.Warn("watch error", "error", err)
			}
		}()
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down")
	case err := <-errCh:
		logger.Error("server error", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if httpServer != nil {
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Warn("http shutdown", "error", err)
		}
	}
	if grpcStop != nil {
		grpcStop()
	}
	queue.Shutdown(shutdownCtx)
	logger.Info("stopped")
}

func feedQueue(ctx context.Context, queue async.Queue, paths <-chan string, maxBytes int64, logger *slog.Logger) {
	for p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			logger.Warn("watched file vanished", "path", p, "error", err)
			continue
		}
		if _, err := ingest.ValidateUpload(p, info.Size(), maxBytes); err != nil {
			logger.Warn("skipping watched file", "path", p, "error", err)
			continue
		}
		data, err := os.ReadFile(p)
		if err != nil {
			logger.Error("failed to read watched file", "path", p, "error", err)
			continue
		}
		job := async.Job{Filename: filepath.Base(p), Data: data}
		if err := queue.Enqueue(ctx, job); err != nil {
			logger.Warn("failed to enqueue watched file", "path", p, "error", err)
			return
		}
	}
}
