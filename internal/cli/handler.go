package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/consulate-reports/internal/config"
	"github.com/ethpandaops/consulate-reports/internal/core"
	"github.com/ethpandaops/consulate-reports/internal/loader"
	"github.com/ethpandaops/consulate-reports/internal/metrics"
	"github.com/ethpandaops/consulate-reports/internal/server"
)

// Handler manages CLI operations and command routing
type Handler struct {
	logger logrus.FieldLogger
}

// NewHandler creates a new CLI handler
func NewHandler(logger logrus.FieldLogger) *Handler {
	return &Handler{
		logger: logger.WithField("component", "cli_handler"),
	}
}

// Run executes the main application logic based on configuration
func (h *Handler) Run(cfg *config.DefaultConfig) error {
	ctx, cancel := h.setupGracefulShutdown()
	defer cancel()

	return h.Execute(ctx, cfg)
}

// Execute runs the configured mode until it completes or ctx is cancelled.
func (h *Handler) Execute(ctx context.Context, cfg *config.DefaultConfig) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}

	h.logger.WithField("mode", cfg.GetMode()).Info("Starting consulate reports tool")

	switch cfg.GetMode() {
	case config.ModeExport:
		return h.handleExportMode(ctx, cfg)
	case config.ModeServe:
		return h.handleServeMode(ctx, cfg)
	default:
		return h.handleRenderMode(ctx, cfg)
	}
}

// handleRenderMode writes the static HTML report and its JSON data file.
// A batch where nothing loaded still gets a page explaining so.
func (h *Handler) handleRenderMode(ctx context.Context, cfg *config.DefaultConfig) error {
	viewer, err := core.NewViewer(cfg, h.logger)
	if err != nil {
		return fmt.Errorf("failed to create viewer: %w", err)
	}

	_, loadErr := viewer.Reload(ctx)
	if loadErr != nil && !errors.Is(loadErr, loader.ErrNothingLoaded) {
		return fmt.Errorf("failed to load reports: %w", loadErr)
	}

	criteria := cfg.GetCriteria()
	ds, matched := viewer.Query(criteria, "render")

	htmlFile, err := viewer.Generator().GenerateReport(matched, core.ViewInput(ds, criteria, false), cfg.GetHTMLOutput(), cfg.GetDataOutput())
	if err != nil {
		return fmt.Errorf("failed to generate report: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"output": htmlFile,
		"shown":  len(matched),
		"total":  len(ds.Reports),
	}).Info("Render complete")

	if loadErr != nil {
		return fmt.Errorf("failed to load reports: %w", loadErr)
	}

	return nil
}

// handleExportMode writes the filtered reports as an XLSX workbook.
func (h *Handler) handleExportMode(ctx context.Context, cfg *config.DefaultConfig) error {
	viewer, err := core.NewViewer(cfg, h.logger)
	if err != nil {
		return fmt.Errorf("failed to create viewer: %w", err)
	}

	if _, err := viewer.Reload(ctx); err != nil {
		return fmt.Errorf("failed to load reports: %w", err)
	}

	_, matched := viewer.Query(cfg.GetCriteria(), "xlsx")

	output, err := viewer.Generator().GenerateXLSX(matched, cfg.GetXLSXOutput())
	if err != nil {
		return fmt.Errorf("failed to export workbook: %w", err)
	}

	h.logger.WithFields(logrus.Fields{
		"output": output,
		"rows":   len(matched),
	}).Info("Export complete")

	return nil
}

// handleServeMode loads the initial batch and serves the interactive viewer.
// The server keeps running when nothing loaded so a later reload can recover.
func (h *Handler) handleServeMode(ctx context.Context, cfg *config.DefaultConfig) error {
	m := metrics.New()

	viewer, err := core.NewViewer(cfg, h.logger, core.WithMetrics(m))
	if err != nil {
		return fmt.Errorf("failed to create viewer: %w", err)
	}

	if _, err := viewer.Reload(ctx); err != nil {
		if !errors.Is(err, loader.ErrNothingLoaded) {
			return fmt.Errorf("failed to load reports: %w", err)
		}

		h.logger.WithError(err).Warn("Starting without data")
	}

	srv := server.New(viewer, m, h.logger)

	return srv.Run(ctx, cfg.GetListenAddress())
}

// setupGracefulShutdown configures signal handling for graceful shutdown
func (h *Handler) setupGracefulShutdown() (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(context.Background())

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-sigChan:
			h.logger.Info("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}

		signal.Stop(sigChan)
	}()

	return ctx, cancel
}
