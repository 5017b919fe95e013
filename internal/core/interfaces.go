package core

import (
	"context"

	"github.com/ethpandaops/consulate-reports/internal/config"
	"github.com/ethpandaops/consulate-reports/internal/filter"
	"github.com/ethpandaops/consulate-reports/internal/ingest"
	"github.com/ethpandaops/consulate-reports/internal/loader"
	"github.com/ethpandaops/consulate-reports/internal/reports"
)

// Tool defines the interface the CLI and HTTP server drive.
type Tool interface {
	Reload(ctx context.Context) (*Dataset, error)
	Dataset() *Dataset
	Query(criteria filter.Criteria, surface string) (*Dataset, []ingest.Report)
	View(criteria filter.Criteria, interactive bool, surface string) *reports.PageView
	Clear()
	Generator() reports.Generator
}

// Config is an alias for the config package interface.
type Config = config.Config

// BatchLoader loads a batch of report files.
type BatchLoader interface {
	Load(ctx context.Context, sources []loader.Source) (*loader.Batch, error)
}

// canceler is implemented by loaders that can abort the load in progress.
type canceler interface {
	Cancel()
}

// SourceFunc resolves the sources of the next load.
type SourceFunc func(ctx context.Context) ([]loader.Source, error)
