package core

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/consulate-reports/internal/analysis"
	"github.com/ethpandaops/consulate-reports/internal/filter"
	"github.com/ethpandaops/consulate-reports/internal/ingest"
	"github.com/ethpandaops/consulate-reports/internal/loader"
	"github.com/ethpandaops/consulate-reports/internal/metrics"
	"github.com/ethpandaops/consulate-reports/internal/reports"
)

var _ Tool = (*Viewer)(nil)

// Viewer owns the current dataset and runs load, filter and render passes over it.
type Viewer struct {
	logger     logrus.FieldLogger
	loader     BatchLoader
	sources    SourceFunc
	normalizer *ingest.Normalizer
	generator  reports.Generator
	metrics    *metrics.Metrics

	mu         sync.RWMutex
	dataset    *Dataset
	generation uint64
}

// Option configures a Viewer.
type Option func(*Viewer)

// WithMetrics records dataset and filter metrics.
func WithMetrics(m *metrics.Metrics) Option {
	return func(v *Viewer) {
		v.metrics = m
	}
}

// WithLoader replaces the batch loader.
func WithLoader(l BatchLoader) Option {
	return func(v *Viewer) {
		v.loader = l
	}
}

// WithSources replaces how sources are resolved.
func WithSources(fn SourceFunc) Option {
	return func(v *Viewer) {
		v.sources = fn
	}
}

// NewViewer creates a viewer from configuration.
func NewViewer(cfg Config, logger logrus.FieldLogger, opts ...Option) (*Viewer, error) {
	v := &Viewer{
		logger:     logger.WithField("component", "viewer"),
		normalizer: ingest.NewNormalizer(logger, ingest.WithConsulates(cfg.GetConsulates())),
		dataset:    emptyDataset(),
	}

	for _, opt := range opts {
		opt(v)
	}

	if v.loader == nil {
		loaderOpts := []loader.Option{
			loader.WithConcurrency(cfg.GetFetchConcurrency()),
			loader.WithMetrics(v.metrics),
		}

		if cfg.IsValidateShape() {
			validator, err := analysis.NewShapeValidator()
			if err != nil {
				return nil, fmt.Errorf("failed to create shape validator: %w", err)
			}
			loaderOpts = append(loaderOpts, loader.WithValidator(validator))
		}

		v.loader = loader.New(logger, loaderOpts...)
	}

	if v.sources == nil {
		v.sources = ConfigSources(cfg, loader.NewHTTPClient(cfg.GetFetchTimeout()))
	}

	generator, err := reports.NewGenerator(logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create report generator: %w", err)
	}
	v.generator = generator

	return v, nil
}

// Reload loads a fresh batch and publishes it, replacing the current dataset.
//
// When every file fails, a nothing-loaded dataset is published and returned
// together with loader.ErrNothingLoaded. A reload overtaken by a later Reload
// or Clear publishes nothing and returns loader.ErrSuperseded.
func (v *Viewer) Reload(ctx context.Context) (*Dataset, error) {
	gen := v.nextGeneration()

	sources, err := v.sources(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve report sources: %w", err)
	}

	batch, err := v.loader.Load(ctx, sources)
	switch {
	case errors.Is(err, loader.ErrNothingLoaded):
		ds := emptyDataset()
		ds.NothingLoaded = true
		ds.LoadedAt = time.Now()
		if batch != nil {
			ds.LoadID = batch.ID
			ds.Failures = batch.Failures
		}

		if pubErr := v.publish(gen, ds); pubErr != nil {
			return nil, pubErr
		}
		v.logger.WithError(err).Warn("No report files could be loaded")

		return ds, err
	case err != nil:
		return nil, err
	}

	result := v.normalizer.Normalize(ctx, batch.Documents)

	ds := &Dataset{
		LoadID:     batch.ID,
		LoadedAt:   time.Now(),
		Files:      batch.Succeeded(),
		Reports:    result.Reports,
		Consulates: result.Consulates,
		Stats:      result.Stats,
		Failures:   batch.Failures,
		Warnings:   batch.Warnings,
	}

	if err := v.publish(gen, ds); err != nil {
		v.logger.WithField("load_id", ds.LoadID).Info("Discarding reports from a superseded reload")
		return nil, err
	}

	v.logger.WithFields(logrus.Fields{
		"load_id":    ds.LoadID,
		"files":      ds.Files,
		"failed":     len(ds.Failures),
		"reports":    len(ds.Reports),
		"consulates": len(ds.Consulates),
		"skipped":    ds.Stats.Skipped,
	}).Info("Loaded reports")

	return ds, nil
}

func (v *Viewer) nextGeneration() uint64 {
	v.mu.Lock()
	defer v.mu.Unlock()

	v.generation++

	return v.generation
}

// publish swaps in ds unless a later Reload or Clear has started since gen.
func (v *Viewer) publish(gen uint64, ds *Dataset) error {
	v.mu.Lock()
	if gen != v.generation {
		v.mu.Unlock()
		return loader.ErrSuperseded
	}
	v.dataset = ds
	v.mu.Unlock()

	v.metrics.SetDataset(len(ds.Reports), len(ds.Consulates))
	if !ds.NothingLoaded {
		v.metrics.MarkLoadSuccess(ds.LoadedAt)
	}

	return nil
}

// Dataset returns the current dataset.
func (v *Viewer) Dataset() *Dataset {
	v.mu.RLock()
	defer v.mu.RUnlock()

	return v.dataset
}

// Clear drops all loaded reports and consulates and stops any reload in progress.
func (v *Viewer) Clear() {
	ds := emptyDataset()

	if c, ok := v.loader.(canceler); ok {
		c.Cancel()
	}

	v.mu.Lock()
	v.generation++
	v.dataset = ds
	v.mu.Unlock()

	v.metrics.SetDataset(0, 0)
	v.logger.Info("Cleared all data")
}

// Query returns the current dataset and those of its reports that match criteria.
func (v *Viewer) Query(criteria filter.Criteria, surface string) (*Dataset, []ingest.Report) {
	ds := v.Dataset()
	matched := filter.Apply(ds.Reports, criteria)
	v.metrics.ObserveFilter(surface, len(matched))

	return ds, matched
}

// View filters the current dataset and builds the page view.
func (v *Viewer) View(criteria filter.Criteria, interactive bool, surface string) *reports.PageView {
	ds, matched := v.Query(criteria, surface)

	return v.generator.BuildView(matched, ViewInput(ds, criteria, interactive))
}

// Generator returns the report generator.
func (v *Viewer) Generator() reports.Generator {
	return v.generator
}

// ViewInput describes ds for the presenter.
func ViewInput(ds *Dataset, criteria filter.Criteria, interactive bool) reports.ViewInput {
	failures := make([]reports.FailureView, 0, len(ds.Failures))
	for _, f := range ds.Failures {
		failures = append(failures, reports.FailureView{Source: f.Source, Kind: f.Kind, Message: f.Err.Error()})
	}

	return reports.ViewInput{
		Criteria:      criteria,
		Consulates:    ds.Consulates,
		Files:         ds.Files,
		Total:         len(ds.Reports),
		Failures:      failures,
		Warnings:      ds.Warnings,
		NothingLoaded: ds.NothingLoaded,
		Interactive:   interactive,
	}
}
