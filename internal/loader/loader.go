// Package loader fetches and parses batches of report files.
package loader

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"

	"github.com/ethpandaops/consulate-reports/constants"
	"github.com/ethpandaops/consulate-reports/internal/analysis"
	"github.com/ethpandaops/consulate-reports/internal/metrics"
)

var (
	// ErrNothingLoaded is returned when no file in a batch could be loaded.
	ErrNothingLoaded = errors.New(constants.ErrNothingLoaded)
	// ErrSuperseded is returned by a load that was cancelled by a newer one.
	ErrSuperseded = errors.New("load superseded by a newer load")
)

// FileError records why a single source was skipped.
type FileError struct {
	Source string
	Kind   string
	Err    error
}

func (e *FileError) Error() string {
	return fmt.Sprintf("%s error in %s: %v", e.Kind, e.Source, e.Err)
}

func (e *FileError) Unwrap() error {
	return e.Err
}

// Batch is the outcome of one load.
type Batch struct {
	ID        string
	Total     int
	Documents []analysis.SourceDocument
	Failures  []FileError
	Warnings  []string
	Duration  time.Duration
}

// Succeeded returns the number of sources that loaded.
func (b *Batch) Succeeded() int {
	return len(b.Documents)
}

// Loader loads batches with bounded parallelism. At most one load is in flight.
type Loader struct {
	concurrency int
	validator   *analysis.ShapeValidator
	metrics     *metrics.Metrics
	logger      logrus.FieldLogger

	mu         sync.Mutex
	generation uint64
	cancel     context.CancelFunc
}

// Option configures a Loader.
type Option func(*Loader)

// WithConcurrency bounds the number of parallel fetches.
func WithConcurrency(n int) Option {
	return func(l *Loader) {
		if n > 0 {
			l.concurrency = n
		}
	}
}

// WithValidator enables shape diagnostics for loaded documents.
func WithValidator(v *analysis.ShapeValidator) Option {
	return func(l *Loader) {
		l.validator = v
	}
}

// WithMetrics records load outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(l *Loader) {
		l.metrics = m
	}
}

// New creates a loader.
func New(logger logrus.FieldLogger, opts ...Option) *Loader {
	l := &Loader{
		concurrency: constants.DefaultFetchConcurrency,
		logger:      logger.WithField("component", "loader"),
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

type fileResult struct {
	doc      *analysis.Document
	failure  *FileError
	warnings []string
}

// Load fetches and parses every source. Failed sources are recorded and skipped.
// Starting a load cancels the one in progress, which then returns ErrSuperseded.
// ErrNothingLoaded is returned, together with the batch, when every source failed.
func (l *Loader) Load(ctx context.Context, sources []Source) (*Batch, error) {
	start := time.Now()

	ctx, span := otel.Tracer("consulate-reports").Start(ctx, "loader.Load")
	defer span.End()

	loadCtx, cancel := context.WithCancel(ctx)
	gen := l.begin(cancel)
	defer l.finish(gen, cancel)

	batch := &Batch{ID: uuid.NewString(), Total: len(sources)}
	log := l.logger.WithField("load_id", batch.ID)
	span.SetAttributes(attribute.String("load_id", batch.ID), attribute.Int("sources", len(sources)))

	log.WithField("files", len(sources)).Info("Loading reports")

	results := make([]fileResult, len(sources))
	var processed atomic.Int64

	g, gctx := errgroup.WithContext(loadCtx)
	g.SetLimit(l.concurrency)

	for i, src := range sources {
		i, src := i, src
		g.Go(func() error {
			results[i] = l.loadOne(gctx, src, log)

			n := processed.Add(1)
			log.WithFields(logrus.Fields{
				"processed": n,
				"total":     len(sources),
			}).Infof("Loading reports... (%d/%d files processed)", n, len(sources))

			return nil
		})
	}

	_ = g.Wait()

	batch.Duration = time.Since(start)

	if loadCtx.Err() != nil {
		if l.superseded(gen) {
			log.Info("Load superseded by a newer load")
			l.metrics.ObserveLoad(metrics.LoadSuperseded, batch.Duration)

			return nil, ErrSuperseded
		}

		l.metrics.ObserveLoad(metrics.LoadError, batch.Duration)
		span.SetStatus(codes.Error, "cancelled")

		return nil, fmt.Errorf("failed to load reports: %w", ctx.Err())
	}

	for i, r := range results {
		if r.failure != nil {
			batch.Failures = append(batch.Failures, *r.failure)
			continue
		}

		batch.Warnings = append(batch.Warnings, r.warnings...)
		batch.Documents = append(batch.Documents, analysis.SourceDocument{
			ID:       sources[i].Name(),
			Document: r.doc,
		})
	}

	span.SetAttributes(
		attribute.Int("loaded", batch.Succeeded()),
		attribute.Int("failed", len(batch.Failures)),
	)

	log.WithFields(logrus.Fields{
		"loaded":   batch.Succeeded(),
		"failed":   len(batch.Failures),
		"warnings": len(batch.Warnings),
		"duration": batch.Duration,
	}).Info("Finished loading reports")

	if batch.Succeeded() == 0 {
		l.metrics.ObserveLoad(metrics.LoadNothingLoaded, batch.Duration)
		span.SetStatus(codes.Error, constants.ErrNothingLoaded)

		return batch, fmt.Errorf("%w: %d of %d files failed", ErrNothingLoaded, len(batch.Failures), batch.Total)
	}

	l.metrics.ObserveLoad(metrics.LoadOK, batch.Duration)

	return batch, nil
}

// Cancel stops the load in progress, if any. The stopped load returns ErrSuperseded.
func (l *Loader) Cancel() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		l.generation++
		l.cancel()
		l.cancel = nil
	}
}

func (l *Loader) begin(cancel context.CancelFunc) uint64 {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.cancel != nil {
		l.logger.Debug("Cancelling load in progress")
		l.cancel()
	}

	l.generation++
	l.cancel = cancel

	return l.generation
}

func (l *Loader) finish(gen uint64, cancel context.CancelFunc) {
	l.mu.Lock()
	if l.generation == gen {
		l.cancel = nil
	}
	l.mu.Unlock()

	cancel()
}

func (l *Loader) superseded(gen uint64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	return l.generation != gen
}

func (l *Loader) loadOne(ctx context.Context, src Source, log logrus.FieldLogger) fileResult {
	ctx, span := otel.Tracer("consulate-reports").Start(ctx, "loader.File")
	defer span.End()

	span.SetAttributes(attribute.String("source", src.Name()))
	log = log.WithField("source", src.Name())

	data, err := src.Open(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		l.metrics.ObserveFile(constants.FailureFetch)

		if ctx.Err() == nil {
			log.WithError(err).Warn("Failed to load file")
		}

		return fileResult{failure: &FileError{Source: src.Name(), Kind: constants.FailureFetch, Err: err}}
	}

	doc, err := analysis.Decode(data)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		l.metrics.ObserveFile(constants.FailureParse)
		log.WithError(err).Error("Failed to parse file")

		return fileResult{failure: &FileError{Source: src.Name(), Kind: constants.FailureParse, Err: err}}
	}

	var warnings []string
	if l.validator != nil {
		if verr := l.validator.Validate(data); verr != nil {
			warnings = append(warnings, fmt.Sprintf("%s: %v", src.Name(), verr))
			log.WithError(verr).Debug("Document does not match the expected shape")
		}
	}

	l.metrics.ObserveFile("loaded")
	log.WithField("messages", len(doc.ProcessedMessages)).Debug("Loaded file")

	return fileResult{doc: doc, warnings: warnings}
}
