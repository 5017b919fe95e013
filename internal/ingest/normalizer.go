// Package ingest flattens processed-message documents into a uniform list of reports.
package ingest

import (
	"context"
	"sort"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ethpandaops/consulate-reports/constants"
	"github.com/ethpandaops/consulate-reports/internal/analysis"
)

// Normalizer turns parsed documents into reports.
type Normalizer struct {
	matcher *ConsulateMatcher
	logger  logrus.FieldLogger
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithConsulates overrides the known consulate fragments.
func WithConsulates(fragments []string) Option {
	return func(n *Normalizer) {
		n.matcher = NewConsulateMatcher(fragments)
	}
}

// NewNormalizer creates a normalizer using the built-in consulate list unless overridden.
func NewNormalizer(logger logrus.FieldLogger, opts ...Option) *Normalizer {
	n := &Normalizer{
		matcher: NewConsulateMatcher(constants.KnownConsulates),
		logger:  logger.WithField("component", "normalizer"),
	}

	for _, opt := range opts {
		opt(n)
	}

	return n
}

// Normalize flattens docs into reports and collects the consulates found.
//
// A message becomes a report iff it has an analysis that is not marked skip.
// Reports keep document order and are never deduplicated. The consulate set is
// built from scratch on every call.
func (n *Normalizer) Normalize(ctx context.Context, docs []analysis.SourceDocument) Result {
	_, span := otel.Tracer("consulate-reports").Start(ctx, "ingest.Normalize")
	defer span.End()

	result := Result{Reports: make([]Report, 0)}
	consulates := make(map[string]struct{})

	for _, src := range docs {
		if src.Document == nil {
			n.logger.WithField("source", src.ID).Debug("Skipping absent document")
			continue
		}

		result.Stats.Documents++
		before := len(result.Reports)

		for _, msg := range src.Document.ProcessedMessages {
			result.Stats.Messages++

			switch {
			case msg.Analysis == nil:
				result.Stats.WithoutAnalysis++
				continue
			case msg.Analysis.Skip:
				result.Stats.Skipped++
				continue
			}

			report := n.buildReport(src.ID, msg)
			if report.HasConsulate() {
				consulates[report.Consulate] = struct{}{}
			}
			if report.HasQuestions() {
				result.Stats.WithQuestions++
			}

			result.Reports = append(result.Reports, report)
		}

		n.logger.WithFields(logrus.Fields{
			"source":  src.ID,
			"reports": len(result.Reports) - before,
		}).Debug("Normalized document")
	}

	result.Stats.Reports = len(result.Reports)
	result.Consulates = make([]string, 0, len(consulates))
	for c := range consulates {
		result.Consulates = append(result.Consulates, c)
	}
	sort.Strings(result.Consulates)

	span.SetAttributes(
		attribute.Int("documents", result.Stats.Documents),
		attribute.Int("reports", result.Stats.Reports),
		attribute.Int("consulates", len(result.Consulates)),
	)

	return result
}

func (n *Normalizer) buildReport(sourceID string, msg analysis.Message) Report {
	hashtags := msg.Original.Hashtags
	if hashtags == nil {
		hashtags = []string{}
	}

	questions := msg.Analysis.RawQuestions()
	if questions == nil {
		questions = []string{}
	}

	report := Report{
		SourceID:     sourceID,
		MessageID:    msg.Original.ID,
		Date:         msg.Original.DateFormatted,
		OriginalText: msg.Original.Text,
		Hashtags:     hashtags,
		Questions:    questions,
		Analysis:     msg.Analysis,
	}

	if consulate, ok := n.matcher.Match(hashtags); ok {
		report.Consulate = consulate
	}

	return report
}
