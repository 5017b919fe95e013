package reports

import (
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/consulate-reports/constants"
	"github.com/ethpandaops/consulate-reports/internal/analysis"
	"github.com/ethpandaops/consulate-reports/internal/filter"
	"github.com/ethpandaops/consulate-reports/internal/ingest"
)

// DefaultDataProcessor implements the DataProcessor interface.
type DefaultDataProcessor struct {
	logger logrus.FieldLogger
}

// NewDefaultDataProcessor creates a new data processor.
func NewDefaultDataProcessor(logger logrus.FieldLogger) *DefaultDataProcessor {
	return &DefaultDataProcessor{
		logger: logger.WithField("component", "data_processor"),
	}
}

// BuildView turns filtered reports into the page view model.
func (dp *DefaultDataProcessor) BuildView(filtered []ingest.Report, in ViewInput) *PageView {
	view := &PageView{
		GeneratedAt: time.Now(),
		Stats: Stats{
			Files:      in.Files,
			Reports:    in.Total,
			Consulates: len(in.Consulates),
			Shown:      len(filtered),
		},
		Criteria:         in.Criteria,
		ConsulateOptions: filter.ConsulateOptions(in.Consulates),
		Cards:            make([]CardView, 0, len(filtered)),
		Failures:         in.Failures,
		Warnings:         in.Warnings,
		NothingLoaded:    in.NothingLoaded,
		Interactive:      in.Interactive,
	}

	for i := range filtered {
		view.Cards = append(view.Cards, dp.buildCard(i, &filtered[i]))
	}

	dp.logger.WithFields(logrus.Fields{
		"cards":          len(view.Cards),
		"nothing_loaded": view.NothingLoaded,
	}).Debug("Built page view")

	return view
}

func (dp *DefaultDataProcessor) buildCard(index int, r *ingest.Report) CardView {
	return CardView{
		Index:     index,
		Date:      r.Date,
		Consulate: r.Consulate,
		MessageID: r.MessageID,
		Source:    r.SourceID,
		Questions: r.Questions,
		Excerpt:   Excerpt(r.OriginalText, constants.ExcerptLength),
		Hashtags:  r.Hashtags,
		Details:   BuildDetails(r),
	}
}

// Excerpt returns the first n runes of s, followed by "..." when s is longer.
func Excerpt(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}

	return string(runes[:n]) + "..."
}

// BuildDetails builds the detailed analysis sections of a report.
// Sections with nothing to show are left out; an empty result means
// there is no detailed analysis.
func BuildDetails(r *ingest.Report) []SectionView {
	var sections []SectionView

	if r.OriginalText != "" {
		sections = append(sections, SectionView{Title: "Original Message", Text: r.OriginalText})
	}

	if r.Analysis == nil {
		return sections
	}

	// Sub-reports without any populated block are skipped; the rest are numbered consecutively.
	shown := 0
	for i := range r.Analysis.Reports {
		children := subReportSections(&r.Analysis.Reports[i])
		if len(children) == 0 {
			continue
		}

		shown++
		sections = append(sections, SectionView{
			Title:    fmt.Sprintf("Report %d", shown),
			Children: children,
		})
	}

	if seg := r.Analysis.Segmentation; seg != nil && len(seg.Segments) > 0 {
		section := SectionView{Title: "Text Segmentation"}
		for _, s := range seg.Segments {
			excerpt := s.TextExcerpt
			if excerpt == "" {
				excerpt = constants.NotAvailable
			}
			section.Fields = append(section.Fields, FieldView{Label: s.Label, Value: excerpt})
		}
		sections = append(sections, section)
	}

	return sections
}

func subReportSections(sub *analysis.SubReport) []SectionView {
	var sections []SectionView

	add := func(s SectionView) {
		if s.Text != "" || len(s.Fields) > 0 || len(s.Items) > 0 {
			sections = append(sections, s)
		}
	}

	if sub.HasInterviewInfo() {
		info := SectionView{Title: "Interview Info"}
		info.Fields = appendField(info.Fields, "City", sub.InterviewCity)
		info.Fields = appendField(info.Fields, "Date", sub.InterviewDate)
		if sub.Examiner != nil {
			info.Fields = appendField(info.Fields, "Examiner", sub.Examiner.Name)
			info.Fields = appendField(info.Fields, "Examiner Title", sub.Examiner.Label)
		}
		info.Fields = appendField(info.Fields, "Outcome", sub.Outcome)
		if sub.DurationMinutes != nil && *sub.DurationMinutes != 0 {
			info.Fields = appendField(info.Fields, "Duration", FormatNumber(*sub.DurationMinutes)+" minutes")
		}
		add(info)
	}

	if sub.Questions != nil {
		add(SectionView{Title: "Questions (Raw List)", Items: sub.Questions.RawList})
		add(SectionView{Title: "Question Topics", Items: sub.Questions.CanonicalTopics})
	}

	if sub.Documents != nil {
		add(SectionView{Title: "Documents", Items: sub.Documents.Mentioned})
	}

	if c := sub.Candidate; c != nil {
		candidate := SectionView{Title: "Candidate Info"}
		candidate.Fields = appendField(candidate.Fields, "Who", c.Who)
		candidate.Fields = appendField(candidate.Fields, "Gender", c.Gender)
		candidate.Fields = appendField(candidate.Fields, "Age", c.Age)
		candidate.Fields = appendField(candidate.Fields, "Polish Study", c.PolishStudy)
		add(candidate)
	}

	add(SectionView{Title: "Process Notes", Text: sub.QueueAndProcessNotes})

	if sub.HasNextSteps() {
		next := SectionView{Title: "Next Steps"}
		next.Fields = appendField(next.Fields, "Decision/Pickup Date", sub.NextSteps.DecisionOrPickupDate)
		next.Fields = appendField(next.Fields, "Promised Action", sub.NextSteps.PromisedAction)
		add(next)
	}

	add(SectionView{Title: "Tips & Notes", Text: sub.TipsAndNotes})

	if sub.Confidence != nil && *sub.Confidence != 0 {
		add(SectionView{Title: "Analysis Confidence", Text: FormatPercent(*sub.Confidence)})
	}

	return sections
}

func appendField(fields []FieldView, label, value string) []FieldView {
	if value == "" {
		return fields
	}

	return append(fields, FieldView{Label: label, Value: value})
}

// FormatNumber renders a float without trailing zeros.
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// FormatPercent renders a 0..1 ratio as a whole percentage.
func FormatPercent(ratio float64) string {
	return fmt.Sprintf("%d%%", int64(math.Round(ratio*100)))
}
