package ingest

import "github.com/ethpandaops/consulate-reports/internal/analysis"

// Report is the normalized form of one non-skipped message.
// Reports are immutable once Normalize returns them.
type Report struct {
	SourceID     string             `json:"source_id"`
	MessageID    string             `json:"message_id"`
	Date         string             `json:"date"`
	OriginalText string             `json:"original_text"`
	Hashtags     []string           `json:"hashtags"`
	Questions    []string           `json:"questions"`
	Consulate    string             `json:"consulate,omitempty"`
	Analysis     *analysis.Analysis `json:"analysis"`
}

// HasQuestions reports whether at least one interview question was recorded.
func (r *Report) HasQuestions() bool {
	return len(r.Questions) > 0
}

// HasConsulate reports whether a consulate tag was found.
func (r *Report) HasConsulate() bool {
	return r.Consulate != ""
}

// Stats summarizes one normalization pass.
type Stats struct {
	Documents       int `json:"documents"`
	Messages        int `json:"messages"`
	Skipped         int `json:"skipped"`
	WithoutAnalysis int `json:"without_analysis"`
	Reports         int `json:"reports"`
	WithQuestions   int `json:"with_questions"`
}

// Result is everything one ingestion pass produces.
type Result struct {
	Reports    []Report `json:"reports"`
	Consulates []string `json:"consulates"`
	Stats      Stats    `json:"stats"`
}
