package reports

import (
	"time"

	"github.com/ethpandaops/consulate-reports/internal/filter"
)

// PageView is everything the report template renders.
type PageView struct {
	GeneratedAt      time.Time
	Stats            Stats
	Criteria         filter.Criteria
	ConsulateOptions []filter.ConsulateOption
	Cards            []CardView
	Failures         []FailureView
	Warnings         []string
	NothingLoaded    bool
	Interactive      bool
	DataFile         string
}

// Stats are the counters shown above the report list.
type Stats struct {
	Files      int `json:"files"`
	Reports    int `json:"reports"`
	Consulates int `json:"consulates"`
	Shown      int `json:"shown"`
}

// FailureView describes a file that could not be loaded.
type FailureView struct {
	Source  string
	Kind    string
	Message string
}

// CardView is one report in the list. Index is its position in the filtered
// list and keys the expand/collapse toggle.
type CardView struct {
	Index     int
	Date      string
	Consulate string
	MessageID string
	Source    string
	Questions []string
	Excerpt   string
	Hashtags  []string
	Details   []SectionView
}

// SectionView is one block of the detailed analysis.
type SectionView struct {
	Title    string
	Text     string
	Fields   []FieldView
	Items    []string
	Children []SectionView
}

// FieldView is a labelled value.
type FieldView struct {
	Label string
	Value string
}

// ViewInput carries what BuildView needs besides the filtered reports.
type ViewInput struct {
	Criteria      filter.Criteria
	Consulates    []string
	Files         int
	Total         int
	Failures      []FailureView
	Warnings      []string
	NothingLoaded bool
	Interactive   bool
}
