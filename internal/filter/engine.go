package filter

import (
	"sort"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/ethpandaops/consulate-reports/internal/ingest"
)

// Apply returns the reports passing every active axis of c, in input order.
// It never modifies reports.
//
// Dates are compared by calendar day and both bounds are inclusive. A report
// whose date cannot be parsed is not excluded by the date axis.
func Apply(reports []ingest.Report, c Criteria) []ingest.Report {
	p := newPredicate(c)

	out := make([]ingest.Report, 0, len(reports))
	for i := range reports {
		if p.match(&reports[i]) {
			out = append(out, reports[i])
		}
	}

	return out
}

// Match reports whether a single report passes c.
func Match(r *ingest.Report, c Criteria) bool {
	return newPredicate(c).match(r)
}

type predicate struct {
	search        string
	consulate     string
	questionsOnly bool
	hasFrom       bool
	hasTo         bool
	from          time.Time
	to            time.Time
}

func newPredicate(c Criteria) predicate {
	p := predicate{
		search:        strings.ToLower(c.SearchText),
		consulate:     c.Consulate,
		questionsOnly: c.QuestionsOnly,
	}

	if c.DateFrom != nil {
		p.hasFrom, p.from = true, day(*c.DateFrom)
	}
	if c.DateTo != nil {
		p.hasTo, p.to = true, day(*c.DateTo)
	}

	return p
}

func (p predicate) match(r *ingest.Report) bool {
	if p.questionsOnly && !r.HasQuestions() {
		return false
	}

	if p.search != "" && !strings.Contains(strings.ToLower(r.OriginalText), p.search) {
		return false
	}

	if p.consulate != "" && r.Consulate != p.consulate {
		return false
	}

	if !p.hasFrom && !p.hasTo {
		return true
	}

	t, ok := ParseDate(r.Date)
	if !ok {
		return true
	}

	d := day(t)
	if p.hasFrom && d.Before(p.from) {
		return false
	}
	if p.hasTo && d.After(p.to) {
		return false
	}

	return true
}

// ConsulateOption is one entry of a consulate selector.
type ConsulateOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// ConsulateOptions returns sorted selector entries with a capitalized label.
func ConsulateOptions(consulates []string) []ConsulateOption {
	sorted := append([]string(nil), consulates...)
	sort.Strings(sorted)

	options := make([]ConsulateOption, 0, len(sorted))
	for _, c := range sorted {
		options = append(options, ConsulateOption{Value: c, Label: capitalize(c)})
	}

	return options
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}

	return string(unicode.ToUpper(r)) + s[size:]
}
