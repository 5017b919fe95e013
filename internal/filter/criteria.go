// Package filter selects reports matching a set of criteria.
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/ethpandaops/consulate-reports/constants"
)

const criteriaDateLayout = "2006-01-02"

// Criteria are the recognized filter axes. Zero values disable an axis.
type Criteria struct {
	SearchText    string     `json:"search_text,omitempty"`
	Consulate     string     `json:"consulate,omitempty"`
	QuestionsOnly bool       `json:"questions_only"`
	DateFrom      *time.Time `json:"date_from,omitempty"`
	DateTo        *time.Time `json:"date_to,omitempty"`
}

// DefaultCriteria is the initial view: only reports that recorded questions.
func DefaultCriteria() Criteria {
	return Criteria{QuestionsOnly: true}
}

// Active reports whether any axis would exclude something.
func (c Criteria) Active() bool {
	return c.SearchText != "" || c.Consulate != "" || c.QuestionsOnly || c.DateFrom != nil || c.DateTo != nil
}

// QuestionsValue returns the viewer's questions-filter value for these criteria.
func (c Criteria) QuestionsValue() string {
	if c.QuestionsOnly {
		return constants.QuestionsFilterWith
	}

	return constants.QuestionsFilterAll
}

// FromValue formats DateFrom as YYYY-MM-DD, or "" when unset.
func (c Criteria) FromValue() string {
	return formatDay(c.DateFrom)
}

// ToValue formats DateTo as YYYY-MM-DD, or "" when unset.
func (c Criteria) ToValue() string {
	return formatDay(c.DateTo)
}

func (c Criteria) String() string {
	return fmt.Sprintf("search=%q consulate=%q questions=%s from=%s to=%s",
		c.SearchText, c.Consulate, c.QuestionsValue(), c.FromValue(), c.ToValue())
}

// ParseQuestionsValue maps the viewer's questions-filter value to QuestionsOnly.
// An empty value selects the default view.
func ParseQuestionsValue(value string) (bool, error) {
	switch value {
	case "", constants.QuestionsFilterWith:
		return true, nil
	case constants.QuestionsFilterAll:
		return false, nil
	default:
		return false, fmt.Errorf(constants.ErrInvalidQuestionsValue)
	}
}

// ParseCriteriaDate parses a YYYY-MM-DD bound. An empty value yields nil.
func ParseCriteriaDate(value string) (*time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return nil, nil
	}

	t, err := time.Parse(criteriaDateLayout, value)
	if err != nil {
		return nil, fmt.Errorf(constants.ErrInvalidDate, value)
	}

	return &t, nil
}

func formatDay(t *time.Time) string {
	if t == nil {
		return ""
	}

	return t.Format(criteriaDateLayout)
}
