package filter

import (
	"reflect"
	"testing"
	"time"

	"github.com/ethpandaops/consulate-reports/internal/ingest"
)

func mustDate(t *testing.T, s string) *time.Time {
	t.Helper()

	d, err := ParseCriteriaDate(s)
	if err != nil {
		t.Fatalf("Expected valid date %s, got %v", s, err)
	}

	return d
}

func ids(reports []ingest.Report) []string {
	out := make([]string, 0, len(reports))
	for _, r := range reports {
		out = append(out, r.MessageID)
	}

	return out
}

func sampleReports() []ingest.Report {
	return []ingest.Report{
		{MessageID: "1", Date: "2025-01-01", OriginalText: "Собеседование в ВАРШАВЕ прошло", Consulate: "варшава", Questions: []string{"q1"}},
		{MessageID: "2", Date: "2025-03-01 18:30:00", OriginalText: "Краков, без вопросов", Consulate: "краков", Questions: []string{}},
		{MessageID: "3", Date: "not a date", OriginalText: "Варшава снова", Consulate: "варшава", Questions: []string{"q2", "q3"}},
		{MessageID: "4", Date: "15.02.2025", OriginalText: "", Questions: []string{"q4"}},
	}
}

func TestApplyEmptyCriteriaReturnsEverything(t *testing.T) {
	reports := sampleReports()

	got := Apply(reports, Criteria{})
	if !reflect.DeepEqual(ids(got), []string{"1", "2", "3", "4"}) {
		t.Errorf("Expected all reports in order, got %v", ids(got))
	}
}

func TestApplyQuestionsOnly(t *testing.T) {
	got := Apply(sampleReports(), Criteria{QuestionsOnly: true})
	if !reflect.DeepEqual(ids(got), []string{"1", "3", "4"}) {
		t.Errorf("Expected reports with questions, got %v", ids(got))
	}

	if !reflect.DeepEqual(ids(Apply(sampleReports(), DefaultCriteria())), ids(got)) {
		t.Error("Expected default criteria to show only reports with questions")
	}
}

func TestApplyCriteria(t *testing.T) {
	tests := []struct {
		name     string
		criteria Criteria
		want     []string
	}{
		{"search is case-insensitive", Criteria{SearchText: "варшав"}, []string{"1", "3"}},
		{"search with upper case", Criteria{SearchText: "КРАКОВ"}, []string{"2"}},
		{"consulate exact match", Criteria{Consulate: "краков"}, []string{"2"}},
		{"consulate no partial match", Criteria{Consulate: "крак"}, []string{}},
		{"date from", Criteria{DateFrom: mustDate(t, "2025-02-01")}, []string{"2", "3", "4"}},
		{"date to is inclusive of the whole day", Criteria{DateTo: mustDate(t, "2025-03-01")}, []string{"1", "2", "3", "4"}},
		{"date to", Criteria{DateTo: mustDate(t, "2025-02-14")}, []string{"1", "3"}},
		{"date range", Criteria{DateFrom: mustDate(t, "2025-02-15"), DateTo: mustDate(t, "2025-02-15")}, []string{"3", "4"}},
		{"combined", Criteria{SearchText: "варшав", Consulate: "варшава", QuestionsOnly: true, DateFrom: mustDate(t, "2024-12-31")}, []string{"1", "3"}},
		{"unmatched consulate with passing criteria", Criteria{Consulate: "гданьск", QuestionsOnly: true}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(Apply(sampleReports(), tt.criteria))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestApplyDateExample(t *testing.T) {
	reports := []ingest.Report{
		{MessageID: "jan", Date: "2025-01-01"},
		{MessageID: "mar", Date: "2025-03-01"},
	}

	got := Apply(reports, Criteria{DateFrom: mustDate(t, "2025-02-01")})
	if !reflect.DeepEqual(ids(got), []string{"mar"}) {
		t.Errorf("Expected only the March report, got %v", ids(got))
	}
}

func TestApplyDoesNotModifyInput(t *testing.T) {
	reports := sampleReports()
	before := sampleReports()

	_ = Apply(reports, Criteria{SearchText: "x", QuestionsOnly: true})

	if !reflect.DeepEqual(reports, before) {
		t.Error("Expected input reports to be unchanged")
	}
}

func TestMatch(t *testing.T) {
	r := sampleReports()[0]
	if !Match(&r, Criteria{Consulate: "варшава"}) {
		t.Error("Expected report to match its own consulate")
	}
	if Match(&r, Criteria{SearchText: "гданьск"}) {
		t.Error("Expected report not to match unrelated text")
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		ok    bool
		day   string
	}{
		{"2025-09-26", true, "2025-09-26"},
		{"2025-09-26 21:09:10", true, "2025-09-26"},
		{"2025-09-26 21:09", true, "2025-09-26"},
		{"2025-09-26T21:09:10+03:00", true, "2025-09-26"},
		{"26.09.2025", true, "2025-09-26"},
		{"26.09.2025 21:09", true, "2025-09-26"},
		{"", false, ""},
		{"вчера", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			if ok != tt.ok {
				t.Fatalf("Expected ok=%v, got %v", tt.ok, ok)
			}
			if ok && got.Format("2006-01-02") != tt.day {
				t.Errorf("Expected day %s, got %s", tt.day, got.Format("2006-01-02"))
			}
		})
	}
}

func TestConsulateOptions(t *testing.T) {
	got := ConsulateOptions([]string{"краков", "варшава", "белосток"})
	want := []ConsulateOption{
		{Value: "белосток", Label: "Белосток"},
		{Value: "варшава", Label: "Варшава"},
		{Value: "краков", Label: "Краков"},
	}

	if !reflect.DeepEqual(got, want) {
		t.Errorf("Expected %v, got %v", want, got)
	}

	if len(ConsulateOptions(nil)) != 0 {
		t.Error("Expected no options for no consulates")
	}
}
