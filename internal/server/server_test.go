package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/consulate-reports/constants"
	"github.com/ethpandaops/consulate-reports/internal"
	"github.com/ethpandaops/consulate-reports/internal/config"
	"github.com/ethpandaops/consulate-reports/internal/core"
	"github.com/ethpandaops/consulate-reports/internal/metrics"
)

func newTestServer(t *testing.T, withData bool) (*Server, *core.Viewer) {
	t.Helper()

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	dir := t.TempDir()
	if withData {
		if err := os.WriteFile(filepath.Join(dir, "a.json"), []byte(internal.FixtureDocument), 0o644); err != nil {
			t.Fatalf("Failed to write fixture: %v", err)
		}
	}

	cfg := config.NewDefaultConfig()
	cfg.SetDataDir(dir)
	cfg.SetFiles([]string{"a.json"})

	m := metrics.New()

	v, err := core.NewViewer(cfg, logger, core.WithMetrics(m))
	if err != nil {
		t.Fatalf("Expected no error creating viewer, got %v", err)
	}

	_, _ = v.Reload(context.Background())

	return New(v, m, logger), v
}

func get(t *testing.T, s *Server, path string, query url.Values) *httptest.ResponseRecorder {
	t.Helper()

	if query != nil {
		path += "?" + query.Encode()
	}

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))

	return rec
}

func post(t *testing.T, s *Server, path string) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))

	return rec
}

func decodeReports(t *testing.T, rec *httptest.ResponseRecorder) ReportsResponse {
	t.Helper()

	var resp ReportsResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Expected JSON body, got %v: %s", err, rec.Body.String())
	}

	return resp
}

func TestIndex(t *testing.T) {
	s, _ := newTestServer(t, true)

	rec := get(t, s, "/", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	if !strings.Contains(body, `<form class="filters"`) {
		t.Error("Expected the filter form")
	}
	if !strings.Contains(body, `id="details-1"`) || strings.Contains(body, `id="details-2"`) {
		t.Error("Expected two cards in the default view")
	}

	rec = get(t, s, "/", url.Values{"consulate": {"краков"}})
	if !strings.Contains(rec.Body.String(), "Краков, очередь небольшая.") {
		t.Error("Expected the Krakow report")
	}
	if strings.Contains(rec.Body.String(), `id="details-1"`) {
		t.Error("Expected a single card for Krakow")
	}
}

func TestIndexRejectsBadDates(t *testing.T) {
	s, _ := newTestServer(t, true)

	rec := get(t, s, "/", url.Values{"from": {"10.01.2025"}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400, got %d", rec.Code)
	}
}

func TestReportsAPI(t *testing.T) {
	s, _ := newTestServer(t, true)

	tests := []struct {
		name  string
		query url.Values
		shown int
	}{
		{"default shows reports with questions", nil, 2},
		{"all reports", url.Values{"questions": {"all"}}, 3},
		{"search", url.Values{"questions": {"all"}, "q": {"СПАСИБО"}}, 1},
		{"date range", url.Values{"questions": {"all"}, "from": {"2025-02-01"}, "to": {"2025-02-15"}}, 1},
		{"unknown consulate", url.Values{"consulate": {"гданьск"}}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := get(t, s, "/api/reports", tt.query)
			if rec.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d", rec.Code)
			}

			resp := decodeReports(t, rec)
			if resp.Shown != tt.shown || len(resp.Reports) != tt.shown || resp.Total != 3 {
				t.Errorf("Expected %d of 3 reports, got %d of %d", tt.shown, resp.Shown, resp.Total)
			}
		})
	}

	rec := get(t, s, "/api/reports", url.Values{"questions": {"some"}})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("Expected 400 for an invalid questions value, got %d", rec.Code)
	}
}

func TestConsulatesAPI(t *testing.T) {
	s, _ := newTestServer(t, true)

	rec := get(t, s, "/api/consulates", nil)

	var body struct {
		Consulates []struct {
			Value string `json:"value"`
			Label string `json:"label"`
		} `json:"consulates"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("Expected JSON body, got %v", err)
	}

	if len(body.Consulates) != 2 || body.Consulates[0].Value != "варшава" || body.Consulates[1].Label != "Краков" {
		t.Errorf("Unexpected consulates %+v", body.Consulates)
	}
}

func TestNothingLoaded(t *testing.T) {
	s, _ := newTestServer(t, false)

	rec := get(t, s, "/", nil)
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Could not load files") {
		t.Error("Expected the nothing-loaded message")
	}
	if strings.Contains(rec.Body.String(), constants.NoResultsMessage) {
		t.Error("Expected nothing-loaded not to look like an empty result")
	}

	if rec := get(t, s, "/api/reports", nil); rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 from the API, got %d", rec.Code)
	}

	rec = post(t, s, "/api/reload")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected 503 from reload, got %d", rec.Code)
	}

	var resp LoadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil || !resp.NothingLoaded || len(resp.Failures) != 1 {
		t.Errorf("Expected one failure in the reload response, got %+v (%v)", resp, err)
	}
}

func TestReloadAndClear(t *testing.T) {
	s, v := newTestServer(t, true)

	rec := post(t, s, "/api/reload")
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var resp LoadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("Expected JSON body, got %v", err)
	}
	if resp.Reports != 3 || resp.Files != 1 || resp.LoadID != v.Dataset().LoadID {
		t.Errorf("Unexpected reload response %+v", resp)
	}

	if rec := post(t, s, "/api/clear"); rec.Code != http.StatusNoContent {
		t.Errorf("Expected 204, got %d", rec.Code)
	}

	var health map[string]interface{}
	if err := json.Unmarshal(get(t, s, "/healthz", nil).Body.Bytes(), &health); err != nil {
		t.Fatalf("Expected JSON body, got %v", err)
	}
	if health["reports"].(float64) != 0 {
		t.Errorf("Expected no reports after clear, got %v", health["reports"])
	}
}

func TestExport(t *testing.T) {
	s, _ := newTestServer(t, true)

	rec := get(t, s, "/api/export.xlsx", url.Values{"questions": {"all"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}
	if rec.Header().Get("Content-Type") != xlsxContentType {
		t.Errorf("Unexpected content type %s", rec.Header().Get("Content-Type"))
	}
	if !strings.HasPrefix(rec.Header().Get("Content-Disposition"), "attachment;") {
		t.Error("Expected an attachment")
	}
	if rec.Body.Len() == 0 {
		t.Error("Expected a workbook body")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(t, true)

	_ = get(t, s, "/api/reports", nil)

	body := get(t, s, "/metrics", nil).Body.String()
	for _, want := range []string{
		`consulate_reports_filter_requests_total{surface="api"} 1`,
		`consulate_reports_reports 3`,
		`consulate_reports_files_total{outcome="loaded"} 1`,
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected metrics to contain %q", want)
		}
	}
}

// staleDatasetTool reports an outdated dataset from Dataset while Query sees the current one.
type staleDatasetTool struct {
	*core.Viewer
	stale *core.Dataset
}

func (s staleDatasetTool) Dataset() *core.Dataset {
	return s.stale
}

func TestReportsCountsComeFromFilteredDataset(t *testing.T) {
	_, v := newTestServer(t, true)

	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	tool := staleDatasetTool{Viewer: v, stale: &core.Dataset{LoadID: "stale", NothingLoaded: true}}
	s := New(tool, nil, logger)

	rec := get(t, s, "/api/reports", url.Values{"questions": {"all"}})
	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	resp := decodeReports(t, rec)
	if resp.LoadID != v.Dataset().LoadID || resp.Total != 3 || resp.Shown != 3 {
		t.Errorf("Expected counts from the queried dataset, got %+v", resp)
	}

	if rec := get(t, s, "/api/export.xlsx", nil); rec.Code != http.StatusOK {
		t.Errorf("Expected export to use the queried dataset, got %d", rec.Code)
	}
}
