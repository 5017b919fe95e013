package loader

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/consulate-reports/constants"
	"github.com/ethpandaops/consulate-reports/internal/analysis"
)

const validDocument = `{"processed_messages":[{"original_message":{"id":1,"date_formatted":"2025-01-01","message":"hi","hashtags_found":["#варшава"]},"openai_analysis":{"skip":false,"reports":[]}}]}`

func newTestLoader(opts ...Option) *Loader {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	return New(logger, opts...)
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()

	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to write fixture: %v", err)
	}
}

type blockingSource struct {
	started chan struct{}
}

func (s blockingSource) Name() string { return "blocking.json" }

func (s blockingSource) Open(ctx context.Context) ([]byte, error) {
	close(s.started)
	<-ctx.Done()

	return nil, ctx.Err()
}

func TestLoadSkipsFailedFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.json", validDocument)
	writeFile(t, dir, "broken.json", `{"processed_messages": [`)
	writeFile(t, dir, "c.json", validDocument)

	sources := DirectorySources(dir, []string{"a.json", "missing.json", "broken.json", "c.json"})

	batch, err := newTestLoader().Load(context.Background(), sources)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if batch.Total != 4 || batch.Succeeded() != 2 {
		t.Errorf("Expected 2 of 4 loaded, got %d of %d", batch.Succeeded(), batch.Total)
	}
	if batch.Documents[0].ID != "a.json" || batch.Documents[1].ID != "c.json" {
		t.Errorf("Expected source order to be preserved, got %s, %s", batch.Documents[0].ID, batch.Documents[1].ID)
	}
	if batch.ID == "" {
		t.Error("Expected a load ID")
	}

	if len(batch.Failures) != 2 {
		t.Fatalf("Expected 2 failures, got %d", len(batch.Failures))
	}
	if batch.Failures[0].Source != "missing.json" || batch.Failures[0].Kind != constants.FailureFetch {
		t.Errorf("Expected fetch failure for missing.json, got %+v", batch.Failures[0])
	}
	if batch.Failures[1].Source != "broken.json" || batch.Failures[1].Kind != constants.FailureParse {
		t.Errorf("Expected parse failure for broken.json, got %+v", batch.Failures[1])
	}
	if !errors.Is(&batch.Failures[0], os.ErrNotExist) {
		t.Error("Expected fetch failure to unwrap to os.ErrNotExist")
	}
}

func TestLoadNothingLoaded(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "root.json", `[1, 2, 3]`)

	batch, err := newTestLoader().Load(context.Background(), DirectorySources(dir, []string{"nope.json", "root.json"}))
	if !errors.Is(err, ErrNothingLoaded) {
		t.Fatalf("Expected ErrNothingLoaded, got %v", err)
	}
	if batch == nil || len(batch.Failures) != 2 {
		t.Fatalf("Expected a batch with 2 failures, got %+v", batch)
	}
	if !errors.Is(&batch.Failures[1], analysis.ErrNotObject) {
		t.Errorf("Expected non-object root to be a parse failure, got %v", batch.Failures[1].Err)
	}
}

func TestLoadEmptySourceList(t *testing.T) {
	_, err := newTestLoader().Load(context.Background(), nil)
	if !errors.Is(err, ErrNothingLoaded) {
		t.Errorf("Expected ErrNothingLoaded for no sources, got %v", err)
	}
}

func TestLoadCollectsShapeWarnings(t *testing.T) {
	v, err := analysis.NewShapeValidator()
	if err != nil {
		t.Fatalf("Failed to build validator: %v", err)
	}

	dir := t.TempDir()
	writeFile(t, dir, "odd.json", `{"processed_messages": "not a list"}`)

	batch, err := newTestLoader(WithValidator(v)).Load(context.Background(), DirectorySources(dir, []string{"odd.json"}))
	if err != nil {
		t.Fatalf("Expected odd shape to still load, got %v", err)
	}
	if len(batch.Warnings) != 1 {
		t.Errorf("Expected 1 warning, got %v", batch.Warnings)
	}
	if batch.Succeeded() != 1 {
		t.Errorf("Expected the document to be ingested, got %d", batch.Succeeded())
	}
}

func TestLoadSupersedesInFlightLoad(t *testing.T) {
	l := newTestLoader()
	dir := t.TempDir()
	writeFile(t, dir, "a.json", validDocument)

	started := make(chan struct{})
	firstErr := make(chan error, 1)

	go func() {
		_, err := l.Load(context.Background(), []Source{blockingSource{started: started}})
		firstErr <- err
	}()

	<-started

	batch, err := l.Load(context.Background(), DirectorySources(dir, []string{"a.json"}))
	if err != nil {
		t.Fatalf("Expected second load to succeed, got %v", err)
	}
	if batch.Succeeded() != 1 {
		t.Errorf("Expected 1 document, got %d", batch.Succeeded())
	}

	select {
	case err := <-firstErr:
		if !errors.Is(err, ErrSuperseded) {
			t.Errorf("Expected ErrSuperseded, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Expected first load to be cancelled")
	}
}

func TestCancelStopsInFlightLoad(t *testing.T) {
	l := newTestLoader()

	started := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		_, err := l.Load(context.Background(), []Source{blockingSource{started: started}})
		done <- err
	}()

	<-started
	l.Cancel()

	select {
	case err := <-done:
		if !errors.Is(err, ErrSuperseded) {
			t.Errorf("Expected ErrSuperseded, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Expected the load to stop")
	}

	// Nothing in flight: a no-op.
	l.Cancel()
}

func TestLoadParentCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	dir := t.TempDir()
	writeFile(t, dir, "a.json", validDocument)

	_, err := newTestLoader().Load(ctx, DirectorySources(dir, []string{"a.json"}))
	if !errors.Is(err, context.Canceled) || errors.Is(err, ErrSuperseded) {
		t.Errorf("Expected context.Canceled, got %v", err)
	}
}

func TestLoadRespectsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		defer inFlight.Add(-1)

		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}

		time.Sleep(20 * time.Millisecond)
		_, _ = w.Write([]byte(validDocument))
	}))
	defer srv.Close()

	names := []string{"1.json", "2.json", "3.json", "4.json", "5.json", "6.json"}
	sources, err := HTTPSources(srv.Client(), srv.URL, names, RetryPolicy{Attempts: 1})
	if err != nil {
		t.Fatalf("Failed to build sources: %v", err)
	}

	batch, err := newTestLoader(WithConcurrency(2)).Load(context.Background(), sources)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if batch.Succeeded() != len(names) {
		t.Errorf("Expected %d documents, got %d", len(names), batch.Succeeded())
	}
	if peak.Load() > 2 {
		t.Errorf("Expected at most 2 concurrent fetches, got %d", peak.Load())
	}
	for i, doc := range batch.Documents {
		if doc.ID != names[i] {
			t.Errorf("Expected document %d to be %s, got %s", i, names[i], doc.ID)
		}
	}
}
