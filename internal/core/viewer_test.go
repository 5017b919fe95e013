package core

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/consulate-reports/internal"
	"github.com/ethpandaops/consulate-reports/internal/config"
	"github.com/ethpandaops/consulate-reports/internal/filter"
	"github.com/ethpandaops/consulate-reports/internal/loader"
)

func testLogger() logrus.FieldLogger {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)

	return logger
}

func newTestViewer(t *testing.T, files map[string]string, names []string, opts ...Option) *Viewer {
	t.Helper()

	dir := t.TempDir()
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("Failed to write fixture: %v", err)
		}
	}

	cfg := config.NewDefaultConfig()
	cfg.SetDataDir(dir)
	cfg.SetFiles(names)

	v, err := NewViewer(cfg, testLogger(), opts...)
	if err != nil {
		t.Fatalf("Expected no error creating viewer, got %v", err)
	}

	return v
}

type fakeLoader struct {
	err error
}

func (f fakeLoader) Load(context.Context, []loader.Source) (*loader.Batch, error) {
	return nil, f.err
}

func TestReloadPublishesDataset(t *testing.T) {
	th := internal.NewTestHelper(t)

	v := newTestViewer(t, map[string]string{
		"a.json": internal.FixtureDocument,
		"b.json": `not json`,
	}, []string{"a.json", "b.json", "missing.json"})

	if !v.Dataset().Empty() {
		t.Error("Expected an empty dataset before the first load")
	}

	ds, err := v.Reload(context.Background())
	th.AssertNoError(err)

	th.AssertEqual(1, ds.Files)
	th.AssertEqual(2, len(ds.Failures))
	th.AssertEqual(3, len(ds.Reports))
	th.AssertEqual(2, len(ds.Consulates))
	th.AssertEqual(1, ds.Stats.Skipped)
	th.AssertEqual(ds, v.Dataset())
}

func TestReloadNothingLoaded(t *testing.T) {
	v := newTestViewer(t, nil, []string{"missing.json"})

	ds, err := v.Reload(context.Background())
	if !errors.Is(err, loader.ErrNothingLoaded) {
		t.Fatalf("Expected ErrNothingLoaded, got %v", err)
	}
	if !ds.NothingLoaded || v.Dataset() != ds {
		t.Error("Expected a nothing-loaded dataset to be published")
	}

	view := v.View(filter.DefaultCriteria(), false, "test")
	if !view.NothingLoaded || len(view.Failures) != 1 {
		t.Errorf("Expected the view to show the nothing-loaded state, got %+v", view)
	}
}

func TestReloadSupersededKeepsDataset(t *testing.T) {
	v := newTestViewer(t, map[string]string{"a.json": internal.FixtureDocument}, []string{"a.json"})

	first, err := v.Reload(context.Background())
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	v.loader = fakeLoader{err: loader.ErrSuperseded}

	if _, err := v.Reload(context.Background()); !errors.Is(err, loader.ErrSuperseded) {
		t.Fatalf("Expected ErrSuperseded, got %v", err)
	}
	if v.Dataset() != first {
		t.Error("Expected a superseded load not to replace the dataset")
	}
}

// pausingLoader holds the first Load after it returns until release is closed.
type pausingLoader struct {
	inner    BatchLoader
	once     sync.Once
	returned chan struct{}
	release  chan struct{}
}

func newPausingLoader(inner BatchLoader) *pausingLoader {
	return &pausingLoader{
		inner:    inner,
		returned: make(chan struct{}),
		release:  make(chan struct{}),
	}
}

func (p *pausingLoader) Load(ctx context.Context, sources []loader.Source) (*loader.Batch, error) {
	batch, err := p.inner.Load(ctx, sources)

	first := false
	p.once.Do(func() { first = true })
	if first {
		close(p.returned)
		<-p.release
	}

	return batch, err
}

type reloadResult struct {
	ds  *Dataset
	err error
}

func TestOlderReloadDoesNotOverwriteNewer(t *testing.T) {
	v := newTestViewer(t, map[string]string{"a.json": internal.FixtureDocument}, []string{"a.json"})

	pausing := newPausingLoader(loader.New(testLogger()))
	v.loader = pausing

	done := make(chan reloadResult, 1)
	go func() {
		ds, err := v.Reload(context.Background())
		done <- reloadResult{ds, err}
	}()

	<-pausing.returned

	second, err := v.Reload(context.Background())
	if err != nil {
		t.Fatalf("Expected the second reload to succeed, got %v", err)
	}

	close(pausing.release)
	first := <-done

	if !errors.Is(first.err, loader.ErrSuperseded) || first.ds != nil {
		t.Errorf("Expected the first reload to be superseded, got %v, %v", first.ds, first.err)
	}
	if v.Dataset() != second {
		t.Errorf("Expected the newer dataset %s to stay published, got %s", second.LoadID, v.Dataset().LoadID)
	}
}

func TestClearSupersedesRunningReload(t *testing.T) {
	v := newTestViewer(t, map[string]string{"a.json": internal.FixtureDocument}, []string{"a.json"})

	pausing := newPausingLoader(loader.New(testLogger()))
	v.loader = pausing

	done := make(chan reloadResult, 1)
	go func() {
		ds, err := v.Reload(context.Background())
		done <- reloadResult{ds, err}
	}()

	<-pausing.returned
	v.Clear()
	close(pausing.release)

	if res := <-done; !errors.Is(res.err, loader.ErrSuperseded) {
		t.Errorf("Expected the reload to be superseded by Clear, got %v", res.err)
	}
	if !v.Dataset().Empty() {
		t.Errorf("Expected the cleared dataset to stay published, got %d reports", len(v.Dataset().Reports))
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

func TestClearCancelsLoadInProgress(t *testing.T) {
	started := make(chan struct{})
	v := newTestViewer(t, nil, []string{"a.json"}, WithSources(func(context.Context) ([]loader.Source, error) {
		return []loader.Source{blockingSource{started: started}}, nil
	}))

	done := make(chan error, 1)
	go func() {
		_, err := v.Reload(context.Background())
		done <- err
	}()

	<-started
	v.Clear()

	select {
	case err := <-done:
		if !errors.Is(err, loader.ErrSuperseded) {
			t.Errorf("Expected ErrSuperseded, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Expected Clear to stop the running load")
	}
	if !v.Dataset().Empty() {
		t.Error("Expected the dataset to stay cleared")
	}
}

func TestQueryAndView(t *testing.T) {
	v := newTestViewer(t, map[string]string{"a.json": internal.FixtureDocument}, []string{"a.json"})

	if _, err := v.Reload(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	_, all := v.Query(filter.Criteria{}, "test")
	if len(all) != 3 {
		t.Errorf("Expected 3 reports, got %d", len(all))
	}

	_, withQuestions := v.Query(filter.DefaultCriteria(), "test")
	if len(withQuestions) != 2 {
		t.Errorf("Expected 2 reports with questions, got %d", len(withQuestions))
	}

	_, krakow := v.Query(filter.Criteria{Consulate: "краков"}, "test")
	if len(krakow) != 1 || krakow[0].MessageID != "2" {
		t.Errorf("Expected the Krakow report, got %+v", krakow)
	}

	view := v.View(filter.DefaultCriteria(), true, "test")
	if view.Stats.Reports != 3 || view.Stats.Shown != 2 || !view.Interactive {
		t.Errorf("Unexpected view stats %+v", view.Stats)
	}
}

func TestClear(t *testing.T) {
	v := newTestViewer(t, map[string]string{"a.json": internal.FixtureDocument}, []string{"a.json"})

	if _, err := v.Reload(context.Background()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	v.Clear()

	ds := v.Dataset()
	if !ds.Empty() || len(ds.Reports) != 0 || len(ds.Consulates) != 0 {
		t.Errorf("Expected cleared dataset, got %+v", ds)
	}
}

func TestConfigSources(t *testing.T) {
	cfg := config.NewDefaultConfig()
	cfg.SetDataDir("/data")
	cfg.SetFiles([]string{"a.json"})

	sources, err := ConfigSources(cfg, nil)(context.Background())
	if err != nil || len(sources) != 1 {
		t.Fatalf("Expected 1 directory source, got %d, %v", len(sources), err)
	}
	if fs, ok := sources[0].(loader.FileSource); !ok || fs.Path != filepath.Join("/data", "a.json") {
		t.Errorf("Unexpected source %+v", sources[0])
	}

	cfg.SetInputFiles([]string{"/tmp/x.json", "/tmp/y.json"})
	sources, _ = ConfigSources(cfg, nil)(context.Background())
	if len(sources) != 2 || sources[1].Name() != "y.json" {
		t.Errorf("Expected explicit input files, got %d sources", len(sources))
	}

	cfg.SetInputFiles(nil)
	cfg.SetBaseURL("https://example.org/data")
	sources, _ = ConfigSources(cfg, nil)(context.Background())
	if hs, ok := sources[0].(loader.HTTPSource); !ok || hs.URL != "https://example.org/data/a.json" {
		t.Errorf("Expected an HTTP source, got %+v", sources[0])
	}
}
