package core

import (
	"context"
	"net/http"

	"github.com/ethpandaops/consulate-reports/internal/config"
	"github.com/ethpandaops/consulate-reports/internal/loader"
)

// ConfigSources resolves sources from configuration, in order of precedence:
// base URL, explicit input files, every *.json in the data directory, the
// enumerated file list in the data directory.
func ConfigSources(cfg config.Config, client *http.Client) SourceFunc {
	return func(_ context.Context) ([]loader.Source, error) {
		switch {
		case cfg.GetBaseURL() != "":
			return loader.HTTPSources(client, cfg.GetBaseURL(), cfg.GetFiles(), loader.RetryPolicy{
				Attempts:   cfg.GetFetchRetries(),
				Backoff:    cfg.GetFetchBackoff(),
				MaxBackoff: cfg.GetFetchMaxBackoff(),
			})
		case len(cfg.GetInputFiles()) > 0:
			return loader.PathSources(cfg.GetInputFiles()), nil
		case cfg.IsAllFiles():
			return loader.GlobSources(cfg.GetDataDir())
		default:
			return loader.DirectorySources(cfg.GetDataDir(), cfg.GetFiles()), nil
		}
	}
}
