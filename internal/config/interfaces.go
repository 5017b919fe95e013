package config

import (
	"time"

	"github.com/ethpandaops/consulate-reports/internal/filter"
)

// Mode selects what the tool does with a loaded batch.
type Mode string

const (
	ModeRender Mode = "render" // Writes a static HTML report and JSON data file
	ModeExport Mode = "export" // Writes an XLSX workbook
	ModeServe  Mode = "serve"  // Serves the interactive viewer over HTTP
)

// Config defines the interface for tool configuration.
type Config interface {
	GetMode() Mode

	// Sources
	GetDataDir() string
	GetBaseURL() string
	GetFiles() []string
	GetInputFiles() []string
	IsAllFiles() bool
	GetConsulates() []string

	// Loading
	GetFetchConcurrency() int
	GetFetchTimeout() time.Duration
	GetFetchRetries() int
	GetFetchBackoff() time.Duration
	GetFetchMaxBackoff() time.Duration
	IsValidateShape() bool

	// Output
	GetCriteria() filter.Criteria
	GetHTMLOutput() string
	GetDataOutput() string
	GetXLSXOutput() string
	GetListenAddress() string

	Validate() error
}
