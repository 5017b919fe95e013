package config

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/ethpandaops/consulate-reports/constants"
	"github.com/ethpandaops/consulate-reports/internal/filter"
)

// DefaultConfig implements the Config interface.
type DefaultConfig struct {
	mode Mode

	// Source settings
	dataDir    string
	baseURL    string
	files      []string
	inputFiles []string
	allFiles   bool
	consulates []string

	// Loading settings
	fetchConcurrency int
	fetchTimeout     time.Duration
	fetchRetries     int
	fetchBackoff     time.Duration
	fetchMaxBackoff  time.Duration
	validateShape    bool

	// Output settings
	criteria      filter.Criteria
	htmlOutput    string
	dataOutput    string
	xlsxOutput    string
	listenAddress string
}

// NewDefaultConfig creates a new configuration with default values.
func NewDefaultConfig() *DefaultConfig {
	return &DefaultConfig{
		mode:             ModeRender,
		dataDir:          constants.DefaultDataDir,
		files:            slices.Clone(constants.DefaultReportFiles),
		consulates:       slices.Clone(constants.KnownConsulates),
		fetchConcurrency: constants.DefaultFetchConcurrency,
		fetchTimeout:     constants.DefaultFetchTimeout,
		fetchRetries:     constants.DefaultFetchRetries,
		fetchBackoff:     constants.DefaultFetchBackoff,
		fetchMaxBackoff:  constants.DefaultFetchMaxBackoff,
		criteria:         filter.DefaultCriteria(),
		htmlOutput:       constants.DefaultHTMLReportFile,
		dataOutput:       constants.DefaultDataJSONFile,
		xlsxOutput:       constants.DefaultXLSXReportFile,
		listenAddress:    constants.DefaultListenAddress,
	}
}

// GetMode returns the run mode.
func (c *DefaultConfig) GetMode() Mode {
	return c.mode
}

// GetDataDir returns the directory report files are read from.
func (c *DefaultConfig) GetDataDir() string {
	return c.dataDir
}

// GetBaseURL returns the URL report files are fetched from, if any.
func (c *DefaultConfig) GetBaseURL() string {
	return c.baseURL
}

// GetFiles returns the enumerated report file names.
func (c *DefaultConfig) GetFiles() []string {
	return c.files
}

// GetInputFiles returns explicitly supplied report file paths.
func (c *DefaultConfig) GetInputFiles() []string {
	return c.inputFiles
}

// IsAllFiles returns whether every *.json file in the data directory is loaded.
func (c *DefaultConfig) IsAllFiles() bool {
	return c.allFiles
}

// GetConsulates returns the hashtag fragments that identify a consulate.
func (c *DefaultConfig) GetConsulates() []string {
	return c.consulates
}

// GetFetchConcurrency returns the number of parallel fetches.
func (c *DefaultConfig) GetFetchConcurrency() int {
	return c.fetchConcurrency
}

// GetFetchTimeout returns the per-request HTTP timeout.
func (c *DefaultConfig) GetFetchTimeout() time.Duration {
	return c.fetchTimeout
}

// GetFetchRetries returns the number of attempts per HTTP fetch.
func (c *DefaultConfig) GetFetchRetries() int {
	return c.fetchRetries
}

// GetFetchBackoff returns the initial retry delay.
func (c *DefaultConfig) GetFetchBackoff() time.Duration {
	return c.fetchBackoff
}

// GetFetchMaxBackoff returns the retry delay cap.
func (c *DefaultConfig) GetFetchMaxBackoff() time.Duration {
	return c.fetchMaxBackoff
}

// IsValidateShape returns whether loaded documents are checked against the schema.
func (c *DefaultConfig) IsValidateShape() bool {
	return c.validateShape
}

// GetCriteria returns the filter criteria applied in render and export modes.
func (c *DefaultConfig) GetCriteria() filter.Criteria {
	return c.criteria
}

// GetHTMLOutput returns the HTML report path.
func (c *DefaultConfig) GetHTMLOutput() string {
	return c.htmlOutput
}

// GetDataOutput returns the JSON data file path.
func (c *DefaultConfig) GetDataOutput() string {
	return c.dataOutput
}

// GetXLSXOutput returns the workbook path.
func (c *DefaultConfig) GetXLSXOutput() string {
	return c.xlsxOutput
}

// GetListenAddress returns the HTTP listen address for serve mode.
func (c *DefaultConfig) GetListenAddress() string {
	return c.listenAddress
}

// SetMode sets the run mode.
func (c *DefaultConfig) SetMode(mode Mode) {
	c.mode = mode
}

// SetDataDir sets the data directory.
func (c *DefaultConfig) SetDataDir(dir string) {
	c.dataDir = dir
}

// SetBaseURL sets the base URL.
func (c *DefaultConfig) SetBaseURL(url string) {
	c.baseURL = url
}

// SetFiles sets the enumerated report file names.
func (c *DefaultConfig) SetFiles(files []string) {
	c.files = files
}

// SetInputFiles sets explicit report file paths.
func (c *DefaultConfig) SetInputFiles(files []string) {
	c.inputFiles = files
}

// SetAllFiles sets whether every *.json file in the data directory is loaded.
func (c *DefaultConfig) SetAllFiles(all bool) {
	c.allFiles = all
}

// SetConsulates sets the consulate fragments.
func (c *DefaultConfig) SetConsulates(consulates []string) {
	c.consulates = consulates
}

// SetFetchConcurrency sets the number of parallel fetches.
func (c *DefaultConfig) SetFetchConcurrency(n int) {
	c.fetchConcurrency = n
}

// SetFetchTimeout sets the per-request HTTP timeout.
func (c *DefaultConfig) SetFetchTimeout(d time.Duration) {
	c.fetchTimeout = d
}

// SetFetchRetries sets the number of attempts per HTTP fetch.
func (c *DefaultConfig) SetFetchRetries(n int) {
	c.fetchRetries = n
}

// SetFetchBackoff sets the initial retry delay.
func (c *DefaultConfig) SetFetchBackoff(d time.Duration) {
	c.fetchBackoff = d
}

// SetFetchMaxBackoff sets the retry delay cap.
func (c *DefaultConfig) SetFetchMaxBackoff(d time.Duration) {
	c.fetchMaxBackoff = d
}

// SetValidateShape sets whether loaded documents are checked against the schema.
func (c *DefaultConfig) SetValidateShape(validate bool) {
	c.validateShape = validate
}

// SetCriteria sets the filter criteria.
func (c *DefaultConfig) SetCriteria(criteria filter.Criteria) {
	c.criteria = criteria
}

// SetHTMLOutput sets the HTML report path.
func (c *DefaultConfig) SetHTMLOutput(path string) {
	c.htmlOutput = path
}

// SetDataOutput sets the JSON data file path.
func (c *DefaultConfig) SetDataOutput(path string) {
	c.dataOutput = path
}

// SetXLSXOutput sets the workbook path.
func (c *DefaultConfig) SetXLSXOutput(path string) {
	c.xlsxOutput = path
}

// SetListenAddress sets the HTTP listen address.
func (c *DefaultConfig) SetListenAddress(addr string) {
	c.listenAddress = addr
}

// Validate validates the configuration.
func (c *DefaultConfig) Validate() error {
	switch c.mode {
	case ModeRender, ModeExport, ModeServe:
	default:
		return fmt.Errorf(constants.ErrInvalidMode, c.mode)
	}

	if c.baseURL != "" && len(c.inputFiles) > 0 {
		return errors.New(constants.ErrConflictingSources)
	}

	if c.baseURL == "" && len(c.inputFiles) == 0 && !c.allFiles && len(c.files) == 0 {
		return errors.New("no report files configured")
	}

	if c.fetchConcurrency <= 0 {
		return errors.New("fetch concurrency must be positive")
	}

	if c.fetchRetries <= 0 {
		return errors.New("fetch retries must be at least 1")
	}

	if c.fetchBackoff < 0 || c.fetchMaxBackoff < c.fetchBackoff {
		return errors.New("fetch backoff must be non-negative and not exceed the maximum backoff")
	}

	if c.criteria.DateFrom != nil && c.criteria.DateTo != nil && c.criteria.DateFrom.After(*c.criteria.DateTo) {
		return errors.New(constants.ErrInvalidDateRange)
	}

	if c.mode == ModeServe && c.listenAddress == "" {
		return errors.New("listen address is required in serve mode")
	}

	return nil
}

// ParseMode parses a mode name.
func ParseMode(value string) (Mode, error) {
	switch Mode(value) {
	case ModeRender, ModeExport, ModeServe:
		return Mode(value), nil
	default:
		return "", fmt.Errorf(constants.ErrInvalidMode, value)
	}
}
