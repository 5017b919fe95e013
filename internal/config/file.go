package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ethpandaops/consulate-reports/internal/filter"
)

// File is the on-disk YAML configuration. Zero values leave defaults untouched.
type File struct {
	Mode       string   `yaml:"mode"`
	DataDir    string   `yaml:"data_dir"`
	BaseURL    string   `yaml:"base_url"`
	Files      []string `yaml:"files"`
	InputFiles []string `yaml:"input_files"`
	AllFiles   bool     `yaml:"all_files"`
	Consulates []string `yaml:"consulates"`

	Fetch  FetchFile  `yaml:"fetch"`
	Filter FilterFile `yaml:"filter"`
	Output OutputFile `yaml:"output"`
	Server ServerFile `yaml:"server"`
}

// FetchFile holds loading settings.
type FetchFile struct {
	Concurrency   int           `yaml:"concurrency"`
	Timeout       time.Duration `yaml:"timeout"`
	Retries       int           `yaml:"retries"`
	Backoff       time.Duration `yaml:"backoff"`
	MaxBackoff    time.Duration `yaml:"max_backoff"`
	ValidateShape bool          `yaml:"validate_shape"`
}

// FilterFile holds the default filter criteria.
type FilterFile struct {
	Search    string `yaml:"search"`
	Consulate string `yaml:"consulate"`
	Questions string `yaml:"questions"` // with_questions | all
	From      string `yaml:"from"`      // YYYY-MM-DD
	To        string `yaml:"to"`        // YYYY-MM-DD
}

// OutputFile holds output paths.
type OutputFile struct {
	HTML string `yaml:"html"`
	Data string `yaml:"data"`
	XLSX string `yaml:"xlsx"`
}

// ServerFile holds serve mode settings.
type ServerFile struct {
	Listen string `yaml:"listen"`
}

// LoadFile reads a YAML configuration file.
func LoadFile(path string) (*File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	var f File
	if err := yaml.Unmarshal(b, &f); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	return &f, nil
}

// Apply copies the populated settings of f into c.
func (c *DefaultConfig) Apply(f *File) error {
	if f.Mode != "" {
		mode, err := ParseMode(f.Mode)
		if err != nil {
			return err
		}
		c.mode = mode
	}

	setString(&c.dataDir, f.DataDir)
	setString(&c.baseURL, f.BaseURL)
	setList(&c.files, f.Files)
	setList(&c.inputFiles, f.InputFiles)
	setList(&c.consulates, f.Consulates)
	c.allFiles = c.allFiles || f.AllFiles

	setInt(&c.fetchConcurrency, f.Fetch.Concurrency)
	setDuration(&c.fetchTimeout, f.Fetch.Timeout)
	setInt(&c.fetchRetries, f.Fetch.Retries)
	setDuration(&c.fetchBackoff, f.Fetch.Backoff)
	setDuration(&c.fetchMaxBackoff, f.Fetch.MaxBackoff)
	c.validateShape = c.validateShape || f.Fetch.ValidateShape

	criteria, err := f.Filter.criteria(c.criteria)
	if err != nil {
		return err
	}
	c.criteria = criteria

	setString(&c.htmlOutput, f.Output.HTML)
	setString(&c.dataOutput, f.Output.Data)
	setString(&c.xlsxOutput, f.Output.XLSX)
	setString(&c.listenAddress, f.Server.Listen)

	return nil
}

func (f FilterFile) criteria(base filter.Criteria) (filter.Criteria, error) {
	c := base

	setString(&c.SearchText, f.Search)
	setString(&c.Consulate, f.Consulate)

	if f.Questions != "" {
		questionsOnly, err := filter.ParseQuestionsValue(f.Questions)
		if err != nil {
			return c, err
		}
		c.QuestionsOnly = questionsOnly
	}

	if f.From != "" {
		from, err := filter.ParseCriteriaDate(f.From)
		if err != nil {
			return c, err
		}
		c.DateFrom = from
	}

	if f.To != "" {
		to, err := filter.ParseCriteriaDate(f.To)
		if err != nil {
			return c, err
		}
		c.DateTo = to
	}

	return c, nil
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setDuration(dst *time.Duration, v time.Duration) {
	if v != 0 {
		*dst = v
	}
}

func setList(dst *[]string, v []string) {
	if len(v) > 0 {
		*dst = v
	}
}
