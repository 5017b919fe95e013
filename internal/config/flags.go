package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ethpandaops/consulate-reports/internal/filter"
)

// SetFromFlag applies one command-line flag given explicitly by the user.
// Unlike Apply, empty and false values override what is already set.
func (c *DefaultConfig) SetFromFlag(name, value string) error {
	var err error

	switch name {
	case "mode":
		c.mode, err = ParseMode(value)
	case "serve":
		err = setModeIf(&c.mode, ModeServe, value)
	case "export-xlsx":
		err = setModeIf(&c.mode, ModeExport, value)
	case "data-dir":
		c.dataDir = value
	case "base-url":
		c.baseURL = value
	case "files":
		c.files = splitList(value)
	case "input":
		c.inputFiles = splitList(value)
	case "all-files":
		c.allFiles, err = strconv.ParseBool(value)
	case "consulates":
		c.consulates = splitList(value)
	case "q":
		c.criteria.SearchText = value
	case "consulate":
		c.criteria.Consulate = value
	case "questions":
		c.criteria.QuestionsOnly, err = filter.ParseQuestionsValue(value)
	case "from":
		c.criteria.DateFrom, err = filter.ParseCriteriaDate(value)
	case "to":
		c.criteria.DateTo, err = filter.ParseCriteriaDate(value)
	case "html-out":
		c.htmlOutput = value
	case "data-out":
		c.dataOutput = value
	case "xlsx-out":
		c.xlsxOutput = value
	case "listen":
		c.listenAddress = value
	case "concurrency":
		c.fetchConcurrency, err = strconv.Atoi(value)
	case "retries":
		c.fetchRetries, err = strconv.Atoi(value)
	case "timeout":
		c.fetchTimeout, err = time.ParseDuration(value)
	case "validate-shape":
		c.validateShape, err = strconv.ParseBool(value)
	default:
		return fmt.Errorf("unknown configuration flag %q", name)
	}

	if err != nil {
		return fmt.Errorf("invalid value for -%s: %w", name, err)
	}

	return nil
}

func setModeIf(dst *Mode, mode Mode, value string) error {
	on, err := strconv.ParseBool(value)
	if err != nil {
		return err
	}
	if on {
		*dst = mode
	}

	return nil
}

// splitList splits a comma-separated value, dropping empty entries.
func splitList(value string) []string {
	var out []string

	for _, part := range strings.Split(value, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}

	return out
}
