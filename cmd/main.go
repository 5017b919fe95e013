package main

import (
	"flag"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/consulate-reports/constants"
	"github.com/ethpandaops/consulate-reports/internal/cli"
	"github.com/ethpandaops/consulate-reports/internal/config"
)

// Command-line flags read directly by main
var (
	configFile = flag.String("config", "", "Optional YAML configuration file; explicitly set flags override it")
	serve      = flag.Bool("serve", false, "Shorthand for -mode=serve")
	exportXLSX = flag.Bool("export-xlsx", false, "Shorthand for -mode=export")
	logLevel   = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
)

// Configuration flags, applied by name through config.SetFromFlag when given
func init() {
	flag.String("mode", string(config.ModeRender), "Mode: 'render' (static HTML + JSON), 'export' (XLSX) or 'serve' (interactive viewer)")
	flag.String("data-dir", constants.DefaultDataDir, "Directory holding the default report files")
	flag.String("base-url", "", "Fetch the report files over HTTP from this base URL instead of the data directory")
	flag.String("files", "", "Comma-separated report file names, relative to the data directory or base URL")
	flag.String("input", "", "Comma-separated explicit report file paths")
	flag.Bool("all-files", false, "Load every *.json file in the data directory")
	flag.String("consulates", "", "Comma-separated consulate fragments overriding the built-in list")
	flag.String("q", "", "Case-insensitive text that report messages must contain")
	flag.String("consulate", "", "Only show reports from this consulate")
	flag.String("questions", "", "'with_questions' (default) or 'all'")
	flag.String("from", "", "Only show reports on or after this date (YYYY-MM-DD)")
	flag.String("to", "", "Only show reports on or before this date (YYYY-MM-DD)")
	flag.String("html-out", constants.DefaultHTMLReportFile, "HTML report output path")
	flag.String("data-out", constants.DefaultDataJSONFile, "JSON data output path")
	flag.String("xlsx-out", constants.DefaultXLSXReportFile, "XLSX workbook output path")
	flag.String("listen", constants.DefaultListenAddress, "Listen address in serve mode")
	flag.Int("concurrency", constants.DefaultFetchConcurrency, "Maximum number of files loaded at once")
	flag.Duration("timeout", constants.DefaultFetchTimeout, "HTTP timeout per file")
	flag.Int("retries", constants.DefaultFetchRetries, "Attempts per file over HTTP")
	flag.Bool("validate-shape", false, "Report documents that deviate from the expected shape as warnings")
}

func main() {
	flag.Parse()

	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logger.Fatalf("Configuration error: %v", err)
	}
	logger.SetLevel(level)

	// Create configuration from the config file and flags
	cfg, err := createConfigFromFlags(logger)
	if err != nil {
		logger.Fatalf("Configuration error: %v", err)
	}

	// Create CLI handler
	cliHandler := cli.NewHandler(logger)

	// Run the application
	if err := cliHandler.Run(cfg); err != nil {
		logger.Fatalf("Application error: %v", err)
	}
}

// createConfigFromFlags layers explicitly set flags over the optional config file.
func createConfigFromFlags(logger logrus.FieldLogger) (*config.DefaultConfig, error) {
	cfg := config.NewDefaultConfig()

	if *configFile != "" {
		f, err := config.LoadFile(*configFile)
		if err != nil {
			return nil, err
		}

		if err := cfg.Apply(f); err != nil {
			return nil, fmt.Errorf("invalid config file %s: %w", *configFile, err)
		}
	}

	if err := applyFlags(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"mode":     cfg.GetMode(),
		"data_dir": cfg.GetDataDir(),
		"base_url": cfg.GetBaseURL(),
		"criteria": cfg.GetCriteria().String(),
	}).Info("Configuration loaded")

	return cfg, nil
}

// applyFlags sets every flag given on the command line, so flags win over the config file.
func applyFlags(cfg *config.DefaultConfig) error {
	if *serve && *exportXLSX {
		return fmt.Errorf("-serve and -export-xlsx are mutually exclusive")
	}

	var err error

	flag.Visit(func(fl *flag.Flag) {
		if err != nil {
			return
		}

		switch fl.Name {
		case "config", "log-level":
			return
		}

		err = cfg.SetFromFlag(fl.Name, fl.Value.String())
	})

	return err
}
