package reports

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/consulate-reports/constants"
	"github.com/ethpandaops/consulate-reports/internal/filter"
	"github.com/ethpandaops/consulate-reports/internal/ingest"
	"github.com/ethpandaops/consulate-reports/internal/reports/templates"
)

const dataFormatVersion = "1.0"

var (
	_ Generator       = (*DefaultGenerator)(nil)
	_ TemplateManager = (*templates.Manager)(nil)
	_ Exporter        = (*XLSXExporter)(nil)
	_ DataProcessor   = (*DefaultDataProcessor)(nil)
	_ FileManager     = (*DefaultFileManager)(nil)
)

// DefaultGenerator implements the Generator interface.
type DefaultGenerator struct {
	templateManager TemplateManager
	fileManager     FileManager
	dataProcessor   DataProcessor
	exporter        Exporter
	logger          logrus.FieldLogger
}

// NewGenerator creates a new report generator.
func NewGenerator(logger logrus.FieldLogger) (*DefaultGenerator, error) {
	templateManager := templates.NewManager(logger)

	if err := templateManager.LoadTemplates(); err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}

	return &DefaultGenerator{
		templateManager: templateManager,
		fileManager:     NewDefaultFileManager(logger),
		dataProcessor:   NewDefaultDataProcessor(logger),
		exporter:        NewXLSXExporter(logger),
		logger:          logger.WithField("component", "report_generator"),
	}, nil
}

// BuildView builds the page view model.
func (g *DefaultGenerator) BuildView(filtered []ingest.Report, in ViewInput) *PageView {
	return g.dataProcessor.BuildView(filtered, in)
}

// RenderHTML renders view into a complete HTML page.
func (g *DefaultGenerator) RenderHTML(view *PageView) (string, error) {
	html, err := g.templateManager.RenderReport(view)
	if err != nil {
		return "", fmt.Errorf("failed to render HTML template: %w", err)
	}

	return html, nil
}

// GenerateReport writes the filtered reports as a JSON data file and an HTML page
// linking to it. Empty filenames get timestamped defaults. It returns the HTML path.
func (g *DefaultGenerator) GenerateReport(filtered []ingest.Report, in ViewInput, htmlFile, dataFile string) (string, error) {
	view := g.BuildView(filtered, in)

	if htmlFile == "" {
		htmlFile = TimestampedFilename(constants.DefaultHTMLReportFile, view.GeneratedAt)
	}
	if dataFile == "" {
		dataFile = TimestampedFilename(constants.DefaultDataJSONFile, view.GeneratedAt)
	}

	if err := g.GenerateDataFile(filtered, view, dataFile); err != nil {
		g.logger.WithError(err).Warn("Failed to generate data file")
	} else {
		view.DataFile = relativeTo(htmlFile, dataFile)
	}

	if _, err := g.GenerateHTML(view, htmlFile); err != nil {
		return "", err
	}

	g.logger.WithFields(logrus.Fields{
		"html_file": htmlFile,
		"data_file": dataFile,
		"reports":   len(filtered),
	}).Info("HTML report generated successfully")

	return htmlFile, nil
}

// GenerateHTML renders view and saves it to filename.
func (g *DefaultGenerator) GenerateHTML(view *PageView, filename string) (string, error) {
	html, err := g.RenderHTML(view)
	if err != nil {
		return "", err
	}

	if err := g.fileManager.SaveHTML(filename, html); err != nil {
		return "", fmt.Errorf("failed to save HTML report: %w", err)
	}

	return filename, nil
}

// DataFile is the JSON document written next to the HTML page.
type DataFile struct {
	Metadata DataFileMetadata `json:"metadata"`
	Reports  []ingest.Report  `json:"reports"`
}

// DataFileMetadata describes how a data file was produced.
type DataFileMetadata struct {
	FormatVersion string          `json:"format_version"`
	GeneratedAt   string          `json:"generated_at"`
	Stats         Stats           `json:"stats"`
	Criteria      filter.Criteria `json:"criteria"`
}

// GenerateDataFile writes the filtered reports as JSON for downstream tooling.
func (g *DefaultGenerator) GenerateDataFile(filtered []ingest.Report, view *PageView, filename string) error {
	if filtered == nil {
		filtered = []ingest.Report{}
	}

	data := DataFile{
		Metadata: DataFileMetadata{
			FormatVersion: dataFormatVersion,
			GeneratedAt:   view.GeneratedAt.Format(time.RFC3339),
			Stats:         view.Stats,
			Criteria:      view.Criteria,
		},
		Reports: filtered,
	}

	if err := g.fileManager.SaveJSON(filename, data); err != nil {
		return fmt.Errorf("failed to save data file: %w", err)
	}

	return nil
}

// ExportXLSX returns the filtered reports as workbook bytes.
func (g *DefaultGenerator) ExportXLSX(filtered []ingest.Report) ([]byte, error) {
	data, err := g.exporter.Export(filtered)
	if err != nil {
		return nil, fmt.Errorf("failed to export workbook: %w", err)
	}

	return data, nil
}

// GenerateXLSX writes the filtered reports as a workbook to filename.
func (g *DefaultGenerator) GenerateXLSX(filtered []ingest.Report, filename string) (string, error) {
	if filename == "" {
		filename = TimestampedFilename(constants.DefaultXLSXReportFile, time.Now())
	}

	data, err := g.ExportXLSX(filtered)
	if err != nil {
		return "", err
	}

	if err := g.fileManager.WriteFile(filename, data); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}

	g.logger.WithFields(logrus.Fields{
		"filename": filename,
		"rows":     len(filtered),
	}).Info("XLSX export generated successfully")

	return filename, nil
}

// TimestampedFilename inserts a timestamp before the extension of base.
func TimestampedFilename(base string, timestamp time.Time) string {
	ext := filepath.Ext(base)
	nameWithoutExt := strings.TrimSuffix(base, ext)

	return fmt.Sprintf("%s-%s%s", nameWithoutExt, timestamp.Format("2006-01-02_15-04-05"), ext)
}

func relativeTo(htmlFile, dataFile string) string {
	rel, err := filepath.Rel(filepath.Dir(htmlFile), dataFile)
	if err != nil {
		return filepath.Base(dataFile)
	}

	return filepath.ToSlash(rel)
}

// SetTemplateManager allows injecting a different template manager (for testing).
func (g *DefaultGenerator) SetTemplateManager(tm TemplateManager) {
	g.templateManager = tm
}

// SetFileManager allows injecting a different file manager (for testing).
func (g *DefaultGenerator) SetFileManager(fm FileManager) {
	g.fileManager = fm
}

// SetDataProcessor allows injecting a different data processor (for testing).
func (g *DefaultGenerator) SetDataProcessor(dp DataProcessor) {
	g.dataProcessor = dp
}

// SetExporter allows injecting a different exporter (for testing).
func (g *DefaultGenerator) SetExporter(e Exporter) {
	g.exporter = e
}
