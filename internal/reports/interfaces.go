package reports

import (
	"github.com/ethpandaops/consulate-reports/internal/ingest"
)

// Generator defines the interface for report generation.
type Generator interface {
	BuildView(filtered []ingest.Report, in ViewInput) *PageView
	RenderHTML(view *PageView) (string, error)
	GenerateReport(filtered []ingest.Report, in ViewInput, htmlFile, dataFile string) (string, error)
	ExportXLSX(filtered []ingest.Report) ([]byte, error)
	GenerateXLSX(filtered []ingest.Report, filename string) (string, error)
}

// TemplateManager defines the interface for template management.
type TemplateManager interface {
	LoadTemplates() error
	RenderReport(data interface{}) (string, error)
}

// FileManager defines the interface for file operations.
type FileManager interface {
	SaveJSON(filename string, data interface{}) error
	SaveHTML(filename string, content string) error
	WriteFile(filename string, data []byte) error
}

// DataProcessor builds the page view model from filtered reports.
type DataProcessor interface {
	BuildView(filtered []ingest.Report, in ViewInput) *PageView
}

// Exporter renders filtered reports into a downloadable document.
type Exporter interface {
	Export(filtered []ingest.Report) ([]byte, error)
}
