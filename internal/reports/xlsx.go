package reports

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/xuri/excelize/v2"

	"github.com/ethpandaops/consulate-reports/constants"
	"github.com/ethpandaops/consulate-reports/internal/ingest"
)

const xlsxSheet = "Reports"

var xlsxHeaders = []string{
	"Date",
	"Consulate",
	"Message ID",
	"File",
	"Question Count",
	"Questions",
	"Hashtags",
	"Excerpt",
}

// XLSXExporter writes filtered reports into a workbook, one row per report.
type XLSXExporter struct {
	logger logrus.FieldLogger
}

// NewXLSXExporter creates an exporter.
func NewXLSXExporter(logger logrus.FieldLogger) *XLSXExporter {
	return &XLSXExporter{
		logger: logger.WithField("component", "xlsx_exporter"),
	}
}

// Export returns the workbook bytes.
func (e *XLSXExporter) Export(filtered []ingest.Report) ([]byte, error) {
	start := time.Now()

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), xlsxSheet); err != nil {
		return nil, fmt.Errorf("failed to name sheet: %w", err)
	}

	var firstErr error
	setCell := func(col, row int, v any) {
		if firstErr != nil {
			return
		}
		cell, err := excelize.CoordinatesToCellName(col, row)
		if err == nil {
			err = f.SetCellValue(xlsxSheet, cell, v)
		}
		if err != nil {
			firstErr = fmt.Errorf("failed to write cell (%d, %d): %w", col, row, err)
		}
	}

	for i, h := range xlsxHeaders {
		setCell(i+1, 1, h)
	}

	style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, fmt.Errorf("failed to create header style: %w", err)
	}
	if err := f.SetRowStyle(xlsxSheet, 1, 1, style); err != nil {
		return nil, fmt.Errorf("failed to style header: %w", err)
	}

	for i := range filtered {
		r := &filtered[i]
		row := i + 2

		setCell(1, row, r.Date)
		setCell(2, row, r.Consulate)
		setCell(3, row, r.MessageID)
		setCell(4, row, r.SourceID)
		setCell(5, row, len(r.Questions))
		setCell(6, row, strings.Join(r.Questions, "\n"))
		setCell(7, row, strings.Join(r.Hashtags, " "))
		setCell(8, row, Excerpt(r.OriginalText, constants.ExcerptLength))
	}

	if firstErr != nil {
		return nil, firstErr
	}

	for _, w := range []struct {
		from, to string
		width    float64
	}{
		{"A", "A", 20},
		{"B", "B", 16},
		{"C", "E", 12},
		{"F", "F", 60},
		{"G", "G", 30},
		{"H", "H", 80},
	} {
		if err := f.SetColWidth(xlsxSheet, w.from, w.to, w.width); err != nil {
			return nil, fmt.Errorf("failed to set width of columns %s-%s: %w", w.from, w.to, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}

	e.logger.WithFields(logrus.Fields{
		"rows":       len(filtered),
		"elapsed_ms": time.Since(start).Milliseconds(),
	}).Debug("Exported workbook")

	return buf.Bytes(), nil
}
