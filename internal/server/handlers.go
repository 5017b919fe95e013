package server

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ethpandaops/consulate-reports/constants"
	"github.com/ethpandaops/consulate-reports/internal/core"
	"github.com/ethpandaops/consulate-reports/internal/filter"
	"github.com/ethpandaops/consulate-reports/internal/ingest"
	"github.com/ethpandaops/consulate-reports/internal/loader"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// APIError is the body of every error response.
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorEnvelope wraps an APIError.
type ErrorEnvelope struct {
	Error APIError `json:"error"`
}

// ReportsResponse is the body of GET /api/reports.
type ReportsResponse struct {
	LoadID        string          `json:"load_id"`
	Total         int             `json:"total"`
	Shown         int             `json:"shown"`
	NothingLoaded bool            `json:"nothing_loaded"`
	Criteria      filter.Criteria `json:"criteria"`
	Reports       []ingest.Report `json:"reports"`
}

// LoadResponse summarizes a dataset after a reload.
type LoadResponse struct {
	LoadID        string        `json:"load_id"`
	Files         int           `json:"files"`
	Reports       int           `json:"reports"`
	Consulates    int           `json:"consulates"`
	NothingLoaded bool          `json:"nothing_loaded"`
	Failures      []FailureJSON `json:"failures"`
	Warnings      []string      `json:"warnings,omitempty"`
}

// FailureJSON describes a file that could not be loaded.
type FailureJSON struct {
	Source string `json:"source"`
	Kind   string `json:"kind"`
	Error  string `json:"error"`
}

func respondError(c *gin.Context, status int, code string, err error) {
	msg := "unknown error"
	if err != nil {
		msg = err.Error()
	}

	c.AbortWithStatusJSON(status, ErrorEnvelope{Error: APIError{Message: msg, Code: code}})
}

// criteriaFromQuery reads q, consulate, questions, from and to.
func criteriaFromQuery(c *gin.Context) (filter.Criteria, error) {
	questionsOnly, err := filter.ParseQuestionsValue(c.Query("questions"))
	if err != nil {
		return filter.Criteria{}, err
	}

	from, err := filter.ParseCriteriaDate(c.Query("from"))
	if err != nil {
		return filter.Criteria{}, err
	}

	to, err := filter.ParseCriteriaDate(c.Query("to"))
	if err != nil {
		return filter.Criteria{}, err
	}

	return filter.Criteria{
		SearchText:    c.Query("q"),
		Consulate:     c.Query("consulate"),
		QuestionsOnly: questionsOnly,
		DateFrom:      from,
		DateTo:        to,
	}, nil
}

func (s *Server) handleIndex(c *gin.Context) {
	criteria, err := criteriaFromQuery(c)
	if err != nil {
		c.Data(http.StatusBadRequest, "text/plain; charset=utf-8", []byte(err.Error()))
		return
	}

	view := s.tool.View(criteria, true, "html")

	html, err := s.tool.Generator().RenderHTML(view)
	if err != nil {
		s.logger.WithError(err).Error("Failed to render page")
		c.Data(http.StatusInternalServerError, "text/plain; charset=utf-8", []byte("failed to render page"))

		return
	}

	status := http.StatusOK
	if view.NothingLoaded {
		status = http.StatusServiceUnavailable
	}

	c.Data(status, "text/html; charset=utf-8", []byte(html))
}

func (s *Server) handleReports(c *gin.Context) {
	criteria, err := criteriaFromQuery(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_criteria", err)
		return
	}

	ds, matched := s.tool.Query(criteria, "api")
	if ds.NothingLoaded {
		respondError(c, http.StatusServiceUnavailable, "nothing_loaded", errors.New(constants.ErrNothingLoaded))
		return
	}

	c.JSON(http.StatusOK, ReportsResponse{
		LoadID:   ds.LoadID,
		Total:    len(ds.Reports),
		Shown:    len(matched),
		Criteria: criteria,
		Reports:  matched,
	})
}

func (s *Server) handleConsulates(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"consulates": filter.ConsulateOptions(s.tool.Dataset().Consulates),
	})
}

func (s *Server) handleExport(c *gin.Context) {
	criteria, err := criteriaFromQuery(c)
	if err != nil {
		respondError(c, http.StatusBadRequest, "invalid_criteria", err)
		return
	}

	ds, matched := s.tool.Query(criteria, "xlsx")
	if ds.NothingLoaded {
		respondError(c, http.StatusServiceUnavailable, "nothing_loaded", errors.New(constants.ErrNothingLoaded))
		return
	}

	data, err := s.tool.Generator().ExportXLSX(matched)
	if err != nil {
		s.logger.WithError(err).Error("Failed to export workbook")
		respondError(c, http.StatusInternalServerError, "export_failed", err)

		return
	}

	filename := fmt.Sprintf("consulate-reports-%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

func (s *Server) handleReload(c *gin.Context) {
	ds, err := s.tool.Reload(c.Request.Context())

	switch {
	case errors.Is(err, loader.ErrSuperseded):
		respondError(c, http.StatusConflict, "superseded", err)
		return
	case errors.Is(err, loader.ErrNothingLoaded):
		c.JSON(http.StatusServiceUnavailable, loadResponse(ds))
		return
	case err != nil:
		s.logger.WithError(err).Error("Failed to reload reports")
		respondError(c, http.StatusInternalServerError, "reload_failed", err)

		return
	}

	c.JSON(http.StatusOK, loadResponse(ds))
}

func (s *Server) handleClear(c *gin.Context) {
	s.tool.Clear()
	c.Status(http.StatusNoContent)
}

func (s *Server) handleHealth(c *gin.Context) {
	ds := s.tool.Dataset()

	c.JSON(http.StatusOK, gin.H{
		"status":         "ok",
		"load_id":        ds.LoadID,
		"reports":        len(ds.Reports),
		"nothing_loaded": ds.NothingLoaded,
	})
}

func loadResponse(ds *core.Dataset) LoadResponse {
	failures := make([]FailureJSON, 0, len(ds.Failures))
	for _, f := range ds.Failures {
		failures = append(failures, FailureJSON{Source: f.Source, Kind: f.Kind, Error: f.Err.Error()})
	}

	return LoadResponse{
		LoadID:        ds.LoadID,
		Files:         ds.Files,
		Reports:       len(ds.Reports),
		Consulates:    len(ds.Consulates),
		NothingLoaded: ds.NothingLoaded,
		Failures:      failures,
		Warnings:      ds.Warnings,
	}
}
