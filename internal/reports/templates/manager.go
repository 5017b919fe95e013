package templates

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/consulate-reports/constants"
)

//go:embed *.html *.css
var templateFS embed.FS

const stylesheet = "report.css"

// Manager handles template loading, parsing, and rendering.
type Manager struct {
	templates map[string]*template.Template
	css       template.CSS
	logger    logrus.FieldLogger
}

// NewManager creates a new template manager.
func NewManager(logger logrus.FieldLogger) *Manager {
	return &Manager{
		templates: make(map[string]*template.Template),
		logger:    logger.WithField("component", "template_manager"),
	}
}

// LoadTemplates loads all templates from the embedded filesystem.
func (m *Manager) LoadTemplates() error {
	m.logger.Debug("Loading HTML templates")

	css, err := templateFS.ReadFile(stylesheet)
	if err != nil {
		return fmt.Errorf("failed to read stylesheet: %w", err)
	}

	//nolint:gosec // embedded, not user input
	m.css = template.CSS(css)

	err = fs.WalkDir(templateFS, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if d.IsDir() || !strings.HasSuffix(path, ".html") {
			return nil
		}

		content, err := templateFS.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read template %s: %w", path, err)
		}

		templateName := strings.TrimSuffix(filepath.Base(path), ".html")

		tmpl, err := template.New(templateName).Funcs(m.getTemplateFuncs()).Parse(string(content))
		if err != nil {
			return fmt.Errorf("failed to parse template %s: %w", path, err)
		}

		m.templates[templateName] = tmpl
		m.logger.WithField("template", templateName).Debug("Loaded template")

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to load templates: %w", err)
	}

	m.logger.WithField("template_count", len(m.templates)).Debug("Templates loaded successfully")

	return nil
}

// RenderReport renders the main report template with the given data.
func (m *Manager) RenderReport(data interface{}) (string, error) {
	return m.RenderTemplate("report", data)
}

// RenderTemplate renders a template with the given name and data.
func (m *Manager) RenderTemplate(templateName string, data interface{}) (string, error) {
	tmpl, exists := m.templates[templateName]
	if !exists {
		return "", fmt.Errorf("template %s not found", templateName)
	}

	var output strings.Builder
	if err := tmpl.Execute(&output, data); err != nil {
		return "", fmt.Errorf("failed to execute template %s: %w", templateName, err)
	}

	return output.String(), nil
}

func (m *Manager) getTemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"stylesheet": func() template.CSS {
			return m.css
		},
		"formatDate": func(layout string, t time.Time) string {
			return t.Format(layout)
		},
		"eq": func(a, b interface{}) bool {
			return a == b
		},
		"nothingLoadedHint": func() string { return constants.NothingLoadedHint },
		"noResultsMessage":  func() string { return constants.NoResultsMessage },
		"noDetailsMessage":  func() string { return constants.NoDetailsMessage },
	}
}
