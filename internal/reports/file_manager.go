package reports

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sirupsen/logrus"

	"github.com/ethpandaops/consulate-reports/constants"
)

// DefaultFileManager implements the FileManager interface.
type DefaultFileManager struct {
	logger logrus.FieldLogger
}

// NewDefaultFileManager creates a new file manager.
func NewDefaultFileManager(logger logrus.FieldLogger) *DefaultFileManager {
	return &DefaultFileManager{
		logger: logger.WithField("component", "file_manager"),
	}
}

// SaveJSON saves data as JSON to the specified filename.
func (fm *DefaultFileManager) SaveJSON(filename string, data interface{}) error {
	var jsonData []byte

	var err error

	switch v := data.(type) {
	case []byte:
		jsonData = v
	case string:
		jsonData = []byte(v)
	default:
		jsonData, err = json.MarshalIndent(data, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal data: %w", err)
		}
	}

	return fm.WriteFile(filename, jsonData)
}

// SaveHTML saves HTML content to the specified filename.
func (fm *DefaultFileManager) SaveHTML(filename string, content string) error {
	return fm.WriteFile(filename, []byte(content))
}

// WriteFile writes data to filename, creating its directory if needed.
func (fm *DefaultFileManager) WriteFile(filename string, data []byte) error {
	if dir := filepath.Dir(filename); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	if err := os.WriteFile(filename, data, constants.DefaultFilePermissions); err != nil {
		return fmt.Errorf("failed to write file %s: %w", filename, err)
	}

	fm.logger.WithFields(logrus.Fields{
		"filename": filename,
		"bytes":    len(data),
	}).Debug("File written")

	return nil
}
