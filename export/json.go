package export

import (
	"encoding/json"

	"flowedit/model"
)

// JSONExporter exports the tree to JSON format
type JSONExporter struct{}

// NewJSONExporter creates a new JSON exporter
func NewJSONExporter() *JSONExporter {
	return &JSONExporter{}
}

// Export converts the tree to JSON
func (e *JSONExporter) Export(root *model.Element) (string, error) {
	if root == nil {
		return "", ErrNilModel
	}
	data, err := json.MarshalIndent(Snapshot(root), "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// GetFileExtension returns the file extension for JSON
func (e *JSONExporter) GetFileExtension() string {
	return ".json"
}

// GetFormatName returns the format name
func (e *JSONExporter) GetFormatName() string {
	return "JSON"
}
