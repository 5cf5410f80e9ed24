package export

import (
	"flowedit/model"
	"flowedit/moml"
)

// MoMLExporter writes the document that rebuilds the tree.
type MoMLExporter struct{}

// NewMoMLExporter creates a new change-script exporter
func NewMoMLExporter() *MoMLExporter {
	return &MoMLExporter{}
}

// Export converts the tree to a change-script document
func (e *MoMLExporter) Export(root *model.Element) (string, error) {
	if root == nil {
		return "", ErrNilModel
	}
	return moml.ExportDocument(root), nil
}

// GetFileExtension returns the file extension for change scripts
func (e *MoMLExporter) GetFileExtension() string {
	return ".moml"
}

// GetFormatName returns the format name
func (e *MoMLExporter) GetFormatName() string {
	return "MoML"
}
