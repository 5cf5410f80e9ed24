// Package export writes a model tree to text formats.
package export

import (
	"errors"
	"fmt"

	"flowedit/model"
)

// Format represents an export format
type Format string

const (
	// FormatMoML writes the change-script document (native format)
	FormatMoML Format = "moml"
	// FormatJSON writes the containment tree as JSON
	FormatJSON Format = "json"
	// FormatYAML writes the containment tree as YAML
	FormatYAML Format = "yaml"
	// FormatGraphviz writes the top-level dataflow as a DOT digraph
	FormatGraphviz Format = "dot"
	// FormatMermaid writes the top-level dataflow as a Mermaid flowchart
	FormatMermaid Format = "mermaid"
)

// ErrNilModel is returned when there is nothing to export.
var ErrNilModel = errors.New("model is nil")

// Exporter interface for different export formats
type Exporter interface {
	// Export converts a model tree to the target format
	Export(root *model.Element) (string, error)
	// GetFileExtension returns the recommended file extension for this format
	GetFileExtension() string
	// GetFormatName returns a human-readable name for this format
	GetFormatName() string
}

// NewExporter creates an exporter for the specified format
func NewExporter(format Format) (Exporter, error) {
	switch format {
	case FormatMoML:
		return NewMoMLExporter(), nil
	case FormatJSON:
		return NewJSONExporter(), nil
	case FormatYAML:
		return NewYAMLExporter(), nil
	case FormatGraphviz:
		return NewGraphvizExporter(), nil
	case FormatMermaid:
		return NewMermaidExporter(), nil
	default:
		return nil, fmt.Errorf("unsupported export format: %s", format)
	}
}

// ParseFormat converts a string to a Format
func ParseFormat(s string) (Format, error) {
	switch s {
	case "moml", "xml":
		return FormatMoML, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "dot", "graphviz", "gv":
		return FormatGraphviz, nil
	case "mermaid", "mmd":
		return FormatMermaid, nil
	default:
		return "", fmt.Errorf("unknown format: %s", s)
	}
}

// GetAvailableFormats returns a list of all available export formats
func GetAvailableFormats() []Format {
	return []Format{
		FormatMoML,
		FormatJSON,
		FormatYAML,
		FormatGraphviz,
		FormatMermaid,
	}
}

// GetFormatDescriptions returns human-readable descriptions of all formats
func GetFormatDescriptions() map[Format]string {
	return map[Format]string{
		FormatMoML:     "Change-script document (flowedit native format)",
		FormatJSON:     "Containment tree as JSON",
		FormatYAML:     "Containment tree as YAML",
		FormatGraphviz: "Graphviz DOT digraph of the top-level dataflow",
		FormatMermaid:  "Mermaid flowchart of the top-level dataflow",
	}
}
