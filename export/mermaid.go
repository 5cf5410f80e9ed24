package export

import (
	"fmt"
	"strings"

	"flowedit/model"
)

// MermaidExporter exports the top-level dataflow to Mermaid syntax
type MermaidExporter struct{}

// NewMermaidExporter creates a new Mermaid exporter
func NewMermaidExporter() *MermaidExporter {
	return &MermaidExporter{}
}

// Export converts the tree to a Mermaid flowchart
func (e *MermaidExporter) Export(root *model.Element) (string, error) {
	if root == nil {
		return "", ErrNilModel
	}
	f := dataflow(root)

	var sb strings.Builder
	sb.WriteString("graph LR\n")
	for _, n := range f.Nodes {
		id := fmt.Sprintf("N%d", n.ID)
		label := e.escapeLabel(n.Label)
		if n.Port {
			// Boundary ports are drawn as circles
			sb.WriteString(fmt.Sprintf("    %s((\"%s\"))\n", id, label))
			continue
		}
		sb.WriteString(fmt.Sprintf("    %s[\"%s\"]\n", id, label))
	}

	if len(f.Edges) > 0 {
		sb.WriteString("\n")
	}
	for _, edge := range f.Edges {
		sb.WriteString(fmt.Sprintf("    N%d -->|%s| N%d\n", edge.From, e.escapeLabel(edge.Label), edge.To))
	}
	return sb.String(), nil
}

// escapeLabel replaces characters Mermaid treats as syntax
func (e *MermaidExporter) escapeLabel(label string) string {
	label = strings.ReplaceAll(label, `"`, "#quot;")
	label = strings.ReplaceAll(label, "|", "#124;")
	return label
}

// GetFileExtension returns the file extension for Mermaid files
func (e *MermaidExporter) GetFileExtension() string {
	return ".mmd"
}

// GetFormatName returns the format name
func (e *MermaidExporter) GetFormatName() string {
	return "Mermaid"
}
