package export

import (
	"fmt"
	"strings"

	"flowedit/model"
)

// GraphvizExporter exports the top-level dataflow to Graphviz DOT syntax
type GraphvizExporter struct{}

// NewGraphvizExporter creates a new Graphviz exporter
func NewGraphvizExporter() *GraphvizExporter {
	return &GraphvizExporter{}
}

// Export converts the tree to Graphviz DOT syntax
func (e *GraphvizExporter) Export(root *model.Element) (string, error) {
	if root == nil {
		return "", ErrNilModel
	}
	f := dataflow(root)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("digraph %s {\n", e.getGraphID(root.Name())))
	sb.WriteString("  rankdir=LR;\n")
	sb.WriteString("  node [shape=box];\n\n")

	for _, n := range f.Nodes {
		label := e.escapeLabel(n.Label)
		if n.Class != "" && !n.Port {
			label += "\\n" + e.escapeLabel(n.Class)
		}
		if n.Port {
			sb.WriteString(fmt.Sprintf("  %s [label=\"%s\", shape=circle];\n", e.getNodeID(n.ID), label))
			continue
		}
		sb.WriteString(fmt.Sprintf("  %s [label=\"%s\"];\n", e.getNodeID(n.ID), label))
	}

	if len(f.Edges) > 0 {
		sb.WriteString("\n")
	}
	for _, edge := range f.Edges {
		sb.WriteString(fmt.Sprintf("  %s -> %s [label=\"%s\"];\n",
			e.getNodeID(edge.From), e.getNodeID(edge.To), e.escapeLabel(edge.Label)))
	}

	sb.WriteString("}\n")
	return sb.String(), nil
}

// getNodeID returns a valid DOT node identifier
func (e *GraphvizExporter) getNodeID(id int) string {
	return fmt.Sprintf("N%d", id)
}

func (e *GraphvizExporter) getGraphID(name string) string {
	if name == "" {
		return "G"
	}
	return "\"" + e.escapeLabel(name) + "\""
}

// escapeLabel escapes special characters in labels
func (e *GraphvizExporter) escapeLabel(label string) string {
	label = strings.ReplaceAll(label, `\`, `\\`)
	label = strings.ReplaceAll(label, `"`, `\"`)
	return label
}

// GetFileExtension returns the file extension for DOT files
func (e *GraphvizExporter) GetFileExtension() string {
	return ".dot"
}

// GetFormatName returns the format name
func (e *GraphvizExporter) GetFormatName() string {
	return "Graphviz DOT"
}
