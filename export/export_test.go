package export_test

import (
	"encoding/json"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"flowedit/export"
	"flowedit/model"
	"flowedit/moml"
)

const sample = `
<entity name="A" class="Ramp">
  <property name="_location" class="Location" value="[10, 20]"/>
  <port name="out"><property name="output"/></port>
</entity>
<entity name="B" class="Display">
  <port name="in"><property name="input"/></port>
</entity>
<relation name="r"/>
<link port="A.out" relation="r"/>
<link port="B.in" relation="r"/>
`

func newModel(t *testing.T) *model.Element {
	t.Helper()
	root := model.NewTopLevel("top", "TypedCompositeActor")
	if _, err := moml.Execute(root, sample); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	return root
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input    string
		expected export.Format
		wantErr  bool
	}{
		{"moml", export.FormatMoML, false},
		{"xml", export.FormatMoML, false},
		{"json", export.FormatJSON, false},
		{"yaml", export.FormatYAML, false},
		{"yml", export.FormatYAML, false},
		{"dot", export.FormatGraphviz, false},
		{"graphviz", export.FormatGraphviz, false},
		{"mermaid", export.FormatMermaid, false},
		{"mmd", export.FormatMermaid, false},
		{"invalid", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := export.ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
				return
			}
			if got != tt.expected {
				t.Errorf("ParseFormat(%q) = %v, want %v", tt.input, got, tt.expected)
			}
		})
	}
}

func TestNewExporter(t *testing.T) {
	descriptions := export.GetFormatDescriptions()
	for _, format := range export.GetAvailableFormats() {
		t.Run(string(format), func(t *testing.T) {
			exporter, err := export.NewExporter(format)
			if err != nil {
				t.Fatalf("NewExporter(%v) returned error: %v", format, err)
			}
			if !strings.HasPrefix(exporter.GetFileExtension(), ".") {
				t.Errorf("extension %q", exporter.GetFileExtension())
			}
			if descriptions[format] == "" {
				t.Errorf("no description for %s", format)
			}
			if _, err := exporter.Export(nil); err == nil {
				t.Error("exporting nil should fail")
			}
		})
	}

	if _, err := export.NewExporter("invalid"); err == nil {
		t.Error("NewExporter with invalid format should return error")
	}
}

func TestMoMLExportReloads(t *testing.T) {
	root := newModel(t)
	exporter, _ := export.NewExporter(export.FormatMoML)
	text, err := exporter.Export(root)
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	back, err := moml.Load(strings.NewReader(text))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if model.Fingerprint(back) != model.Fingerprint(root) {
		t.Errorf("reloaded tree differs:\n%s", text)
	}
}

func TestJSONExport(t *testing.T) {
	exporter, _ := export.NewExporter(export.FormatJSON)
	text, err := exporter.Export(newModel(t))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	var doc export.Document
	if err := json.Unmarshal([]byte(text), &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if doc.Name != "top" || len(doc.Children) != 3 {
		t.Fatalf("doc = %+v", doc)
	}
	a := doc.Children[0]
	if a.Name != "A" || len(a.Children) != 2 || a.Children[0].Location[0] != 10 {
		t.Errorf("A = %+v", a)
	}
	r := doc.Children[2]
	if r.Kind != "relation" || len(r.Links) != 2 || r.Links[0] != "A.out" {
		t.Errorf("r = %+v", r)
	}
}

func TestYAMLExport(t *testing.T) {
	exporter, _ := export.NewExporter(export.FormatYAML)
	text, err := exporter.Export(newModel(t))
	if err != nil {
		t.Fatalf("Export: %v", err)
	}
	var doc export.Document
	if err := yaml.Unmarshal([]byte(text), &doc); err != nil {
		t.Fatalf("invalid YAML: %v", err)
	}
	if len(doc.Children) != 3 || doc.Children[1].Children[0].Input != true {
		t.Errorf("doc = %+v", doc)
	}
	if !strings.Contains(text, "location: [10, 20]") {
		t.Errorf("location not in flow style:\n%s", text)
	}
}
