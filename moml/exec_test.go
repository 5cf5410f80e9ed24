package moml

import (
	"errors"
	"strings"
	"testing"

	"flowedit/model"
)

const pipeline = `
<entity name="A" class="Ramp">
  <property name="_location" class="Location" value="[10, 20]"/>
  <port name="out" class="TypedIOPort"><property name="output"/></port>
</entity>
<entity name="B" class="Display">
  <port name="in"><property name="input"/></port>
</entity>
<relation name="r"/>
<link port="A.out" relation="r"/>
<link port="B.in" relation="r"/>
`

func newTree(t *testing.T, script string) *model.Element {
	t.Helper()
	root := model.NewTopLevel("top", "TypedCompositeActor")
	if _, err := Execute(root, script); err != nil {
		t.Fatalf("Execute: %v", err)
	}
	return root
}

func mustResolve(t *testing.T, root *model.Element, name string) *model.Element {
	t.Helper()
	e, err := root.Resolve(name)
	if err != nil {
		t.Fatalf("Resolve(%s): %v", name, err)
	}
	return e
}

func TestExecuteBuildsTree(t *testing.T) {
	root := newTree(t, pipeline)

	out := mustResolve(t, root, "A.out")
	if !out.Output || out.Input {
		t.Errorf("A.out flags: in=%v out=%v", out.Input, out.Output)
	}
	r := mustResolve(t, root, "r")
	if len(r.LinkedPorts()) != 2 {
		t.Errorf("r has %d linked ports", len(r.LinkedPorts()))
	}
	loc := mustResolve(t, root, "A").Location()
	if loc == nil || loc.X != 10 || loc.Y != 20 {
		t.Errorf("A location = %+v", loc)
	}
}

func TestUndoRestoresTree(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"delete linked entity", `<deleteEntity name="A"/>`},
		{"delete relation", `<deleteRelation name="r"/>`},
		{"unlink", `<unlink port="B.in" relation="r"/>`},
		{"move", `<property name="A._location" value="[50, 60]"/>`},
		{"create and link", `<entity name="C"><port name="p"/></entity><link port="C.p" relation="r"/>`},
		{"port flag", `<port name="B.in"><property name="multiport" value="true"/></port>`},
		{"relative", `<entity name="B"><property name="_location" class="RelativeLocation" value="[40, 40]">
			<property name="relativeTo" value="A"/><property name="relativeToElementName" value="entity"/>
		</property></entity>`},
		{"vertex", `<relation name="r"><vertex name="vertex" value="[5, 5]"/></relation>`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := newTree(t, pipeline)
			before := model.Fingerprint(root)

			res, err := Execute(root, tt.script)
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if model.Fingerprint(root) == before {
				t.Fatal("script changed nothing")
			}
			if res.Undo == "" {
				t.Fatal("no undo script")
			}
			if _, err := Execute(root, res.Undo); err != nil {
				t.Fatalf("undo: %v\n%s", err, res.Undo)
			}
			if model.Fingerprint(root) != before {
				t.Errorf("undo did not restore the tree\nundo:\n%s\nhave:\n%s", res.Undo,
					strings.Join(model.Describe(root), "\n"))
			}
		})
	}
}

func TestStructuralFlag(t *testing.T) {
	root := newTree(t, pipeline)

	res, err := Execute(root, `<property name="A._location" value="[1, 1]"/>`)
	if err != nil {
		t.Fatal(err)
	}
	if res.Structural {
		t.Error("a coordinate write is not structural")
	}

	res, err = Execute(root, `<unlink port="A.out" relation="r"/>`)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Structural {
		t.Error("unlink is structural")
	}
}

func TestFailedScriptRollsBack(t *testing.T) {
	root := newTree(t, pipeline)
	before := model.Fingerprint(root)

	_, err := Execute(root, `<entity name="C"/><deleteEntity name="A"/><link port="Z.p" relation="r"/>`)
	if !errors.Is(err, model.ErrScriptRejected) {
		t.Fatalf("expected ErrScriptRejected, got %v", err)
	}
	if !errors.Is(err, model.ErrNotFound) {
		t.Errorf("expected the cause to be kept, got %v", err)
	}
	var se *ScriptError
	if !errors.As(err, &se) || se.Tag != "link" {
		t.Errorf("ScriptError = %+v", se)
	}
	if model.Fingerprint(root) != before {
		t.Error("failed script left changes behind")
	}
}

func TestAutoGroupRenames(t *testing.T) {
	root := newTree(t, pipeline)
	paste := AutoGroup(`<entity name="A" class="Ramp"><port name="out"/></entity>
<relation name="r"/>
<relation name="s"/>
<link port="A.out" relation="r"/>
`)

	for _, want := range []string{"A2", "A3"} {
		if _, err := Execute(root, paste); err != nil {
			t.Fatalf("paste: %v", err)
		}
		a := mustResolve(t, root, want)
		rel := a.Child("out").LinkedRelations()
		if len(rel) != 1 || rel[0] == mustResolve(t, root, "r") {
			t.Errorf("%s.out must link to its own relation, got %v", want, rel)
		}
	}
	if mustResolve(t, root, "s2") == nil {
		t.Error("second paste should rename s")
	}
	if len(mustResolve(t, root, "r").LinkedPorts()) != 2 {
		t.Error("original relation was touched")
	}
}

func TestClassInstantiation(t *testing.T) {
	root := newTree(t, `
<class name="Gain" extends="TypedAtomicActor">
  <port name="in"><property name="input"/></port>
  <port name="out"><property name="output"/></port>
</class>
<entity name="g" class="Gain"/>
`)
	g := mustResolve(t, root, "g")
	if g.Prototype() != mustResolve(t, root, "Gain") {
		t.Fatal("instance does not defer to its class")
	}
	if in := g.Child("in"); in == nil || !in.Input {
		t.Error("instance did not inherit ports")
	}
}

func TestDottedCreate(t *testing.T) {
	root := newTree(t, pipeline)
	res, err := Execute(root, `<port name="A.extra"><property name="input"/></port>`)
	if err != nil {
		t.Fatal(err)
	}
	if mustResolve(t, root, "A.extra").Container() != mustResolve(t, root, "A") {
		t.Error("dotted port created in the wrong container")
	}
	if !strings.Contains(res.Undo, `deletePort name="A.extra"`) {
		t.Errorf("undo = %q", res.Undo)
	}
}

func TestNameCollisionWithOtherKind(t *testing.T) {
	root := newTree(t, pipeline)
	if _, err := Execute(root, `<relation name="A"/>`); !errors.Is(err, model.ErrNameCollision) {
		t.Errorf("expected ErrNameCollision, got %v", err)
	}
}

func TestExportLoadRoundTrip(t *testing.T) {
	root := newTree(t, pipeline+`<relation name="v"><vertex name="vertex" value="[3, 4]"/></relation>
<link relation1="r" relation2="v"/>`)

	loaded, err := Load(strings.NewReader(ExportDocument(root)))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if model.Fingerprint(loaded) != model.Fingerprint(root) {
		t.Errorf("round trip changed the tree\nwant:\n%s\ngot:\n%s",
			strings.Join(model.Describe(root), "\n"), strings.Join(model.Describe(loaded), "\n"))
	}
}

func TestExportLinks(t *testing.T) {
	root := newTree(t, pipeline)
	a := mustResolve(t, root, "A")
	r := mustResolve(t, root, "r")

	got := ExportLinks(root, []*model.Element{a, r})
	if !strings.Contains(got, `port="A.out"`) {
		t.Errorf("missing covered link: %q", got)
	}
	if strings.Contains(got, `port="B.in"`) {
		t.Errorf("uncovered link exported: %q", got)
	}
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"unclosed", "<entity name=\"A\">\n<port name=\"p\">"},
		{"mismatched", "<entity name=\"A\"></port>"},
		{"garbage", "<entity name=>"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.script)
			if !errors.Is(err, model.ErrScriptRejected) {
				t.Errorf("expected ErrScriptRejected, got %v", err)
			}
		})
	}
}

const portParameter = `
<port name="gainPort" class="ParameterPort"><property name="input"/></port>
<property name="gain" class="PortParameter" value="2"/>
<relation name="g"/>
<link port="gainPort" relation="g"/>
`

func TestDeletePortParameterTakesPort(t *testing.T) {
	root := newTree(t, portParameter)
	before := model.Fingerprint(root)
	if p := mustResolve(t, root, "gainPort").PairedParameter(); p != mustResolve(t, root, "gain") {
		t.Fatalf("gainPort paired with %v", p)
	}

	res, err := Execute(root, `<deleteProperty name="gain"/>`)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if root.Child("gain") != nil || root.Child("gainPort") != nil {
		t.Errorf("left behind:\n%s", strings.Join(model.Describe(root), "\n"))
	}
	if _, err := Execute(root, res.Undo); err != nil {
		t.Fatalf("undo: %v\n%s", err, res.Undo)
	}
	if model.Fingerprint(root) != before {
		t.Errorf("undo did not restore the pair\nundo:\n%s", res.Undo)
	}
}
