// Package validation checks a model tree for structural invariants the
// change-script executor does not enforce on its own.
package validation

import (
	"fmt"
	"math"

	"flowedit/model"
)

// Severity grades a finding.
type Severity int

const (
	// SeverityError marks a tree that breaks a structural invariant.
	SeverityError Severity = iota
	// SeverityWarning marks a suspicious but well-formed construct.
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Validator walks a model tree and collects violations.
type Validator struct {
	errors     []ValidationError
	strictMode bool // Also report warnings
}

// ValidationError represents a finding with the element it concerns.
type ValidationError struct {
	Path     string
	Severity Severity
	Context  string
	Message  string
}

// NewValidator creates a new validator with default settings.
func NewValidator() *Validator {
	return &Validator{}
}

// SetStrictMode enables or disables warnings.
func (v *Validator) SetStrictMode(strict bool) {
	v.strictMode = strict
}

// Validate checks root and everything below it.
func (v *Validator) Validate(root *model.Element) []ValidationError {
	v.errors = nil
	if root == nil {
		return nil
	}
	root.Walk(func(e *model.Element) {
		switch e.Kind() {
		case model.KindPort:
			v.checkPort(e)
		case model.KindRelation:
			v.checkRelation(e)
		case model.KindLocation:
			v.checkLocation(e)
		case model.KindEntity:
			v.checkEntity(e)
		}
	})
	return v.errors
}

// HasErrors reports whether any finding is an error.
func HasErrors(findings []ValidationError) bool {
	for _, f := range findings {
		if f.Severity == SeverityError {
			return true
		}
	}
	return false
}

func (v *Validator) checkPort(p *model.Element) {
	for _, r := range p.Linked() {
		if !portLinkInScope(p, r) {
			v.addError(p, SeverityError, r.FullName(),
				"link to %s crosses the hierarchy", r.Name())
		}
	}
	if !p.Input && !p.Output && !p.IsParameterPort() {
		v.addError(p, SeverityWarning, "", "port is neither input nor output")
	}
}

// portLinkInScope reports whether r sits where p can see it: beside p's
// actor, or inside the composite p bounds.
func portLinkInScope(p, r *model.Element) bool {
	actor := p.Container()
	if actor == nil {
		return false
	}
	return r.Container() == actor.Container() || r.Container() == actor
}

func (v *Validator) checkRelation(r *model.Element) {
	for _, o := range r.LinkedRelations() {
		if o.Container() != r.Container() {
			v.addError(r, SeverityError, o.FullName(),
				"relation link to %s crosses the hierarchy", o.Name())
		}
	}
	if n := len(r.Linked()); n < 2 {
		v.addError(r, SeverityWarning, fmt.Sprintf("links=%d", n), "relation joins fewer than two ends")
	}
}

func (v *Validator) checkLocation(loc *model.Element) {
	if math.IsNaN(loc.X) || math.IsNaN(loc.Y) || math.IsInf(loc.X, 0) || math.IsInf(loc.Y, 0) {
		v.addError(loc, SeverityError, model.FormatPoint(loc.X, loc.Y), "location is not finite")
	}
	if !loc.IsRelative() {
		return
	}
	anchor := loc.Anchor()
	if anchor == nil {
		v.addError(loc, SeverityError, loc.RelativeTo, "anchor %s does not exist", loc.RelativeTo)
		return
	}
	seen := map[*model.Element]bool{loc: true}
	for cur := anchor.Location(); cur != nil && cur.IsRelative(); {
		if seen[cur] {
			v.addError(loc, SeverityError, loc.RelativeTo, "anchor chain is cyclic")
			return
		}
		seen[cur] = true
		next := cur.Anchor()
		if next == nil {
			return
		}
		cur = next.Location()
	}
}

func (v *Validator) checkEntity(e *model.Element) {
	proto := e.Prototype()
	if proto == nil {
		return
	}
	if !proto.ClassDef {
		v.addError(e, SeverityError, proto.FullName(), "defers to %s, which is not a class", proto.Name())
		return
	}
	if proto.Name() != e.Class {
		v.addError(e, SeverityError, proto.FullName(),
			"class %s does not match prototype %s", e.Class, proto.Name())
	}
	for _, pp := range proto.Ports() {
		if e.Child(pp.Name()) == nil {
			v.addError(e, SeverityWarning, pp.Name(), "port %s of class %s is missing", pp.Name(), proto.Name())
		}
	}
}

// addError records a finding. Warnings are kept only in strict mode.
func (v *Validator) addError(e *model.Element, sev Severity, context, format string, args ...interface{}) {
	if sev == SeverityWarning && !v.strictMode {
		return
	}
	v.errors = append(v.errors, ValidationError{
		Path:     e.FullName(),
		Severity: sev,
		Context:  context,
		Message:  fmt.Sprintf(format, args...),
	})
}

// String formats the error for display.
func (e ValidationError) String() string {
	if e.Context == "" {
		return fmt.Sprintf("%s: %s: %s", e.Severity, e.Path, e.Message)
	}
	return fmt.Sprintf("%s: %s: %s (%s)", e.Severity, e.Path, e.Message, e.Context)
}

// Error implements error.
func (e ValidationError) Error() string {
	return e.String()
}
