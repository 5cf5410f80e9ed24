package moml

import (
	"fmt"

	"flowedit/model"
)

// ScriptError reports the element a script was rejected at. It matches
// model.ErrScriptRejected as well as the underlying cause.
type ScriptError struct {
	Line int
	Tag  string
	Name string
	Err  error
}

func (e *ScriptError) Error() string {
	if e.Tag == "" {
		return fmt.Sprintf("script rejected at line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("script rejected at line %d <%s name=%q>: %v", e.Line, e.Tag, e.Name, e.Err)
}

func (e *ScriptError) Unwrap() []error {
	return []error{model.ErrScriptRejected, e.Err}
}
