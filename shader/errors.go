package shader

import (
	"fmt"
	"strings"
)

// Diagnostic is one compiler message tied to a source position.
type Diagnostic struct {
	Source  string
	Line    int
	Column  int
	Message string
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s:%d:%d: %s", d.Source, d.Line, d.Column, d.Message)
}

// ShaderCompileError reports malformed GLSL, a failed link between stages or
// a stage without a kernel.
type ShaderCompileError struct {
	Name        string
	Stage       Stage
	Diagnostics []Diagnostic
}

func (e ShaderCompileError) Error() string {
	lines := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		lines[i] = d.String()
	}
	return fmt.Sprintf("compiling %s (%s): %s", e.Name, e.Stage, strings.Join(lines, "; "))
}
