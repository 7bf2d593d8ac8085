// Package diagnostics defines PyTerpreter diagnostic codes and their display formats.
package diagnostics

import (
	"fmt"
	"strings"

	"github.com/oarkflow/json"
)

// Tool is the name prefixed to fatal messages.
const Tool = "PyTerpreter"

// Diagnostic code constants.
const (
	EIllegalValue = "E_ILLEGAL_VALUE"
	ELength       = "E_LENGTH"
	EType         = "E_TYPE"
	ESequence     = "E_SEQUENCE"
	EProperty     = "E_PROPERTY"
	EUsage        = "E_USAGE"
	EMismatch     = "E_MISMATCH"
	EInstance     = "E_INSTANCE"
	ETree         = "E_TREE"
	EDestroyed    = "E_DESTROYED"
	EArithmetic   = "E_ARITHMETIC"
	EIndex        = "E_INDEX"
	EDepth        = "E_DEPTH"
	ECancelled    = "E_CANCELLED"
	EIO           = "E_IO"
	EDecode       = "E_DECODE"
)

// Diagnostic represents a decode, check, or runtime diagnostic.
// Path locates the offending node inside the program tree ("/0/2/1").
type Diagnostic struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	File    string `json:"file,omitempty"`
	Path    string `json:"path,omitempty"`
	Hint    string `json:"hint,omitempty"`
}

// MakeDiag creates a new Diagnostic.
func MakeDiag(code, message, path, hint string) Diagnostic {
	return Diagnostic{
		Code:    code,
		Message: message,
		Path:    path,
		Hint:    hint,
	}
}

// InFile returns a copy of the diagnostics tagged with the given file name.
func InFile(diags []Diagnostic, file string) []Diagnostic {
	out := make([]Diagnostic, len(diags))
	for i, d := range diags {
		d.File = file
		out[i] = d
	}
	return out
}

// Fatal renders the single-line message printed before an abnormal exit.
func Fatal(message string) string {
	return fmt.Sprintf("%s: %s", Tool, message)
}

// FormatDiagnostic formats a single diagnostic for display.
func FormatDiagnostic(d Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(d)
		return string(b)
	}
	loc := "<unknown>"
	switch {
	case d.File != "" && d.Path != "":
		loc = d.File + "#" + d.Path
	case d.File != "":
		loc = d.File
	case d.Path != "":
		loc = d.Path
	}
	out := fmt.Sprintf("error[%s]: %s\n  --> %s", d.Code, d.Message, loc)
	if d.Hint != "" {
		out += fmt.Sprintf("\n  hint: %s", d.Hint)
	}
	return out
}

// FormatDiagnostics formats a slice of diagnostics for display.
func FormatDiagnostics(diags []Diagnostic, pretty bool) string {
	if !pretty {
		b, _ := json.Marshal(diags)
		return string(b)
	}
	parts := make([]string, len(diags))
	for i, d := range diags {
		parts[i] = FormatDiagnostic(d, true)
	}
	return strings.Join(parts, "\n\n")
}
