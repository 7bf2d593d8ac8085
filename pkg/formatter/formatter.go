// Package formatter implements the canonical PyTerpreter program layout.
package formatter

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/C0DECYCLE/PyTerpreter/pkg/ast"
	"github.com/C0DECYCLE/PyTerpreter/pkg/diagnostics"
	"github.com/C0DECYCLE/PyTerpreter/pkg/evaluator"
	"github.com/C0DECYCLE/PyTerpreter/pkg/parser"
)

const indent = "  "

// Format pretty-prints a decoded program. Sequences put one operation per
// line, everything else stays inline, and nested blocks are indented by two
// spaces. The output re-parses to the same tree.
func Format(program any) string {
	return formatNode(program, 0, false) + "\n"
}

// FormatSource parses source and formats it.
func FormatSource(source, filename string) (string, []diagnostics.Diagnostic) {
	prog, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return "", diags
	}
	return Format(prog), nil
}

func formatNode(node any, level int, inline bool) string {
	switch n := node.(type) {
	case nil:
		return "null"
	case bool:
		return strconv.FormatBool(n)
	case int64:
		return strconv.FormatInt(n, 10)
	case int:
		return strconv.Itoa(n)
	case float64:
		return evaluator.FormatFloat(n)
	case string:
		return quote(n)
	case map[string]any:
		return formatDictionary(n, level)
	case []any:
		switch {
		case len(n) == 0:
			return "[]"
		case ast.Classify(n) == ast.KindSequence && !inline:
			return formatSequence(n, level)
		case ast.Classify(n) == ast.KindOperation:
			return formatOperation(n, level)
		}
		return formatList(n, level)
	}
	return fmt.Sprintf("%v", node)
}

func formatSequence(seq []any, level int) string {
	var sb strings.Builder
	pad := strings.Repeat(indent, level+1)
	sb.WriteString("[\n")
	for i, stmt := range seq {
		sb.WriteString(pad)
		sb.WriteString(formatNode(stmt, level+1, false))
		if i < len(seq)-1 {
			sb.WriteByte(',')
		}
		sb.WriteByte('\n')
	}
	sb.WriteString(strings.Repeat(indent, level))
	sb.WriteByte(']')
	return sb.String()
}

func formatOperation(op []any, level int) string {
	name, _ := op[0].(string)
	parts := make([]string, len(op))
	parts[0] = quote(name)
	for i, arg := range op[1:] {
		// Argument lists of call and object are plain lists even when every
		// element is an operation.
		argList := (name == "call" || name == "object") && i == 1
		parts[i+1] = formatNode(arg, level, argList)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatList(list []any, level int) string {
	parts := make([]string, len(list))
	for i, item := range list {
		parts[i] = formatNode(item, level, false)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatDictionary(d map[string]any, level int) string {
	if len(d) == 0 {
		return "{}"
	}
	keys := make([]string, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = quote(k) + ": " + formatNode(d[k], level, false)
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// quote encodes s as a JSON string. Non-ASCII text is kept as is.
func quote(s string) string {
	var sb strings.Builder
	sb.WriteByte('"')
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		switch {
		case r == '"':
			sb.WriteString(`\"`)
		case r == '\\':
			sb.WriteString(`\\`)
		case r == '\n':
			sb.WriteString(`\n`)
		case r == '\r':
			sb.WriteString(`\r`)
		case r == '\t':
			sb.WriteString(`\t`)
		case r < 0x20 || r == utf8.RuneError && size == 1:
			fmt.Fprintf(&sb, `\u%04x`, r)
		default:
			sb.WriteString(s[i : i+size])
		}
		i += size
	}
	sb.WriteByte('"')
	return sb.String()
}
