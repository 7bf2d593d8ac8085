// Package parser decodes PyTerpreter programs from their JSON encoding.
package parser

import (
	stdjson "encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/C0DECYCLE/PyTerpreter/pkg/ast"
	"github.com/C0DECYCLE/PyTerpreter/pkg/diagnostics"
)

// Parse decodes source into a program tree. The top-level node must be a
// sequence of operations.
func Parse(source, filename string) (any, []diagnostics.Diagnostic) {
	node, diags := ParseNode(source, filename)
	if len(diags) > 0 {
		return nil, diags
	}
	if !ast.IsSequence(node) {
		return nil, []diagnostics.Diagnostic{{
			Code:    diagnostics.ESequence,
			Message: fmt.Sprintf("missing sequence: program is a %s", describe(node)),
			File:    filename,
			Hint:    `wrap the program in a list of operations, e.g. [["print", 1]]`,
		}}
	}
	return node, nil
}

// ParseNode decodes a single node of any kind (used by the REPL).
func ParseNode(source, filename string) (any, []diagnostics.Diagnostic) {
	if strings.TrimSpace(source) == "" {
		return nil, []diagnostics.Diagnostic{decodeDiag(filename, "empty program", 0)}
	}

	dec := stdjson.NewDecoder(strings.NewReader(source))
	dec.UseNumber()

	var raw any
	if err := dec.Decode(&raw); err != nil {
		return nil, []diagnostics.Diagnostic{fromDecodeError(filename, err)}
	}
	var extra any
	if err := dec.Decode(&extra); !errors.Is(err, io.EOF) {
		return nil, []diagnostics.Diagnostic{decodeDiag(filename, "unexpected data after program", dec.InputOffset())}
	}

	node, err := normalize(raw)
	if err != nil {
		return nil, []diagnostics.Diagnostic{decodeDiag(filename, err.Error(), 0)}
	}
	return node, nil
}

// normalize turns json.Number into int64 or float64, recursively.
func normalize(v any) (any, error) {
	switch n := v.(type) {
	case stdjson.Number:
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		f, err := n.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %s", n.String())
		}
		return f, nil
	case []any:
		for i, el := range n {
			out, err := normalize(el)
			if err != nil {
				return nil, err
			}
			n[i] = out
		}
		return n, nil
	case map[string]any:
		for k, el := range n {
			out, err := normalize(el)
			if err != nil {
				return nil, err
			}
			n[k] = out
		}
		return n, nil
	default:
		return v, nil
	}
}

func fromDecodeError(filename string, err error) diagnostics.Diagnostic {
	var syntaxErr *stdjson.SyntaxError
	if errors.As(err, &syntaxErr) {
		return decodeDiag(filename, syntaxErr.Error(), syntaxErr.Offset)
	}
	if errors.Is(err, io.ErrUnexpectedEOF) {
		return decodeDiag(filename, "unexpected end of input", 0)
	}
	return decodeDiag(filename, err.Error(), 0)
}

func decodeDiag(filename, message string, offset int64) diagnostics.Diagnostic {
	d := diagnostics.Diagnostic{
		Code:    diagnostics.EDecode,
		Message: message,
		File:    filename,
	}
	if offset > 0 {
		d.Hint = fmt.Sprintf("at byte offset %d", offset)
	}
	return d
}

func describe(node any) string {
	switch ast.Classify(node) {
	case ast.KindOperation:
		name, _, _ := ast.SplitOperation(node)
		return fmt.Sprintf("single %q operation", name)
	case ast.KindSequence:
		return "sequence containing non-operation elements"
	default:
		return ast.Classify(node).String()
	}
}
