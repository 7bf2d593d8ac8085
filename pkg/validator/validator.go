// Package validator implements static checks of PyTerpreter programs.
package validator

import (
	"fmt"
	"strings"

	"github.com/C0DECYCLE/PyTerpreter/pkg/ast"
	"github.com/C0DECYCLE/PyTerpreter/pkg/diagnostics"
	"github.com/C0DECYCLE/PyTerpreter/pkg/stdlib"
)

type validator struct {
	diags    []diagnostics.Diagnostic
	registry *stdlib.Registry
	fnDepth  int
}

// Validate checks a decoded program against the default operation set and
// returns diagnostics. A program without diagnostics may still fail at run time.
func Validate(program any) []diagnostics.Diagnostic {
	return ValidateWith(program, stdlib.Default())
}

// ValidateWith checks a decoded program against the operations of reg.
func ValidateWith(program any, reg *stdlib.Registry) []diagnostics.Diagnostic {
	v := &validator{registry: reg}
	if !ast.IsSequence(program) {
		v.addDiag(diagnostics.ESequence, fmt.Sprintf("missing sequence: program is %s", ast.Classify(program)), "",
			"a program is a list of operations")
		return v.diags
	}
	v.validateSequence(program.([]any), "")
	return v.diags
}

func (v *validator) addDiag(code, msg, path, hint string) {
	if path == "" {
		path = "/"
	}
	v.diags = append(v.diags, diagnostics.MakeDiag(code, msg, path, hint))
}

// argPath is the path of the i-th argument of the operation at path.
func argPath(path string, i int) string {
	return ast.ChildPath(path, i+1)
}

func (v *validator) validateSequence(seq []any, path string) {
	for i, stmt := range seq {
		if ast.Classify(stmt) == ast.KindSequence {
			v.validateBlock("sequence", stmt, ast.ChildPath(path, i))
			continue
		}
		v.validateOperation(stmt, ast.ChildPath(path, i), true)
	}
}

// validateBlock checks a node that must be a sequence of operations.
func (v *validator) validateBlock(op string, node any, path string) {
	if !ast.IsSequence(node) {
		v.addDiag(diagnostics.ESequence,
			fmt.Sprintf("%s: missing sequence: got %s", op, describe(node)), path,
			`blocks are lists of operations, e.g. [["print", 1]]`)
		return
	}
	v.validateSequence(node.([]any), path)
}

// validateExpr checks a node in argument position.
func (v *validator) validateExpr(node any, path string) {
	switch ast.Classify(node) {
	case ast.KindOperation:
		v.validateOperation(node, path, false)
	case ast.KindSequence:
		v.validateBlock("expression", node, path)
	case ast.KindInvalid:
		v.addDiag(diagnostics.EType, "invalid type: list is neither an operation nor a sequence", path,
			`build arrays with ["array", n] and arraySet`)
	}
}

func (v *validator) validateOperation(node any, path string, statement bool) {
	name, args, ok := ast.SplitOperation(node)
	if !ok {
		v.addDiag(diagnostics.EType, fmt.Sprintf("invalid type: got %s, want operation", describe(node)), path, "")
		return
	}
	fn := v.registry.Get(name)
	if fn == nil {
		v.addDiag(diagnostics.EProperty, fmt.Sprintf("non-existent property: unknown operation %q", name), path,
			suggest(name, v.registry.Names()))
		for i, arg := range args {
			v.validateExpr(arg, argPath(path, i))
		}
		return
	}
	if !arityOK(fn.Arity, len(args)) {
		v.addDiag(diagnostics.ELength,
			fmt.Sprintf("%s: invalid length: got %d, want %s", name, len(args), joinInts(fn.Arity)), path, "")
		return
	}

	switch name {
	case "set", "get", "inherit":
		v.literalString(name, args[0], argPath(path, 0))
		for i := 1; i < len(args); i++ {
			v.validateExpr(args[i], argPath(path, i))
		}
	case "if":
		v.validateExpr(args[0], argPath(path, 0))
		for i := 1; i < len(args); i++ {
			v.validateBlock(name, args[i], argPath(path, i))
		}
	case "while":
		v.validateExpr(args[0], argPath(path, 0))
		v.validateBlock(name, args[1], argPath(path, 1))
	case "repeat":
		if _, ok := args[0].(int64); !ok {
			v.addDiag(diagnostics.EType,
				fmt.Sprintf("repeat: invalid type: got %s count, want literal int", describe(args[0])),
				argPath(path, 0), "the repeat count is not evaluated; use while for computed counts")
		}
		v.validateBlock(name, args[1], argPath(path, 1))
	case "function":
		v.validateFunction(args, path)
	case "call", "object":
		v.validateExpr(args[0], argPath(path, 0))
		if len(args) == 2 {
			v.validateArgList(name, args[1], argPath(path, 1))
		}
	case "class":
		if len(args) == 2 {
			v.validateExpr(args[0], argPath(path, 0))
		}
		v.validateClassBody(args[len(args)-1], argPath(path, len(args)-1))
	case "return":
		if !statement {
			v.addDiag(diagnostics.EUsage, "return: illegal environment usage: return used as a value", path,
				"return may only appear as a statement")
		} else if v.fnDepth == 0 {
			v.addDiag(diagnostics.EUsage, "return: illegal environment usage: return outside of a function", path, "")
		}
		v.validateExpr(args[0], argPath(path, 0))
	default:
		for i, arg := range args {
			v.validateExpr(arg, argPath(path, i))
		}
	}
}

func (v *validator) validateFunction(args []any, path string) {
	i := 0
	if len(args) == 3 {
		v.literalString("function", args[0], argPath(path, 0))
		i = 1
	}
	params, ok := args[i].([]any)
	if !ok {
		v.addDiag(diagnostics.EType,
			fmt.Sprintf("function: invalid type: got %s parameters, want list of strings", describe(args[i])),
			argPath(path, i), "")
	} else {
		seen := make(map[string]bool, len(params))
		for j, p := range params {
			s, ok := p.(string)
			if !ok {
				v.addDiag(diagnostics.EType,
					fmt.Sprintf("function: invalid type: got %s parameter, want string", describe(p)),
					ast.ChildPath(argPath(path, i), j), "")
				continue
			}
			if seen[s] {
				v.addDiag(diagnostics.EMismatch, fmt.Sprintf("function: duplicate parameter %q", s),
					ast.ChildPath(argPath(path, i), j), "")
			}
			seen[s] = true
		}
	}
	v.fnDepth++
	v.validateBlock("function", args[i+1], argPath(path, i+1))
	v.fnDepth--
}

func (v *validator) validateArgList(op string, node any, path string) {
	list, ok := node.([]any)
	if !ok {
		v.addDiag(diagnostics.EType,
			fmt.Sprintf("%s: invalid type: got %s arguments, want list", op, describe(node)), path,
			"arguments are written as a list of expressions, e.g. [1, [\"get\", \"x\"]]")
		return
	}
	for i, arg := range list {
		v.validateExpr(arg, ast.ChildPath(path, i))
	}
}

func (v *validator) validateClassBody(node any, path string) {
	if !ast.IsSequence(node) {
		v.addDiag(diagnostics.ESequence, fmt.Sprintf("class: missing sequence: got %s", describe(node)), path, "")
		return
	}
	for i, stmt := range node.([]any) {
		stmtPath := ast.ChildPath(path, i)
		name, args, _ := ast.SplitOperation(stmt)
		if name != "set" {
			v.addDiag(diagnostics.EMismatch, fmt.Sprintf("class: illegal operation mismatch: got %q, want set", name),
				stmtPath, "class bodies only declare fields and methods with set")
			continue
		}
		if len(args) != 2 {
			v.addDiag(diagnostics.ELength, fmt.Sprintf("class: invalid length: got %d, want 2", len(args)), stmtPath, "")
			continue
		}
		v.literalString("class", args[0], argPath(stmtPath, 0))
		v.validateExpr(args[1], argPath(stmtPath, 1))
	}
}

func (v *validator) literalString(op string, node any, path string) {
	if _, ok := node.(string); !ok {
		v.addDiag(diagnostics.EType, fmt.Sprintf("%s: invalid type: got %s name, want literal string", op, describe(node)),
			path, "names are written literally and never evaluated")
	}
}

func describe(node any) string {
	switch n := node.(type) {
	case nil:
		return "null"
	case bool:
		return "bool"
	case int64:
		return "int"
	case float64:
		return "float"
	case string:
		return "string"
	case map[string]any:
		return "dictionary"
	case []any:
		return ast.Classify(n).String()
	}
	return fmt.Sprintf("%T", node)
}

func arityOK(arity []int, n int) bool {
	for _, a := range arity {
		if a == n {
			return true
		}
	}
	return false
}

func joinInts(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprint(n)
	}
	return strings.Join(parts, " or ")
}

// suggest offers the closest known operator name, if one is close enough.
func suggest(name string, known []string) string {
	best, bestDist := "", len(name)/2+1
	lower := strings.ToLower(name)
	for _, k := range known {
		if strings.ToLower(k) == lower {
			return fmt.Sprintf("did you mean %q?", k)
		}
		if d := levenshtein(lower, strings.ToLower(k)); d < bestDist {
			best, bestDist = k, d
		}
	}
	if best == "" {
		return ""
	}
	return fmt.Sprintf("did you mean %q?", best)
}

func levenshtein(a, b string) int {
	prev := make([]int, len(b)+1)
	cur := make([]int, len(b)+1)
	for j := range prev {
		prev[j] = j
	}
	for i := 1; i <= len(a); i++ {
		cur[0] = i
		for j := 1; j <= len(b); j++ {
			cost := 1
			if a[i-1] == b[j-1] {
				cost = 0
			}
			cur[j] = min(prev[j]+1, cur[j-1]+1, prev[j-1]+cost)
		}
		prev, cur = cur, prev
	}
	return prev[len(b)]
}
