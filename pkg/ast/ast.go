// Package ast classifies PyTerpreter program trees.
//
// Programs are decoded JSON kept in raw form: every non-literal node is
// []any{operatorName, args...} and every block is []any of such operations.
// Literals are nil, bool, int64, float64, string and map[string]any.
package ast

import (
	"strconv"
)

// Kind identifies the shape of a program node.
type Kind int

const (
	KindLiteral Kind = iota
	KindDictionary
	KindOperation
	KindSequence
	KindInvalid
)

func (k Kind) String() string {
	switch k {
	case KindLiteral:
		return "literal"
	case KindDictionary:
		return "dictionary"
	case KindOperation:
		return "operation"
	case KindSequence:
		return "sequence"
	default:
		return "invalid"
	}
}

// Classify reports the kind of node. An empty list is an (empty) sequence;
// a list headed by a list is a sequence; a list headed by a string is an
// operation; any other list is invalid.
func Classify(node any) Kind {
	switch n := node.(type) {
	case []any:
		if len(n) == 0 {
			return KindSequence
		}
		switch n[0].(type) {
		case []any:
			return KindSequence
		case string:
			return KindOperation
		default:
			return KindInvalid
		}
	case map[string]any:
		return KindDictionary
	default:
		return KindLiteral
	}
}

// IsSequence reports whether node is a sequence whose elements are all
// operations or nested sequences.
func IsSequence(node any) bool {
	list, ok := node.([]any)
	if !ok || Classify(node) != KindSequence {
		return false
	}
	for _, el := range list {
		switch Classify(el) {
		case KindOperation:
		case KindSequence:
			if !IsSequence(el) {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// SplitOperation returns the operator name and raw argument nodes of an operation.
func SplitOperation(node any) (string, []any, bool) {
	list, ok := node.([]any)
	if !ok || len(list) == 0 {
		return "", nil, false
	}
	name, ok := list[0].(string)
	if !ok {
		return "", nil, false
	}
	return name, list[1:], true
}

// Op builds an operation node.
func Op(name string, args ...any) []any {
	node := make([]any, 0, len(args)+1)
	node = append(node, name)
	return append(node, args...)
}

// Seq builds a sequence node.
func Seq(ops ...[]any) []any {
	node := make([]any, len(ops))
	for i, op := range ops {
		node[i] = op
	}
	return node
}

// ChildPath appends an index segment to a node path.
func ChildPath(path string, i int) string {
	return path + "/" + strconv.Itoa(i)
}

// Walk visits node and its descendants depth-first. Paths are slash-separated
// indices from the root ("" is the root itself). Returning false from fn skips
// the children of that node.
func Walk(node any, fn func(node any, path string) bool) {
	walk(node, "", fn)
}

func walk(node any, path string, fn func(node any, path string) bool) {
	if !fn(node, path) {
		return
	}
	if list, ok := node.([]any); ok {
		for i, child := range list {
			walk(child, ChildPath(path, i), fn)
		}
	}
}

// Depth returns the maximum nesting depth of lists in node.
func Depth(node any) int {
	list, ok := node.([]any)
	if !ok {
		return 0
	}
	max := 0
	for _, child := range list {
		if d := Depth(child); d > max {
			max = d
		}
	}
	return max + 1
}
