package parser_test

import (
	"testing"

	"github.com/C0DECYCLE/PyTerpreter/pkg/parser"
)

// FuzzParse feeds random inputs to the parser to catch panics.
// The parser should never panic; invalid input yields diagnostics.
func FuzzParse(f *testing.F) {
	seeds := []string{
		`[["print", 1]]`,
		`[["set", "x", 5], ["print", ["get", "x"]]]`,
		`[["if", true, [["print", "yes"]], [["print", "no"]]]]`,
		`[["while", false, [["print", 1]]]]`,
		`[["repeat", 3, [["print", 1]]]]`,
		`[["function", "f", ["a"], [["return", ["get", "a"]]]]]`,
		`[["set", "C", ["class", [["set", "x", 1]]]]]`,
		`[["print", {"a": [1, 2.5, null]}]]`,
		`[]`,
		`[[]]`,
		`[1, 2]`,
		`{"a": 1}`,
		`"hello"`,
		`[["print", 1]`,
		`[["print", "unterminated]]`,
		`[["print", 1e400]]`,
		`[["print", 9223372036854775808]]`,
		``,
		`   `,
		`[["a"]] [["b"]]`,
	}

	for _, s := range seeds {
		f.Add(s)
	}

	f.Fuzz(func(t *testing.T, input string) {
		func() {
			defer func() {
				if r := recover(); r != nil {
					t.Fatalf("parser.Parse panicked on input %q: %v", input, r)
				}
			}()
			parser.Parse(input, "fuzz.json")
		}()
	})
}
