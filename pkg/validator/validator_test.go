package validator_test

import (
	"testing"

	"github.com/C0DECYCLE/PyTerpreter/pkg/diagnostics"
	"github.com/C0DECYCLE/PyTerpreter/pkg/parser"
	"github.com/C0DECYCLE/PyTerpreter/pkg/stdlib"
	"github.com/C0DECYCLE/PyTerpreter/pkg/validator"
)

func validate(t *testing.T, src string) []diagnostics.Diagnostic {
	t.Helper()
	prog, diags := parser.Parse(src, "test.json")
	if len(diags) > 0 {
		t.Fatalf("parse errors: %s", diagnostics.FormatDiagnostics(diags, true))
	}
	return validator.Validate(prog)
}

func expectNoDiags(t *testing.T, src string) {
	t.Helper()
	if diags := validate(t, src); len(diags) > 0 {
		t.Errorf("expected no diagnostics, got:\n%s", diagnostics.FormatDiagnostics(diags, true))
	}
}

func expectDiag(t *testing.T, src, code, path string) diagnostics.Diagnostic {
	t.Helper()
	diags := validate(t, src)
	for _, d := range diags {
		if d.Code == code && d.Path == path {
			return d
		}
	}
	t.Fatalf("expected %s at %s, got:\n%s", code, path, diagnostics.FormatDiagnostics(diags, true))
	return diagnostics.Diagnostic{}
}

func TestValidProgram(t *testing.T) {
	expectNoDiags(t, `[
		["set", "x", 1],
		["function", "f", ["a"], [
			["if", ["less", ["get", "a"], 0], [["return", 0]], [["return", ["get", "a"]]]]
		]],
		["set", "A", ["class", [
			["set", "v", 0],
			["set", "m", ["function", [], [["return", ["call", ["inherit", "m"]]]]]]
		]]],
		["set", "B", ["class", ["get", "A"], [["set", "w", 1]]]],
		["repeat", 3, [["print", ["call", ["get", "f"], [["get", "x"]]]]]],
		["while", false, []],
		["print", ["object", ["get", "B"]]]
	]`)
}

func TestEmptyProgram(t *testing.T) {
	expectNoDiags(t, `[]`)
}

func TestNotASequence(t *testing.T) {
	prog, diags := parser.ParseNode(`["print", 1]`, "test.json")
	if len(diags) > 0 {
		t.Fatal(diags)
	}
	got := validator.Validate(prog)
	if len(got) != 1 || got[0].Code != diagnostics.ESequence {
		t.Errorf("Validate(operation) = %v, want one E_SEQUENCE", got)
	}
}

func TestUnknownOperation(t *testing.T) {
	d := expectDiag(t, `[["prnt", 1]]`, diagnostics.EProperty, "/0")
	if d.Hint != `did you mean "print"?` {
		t.Errorf("hint = %q", d.Hint)
	}
}

func TestUnknownOperationCaseHint(t *testing.T) {
	d := expectDiag(t, `[["objectget", ["get", "o"], "x"]]`, diagnostics.EProperty, "/0")
	if d.Hint != `did you mean "objectGet"?` {
		t.Errorf("hint = %q", d.Hint)
	}
}

func TestNestedUnknownOperation(t *testing.T) {
	expectDiag(t, `[["print", ["add", 1, ["frob"]]]]`, diagnostics.EProperty, "/0/1/2")
}

func TestArity(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"set", `[["set", "x"]]`},
		{"if", `[["if", true]]`},
		{"dictionary", `[["print", ["dictionary", 1]]]`},
		{"call", `[["call"]]`},
		{"objectSet", `[["objectSet", 1, "x"]]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			diags := validate(t, tt.src)
			if len(diags) == 0 || diags[0].Code != diagnostics.ELength {
				t.Errorf("got %v, want E_LENGTH", diags)
			}
		})
	}
}

func TestBlocksMustBeSequences(t *testing.T) {
	expectDiag(t, `[["if", true, 1]]`, diagnostics.ESequence, "/0/2")
	expectDiag(t, `[["if", true, [], ["print", 1]]]`, diagnostics.ESequence, "/0/3")
	expectDiag(t, `[["while", true, 5]]`, diagnostics.ESequence, "/0/2")
	expectDiag(t, `[["function", "f", [], "body"]]`, diagnostics.ESequence, "/0/3")
	expectDiag(t, `[["class", 1]]`, diagnostics.ESequence, "/0/1")
}

func TestNestedSequenceStatements(t *testing.T) {
	expectNoDiags(t, `[[["set", "x", 1], ["print", ["get", "x"]]]]`)
	expectDiag(t, `[["set", "x", 1], [["prnt", 1]]]`, diagnostics.EProperty, "/1/0")
}

func TestRepeatCountLiteral(t *testing.T) {
	d := expectDiag(t, `[["repeat", ["get", "n"], []]]`, diagnostics.EType, "/0/1")
	if d.Hint == "" {
		t.Error("expected a hint for computed repeat counts")
	}
	expectDiag(t, `[["repeat", 2.5, []]]`, diagnostics.EType, "/0/1")
}

func TestNamesMustBeLiteral(t *testing.T) {
	expectDiag(t, `[["set", ["get", "n"], 1]]`, diagnostics.EType, "/0/1")
	expectDiag(t, `[["print", ["get", 1]]]`, diagnostics.EType, "/0/1/1")
	expectDiag(t, `[["function", 5, [], []]]`, diagnostics.EType, "/0/1")
}

func TestFunctionParameters(t *testing.T) {
	expectDiag(t, `[["function", "f", "a", []]]`, diagnostics.EType, "/0/2")
	expectDiag(t, `[["function", "f", ["a", 1], []]]`, diagnostics.EType, "/0/2/1")
	expectDiag(t, `[["function", "f", ["a", "a"], []]]`, diagnostics.EMismatch, "/0/2/1")
}

func TestCallArguments(t *testing.T) {
	expectDiag(t, `[["call", ["get", "f"], 1]]`, diagnostics.EType, "/0/2")
	expectDiag(t, `[["call", ["get", "f"], [["nope"]]]]`, diagnostics.EProperty, "/0/2/0")
}

func TestClassBody(t *testing.T) {
	expectDiag(t, `[["class", [["print", 1]]]]`, diagnostics.EMismatch, "/0/1/0")
	expectDiag(t, `[["class", [["set", "x"]]]]`, diagnostics.ELength, "/0/1/0")
}

func TestReturnPositions(t *testing.T) {
	expectDiag(t, `[["return", 1]]`, diagnostics.EUsage, "/0")
	expectDiag(t, `[["function", "f", [], [["print", ["return", 1]]]]]`, diagnostics.EUsage, "/0/3/0/1")
	expectNoDiags(t, `[["function", "f", [], [["while", true, [["return", 1]]]]]]`)
}

func TestInvalidList(t *testing.T) {
	expectDiag(t, `[["print", [1, 2]]]`, diagnostics.EType, "/0/1")
}

func TestCustomRegistry(t *testing.T) {
	reg := stdlib.NewRegistry()
	prog, _ := parser.Parse(`[["print", 1]]`, "test.json")
	diags := validator.ValidateWith(prog, reg)
	if len(diags) != 1 || diags[0].Code != diagnostics.EProperty {
		t.Errorf("ValidateWith(empty registry) = %v, want one E_PROPERTY", diags)
	}
}
