package formatter_test

import (
	"reflect"
	"testing"

	"github.com/C0DECYCLE/PyTerpreter/pkg/diagnostics"
	"github.com/C0DECYCLE/PyTerpreter/pkg/formatter"
	"github.com/C0DECYCLE/PyTerpreter/pkg/parser"
)

func TestFormatLayout(t *testing.T) {
	src := `[["set","x",1],["function","f",["a"],[["if",["less",["get","a"],0],[["return",0]]],["return",["get","a"]]]],["print",["call",["get","f"],[["get","x"]]]]]`
	want := `[
  ["set", "x", 1],
  ["function", "f", ["a"], [
    ["if", ["less", ["get", "a"], 0], [
      ["return", 0]
    ]],
    ["return", ["get", "a"]]
  ]],
  ["print", ["call", ["get", "f"], [["get", "x"]]]]
]
`
	got, diags := formatter.FormatSource(src, "test.json")
	if len(diags) > 0 {
		t.Fatal(diagnostics.FormatDiagnostics(diags, true))
	}
	if got != want {
		t.Errorf("Format mismatch\n--- got ---\n%s\n--- want ---\n%s", got, want)
	}
}

func TestFormatScalars(t *testing.T) {
	got, diags := formatter.FormatSource(`[["print", [1, 2.0, 1e-07, "a\"b\n", null, true, {"z": 1, "a": []}]]]`, "test.json")
	if len(diags) > 0 {
		t.Fatal(diagnostics.FormatDiagnostics(diags, true))
	}
	want := "[\n  [\"print\", [1, 2.0, 1e-07, \"a\\\"b\\n\", null, true, {\"a\": [], \"z\": 1}]]\n]\n"
	if got != want {
		t.Errorf("got %q, want %q", got, want)
	}
}

func TestFormatEmpty(t *testing.T) {
	got, _ := formatter.FormatSource(`[]`, "test.json")
	if got != "[]\n" {
		t.Errorf("got %q", got)
	}
}

func TestFormatRoundTrip(t *testing.T) {
	programs := []string{
		`[["print", 5]]`,
		`[["set", "A", ["class", [["set", "v", 0], ["set", "m", ["function", [], [["return", ["get", "v"]]]]]]]]]`,
		`[["while", ["less", ["get", "i"], 10], [["set", "i", ["add", ["get", "i"], 1]], ["if", true, [], [["print", "ü → ok"]]]]]]`,
		`[["print", {"nested": {"list": [1, [2, 3]], "f": -0.5}}]]`,
		`[["call", ["function", ["a", "b"], [["return", ["add", ["get", "a"], ["get", "b"]]]]], [1, ["multiply", 2, 3]]]]`,
		`[["object", ["get", "A"], [["get", "x"], ["get", "y"]]], ["repeat", 2, [["print", "\t"]]]]`,
	}
	for _, src := range programs {
		first, diags := parser.Parse(src, "a.json")
		if len(diags) > 0 {
			t.Fatalf("parse %s: %v", src, diags)
		}
		out := formatter.Format(first)
		second, diags := parser.Parse(out, "b.json")
		if len(diags) > 0 {
			t.Fatalf("re-parse of formatted output failed: %v\n%s", diags, out)
		}
		if !reflect.DeepEqual(first, second) {
			t.Errorf("round trip changed the tree\nsource: %s\nformatted:\n%s", src, out)
		}
		if again := formatter.Format(second); again != out {
			t.Errorf("formatting is not idempotent:\n%s\nvs\n%s", out, again)
		}
	}
}

func TestFormatSourceDiagnostics(t *testing.T) {
	_, diags := formatter.FormatSource(`[["print", 1]`, "bad.json")
	if len(diags) == 0 || diags[0].Code != diagnostics.EDecode {
		t.Errorf("diags = %v, want E_DECODE", diags)
	}
}
