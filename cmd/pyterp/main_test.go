package main

import (
	"reflect"
	"testing"
)

func TestParseRunFlags(t *testing.T) {
	f, err := parseRunFlags([]string{"prog.json", "--pretty", "--trace", "calls.log", "--max-depth", "64"})
	if err != nil {
		t.Fatal(err)
	}
	want := runFlags{file: "prog.json", pretty: true, traceFile: "calls.log", maxDepth: 64}
	if f != want {
		t.Errorf("flags = %+v, want %+v", f, want)
	}

	f, err = parseRunFlags([]string{"-"})
	if err != nil || f.file != "-" || f.maxDepth != -1 {
		t.Errorf("stdin flags = %+v, %v", f, err)
	}

	for _, args := range [][]string{{"--trace"}, {"--max-depth", "x"}, {"--max-depth", "-1"}, {"--max-depth", "0"}, {"--nope"}} {
		if _, err := parseRunFlags(args); err == nil {
			t.Errorf("parseRunFlags(%v) should fail", args)
		}
	}
}

func TestNeedsMoreInput(t *testing.T) {
	tests := []struct {
		src  string
		want bool
	}{
		{`["print", 1]`, false},
		{`["print", [`, true},
		{`["print", "]"`, true},
		{`["print", "a\"]"]`, false},
		{`{"k": [1`, true},
		{`5`, false},
		{`"open`, true},
	}
	for _, tt := range tests {
		if got := needsMoreInput(tt.src); got != tt.want {
			t.Errorf("needsMoreInput(%q) = %v, want %v", tt.src, got, tt.want)
		}
	}
}

func TestCompletions(t *testing.T) {
	names := []string{"add", "array", "arrayGet", "print"}
	got := completions(`["arr`, names)
	want := []string{`["array`, `["arrayGet`}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("completions = %v, want %v", got, want)
	}
	if got := completions(`no quote`, names); got != nil {
		t.Errorf("completions without a quote = %v", got)
	}
}
