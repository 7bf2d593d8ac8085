package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/C0DECYCLE/PyTerpreter/internal/testutil"
	"github.com/C0DECYCLE/PyTerpreter/pkg/config"
	"github.com/C0DECYCLE/PyTerpreter/pkg/diagnostics"
	"github.com/C0DECYCLE/PyTerpreter/pkg/evaluator"
	"github.com/C0DECYCLE/PyTerpreter/pkg/runtime"
)

// outcome is what the CLI would have produced for a scenario.
type outcome struct {
	exitCode int
	stdout   string
	diags    []diagnostics.Diagnostic
}

func TestConformance(t *testing.T) {
	dirs, err := testutil.ListScenarios(testutil.ScenariosDir)
	if err != nil {
		t.Fatalf("listing scenarios: %v", err)
	}
	if len(dirs) == 0 {
		t.Fatal("no scenarios found")
	}

	for _, dir := range dirs {
		t.Run(filepath.Base(dir), func(t *testing.T) {
			scenario, err := testutil.LoadScenario(dir)
			if err != nil {
				t.Fatalf("failed to load scenario: %v", err)
			}
			source, filename, err := testutil.ReadProgramFile(dir, scenario.Cmd)
			if err != nil {
				t.Fatalf("failed to read program file: %v", err)
			}

			var stdout bytes.Buffer
			rt := newRuntime(scenario, &stdout)
			var got outcome
			switch scenario.Cmd[0] {
			case "run":
				got = runScenario(rt, source, filename)
				got.stdout = stdout.String()
			case "check":
				got = checkScenario(rt, source, filename)
			case "fmt":
				got = fmtScenario(rt, source, filename)
			default:
				t.Skipf("unsupported command: %s", scenario.Cmd[0])
			}
			checkExpectations(t, got, scenario)
		})
	}
}

func newRuntime(scenario *testutil.Scenario, stdout io.Writer) *runtime.Runtime {
	cfg := config.Default()
	if scenario.Config != nil && scenario.Config.MaxDepth > 0 {
		cfg.MaxDepth = scenario.Config.MaxDepth
	}
	return runtime.New(runtime.WithConfig(cfg), runtime.WithStdout(stdout), runtime.WithRunID("test"))
}

func runScenario(rt *runtime.Runtime, source, filename string) outcome {
	_, err := rt.Run(context.Background(), source, filename)
	o := outcome{}
	var de *runtime.DiagnosticError
	var re *evaluator.RuntimeError
	switch {
	case err == nil:
	case errors.As(err, &de):
		o.exitCode = 2
		o.diags = de.Diagnostics
	case errors.As(err, &re):
		o.exitCode = 1
		o.diags = diagnostics.InFile([]diagnostics.Diagnostic{re.Diagnostic()}, filename)
	default:
		o.exitCode = 1
		o.diags = []diagnostics.Diagnostic{diagnostics.MakeDiag(diagnostics.EIO, err.Error(), "", "")}
	}
	return o
}

func checkScenario(rt *runtime.Runtime, source, filename string) outcome {
	diags := rt.Check(source, filename)
	if len(diags) > 0 {
		return outcome{exitCode: 2, diags: diags}
	}
	return outcome{}
}

func fmtScenario(rt *runtime.Runtime, source, filename string) outcome {
	formatted, err := rt.Format(source, filename)
	var de *runtime.DiagnosticError
	if errors.As(err, &de) {
		return outcome{exitCode: 2, diags: de.Diagnostics}
	}
	return outcome{stdout: formatted}
}

func checkExpectations(t *testing.T, got outcome, scenario *testutil.Scenario) {
	t.Helper()
	want := scenario.Expect
	stderr := diagnostics.FormatDiagnostics(got.diags, true)

	if got.exitCode != want.ExitCode {
		t.Errorf("exit code: got %d, want %d\n%s", got.exitCode, want.ExitCode, stderr)
	}
	if want.StdoutText != nil && got.stdout != *want.StdoutText {
		t.Errorf("stdout:\n  got:  %q\n  want: %q", got.stdout, *want.StdoutText)
	}
	if want.StdoutContains != "" && !strings.Contains(got.stdout, want.StdoutContains) {
		t.Errorf("stdout should contain %q, got: %q", want.StdoutContains, got.stdout)
	}
	if want.StderrContains != "" && !strings.Contains(stderr, want.StderrContains) {
		t.Errorf("stderr should contain %q, got: %s", want.StderrContains, stderr)
	}
	for _, code := range want.ErrorCodes {
		found := false
		for _, d := range got.diags {
			if d.Code == code {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("expected diagnostic %s, got:\n%s", code, stderr)
		}
	}
	if len(want.ErrorCodes) == 0 && len(got.diags) > 0 {
		t.Errorf("unexpected diagnostics:\n%s", stderr)
	}
}

// Verify scenarios directory exists
func TestScenariosExist(t *testing.T) {
	root := testutil.ScenariosDir
	info, err := os.Stat(root)
	if err != nil {
		t.Fatalf("scenarios directory not found: %v", err)
	}
	if !info.IsDir() {
		t.Fatalf("scenarios path is not a directory: %s", root)
	}
}
