package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/C0DECYCLE/PyTerpreter/pkg/config"
	"github.com/C0DECYCLE/PyTerpreter/pkg/evaluator"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestDefaults(t *testing.T) {
	home := t.TempDir()
	cfg, src, err := config.LoadFrom(t.TempDir(), home)
	if err != nil {
		t.Fatal(err)
	}
	if src != "" {
		t.Errorf("source = %q, want defaults", src)
	}
	if cfg.MaxDepth != evaluator.DefaultMaxDepth {
		t.Errorf("MaxDepth = %d", cfg.MaxDepth)
	}
	if cfg.REPL.History != filepath.Join(home, ".pyterp", "history") {
		t.Errorf("History = %q, want it under home", cfg.REPL.History)
	}
	if cfg.Watch.Debounce() != 100*time.Millisecond {
		t.Errorf("Debounce = %v", cfg.Watch.Debounce())
	}
}

func TestProjectOverridesUser(t *testing.T) {
	project, home := t.TempDir(), t.TempDir()
	writeFile(t, filepath.Join(home, ".pyterp", "config.yaml"), "max_depth: 10\n")
	writeFile(t, filepath.Join(project, config.ProjectFile), "debug: true\ntrace:\n  file: calls.log\n")

	cfg, src, err := config.LoadFrom(project, home)
	if err != nil {
		t.Fatal(err)
	}
	if src != filepath.Join(project, config.ProjectFile) {
		t.Errorf("source = %q", src)
	}
	if !cfg.Debug || cfg.Trace.File != "calls.log" {
		t.Errorf("project settings not applied: %+v", cfg)
	}
	// The project file wins as a whole; unset fields fall back to defaults.
	if cfg.MaxDepth != evaluator.DefaultMaxDepth {
		t.Errorf("MaxDepth = %d, want default", cfg.MaxDepth)
	}
}

func TestUserConfig(t *testing.T) {
	home := t.TempDir()
	writeFile(t, filepath.Join(home, ".pyterp", "config.yaml"), "max_depth: 10\nrepl:\n  prompt: \"py> \"\n")

	cfg, _, err := config.LoadFrom(t.TempDir(), home)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.MaxDepth != 10 || cfg.REPL.Prompt != "py> " {
		t.Errorf("user settings not applied: %+v", cfg)
	}
	if cfg.Limits().MaxDepth != 10 {
		t.Errorf("Limits = %+v", cfg.Limits())
	}
}

func TestInvalidConfig(t *testing.T) {
	project := t.TempDir()
	writeFile(t, filepath.Join(project, config.ProjectFile), "max_depth: -1\n")
	if _, _, err := config.LoadFrom(project, ""); err == nil {
		t.Error("expected an error for a negative max_depth")
	}

	writeFile(t, filepath.Join(project, config.ProjectFile), "max_depth: 0\n")
	if _, _, err := config.LoadFrom(project, ""); err == nil {
		t.Error("expected an error for a zero max_depth")
	}

	writeFile(t, filepath.Join(project, config.ProjectFile), "max_depth: [1\n")
	if _, _, err := config.LoadFrom(project, ""); err == nil {
		t.Error("expected an error for malformed YAML")
	}
}

func TestMarshal(t *testing.T) {
	out, err := config.Default().Marshal()
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"max_depth: 512", "debounce_ms: 100", ">>> "} {
		if !strings.Contains(string(out), want) {
			t.Errorf("marshalled config missing %q:\n%s", want, out)
		}
	}
}
