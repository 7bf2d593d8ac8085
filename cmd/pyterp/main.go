// Command pyterp is the PyTerpreter CLI entry point.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"

	"github.com/oarkflow/log"

	"github.com/C0DECYCLE/PyTerpreter/pkg/config"
	"github.com/C0DECYCLE/PyTerpreter/pkg/diagnostics"
	"github.com/C0DECYCLE/PyTerpreter/pkg/evaluator"
	"github.com/C0DECYCLE/PyTerpreter/pkg/help"
	"github.com/C0DECYCLE/PyTerpreter/pkg/runtime"
	"github.com/C0DECYCLE/PyTerpreter/pkg/trace"
)

const usage = `usage: pyterp <command> [options]
commands: run, check, fmt, trace, repl, help, config
       pyterp <file.json> is short for pyterp run <file.json>`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(1)
	}

	cmd := os.Args[1]
	switch cmd {
	case "run":
		os.Exit(cmdRun(os.Args[2:]))
	case "check":
		os.Exit(cmdCheck(os.Args[2:]))
	case "fmt":
		os.Exit(cmdFmt(os.Args[2:]))
	case "trace":
		os.Exit(cmdTrace(os.Args[2:]))
	case "repl":
		os.Exit(cmdRepl(os.Args[2:]))
	case "help", "--help", "-h":
		os.Exit(cmdHelp(os.Args[2:]))
	case "config":
		os.Exit(cmdConfig(os.Args[2:]))
	default:
		if strings.HasSuffix(cmd, ".json") || cmd == "-" {
			os.Exit(cmdRun(os.Args[1:]))
		}
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n%s\n", cmd, usage)
		os.Exit(1)
	}
}

// runFlags are the options shared by run and repl.
type runFlags struct {
	file      string
	pretty    bool
	json      bool
	watch     bool
	traceFile string
	maxDepth  int
	debug     bool
}

func parseRunFlags(args []string) (runFlags, error) {
	var f runFlags
	f.maxDepth = -1
	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--pretty":
			f.pretty = true
		case "--json":
			f.json = true
		case "--watch":
			f.watch = true
		case "--debug":
			f.debug = true
		case "--trace":
			if i+1 >= len(args) {
				return f, errors.New("--trace requires a file")
			}
			i++
			f.traceFile = args[i]
		case "--max-depth":
			if i+1 >= len(args) {
				return f, errors.New("--max-depth requires a number")
			}
			i++
			n, err := strconv.Atoi(args[i])
			if err != nil || n < 1 {
				return f, fmt.Errorf("--max-depth: invalid value %q, want a positive number", args[i])
			}
			f.maxDepth = n
		default:
			if args[i] == "-" || !strings.HasPrefix(args[i], "-") {
				f.file = args[i]
			} else {
				return f, fmt.Errorf("unknown flag %s", args[i])
			}
		}
	}
	return f, nil
}

// loadConfig resolves the configuration and applies CLI overrides.
func loadConfig(f runFlags) (*config.Config, error) {
	cwd, _ := os.Getwd()
	cfg, path, err := config.Load(cwd)
	if err != nil {
		return nil, err
	}
	if f.maxDepth >= 0 {
		cfg.MaxDepth = f.maxDepth
	}
	if f.traceFile != "" {
		cfg.Trace.File = f.traceFile
	}
	if f.debug {
		cfg.Debug = true
	}
	if cfg.Debug {
		if path == "" {
			path = "defaults"
		}
		log.DefaultLogger.Debug().Str("source", path).Int("max_depth", cfg.MaxDepth).Msg("configuration loaded")
	}
	return cfg, nil
}

// runtimeOptions builds the runtime options for cfg. The returned closer
// flushes and closes the trace log, if any.
func runtimeOptions(cfg *config.Config, stdout io.Writer) ([]runtime.Option, func() error, error) {
	opts := []runtime.Option{runtime.WithConfig(cfg), runtime.WithStdout(stdout)}
	closer := func() error { return nil }
	if cfg.Debug {
		opts = append(opts, runtime.WithLogger(&log.DefaultLogger))
	}
	if cfg.Trace.File != "" {
		f, err := os.Create(cfg.Trace.File)
		if err != nil {
			return nil, nil, err
		}
		opts = append(opts, runtime.WithTrace(trace.NewWriter(f)))
		closer = f.Close
	}
	return opts, closer, nil
}

func cmdRun(args []string) int {
	flags, err := parseRunFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, diagnostics.Fatal(err.Error()))
		return 1
	}
	if flags.file == "" {
		fmt.Fprintln(os.Stderr, "usage: pyterp run <file> [--pretty|--json] [--watch] [--trace <log>] [--max-depth <n>] [--debug]")
		return 1
	}
	cfg, err := loadConfig(flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, diagnostics.Fatal(err.Error()))
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if flags.watch {
		if flags.file == "-" {
			fmt.Fprintln(os.Stderr, diagnostics.Fatal("--watch needs a file"))
			return 1
		}
		return watch(ctx, flags.file, cfg.Watch.Debounce(), func() int {
			return runOnce(ctx, flags, cfg)
		})
	}
	return runOnce(ctx, flags, cfg)
}

func runOnce(ctx context.Context, flags runFlags, cfg *config.Config) int {
	source, filename, exitCode := readSource(flags.file, flags.pretty)
	if exitCode != 0 {
		return exitCode
	}

	opts, closeTrace, err := runtimeOptions(cfg, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, diagnostics.Fatal(err.Error()))
		return 1
	}
	defer closeTrace()

	rt := runtime.New(opts...)
	_, execErr := rt.Run(ctx, source, filename)
	if flags.json {
		return reportJSONError(execErr, filename)
	}
	return reportError(execErr, filename, flags.pretty)
}

// reportJSONError prints err as a JSON diagnostic list and returns the exit
// code for it.
func reportJSONError(err error, filename string) int {
	if err == nil {
		return 0
	}
	var diagErr *runtime.DiagnosticError
	if errors.As(err, &diagErr) {
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics(diagErr.Diagnostics, false))
		return 2
	}
	code := diagnostics.EIO
	var rtErr *evaluator.RuntimeError
	if errors.As(err, &rtErr) {
		code = rtErr.Code
	}
	diag := diagnostics.MakeDiag(code, err.Error(), "", "")
	diag.File = filename
	fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{diag}, false))
	return 1
}

// reportError prints err and returns the exit code for it.
func reportError(err error, filename string, pretty bool) int {
	if err == nil {
		return 0
	}
	var diagErr *runtime.DiagnosticError
	if errors.As(err, &diagErr) {
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics(diagErr.Diagnostics, pretty))
		return 2
	}
	var rtErr *evaluator.RuntimeError
	if errors.As(err, &rtErr) && pretty {
		diag := diagnostics.InFile([]diagnostics.Diagnostic{rtErr.Diagnostic()}, filename)
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics(diag, true))
		return 1
	}
	fmt.Fprintln(os.Stderr, diagnostics.Fatal(err.Error()))
	return 1
}

func cmdCheck(args []string) int {
	var file string
	pretty := false

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--pretty":
			pretty = true
		default:
			if args[i] == "-" || !strings.HasPrefix(args[i], "-") {
				file = args[i]
			}
		}
	}

	if file == "" {
		fmt.Fprintln(os.Stderr, "usage: pyterp check <file> [--pretty]")
		return 1
	}

	source, filename, exitCode := readSource(file, pretty)
	if exitCode != 0 {
		return exitCode
	}

	rt := runtime.New()
	diags := rt.Check(source, filename)
	if len(diags) > 0 {
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics(diags, pretty))
		return 2
	}

	if pretty {
		fmt.Println("No errors found.")
	} else {
		fmt.Println("[]")
	}
	return 0
}

func cmdFmt(args []string) int {
	var file string
	write := false

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--write":
			write = true
		default:
			if args[i] == "-" || !strings.HasPrefix(args[i], "-") {
				file = args[i]
			}
		}
	}

	if file == "" {
		fmt.Fprintln(os.Stderr, "usage: pyterp fmt <file> [--write]")
		return 1
	}
	if write && file == "-" {
		fmt.Fprintln(os.Stderr, diagnostics.Fatal("--write needs a file"))
		return 1
	}

	source, filename, exitCode := readSource(file, false)
	if exitCode != 0 {
		return exitCode
	}

	formatted, err := runtime.New().Format(source, filename)
	if err != nil {
		return reportError(err, filename, false)
	}

	if write {
		if err := os.WriteFile(file, []byte(formatted), 0644); err != nil {
			fmt.Fprintln(os.Stderr, diagnostics.Fatal(err.Error()))
			return 1
		}
		return 0
	}
	fmt.Print(formatted)
	return 0
}

func cmdTrace(args []string) int {
	var file string
	jsonOutput := false

	for i := 0; i < len(args); i++ {
		switch args[i] {
		case "--json":
			jsonOutput = true
		default:
			if !strings.HasPrefix(args[i], "-") {
				file = args[i]
			}
		}
	}

	if file == "" {
		fmt.Fprintln(os.Stderr, "usage: pyterp trace <file.log> [--json]")
		return 1
	}

	f, err := os.Open(file)
	if err != nil {
		fmt.Fprintln(os.Stderr, diagnostics.Fatal(fmt.Sprintf("cannot read file: %s", file)))
		return 1
	}
	defer f.Close()

	events, err := trace.Parse(f)
	if err != nil {
		fmt.Fprintln(os.Stderr, diagnostics.Fatal(err.Error()))
		return 2
	}
	report := trace.Aggregate(events)

	if jsonOutput {
		b, err := report.MarshalJSON()
		if err != nil {
			fmt.Fprintln(os.Stderr, diagnostics.Fatal(err.Error()))
			return 1
		}
		fmt.Println(string(b))
		return 0
	}
	if err := report.Render(os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, diagnostics.Fatal(err.Error()))
		return 1
	}
	return 0
}

func cmdHelp(args []string) int {
	topic := ""
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") {
			topic = arg
		}
	}

	if topic == "" {
		fmt.Print(help.QUICKREF)
		return 0
	}

	_, content, err := help.MatchTopic(topic)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\nAvailable topics: %s\n", err, strings.Join(help.TopicList, ", "))
		return 1
	}
	fmt.Print(content)
	return 0
}

func cmdConfig(args []string) int {
	cwd, _ := os.Getwd()
	cfg, path, err := config.Load(cwd)
	if err != nil {
		fmt.Fprintln(os.Stderr, diagnostics.Fatal(err.Error()))
		return 1
	}
	out, err := cfg.Marshal()
	if err != nil {
		fmt.Fprintln(os.Stderr, diagnostics.Fatal(err.Error()))
		return 1
	}
	if path == "" {
		path = "built-in defaults"
	}
	fmt.Printf("# source: %s\n%s", path, out)
	return 0
}

func readSource(file string, pretty bool) (string, string, int) {
	if file == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			fmt.Fprintln(os.Stderr, diagnostics.Fatal(fmt.Sprintf("error reading stdin: %s", err)))
			return "", "", 1
		}
		return string(data), "<stdin>", 0
	}

	source, err := os.ReadFile(file)
	if err != nil {
		diag := diagnostics.MakeDiag(diagnostics.EIO, fmt.Sprintf("cannot read file: %s", file), "", "")
		diag.File = file
		fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics([]diagnostics.Diagnostic{diag}, pretty))
		return "", "", 1
	}
	return string(source), file, 0
}
