package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterh/liner"

	"github.com/C0DECYCLE/PyTerpreter/pkg/diagnostics"
	"github.com/C0DECYCLE/PyTerpreter/pkg/evaluator"
	"github.com/C0DECYCLE/PyTerpreter/pkg/help"
	"github.com/C0DECYCLE/PyTerpreter/pkg/parser"
	"github.com/C0DECYCLE/PyTerpreter/pkg/runtime"
	"github.com/C0DECYCLE/PyTerpreter/pkg/stdlib"
)

const continuationPrompt = "... "

func cmdRepl(args []string) int {
	flags, err := parseRunFlags(args)
	if err != nil {
		fmt.Fprintln(os.Stderr, diagnostics.Fatal(err.Error()))
		return 1
	}
	cfg, err := loadConfig(flags)
	if err != nil {
		fmt.Fprintln(os.Stderr, diagnostics.Fatal(err.Error()))
		return 1
	}
	opts, closeTrace, err := runtimeOptions(cfg, os.Stdout)
	if err != nil {
		fmt.Fprintln(os.Stderr, diagnostics.Fatal(err.Error()))
		return 1
	}
	defer closeTrace()

	rt := runtime.New(opts...)
	session := rt.NewSession(context.Background())
	defer session.Close()

	line := liner.NewLiner()
	defer line.Close()
	line.SetCtrlCAborts(true)

	names := stdlib.Default().Names()
	line.SetCompleter(func(input string) []string {
		return completions(input, names)
	})

	if f, err := os.Open(cfg.REPL.History); err == nil {
		line.ReadHistory(f)
		f.Close()
	}
	defer func() {
		if cfg.REPL.History == "" {
			return
		}
		_ = os.MkdirAll(filepath.Dir(cfg.REPL.History), 0o755)
		if f, err := os.Create(cfg.REPL.History); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	fmt.Printf("PyTerpreter %s, type :help for commands, :quit to exit\n", help.Version)

	var buf strings.Builder
	for {
		prompt := cfg.REPL.Prompt
		if buf.Len() > 0 {
			prompt = continuationPrompt
		}
		input, err := line.Prompt(prompt)
		if err != nil {
			if errors.Is(err, liner.ErrPromptAborted) {
				buf.Reset()
				continue
			}
			if errors.Is(err, io.EOF) {
				fmt.Println()
				return 0
			}
			fmt.Fprintln(os.Stderr, diagnostics.Fatal(err.Error()))
			return 1
		}

		trimmed := strings.TrimSpace(input)
		if buf.Len() == 0 && strings.HasPrefix(trimmed, ":") {
			if quit := replCommand(trimmed, session, os.Stdout); quit {
				return 0
			}
			continue
		}
		if buf.Len() == 0 && trimmed == "" {
			continue
		}

		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(input)
		src := buf.String()
		if needsMoreInput(src) {
			continue
		}
		buf.Reset()
		line.AppendHistory(src)

		node, diags := parser.ParseNode(src, "<repl>")
		if len(diags) > 0 {
			fmt.Fprintln(os.Stderr, diagnostics.FormatDiagnostics(diags, true))
			continue
		}
		v, err := session.Eval(node)
		if err != nil {
			reportError(err, "<repl>", true)
			continue
		}
		if !evaluator.IsIllegal(v) {
			fmt.Println(evaluator.Repr(v))
		}
	}
}

// replCommand handles a ":" command and reports whether the REPL should exit.
func replCommand(cmd string, s *evaluator.Session, out io.Writer) bool {
	fields := strings.Fields(cmd)
	switch fields[0] {
	case ":quit", ":q", ":exit":
		return true
	case ":vars":
		names := s.Names()
		sort.Strings(names)
		for _, name := range names {
			v, err := s.Lookup(name)
			if err != nil {
				continue
			}
			fmt.Fprintf(out, "%s = %s\n", name, evaluator.Repr(v))
		}
	case ":stats":
		st := s.Stats()
		fmt.Fprintf(out, "frames created %d, destroyed %d, live %d, objects %d\n",
			st.Created, st.Destroyed, st.Live, st.Objects)
	case ":help":
		if len(fields) > 1 {
			_, content, err := help.MatchTopic(fields[1])
			if err != nil {
				fmt.Fprintln(out, err)
				return false
			}
			fmt.Fprint(out, content)
			return false
		}
		fmt.Fprintln(out, "Enter an operation such as [\"print\", 1] or a list of operations.")
		fmt.Fprintln(out, ":vars    list global variables")
		fmt.Fprintln(out, ":stats   frame counters")
		fmt.Fprintln(out, ":help T  show help topic T")
		fmt.Fprintln(out, ":quit    exit")
	default:
		fmt.Fprintf(out, "unknown command %s\n", fields[0])
	}
	return false
}

// needsMoreInput reports whether src has unclosed brackets or an unterminated
// string.
func needsMoreInput(src string) bool {
	depth := 0
	inString, escaped := false, false
	for _, r := range src {
		switch {
		case escaped:
			escaped = false
		case inString && r == '\\':
			escaped = true
		case r == '"':
			inString = !inString
		case inString:
		case r == '[' || r == '{':
			depth++
		case r == ']' || r == '}':
			depth--
		}
	}
	return inString || depth > 0
}

// completions completes the operator name being typed after the last quote.
func completions(input string, names []string) []string {
	i := strings.LastIndexByte(input, '"')
	if i < 0 {
		return nil
	}
	head, partial := input[:i+1], input[i+1:]
	var out []string
	for _, name := range names {
		if strings.HasPrefix(name, partial) {
			out = append(out, head+name)
		}
	}
	return out
}
