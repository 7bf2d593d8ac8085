// Package runtime wires the parser, validator, evaluator and operation
// registry into the entry points used by the pyterp CLI.
package runtime

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/oarkflow/log"
	"github.com/oarkflow/xid"

	"github.com/C0DECYCLE/PyTerpreter/pkg/config"
	"github.com/C0DECYCLE/PyTerpreter/pkg/diagnostics"
	"github.com/C0DECYCLE/PyTerpreter/pkg/evaluator"
	"github.com/C0DECYCLE/PyTerpreter/pkg/formatter"
	"github.com/C0DECYCLE/PyTerpreter/pkg/parser"
	"github.com/C0DECYCLE/PyTerpreter/pkg/stdlib"
	"github.com/C0DECYCLE/PyTerpreter/pkg/trace"
	"github.com/C0DECYCLE/PyTerpreter/pkg/validator"
)

// Result holds the outcome of a program execution.
type Result struct {
	RunID     string
	Stats     evaluator.FrameStats
	Swept     int
	PeakDepth int
	Elapsed   time.Duration
}

// Runtime runs programs with one configuration.
type Runtime struct {
	registry *stdlib.Registry
	cfg      *config.Config
	stdout   io.Writer
	logger   *log.Logger
	trace    *trace.Writer
	runID    string
}

// Option is a functional option for configuring the Runtime.
type Option func(*Runtime)

// WithRegistry sets the operation registry.
func WithRegistry(r *stdlib.Registry) Option {
	return func(rt *Runtime) {
		rt.registry = r
	}
}

// WithConfig sets the configuration. Limits are taken from it.
func WithConfig(cfg *config.Config) Option {
	return func(rt *Runtime) {
		rt.cfg = cfg
	}
}

// WithStdout sets the writer print writes to.
func WithStdout(w io.Writer) Option {
	return func(rt *Runtime) {
		rt.stdout = w
	}
}

// WithLogger enables debug logging of run statistics.
func WithLogger(l *log.Logger) Option {
	return func(rt *Runtime) {
		rt.logger = l
	}
}

// WithTrace records function call events to w.
func WithTrace(w *trace.Writer) Option {
	return func(rt *Runtime) {
		rt.trace = w
	}
}

// WithRunID sets the run ID attached to trace events.
func WithRunID(id string) Option {
	return func(rt *Runtime) {
		rt.runID = id
	}
}

// New creates a Runtime. By default every operation is registered, output is
// discarded and each run gets a fresh ID.
func New(opts ...Option) *Runtime {
	rt := &Runtime{
		registry: stdlib.Default(),
		cfg:      config.Default(),
		stdout:   io.Discard,
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Run decodes and executes a program. Decode errors are returned as a
// *DiagnosticError, evaluation errors as *evaluator.RuntimeError.
// The program is not validated; use Check for that.
func (rt *Runtime) Run(ctx context.Context, source, filename string) (*Result, error) {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return nil, &DiagnosticError{Diagnostics: diags}
	}

	opts := rt.execOptions()
	res, err := evaluator.Execute(ctx, program, opts)
	if rt.trace != nil {
		if ferr := rt.trace.Flush(); ferr != nil && err == nil {
			err = evaluator.Errorf(diagnostics.EIO, "trace: %v", ferr)
		}
	}
	if res == nil {
		return nil, err
	}

	result := &Result{
		RunID:     opts.RunID,
		Stats:     res.Stats,
		Swept:     res.Swept,
		PeakDepth: res.PeakDepth,
		Elapsed:   res.Elapsed,
	}
	rt.logRun(filename, result, err)
	return result, err
}

// Check decodes and validates a program without executing it.
func (rt *Runtime) Check(source, filename string) []diagnostics.Diagnostic {
	program, diags := parser.Parse(source, filename)
	if len(diags) > 0 {
		return diags
	}
	return diagnostics.InFile(validator.ValidateWith(program, rt.registry), filename)
}

// Format decodes a program and renders it in canonical layout.
func (rt *Runtime) Format(source, filename string) (string, error) {
	out, diags := formatter.FormatSource(source, filename)
	if len(diags) > 0 {
		return "", &DiagnosticError{Diagnostics: diags}
	}
	return out, nil
}

// NewSession starts an interactive session sharing the runtime's settings.
func (rt *Runtime) NewSession(ctx context.Context) *evaluator.Session {
	return evaluator.NewSession(ctx, rt.execOptions())
}

func (rt *Runtime) execOptions() evaluator.ExecOptions {
	runID := rt.runID
	if runID == "" {
		runID = xid.New().String()
	}
	opts := evaluator.ExecOptions{
		Operations: rt.registry.Operations(),
		Stdout:     rt.stdout,
		Limits:     rt.cfg.Limits(),
		RunID:      runID,
	}
	if rt.trace != nil {
		opts.Trace = rt.trace.Record
	}
	return opts
}

func (rt *Runtime) logRun(filename string, r *Result, err error) {
	if rt.logger == nil {
		return
	}
	entry := rt.logger.Debug()
	if err != nil {
		entry = rt.logger.Warn().Err(err)
	}
	entry.Str("run", r.RunID).
		Str("file", filename).
		Str("frames", humanize.Comma(r.Stats.Created)).
		Str("objects", humanize.Comma(r.Stats.Objects)).
		Int("swept", r.Swept).
		Int("depth", r.PeakDepth).
		Dur("elapsed", r.Elapsed).
		Msg("run finished")
}

// DiagnosticError wraps diagnostics as an error.
type DiagnosticError struct {
	Diagnostics []diagnostics.Diagnostic
}

func (e *DiagnosticError) Error() string {
	msgs := make([]string, len(e.Diagnostics))
	for i, d := range e.Diagnostics {
		msgs[i] = fmt.Sprintf("%s: %s", d.Code, d.Message)
	}
	return strings.Join(msgs, "; ")
}
