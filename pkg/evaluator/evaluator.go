package evaluator

import (
	"context"
	"io"
	"time"

	"github.com/C0DECYCLE/PyTerpreter/pkg/ast"
	"github.com/C0DECYCLE/PyTerpreter/pkg/diagnostics"
)

// Operation handles one operator. It receives the raw argument nodes and
// evaluates the ones it needs, left to right.
type Operation func(ev *Evaluator, args []any) (Value, error)

// TraceEventType identifies the type of a trace event.
type TraceEventType string

const (
	TraceStart TraceEventType = "start"
	TraceStop  TraceEventType = "stop"
)

// TraceEvent is emitted around every function call.
type TraceEvent struct {
	RunID        string
	FunctionID   int64
	FunctionName string
	Event        TraceEventType
	Time         time.Time
}

// ExecOptions configures program execution.
type ExecOptions struct {
	Operations map[string]Operation
	Stdout     io.Writer
	Trace      func(event TraceEvent)
	Limits     Limits
	RunID      string
}

// ExecResult holds the result of a program execution.
type ExecResult struct {
	Stats     FrameStats
	Swept     int
	PeakDepth int
	Elapsed   time.Duration
}

// Evaluator walks a program tree. Operation handlers call back into it to
// evaluate their arguments.
type Evaluator struct {
	ctx      context.Context
	opts     ExecOptions
	frames   *Frames
	root     Handle
	calls    []*Function
	depth    depthTracker
	lastFnID int64
	started  time.Time

	// pins holds objects evaluated as arguments of the operations still
	// running, counted as bindings until their operation returns.
	pins []Value
}

func newEvaluator(ctx context.Context, opts ExecOptions) *Evaluator {
	if opts.Operations == nil {
		opts.Operations = CoreOperations()
	}
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}
	frames := NewFrames()
	return &Evaluator{
		ctx:     ctx,
		opts:    opts,
		frames:  frames,
		root:    frames.New(UsageGlobal),
		depth:   newDepthTracker(opts.Limits),
		started: time.Now(),
	}
}

// Execute runs a program (a sequence of operations) in a fresh global frame.
func Execute(ctx context.Context, program any, opts ExecOptions) (*ExecResult, error) {
	ev := newEvaluator(ctx, opts)

	seq, err := asSequence("program", program)
	if err != nil {
		return nil, err
	}
	if _, err := ev.runStatements(seq); err != nil {
		return ev.result(), err
	}
	if err := ev.frames.Destroy(ev.root); err != nil {
		return ev.result(), err
	}
	res := ev.result()
	res.Swept = ev.frames.Sweep()
	res.Stats = ev.frames.Stats()
	return res, nil
}

func (ev *Evaluator) result() *ExecResult {
	return &ExecResult{
		Stats:     ev.frames.Stats(),
		PeakDepth: ev.depth.peak,
		Elapsed:   time.Since(ev.started),
	}
}

// Stdout returns the writer print writes to.
func (ev *Evaluator) Stdout() io.Writer {
	return ev.opts.Stdout
}

// Frames exposes the frame arena.
func (ev *Evaluator) Frames() *Frames {
	return ev.frames
}

// Retain counts a container slot referring to v.
func (ev *Evaluator) Retain(v Value) {
	ev.frames.Retain(v, Handle{})
}

// Release drops a container slot counted by Retain.
func (ev *Evaluator) Release(v Value) {
	ev.frames.Release(v, Handle{})
}

// Eval evaluates node in expression position. A return outcome reaching an
// expression position is an error.
func (ev *Evaluator) Eval(node any) (Value, error) {
	v, err := ev.exec(node)
	if err != nil {
		return nil, err
	}
	if _, ok := v.(returning); ok {
		return nil, Errorf(diagnostics.EUsage, "return: illegal environment usage: return used as a value")
	}
	return v, nil
}

// EvalArg evaluates an operation argument and rejects the sentinel. An object
// argument stays alive until the running operation returns, even if a later
// argument rebinds every variable referring to it.
func (ev *Evaluator) EvalArg(op string, node any) (Value, error) {
	v, err := ev.Eval(node)
	if err != nil {
		return nil, err
	}
	if err := NotIllegal(op, v); err != nil {
		return nil, err
	}
	if _, ok := objectOf(v); ok {
		ev.frames.Retain(v, Handle{})
		ev.pins = append(ev.pins, v)
	}
	return v, nil
}

func (ev *Evaluator) exec(node any) (Value, error) {
	switch ast.Classify(node) {
	case ast.KindSequence:
		return ev.runBlock(node, UsageSequence)
	case ast.KindOperation:
		return ev.dispatch(node)
	case ast.KindInvalid:
		return nil, Errorf(diagnostics.EType, "invalid type: got %T operator, want string", node.([]any)[0])
	default:
		return FromLiteral(node), nil
	}
}

func (ev *Evaluator) dispatch(node any) (Value, error) {
	name, args, ok := ast.SplitOperation(node)
	if !ok {
		return nil, Errorf(diagnostics.EType, "invalid type: operation without operator name")
	}
	op, ok := ev.opts.Operations[name]
	if !ok {
		return nil, Errorf(diagnostics.EProperty, "non-existent property: unknown operation %q", name)
	}
	mark := len(ev.pins)
	v, err := op(ev, args)
	ev.unpin(mark, v, err == nil)
	return v, err
}

// unpin drops the pins taken since mark. With collect set, objects left
// without bindings are destroyed, except the one carried out as result.
func (ev *Evaluator) unpin(mark int, result Value, collect bool) {
	if len(ev.pins) == mark {
		return
	}
	if r, ok := result.(returning); ok {
		result = r.result
	}
	ev.frames.Retain(result, Handle{})
	for _, v := range ev.pins[mark:] {
		ev.frames.release(v, Handle{}, collect)
	}
	ev.frames.Unprotect(result)
	clear(ev.pins[mark:])
	ev.pins = ev.pins[:mark]
}

func asSequence(op string, node any) ([]any, error) {
	if !ast.IsSequence(node) {
		return nil, Errorf(diagnostics.ESequence, "%s: missing sequence: got %s", op, ast.Classify(node))
	}
	return node.([]any), nil
}

// runStatements executes seq in the current innermost frame, stopping at the
// first return outcome. A nested sequence runs in its own "sequence" frame.
func (ev *Evaluator) runStatements(seq []any) (Value, error) {
	for _, stmt := range seq {
		if err := ev.ctx.Err(); err != nil {
			return nil, Errorf(diagnostics.ECancelled, "evaluation cancelled: %v", err)
		}
		v, err := ev.exec(stmt)
		if err != nil {
			return nil, err
		}
		if r, ok := v.(returning); ok {
			return r, nil
		}
	}
	return Null{}, nil
}

func (ev *Evaluator) lowest() (Handle, error) {
	return ev.frames.Lowest(ev.root)
}

// enter creates a frame tagged usage below the innermost frame.
func (ev *Evaluator) enter(usage Usage) (Handle, error) {
	low, err := ev.lowest()
	if err != nil {
		return Handle{}, err
	}
	h := ev.frames.New(usage)
	if err := ev.frames.Attach(h, low); err != nil {
		return Handle{}, err
	}
	return h, nil
}

// leave destroys h while keeping the value that is being carried out of it alive.
func (ev *Evaluator) leave(h Handle, carried Value) error {
	ev.frames.Retain(carried, Handle{})
	err := ev.frames.Destroy(h)
	ev.frames.Unprotect(carried)
	return err
}

// runBlock runs a sequence node in a fresh frame tagged usage. It yields null,
// or the return outcome that stopped it.
func (ev *Evaluator) runBlock(node any, usage Usage) (Value, error) {
	seq, err := asSequence(string(usage), node)
	if err != nil {
		return nil, err
	}
	h, err := ev.enter(usage)
	if err != nil {
		return nil, err
	}
	v, err := ev.runStatements(seq)
	if err != nil {
		return nil, err
	}
	var carried Value
	if r, ok := v.(returning); ok {
		carried = r.result
	}
	if err := ev.leave(h, carried); err != nil {
		return nil, err
	}
	return v, nil
}

func (ev *Evaluator) emit(fn *Function, name string, event TraceEventType) {
	if ev.opts.Trace == nil {
		return
	}
	ev.opts.Trace(TraceEvent{
		RunID:        ev.opts.RunID,
		FunctionID:   fn.ID,
		FunctionName: name,
		Event:        event,
		Time:         time.Now(),
	})
}
