package evaluator

import (
	"context"

	"github.com/C0DECYCLE/PyTerpreter/pkg/ast"
)

// Session keeps one global frame alive across several evaluations.
type Session struct {
	ev *Evaluator
}

// NewSession creates a session with a fresh global frame.
func NewSession(ctx context.Context, opts ExecOptions) *Session {
	return &Session{ev: newEvaluator(ctx, opts)}
}

// Eval evaluates an operation or a sequence directly in the global frame, so
// bindings persist between calls. It returns the value of the last operation.
func (s *Session) Eval(node any) (Value, error) {
	var (
		v   Value
		err error
	)
	switch ast.Classify(node) {
	case ast.KindSequence:
		seq, serr := asSequence("session", node)
		if serr != nil {
			return nil, serr
		}
		v = Illegal{}
		for _, stmt := range seq {
			if v, err = s.ev.Eval(stmt); err != nil {
				break
			}
		}
	default:
		v, err = s.ev.Eval(node)
	}
	if err != nil {
		s.unwind()
		return nil, err
	}
	return v, nil
}

// Lookup reads a global-frame variable.
func (s *Session) Lookup(name string) (Value, error) {
	return s.ev.Lookup(name)
}

// Names lists the bindings of the global frame.
func (s *Session) Names() []string {
	names, _ := s.ev.frames.Names(s.ev.root)
	return names
}

// Stats returns the frame counters of the session so far.
func (s *Session) Stats() FrameStats {
	return s.ev.frames.Stats()
}

// Close destroys the global frame and every remaining object.
func (s *Session) Close() FrameStats {
	s.unwind()
	_ = s.ev.frames.Destroy(s.ev.root)
	s.ev.frames.Sweep()
	return s.ev.frames.Stats()
}

// unwind drops every frame left below the global frame by a failed evaluation.
// Object frames are only unmounted.
func (s *Session) unwind() {
	fs := s.ev.frames
	for {
		low, err := fs.Lowest(s.ev.root)
		if err != nil || low == s.ev.root {
			break
		}
		usage, _ := fs.Usage(low)
		if usage == UsageObject {
			if fs.Detach(low) != nil {
				break
			}
			_ = fs.Settle(low)
			continue
		}
		if fs.Destroy(low) != nil {
			break
		}
	}
	s.ev.calls = s.ev.calls[:0]
	s.ev.depth.depth = 0
}
