package evaluator

import (
	"github.com/C0DECYCLE/PyTerpreter/pkg/diagnostics"
)

// DefaultMaxDepth bounds nested function calls when no limit is configured.
const DefaultMaxDepth = 512

// Limits holds the resource limits for a program execution. A zero MaxDepth
// selects DefaultMaxDepth.
type Limits struct {
	MaxDepth int
}

// depthTracker tracks call nesting during execution.
type depthTracker struct {
	depth int
	peak  int
	max   int
}

func newDepthTracker(l Limits) depthTracker {
	max := l.MaxDepth
	if max <= 0 {
		max = DefaultMaxDepth
	}
	return depthTracker{max: max}
}

func (d *depthTracker) enter() error {
	if d.depth >= d.max {
		return Errorf(diagnostics.EDepth, "call depth exceeded (max %d)", d.max)
	}
	d.depth++
	if d.depth > d.peak {
		d.peak = d.depth
	}
	return nil
}

func (d *depthTracker) leave() {
	if d.depth > 0 {
		d.depth--
	}
}
