package evaluator

import (
	"github.com/C0DECYCLE/PyTerpreter/pkg/ast"
	"github.com/C0DECYCLE/PyTerpreter/pkg/diagnostics"
)

// function { params, body } → function
// function { name, params, body } → illegal (declares name)
func opFunction(ev *Evaluator, args []any) (Value, error) {
	n, err := CheckLength("function", args, 2, 3)
	if err != nil {
		return nil, err
	}
	name := ""
	if n == 3 {
		if name, err = literalName("function", args[0]); err != nil {
			return nil, err
		}
		args = args[1:]
	}
	fn, err := ev.newFunction(name, args[0], args[1])
	if err != nil {
		return nil, err
	}
	if n == 2 {
		return fn, nil
	}
	if err := ev.Assign(name, fn); err != nil {
		return nil, err
	}
	return Illegal{}, nil
}

func (ev *Evaluator) newFunction(name string, paramsNode, bodyNode any) (*Function, error) {
	list, ok := paramsNode.([]any)
	if !ok {
		return nil, Errorf(diagnostics.EType, "function: invalid type: got %s parameters, want list of strings", nodeTypeName(paramsNode))
	}
	params := make([]string, len(list))
	for i, p := range list {
		s, ok := p.(string)
		if !ok {
			return nil, Errorf(diagnostics.EType, "function: invalid type: got %s parameter, want string", nodeTypeName(p))
		}
		params[i] = s
	}
	body, err := asSequence("function", bodyNode)
	if err != nil {
		return nil, err
	}
	ev.lastFnID++
	return &Function{
		ID:     ev.lastFnID,
		Name:   name,
		Params: params,
		Body:   body,
	}, nil
}

// call { fn, args? } → value returned by fn, or null
func opCall(ev *Evaluator, args []any) (Value, error) {
	n, err := CheckLength("call", args, 1, 2)
	if err != nil {
		return nil, err
	}
	callee, err := ev.EvalArg("call", args[0])
	if err != nil {
		return nil, err
	}
	fn, ok := callee.(*Function)
	if !ok {
		return nil, Errorf(diagnostics.EMismatch, "call: illegal operation mismatch: got %s, want function", TypeName(callee))
	}
	var argNodes []any
	if n == 2 {
		if argNodes, ok = args[1].([]any); !ok {
			return nil, Errorf(diagnostics.EType, "call: invalid type: got %s arguments, want list", nodeTypeName(args[1]))
		}
	}
	vals, err := ev.evalArgs("call", argNodes)
	if err != nil {
		return nil, err
	}
	return ev.Invoke(fn, vals, calleeName(fn, args[0]))
}

func (ev *Evaluator) evalArgs(op string, nodes []any) ([]Value, error) {
	vals := make([]Value, len(nodes))
	for i, node := range nodes {
		v, err := ev.EvalArg(op, node)
		if err != nil {
			return nil, err
		}
		vals[i] = v
	}
	return vals, nil
}

func calleeName(fn *Function, node any) string {
	if fn.Name != "" {
		return fn.Name
	}
	if op, args, ok := ast.SplitOperation(node); ok && op == "get" && len(args) == 1 {
		if name, ok := args[0].(string); ok {
			return name
		}
	}
	return "anonymous"
}

// Invoke calls fn with already evaluated arguments. Parameters are bound in a
// fresh function frame; a bound method first mounts its object frame unless it
// is already part of the chain.
func (ev *Evaluator) Invoke(fn *Function, vals []Value, name string) (Value, error) {
	if len(vals) != len(fn.Params) {
		return nil, LengthError("call", len(vals), len(fn.Params))
	}
	if err := ev.depth.enter(); err != nil {
		return nil, err
	}
	defer ev.depth.leave()

	mounted := false
	if fn.bound {
		attached, err := ev.frames.Attached(fn.mount)
		if err != nil {
			return nil, err
		}
		if !attached {
			low, err := ev.lowest()
			if err != nil {
				return nil, err
			}
			if err := ev.frames.Attach(fn.mount, low); err != nil {
				return nil, err
			}
			mounted = true
		}
	}

	h, err := ev.enter(UsageFunction)
	if err != nil {
		return nil, err
	}
	for i, p := range fn.Params {
		if err := ev.frames.Store(h, p, vals[i]); err != nil {
			return nil, err
		}
	}

	ev.emit(fn, name, TraceStart)
	ev.calls = append(ev.calls, fn)
	v, err := ev.runStatements(fn.Body)
	ev.calls = ev.calls[:len(ev.calls)-1]
	if err != nil {
		return nil, err
	}

	var result Value = Null{}
	if r, ok := v.(returning); ok {
		result = r.result
	} else if ok, _ := ev.frames.Exists(h, "return"); ok {
		if result, err = ev.frames.Retrieve(h, "return"); err != nil {
			return nil, err
		}
	}
	if err := ev.leave(h, result); err != nil {
		return nil, err
	}
	if mounted {
		if err := ev.frames.Detach(fn.mount); err != nil {
			return nil, err
		}
		if err := ev.frames.Settle(fn.mount); err != nil {
			return nil, err
		}
	}
	ev.emit(fn, name, TraceStop)
	return result, nil
}

// return { value } → return outcome for the enclosing function call
func opReturn(ev *Evaluator, args []any) (Value, error) {
	if _, err := CheckLength("return", args, 1); err != nil {
		return nil, err
	}
	val, err := ev.EvalArg("return", args[0])
	if err != nil {
		return nil, err
	}
	h, err := ev.lowest()
	if err != nil {
		return nil, err
	}
	innermost, err := ev.frames.Usage(h)
	if err != nil {
		return nil, err
	}
	for h.Valid() {
		usage, err := ev.frames.Usage(h)
		if err != nil {
			return nil, err
		}
		if usage == UsageFunction {
			return returning{result: val}, nil
		}
		if h, err = ev.frames.Previous(h); err != nil {
			return nil, err
		}
	}
	return nil, Errorf(diagnostics.EUsage, "return: illegal environment usage: got %s, want function", innermost)
}
