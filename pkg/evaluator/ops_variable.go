package evaluator

import (
	"github.com/C0DECYCLE/PyTerpreter/pkg/diagnostics"
)

// CoreOperations returns the operations implemented by the evaluator itself:
// variables, control flow, functions, classes and objects.
func CoreOperations() map[string]Operation {
	return map[string]Operation{
		"set":       opSet,
		"get":       opGet,
		"if":        opIf,
		"while":     opWhile,
		"repeat":    opRepeat,
		"function":  opFunction,
		"call":      opCall,
		"return":    opReturn,
		"class":     opClass,
		"object":    opObject,
		"inherit":   opInherit,
		"objectGet": opObjectGet,
		"objectSet": opObjectSet,
	}
}

func literalName(op string, node any) (string, error) {
	name, ok := node.(string)
	if !ok {
		return "", Errorf(diagnostics.EType, "%s: invalid type: got %s name, want literal string", op, nodeTypeName(node))
	}
	return name, nil
}

// set { name, value } → illegal
func opSet(ev *Evaluator, args []any) (Value, error) {
	if _, err := CheckLength("set", args, 2); err != nil {
		return nil, err
	}
	name, err := literalName("set", args[0])
	if err != nil {
		return nil, err
	}
	val, err := ev.EvalArg("set", args[1])
	if err != nil {
		return nil, err
	}
	if err := ev.Assign(name, val); err != nil {
		return nil, err
	}
	return Illegal{}, nil
}

// get { name } → value
func opGet(ev *Evaluator, args []any) (Value, error) {
	if _, err := CheckLength("get", args, 1); err != nil {
		return nil, err
	}
	name, err := literalName("get", args[0])
	if err != nil {
		return nil, err
	}
	return ev.Lookup(name)
}

// Assign writes name into the outermost frame that already binds it, searching
// from the global frame inward; otherwise into the innermost frame.
func (ev *Evaluator) Assign(name string, val Value) error {
	h := ev.root
	for {
		ok, err := ev.frames.Exists(h, name)
		if err != nil {
			return err
		}
		next, err := ev.frames.Next(h)
		if err != nil {
			return err
		}
		if ok || !next.Valid() {
			return ev.frames.Store(h, name, val)
		}
		h = next
	}
}

// Lookup reads name from the innermost frame that binds it, searching outward.
func (ev *Evaluator) Lookup(name string) (Value, error) {
	h, err := ev.lowest()
	if err != nil {
		return nil, err
	}
	for h.Valid() {
		ok, err := ev.frames.Exists(h, name)
		if err != nil {
			return nil, err
		}
		if ok {
			return ev.frames.Retrieve(h, name)
		}
		if h, err = ev.frames.Previous(h); err != nil {
			return nil, err
		}
	}
	return nil, Errorf(diagnostics.EProperty, "get: non-existent property %q", name)
}
