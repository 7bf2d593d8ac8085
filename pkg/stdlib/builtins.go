package stdlib

import (
	"fmt"

	"github.com/C0DECYCLE/PyTerpreter/pkg/diagnostics"
	"github.com/C0DECYCLE/PyTerpreter/pkg/evaluator"
)

// RegisterDefaults adds all operations: the evaluator's core operations and
// the modules of this package.
func RegisterDefaults(r *Registry) {
	core := evaluator.CoreOperations()
	coreFn := func(name, module string, arity ...int) {
		r.Register(Fn{Name: name, Module: module, Arity: arity, Execute: core[name]})
	}

	// Variables
	coreFn("set", "variable", 2)
	coreFn("get", "variable", 1)

	// Control flow
	coreFn("if", "conditional", 2, 3)
	coreFn("while", "loop", 2)
	coreFn("repeat", "loop", 2)

	// Functions
	coreFn("function", "function", 2, 3)
	coreFn("call", "function", 1, 2)
	coreFn("return", "function", 1)

	// Classes and objects
	coreFn("class", "class", 1, 2)
	coreFn("object", "object", 1, 2)
	coreFn("inherit", "class", 1)
	coreFn("objectGet", "object", 2)
	coreFn("objectSet", "object", 3)

	// Math
	r.Register(Fn{Name: "add", Module: "math", Arity: []int{2}, Execute: opAdd})
	r.Register(Fn{Name: "subtract", Module: "math", Arity: []int{2}, Execute: opSubtract})
	r.Register(Fn{Name: "multiply", Module: "math", Arity: []int{2}, Execute: opMultiply})
	r.Register(Fn{Name: "divide", Module: "math", Arity: []int{2}, Execute: opDivide})
	r.Register(Fn{Name: "power", Module: "math", Arity: []int{2}, Execute: opPower})
	r.Register(Fn{Name: "absolute", Module: "math", Arity: []int{1}, Execute: opAbsolute})

	// Boolean
	r.Register(Fn{Name: "and", Module: "boolean", Arity: []int{2}, Execute: opAnd})
	r.Register(Fn{Name: "or", Module: "boolean", Arity: []int{2}, Execute: opOr})
	r.Register(Fn{Name: "not", Module: "boolean", Arity: []int{1}, Execute: opNot})
	r.Register(Fn{Name: "equal", Module: "boolean", Arity: []int{2}, Execute: opEqual})
	r.Register(Fn{Name: "less", Module: "boolean", Arity: []int{2}, Execute: opLess})
	r.Register(Fn{Name: "greater", Module: "boolean", Arity: []int{2}, Execute: opGreater})
	r.Register(Fn{Name: "lessEqual", Module: "boolean", Arity: []int{2}, Execute: opLessEqual})
	r.Register(Fn{Name: "greaterEqual", Module: "boolean", Arity: []int{2}, Execute: opGreaterEqual})

	// Dictionaries
	r.Register(Fn{Name: "dictionary", Module: "dictionary", Arity: []int{0}, Execute: opDictionary})
	r.Register(Fn{Name: "dictionarySet", Module: "dictionary", Arity: []int{3}, Execute: opDictionarySet})
	r.Register(Fn{Name: "dictionaryGet", Module: "dictionary", Arity: []int{2}, Execute: opDictionaryGet})
	r.Register(Fn{Name: "dictionaryMerge", Module: "dictionary", Arity: []int{2}, Execute: opDictionaryMerge})

	// Arrays
	r.Register(Fn{Name: "array", Module: "array", Arity: []int{1}, Execute: opArray})
	r.Register(Fn{Name: "arraySet", Module: "array", Arity: []int{3}, Execute: opArraySet})
	r.Register(Fn{Name: "arrayGet", Module: "array", Arity: []int{2}, Execute: opArrayGet})

	// System
	r.Register(Fn{Name: "print", Module: "system", Arity: []int{1}, Execute: opPrint})
}

// print { value } → illegal
func opPrint(ev *evaluator.Evaluator, args []any) (evaluator.Value, error) {
	if _, err := evaluator.CheckLength("print", args, 1); err != nil {
		return nil, err
	}
	v, err := ev.EvalArg("print", args[0])
	if err != nil {
		return nil, err
	}
	if _, err := fmt.Fprintln(ev.Stdout(), evaluator.Format(v)); err != nil {
		return nil, evaluator.Errorf(diagnostics.EIO, "print: %v", err)
	}
	return evaluator.Illegal{}, nil
}

// evalPair evaluates two operands left to right.
func evalPair(ev *evaluator.Evaluator, op string, args []any) (evaluator.Value, evaluator.Value, error) {
	if _, err := evaluator.CheckLength(op, args, 2); err != nil {
		return nil, nil, err
	}
	a, err := ev.EvalArg(op, args[0])
	if err != nil {
		return nil, nil, err
	}
	b, err := ev.EvalArg(op, args[1])
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}
