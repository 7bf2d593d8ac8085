package evaluator

import (
	"github.com/C0DECYCLE/PyTerpreter/pkg/ast"
	"github.com/C0DECYCLE/PyTerpreter/pkg/diagnostics"
)

// class { ancestor?, body } → class
func opClass(ev *Evaluator, args []any) (Value, error) {
	n, err := CheckLength("class", args, 1, 2)
	if err != nil {
		return nil, err
	}
	var ancestor *Class
	if n == 2 {
		v, err := ev.EvalArg("class", args[0])
		if err != nil {
			return nil, err
		}
		c, ok := v.(*Class)
		if !ok {
			return nil, Errorf(diagnostics.EMismatch, "class: illegal operation mismatch: got %s ancestor, want class", TypeName(v))
		}
		ancestor = c
	}
	seq, err := asSequence("class", args[n-1])
	if err != nil {
		return nil, err
	}
	body := make([]Declaration, 0, len(seq))
	for _, stmt := range seq {
		op, a, _ := ast.SplitOperation(stmt)
		if op != "set" {
			return nil, Errorf(diagnostics.EMismatch, "class: illegal operation mismatch: got %q, want set", op)
		}
		if len(a) != 2 {
			return nil, LengthError("class", len(a), 2)
		}
		name, err := literalName("class", a[0])
		if err != nil {
			return nil, err
		}
		body = append(body, Declaration{Name: name, Node: a[1], IsMethod: isFunctionLiteral(a[1])})
	}
	return &Class{Ancestor: ancestor, Body: body}, nil
}

func isFunctionLiteral(node any) bool {
	op, args, ok := ast.SplitOperation(node)
	return ok && op == "function" && len(args) == 2
}

// Flatten merges a class with its ancestors. Ancestor declarations come first
// in their original order, except those whose name the descendant declares as
// a method: those move to the collision cache, which inherit reads.
func Flatten(c *Class) (body, cache []Declaration) {
	body, cache, _ = flatten(c)
	return body, cache
}

func flatten(c *Class) ([]Declaration, []Declaration, int) {
	level := 0
	var base, cache []Declaration
	if c.Ancestor != nil {
		var baseLevel int
		base, cache, baseLevel = flatten(c.Ancestor)
		level = baseLevel + 1
		cache = append([]Declaration(nil), cache...)
	}

	methods := make(map[string]bool)
	own := make([]Declaration, len(c.Body))
	for i, d := range c.Body {
		d.Level = level
		own[i] = d
		if d.IsMethod {
			methods[d.Name] = true
		}
	}

	var kept []Declaration
	for i := len(base) - 1; i >= 0; i-- {
		d := base[i]
		if methods[d.Name] {
			cache = append(cache, d)
			continue
		}
		kept = append(kept, d)
	}
	body := make([]Declaration, 0, len(kept)+len(own))
	for i := len(kept) - 1; i >= 0; i-- {
		body = append(body, kept[i])
	}
	body = append(body, own...)
	if cache == nil {
		cache = []Declaration{}
	}
	return body, cache, level
}

// object { class, args? } → object
func opObject(ev *Evaluator, args []any) (Value, error) {
	n, err := CheckLength("object", args, 1, 2)
	if err != nil {
		return nil, err
	}
	v, err := ev.EvalArg("object", args[0])
	if err != nil {
		return nil, err
	}
	cls, ok := v.(*Class)
	if !ok {
		return nil, Errorf(diagnostics.EMismatch, "object: illegal operation mismatch: got %s, want class", TypeName(v))
	}
	var argNodes []any
	if n == 2 {
		if argNodes, ok = args[1].([]any); !ok {
			return nil, Errorf(diagnostics.EType, "object: invalid type: got %s arguments, want list", nodeTypeName(args[1]))
		}
	}

	body, cache := Flatten(cls)
	h := ev.frames.New(UsageObject)
	if err := ev.frames.Persist(h); err != nil {
		return nil, err
	}
	if err := ev.frames.SetCache(h, cache); err != nil {
		return nil, err
	}
	if err := ev.declare(h, body); err != nil {
		return nil, err
	}
	ref := ObjectRef{Handle: h}

	ctor, err := ev.constructor(h)
	if err != nil {
		return nil, err
	}
	if ctor == nil {
		if len(argNodes) > 0 {
			return nil, LengthError("object", len(argNodes), 0)
		}
		return ref, nil
	}
	vals, err := ev.evalArgs("object", argNodes)
	if err != nil {
		return nil, err
	}
	ev.frames.Retain(ref, Handle{})
	_, err = ev.Invoke(ctor, vals, "constructor")
	ev.frames.Unprotect(ref)
	if err != nil {
		return nil, err
	}
	return ref, nil
}

// declare evaluates the flattened declarations into the object frame h, then
// binds every method to h.
func (ev *Evaluator) declare(h Handle, body []Declaration) error {
	low, err := ev.lowest()
	if err != nil {
		return err
	}
	if err := ev.frames.Attach(h, low); err != nil {
		return err
	}
	last := make(map[string]Declaration, len(body))
	var order []string
	for _, d := range body {
		val, err := ev.EvalArg("object", d.Node)
		if err != nil {
			return err
		}
		if err := ev.frames.Store(h, d.Name, val); err != nil {
			return err
		}
		if _, seen := last[d.Name]; !seen {
			order = append(order, d.Name)
		}
		last[d.Name] = d
	}
	if err := ev.frames.Detach(h); err != nil {
		return err
	}

	for _, name := range order {
		d := last[name]
		if !d.IsMethod {
			continue
		}
		val, err := ev.frames.Retrieve(h, name)
		if err != nil {
			return err
		}
		if fn, ok := val.(*Function); ok {
			if err := ev.frames.Store(h, name, fn.bind(h, d.Level, name)); err != nil {
				return err
			}
		}
	}
	return nil
}

func (ev *Evaluator) constructor(h Handle) (*Function, error) {
	ok, err := ev.frames.Exists(h, "constructor")
	if err != nil || !ok {
		return nil, err
	}
	v, err := ev.frames.Retrieve(h, "constructor")
	if err != nil {
		return nil, err
	}
	fn, _ := v.(*Function)
	return fn, nil
}

// inherit { name } → the ancestor declaration shadowed by the running method
//
// The cache is taken from the first frame carrying one, walking outward from
// the innermost frame. When a method of one object runs inside a method of
// another, that can be the outer object's cache.
func opInherit(ev *Evaluator, args []any) (Value, error) {
	if _, err := CheckLength("inherit", args, 1); err != nil {
		return nil, err
	}
	name, err := literalName("inherit", args[0])
	if err != nil {
		return nil, err
	}
	owner, cache, err := ev.nearestCache()
	if err != nil {
		return nil, err
	}

	level := ev.runningLevel(owner)
	best := -1
	first := -1
	for i, d := range cache {
		if d.Name != name {
			continue
		}
		if first < 0 {
			first = i
		}
		if d.Level < level && (best < 0 || d.Level > cache[best].Level) {
			best = i
		}
	}
	if best < 0 {
		best = first
	}
	if best < 0 {
		return nil, Errorf(diagnostics.EProperty, "inherit: non-existent property %q in collision cache", name)
	}

	d := cache[best]
	v, err := ev.EvalArg("inherit", d.Node)
	if err != nil {
		return nil, err
	}
	if fn, ok := v.(*Function); ok {
		return fn.bind(owner, d.Level, name), nil
	}
	return v, nil
}

func (ev *Evaluator) nearestCache() (Handle, []Declaration, error) {
	h, err := ev.lowest()
	if err != nil {
		return Handle{}, nil, err
	}
	for h.Valid() {
		cache, ok, err := ev.frames.Cache(h)
		if err != nil {
			return Handle{}, nil, err
		}
		if ok {
			return h, cache, nil
		}
		if h, err = ev.frames.Previous(h); err != nil {
			return Handle{}, nil, err
		}
	}
	return Handle{}, nil, Errorf(diagnostics.EUsage, "inherit: illegal environment usage: no object in scope")
}

// runningLevel is the declaration level of the innermost running method of
// owner. Outside any such method every level qualifies.
func (ev *Evaluator) runningLevel(owner Handle) int {
	for i := len(ev.calls) - 1; i >= 0; i-- {
		fn := ev.calls[i]
		if fn.bound && fn.mount == owner {
			return fn.level
		}
	}
	return int(^uint(0) >> 1)
}

func objectArg(ev *Evaluator, op string, node any) (Handle, error) {
	v, err := ev.EvalArg(op, node)
	if err != nil {
		return Handle{}, err
	}
	ref, ok := v.(ObjectRef)
	if !ok {
		return Handle{}, Errorf(diagnostics.EInstance, "%s: illegal instance: got %s, want object", op, TypeName(v))
	}
	return ref.Handle, nil
}

func fieldName(ev *Evaluator, op string, node any) (string, error) {
	v, err := ev.EvalArg(op, node)
	if err != nil {
		return "", err
	}
	s, ok := v.(String)
	if !ok {
		return "", TypeError(op, v, "string")
	}
	return s.Value, nil
}

// objectGet { object, name } → field value
func opObjectGet(ev *Evaluator, args []any) (Value, error) {
	if _, err := CheckLength("objectGet", args, 2); err != nil {
		return nil, err
	}
	h, err := objectArg(ev, "objectGet", args[0])
	if err != nil {
		return nil, err
	}
	name, err := fieldName(ev, "objectGet", args[1])
	if err != nil {
		return nil, err
	}
	return ev.frames.Retrieve(h, name)
}

// objectSet { object, name, value } → illegal
func opObjectSet(ev *Evaluator, args []any) (Value, error) {
	if _, err := CheckLength("objectSet", args, 3); err != nil {
		return nil, err
	}
	h, err := objectArg(ev, "objectSet", args[0])
	if err != nil {
		return nil, err
	}
	name, err := fieldName(ev, "objectSet", args[1])
	if err != nil {
		return nil, err
	}
	val, err := ev.EvalArg("objectSet", args[2])
	if err != nil {
		return nil, err
	}
	if err := ev.frames.Store(h, name, val); err != nil {
		return nil, err
	}
	return Illegal{}, nil
}
