// Package evaluator implements the PyTerpreter tree-walking evaluator.
package evaluator

// Value is the interface for all PyTerpreter runtime values.
// The sealed marker method restricts implementations to this package.
type Value interface {
	value() // sealed marker
}

// Illegal is the sentinel non-value. Operations that produce no value return
// it; it can never be stored or used as an operand.
type Illegal struct{}

func (Illegal) value() {}

// Null represents a null value.
type Null struct{}

func (Null) value() {}

// Bool represents a boolean value.
type Bool struct {
	Value bool
}

func (Bool) value() {}

// Int represents an integer value.
type Int struct {
	Value int64
}

func (Int) value() {}

// Float represents a floating point value.
type Float struct {
	Value float64
}

func (Float) value() {}

// String represents a string value.
type String struct {
	Value string
}

func (String) value() {}

// Array is an ordered, mutable list of values shared by reference.
type Array struct {
	Items []Value
}

func (*Array) value() {}

// Dictionary maps hashable values to values. Instances are shared by reference.
type Dictionary struct {
	entries map[Value]Value
}

func (*Dictionary) value() {}

// Function is a first-class function value. Body is the raw sequence node and
// is never mutated, so every call shares it.
type Function struct {
	ID     int64
	Name   string
	Params []string
	Body   []any

	// set for methods bound to an object frame
	mount Handle
	bound bool
	level int
}

func (*Function) value() {}

// Declaration is one `set` entry of a class body.
type Declaration struct {
	Name     string
	Node     any
	IsMethod bool
	Level    int
}

// Class is a class value: an optional ancestor and a flat list of declarations.
type Class struct {
	Ancestor *Class
	Body     []Declaration
}

func (*Class) value() {}

// ObjectRef refers to a live object frame.
type ObjectRef struct {
	Handle Handle
}

func (ObjectRef) value() {}

// returning carries a return outcome up through enclosing blocks until the
// function call that owns it. It never escapes the evaluator.
type returning struct {
	result Value
}

func (returning) value() {}

// NewNull creates a null value.
func NewNull() Value {
	return Null{}
}

// NewBool creates a boolean value.
func NewBool(b bool) Value {
	return Bool{Value: b}
}

// NewInt creates an integer value.
func NewInt(n int64) Value {
	return Int{Value: n}
}

// NewFloat creates a float value.
func NewFloat(f float64) Value {
	return Float{Value: f}
}

// NewString creates a string value.
func NewString(s string) Value {
	return String{Value: s}
}

// NewArray creates an array value.
func NewArray(items []Value) *Array {
	if items == nil {
		items = []Value{}
	}
	return &Array{Items: items}
}

// NewDictionary creates an empty dictionary.
func NewDictionary() *Dictionary {
	return &Dictionary{entries: make(map[Value]Value)}
}

// IsIllegal reports whether v is the sentinel.
func IsIllegal(v Value) bool {
	_, ok := v.(Illegal)
	return ok
}

// Hashable reports whether v may be used as a dictionary key.
func Hashable(v Value) bool {
	switch v.(type) {
	case Null, Bool, Int, Float, String, ObjectRef:
		return true
	}
	return false
}

// Get retrieves the value stored under key.
func (d *Dictionary) Get(key Value) (Value, bool) {
	v, ok := d.entries[key]
	return v, ok
}

// Set stores val under key. Callers check Hashable first.
func (d *Dictionary) Set(key, val Value) {
	if d.entries == nil {
		d.entries = make(map[Value]Value)
	}
	d.entries[key] = val
}

// Len returns the number of entries.
func (d *Dictionary) Len() int {
	return len(d.entries)
}

// Keys returns the keys ordered by their printed form.
func (d *Dictionary) Keys() []Value {
	keys := make([]Value, 0, len(d.entries))
	for k := range d.entries {
		keys = append(keys, k)
	}
	sortValues(keys)
	return keys
}

// Each calls fn for every entry in key order.
func (d *Dictionary) Each(fn func(key, val Value)) {
	for _, k := range d.Keys() {
		fn(k, d.entries[k])
	}
}

// Mounted reports whether the function is a method bound to an object frame.
func (f *Function) Mounted() (Handle, bool) {
	return f.mount, f.bound
}

// Level returns the inheritance level of the class that declared a bound method.
func (f *Function) Level() int {
	return f.level
}

func (f *Function) bind(h Handle, level int, name string) *Function {
	return &Function{
		ID:     f.ID,
		Name:   name,
		Params: f.Params,
		Body:   f.Body,
		mount:  h,
		bound:  true,
		level:  level,
	}
}

// Truthiness returns the boolean interpretation of a value.
// null, false, 0, 0.0, "", empty arrays and empty dictionaries are falsy.
func Truthiness(v Value) bool {
	switch val := v.(type) {
	case Null, Illegal:
		return false
	case Bool:
		return val.Value
	case Int:
		return val.Value != 0
	case Float:
		return val.Value != 0
	case String:
		return val.Value != ""
	case *Array:
		return len(val.Items) > 0
	case *Dictionary:
		return val.Len() > 0
	default:
		return true
	}
}

// TypeName returns the user-facing type name of a value.
func TypeName(v Value) string {
	switch v.(type) {
	case Illegal:
		return "illegal"
	case Null:
		return "null"
	case Bool:
		return "bool"
	case Int:
		return "int"
	case Float:
		return "float"
	case String:
		return "string"
	case *Array:
		return "array"
	case *Dictionary:
		return "dictionary"
	case *Function:
		return "function"
	case *Class:
		return "class"
	case ObjectRef:
		return "object"
	case nil:
		return "nothing"
	default:
		return "unknown"
	}
}
