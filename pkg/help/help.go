// Package help holds the reference text printed by pyterp help.
package help

import (
	"fmt"
	"sort"
	"strings"

	"github.com/C0DECYCLE/PyTerpreter/pkg/stdlib"
)

// Version is the language reference version.
const Version = "v1.0"

// QUICKREF is printed by pyterp help without a topic.
const QUICKREF = `PyTerpreter ` + Version + ` quick reference

A program is a JSON list of operations. An operation is a list whose first
element names the operator: ["print", ["add", 1, 2]].

  pyterp run prog.json        run a program
  pyterp check prog.json      static checks, no execution
  pyterp fmt prog.json        canonical layout
  pyterp trace calls.log      per-function timing report
  pyterp repl                 interactive session

Topics (pyterp help <topic>, prefixes work):
  syntax       program shape, blocks and literals
  values       types, truthiness and printing
  variables    set and get, scoping
  control      if, while, repeat
  functions    function, call, return
  classes      class, object, inherit, objectGet, objectSet
  operations   the full operator index
  diagnostics  error codes
  trace        trace logs and reports
  examples     complete programs
`

// Topics maps topic names to their text.
var Topics = map[string]string{
	"syntax": `SYNTAX

  program    = [ operation, ... ]
  operation  = [ "name", argument, ... ]
  block      = [ operation, ... ]          (a sequence)
  argument   = literal | operation | block

Literals are JSON null, true/false, integers, floats, strings and objects.
Objects become dictionaries with string keys. A list whose first element is
neither a string nor a list is invalid; build arrays with ["array", n].

Names given to set, get, inherit and function are literal strings and are
never evaluated. The repeat count is a literal integer.
`,
	"values": `VALUES

  null, bool, int, float, string, array, dictionary, function, class, object

Falsy: null, false, 0, 0.0, "", empty arrays and empty dictionaries.
Integers and floats compare equal by value; bools never equal numbers.
print shows strings raw at the top level and quoted inside containers.
Statements such as set and print yield no value; using their result as an
argument is an E_ILLEGAL_VALUE error.
`,
	"variables": `VARIABLES

  ["set", "name", value]   bind name
  ["get", "name"]          read name

set updates the outermost frame that already binds the name, searching from
the global frame inward; otherwise it binds in the innermost frame.
get searches from the innermost frame outward.
Every block (if, while, repeat bodies, nested sequences) runs in its own frame
whose bindings disappear when it ends.
`,
	"control": `CONTROL FLOW

  ["if", condition, [then...]]
  ["if", condition, [then...], [else...]]
  ["while", condition, [body...]]
  ["repeat", 3, [body...]]

A return inside any of these blocks leaves the enclosing function.
`,
	"functions": `FUNCTIONS

  ["function", ["a", "b"], [body...]]           anonymous function value
  ["function", "name", ["a", "b"], [body...]]   declare name
  ["call", fn]                                   call without arguments
  ["call", fn, [arg, ...]]                       call with arguments
  ["return", value]

A function without return yields the value of its "return" binding if it set
one, otherwise null. Calls nest at most max_depth deep (E_DEPTH).
`,
	"classes": `CLASSES AND OBJECTS

  ["class", [["set", "field", value], ["set", "method", ["function", ...]]]]
  ["class", ancestor, [declarations...]]
  ["object", cls]  /  ["object", cls, [constructor args...]]
  ["objectGet", obj, "field"]
  ["objectSet", obj, "field", value]
  ["inherit", "method"]

Declarations of all ancestors are evaluated into each new object, oldest
first. A method named "constructor" runs after the declarations. Methods see
the fields of their object as variables. Inside a method, inherit returns the
ancestor version of a method the class overrides.
`,
	"diagnostics": `DIAGNOSTICS

  E_DECODE         the program is not valid JSON
  E_SEQUENCE       a block or program is not a list of operations
  E_LENGTH         wrong number of arguments
  E_TYPE           wrong argument type
  E_ILLEGAL_VALUE  a statement used as a value
  E_PROPERTY       unknown variable, field or operation
  E_USAGE          return outside a function, inherit outside an object
  E_MISMATCH       call of a non-function, object of a non-class
  E_INSTANCE       objectGet/objectSet on a non-object
  E_ARITHMETIC     division by zero, integer overflow
  E_INDEX          array index out of range
  E_DEPTH          call depth limit exceeded
  E_CANCELLED      the run was interrupted
  E_TREE, E_DESTROYED  internal frame errors
  E_IO             output could not be written

Exit codes: 0 success, 1 runtime or usage error, 2 decode or check error.
`,
	"trace": `TRACE

  pyterp run prog.json --trace calls.log
  pyterp trace calls.log [--json]

Each call writes a start and a stop row: id, name, event, timestamp.
The report lists calls, total and average milliseconds per function name.
`,
	"examples": `EXAMPLES

Factorial:
  [
    ["function", "fact", ["n"], [
      ["if", ["lessEqual", ["get", "n"], 1], [["return", 1]]],
      ["return", ["multiply", ["get", "n"], ["call", ["get", "fact"], [["subtract", ["get", "n"], 1]]]]]
    ]],
    ["print", ["call", ["get", "fact"], [10]]]
  ]

Inheritance:
  [
    ["set", "A", ["class", [["set", "greet", ["function", [], [["return", "A"]]]]]]],
    ["set", "B", ["class", ["get", "A"], [
      ["set", "greet", ["function", [], [["return", ["add", ["call", ["inherit", "greet"]], "B"]]]]]
    ]]],
    ["print", ["call", ["objectGet", ["object", ["get", "B"]], "greet"]]]
  ]
`,
}

// TopicList is the display order of Topics. "operations" is generated.
var TopicList = []string{
	"syntax", "values", "variables", "control", "functions", "classes",
	"operations", "diagnostics", "trace", "examples",
}

// MatchTopic resolves a topic by exact name or unique prefix.
func MatchTopic(query string) (string, string, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return "", "", fmt.Errorf("empty help topic")
	}
	var matches []string
	for _, name := range TopicList {
		if name == query {
			return name, topicText(name), nil
		}
		if strings.HasPrefix(name, query) {
			matches = append(matches, name)
		}
	}
	switch len(matches) {
	case 0:
		return "", "", fmt.Errorf("unknown help topic %q", query)
	case 1:
		return matches[0], topicText(matches[0]), nil
	}
	return "", "", fmt.Errorf("ambiguous help topic %q: %s", query, strings.Join(matches, ", "))
}

func topicText(name string) string {
	if name == "operations" {
		return OperatorIndex()
	}
	return Topics[name]
}

// OperatorIndex lists every registered operation grouped by module.
func OperatorIndex() string {
	reg := stdlib.Default()
	byModule := make(map[string][]*stdlib.Fn)
	for _, fn := range reg.All() {
		byModule[fn.Module] = append(byModule[fn.Module], fn)
	}
	modules := make([]string, 0, len(byModule))
	for m := range byModule {
		modules = append(modules, m)
	}
	sort.Strings(modules)

	var sb strings.Builder
	sb.WriteString("OPERATIONS\n")
	for _, m := range modules {
		fns := byModule[m]
		sort.Slice(fns, func(i, j int) bool { return fns[i].Name < fns[j].Name })
		fmt.Fprintf(&sb, "\n  %s\n", m)
		for _, fn := range fns {
			fmt.Fprintf(&sb, "    %-16s %s\n", fn.Name, arity(fn.Arity))
		}
	}
	fmt.Fprintf(&sb, "\nTotal: %d operations\n", len(reg.All()))
	return sb.String()
}

func arity(ns []int) string {
	parts := make([]string, len(ns))
	for i, n := range ns {
		parts[i] = fmt.Sprint(n)
	}
	if len(ns) == 1 && ns[0] == 1 {
		return "1 argument"
	}
	return strings.Join(parts, " or ") + " arguments"
}
