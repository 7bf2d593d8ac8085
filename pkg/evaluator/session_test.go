package evaluator_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/C0DECYCLE/PyTerpreter/pkg/diagnostics"
	"github.com/C0DECYCLE/PyTerpreter/pkg/evaluator"
	"github.com/C0DECYCLE/PyTerpreter/pkg/parser"
)

func evalNode(t *testing.T, sess *evaluator.Session, src string) (evaluator.Value, error) {
	t.Helper()
	node, diags := parser.ParseNode(src, "repl")
	if len(diags) > 0 {
		t.Fatalf("parse errors: %s", diagnostics.FormatDiagnostics(diags, true))
	}
	return sess.Eval(node)
}

func evalOK(t *testing.T, sess *evaluator.Session, src string) evaluator.Value {
	t.Helper()
	v, err := evalNode(t, sess, src)
	if err != nil {
		t.Fatalf("eval %s: %v", src, err)
	}
	return v
}

func TestSessionKeepsBindings(t *testing.T) {
	var out bytes.Buffer
	sess := evaluator.NewSession(context.Background(), defaultOpts(&out))
	defer sess.Close()

	evalOK(t, sess, `["set", "x", 40]`)
	evalOK(t, sess, `["function", "inc", ["v"], [["return", ["add", ["get", "v"], 1]]]]`)
	v := evalOK(t, sess, `["call", ["get", "inc"], [["add", ["get", "x"], 1]]]`)
	if !evaluator.Equal(v, evaluator.NewInt(42)) {
		t.Errorf("result = %s, want 42", evaluator.Repr(v))
	}

	names := sess.Names()
	if len(names) != 2 || names[0] != "inc" || names[1] != "x" {
		t.Errorf("names = %v, want [inc x]", names)
	}
	x, err := sess.Lookup("x")
	if err != nil || !evaluator.Equal(x, evaluator.NewInt(40)) {
		t.Errorf("lookup x = %v, %v", x, err)
	}
}

func TestSessionSequenceReturnsLastValue(t *testing.T) {
	sess := evaluator.NewSession(context.Background(), defaultOpts(&bytes.Buffer{}))
	defer sess.Close()

	v := evalOK(t, sess, `[["set", "a", 2], ["multiply", ["get", "a"], 3]]`)
	if !evaluator.Equal(v, evaluator.NewInt(6)) {
		t.Errorf("result = %s, want 6", evaluator.Repr(v))
	}
	// The sequence ran in the global frame, so its bindings persist.
	evalOK(t, sess, `["get", "a"]`)
}

func TestSessionStatementYieldsSentinel(t *testing.T) {
	sess := evaluator.NewSession(context.Background(), defaultOpts(&bytes.Buffer{}))
	defer sess.Close()

	v := evalOK(t, sess, `["set", "a", 2]`)
	if !evaluator.IsIllegal(v) {
		t.Errorf("set yielded %s, want the sentinel", evaluator.Repr(v))
	}
}

func TestSessionRecoversFromErrors(t *testing.T) {
	sess := evaluator.NewSession(context.Background(), defaultOpts(&bytes.Buffer{}))
	defer sess.Close()

	evalOK(t, sess, `["set", "A", ["class", [["set", "boom", ["function", [], [["get", "missing"]]]]]]]`)
	evalOK(t, sess, `["set", "o", ["object", ["get", "A"]]]`)
	_, err := evalNode(t, sess, `["call", ["objectGet", ["get", "o"], "boom"]]`)
	expectRuntimeError(t, err, diagnostics.EProperty)

	// The failed call left its frames behind; they must be gone and the object
	// must still be callable.
	live := sess.Stats().Live
	if live != 2 {
		t.Errorf("live frames after failure = %d, want 2 (global and object)", live)
	}
	_, err = evalNode(t, sess, `["call", ["objectGet", ["get", "o"], "boom"]]`)
	expectRuntimeError(t, err, diagnostics.EProperty)

	evalOK(t, sess, `["set", "ok", 1]`)
	if v, _ := sess.Lookup("ok"); !evaluator.Equal(v, evaluator.NewInt(1)) {
		t.Errorf("ok = %v, want 1", v)
	}
}
