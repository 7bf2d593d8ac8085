package evaluator_test

import (
	"errors"
	"testing"

	"github.com/C0DECYCLE/PyTerpreter/pkg/diagnostics"
	"github.com/C0DECYCLE/PyTerpreter/pkg/evaluator"
)

func code(err error) string {
	var re *evaluator.RuntimeError
	if errors.As(err, &re) {
		return re.Code
	}
	return ""
}

func TestFramesDestroyedHandleIsStale(t *testing.T) {
	fs := evaluator.NewFrames()
	h := fs.New(evaluator.UsageSequence)
	if err := fs.Destroy(h); err != nil {
		t.Fatal(err)
	}
	// The slot is reused, but the old handle must not resolve to the new frame.
	h2 := fs.New(evaluator.UsageSequence)
	if h2.ID() == h.ID() {
		t.Fatalf("reused id %d", h.ID())
	}
	if err := fs.Store(h, "x", evaluator.NewInt(1)); code(err) != diagnostics.EDestroyed {
		t.Errorf("Store on destroyed handle: got %v, want %s", err, diagnostics.EDestroyed)
	}
	if err := fs.Store(h2, "x", evaluator.NewInt(1)); err != nil {
		t.Errorf("Store on live handle: %v", err)
	}
}

func TestFramesChain(t *testing.T) {
	fs := evaluator.NewFrames()
	root := fs.New(evaluator.UsageGlobal)
	a := fs.New(evaluator.UsageSequence)
	b := fs.New(evaluator.UsageFunction)

	if err := fs.Attach(a, root); err != nil {
		t.Fatal(err)
	}
	if err := fs.Attach(b, a); err != nil {
		t.Fatal(err)
	}
	low, err := fs.Lowest(root)
	if err != nil || low != b {
		t.Fatalf("Lowest = %v, %v, want b", low, err)
	}
	if prev, _ := fs.Previous(b); prev != a {
		t.Errorf("Previous(b) = %v, want a", prev)
	}

	// a already encloses b.
	c := fs.New(evaluator.UsageIf)
	if err := fs.Attach(c, a); code(err) != diagnostics.ETree {
		t.Errorf("Attach below occupied frame: got %v, want %s", err, diagnostics.ETree)
	}
	// a is not innermost.
	if err := fs.Destroy(a); code(err) != diagnostics.ETree {
		t.Errorf("Destroy of enclosing frame: got %v, want %s", err, diagnostics.ETree)
	}

	if err := fs.Destroy(b); err != nil {
		t.Fatal(err)
	}
	if low, _ := fs.Lowest(root); low != a {
		t.Errorf("Lowest after destroy = %v, want a", low)
	}
}

func TestFramesRetrieve(t *testing.T) {
	fs := evaluator.NewFrames()
	h := fs.New(evaluator.UsageGlobal)
	if _, err := fs.Retrieve(h, "nope"); code(err) != diagnostics.EProperty {
		t.Errorf("Retrieve missing: got %v, want %s", err, diagnostics.EProperty)
	}
	if err := fs.Store(h, "x", evaluator.Illegal{}); code(err) != diagnostics.EIllegalValue {
		t.Errorf("Store sentinel: got %v, want %s", err, diagnostics.EIllegalValue)
	}
	_ = fs.Store(h, "b", evaluator.NewInt(2))
	_ = fs.Store(h, "a", evaluator.NewInt(1))
	names, _ := fs.Names(h)
	if len(names) != 2 || names[0] != "a" {
		t.Errorf("Names = %v, want [a b]", names)
	}
	if err := fs.Delete(h, "a"); err != nil {
		t.Fatal(err)
	}
	if ok, _ := fs.Exists(h, "a"); ok {
		t.Error("a still bound after Delete")
	}
}

func TestFramesObjectRefcount(t *testing.T) {
	fs := evaluator.NewFrames()
	root := fs.New(evaluator.UsageGlobal)
	obj := fs.New(evaluator.UsageObject)
	if err := fs.Persist(obj); err != nil {
		t.Fatal(err)
	}
	ref := evaluator.ObjectRef{Handle: obj}

	_ = fs.Store(root, "a", ref)
	_ = fs.Store(root, "b", ref)
	// Self references are not counted.
	_ = fs.Store(obj, "self", ref)

	_ = fs.Store(root, "a", evaluator.NewNull())
	if fs.Stats().Objects != 1 {
		t.Fatalf("object destroyed while still bound to b")
	}
	_ = fs.Delete(root, "b")
	if fs.Stats().Objects != 0 {
		t.Errorf("objects = %d after last binding removed, want 0", fs.Stats().Objects)
	}
	if _, err := fs.Retrieve(obj, "self"); code(err) != diagnostics.EDestroyed {
		t.Errorf("object frame still reachable: %v", err)
	}
}

func TestFramesPendingWhileMounted(t *testing.T) {
	fs := evaluator.NewFrames()
	root := fs.New(evaluator.UsageGlobal)
	obj := fs.New(evaluator.UsageObject)
	_ = fs.Persist(obj)
	ref := evaluator.ObjectRef{Handle: obj}
	_ = fs.Store(root, "o", ref)

	if err := fs.Attach(obj, root); err != nil {
		t.Fatal(err)
	}
	_ = fs.Store(root, "o", evaluator.NewNull())
	if fs.Stats().Objects != 1 {
		t.Fatal("mounted object destroyed early")
	}
	_ = fs.Detach(obj)
	if err := fs.Settle(obj); err != nil {
		t.Fatal(err)
	}
	if fs.Stats().Objects != 0 {
		t.Errorf("objects = %d after settle, want 0", fs.Stats().Objects)
	}
}

func TestFramesSweep(t *testing.T) {
	fs := evaluator.NewFrames()
	a := fs.New(evaluator.UsageObject)
	b := fs.New(evaluator.UsageObject)
	_ = fs.Persist(a)
	_ = fs.Persist(b)
	// A cycle that refcounting alone never frees.
	_ = fs.Store(a, "peer", evaluator.ObjectRef{Handle: b})
	_ = fs.Store(b, "peer", evaluator.ObjectRef{Handle: a})

	if n := fs.Sweep(); n != 2 {
		t.Errorf("Sweep destroyed %d frames, want 2", n)
	}
	s := fs.Stats()
	if s.Live != 0 || s.Created != s.Destroyed {
		t.Errorf("stats after sweep = %+v", s)
	}
}
