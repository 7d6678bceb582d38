package script

import (
	"strings"
	"testing"

	"github.com/zot/oak/internal/component"
)

func newComponent(t *testing.T, name string, owner *component.Component) *component.Component {
	t.Helper()
	c, err := component.New(component.Options{Name: name, Owner: owner})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return c
}

// TestHandlerSetsProperty verifies a compiled chunk can read and write
// the firing component through self.
func TestHandlerSetsProperty(t *testing.T) {
	e := NewEvaluator()
	defer e.Close()

	c := newComponent(t, "root", nil)
	if err := e.Bind(c, "poke", `self:set("greeting", "hello " .. self:name())`); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}

	if err := c.Dispatch("poke"); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	value, err := c.GetOne("greeting")
	if err != nil {
		t.Fatalf("GetOne failed: %v", err)
	}
	if value != "hello root" {
		t.Errorf("Expected 'hello root', got %q", value)
	}
}

// TestHandlerReachesChildren verifies self:child navigates the tree.
func TestHandlerReachesChildren(t *testing.T) {
	e := NewEvaluator()
	defer e.Close()

	root := newComponent(t, "root", nil)
	child := newComponent(t, "child1", root)

	if err := e.Bind(root, "poke", `self:child("child1"):set("color", "red")`); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if err := root.Dispatch("poke"); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}

	value, _ := child.Bag().Get("color")
	if value != "red" {
		t.Errorf("Expected 'red' on the child, got %q", value)
	}
}

// TestHandlerDispatchChains verifies self:dispatch fires another bound
// event.
func TestHandlerDispatchChains(t *testing.T) {
	e := NewEvaluator()
	defer e.Close()

	c := newComponent(t, "root", nil)
	if err := e.Bind(c, "second", `self:set("stage", "two")`); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if err := e.Bind(c, "first", `self:dispatch("second")`); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}

	if err := c.Dispatch("first"); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	value, _ := c.Bag().Get("stage")
	if value != "two" {
		t.Errorf("Expected chained handler to run, got %q", value)
	}
}

// TestNestedDispatchKeepsSelf verifies a handler that chains into a
// child's event still runs its own tail against its own component.
func TestNestedDispatchKeepsSelf(t *testing.T) {
	e := NewEvaluator()
	defer e.Close()

	root := newComponent(t, "root", nil)
	child := newComponent(t, "child1", root)

	if err := e.Bind(child, "inner", `self:set("who", self:name())`); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}
	if err := e.Bind(root, "outer", `self:child("child1"):dispatch("inner") self:set("who", self:name())`); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}

	if err := root.Dispatch("outer"); err != nil {
		t.Fatalf("Dispatch failed: %v", err)
	}
	if value, _ := child.Bag().Get("who"); value != "child1" {
		t.Errorf("Inner handler ran against the wrong component: %q", value)
	}
	if value, _ := root.Bag().Get("who"); value != "root" {
		t.Errorf("Outer handler's tail ran against the wrong component: %q", value)
	}
}

// TestCompileError verifies an unparseable chunk fails at bind time,
// not dispatch time.
func TestCompileError(t *testing.T) {
	e := NewEvaluator()
	defer e.Close()

	c := newComponent(t, "root", nil)
	if err := e.Bind(c, "poke", `this is not lua`); err == nil {
		t.Error("Expected a compile error")
	}
}

// TestRuntimeErrorPropagates verifies a Lua runtime failure surfaces
// through Dispatch.
func TestRuntimeErrorPropagates(t *testing.T) {
	e := NewEvaluator()
	defer e.Close()

	c := newComponent(t, "root", nil)
	if err := e.Bind(c, "poke", `error("scripted failure")`); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}

	err := c.Dispatch("poke")
	if err == nil {
		t.Fatal("Expected the Lua error to propagate")
	}
	if !strings.Contains(err.Error(), "scripted failure") {
		t.Errorf("Expected the Lua message in the error, got %v", err)
	}
}

// TestMissingChildRaises verifies navigating to an unregistered child
// fails the handler.
func TestMissingChildRaises(t *testing.T) {
	e := NewEvaluator()
	defer e.Close()

	c := newComponent(t, "root", nil)
	if err := e.Bind(c, "poke", `self:child("ghost")`); err != nil {
		t.Fatalf("Bind failed: %v", err)
	}

	if err := c.Dispatch("poke"); err == nil {
		t.Error("Expected an error for a missing child")
	}
}
