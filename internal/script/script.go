// Package script compiles Lua chunks into event handlers. The core
// dispatches registered callbacks only; this package is the bridge for
// applications that configure handlers as Lua source. A chunk runs
// with a `self` table exposing the component it fires on:
//
//	self:get(name)        -> value
//	self:set(name, value)
//	self:name()           -> component name
//	self:child(name)      -> child's self table
//	self:dispatch(event)
package script

import (
	lua "github.com/yuin/gopher-lua"

	"github.com/zot/oak/internal/component"
	"github.com/zot/oak/internal/filer"
)

// Evaluator owns one Lua state and compiles handler chunks against it.
// Like the rest of the framework it is single-threaded: handlers run
// synchronously inside Dispatch.
type Evaluator struct {
	state *lua.LState
}

// NewEvaluator creates a Lua state for handler compilation.
func NewEvaluator() *Evaluator {
	return &Evaluator{state: lua.NewState()}
}

// Close releases the Lua state.
func (e *Evaluator) Close() {
	e.state.Close()
}

// Compile turns a Lua chunk into a handler. The chunk is compiled
// once; each dispatch binds `self` to the firing component, runs it,
// and restores the previous binding, so a handler that chains into
// another component's event gets its own `self` back afterward. A Lua
// error propagates to the dispatcher as the handler's error.
func (e *Evaluator) Compile(src string) (component.Handler, error) {
	fn, err := e.state.LoadString(src)
	if err != nil {
		return nil, err
	}
	return func(c *component.Component) error {
		prev := e.state.GetGlobal("self")
		e.state.SetGlobal("self", e.wrap(c))
		e.state.Push(fn)
		err := e.state.PCall(0, 0, nil)
		e.state.SetGlobal("self", prev)
		return err
	}, nil
}

// Bind compiles src and registers it on c under the event name.
func (e *Evaluator) Bind(c *component.Component, event, src string) error {
	h, err := e.Compile(src)
	if err != nil {
		return err
	}
	c.On(event, h)
	return nil
}

// wrap builds the `self` table for a component.
func (e *Evaluator) wrap(c *component.Component) *lua.LTable {
	L := e.state
	t := L.NewTable()

	L.SetField(t, "name", L.NewFunction(func(L *lua.LState) int {
		L.Push(lua.LString(c.Name()))
		return 1
	}))

	L.SetField(t, "get", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(2)
		value, err := c.GetOne(name)
		if err != nil {
			L.RaiseError("get %s: %v", name, err)
			return 0
		}
		L.Push(lua.LString(value))
		return 1
	}))

	L.SetField(t, "set", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(2)
		value := L.CheckString(3)
		if err := c.Set(filer.Props{name: value}); err != nil {
			L.RaiseError("set %s: %v", name, err)
		}
		return 0
	}))

	L.SetField(t, "child", L.NewFunction(func(L *lua.LState) int {
		name := L.CheckString(2)
		child, err := c.GetChild(name)
		if err != nil {
			L.RaiseError("child %s: %v", name, err)
			return 0
		}
		L.Push(e.wrap(child))
		return 1
	}))

	L.SetField(t, "dispatch", L.NewFunction(func(L *lua.LState) int {
		event := L.CheckString(2)
		if err := c.Dispatch(event); err != nil {
			L.RaiseError("dispatch %s: %v", event, err)
		}
		return 0
	}))

	return t
}
