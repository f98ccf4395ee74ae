package command

import "fmt"

// Lazy is the tree for deferred calls. Calling a command on it runs nothing;
// the result is a *LazyCall to be invoked later, typically from a key or
// mouse binding.
//
//	down, _ := command.Lazy.Layout().Cmd("down").Call()
//	call := down.(*command.LazyCall)
var Lazy = NewRoot(func(req Request) (any, error) {
	return NewLazyCall(req), nil
})

// FocusState is what a guard needs to know about the manager at the time a
// deferred call is activated.
type FocusState interface {
	// CurrentLayoutName is the name of the current group's layout.
	CurrentLayoutName() string
	// CurrentWindowFloating reports whether the focused window floats. ok is
	// false when no window has focus.
	CurrentWindowFloating() (floating, ok bool)
}

// LazyCall is a captured command invocation with optional guards.
type LazyCall struct {
	Request

	layout       string
	whenFloating bool
}

// NewLazyCall captures req.
func NewLazyCall(req Request) *LazyCall {
	return &LazyCall{Request: req, whenFloating: true}
}

// Defer captures a call of c with positional arguments. Construction errors of
// the tree are returned here rather than at activation.
func (c Command) Defer(args ...any) (*LazyCall, error) {
	return c.DeferKw(nil, args...)
}

// DeferKw captures a call of c with keyword and positional arguments.
func (c Command) DeferKw(kwargs map[string]any, args ...any) (*LazyCall, error) {
	if c.err != nil {
		return nil, c.err
	}
	return NewLazyCall(c.Request(kwargs, args...)), nil
}

// MustDefer is Defer for statically known trees; it panics on a construction
// error.
func (c Command) MustDefer(args ...any) *LazyCall {
	lc, err := c.Defer(args...)
	if err != nil {
		panic(err)
	}
	return lc
}

// When restricts the call to a layout. The name "floating" matches whenever
// the focused window floats. For any other name the current layout must match
// and, unless whenFloating is set, the focused window must not float.
func (lc *LazyCall) When(layout string, whenFloating bool) *LazyCall {
	lc.layout = layout
	lc.whenFloating = whenFloating
	return lc
}

// Layout returns the guard layout name, or "" when unguarded.
func (lc *LazyCall) Layout() string { return lc.layout }

// Check evaluates the guards against the current state.
func (lc *LazyCall) Check(s FocusState) bool {
	if lc.layout == "" {
		return true
	}
	floating, hasWindow := s.CurrentWindowFloating()
	if lc.layout == "floating" {
		return hasWindow && floating
	}
	if s.CurrentLayoutName() != lc.layout {
		return false
	}
	if hasWindow && floating && !lc.whenFloating {
		return false
	}
	return true
}

// Invoke runs the captured call through call.
func (lc *LazyCall) Invoke(call CallFunc) (any, error) {
	if call == nil {
		return nil, fmt.Errorf("no caller for %s", lc.Request)
	}
	return call(lc.Request)
}
