package command

import (
	"fmt"
	"strings"

	"lavinder/log"
)

// Func is an in-process function run by the "function" built-in with the
// selected object as its first argument. Key and mouse bindings use it for
// custom actions.
type Func func(o Object, args ...any) error

var builtinNames = []string{"commands", "doc", "eval", "function", "items"}

func builtinSpec(o Object, name string) (*Spec, bool) {
	return builtins(o).Get(name)
}

// builtins builds the commands every object carries. They are bound to o.
func builtins(o Object) *Registry {
	r := NewRegistry()

	r.Register("commands", func(*Args) (any, error) {
		return CommandNames(o), nil
	}).Doc("Returns a list of possible commands for this object.\n\n" +
		"Used by the shell for command completion and online help.")

	r.Register("items", func(a *Args) (any, error) {
		c, ok := ParseCategory(a.String("name"))
		if !ok {
			return []any{false, []any{}}, nil
		}
		list := Items(o, c)
		if list.Selectors == nil {
			return []any{list.RootOK, nil}, nil
		}
		return []any{list.RootOK, list.Values()}, nil
	}).Arg("name", StringKind).
		Doc("Returns a list of contained items for the specified name.\n\n" +
			"Used by the shell to allow navigation of the object graph.")

	r.Register("doc", func(a *Args) (any, error) {
		name := a.String("name")
		spec, ok := Lookup(o, name)
		if !ok {
			return nil, Errorf("No such command: %s", name)
		}
		return spec.Doc(), nil
	}).Arg("name", StringKind).
		Doc("Returns the documentation for a specified command name.\n\n" +
			"Used by the shell to provide online help.")

	r.Register("eval", func(a *Args) (any, error) {
		v, err := evalExpr(o, a.String("code"))
		if err != nil {
			msg := err.Error()
			if i := strings.LastIndex(strings.TrimSpace(msg), "\n"); i >= 0 {
				msg = strings.TrimSpace(msg)[i+1:]
			}
			return []any{false, msg}, nil
		}
		if v == nil {
			return []any{true, nil}, nil
		}
		return []any{true, fmt.Sprint(v)}, nil
	}).Arg("code", StringKind).
		Doc("Evaluates a command expression relative to this object.\n\n" +
			"The expression is a path and call such as 'layout.info()' or " +
			"'group[\"b\"].toscreen()'. Returns (success, result) where result " +
			"is the printed return value or the error text.")

	r.Register("function", func(a *Args) (any, error) {
		fn, ok := asFunc(a.Value("function"))
		if !ok {
			return nil, Errorf("function() expects an in-process function, got %T", a.Value("function"))
		}
		callFunc(o, fn, a.Rest())
		return nil, nil
	}).Arg("function", AnyKind).Rest("args", AnyKind).
		Doc("Call a function with current object as argument.\n\n" +
			"Errors raised by the function are logged, not returned.")

	return r
}

func asFunc(v any) (Func, bool) {
	switch f := v.(type) {
	case Func:
		return f, true
	case func(Object, ...any) error:
		return f, true
	}
	return nil, false
}

func callFunc(o Object, fn Func, args []any) {
	defer func() {
		if r := recover(); r != nil {
			log.ErrorLog.Printf("panic calling function: %v", r)
		}
	}()
	if err := fn(o, args...); err != nil {
		log.ErrorLog.Printf("error calling function: %v", err)
	}
}

// evalExpr runs a command expression against o without leaving the current
// goroutine.
func evalExpr(o Object, code string) (any, error) {
	expr, err := ParseExpr(code)
	if err != nil {
		return nil, err
	}
	target, err := Resolve(o, expr.Path)
	if err != nil {
		return nil, err
	}
	if !expr.IsCall() {
		return nil, nil
	}
	spec, ok := Lookup(target, expr.Name)
	if !ok {
		return nil, Errorf("No such command.")
	}
	return run(spec, expr.Args, expr.Kwargs)
}
