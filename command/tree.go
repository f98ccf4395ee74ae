package command

import (
	"errors"
	"fmt"
)

// CallFunc delivers a request to whatever runs it: a local dispatcher, a
// socket, or nothing at all for deferred calls.
type CallFunc func(req Request) (any, error)

// Node is one position in a command tree. It accumulates a selector path as
// categories are descended into and selectors applied. Nodes are values;
// every step returns a new node and never changes the receiver.
//
// The fluent methods (Layout, Group, At, ...) do not return errors. A bad
// step leaves an error on the resulting node, visible through Err right away
// and returned by any command built from it without dispatching anything.
type Node struct {
	prefix   Path
	category Category
	selector Selector
	call     CallFunc
	err      error
}

// NewRoot returns the root of a command tree whose commands go to call.
func NewRoot(call CallFunc) Node {
	return Node{category: Root, call: call}
}

// Category returns the category of the node; Root for the tree root.
func (n Node) Category() Category { return n.category }

// Selector returns the selector applied to this node, if any.
func (n Node) Selector() Selector { return n.selector }

// Err returns the construction error carried by the node.
func (n Node) Err() error { return n.err }

// Path returns the full selector path up to and including this node.
func (n Node) Path() Path {
	if n.category == Root {
		return append(Path{}, n.prefix...)
	}
	return n.prefix.Append(n.category, n.selector)
}

// Descend moves into child category c, which must be contained by the
// category of n.
func (n Node) Descend(c Category) (Node, error) {
	if n.err != nil {
		return n, n.err
	}
	if !n.category.Contains(c) {
		return Node{}, &TreeError{Path: n.Path(), Message: fmt.Sprintf("%s does not contain %s", n.category, c)}
	}
	return Node{prefix: n.Path(), category: c, call: n.call}, nil
}

// Index applies a selector to the current category. The root has no
// selector of its own, and a node may only be indexed once.
func (n Node) Index(sel Selector) (Node, error) {
	if n.err != nil {
		return n, n.err
	}
	if n.category == Root {
		return Node{}, &TreeError{Message: fmt.Sprintf("No such key: %s", sel)}
	}
	if !n.selector.IsNone() {
		return Node{}, &TreeError{Path: n.Path(), Message: fmt.Sprintf("No such key: %s", sel)}
	}
	if sel.IsNone() {
		return Node{}, &TreeError{Path: n.Path(), Message: "empty selector"}
	}
	return Node{prefix: n.prefix, category: n.category, selector: sel, call: n.call}, nil
}

// Attr is attribute access: the name of a category contained by n descends
// into it, any other name is a command at n.
func (n Node) Attr(name string) (child Node, cmd Command, isNode bool) {
	if c, ok := ParseCategory(name); ok && n.category.Contains(c) {
		child, _ = n.Descend(c)
		return child, Command{}, true
	}
	return Node{}, n.Cmd(name), false
}

func (n Node) fail(err error) Node {
	m := n
	m.err = err
	return m
}

func (n Node) child(c Category) Node {
	m, err := n.Descend(c)
	if err != nil {
		return n.fail(err)
	}
	return m
}

func (n Node) Layout() Node { return n.child(Layout) }
func (n Node) Widget() Node { return n.child(Widget) }
func (n Node) Bar() Node    { return n.child(Bar) }
func (n Node) Window() Node { return n.child(Window) }
func (n Node) Screen() Node { return n.child(Screen) }
func (n Node) Group() Node  { return n.child(Group) }

// At applies a selector given as a plain value (string name or int index).
func (n Node) At(v any) Node {
	if n.err != nil {
		return n
	}
	sel, err := SelectorOf(v)
	if err != nil {
		return n.fail(&TreeError{Path: n.Path(), Message: err.Error()})
	}
	m, err := n.Index(sel)
	if err != nil {
		return n.fail(err)
	}
	return m
}

// Cmd returns the command name bound to the path of n.
func (n Node) Cmd(name string) Command {
	return Command{path: n.Path(), name: name, call: n.call, err: n.err}
}

// Command is a command name bound to a selector path, ready to be called.
type Command struct {
	path Path
	name string
	call CallFunc
	err  error
}

// Path returns the selector path of the command's target.
func (c Command) Path() Path { return append(Path{}, c.path...) }

// Name returns the command name.
func (c Command) Name() string { return c.name }

// Err returns the construction error inherited from the tree.
func (c Command) Err() error { return c.err }

// Request returns the request a call with the given arguments would send.
func (c Command) Request(kwargs map[string]any, args ...any) Request {
	return Request{Path: c.Path(), Name: c.name, Args: args, Kwargs: kwargs}
}

// Call invokes the command with positional arguments.
func (c Command) Call(args ...any) (any, error) {
	return c.CallKw(nil, args...)
}

// CallKw invokes the command with keyword and positional arguments.
func (c Command) CallKw(kwargs map[string]any, args ...any) (any, error) {
	if c.err != nil {
		return nil, c.err
	}
	if c.call == nil {
		return nil, errors.New("command tree has no caller")
	}
	return c.call(c.Request(kwargs, args...))
}
