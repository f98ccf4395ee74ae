package manager

import (
	"fmt"

	"lavinder/command"
	"lavinder/config"
)

// Layout arranges the tiled windows of a group. Every layout of a group holds
// all of the group's tiled windows; only the current one is arranged.
type Layout interface {
	command.Object
	Name() string
	// Add inserts a window and makes it the layout's current window.
	Add(w *Window)
	// Remove drops a window and returns the window that should get focus
	// next, or nil.
	Remove(w *Window) *Window
	// Focus makes w the layout's current window.
	Focus(w *Window)
	// Current returns the layout's current window, or nil.
	Current() *Window
	// Clients returns the windows in layout order.
	Clients() []*Window
	// Arrange returns the placement of each visible window within area.
	Arrange(area Rect) map[*Window]Rect
	Info() map[string]any
}

// newLayout builds a layout for group g from its configuration.
func newLayout(lc config.LayoutConfig, g *Group) (Layout, error) {
	switch lc.Type {
	case "stack":
		n := lc.NumStacks
		if n == 0 {
			n = 2
		}
		return newStack(lc.LayoutName(), n, g), nil
	case "max":
		return newMax(lc.LayoutName(), g), nil
	case "floating":
		return newFloating(lc.LayoutName(), g), nil
	}
	return nil, fmt.Errorf("unknown layout type %q", lc.Type)
}

// layoutBase carries what every layout exposes to the command graph.
type layoutBase struct {
	name  string
	group *Group
	self  Layout
	cmds  *command.Registry
}

func (l *layoutBase) Name() string { return l.name }

func (l *layoutBase) Commands() *command.Registry { return l.cmds }

func (l *layoutBase) Items(c command.Category) (command.ItemList, bool) {
	switch c {
	case command.Group, command.Screen:
		return command.ItemList{RootOK: true}, true
	case command.Window:
		return command.ItemList{RootOK: true, Selectors: windowIDs(l.self.Clients())}, true
	}
	return command.ItemList{}, false
}

func (l *layoutBase) Select(c command.Category, sel command.Selector) command.Object {
	switch c {
	case command.Group:
		return l.group
	case command.Screen:
		if l.group.screen == nil {
			return nil
		}
		return l.group.screen
	case command.Window:
		if sel.IsNone() {
			if cur := l.self.Current(); cur != nil {
				return cur
			}
			return nil
		}
		id, _ := sel.AsIndex()
		for _, w := range l.self.Clients() {
			if w.id == id {
				return w
			}
		}
	}
	return nil
}

// baseInfo is the part of info() every layout reports.
func (l *layoutBase) baseInfo() map[string]any {
	return map[string]any{
		"name":    l.name,
		"group":   l.group.name,
		"clients": windowNames(l.self.Clients()),
	}
}

// registerCommon adds info and focus movement to a layout's registry.
func (l *layoutBase) registerCommon(next, previous func()) {
	l.cmds = command.NewRegistry()
	l.cmds.Register("info", func(*command.Args) (any, error) {
		return l.self.Info(), nil
	}).Doc("Returns a dictionary of layout information.")
	l.cmds.Register("next", func(*command.Args) (any, error) {
		next()
		return nil, nil
	}).Doc("Focus the next window.")
	l.cmds.Register("previous", func(*command.Args) (any, error) {
		previous()
		return nil, nil
	}).Doc("Focus the previous window.")
}

// focusWindow moves group focus to w after a layout changed its current window.
func (l *layoutBase) focusWindow(w *Window) {
	if w != nil {
		l.group.focus(w)
	}
}

func windowIDs(ws []*Window) []command.Selector {
	out := make([]command.Selector, len(ws))
	for i, w := range ws {
		out[i] = command.Index(w.id)
	}
	return out
}

func windowNames(ws []*Window) []any {
	out := make([]any, len(ws))
	for i, w := range ws {
		out[i] = w.name
	}
	return out
}

func indexOf(ws []*Window, w *Window) int {
	for i, x := range ws {
		if x == w {
			return i
		}
	}
	return -1
}

func removeAt(ws []*Window, i int) []*Window {
	return append(ws[:i:i], ws[i+1:]...)
}

func insertAt(ws []*Window, i int, w *Window) []*Window {
	ws = append(ws, nil)
	copy(ws[i+1:], ws[i:])
	ws[i] = w
	return ws
}

// clientList is an ordered window list with a current position, shared by
// the layouts that focus one window at a time.
type clientList struct {
	clients []*Window
	current int
}

func (c *clientList) Add(w *Window) {
	c.clients = append(c.clients, w)
	c.current = len(c.clients) - 1
}

func (c *clientList) remove(w *Window) {
	i := indexOf(c.clients, w)
	if i < 0 {
		return
	}
	c.clients = removeAt(c.clients, i)
	if i < c.current || c.current >= len(c.clients) {
		c.current--
	}
	if c.current < 0 {
		c.current = 0
	}
}

func (c *clientList) Focus(w *Window) {
	if i := indexOf(c.clients, w); i >= 0 {
		c.current = i
	}
}

func (c *clientList) Current() *Window {
	if len(c.clients) == 0 {
		return nil
	}
	return c.clients[c.current]
}

func (c *clientList) Clients() []*Window { return c.clients }

// step moves the current position by delta, wrapping, and returns the new
// current window.
func (c *clientList) step(delta int) *Window {
	n := len(c.clients)
	if n == 0 {
		return nil
	}
	c.current = ((c.current+delta)%n + n) % n
	return c.clients[c.current]
}
