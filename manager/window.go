package manager

import (
	"lavinder/command"
)

// Window is a managed client window.
type Window struct {
	m     *Manager
	id    int
	name  string
	class string
	group *Group

	// geom is where the window was last placed; float is its own geometry
	// when floating.
	geom  Rect
	float Rect

	floating   bool
	fullscreen bool
	minimized  bool
	maximized  bool

	cmds *command.Registry
}

func newWindow(m *Manager, req MapRequest) *Window {
	w := &Window{
		m:        m,
		id:       req.ID,
		name:     req.Name,
		class:    req.Class,
		float:    req.Geometry,
		floating: req.Floating,
	}
	w.cmds = w.registry()
	return w
}

// ID returns the display server id of the window.
func (w *Window) ID() int { return w.id }

// Name returns the window title.
func (w *Window) Name() string { return w.name }

// Floating reports whether the window floats.
func (w *Window) Floating() bool { return w.floating }

func (w *Window) Commands() *command.Registry { return w.cmds }

func (w *Window) Items(c command.Category) (command.ItemList, bool) {
	switch c {
	case command.Group, command.Screen:
		return command.ItemList{RootOK: true}, true
	case command.Layout:
		if w.group == nil {
			return command.ItemList{RootOK: true, Selectors: []command.Selector{}}, true
		}
		return command.ItemList{RootOK: true, Selectors: w.group.layoutIndexes()}, true
	}
	return command.ItemList{}, false
}

func (w *Window) Select(c command.Category, sel command.Selector) command.Object {
	if w.group == nil {
		return nil
	}
	switch c {
	case command.Group:
		return w.group
	case command.Screen:
		if w.group.screen == nil {
			return nil
		}
		return w.group.screen
	case command.Layout:
		return w.group.selectLayout(sel)
	}
	return nil
}

func (w *Window) info() map[string]any {
	var group any
	if w.group != nil {
		group = w.group.name
	}
	return map[string]any{
		"name":       w.name,
		"id":         w.id,
		"x":          w.geom.X,
		"y":          w.geom.Y,
		"width":      w.geom.Width,
		"height":     w.geom.Height,
		"group":      group,
		"floating":   w.floating,
		"fullscreen": w.fullscreen,
		"minimized":  w.minimized,
		"maximized":  w.maximized,
		"float_info": map[string]any{
			"x": w.float.X, "y": w.float.Y, "width": w.float.Width, "height": w.float.Height,
		},
	}
}

// setFloating moves the window between the group's tiled layouts and its
// floating layout.
func (w *Window) setFloating(on bool) {
	if w.floating == on {
		return
	}
	g := w.group
	if g == nil {
		w.floating = on
		return
	}
	if on && w.float.Width == 0 {
		w.float = w.geom
	}
	focused := g.current == w
	g.detach(w)
	w.floating = on
	g.attach(w)
	if focused {
		g.focus(w)
	}
	g.layoutAll()
}

func (w *Window) toggleState(state *bool) {
	*state = !*state
	if w.group != nil {
		w.group.layoutAll()
	}
}

func (w *Window) registry() *command.Registry {
	r := command.NewRegistry()
	r.Register("info", func(*command.Args) (any, error) {
		return w.info(), nil
	}).Doc("Returns a dictionary of info for this object.")
	r.Register("inspect", func(*command.Args) (any, error) {
		info := w.info()
		info["class"] = w.class
		var layouts []any
		if w.group != nil {
			for _, l := range w.group.layouts {
				if indexOf(l.Clients(), w) >= 0 {
					layouts = append(layouts, l.Name())
				}
			}
		}
		info["layouts"] = layouts
		info["focused"] = w.group != nil && w.group.current == w
		return info, nil
	}).Doc("Tells you more than you ever wanted to know about a window.")
	r.Register("kill", func(*command.Args) (any, error) {
		return nil, w.m.backend.Kill(w.id)
	}).Doc("Kill this window.\n\nTry to do this nicely, if the window supports it.")
	r.Register("togroup", func(a *command.Args) (any, error) {
		name := a.String("group_name")
		var g *Group
		if name == "" {
			g = w.m.currentGroup()
		} else if g = w.m.groupByName(name); g == nil {
			return nil, command.Errorf("No such group: %s", name)
		}
		if g == w.group {
			return nil, nil
		}
		w.m.moveToGroup(w, g)
		if a.Bool("switch_group") {
			w.m.screen().setGroup(g)
		}
		return nil, nil
	}).OptArg("group_name", command.StringKind, nil).OptArg("switch_group", command.BoolKind, false).
		Doc("Move window to a specified group.\n\nIf group_name is not specified, " +
			"the window moves to the current group. With switch_group the " +
			"current screen switches to that group as well.")
	r.Register("focus", func(*command.Args) (any, error) {
		if w.group != nil {
			w.group.focus(w)
		}
		return nil, nil
	}).Doc("Focus this window.")
	r.Register("toggle_floating", func(*command.Args) (any, error) {
		w.setFloating(!w.floating)
		return nil, nil
	}).Doc("Toggle the floating state of this window.")
	r.Register("enable_floating", func(*command.Args) (any, error) {
		w.setFloating(true)
		return nil, nil
	}).Doc("Make this window float.")
	r.Register("disable_floating", func(*command.Args) (any, error) {
		w.setFloating(false)
		return nil, nil
	}).Doc("Return this window to the tiled layouts.")
	r.Register("toggle_fullscreen", func(*command.Args) (any, error) {
		w.toggleState(&w.fullscreen)
		return nil, nil
	}).Doc("Toggle the fullscreen state of this window.")
	r.Register("toggle_maximize", func(*command.Args) (any, error) {
		w.toggleState(&w.maximized)
		return nil, nil
	}).Doc("Toggle the maximized state of this window.")
	r.Register("toggle_minimize", func(*command.Args) (any, error) {
		w.toggleState(&w.minimized)
		return nil, nil
	}).Doc("Toggle the minimized state of this window.")
	r.Register("get_position", func(*command.Args) (any, error) {
		return []any{w.geom.X, w.geom.Y}, nil
	}).Doc("Returns the window position as [x, y].")
	r.Register("get_size", func(*command.Args) (any, error) {
		return []any{w.geom.Width, w.geom.Height}, nil
	}).Doc("Returns the window size as [width, height].")
	r.Register("set_position_floating", func(a *command.Args) (any, error) {
		w.float.X, w.float.Y = a.Int("x"), a.Int("y")
		if w.float.Width == 0 {
			w.float.Width, w.float.Height = w.geom.Width, w.geom.Height
		}
		w.setFloating(true)
		if w.group != nil {
			w.group.layoutAll()
		}
		return nil, nil
	}).Arg("x", command.IntKind).Arg("y", command.IntKind).
		Doc("Move the window to x, y and make it float.")
	r.Register("set_size_floating", func(a *command.Args) (any, error) {
		width, height := a.Int("w"), a.Int("h")
		if width <= 0 || height <= 0 {
			return nil, command.Errorf("Invalid size %dx%d", width, height)
		}
		if w.float.Width == 0 {
			w.float.X, w.float.Y = w.geom.X, w.geom.Y
		}
		w.float.Width, w.float.Height = width, height
		w.setFloating(true)
		if w.group != nil {
			w.group.layoutAll()
		}
		return nil, nil
	}).Arg("w", command.IntKind).Arg("h", command.IntKind).
		Doc("Resize the window to w x h and make it float.")
	r.Register("bring_to_front", func(*command.Args) (any, error) {
		return nil, w.m.backend.Raise(w.id)
	}).Doc("Raise this window above its siblings.")
	return r
}
