package manager

import (
	"lavinder/command"
	"lavinder/config"
	"lavinder/log"
)

// Group is a named set of windows shown on at most one screen at a time.
type Group struct {
	m     *Manager
	name  string
	label string

	layouts   []Layout
	layoutIdx int
	floating  *Floating

	windows []*Window
	current *Window
	screen  *Screen

	cmds *command.Registry
}

func newGroup(m *Manager, gc config.GroupConfig, layouts []config.LayoutConfig) (*Group, error) {
	g := &Group{m: m, name: gc.Name, label: gc.Label}
	for _, lc := range layouts {
		l, err := newLayout(lc, g)
		if err != nil {
			return nil, err
		}
		g.layouts = append(g.layouts, l)
		if gc.Layout != "" && lc.LayoutName() == gc.Layout {
			g.layoutIdx = len(g.layouts) - 1
		}
	}
	name := m.cfg.FloatingLayout.LayoutName()
	if name == "" {
		name = "floating"
	}
	g.floating = newFloating(name, g)
	g.cmds = g.registry()
	return g, nil
}

// Name returns the group name.
func (g *Group) Name() string { return g.name }

// Layout returns the current layout.
func (g *Group) Layout() Layout { return g.layouts[g.layoutIdx] }

func (g *Group) Commands() *command.Registry { return g.cmds }

func (g *Group) layoutIndexes() []command.Selector {
	out := make([]command.Selector, len(g.layouts))
	for i := range g.layouts {
		out[i] = command.Index(i)
	}
	return out
}

func (g *Group) selectLayout(sel command.Selector) command.Object {
	if sel.IsNone() {
		return g.Layout()
	}
	if i, ok := sel.AsIndex(); ok && i >= 0 && i < len(g.layouts) {
		return g.layouts[i]
	}
	return nil
}

func (g *Group) selectWindow(sel command.Selector) command.Object {
	if sel.IsNone() {
		if g.current == nil {
			return nil
		}
		return g.current
	}
	id, _ := sel.AsIndex()
	for _, w := range g.windows {
		if w.id == id {
			return w
		}
	}
	return nil
}

func (g *Group) Items(c command.Category) (command.ItemList, bool) {
	switch c {
	case command.Layout:
		return command.ItemList{RootOK: true, Selectors: g.layoutIndexes()}, true
	case command.Window:
		return command.ItemList{RootOK: true, Selectors: windowIDs(g.windows)}, true
	case command.Screen:
		return command.ItemList{RootOK: true}, true
	}
	return command.ItemList{}, false
}

func (g *Group) Select(c command.Category, sel command.Selector) command.Object {
	switch c {
	case command.Layout:
		return g.selectLayout(sel)
	case command.Window:
		return g.selectWindow(sel)
	case command.Screen:
		if g.screen == nil {
			return nil
		}
		return g.screen
	}
	return nil
}

// attach adds w to the layouts that place it.
func (g *Group) attach(w *Window) {
	if w.floating {
		g.floating.Add(w)
		return
	}
	for _, l := range g.layouts {
		l.Add(w)
	}
}

// detach removes w from its layouts and returns the window the current
// layout would focus next.
func (g *Group) detach(w *Window) *Window {
	if w.floating {
		return g.floating.Remove(w)
	}
	var next *Window
	for i, l := range g.layouts {
		n := l.Remove(w)
		if i == g.layoutIdx {
			next = n
		}
	}
	return next
}

// add takes ownership of w and focuses it.
func (g *Group) add(w *Window) {
	w.group = g
	g.windows = append(g.windows, w)
	g.attach(w)
	g.focus(w)
}

// remove drops w from the group. If w had focus, focus moves to the window
// the current layout picks, or to a floating window.
func (g *Group) remove(w *Window) {
	i := indexOf(g.windows, w)
	if i < 0 {
		return
	}
	g.windows = removeAt(g.windows, i)
	next := g.detach(w)
	w.group = nil
	if g.current == w {
		g.current = nil
		if next == nil {
			next = g.floating.Current()
		}
		if next == nil {
			next = g.Layout().Current()
		}
		g.focus(next)
	}
	g.layoutAll()
}

// focus makes w the group's current window and re-arranges the group, since
// layouts may show only their current window. A nil w clears focus.
func (g *Group) focus(w *Window) {
	if w != nil && w.group != g {
		return
	}
	g.current = w
	if w != nil {
		if w.floating {
			g.floating.Focus(w)
		} else {
			g.Layout().Focus(w)
		}
	}
	g.layoutAll()
	g.m.focusChanged(g)
}

// layoutAll places every window of the group, or hides them all when the
// group is not shown.
func (g *Group) layoutAll() {
	be := g.m.backend
	if g.screen == nil {
		for _, w := range g.windows {
			if err := be.Hide(w.id); err != nil {
				log.ErrorLog.Printf("hide window %d: %v", w.id, err)
			}
		}
		return
	}
	area := g.screen.usable()
	placed := g.Layout().Arrange(area)
	for w, r := range g.floating.Arrange(area) {
		placed[w] = r
	}
	for _, w := range g.windows {
		r, ok := placed[w]
		switch {
		case w.minimized:
			ok = false
		case w.fullscreen:
			r, ok = g.screen.geom, true
		case w.maximized:
			r, ok = area, true
		}
		var err error
		if ok {
			w.geom = r
			err = be.Place(w.id, r)
		} else {
			err = be.Hide(w.id)
		}
		if err != nil {
			log.ErrorLog.Printf("place window %d: %v", w.id, err)
		}
	}
}

// setLayout switches to layout i and keeps the focused window current.
func (g *Group) setLayout(i int) {
	g.layoutIdx = i
	if g.current != nil && !g.current.floating {
		g.Layout().Focus(g.current)
	}
	g.layoutAll()
}

// cycleWindow moves focus through the group's windows in the order they
// were added.
func (g *Group) cycleWindow(delta int) {
	n := len(g.windows)
	if n == 0 {
		return
	}
	i := indexOf(g.windows, g.current)
	if i < 0 {
		i = 0
	} else {
		i = ((i+delta)%n + n) % n
	}
	g.focus(g.windows[i])
}

func (g *Group) info() map[string]any {
	var focus, screen any
	if g.current != nil {
		focus = g.current.name
	}
	if g.screen != nil {
		screen = g.screen.index
	}
	layouts := make([]any, len(g.layouts))
	for i, l := range g.layouts {
		layouts[i] = l.Name()
	}
	return map[string]any{
		"name":          g.name,
		"label":         g.label,
		"focus":         focus,
		"windows":       windowNames(g.windows),
		"layout":        g.Layout().Name(),
		"layouts":       layouts,
		"floating_info": g.floating.Info(),
		"screen":        screen,
	}
}

func (g *Group) registry() *command.Registry {
	r := command.NewRegistry()
	r.Register("info", func(*command.Args) (any, error) {
		return g.info(), nil
	}).Doc("Returns a dictionary of info for this group.")
	r.Register("toscreen", func(a *command.Args) (any, error) {
		s := g.m.screen()
		if a.Has("screen") && a.Value("screen") != nil {
			i := a.Int("screen")
			if i < 0 || i >= len(g.m.screens) {
				return nil, command.Errorf("No such screen: %d", i)
			}
			s = g.m.screens[i]
		}
		if s.group == g {
			if a.Bool("toggle") {
				s.toggleGroup(nil)
			}
			return nil, nil
		}
		s.setGroup(g)
		return nil, nil
	}).OptArg("screen", command.IntKind, nil).OptArg("toggle", command.BoolKind, false).
		Doc("Pull a group to a specified screen.\n\nWithout a screen the current " +
			"screen is used. With toggle, pulling the group already shown switches " +
			"the screen back to its previous group.")
	r.Register("setlayout", func(a *command.Args) (any, error) {
		name := a.String("layout")
		for i, l := range g.layouts {
			if l.Name() == name {
				g.setLayout(i)
				return nil, nil
			}
		}
		return nil, command.Errorf("No such layout: %s", name)
	}).Arg("layout", command.StringKind).Doc("Switch to the layout with the given name.")
	r.Register("next_window", func(*command.Args) (any, error) {
		g.cycleWindow(1)
		return nil, nil
	}).Doc("Focus the next window in group.")
	r.Register("prev_window", func(*command.Args) (any, error) {
		g.cycleWindow(-1)
		return nil, nil
	}).Doc("Focus the previous window in group.")
	r.Register("set_label", func(a *command.Args) (any, error) {
		g.label = a.String("label")
		return nil, nil
	}).Arg("label", command.StringKind).Doc("Set the display name of the group.")
	return r
}
