package manager

import (
	"sort"

	"lavinder/command"
)

// Screen is a physical output showing one group.
type Screen struct {
	m        *Manager
	index    int
	geom     Rect
	group    *Group
	previous *Group
	bars     map[string]*Bar

	cmds *command.Registry
}

func newScreen(m *Manager, index int, geom Rect) *Screen {
	s := &Screen{m: m, index: index, geom: geom, bars: make(map[string]*Bar)}
	s.cmds = s.registry()
	return s
}

// Index returns the position of the screen.
func (s *Screen) Index() int { return s.index }

// Group returns the group shown on the screen.
func (s *Screen) Group() *Group { return s.group }

func (s *Screen) Commands() *command.Registry { return s.cmds }

// barPositions lists the bars of the screen, sorted.
func (s *Screen) barPositions() []command.Selector {
	pos := make([]string, 0, len(s.bars))
	for p := range s.bars {
		pos = append(pos, p)
	}
	sort.Strings(pos)
	return command.Names(pos...)
}

func (s *Screen) Items(c command.Category) (command.ItemList, bool) {
	switch c {
	case command.Layout:
		return command.ItemList{RootOK: true, Selectors: s.group.layoutIndexes()}, true
	case command.Window:
		return command.ItemList{RootOK: true, Selectors: windowIDs(s.group.windows)}, true
	case command.Bar:
		return command.ItemList{RootOK: false, Selectors: s.barPositions()}, true
	}
	return command.ItemList{}, false
}

func (s *Screen) Select(c command.Category, sel command.Selector) command.Object {
	switch c {
	case command.Layout:
		return s.group.selectLayout(sel)
	case command.Window:
		return s.group.selectWindow(sel)
	case command.Bar:
		name, _ := sel.AsName()
		if b, ok := s.bars[name]; ok {
			return b
		}
	}
	return nil
}

// usable is the screen area left over by the bars.
func (s *Screen) usable() Rect {
	r := s.geom
	if b, ok := s.bars["top"]; ok {
		r.Y += b.size
		r.Height -= b.size
	}
	if b, ok := s.bars["bottom"]; ok {
		r.Height -= b.size
	}
	if b, ok := s.bars["left"]; ok {
		r.X += b.size
		r.Width -= b.size
	}
	if b, ok := s.bars["right"]; ok {
		r.Width -= b.size
	}
	return r
}

// setGroup shows g on this screen. A group shown on another screen swaps
// places with this screen's group.
func (s *Screen) setGroup(g *Group) {
	old := s.group
	if g == nil || g == old {
		return
	}
	if other := g.screen; other != nil {
		other.group = old
		other.previous = g
		if old != nil {
			old.screen = other
		}
	} else if old != nil {
		old.screen = nil
	}
	s.previous = old
	s.group = g
	g.screen = s

	if old != nil {
		old.layoutAll()
	}
	g.layoutAll()
	if s.m.screen() == s {
		s.m.focusChanged(g)
	}
}

// toggleGroup switches to g, or back to the previous group when g is nil or
// already shown.
func (s *Screen) toggleGroup(g *Group) {
	if g == nil || g == s.group {
		g = s.previous
	}
	if g == nil {
		return
	}
	s.setGroup(g)
}

func (s *Screen) info() map[string]any {
	return map[string]any{
		"index":  s.index,
		"x":      s.geom.X,
		"y":      s.geom.Y,
		"width":  s.geom.Width,
		"height": s.geom.Height,
		"group":  s.group.name,
	}
}

func (s *Screen) cycleGroup(delta int) {
	groups := s.m.groups
	i := 0
	for j, g := range groups {
		if g == s.group {
			i = j
		}
	}
	n := len(groups)
	for k := 1; k < n; k++ {
		g := groups[((i+delta*k)%n+n)%n]
		if g.screen == nil {
			s.setGroup(g)
			return
		}
	}
}

func (s *Screen) registry() *command.Registry {
	r := command.NewRegistry()
	r.Register("info", func(*command.Args) (any, error) {
		return s.info(), nil
	}).Doc("Returns a dictionary of info for this screen.")
	r.Register("next_group", func(*command.Args) (any, error) {
		s.cycleGroup(1)
		return nil, nil
	}).Doc("Switch to the next group not shown on another screen.")
	r.Register("prev_group", func(*command.Args) (any, error) {
		s.cycleGroup(-1)
		return nil, nil
	}).Doc("Switch to the previous group not shown on another screen.")
	r.Register("toggle_group", func(a *command.Args) (any, error) {
		var g *Group
		if name := a.String("group_name"); name != "" {
			if g = s.m.groupByName(name); g == nil {
				return nil, command.Errorf("No such group: %s", name)
			}
		}
		s.toggleGroup(g)
		return nil, nil
	}).OptArg("group_name", command.StringKind, nil).
		Doc("Switch to the selected group or to the previously active one.")
	return r
}
