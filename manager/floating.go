package manager

// Floating leaves windows where they ask to be. Each group keeps one for its
// floating windows; it can also be configured as a regular layout, in which
// case every window of the group floats in place.
type Floating struct {
	layoutBase
	clientList
}

func newFloating(name string, g *Group) *Floating {
	l := &Floating{}
	l.name, l.group, l.self = name, g, l
	l.registerCommon(l.next, l.previous)
	return l
}

func (l *Floating) Remove(w *Window) *Window {
	l.remove(w)
	return l.Current()
}

// Arrange keeps every window at its own geometry. Windows without one are
// centred at half the size of area.
func (l *Floating) Arrange(area Rect) map[*Window]Rect {
	out := make(map[*Window]Rect)
	for _, w := range l.clients {
		r := w.float
		if r.Width == 0 || r.Height == 0 {
			r.Width, r.Height = area.Width/2, area.Height/2
			r.X = area.X + (area.Width-r.Width)/2
			r.Y = area.Y + (area.Height-r.Height)/2
			w.float = r
		}
		out[w] = r
	}
	return out
}

func (l *Floating) Info() map[string]any { return l.baseInfo() }

func (l *Floating) next()     { l.focusWindow(l.step(1)) }
func (l *Floating) previous() { l.focusWindow(l.step(-1)) }
