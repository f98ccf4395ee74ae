package manager

import "lavinder/command"

// Max shows the current window over the whole area.
type Max struct {
	layoutBase
	clientList
}

func newMax(name string, g *Group) *Max {
	l := &Max{}
	l.name, l.group, l.self = name, g, l
	l.registerCommon(l.next, l.previous)
	l.cmds.Register("down", func(*command.Args) (any, error) {
		l.next()
		return nil, nil
	}).Doc("Focus the next window.")
	l.cmds.Register("up", func(*command.Args) (any, error) {
		l.previous()
		return nil, nil
	}).Doc("Focus the previous window.")
	return l
}

func (l *Max) Remove(w *Window) *Window {
	l.remove(w)
	return l.Current()
}

func (l *Max) Arrange(area Rect) map[*Window]Rect {
	out := make(map[*Window]Rect)
	if cur := l.Current(); cur != nil {
		out[cur] = area
	}
	return out
}

func (l *Max) Info() map[string]any { return l.baseInfo() }

func (l *Max) next()     { l.focusWindow(l.step(1)) }
func (l *Max) previous() { l.focusWindow(l.step(-1)) }
