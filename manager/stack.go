package manager

import "lavinder/command"

// winStack is one column of the stack layout. New windows are inserted at the
// current position and become current.
type winStack struct {
	clients []*Window
	current int
	split   bool
}

func (s *winStack) empty() bool { return len(s.clients) == 0 }

// cw returns the current window of the stack.
func (s *winStack) cw() *Window {
	if s.empty() {
		return nil
	}
	return s.clients[s.current]
}

func (s *winStack) setCurrent(i int) {
	if s.empty() {
		s.current = 0
		return
	}
	n := len(s.clients)
	s.current = ((i % n) + n) % n
}

func (s *winStack) add(w *Window) {
	s.clients = insertAt(s.clients, s.current, w)
}

func (s *winStack) remove(w *Window) bool {
	i := indexOf(s.clients, w)
	if i < 0 {
		return false
	}
	s.clients = removeAt(s.clients, i)
	if i < s.current {
		s.current--
	}
	if s.current >= len(s.clients) {
		s.current = 0
	}
	return true
}

func (s *winStack) focus(w *Window) bool {
	i := indexOf(s.clients, w)
	if i < 0 {
		return false
	}
	s.current = i
	return true
}

// join inserts the windows of o at position i.
func (s *winStack) join(o *winStack, i int) {
	if i > len(s.clients) {
		i = len(s.clients)
	}
	joined := append([]*Window{}, s.clients[:i]...)
	joined = append(joined, o.clients...)
	s.clients = append(joined, s.clients[i:]...)
}

// shuffleUp moves the last window to the front, keeping the current window
// current.
func (s *winStack) shuffleUp() {
	if len(s.clients) < 2 {
		return
	}
	last := s.clients[len(s.clients)-1]
	s.clients = insertAt(s.clients[:len(s.clients)-1], 0, last)
	s.setCurrent(s.current + 1)
}

// shuffleDown moves the first window to the back, keeping the current window
// current.
func (s *winStack) shuffleDown() {
	if len(s.clients) < 2 {
		return
	}
	first := s.clients[0]
	s.clients = append(s.clients[1:], first)
	s.setCurrent(s.current - 1)
}

func (s *winStack) info(group string) map[string]any {
	return map[string]any{
		"clients": windowNames(s.clients),
		"group":   group,
		"current": s.current,
		"split":   s.split,
	}
}

// Stack divides the screen into equal columns, each showing its current
// window, or all of its windows stacked vertically when split.
type Stack struct {
	layoutBase
	stacks  []*winStack
	current int
}

func newStack(name string, n int, g *Group) *Stack {
	l := &Stack{}
	l.name, l.group, l.self = name, g, l
	for i := 0; i < n; i++ {
		l.stacks = append(l.stacks, &winStack{})
	}
	l.registerCommon(l.next, l.previous)
	l.registerCommands()
	return l
}

func (l *Stack) currentStack() *winStack { return l.stacks[l.current] }

func (l *Stack) Add(w *Window) {
	for i, s := range l.stacks {
		if s.empty() {
			s.add(w)
			l.current = i
			return
		}
	}
	l.currentStack().add(w)
}

func (l *Stack) Remove(w *Window) *Window {
	for _, s := range l.stacks {
		if s.remove(w) {
			break
		}
	}
	if cw := l.currentStack().cw(); cw != nil {
		return cw
	}
	if i, ok := l.findPrevious(l.current); ok {
		l.current = i
		return l.stacks[i].cw()
	}
	return nil
}

func (l *Stack) Focus(w *Window) {
	for i, s := range l.stacks {
		if s.focus(w) {
			l.current = i
			return
		}
	}
}

func (l *Stack) Current() *Window { return l.currentStack().cw() }

func (l *Stack) Clients() []*Window {
	var out []*Window
	for _, s := range l.stacks {
		out = append(out, s.clients...)
	}
	return out
}

func (l *Stack) Arrange(area Rect) map[*Window]Rect {
	out := make(map[*Window]Rect)
	var used []*winStack
	for _, s := range l.stacks {
		if !s.empty() {
			used = append(used, s)
		}
	}
	if len(used) == 0 {
		return out
	}
	width := area.Width / len(used)
	for i, s := range used {
		col := Rect{X: area.X + i*width, Y: area.Y, Width: width, Height: area.Height}
		if i == len(used)-1 {
			col.Width = area.Width - i*width
		}
		if !s.split {
			out[s.cw()] = col
			continue
		}
		height := col.Height / len(s.clients)
		for j, w := range s.clients {
			out[w] = Rect{X: col.X, Y: col.Y + j*height, Width: col.Width, Height: height}
		}
	}
	return out
}

func (l *Stack) Info() map[string]any {
	info := l.baseInfo()
	stacks := make([]any, len(l.stacks))
	for i, s := range l.stacks {
		stacks[i] = s.info(l.group.name)
	}
	info["stacks"] = stacks
	info["current_stack"] = l.current
	return info
}

// findNext returns the first non-empty stack after i, wrapping.
func (l *Stack) findNext(i int) (int, bool) {
	n := len(l.stacks)
	for k := 1; k < n; k++ {
		j := (i + k) % n
		if !l.stacks[j].empty() {
			return j, true
		}
	}
	return 0, false
}

// findPrevious returns the first non-empty stack before i, wrapping.
func (l *Stack) findPrevious(i int) (int, bool) {
	n := len(l.stacks)
	for k := 1; k < n; k++ {
		j := ((i-k)%n + n) % n
		if !l.stacks[j].empty() {
			return j, true
		}
	}
	return 0, false
}

func (l *Stack) next() {
	if i, ok := l.findNext(l.current); ok {
		l.current = i
		l.focusWindow(l.stacks[i].cw())
	}
}

func (l *Stack) previous() {
	if i, ok := l.findPrevious(l.current); ok {
		l.current = i
		l.focusWindow(l.stacks[i].cw())
	}
}

func (l *Stack) moveFocus(delta int) {
	s := l.currentStack()
	if s.empty() {
		return
	}
	s.setCurrent(s.current + delta)
	l.focusWindow(s.cw())
}

func (l *Stack) clientToStack(n int) {
	cur := l.currentStack()
	w := cur.cw()
	if w == nil {
		return
	}
	n = ((n % len(l.stacks)) + len(l.stacks)) % len(l.stacks)
	cur.remove(w)
	l.stacks[n].add(w)
	l.current = n
	l.focusWindow(w)
	l.group.layoutAll()
}

func (l *Stack) registerCommands() {
	r := l.cmds
	r.Register("down", func(*command.Args) (any, error) {
		l.moveFocus(-1)
		return nil, nil
	}).Doc("Switch to the next window in this stack.")
	r.Register("up", func(*command.Args) (any, error) {
		l.moveFocus(1)
		return nil, nil
	}).Doc("Switch to the previous window in this stack.")
	r.Register("shuffle_up", func(*command.Args) (any, error) {
		l.currentStack().shuffleUp()
		l.group.layoutAll()
		return nil, nil
	}).Doc("Shuffle the order of this stack up.")
	r.Register("shuffle_down", func(*command.Args) (any, error) {
		l.currentStack().shuffleDown()
		l.group.layoutAll()
		return nil, nil
	}).Doc("Shuffle the order of this stack down.")
	r.Register("toggle_split", func(*command.Args) (any, error) {
		s := l.currentStack()
		s.split = !s.split
		l.group.layoutAll()
		return nil, nil
	}).Doc("Toggle vertical split on the current stack.")
	r.Register("rotate", func(*command.Args) (any, error) {
		if len(l.stacks) > 1 {
			last := l.stacks[len(l.stacks)-1]
			l.stacks = append([]*winStack{last}, l.stacks[:len(l.stacks)-1]...)
			l.current = (l.current + 1) % len(l.stacks)
		}
		l.group.layoutAll()
		return nil, nil
	}).Doc("Rotate order of the stacks.")
	r.Register("add", func(*command.Args) (any, error) {
		l.stacks = append(l.stacks, &winStack{})
		l.group.layoutAll()
		return nil, nil
	}).Doc("Add another stack to the layout.")
	r.Register("delete", func(*command.Args) (any, error) {
		if len(l.stacks) < 2 {
			return nil, nil
		}
		gone := l.currentStack()
		l.stacks = append(l.stacks[:l.current:l.current], l.stacks[l.current+1:]...)
		if l.current >= len(l.stacks) {
			l.current = len(l.stacks) - 1
		}
		l.currentStack().join(gone, 1)
		l.focusWindow(l.currentStack().cw())
		l.group.layoutAll()
		return nil, nil
	}).Doc("Delete the current stack from the layout.")
	r.Register("client_to_next", func(*command.Args) (any, error) {
		l.clientToStack(l.current + 1)
		return nil, nil
	}).Doc("Send the current client to the next stack.")
	r.Register("client_to_previous", func(*command.Args) (any, error) {
		l.clientToStack(l.current - 1)
		return nil, nil
	}).Doc("Send the current client to the previous stack.")
	r.Register("client_to_stack", func(a *command.Args) (any, error) {
		n := a.Int("n")
		if n < 0 || n >= len(l.stacks) {
			return nil, command.Errorf("No such stack: %d", n)
		}
		l.clientToStack(n)
		return nil, nil
	}).Arg("n", command.IntKind).Doc("Send the current client to stack n, counting from zero.")
}
