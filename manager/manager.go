// Package manager holds the live object graph of the window manager and the
// loop that owns it. Every mutation of the graph, whether from a client
// request, a key binding or a backend event, runs on the loop goroutine.
package manager

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"lavinder/command"
	"lavinder/config"
	"lavinder/keys"
	"lavinder/log"
)

var (
	// ErrStopped is returned by Post once the loop has exited.
	ErrStopped = errors.New("manager loop stopped")
	// ErrRestart is returned by Run when the restart command was called.
	ErrRestart = errors.New("restart requested")
)

// Hooks connects manager commands to the process around it. Nil hooks make
// the corresponding command a command error.
type Hooks struct {
	// Reload returns a freshly loaded configuration.
	Reload func() (*config.Config, error)
	// Spawn starts a program and returns its pid.
	Spawn func(cmd string) (int, error)
}

// Options configure a Manager.
type Options struct {
	Display    string
	SocketPath string
	ConfigPath string
	Hooks      Hooks
	// NoSpawn skips the autostart commands, as after a restart.
	NoSpawn bool
	// Now replaces the clock, for tests.
	Now func() time.Time
}

// Manager is the root of the object graph.
type Manager struct {
	cfg     *config.Config
	opts    Options
	backend Backend

	screens       []*Screen
	currentScreen int
	groups        []*Group
	windows       map[int]*Window
	widgets       map[string]*Widget
	keys          *keys.Table
	drag          *dragState

	dispatcher *command.Dispatcher
	call       command.CallFunc
	cmds       *command.Registry

	calls chan func()
	done  chan struct{}
	quit  error
}

type dragState struct {
	binding *keys.Mouse
	start   []any
	x, y    int
}

// New builds the object graph from cfg over backend.
func New(cfg *config.Config, backend Backend, opts Options) (*Manager, error) {
	m := &Manager{
		cfg:     cfg,
		opts:    opts,
		backend: backend,
		windows: make(map[int]*Window),
		widgets: make(map[string]*Widget),
		calls:   make(chan func()),
		done:    make(chan struct{}),
	}
	if m.opts.Now == nil {
		m.opts.Now = time.Now
	}

	for _, gc := range cfg.Groups {
		if _, err := m.addGroup(gc); err != nil {
			return nil, err
		}
	}
	if err := m.setupScreens(); err != nil {
		return nil, err
	}
	table, err := keys.FromConfig(cfg)
	if err != nil {
		return nil, err
	}
	if err := m.setKeys(table); err != nil {
		return nil, err
	}

	m.cmds = m.registry()
	m.dispatcher = command.NewDispatcher(m)
	m.call = command.LocalCaller(m.dispatcher)
	return m, nil
}

func (m *Manager) setupScreens() error {
	rects, err := m.backend.Screens()
	if err != nil {
		return fmt.Errorf("failed to query screens: %w", err)
	}
	if len(rects) == 0 {
		return errors.New("backend reported no screens")
	}
	if len(m.groups) < len(rects) {
		return fmt.Errorf("%d screens need at least as many groups, have %d", len(rects), len(m.groups))
	}
	for i, r := range rects {
		s := newScreen(m, i, r)
		if i < len(m.cfg.Screens) {
			bars := m.cfg.Screens[i].Bars()
			for _, pos := range []string{"top", "bottom", "left", "right"} {
				bc, ok := bars[pos]
				if !ok {
					continue
				}
				b := newBar(s, pos, bc)
				for _, wc := range bc.Widgets {
					w := newWidget(m, b, m.widgetName(wc), wc)
					b.widgets = append(b.widgets, w)
					m.widgets[w.name] = w
				}
				s.bars[pos] = b
			}
		}
		m.screens = append(m.screens, s)
		s.setGroup(m.groups[i])
	}
	return nil
}

// widgetName returns a unique name for a widget: its configured name or its
// type, suffixed with a counter when taken.
func (m *Manager) widgetName(wc config.WidgetConfig) string {
	name := wc.Name
	if name == "" {
		name = wc.Type
	}
	if _, taken := m.widgets[name]; !taken {
		return name
	}
	for i := 1; ; i++ {
		n := fmt.Sprintf("%s_%d", name, i)
		if _, taken := m.widgets[n]; !taken {
			log.WarningLog.Printf("duplicate widget name %q, using %q", name, n)
			return n
		}
	}
}

func (m *Manager) addGroup(gc config.GroupConfig) (*Group, error) {
	if m.groupByName(gc.Name) != nil {
		return nil, fmt.Errorf("duplicate group %q", gc.Name)
	}
	g, err := newGroup(m, gc, m.cfg.Layouts)
	if err != nil {
		return nil, err
	}
	m.groups = append(m.groups, g)
	return g, nil
}

func (m *Manager) setKeys(t *keys.Table) error {
	var kc []KeyChord
	for _, k := range t.Keys() {
		kc = append(kc, KeyChord{Mask: k.Mask, Key: k.Key})
	}
	var bc []ButtonChord
	for _, b := range t.Mouse() {
		bc = append(bc, ButtonChord{Mask: b.Mask, Button: b.Button})
	}
	if err := m.backend.GrabKeys(kc, bc); err != nil {
		return fmt.Errorf("failed to grab keys: %w", err)
	}
	m.keys = t
	return nil
}

// Dispatcher returns the dispatcher over the graph. It must only be used on
// the loop goroutine, or before Run.
func (m *Manager) Dispatcher() *command.Dispatcher { return m.dispatcher }

// Config returns the configuration in use.
func (m *Manager) Config() *config.Config { return m.cfg }

func (m *Manager) Commands() *command.Registry { return m.cmds }

func (m *Manager) now() time.Time { return m.opts.Now() }

func (m *Manager) screen() *Screen { return m.screens[m.currentScreen] }

func (m *Manager) currentGroup() *Group { return m.screen().group }

func (m *Manager) currentWindow() *Window { return m.currentGroup().current }

func (m *Manager) groupByName(name string) *Group {
	for _, g := range m.groups {
		if g.name == name {
			return g
		}
	}
	return nil
}

// CurrentLayoutName implements command.FocusState.
func (m *Manager) CurrentLayoutName() string { return m.currentGroup().Layout().Name() }

// CurrentWindowFloating implements command.FocusState.
func (m *Manager) CurrentWindowFloating() (floating, ok bool) {
	w := m.currentWindow()
	if w == nil {
		return false, false
	}
	return w.floating, true
}

// focusChanged gives input focus to the current window of g when g is the
// current group.
func (m *Manager) focusChanged(g *Group) {
	if g != m.currentGroup() {
		return
	}
	id := 0
	if g.current != nil {
		id = g.current.id
	}
	if err := m.backend.Focus(id); err != nil {
		log.ErrorLog.Printf("focus window %d: %v", id, err)
	}
}

func (m *Manager) focusScreen(i int) {
	if i == m.currentScreen {
		return
	}
	m.currentScreen = i
	m.focusChanged(m.currentGroup())
}

func (m *Manager) moveToGroup(w *Window, g *Group) {
	if old := w.group; old != nil {
		old.remove(w)
	}
	g.add(w)
}

// Items implements command.Object for the root.
func (m *Manager) Items(c command.Category) (command.ItemList, bool) {
	switch c {
	case command.Group:
		names := make([]string, len(m.groups))
		for i, g := range m.groups {
			names[i] = g.name
		}
		return command.ItemList{RootOK: true, Selectors: command.Names(names...)}, true
	case command.Layout:
		return command.ItemList{RootOK: true, Selectors: m.currentGroup().layoutIndexes()}, true
	case command.Widget:
		names := make([]string, 0, len(m.widgets))
		for n := range m.widgets {
			names = append(names, n)
		}
		sort.Strings(names)
		return command.ItemList{RootOK: false, Selectors: command.Names(names...)}, true
	case command.Bar:
		return command.ItemList{RootOK: false, Selectors: m.screen().barPositions()}, true
	case command.Window:
		ids := make([]int, 0, len(m.windows))
		for id := range m.windows {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		return command.ItemList{RootOK: true, Selectors: command.Indexes(ids...)}, true
	case command.Screen:
		idx := make([]int, len(m.screens))
		for i := range m.screens {
			idx[i] = i
		}
		return command.ItemList{RootOK: true, Selectors: command.Indexes(idx...)}, true
	}
	return command.ItemList{}, false
}

// Select implements command.Object for the root.
func (m *Manager) Select(c command.Category, sel command.Selector) command.Object {
	switch c {
	case command.Group:
		if sel.IsNone() {
			return m.currentGroup()
		}
		name, _ := sel.AsName()
		if g := m.groupByName(name); g != nil {
			return g
		}
	case command.Layout:
		return m.currentGroup().selectLayout(sel)
	case command.Widget:
		name, _ := sel.AsName()
		if w, ok := m.widgets[name]; ok {
			return w
		}
	case command.Bar:
		return m.screen().Select(command.Bar, sel)
	case command.Window:
		if sel.IsNone() {
			if w := m.currentWindow(); w != nil {
				return w
			}
			return nil
		}
		id, _ := sel.AsIndex()
		if w, ok := m.windows[id]; ok {
			return w
		}
	case command.Screen:
		if sel.IsNone() {
			return m.screen()
		}
		if i, ok := sel.AsIndex(); ok && i >= 0 && i < len(m.screens) {
			return m.screens[i]
		}
	}
	return nil
}

// Post runs fn on the loop goroutine. It fails once the loop has exited.
func (m *Manager) Post(fn func()) error {
	select {
	case m.calls <- fn:
		return nil
	case <-m.done:
		return ErrStopped
	}
}

// Handle dispatches req on the loop goroutine and waits for the outcome. It
// is the handler the ipc server runs for every request.
func (m *Manager) Handle(req command.Request) command.Outcome {
	ch := make(chan command.Outcome, 1)
	if err := m.Post(func() { ch <- m.dispatcher.Call(req) }); err != nil {
		return command.Outcome{Status: command.Error, Value: "The manager is shutting down."}
	}
	select {
	case out := <-ch:
		return out
	case <-m.done:
		select {
		case out := <-ch:
			return out
		default:
		}
		return command.Outcome{Status: command.Error, Value: "The manager is shutting down."}
	}
}

// Run serves posted calls and backend events until ctx is done, the shutdown
// or restart command is called, or the backend goes away. It returns nil on
// shutdown and ErrRestart on restart.
func (m *Manager) Run(ctx context.Context) error {
	defer close(m.done)
	if !m.opts.NoSpawn {
		for _, cmd := range m.cfg.Autostart {
			m.spawn(cmd)
		}
	}
	events := m.backend.Events()
	for m.quit == nil {
		select {
		case <-ctx.Done():
			return nil
		case fn := <-m.calls:
			fn()
		case ev, ok := <-events:
			if !ok {
				return errors.New("display connection lost")
			}
			m.HandleEvent(ev)
		}
	}
	if errors.Is(m.quit, errStopRequested) {
		return nil
	}
	return m.quit
}

var errStopRequested = errors.New("shutdown requested")

// HandleEvent applies a backend event to the graph. Run calls it for every
// event; tests call it directly.
func (m *Manager) HandleEvent(ev Event) {
	switch e := ev.(type) {
	case MapRequest:
		m.manage(e)
	case Destroyed:
		m.unmanage(e.ID)
	case NameChanged:
		if w, ok := m.windows[e.ID]; ok {
			w.name = e.Name
		}
	case KeyPress:
		if k, ok := m.keys.LookupMask(e.Mask, e.Key); ok {
			m.runBinding(k.Commands)
		}
	case ButtonPress:
		m.buttonPress(e)
	case Motion:
		m.motion(e)
	case ButtonRelease:
		m.drag = nil
	case EnterNotify:
		if !m.cfg.FollowMouseFocus {
			return
		}
		if w, ok := m.windows[e.ID]; ok && w.group != nil {
			if s := w.group.screen; s != nil {
				m.focusScreen(s.index)
			}
			w.group.focus(w)
		}
	case ScreenChange:
		m.screenChange()
	}
}

func (m *Manager) manage(e MapRequest) {
	if _, ok := m.windows[e.ID]; ok {
		return
	}
	w := newWindow(m, e)
	m.windows[w.id] = w
	if m.cfg.AutoFullscreen && e.Geometry.Width >= m.screen().geom.Width &&
		e.Geometry.Height >= m.screen().geom.Height {
		w.fullscreen = true
	}
	log.DebugLog.Printf("managing window %d %q", w.id, w.name)
	m.currentGroup().add(w)
}

func (m *Manager) unmanage(id int) {
	w, ok := m.windows[id]
	if !ok {
		return
	}
	delete(m.windows, id)
	if w.group != nil {
		w.group.remove(w)
	}
	log.DebugLog.Printf("unmanaged window %d", id)
}

// screenChange re-reads the screen geometry. Screens that went away are
// dropped and their groups hidden. A new screen takes a hidden group; outputs
// beyond the number of hidden groups are ignored.
func (m *Manager) screenChange() {
	rects, err := m.backend.Screens()
	if err != nil || len(rects) == 0 {
		log.ErrorLog.Printf("failed to query screens: %v", err)
		return
	}
	for i, r := range rects {
		if i < len(m.screens) {
			m.screens[i].geom = r
			continue
		}
		g := m.hiddenGroup()
		if g == nil {
			log.WarningLog.Printf("no free group for screen %d, ignoring %d new screens", i, len(rects)-i)
			break
		}
		s := newScreen(m, i, r)
		m.screens = append(m.screens, s)
		s.setGroup(g)
	}
	if len(rects) < len(m.screens) {
		for _, s := range m.screens[len(rects):] {
			s.group.screen = nil
			s.group.layoutAll()
		}
		m.screens = m.screens[:len(rects)]
	}
	if m.currentScreen >= len(m.screens) {
		m.currentScreen = 0
	}
	for _, s := range m.screens {
		s.group.layoutAll()
	}
}

// hiddenGroup returns the first group not shown on any screen.
func (m *Manager) hiddenGroup() *Group {
	for _, g := range m.groups {
		if g.screen == nil {
			return g
		}
	}
	return nil
}

// runBinding invokes the calls of a binding whose guards pass. Errors are
// logged; a binding never stops the loop.
func (m *Manager) runBinding(calls []*command.LazyCall) {
	for _, lc := range calls {
		if !lc.Check(m) {
			continue
		}
		if _, err := lc.Invoke(m.call); err != nil {
			log.ErrorLog.Printf("binding %s: %v", lc.Request, err)
		}
	}
}

func (m *Manager) buttonPress(e ButtonPress) {
	if w, ok := m.windows[e.ID]; ok && w.group != nil {
		w.group.focus(w)
		if m.cfg.BringFrontClick {
			if err := m.backend.Raise(w.id); err != nil {
				log.ErrorLog.Printf("raise window %d: %v", w.id, err)
			}
		}
	}
	for _, b := range m.keys.Mouse() {
		if b.Mask != e.Mask || b.Button != e.Button {
			continue
		}
		if !b.Drag {
			m.runBinding(b.Commands)
			continue
		}
		var start []any
		if b.Start != nil {
			v, err := b.Start.Invoke(m.call)
			if err != nil {
				log.ErrorLog.Printf("drag start %s: %v", b.Start.Request, err)
				continue
			}
			start, _ = v.([]any)
		}
		m.drag = &dragState{binding: b, start: start, x: e.X, y: e.Y}
	}
}

// motion calls the drag commands with the start values moved by the pointer
// offset.
func (m *Manager) motion(e Motion) {
	d := m.drag
	if d == nil {
		return
	}
	delta := []int{e.X - d.x, e.Y - d.y}
	var args []any
	for i, v := range d.start {
		n, ok := v.(int)
		if !ok || i >= len(delta) {
			args = append(args, v)
			continue
		}
		args = append(args, n+delta[i])
	}
	for _, lc := range d.binding.Commands {
		req := lc.Request
		req.Args = append(append([]any{}, req.Args...), args...)
		if _, err := m.call(req); err != nil {
			log.ErrorLog.Printf("drag %s: %v", req, err)
		}
	}
}

// ReloadConfig switches to cfg: key bindings and behaviour flags are
// replaced and groups missing from the running graph are added. New groups
// are only added once the key bindings were grabbed; on error nothing changes.
func (m *Manager) ReloadConfig(cfg *config.Config) error {
	table, err := keys.FromConfig(cfg)
	if err != nil {
		return err
	}
	old := m.cfg
	m.cfg = cfg
	var added []*Group
	seen := make(map[string]bool)
	for _, gc := range cfg.Groups {
		if seen[gc.Name] || m.groupByName(gc.Name) != nil {
			continue
		}
		seen[gc.Name] = true
		g, err := newGroup(m, gc, cfg.Layouts)
		if err != nil {
			m.cfg = old
			return fmt.Errorf("group %q: %w", gc.Name, err)
		}
		added = append(added, g)
	}
	if err := m.setKeys(table); err != nil {
		m.cfg = old
		return err
	}
	m.groups = append(m.groups, added...)
	if lvl, err := log.ParseLevel(cfg.LogConfig().Level); err == nil {
		log.SetLevel(lvl)
	}
	log.InfoLog.Printf("configuration reloaded")
	return nil
}
