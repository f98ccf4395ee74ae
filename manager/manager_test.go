package manager

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lavinder/command"
	"lavinder/config"
)

// serverConfig has three groups over two screens, each with a bottom bar
// holding one textbox.
func serverConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Groups = []config.GroupConfig{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	cfg.Layouts = []config.LayoutConfig{
		{Type: "stack", Name: "stack1", NumStacks: 1},
		{Type: "stack", Name: "stack2", NumStacks: 2},
		{Type: "stack", Name: "stack3", NumStacks: 3},
	}
	cfg.Screens = []config.ScreenConfig{
		{Bottom: &config.BarConfig{Size: 20, Widgets: []config.WidgetConfig{{Type: "textbox", Name: "one"}}}},
		{Bottom: &config.BarConfig{Size: 20, Widgets: []config.WidgetConfig{{Type: "textbox", Name: "two"}}}},
	}
	cfg.Keys = nil
	cfg.Mouse = nil
	cfg.Autostart = nil
	return cfg
}

type harness struct {
	t       *testing.T
	m       *Manager
	backend *Headless
	root    command.Node
	nextID  int
}

func newHarness(t *testing.T, cfg *config.Config, screens ...Rect) *harness {
	t.Helper()
	be := NewHeadless(screens...)
	m, err := New(cfg, be, Options{Display: ":99", Now: func() time.Time {
		return time.Date(2024, 3, 5, 14, 7, 9, 0, time.UTC)
	}})
	require.NoError(t, err)
	return &harness{t: t, m: m, backend: be, root: command.Local(m.Dispatcher()), nextID: 100}
}

func twoScreens() []Rect {
	return []Rect{{Width: 800, Height: 600}, {X: 800, Width: 640, Height: 480}}
}

// window maps a new client window and returns its id.
func (h *harness) window(name string) int {
	h.nextID++
	h.m.HandleEvent(MapRequest{ID: h.nextID, Name: name, Geometry: Rect{Width: 100, Height: 100}})
	return h.nextID
}

func (h *harness) kill(id int) {
	h.m.HandleEvent(Destroyed{ID: id})
}

func (h *harness) call(n command.Node, name string, args ...any) any {
	h.t.Helper()
	v, err := n.Cmd(name).Call(args...)
	require.NoError(h.t, err, "%s", name)
	return v
}

func (h *harness) info(n command.Node) map[string]any {
	h.t.Helper()
	v, ok := h.call(n, "info").(map[string]any)
	require.True(h.t, ok)
	return v
}

func (h *harness) focus() any {
	return h.info(h.root.Group())["focus"]
}

func TestRootItems(t *testing.T) {
	h := newHarness(t, serverConfig(), twoScreens()...)

	tests := []struct {
		name string
		want []any
	}{
		{"layout", []any{true, []any{0, 1, 2}}},
		{"widget", []any{false, []any{"one", "two"}}},
		{"bar", []any{false, []any{"bottom"}}},
		{"screen", []any{true, []any{0, 1}}},
		{"group", []any{true, []any{"a", "b", "c"}}},
		{"window", []any{true, []any{}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, h.call(h.root, "items", tt.name))
		})
	}

	h.window("one")
	assert.Equal(t, []any{true, []any{101}}, h.call(h.root, "items", "window"))
	assert.Equal(t, []any{true, nil}, h.call(h.root.Group(), "items", "screen"))
}

func TestSelectors(t *testing.T) {
	h := newHarness(t, serverConfig(), twoScreens()...)

	failing := map[string]command.Command{
		"layout[99]":            h.root.Layout().At(99).Cmd("info"),
		"group[nonexistent]":    h.root.Group().At("nonexistent").Cmd("info"),
		"widget without name":   h.root.Widget().Cmd("info"),
		"bar without position":  h.root.Bar().Cmd("info"),
		"bar[top]":              h.root.Bar().At("top").Cmd("info"),
		"screen[22]":            h.root.Screen().At(22).Cmd("info"),
		"screen[foo]":           h.root.Screen().At("foo").Cmd("info"),
		"group[b].screen[0]":    h.root.Group().At("b").Screen().At(0).Cmd("info"),
		"group.window no focus": h.root.Group().Window().Cmd("info"),
		"window no focus":       h.root.Window().Cmd("info"),
	}
	for name, cmd := range failing {
		t.Run(name, func(t *testing.T) {
			_, err := cmd.Call()
			require.Error(t, err)
			var cerr *command.CommandError
			assert.ErrorAs(t, err, &cerr)
		})
	}

	assert.Equal(t, "bottom", h.info(h.root.Bar().At("bottom"))["position"])
	assert.Equal(t, 1, h.info(h.root.Group().At("b").Screen())["index"])
	assert.Equal(t, 0, h.info(h.root.Screen())["index"])
	assert.Equal(t, "stack3", h.info(h.root.Layout().At(2))["name"])
	assert.Equal(t, "one", h.info(h.root.Widget().At("one"))["name"])
	assert.Equal(t, 1, h.info(h.root.Widget().At("two").Screen())["index"])
	assert.Equal(t, "b", h.info(h.root.Widget().At("two").Group())["name"])
	assert.Equal(t, "bottom", h.info(h.root.Widget().At("two").Bar())["position"])
}

func TestWindowPaths(t *testing.T) {
	h := newHarness(t, serverConfig(), twoScreens()...)
	id := h.window("one")

	assert.Equal(t, "one", h.info(h.root.Window())["name"])
	assert.Equal(t, "one", h.info(h.root.Window().At(id))["name"])
	assert.Equal(t, "one", h.info(h.root.Group().Window())["name"])
	assert.Equal(t, "a", h.info(h.root.Window().Group())["name"])
	assert.Equal(t, 0, h.info(h.root.Window().Screen())["index"])
	assert.Equal(t, "stack2", h.info(h.root.Window().Layout().At(1))["name"])
	assert.Equal(t, "one", h.info(h.root.Layout().Window())["name"])

	_, err := h.root.Window().Group().At("a").Cmd("info").Call()
	assert.Error(t, err)
	_, err = h.root.Window().At(id + 1).Cmd("info").Call()
	assert.Error(t, err)
	_, err = h.root.Group().At("b").Window().Cmd("info").Call()
	assert.Error(t, err)
}

func TestHiddenGroupHasNoScreen(t *testing.T) {
	h := newHarness(t, serverConfig(), twoScreens()...)

	assert.Nil(t, h.info(h.root.Group().At("c"))["screen"])
	_, err := h.root.Group().At("c").Screen().Cmd("info").Call()
	assert.Error(t, err)
}

func TestGroupToScreen(t *testing.T) {
	h := newHarness(t, serverConfig(), twoScreens()...)
	id := h.window("one")

	h.call(h.root.Group().At("c"), "toscreen")
	assert.Equal(t, "c", h.info(h.root.Screen())["group"])
	_, shown := h.backend.Placement(id)
	assert.False(t, shown)

	// Pulling a group shown elsewhere swaps the two screens.
	h.call(h.root.Group().At("b"), "toscreen")
	assert.Equal(t, "b", h.info(h.root.Screen().At(0))["group"])
	assert.Equal(t, "c", h.info(h.root.Screen().At(1))["group"])

	_, err := h.root.Group().At("b").Cmd("toscreen").CallKw(map[string]any{"toggle": true})
	require.NoError(t, err)
	assert.Equal(t, "c", h.info(h.root.Screen().At(0))["group"])

	h.call(h.root.Screen(), "toggle_group", "a")
	assert.Equal(t, "a", h.info(h.root.Screen())["group"])
	r, shown := h.backend.Placement(id)
	assert.True(t, shown)
	assert.Equal(t, Rect{Width: 800, Height: 580}, r)
	assert.Equal(t, id, h.backend.Focused())

	_, err = h.root.Group().At("a").Cmd("toscreen").Call(5)
	assert.Error(t, err)
}

func TestScreenCycling(t *testing.T) {
	h := newHarness(t, serverConfig(), twoScreens()...)

	h.call(h.root.Screen(), "next_group")
	assert.Equal(t, "c", h.info(h.root.Screen())["group"])
	h.call(h.root.Screen(), "next_group")
	assert.Equal(t, "a", h.info(h.root.Screen())["group"])
	h.call(h.root.Screen(), "prev_group")
	assert.Equal(t, "c", h.info(h.root.Screen())["group"])

	h.call(h.root, "to_screen", 1)
	assert.Equal(t, 1, h.info(h.root.Screen())["index"])
	h.call(h.root, "next_screen")
	assert.Equal(t, 0, h.info(h.root.Screen())["index"])
	h.call(h.root, "prev_screen")
	assert.Equal(t, 1, h.info(h.root.Screen())["index"])
	_, err := h.root.Cmd("to_screen").Call(2)
	assert.Error(t, err)
}

func TestWindowCommands(t *testing.T) {
	h := newHarness(t, serverConfig(), twoScreens()...)
	one := h.window("one")
	two := h.window("two")
	w := h.root.Window().At(one)

	h.call(w, "togroup", "c")
	assert.Equal(t, "c", h.info(w)["group"])
	assert.Equal(t, []any{"two"}, h.info(h.root.Group().At("a"))["windows"])
	_, shown := h.backend.Placement(one)
	assert.False(t, shown)
	_, err := w.Cmd("togroup").Call("nope")
	assert.Error(t, err)

	h.call(w, "togroup", "a")
	h.call(w, "focus")
	assert.Equal(t, "one", h.focus())

	h.call(w, "set_position_floating", 10, 20)
	info := h.info(w)
	assert.Equal(t, true, info["floating"])
	assert.Equal(t, 10, info["x"])
	assert.Equal(t, 20, info["y"])
	h.call(w, "set_size_floating", 300, 200)
	assert.Equal(t, []any{300, 200}, h.call(w, "get_size"))
	assert.Equal(t, []any{10, 20}, h.call(w, "get_position"))
	_, err = w.Cmd("set_size_floating").Call(0, 10)
	assert.Error(t, err)

	h.call(w, "toggle_floating")
	assert.Equal(t, false, h.info(w)["floating"])
	assert.Equal(t, "one", h.focus())

	h.call(w, "toggle_fullscreen")
	r, _ := h.backend.Placement(one)
	assert.Equal(t, Rect{Width: 800, Height: 600}, r)
	h.call(w, "toggle_fullscreen")
	h.call(w, "toggle_minimize")
	_, shown = h.backend.Placement(one)
	assert.False(t, shown)

	inspect := h.call(w, "inspect").(map[string]any)
	assert.Equal(t, []any{"stack1", "stack2", "stack3"}, inspect["layouts"])
	assert.Equal(t, true, inspect["focused"])

	h.call(h.root.Window().At(two), "kill")
	ev := <-h.backend.Events()
	assert.Equal(t, Destroyed{ID: two}, ev)
	h.m.HandleEvent(ev)
	assert.Equal(t, []any{true, []any{one}}, h.call(h.root, "items", "window"))
}

func TestGroupCommands(t *testing.T) {
	h := newHarness(t, serverConfig(), twoScreens()...)
	h.window("one")
	h.window("two")
	h.window("three")
	g := h.root.Group()

	assert.Equal(t, "three", h.focus())
	h.call(g, "next_window")
	assert.Equal(t, "one", h.focus())
	h.call(g, "prev_window")
	assert.Equal(t, "three", h.focus())

	h.call(g, "setlayout", "stack3")
	assert.Equal(t, "stack3", h.info(h.root.Layout())["name"])
	assert.Equal(t, "three", h.focus())
	_, err := g.Cmd("setlayout").Call("nope")
	assert.Error(t, err)

	h.call(h.root, "next_layout")
	assert.Equal(t, "stack1", h.info(h.root.Layout())["name"])
	h.call(h.root, "prev_layout")
	assert.Equal(t, "stack3", h.info(h.root.Layout())["name"])
	h.call(h.root, "next_layout", "c")
	assert.Equal(t, "stack2", h.info(h.root.Group().At("c"))["layout"])

	h.call(g, "set_label", "main")
	assert.Equal(t, "main", h.info(g)["label"])
}

func TestAddDelGroup(t *testing.T) {
	h := newHarness(t, serverConfig(), twoScreens()...)
	h.window("one")

	assert.Equal(t, true, h.call(h.root, "addgroup", "d"))
	assert.Equal(t, false, h.call(h.root, "addgroup", "d"))
	_, err := h.root.Cmd("addgroup").CallKw(map[string]any{"layout": "nope"}, "e")
	assert.Error(t, err)
	h.call(h.root, "addgroup", "e", "E", "stack3")
	assert.Equal(t, "stack3", h.info(h.root.Group().At("e"))["layout"])

	// Deleting a shown group puts a hidden one on its screen and moves the
	// windows there.
	h.call(h.root, "delgroup", "a")
	assert.Equal(t, []any{true, []any{"b", "c", "d", "e"}}, h.call(h.root, "items", "group"))
	scr := h.info(h.root.Screen())
	assert.Equal(t, "c", scr["group"])
	assert.Equal(t, []any{"one"}, h.info(h.root.Group())["windows"])

	_, err = h.root.Cmd("delgroup").Call("a")
	assert.Error(t, err)
	h.call(h.root, "delgroup", "c")
	h.call(h.root, "delgroup", "d")
	// Both remaining groups are shown; neither can be replaced.
	_, err = h.root.Cmd("delgroup").Call("b")
	assert.Error(t, err)
}

func TestRootInfoCommands(t *testing.T) {
	h := newHarness(t, serverConfig(), twoScreens()...)
	h.window("one")

	assert.Equal(t, "OK", h.call(h.root, "status"))
	info := h.call(h.root, "lavinder_info").(map[string]any)
	assert.Equal(t, Version, info["version"])
	assert.Equal(t, ":99", info["display"])
	assert.Equal(t, 2, info["screens"])
	assert.Equal(t, 1, info["windows"])

	groups := h.call(h.root, "groups").(map[string]any)
	assert.Len(t, groups, 3)
	assert.Equal(t, "one", groups["a"].(map[string]any)["focus"])

	screens := h.call(h.root, "screens").([]any)
	require.Len(t, screens, 2)
	bars := screens[1].(map[string]any)["bars"].(map[string]any)
	assert.Equal(t, 640, bars["bottom"].(map[string]any)["width"])

	windows := h.call(h.root, "windows").([]any)
	require.Len(t, windows, 1)
	assert.Equal(t, "one", windows[0].(map[string]any)["name"])

	assert.Equal(t, []string{"one", "two"}, h.call(h.root, "list_widgets"))
	assert.Contains(t, h.call(h.root, "display_kb"), "KeySym")
}

func TestWidgets(t *testing.T) {
	cfg := serverConfig()
	cfg.Screens[0].Top = &config.BarConfig{Size: 16, Widgets: []config.WidgetConfig{
		{Type: "windowname"},
		{Type: "groupbox"},
		{Type: "clock", Format: "%Y-%m-%d %H:%M:%S"},
		{Type: "clock"},
	}}
	h := newHarness(t, cfg, twoScreens()...)
	h.window("one")

	text := func(name string) any { return h.info(h.root.Widget().At(name))["text"] }
	assert.Equal(t, "one", text("windowname"))
	assert.Equal(t, "[a] b c ", text("groupbox"))
	assert.Equal(t, "2024-03-05 14:07:09", text("clock"))
	assert.Equal(t, "14:07", text("clock_1"))

	tb := h.root.Widget().At("one")
	h.call(tb, "update", "hello")
	assert.Equal(t, "hello", h.call(tb, "get"))
	_, err := h.root.Widget().At("clock").Cmd("update").Call("x")
	assert.Error(t, err)

	// The top bar takes space from the usable area.
	r, _ := h.backend.Placement(101)
	assert.Equal(t, Rect{Y: 16, Width: 800, Height: 564}, r)
}

func TestClockText(t *testing.T) {
	tm := time.Date(2024, 1, 9, 7, 3, 0, 0, time.UTC)
	assert.Equal(t, "Tue 09 Jan 07:03 AM", clockText("%a %d %b %I:%M %p", tm))
	assert.Equal(t, "009 100%", clockText("%j 100%%", tm))
	assert.Equal(t, "07:03", clockText("", tm))
	assert.Equal(t, "%H:%Q", clockText("%H:%Q", tm))
}

func TestLoglevelCommands(t *testing.T) {
	h := newHarness(t, serverConfig(), twoScreens()...)
	prev := h.call(h.root, "loglevel")
	t.Cleanup(func() { h.call(h.root, "warning") })

	h.call(h.root, "debug")
	assert.Equal(t, "DEBUG", h.call(h.root, "loglevelname"))
	h.call(h.root, "critical")
	assert.Equal(t, "CRITICAL", h.call(h.root, "loglevelname"))
	assert.NotEqual(t, prev, h.call(h.root, "loglevel"))
}

func TestSpawnHook(t *testing.T) {
	be := NewHeadless()
	var spawned []string
	m, err := New(serverConfig1(), be, Options{Hooks: Hooks{Spawn: func(cmd string) (int, error) {
		spawned = append(spawned, cmd)
		return 42, nil
	}}})
	require.NoError(t, err)
	root := command.Local(m.Dispatcher())

	pid, err := root.Cmd("spawn").Call("xterm -e top")
	require.NoError(t, err)
	assert.Equal(t, 42, pid)
	assert.Equal(t, []string{"xterm -e top"}, spawned)
}

func TestAutostart(t *testing.T) {
	for _, noSpawn := range []bool{false, true} {
		cfg := serverConfig1()
		cfg.Autostart = []string{"xsetroot -solid black", "xterm"}
		var spawned []string
		m, err := New(cfg, NewHeadless(), Options{NoSpawn: noSpawn, Hooks: Hooks{Spawn: func(cmd string) (int, error) {
			spawned = append(spawned, cmd)
			return 1, nil
		}}})
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		require.NoError(t, m.Run(ctx))
		if noSpawn {
			assert.Empty(t, spawned)
		} else {
			assert.Equal(t, cfg.Autostart, spawned)
		}
	}
}

// serverConfig1 is serverConfig for a single screen.
func serverConfig1() *config.Config {
	cfg := serverConfig()
	cfg.Screens = cfg.Screens[:1]
	return cfg
}

func TestTooFewGroups(t *testing.T) {
	cfg := serverConfig()
	cfg.Groups = cfg.Groups[:1]
	_, err := New(cfg, NewHeadless(twoScreens()...), Options{})
	assert.Error(t, err)
}

func TestReloadConfig(t *testing.T) {
	be := NewHeadless()
	next := serverConfig1()
	next.Groups = append(next.Groups, config.GroupConfig{Name: "z"})
	next.Keys = []config.KeyConfig{{Modifiers: []string{"mod4"}, Key: "q", Commands: []string{"shutdown()"}}}
	m, err := New(serverConfig1(), be, Options{Hooks: Hooks{Reload: func() (*config.Config, error) {
		return next, nil
	}}})
	require.NoError(t, err)
	root := command.Local(m.Dispatcher())

	_, err = root.Cmd("reload_config").Call()
	require.NoError(t, err)
	v, err := root.Cmd("items").Call("group")
	require.NoError(t, err)
	assert.Equal(t, []any{true, []any{"a", "b", "c", "z"}}, v)
	assert.Equal(t, []KeyChord{{Mask: 64, Key: "q"}}, be.Grabbed())

	m2, err := New(serverConfig1(), NewHeadless(), Options{})
	require.NoError(t, err)
	_, err = command.Local(m2.Dispatcher()).Cmd("reload_config").Call()
	var cerr *command.CommandError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "Reloading is not available.", cerr.Message)
}

// grabFails is a backend whose key grabs fail after the first.
type grabFails struct {
	*Headless
	grabs int
}

func (g *grabFails) GrabKeys(keys []KeyChord, buttons []ButtonChord) error {
	g.grabs++
	if g.grabs > 1 {
		return errors.New("grab refused")
	}
	return g.Headless.GrabKeys(keys, buttons)
}

func TestReloadConfigFailureChangesNothing(t *testing.T) {
	tests := []struct {
		name    string
		backend Backend
		edit    func(cfg *config.Config)
	}{
		{"bad layout", NewHeadless(), func(cfg *config.Config) {
			cfg.Layouts = append(cfg.Layouts, config.LayoutConfig{Type: "spiral"})
		}},
		{"grab fails", &grabFails{Headless: NewHeadless()}, func(*config.Config) {}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first := serverConfig1()
			next := serverConfig1()
			next.Groups = append(next.Groups, config.GroupConfig{Name: "y"}, config.GroupConfig{Name: "z"})
			tt.edit(next)
			m, err := New(first, tt.backend, Options{})
			require.NoError(t, err)

			assert.Error(t, m.ReloadConfig(next))
			assert.Same(t, first, m.Config())
			v, err := command.Local(m.Dispatcher()).Cmd("items").Call("group")
			require.NoError(t, err)
			assert.Equal(t, []any{true, []any{"a", "b", "c"}}, v)
		})
	}
}

func TestKeyBindings(t *testing.T) {
	cfg := serverConfig1()
	cfg.Layouts = []config.LayoutConfig{{Type: "stack", NumStacks: 1}, {Type: "max"}}
	cfg.Keys = []config.KeyConfig{
		{Modifiers: []string{"control"}, Key: "j", Commands: []string{"layout.down()"}},
		{Modifiers: []string{"control"}, Key: "k", Commands: []string{"layout.up()"}},
		{Modifiers: []string{"control"}, Key: "m", Commands: []string{"layout.next()"},
			When: &config.Guard{Layout: "max"}},
	}
	h := newHarness(t, cfg)
	h.window("one")
	h.window("two")
	assert.Equal(t, "two", h.focus())

	h.call(h.root, "simulate_keypress", []any{"control"}, "j")
	assert.Equal(t, "one", h.focus())
	h.m.HandleEvent(KeyPress{Mask: 4, Key: "k"})
	assert.Equal(t, "two", h.focus())

	// Guarded by layout: nothing happens under the stack layout.
	h.m.HandleEvent(KeyPress{Mask: 4, Key: "m"})
	assert.Equal(t, "two", h.focus())

	_, err := h.root.Cmd("simulate_keypress").Call([]any{"mod1"}, "x")
	var cerr *command.CommandError
	require.ErrorAs(t, err, &cerr)
	assert.Equal(t, "Unknown key: mod1-x", cerr.Message)
}

func TestMouseDrag(t *testing.T) {
	cfg := serverConfig1()
	cfg.Mouse = []config.MouseConfig{{
		Type:      "drag",
		Modifiers: []string{"mod4"},
		Button:    "Button1",
		Commands:  []string{"window.set_position_floating()"},
		Start:     "window.get_position()",
	}}
	cfg.BringFrontClick = true
	h := newHarness(t, cfg)
	id := h.window("one")

	h.m.HandleEvent(ButtonPress{ID: id, Mask: 64, Button: "Button1", X: 50, Y: 50})
	h.m.HandleEvent(Motion{X: 60, Y: 45})
	h.m.HandleEvent(ButtonRelease{})
	h.m.HandleEvent(Motion{X: 500, Y: 500})

	info := h.info(h.root.Window())
	assert.Equal(t, true, info["floating"])
	assert.Equal(t, 10, info["x"])
	assert.Equal(t, -5, info["y"])
}

func TestFollowMouseFocus(t *testing.T) {
	cfg := serverConfig1()
	cfg.FollowMouseFocus = true
	h := newHarness(t, cfg)
	one := h.window("one")
	h.window("two")

	h.m.HandleEvent(EnterNotify{ID: one})
	assert.Equal(t, "one", h.focus())
	assert.Equal(t, one, h.backend.Focused())
}

func TestNameChanged(t *testing.T) {
	h := newHarness(t, serverConfig1())
	id := h.window("one")
	h.m.HandleEvent(NameChanged{ID: id, Name: "renamed"})
	assert.Equal(t, "renamed", h.info(h.root.Window())["name"])
}

func TestScreenChange(t *testing.T) {
	h := newHarness(t, serverConfig(), twoScreens()...)
	h.call(h.root, "to_screen", 1)

	h.backend.mu.Lock()
	h.backend.screens = h.backend.screens[:1]
	h.backend.mu.Unlock()
	h.m.HandleEvent(ScreenChange{})

	assert.Equal(t, []any{true, []any{0}}, h.call(h.root, "items", "screen"))
	assert.Equal(t, 0, h.info(h.root.Screen())["index"])
	assert.Nil(t, h.info(h.root.Group().At("b"))["screen"])
}

func TestScreenAdded(t *testing.T) {
	h := newHarness(t, serverConfig1(), Rect{Width: 800, Height: 600})

	h.backend.mu.Lock()
	h.backend.screens = twoScreens()
	h.backend.mu.Unlock()
	h.m.HandleEvent(ScreenChange{})

	assert.Equal(t, []any{true, []any{0, 1}}, h.call(h.root, "items", "screen"))
	assert.Equal(t, "b", h.info(h.root.Screen().At(1))["group"])
	assert.Equal(t, 1, h.info(h.root.Group().At("b"))["screen"])
}

func TestScreenAddedWithoutFreeGroup(t *testing.T) {
	cfg := serverConfig1()
	cfg.Groups = cfg.Groups[:1]
	h := newHarness(t, cfg, Rect{Width: 800, Height: 600})

	h.backend.mu.Lock()
	h.backend.screens = twoScreens()
	h.backend.mu.Unlock()
	h.m.HandleEvent(ScreenChange{})

	assert.Equal(t, []any{true, []any{0}}, h.call(h.root, "items", "screen"))
	screens, ok := h.call(h.root, "screens").([]any)
	require.True(t, ok)
	assert.Len(t, screens, 1)
	_, err := h.root.Cmd("to_screen").Call(1)
	assert.Error(t, err)

	st := h.m.Capture()
	assert.Equal(t, map[int]string{0: "a"}, st.Screens)

	h.window("one")
	assert.Equal(t, "one", h.focus())
}

func TestRunLoop(t *testing.T) {
	h := newHarness(t, serverConfig1())
	errc := make(chan error, 1)
	go func() { errc <- h.m.Run(context.Background()) }()

	h.backend.Inject(MapRequest{ID: 7, Name: "seven"})
	out := h.m.Handle(command.Request{Name: "status"})
	assert.Equal(t, command.Outcome{Status: command.Success, Value: "OK"}, out)

	assert.Eventually(t, func() bool {
		out := h.m.Handle(command.Request{Name: "items", Args: []any{"window"}})
		return assert.ObjectsAreEqual([]any{true, []any{7}}, out.Value)
	}, time.Second, 10*time.Millisecond)

	out = h.m.Handle(command.Request{Name: "nope"})
	assert.Equal(t, command.Error, out.Status)

	out = h.m.Handle(command.Request{Name: "shutdown"})
	assert.Equal(t, command.Success, out.Status)
	select {
	case err := <-errc:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("loop did not stop")
	}

	assert.ErrorIs(t, h.m.Post(func() {}), ErrStopped)
	out = h.m.Handle(command.Request{Name: "status"})
	assert.Equal(t, command.Error, out.Status)
}

func TestRunRestart(t *testing.T) {
	h := newHarness(t, serverConfig1())
	errc := make(chan error, 1)
	go func() { errc <- h.m.Run(context.Background()) }()

	out := h.m.Handle(command.Request{Name: "restart"})
	assert.Equal(t, command.Success, out.Status)
	assert.ErrorIs(t, <-errc, ErrRestart)
}

func TestRunContextAndBackend(t *testing.T) {
	h := newHarness(t, serverConfig1())
	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- h.m.Run(ctx) }()
	cancel()
	assert.NoError(t, <-errc)

	h = newHarness(t, serverConfig1())
	go func() { errc <- h.m.Run(context.Background()) }()
	require.NoError(t, h.backend.Close())
	assert.Error(t, <-errc)
}
