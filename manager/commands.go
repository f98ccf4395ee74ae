package manager

import (
	"os/exec"
	"sort"

	"lavinder/command"
	"lavinder/config"
	"lavinder/keys"
	"lavinder/log"
)

// Version is reported by lavinder_info.
const Version = "0.1.0"

func (m *Manager) registry() *command.Registry {
	r := command.NewRegistry()

	r.Register("lavinder_info", func(*command.Args) (any, error) {
		return map[string]any{
			"version":        Version,
			"display":        m.opts.Display,
			"socket":         m.opts.SocketPath,
			"config":         m.opts.ConfigPath,
			"screens":        len(m.screens),
			"groups":         len(m.groups),
			"windows":        len(m.windows),
			"current_screen": m.currentScreen,
		}, nil
	}).Doc("Returns a dictionary of info on the running manager.")
	r.Register("status", func(*command.Args) (any, error) {
		return "OK", nil
	}).Doc("Return \"OK\" if the manager is running.")
	r.Register("groups", func(*command.Args) (any, error) {
		out := make(map[string]any, len(m.groups))
		for _, g := range m.groups {
			out[g.name] = g.info()
		}
		return out, nil
	}).Doc("Return a dictionary containing information for all groups.")
	r.Register("screens", func(*command.Args) (any, error) {
		out := make([]any, len(m.screens))
		for i, s := range m.screens {
			info := s.info()
			bars := make(map[string]any, len(s.bars))
			for pos, b := range s.bars {
				bars[pos] = b.info()
			}
			info["bars"] = bars
			out[i] = info
		}
		return out, nil
	}).Doc("Return a list of dictionaries providing information on all screens.")
	r.Register("windows", func(*command.Args) (any, error) {
		ids := make([]int, 0, len(m.windows))
		for id := range m.windows {
			ids = append(ids, id)
		}
		sort.Ints(ids)
		out := make([]any, len(ids))
		for i, id := range ids {
			out[i] = m.windows[id].info()
		}
		return out, nil
	}).Doc("Return info for each client window.")
	r.Register("list_widgets", func(*command.Args) (any, error) {
		names := make([]string, 0, len(m.widgets))
		for n := range m.widgets {
			names = append(names, n)
		}
		sort.Strings(names)
		return names, nil
	}).Doc("List of all addressible widget names.")

	layoutStep := func(delta int) command.Handler {
		return func(a *command.Args) (any, error) {
			g := m.currentGroup()
			if name := a.String("group"); name != "" {
				if g = m.groupByName(name); g == nil {
					return nil, command.Errorf("No such group: %s", name)
				}
			}
			n := len(g.layouts)
			g.setLayout(((g.layoutIdx+delta)%n + n) % n)
			return nil, nil
		}
	}
	r.Register("next_layout", layoutStep(1)).OptArg("group", command.StringKind, nil).
		Doc("Switch to the next layout.\n\nWithout a group name the current group is used.")
	r.Register("prev_layout", layoutStep(-1)).OptArg("group", command.StringKind, nil).
		Doc("Switch to the previous layout.\n\nWithout a group name the current group is used.")

	r.Register("to_screen", func(a *command.Args) (any, error) {
		n := a.Int("n")
		if n < 0 || n >= len(m.screens) {
			return nil, command.Errorf("No such screen: %d", n)
		}
		m.focusScreen(n)
		return nil, nil
	}).Arg("n", command.IntKind).Doc("Warp focus to screen n, where n is a 0-based screen number.")
	r.Register("next_screen", func(*command.Args) (any, error) {
		m.focusScreen((m.currentScreen + 1) % len(m.screens))
		return nil, nil
	}).Doc("Move to next screen.")
	r.Register("prev_screen", func(*command.Args) (any, error) {
		m.focusScreen((m.currentScreen - 1 + len(m.screens)) % len(m.screens))
		return nil, nil
	}).Doc("Move to the previous screen.")

	r.Register("addgroup", func(a *command.Args) (any, error) {
		name := a.String("group")
		if m.groupByName(name) != nil {
			return false, nil
		}
		gc := config.GroupConfig{Name: name, Label: a.String("label"), Layout: a.String("layout")}
		if gc.Layout != "" && !m.hasLayout(gc.Layout) {
			return nil, command.Errorf("No such layout: %s", gc.Layout)
		}
		if _, err := m.addGroup(gc); err != nil {
			return nil, command.Errorf("%v", err)
		}
		return true, nil
	}).Arg("group", command.StringKind).OptArg("label", command.StringKind, nil).
		OptArg("layout", command.StringKind, nil).
		Doc("Add a group with the given name.\n\nReturns False if the group already exists.")
	r.Register("delgroup", func(a *command.Args) (any, error) {
		return nil, m.deleteGroup(a.String("group"))
	}).Arg("group", command.StringKind).
		Doc("Delete a group with the given name.\n\nIts windows move to another group.")

	r.Register("spawn", func(a *command.Args) (any, error) {
		pid, err := m.spawn(a.String("cmd"))
		if err != nil {
			return nil, command.Errorf("%v", err)
		}
		return pid, nil
	}).Arg("cmd", command.StringKind).
		Doc("Run cmd in a shell.\n\nReturns the process ID of the new process.")
	r.Register("restart", func(*command.Args) (any, error) {
		m.quit = ErrRestart
		return nil, nil
	}).Doc("Restart the manager, keeping groups and screens.")
	r.Register("shutdown", func(*command.Args) (any, error) {
		m.quit = errStopRequested
		return nil, nil
	}).Doc("Quit the manager.")
	r.Register("reload_config", func(*command.Args) (any, error) {
		if m.opts.Hooks.Reload == nil {
			return nil, command.Errorf("Reloading is not available.")
		}
		cfg, err := m.opts.Hooks.Reload()
		if err != nil {
			return nil, command.Errorf("Config error: %v", err)
		}
		if err := m.ReloadConfig(cfg); err != nil {
			return nil, command.Errorf("Config error: %v", err)
		}
		return nil, nil
	}).Doc("Reload the configuration file.")

	r.Register("simulate_keypress", func(a *command.Args) (any, error) {
		mods, key := a.Strings("modifiers"), a.String("key")
		k, err := m.keys.Lookup(mods, key)
		if err != nil {
			return nil, command.Errorf("Unknown key: %s", keys.Chord(mods, key))
		}
		m.runBinding(k.Commands)
		return nil, nil
	}).Arg("modifiers", command.StringsKind).Arg("key", command.StringKind).
		Doc("Simulates a keypress on the focused window.\n\n" +
			"Examples: simulate_keypress([\"control\", \"mod2\"], \"k\")")
	r.Register("display_kb", func(*command.Args) (any, error) {
		return m.keys.Format(), nil
	}).Doc("Display table of key bindings.")

	r.Register("loglevel", func(*command.Args) (any, error) {
		return int(log.CurrentLevel()), nil
	}).Doc("Returns the current log level as a number.")
	r.Register("loglevelname", func(*command.Args) (any, error) {
		return log.CurrentLevel().String(), nil
	}).Doc("Returns the name of the current log level.")
	for name, lvl := range map[string]log.Level{
		"debug":    log.DebugLevel,
		"info":     log.InfoLevel,
		"warning":  log.WarningLevel,
		"error":    log.ErrorLevel,
		"critical": log.CriticalLevel,
	} {
		lvl := lvl
		r.Register(name, func(*command.Args) (any, error) {
			log.SetLevel(lvl)
			return nil, nil
		}).Doc("Set log level to " + lvl.String() + ".")
	}
	return r
}

// spawn starts cmd through the shell. The child is reaped in the background.
func (m *Manager) spawn(cmd string) (int, error) {
	if m.opts.Hooks.Spawn != nil {
		return m.opts.Hooks.Spawn(cmd)
	}
	c := exec.Command("/bin/sh", "-c", cmd)
	if err := c.Start(); err != nil {
		log.ErrorLog.Printf("spawn %q: %v", cmd, err)
		return 0, err
	}
	go func() {
		if err := c.Wait(); err != nil {
			log.InfoLog.Printf("spawned %q exited: %v", cmd, err)
		}
	}()
	return c.Process.Pid, nil
}

// deleteGroup removes a group, moving its windows to another one. A shown
// group is replaced on its screen by a hidden group.
func (m *Manager) deleteGroup(name string) error {
	g := m.groupByName(name)
	if g == nil {
		return command.Errorf("No such group: %s", name)
	}
	if len(m.groups) == 1 {
		return command.Errorf("Can't delete all groups.")
	}
	var target *Group
	for _, o := range m.groups {
		if o == g {
			continue
		}
		if g.screen == nil || o.screen == nil {
			target = o
			break
		}
	}
	if target == nil {
		return command.Errorf("Can't delete group %s: no hidden group can take its screen.", name)
	}
	if s := g.screen; s != nil {
		s.setGroup(target)
	}
	for _, w := range append([]*Window(nil), g.windows...) {
		m.moveToGroup(w, target)
	}
	for i, o := range m.groups {
		if o == g {
			m.groups = append(m.groups[:i:i], m.groups[i+1:]...)
			break
		}
	}
	for _, s := range m.screens {
		if s.previous == g {
			s.previous = nil
		}
	}
	return nil
}

func (m *Manager) hasLayout(name string) bool {
	for _, lc := range m.cfg.Layouts {
		if lc.LayoutName() == name {
			return true
		}
	}
	return false
}
