package keys

import (
	"fmt"
	"sort"
	"strings"

	"lavinder/command"
	"lavinder/config"
)

// X modifier masks.
var modMasks = map[string]uint16{
	"shift":   1 << 0,
	"lock":    1 << 1,
	"control": 1 << 2,
	"mod1":    1 << 3,
	"mod2":    1 << 4,
	"mod3":    1 << 5,
	"mod4":    1 << 6,
	"mod5":    1 << 7,
}

// ModMask converts modifier names to an X modifier mask.
func ModMask(mods []string) (uint16, error) {
	var mask uint16
	for _, m := range mods {
		v, ok := modMasks[strings.ToLower(m)]
		if !ok {
			return 0, fmt.Errorf("unknown modifier %q", m)
		}
		mask |= v
	}
	return mask, nil
}

// ModNames converts a mask back into modifier names, in mask order.
func ModNames(mask uint16) []string {
	var names []string
	for _, name := range []string{"shift", "lock", "control", "mod1", "mod2", "mod3", "mod4", "mod5"} {
		if mask&modMasks[name] != 0 {
			names = append(names, name)
		}
	}
	return names
}

// Key is a keyboard binding.
type Key struct {
	Modifiers []string
	Key       string
	Mask      uint16
	Commands  []*command.LazyCall
	Desc      string
}

// Mouse is a click or drag binding. Start is only set for drags.
type Mouse struct {
	Drag      bool
	Modifiers []string
	Button    string
	Mask      uint16
	Commands  []*command.LazyCall
	Start     *command.LazyCall
}

// Chord formats a binding as "mod4-shift-a".
func Chord(mods []string, key string) string {
	return strings.Join(append(append([]string{}, mods...), key), "-")
}

type chord struct {
	mask uint16
	key  string
}

// Table holds the compiled bindings.
type Table struct {
	keys  []*Key
	index map[chord]*Key
	mouse []*Mouse
}

// Compile parses a command expression into a lazy call and applies guard.
func Compile(expr string, guard *config.Guard) (*command.LazyCall, error) {
	e, err := command.ParseExpr(expr)
	if err != nil {
		return nil, err
	}
	if !e.IsCall() {
		return nil, fmt.Errorf("%q does not call a command", expr)
	}
	lc := command.NewLazyCall(command.Request{Path: e.Path, Name: e.Name, Args: e.Args, Kwargs: e.Kwargs})
	if guard != nil {
		whenFloating := true
		if guard.WhenFloating != nil {
			whenFloating = *guard.WhenFloating
		}
		lc.When(guard.Layout, whenFloating)
	}
	return lc, nil
}

func compileAll(exprs []string, guard *config.Guard) ([]*command.LazyCall, error) {
	out := make([]*command.LazyCall, 0, len(exprs))
	for _, e := range exprs {
		lc, err := Compile(e, guard)
		if err != nil {
			return nil, err
		}
		out = append(out, lc)
	}
	return out, nil
}

// FromConfig compiles the key and mouse sections of cfg. A later key with
// the same chord replaces an earlier one.
func FromConfig(cfg *config.Config) (*Table, error) {
	t := &Table{index: make(map[chord]*Key)}
	for _, kc := range cfg.Keys {
		mask, err := ModMask(kc.Modifiers)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", Chord(kc.Modifiers, kc.Key), err)
		}
		cmds, err := compileAll(kc.Commands, kc.When)
		if err != nil {
			return nil, fmt.Errorf("key %s: %w", Chord(kc.Modifiers, kc.Key), err)
		}
		t.Add(&Key{Modifiers: kc.Modifiers, Key: kc.Key, Mask: mask, Commands: cmds, Desc: kc.Desc})
	}
	for _, mc := range cfg.Mouse {
		mask, err := ModMask(mc.Modifiers)
		if err != nil {
			return nil, fmt.Errorf("mouse %s: %w", Chord(mc.Modifiers, mc.Button), err)
		}
		cmds, err := compileAll(mc.Commands, nil)
		if err != nil {
			return nil, fmt.Errorf("mouse %s: %w", Chord(mc.Modifiers, mc.Button), err)
		}
		m := &Mouse{Drag: mc.Type == "drag", Modifiers: mc.Modifiers, Button: mc.Button, Mask: mask, Commands: cmds}
		if mc.Start != "" {
			if m.Start, err = Compile(mc.Start, nil); err != nil {
				return nil, fmt.Errorf("mouse %s start: %w", Chord(mc.Modifiers, mc.Button), err)
			}
		}
		t.mouse = append(t.mouse, m)
	}
	return t, nil
}

// Add inserts or replaces a key binding.
func (t *Table) Add(k *Key) {
	c := chord{k.Mask, k.Key}
	if old, ok := t.index[c]; ok {
		for i, existing := range t.keys {
			if existing == old {
				t.keys = append(t.keys[:i], t.keys[i+1:]...)
				break
			}
		}
	}
	t.index[c] = k
	t.keys = append(t.keys, k)
}

// Lookup finds the binding for a chord. Modifier order does not matter.
func (t *Table) Lookup(mods []string, key string) (*Key, error) {
	mask, err := ModMask(mods)
	if err != nil {
		return nil, err
	}
	k, ok := t.index[chord{mask, key}]
	if !ok {
		return nil, fmt.Errorf("no binding for %s", Chord(ModNames(mask), key))
	}
	return k, nil
}

// LookupMask finds the binding for a mask as reported by the X server.
func (t *Table) LookupMask(mask uint16, key string) (*Key, bool) {
	k, ok := t.index[chord{mask, key}]
	return k, ok
}

// Keys returns the key bindings in configuration order.
func (t *Table) Keys() []*Key { return t.keys }

// Mouse returns the mouse bindings in configuration order.
func (t *Table) Mouse() []*Mouse { return t.mouse }

// Rows describes the key bindings for display, sorted by chord.
func (t *Table) Rows() [][3]string {
	rows := make([][3]string, 0, len(t.keys))
	for _, k := range t.keys {
		var cmds []string
		for _, c := range k.Commands {
			cmds = append(cmds, command.Expr{Path: c.Path, Name: c.Name, Args: c.Args, Kwargs: c.Kwargs}.String())
		}
		rows = append(rows, [3]string{Chord(ModNames(k.Mask), k.Key), strings.Join(cmds, "; "), k.Desc})
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i][0] < rows[j][0] })
	return rows
}
