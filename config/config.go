package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/lestrrat-go/strftime"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"

	"lavinder/command"
	"lavinder/log"
)

const (
	ConfigFileName = "config.yaml"
	// DefaultModifier is the modifier the default key table is built on.
	DefaultModifier = "mod4"
	// DefaultClockFormat is the strftime pattern of a clock without one.
	DefaultClockFormat = "%H:%M"
)

// LayoutConfig describes one layout every group gets a copy of.
type LayoutConfig struct {
	// Type is one of "stack", "max" or "floating".
	Type string `yaml:"type"`
	// Name overrides the layout name reported by info and used by guards.
	Name      string `yaml:"name,omitempty"`
	NumStacks int    `yaml:"num_stacks,omitempty"`
}

// LayoutName returns the name the layout is known by.
func (l LayoutConfig) LayoutName() string {
	if l.Name != "" {
		return l.Name
	}
	return l.Type
}

// GroupConfig describes a group created at startup.
type GroupConfig struct {
	Name  string `yaml:"name"`
	Label string `yaml:"label,omitempty"`
	// Layout is the name of the layout the group starts with.
	Layout string `yaml:"layout,omitempty"`
	// Spawn lists commands started when the group is created.
	Spawn []string `yaml:"spawn,omitempty"`
}

// WidgetConfig describes a bar widget.
type WidgetConfig struct {
	// Type is one of "groupbox", "windowname", "textbox", "clock",
	// "systray" or "spacer".
	Type   string `yaml:"type"`
	Name   string `yaml:"name,omitempty"`
	Text   string `yaml:"text,omitempty"`
	Format string `yaml:"format,omitempty"`
	Length int    `yaml:"length,omitempty"`
}

// BarConfig describes a bar on one edge of a screen.
type BarConfig struct {
	Size    int            `yaml:"size"`
	Widgets []WidgetConfig `yaml:"widgets"`
}

// ScreenConfig holds the bars of one screen, keyed by edge.
type ScreenConfig struct {
	Top    *BarConfig `yaml:"top,omitempty"`
	Bottom *BarConfig `yaml:"bottom,omitempty"`
	Left   *BarConfig `yaml:"left,omitempty"`
	Right  *BarConfig `yaml:"right,omitempty"`
}

// Bars returns the configured bars by position.
func (s ScreenConfig) Bars() map[string]*BarConfig {
	out := make(map[string]*BarConfig)
	for pos, b := range map[string]*BarConfig{"top": s.Top, "bottom": s.Bottom, "left": s.Left, "right": s.Right} {
		if b != nil {
			out[pos] = b
		}
	}
	return out
}

// Guard restricts a binding to a layout.
type Guard struct {
	Layout string `yaml:"layout"`
	// WhenFloating keeps the binding active over floating windows. Defaults
	// to true.
	WhenFloating *bool `yaml:"when_floating,omitempty"`
}

// KeyConfig binds a key chord to command expressions.
type KeyConfig struct {
	Modifiers []string `yaml:"modifiers"`
	Key       string   `yaml:"key"`
	Commands  []string `yaml:"commands"`
	When      *Guard   `yaml:"when,omitempty"`
	Desc      string   `yaml:"desc,omitempty"`
}

// MouseConfig binds a mouse button. Drags call Start when the button goes
// down and Commands with the start values plus the pointer motion.
type MouseConfig struct {
	// Type is "click" or "drag".
	Type      string   `yaml:"type"`
	Modifiers []string `yaml:"modifiers"`
	Button    string   `yaml:"button"`
	Commands  []string `yaml:"commands"`
	Start     string   `yaml:"start,omitempty"`
}

// LogSettings mirrors log.LogConfig in the config file.
type LogSettings struct {
	Level    string `yaml:"level"`
	Dir      string `yaml:"dir,omitempty"`
	Enabled  *bool  `yaml:"enabled,omitempty"`
	MaxSize  int    `yaml:"max_size"`
	MaxFiles int    `yaml:"max_files"`
	MaxAge   int    `yaml:"max_age"`
	Compress bool   `yaml:"compress"`
}

// Config represents the manager configuration
type Config struct {
	Groups         []GroupConfig  `yaml:"groups"`
	Layouts        []LayoutConfig `yaml:"layouts"`
	FloatingLayout LayoutConfig   `yaml:"floating_layout"`
	Screens        []ScreenConfig `yaml:"screens"`
	Keys           []KeyConfig    `yaml:"keys"`
	Mouse          []MouseConfig  `yaml:"mouse"`
	Log            LogSettings    `yaml:"log"`
	// Socket overrides the socket path derived from the display.
	Socket string `yaml:"socket,omitempty"`

	FollowMouseFocus bool `yaml:"follow_mouse_focus"`
	BringFrontClick  bool `yaml:"bring_front_click"`
	AutoFullscreen   bool `yaml:"auto_fullscreen"`
	// ReloadOnChange reloads the configuration when the file changes.
	ReloadOnChange bool `yaml:"reload_on_change"`
	// Autostart lists commands spawned once at startup.
	Autostart []string `yaml:"autostart,omitempty"`
}

// GetConfigDir returns the path to the configuration directory:
// $XDG_CONFIG_HOME/lavinder or ~/.config/lavinder.
func GetConfigDir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "lavinder"), nil
	}
	homeDir, err := homedir.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "lavinder"), nil
}

// DefaultConfigPath returns the path of the config file in the config
// directory.
func DefaultConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

func key(mods []string, k string, cmds ...string) KeyConfig {
	return KeyConfig{Modifiers: mods, Key: k, Commands: cmds}
}

// DefaultConfig returns the configuration used when no file exists.
func DefaultConfig() *Config {
	mod := DefaultModifier
	alt := "mod1"
	keys := []KeyConfig{
		// Switch between windows in current stack pane
		key([]string{mod}, "k", "layout.down()"),
		key([]string{mod}, "j", "layout.up()"),
		// Move windows up or down in current stack
		key([]string{mod, "control"}, "k", "layout.shuffle_down()"),
		key([]string{mod, "control"}, "j", "layout.shuffle_up()"),
		// Switch window focus to other pane(s) of stack
		key([]string{mod}, "space", "layout.next()"),
		// Swap panes of split stack
		key([]string{mod, "shift"}, "space", "layout.rotate()"),
		// Toggle between split and unsplit sides of stack
		key([]string{mod, "shift"}, "Return", "layout.toggle_split()"),
		key([]string{mod}, "Return", `spawn("xterm")`),
		key([]string{mod}, "Tab", "next_layout()"),
		key([]string{mod}, "w", "window.kill()"),
		key([]string{mod, "control"}, "r", "restart()"),
		key([]string{mod, "control"}, "q", "shutdown()"),
	}

	var groups []GroupConfig
	for _, name := range strings.Split("asdfuiop", "") {
		groups = append(groups, GroupConfig{Name: name})
		keys = append(keys,
			key([]string{mod}, name, fmt.Sprintf("group[%q].toscreen()", name)),
			key([]string{mod, "shift"}, name, fmt.Sprintf("window.togroup(%q)", name)),
		)
	}

	enabled := true
	return &Config{
		Groups: groups,
		Layouts: []LayoutConfig{
			{Type: "floating"},
			{Type: "stack", NumStacks: 2},
		},
		FloatingLayout: LayoutConfig{Type: "floating"},
		Screens: []ScreenConfig{{
			Top: &BarConfig{
				Size: 16,
				Widgets: []WidgetConfig{
					{Type: "windowname"},
					{Type: "textbox", Name: "configName", Text: "Lavinder 0.01"},
					{Type: "systray"},
					{Type: "clock", Format: "%a %d %b %Y %H:%M:%S"},
					{Type: "spacer", Length: 8},
				},
			},
		}},
		Keys: keys,
		Mouse: []MouseConfig{
			{Type: "drag", Modifiers: []string{mod}, Button: "Button1",
				Commands: []string{"window.set_position_floating()"}, Start: "window.get_position()"},
			{Type: "drag", Modifiers: []string{mod}, Button: "Button3",
				Commands: []string{"window.set_size_floating()"}, Start: "window.get_size()"},
			{Type: "click", Modifiers: []string{mod}, Button: "Button2",
				Commands: []string{"window.bring_to_front()"}},
			{Type: "click", Modifiers: []string{alt}, Button: "Button4",
				Commands: []string{"prev_screen()"}},
			{Type: "click", Modifiers: []string{alt}, Button: "Button5",
				Commands: []string{"next_screen()"}},
		},
		Log: LogSettings{
			Level:    "WARNING",
			Enabled:  &enabled,
			MaxSize:  10,
			MaxFiles: 5,
			MaxAge:   30,
			Compress: true,
		},
		FollowMouseFocus: false,
		BringFrontClick:  false,
		AutoFullscreen:   false,
		ReloadOnChange:   true,
	}
}

// LoadConfig reads the config file at path. A missing file yields the
// default configuration.
func LoadConfig(path string) (*Config, error) {
	path, err := homedir.Expand(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.InfoLog.Printf("no config file at %s, using defaults", path)
			return DefaultConfig(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes YAML on top of the defaults and validates the result.
// Lists given in the file replace the default lists entirely.
func ParseConfig(data []byte) (*Config, error) {
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// SaveConfig writes cfg as YAML to path.
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

var (
	layoutTypes = map[string]bool{"stack": true, "max": true, "floating": true}
	widgetTypes = map[string]bool{
		"groupbox": true, "windowname": true, "textbox": true,
		"clock": true, "systray": true, "spacer": true,
	}
	modifierNames = map[string]bool{
		"shift": true, "lock": true, "control": true,
		"mod1": true, "mod2": true, "mod3": true, "mod4": true, "mod5": true,
	}
)

// ValidationError collects every problem found in a configuration.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "invalid configuration:\n  " + strings.Join(e.Problems, "\n  ")
}

// Validate checks names and compiles every binding expression.
func (c *Config) Validate() error {
	var problems []string
	add := func(format string, args ...any) {
		problems = append(problems, fmt.Sprintf(format, args...))
	}

	if len(c.Groups) == 0 {
		add("at least one group is required")
	}
	seen := make(map[string]bool)
	for _, g := range c.Groups {
		if g.Name == "" {
			add("group with empty name")
		}
		if seen[g.Name] {
			add("duplicate group %q", g.Name)
		}
		seen[g.Name] = true
	}

	if len(c.Layouts) == 0 {
		add("at least one layout is required")
	}
	layoutNames := make(map[string]bool)
	for i, l := range c.Layouts {
		if !layoutTypes[l.Type] {
			add("layout %d: unknown type %q", i, l.Type)
		}
		if l.Type == "stack" && l.NumStacks < 0 {
			add("layout %d: num_stacks must be positive", i)
		}
		layoutNames[l.LayoutName()] = true
	}
	if c.FloatingLayout.Type != "" && c.FloatingLayout.Type != "floating" {
		add("floating_layout must have type floating")
	}
	for _, g := range c.Groups {
		if g.Layout != "" && !layoutNames[g.Layout] {
			add("group %q: unknown layout %q", g.Name, g.Layout)
		}
	}

	widgetNames := make(map[string]bool)
	for i, s := range c.Screens {
		for pos, b := range s.Bars() {
			for _, w := range b.Widgets {
				if !widgetTypes[w.Type] {
					add("screen %d %s bar: unknown widget type %q", i, pos, w.Type)
				}
				if w.Type == "clock" && w.Format != "" {
					if _, err := strftime.New(w.Format); err != nil {
						add("screen %d %s bar: clock format %q: %v", i, pos, w.Format, err)
					}
				}
				if w.Name != "" {
					if widgetNames[w.Name] {
						add("duplicate widget name %q", w.Name)
					}
					widgetNames[w.Name] = true
				}
			}
		}
	}

	checkMods := func(what string, mods []string) {
		for _, m := range mods {
			if !modifierNames[strings.ToLower(m)] {
				add("%s: unknown modifier %q", what, m)
			}
		}
	}
	checkExprs := func(what string, exprs []string) {
		if len(exprs) == 0 {
			add("%s: no commands", what)
		}
		for _, e := range exprs {
			if err := checkCall(e); err != nil {
				add("%s: %v", what, err)
			}
		}
	}
	for _, k := range c.Keys {
		what := fmt.Sprintf("key %s", strings.Join(append(append([]string{}, k.Modifiers...), k.Key), "-"))
		if k.Key == "" {
			add("%s: empty key", what)
		}
		checkMods(what, k.Modifiers)
		checkExprs(what, k.Commands)
	}
	for _, m := range c.Mouse {
		what := fmt.Sprintf("mouse %s %s", m.Type, strings.Join(append(append([]string{}, m.Modifiers...), m.Button), "-"))
		if m.Type != "click" && m.Type != "drag" {
			add("%s: type must be click or drag", what)
		}
		checkMods(what, m.Modifiers)
		checkExprs(what, m.Commands)
		if m.Start != "" {
			if err := checkCall(m.Start); err != nil {
				add("%s start: %v", what, err)
			}
		}
	}

	if c.Log.Level != "" {
		if _, err := log.ParseLevel(c.Log.Level); err != nil {
			add("log: %v", err)
		}
	}

	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

func checkCall(expr string) error {
	e, err := command.ParseExpr(expr)
	if err != nil {
		return err
	}
	if !e.IsCall() {
		return fmt.Errorf("%q does not call a command", expr)
	}
	return nil
}

// LogConfig converts the log section for log.InitializeWithConfig.
func (c *Config) LogConfig() *log.LogConfig {
	lc := log.DefaultLogConfig()
	if c.Log.Level != "" {
		lc.Level = c.Log.Level
	}
	if c.Log.Enabled != nil {
		lc.LogsEnabled = *c.Log.Enabled
	}
	lc.LogsDir = c.Log.Dir
	lc.LogMaxSize = c.Log.MaxSize
	lc.LogMaxFiles = c.Log.MaxFiles
	lc.LogMaxAge = c.Log.MaxAge
	lc.LogCompress = c.Log.Compress
	return lc
}
