package keys

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lavinder/command"
	"lavinder/config"
)

type focus struct {
	layout   string
	floating bool
	hasWin   bool
}

func (f focus) CurrentLayoutName() string { return f.layout }

func (f focus) CurrentWindowFloating() (bool, bool) { return f.floating, f.hasWin }

func TestModMask(t *testing.T) {
	mask, err := ModMask([]string{"mod4", "Shift"})
	require.NoError(t, err)
	assert.Equal(t, uint16(1<<6|1), mask)
	assert.Equal(t, []string{"shift", "mod4"}, ModNames(mask))

	_, err = ModMask([]string{"hyper"})
	assert.Error(t, err)
}

func TestFromDefaultConfig(t *testing.T) {
	table, err := FromConfig(config.DefaultConfig())
	require.NoError(t, err)

	k, err := table.Lookup([]string{"mod4"}, "k")
	require.NoError(t, err)
	require.Len(t, k.Commands, 1)
	assert.Equal(t, "layout", k.Commands[0].Path.String())
	assert.Equal(t, "down", k.Commands[0].Name)

	k, err = table.Lookup([]string{"shift", "mod4"}, "s")
	require.NoError(t, err)
	assert.Equal(t, "togroup", k.Commands[0].Name)
	assert.Equal(t, []any{"s"}, k.Commands[0].Args)

	_, err = table.Lookup([]string{"mod4"}, "F13")
	assert.Error(t, err)

	var drags int
	for _, m := range table.Mouse() {
		if m.Drag {
			drags++
			assert.NotNil(t, m.Start)
		}
	}
	assert.Equal(t, 2, drags)
}

func TestCompileGuard(t *testing.T) {
	no := false
	lc, err := Compile("layout.down()", &config.Guard{Layout: "stack", WhenFloating: &no})
	require.NoError(t, err)
	assert.Equal(t, "stack", lc.Layout())

	assert.True(t, lc.Check(focus{layout: "stack", hasWin: true}))
	assert.False(t, lc.Check(focus{layout: "stack", hasWin: true, floating: true}))
	assert.False(t, lc.Check(focus{layout: "max", hasWin: true}))

	lc, err = Compile("layout.up()", &config.Guard{Layout: "stack"})
	require.NoError(t, err)
	assert.True(t, lc.Check(focus{layout: "stack", hasWin: true, floating: true}))

	_, err = Compile("layout", nil)
	assert.Error(t, err)
	_, err = Compile("layout[1][2].up()", nil)
	var terr *command.TreeError
	assert.ErrorAs(t, err, &terr)
}

func TestLaterKeyReplacesEarlier(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Keys = []config.KeyConfig{
		{Modifiers: []string{"mod4"}, Key: "x", Commands: []string{"next_layout()"}},
		{Modifiers: []string{"mod4"}, Key: "x", Commands: []string{"prev_layout()"}},
	}
	table, err := FromConfig(cfg)
	require.NoError(t, err)
	require.Len(t, table.Keys(), 1)
	assert.Equal(t, "prev_layout", table.Keys()[0].Commands[0].Name)
}

func TestFormat(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Keys = []config.KeyConfig{
		{Modifiers: []string{"mod4"}, Key: "Return", Commands: []string{`spawn("xterm")`}, Desc: "terminal"},
		{Modifiers: []string{"mod4", "control"}, Key: "q", Commands: []string{"shutdown()"}},
	}
	table, err := FromConfig(cfg)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(table.Format()), "\n")
	require.Len(t, lines, 3)
	assert.True(t, strings.HasPrefix(lines[0], "KeySym"))
	assert.Contains(t, lines[1], "control-mod4-q")
	assert.Contains(t, lines[1], "shutdown()")
	assert.Contains(t, lines[2], `spawn("xterm")`)
	assert.True(t, strings.HasSuffix(lines[2], "terminal"))
}
