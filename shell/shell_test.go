package shell

import (
	"bytes"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lavinder/command"
	"lavinder/config"
	"lavinder/manager"
)

func shConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Groups = []config.GroupConfig{{Name: "a"}, {Name: "b"}}
	cfg.Layouts = []config.LayoutConfig{{Type: "max"}}
	cfg.Screens = []config.ScreenConfig{{}}
	cfg.Keys = nil
	cfg.Mouse = nil
	return cfg
}

func newShell(t *testing.T) *Shell {
	t.Helper()
	m, err := manager.New(shConfig(), manager.NewHeadless(), manager.Options{})
	require.NoError(t, err)
	return New(command.Local(m.Dispatcher()))
}

func TestColumnize(t *testing.T) {
	assert.Equal(t, "one  two", Columnize([]string{"one", "two"}, DefaultWidth))
	assert.Equal(t, "one\ntwo", Columnize([]string{"one", "two"}, 1))
	assert.Equal(t, "one    two  \nthree  four \nfive ",
		Columnize([]string{"one", "two", "three", "four", "five"}, 15))
	assert.Equal(t, "", Columnize(nil, DefaultWidth))
}

func TestFindNode(t *testing.T) {
	sh := newShell(t)
	n, ok := sh.findNode(sh.current, "layout")
	require.True(t, ok)
	assert.Equal(t, "layout", pathString(n))

	n, ok = sh.findNode(n, "0")
	require.True(t, ok)
	assert.Equal(t, "layout[0]", pathString(n))

	n, ok = sh.findNode(n, "..")
	require.True(t, ok)
	assert.Equal(t, "layout", pathString(n))

	n, ok = sh.findNode(n, "0", "..")
	require.True(t, ok)
	assert.Equal(t, "layout", pathString(n))

	n, ok = sh.findNode(n, "..", "layout", "0")
	require.True(t, ok)
	assert.Equal(t, "layout[0]", pathString(n))

	_, ok = sh.findNode(n, "wibble")
	assert.False(t, ok)
	_, ok = sh.findNode(n, "..", "0", "wibble")
	assert.False(t, ok)

	n, ok = sh.findNode(sh.root, "group", "b", "layout", "0", "..", "..")
	require.True(t, ok)
	assert.Equal(t, "group[b]", pathString(n))
}

func TestCd(t *testing.T) {
	sh := newShell(t)
	assert.Equal(t, "layout", sh.Cd("layout"))
	assert.Equal(t, "No such path.", sh.Cd("0/wibble"))
	assert.Equal(t, "layout", sh.Path())
	assert.Equal(t, "layout[0]", sh.Cd("0/"))
	assert.Equal(t, "layout[0] > ", sh.Prompt())
	assert.Equal(t, "/", sh.Cd("/"))
	assert.Equal(t, "> ", sh.Prompt())
	assert.Equal(t, "group[a].window", sh.Cd("/group/a/window"))
	assert.Equal(t, "/", sh.Cd(""))
}

func TestLs(t *testing.T) {
	sh := newShell(t)
	assert.Equal(t, []string{"layout/", "widget/", "screen/", "bar/", "window/", "group/"},
		strings.Fields(sh.Ls("")))
	assert.Equal(t, []string{"layout/", "window/", "screen/", "a/", "b/"},
		strings.Fields(sh.Ls("group")))

	sh.Cd("layout")
	assert.Equal(t, []string{"group/", "window/", "screen/", "0/"}, strings.Fields(sh.Ls("")))
	assert.Equal(t, "No such path.", sh.Ls("wibble"))
}

func TestCall(t *testing.T) {
	sh := newShell(t)
	assert.Equal(t, "OK", sh.Call("status", ""))
	assert.Equal(t, "No such command.", sh.Call("nonexistent", ""))
	assert.True(t, strings.HasPrefix(sh.Call("status", "((("), "Syntax error"))
	assert.True(t, strings.HasPrefix(sh.Call("status", "(1)"), "Command error"))

	out, err := sh.Eval(`group["b"].info()`)
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "b"`)

	sh.Cd("group/a")
	out, err = sh.Eval(`set_label("main")`)
	require.NoError(t, err)
	assert.Equal(t, "", out)
	out, err = sh.Eval("info")
	require.NoError(t, err)
	assert.Contains(t, out, `"label": "main"`)
}

func TestComplete(t *testing.T) {
	sh := newShell(t)
	assert.Equal(t, []string{"cd", "commands", "critical"}, sh.Complete("c", "c"))
	assert.Equal(t, []string{"layout/"}, sh.Complete("cd l", "l"))
	assert.Equal(t, []string{"layout/group", "layout/window", "layout/screen", "layout/0"},
		sh.Complete("cd layout/", "layout/"))
	assert.Equal(t, []string{"layout/group/"}, sh.Complete("cd layout/", "layout/g"))
	assert.Equal(t, []string{"status"}, sh.Complete("help sta", "sta"))
	assert.Nil(t, sh.Complete("status(", ""))
}

func TestHelp(t *testing.T) {
	sh := newShell(t)
	assert.True(t, strings.HasPrefix(sh.Help("nonexistent"), "No such command"))
	assert.NotEmpty(t, sh.Help("help"))
	assert.Contains(t, sh.Help("status"), `Return "OK" if the manager is running.`)

	all := sh.Help("")
	assert.Contains(t, all, "Builtins")
	assert.Contains(t, all, "Commands for this object")
	assert.Contains(t, all, "shutdown")
}

func TestEvalExit(t *testing.T) {
	sh := newShell(t)
	for _, line := range []string{"exit", "quit", "  exit  "} {
		_, err := sh.Eval(line)
		assert.ErrorIs(t, err, ErrExit, line)
	}
	out, err := sh.Eval("   ")
	assert.NoError(t, err)
	assert.Equal(t, "", out)
}

func TestRunLines(t *testing.T) {
	sh := newShell(t)
	var out bytes.Buffer
	in := strings.NewReader("status\ncd layout\npwd\nnope\nexit\nstatus\n")
	require.NoError(t, RunLines(sh, in, &out))
	assert.Equal(t, "OK\nlayout\nlayout\nNo such command.\n", out.String())
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "", Format(nil))
	assert.Equal(t, "OK", Format("OK"))
	assert.Equal(t, "[\n  1,\n  \"a\"\n]", Format([]any{1, "a"}))
}

func typeText(m tea.Model, s string) tea.Model {
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
	return m
}

func TestModelCompletionAndHistory(t *testing.T) {
	var m tea.Model = newModel(newShell(t))

	m = typeText(m, "sta")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "status", m.(model).input.Value())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "", m.(model).input.Value())
	assert.Equal(t, []string{"status"}, m.(model).history)
	require.Len(t, m.(model).lines, 2)
	assert.Equal(t, "OK", m.(model).lines[1])

	m = typeText(m, "cd layout")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "layout > ", m.(model).input.Prompt)

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "cd layout", m.(model).input.Value())
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "status", m.(model).input.Value())
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyUp})
	assert.Equal(t, "status", m.(model).input.Value())
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, "", m.(model).input.Value())

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyCtrlL})
	assert.Empty(t, m.(model).lines)

	m = typeText(m, "exit")
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestModelListsCompletions(t *testing.T) {
	var m tea.Model = newModel(newShell(t))
	m = typeText(m, "cd layout/")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "cd layout/", m.(model).input.Value())
	require.Len(t, m.(model).lines, 1)
	assert.Contains(t, m.(model).lines[0], "layout/window")
}

func TestCommonPrefix(t *testing.T) {
	assert.Equal(t, "layout/", commonPrefix([]string{"layout/group", "layout/0"}))
	assert.Equal(t, "", commonPrefix([]string{"a", "b"}))
}

func TestModelSuggestsOnNoCompletion(t *testing.T) {
	var m tea.Model = newModel(newShell(t))
	m = typeText(m, "stts")
	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, "stts", m.(model).input.Value())
	require.Len(t, m.(model).lines, 1)
	assert.Contains(t, m.(model).lines[0], "Did you mean: ")
	assert.Contains(t, m.(model).lines[0], "status")

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Equal(t, "No such command.", m.(model).last)
}

func TestTruncatePrompt(t *testing.T) {
	assert.Equal(t, "group[a] > ", truncatePrompt("group[a] > ", 80))
	p := truncatePrompt("group[a].layout[0].screen[0].bar[top] > ", 20)
	assert.LessOrEqual(t, len([]rune(p)), 10)
	assert.True(t, strings.HasSuffix(p, "… "))
}
