package shell

import (
	"errors"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"lavinder/keys"
)

var (
	promptStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Bold(true)
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000"))
	hintStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

// shellKeys adapts the shell bindings to help.KeyMap.
type shellKeys struct{}

func (shellKeys) ShortHelp() []key.Binding  { return keys.ShellHelp() }
func (shellKeys) FullHelp() [][]key.Binding { return [][]key.Binding{keys.ShellHelp()} }

// model is the interactive shell: an output pane above an input line and a
// help line.
type model struct {
	sh     *Shell
	input  textinput.Model
	output viewport.Model
	help   help.Model
	lines  []string
	// last is the output of the last command, for copying.
	last string

	history []string
	// histPos indexes history while browsing; len(history) is the new line.
	histPos int
	width   int
}

func newModel(sh *Shell) model {
	ti := textinput.New()
	ti.Focus()
	ti.PromptStyle = promptStyle
	w := sh.width()
	ti.Prompt = truncatePrompt(sh.Prompt(), w)
	return model{
		sh:     sh,
		input:  ti,
		output: viewport.New(w, 20),
		help:   help.New(),
		width:  w,
	}
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.sh.Width = func() int { return msg.Width }
		m.output.Width = msg.Width
		m.output.Height = max(msg.Height-2, 1)
		m.help.Width = msg.Width
		m.output.GotoBottom()
		return m, nil
	case tea.KeyMsg:
		name, ok := keys.GlobalKeyStringsMap[msg.String()]
		if !ok {
			break
		}
		switch name {
		case keys.KeyQuit:
			return m, tea.Quit
		case keys.KeySubmit:
			return m.submit()
		case keys.KeyComplete:
			return m.complete(), nil
		case keys.KeyHistoryUp:
			m.browse(-1)
		case keys.KeyHistoryDown:
			m.browse(1)
		case keys.KeyScrollUp:
			m.output.ViewUp()
		case keys.KeyScrollDown:
			m.output.ViewDown()
		case keys.KeyClear:
			m.lines = nil
			m.output.SetContent("")
		case keys.KeyCopy:
			if err := clipboard.WriteAll(m.last); err != nil {
				m.print(errorStyle.Render("Error: " + err.Error()))
			}
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *model) print(s string) {
	m.lines = append(m.lines, s)
	m.output.SetContent(strings.Join(m.lines, "\n"))
	m.output.GotoBottom()
}

func (m model) submit() (tea.Model, tea.Cmd) {
	line := m.input.Value()
	m.print(promptStyle.Render(m.sh.Prompt()) + line)
	if strings.TrimSpace(line) != "" {
		m.history = append(m.history, line)
	}
	m.histPos = len(m.history)
	m.input.SetValue("")

	out, err := m.sh.Eval(line)
	if errors.Is(err, ErrExit) {
		return m, tea.Quit
	}
	m.input.Prompt = m.prompt()
	m.last = out
	if out != "" {
		m.print(styleOutput(out))
	}
	return m, nil
}

// truncatePrompt keeps deep paths from taking more than half the line.
func truncatePrompt(p string, width int) string {
	if runewidth.StringWidth(p) <= width/2 {
		return p
	}
	return runewidth.Truncate(p, width/2, "… ")
}

func (m model) prompt() string {
	return truncatePrompt(m.sh.Prompt(), m.width)
}

func styleOutput(out string) string {
	for _, prefix := range []string{"No such", "Syntax error", "Command error", "Command exception", "Error:"} {
		if strings.HasPrefix(out, prefix) {
			return errorStyle.Render(out)
		}
	}
	return out
}

// complete replaces the last word with its completion, or lists the
// candidates when there are several.
func (m model) complete() model {
	buf := m.input.Value()
	arg := buf[strings.LastIndex(buf, " ")+1:]
	options := m.sh.Complete(buf, arg)
	switch len(options) {
	case 0:
		if guesses := m.sh.Suggest(arg); len(guesses) > 0 {
			m.print(hintStyle.Render("Did you mean: " + strings.Join(guesses, ", ")))
		}
		return m
	case 1:
		m.input.SetValue(buf[:len(buf)-len(arg)] + options[0])
		m.input.CursorEnd()
		return m
	}
	if p := commonPrefix(options); len(p) > len(arg) {
		m.input.SetValue(buf[:len(buf)-len(arg)] + p)
		m.input.CursorEnd()
	}
	m.print(hintStyle.Render(Columnize(options, m.width)))
	return m
}

func commonPrefix(options []string) string {
	p := options[0]
	for _, o := range options[1:] {
		for !strings.HasPrefix(o, p) {
			p = p[:len(p)-1]
		}
	}
	return p
}

func (m *model) browse(delta int) {
	pos := m.histPos + delta
	if pos < 0 || pos > len(m.history) {
		return
	}
	m.histPos = pos
	if pos == len(m.history) {
		m.input.SetValue("")
	} else {
		m.input.SetValue(m.history[pos])
	}
	m.input.CursorEnd()
}

func (m model) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		m.output.View(),
		m.input.View(),
		m.help.View(shellKeys{}),
	)
}
