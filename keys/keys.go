package keys

import (
	"github.com/charmbracelet/bubbles/key"
)

// KeyName identifies a key action of the interactive shell.
type KeyName int

const (
	KeySubmit KeyName = iota
	KeyComplete
	KeyHistoryUp
	KeyHistoryDown
	KeyScrollUp   // Scroll the output up one page.
	KeyScrollDown // Scroll the output down one page.
	KeyClear
	KeyCopy // Copy the last output to the clipboard.
	KeyQuit
)

// GlobalKeyStringsMap is a global, immutable map string to keybinding.
var GlobalKeyStringsMap = map[string]KeyName{
	"enter":  KeySubmit,
	"tab":    KeyComplete,
	"up":     KeyHistoryUp,
	"ctrl+p": KeyHistoryUp,
	"down":   KeyHistoryDown,
	"ctrl+n": KeyHistoryDown,
	"pgup":   KeyScrollUp,
	"ctrl+u": KeyScrollUp,
	"pgdown": KeyScrollDown,
	"ctrl+d": KeyScrollDown,
	"ctrl+l": KeyClear,
	"ctrl+y": KeyCopy,
	"ctrl+c": KeyQuit,
}

// GlobalkeyBindings is a global, immutable map of KeyName to keybinding.
var GlobalkeyBindings = map[KeyName]key.Binding{
	KeySubmit: key.NewBinding(
		key.WithKeys("enter"),
		key.WithHelp("↵", "run"),
	),
	KeyComplete: key.NewBinding(
		key.WithKeys("tab"),
		key.WithHelp("tab", "complete"),
	),
	KeyHistoryUp: key.NewBinding(
		key.WithKeys("up", "ctrl+p"),
		key.WithHelp("↑/^p", "previous"),
	),
	KeyHistoryDown: key.NewBinding(
		key.WithKeys("down", "ctrl+n"),
		key.WithHelp("↓/^n", "next"),
	),
	KeyScrollUp: key.NewBinding(
		key.WithKeys("pgup", "ctrl+u"),
		key.WithHelp("pgup/^u", "scroll up"),
	),
	KeyScrollDown: key.NewBinding(
		key.WithKeys("pgdown", "ctrl+d"),
		key.WithHelp("pgdn/^d", "scroll down"),
	),
	KeyClear: key.NewBinding(
		key.WithKeys("ctrl+l"),
		key.WithHelp("^l", "clear"),
	),
	KeyCopy: key.NewBinding(
		key.WithKeys("ctrl+y"),
		key.WithHelp("^y", "copy output"),
	),
	KeyQuit: key.NewBinding(
		key.WithKeys("ctrl+c"),
		key.WithHelp("^c", "quit"),
	),
}

// ShellHelp returns the bindings shown in the shell's help line.
func ShellHelp() []key.Binding {
	return []key.Binding{
		GlobalkeyBindings[KeySubmit],
		GlobalkeyBindings[KeyComplete],
		GlobalkeyBindings[KeyHistoryUp],
		GlobalkeyBindings[KeyScrollUp],
		GlobalkeyBindings[KeyCopy],
		GlobalkeyBindings[KeyQuit],
	}
}
