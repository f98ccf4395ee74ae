// Package shell is an interactive shell over the command graph of a running
// manager. The current position is a node of the command tree; cd and ls
// move around it and any other word is a command called at that node.
package shell

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/muesli/ansi"
	"github.com/muesli/reflow/wordwrap"

	"lavinder/command"
)

// ErrExit is returned by Eval when the user asks to leave the shell.
var ErrExit = errors.New("exit")

// DefaultWidth is used when the terminal width is unknown.
const DefaultWidth = 80

var builtinNames = []string{"cd", "exit", "help", "ls", "pwd", "quit"}

var builtinDocs = map[string]string{
	"cd":   "cd PATH\n\nChange to an object path. \"..\" goes up one level, \"/\" to the root.",
	"exit": "exit\n\nLeave the shell.",
	"help": "help [COMMAND]\n\nList the commands of the current object, or show the documentation of one.",
	"ls":   "ls [PATH]\n\nList the objects contained by the current object or by PATH.",
	"pwd":  "pwd\n\nPrint the current object path.",
	"quit": "quit\n\nLeave the shell.",
}

// Shell holds the navigation state. It is not safe for concurrent use.
type Shell struct {
	root    command.Node
	current command.Node
	// Width returns the terminal width used to lay out listings.
	Width func() int
}

// New returns a shell positioned at root.
func New(root command.Node) *Shell {
	return &Shell{root: root, current: root}
}

func (s *Shell) width() int {
	if s.Width != nil {
		if w := s.Width(); w > 0 {
			return w
		}
	}
	return DefaultWidth
}

// Path returns the path of the current node, "/" at the root.
func (s *Shell) Path() string {
	return pathString(s.current)
}

func pathString(n command.Node) string {
	if p := n.Path().String(); p != "" {
		return p
	}
	return "/"
}

// Prompt is shown before each input line.
func (s *Shell) Prompt() string {
	if s.current.Category() == command.Root {
		return "> "
	}
	return s.Path() + " > "
}

// Eval runs one input line and returns the text to show. It returns ErrExit
// for exit and quit.
func (s *Shell) Eval(line string) (string, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return "", nil
	}
	name, rest := splitCommand(line)
	switch name {
	case "cd":
		return s.Cd(rest), nil
	case "ls":
		return s.Ls(rest), nil
	case "pwd":
		return s.Path(), nil
	case "help":
		return s.Help(rest), nil
	case "exit", "quit":
		return "", ErrExit
	}
	if strings.ContainsAny(name, ".[") {
		return s.callExpr(line), nil
	}
	return s.Call(name, rest), nil
}

// splitCommand separates the first word from its arguments. A call written
// as name(args) splits before the parenthesis.
func splitCommand(line string) (string, string) {
	i := strings.IndexAny(line, " (")
	if i < 0 {
		return line, ""
	}
	if line[i] == '(' && strings.ContainsAny(line[:i], "[") {
		return line, ""
	}
	return line[:i], strings.TrimSpace(line[i:])
}

// parent returns the node one level above n. The root is its own parent.
func (s *Shell) parent(n command.Node) command.Node {
	p := n.Path()
	if len(p) == 0 {
		return s.root
	}
	last := p[len(p)-1]
	if !last.Selector.IsNone() {
		p = append(p[:len(p)-1:len(p)-1], command.Step{Category: last.Category})
	} else {
		p = p[:len(p)-1]
	}
	return s.walk(p)
}

// walk rebuilds the node at p starting from the root.
func (s *Shell) walk(p command.Path) command.Node {
	n := s.root
	for _, step := range p {
		n, _ = n.Descend(step.Category)
		if !step.Selector.IsNone() {
			n, _ = n.Index(step.Selector)
		}
	}
	return n
}

// items returns the selectable members of an unselected category node.
func (s *Shell) items(n command.Node) []any {
	if n.Category() == command.Root || !n.Selector().IsNone() {
		return nil
	}
	v, err := s.parent(n).Cmd("items").Call(string(n.Category()))
	if err != nil {
		return nil
	}
	pair, ok := v.([]any)
	if !ok || len(pair) != 2 {
		return nil
	}
	vals, _ := pair[1].([]any)
	return vals
}

// children lists what can be navigated to from n: contained categories,
// then members when n is an unselected category.
func (s *Shell) children(n command.Node) []string {
	var out []string
	for _, c := range n.Category().Children() {
		out = append(out, string(c))
	}
	for _, v := range s.items(n) {
		out = append(out, fmt.Sprint(v))
	}
	return out
}

// findNode follows parts from src. Empty parts are skipped; ".." goes up.
func (s *Shell) findNode(src command.Node, parts ...string) (command.Node, bool) {
	n := src
	for _, part := range parts {
		switch part {
		case "":
			continue
		case "..":
			n = s.parent(n)
			continue
		}
		next, ok := s.step(n, part)
		if !ok {
			return command.Node{}, false
		}
		n = next
	}
	return n, true
}

func (s *Shell) step(n command.Node, part string) (command.Node, bool) {
	for _, v := range s.items(n) {
		if fmt.Sprint(v) != part {
			continue
		}
		sel, err := command.SelectorOf(v)
		if err != nil {
			return command.Node{}, false
		}
		m, err := n.Index(sel)
		return m, err == nil
	}
	if c, ok := command.ParseCategory(part); ok && n.Category().Contains(c) {
		m, err := n.Descend(c)
		return m, err == nil
	}
	return command.Node{}, false
}

// findPath resolves a slash separated path, absolute when it starts with "/".
func (s *Shell) findPath(path string) (command.Node, bool) {
	start := s.current
	if strings.HasPrefix(path, "/") {
		start = s.root
	}
	return s.findNode(start, strings.Split(path, "/")...)
}

// Cd changes the current node and returns its path.
func (s *Shell) Cd(path string) string {
	if path == "" {
		path = "/"
	}
	n, ok := s.findPath(path)
	if !ok {
		return "No such path."
	}
	s.current = n
	return s.Path()
}

// Ls lists the children of the current node or of path.
func (s *Shell) Ls(path string) string {
	n := s.current
	if path != "" {
		var ok bool
		if n, ok = s.findPath(path); !ok {
			return "No such path."
		}
	}
	names := s.children(n)
	for i := range names {
		names[i] += "/"
	}
	return Columnize(names, s.width())
}

func (s *Shell) commands() []string {
	v, err := s.current.Cmd("commands").Call()
	if err != nil {
		return nil
	}
	var out []string
	switch t := v.(type) {
	case []string:
		out = t
	case []any:
		for _, e := range t {
			out = append(out, fmt.Sprint(e))
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, e := range list {
		if e == s {
			return true
		}
	}
	return false
}

// Call runs the command name at the current node. args is empty or a
// parenthesized argument list such as ("a", toggle=True).
func (s *Shell) Call(name, args string) string {
	if !contains(s.commands(), name) {
		return "No such command."
	}
	expr, err := command.ParseExprFrom(s.current, name+args)
	if err != nil {
		return "Syntax error: " + err.Error()
	}
	return s.run(expr)
}

func (s *Shell) callExpr(line string) string {
	expr, err := command.ParseExprFrom(s.current, line)
	if err != nil {
		return "Syntax error: " + err.Error()
	}
	if !expr.IsCall() {
		return "Not a command: " + line
	}
	return s.run(expr)
}

func (s *Shell) run(expr command.Expr) string {
	n := s.walk(expr.Path)
	v, err := n.Cmd(expr.Name).CallKw(expr.Kwargs, expr.Args...)
	var cerr *command.CommandError
	var exc *command.CommandException
	switch {
	case errors.As(err, &cerr):
		return "Command error: " + cerr.Message
	case errors.As(err, &exc):
		return "Command exception: " + exc.Trace
	case err != nil:
		return "Error: " + err.Error()
	}
	return Format(v)
}

// Help lists the builtins and commands of the current node, or documents one.
func (s *Shell) Help(name string) string {
	cmds := s.commands()
	if name == "" {
		lines := []string{
			"help command",
			"   Help on a specific command.",
			"",
			"Builtins",
			"========",
			Columnize(builtinNames, s.width()),
		}
		if len(cmds) > 0 {
			lines = append(lines, "", "Commands for this object", "========================", Columnize(cmds, s.width()))
		}
		return strings.Join(lines, "\n")
	}
	if doc, ok := builtinDocs[name]; ok {
		return doc
	}
	if contains(cmds, name) {
		v, err := s.current.Cmd("doc").Call(name)
		if err != nil {
			return "Error: " + err.Error()
		}
		return wordwrap.String(fmt.Sprint(v), s.width())
	}
	return "No such command: " + name
}

// Complete returns the candidates for the word arg at the end of buf.
// Command names are completed in first position or after help; paths after
// cd and ls. A single path match gets a trailing slash.
func (s *Shell) Complete(buf, arg string) []string {
	if !strings.ContainsAny(buf, " (") || strings.HasPrefix(buf, "help ") {
		var out []string
		for _, c := range append(append([]string{}, builtinNames...), s.commands()...) {
			if strings.HasPrefix(c, arg) && !contains(out, c) {
				out = append(out, c)
			}
		}
		return out
	}
	if !strings.HasPrefix(buf, "cd ") && !strings.HasPrefix(buf, "ls ") {
		return nil
	}
	cut := strings.LastIndex(arg, "/") + 1
	dir, last := arg[:cut], arg[cut:]
	n, ok := s.findPath(dir)
	if !ok {
		return nil
	}
	var out []string
	for _, c := range s.children(n) {
		if strings.HasPrefix(c, last) {
			out = append(out, dir+c)
		}
	}
	if len(out) == 1 {
		out[0] += "/"
	}
	return out
}

// Columnize lays out names in as many columns as fit in width, row by row.
// Widths are measured on printable cells, so styled names line up.
func Columnize(names []string, width int) string {
	if len(names) == 0 {
		return ""
	}
	widest := 0
	for _, n := range names {
		widest = max(widest, ansi.PrintableRuneWidth(n))
	}
	cols := width / (widest + 2)
	if cols < 1 {
		cols = 1
	}
	rows := (len(names)-1)/cols + 1
	lines := make([]string, 0, rows)
	for r := 0; r < rows; r++ {
		end := min((r+1)*cols, len(names))
		row := make([]string, 0, cols)
		for _, n := range names[r*cols : end] {
			row = append(row, n+strings.Repeat(" ", widest-ansi.PrintableRuneWidth(n)))
		}
		lines = append(lines, strings.Join(row, "  "))
	}
	return strings.Join(lines, "\n")
}

// Format renders a command result: strings as they are, nil as nothing and
// anything else as indented JSON.
func Format(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	}
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(b)
}
