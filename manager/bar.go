package manager

import (
	"time"

	"github.com/lestrrat-go/strftime"

	"lavinder/command"
	"lavinder/config"
	"lavinder/log"
)

// Bar is a strip along one edge of a screen holding widgets. Drawing is left
// to the backend; the manager only tracks the space it takes.
type Bar struct {
	screen   *Screen
	position string
	size     int
	widgets  []*Widget

	cmds *command.Registry
}

func newBar(s *Screen, position string, bc *config.BarConfig) *Bar {
	b := &Bar{screen: s, position: position, size: bc.Size}
	b.cmds = command.NewRegistry()
	b.cmds.Register("info", func(*command.Args) (any, error) {
		return b.info(), nil
	}).Doc("Returns a dictionary of info for this bar.")
	return b
}

func (b *Bar) Commands() *command.Registry { return b.cmds }

func (b *Bar) Items(c command.Category) (command.ItemList, bool) {
	if c == command.Screen {
		return command.ItemList{RootOK: true}, true
	}
	return command.ItemList{}, false
}

func (b *Bar) Select(c command.Category, sel command.Selector) command.Object {
	if c == command.Screen {
		return b.screen
	}
	return nil
}

func (b *Bar) horizontal() bool { return b.position == "top" || b.position == "bottom" }

func (b *Bar) info() map[string]any {
	width, height := b.size, b.screen.geom.Height
	if b.horizontal() {
		width, height = b.screen.geom.Width, b.size
	}
	widgets := make([]any, len(b.widgets))
	for i, w := range b.widgets {
		widgets[i] = w.info()
	}
	return map[string]any{
		"position": b.position,
		"size":     b.size,
		"width":    width,
		"height":   height,
		"screen":   b.screen.index,
		"widgets":  widgets,
	}
}

// Widget is an element of a bar. Its text is what the backend renders.
type Widget struct {
	m      *Manager
	bar    *Bar
	name   string
	kind   string
	text   string
	format string
	length int

	cmds *command.Registry
}

func newWidget(m *Manager, b *Bar, name string, wc config.WidgetConfig) *Widget {
	w := &Widget{m: m, bar: b, name: name, kind: wc.Type, text: wc.Text, format: wc.Format, length: wc.Length}
	w.cmds = w.registry()
	return w
}

func (w *Widget) Commands() *command.Registry { return w.cmds }

func (w *Widget) Items(c command.Category) (command.ItemList, bool) {
	switch c {
	case command.Bar, command.Screen, command.Group:
		return command.ItemList{RootOK: true}, true
	}
	return command.ItemList{}, false
}

func (w *Widget) Select(c command.Category, sel command.Selector) command.Object {
	switch c {
	case command.Bar:
		return w.bar
	case command.Screen:
		return w.bar.screen
	case command.Group:
		return w.bar.screen.group
	}
	return nil
}

// Text returns what the widget currently shows.
func (w *Widget) Text() string {
	switch w.kind {
	case "windowname":
		if g := w.bar.screen.group; g != nil && g.current != nil {
			return g.current.name
		}
		return ""
	case "groupbox":
		var s string
		for _, g := range w.m.groups {
			label := g.label
			if label == "" {
				label = g.name
			}
			if g == w.bar.screen.group {
				label = "[" + label + "]"
			}
			s += label + " "
		}
		return s
	case "clock":
		return clockText(w.format, w.m.now())
	}
	return w.text
}

func (w *Widget) info() map[string]any {
	return map[string]any{
		"name":   w.name,
		"type":   w.kind,
		"text":   w.Text(),
		"length": w.length,
		"bar":    w.bar.position,
	}
}

func (w *Widget) registry() *command.Registry {
	r := command.NewRegistry()
	r.Register("info", func(*command.Args) (any, error) {
		return w.info(), nil
	}).Doc("Returns a dictionary of info for this widget.")
	if w.kind != "textbox" {
		return r
	}
	r.Register("update", func(a *command.Args) (any, error) {
		w.text = a.String("text")
		return nil, nil
	}).Arg("text", command.StringKind).Doc("Update the displayed text.")
	r.Register("get", func(*command.Args) (any, error) {
		return w.text, nil
	}).Doc("Retrieve the text in the textbox.")
	return r
}

// clockText formats t with a strftime pattern. A bad pattern is shown as is.
func clockText(format string, t time.Time) string {
	if format == "" {
		format = config.DefaultClockFormat
	}
	text, err := strftime.Format(format, t)
	if err != nil {
		log.WarningLog.Printf("clock format %q: %v", format, err)
		return format
	}
	return text
}
