package command

import "errors"

// fakeObject is a hand-wired graph node for exercising resolution and
// dispatch without a manager.
type fakeObject struct {
	name     string
	items    map[Category]ItemList
	children map[Step]*fakeObject
	cmds     *Registry
}

func newFake(name string) *fakeObject {
	return &fakeObject{
		name:     name,
		items:    make(map[Category]ItemList),
		children: make(map[Step]*fakeObject),
		cmds:     NewRegistry(),
	}
}

func (f *fakeObject) Items(c Category) (ItemList, bool) {
	l, ok := f.items[c]
	return l, ok
}

func (f *fakeObject) Select(c Category, sel Selector) Object {
	child := f.children[Step{Category: c, Selector: sel}]
	if child == nil {
		return nil
	}
	return child
}

func (f *fakeObject) Commands() *Registry { return f.cmds }

// add attaches child under (c, sel) and lists sel in the item list.
func (f *fakeObject) add(c Category, sel Selector, child *fakeObject) {
	l := f.items[c]
	if l.Selectors == nil {
		l.Selectors = []Selector{}
	}
	l.Selectors = append(l.Selectors, sel)
	f.items[c] = l
	f.children[Step{Category: c, Selector: sel}] = child
}

// setDefault makes child the bare reference for c.
func (f *fakeObject) setDefault(c Category, child *fakeObject) {
	l := f.items[c]
	l.RootOK = true
	if l.Selectors == nil {
		l.Selectors = []Selector{}
	}
	f.items[c] = l
	f.children[Step{Category: c}] = child
}

var errBoom = errors.New("boom: unexpected fault")

// testGraph builds a root with group "a" (empty, current layout "stack") and
// group "b" holding window 7.
//
//	root
//	├── group[a] ── layout (stack: up, down)
//	├── group[b] ── window[7]
//	└── layout   -> max layout (no down)
func testGraph() (root, a, b, stack, maxLayout *fakeObject) {
	root = newFake("root")
	a = newFake("a")
	b = newFake("b")
	stack = newFake("stack")
	maxLayout = newFake("max")
	win := newFake("win7")

	stack.cmds.Register("down", func(*Args) (any, error) { return "stack down", nil }).
		Doc("Go down in the stack.")
	stack.cmds.Register("up", func(*Args) (any, error) { return "stack up", nil })
	maxLayout.cmds.Register("next", func(*Args) (any, error) { return "max next", nil })
	maxLayout.cmds.Register("info", func(*Args) (any, error) {
		return map[string]any{"name": "max"}, nil
	})

	a.setDefault(Layout, stack)
	a.items[Window] = ItemList{RootOK: true, Selectors: []Selector{}}
	a.cmds.Register("info", func(*Args) (any, error) {
		return map[string]any{"name": "a"}, nil
	})

	b.add(Window, Index(7), win)
	win.cmds.Register("kill", func(*Args) (any, error) { return nil, nil })

	root.add(Group, Name("a"), a)
	root.add(Group, Name("b"), b)
	root.setDefault(Group, a)
	root.setDefault(Layout, maxLayout)
	root.items[Widget] = ItemList{RootOK: false, Selectors: nil}
	root.cmds.Register("togroup", func(args *Args) (any, error) {
		name := args.String("name")
		if name != "a" && name != "b" {
			return nil, Errorf("No such group: %s", name)
		}
		return name, nil
	}).Arg("name", StringKind)
	root.cmds.Register("three", func(args *Args) (any, error) {
		return []any{args.Value("a"), args.Int("b")}, nil
	}).Arg("a", AnyKind).OptArg("b", IntKind, 99).Doc("A command with three letters.")
	root.cmds.Register("fail", func(*Args) (any, error) { return nil, errBoom })
	root.cmds.Register("explode", func(*Args) (any, error) { panic("kaboom") })
	return root, a, b, stack, maxLayout
}
