package command

// Category identifies a kind of node in the object graph.
type Category string

// The closed set of categories. Root is the implicit category of the top node.
const (
	Root   Category = ""
	Layout Category = "layout"
	Widget Category = "widget"
	Bar    Category = "bar"
	Window Category = "window"
	Screen Category = "screen"
	Group  Category = "group"
)

// Categories lists every selectable category in display order.
var Categories = []Category{Layout, Widget, Bar, Window, Screen, Group}

// containment is which categories a tree node of a given category may descend into.
var containment = map[Category][]Category{
	Layout: {Group, Window, Screen},
	Widget: {Bar, Screen, Group},
	Bar:    {Screen},
	Window: {Group, Screen, Layout},
	Screen: {Layout, Window, Bar},
	Group:  {Layout, Window, Screen},
	Root:   {Layout, Widget, Screen, Bar, Window, Group},
}

// ParseCategory returns the category named by s.
func ParseCategory(s string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == s {
			return c, true
		}
	}
	return Root, false
}

// Contains reports whether a node of category parent can hold child.
func (parent Category) Contains(child Category) bool {
	for _, c := range containment[parent] {
		if c == child {
			return true
		}
	}
	return false
}

// Children returns the categories reachable from parent, in table order.
func (parent Category) Children() []Category {
	out := make([]Category, len(containment[parent]))
	copy(out, containment[parent])
	return out
}

func (c Category) String() string {
	if c == Root {
		return "root"
	}
	return string(c)
}
