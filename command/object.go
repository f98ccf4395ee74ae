package command

import "sort"

// ItemList describes what an object holds under one category.
type ItemList struct {
	// RootOK is true when the category may be referenced without a selector,
	// for example "the current layout".
	RootOK bool
	// Selectors lists the live members. nil means the category has no
	// enumerable members at this node, so only the bare reference works.
	Selectors []Selector
}

// Contains reports whether sel is one of the listed selectors.
func (l ItemList) Contains(sel Selector) bool {
	for _, s := range l.Selectors {
		if s == sel {
			return true
		}
	}
	return false
}

// Values returns the selectors as plain values, or nil when the list is nil.
func (l ItemList) Values() []any {
	if l.Selectors == nil {
		return nil
	}
	out := make([]any, len(l.Selectors))
	for i, s := range l.Selectors {
		out[i] = s.Value()
	}
	return out
}

// Object is anything that exposes commands and can be reached by a path.
type Object interface {
	// Items reports what the object holds under c. ok is false when c is no
	// relationship of this object.
	Items(c Category) (list ItemList, ok bool)
	// Select returns the child for a pair already validated against Items,
	// or nil if that child has gone away since.
	Select(c Category, sel Selector) Object
	// Commands returns the object's own commands.
	Commands() *Registry
}

// Items queries o and maps "no such relationship" to (false, []).
func Items(o Object, c Category) ItemList {
	list, ok := o.Items(c)
	if !ok {
		return ItemList{RootOK: false, Selectors: []Selector{}}
	}
	return list
}

// Lookup finds a command on o, built-ins first.
func Lookup(o Object, name string) (*Spec, bool) {
	if s, ok := builtinSpec(o, name); ok {
		return s, true
	}
	return o.Commands().Get(name)
}

// CommandNames lists every command callable on o, sorted.
func CommandNames(o Object) []string {
	seen := make(map[string]bool)
	var names []string
	for _, n := range builtinNames {
		seen[n] = true
		names = append(names, n)
	}
	for _, n := range o.Commands().Names() {
		if !seen[n] {
			names = append(names, n)
		}
	}
	sort.Strings(names)
	return names
}
