package command

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

type selectorKind uint8

const (
	kindNone selectorKind = iota
	kindName
	kindIndex
)

// Selector picks one instance within a category. The zero value is the absent
// selector, meaning "the current one".
type Selector struct {
	kind  selectorKind
	name  string
	index int
}

// None is the absent selector.
var None = Selector{}

// Name returns a selector for a named instance, e.g. a group or widget.
func Name(s string) Selector {
	return Selector{kind: kindName, name: s}
}

// Index returns a selector for a numbered instance, e.g. a screen or window id.
func Index(i int) Selector {
	return Selector{kind: kindIndex, index: i}
}

// SelectorOf converts a plain value into a selector. nil, strings and integral
// numbers are accepted.
func SelectorOf(v any) (Selector, error) {
	switch t := v.(type) {
	case nil:
		return None, nil
	case Selector:
		return t, nil
	case string:
		return Name(t), nil
	case int:
		return Index(t), nil
	case int64:
		return Index(int(t)), nil
	case int32:
		return Index(int(t)), nil
	case uint32:
		return Index(int(t)), nil
	case float64:
		if t != float64(int(t)) {
			return None, fmt.Errorf("selector %v is not an integer", t)
		}
		return Index(int(t)), nil
	case json.Number:
		i, err := t.Int64()
		if err != nil {
			return None, fmt.Errorf("selector %s is not an integer", t)
		}
		return Index(int(i)), nil
	}
	return None, fmt.Errorf("unsupported selector type %T", v)
}

// IsNone reports whether the selector is absent.
func (s Selector) IsNone() bool { return s.kind == kindNone }

// AsName returns the name and whether s is a name selector.
func (s Selector) AsName() (string, bool) { return s.name, s.kind == kindName }

// AsIndex returns the index and whether s is an index selector.
func (s Selector) AsIndex() (int, bool) { return s.index, s.kind == kindIndex }

// Value returns nil, a string or an int.
func (s Selector) Value() any {
	switch s.kind {
	case kindName:
		return s.name
	case kindIndex:
		return s.index
	}
	return nil
}

func (s Selector) String() string {
	switch s.kind {
	case kindName:
		return s.name
	case kindIndex:
		return strconv.Itoa(s.index)
	}
	return ""
}

// Equal reports whether two selectors pick the same instance.
func (s Selector) Equal(o Selector) bool { return s == o }

func (s Selector) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Value())
}

func (s *Selector) UnmarshalJSON(b []byte) error {
	dec := json.NewDecoder(strings.NewReader(string(b)))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return err
	}
	sel, err := SelectorOf(v)
	if err != nil {
		return err
	}
	*s = sel
	return nil
}

// Names converts a list of strings into name selectors.
func Names(names ...string) []Selector {
	out := make([]Selector, len(names))
	for i, n := range names {
		out[i] = Name(n)
	}
	return out
}

// Indexes converts a list of ints into index selectors.
func Indexes(idx ...int) []Selector {
	out := make([]Selector, len(idx))
	for i, n := range idx {
		out[i] = Index(n)
	}
	return out
}

// Step is one (category, selector) element of a Path.
type Step struct {
	Category Category
	Selector Selector
}

func (s Step) String() string {
	if s.Selector.IsNone() {
		return string(s.Category)
	}
	return fmt.Sprintf("%s[%s]", s.Category, s.Selector)
}

func (s Step) MarshalJSON() ([]byte, error) {
	return json.Marshal([]any{string(s.Category), s.Selector.Value()})
}

func (s *Step) UnmarshalJSON(b []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(b, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("path step must have 2 elements, got %d", len(pair))
	}
	var name string
	if err := json.Unmarshal(pair[0], &name); err != nil {
		return fmt.Errorf("path step category: %w", err)
	}
	c, ok := ParseCategory(name)
	if !ok {
		return fmt.Errorf("unknown category %q", name)
	}
	var sel Selector
	if err := sel.UnmarshalJSON(pair[1]); err != nil {
		return fmt.Errorf("path step selector: %w", err)
	}
	*s = Step{Category: c, Selector: sel}
	return nil
}

// Path locates a node from the root. The empty path is the root itself.
// Paths are values: Append never modifies the receiver.
type Path []Step

// Append returns a new path with (c, sel) added at the end.
func (p Path) Append(c Category, sel Selector) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, Step{Category: c, Selector: sel})
}

// String formats the path as catA[selA].catB[selB] for diagnostics.
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, s := range p {
		parts[i] = s.String()
	}
	return strings.Join(parts, ".")
}

// Equal reports whether two paths hold the same steps.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if p[i] != o[i] {
			return false
		}
	}
	return true
}
