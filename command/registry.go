package command

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Handler runs a command with its bound arguments.
type Handler func(args *Args) (any, error)

// Kind is the value type a parameter accepts.
type Kind int

const (
	AnyKind Kind = iota
	StringKind
	IntKind
	BoolKind
	FloatKind
	StringsKind
)

func (k Kind) String() string {
	switch k {
	case StringKind:
		return "string"
	case IntKind:
		return "int"
	case BoolKind:
		return "bool"
	case FloatKind:
		return "float"
	case StringsKind:
		return "list of strings"
	default:
		return "any"
	}
}

// Param describes one parameter of a command.
type Param struct {
	Name     string
	Kind     Kind
	Default  any
	Optional bool
	Variadic bool
}

func (p Param) String() string {
	switch {
	case p.Variadic:
		return "*" + p.Name
	case p.Optional:
		return p.Name + "=" + formatDefault(p.Default)
	default:
		return p.Name
	}
}

func formatDefault(v any) string {
	switch t := v.(type) {
	case nil:
		return "None"
	case string:
		return fmt.Sprintf("%q", t)
	case bool:
		if t {
			return "True"
		}
		return "False"
	default:
		return fmt.Sprint(t)
	}
}

// Spec is the metadata record of a command: its name, parameter list and help
// text, registered next to the handler that implements it.
type Spec struct {
	Name        string
	Params      []Param
	Description string
	Handler     Handler
}

// Signature renders the call form, e.g. "three(a, b=99)".
func (s *Spec) Signature() string {
	params := make([]string, len(s.Params))
	for i, p := range s.Params {
		params[i] = p.String()
	}
	return fmt.Sprintf("%s(%s)", s.Name, strings.Join(params, ", "))
}

// Doc renders the signature followed by the help text.
func (s *Spec) Doc() string {
	return s.Signature() + "\n" + s.Description
}

// Registry is the table of commands an object exposes.
type Registry struct {
	specs map[string]*Spec
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{specs: make(map[string]*Spec)}
}

// Register adds a command and returns a builder for declaring its parameters.
func (r *Registry) Register(name string, handler Handler) *SpecBuilder {
	if name == "" {
		panic("command name cannot be empty")
	}
	if handler == nil {
		panic("command handler cannot be nil")
	}
	spec := &Spec{Name: name, Handler: handler}
	r.specs[name] = spec
	return &SpecBuilder{spec: spec}
}

// Get returns the named command.
func (r *Registry) Get(name string) (*Spec, bool) {
	if r == nil {
		return nil, false
	}
	s, ok := r.specs[name]
	return s, ok
}

// Names returns the registered command names, sorted.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	names := make([]string, 0, len(r.specs))
	for n := range r.specs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// SpecBuilder provides a fluent interface for describing a command.
type SpecBuilder struct {
	spec *Spec
}

// Arg declares a required positional parameter.
func (b *SpecBuilder) Arg(name string, kind Kind) *SpecBuilder {
	b.spec.Params = append(b.spec.Params, Param{Name: name, Kind: kind})
	return b
}

// OptArg declares an optional parameter with a default.
func (b *SpecBuilder) OptArg(name string, kind Kind, def any) *SpecBuilder {
	b.spec.Params = append(b.spec.Params, Param{Name: name, Kind: kind, Default: def, Optional: true})
	return b
}

// Rest declares a trailing parameter collecting extra positional arguments.
func (b *SpecBuilder) Rest(name string, kind Kind) *SpecBuilder {
	b.spec.Params = append(b.spec.Params, Param{Name: name, Kind: kind, Variadic: true, Optional: true})
	return b
}

// Doc sets the help text.
func (b *SpecBuilder) Doc(text string) *SpecBuilder {
	b.spec.Description = text
	return b
}

// Args holds the arguments of one invocation, bound to parameter names and
// converted to the declared kinds.
type Args struct {
	values map[string]any
	given  map[string]bool
	rest   []any
}

// Bind matches positional and keyword arguments against the parameter list.
// Mismatches are reported as command errors.
func (s *Spec) Bind(args []any, kwargs map[string]any) (*Args, error) {
	a := &Args{values: make(map[string]any), given: make(map[string]bool)}
	var variadic *Param
	fixed := make([]Param, 0, len(s.Params))
	for i := range s.Params {
		if s.Params[i].Variadic {
			variadic = &s.Params[i]
			continue
		}
		fixed = append(fixed, s.Params[i])
	}

	for i, v := range args {
		if i >= len(fixed) {
			if variadic == nil {
				return nil, Errorf("%s() takes %d positional arguments but %d were given", s.Name, len(fixed), len(args))
			}
			cv, err := convert(v, variadic.Kind)
			if err != nil {
				return nil, Errorf("%s() argument '%s': %v", s.Name, variadic.Name, err)
			}
			a.rest = append(a.rest, cv)
			continue
		}
		p := fixed[i]
		cv, err := convert(v, p.Kind)
		if err != nil {
			return nil, Errorf("%s() argument '%s': %v", s.Name, p.Name, err)
		}
		a.values[p.Name] = cv
		a.given[p.Name] = true
	}

	for k, v := range kwargs {
		p, ok := findParam(fixed, k)
		if !ok {
			return nil, Errorf("%s() got an unexpected keyword argument '%s'", s.Name, k)
		}
		if a.given[k] {
			return nil, Errorf("%s() got multiple values for argument '%s'", s.Name, k)
		}
		cv, err := convert(v, p.Kind)
		if err != nil {
			return nil, Errorf("%s() argument '%s': %v", s.Name, k, err)
		}
		a.values[k] = cv
		a.given[k] = true
	}

	for _, p := range fixed {
		if a.given[p.Name] {
			continue
		}
		if !p.Optional {
			return nil, Errorf("%s() missing required argument: '%s'", s.Name, p.Name)
		}
		a.values[p.Name] = p.Default
	}
	return a, nil
}

func findParam(params []Param, name string) (Param, bool) {
	for _, p := range params {
		if p.Name == name {
			return p, true
		}
	}
	return Param{}, false
}

func convert(v any, kind Kind) (any, error) {
	if v == nil {
		return nil, nil
	}
	switch kind {
	case StringKind:
		if s, ok := v.(string); ok {
			return s, nil
		}
	case IntKind:
		switch t := v.(type) {
		case int:
			return t, nil
		case int64:
			return int(t), nil
		case int32:
			return int(t), nil
		case uint32:
			return int(t), nil
		case float64:
			if t == float64(int(t)) {
				return int(t), nil
			}
		case json.Number:
			if i, err := t.Int64(); err == nil {
				return int(i), nil
			}
		}
	case BoolKind:
		if b, ok := v.(bool); ok {
			return b, nil
		}
	case FloatKind:
		switch t := v.(type) {
		case float64:
			return t, nil
		case int:
			return float64(t), nil
		case int64:
			return float64(t), nil
		case json.Number:
			if f, err := t.Float64(); err == nil {
				return f, nil
			}
		}
	case StringsKind:
		switch t := v.(type) {
		case []string:
			return t, nil
		case string:
			return []string{t}, nil
		case []any:
			out := make([]string, len(t))
			for i, e := range t {
				s, ok := e.(string)
				if !ok {
					return nil, fmt.Errorf("expected %s, got %T element", kind, e)
				}
				out[i] = s
			}
			return out, nil
		}
	default:
		return v, nil
	}
	return nil, fmt.Errorf("expected %s, got %T", kind, v)
}

// Has reports whether the parameter was passed by the caller.
func (a *Args) Has(name string) bool { return a.given[name] }

// Value returns the bound value, or nil.
func (a *Args) Value(name string) any { return a.values[name] }

// String returns a string parameter, or "" when unset.
func (a *Args) String(name string) string {
	s, _ := a.values[name].(string)
	return s
}

// Int returns an int parameter, or 0 when unset.
func (a *Args) Int(name string) int {
	i, _ := a.values[name].(int)
	return i
}

// Bool returns a bool parameter, or false when unset.
func (a *Args) Bool(name string) bool {
	b, _ := a.values[name].(bool)
	return b
}

// Float returns a float parameter, or 0 when unset.
func (a *Args) Float(name string) float64 {
	f, _ := a.values[name].(float64)
	return f
}

// Strings returns a list-of-strings parameter.
func (a *Args) Strings(name string) []string {
	s, _ := a.values[name].([]string)
	return s
}

// Rest returns the extra positional arguments collected by a Rest parameter.
func (a *Args) Rest() []any { return a.rest }
