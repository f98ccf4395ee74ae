package command

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Expr is the parsed form of a command expression such as
//
//	group["a"].layout[2].info()
//	window.togroup("b")
//	layout.down
//
// Name is empty when the expression is a bare path.
type Expr struct {
	Path   Path
	Name   string
	Args   []any
	Kwargs map[string]any
}

// IsCall reports whether the expression names a command.
func (e Expr) IsCall() bool { return e.Name != "" }

func (e Expr) String() string {
	var b strings.Builder
	b.WriteString(e.Path.String())
	if !e.IsCall() {
		return b.String()
	}
	if len(e.Path) > 0 {
		b.WriteByte('.')
	}
	b.WriteString(e.Name)
	b.WriteByte('(')
	for i, a := range e.Args {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(formatLiteral(a))
	}
	first := len(e.Args) == 0
	for _, k := range sortedKeys(e.Kwargs) {
		if !first {
			b.WriteString(", ")
		}
		first = false
		b.WriteString(k + "=" + formatLiteral(e.Kwargs[k]))
	}
	b.WriteByte(')')
	return b.String()
}

// ParseExpr parses an expression relative to the tree root.
func ParseExpr(s string) (Expr, error) {
	return ParseExprFrom(NewRoot(nil), s)
}

// ParseExprFrom parses an expression relative to start. The returned path
// includes the path of start. Tree rules apply exactly as for the builder, so
// e.g. indexing the same category twice is rejected.
func ParseExprFrom(start Node, s string) (Expr, error) {
	p := &exprParser{src: s}
	n := start
	var expr Expr
	for {
		p.skipSpace()
		ident := p.ident()
		if ident == "" {
			return Expr{}, p.errorf("expected a name")
		}
		child, cmd, isNode := n.Attr(ident)
		if !isNode {
			expr.Name = cmd.Name()
			expr.Path = cmd.Path()
			if cmd.Err() != nil {
				return Expr{}, cmd.Err()
			}
			break
		}
		n = child
		// Every bracket goes through Index, so a second one fails as it
		// would in the builder.
		for p.peek() == '[' {
			p.pos++
			v, err := p.literal("]")
			if err != nil {
				return Expr{}, err
			}
			if !p.consume(']') {
				return Expr{}, p.errorf("expected ']'")
			}
			sel, err := SelectorOf(v)
			if err != nil {
				return Expr{}, p.errorf("%v", err)
			}
			if n, err = n.Index(sel); err != nil {
				return Expr{}, err
			}
		}
		p.skipSpace()
		if p.eof() {
			return Expr{Path: n.Path()}, nil
		}
		if !p.consume('.') {
			return Expr{}, p.errorf("expected '.'")
		}
	}

	p.skipSpace()
	if p.consume('(') {
		args, kwargs, err := p.arguments()
		if err != nil {
			return Expr{}, err
		}
		expr.Args, expr.Kwargs = args, kwargs
	}
	p.skipSpace()
	if !p.eof() {
		return Expr{}, p.errorf("unexpected %q", p.src[p.pos:])
	}
	return expr, nil
}

type exprParser struct {
	src string
	pos int
}

func (p *exprParser) errorf(format string, args ...any) error {
	return &TreeError{Message: fmt.Sprintf("parse error at offset %d of %q: %s", p.pos, p.src, fmt.Sprintf(format, args...))}
}

func (p *exprParser) eof() bool { return p.pos >= len(p.src) }

func (p *exprParser) peek() byte {
	if p.eof() {
		return 0
	}
	return p.src[p.pos]
}

func (p *exprParser) consume(c byte) bool {
	p.skipSpace()
	if p.peek() == c {
		p.pos++
		return true
	}
	return false
}

func (p *exprParser) skipSpace() {
	for !p.eof() && (p.src[p.pos] == ' ' || p.src[p.pos] == '\t') {
		p.pos++
	}
}

func isIdentByte(c byte, first bool) bool {
	switch {
	case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		return true
	case c >= '0' && c <= '9':
		return !first
	}
	return false
}

func (p *exprParser) ident() string {
	start := p.pos
	for !p.eof() && isIdentByte(p.src[p.pos], p.pos == start) {
		p.pos++
	}
	return p.src[start:p.pos]
}

func (p *exprParser) arguments() ([]any, map[string]any, error) {
	var args []any
	var kwargs map[string]any
	if p.consume(')') {
		return args, kwargs, nil
	}
	for {
		p.skipSpace()
		save := p.pos
		if key := p.ident(); key != "" && p.consume('=') {
			v, err := p.literal(",)")
			if err != nil {
				return nil, nil, err
			}
			if kwargs == nil {
				kwargs = make(map[string]any)
			}
			kwargs[key] = v
		} else {
			p.pos = save
			if kwargs != nil {
				return nil, nil, p.errorf("positional argument follows keyword argument")
			}
			v, err := p.literal(",)")
			if err != nil {
				return nil, nil, err
			}
			args = append(args, v)
		}
		if p.consume(')') {
			return args, kwargs, nil
		}
		if !p.consume(',') {
			return nil, nil, p.errorf("expected ',' or ')'")
		}
	}
}

// literal parses a string, number, boolean, null, list, or a bare word that
// runs up to one of the terminator bytes.
func (p *exprParser) literal(terminators string) (any, error) {
	p.skipSpace()
	switch c := p.peek(); {
	case c == '"' || c == '\'':
		return p.quoted(c)
	case c == '[':
		p.pos++
		var list []any
		if p.consume(']') {
			return []any{}, nil
		}
		for {
			v, err := p.literal(",]")
			if err != nil {
				return nil, err
			}
			list = append(list, v)
			if p.consume(']') {
				return list, nil
			}
			if !p.consume(',') {
				return nil, p.errorf("expected ',' or ']'")
			}
		}
	}
	start := p.pos
	for !p.eof() && !strings.ContainsRune(terminators, rune(p.src[p.pos])) {
		p.pos++
	}
	word := strings.TrimSpace(p.src[start:p.pos])
	if word == "" {
		return nil, p.errorf("expected a value")
	}
	return wordValue(word), nil
}

func wordValue(word string) any {
	switch word {
	case "true", "True":
		return true
	case "false", "False":
		return false
	case "null", "None", "nil":
		return nil
	}
	if i, err := strconv.Atoi(word); err == nil {
		return i
	}
	if f, err := strconv.ParseFloat(word, 64); err == nil {
		return f
	}
	return word
}

func (p *exprParser) quoted(q byte) (any, error) {
	p.pos++
	var b strings.Builder
	for !p.eof() {
		c := p.src[p.pos]
		p.pos++
		switch {
		case c == q:
			return b.String(), nil
		case c == '\\' && !p.eof():
			e := p.src[p.pos]
			p.pos++
			switch e {
			case 'n':
				b.WriteByte('\n')
			case 't':
				b.WriteByte('\t')
			default:
				b.WriteByte(e)
			}
		default:
			b.WriteByte(c)
		}
	}
	return nil, p.errorf("unterminated string")
}

func formatLiteral(v any) string {
	switch t := v.(type) {
	case nil:
		return "None"
	case string:
		return strconv.Quote(t)
	case bool:
		if t {
			return "True"
		}
		return "False"
	case []any:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = formatLiteral(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	case []string:
		parts := make([]string, len(t))
		for i, e := range t {
			parts[i] = strconv.Quote(e)
		}
		return "[" + strings.Join(parts, ", ") + "]"
	}
	return fmt.Sprint(v)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
