package command

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinCommands(t *testing.T) {
	root, _, _, _, _ := testGraph()
	c := Local(NewDispatcher(root))

	v, err := c.Group().At("a").Layout().Cmd("commands").Call()
	require.NoError(t, err)
	assert.Equal(t, []string{"commands", "doc", "down", "eval", "function", "items", "up"}, v)
}

func TestBuiltinItems(t *testing.T) {
	root, _, _, _, _ := testGraph()
	c := Local(NewDispatcher(root))

	tests := []struct {
		node Node
		name string
		want []any
	}{
		{c, "group", []any{true, []any{"a", "b"}}},
		{c, "widget", []any{false, nil}},
		{c, "bar", []any{false, []any{}}},
		{c, "nonsense", []any{false, []any{}}},
		{c.Group().At("a"), "window", []any{true, []any{}}},
		{c.Group().At("b"), "window", []any{false, []any{7}}},
	}
	for _, tt := range tests {
		t.Run(tt.node.Path().String()+"/"+tt.name, func(t *testing.T) {
			v, err := tt.node.Cmd("items").Call(tt.name)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestBuiltinDoc(t *testing.T) {
	root, _, _, _, _ := testGraph()
	c := Local(NewDispatcher(root))

	v, err := c.Cmd("doc").Call("three")
	require.NoError(t, err)
	assert.Equal(t, "three(a, b=99)\nA command with three letters.", v)

	v, err = c.Cmd("doc").Call("items")
	require.NoError(t, err)
	assert.Contains(t, v, "items(name)")

	_, err = c.Cmd("doc").Call("nope")
	var cerr *CommandError
	require.True(t, errors.As(err, &cerr))
	assert.Equal(t, "No such command: nope", cerr.Message)
}

func TestBuiltinEval(t *testing.T) {
	root, _, _, _, _ := testGraph()
	c := Local(NewDispatcher(root))

	tests := []struct {
		node Node
		code string
		want []any
	}{
		{c, `group["a"].layout.down()`, []any{true, "stack down"}},
		{c, `togroup("b")`, []any{true, "b"}},
		{c, `togroup(name="a")`, []any{true, "a"}},
		{c, `group[a]`, []any{true, nil}},
		{c.Group().At("a"), `layout.up`, []any{true, "stack up"}},
		{c, `togroup("zzz")`, []any{false, "No such group: zzz"}},
		{c, `layout.down()`, []any{false, "No such command."}},
		{c, `group[nonexistent].info()`, []any{false, "No object group[nonexistent] in path 'group[nonexistent]'"}},
	}
	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			v, err := tt.node.Cmd("eval").Call(tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}

	v, err := c.Cmd("eval").Call(`import os`)
	require.NoError(t, err)
	res := v.([]any)
	assert.Equal(t, false, res[0])
	assert.Contains(t, res[1], "parse error")

	v, err = c.Cmd("eval").Call(`fail()`)
	require.NoError(t, err)
	res = v.([]any)
	assert.Equal(t, false, res[0])
	assert.Contains(t, res[1], errBoom.Error())
}

func TestBuiltinFunction(t *testing.T) {
	root, a, _, _, _ := testGraph()
	d := NewDispatcher(root)
	c := Local(d)

	var seen Object
	var seenArgs []any
	fn := Func(func(o Object, args ...any) error {
		seen = o
		seenArgs = args
		return nil
	})
	v, err := c.Group().At("a").Cmd("function").Call(fn, 1, "x")
	require.NoError(t, err)
	assert.Nil(t, v)
	assert.Same(t, a, seen)
	assert.Equal(t, []any{1, "x"}, seenArgs)

	// failures inside the function are logged, not returned
	_, err = c.Cmd("function").Call(Func(func(Object, ...any) error { return errBoom }))
	assert.NoError(t, err)
	_, err = c.Cmd("function").Call(Func(func(Object, ...any) error { panic("inside") }))
	assert.NoError(t, err)

	_, err = c.Cmd("function").Call("not a function")
	var cerr *CommandError
	assert.True(t, errors.As(err, &cerr))
}
