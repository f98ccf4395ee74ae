package command

import (
	"errors"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	root, a, b, stack, maxLayout := testGraph()

	tests := []struct {
		name string
		path Path
		want Object
	}{
		{"empty path is the root", nil, root},
		{"named group", Path{{Group, Name("a")}}, a},
		{"current group", Path{{Group, None}}, a},
		{"other group", Path{{Group, Name("b")}}, b},
		{"current layout of root", Path{{Layout, None}}, maxLayout},
		{"layout of group", Path{{Group, Name("a")}, {Layout, None}}, stack},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(root, tt.path)
			require.NoError(t, err)
			assert.Same(t, tt.want, got)
		})
	}
}

func TestResolveEmptyGroup(t *testing.T) {
	root := newFake("root")
	a := newFake("a")
	a.items[Window] = ItemList{RootOK: true, Selectors: []Selector{}}
	root.add(Group, Name("a"), a)

	got, err := Resolve(root, Path{{Group, Name("a")}})
	require.NoError(t, err)
	assert.Same(t, a, got)
	assert.Equal(t, ItemList{RootOK: true, Selectors: []Selector{}}, Items(got, Window))
}

func TestResolveFailures(t *testing.T) {
	root, _, b, _, _ := testGraph()
	// window 9 is listed but its object is gone
	b.items[Window] = ItemList{Selectors: Indexes(7, 9)}

	tests := []struct {
		name string
		path Path
		step string
	}{
		{"unknown member", Path{{Group, Name("nonexistent")}}, "group[nonexistent]"},
		{"category not contained", Path{{Bar, Name("bottom")}}, "bar[bottom]"},
		{"bare reference without default", Path{{Group, Name("b")}, {Window, None}}, "window"},
		{"selector with no enumerable members", Path{{Widget, Name("clock")}}, "widget[clock]"},
		{"vanished between listing and selection", Path{{Group, Name("b")}, {Window, Index(9)}}, "window[9]"},
		{"wrong selector type", Path{{Group, Index(0)}}, "group[0]"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(root, tt.path)
			var serr *SelectError
			require.True(t, errors.As(err, &serr), "got %v", err)
			assert.Equal(t, tt.step, serr.Step.String())
			if diff := cmp.Diff(tt.path, serr.Path); diff != "" {
				t.Errorf("error path mismatch (-want +got):\n%s", diff)
			}
			assert.Contains(t, err.Error(), tt.path.String())
		})
	}
}

func TestResolveRootOKWithoutMembers(t *testing.T) {
	root := newFake("root")
	bar := newFake("bar")
	screen := newFake("screen")
	bar.setDefault(Screen, screen)
	bar.items[Screen] = ItemList{RootOK: true, Selectors: nil}
	root.add(Bar, Name("bottom"), bar)

	got, err := Resolve(root, Path{{Bar, Name("bottom")}, {Screen, None}})
	require.NoError(t, err)
	assert.Same(t, screen, got)

	_, err = Resolve(root, Path{{Bar, Name("bottom")}, {Screen, Index(0)}})
	assert.Error(t, err, "a selector needs enumerable members")
}

func TestResolveIsFresh(t *testing.T) {
	root, _, b, _, _ := testGraph()
	path := Path{{Group, Name("b")}, {Window, Index(7)}}

	first, err := Resolve(root, path)
	require.NoError(t, err)
	again, err := Resolve(root, path)
	require.NoError(t, err)
	assert.Same(t, first, again)

	// unrelated mutation elsewhere
	root.add(Group, Name("c"), newFake("c"))
	after, err := Resolve(root, path)
	require.NoError(t, err)
	assert.Same(t, first, after)

	// the window closes
	b.items[Window] = ItemList{Selectors: []Selector{}}
	delete(b.children, Step{Category: Window, Selector: Index(7)})
	_, err = Resolve(root, path)
	assert.Error(t, err)
}

func TestItemsNotContained(t *testing.T) {
	root, a, _, _, _ := testGraph()
	for _, o := range []Object{root, a} {
		got := Items(o, Bar)
		assert.False(t, got.RootOK)
		assert.NotNil(t, got.Selectors)
		assert.Empty(t, got.Selectors)
	}
}

func TestItemsIdempotent(t *testing.T) {
	root, _, _, _, _ := testGraph()
	for _, c := range Categories {
		assert.Equal(t, Items(root, c), Items(root, c), "category %s", c)
	}
}
