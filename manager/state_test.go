package manager

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lavinder/config"
)

func TestCaptureApply(t *testing.T) {
	h := newHarness(t, serverConfig(), twoScreens()...)
	h.call(h.root, "addgroup", "extra", "X")
	h.call(h.root.Group().At("c"), "toscreen", 1)
	h.call(h.root.Group().At("c"), "setlayout", "stack3")
	h.call(h.root, "to_screen", 1)

	st := h.m.Capture()
	assert.Equal(t, map[int]string{0: "a", 1: "c"}, st.Screens)
	assert.Equal(t, 1, st.CurrentScreen)
	require.Len(t, st.Groups, 4)
	assert.Equal(t, config.GroupState{Name: "c", Layout: "stack3"}, st.Groups[2])
	assert.Equal(t, config.GroupState{Name: "extra", Layout: "stack1", Label: "X"}, st.Groups[3])

	path := config.DefaultStatePath(t.TempDir())
	require.NoError(t, config.SaveState(st, path))
	loaded, err := config.LoadState(path)
	require.NoError(t, err)

	fresh := newHarness(t, serverConfig(), twoScreens()...)
	fresh.m.Apply(loaded)
	assert.Equal(t, []any{true, []any{"a", "b", "c", "extra"}}, fresh.call(fresh.root, "items", "group"))
	assert.Equal(t, "c", fresh.info(fresh.root.Screen())["group"])
	assert.Equal(t, 1, fresh.info(fresh.root.Screen())["index"])
	assert.Equal(t, "stack3", fresh.info(fresh.root.Group().At("c"))["layout"])
	assert.Equal(t, "X", fresh.info(fresh.root.Group().At("extra"))["label"])
	assert.Nil(t, fresh.info(fresh.root.Group().At("b"))["screen"])
}

func TestApplySkipsMissingScreens(t *testing.T) {
	h := newHarness(t, serverConfig1())
	st := config.NewState()
	st.Screens = map[int]string{0: "b", 3: "c"}
	st.CurrentScreen = 3
	st.Groups = []config.GroupState{{Name: "a", Layout: "nope"}}

	h.m.Apply(st)
	assert.Equal(t, "b", h.info(h.root.Screen())["group"])
	assert.Equal(t, 0, h.info(h.root.Screen())["index"])
	assert.Equal(t, "stack1", h.info(h.root.Group().At("a"))["layout"])
}

func TestStatePathIsInDir(t *testing.T) {
	dir := t.TempDir()
	path := config.DefaultStatePath(dir)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.True(t, strings.HasSuffix(path, "-"+config.StateFileName))
}
