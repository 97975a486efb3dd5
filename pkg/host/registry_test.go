package host

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b/panelbar/pkg/menu"
	"github.com/b/panelbar/pkg/tui"
)

var barSize = tui.Area{Size: tui.Size{W: 40, H: 1}}

func renderText(t *testing.T, e tui.Elem, area tui.Area) (string, *tui.RenderedLayout) {
	t.Helper()
	var buf bytes.Buffer
	layout, err := tui.Render(&buf, e, area, tui.SizingArgs{FontSize: tui.Size{W: 10, H: 20}}, nil)
	require.NoError(t, err)
	return buf.String(), layout
}

func TestRegistryComposesSections(t *testing.T) {
	r := NewRegistry(Layout{Left: []string{"ws"}, Center: []string{"clock"}, Right: []string{"a", "b"}})
	r.SetShared("ws", tui.PlainText("1 2 3").Interactive(tui.NewTag("ws")))
	r.SetShared("clock", tui.PlainText("12:00").Interactive(tui.NewTag("clock")))
	r.SetShared("a", tui.PlainText("A").Interactive(tui.NewTag("a")))
	r.SetShared("b", tui.PlainText("B").Interactive(tui.NewTag("b")))

	_, layout := renderText(t, r.Bar("DP-1"), barSize)
	areas := map[string]tui.Area{}
	for _, e := range layout.Entries() {
		areas[e.Tag.Parts()[0]] = e.Area
	}
	assert.Equal(t, uint16(1), areas["ws"].Pos.X, "left section after one cell of padding")
	assert.Equal(t, uint16(40-1-1), areas["b"].Pos.X, "right section ends one cell before the edge")
	assert.Equal(t, uint16(40-1-3), areas["a"].Pos.X, "modules in a section are one cell apart")
	assert.Greater(t, areas["clock"].Pos.X, areas["ws"].Pos.X+5)
	assert.Less(t, areas["clock"].Pos.X, areas["a"].Pos.X)
}

func TestRegistryMonitorOverride(t *testing.T) {
	r := NewRegistry(Layout{Left: []string{"ws"}})
	r.SetShared("ws", tui.PlainText("shared"))
	r.SetMonitor("ws", "DP-2", tui.PlainText("second"))

	out1, _ := renderText(t, r.Bar("DP-1"), barSize)
	out2, _ := renderText(t, r.Bar("DP-2"), barSize)
	assert.Contains(t, out1, "shared")
	assert.Contains(t, out2, "second")
	assert.NotContains(t, out2, "shared")
}

func TestRegistryMenusAndRoute(t *testing.T) {
	r := NewRegistry(Layout{})
	tag := tui.NewTag("power", "performance")
	var got []Interaction
	r.Register(tag, menu.Menus{Tooltip: tui.PlainText("tip")}, func(ev Interaction) { got = append(got, ev) })

	m, ok := r.Menus(tag)
	require.True(t, ok)
	assert.False(t, m.Tooltip.IsEmpty())
	assert.True(t, m.Context.IsEmpty())

	assert.True(t, r.Route(Interaction{Tag: tag, Kind: tui.Click(tui.ButtonLeft)}))
	assert.False(t, r.Route(Interaction{Tag: tui.NewTag("other")}))
	require.Len(t, got, 1)
	assert.True(t, got[0].Kind.IsLeftClick())

	r.Unregister(tag)
	_, ok = r.Menus(tag)
	assert.False(t, ok)
}

func TestRegistryClear(t *testing.T) {
	r := NewRegistry(Layout{Left: []string{"power"}})
	r.SetShared("power", tui.PlainText("pp"))
	r.Register(tui.NewTag("power"), menu.Menus{}, nil)
	r.Register(tui.NewTag("power", "balanced"), menu.Menus{}, nil)
	r.Register(tui.NewTag("powerful"), menu.Menus{}, nil)

	r.Clear("power")
	_, ok := r.Menus(tui.NewTag("power", "balanced"))
	assert.False(t, ok)
	_, ok = r.Menus(tui.NewTag("powerful"))
	assert.True(t, ok, "other modules sharing a name prefix are untouched")

	out, _ := renderText(t, r.Bar("DP-1"), barSize)
	assert.False(t, strings.Contains(out, "pp"))
}

func TestRegistryRevision(t *testing.T) {
	r := NewRegistry(Layout{})
	rx := r.Revision()
	<-rx.Changed()
	first := rx.Load()

	r.SetHidden("DP-1", false)
	select {
	case <-rx.Changed():
		t.Fatal("showing a visible bar is not a change")
	default:
	}

	r.SetHidden("DP-1", true)
	<-rx.Changed()
	assert.Greater(t, rx.Load(), first)
	assert.True(t, r.Hidden("DP-1"))
	assert.False(t, r.Hidden("DP-2"))
}

func TestRegistryCachesBar(t *testing.T) {
	r := NewRegistry(Layout{Left: []string{"a"}})
	r.SetShared("a", tui.PlainText("aa"))

	first := r.Bar("DP-1")
	r.Register(tui.NewTag("a"), menu.Menus{Tooltip: tui.PlainText("tip")}, nil)
	r.Unregister(tui.NewTag("a"))
	r.SetHidden("DP-1", true)
	assert.True(t, tui.Same(first, r.Bar("DP-1")), "menus and visibility keep the bar")
	assert.False(t, tui.Same(first, r.Bar("DP-2")), "bars are per monitor")

	r.SetMonitor("a", "DP-2", tui.PlainText("bb"))
	assert.True(t, tui.Same(first, r.Bar("DP-1")), "another monitor's region")

	r.SetShared("a", tui.PlainText("cc"))
	second := r.Bar("DP-1")
	assert.False(t, tui.Same(first, second))
	out, _ := renderText(t, second, barSize)
	assert.Contains(t, out, "cc")

	r.SetLayout(Layout{Right: []string{"a"}})
	assert.False(t, tui.Same(second, r.Bar("DP-1")))
}
