package menu

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b/panelbar/pkg/tui"
)

type menuMap map[tui.InteractTag]Menus

func (m menuMap) Menus(tag tui.InteractTag) (Menus, bool) {
	menus, ok := m[tag]
	return menus, ok
}

var (
	tagT    = tui.NewTag("T") // context menu only
	tagU    = tui.NewTag("U") // tooltip and context menu
	tagV    = tui.NewTag("V") // tooltip only
	tagNone = tui.NewTag("none")
	args    = tui.SizingArgs{FontSize: tui.Size{W: 10, H: 20}}
)

func fixture() (menuMap, *int, Locator) {
	src := menuMap{
		tagT: {Context: tui.PlainText("T context")},
		tagU: {Tooltip: tui.PlainText("U tip"), Context: tui.PlainText("U context\nsecond")},
		tagV: {Tooltip: tui.PlainText("V tip")},
	}
	calls := 0
	locate := func(tag tui.InteractTag) (tui.PixPos, bool) {
		calls++
		switch tag {
		case tagT:
			return tui.PixPos{X: 100, Y: 10}, true
		case tagU:
			return tui.PixPos{X: 200, Y: 10}, true
		case tagV:
			return tui.PixPos{X: 300, Y: 10}, true
		}
		return tui.PixPos{}, false
	}
	return src, &calls, locate
}

func hoverOn(tag tui.InteractTag) tui.InteractionResult {
	return tui.InteractionResult{Kind: tui.Hover(), Tag: tag, HasTag: true, Changed: true}
}

func hoverEmpty() tui.InteractionResult {
	return tui.InteractionResult{Kind: tui.Hover(), Changed: true}
}

func clickOn(tag tui.InteractTag) tui.InteractionResult {
	return tui.InteractionResult{Kind: tui.Click(tui.ButtonLeft), Tag: tag, HasTag: true}
}

func TestHoverWithoutTooltipDoesNotOpen(t *testing.T) {
	src, _, locate := fixture()
	var c Controller

	assert.False(t, c.HandleBar(hoverOn(tagT), src, locate, args))
	assert.Equal(t, State{}, c.State())

	assert.True(t, c.HandleBar(clickOn(tagT), src, locate, args))
	assert.Equal(t, State{Kind: Context, Anchor: tagT}, c.State())
}

func TestContextWinsOverTooltip(t *testing.T) {
	src, _, locate := fixture()
	var c Controller
	require.True(t, c.HandleBar(clickOn(tagT), src, locate, args))

	assert.False(t, c.HandleBar(hoverOn(tagU), src, locate, args))
	assert.Equal(t, State{Kind: Context, Anchor: tagT}, c.State())

	assert.False(t, c.HandleBar(hoverEmpty(), src, locate, args), "leaving does not close a context menu")
	assert.Equal(t, Context, c.State().Kind)

	assert.True(t, c.HandleBar(clickOn(tagU), src, locate, args))
	assert.Equal(t, State{Kind: Context, Anchor: tagU}, c.State())
	assert.Equal(t, tui.PixPos{X: 200, Y: 10}, c.Anchor())
	assert.Equal(t, tui.Size{W: 9, H: 2}, c.Size())
}

func TestTooltipFollowsHover(t *testing.T) {
	src, _, locate := fixture()
	var c Controller

	assert.True(t, c.HandleBar(hoverOn(tagV), src, locate, args))
	assert.Equal(t, State{Kind: Tooltip, Anchor: tagV}, c.State())
	assert.Equal(t, tui.PixPos{X: 300, Y: 10}, c.Anchor())

	assert.False(t, c.HandleBar(hoverOn(tagV), src, locate, args), "same tooltip again")

	assert.True(t, c.HandleBar(hoverOn(tagU), src, locate, args))
	assert.Equal(t, State{Kind: Tooltip, Anchor: tagU}, c.State())
	assert.Equal(t, tui.PixPos{X: 200, Y: 10}, c.Anchor())

	assert.True(t, c.HandleBar(hoverOn(tagT), src, locate, args), "T has no tooltip")
	assert.Equal(t, State{}, c.State())

	require.True(t, c.HandleBar(hoverOn(tagV), src, locate, args))
	assert.True(t, c.HandleBar(hoverEmpty(), src, locate, args))
	assert.False(t, c.Open())
}

func TestClickOnEmptyCloses(t *testing.T) {
	src, _, locate := fixture()
	var c Controller
	require.True(t, c.HandleBar(clickOn(tagU), src, locate, args))

	assert.False(t, c.HandleBar(clickOn(tagV), src, locate, args), "V has no context menu")
	assert.Equal(t, tagU, c.State().Anchor)

	empty := tui.InteractionResult{Kind: tui.Click(tui.ButtonLeft)}
	assert.True(t, c.HandleBar(empty, src, locate, args))
	assert.False(t, c.Open())
}

func TestScrollIgnored(t *testing.T) {
	src, _, locate := fixture()
	var c Controller
	scroll := tui.InteractionResult{Kind: tui.Scroll(tui.ScrollUp), Tag: tagU, HasTag: true}
	assert.False(t, c.HandleBar(scroll, src, locate, args))
	assert.False(t, c.Open())
}

func TestMenuFocusLoss(t *testing.T) {
	src, _, locate := fixture()
	var c Controller
	assert.False(t, c.FocusLoss())

	require.True(t, c.HandleBar(clickOn(tagT), src, locate, args))
	assert.True(t, c.FocusLoss())
	assert.Equal(t, State{}, c.State())
	assert.True(t, c.Content().IsEmpty())
}

func TestMenuTerminalClosesTooltip(t *testing.T) {
	src, _, locate := fixture()
	var c Controller

	require.True(t, c.HandleBar(clickOn(tagT), src, locate, args))
	assert.False(t, c.HandleMenu(hoverOn(tagNone)), "context menus are interactive")

	c.Close()
	require.True(t, c.HandleBar(hoverOn(tagV), src, locate, args))
	assert.True(t, c.HandleMenu(hoverEmpty()))
	assert.False(t, c.Open())
}

func TestAnchorReusedForSameTag(t *testing.T) {
	src, calls, locate := fixture()
	var c Controller

	require.True(t, c.HandleBar(hoverOn(tagU), src, locate, args))
	assert.Equal(t, 1, *calls)

	// Tooltip to context menu on the same element keeps the anchor.
	require.True(t, c.HandleBar(clickOn(tagU), src, locate, args))
	assert.Equal(t, 1, *calls)

	// Live content update.
	src[tagU] = Menus{Tooltip: src[tagU].Tooltip, Context: tui.PlainText("U context, longer")}
	assert.True(t, c.Refresh(src, args))
	assert.Equal(t, 1, *calls)
	assert.Equal(t, tui.Size{W: 17, H: 1}, c.Size())
	assert.Equal(t, tui.PixPos{X: 200, Y: 10}, c.Anchor())

	assert.False(t, c.Refresh(src, args), "unchanged content")

	require.True(t, c.HandleBar(clickOn(tagT), src, locate, args))
	assert.Equal(t, 2, *calls)
}

func TestRefreshClosesWhenMenuGone(t *testing.T) {
	src, _, locate := fixture()
	var c Controller
	require.True(t, c.HandleBar(hoverOn(tagV), src, locate, args))

	delete(src, tagV)
	assert.True(t, c.Refresh(src, args))
	assert.False(t, c.Open())
}

func TestOpenFailsWithoutLocation(t *testing.T) {
	var c Controller
	src := menuMap{tagNone: {Tooltip: tui.PlainText("x")}}
	_, _, locate := fixture()
	assert.False(t, c.HandleBar(hoverOn(tagNone), src, locate, args))
	assert.False(t, c.Open())
}
