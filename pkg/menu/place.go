package menu

import (
	"math"
	"strconv"

	"github.com/b/panelbar/pkg/tui"
)

// Padding around menu content, in cells.
type Padding struct {
	// Horizontal is split evenly between both sides.
	Horizontal uint16 `yaml:"horizontal_padding"`
	// Vertical adds one empty line below the content.
	Vertical bool `yaml:"vertical_padding"`
}

// DefaultPadding is the padding used when none is configured.
var DefaultPadding = Padding{Horizontal: 4}

// Placement positions the menu panel. kitty panels have no absolute position,
// so the panel spans the monitor and is narrowed by left and right margins
// given in logical pixels.
type Placement struct {
	MarginLeft  uint32
	MarginRight uint32
	Lines       uint16
}

// Place centers a menu of content cells under anchorX (physical pixels on a
// monitor monitorWidth pixels wide), keeping it on screen.
func Place(anchorX uint32, content, font tui.Size, monitorWidth uint32, scale float64, pad Padding) Placement {
	scale = math.Ceil(scale*1000) / 1000
	if !(scale > 0) {
		scale = 1
	}

	cols := uint64(content.W) + uint64(pad.Horizontal)
	halfW := (uint64(font.W)*cols + 1) / 2
	width := uint64(monitorWidth)

	x := uint64(anchorX)
	if width < 2*halfW {
		x = width / 2
	} else {
		x = max(halfW, min(x, width-halfW))
	}

	var mlPx, mrPx uint64
	if x > halfW {
		mlPx = x - halfW
	}
	if width > x+halfW {
		mrPx = width - x - halfW
	}

	lines := content.H
	if pad.Vertical {
		lines++
	}
	return Placement{
		MarginLeft:  logical(mlPx, scale),
		MarginRight: logical(mrPx, scale),
		Lines:       lines,
	}
}

func logical(px uint64, scale float64) uint32 {
	v := math.Ceil(float64(px) / scale)
	if v > math.MaxUint32 {
		return math.MaxUint32
	}
	return uint32(v)
}

// Args is the kitty remote control command applying the placement.
func (p Placement) Args() []string {
	return []string{
		"resize-os-window",
		"--incremental",
		"--action=os-panel",
		"margin-left=" + strconv.FormatUint(uint64(p.MarginLeft), 10),
		"margin-right=" + strconv.FormatUint(uint64(p.MarginRight), 10),
		"lines=" + strconv.FormatUint(uint64(p.Lines), 10),
	}
}

// ShowArgs and HideArgs toggle the menu panel's visibility.
func ShowArgs() []string { return []string{"resize-os-window", "--action=show"} }
func HideArgs() []string { return []string{"resize-os-window", "--action=hide"} }

// ContentArea is where menu content is drawn inside the panel.
func ContentArea(content tui.Size, pad Padding) tui.Area {
	return tui.Area{Pos: tui.Pos{X: pad.Horizontal / 2}, Size: content}
}
