package tui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
	"github.com/muesli/termenv"
)

// Panels are always kitty, so styles are rendered in true color regardless
// of what the host process' stdout looks like.
var styleRenderer = func() *lipgloss.Renderer {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.TrueColor)
	r.SetHasDarkBackground(true)
	return r
}()

// NewStyle returns a lipgloss style bound to the panel renderer.
func NewStyle() lipgloss.Style {
	return styleRenderer.NewStyle()
}

// Text renders s with style. Each line becomes one row; the width is the
// display width of the unstyled text.
func Text(s string, style lipgloss.Style) Elem {
	lines := strings.Split(s, "\n")
	if len(lines) == 1 {
		return textLine(lines[0], style)
	}
	b := NewStackBuilder(AxisY)
	for _, line := range lines {
		b.Fit(textLine(line, style))
	}
	return b.Build()
}

// PlainText renders s without styling.
func PlainText(s string) Elem {
	return Text(s, NewStyle())
}

func textLine(line string, style lipgloss.Style) Elem {
	w := runewidth.StringWidth(line)
	if w == 0 {
		return Spacing(AxisY, 1)
	}
	return RawPrint(style.Renderer(styleRenderer).Render(line), Size{W: uint16(min(w, 0xffff)), H: 1})
}

// UnderlineHovered makes an interactive text element that is underlined
// while hovered.
func UnderlineHovered(s string, style lipgloss.Style, tag InteractTag) Elem {
	return Text(s, style).InteractiveHover(tag, Text(s, style.Underline(true)))
}

// TextSize builds kitty text sizing escapes (OSC 66).
type TextSize struct {
	Scale     uint8 // s, 1..7
	Width     uint8 // w, 0..7
	Numerator uint8 // n
	Denom     uint8 // d
	VAlign    uint8 // v: 0 top, 1 bottom, 2 centered
	HAlign    uint8 // h: 0 left, 1 right, 2 centered
}

// Apply wraps text in the sizing escape. Zero fields are omitted so the
// terminal uses its defaults.
func (ts TextSize) Apply(text string) string {
	var meta []string
	add := func(key string, v uint8) {
		if v != 0 {
			meta = append(meta, fmt.Sprintf("%s=%d", key, v))
		}
	}
	add("s", ts.Scale)
	add("w", ts.Width)
	add("h", ts.HAlign)
	add("n", ts.Numerator)
	add("d", ts.Denom)
	add("v", ts.VAlign)
	return "\x1b]66;" + strings.Join(meta, ":") + ";" + text + "\x07"
}

// CenterSymbol draws sym centered horizontally in width cells. Useful for
// icon glyphs whose rendered width the terminal would otherwise guess.
func CenterSymbol(sym string, width uint8) Elem {
	raw := TextSize{Width: width, HAlign: 2, Numerator: 1, Denom: 1}.Apply(sym)
	return RawPrint(raw, Size{W: uint16(width), H: 1})
}
