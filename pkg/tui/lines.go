package tui

import "github.com/charmbracelet/lipgloss"

// LineSet holds the glyphs used to draw block borders.
type LineSet struct {
	Vertical    string
	Horizontal  string
	TopLeft     string
	TopRight    string
	BottomLeft  string
	BottomRight string
}

var (
	LinesNormal  = LineSet{"│", "─", "┌", "┐", "└", "┘"}
	LinesRounded = LineSet{"│", "─", "╭", "╮", "╰", "╯"}
	LinesDouble  = LineSet{"║", "═", "╔", "╗", "╚", "╝"}
	LinesThick   = LineSet{"┃", "━", "┏", "┓", "┗", "┛"}

	LinesLightDoubleDashed    = LineSet{"╎", "╌", "┌", "┐", "└", "┘"}
	LinesHeavyDoubleDashed    = LineSet{"╏", "╍", "┏", "┓", "┗", "┛"}
	LinesLightTripleDashed    = LineSet{"┆", "┄", "┌", "┐", "└", "┘"}
	LinesHeavyTripleDashed    = LineSet{"┇", "┅", "┏", "┓", "┗", "┛"}
	LinesLightQuadrupleDashed = LineSet{"┊", "┈", "┌", "┐", "└", "┘"}
	LinesHeavyQuadrupleDashed = LineSet{"┋", "┉", "┏", "┓", "┗", "┛"}
)

// LineSetFromBorder converts a lipgloss border. Only the left edge and top
// edge glyphs are used for the sides.
func LineSetFromBorder(b lipgloss.Border) LineSet {
	return LineSet{
		Vertical:    b.Left,
		Horizontal:  b.Top,
		TopLeft:     b.TopLeft,
		TopRight:    b.TopRight,
		BottomLeft:  b.BottomLeft,
		BottomRight: b.BottomRight,
	}
}

// LineSetByName maps config names to glyph sets. Unknown names fall back to
// LinesNormal.
func LineSetByName(name string) LineSet {
	switch name {
	case "rounded":
		return LineSetFromBorder(lipgloss.RoundedBorder())
	case "double":
		return LineSetFromBorder(lipgloss.DoubleBorder())
	case "thick":
		return LineSetFromBorder(lipgloss.ThickBorder())
	case "dashed":
		return LinesLightDoubleDashed
	case "heavy-dashed":
		return LinesHeavyDoubleDashed
	default:
		return LineSetFromBorder(lipgloss.NormalBorder())
	}
}

// Borders selects which sides of a block are drawn.
type Borders struct {
	Top, Bottom, Left, Right bool
}

// AllBorders enables every side.
func AllBorders() Borders {
	return Borders{Top: true, Bottom: true, Left: true, Right: true}
}

func (b Borders) thickness() (left, top, right, bottom uint16) {
	return b2u(b.Left), b2u(b.Top), b2u(b.Right), b2u(b.Bottom)
}

func b2u(b bool) uint16 {
	if b {
		return 1
	}
	return 0
}
