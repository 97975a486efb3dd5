package colors

// Palette is the full set of colors widgets draw with.
type Palette struct {
	Fg     string
	Bg     string
	Accent string
	// Hover is the background of a hovered item.
	Hover string
	// Muted is for secondary text such as inactive workspaces.
	Muted  string
	Warn   string
	Urgent string
}

const minTextContrast = 4.5

// NewPalette derives a palette from the three theme colors. The foreground
// is adjusted until it is readable on the background.
func NewPalette(fg, bg, accent string) Palette {
	fg = EnsureContrast(fg, bg, minTextContrast)
	return Palette{
		Fg:     fg,
		Bg:     bg,
		Accent: accent,
		Hover:  Blend(bg, accent, 0.3),
		Muted:  Blend(fg, bg, 0.45),
		Warn:   "#f9e2af",
		Urgent: "#f38ba8",
	}
}

// TextOn picks the palette foreground or background, whichever reads
// better on bg.
func (p Palette) TextOn(bg string) string {
	if GetContrastRatio(p.Fg, bg) >= GetContrastRatio(p.Bg, bg) {
		return p.Fg
	}
	return p.Bg
}
