// Package colors derives bar colors from the configured theme.
package colors

import (
	colorful "github.com/lucasb-eyer/go-colorful"
)

var (
	white = colorful.Color{R: 1, G: 1, B: 1}
	black = colorful.Color{}
)

func parse(hexColor string) (colorful.Color, bool) {
	c, err := colorful.Hex(hexColor)
	return c, err == nil
}

// GetLuminance calculates the relative luminance of a color per WCAG formula
// Returns a value between 0 (black) and 1 (white)
func GetLuminance(hexColor string) float64 {
	c, ok := parse(hexColor)
	if !ok {
		return 0
	}
	r, g, b := c.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}

// GetContrastRatio calculates the WCAG contrast ratio between two colors
// Returns a value between 1 (no contrast) and 21 (maximum contrast)
func GetContrastRatio(fg, bg string) float64 {
	l1 := GetLuminance(fg)
	l2 := GetLuminance(bg)
	if l1 < l2 {
		l1, l2 = l2, l1
	}
	return (l1 + 0.05) / (l2 + 0.05)
}

// EnsureContrast adjusts the foreground color to meet minimum contrast ratio
// minRatio should be 4.5 for WCAG AA, 7.0 for WCAG AAA
func EnsureContrast(fg, bg string, minRatio float64) string {
	if GetContrastRatio(fg, bg) >= minRatio {
		return fg
	}
	c, ok := parse(fg)
	if !ok {
		c = black
	}
	target := black
	if GetLuminance(fg) > GetLuminance(bg) {
		target = white
	}
	for step := 1; step <= 10; step++ {
		adjusted := c.BlendRgb(target, float64(step)/10).Clamped().Hex()
		if GetContrastRatio(adjusted, bg) >= minRatio {
			return adjusted
		}
	}
	if GetLuminance(bg) > 0.5 {
		return "#000000"
	}
	return "#ffffff"
}

// IsLightColor returns true if the color is closer to white than black
func IsLightColor(hexColor string) bool {
	return GetLuminance(hexColor) > 0.5
}

// Lighten moves a color towards white by amount (0.0 to 1.0).
func Lighten(hexColor string, amount float64) string {
	return blendTo(hexColor, white, amount)
}

// Darken moves a color towards black by amount (0.0 to 1.0).
func Darken(hexColor string, amount float64) string {
	return blendTo(hexColor, black, amount)
}

func blendTo(hexColor string, target colorful.Color, amount float64) string {
	c, ok := parse(hexColor)
	if !ok {
		return hexColor
	}
	return c.BlendRgb(target, amount).Clamped().Hex()
}

// Blend mixes a and b in Lab space; t=0 is a, t=1 is b. An unparsable
// color yields the other one.
func Blend(a, b string, t float64) string {
	ca, okA := parse(a)
	cb, okB := parse(b)
	switch {
	case !okA:
		return b
	case !okB:
		return a
	}
	return ca.BlendLab(cb, t).Clamped().Hex()
}
