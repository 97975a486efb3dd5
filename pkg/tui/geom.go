package tui

import "fmt"

// Axis selects the horizontal (X) or vertical (Y) direction.
type Axis uint8

const (
	AxisX Axis = iota
	AxisY
)

// Other returns the cross axis.
func (a Axis) Other() Axis {
	if a == AxisX {
		return AxisY
	}
	return AxisX
}

func (a Axis) String() string {
	if a == AxisX {
		return "x"
	}
	return "y"
}

// Pos is a cell position, zero-based from the top-left corner.
type Pos struct {
	X, Y uint16
}

// Size is a cell extent.
type Size struct {
	W, H uint16
}

// Get returns the length along axis.
func (s Size) Get(axis Axis) uint16 {
	if axis == AxisX {
		return s.W
	}
	return s.H
}

// With returns s with the length along axis replaced.
func (s Size) With(axis Axis, v uint16) Size {
	if axis == AxisX {
		s.W = v
	} else {
		s.H = v
	}
	return s
}

// Max is the component-wise maximum.
func (s Size) Max(o Size) Size {
	return Size{W: max(s.W, o.W), H: max(s.H, o.H)}
}

func (s Size) IsZero() bool { return s.W == 0 || s.H == 0 }

func (s Size) String() string { return fmt.Sprintf("%dx%d", s.W, s.H) }

// Get returns the coordinate along axis.
func (p Pos) Get(axis Axis) uint16 {
	if axis == AxisX {
		return p.X
	}
	return p.Y
}

// With returns p with the coordinate along axis replaced.
func (p Pos) With(axis Axis, v uint16) Pos {
	if axis == AxisX {
		p.X = v
	} else {
		p.Y = v
	}
	return p
}

// Area is a rectangle of cells.
type Area struct {
	Pos  Pos
	Size Size
}

// Contains reports whether p lies inside a (half-open on the far edges).
func (a Area) Contains(p Pos) bool {
	return uint32(p.X) >= uint32(a.Pos.X) &&
		uint32(p.Y) >= uint32(a.Pos.Y) &&
		uint32(p.X) < uint32(a.Pos.X)+uint32(a.Size.W) &&
		uint32(p.Y) < uint32(a.Pos.Y)+uint32(a.Size.H)
}

// Shrink removes the given number of cells from each side, never going
// below zero size.
func (a Area) Shrink(left, top, right, bottom uint16) Area {
	out := a
	out.Pos.X = satAdd(a.Pos.X, left)
	out.Pos.Y = satAdd(a.Pos.Y, top)
	out.Size.W = satSub(a.Size.W, satAdd(left, right))
	out.Size.H = satSub(a.Size.H, satAdd(top, bottom))
	return out
}

func (a Area) String() string {
	return fmt.Sprintf("%s@%d,%d", a.Size, a.Pos.X, a.Pos.Y)
}

// PixPos is a position in terminal pixels.
type PixPos struct {
	X, Y uint32
}

func satAdd(a, b uint16) uint16 {
	s := uint32(a) + uint32(b)
	if s > 0xffff {
		return 0xffff
	}
	return uint16(s)
}

func satSub(a, b uint16) uint16 {
	if b > a {
		return 0
	}
	return a - b
}
