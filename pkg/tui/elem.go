// Package tui describes bar and menu content as an immutable element tree,
// sizes and renders it into a kitty terminal, and resolves mouse input
// against the regions recorded by the last render.
//
// Elements are never modified after construction. Builders return new
// elements that share their children, so unchanged subtrees can be reused
// across updates and compared with Same.
package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Elem is a handle to an immutable element node. The zero value is the empty
// element: zero size, draws nothing.
type Elem struct {
	n node
}

type node interface {
	kind() string
}

type printNode struct {
	raw  string
	size Size
}

type stackNode struct {
	axis  Axis
	items []StackItem
}

type blockNode struct {
	borders Borders
	style   lipgloss.Style
	lines   LineSet
	inner   Elem
}

type minSizeNode struct {
	inner Elem
	min   Size
}

type interactNode struct {
	tag      InteractTag
	normal   Elem
	hovered  Elem
	hasHover bool
}

func (*printNode) kind() string    { return "print" }
func (*imageNode) kind() string    { return "image" }
func (*stackNode) kind() string    { return "stack" }
func (*blockNode) kind() string    { return "block" }
func (*minSizeNode) kind() string  { return "minsize" }
func (*interactNode) kind() string { return "interact" }

// Empty returns the empty element.
func Empty() Elem { return Elem{} }

// IsEmpty reports whether e is the zero element.
func (e Elem) IsEmpty() bool { return e.n == nil }

// Same reports whether a and b are the same node. It does not compare
// structure.
func Same(a, b Elem) bool { return a.n == b.n }

// Kind names the node type, for logging.
func (e Elem) Kind() string {
	if e.n == nil {
		return "empty"
	}
	return e.n.kind()
}

// RawPrint writes raw at the element origin. The caller declares the cell
// footprint since raw may carry escape sequences that change it.
func RawPrint(raw string, size Size) Elem {
	return Elem{&printNode{raw: raw, size: size}}
}

// Spacing is an empty element of length n along axis.
func Spacing(axis Axis, n uint16) Elem {
	return RawPrint("", Size{}.With(axis, n))
}

// StackItem is a child of a stack. A zero FillWeight keeps the child at its
// minimum length; otherwise leftover space is shared in proportion to it.
type StackItem struct {
	FillWeight uint16
	Elem       Elem
}

// Fit wraps e as a non-growing stack item.
func Fit(e Elem) StackItem { return StackItem{Elem: e} }

// Fill wraps e as a stack item that takes weight shares of leftover space.
func Fill(weight uint16, e Elem) StackItem { return StackItem{FillWeight: weight, Elem: e} }

// Stack lays items out one after another along axis.
func Stack(axis Axis, items ...StackItem) Elem {
	cp := make([]StackItem, len(items))
	copy(cp, items)
	return Elem{&stackNode{axis: axis, items: cp}}
}

// StackBuilder accumulates stack items.
type StackBuilder struct {
	axis  Axis
	items []StackItem
}

func NewStackBuilder(axis Axis) *StackBuilder {
	return &StackBuilder{axis: axis}
}

func (b *StackBuilder) Push(item StackItem) *StackBuilder {
	b.items = append(b.items, item)
	return b
}

func (b *StackBuilder) Fit(e Elem) *StackBuilder { return b.Push(Fit(e)) }

func (b *StackBuilder) Fill(weight uint16, e Elem) *StackBuilder {
	return b.Push(Fill(weight, e))
}

// Spacing pushes n empty cells along the builder's axis.
func (b *StackBuilder) Spacing(n uint16) *StackBuilder {
	return b.Fit(Spacing(b.axis, n))
}

func (b *StackBuilder) Len() int { return len(b.items) }

func (b *StackBuilder) Build() Elem {
	return Stack(b.axis, b.items...)
}

// Center places e in the middle of whatever length it is given along axis.
func Center(axis Axis, e Elem) Elem {
	return Stack(axis, Fill(1, Empty()), Fit(e), Fill(1, Empty()))
}

// Block draws a border around an optional inner element.
type Block struct {
	Borders Borders
	Style   lipgloss.Style
	Lines   LineSet
	Inner   Elem
}

func (b Block) Elem() Elem {
	lines := b.Lines
	if lines == (LineSet{}) {
		lines = LinesNormal
	}
	style := b.Style.Renderer(styleRenderer)
	return Elem{&blockNode{borders: b.Borders, style: style, lines: lines, inner: b.Inner}}
}

// WithMinSize raises the minimum size of e to at least floor.
func (e Elem) WithMinSize(floor Size) Elem {
	return Elem{&minSizeNode{inner: e, min: floor}}
}

// Interactive records e under tag in the hit table.
func (e Elem) Interactive(tag InteractTag) Elem {
	return Elem{&interactNode{tag: tag, normal: e}}
}

// InteractiveHover is like Interactive but draws hovered while the mouse is
// over the element. hovered never affects layout.
func (e Elem) InteractiveHover(tag InteractTag, hovered Elem) Elem {
	return Elem{&interactNode{tag: tag, normal: e, hovered: hovered, hasHover: true}}
}
