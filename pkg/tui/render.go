package tui

import (
	"bytes"
	"io"
	"log"
	"sort"

	"github.com/muesli/termenv"
)

// Synchronized output (DEC mode 2026) keeps the terminal from showing a
// half-drawn frame.
const (
	syncBegin    = "\x1b[?2026h"
	syncEnd      = "\x1b[?2026l"
	deleteImages = "\x1b_Ga=d\x1b\\"
)

var debugLog = log.New(io.Discard, "", 0)

// SetDebugLog sets the logger used for layout warnings.
func SetDebugLog(l *log.Logger) {
	if l != nil {
		debugLog = l
	}
}

type frame struct {
	out    *termenv.Output
	args   SizingArgs
	layout *RenderedLayout

	// hovering is set while drawing the hovered variant of the owner.
	hovering bool
}

// Render draws e into area as one synchronized frame and returns the hit
// table of the frame. prev is the layout of the previous frame on the same
// terminal, or nil; its last mouse position decides which element is drawn
// hovered.
func Render(w io.Writer, e Elem, area Area, args SizingArgs, prev *RenderedLayout) (*RenderedLayout, error) {
	var buf bytes.Buffer
	f := &frame{
		out:    termenv.NewOutput(&buf, termenv.WithProfile(termenv.TrueColor)),
		args:   args,
		layout: prev.next(),
	}
	f.out.WriteString(syncBegin)
	f.out.ClearScreen()
	f.out.WriteString(deleteImages)
	f.render(e, area)
	f.out.WriteString(syncEnd)
	if _, err := w.Write(buf.Bytes()); err != nil {
		return f.layout, err
	}
	return f.layout, nil
}

func (f *frame) render(e Elem, area Area) {
	switch n := e.n.(type) {
	case nil:
	case *printNode:
		if n.raw == "" || area.Size.IsZero() {
			return
		}
		f.moveTo(area.Pos)
		f.out.WriteString(n.raw)
	case *imageNode:
		if area.Size.IsZero() {
			return
		}
		f.moveTo(area.Pos)
		if err := n.writeAPC(f.out, area); err != nil {
			debugLog.Printf("tui: error: image: %v", err)
		}
	case *stackNode:
		f.renderStack(n, area)
	case *blockNode:
		f.renderBlock(n, area)
	case *minSizeNode:
		f.render(n.inner, area)
	case *interactNode:
		f.renderInteract(n, area)
	}
}

func (f *frame) moveTo(p Pos) {
	f.out.MoveCursor(int(p.Y)+1, int(p.X)+1)
}

// stackLengths returns the length of every item along the stack axis.
// Leftover space is split by fill weight; the rounding remainder goes one
// cell at a time to weighted items ordered by (weight, index) ascending.
func stackLengths(n *stackNode, total uint16, args SizingArgs) []uint16 {
	lengths := make([]uint16, len(n.items))
	var sum, weights uint64
	for i, item := range n.items {
		lengths[i] = CalcMinSize(item.Elem, args).Get(n.axis)
		sum += uint64(lengths[i])
		weights += uint64(item.FillWeight)
	}

	var leftover uint64
	if sum > uint64(total) {
		debugLog.Printf("tui: warn: stack does not fit: need %d cells along %s, have %d", sum, n.axis, total)
	} else {
		leftover = uint64(total) - sum
	}
	if weights == 0 || leftover == 0 {
		return lengths
	}

	var given uint64
	order := make([]int, 0, len(n.items))
	for i, item := range n.items {
		extra := leftover * uint64(item.FillWeight) / weights
		lengths[i] = satAdd(lengths[i], uint16(extra))
		given += extra
		if item.FillWeight > 0 {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return n.items[order[a]].FillWeight < n.items[order[b]].FillWeight
	})
	remainder := int(leftover - given)
	for _, i := range order[:min(remainder, len(order))] {
		lengths[i] = satAdd(lengths[i], 1)
	}
	return lengths
}

func (f *frame) renderStack(n *stackNode, area Area) {
	axis := n.axis
	lengths := stackLengths(n, area.Size.Get(axis), f.args)
	start := uint32(area.Pos.Get(axis))
	end := start + uint32(area.Size.Get(axis))
	offset := start
	for i, item := range n.items {
		sub := area
		if offset >= end {
			// Overflowing items still get an origin so the hit table stays
			// stable, but nothing is drawn.
			sub.Pos = sub.Pos.With(axis, uint16(min(end, 0xffff)))
			sub.Size = sub.Size.With(axis, 0)
		} else {
			l := min(uint32(lengths[i]), end-offset)
			sub.Pos = sub.Pos.With(axis, uint16(offset))
			sub.Size = sub.Size.With(axis, uint16(l))
		}
		f.render(item.Elem, sub)
		offset += uint32(lengths[i])
	}
}

func (f *frame) renderBlock(n *blockNode, area Area) {
	l, t, r, b := n.borders.thickness()
	w, h := area.Size.W, area.Size.H
	if w == 0 || h == 0 {
		return
	}
	style := n.style
	ls := n.lines
	horiz := func(left, right string) string {
		var sb bytes.Buffer
		inner := w
		if n.borders.Left {
			sb.WriteString(left)
			inner--
		}
		if n.borders.Right && inner > 0 {
			inner--
		}
		for range inner {
			sb.WriteString(ls.Horizontal)
		}
		if n.borders.Right && w > l {
			sb.WriteString(right)
		}
		return style.Render(sb.String())
	}
	if n.borders.Top {
		f.moveTo(area.Pos)
		f.out.WriteString(horiz(ls.TopLeft, ls.TopRight))
	}
	if n.borders.Bottom && h > t {
		f.moveTo(Pos{X: area.Pos.X, Y: area.Pos.Y + h - 1})
		f.out.WriteString(horiz(ls.BottomLeft, ls.BottomRight))
	}
	side := style.Render(ls.Vertical)
	for y := t; y+b < h; y++ {
		row := area.Pos.Y + y
		if n.borders.Left {
			f.moveTo(Pos{X: area.Pos.X, Y: row})
			f.out.WriteString(side)
		}
		if n.borders.Right && w > l {
			f.moveTo(Pos{X: area.Pos.X + w - 1, Y: row})
			f.out.WriteString(side)
		}
	}
	f.render(n.inner, area.Shrink(l, t, r, b))
}

func (f *frame) renderInteract(n *interactNode, area Area) {
	lay := f.layout
	idx := len(lay.entries)
	lay.entries = append(lay.entries, HitEntry{Area: area, Tag: n.tag, HasHover: n.hasHover})

	if !lay.hasMouse || !area.Contains(lay.mouse) {
		f.render(n.normal, area)
		return
	}
	if lay.owner >= 0 {
		if f.hovering {
			debugLog.Printf("tui: warn: nested interactive element %s inside hovered %s", n.tag, lay.entries[lay.owner].Tag)
		}
		f.render(n.normal, area)
		return
	}
	lay.owner = idx
	if !n.hasHover {
		f.render(n.normal, area)
		return
	}
	f.hovering = true
	f.render(n.hovered, area)
	f.hovering = false
}
