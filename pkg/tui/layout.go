package tui

// HitEntry is one interactive region recorded by a render.
type HitEntry struct {
	Area     Area
	Tag      InteractTag
	HasHover bool
}

// RenderedLayout is the hit table of the last frame drawn on a terminal,
// together with the mouse state that must survive across frames.
type RenderedLayout struct {
	entries []HitEntry

	mouse    Pos
	hasMouse bool

	// last is the result of the previous InterpretMouseEvent call.
	last hitRef
	// owner indexes the entry drawn hovered in this frame, or -1.
	owner int
}

type hitRef struct {
	ok       bool
	tag      InteractTag
	hasHover bool
}

// next starts the layout for a new frame, keeping the mouse state.
func (l *RenderedLayout) next() *RenderedLayout {
	out := &RenderedLayout{owner: -1}
	if l != nil {
		out.mouse, out.hasMouse = l.mouse, l.hasMouse
		out.last = l.last
	}
	return out
}

// Entries returns the hit table in render order.
func (l *RenderedLayout) Entries() []HitEntry {
	if l == nil {
		return nil
	}
	return l.entries
}

// HoverOwner returns the tag drawn hovered in the last frame.
func (l *RenderedLayout) HoverOwner() (InteractTag, bool) {
	if l == nil || l.owner < 0 {
		return InteractTag{}, false
	}
	return l.entries[l.owner].Tag, true
}

func (l *RenderedLayout) hit(p Pos) (HitEntry, bool) {
	for _, e := range l.entries {
		if e.Area.Contains(p) {
			return e, true
		}
	}
	return HitEntry{}, false
}

// PixLocation returns the pixel center of the first region recorded for tag.
func (l *RenderedLayout) PixLocation(tag InteractTag, font Size) (PixPos, bool) {
	if l == nil {
		return PixPos{}, false
	}
	for _, e := range l.entries {
		if e.Tag != tag {
			continue
		}
		fw, fh := uint32(font.W), uint32(font.H)
		return PixPos{
			X: uint32(e.Area.Pos.X)*fw + uint32(e.Area.Size.W)*fw/2,
			Y: uint32(e.Area.Pos.Y)*fh + uint32(e.Area.Size.H)*fh/2,
		}, true
	}
	return PixPos{}, false
}

// InteractionResult is a mouse event resolved against a hit table.
type InteractionResult struct {
	Kind InteractKind
	// Tag is valid when HasTag is set; otherwise the event hit empty space.
	Tag    InteractTag
	HasTag bool
	// HasHover reports whether the resolved element has a hover variant.
	HasHover bool
	// Changed is set when the resolved element differs from the previous
	// event's.
	Changed bool
	// NeedsRerender is set when the element drawn hovered in the last frame
	// is no longer the one under the mouse.
	NeedsRerender bool
}

// Propagate reports whether the result should be passed on to the module
// owning the tag. Unchanged hovers are dropped.
func (r InteractionResult) Propagate() bool {
	return r.Changed || !r.Kind.IsHover()
}

// InterpretMouseEvent resolves ev (pixel coordinates) against the hit table.
// font is the terminal cell size in pixels.
func (l *RenderedLayout) InterpretMouseEvent(ev MouseEvent, font Size) InteractionResult {
	if l == nil {
		return InteractionResult{Kind: KindOf(ev)}
	}
	var pos Pos
	if font.W > 0 && font.H > 0 {
		pos = Pos{
			X: uint16(min(ev.X/uint32(font.W), 0xffff)),
			Y: uint16(min(ev.Y/uint32(font.H), 0xffff)),
		}
	}
	l.mouse, l.hasMouse = pos, true

	res := InteractionResult{Kind: KindOf(ev)}
	cur := hitRef{}
	if e, ok := l.hit(pos); ok {
		cur = hitRef{ok: true, tag: e.Tag, hasHover: e.HasHover}
		res.Tag, res.HasTag, res.HasHover = e.Tag, true, e.HasHover
	}
	res.Changed = cur.ok != l.last.ok || (cur.ok && cur.tag != l.last.tag)
	l.last = cur

	owner := hitRef{}
	if l.owner >= 0 {
		e := l.entries[l.owner]
		owner = hitRef{ok: true, tag: e.Tag, hasHover: e.HasHover}
	}
	moved := cur.ok != owner.ok || (cur.ok && cur.tag != owner.tag)
	res.NeedsRerender = moved && (owner.hasHover || cur.hasHover)
	return res
}

// FocusLoss forgets the mouse, e.g. after it left the window. It returns
// true if an element was drawn hovered and the frame should be redrawn.
func (l *RenderedLayout) FocusLoss() bool {
	if l == nil {
		return false
	}
	hadOwner := l.owner >= 0
	l.hasMouse = false
	l.last = hitRef{}
	l.owner = -1
	return hadOwner
}
