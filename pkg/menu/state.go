// Package menu decides which popup menu is open for a bar and where its
// panel goes.
//
// A tooltip opens while an element with a tooltip is hovered and closes when
// the mouse moves elsewhere. A context menu opens on click and stays until
// the menu panel loses focus or another menu replaces it. Tooltips never
// replace a context menu.
package menu

import (
	"io"
	"log"

	"github.com/b/panelbar/pkg/tui"
)

var debugLog = log.New(io.Discard, "", 0)

// SetDebugLog sets the logger for state transitions.
func SetDebugLog(l *log.Logger) {
	if l != nil {
		debugLog = l
	}
}

// Kind is the kind of open menu.
type Kind uint8

const (
	Closed Kind = iota
	Tooltip
	Context
)

func (k Kind) String() string {
	switch k {
	case Tooltip:
		return "tooltip"
	case Context:
		return "context"
	default:
		return "closed"
	}
}

// State is the open menu and the element it is anchored to.
type State struct {
	Kind   Kind
	Anchor tui.InteractTag
}

func (s State) String() string {
	if s.Kind == Closed {
		return "closed"
	}
	return s.Kind.String() + "(" + s.Anchor.String() + ")"
}

// Menus are the menus registered for an element. An empty element means
// the menu does not exist.
type Menus struct {
	Tooltip tui.Elem
	Context tui.Elem
}

func (m Menus) get(k Kind) tui.Elem {
	switch k {
	case Tooltip:
		return m.Tooltip
	case Context:
		return m.Context
	}
	return tui.Empty()
}

// Source looks up the menus registered for a tag.
type Source interface {
	Menus(tag tui.InteractTag) (Menus, bool)
}

// Locator finds the pixel center of a bar element in the current bar
// layout.
type Locator func(tag tui.InteractTag) (tui.PixPos, bool)

// Controller tracks the open menu of one bar. It is owned by a single
// goroutine.
type Controller struct {
	state   State
	anchor  tui.PixPos
	content tui.Elem
	size    tui.Size
}

func (c *Controller) State() State      { return c.state }
func (c *Controller) Open() bool        { return c.state.Kind != Closed }
func (c *Controller) Content() tui.Elem { return c.content }

// Size is the minimum size of the current content.
func (c *Controller) Size() tui.Size { return c.size }

// Anchor is the bar pixel location the menu is attached to.
func (c *Controller) Anchor() tui.PixPos { return c.anchor }

// HandleBar applies an interaction from the bar terminal. It returns true
// if the menu needs to be placed and drawn again.
func (c *Controller) HandleBar(res tui.InteractionResult, src Source, locate Locator, args tui.SizingArgs) bool {
	var menus Menus
	if res.HasTag {
		menus, _ = src.Menus(res.Tag)
	}

	switch {
	case res.Kind.IsHover():
		if !menus.Tooltip.IsEmpty() {
			if c.state.Kind == Context {
				return false
			}
			if c.state.Kind == Tooltip && c.state.Anchor == res.Tag {
				return false
			}
			return c.open(Tooltip, res.Tag, menus.Tooltip, locate, args)
		}
		if c.state.Kind == Tooltip {
			return c.Close()
		}
	case res.Kind.IsClick():
		if !menus.Context.IsEmpty() {
			return c.open(Context, res.Tag, menus.Context, locate, args)
		}
		if !res.HasTag {
			return c.Close()
		}
	}
	return false
}

// HandleMenu applies an interaction from the menu terminal. Tooltips are not
// interactive, so the mouse reaching one closes it.
func (c *Controller) HandleMenu(res tui.InteractionResult) bool {
	if c.state.Kind == Tooltip {
		return c.Close()
	}
	return false
}

// FocusLoss closes whatever menu is open.
func (c *Controller) FocusLoss() bool {
	return c.Close()
}

// Close closes the menu. It returns false if nothing was open.
func (c *Controller) Close() bool {
	if c.state.Kind == Closed {
		return false
	}
	debugLog.Printf("menu: %s -> closed", c.state)
	*c = Controller{}
	return true
}

// Refresh picks up new content for the open menu, e.g. a ticking clock in a
// tooltip. The anchor is kept.
func (c *Controller) Refresh(src Source, args tui.SizingArgs) bool {
	if c.state.Kind == Closed {
		return false
	}
	menus, ok := src.Menus(c.state.Anchor)
	content := menus.get(c.state.Kind)
	if !ok || content.IsEmpty() {
		return c.Close()
	}
	if tui.Same(content, c.content) {
		return false
	}
	c.content = content
	c.size = tui.CalcMinSize(content, args)
	return true
}

// Resize recomputes the content size after the menu font changed.
func (c *Controller) Resize(args tui.SizingArgs) {
	if c.state.Kind != Closed {
		c.size = tui.CalcMinSize(c.content, args)
	}
}

func (c *Controller) open(kind Kind, tag tui.InteractTag, content tui.Elem, locate Locator, args tui.SizingArgs) bool {
	if c.state.Kind == Closed || c.state.Anchor != tag {
		anchor, ok := locate(tag)
		if !ok {
			debugLog.Printf("menu: no location for %s, not opening %s", tag, kind)
			return false
		}
		c.anchor = anchor
	}
	next := State{Kind: kind, Anchor: tag}
	if next != c.state {
		debugLog.Printf("menu: %s -> %s", c.state, next)
	}
	c.state = next
	c.content = content
	c.size = tui.CalcMinSize(content, args)
	return true
}
