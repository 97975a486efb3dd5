package host

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/b/panelbar/pkg/menu"
	"github.com/b/panelbar/pkg/monitors"
	"github.com/b/panelbar/pkg/perf"
	"github.com/b/panelbar/pkg/terminal"
	"github.com/b/panelbar/pkg/tui"
)

var ErrDisconnected = errors.New("terminal disconnected")

// Terminal is a connected panel as seen from the host.
type Terminal interface {
	Events() <-chan terminal.Event
	Send(terminal.Update)
	Sizes() terminal.Sizes
	Err() error
}

// MonitorLoop owns the bar and menu panels of one monitor. All layout,
// hover and menu state lives on the goroutine running Run.
type MonitorLoop struct {
	Monitor  monitors.MonitorInfo
	Bar      Terminal
	Menu     Terminal
	Registry *Registry
	Padding  menu.Padding
}

type panel struct {
	term   Terminal
	sizes  terminal.Sizes
	layout *tui.RenderedLayout
	dirty  bool
}

func (p *panel) send(updates ...terminal.Update) {
	for _, u := range updates {
		p.term.Send(u)
	}
}

type loopState struct {
	*MonitorLoop
	bar, menu panel
	ctrl      menu.Controller
	barElem   tui.Elem
	hidden    bool
	menuShown bool
	drawn     menu.State
}

// Run draws and dispatches until ctx is done or a terminal goes away.
func (m *MonitorLoop) Run(ctx context.Context) error {
	s := &loopState{
		MonitorLoop: m,
		bar:         panel{term: m.Bar, sizes: m.Bar.Sizes()},
		menu:        panel{term: m.Menu, sizes: m.Menu.Sizes()},
	}
	s.menu.send(terminal.RemoteControl(menu.HideArgs()...))
	if m.Padding.Vertical {
		s.menu.send(terminal.RemoteControl("set-spacing", "padding-top=1", "padding-bottom=1"))
	}

	rev := m.Registry.Revision()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-m.Bar.Events():
			if !ok {
				return s.lost("bar", m.Bar)
			}
			s.barEvent(ev)
		case ev, ok := <-m.Menu.Events():
			if !ok {
				return s.lost("menu", m.Menu)
			}
			s.menuEvent(ev)
		case <-rev.Changed():
			rev.Load()
			s.registryChanged()
		}
		s.flush()
	}
}

func (s *loopState) lost(which string, t Terminal) error {
	err := t.Err()
	if err == nil {
		err = ErrDisconnected
	}
	return fmt.Errorf("%s %s: %w", s.Monitor.Name, which, err)
}

func (s *loopState) menuArgs() tui.SizingArgs { return s.menu.sizes.SizingArgs() }

func (s *loopState) locate(tag tui.InteractTag) (tui.PixPos, bool) {
	return s.bar.layout.PixLocation(tag, s.bar.sizes.FontSize())
}

func (s *loopState) route(res tui.InteractionResult, inMenu bool, p *panel) {
	if !res.HasTag {
		return
	}
	s.Registry.Route(Interaction{
		Monitor: s.Monitor.Name,
		InMenu:  inMenu,
		Kind:    res.Kind,
		Tag:     res.Tag,
		Shell: func(cmd string, args ...string) {
			p.send(terminal.Shell(cmd, args...))
		},
	})
}

func (s *loopState) barEvent(ev terminal.Event) {
	switch ev.Kind {
	case terminal.EventMouse:
		res := s.bar.layout.InterpretMouseEvent(ev.Mouse, s.bar.sizes.FontSize())
		if res.NeedsRerender {
			s.bar.dirty = true
		}
		if !res.Propagate() {
			return
		}
		if s.ctrl.HandleBar(res, s.Registry, s.locate, s.menuArgs()) {
			s.menu.dirty = true
		}
		s.route(res, false, &s.bar)
	case terminal.EventResize:
		s.bar.sizes = ev.Sizes
		s.bar.dirty = true
	case terminal.EventFocus:
		if ev.Focused {
			return
		}
		if s.bar.layout.FocusLoss() {
			s.bar.dirty = true
		}
		if s.ctrl.State().Kind == menu.Tooltip && s.ctrl.Close() {
			s.menu.dirty = true
		}
	}
}

func (s *loopState) menuEvent(ev terminal.Event) {
	switch ev.Kind {
	case terminal.EventMouse:
		res := s.menu.layout.InterpretMouseEvent(ev.Mouse, s.menu.sizes.FontSize())
		if res.NeedsRerender {
			s.menu.dirty = true
		}
		if !res.Propagate() {
			return
		}
		if s.ctrl.HandleMenu(res) {
			s.menu.dirty = true
			return
		}
		s.route(res, true, &s.menu)
	case terminal.EventResize:
		fontChanged := ev.Sizes.FontSize() != s.menu.sizes.FontSize()
		s.menu.sizes = ev.Sizes
		if fontChanged {
			s.ctrl.Resize(s.menuArgs())
			s.menu.dirty = true
		}
	case terminal.EventFocus:
		if ev.Focused {
			return
		}
		s.menu.layout.FocusLoss()
		if s.bar.layout.FocusLoss() {
			s.bar.dirty = true
		}
		if s.ctrl.FocusLoss() {
			s.menu.dirty = true
		}
	}
}

func (s *loopState) registryChanged() {
	name := s.Monitor.Name
	if hidden := s.Registry.Hidden(name); hidden != s.hidden {
		s.hidden = hidden
		if hidden {
			s.bar.send(terminal.RemoteControl(menu.HideArgs()...))
			if s.ctrl.Close() {
				s.menu.dirty = true
			}
		} else {
			s.bar.send(terminal.RemoteControl(menu.ShowArgs()...))
			s.bar.dirty = true
		}
	}
	// Menu-only changes leave the composed bar untouched.
	if next := s.Registry.Bar(name); !tui.Same(next, s.barElem) {
		s.barElem = next
		s.bar.dirty = true
	}
	if s.ctrl.Refresh(s.Registry, s.menuArgs()) {
		s.menu.dirty = true
	}
}

func (s *loopState) flush() {
	if s.menu.dirty {
		s.menu.dirty = false
		s.renderMenu()
	}
	if s.bar.dirty {
		s.bar.dirty = false
		s.renderBar()
	}
}

func (s *loopState) draw(p *panel, what string, e tui.Elem, area tui.Area) {
	var buf bytes.Buffer
	var layout *tui.RenderedLayout
	var err error
	perf.Track(s.Monitor.Name+" "+what, func() {
		layout, err = tui.Render(&buf, e, area, p.sizes.SizingArgs(), p.layout)
	})
	if err != nil {
		debugLog.Printf("host: %s %s: render: %v", s.Monitor.Name, what, err)
		return
	}
	p.layout = layout
	p.send(terminal.Print(buf.Bytes()), terminal.Flush())
}

func (s *loopState) renderBar() {
	if s.hidden {
		return
	}
	s.draw(&s.bar, "bar", s.barElem, s.bar.sizes.Area())
}

func (s *loopState) renderMenu() {
	if !s.ctrl.Open() {
		s.menu.layout = nil
		s.drawn = menu.State{}
		if s.menuShown {
			s.menuShown = false
			s.menu.send(terminal.RemoteControl(menu.HideArgs()...))
		}
		return
	}

	// Hover state of other content must not carry over.
	if st := s.ctrl.State(); st != s.drawn {
		s.menu.layout = nil
		s.drawn = st
	}

	size := s.ctrl.Size()
	p := menu.Place(s.ctrl.Anchor().X, size, s.menu.sizes.FontSize(), s.Monitor.Width, s.Monitor.Scale, s.Padding)
	s.menu.send(terminal.RemoteControl(p.Args()...))

	// The panel may still be resizing, so draw into the content size rather
	// than the terminal's current size.
	s.draw(&s.menu, "menu", s.ctrl.Content(), menu.ContentArea(size, s.Padding))

	if !s.menuShown {
		s.menuShown = true
		s.menu.send(terminal.RemoteControl(menu.ShowArgs()...))
	}
}
