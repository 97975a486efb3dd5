package modules

import (
	"context"
	"fmt"
	"strconv"

	"github.com/charmbracelet/lipgloss"

	"github.com/b/panelbar/pkg/host"
	"github.com/b/panelbar/pkg/menu"
	"github.com/b/panelbar/pkg/monitors"
	"github.com/b/panelbar/pkg/tui"
)

// Workspaces lists the workspaces of each monitor. Clicking one switches
// to it and scrolling moves between the monitor's workspaces.
type Workspaces struct {
	env Env
}

func (w *Workspaces) Run(ctx context.Context, id string, sink Sink) error {
	defer sink.Clear(id)
	rx := w.env.Desktop.Subscribe()
	shown := map[string]bool{}
	tags := map[tui.InteractTag]bool{}
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-rx.Changed():
		}
		d := rx.Load()

		seen := map[string]bool{}
		live := map[tui.InteractTag]bool{}
		for _, mon := range d.Monitors {
			seen[mon.Name] = true
			sink.SetMonitor(id, mon.Name, w.render(id, d.OnMonitor(mon.Name), live, sink))
		}
		for name := range shown {
			if !seen[name] {
				sink.SetMonitor(id, name, tui.Empty())
			}
		}
		for tag := range tags {
			if !live[tag] {
				sink.Unregister(tag)
			}
		}
		shown, tags = seen, live
	}
}

func (w *Workspaces) render(id string, list []monitors.Workspace, live map[tui.InteractTag]bool, sink Sink) tui.Elem {
	pal := w.env.Palette
	b := tui.NewStackBuilder(tui.AxisX)
	for _, ws := range list {
		label := " " + ws.Name + " "
		style := w.env.style(pal.Fg)
		switch {
		case ws.Active:
			style = w.env.style(pal.TextOn(pal.Accent)).Background(lipgloss.Color(pal.Accent))
		case ws.Windows == 0:
			style = w.env.style(pal.Muted)
		}
		tag := tui.NewTag(id, strconv.Itoa(ws.ID))
		live[tag] = true
		if b.Len() > 0 {
			b.Spacing(1)
		}
		hovered := style
		if !ws.Active {
			hovered = style.Background(lipgloss.Color(pal.Hover))
		}
		b.Fit(tui.Text(label, style).InteractiveHover(tag, tui.Text(label, hovered)))

		sink.Register(tag, menu.Menus{
			Tooltip: w.env.box(tui.Text(windowCount(ws.Windows), w.env.style(pal.Fg))),
		}, workspaceHandler(ws.ID))
	}
	return b.Build()
}

func windowCount(n int) string {
	if n == 1 {
		return "1 window"
	}
	return fmt.Sprintf("%d windows", n)
}

func workspaceHandler(wsID int) host.Handler {
	return func(ev host.Interaction) {
		switch {
		case ev.Kind.IsLeftClick():
			ev.Shell("hyprctl", "dispatch", "workspace", strconv.Itoa(wsID))
		case ev.Kind == tui.Scroll(tui.ScrollUp):
			ev.Shell("hyprctl", "dispatch", "workspace", "m-1")
		case ev.Kind == tui.Scroll(tui.ScrollDown):
			ev.Shell("hyprctl", "dispatch", "workspace", "m+1")
		}
	}
}
