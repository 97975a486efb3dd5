package modules

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/b/panelbar/pkg/host"
	"github.com/b/panelbar/pkg/menu"
	"github.com/b/panelbar/pkg/tui"
)

const (
	trayRetry    = 90 * time.Second
	trayDebounce = 50 * time.Millisecond
)

// TrayPixmap is one StatusNotifierItem icon: ARGB32 pixels in network byte
// order.
type TrayPixmap struct {
	W, H int32
	ARGB []byte
}

// TrayItem is what the bar shows for one tray entry.
type TrayItem struct {
	Title       string
	ToolTip     string
	Description string
	Icon        []TrayPixmap
	// HasMenu is set when the item exports a dbusmenu.
	HasMenu bool
}

// TrayMenuItem is a dbusmenu entry.
type TrayMenuItem struct {
	ID        int32
	Label     string
	Separator bool
	Enabled   bool
	Children  []TrayMenuItem
}

// TrayBus is the StatusNotifier host side of the session bus.
type TrayBus interface {
	// Items lists registered item addresses.
	Items(ctx context.Context) ([]string, error)
	Item(ctx context.Context, addr string) (TrayItem, error)
	Menu(ctx context.Context, addr string) ([]TrayMenuItem, error)
	Activate(addr string) error
	SecondaryActivate(addr string) error
	Scroll(addr string, delta int32, orientation string) error
	// MenuEvent reports a click on a menu entry.
	MenuEvent(addr string, id int32) error
	// Changes fires when items come, go or change.
	Changes() <-chan struct{}
	Close() error
}

// Tray shows StatusNotifierItem icons. A left click activates an item, a
// middle click runs its secondary action and the right click menu comes
// from the item's dbusmenu.
type Tray struct {
	env   Env
	calls chan func(TrayBus) error
}

// PixmapRGBA converts an ARGB32 pixmap to RGBA.
func PixmapRGBA(p TrayPixmap) ([]byte, error) {
	if p.W <= 0 || p.H <= 0 || len(p.ARGB) != int(p.W)*int(p.H)*4 {
		return nil, errors.New("tray: bad pixmap size")
	}
	out := make([]byte, len(p.ARGB))
	for i := 0; i < len(p.ARGB); i += 4 {
		out[i], out[i+1], out[i+2], out[i+3] = p.ARGB[i+1], p.ARGB[i+2], p.ARGB[i+3], p.ARGB[i]
	}
	return out, nil
}

// bestPixmap picks the largest icon; the terminal scales it to one row.
func bestPixmap(icons []TrayPixmap) (TrayPixmap, bool) {
	if len(icons) == 0 {
		return TrayPixmap{}, false
	}
	return slices.MaxFunc(icons, func(a, b TrayPixmap) int {
		return int(a.W)*int(a.H) - int(b.W)*int(b.H)
	}), true
}

// menuLabel drops dbusmenu mnemonic markers.
func menuLabel(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '_' {
			if i+1 < len(s) && s[i+1] == '_' {
				b.WriteByte('_')
				i++
			}
			continue
		}
		b.WriteByte(s[i])
	}
	return b.String()
}

func (t *Tray) Run(ctx context.Context, id string, sink Sink) error {
	t.calls = make(chan func(TrayBus) error, 16)
	defer sink.Clear(id)

	for {
		bus, err := t.dial()
		if err == nil {
			err = t.serve(ctx, bus, id, sink)
			bus.Close()
			if ctx.Err() != nil {
				return nil
			}
		}
		debugLog.Printf("modules: tray: %v; retrying in %s", err, trayRetry)
		sink.Clear(id)
		if !sleep(ctx, trayRetry) {
			return nil
		}
	}
}

func (t *Tray) dial() (TrayBus, error) {
	if t.env.Tray != nil {
		return t.env.Tray()
	}
	return DialTray()
}

func (t *Tray) serve(ctx context.Context, bus TrayBus, id string, sink Sink) error {
	var registered []tui.InteractTag
	for {
		next, err := t.publish(ctx, bus, id, sink)
		if err != nil {
			return err
		}
		for _, tag := range registered {
			if !slices.Contains(next, tag) {
				sink.Unregister(tag)
			}
		}
		registered = next

		if err := t.wait(ctx, bus); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return nil
		}
	}
}

// wait runs calls from handlers until the bus reports a change and has been
// quiet for trayDebounce, since items often change several properties in a
// row.
func (t *Tray) wait(ctx context.Context, bus TrayBus) error {
	var quiet <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return nil
		case call := <-t.calls:
			if err := call(bus); err != nil {
				debugLog.Printf("modules: tray: %v", err)
			}
		case _, ok := <-bus.Changes():
			if !ok {
				return errors.New("tray: bus closed")
			}
			quiet = time.After(trayDebounce)
		case <-quiet:
			return nil
		}
	}
}

func (t *Tray) do(call func(TrayBus) error) {
	select {
	case t.calls <- call:
	default:
		debugLog.Printf("modules: tray: dropping call, bus busy")
	}
}

func (t *Tray) publish(ctx context.Context, bus TrayBus, id string, sink Sink) ([]tui.InteractTag, error) {
	addrs, err := bus.Items(ctx)
	if err != nil {
		return nil, err
	}
	slices.Sort(addrs)

	var tags []tui.InteractTag
	row := tui.NewStackBuilder(tui.AxisX)
	for _, addr := range addrs {
		item, err := bus.Item(ctx, addr)
		if err != nil {
			// Items vanish without notice.
			debugLog.Printf("modules: tray: %s: %v", addr, err)
			continue
		}
		tag := tui.NewTag(id, addr)
		tags = append(tags, tag)

		menus := menu.Menus{Tooltip: t.tooltip(item)}
		if item.HasMenu {
			entries, err := bus.Menu(ctx, addr)
			if err != nil {
				debugLog.Printf("modules: tray: %s menu: %v", addr, err)
			} else if len(entries) > 0 {
				b := tui.NewStackBuilder(tui.AxisY)
				tags = t.menuEntries(b, id, addr, entries, 0, tags, sink)
				menus.Context = t.env.box(b.Build())
			}
		}
		sink.Register(tag, menus, t.handler(addr))

		if row.Len() > 0 {
			row.Spacing(1)
		}
		row.Fit(t.icon(item).Interactive(tag))
	}
	sink.SetShared(id, row.Build())
	return tags, nil
}

func (t *Tray) icon(item TrayItem) tui.Elem {
	if p, ok := bestPixmap(item.Icon); ok {
		pix, err := PixmapRGBA(p)
		if err == nil {
			var e tui.Elem
			e, err = tui.ImageRGBA(pix, uint32(p.W), uint32(p.H), tui.FillAxis(tui.AxisY, 1))
			if err == nil {
				return e
			}
		}
		debugLog.Printf("modules: tray: %s icon: %v", item.Title, err)
	}
	name := []rune(item.Title)
	if len(name) == 0 {
		return tui.CenterSymbol("\uf059", 2)
	}
	return tui.Text(string(name[0]), t.env.style(t.env.Palette.Fg))
}

func (t *Tray) tooltip(item TrayItem) tui.Elem {
	title := item.ToolTip
	if title == "" {
		title = item.Title
	}
	if title == "" && item.Description == "" {
		return tui.Empty()
	}
	pal := t.env.Palette
	b := tui.NewStackBuilder(tui.AxisY)
	if title != "" {
		b.Fit(tui.NewStackBuilder(tui.AxisX).
			Fill(1, tui.Empty()).
			Fit(tui.Text(title, t.env.style(pal.Fg).Bold(true))).
			Fill(1, tui.Empty()).
			Build())
	}
	if item.Description != "" {
		b.Fit(tui.Text(item.Description, t.env.style(pal.Fg)))
	}
	return t.env.box(b.Build())
}

// menuEntries adds entries to b, indenting submenus, and registers a handler
// per enabled entry. It returns tags with the new ones appended.
func (t *Tray) menuEntries(b *tui.StackBuilder, id, addr string, entries []TrayMenuItem, depth uint16, tags []tui.InteractTag, sink Sink) []tui.InteractTag {
	pal := t.env.Palette
	for _, e := range entries {
		if e.Separator {
			b.Fit(tui.Block{
				Borders: tui.Borders{Top: true},
				Style:   t.env.style(pal.Muted),
				Lines:   t.env.Lines,
			}.Elem())
			continue
		}
		label := menuLabel(e.Label)
		line := tui.NewStackBuilder(tui.AxisX).Spacing(depth + 1)
		if e.Enabled {
			tag := tui.NewTag(id, addr, strconv.Itoa(int(e.ID)))
			tags = append(tags, tag)
			line.Fit(tui.UnderlineHovered(label, t.env.style(pal.Fg), tag))
			itemID := e.ID
			sink.Register(tag, menu.Menus{}, func(ev host.Interaction) {
				if ev.Kind.IsLeftClick() {
					t.do(func(bus TrayBus) error { return bus.MenuEvent(addr, itemID) })
				}
			})
		} else {
			line.Fit(tui.Text(label, t.env.style(pal.Muted)))
		}
		b.Fit(line.Spacing(1).Build())
		if len(e.Children) > 0 {
			tags = t.menuEntries(b, id, addr, e.Children, depth+1, tags, sink)
		}
	}
	return tags
}

func (t *Tray) handler(addr string) host.Handler {
	return func(ev host.Interaction) {
		switch {
		case ev.Kind.IsLeftClick():
			t.do(func(bus TrayBus) error { return bus.Activate(addr) })
		case ev.Kind == tui.Click(tui.ButtonMiddle):
			t.do(func(bus TrayBus) error { return bus.SecondaryActivate(addr) })
		case ev.Kind.Type == tui.InteractScroll:
			delta, orientation := int32(1), "vertical"
			switch ev.Kind.Direction {
			case tui.ScrollDown:
				delta = -1
			case tui.ScrollLeft:
				delta, orientation = -1, "horizontal"
			case tui.ScrollRight:
				orientation = "horizontal"
			}
			t.do(func(bus TrayBus) error { return bus.Scroll(addr, delta, orientation) })
		}
	}
}
