package modules

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"
)

const (
	sniWatcher     = "org.kde.StatusNotifierWatcher"
	sniWatcherPath = dbus.ObjectPath("/StatusNotifierWatcher")
	sniItem        = "org.kde.StatusNotifierItem"
	sniItemPath    = dbus.ObjectPath("/StatusNotifierItem")
	dbusMenu       = "com.canonical.dbusmenu"
	dbusProps      = "org.freedesktop.DBus.Properties"

	trayCallTimeout = 2 * time.Second
)

type dbusTray struct {
	conn    *dbus.Conn
	signals chan *dbus.Signal
	changes chan struct{}

	mu    sync.Mutex
	menus map[string]dbus.ObjectPath
}

// DialTray registers a StatusNotifierHost on the session bus. A
// StatusNotifierWatcher must already be running.
func DialTray() (TrayBus, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, fmt.Errorf("tray: session bus: %w", err)
	}
	name := fmt.Sprintf("org.kde.StatusNotifierHost-%d-1", os.Getpid())
	if _, err := conn.RequestName(name, dbus.NameFlagDoNotQueue); err != nil {
		conn.Close()
		return nil, fmt.Errorf("tray: request name: %w", err)
	}
	err = conn.Object(sniWatcher, sniWatcherPath).Call(sniWatcher+".RegisterStatusNotifierHost", 0, name).Err
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("tray: register host: %w", err)
	}
	for _, iface := range []string{sniWatcher, sniItem, dbusMenu} {
		if err := conn.AddMatchSignal(dbus.WithMatchInterface(iface)); err != nil {
			conn.Close()
			return nil, fmt.Errorf("tray: match %s: %w", iface, err)
		}
	}

	t := &dbusTray{
		conn:    conn,
		signals: make(chan *dbus.Signal, 64),
		changes: make(chan struct{}, 1),
		menus:   make(map[string]dbus.ObjectPath),
	}
	conn.Signal(t.signals)
	go t.pump()
	return t, nil
}

// pump turns signals into change notifications. The signal channel is
// closed with the connection.
func (t *dbusTray) pump() {
	defer close(t.changes)
	for range t.signals {
		select {
		case t.changes <- struct{}{}:
		default:
		}
	}
}

func (t *dbusTray) Changes() <-chan struct{} { return t.changes }

func (t *dbusTray) Close() error { return t.conn.Close() }

// splitAddr splits a registered item, "service" or "service/path".
func splitAddr(addr string) (string, dbus.ObjectPath) {
	if i := strings.IndexByte(addr, '/'); i >= 0 {
		return addr[:i], dbus.ObjectPath(addr[i:])
	}
	return addr, sniItemPath
}

func (t *dbusTray) Items(ctx context.Context) ([]string, error) {
	var v dbus.Variant
	err := t.conn.Object(sniWatcher, sniWatcherPath).
		CallWithContext(ctx, dbusProps+".Get", 0, sniWatcher, "RegisteredStatusNotifierItems").
		Store(&v)
	if err != nil {
		return nil, fmt.Errorf("tray: list items: %w", err)
	}
	var items []string
	if err := dbus.Store([]interface{}{v.Value()}, &items); err != nil {
		return nil, fmt.Errorf("tray: list items: %w", err)
	}
	return items, nil
}

type sniPixmap struct {
	W, H int32
	Pix  []byte
}

type sniToolTip struct {
	IconName    string
	Icon        []sniPixmap
	Title       string
	Description string
}

func (t *dbusTray) Item(ctx context.Context, addr string) (TrayItem, error) {
	dest, path := splitAddr(addr)
	var props map[string]dbus.Variant
	err := t.conn.Object(dest, path).CallWithContext(ctx, dbusProps+".GetAll", 0, sniItem).Store(&props)
	if err != nil {
		return TrayItem{}, err
	}

	str := func(k string) string {
		s, _ := props[k].Value().(string)
		return s
	}
	item := TrayItem{Title: str("Title")}
	if item.Title == "" {
		item.Title = str("Id")
	}
	if v, ok := props["IconPixmap"]; ok {
		var icons []sniPixmap
		if err := dbus.Store([]interface{}{v.Value()}, &icons); err == nil {
			for _, p := range icons {
				item.Icon = append(item.Icon, TrayPixmap{W: p.W, H: p.H, ARGB: p.Pix})
			}
		}
	}
	if v, ok := props["ToolTip"]; ok {
		var tip sniToolTip
		if err := dbus.Store([]interface{}{v.Value()}, &tip); err == nil {
			item.ToolTip, item.Description = tip.Title, tip.Description
		}
	}

	t.mu.Lock()
	defer t.mu.Unlock()
	if p, ok := props["Menu"].Value().(dbus.ObjectPath); ok && p.IsValid() && p != "/" {
		t.menus[addr] = p
		item.HasMenu = true
	} else {
		delete(t.menus, addr)
	}
	return item, nil
}

type dbusMenuNode struct {
	ID       int32
	Props    map[string]dbus.Variant
	Children []dbus.Variant
}

func (t *dbusTray) menuPath(addr string) (dbus.ObjectPath, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	p, ok := t.menus[addr]
	return p, ok
}

func (t *dbusTray) Menu(ctx context.Context, addr string) ([]TrayMenuItem, error) {
	path, ok := t.menuPath(addr)
	if !ok {
		return nil, nil
	}
	dest, _ := splitAddr(addr)
	var rev uint32
	var root dbusMenuNode
	err := t.conn.Object(dest, path).
		CallWithContext(ctx, dbusMenu+".GetLayout", 0, int32(0), int32(-1), []string{}).
		Store(&rev, &root)
	if err != nil {
		return nil, err
	}
	return convertMenu(root.Children), nil
}

// convertMenu reads dbusmenu layout children, skipping hidden entries.
func convertMenu(children []dbus.Variant) []TrayMenuItem {
	var out []TrayMenuItem
	for _, c := range children {
		var n dbusMenuNode
		if err := dbus.Store([]interface{}{c.Value()}, &n); err != nil {
			debugLog.Printf("modules: tray: menu entry: %v", err)
			continue
		}
		if visible, ok := n.Props["visible"].Value().(bool); ok && !visible {
			continue
		}
		item := TrayMenuItem{ID: n.ID, Enabled: true}
		item.Label, _ = n.Props["label"].Value().(string)
		if typ, _ := n.Props["type"].Value().(string); typ == "separator" {
			item.Separator = true
		}
		if enabled, ok := n.Props["enabled"].Value().(bool); ok {
			item.Enabled = enabled
		}
		item.Children = convertMenu(n.Children)
		out = append(out, item)
	}
	return out
}

func (t *dbusTray) call(dest string, path dbus.ObjectPath, method string, args ...interface{}) error {
	ctx, cancel := context.WithTimeout(context.Background(), trayCallTimeout)
	defer cancel()
	if err := t.conn.Object(dest, path).CallWithContext(ctx, method, 0, args...).Err; err != nil {
		return fmt.Errorf("%s %s: %w", dest, method, err)
	}
	return nil
}

func (t *dbusTray) Activate(addr string) error {
	dest, path := splitAddr(addr)
	return t.call(dest, path, sniItem+".Activate", int32(0), int32(0))
}

func (t *dbusTray) SecondaryActivate(addr string) error {
	dest, path := splitAddr(addr)
	return t.call(dest, path, sniItem+".SecondaryActivate", int32(0), int32(0))
}

func (t *dbusTray) Scroll(addr string, delta int32, orientation string) error {
	dest, path := splitAddr(addr)
	return t.call(dest, path, sniItem+".Scroll", delta, orientation)
}

func (t *dbusTray) MenuEvent(addr string, id int32) error {
	path, ok := t.menuPath(addr)
	if !ok {
		return fmt.Errorf("%s: no menu", addr)
	}
	dest, _ := splitAddr(addr)
	return t.call(dest, path, dbusMenu+".Event", id, "clicked", dbus.MakeVariant(int32(0)), uint32(time.Now().Unix()))
}
