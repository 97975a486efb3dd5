package monitors

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/b/panelbar/pkg/watch"
)

var debugLog = log.New(io.Discard, "", 0)

// SetDebugLog sets the logger for compositor events.
func SetDebugLog(l *log.Logger) {
	if l != nil {
		debugLog = l
	}
}

// Event is one line from Hyprland's event socket, "name>>data".
type Event struct {
	Name string
	Data string
}

func parseEvent(line string) (Event, bool) {
	name, data, ok := strings.Cut(line, ">>")
	if !ok || name == "" {
		return Event{}, false
	}
	return Event{Name: name, Data: data}, true
}

// refetch reports whether an event can change monitors or workspaces.
func refetch(ev Event) bool {
	switch ev.Name {
	case "monitoradded", "monitoraddedv2", "monitorremoved", "monitorremovedv2",
		"focusedmon", "focusedmonv2", "workspace", "workspacev2",
		"createworkspace", "createworkspacev2", "destroyworkspace", "destroyworkspacev2",
		"moveworkspace", "moveworkspacev2", "renameworkspace",
		"openwindow", "closewindow", "movewindow", "movewindowv2":
		return true
	}
	return false
}

// EventSocket is the path of Hyprland's event socket.
func EventSocket() (string, error) {
	sig := os.Getenv("HYPRLAND_INSTANCE_SIGNATURE")
	if sig == "" {
		return "", fmt.Errorf("HYPRLAND_INSTANCE_SIGNATURE not set")
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		path := filepath.Join(dir, "hypr", sig, ".socket2.sock")
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}
	return filepath.Join("/tmp", "hypr", sig, ".socket2.sock"), nil
}

// readEvents calls fn for every relevant event until r ends.
func readEvents(r io.Reader, fn func(Event)) error {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if ev, ok := parseEvent(scanner.Text()); ok && refetch(ev) {
			fn(ev)
		}
	}
	return scanner.Err()
}

// Tracker keeps a Desktop snapshot current.
type Tracker struct {
	Desktop *watch.Value[Desktop]
	// Fetch and Dial are replaceable for tests.
	Fetch func(context.Context) (Desktop, error)
	Dial  func(context.Context) (net.Conn, error)
	// Poll is the refresh interval used while the event socket is unavailable.
	Poll time.Duration
}

// NewTracker fetches from hyprctl and listens on the event socket.
func NewTracker() *Tracker {
	return &Tracker{
		Desktop: watch.New(Desktop{}),
		Fetch:   Snapshot,
		Dial: func(ctx context.Context) (net.Conn, error) {
			path, err := EventSocket()
			if err != nil {
				return nil, err
			}
			var d net.Dialer
			return d.DialContext(ctx, "unix", path)
		},
		Poll: 500 * time.Millisecond,
	}
}

func (t *Tracker) refresh(ctx context.Context) {
	d, err := t.Fetch(ctx)
	if err != nil {
		debugLog.Printf("monitors: %v", err)
		return
	}
	t.Desktop.Set(d)
}

// Run refreshes on every relevant compositor event until ctx is done. If
// the event socket cannot be reached it falls back to polling.
func (t *Tracker) Run(ctx context.Context) error {
	t.refresh(ctx)
	for ctx.Err() == nil {
		conn, err := t.Dial(ctx)
		if err != nil {
			debugLog.Printf("monitors: event socket: %v, polling", err)
			t.poll(ctx, 10*time.Second)
			continue
		}
		stop := context.AfterFunc(ctx, func() { conn.Close() })
		err = readEvents(conn, func(Event) { t.refresh(ctx) })
		stop()
		conn.Close()
		if ctx.Err() == nil {
			debugLog.Printf("monitors: event socket closed: %v", err)
			t.refresh(ctx)
		}
	}
	return nil
}

// poll refreshes every t.Poll for d, then returns.
func (t *Tracker) poll(ctx context.Context, d time.Duration) {
	ticker := time.NewTicker(t.Poll)
	defer ticker.Stop()
	deadline := time.After(d)
	for {
		select {
		case <-ctx.Done():
			return
		case <-deadline:
			return
		case <-ticker.C:
			t.refresh(ctx)
		}
	}
}
