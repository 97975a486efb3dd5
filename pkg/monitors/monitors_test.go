package monitors

import (
	"context"
	"errors"
	"net"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const monitorsJSON = `[
  {"id":0,"name":"DP-1","width":2560,"height":1440,"scale":1.25,"disabled":false,"activeWorkspace":{"id":2,"name":"2"}},
  {"id":1,"name":"HDMI-A-1","width":1920,"height":1080,"scale":1.0,"disabled":false,"activeWorkspace":{"id":10,"name":"web"}},
  {"id":2,"name":"eDP-1","width":1920,"height":1200,"scale":1.5,"disabled":true,"activeWorkspace":{"id":0,"name":""}}
]`

const workspacesJSON = `[
  {"id":10,"name":"web","monitor":"HDMI-A-1","windows":1},
  {"id":2,"name":"2","monitor":"DP-1","windows":3},
  {"id":-98,"name":"special:scratch","monitor":"DP-1","windows":1},
  {"id":11,"name":"11","monitor":"DP-1","windows":0},
  {"id":1,"name":"1","monitor":"DP-1","windows":2}
]`

func TestParseMonitors(t *testing.T) {
	mons, err := ParseMonitors([]byte(monitorsJSON))
	require.NoError(t, err)
	assert.Equal(t, []MonitorInfo{
		{Name: "DP-1", Scale: 1.25, Width: 2560, Height: 1440},
		{Name: "HDMI-A-1", Scale: 1, Width: 1920, Height: 1080},
	}, mons)

	_, err = ParseMonitors([]byte("not json"))
	assert.Error(t, err)
}

func TestParseDesktop(t *testing.T) {
	d, err := ParseDesktop([]byte(monitorsJSON), []byte(workspacesJSON))
	require.NoError(t, err)
	require.Len(t, d.Monitors, 2)

	dp := d.OnMonitor("DP-1")
	require.Len(t, dp, 3)
	assert.Equal(t, []string{"1", "2", "11"}, []string{dp[0].Name, dp[1].Name, dp[2].Name})
	assert.False(t, dp[0].Active)
	assert.True(t, dp[1].Active)

	hdmi := d.OnMonitor("HDMI-A-1")
	require.Len(t, hdmi, 1)
	assert.True(t, hdmi[0].Active)
	assert.Empty(t, d.OnMonitor("eDP-1"))
}

func TestFind(t *testing.T) {
	mons := []MonitorInfo{{Name: "DP-1", Width: 100}}
	m, err := Find(mons, "DP-1")
	require.NoError(t, err)
	assert.Equal(t, uint32(100), m.Width)

	_, err = Find(mons, "DP-9")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDiff(t *testing.T) {
	prev := []MonitorInfo{{Name: "A", Scale: 1}, {Name: "B", Scale: 1}}
	next := []MonitorInfo{{Name: "A", Scale: 1}, {Name: "B", Scale: 2}, {Name: "C", Scale: 1}}
	removed, changed := Diff(prev, next)
	assert.Empty(t, removed)
	assert.Equal(t, []MonitorInfo{{Name: "B", Scale: 2}, {Name: "C", Scale: 1}}, changed)

	removed, changed = Diff(next, prev[:1])
	assert.Equal(t, []string{"B", "C"}, removed)
	assert.Empty(t, changed)
}

func TestReadEvents(t *testing.T) {
	input := strings.Join([]string{
		"activewindow>>kitty,~",
		"workspace>>3",
		"garbage",
		"monitorremoved>>HDMI-A-1",
	}, "\n")
	var got []Event
	require.NoError(t, readEvents(strings.NewReader(input), func(ev Event) { got = append(got, ev) }))
	assert.Equal(t, []Event{{Name: "workspace", Data: "3"}, {Name: "monitorremoved", Data: "HDMI-A-1"}}, got)
}

func TestEventSocket(t *testing.T) {
	t.Setenv("HYPRLAND_INSTANCE_SIGNATURE", "")
	_, err := EventSocket()
	assert.Error(t, err)

	t.Setenv("HYPRLAND_INSTANCE_SIGNATURE", "abc")
	t.Setenv("XDG_RUNTIME_DIR", t.TempDir())
	path, err := EventSocket()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/hypr/abc/.socket2.sock", path)
}

func TestTrackerRefreshesOnEvents(t *testing.T) {
	server, client := net.Pipe()
	var fetches atomic.Int32
	tr := &Tracker{
		Desktop: NewTracker().Desktop,
		Fetch: func(context.Context) (Desktop, error) {
			n := fetches.Add(1)
			return Desktop{Monitors: []MonitorInfo{{Name: "DP-1", Width: uint32(n)}}}, nil
		},
		Dial: func(context.Context) (net.Conn, error) { return client, nil },
		Poll: time.Hour,
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- tr.Run(ctx) }()

	rx := tr.Desktop.Subscribe()
	_, err := server.Write([]byte("workspace>>2\n"))
	require.NoError(t, err)

	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-rx.Changed():
		case <-deadline:
			t.Fatal("desktop not refreshed")
		}
		if d := rx.Load(); len(d.Monitors) == 1 && d.Monitors[0].Width >= 2 {
			break
		}
	}
	cancel()
	server.Close()
	require.NoError(t, <-done)
}

func TestTrackerKeepsLastOnFetchError(t *testing.T) {
	tr := NewTracker()
	tr.Desktop.Set(Desktop{Monitors: []MonitorInfo{{Name: "DP-1"}}})
	tr.Fetch = func(context.Context) (Desktop, error) { return Desktop{}, errors.New("no hyprland") }
	tr.refresh(context.Background())
	assert.Len(t, tr.Desktop.Load().Monitors, 1)
}
