package host

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/b/panelbar/pkg/menu"
	"github.com/b/panelbar/pkg/monitors"
	"github.com/b/panelbar/pkg/terminal"
	"github.com/b/panelbar/pkg/tui"
)

type fakeTerm struct {
	events chan terminal.Event
	sent   chan terminal.Update
	sizes  terminal.Sizes
}

func newFakeTerm(cells, pixels tui.Size) *fakeTerm {
	return &fakeTerm{
		events: make(chan terminal.Event),
		sent:   make(chan terminal.Update, 1024),
		sizes:  terminal.Sizes{Cells: cells, Pixels: pixels},
	}
}

func (f *fakeTerm) Events() <-chan terminal.Event { return f.events }
func (f *fakeTerm) Send(u terminal.Update)        { f.sent <- u }
func (f *fakeTerm) Sizes() terminal.Sizes         { return f.sizes }
func (f *fakeTerm) Err() error                    { return nil }
func (f *fakeTerm) Close() error                  { return nil }

// waitFor drains updates until match accepts one.
func (f *fakeTerm) waitFor(t *testing.T, what string, match func(terminal.Update) bool) terminal.Update {
	t.Helper()
	deadline := time.After(5 * time.Second)
	for {
		select {
		case u := <-f.sent:
			if match(u) {
				return u
			}
		case <-deadline:
			t.Fatalf("timed out waiting for %s", what)
			return terminal.Update{}
		}
	}
}

func printed(text string) func(terminal.Update) bool {
	return func(u terminal.Update) bool {
		return u.Kind == terminal.UpdatePrint && strings.Contains(string(u.Data), text)
	}
}

func remote(args ...string) func(terminal.Update) bool {
	want := strings.Join(args, " ")
	return func(u terminal.Update) bool {
		return u.Kind == terminal.UpdateRemoteControl && strings.Join(u.Args, " ") == want
	}
}

func move(x, y uint32) terminal.Event {
	return terminal.MouseEvent(tui.MouseEvent{Action: tui.MouseMotion, X: x, Y: y})
}

func click(b tui.MouseButton, x, y uint32) terminal.Event {
	return terminal.MouseEvent(tui.MouseEvent{Action: tui.MousePress, Button: b, X: x, Y: y})
}

type loopFixture struct {
	reg      *Registry
	bar      *fakeTerm
	menu     *fakeTerm
	got      chan Interaction
	done     chan error
	cancel   context.CancelFunc
	clockTag tui.InteractTag
}

// startLoop runs a loop for a 40 cell bar with 10x20 cells. The clock sits
// at cells 1-5 and has a tooltip and a handler; the power module at the
// right edge has a context menu.
func startLoop(t *testing.T) *loopFixture {
	t.Helper()
	f := &loopFixture{
		reg:      NewRegistry(Layout{Left: []string{"clock"}, Right: []string{"power"}}),
		bar:      newFakeTerm(tui.Size{W: 40, H: 1}, tui.Size{W: 400, H: 20}),
		menu:     newFakeTerm(tui.Size{W: 200, H: 1}, tui.Size{W: 2000, H: 20}),
		got:      make(chan Interaction, 16),
		done:     make(chan error, 1),
		clockTag: tui.NewTag("clock"),
	}
	f.reg.SetShared("clock", tui.PlainText("12:00").Interactive(f.clockTag))
	f.reg.Register(f.clockTag, menu.Menus{Tooltip: tui.PlainText("Monday")}, func(ev Interaction) {
		f.got <- ev
		ev.Shell("notify-send", "clock")
	})
	powerTag := tui.NewTag("power")
	f.reg.SetShared("power", tui.PlainText("P").Interactive(powerTag))
	f.reg.Register(powerTag, menu.Menus{Context: tui.PlainText("balanced")}, nil)

	loop := &MonitorLoop{
		Monitor:  monitors.MonitorInfo{Name: "DP-1", Scale: 1, Width: 2000, Height: 1200},
		Bar:      f.bar,
		Menu:     f.menu,
		Registry: f.reg,
		Padding:  menu.DefaultPadding,
	}
	ctx, cancel := context.WithCancel(context.Background())
	f.cancel = cancel
	go func() { f.done <- loop.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-f.done
	})

	f.menu.waitFor(t, "initial menu hide", remote(menu.HideArgs()...))
	f.bar.waitFor(t, "first bar frame", printed("12:00"))
	f.bar.waitFor(t, "flush", func(u terminal.Update) bool { return u.Kind == terminal.UpdateFlush })
	return f
}

func TestLoopTooltipOpensAndCloses(t *testing.T) {
	f := startLoop(t)

	f.bar.events <- move(30, 5)
	// Clock center is at (1 + 5/2) cells = 35px; content 6 cells + 4 padding.
	f.menu.waitFor(t, "placement", remote(
		"resize-os-window", "--incremental", "--action=os-panel",
		"margin-left=0", "margin-right=1900", "lines=1"))
	f.menu.waitFor(t, "tooltip frame", printed("Monday"))
	f.menu.waitFor(t, "show", remote(menu.ShowArgs()...))

	f.bar.events <- move(200, 5)
	f.menu.waitFor(t, "hide", remote(menu.HideArgs()...))
}

func TestLoopRoutesClicks(t *testing.T) {
	f := startLoop(t)

	f.bar.events <- click(tui.ButtonLeft, 20, 5)
	select {
	case ev := <-f.got:
		assert.Equal(t, "DP-1", ev.Monitor)
		assert.False(t, ev.InMenu)
		assert.True(t, ev.Kind.IsLeftClick())
		assert.Equal(t, f.clockTag, ev.Tag)
	case <-time.After(5 * time.Second):
		t.Fatal("click not routed")
	}
	u := f.bar.waitFor(t, "shell", func(u terminal.Update) bool { return u.Kind == terminal.UpdateShell })
	assert.Equal(t, "notify-send", u.Cmd)
	assert.Equal(t, []string{"clock"}, u.Args)
}

func TestLoopContextMenuClosesOnFocusLoss(t *testing.T) {
	f := startLoop(t)

	f.bar.events <- click(tui.ButtonRight, 385, 5)
	f.menu.waitFor(t, "context frame", printed("balanced"))
	f.menu.waitFor(t, "show", remote(menu.ShowArgs()...))

	// Hovering another element with a tooltip does not replace the menu.
	f.bar.events <- move(30, 5)
	f.menu.events <- terminal.FocusEvent(false)
	f.menu.waitFor(t, "hide", remote(menu.HideArgs()...))
}

func TestLoopHiddenBar(t *testing.T) {
	f := startLoop(t)

	f.reg.SetHidden("DP-1", true)
	f.bar.waitFor(t, "bar hide", remote(menu.HideArgs()...))
	f.reg.SetHidden("DP-1", false)
	f.bar.waitFor(t, "bar show", remote(menu.ShowArgs()...))
	f.bar.waitFor(t, "redraw", printed("12:00"))
}

func TestLoopMenuRefreshAndUnregister(t *testing.T) {
	f := startLoop(t)

	f.bar.events <- move(30, 5)
	f.menu.waitFor(t, "tooltip frame", printed("Monday"))

	f.reg.Register(f.clockTag, menu.Menus{Tooltip: tui.PlainText("Tuesday")}, nil)
	f.menu.waitFor(t, "refreshed tooltip", printed("Tuesday"))

	f.reg.Unregister(f.clockTag)
	f.menu.waitFor(t, "hide", remote(menu.HideArgs()...))
}

// noPrint fails if term got a frame within d.
func noPrint(t *testing.T, term *fakeTerm, d time.Duration) {
	t.Helper()
	deadline := time.After(d)
	for {
		select {
		case u := <-term.sent:
			if u.Kind == terminal.UpdatePrint {
				t.Fatalf("unexpected frame %q", u.Data)
			}
		case <-deadline:
			return
		}
	}
}

func drain(term *fakeTerm) {
	for {
		select {
		case <-term.sent:
		default:
			return
		}
	}
}

func TestLoopMenuOnlyChangeKeepsBar(t *testing.T) {
	f := startLoop(t)

	f.bar.events <- move(30, 5)
	f.menu.waitFor(t, "tooltip frame", printed("Monday"))
	f.menu.waitFor(t, "show", remote(menu.ShowArgs()...))
	time.Sleep(50 * time.Millisecond)
	drain(f.bar)

	for i := 0; i < 3; i++ {
		f.reg.Register(tui.NewTag("unrelated"), menu.Menus{Tooltip: tui.PlainText("x")}, nil)
	}
	f.reg.Register(f.clockTag, menu.Menus{Tooltip: tui.PlainText("Tuesday")}, nil)
	f.menu.waitFor(t, "refreshed tooltip", printed("Tuesday"))
	noPrint(t, f.bar, 100*time.Millisecond)

	f.reg.SetShared("clock", tui.PlainText("12:01").Interactive(f.clockTag))
	f.bar.waitFor(t, "new clock", printed("12:01"))
}

func TestLoopEndsWhenTerminalCloses(t *testing.T) {
	reg := NewRegistry(Layout{})
	bar := newFakeTerm(tui.Size{W: 10, H: 1}, tui.Size{W: 100, H: 20})
	mnu := newFakeTerm(tui.Size{W: 10, H: 1}, tui.Size{W: 100, H: 20})
	loop := &MonitorLoop{Monitor: monitors.MonitorInfo{Name: "DP-1", Width: 100, Scale: 1}, Bar: bar, Menu: mnu, Registry: reg}

	done := make(chan error, 1)
	go func() { done <- loop.Run(context.Background()) }()
	close(bar.events)

	select {
	case err := <-done:
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrDisconnected)
		assert.Contains(t, err.Error(), "DP-1 bar")
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not end")
	}
}

func TestLoopStopsOnCancel(t *testing.T) {
	f := startLoop(t)
	f.cancel()
	select {
	case err := <-f.done:
		assert.NoError(t, err)
		f.done <- err
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop")
	}
}
