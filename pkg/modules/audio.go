package modules

import (
	"bufio"
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/b/panelbar/pkg/host"
	"github.com/b/panelbar/pkg/menu"
	"github.com/b/panelbar/pkg/tui"
)

const (
	audioPoll   = 10 * time.Second
	audioSettle = 100 * time.Millisecond
	volumeStep  = 2
)

// AudioDevice is the state of the default sink or source.
type AudioDevice struct {
	Name    string
	Percent int
	Muted   bool
}

type AudioState struct {
	Sink, Source AudioDevice
}

type audioTarget struct {
	kind   string
	device string
	label  string
}

var (
	audioSink   = audioTarget{kind: "sink", device: "@DEFAULT_SINK@", label: "Output"}
	audioSource = audioTarget{kind: "source", device: "@DEFAULT_SOURCE@", label: "Input"}
)

func (t audioTarget) icon(muted bool) string {
	switch {
	case t.kind == "source" && muted:
		return "\uf131"
	case t.kind == "source":
		return "\uf130"
	case muted:
		return "\uf026"
	}
	return "\uf028"
}

// Audio shows the volume of the default PulseAudio source and sink. A left
// click toggles mute, a right click resets to 100% and scrolling changes
// the volume.
type Audio struct {
	env  Env
	poke chan struct{}
}

// ParseVolume averages the channel percentages printed by
// `pactl get-sink-volume`.
func ParseVolume(out []byte) (int, bool) {
	sum, n := 0, 0
	for _, f := range strings.Fields(string(out)) {
		pct, ok := strings.CutSuffix(f, "%")
		if !ok {
			continue
		}
		v, err := strconv.Atoi(pct)
		if err != nil {
			continue
		}
		sum += v
		n++
	}
	if n == 0 {
		return 0, false
	}
	return int(math.Round(float64(sum) / float64(n))), true
}

// ParseMute reads the output of `pactl get-sink-mute`.
func ParseMute(out []byte) bool {
	f := strings.Fields(string(out))
	return len(f) == 2 && f[0] == "Mute:" && f[1] == "yes"
}

// audioEvent reports whether a `pactl subscribe` line can change what is
// shown. Stream events such as sink-input are ignored.
func audioEvent(line string) bool {
	f := strings.Fields(line)
	for i := 0; i+1 < len(f); i++ {
		if f[i] == "on" {
			switch f[i+1] {
			case "sink", "source", "server":
				return true
			}
			return false
		}
	}
	return false
}

func readDevice(ctx context.Context, env Env, t audioTarget) (AudioDevice, error) {
	name, err := env.exec(ctx, "pactl", "get-default-"+t.kind)
	if err != nil {
		return AudioDevice{}, fmt.Errorf("default %s: %w", t.kind, err)
	}
	vol, err := env.exec(ctx, "pactl", "get-"+t.kind+"-volume", t.device)
	if err != nil {
		return AudioDevice{}, fmt.Errorf("%s volume: %w", t.kind, err)
	}
	pct, ok := ParseVolume(vol)
	if !ok {
		return AudioDevice{}, fmt.Errorf("%s volume: unexpected output %q", t.kind, vol)
	}
	mute, err := env.exec(ctx, "pactl", "get-"+t.kind+"-mute", t.device)
	if err != nil {
		return AudioDevice{}, fmt.Errorf("%s mute: %w", t.kind, err)
	}
	return AudioDevice{Name: strings.TrimSpace(string(name)), Percent: pct, Muted: ParseMute(mute)}, nil
}

// ReadAudio queries the default sink and source with pactl.
func ReadAudio(ctx context.Context, env Env) (AudioState, error) {
	var st AudioState
	var err error
	if st.Sink, err = readDevice(ctx, env, audioSink); err != nil {
		return st, err
	}
	if st.Source, err = readDevice(ctx, env, audioSource); err != nil {
		return st, err
	}
	return st, nil
}

func (a *Audio) Run(ctx context.Context, id string, sink Sink) error {
	a.poke = make(chan struct{}, 1)
	defer sink.Clear(id)
	go a.follow(ctx)

	var last AudioState
	published := false
	wait := time.Duration(0)
	for {
		if !sleep(ctx, wait) {
			return nil
		}
		st, err := ReadAudio(ctx, a.env)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		if !published || st != last {
			a.publish(id, st, sink)
			last, published = st, true
		}

		select {
		case <-ctx.Done():
			return nil
		case <-a.poke:
			wait = audioSettle
		case <-time.After(audioPoll):
			wait = 0
		}
	}
}

// follow wakes Run on every relevant `pactl subscribe` event. Without it
// the module still polls.
func (a *Audio) follow(ctx context.Context) {
	r, err := a.env.follow(ctx, "pactl", "subscribe")
	if err != nil {
		debugLog.Printf("modules: audio: not following changes: %v", err)
		return
	}
	defer r.Close()
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if audioEvent(sc.Text()) {
			a.wake()
		}
	}
	if err := sc.Err(); err != nil && ctx.Err() == nil {
		debugLog.Printf("modules: audio: subscribe: %v", err)
	}
}

func (a *Audio) wake() {
	select {
	case a.poke <- struct{}{}:
	default:
	}
}

func (a *Audio) handler(t audioTarget) host.Handler {
	return func(ev host.Interaction) {
		var args []string
		switch {
		case ev.Kind.IsLeftClick():
			args = []string{"set-" + t.kind + "-mute", t.device, "toggle"}
		case ev.Kind.IsRightClick():
			args = []string{"set-" + t.kind + "-volume", t.device, "100%"}
		case ev.Kind.Type == tui.InteractScroll:
			delta := volumeStep
			if d := ev.Kind.Direction; d == tui.ScrollDown || d == tui.ScrollLeft {
				delta = -delta
			}
			args = []string{"set-" + t.kind + "-volume", t.device, fmt.Sprintf("%+d%%", delta)}
		default:
			return
		}
		ev.Shell("pactl", args...)
		a.wake()
	}
}

func (a *Audio) publish(id string, st AudioState, sink Sink) {
	row := tui.NewStackBuilder(tui.AxisX).
		Fit(a.item(id, audioSource, st.Source, sink)).
		Spacing(2).
		Fit(a.item(id, audioSink, st.Sink, sink)).
		Build()
	sink.SetShared(id, row)
}

func (a *Audio) item(id string, t audioTarget, d AudioDevice, sink Sink) tui.Elem {
	pal := a.env.Palette
	style := a.env.style(pal.Fg)
	state := fmt.Sprintf("%d%%", d.Percent)
	if d.Muted {
		style = a.env.style(pal.Muted)
		state += ", muted"
	}
	tag := tui.NewTag(id, t.kind)
	sink.Register(tag, menu.Menus{
		Tooltip: a.env.box(tui.Text(t.label+": "+d.Name+"\n"+state, a.env.style(pal.Fg))),
	}, a.handler(t))

	// The icons have no reliable width, so kitty centers them in two cells.
	label := fmt.Sprintf("%3d%%", d.Percent)
	draw := func(s lipgloss.Style) tui.Elem {
		return tui.NewStackBuilder(tui.AxisX).
			Fit(tui.CenterSymbol(t.icon(d.Muted), 2)).
			Fit(tui.Text(label, s)).
			Build()
	}
	return draw(style).InteractiveHover(tag, draw(style.Underline(true)))
}
