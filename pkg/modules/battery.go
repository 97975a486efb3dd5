package modules

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/muesli/termenv"

	"github.com/b/panelbar/pkg/menu"
	"github.com/b/panelbar/pkg/tui"
)

const (
	batteryPoll     = 30 * time.Second
	batteryBarWidth = 20
)

// Battery shows the charge of a power supply from sysfs.
type Battery struct {
	Name string
	env  Env
}

// BatteryState is one reading of the supply.
type BatteryState struct {
	Percent int
	Status  string // Charging, Discharging, Full, Not charging, Unknown
}

func (s BatteryState) Charging() bool { return s.Status == "Charging" }

// ReadBattery reads capacity and status of the named supply below root.
func ReadBattery(root, name string) (BatteryState, error) {
	dir := filepath.Join(root, "class", "power_supply", name)
	raw, err := os.ReadFile(filepath.Join(dir, "capacity"))
	if err != nil {
		return BatteryState{}, err
	}
	pct, err := strconv.Atoi(strings.TrimSpace(string(raw)))
	if err != nil {
		return BatteryState{}, fmt.Errorf("battery %s: capacity: %w", name, err)
	}
	st := BatteryState{Percent: min(max(pct, 0), 100), Status: "Unknown"}
	if raw, err := os.ReadFile(filepath.Join(dir, "status")); err == nil {
		st.Status = strings.TrimSpace(string(raw))
	}
	return st, nil
}

func (b *Battery) Run(ctx context.Context, id string, sink Sink) error {
	defer sink.Clear(id)
	tag := tui.NewTag(id)
	var last BatteryState
	missing := false
	for {
		st, err := ReadBattery(b.env.sysfs(), b.Name)
		switch {
		case err != nil:
			if !missing {
				debugLog.Printf("modules: battery %s: %v", b.Name, err)
				sink.Clear(id)
			}
			missing = true
		case missing || st != last:
			missing = false
			last = st
			sink.SetShared(id, b.region(st).Interactive(tag))
			sink.Register(tag, menu.Menus{Tooltip: b.tooltip(st)}, nil)
		}
		if !sleep(ctx, batteryPoll) {
			return nil
		}
	}
}

func batteryIcon(st BatteryState) string {
	switch {
	case st.Charging():
		return "\uf0e7"
	case st.Percent >= 90:
		return "\uf240"
	case st.Percent >= 60:
		return "\uf241"
	case st.Percent >= 35:
		return "\uf242"
	case st.Percent >= 10:
		return "\uf243"
	default:
		return "\uf244"
	}
}

func (b *Battery) color(st BatteryState) string {
	p := b.env.Palette
	switch {
	case st.Charging():
		return p.Accent
	case st.Status != "Discharging":
		return p.Fg
	case st.Percent <= 10:
		return p.Urgent
	case st.Percent <= 20:
		return p.Warn
	}
	return p.Fg
}

func (b *Battery) region(st BatteryState) tui.Elem {
	style := b.env.style(b.color(st))
	icon := tui.Text(batteryIcon(st), style)
	return tui.NewStackBuilder(tui.AxisX).
		Fit(icon).
		Spacing(1).
		Fit(tui.Text(fmt.Sprintf("%d%%", st.Percent), style)).
		Build()
}

func (b *Battery) tooltip(st BatteryState) tui.Elem {
	bar := progress.New(
		progress.WithSolidFill(b.color(st)),
		progress.WithWidth(batteryBarWidth),
		progress.WithoutPercentage(),
		progress.WithColorProfile(termenv.TrueColor),
	)
	text := fmt.Sprintf("%s, %d%%", st.Status, st.Percent)
	return b.env.box(tui.NewStackBuilder(tui.AxisY).
		Fit(tui.Text(text, b.env.style(b.env.Palette.Fg))).
		Fit(tui.RawPrint(bar.ViewAs(float64(st.Percent)/100), tui.Size{W: batteryBarWidth, H: 1})).
		Build())
}
