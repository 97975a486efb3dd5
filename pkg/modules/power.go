package modules

import (
	"context"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/b/panelbar/pkg/host"
	"github.com/b/panelbar/pkg/menu"
	"github.com/b/panelbar/pkg/tui"
)

const (
	profilePoll   = 5 * time.Second
	profileSettle = 500 * time.Millisecond
)

// PowerProfile shows the power-profiles-daemon profile. A left click
// switches to the next profile; the context menu lists all of them.
type PowerProfile struct {
	env Env

	mu       sync.Mutex
	profiles []string
	active   string
	poke     chan struct{}
}

// ParseProfiles reads the output of `powerprofilesctl list`. The active
// profile is marked with an asterisk.
func ParseProfiles(out []byte) (profiles []string, active string) {
	for _, line := range strings.Split(string(out), "\n") {
		if len(line) < 4 || !strings.HasSuffix(line, ":") {
			continue
		}
		mark, name := line[:2], line[2:len(line)-1]
		if (mark != "  " && mark != "* ") || strings.ContainsAny(name, " \t") {
			continue
		}
		profiles = append(profiles, name)
		if mark == "* " {
			active = name
		}
	}
	return profiles, active
}

// NextProfile is the profile after active, wrapping around.
func NextProfile(profiles []string, active string) string {
	if len(profiles) == 0 {
		return ""
	}
	i := slices.Index(profiles, active)
	return profiles[(i+1)%len(profiles)]
}

func profileIcon(name string) string {
	switch name {
	case "balanced":
		return "\uf24e"
	case "performance":
		return "\uf0e4"
	case "power-saver":
		return "\uf06c"
	}
	return "?"
}

func (p *PowerProfile) Run(ctx context.Context, id string, sink Sink) error {
	p.poke = make(chan struct{}, 1)
	defer sink.Clear(id)

	var registered []string
	wait := time.Duration(0)
	for {
		if !sleep(ctx, wait) {
			return nil
		}
		out, err := p.env.exec(ctx, "powerprofilesctl", "list")
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		profiles, active := ParseProfiles(out)

		p.mu.Lock()
		changed := active != p.active || !slices.Equal(profiles, p.profiles)
		p.profiles, p.active = profiles, active
		p.mu.Unlock()

		if changed {
			for _, name := range registered {
				if !slices.Contains(profiles, name) {
					sink.Unregister(tui.NewTag(id, name))
				}
			}
			registered = profiles
			p.publish(id, profiles, active, sink)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-p.poke:
			wait = profileSettle
		case <-time.After(profilePoll):
			wait = 0
		}
	}
}

func (p *PowerProfile) set(ev host.Interaction, name string) {
	if name == "" {
		return
	}
	ev.Shell("powerprofilesctl", "set", name)
	select {
	case p.poke <- struct{}{}:
	default:
	}
}

func (p *PowerProfile) handle(ev host.Interaction) {
	if !ev.Kind.IsLeftClick() {
		return
	}
	p.mu.Lock()
	next := NextProfile(p.profiles, p.active)
	p.mu.Unlock()
	p.set(ev, next)
}

func (p *PowerProfile) publish(id string, profiles []string, active string, sink Sink) {
	pal := p.env.Palette
	root := tui.NewTag(id)
	sink.SetShared(id, tui.Text(profileIcon(active), p.env.style(pal.Fg)).Interactive(root))

	list := tui.NewStackBuilder(tui.AxisY)
	for _, name := range profiles {
		mark := "  "
		fg := pal.Fg
		if name == active {
			mark, fg = "● ", pal.Accent
		}
		line := mark + profileIcon(name) + " " + name
		style := p.env.style(fg)
		tag := tui.NewTag(id, name)
		list.Fit(tui.Text(line, style).InteractiveHover(tag,
			tui.Text(line, style.Background(lipgloss.Color(pal.Hover)))))
		sink.Register(tag, menu.Menus{}, func(ev host.Interaction) {
			if ev.Kind.IsLeftClick() {
				p.set(ev, name)
			}
		})
	}
	sink.Register(root, menu.Menus{
		Tooltip: p.env.box(tui.Text("Power profile: "+active, p.env.style(pal.Fg))),
		Context: p.env.box(list.Build()),
	}, p.handle)
}
