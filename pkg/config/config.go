package config

import (
	"time"

	"github.com/b/panelbar/pkg/paths"
)

type Config struct {
	Bar        Bar        `yaml:"bar"`
	Menu       Menu       `yaml:"menu"`
	Theme      Theme      `yaml:"theme"`
	Supervisor Supervisor `yaml:"supervisor"`
	Terminal   Terminal   `yaml:"terminal"`
	Modules    Modules    `yaml:"modules"`
}

type Bar struct {
	Edge     string  `yaml:"edge"`      // top or bottom (default: top)
	Lines    uint16  `yaml:"lines"`     // panel height in cells (default: 1)
	FontSize float64 `yaml:"font_size"` // 0 keeps kitty's font size
}

type Menu struct {
	HorizontalPadding uint16 `yaml:"horizontal_padding"` // extra columns around menu content (default: 4)
	VerticalPadding   bool   `yaml:"vertical_padding"`   // one extra line below menu content
}

type Theme struct {
	Fg     string `yaml:"fg"`
	Bg     string `yaml:"bg"`
	Accent string `yaml:"accent"`
	Border string `yaml:"border"` // normal, rounded, double, thick, dashed, heavy-dashed
}

type Supervisor struct {
	RetryDelay  time.Duration `yaml:"retry_delay"`  // wait before restarting a failed monitor (default: 20s)
	GracePeriod time.Duration `yaml:"grace_period"` // SIGTERM to kill for panel processes (default: 2s)
}

type Terminal struct {
	Kitty  string `yaml:"kitty"`
	Kitten string `yaml:"kitten"`
	Agent  string `yaml:"agent"` // empty: panelterm next to the panelbar binary
}

type Modules struct {
	Left   []Module `yaml:"left"`
	Center []Module `yaml:"center"`
	Right  []Module `yaml:"right"`
}

// All returns every configured module with the bar section it sits in.
func (m Modules) All() []Placed {
	var out []Placed
	for _, sec := range []struct {
		name string
		list []Module
	}{{SectionLeft, m.Left}, {SectionCenter, m.Center}, {SectionRight, m.Right}} {
		for i, mod := range sec.list {
			out = append(out, Placed{Section: sec.name, Index: i, Module: mod})
		}
	}
	return out
}

const (
	SectionLeft   = "left"
	SectionCenter = "center"
	SectionRight  = "right"
)

// Placed is a module with its position in the bar.
type Placed struct {
	Section string
	Index   int
	Module
}

type Module struct {
	Type          string `yaml:"type"`
	Format        string `yaml:"format,omitempty"`         // clock: Go time layout
	TooltipFormat string `yaml:"tooltip_format,omitempty"` // clock
	Name          string `yaml:"name,omitempty"`           // battery: sysfs supply name
	Text          string `yaml:"text,omitempty"`           // fixed
}

// Known module types.
const (
	ModuleClock        = "clock"
	ModuleFixed        = "fixed"
	ModuleBattery      = "battery"
	ModulePowerProfile = "power_profile"
	ModuleWorkspaces   = "workspaces"
	ModuleAudio        = "audio"
	ModuleTray         = "tray"
)

func DefaultConfigPath() string {
	return paths.ConfigPath()
}

// Default is the configuration used when no config file exists.
func Default() *Config {
	cfg := &Config{
		Modules: Modules{
			Left:   []Module{{Type: ModuleWorkspaces}},
			Center: []Module{{Type: ModuleClock}},
			Right:  []Module{{Type: ModuleAudio}, {Type: ModulePowerProfile}, {Type: ModuleBattery}},
		},
	}
	applyDefaults(cfg)
	return cfg
}
