package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownModule = errors.New("unknown module type")
	ErrBadEdge       = errors.New("edge must be top or bottom")
	ErrBadBorder     = errors.New("unknown border style")
)

// LoadConfig reads, defaults and validates the config at path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse yaml: %w", err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &cfg, nil
}

// LoadOrDefault is LoadConfig, except that a missing file yields Default.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := LoadConfig(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	return cfg, err
}

// SaveConfig writes the config to the specified path
func SaveConfig(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

var borders = map[string]bool{
	"": true, "normal": true, "rounded": true, "double": true,
	"thick": true, "dashed": true, "heavy-dashed": true,
}

// Validate rejects values the host cannot act on.
func (c *Config) Validate() error {
	if c.Bar.Edge != "top" && c.Bar.Edge != "bottom" {
		return fmt.Errorf("%w: %q", ErrBadEdge, c.Bar.Edge)
	}
	if !borders[c.Theme.Border] {
		return fmt.Errorf("%w: %q", ErrBadBorder, c.Theme.Border)
	}
	for _, p := range c.Modules.All() {
		switch p.Type {
		case ModuleClock, ModuleFixed, ModuleBattery, ModulePowerProfile, ModuleWorkspaces, ModuleAudio, ModuleTray:
		default:
			return fmt.Errorf("modules.%s[%d]: %w %q", p.Section, p.Index, ErrUnknownModule, p.Type)
		}
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if cfg.Bar.Edge == "" {
		cfg.Bar.Edge = "top"
	}
	if cfg.Bar.Lines == 0 {
		cfg.Bar.Lines = 1
	}
	if cfg.Menu.HorizontalPadding == 0 {
		cfg.Menu.HorizontalPadding = 4
	}
	if cfg.Theme.Fg == "" {
		cfg.Theme.Fg = "#cdd6f4"
	}
	if cfg.Theme.Bg == "" {
		cfg.Theme.Bg = "#1e1e2e"
	}
	if cfg.Theme.Accent == "" {
		cfg.Theme.Accent = "#89b4fa"
	}
	if cfg.Theme.Border == "" {
		cfg.Theme.Border = "rounded"
	}
	if cfg.Supervisor.RetryDelay == 0 {
		cfg.Supervisor.RetryDelay = 20 * time.Second
	}
	if cfg.Supervisor.GracePeriod == 0 {
		cfg.Supervisor.GracePeriod = 2 * time.Second
	}
	if cfg.Terminal.Kitty == "" {
		cfg.Terminal.Kitty = "kitty"
	}
	if cfg.Terminal.Kitten == "" {
		cfg.Terminal.Kitten = "kitten"
	}
	for _, list := range [][]Module{cfg.Modules.Left, cfg.Modules.Center, cfg.Modules.Right} {
		for i := range list {
			defaultModule(&list[i])
		}
	}
}

func defaultModule(m *Module) {
	switch m.Type {
	case ModuleClock:
		if m.Format == "" {
			m.Format = "15:04"
		}
		if m.TooltipFormat == "" {
			m.TooltipFormat = "Monday 2 January 2006"
		}
	case ModuleBattery:
		if m.Name == "" {
			m.Name = "BAT0"
		}
	}
}
