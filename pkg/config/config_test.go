package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConfig(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
modules:
  center:
    - type: clock
  right:
    - type: fixed
      text: hi
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Bar.Edge != "top" || cfg.Bar.Lines != 1 {
		t.Errorf("bar = %+v, want top edge with 1 line", cfg.Bar)
	}
	if cfg.Menu.HorizontalPadding != 4 || cfg.Menu.VerticalPadding {
		t.Errorf("menu = %+v, want padding 4 and no vertical padding", cfg.Menu)
	}
	if cfg.Supervisor.RetryDelay != 20*time.Second {
		t.Errorf("retry delay = %v, want 20s", cfg.Supervisor.RetryDelay)
	}
	if got := cfg.Modules.Center[0].Format; got != "15:04" {
		t.Errorf("clock format = %q, want 15:04", got)
	}
	if got := cfg.Modules.Right[0].Text; got != "hi" {
		t.Errorf("fixed text = %q, want hi", got)
	}
}

func TestLoadConfigValues(t *testing.T) {
	path := writeConfig(t, t.TempDir(), `
bar: { edge: bottom, lines: 2, font_size: 11.5 }
menu: { horizontal_padding: 2, vertical_padding: true }
supervisor: { retry_delay: 5s }
theme: { border: double }
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if cfg.Bar.Edge != "bottom" || cfg.Bar.Lines != 2 || cfg.Bar.FontSize != 11.5 {
		t.Errorf("bar = %+v", cfg.Bar)
	}
	if cfg.Menu.HorizontalPadding != 2 || !cfg.Menu.VerticalPadding {
		t.Errorf("menu = %+v", cfg.Menu)
	}
	if cfg.Supervisor.RetryDelay != 5*time.Second {
		t.Errorf("retry delay = %v, want 5s", cfg.Supervisor.RetryDelay)
	}
	if cfg.Theme.Border != "double" {
		t.Errorf("border = %q, want double", cfg.Theme.Border)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		body string
		want error
	}{
		{"unknown module", "modules: { left: [ { type: weather } ] }", ErrUnknownModule},
		{"bad edge", "bar: { edge: left }", ErrBadEdge},
		{"bad border", "theme: { border: wavy }", ErrBadBorder},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, t.TempDir(), tt.body))
			if !errors.Is(err, tt.want) {
				t.Errorf("LoadConfig() error = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestLoadOrDefault(t *testing.T) {
	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "missing.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault() error: %v", err)
	}
	if len(cfg.Modules.All()) != 5 {
		t.Errorf("default modules = %d, want 5", len(cfg.Modules.All()))
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	want := Default()
	want.Supervisor.RetryDelay = 3 * time.Second
	if err := SaveConfig(path, want); err != nil {
		t.Fatalf("SaveConfig() error: %v", err)
	}
	got, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig() error: %v", err)
	}
	if got.Supervisor.RetryDelay != 3*time.Second {
		t.Errorf("retry delay = %v, want 3s", got.Supervisor.RetryDelay)
	}
	if len(got.Modules.Right) != 3 || got.Modules.Right[2].Name != "BAT0" {
		t.Errorf("right modules = %+v", got.Modules.Right)
	}
}

func TestModulesAll(t *testing.T) {
	m := Modules{
		Left:  []Module{{Type: ModuleWorkspaces}},
		Right: []Module{{Type: ModuleFixed}, {Type: ModuleBattery}},
	}
	all := m.All()
	if len(all) != 3 {
		t.Fatalf("All() = %d entries, want 3", len(all))
	}
	if all[2].Section != SectionRight || all[2].Index != 1 || all[2].Type != ModuleBattery {
		t.Errorf("All()[2] = %+v", all[2])
	}
}

func TestWatchReloads(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir, "bar: { lines: 1 }")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	got := make(chan *Config, 4)
	done := make(chan error, 1)
	go func() {
		done <- Watch(ctx, path, func(cfg *Config, err error) {
			if err == nil {
				got <- cfg
			}
		})
	}()

	// Give the watcher a moment to register before writing.
	time.Sleep(100 * time.Millisecond)
	writeConfig(t, dir, "bar: { lines: 3 }")

	select {
	case cfg := <-got:
		if cfg.Bar.Lines != 3 {
			t.Errorf("reloaded lines = %d, want 3", cfg.Bar.Lines)
		}
	case <-ctx.Done():
		t.Fatal("no reload after write")
	}
	cancel()
	if err := <-done; err != nil {
		t.Errorf("Watch() error: %v", err)
	}
}
