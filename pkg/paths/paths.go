// Package paths resolves where panelbar keeps its files.
//
//	Config:  $XDG_CONFIG_HOME/panelbar/config.yaml   (override: PANELBAR_CONFIG_DIR)
//	State:   $XDG_STATE_HOME/panelbar/               (override: PANELBAR_STATE_DIR)
//	Runtime: $XDG_RUNTIME_DIR                        (sockets, pidfile)
package paths

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// dir is a directory resolved once per process.
type dir struct {
	once    sync.Once
	path    string
	resolve func() string
}

func (d *dir) get() string {
	d.once.Do(func() { d.path = d.resolve() })
	return d.path
}

var (
	configDir  = &dir{resolve: func() string { return xdg("PANELBAR_CONFIG_DIR", "XDG_CONFIG_HOME", ".config") }}
	stateDir   = &dir{resolve: func() string { return xdg("PANELBAR_STATE_DIR", "XDG_STATE_HOME", ".local", "state") }}
	runtimeDir = &dir{resolve: resolveRuntime}
)

// xdg picks the override, then the XDG base directory, then the fallback
// under $HOME.
func xdg(override, base string, fallback ...string) string {
	if env := os.Getenv(override); env != "" {
		return env
	}
	if env := os.Getenv(base); env != "" {
		return filepath.Join(env, "panelbar")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(append(append([]string{home}, fallback...), "panelbar")...)
}

func resolveRuntime() string {
	if env := os.Getenv("XDG_RUNTIME_DIR"); env != "" {
		return env
	}
	return os.TempDir()
}

// ConfigDir is the directory holding config.yaml.
func ConfigDir() string { return configDir.get() }

// StateDir holds logs.
func StateDir() string { return stateDir.get() }

// RuntimeDir holds the host socket and pidfile.
func RuntimeDir() string { return runtimeDir.get() }

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// StatePath returns the full path to a state file (e.g. "panelbar-events.log").
func StatePath(filename string) string {
	return filepath.Join(StateDir(), filename)
}

// EnsureStateDir creates the state directory if it doesn't exist and returns its path.
func EnsureStateDir() (string, error) {
	d := StateDir()
	if err := os.MkdirAll(d, 0755); err != nil {
		return "", fmt.Errorf("create state dir %s: %w", d, err)
	}
	return d, nil
}

// ResetForTest clears cached values so tests can re-run resolution logic.
// Only use in tests.
func ResetForTest() {
	for _, d := range []*dir{configDir, stateDir, runtimeDir} {
		d.once = sync.Once{}
		d.path = ""
	}
}
