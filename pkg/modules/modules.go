// Package modules holds the bar widgets. Each module publishes its region
// and menus into a Sink until its context is done.
package modules

import (
	"context"
	"fmt"
	"io"
	"log"
	"os/exec"
	"runtime/debug"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/b/panelbar/pkg/colors"
	"github.com/b/panelbar/pkg/config"
	"github.com/b/panelbar/pkg/host"
	"github.com/b/panelbar/pkg/menu"
	"github.com/b/panelbar/pkg/monitors"
	"github.com/b/panelbar/pkg/tui"
	"github.com/b/panelbar/pkg/watch"
)

var debugLog = log.New(io.Discard, "", 0)

func SetDebugLog(l *log.Logger) {
	if l != nil {
		debugLog = l
	}
}

// Sink is the part of host.Registry modules publish into.
type Sink interface {
	SetShared(id string, e tui.Elem)
	SetMonitor(id, monitor string, e tui.Elem)
	Register(tag tui.InteractTag, menus menu.Menus, h host.Handler)
	Unregister(tag tui.InteractTag)
	Clear(id string)
}

var _ Sink = (*host.Registry)(nil)

// Module is one bar widget.
type Module interface {
	Run(ctx context.Context, id string, sink Sink) error
}

// Env is what modules need from the outside world.
type Env struct {
	Palette colors.Palette
	Lines   tui.LineSet
	// Desktop is required by the workspaces module.
	Desktop *watch.Value[monitors.Desktop]
	// Exec runs a command and returns its stdout. Defaults to os/exec.
	Exec func(ctx context.Context, name string, args ...string) ([]byte, error)
	// Follow runs a long-lived command and returns its stdout. Closing the
	// reader waits for the command. Defaults to os/exec.
	Follow func(ctx context.Context, name string, args ...string) (io.ReadCloser, error)
	// Tray connects the tray module to the session bus. Defaults to
	// DialTray.
	Tray func() (TrayBus, error)
	// SysfsRoot defaults to /sys.
	SysfsRoot string
	Now       func() time.Time
}

func (e Env) exec(ctx context.Context, name string, args ...string) ([]byte, error) {
	if e.Exec != nil {
		return e.Exec(ctx, name, args...)
	}
	return exec.CommandContext(ctx, name, args...).Output()
}

func (e Env) follow(ctx context.Context, name string, args ...string) (io.ReadCloser, error) {
	if e.Follow != nil {
		return e.Follow(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...)
	out, err := cmd.StdoutPipe()
	if err != nil {
		return nil, err
	}
	if err := cmd.Start(); err != nil {
		return nil, err
	}
	return &cmdOutput{ReadCloser: out, cmd: cmd}, nil
}

type cmdOutput struct {
	io.ReadCloser
	cmd *exec.Cmd
}

func (c *cmdOutput) Close() error {
	c.ReadCloser.Close()
	return c.cmd.Wait()
}

func (e Env) now() time.Time {
	if e.Now != nil {
		return e.Now()
	}
	return time.Now()
}

func (e Env) sysfs() string {
	if e.SysfsRoot != "" {
		return e.SysfsRoot
	}
	return "/sys"
}

func (e Env) style(fg string) lipgloss.Style {
	return tui.NewStyle().Foreground(lipgloss.Color(fg))
}

// box frames menu content in the theme border.
func (e Env) box(inner tui.Elem) tui.Elem {
	return tui.Block{
		Borders: tui.AllBorders(),
		Style:   e.style(e.Palette.Accent),
		Lines:   e.Lines,
		Inner:   inner,
	}.Elem()
}

// New builds the module configured by m.
func New(m config.Module, env Env) (Module, error) {
	switch m.Type {
	case config.ModuleClock:
		return &Clock{Format: m.Format, TooltipFormat: m.TooltipFormat, env: env}, nil
	case config.ModuleFixed:
		return &Fixed{Text: m.Text, env: env}, nil
	case config.ModuleBattery:
		return &Battery{Name: m.Name, env: env}, nil
	case config.ModulePowerProfile:
		return &PowerProfile{env: env}, nil
	case config.ModuleAudio:
		return &Audio{env: env}, nil
	case config.ModuleTray:
		return &Tray{env: env}, nil
	case config.ModuleWorkspaces:
		if env.Desktop == nil {
			return nil, fmt.Errorf("workspaces: no desktop tracker")
		}
		return &Workspaces{env: env}, nil
	}
	return nil, fmt.Errorf("%w: %q", config.ErrUnknownModule, m.Type)
}

// Start runs mod on its own goroutine. A panicking module is logged and
// its region cleared; it does not take the bar down.
func Start(ctx context.Context, mod Module, id string, sink Sink) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		defer func() {
			if r := recover(); r != nil {
				debugLog.Printf("modules: %s panicked: %v\n%s", id, r, debug.Stack())
				sink.Clear(id)
				done <- fmt.Errorf("%s: panic: %v", id, r)
			}
		}()
		if err := mod.Run(ctx, id, sink); err != nil {
			debugLog.Printf("modules: %s: %v", id, err)
			done <- fmt.Errorf("%s: %w", id, err)
		}
	}()
	return done
}

// sleep waits for d or until ctx is done, whichever is first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
