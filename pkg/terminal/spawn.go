package terminal

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// PanelSpec describes one kitty panel window running the agent.
type PanelSpec struct {
	Kitty   string // kitty binary
	Agent   string // agent binary run inside the panel
	Kitten  string // passed to the agent for remote control
	Socket  string // host socket the agent connects to
	Term    string // terminal id announced by the agent
	Monitor string // compositor output name
	Edge    string
	Lines   uint16
	// Menu panels are overlays that take focus. They are hidden by the
	// host once connected; kitty misplaces panels started hidden.
	Menu       bool
	FontSize   float64
	Foreground string
	Background string
	Debug      bool
	// Grace is how long the panel gets to exit after SIGTERM.
	Grace time.Duration
}

// Args is the kitty command line for the panel.
func (s PanelSpec) Args() []string {
	args := []string{
		"+kitten", "panel",
		"--edge=" + s.Edge,
		"--lines=" + strconv.Itoa(int(max(s.Lines, 1))),
		"--output-name=" + s.Monitor,
		"--class=panelbar",
		"-o", "allow_remote_control=yes",
		"-o", "mouse_hide_wait=0",
	}
	if s.FontSize > 0 {
		args = append(args, "-o", "font_size="+strconv.FormatFloat(s.FontSize, 'f', -1, 64))
	}
	if s.Foreground != "" {
		args = append(args, "-o", "foreground="+s.Foreground)
	}
	if s.Background != "" {
		args = append(args, "-o", "background="+s.Background)
	}
	if s.Menu {
		args = append(args,
			"--layer=overlay", "--focus-policy=on-demand",
			"--exclusive-zone=0", "--override-exclusive-zone",
			"-o", "placement_strategy=center",
			"-o", "resize_debounce_time=0 0",
		)
	} else {
		args = append(args, "--focus-policy=not-allowed")
	}
	args = append(args, s.Agent, "-socket", s.Socket, "-term", s.Term)
	if s.Kitten != "" {
		args = append(args, "-kitten", s.Kitten)
	}
	if s.Debug {
		args = append(args, "-debug")
	}
	return args
}

// Panel is a running panel process.
type Panel struct {
	cmd  *exec.Cmd
	done chan struct{}
	err  error
}

// Spawn starts the panel. Cancelling ctx sends SIGTERM and kills the
// process if it is still around after the grace period.
func Spawn(ctx context.Context, spec PanelSpec) (*Panel, error) {
	return start(ctx, spec.Grace, spec.Kitty, spec.Args()...)
}

func start(ctx context.Context, grace time.Duration, name string, args ...string) (*Panel, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Cancel = func() error {
		return cmd.Process.Signal(syscall.SIGTERM)
	}
	cmd.WaitDelay = grace
	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("start %s: %w", name, err)
	}
	p := &Panel{cmd: cmd, done: make(chan struct{})}
	go func() {
		p.err = cmd.Wait()
		close(p.done)
	}()
	return p, nil
}

// Done is closed when the process has exited.
func (p *Panel) Done() <-chan struct{} { return p.done }

// Err is the exit error; only valid after Done is closed.
func (p *Panel) Err() error { return p.err }

// Pid of the panel process.
func (p *Panel) Pid() int { return p.cmd.Process.Pid }

// RunRemoteControl runs `kitten @ args...` from inside a panel.
func RunRemoteControl(ctx context.Context, kitten string, args []string) error {
	cmd := exec.CommandContext(ctx, kitten, append([]string{"@"}, args...)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("kitten @ %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return nil
}

// RunShell starts cmd without waiting for it, reaping it in the background.
func RunShell(cmd string, args []string) error {
	c := exec.Command(cmd, args...)
	c.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := c.Start(); err != nil {
		return fmt.Errorf("start %s: %w", cmd, err)
	}
	go c.Wait()
	return nil
}
