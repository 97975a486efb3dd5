package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"runtime/debug"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/b/panelbar/pkg/colors"
	"github.com/b/panelbar/pkg/config"
	"github.com/b/panelbar/pkg/host"
	"github.com/b/panelbar/pkg/menu"
	"github.com/b/panelbar/pkg/modules"
	"github.com/b/panelbar/pkg/monitors"
	"github.com/b/panelbar/pkg/paths"
	"github.com/b/panelbar/pkg/terminal"
	"github.com/b/panelbar/pkg/termlink"
	"github.com/b/panelbar/pkg/tui"
)

var (
	configPath = flag.String("config", "", "config file (default: $XDG_CONFIG_HOME/panelbar/config.yaml)")
	instance   = flag.String("instance", "default", "instance name, for running several bars")
	agentPath  = flag.String("agent", "", "panel agent binary (overrides the config)")
	debugMode  = flag.Bool("debug", false, "Enable debug logging")
)

var (
	debugLog *log.Logger
	crashLog *log.Logger
	eventLog *log.Logger
)

func openLog(name, prefix string) *log.Logger {
	if _, err := paths.EnsureStateDir(); err == nil {
		f, err := os.OpenFile(paths.StatePath(name), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
		if err == nil {
			return log.New(f, prefix, log.LstdFlags|log.Lmicroseconds)
		}
	}
	return log.New(os.Stderr, prefix, log.LstdFlags)
}

func logEvent(format string, args ...interface{}) {
	if eventLog != nil {
		eventLog.Printf(format, args...)
	}
}

func recoverAndLog(where string) {
	if r := recover(); r != nil {
		crashLog.Printf("=== CRASH in %s ===", where)
		crashLog.Printf("Panic: %v", r)
		crashLog.Printf("Stack trace:\n%s", debug.Stack())
		crashLog.Printf("=== END CRASH ===\n")
		os.Exit(2)
	}
}

// agentBin returns panelterm from next to this binary.
func agentBin() string {
	exe, err := os.Executable()
	if err != nil {
		return "panelterm"
	}
	return filepath.Join(filepath.Dir(exe), "panelterm")
}

// setDebugLogs points every package logger at l.
func setDebugLogs(l *log.Logger) {
	host.SetDebugLog(l)
	menu.SetDebugLog(l)
	modules.SetDebugLog(l)
	monitors.SetDebugLog(l)
	termlink.SetDebugLog(l)
	tui.SetDebugLog(l)
}

func main() {
	flag.Parse()

	crashLog = openLog(fmt.Sprintf("panelbar-%s-crash.log", *instance), "")
	eventLog = openLog(fmt.Sprintf("panelbar-%s-events.log", *instance), "[event] ")
	defer recoverAndLog("main")

	if *debugMode {
		debugLog = log.New(os.Stderr, "[panelbar] ", log.LstdFlags|log.Lmicroseconds)
		setDebugLogs(debugLog)
	} else {
		debugLog = log.New(os.Stderr, "", 0)
	}

	if err := run(); err != nil {
		logEvent("PANELBAR_FAIL instance=%s err=%v", *instance, err)
		log.Fatalf("panelbar: %v", err)
	}
}

func run() error {
	path := *configPath
	if path == "" {
		path = config.DefaultConfigPath()
	}
	cfg, err := config.LoadOrDefault(path)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer stop()

	server := termlink.NewServer(paths.RuntimeDir(), *instance)
	if err := server.Start(); err != nil {
		return err
	}
	defer server.Stop()
	debugLog.Printf("Listening on %s", server.SocketPath())
	logEvent("PANELBAR_START instance=%s pid=%d", *instance, os.Getpid())
	defer logEvent("PANELBAR_STOP instance=%s pid=%d", *instance, os.Getpid())

	b := &bar{
		server:   server,
		tracker:  monitors.NewTracker(),
		registry: host.NewRegistry(host.Layout{}),
	}

	reloads := make(chan *config.Config, 1)
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer recoverAndLog("tracker")
		return b.tracker.Run(ctx)
	})
	g.Go(func() error {
		defer recoverAndLog("toggle")
		b.toggleOnSignal(ctx)
		return nil
	})
	g.Go(func() error {
		defer recoverAndLog("config-watch")
		err := config.Watch(ctx, path, func(next *config.Config, err error) {
			if err != nil {
				debugLog.Printf("Config reload failed: %v", err)
				logEvent("CONFIG_RELOAD_FAIL err=%v", err)
				return
			}
			// Only the latest config matters.
			select {
			case <-reloads:
			default:
			}
			reloads <- next
		})
		if err != nil {
			debugLog.Printf("Not watching config: %v", err)
		}
		return nil
	})
	g.Go(func() error {
		defer recoverAndLog("bar")
		return b.serve(ctx, cfg, reloads)
	})
	return g.Wait()
}

type bar struct {
	server   *termlink.Server
	tracker  *monitors.Tracker
	registry *host.Registry
}

// serve runs modules and panels for cfg, starting over on every reload.
func (b *bar) serve(ctx context.Context, cfg *config.Config, reloads <-chan *config.Config) error {
	for {
		gen, cancel := context.WithCancel(ctx)
		done := make(chan error, 1)
		go func() { done <- b.start(gen, cfg) }()

		select {
		case <-ctx.Done():
			cancel()
			<-done
			return nil
		case err := <-done:
			cancel()
			return err
		case next := <-reloads:
			logEvent("CONFIG_RELOAD")
			cancel()
			<-done
			cfg = next
		}
	}
}

func (b *bar) start(ctx context.Context, cfg *config.Config) error {
	palette := colors.NewPalette(cfg.Theme.Fg, cfg.Theme.Bg, cfg.Theme.Accent)
	env := modules.Env{
		Palette: palette,
		Lines:   tui.LineSetByName(cfg.Theme.Border),
		Desktop: b.tracker.Desktop,
	}

	var layout host.Layout
	var running []<-chan error
	for _, p := range cfg.Modules.All() {
		id := fmt.Sprintf("%s/%d", p.Section, p.Index)
		mod, err := modules.New(p.Module, env)
		if err != nil {
			return fmt.Errorf("module %s: %w", id, err)
		}
		switch p.Section {
		case config.SectionLeft:
			layout.Left = append(layout.Left, id)
		case config.SectionCenter:
			layout.Center = append(layout.Center, id)
		case config.SectionRight:
			layout.Right = append(layout.Right, id)
		}
		running = append(running, modules.Start(ctx, mod, id, b.registry))
	}
	b.registry.SetLayout(layout)
	defer func() {
		for _, done := range running {
			for err := range done {
				logEvent("MODULE_EXIT err=%v", err)
			}
		}
	}()

	agent := cfg.Terminal.Agent
	if *agentPath != "" {
		agent = *agentPath
	}
	if agent == "" {
		agent = agentBin()
	}

	s := &host.Supervisor{
		Registry: b.registry,
		Desktop:  b.tracker.Desktop,
		Start: func(ctx context.Context, spec terminal.PanelSpec) (host.Process, error) {
			logEvent("PANEL_SPAWN term=%s", spec.Term)
			p, err := terminal.Spawn(ctx, spec)
			if err != nil {
				return nil, err
			}
			return p, nil
		},
		Accept: func(ctx context.Context, term string) (host.Conn, error) {
			c, err := b.server.Accept(ctx, term)
			if err != nil {
				return nil, err
			}
			logEvent("PANEL_CONNECT term=%s", term)
			return c, nil
		},
		Panel: terminal.PanelSpec{
			Kitty:      cfg.Terminal.Kitty,
			Kitten:     cfg.Terminal.Kitten,
			Agent:      agent,
			Socket:     b.server.SocketPath(),
			Edge:       cfg.Bar.Edge,
			Lines:      cfg.Bar.Lines,
			FontSize:   cfg.Bar.FontSize,
			Foreground: palette.Fg,
			Background: palette.Bg,
			Debug:      *debugMode,
			Grace:      cfg.Supervisor.GracePeriod,
		},
		Padding: menu.Padding{
			Horizontal: cfg.Menu.HorizontalPadding,
			Vertical:   cfg.Menu.VerticalPadding,
		},
		RetryDelay: cfg.Supervisor.RetryDelay,
	}
	err := s.Run(ctx)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// toggleOnSignal hides or shows the bar on every monitor on SIGUSR1.
func (b *bar) toggleOnSignal(ctx context.Context) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGUSR1)
	defer signal.Stop(sigCh)
	for {
		select {
		case <-ctx.Done():
			return
		case <-sigCh:
			for _, m := range b.tracker.Desktop.Load().Monitors {
				hidden := !b.registry.Hidden(m.Name)
				b.registry.SetHidden(m.Name, hidden)
				logEvent("BAR_TOGGLE monitor=%s hidden=%v", m.Name, hidden)
			}
		}
	}
}
