package host

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/b/panelbar/pkg/menu"
	"github.com/b/panelbar/pkg/monitors"
	"github.com/b/panelbar/pkg/terminal"
	"github.com/b/panelbar/pkg/watch"
)

var ErrPanelExited = errors.New("panel exited")

// Process is a running panel.
type Process interface {
	Done() <-chan struct{}
	Err() error
}

// Conn is a panel connection the supervisor can close.
type Conn interface {
	Terminal
	Close() error
}

// Supervisor keeps a bar and a menu panel running on every monitor. A
// monitor whose panels fail is retried after RetryDelay.
type Supervisor struct {
	Registry *Registry
	Desktop  *watch.Value[monitors.Desktop]
	// Start launches a panel; Accept waits for it to connect.
	Start  func(ctx context.Context, spec terminal.PanelSpec) (Process, error)
	Accept func(ctx context.Context, term string) (Conn, error)
	// Panel is the template for both panels of each monitor.
	Panel          terminal.PanelSpec
	Padding        menu.Padding
	RetryDelay     time.Duration
	ConnectTimeout time.Duration
}

type instance struct {
	info   monitors.MonitorInfo
	cancel context.CancelFunc
	done   chan struct{}
	// next is the first unused generation once done is closed.
	next int
}

func (in *instance) stop() {
	in.cancel()
	<-in.done
}

// Run follows the monitor list until ctx is done.
func (s *Supervisor) Run(ctx context.Context) error {
	running := make(map[string]*instance)
	// Generations count per monitor name across relaunches, so a panel
	// id is never handed out twice.
	gens := make(map[string]int)
	var wg sync.WaitGroup
	defer func() {
		for _, in := range running {
			in.cancel()
		}
		wg.Wait()
	}()

	launch := func(info monitors.MonitorInfo) {
		mctx, cancel := context.WithCancel(ctx)
		in := &instance{info: info, cancel: cancel, done: make(chan struct{})}
		running[info.Name] = in
		first := gens[info.Name]
		wg.Add(1)
		go func() {
			defer wg.Done()
			defer close(in.done)
			in.next = s.runMonitor(mctx, info, first)
		}()
	}
	halt := func(name string) {
		if in, ok := running[name]; ok {
			in.stop()
			gens[name] = in.next
			delete(running, name)
		}
	}

	rx := s.Desktop.Subscribe()
	var prev []monitors.MonitorInfo
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-rx.Changed():
		}
		next := rx.Load().Monitors
		removed, changed := monitors.Diff(prev, next)
		prev = next
		for _, name := range removed {
			debugLog.Printf("host: monitor %s removed", name)
			halt(name)
		}
		for _, info := range changed {
			if _, ok := running[info.Name]; ok {
				debugLog.Printf("host: monitor %s changed, restarting", info.Name)
				halt(info.Name)
			}
			launch(info)
		}
	}
}

// runMonitor runs attempts starting at generation gen and returns the first
// generation it did not use.
func (s *Supervisor) runMonitor(ctx context.Context, info monitors.MonitorInfo, gen int) int {
	for ; ; gen++ {
		err := s.attempt(ctx, info, gen)
		if ctx.Err() != nil {
			debugLog.Printf("host: monitor %s stopped", info.Name)
			return gen + 1
		}
		debugLog.Printf("host: monitor %s failed: %v; retrying in %s", info.Name, err, s.RetryDelay)
		select {
		case <-ctx.Done():
			return gen + 1
		case <-time.After(s.RetryDelay):
		}
	}
}

func (s *Supervisor) connectTimeout() time.Duration {
	if s.ConnectTimeout > 0 {
		return s.ConnectTimeout
	}
	return 10 * time.Second
}

// spawn starts one panel and waits for its agent to connect.
func (s *Supervisor) spawn(ctx, sctx context.Context, spec terminal.PanelSpec) (Process, Conn, error) {
	p, err := s.Start(ctx, spec)
	if err != nil {
		return nil, nil, err
	}
	actx, cancel := context.WithTimeout(sctx, s.connectTimeout())
	defer cancel()
	go func() {
		select {
		case <-p.Done():
			cancel()
		case <-actx.Done():
		}
	}()
	c, err := s.Accept(actx, spec.Term)
	if err != nil {
		select {
		case <-p.Done():
			return p, nil, fmt.Errorf("%s: %w before connecting: %v", spec.Term, ErrPanelExited, p.Err())
		default:
		}
		return p, nil, fmt.Errorf("%s: waiting for connection: %w", spec.Term, err)
	}
	return p, c, nil
}

func waitExit(ctx context.Context, term string, p Process) error {
	select {
	case <-p.Done():
		return fmt.Errorf("%s: %w: %v", term, ErrPanelExited, p.Err())
	case <-ctx.Done():
		return nil
	}
}

// attempt runs both panels of a monitor once. Panels are stopped when it
// returns.
func (s *Supervisor) attempt(ctx context.Context, info monitors.MonitorInfo, gen int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v\n%s", r, debug.Stack())
		}
	}()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	specs := [2]terminal.PanelSpec{s.Panel, s.Panel}
	for i, which := range []string{"bar", "menu"} {
		specs[i].Monitor = info.Name
		specs[i].Term = fmt.Sprintf("%s/%s/%d", info.Name, which, gen)
	}
	specs[1].Menu = true
	specs[1].Lines = 1

	var procs [2]Process
	var conns [2]Conn
	defer func() {
		for _, c := range conns {
			if c != nil {
				c.Close()
			}
		}
	}()

	sg, sctx := errgroup.WithContext(ctx)
	for i := range specs {
		sg.Go(func() error {
			p, c, err := s.spawn(ctx, sctx, specs[i])
			procs[i], conns[i] = p, c
			return err
		})
	}
	if err := sg.Wait(); err != nil {
		return err
	}
	debugLog.Printf("host: monitor %s connected (gen %d)", info.Name, gen)

	loop := &MonitorLoop{
		Monitor:  info,
		Bar:      conns[0],
		Menu:     conns[1],
		Registry: s.Registry,
		Padding:  s.Padding,
	}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return loop.Run(gctx) })
	for i := range procs {
		g.Go(func() error { return waitExit(gctx, specs[i].Term, procs[i]) })
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
