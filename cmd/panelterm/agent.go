package main

import (
	"bufio"
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/b/panelbar/pkg/terminal"
)

const pingInterval = 5 * time.Second

// eventSink is the host side of the connection.
type eventSink interface {
	Send(terminal.Event)
	Ping()
}

type pingMsg struct{}

// closedMsg ends the program once the host connection is gone.
type closedMsg struct{}

// agentModel only decodes input. Drawing is done by the host, so View is
// always empty and the program runs without a renderer.
type agentModel struct {
	host  eventSink
	sizes func() (terminal.Sizes, error)
}

func pingTick() tea.Cmd {
	return tea.Tick(pingInterval, func(time.Time) tea.Msg { return pingMsg{} })
}

func (m agentModel) Init() tea.Cmd {
	return pingTick()
}

func (m agentModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.MouseMsg:
		m.host.Send(terminal.MouseEvent(terminal.MouseFromTea(msg)))
	case tea.FocusMsg:
		m.host.Send(terminal.FocusEvent(true))
	case tea.BlurMsg:
		m.host.Send(terminal.FocusEvent(false))
	case tea.WindowSizeMsg:
		// The message has cells only; the host needs pixels too.
		sizes, err := m.sizes()
		if err != nil {
			debugLog.Printf("size query failed: %v", err)
			return m, nil
		}
		m.host.Send(terminal.ResizeEvent(sizes))
	case pingMsg:
		m.host.Ping()
		return m, pingTick()
	case closedMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m agentModel) View() string { return "" }

// output applies host updates to the panel.
type output struct {
	w      *bufio.Writer
	remote func(ctx context.Context, args []string) error
	shell  func(cmd string, args []string) error
}

func (o *output) apply(ctx context.Context, u terminal.Update) {
	switch u.Kind {
	case terminal.UpdatePrint:
		o.w.Write(u.Data)
	case terminal.UpdateFlush:
		if err := o.w.Flush(); err != nil {
			debugLog.Printf("flush: %v", err)
		}
	case terminal.UpdateRemoteControl:
		// Placement must land before the frame that follows it.
		if err := o.w.Flush(); err != nil {
			debugLog.Printf("flush: %v", err)
		}
		if err := o.remote(ctx, u.Args); err != nil {
			debugLog.Printf("remote control: %v", err)
		}
	case terminal.UpdateShell:
		if err := o.shell(u.Cmd, u.Args); err != nil {
			debugLog.Printf("shell: %v", err)
		}
	}
}

// pump applies updates until the channel closes, then tells the program.
func (o *output) pump(ctx context.Context, updates <-chan terminal.Update, done func()) {
	for u := range updates {
		o.apply(ctx, u)
	}
	o.w.Flush()
	done()
}
