// Package terminal holds what the host and the agent running inside each
// kitty panel exchange: input events going up, output updates going down.
package terminal

import (
	"errors"

	"golang.org/x/sys/unix"
	"golang.org/x/term"

	"github.com/b/panelbar/pkg/tui"
)

var ErrNotTerminal = errors.New("not a terminal")

// Sizes of a terminal window in cells and pixels.
type Sizes struct {
	Cells  tui.Size `json:"cells"`
	Pixels tui.Size `json:"pixels"`
}

// FontSize is the pixel size of one cell, zero if unknown.
func (s Sizes) FontSize() tui.Size {
	if s.Cells.W == 0 || s.Cells.H == 0 {
		return tui.Size{}
	}
	return tui.Size{W: s.Pixels.W / s.Cells.W, H: s.Pixels.H / s.Cells.H}
}

// Area covers the whole window.
func (s Sizes) Area() tui.Area {
	return tui.Area{Size: s.Cells}
}

// SizingArgs for rendering into this terminal.
func (s Sizes) SizingArgs() tui.SizingArgs {
	return tui.SizingArgs{FontSize: s.FontSize()}
}

// QuerySizes reads the window size of the terminal on fd, including the
// pixel dimensions kitty reports.
func QuerySizes(fd int) (Sizes, error) {
	if !term.IsTerminal(fd) {
		return Sizes{}, ErrNotTerminal
	}
	ws, err := unix.IoctlGetWinsize(fd, unix.TIOCGWINSZ)
	if err != nil {
		return Sizes{}, err
	}
	return Sizes{
		Cells:  tui.Size{W: ws.Col, H: ws.Row},
		Pixels: tui.Size{W: ws.Xpixel, H: ws.Ypixel},
	}, nil
}

type EventKind uint8

const (
	EventMouse EventKind = iota
	EventResize
	EventFocus
)

func (k EventKind) String() string {
	switch k {
	case EventMouse:
		return "mouse"
	case EventResize:
		return "resize"
	default:
		return "focus"
	}
}

// Event is input from a terminal.
type Event struct {
	Kind    EventKind
	Mouse   tui.MouseEvent
	Sizes   Sizes
	Focused bool
}

func MouseEvent(ev tui.MouseEvent) Event { return Event{Kind: EventMouse, Mouse: ev} }
func ResizeEvent(s Sizes) Event          { return Event{Kind: EventResize, Sizes: s} }
func FocusEvent(focused bool) Event      { return Event{Kind: EventFocus, Focused: focused} }

type UpdateKind uint8

const (
	UpdatePrint UpdateKind = iota
	UpdateFlush
	UpdateRemoteControl
	UpdateShell
)

func (k UpdateKind) String() string {
	return [...]string{"print", "flush", "remote_control", "shell"}[k&3]
}

// Update is output for a terminal. Updates are applied in order.
type Update struct {
	Kind UpdateKind
	Data []byte
	Cmd  string
	Args []string
}

// Print writes raw bytes to the terminal.
func Print(data []byte) Update { return Update{Kind: UpdatePrint, Data: data} }

// Flush pushes buffered output to the screen.
func Flush() Update { return Update{Kind: UpdateFlush} }

// RemoteControl runs a kitty remote control command on the panel window.
func RemoteControl(args ...string) Update { return Update{Kind: UpdateRemoteControl, Args: args} }

// Shell runs a command detached from the panel.
func Shell(cmd string, args ...string) Update { return Update{Kind: UpdateShell, Cmd: cmd, Args: args} }
