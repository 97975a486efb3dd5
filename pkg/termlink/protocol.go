// Package termlink connects the host to the agents running inside kitty
// panels. Messages are JSON, one per line, over a unix socket.
package termlink

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/b/panelbar/pkg/terminal"
	"github.com/b/panelbar/pkg/tui"
)

// MessageType identifies the type of message
type MessageType string

const (
	MsgHello  MessageType = "hello"  // Agent -> Host: terminal id + initial sizes
	MsgMouse  MessageType = "mouse"  // Agent -> Host
	MsgResize MessageType = "resize" // Agent -> Host
	MsgFocus  MessageType = "focus"  // Agent -> Host

	MsgPrint         MessageType = "print" // Host -> Agent
	MsgFlush         MessageType = "flush"
	MsgRemoteControl MessageType = "remote_control"
	MsgShell         MessageType = "shell"

	MsgPing MessageType = "ping"
	MsgPong MessageType = "pong"
)

var (
	ErrClosed    = errors.New("connection closed")
	ErrHandshake = errors.New("expected hello")
)

// Message is the envelope for everything sent over the socket.
type Message struct {
	Type    MessageType     `json:"type"`
	Term    string          `json:"term,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// NewMessage builds a message with payload encoded as JSON.
func NewMessage(typ MessageType, payload interface{}) (Message, error) {
	msg := Message{Type: typ}
	if payload == nil {
		return msg, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return msg, fmt.Errorf("encode %s payload: %w", typ, err)
	}
	msg.Payload = data
	return msg, nil
}

// Decode unmarshals the payload into v.
func (m Message) Decode(v interface{}) error {
	if len(m.Payload) == 0 {
		return fmt.Errorf("%s: empty payload", m.Type)
	}
	if err := json.Unmarshal(m.Payload, v); err != nil {
		return fmt.Errorf("decode %s payload: %w", m.Type, err)
	}
	return nil
}

// MousePayload is a mouse report in pixels.
type MousePayload struct {
	Action string `json:"action"` // "press", "release", "motion"
	Button string `json:"button,omitempty"`
	X      uint32 `json:"x"`
	Y      uint32 `json:"y"`
}

// FocusPayload reports the panel gaining or losing keyboard focus.
type FocusPayload struct {
	Focused bool `json:"focused"`
}

// PrintPayload carries raw terminal output.
type PrintPayload struct {
	Data []byte `json:"data"`
}

// CommandPayload is a remote control or shell command.
type CommandPayload struct {
	Cmd  string   `json:"cmd,omitempty"`
	Args []string `json:"args"`
}

func mouseToPayload(ev tui.MouseEvent) MousePayload {
	return MousePayload{Action: ev.Action.String(), Button: ev.Button.String(), X: ev.X, Y: ev.Y}
}

func (p MousePayload) event() tui.MouseEvent {
	ev := tui.MouseEvent{Button: tui.ParseButton(p.Button), X: p.X, Y: p.Y}
	switch p.Action {
	case "press":
		ev.Action = tui.MousePress
	case "release":
		ev.Action = tui.MouseRelease
	default:
		ev.Action = tui.MouseMotion
	}
	return ev
}

// EncodeEvent converts agent input into a message.
func EncodeEvent(ev terminal.Event) (Message, error) {
	switch ev.Kind {
	case terminal.EventMouse:
		return NewMessage(MsgMouse, mouseToPayload(ev.Mouse))
	case terminal.EventResize:
		return NewMessage(MsgResize, ev.Sizes)
	case terminal.EventFocus:
		return NewMessage(MsgFocus, FocusPayload{Focused: ev.Focused})
	}
	return Message{}, fmt.Errorf("unknown event kind %d", ev.Kind)
}

// DecodeEvent is the inverse of EncodeEvent. ok is false for messages that
// are not input events.
func DecodeEvent(msg Message) (ev terminal.Event, ok bool, err error) {
	switch msg.Type {
	case MsgMouse:
		var p MousePayload
		if err := msg.Decode(&p); err != nil {
			return ev, false, err
		}
		return terminal.MouseEvent(p.event()), true, nil
	case MsgResize:
		var s terminal.Sizes
		if err := msg.Decode(&s); err != nil {
			return ev, false, err
		}
		return terminal.ResizeEvent(s), true, nil
	case MsgFocus:
		var p FocusPayload
		if err := msg.Decode(&p); err != nil {
			return ev, false, err
		}
		return terminal.FocusEvent(p.Focused), true, nil
	}
	return ev, false, nil
}

// EncodeUpdate converts host output into a message.
func EncodeUpdate(u terminal.Update) (Message, error) {
	switch u.Kind {
	case terminal.UpdatePrint:
		return NewMessage(MsgPrint, PrintPayload{Data: u.Data})
	case terminal.UpdateFlush:
		return NewMessage(MsgFlush, nil)
	case terminal.UpdateRemoteControl:
		return NewMessage(MsgRemoteControl, CommandPayload{Args: u.Args})
	case terminal.UpdateShell:
		return NewMessage(MsgShell, CommandPayload{Cmd: u.Cmd, Args: u.Args})
	}
	return Message{}, fmt.Errorf("unknown update kind %d", u.Kind)
}

// DecodeUpdate is the inverse of EncodeUpdate.
func DecodeUpdate(msg Message) (u terminal.Update, ok bool, err error) {
	switch msg.Type {
	case MsgPrint:
		var p PrintPayload
		if err := msg.Decode(&p); err != nil {
			return u, false, err
		}
		return terminal.Print(p.Data), true, nil
	case MsgFlush:
		return terminal.Flush(), true, nil
	case MsgRemoteControl:
		var p CommandPayload
		if err := msg.Decode(&p); err != nil {
			return u, false, err
		}
		return terminal.RemoteControl(p.Args...), true, nil
	case MsgShell:
		var p CommandPayload
		if err := msg.Decode(&p); err != nil {
			return u, false, err
		}
		return terminal.Shell(p.Cmd, p.Args...), true, nil
	}
	return u, false, nil
}

// SocketPath returns the host socket path for an instance
func SocketPath(runtimeDir, instance string) string {
	if instance == "" {
		instance = "default"
	}
	return filepath.Join(runtimeDir, fmt.Sprintf("panelbar-%s.sock", instance))
}

// PidPath returns the pidfile path for an instance
func PidPath(runtimeDir, instance string) string {
	if instance == "" {
		instance = "default"
	}
	return filepath.Join(runtimeDir, fmt.Sprintf("panelbar-%s.pid", instance))
}

func removeStale(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		debugLog.Printf("termlink: remove %s: %v", path, err)
	}
}
