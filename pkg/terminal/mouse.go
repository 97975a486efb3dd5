package terminal

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/b/panelbar/pkg/tui"
)

// MouseFromTea converts a bubbletea mouse message. The panel runs in SGR
// pixel mode, so X and Y are pixels, not cells.
func MouseFromTea(msg tea.MouseMsg) tui.MouseEvent {
	ev := tui.MouseEvent{
		X: uint32(max(msg.X, 0)),
		Y: uint32(max(msg.Y, 0)),
	}
	switch msg.Action {
	case tea.MouseActionPress:
		ev.Action = tui.MousePress
	case tea.MouseActionRelease:
		ev.Action = tui.MouseRelease
	default:
		ev.Action = tui.MouseMotion
	}
	switch msg.Button {
	case tea.MouseButtonLeft:
		ev.Button = tui.ButtonLeft
	case tea.MouseButtonMiddle:
		ev.Button = tui.ButtonMiddle
	case tea.MouseButtonRight:
		ev.Button = tui.ButtonRight
	case tea.MouseButtonWheelUp:
		ev.Button = tui.ButtonWheelUp
	case tea.MouseButtonWheelDown:
		ev.Button = tui.ButtonWheelDown
	case tea.MouseButtonWheelLeft:
		ev.Button = tui.ButtonWheelLeft
	case tea.MouseButtonWheelRight:
		ev.Button = tui.ButtonWheelRight
	default:
		ev.Button = tui.ButtonNone
	}
	return ev
}
