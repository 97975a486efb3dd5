package tui

// MouseAction is what the terminal reported the mouse doing.
type MouseAction uint8

const (
	MouseMotion MouseAction = iota
	MousePress
	MouseRelease
)

func (a MouseAction) String() string {
	switch a {
	case MousePress:
		return "press"
	case MouseRelease:
		return "release"
	default:
		return "motion"
	}
}

type MouseButton uint8

const (
	ButtonNone MouseButton = iota
	ButtonLeft
	ButtonMiddle
	ButtonRight
	ButtonWheelUp
	ButtonWheelDown
	ButtonWheelLeft
	ButtonWheelRight
)

var buttonNames = [...]string{"none", "left", "middle", "right", "wheelup", "wheeldown", "wheelleft", "wheelright"}

func (b MouseButton) String() string {
	if int(b) < len(buttonNames) {
		return buttonNames[b]
	}
	return "unknown"
}

// ParseButton is the inverse of MouseButton.String.
func ParseButton(s string) MouseButton {
	for i, name := range buttonNames {
		if name == s {
			return MouseButton(i)
		}
	}
	return ButtonNone
}

func (b MouseButton) isWheel() bool { return b >= ButtonWheelUp }

// MouseEvent is a raw mouse report in terminal pixel coordinates.
type MouseEvent struct {
	Action MouseAction
	Button MouseButton
	X, Y   uint32
}

// InteractType classifies a mouse event for interactive elements.
type InteractType uint8

const (
	InteractHover InteractType = iota
	InteractClick
	InteractScroll
)

// Direction of a scroll.
type Direction uint8

const (
	ScrollUp Direction = iota
	ScrollDown
	ScrollLeft
	ScrollRight
)

func (d Direction) String() string {
	return [...]string{"up", "down", "left", "right"}[d&3]
}

// InteractKind is Hover, Click(Button) or Scroll(Direction).
type InteractKind struct {
	Type      InteractType
	Button    MouseButton
	Direction Direction
}

func (k InteractKind) String() string {
	switch k.Type {
	case InteractClick:
		return "click(" + k.Button.String() + ")"
	case InteractScroll:
		return "scroll(" + k.Direction.String() + ")"
	default:
		return "hover"
	}
}

// Hover, Click and Scroll build interaction kinds.
func Hover() InteractKind                 { return InteractKind{Type: InteractHover} }
func Click(b MouseButton) InteractKind    { return InteractKind{Type: InteractClick, Button: b} }
func Scroll(d Direction) InteractKind     { return InteractKind{Type: InteractScroll, Direction: d} }
func (k InteractKind) IsHover() bool      { return k.Type == InteractHover }
func (k InteractKind) IsClick() bool      { return k.Type == InteractClick }
func (k InteractKind) IsLeftClick() bool  { return k == Click(ButtonLeft) }
func (k InteractKind) IsRightClick() bool { return k == Click(ButtonRight) }

// KindOf maps a raw event: presses are clicks, wheel presses are scrolls,
// everything else (motion, release, drag) is a hover.
func KindOf(ev MouseEvent) InteractKind {
	if ev.Action != MousePress || ev.Button == ButtonNone {
		return Hover()
	}
	if ev.Button.isWheel() {
		return Scroll(Direction(ev.Button - ButtonWheelUp))
	}
	return Click(ev.Button)
}
