package types

// ---- Refresh requests (display mailbox) ----

// Refresh selects what the display orchestrator redraws.
type Refresh uint8

const (
	RefreshNone Refresh = iota
	RefreshTopBar
	RefreshImage
	RefreshFull
	RefreshShutdown // terminal
)

func (r Refresh) String() string {
	switch r {
	case RefreshNone:
		return "none"
	case RefreshTopBar:
		return "topbar"
	case RefreshImage:
		return "image"
	case RefreshFull:
		return "full"
	case RefreshShutdown:
		return "shutdown"
	default:
		return "invalid"
	}
}

// ParseRefresh maps a console token to a Refresh. Shutdown is not accepted.
func ParseRefresh(s string) (Refresh, bool) {
	switch s {
	case "none":
		return RefreshNone, true
	case "topbar", "top":
		return RefreshTopBar, true
	case "image":
		return RefreshImage, true
	case "full":
		return RefreshFull, true
	}
	return RefreshNone, false
}

// ---- Buttons ----

// Button identifies one physical button. Order is the wake-cause priority.
type Button uint8

const (
	ButtonUp Button = iota
	ButtonDown
	ButtonA
	ButtonB
	ButtonC
)

// Buttons lists all buttons in wake-cause priority order.
var Buttons = [...]Button{ButtonUp, ButtonDown, ButtonA, ButtonB, ButtonC}

func (b Button) String() string {
	switch b {
	case ButtonUp:
		return "up"
	case ButtonDown:
		return "down"
	case ButtonA:
		return "a"
	case ButtonB:
		return "b"
	case ButtonC:
		return "c"
	default:
		return "?"
	}
}

func ParseButton(s string) (Button, bool) {
	for _, b := range Buttons {
		if b.String() == s {
			return b, true
		}
	}
	return 0, false
}

// ---- Image shift ----

// Shift is a pending image index change decided at wake.
type Shift int8

const (
	ShiftPrev Shift = -1
	ShiftNone Shift = 0
	ShiftNext Shift = 1
)
