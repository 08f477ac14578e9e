package types

// Status is the availability announced by the paired calendar app.
type Status uint8

const (
	StatusBusy Status = iota
	StatusFree
	StatusFocus
)

func (s Status) String() string {
	switch s {
	case StatusBusy:
		return "Busy"
	case StatusFree:
		return "Free"
	case StatusFocus:
		return "Focus"
	default:
		return "?"
	}
}

// StatusInfo is the last successfully decoded status payload (without its label).
type StatusInfo struct {
	Valid       bool
	Status      Status
	StartHour   uint8
	StartMinute uint8
	Duration    uint8 // minutes
}
