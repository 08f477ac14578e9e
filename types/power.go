package types

// ------------------------
// Power source / battery
// ------------------------

// PowerSource discriminates PowerState.
type PowerSource uint8

const (
	PowerUnknown PowerSource = iota // not measured yet this session
	PowerError                      // ADC read failed
	PowerUSB                        // mains/USB detected
	PowerBattery                    // running from the cell; Percent is valid
)

// PowerState is derived fresh on every wake and never persisted.
type PowerState struct {
	Source  PowerSource
	Percent uint8 // 0..100, only meaningful for PowerBattery
}

func PowerFault() PowerState { return PowerState{Source: PowerError} }
func USBPower() PowerState   { return PowerState{Source: PowerUSB} }
func Battery(percent uint8) PowerState {
	if percent > 100 {
		percent = 100
	}
	return PowerState{Source: PowerBattery, Percent: percent}
}

// Mains reports whether the board is externally powered.
func (p PowerState) Mains() bool { return p.Source == PowerUSB }

// Level buckets a battery reading for the header icon: 0..5 bars.
// Non-battery states return -1.
func (p PowerState) Level() int {
	if p.Source != PowerBattery {
		return -1
	}
	switch x := p.Percent; {
	case x > 90:
		return 5
	case x > 70:
		return 4
	case x > 50:
		return 3
	case x > 30:
		return 2
	case x > 10:
		return 1
	default:
		return 0
	}
}

func (p PowerState) String() string {
	switch p.Source {
	case PowerUSB:
		return "usb"
	case PowerBattery:
		return "battery"
	case PowerError:
		return "error"
	default:
		return "unknown"
	}
}
