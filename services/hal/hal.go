// Package hal defines the narrow hardware contracts the firmware services are
// written against. Concrete implementations live in hal/platform, selected by
// build tags; host fakes live alongside these contracts for tests.
package hal

import (
	"io"
	"time"

	"tinygo.org/x/drivers"
)

// ---- GPIO ----

type Pull uint8

const (
	PullNone Pull = iota
	PullUp
	PullDown
)

// Edge selection for IRQ.
type Edge uint8

const (
	EdgeNone Edge = iota
	EdgeRising
	EdgeFalling
	EdgeBoth
)

func (e Edge) String() string {
	switch e {
	case EdgeRising:
		return "rising"
	case EdgeFalling:
		return "falling"
	case EdgeBoth:
		return "both"
	default:
		return "none"
	}
}

// InputPin reads a level.
type InputPin interface {
	Get() bool
}

// OutputPin drives a level (power latch, panel reset).
type OutputPin interface {
	Set(level bool)
}

// IRQPin is an input with edge interrupts. The handler runs in interrupt
// context and must not block.
type IRQPin interface {
	InputPin
	SetIRQ(edge Edge, handler func()) error
	ClearIRQ() error
}

// ---- Analogue ----

// ADC returns one raw conversion.
type ADC interface {
	Read() (uint16, error)
}

// ---- Storage ----

// BlockDevice matches the TinyGo machine.Flash surface. Erase sets bytes to
// 0xFF; writes may only clear bits.
type BlockDevice interface {
	io.ReaderAt
	io.WriterAt
	Size() int64
	EraseBlockSize() int64
	EraseBlocks(start, length int64) error
}

// ---- Real-time clock ----

// RTC is the subset of the clock chip the firmware uses.
type RTC interface {
	Now() (time.Time, error)
	Set(t time.Time) error
	OscillatorStopped() (bool, error)
	DisableAlarms() error
	ClearAlarmFlag() error
	ArmSecondAlarm(sec uint8) error
	ReadRAM() (byte, error)
	WriteRAM(b byte) error
}

// ---- PWM ----

// PWM drives one channel; levels are in [0, Top()].
type PWM interface {
	Set(level uint16)
	Top() uint16
}

// ---- E-paper panel ----

// PanelMode selects the waveform for the next commit.
type PanelMode uint8

const (
	ModeQuality PanelMode = iota // slow full-panel waveform, clears ghosting
	ModeFast                     // partial waveform
)

func (m PanelMode) String() string {
	if m == ModeFast {
		return "fast"
	}
	return "quality"
}

// Panel is a buffered 1-bit e-paper panel. SetPixel draws into the frame
// buffer: black is ink, anything else is paper. Display commits the whole
// buffer; DisplayRect commits one rectangle.
type Panel interface {
	drivers.Displayer
	DisplayRect(x, y, w, h int16) error
	SetMode(m PanelMode) error
	Wake() error
	Sleep() error
}
