//go:build rp2040

package platform

import (
	"context"
	"device/arm"
	"image/color"
	"io"
	"log/slog"
	"machine"

	"doorsign-go/drivers/pcf85063"
	"doorsign-go/services/gateway"
	"doorsign-go/services/hal"
	"doorsign-go/services/lifecycle"
	"doorsign-go/types"

	"github.com/jangala-dev/tinygo-uartx/uartx"
	"github.com/sparques/pwm"
	"tinygo.org/x/drivers"
	"tinygo.org/x/drivers/uc8151"
)

// Badger 2040 W wiring (GP numbers).
const (
	pinLatch    = machine.Pin(10)
	pinEPDReset = machine.Pin(21)
	pinEPDCS    = machine.Pin(17)
	pinEPDDC    = machine.Pin(20)
	pinEPDBusy  = machine.Pin(26)
	pinEPDSCK   = machine.Pin(18)
	pinEPDSDO   = machine.Pin(19)
	pinEPDSDI   = machine.Pin(16)
	pinRTCAlarm = machine.Pin(8)
	pinLED      = machine.Pin(22)
	pinVSense   = machine.Pin(29)
	pinSDA      = machine.Pin(4)
	pinSCL      = machine.Pin(5)
	pinTX       = machine.Pin(0)
	pinRX       = machine.Pin(1)
)

var buttonPins = [len(types.Buttons)]machine.Pin{
	types.ButtonUp:   15,
	types.ButtonDown: 11,
	types.ButtonA:    12,
	types.ButtonB:    13,
	types.ButtonC:    14,
}

var Selected = Board{
	Name:    "Badger 2040 W",
	Device:  "badger2040w",
	Battery: true,
	RTC:     true,
	BLE:     true,
	Console: "uart0",
}

// Open latches power first, then configures every peripheral the firmware
// uses. Buses are configured here; devices are only initialised lazily.
func Open(log *slog.Logger) (lifecycle.Hardware, error) {
	latch := output(pinLatch, true)
	reset := output(pinEPDReset, false)

	var hw lifecycle.Hardware
	hw.Latch = latch
	hw.DisplayReset = reset
	for b, p := range buttonPins {
		hw.Buttons[b] = input(p, machine.PinInputPulldown)
	}
	hw.RTCAlarm = input(pinRTCAlarm, machine.PinInputPulldown)

	machine.InitADC()
	adc := machine.ADC{Pin: pinVSense}
	adc.Configure(machine.ADCConfig{})
	hw.ADC = rp2ADC{adc}

	hw.Flash = machine.Flash

	i2c := machine.I2C0
	if err := i2c.Configure(machine.I2CConfig{Frequency: 400 * machine.KHz, SDA: pinSDA, SCL: pinSCL}); err != nil {
		return hw, err
	}
	rtc := pcf85063.New(i2c)
	if err := rtc.Configure(); err != nil {
		log.Warn("platform:rtc-config-failed", "err", err)
	}
	hw.RTC = &rtc

	led, err := newLEDPWM(pinLED)
	if err != nil {
		return hw, err
	}
	hw.LED = led

	if err := machine.SPI0.Configure(machine.SPIConfig{
		Frequency: 12 * machine.MHz,
		SCK:       pinEPDSCK,
		SDO:       pinEPDSDO,
		SDI:       pinEPDSDI,
	}); err != nil {
		return hw, err
	}
	hw.Panel = &badgerPanel{d: uc8151.New(machine.SPI0, pinEPDCS, pinEPDDC, pinEPDReset, pinEPDBusy)}

	hw.Transport = gateway.NewBLE()

	u := uartx.UART0
	_ = u.Configure(uartx.UARTConfig{BaudRate: 115200, TX: pinTX, RX: pinRX})
	hw.Console = u

	hw.Halt = Halt
	return hw, nil
}

// LogSink is the USB CDC serial port.
var LogSink io.Writer = machine.Serial

// Context is never cancelled on the badge; power loss ends the process.
func Context() (context.Context, context.CancelFunc) {
	return context.WithCancel(context.Background())
}

// Halt idles until the latch drop removes power.
func Halt() {
	for {
		arm.Asm("wfi")
	}
}

// ---- GPIO ----

type rp2Pin struct{ p machine.Pin }

func output(p machine.Pin, level bool) *rp2Pin {
	p.Configure(machine.PinConfig{Mode: machine.PinOutput})
	p.Set(level)
	return &rp2Pin{p}
}

func input(p machine.Pin, mode machine.PinMode) *rp2Pin {
	p.Configure(machine.PinConfig{Mode: mode})
	return &rp2Pin{p}
}

func (r *rp2Pin) Set(level bool) { r.p.Set(level) }
func (r *rp2Pin) Get() bool      { return r.p.Get() }

func (r *rp2Pin) SetIRQ(edge hal.Edge, handler func()) error {
	return r.p.SetInterrupt(toPinChange(edge), func(machine.Pin) { handler() })
}

func (r *rp2Pin) ClearIRQ() error {
	var zero machine.PinChange
	return r.p.SetInterrupt(zero, nil)
}

func toPinChange(e hal.Edge) machine.PinChange {
	switch e {
	case hal.EdgeRising:
		return machine.PinRising
	case hal.EdgeFalling:
		return machine.PinFalling
	case hal.EdgeBoth:
		return machine.PinToggle
	default:
		var zero machine.PinChange
		return zero
	}
}

// ---- ADC ----

type rp2ADC struct{ a machine.ADC }

func (r rp2ADC) Read() (uint16, error) { return r.a.Get(), nil }

// ---- LED ----

type ledPWM struct {
	g  pwm.Group
	ch uint8
}

func newLEDPWM(pin machine.Pin) (*ledPWM, error) {
	pin.Configure(machine.PinConfig{Mode: machine.PinPWM})
	g := pwm.Get(pin)
	if err := g.Configure(machine.PWMConfig{Period: 1e9 / 1000}); err != nil {
		return nil, err
	}
	ch, err := g.Channel(pin)
	if err != nil {
		return nil, err
	}
	g.Set(ch, 0)
	return &ledPWM{g: g, ch: ch}, nil
}

func (l *ledPWM) Top() uint16 { return 0xFFFF }

func (l *ledPWM) Set(level uint16) {
	l.g.Set(l.ch, uint32(uint64(level)*uint64(l.g.Top())/0xFFFF))
}

// ---- Panel ----

// badgerPanel adapts the UC8151. Display always uses the driver's full
// waveform (UpdateAfter 1). DisplayRect drives the partial window itself
// from a native-layout copy of the frame; the driver's own rect path does
// not handle Rotation270.
type badgerPanel struct {
	d      uc8151.Device
	fb     *frame270
	ready  bool
	asleep bool
}

var (
	epdBlack = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
	epdWhite = color.RGBA{}
)

func (p *badgerPanel) Size() (int16, int16) {
	if !p.ready {
		return 296, 128
	}
	return p.d.Size()
}

// SetPixel maps ink (black) to the driver's set bit.
func (p *badgerPanel) SetPixel(x, y int16, c color.RGBA) {
	if !p.ready {
		p.configure()
	}
	ink := c.R == 0 && c.G == 0 && c.B == 0
	if ink {
		p.d.SetPixel(x, y, epdBlack)
	} else {
		p.d.SetPixel(x, y, epdWhite)
	}
	p.fb.set(x, y, ink)
}

func (p *badgerPanel) Display() error { return p.d.Display() }

func (p *badgerPanel) DisplayRect(x, y, w, h int16) error {
	if !p.ready {
		p.configure()
	}
	win, ok := p.fb.window(x, y, w, h)
	if !ok {
		return nil
	}
	p.d.WaitUntilIdle()
	p.d.SendCommand(uc8151.PON)
	p.d.SendCommand(uc8151.PTIN)
	p.d.SendCommand(uc8151.PTL)
	y1 := win.Y + win.H - 1
	p.d.SendData(uint8(win.X), uint8(win.X+win.W-1)|0x07,
		uint8(win.Y>>8), uint8(win.Y), uint8(y1>>8), uint8(y1), 0x01)
	p.d.SendCommand(uc8151.DTM2)
	for ny := win.Y; ny <= y1; ny++ {
		p.d.SendData(p.fb.row(win, ny)...)
	}
	p.d.SendCommand(uc8151.DSP)
	p.d.SendCommand(uc8151.DRF)
	p.d.WaitUntilIdle()
	p.d.SendCommand(uc8151.PTOU)
	p.d.PowerOff()
	return nil
}

func (p *badgerPanel) SetMode(m hal.PanelMode) error {
	if m == hal.ModeFast {
		return p.d.SetLUT(uc8151.FAST, true)
	}
	return nil
}

func (p *badgerPanel) configure() {
	p.d.Configure(uc8151.Config{
		Rotation:    drivers.Rotation270,
		Speed:       uc8151.FAST,
		Blocking:    true,
		FlickerFree: true,
		UpdateAfter: 1,
	})
	if p.fb == nil {
		p.fb = newFrame270(uc8151.EPD_WIDTH, uc8151.EPD_HEIGHT)
	} else {
		p.fb.reset()
	}
	p.ready, p.asleep = true, false
}

// Wake releases reset and loads the waveform tables. After deep sleep the
// controller only answers to a hardware reset, so it is reconfigured.
func (p *badgerPanel) Wake() error {
	if !p.ready || p.asleep {
		p.configure()
	}
	return nil
}

func (p *badgerPanel) Sleep() error {
	if !p.ready {
		return nil
	}
	p.d.PowerOff()
	p.d.WaitUntilIdle()
	p.d.SendCommand(uc8151.DSLP)
	p.d.SendData(0xA5)
	p.asleep = true
	return nil
}
