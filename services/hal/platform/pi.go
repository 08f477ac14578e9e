//go:build linux && !(rp2040 || rp2350)

package platform

import (
	"context"
	"image"
	"image/color"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"doorsign-go/errcode"
	"doorsign-go/services/console"
	"doorsign-go/services/gateway"
	"doorsign-go/services/hal"
	"doorsign-go/services/lifecycle"
	"doorsign-go/types"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/devices/v3/waveshare2in13v2"
	"periph.io/x/host/v3"
)

// Raspberry Pi with a Waveshare 2.13" HAT; buttons are active-low to ground.
var piButtons = [len(types.Buttons)]string{
	types.ButtonUp:   "GPIO5",
	types.ButtonDown: "GPIO6",
	types.ButtonA:    "GPIO13",
	types.ButtonB:    "GPIO19",
	types.ButtonC:    "GPIO26",
}

const (
	piLED       = "GPIO16"
	piFlashFile = "doorsign.flash"
	piFlashSize = 64 * 1024
	piFlashBlk  = 4096
)

var Selected = Board{
	Name:    "Raspberry Pi",
	Device:  "pi",
	Console: "stdin",
	BLE:     true,
}

// Open brings up periph and returns the Pi profile. The Pi is always on
// mains: there is no latch, the supply ADC reads full scale and the clock is
// the system clock.
func Open(log *slog.Logger) (lifecycle.Hardware, error) {
	var hw lifecycle.Hardware
	if _, err := host.Init(); err != nil {
		return hw, err
	}
	hw.Latch = nopPin{}
	hw.DisplayReset = nopPin{}
	for b, name := range piButtons {
		p := gpioreg.ByName(name)
		if p == nil {
			return hw, errcode.New(errcode.NotReady, "platform.open", "no pin "+name)
		}
		if err := p.In(gpio.PullUp, gpio.NoEdge); err != nil {
			return hw, err
		}
		hw.Buttons[b] = &piButton{p: p}
	}
	hw.RTCAlarm = nopPin{}
	hw.ADC = mainsADC{}
	hw.RTC = &systemRTC{}

	flash, err := openFileFlash(piFlashFile, piFlashSize, piFlashBlk)
	if err != nil {
		return hw, err
	}
	hw.Flash = flash

	if p := gpioreg.ByName(piLED); p != nil {
		hw.LED = &piLEDPin{p: p}
	} else {
		hw.LED = nopPWM{}
	}

	port, err := spireg.Open("")
	if err != nil {
		return hw, err
	}
	dev, err := waveshare2in13v2.NewHat(port, &waveshare2in13v2.EPD2in13v2)
	if err != nil {
		port.Close()
		return hw, err
	}
	hw.Panel = newPiPanel(dev)

	hw.Transport = gateway.NewBLE()
	hw.Console = &console.ReaderPort{R: os.Stdin, W: os.Stdout}
	hw.Halt = Halt
	log.Info("platform:open", "board", Selected.Name)
	return hw, nil
}

var LogSink io.Writer = os.Stderr

// Context ends on SIGINT or SIGTERM.
func Context() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func Halt() { os.Exit(1) }

// ---- GPIO ----

type nopPin struct{}

func (nopPin) Set(bool)  {}
func (nopPin) Get() bool { return false }

// piButton turns periph edge waits into the IRQ callback contract. Any edge
// fires the handler; waiters re-check the level.
type piButton struct {
	p     gpio.PinIO
	watch edgeWatch
}

func (b *piButton) Get() bool { return b.p.Read() == gpio.Low }

func (b *piButton) SetIRQ(_ hal.Edge, handler func()) error {
	b.watch.halt()
	if err := b.p.In(gpio.PullUp, gpio.BothEdges); err != nil {
		return err
	}
	b.watch.start(b.p, 100*time.Millisecond, handler)
	return nil
}

func (b *piButton) ClearIRQ() error {
	b.watch.halt()
	return nil
}

// ---- Supply, clock, LED ----

type mainsADC struct{}

func (mainsADC) Read() (uint16, error) { return 0xFFFF, nil }

// systemRTC serves the system clock. Setting time is left to the OS; the RAM
// byte lives for the process lifetime.
type systemRTC struct {
	mu  sync.Mutex
	ram byte
}

func (*systemRTC) Now() (time.Time, error) { return time.Now().UTC(), nil }
func (*systemRTC) Set(time.Time) error {
	return errcode.New(errcode.Unsupported, "rtc.set", "system clock is managed by the OS")
}
func (*systemRTC) OscillatorStopped() (bool, error) { return false, nil }
func (*systemRTC) DisableAlarms() error             { return nil }
func (*systemRTC) ClearAlarmFlag() error            { return nil }
func (*systemRTC) ArmSecondAlarm(uint8) error       { return nil }

func (r *systemRTC) ReadRAM() (byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ram, nil
}

func (r *systemRTC) WriteRAM(b byte) error {
	r.mu.Lock()
	r.ram = b
	r.mu.Unlock()
	return nil
}

// piLEDPin is an on/off LED; levels above half are on.
type piLEDPin struct{ p gpio.PinIO }

func (l *piLEDPin) Top() uint16 { return 0xFFFF }
func (l *piLEDPin) Set(level uint16) {
	_ = l.p.Out(gpio.Level(level > 0x7FFF))
}

type nopPWM struct{}

func (nopPWM) Top() uint16 { return 0xFFFF }
func (nopPWM) Set(uint16)  {}

// ---- Storage ----

// fileFlash is a BlockDevice backed by a regular file.
type fileFlash struct {
	mu    sync.Mutex
	f     *os.File
	size  int64
	block int64
}

func openFileFlash(path string, size, block int64) (*fileFlash, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	ff := &fileFlash{f: f, size: size, block: block}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, err
	}
	if st.Size() != size {
		if err := f.Truncate(size); err != nil {
			f.Close()
			return nil, err
		}
		if err := ff.EraseBlocks(0, size/block); err != nil {
			f.Close()
			return nil, err
		}
	}
	return ff, nil
}

func (f *fileFlash) ReadAt(p []byte, off int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.f.ReadAt(p, off)
}

func (f *fileFlash) WriteAt(p []byte, off int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, err := f.f.WriteAt(p, off)
	if err == nil {
		err = f.f.Sync()
	}
	return n, err
}

func (f *fileFlash) Size() int64           { return f.size }
func (f *fileFlash) EraseBlockSize() int64 { return f.block }

func (f *fileFlash) EraseBlocks(start, length int64) error {
	if start < 0 || (start+length)*f.block > f.size {
		return errcode.New(errcode.InvalidParams, "flash.erase", "out of range")
	}
	blank := make([]byte, f.block)
	for i := range blank {
		blank[i] = 0xFF
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for b := start; b < start+length; b++ {
		if _, err := f.f.WriteAt(blank, b*f.block); err != nil {
			return err
		}
	}
	return nil
}

// ---- Panel ----

// piPanel draws into a 1-bit frame in the HAT's native portrait layout and
// presents a landscape surface to the renderer.
type piPanel struct {
	dev   *waveshare2in13v2.Dev
	frame *image1bit.VerticalLSB
	b     image.Rectangle
}

func newPiPanel(dev *waveshare2in13v2.Dev) *piPanel {
	b := dev.Bounds()
	p := &piPanel{dev: dev, frame: image1bit.NewVerticalLSB(b), b: b}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			p.frame.SetBit(x, y, image1bit.On)
		}
	}
	return p
}

func (p *piPanel) Size() (int16, int16) { return int16(p.b.Dy()), int16(p.b.Dx()) }

func (p *piPanel) SetPixel(x, y int16, c color.RGBA) {
	px, py := p.b.Max.X-1-int(y), p.b.Min.Y+int(x)
	if !(image.Point{px, py}).In(p.b) {
		return
	}
	bit := image1bit.On
	if c.R == 0 && c.G == 0 && c.B == 0 {
		bit = image1bit.Off
	}
	p.frame.SetBit(px, py, bit)
}

func (p *piPanel) Display() error {
	return p.dev.Draw(p.b, p.frame, p.b.Min)
}

func (p *piPanel) DisplayRect(x, y, w, h int16) error {
	r := image.Rect(p.b.Max.X-int(y)-int(h), p.b.Min.Y+int(x), p.b.Max.X-int(y), p.b.Min.Y+int(x)+int(w)).Intersect(p.b)
	if r.Empty() {
		return nil
	}
	return p.dev.Draw(r, p.frame, r.Min)
}

func (p *piPanel) SetMode(m hal.PanelMode) error {
	if m == hal.ModeFast {
		return p.dev.SetUpdateMode(waveshare2in13v2.Partial)
	}
	return p.dev.SetUpdateMode(waveshare2in13v2.Full)
}

func (p *piPanel) Wake() error  { return p.dev.Init() }
func (p *piPanel) Sleep() error { return p.dev.Sleep() }
