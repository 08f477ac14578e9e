//go:build !rp2040 && !rp2350

package hal

import (
	"errors"
	"image/color"
	"sync"
	"time"

	"doorsign-go/x/fmtx"
)

// ----------------------------- Trace -----------------------------------------

// Trace is an ordered log of hardware side effects shared by several fakes,
// so tests can assert cross-device ordering.
type Trace struct {
	mu  sync.Mutex
	evs []string
}

func (t *Trace) Add(ev string) {
	if t == nil {
		return
	}
	t.mu.Lock()
	t.evs = append(t.evs, ev)
	t.mu.Unlock()
}

func (t *Trace) Events() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.evs...)
}

// Index returns the position of the first ev, or -1.
func (t *Trace) Index(ev string) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	for i, e := range t.evs {
		if e == ev {
			return i
		}
	}
	return -1
}

// ----------------------------- GPIO ------------------------------------------

// FakePin implements InputPin, OutputPin and IRQPin for host-side tests.
// Set fires the registered handler synchronously when the configured edge
// is seen, like an ISR would.
type FakePin struct {
	Name  string
	Trace *Trace

	mu      sync.Mutex
	level   bool
	irqEdge Edge
	irqFunc func()
}

func NewFakePin(name string, level bool) *FakePin {
	return &FakePin{Name: name, level: level}
}

func (p *FakePin) Set(level bool) {
	p.mu.Lock()
	old := p.level
	p.level = level
	irq := p.irqFunc
	want := irqWanted(p.irqEdge, edgeFrom(old, level))
	p.mu.Unlock()
	if p.Name != "" {
		if level {
			p.Trace.Add(p.Name + ":high")
		} else {
			p.Trace.Add(p.Name + ":low")
		}
	}
	if want && irq != nil {
		irq()
	}
}

func (p *FakePin) Get() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.level
}

func (p *FakePin) SetIRQ(edge Edge, handler func()) error {
	p.mu.Lock()
	p.irqEdge = edge
	p.irqFunc = handler
	p.mu.Unlock()
	return nil
}

func (p *FakePin) ClearIRQ() error {
	p.mu.Lock()
	p.irqEdge = EdgeNone
	p.irqFunc = nil
	p.mu.Unlock()
	return nil
}

// Pulse drives the pin high for d, then low.
func (p *FakePin) Pulse(d time.Duration) {
	p.Set(true)
	time.Sleep(d)
	p.Set(false)
}

func edgeFrom(old, new bool) Edge {
	switch {
	case !old && new:
		return EdgeRising
	case old && !new:
		return EdgeFalling
	default:
		return EdgeNone
	}
}

func irqWanted(cfg, seen Edge) bool {
	switch cfg {
	case EdgeBoth:
		return seen == EdgeRising || seen == EdgeFalling
	default:
		return cfg != EdgeNone && cfg == seen
	}
}

// ----------------------------- ADC -------------------------------------------

// FakeADC returns Values in order, repeating the last one. FailAt > 0 makes
// the FailAt-th read (1-based) return an error.
type FakeADC struct {
	mu     sync.Mutex
	Values []uint16
	FailAt int
	reads  int
}

var ErrFakeADC = errors.New("fake adc: read failed")

func (a *FakeADC) Read() (uint16, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.reads++
	if a.FailAt > 0 && a.reads == a.FailAt {
		return 0, ErrFakeADC
	}
	if len(a.Values) == 0 {
		return 0, nil
	}
	i := a.reads - 1
	if i >= len(a.Values) {
		i = len(a.Values) - 1
	}
	return a.Values[i], nil
}

func (a *FakeADC) Reads() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reads
}

// ----------------------------- Flash -----------------------------------------

// MemFlash is an in-memory BlockDevice with NOR semantics.
type MemFlash struct {
	mu        sync.Mutex
	buf       []byte
	block     int64
	Erases    int
	Writes    int
	FailRead  bool
	FailWrite bool
}

var ErrFakeFlash = errors.New("fake flash: i/o error")

// NewMemFlash returns an erased device of size bytes with the given erase
// block size.
func NewMemFlash(size, block int64) *MemFlash {
	b := make([]byte, size)
	for i := range b {
		b[i] = 0xFF
	}
	return &MemFlash{buf: b, block: block}
}

func (f *MemFlash) Size() int64           { return int64(len(f.buf)) }
func (f *MemFlash) EraseBlockSize() int64 { return f.block }

func (f *MemFlash) ReadAt(p []byte, off int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailRead {
		return 0, ErrFakeFlash
	}
	if off < 0 || off+int64(len(p)) > int64(len(f.buf)) {
		return 0, errors.New("fake flash: out of range")
	}
	return copy(p, f.buf[off:]), nil
}

func (f *MemFlash) WriteAt(p []byte, off int64) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.FailWrite {
		return 0, ErrFakeFlash
	}
	if off < 0 || off+int64(len(p)) > int64(len(f.buf)) {
		return 0, errors.New("fake flash: out of range")
	}
	for i, b := range p {
		f.buf[off+int64(i)] &= b
	}
	f.Writes++
	return len(p), nil
}

func (f *MemFlash) EraseBlocks(start, length int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	lo, hi := start*f.block, (start+length)*f.block
	if lo < 0 || hi > int64(len(f.buf)) {
		return errors.New("fake flash: erase out of range")
	}
	for i := lo; i < hi; i++ {
		f.buf[i] = 0xFF
	}
	f.Erases++
	return nil
}

// Corrupt flips one byte at off.
func (f *MemFlash) Corrupt(off int64) {
	f.mu.Lock()
	f.buf[off] ^= 0x5A
	f.mu.Unlock()
}

// ----------------------------- RTC -------------------------------------------

// FakeRTC is a settable clock with a RAM byte and alarm bookkeeping.
// Calls are recorded on Trace as "rtc:<op>".
type FakeRTC struct {
	Trace *Trace

	mu       sync.Mutex
	now      time.Time
	Stopped  bool
	ram      byte
	RAMErr   error
	NowErr   error
	AlarmSec int // -1 when disabled
	Flag     bool
	Tick     time.Duration // added to the clock after every Now
	reads    int
}

func NewFakeRTC(now time.Time) *FakeRTC {
	return &FakeRTC{now: now, AlarmSec: -1}
}

func (r *FakeRTC) Now() (time.Time, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads++
	now := r.now
	r.now = r.now.Add(r.Tick)
	return now, r.NowErr
}

// Reads counts Now calls.
func (r *FakeRTC) Reads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.reads
}

func (r *FakeRTC) Set(t time.Time) error {
	r.mu.Lock()
	r.now = t
	r.Stopped = false
	r.mu.Unlock()
	r.Trace.Add("rtc:set")
	return nil
}

// Advance moves the clock forward.
func (r *FakeRTC) Advance(d time.Duration) {
	r.mu.Lock()
	r.now = r.now.Add(d)
	r.mu.Unlock()
}

func (r *FakeRTC) OscillatorStopped() (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.Stopped, nil
}

func (r *FakeRTC) DisableAlarms() error {
	r.mu.Lock()
	r.AlarmSec = -1
	r.mu.Unlock()
	r.Trace.Add("rtc:disable-alarms")
	return nil
}

func (r *FakeRTC) ClearAlarmFlag() error {
	r.mu.Lock()
	r.Flag = false
	r.mu.Unlock()
	r.Trace.Add("rtc:clear-flag")
	return nil
}

func (r *FakeRTC) ArmSecondAlarm(sec uint8) error {
	r.mu.Lock()
	r.AlarmSec = int(sec)
	r.mu.Unlock()
	r.Trace.Add("rtc:arm")
	return nil
}

func (r *FakeRTC) ReadRAM() (byte, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ram, r.RAMErr
}

func (r *FakeRTC) WriteRAM(b byte) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.RAMErr != nil {
		return r.RAMErr
	}
	r.ram = b
	return nil
}

// Alarm returns the armed second, or -1.
func (r *FakeRTC) Alarm() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.AlarmSec
}

// ----------------------------- PWM -------------------------------------------

// FakePWM records levels.
type FakePWM struct {
	mu     sync.Mutex
	Max    uint16
	levels []uint16
}

func (p *FakePWM) Top() uint16 {
	if p.Max == 0 {
		return 0xFFFF
	}
	return p.Max
}

func (p *FakePWM) Set(level uint16) {
	p.mu.Lock()
	p.levels = append(p.levels, level)
	p.mu.Unlock()
}

func (p *FakePWM) Levels() []uint16 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]uint16(nil), p.levels...)
}

// ----------------------------- Panel -----------------------------------------

// FakePanel is a recording Panel. Ops are also added to Trace as "panel:<op>".
type FakePanel struct {
	W, H  int16
	Trace *Trace
	Fail  error         // returned by Display and DisplayRect
	Delay time.Duration // simulated bus time for a commit

	mu    sync.Mutex
	ink   []bool
	ops   []string
	rects []string
	mode  PanelMode
}

func NewFakePanel(w, h int16) *FakePanel {
	return &FakePanel{W: w, H: h, ink: make([]bool, int(w)*int(h))}
}

func (p *FakePanel) Size() (int16, int16) { return p.W, p.H }

func (p *FakePanel) SetPixel(x, y int16, c color.RGBA) {
	if x < 0 || y < 0 || x >= p.W || y >= p.H {
		return
	}
	p.mu.Lock()
	p.ink[int(y)*int(p.W)+int(x)] = c.R == 0 && c.G == 0 && c.B == 0
	p.mu.Unlock()
}

func (p *FakePanel) Ink(x, y int16) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.ink[int(y)*int(p.W)+int(x)]
}

func (p *FakePanel) record(op string) {
	p.mu.Lock()
	p.ops = append(p.ops, op)
	p.mu.Unlock()
	p.Trace.Add("panel:" + op)
}

func (p *FakePanel) commit(op string) error {
	p.mu.Lock()
	op += ":" + p.mode.String()
	p.mu.Unlock()
	time.Sleep(p.Delay)
	p.record(op)
	return p.Fail
}

func (p *FakePanel) Display() error { return p.commit("display") }

func (p *FakePanel) DisplayRect(x, y, w, h int16) error {
	p.mu.Lock()
	p.rects = append(p.rects, fmtRect(x, y, w, h))
	p.mu.Unlock()
	return p.commit("rect")
}

func fmtRect(x, y, w, h int16) string {
	return fmtx.Sprintf("%d,%d,%d,%d", x, y, w, h)
}

// Rects returns the committed partial regions as "x,y,w,h".
func (p *FakePanel) Rects() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.rects...)
}

func (p *FakePanel) SetMode(m PanelMode) error {
	p.mu.Lock()
	p.mode = m
	p.mu.Unlock()
	return nil
}

func (p *FakePanel) Wake() error  { p.record("wake"); return nil }
func (p *FakePanel) Sleep() error { p.record("sleep"); return nil }

// Ops returns the recorded operations, e.g. "display:quality", "rect:fast".
func (p *FakePanel) Ops() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.ops...)
}
