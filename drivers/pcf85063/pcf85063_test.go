package pcf85063

import (
	"errors"
	"testing"
	"time"
)

// regBus emulates the auto-incrementing register file of the chip.
type regBus struct {
	regs [0x12]byte
	fail bool
}

// newRegBus returns a register file holding the chip's reset values.
func newRegBus() *regBus {
	b := &regBus{}
	b.regs[regDays] = 0x01
	b.regs[regMonths] = 0x01
	return b
}

func (b *regBus) Tx(addr uint16, w, r []byte) error {
	if b.fail {
		return errors.New("nack")
	}
	if addr != Address || len(w) == 0 {
		return ErrProtocol
	}
	p := int(w[0])
	for _, v := range w[1:] {
		b.regs[p] = v
		p++
	}
	for i := range r {
		r[i] = b.regs[p]
		p++
	}
	return nil
}

func TestTimeRoundTrip(t *testing.T) {
	bus := newRegBus()
	d := New(bus)
	want := time.Date(2024, time.March, 9, 13, 5, 42, 0, time.UTC)
	if err := d.Set(want); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if bus.regs[regHours] != 0x13 || bus.regs[regMinutes] != 0x05 {
		t.Fatalf("BCD not written: h=%#x m=%#x", bus.regs[regHours], bus.regs[regMinutes])
	}
	got, err := d.Now()
	if err != nil {
		t.Fatalf("Now: %v", err)
	}
	if !got.Equal(want) {
		t.Fatalf("Now = %v, want %v", got, want)
	}
}

func TestOscillatorFlag(t *testing.T) {
	bus := newRegBus()
	d := New(bus)
	bus.regs[regSeconds] = secOSFlag | 0x12
	stopped, err := d.OscillatorStopped()
	if err != nil || !stopped {
		t.Fatalf("OscillatorStopped = %v,%v", stopped, err)
	}
	now, err := d.Now()
	if err != nil || now.Second() != 12 {
		t.Fatalf("OS flag must be masked from seconds: %v %v", now, err)
	}
	_ = d.Set(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	if stopped, _ := d.OscillatorStopped(); stopped {
		t.Fatal("Set should clear the OS flag")
	}
}

func TestAlarmSequence(t *testing.T) {
	bus := newRegBus()
	d := New(bus)
	bus.regs[regControl2] = ctrl2AF | ctrl2AIE

	if err := d.DisableAlarms(); err != nil {
		t.Fatal(err)
	}
	for r := regAlarmSec; r <= regAlarmWd; r++ {
		if bus.regs[r] != alarmOff {
			t.Fatalf("alarm reg %#x = %#x, want disabled", r, bus.regs[r])
		}
	}
	if bus.regs[regControl2]&ctrl2AIE != 0 {
		t.Fatal("interrupt should be disabled")
	}
	if err := d.ClearAlarmFlag(); err != nil {
		t.Fatal(err)
	}
	if bus.regs[regControl2]&ctrl2AF != 0 {
		t.Fatal("alarm flag not cleared")
	}
	if err := d.ArmSecondAlarm(0); err != nil {
		t.Fatal(err)
	}
	if bus.regs[regAlarmSec] != 0x00 || bus.regs[regControl2]&ctrl2AIE == 0 {
		t.Fatalf("alarm not armed: sec=%#x ctrl2=%#x", bus.regs[regAlarmSec], bus.regs[regControl2])
	}
	if err := d.ArmSecondAlarm(60); !errors.Is(err, ErrRange) {
		t.Fatalf("ArmSecondAlarm(60) = %v", err)
	}
}

func TestRAMAndConfigure(t *testing.T) {
	bus := newRegBus()
	d := New(bus)
	bus.regs[regControl1] = ctrl1Stop
	if err := d.Configure(); err != nil {
		t.Fatal(err)
	}
	if bus.regs[regControl1]&ctrl1Stop != 0 {
		t.Fatal("Configure should restart the oscillator")
	}
	if err := d.WriteRAM(7); err != nil {
		t.Fatal(err)
	}
	if b, err := d.ReadRAM(); err != nil || b != 7 {
		t.Fatalf("ReadRAM = %d,%v", b, err)
	}
	bus.fail = true
	if _, err := d.ReadRAM(); err == nil {
		t.Fatal("expected bus error")
	}
}
