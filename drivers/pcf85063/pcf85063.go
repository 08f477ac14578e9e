// Package pcf85063 provides a driver for the NXP PCF85063A real-time clock.
//
// Time is kept in 24-hour BCD registers. The chip has a single byte of
// battery-backed RAM and a one-shot alarm that matches on any combination
// of second, minute, hour, day and weekday; this driver only arms the
// seconds match, which fires once a minute.
//
// NOTE: I2C.Tx MUST perform a write followed by a repeated-start read when
// both w and r are provided.
package pcf85063

import (
	"errors"
	"time"

	"tinygo.org/x/drivers"
)

// I2C address (fixed).
const Address = 0x51

const (
	regControl1 = 0x00
	regControl2 = 0x01
	regOffset   = 0x02
	regRAM      = 0x03
	regSeconds  = 0x04
	regMinutes  = 0x05
	regHours    = 0x06
	regDays     = 0x07
	regWeekdays = 0x08
	regMonths   = 0x09
	regYears    = 0x0A
	regAlarmSec = 0x0B
	regAlarmWd  = 0x0F

	ctrl1Stop  = 1 << 5
	ctrl1H12   = 1 << 1
	ctrl2AIE   = 1 << 7
	ctrl2AF    = 1 << 6
	secOSFlag  = 1 << 7
	alarmOff   = 1 << 7 // AEN_x: 1 disables that match
	alarmCount = regAlarmWd - regAlarmSec + 1
)

var (
	ErrProtocol = errors.New("pcf85063: protocol error")
	ErrRange    = errors.New("pcf85063: time out of range")
)

// Device wraps an I2C connection to a PCF85063A.
type Device struct {
	bus     drivers.I2C
	Address uint16

	w [8]byte // reuse buffers to avoid allocations
	r [7]byte
}

// New creates a Device. The bus must already be configured; the chip is not
// touched until Configure.
func New(bus drivers.I2C) Device {
	return Device{bus: bus, Address: Address}
}

// Configure starts the oscillator if it was stopped and selects 24-hour mode.
// Time and RAM contents are preserved.
func (d *Device) Configure() error {
	c, err := d.readReg(regControl1)
	if err != nil {
		return err
	}
	if c&(ctrl1Stop|ctrl1H12) == 0 {
		return nil
	}
	return d.writeReg(regControl1, c&^(ctrl1Stop|ctrl1H12))
}

// Now reads the current time. The chip counts years 2000..2099 and has no
// time zone; the result is in UTC.
func (d *Device) Now() (time.Time, error) {
	d.w[0] = regSeconds
	r := d.r[:7]
	if err := d.bus.Tx(d.Address, d.w[:1], r); err != nil {
		return time.Time{}, err
	}
	sec := fromBCD(r[0] & 0x7F)
	min := fromBCD(r[1] & 0x7F)
	hour := fromBCD(r[2] & 0x3F)
	day := fromBCD(r[3] & 0x3F)
	month := fromBCD(r[5] & 0x1F)
	year := 2000 + int(fromBCD(r[6]))
	if sec > 59 || min > 59 || hour > 23 || day < 1 || day > 31 || month < 1 || month > 12 {
		return time.Time{}, ErrProtocol
	}
	return time.Date(year, time.Month(month), int(day), int(hour), int(min), int(sec), 0, time.UTC), nil
}

// Set writes t (converted to UTC) and clears the oscillator-stop flag.
func (d *Device) Set(t time.Time) error {
	t = t.UTC()
	if t.Year() < 2000 || t.Year() > 2099 {
		return ErrRange
	}
	d.w[0] = regSeconds
	d.w[1] = toBCD(uint8(t.Second())) // OS flag cleared by writing 0
	d.w[2] = toBCD(uint8(t.Minute()))
	d.w[3] = toBCD(uint8(t.Hour()))
	d.w[4] = toBCD(uint8(t.Day()))
	d.w[5] = uint8(t.Weekday())
	d.w[6] = toBCD(uint8(t.Month()))
	d.w[7] = toBCD(uint8(t.Year() - 2000))
	return d.bus.Tx(d.Address, d.w[:8], nil)
}

// OscillatorStopped reports whether the clock integrity flag is set, i.e. the
// oscillator stopped since time was last written.
func (d *Device) OscillatorStopped() (bool, error) {
	s, err := d.readReg(regSeconds)
	if err != nil {
		return false, err
	}
	return s&secOSFlag != 0, nil
}

// DisableAlarms turns off every alarm match and the alarm interrupt.
func (d *Device) DisableAlarms() error {
	d.w[0] = regAlarmSec
	for i := 1; i <= alarmCount; i++ {
		d.w[i] = alarmOff
	}
	if err := d.bus.Tx(d.Address, d.w[:1+alarmCount], nil); err != nil {
		return err
	}
	return d.updateReg(regControl2, ctrl2AIE, 0)
}

// ClearAlarmFlag acknowledges a fired alarm, releasing the INT line.
func (d *Device) ClearAlarmFlag() error {
	return d.updateReg(regControl2, ctrl2AF, 0)
}

// ArmSecondAlarm enables the seconds match at sec and the alarm interrupt.
func (d *Device) ArmSecondAlarm(sec uint8) error {
	if sec > 59 {
		return ErrRange
	}
	if err := d.writeReg(regAlarmSec, toBCD(sec)); err != nil {
		return err
	}
	return d.updateReg(regControl2, ctrl2AIE|ctrl2AF, ctrl2AIE)
}

// ReadRAM returns the battery-backed RAM byte.
func (d *Device) ReadRAM() (byte, error) { return d.readReg(regRAM) }

// WriteRAM stores b in the battery-backed RAM byte.
func (d *Device) WriteRAM(b byte) error { return d.writeReg(regRAM, b) }

func (d *Device) readReg(reg byte) (byte, error) {
	d.w[0] = reg
	if err := d.bus.Tx(d.Address, d.w[:1], d.r[:1]); err != nil {
		return 0, err
	}
	return d.r[0], nil
}

func (d *Device) writeReg(reg, v byte) error {
	d.w[0] = reg
	d.w[1] = v
	return d.bus.Tx(d.Address, d.w[:2], nil)
}

// updateReg replaces the bits in mask with val.
func (d *Device) updateReg(reg, mask, val byte) error {
	c, err := d.readReg(reg)
	if err != nil {
		return err
	}
	return d.writeReg(reg, c&^mask|val&mask)
}

func toBCD(v uint8) uint8   { return (v/10)<<4 | v%10 }
func fromBCD(b uint8) uint8 { return (b>>4)*10 + b&0x0F }
