// Package clock owns the real-time clock: wall time for the header, the
// image index kept in the RTC RAM byte and the wake alarm armed at shutdown.
package clock

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"doorsign-go/errcode"
	"doorsign-go/services/hal"
	"doorsign-go/services/state"
	"doorsign-go/types"
)

type Clock struct {
	mu     sync.Mutex
	rtc    hal.RTC
	app    *state.App
	offset time.Duration
	log    *slog.Logger
}

func New(rtc hal.RTC, app *state.App, offset time.Duration, log *slog.Logger) *Clock {
	if log == nil {
		log = slog.Default()
	}
	return &Clock{rtc: rtc, app: app, offset: offset, log: log}
}

// Sync reads the RTC into the app time cell and returns local time. A read
// failure leaves the cell invalid.
func (c *Clock) Sync() (time.Time, error) {
	c.mu.Lock()
	now, err := c.rtc.Now()
	var stopped bool
	if err == nil {
		stopped, err = c.rtc.OscillatorStopped()
	}
	c.mu.Unlock()
	if err != nil {
		c.app.Time.Set(state.TimeInfo{})
		c.log.Warn("clock:read-failed", "err", err)
		return time.Time{}, errcode.Wrap(errcode.Bus, "clock.sync", err)
	}
	local := now.Add(c.offset)
	c.app.Time.Set(state.TimeInfo{
		Hour:    uint8(local.Hour()),
		Minute:  uint8(local.Minute()),
		Valid:   true,
		Trusted: !stopped,
	})
	return local, nil
}

func (c *Clock) Trusted() bool {
	t := c.app.Time.Get()
	return t.Valid && t.Trusted
}

// Set writes UTC time to the RTC, which also clears the stopped flag.
func (c *Clock) Set(t time.Time) error {
	c.mu.Lock()
	err := c.rtc.Set(t.UTC())
	c.mu.Unlock()
	if err != nil {
		return errcode.Wrap(errcode.Bus, "clock.set", err)
	}
	_, err = c.Sync()
	return err
}

// LoadIndex returns the image index held in RTC RAM if it is below n.
func (c *Clock) LoadIndex(n int) (int, bool) {
	c.mu.Lock()
	b, err := c.rtc.ReadRAM()
	c.mu.Unlock()
	if err != nil || int(b) >= n {
		return 0, false
	}
	return int(b), true
}

func (c *Clock) StoreIndex(i int) error {
	if i < 0 || i > 0xFF {
		return errcode.New(errcode.InvalidParams, "clock.store_index", "index out of range")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return errcode.Wrap(errcode.Bus, "clock.store_index", c.rtc.WriteRAM(byte(i)))
}

// ArmWake disables and clears pending alarms, then arms a once-a-minute alarm
// on second. When the clock already sits on that second it first waits for
// the next whole second so the alarm does not fire immediately.
func (c *Clock) ArmWake(ctx context.Context, second uint8) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.rtc.DisableAlarms(); err != nil {
		return errcode.Wrap(errcode.Bus, "clock.arm", err)
	}
	if err := c.rtc.ClearAlarmFlag(); err != nil {
		return errcode.Wrap(errcode.Bus, "clock.arm", err)
	}
	if now, err := c.rtc.Now(); err == nil && now.Second() == int(second) {
		d := time.Second - time.Duration(now.Nanosecond())
		if !sleep(ctx, d) {
			return ctx.Err()
		}
	}
	if err := c.rtc.ArmSecondAlarm(second); err != nil {
		return errcode.Wrap(errcode.Bus, "clock.arm", err)
	}
	c.log.Info("clock:alarm-armed", "second", second)
	return nil
}

// Run re-syncs at each minute boundary and redraws the header until ctx ends
// or the app starts shutting down.
func (c *Clock) Run(ctx context.Context) {
	now, err := c.Sync()
	for {
		wait := time.Minute
		if err == nil {
			wait = untilMinute(now)
		}
		if !sleep(ctx, wait) {
			return
		}
		now, err = c.Sync()
		if !c.app.RequestRefresh(types.RefreshTopBar) {
			return
		}
	}
}

func untilMinute(t time.Time) time.Duration {
	d := t.Truncate(time.Minute).Add(time.Minute).Sub(t)
	if d <= 0 {
		d = time.Minute
	}
	return d
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
