// Package led drives the user LED for press acknowledgement and the
// breathing pattern shown while a wireless session is open.
package led

import (
	"context"
	"sync"
	"time"

	"doorsign-go/services/hal"
	"doorsign-go/x/ramp"
)

const (
	breathePeriodMs = 2000
	breatheSteps    = 50
)

type LED struct {
	pwm   hal.PWM
	blink time.Duration

	mu sync.Mutex
}

// New returns an LED on pwm with the given blink on/off time. The LED is
// switched off.
func New(pwm hal.PWM, blink time.Duration) *LED {
	l := &LED{pwm: pwm, blink: blink}
	pwm.Set(0)
	return l
}

// Blink flashes the LED n times at full brightness. It returns when done or
// when ctx ends, leaving the LED off.
func (l *LED) Blink(ctx context.Context, n int) {
	l.mu.Lock()
	defer l.mu.Unlock()
	defer l.pwm.Set(0)
	for i := 0; i < n; i++ {
		l.pwm.Set(l.pwm.Top())
		if !wait(ctx, l.blink) {
			return
		}
		l.pwm.Set(0)
		if !wait(ctx, l.blink) {
			return
		}
	}
}

// Breathe fades the LED up and down until ctx ends. Blinks may interleave.
func (l *LED) Breathe(ctx context.Context) {
	ramp.Breathe(l.pwm.Top(), breathePeriodMs, breatheSteps,
		func(d time.Duration) bool { return wait(ctx, d) },
		func(level uint16) {
			l.mu.Lock()
			l.pwm.Set(level)
			l.mu.Unlock()
		})
}

func wait(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
