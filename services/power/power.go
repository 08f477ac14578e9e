// Package power classifies the supply from the battery-sense ADC.
package power

import (
	"context"
	"log/slog"
	"time"

	"doorsign-go/services/config"
	"doorsign-go/services/hal"
	"doorsign-go/services/state"
	"doorsign-go/types"
	"doorsign-go/x/mathx"
)

// Thresholds in volts at the cell (after undoing the divider).
const (
	USBThreshold = 4.5
	EmptyVolts   = 3.1
	FullVolts    = 4.2
)

// Volts converts a raw conversion (or a mean of several) to cell volts.
func Volts(raw float32, c config.ADC) float32 {
	if c.FullScale == 0 {
		return 0
	}
	return raw / float32(c.FullScale) * c.RefV * c.Divider
}

// Classify maps cell volts to a PowerState. Above USBThreshold the board is
// on USB; otherwise volts are clamped to [EmptyVolts, FullVolts] and scaled
// to a truncated percentage.
func Classify(v float32) types.PowerState {
	if v > USBThreshold {
		return types.USBPower()
	}
	return types.Battery(uint8(mathx.Span(v, EmptyVolts, FullVolts, 100)))
}

// Classifier samples the ADC and classifies the mean.
type Classifier struct {
	ADC hal.ADC
	Cfg config.ADC
	Log *slog.Logger
}

// Measure takes Cfg.Samples readings Cfg.Interval apart. Any failed read
// short-circuits to PowerError; there are no retries.
func (c *Classifier) Measure(ctx context.Context) types.PowerState {
	n := mathx.Max(c.Cfg.Samples, 1)
	var sum float32
	for i := 0; i < n; i++ {
		if i > 0 && !sleep(ctx, c.Cfg.Interval) {
			return types.PowerFault()
		}
		raw, err := c.ADC.Read()
		if err != nil {
			c.log().Warn("power:adc-failed", "sample", i, "err", err)
			return types.PowerFault()
		}
		sum += float32(raw)
	}
	v := Volts(sum/float32(n), c.Cfg)
	ps := Classify(v)
	c.log().Info("power:classified", "volts", v, "source", ps.String(), "percent", ps.Percent)
	return ps
}

// Run measures once and writes the application power cell.
func (c *Classifier) Run(ctx context.Context, app *state.App) types.PowerState {
	ps := c.Measure(ctx)
	app.Power.Set(ps)
	return ps
}

func (c *Classifier) log() *slog.Logger {
	if c.Log == nil {
		return slog.Default()
	}
	return c.Log
}

func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
