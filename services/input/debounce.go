// Package input turns raw button edges into debounced presses and routes
// each press to its action.
package input

import (
	"context"
	"log/slog"
	"time"

	"doorsign-go/services/hal"
	"doorsign-go/types"
	"doorsign-go/x/mailbox"
)

// Debouncer watches one button. A press is published when the line is still
// high Settle after a rising edge; the falling edge is not debounced.
type Debouncer struct {
	Button types.Button
	Pin    hal.IRQPin
	Settle time.Duration
	Log    *slog.Logger
}

// Run publishes presses until ctx ends.
func (d *Debouncer) Run(ctx context.Context, presses *mailbox.Box[types.Button]) error {
	w, err := hal.NewEdgeWaiter(d.Pin)
	if err != nil {
		return err
	}
	defer w.Close()

	for {
		// Released first, so every press starts from a rising edge.
		if err := w.WaitLow(ctx); err != nil {
			return err
		}
		if err := w.WaitHigh(ctx); err != nil {
			return err
		}
		if !sleep(ctx, d.Settle) {
			return ctx.Err()
		}
		if !w.Level() {
			continue
		}
		if presses.Put(d.Button) && d.Log != nil {
			d.Log.Debug("input:press-overwritten", "button", d.Button.String())
		}
	}
}

func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
