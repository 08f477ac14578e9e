package input

import (
	"context"
	"log/slog"

	"doorsign-go/services/state"
	"doorsign-go/types"
)

// AckBlinks is the LED acknowledgement for a user-visible change.
const AckBlinks = 1

type Blinker interface {
	Blink(ctx context.Context, n int)
}

type Saver interface {
	SaveApp(app *state.App) error
}

// IndexStorer keeps the image index where the next wake reads it first.
type IndexStorer interface {
	StoreIndex(i int) error
}

// Router is the single consumer of the press mailbox. Every side effect of a
// dispatch completes before the next press is taken.
type Router struct {
	App   *state.App
	LED   Blinker
	Store Saver
	Index IndexStorer // optional
	Log   *slog.Logger
}

// Run dispatches presses until ctx ends.
func (r *Router) Run(ctx context.Context) error {
	for {
		b, err := r.App.Presses.Take(ctx)
		if err != nil {
			return err
		}
		r.Dispatch(ctx, b)
	}
}

// Dispatch performs the action bound to b.
func (r *Router) Dispatch(ctx context.Context, b types.Button) {
	switch b {
	case types.ButtonA:
		r.App.SyncTrigger.Put(struct{}{})
	case types.ButtonB:
		r.LED.Blink(ctx, AckBlinks)
		r.App.RequestRefresh(types.RefreshFull)
	case types.ButtonC:
		// reserved
	case types.ButtonDown:
		r.LED.Blink(ctx, AckBlinks)
		r.cycle(types.ShiftNext)
	case types.ButtonUp:
		r.LED.Blink(ctx, AckBlinks)
		r.cycle(types.ShiftPrev)
	}
	r.log().Info("input:dispatched", "button", b.String(), "image", r.App.Image.Get())
}

func (r *Router) cycle(d types.Shift) {
	i := r.App.Image.Shift(d)
	if r.Index != nil {
		if err := r.Index.StoreIndex(i); err != nil {
			r.log().Warn("input:index-store-failed", "err", err)
		}
	}
	if err := r.Store.SaveApp(r.App); err != nil {
		r.log().Warn("input:save-failed", "err", err)
	}
	r.App.RequestRefresh(types.RefreshImage)
}

func (r *Router) log() *slog.Logger {
	if r.Log == nil {
		return slog.Default()
	}
	return r.Log
}
