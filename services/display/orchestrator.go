// Package display owns the e-paper panel: it is the only reader of the
// refresh mailbox and serialises every redraw against shutdown through the
// display/power critical section.
package display

import (
	"context"
	"log/slog"

	"doorsign-go/services/hal"
	"doorsign-go/services/state"
	"doorsign-go/types"

	"tinygo.org/x/drivers"
)

type Orchestrator struct {
	App    *state.App
	Panel  hal.Panel
	Render *Renderer
	Log    *slog.Logger

	awake bool
}

// Run serves refresh requests until Shutdown has been handled (nil) or ctx
// ends.
func (o *Orchestrator) Run(ctx context.Context) error {
	box := o.App.Refreshes()
	for {
		select {
		case <-box.Notify():
		case <-ctx.Done():
			return ctx.Err()
		}
		if o.step() {
			return nil
		}
	}
}

// step handles at most one pending request. The value is taken while the
// critical section is held, so an observer that sees the mailbox empty and
// then acquires the section knows the request was fully handled.
func (o *Orchestrator) step() (done bool) {
	o.App.Section.Lock()
	defer o.App.Section.Unlock()

	r, ok := o.App.Refreshes().TryTake()
	if !ok {
		return false
	}
	var err error
	switch r {
	case types.RefreshNone:
		return false
	case types.RefreshTopBar:
		err = o.partial(o.Render.HeaderRect(o.Panel), o.Render.DrawHeader)
	case types.RefreshImage:
		err = o.partial(o.Render.ImageRect(o.Panel), o.Render.DrawImage)
	case types.RefreshFull:
		err = o.full()
	case types.RefreshShutdown:
		if err := o.Panel.Sleep(); err != nil {
			o.log().Warn("display:sleep-failed", "err", err)
		}
		o.awake = false
		o.log().Info("display:shutdown")
		return true
	}
	if err != nil {
		// The next request is the retry.
		o.log().Warn("display:refresh-failed", "refresh", r.String(), "err", err)
		return false
	}
	o.log().Debug("display:refresh", "refresh", r.String())
	return false
}

func (o *Orchestrator) wake() error {
	if o.awake {
		return nil
	}
	if err := o.Panel.Wake(); err != nil {
		return err
	}
	o.awake = true
	return nil
}

func (o *Orchestrator) partial(rc Rect, draw func(d drivers.Displayer, app *state.App)) error {
	if err := o.wake(); err != nil {
		return err
	}
	draw(o.Panel, o.App)
	if err := o.Panel.SetMode(hal.ModeFast); err != nil {
		return err
	}
	return o.Panel.DisplayRect(rc.X, rc.Y, rc.W, rc.H)
}

func (o *Orchestrator) full() error {
	if err := o.wake(); err != nil {
		return err
	}
	o.Render.DrawHeader(o.Panel, o.App)
	o.Render.DrawImage(o.Panel, o.App)
	if err := o.Panel.SetMode(hal.ModeQuality); err != nil {
		return err
	}
	return o.Panel.Display()
}

// Flush blocks until every published refresh request has been consumed and
// the redraw (or shutdown) that consumed it has released the critical
// section.
func (o *Orchestrator) Flush(ctx context.Context) error {
	return Flush(ctx, o.App)
}

// Flush is the lifecycle join on the display: wait for the refresh mailbox to
// drain, then acquire and release the critical section.
func Flush(ctx context.Context, app *state.App) error {
	if err := app.Refreshes().Drained(ctx); err != nil {
		return err
	}
	app.Section.Lock()
	app.Section.Unlock()
	return nil
}

func (o *Orchestrator) log() *slog.Logger {
	if o.Log == nil {
		return slog.Default()
	}
	return o.Log
}
