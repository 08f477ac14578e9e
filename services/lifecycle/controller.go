// Package lifecycle sequences a wake: it latches power, decides why the
// board woke, brings up the services the power source allows and, on
// battery, walks the shutdown sequence back to power-off.
package lifecycle

import (
	"context"
	"image"
	"log/slog"
	"sync"
	"time"

	"doorsign-go/services/clock"
	"doorsign-go/services/config"
	"doorsign-go/services/console"
	"doorsign-go/services/display"
	"doorsign-go/services/gateway"
	"doorsign-go/services/hal"
	"doorsign-go/services/input"
	"doorsign-go/services/led"
	"doorsign-go/services/power"
	"doorsign-go/services/state"
	"doorsign-go/services/store"
	"doorsign-go/types"
)

// Hardware is everything a board profile provides. Optional parts may be nil.
type Hardware struct {
	Latch        hal.OutputPin
	DisplayReset hal.OutputPin
	Buttons      [len(types.Buttons)]hal.IRQPin // indexed by types.Button
	RTCAlarm     hal.InputPin
	ADC          hal.ADC
	Flash        hal.BlockDevice
	RTC          hal.RTC
	LED          hal.PWM
	Panel        hal.Panel
	Transport    gateway.Transport // optional
	Console      console.Port      // optional
	Halt         func()            // never returns on hardware
}

// ImageSource decodes the image set. It runs after the latch is held.
type ImageSource func() ([]image.Image, error)

type Controller struct {
	HW     Hardware
	Cfg    config.Config
	Source ImageSource
	Images []image.Image
	Log    *slog.Logger

	App   *state.App
	Wake  Wake
	Mains bool

	led   *led.LED
	store *store.Store
	clock *clock.Clock
	gw    *gateway.Gateway
	tasks sync.WaitGroup
}

func New(hw Hardware, cfg config.Config, images ImageSource, log *slog.Logger) *Controller {
	if log == nil {
		log = slog.Default()
	}
	return &Controller{
		HW:     hw,
		Cfg:    cfg,
		Source: images,
		Log:    log,
		App:    state.New(cfg.Images, 0),
	}
}

// Run executes one wake. On battery it ends in Shutdown; on mains it serves
// until ctx ends.
func (c *Controller) Run(ctx context.Context) error {
	// 1-2: keep the board powered and hold the panel in reset.
	c.HW.Latch.Set(true)
	c.HW.DisplayReset.Set(false)
	c.loadImages()

	// 3
	pc := power.Classifier{ADC: c.HW.ADC, Cfg: c.Cfg.ADC, Log: c.svc("power")}
	c.Mains = pc.Run(ctx, c.App).Mains()

	// 4
	c.Wake = c.wakeCause(ctx)

	// 5
	c.led = led.New(c.HW.LED, c.Cfg.Blink)
	c.store = store.New(c.HW.Flash, store.DefaultScratch, c.svc("store"))
	rec := c.store.Load()
	if rec.Weather != nil {
		c.App.SetWeather(rec.Weather)
	}
	c.clock = clock.New(c.HW.RTC, c.App, c.Cfg.UTCOffset, c.svc("clock"))
	if now, err := c.clock.Sync(); err == nil {
		c.Wake = c.Wake.AtMinute(now.Minute())
	}
	c.restoreIndex(rec)

	c.gw = gateway.New(c.App, c.HW.Transport, c.store, c.led, c.Cfg.Name, c.svc("sync"))
	button := "-"
	if c.Wake.Reason == ReasonButton {
		button = c.Wake.Button.String()
	}
	c.Log.Info("lifecycle:wake",
		"reason", c.Wake.Reason.String(),
		"button", button,
		"refresh", c.Wake.Refresh.String(),
		"sync", c.Wake.Sync,
		"mains", c.Mains,
		"image", c.App.Image.Get(),
	)

	// 6
	if c.Mains {
		c.spawnMains(ctx)
	}

	// 7
	orch := &display.Orchestrator{
		App:    c.App,
		Panel:  c.HW.Panel,
		Render: &display.Renderer{Images: c.Images},
		Log:    c.svc("display"),
	}
	c.spawn(func() { orch.Run(ctx) })
	if c.Mains {
		c.App.RequestRefresh(types.RefreshFull)
	}

	// 8: the first redraw finishes before the radio comes up.
	var join sync.WaitGroup
	join.Add(1)
	go func() { defer join.Done(); c.led.Blink(ctx, 1) }()
	err := display.Flush(ctx, c.App)
	join.Wait()
	if err != nil {
		return err
	}

	// 9
	if c.Wake.Sync || c.Mains {
		c.sync(ctx)
	}
	if c.Mains {
		<-ctx.Done()
		c.tasks.Wait()
		return ctx.Err()
	}

	// 10
	if err := display.Flush(ctx, c.App); err != nil {
		return err
	}
	c.App.RequestRefresh(c.Wake.Refresh)
	if !sleep(ctx, c.Cfg.Settle) {
		return ctx.Err()
	}
	return c.Shutdown(ctx)
}

func (c *Controller) loadImages() {
	if c.Source == nil {
		return
	}
	imgs, err := c.Source()
	if err != nil {
		// The header still works without images.
		c.Log.Error("lifecycle:assets-failed", "err", err)
		return
	}
	c.Images = imgs
}

func (c *Controller) wakeCause(ctx context.Context) Wake {
	lines := make([]hal.InputPin, len(c.HW.Buttons))
	for i, p := range c.HW.Buttons {
		if p != nil {
			lines[i] = p
		}
	}
	w := WakeCause(lines, c.HW.RTCAlarm)
	if w.Reason == ReasonButton {
		if err := waitRelease(ctx, c.HW.Buttons[w.Button], c.Cfg.ReleaseTimeout); err != nil {
			c.Log.Warn("lifecycle:release-timeout", "button", w.Button.String(), "err", err)
		}
	}
	return w
}

// restoreIndex picks the image index from RTC RAM, then the persisted
// record, then 0; applies the wake shift and writes the result back.
func (c *Controller) restoreIndex(rec store.Record) {
	n := c.App.Image.Count()
	i, ok := c.clock.LoadIndex(n)
	if !ok {
		i = 0
		if rec.Image >= 0 && rec.Image < n {
			i = rec.Image
		}
	}
	c.App.Image.Set(i)
	c.App.Image.Shift(c.Wake.Shift)
	if err := c.clock.StoreIndex(c.App.Image.Get()); err != nil {
		c.Log.Warn("lifecycle:index-store-failed", "err", err)
	}
}

func (c *Controller) spawnMains(ctx context.Context) {
	in := c.svc("input")
	router := &input.Router{App: c.App, LED: c.led, Store: c.store, Index: c.clock, Log: in}
	c.spawn(func() { router.Run(ctx) })
	for _, b := range types.Buttons {
		pin := c.HW.Buttons[b]
		if pin == nil {
			continue
		}
		d := &input.Debouncer{Button: b, Pin: pin, Settle: c.Cfg.Debounce, Log: in}
		c.spawn(func() {
			if err := d.Run(ctx, c.App.Presses); err != nil && ctx.Err() == nil {
				c.Log.Error("input:debouncer-failed", "button", d.Button.String(), "err", err)
			}
		})
	}
	c.spawn(func() { c.clock.Run(ctx) })
	if c.HW.Console != nil {
		con := &console.Console{App: c.App, Sink: c.gw, Clock: c.clock, Log: c.svc("console")}
		c.spawn(func() {
			if err := con.Serve(ctx, c.HW.Console); err != nil {
				c.Log.Warn("console:closed", "err", err)
			}
		})
	}
}

// sync runs one gateway session: unbounded on mains, sync_window on battery.
func (c *Controller) sync(ctx context.Context) {
	if c.HW.Transport == nil {
		c.Log.Info("lifecycle:no-transport")
		return
	}
	window := c.Cfg.SyncWindow
	if c.Mains {
		window = 0
	}
	if err := c.gw.Session(ctx, window); err != nil {
		c.Log.Warn("lifecycle:sync-failed", "err", err)
	}
}

func (c *Controller) svc(name string) *slog.Logger { return c.Log.With("svc", name) }

func (c *Controller) spawn(f func()) {
	c.tasks.Add(1)
	go func() { defer c.tasks.Done(); f() }()
}

// Shutdown parks the panel, arms the next wake and releases the power latch.
// It does not return on hardware.
func (c *Controller) Shutdown(ctx context.Context) error {
	c.App.RequestShutdown()
	if err := display.Flush(ctx, c.App); err != nil {
		return err
	}
	if err := c.clock.ArmWake(ctx, c.Cfg.AlarmSecond); err != nil {
		c.Log.Warn("lifecycle:alarm-failed", "err", err)
	}
	if !sleep(ctx, c.Cfg.ShutdownDelay) {
		return ctx.Err()
	}
	c.Log.Info("lifecycle:power-off")
	c.HW.Latch.Set(false)
	if c.HW.Halt != nil {
		c.HW.Halt()
	}
	return nil
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
