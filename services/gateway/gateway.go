// Package gateway is the sync gateway: a thin adapter between a wireless
// transport and the application context. It validates inbound status and
// weather payloads, updates the shared cells and asks for a redraw.
package gateway

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"doorsign-go/errcode"
	"doorsign-go/services/state"
	"doorsign-go/types"
)

// Characteristic identifies which attribute an inbound write targeted.
type Characteristic uint8

const (
	CharStatus Characteristic = iota
	CharWeather
	CharMessage // data-channel message with a presence byte
)

// Transport is the wireless link. Start registers the attributes (once) and
// begins advertising; deliver may be called from interrupt context and must
// not be retained beyond the call.
type Transport interface {
	Start(name string, deliver func(c Characteristic, data []byte)) error
	Advertise() error
	Stop() error
}

type Saver interface {
	SaveApp(app *state.App) error
}

type Breather interface {
	Breathe(ctx context.Context)
}

type inbound struct {
	c    Characteristic
	data []byte
}

type Gateway struct {
	App       *state.App
	Transport Transport
	Store     Saver
	LED       Breather
	Name      string
	Log       *slog.Logger

	in    chan inbound
	drops uint32
}

func New(app *state.App, t Transport, store Saver, led Breather, name string, log *slog.Logger) *Gateway {
	if log == nil {
		log = slog.Default()
	}
	return &Gateway{
		App:       app,
		Transport: t,
		Store:     store,
		LED:       led,
		Name:      name,
		Log:       log,
		in:        make(chan inbound, 4),
	}
}

// Deliver hands an inbound write to the session loop without blocking.
func (g *Gateway) Deliver(c Characteristic, data []byte) {
	select {
	case g.in <- inbound{c: c, data: append([]byte(nil), data...)}:
	default:
		atomic.AddUint32(&g.drops, 1)
	}
}

// Drops reports inbound writes discarded because the loop was busy.
func (g *Gateway) Drops() uint32 { return atomic.LoadUint32(&g.drops) }

// HandleWrite applies a status payload. A decode failure replaces the label
// with the error text; either way a Full refresh is requested.
func (g *Gateway) HandleWrite(b []byte) {
	info, label, err := DecodeStatus(b)
	g.apply(info, label, err)
}

// HandleMessage applies a data-channel message (presence byte + payload).
func (g *Gateway) HandleMessage(b []byte) {
	info, label, err := DecodeMessage(b)
	g.apply(info, label, err)
}

func (g *Gateway) apply(info types.StatusInfo, label string, err error) {
	switch {
	case err == nil:
		g.App.Status.Set(info)
		g.App.Label.Set(label)
		g.Log.Info("sync:status", "status", info.Status.String(), "label", label)
	case errcode.Of(err) == ErrNoUpdate:
		g.App.Label.Set(NoUpdateLabel)
		g.Log.Info("sync:no-update")
	default:
		g.App.Label.Set(err.Error())
		g.Log.Warn("sync:bad-payload", "err", err)
	}
	g.App.RequestRefresh(types.RefreshFull)
}

// HandleWeather replaces the weather cache from a JSON document, persists it
// and redraws the header. A bad document leaves the cache untouched.
func (g *Gateway) HandleWeather(doc []byte) error {
	w, err := ParseWeather(doc)
	if err != nil {
		g.Log.Warn("sync:bad-weather", "err", err)
		return err
	}
	g.App.SetWeather(&w)
	if g.Store != nil {
		if err := g.Store.SaveApp(g.App); err != nil {
			g.Log.Warn("sync:save-failed", "err", err)
		}
	}
	g.App.RequestRefresh(types.RefreshTopBar)
	g.Log.Info("sync:weather", "temp", w.Temperature, "code", w.WeatherCode)
	return nil
}

func (g *Gateway) handle(in inbound) {
	switch in.c {
	case CharStatus:
		g.HandleWrite(in.data)
	case CharMessage:
		g.HandleMessage(in.data)
	case CharWeather:
		_ = g.HandleWeather(in.data)
	}
}

// Session brings the transport up, advertises and applies inbound writes
// until ctx ends or window elapses (window <= 0: no bound). A sync trigger
// while the session is open re-arms advertising.
func (g *Gateway) Session(ctx context.Context, window time.Duration) error {
	if window > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, window)
		defer cancel()
	}
	g.App.SyncTrigger.TryTake()
	if err := g.Transport.Start(g.Name, g.Deliver); err != nil {
		g.Log.Error("sync:transport-failed", "err", err)
		return errcode.Wrap(errcode.Unsupported, "sync.session", err)
	}
	defer g.Transport.Stop()
	g.Log.Info("sync:advertising", "name", g.Name, "window", window.String())

	var wg sync.WaitGroup
	if g.LED != nil {
		lctx, lcancel := context.WithCancel(ctx)
		defer func() { lcancel(); wg.Wait() }()
		wg.Add(1)
		go func() { defer wg.Done(); g.LED.Breathe(lctx) }()
	}

	for {
		select {
		case <-ctx.Done():
			g.Log.Info("sync:session-end")
			return nil
		case <-g.App.SyncTrigger.Notify():
			if _, ok := g.App.SyncTrigger.TryTake(); ok {
				if err := g.Transport.Advertise(); err != nil {
					g.Log.Warn("sync:advertise-failed", "err", err)
				}
			}
		case in := <-g.in:
			g.handle(in)
		}
	}
}
