package gateway

import (
	"context"
	"sync"
	"testing"
	"time"

	"doorsign-go/services/state"
	"doorsign-go/types"
)

type fakeTransport struct {
	mu         sync.Mutex
	deliver    func(Characteristic, []byte)
	name       string
	starts     int
	advertises int
	stops      int
	started    chan struct{}
}

func newFakeTransport() *fakeTransport { return &fakeTransport{started: make(chan struct{}, 1)} }

func (f *fakeTransport) Start(name string, deliver func(Characteristic, []byte)) error {
	f.mu.Lock()
	f.name, f.deliver = name, deliver
	f.starts++
	f.mu.Unlock()
	f.started <- struct{}{}
	return nil
}

func (f *fakeTransport) Advertise() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.advertises++
	return nil
}

func (f *fakeTransport) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return nil
}

func (f *fakeTransport) counts() (int, int, int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.starts, f.advertises, f.stops
}

type fakeSaver struct{ n int }

func (s *fakeSaver) SaveApp(*state.App) error { s.n++; return nil }

type fakeBreather struct {
	mu      sync.Mutex
	running bool
	ran     bool
}

func (b *fakeBreather) Breathe(ctx context.Context) {
	b.mu.Lock()
	b.running, b.ran = true, true
	b.mu.Unlock()
	<-ctx.Done()
	b.mu.Lock()
	b.running = false
	b.mu.Unlock()
}

func takeRefresh(t *testing.T, app *state.App) types.Refresh {
	t.Helper()
	r, ok := app.Refreshes().TryTake()
	if !ok {
		t.Fatal("no refresh requested")
	}
	return r
}

func TestGarbageWriteShowsErrorAndRefreshes(t *testing.T) {
	app := state.New(3, 0)
	app.Status.Set(types.StatusInfo{Valid: true, Status: types.StatusFree})
	g := New(app, newFakeTransport(), nil, nil, "DoorSign", nil)

	g.HandleWrite([]byte{0xff})
	if app.Label.String() == "" {
		t.Fatal("label not replaced with the error")
	}
	if st := app.Status.Get(); st.Status != types.StatusFree {
		t.Fatalf("status changed on bad payload: %+v", st)
	}
	if r := takeRefresh(t, app); r != types.RefreshFull {
		t.Fatalf("refresh = %v", r)
	}
}

func TestValidWriteUpdatesStatus(t *testing.T) {
	app := state.New(3, 0)
	g := New(app, newFakeTransport(), nil, nil, "DoorSign", nil)
	g.HandleWrite(EncodeStatus(types.StatusInfo{Status: types.StatusBusy, StartHour: 9, Duration: 60}, "Standup"))

	if st := app.Status.Get(); !st.Valid || st.Status != types.StatusBusy || st.Duration != 60 {
		t.Fatalf("status = %+v", st)
	}
	if app.Label.String() != "Standup" {
		t.Fatalf("label = %q", app.Label.String())
	}
	if r := takeRefresh(t, app); r != types.RefreshFull {
		t.Fatalf("refresh = %v", r)
	}
}

func TestMessageWithoutUpdate(t *testing.T) {
	app := state.New(3, 0)
	g := New(app, newFakeTransport(), nil, nil, "DoorSign", nil)
	g.HandleMessage([]byte{0})
	if app.Label.String() != NoUpdateLabel {
		t.Fatalf("label = %q", app.Label.String())
	}
	if r := takeRefresh(t, app); r != types.RefreshFull {
		t.Fatalf("refresh = %v", r)
	}
}

func TestWeatherUpdatesCacheAndPersists(t *testing.T) {
	app := state.New(3, 0)
	saver := &fakeSaver{}
	g := New(app, newFakeTransport(), saver, nil, "DoorSign", nil)

	if err := g.HandleWeather([]byte(`{"temperature":18,"weathercode":61}`)); err != nil {
		t.Fatal(err)
	}
	w, ok := app.WeatherCopy()
	if !ok || w.Temperature != 18 || w.WeatherCode != 61 {
		t.Fatalf("weather = %+v %v", w, ok)
	}
	if saver.n != 1 {
		t.Fatalf("saves = %d", saver.n)
	}
	if r := takeRefresh(t, app); r != types.RefreshTopBar {
		t.Fatalf("refresh = %v", r)
	}

	if err := g.HandleWeather([]byte(`nope`)); err == nil {
		t.Fatal("bad weather accepted")
	}
	if app.Refreshes().Pending() || saver.n != 1 {
		t.Fatal("bad weather touched state")
	}
}

func TestSessionAppliesWritesAndStops(t *testing.T) {
	app := state.New(3, 0)
	tr := newFakeTransport()
	led := &fakeBreather{}
	g := New(app, tr, nil, led, "DoorSign", nil)
	app.SyncTrigger.Put(struct{}{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- g.Session(ctx, time.Second) }()

	<-tr.started
	if app.SyncTrigger.Pending() {
		t.Fatal("trigger pending at session start")
	}
	tr.deliver(CharStatus, EncodeStatus(types.StatusInfo{Status: types.StatusFocus}, "Focus"))
	deadline := time.Now().Add(time.Second)
	for app.Label.String() != "Focus" {
		if time.Now().After(deadline) {
			t.Fatal("write not applied")
		}
		time.Sleep(time.Millisecond)
	}

	app.SyncTrigger.Put(struct{}{})
	for {
		if _, adv, _ := tr.counts(); adv == 1 {
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("trigger did not re-arm advertising")
		}
		time.Sleep(time.Millisecond)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if s, _, stops := tr.counts(); s != 1 || stops != 1 {
		t.Fatalf("starts=%d stops=%d", s, stops)
	}
	led.mu.Lock()
	defer led.mu.Unlock()
	if !led.ran || led.running {
		t.Fatalf("breathe ran=%v running=%v after session", led.ran, led.running)
	}
}

func TestSessionWindowBounds(t *testing.T) {
	app := state.New(3, 0)
	tr := newFakeTransport()
	g := New(app, tr, nil, nil, "DoorSign", nil)
	start := time.Now()
	if err := g.Session(context.Background(), 20*time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if time.Since(start) > 500*time.Millisecond {
		t.Fatal("session outlived its window")
	}
}

func TestDeliverDropsWhenFull(t *testing.T) {
	g := New(state.New(3, 0), newFakeTransport(), nil, nil, "DoorSign", nil)
	for i := 0; i < 10; i++ {
		g.Deliver(CharStatus, []byte{1})
	}
	if g.Drops() != 6 {
		t.Fatalf("drops = %d", g.Drops())
	}
}
