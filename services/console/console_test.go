package console

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"doorsign-go/services/state"
	"doorsign-go/types"
)

type fakeSink struct {
	writes, messages [][]byte
	weather          []string
}

func (f *fakeSink) HandleWrite(b []byte)   { f.writes = append(f.writes, b) }
func (f *fakeSink) HandleMessage(b []byte) { f.messages = append(f.messages, b) }
func (f *fakeSink) HandleWeather(doc []byte) error {
	if !bytes.HasPrefix(doc, []byte("{")) {
		return errors.New("bad json")
	}
	f.weather = append(f.weather, string(doc))
	return nil
}

type fakeClock struct{ set time.Time }

func (f *fakeClock) Set(t time.Time) error { f.set = t; return nil }

func newConsole() (*Console, *fakeSink, *fakeClock) {
	sink, clk := &fakeSink{}, &fakeClock{}
	return &Console{App: state.New(3, 1), Sink: sink, Clock: clk}, sink, clk
}

func TestExec(t *testing.T) {
	c, sink, clk := newConsole()
	c.App.Power.Set(types.Battery(42))

	cases := []struct{ in, want string }{
		{"", ""},
		{"press down", "ok"},
		{"press left", "err: unknown button left"},
		{"refresh topbar", "ok"},
		{"refresh shutdown", "err: unknown refresh shutdown"},
		{"status 010a001e0248", "ok"},
		{"status zz", "err: *"},
		{"message 00", "ok"},
		{`weather {"temperature": 3, "weathercode": 1}`, "ok"},
		{"weather nope", "err: bad json"},
		{"power", "battery 42%"},
		{"image", "1/3"},
		{"time", "unset"},
		{"time 2026-03-01T10:00:00Z", "ok"},
		{"time yesterday", "err: *"},
		{"bogus", "err: unknown command bogus (try help)"},
	}
	for _, tc := range cases {
		got := c.Exec(tc.in)
		if p, ok := strings.CutSuffix(tc.want, "*"); ok && strings.HasPrefix(got, p) {
			continue
		}
		if got != tc.want {
			t.Errorf("%q: got %q want %q", tc.in, got, tc.want)
		}
	}

	if b, ok := c.App.Presses.TryTake(); !ok || b != types.ButtonDown {
		t.Errorf("press = %v %v", b, ok)
	}
	if len(sink.writes) != 1 || len(sink.writes[0]) != 6 || len(sink.messages) != 1 {
		t.Errorf("sink = %+v", sink)
	}
	if len(sink.weather) != 1 || sink.weather[0] != `{"temperature": 3, "weathercode": 1}` {
		t.Errorf("weather = %q", sink.weather)
	}
	if !clk.set.Equal(time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)) {
		t.Errorf("clock = %v", clk.set)
	}
	if r, _ := c.App.Refreshes().TryTake(); r != types.RefreshTopBar {
		t.Errorf("refresh after time set = %v", r)
	}
}

func TestExecTimeShowsTrust(t *testing.T) {
	c, _, _ := newConsole()
	c.App.Time.Set(state.TimeInfo{Hour: 9, Minute: 5, Valid: true})
	if got := c.Exec("time"); got != "09:05 (untrusted)" {
		t.Fatalf("got %q", got)
	}
}

func TestExecRefreshAfterShutdown(t *testing.T) {
	c, _, _ := newConsole()
	c.App.RequestShutdown()
	if got := c.Exec("refresh full"); got != "err: shutting down" {
		t.Fatalf("got %q", got)
	}
}

func TestServe(t *testing.T) {
	c, _, _ := newConsole()
	var out bytes.Buffer
	in := "image\r\n" + strings.Repeat("x", MaxLine+10) + "\npress a\n"
	err := c.Serve(context.Background(), &ReaderPort{R: strings.NewReader(in), W: &out})
	if !errors.Is(err, io.EOF) {
		t.Fatalf("err = %v", err)
	}
	want := "1/3\r\nerr: line too long\r\nok\r\n"
	if out.String() != want {
		t.Fatalf("out = %q", out.String())
	}
	if b, ok := c.App.Presses.TryTake(); !ok || b != types.ButtonA {
		t.Fatalf("press = %v %v", b, ok)
	}
}

func TestServeStopsOnCancel(t *testing.T) {
	c, _, _ := newConsole()
	r, _ := io.Pipe()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- c.Serve(ctx, &ReaderPort{R: r, W: io.Discard}) }()
	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatal(err)
		}
	case <-time.After(time.Second):
		t.Fatal("Serve ignored cancellation")
	}
}
