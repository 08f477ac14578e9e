package state

import (
	"strings"
	"sync"
	"testing"

	"doorsign-go/types"
)

func TestImageWrap(t *testing.T) {
	for _, n := range []int{1, 2, 3, 7} {
		im := NewImage(n, 0)
		for i := 0; i < 3*n; i++ {
			before := im.Get()
			got := im.Next()
			if want := (before + 1) % n; got != want {
				t.Fatalf("n=%d Next(%d)=%d want %d", n, before, got, want)
			}
		}
		for i := 0; i < 3*n; i++ {
			before := im.Get()
			got := im.Prev()
			if want := (before - 1 + n) % n; got != want {
				t.Fatalf("n=%d Prev(%d)=%d want %d", n, before, got, want)
			}
			if got < 0 || got >= n {
				t.Fatalf("index %d out of range for n=%d", got, n)
			}
		}
	}
}

func TestImageSetClamps(t *testing.T) {
	im := NewImage(3, 9)
	if im.Get() != 2 {
		t.Fatalf("start clamp = %d", im.Get())
	}
	im.Set(-4)
	if im.Get() != 0 {
		t.Fatalf("Set(-4) = %d", im.Get())
	}
	if im.Shift(types.ShiftNone) != 0 {
		t.Fatal("ShiftNone should not move")
	}
}

func TestImageConcurrentShift(t *testing.T) {
	im := NewImage(5, 0)
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() { defer wg.Done(); im.Next() }()
	}
	wg.Wait()
	if im.Get() != 0 {
		t.Fatalf("50 nexts over 5 images should land on 0, got %d", im.Get())
	}
}

func TestLabelTruncatesOnRuneBoundary(t *testing.T) {
	var l Label
	l.Set(strings.Repeat("a", 63) + "é") // 65 bytes
	if got := l.String(); got != strings.Repeat("a", 63) {
		t.Fatalf("label = %q", got)
	}
	l.Set("short")
	if l.String() != "short" {
		t.Fatalf("label not replaced wholesale: %q", l.String())
	}
}

func TestShutdownSealsRefreshes(t *testing.T) {
	app := New(3, 0)
	app.RequestRefresh(types.RefreshImage)
	if !app.RequestShutdown() {
		t.Fatal("first shutdown should be accepted")
	}
	if app.RequestRefresh(types.RefreshFull) {
		t.Fatal("refresh after shutdown should be dropped")
	}
	if app.RequestShutdown() {
		t.Fatal("second shutdown should be dropped")
	}
	v, ok := app.Refreshes().TryTake()
	if !ok || v != types.RefreshShutdown {
		t.Fatalf("pending = %v,%v want shutdown", v, ok)
	}
	if _, ok := app.Refreshes().TryTake(); ok {
		t.Fatal("nothing may follow shutdown")
	}
}

func TestWeatherCopy(t *testing.T) {
	app := New(1, 0)
	if _, ok := app.WeatherCopy(); ok {
		t.Fatal("empty cache expected")
	}
	w := &types.WeatherSnapshot{Temperature: 20}
	app.SetWeather(w)
	w.Temperature = 99
	got, ok := app.WeatherCopy()
	if !ok || got.Temperature != 20 {
		t.Fatalf("cache aliased caller value: %+v", got)
	}
}
