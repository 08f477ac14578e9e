package platform

import "testing"

func TestFrameWindows(t *testing.T) {
	f := newFrame270(128, 296)
	if w, h := f.Size(); w != 296 || h != 128 {
		t.Fatalf("logical size = %dx%d", w, h)
	}
	cases := []struct {
		name       string
		x, y, w, h int16
		want       window
		ok         bool
	}{
		{"header", 0, 0, 296, 24, window{X: 0, Y: 0, W: 24, H: 296}, true},
		{"image", 0, 24, 296, 104, window{X: 24, Y: 0, W: 104, H: 296}, true},
		{"unaligned", 10, 3, 20, 10, window{X: 0, Y: 266, W: 16, H: 20}, true},
		{"right edge", 290, 120, 20, 20, window{X: 120, Y: 0, W: 8, H: 6}, true},
		{"off panel", 300, 0, 10, 10, window{}, false},
		{"empty", 5, 5, 0, 4, window{}, false},
	}
	for _, c := range cases {
		got, ok := f.window(c.x, c.y, c.w, c.h)
		if ok != c.ok || got != c.want {
			t.Errorf("%s: window = %+v, %v; want %+v, %v", c.name, got, ok, c.want, c.ok)
		}
	}
}

func TestFramePixelLandsInItsWindow(t *testing.T) {
	f := newFrame270(128, 296)
	f.set(0, 0, false)
	if f.buf[295*16]&0x80 != 0 {
		t.Fatalf("logical (0,0) must map to native (0,295)")
	}
	f.set(100, 30, false)
	win, ok := f.window(96, 24, 8, 16)
	if !ok {
		t.Fatal("window must be on panel")
	}
	ny := int16(296 - 1 - 100)
	if ny < win.Y || ny >= win.Y+win.H {
		t.Fatalf("row %d outside window %+v", ny, win)
	}
	row := f.row(win, ny)
	if len(row) != int(win.W/8) {
		t.Fatalf("row len = %d", len(row))
	}
	// native x 30 is bit 6 of the byte covering 24..31
	if row[(30-win.X)/8]&(0x80>>(30%8)) != 0 {
		t.Fatalf("pixel not cleared in row bytes: %08b", row)
	}
	f.set(100, 30, true)
	if row[(30-win.X)/8]&(0x80>>(30%8)) == 0 {
		t.Fatal("pixel not set")
	}
}
