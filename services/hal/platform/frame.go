package platform

// window is a rectangle in a panel's native frame.
type window struct{ X, Y, W, H int16 }

// frame270 mirrors a 1-bit UC8151 frame in the controller's native
// (portrait) layout while callers address it in landscape, as
// drivers.Rotation270 does: logical (x, y) lands on native (y, h-1-x).
// Rows are w/8 bytes, MSB first.
type frame270 struct {
	w, h int16
	buf  []byte
}

func newFrame270(w, h int16) *frame270 {
	f := &frame270{w: w, h: h, buf: make([]byte, int(w)*int(h)/8)}
	f.reset()
	return f
}

// reset matches the driver's freshly configured buffer.
func (f *frame270) reset() {
	for i := range f.buf {
		f.buf[i] = 0xFF
	}
}

// Size is the logical (landscape) size.
func (f *frame270) Size() (int16, int16) { return f.h, f.w }

func (f *frame270) set(x, y int16, on bool) {
	nx, ny := y, f.h-1-x
	if nx < 0 || nx >= f.w || ny < 0 || ny >= f.h {
		return
	}
	i := int(nx)/8 + int(ny)*int(f.w/8)
	if on {
		f.buf[i] |= 0x80 >> uint8(nx%8)
	} else {
		f.buf[i] &^= 0x80 >> uint8(nx%8)
	}
}

// window maps a logical rectangle to the native one covering it. The
// native x span is widened to whole bytes, as the partial-window command
// requires. ok is false when nothing of the rectangle is on the panel.
func (f *frame270) window(x, y, w, h int16) (win window, ok bool) {
	lw, lh := f.Size()
	x0, y0 := max(x, 0), max(y, 0)
	x1, y1 := min(x+w, lw), min(y+h, lh)
	if x0 >= x1 || y0 >= y1 {
		return window{}, false
	}
	nx0 := y0 &^ 7
	nx1 := min((y1+7)&^7, f.w)
	ny0 := f.h - x1
	ny1 := f.h - x0
	return window{X: nx0, Y: ny0, W: nx1 - nx0, H: ny1 - ny0}, true
}

// row returns the bytes of native row ny that fall inside win.
func (f *frame270) row(win window, ny int16) []byte {
	stride := int(f.w / 8)
	off := int(ny)*stride + int(win.X/8)
	return f.buf[off : off+int(win.W/8)]
}
