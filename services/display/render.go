package display

import (
	"image"
	"image/color"

	"doorsign-go/services/state"
	"doorsign-go/types"
	"doorsign-go/x/fmtx"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
	"tinygo.org/x/tinyfont/freesans"
	"tinygo.org/x/tinyfont/proggy"
)

var (
	Ink   = color.RGBA{A: 0xFF}
	Paper = color.RGBA{R: 0xFF, G: 0xFF, B: 0xFF, A: 0xFF}
)

// HeaderHeight is the default height of the top bar in pixels.
const HeaderHeight = 24

const (
	batteryW = 22
	batteryH = 11
	margin   = 4
)

// Rect is a panel region.
type Rect struct{ X, Y, W, H int16 }

// Renderer draws the badge regions from the application context.
type Renderer struct {
	Images []image.Image
	Header int16
}

func (r *Renderer) header() int16 {
	if r.Header <= 0 {
		return HeaderHeight
	}
	return r.Header
}

func (r *Renderer) HeaderRect(d drivers.Displayer) Rect {
	w, _ := d.Size()
	return Rect{0, 0, w, r.header()}
}

func (r *Renderer) ImageRect(d drivers.Displayer) Rect {
	w, h := d.Size()
	return Rect{0, r.header(), w, h - r.header()}
}

// DrawHeader renders the label (or the cached weather), the clock and the
// battery icon.
func (r *Renderer) DrawHeader(d drivers.Displayer, app *state.App) {
	rc := r.HeaderRect(d)
	fill(d, rc, Paper)

	bx := rc.W - batteryW - margin - 2
	drawBattery(d, bx, (rc.H-batteryH)/2, app.Power.Get())

	clock := ClockText(app.Time.Get())
	cw, _ := tinyfont.LineWidth(&proggy.TinySZ8pt7b, clock)
	cx := bx - int16(cw) - margin
	tinyfont.WriteLine(d, &proggy.TinySZ8pt7b, cx, rc.H-8, clock, Ink)

	text := fitWidth(&freesans.Bold9pt7b, HeaderText(app), uint32(cx-2*margin))
	tinyfont.WriteLine(d, &freesans.Bold9pt7b, margin, rc.H-7, text, Ink)

	for x := int16(0); x < rc.W; x++ {
		d.SetPixel(x, rc.H-1, Ink)
	}
}

// DrawImage renders the current image and, beside a narrow image, the
// synced status details.
func (r *Renderer) DrawImage(d drivers.Displayer, app *state.App) {
	rc := r.ImageRect(d)
	fill(d, rc, Paper)
	if len(r.Images) == 0 {
		return
	}
	img := r.Images[app.Image.Get()%len(r.Images)]
	b := img.Bounds()
	x, y := rc.X, rc.Y
	wide := int16(b.Dx()) >= rc.W-20
	if !wide {
		x = rc.W - int16(b.Dx()) - 10
		y = rc.Y + 2
	}
	blit(d, img, x, y)
	if !wide {
		drawStatus(d, app.Status.Get(), rc.X+margin+2, rc.Y)
	}
}

// HeaderText is the label when set, else the weather summary, else empty.
func HeaderText(app *state.App) string {
	if l := app.Label.String(); l != "" {
		return l
	}
	w, ok := app.WeatherCopy()
	if !ok {
		return ""
	}
	return fmtx.Sprintf("%.0fC | %.0f%% %s", w.Temperature, w.RelativeHumidity, types.WeatherDescription(w.WeatherCode))
}

// ClockText formats a 12-hour clock as "h:MMA" or "h:MMP"; an untrusted or
// missing reading shows "--:--".
func ClockText(t state.TimeInfo) string {
	if !t.Valid || !t.Trusted {
		return "--:--"
	}
	return Clock12(t.Hour, t.Minute)
}

// Clock12 formats hour:minute on a 12-hour clock with an A/P suffix.
func Clock12(hour, minute uint8) string {
	suffix := "A"
	h := hour
	switch {
	case hour == 0:
		h = 12
	case hour == 12:
		suffix = "P"
	case hour > 12:
		h = hour - 12
		suffix = "P"
	}
	return fmtx.Sprintf("%d:%02d%s", h, minute, suffix)
}

func drawStatus(d drivers.Displayer, s types.StatusInfo, x, top int16) {
	if !s.Valid {
		return
	}
	tinyfont.WriteLine(d, &freesans.Bold9pt7b, x, top+24, s.Status.String(), Ink)
	tinyfont.WriteLine(d, &proggy.TinySZ8pt7b, x, top+44, "from "+Clock12(s.StartHour, s.StartMinute), Ink)
	if s.Duration > 0 {
		tinyfont.WriteLine(d, &proggy.TinySZ8pt7b, x, top+58, fmtx.Sprintf("for %d min", s.Duration), Ink)
	}
}

func drawBattery(d drivers.Displayer, x, y int16, ps types.PowerState) {
	outline(d, Rect{x, y, batteryW, batteryH})
	fill(d, Rect{x + batteryW, y + 3, 2, batteryH - 6}, Ink)
	switch ps.Source {
	case types.PowerBattery:
		for i := 0; i < ps.Level(); i++ {
			fill(d, Rect{x + 2 + int16(i)*4, y + 2, 3, batteryH - 4}, Ink)
		}
	case types.PowerUSB:
		// plug: a bolt-like bar through the body
		fill(d, Rect{x + 4, y + batteryH/2 - 1, batteryW - 8, 3}, Ink)
		fill(d, Rect{x + batteryW/2 - 1, y + 2, 3, batteryH - 4}, Ink)
	case types.PowerError, types.PowerUnknown:
		for i := int16(2); i < batteryH-2; i++ {
			d.SetPixel(x+batteryW/2-batteryH/2+i, y+i, Ink)
			d.SetPixel(x+batteryW/2+batteryH/2-i, y+i, Ink)
		}
	}
}

func fill(d drivers.Displayer, r Rect, c color.RGBA) {
	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			d.SetPixel(x, y, c)
		}
	}
}

func outline(d drivers.Displayer, r Rect) {
	for x := r.X; x < r.X+r.W; x++ {
		d.SetPixel(x, r.Y, Ink)
		d.SetPixel(x, r.Y+r.H-1, Ink)
	}
	for y := r.Y; y < r.Y+r.H; y++ {
		d.SetPixel(r.X, y, Ink)
		d.SetPixel(r.X+r.W-1, y, Ink)
	}
}

// blit thresholds img to ink/paper at (x, y).
func blit(d drivers.Displayer, img image.Image, x, y int16) {
	b := img.Bounds()
	for iy := b.Min.Y; iy < b.Max.Y; iy++ {
		for ix := b.Min.X; ix < b.Max.X; ix++ {
			c := Paper
			if color.GrayModel.Convert(img.At(ix, iy)).(color.Gray).Y < 0x80 {
				c = Ink
			}
			d.SetPixel(x+int16(ix-b.Min.X), y+int16(iy-b.Min.Y), c)
		}
	}
}

// fitWidth drops trailing runes until s fits max pixels.
func fitWidth(f tinyfont.Fonter, s string, max uint32) string {
	r := []rune(s)
	for len(r) > 0 {
		if w, _ := tinyfont.LineWidth(f, string(r)); w <= max {
			break
		}
		r = r[:len(r)-1]
	}
	return string(r)
}
