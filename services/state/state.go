// Package state holds the application context shared by every service: the
// single-writer cells, the two last-write-wins mailboxes, the current image
// index and the display/power critical section. It is constructed once at
// boot and lives until power is cut.
package state

import (
	"sync"
	"sync/atomic"
	"unicode/utf8"

	"doorsign-go/types"
	"doorsign-go/x/mailbox"
	"doorsign-go/x/mathx"
)

// LabelCap bounds the status label in bytes.
const LabelCap = 64

// Cell is a mutex-guarded value. Critical sections are a copy in or out.
type Cell[T any] struct {
	mu sync.Mutex
	v  T
}

func (c *Cell[T]) Get() T {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.v
}

func (c *Cell[T]) Set(v T) {
	c.mu.Lock()
	c.v = v
	c.mu.Unlock()
}

// Label is a bounded text buffer replaced wholesale.
type Label struct {
	mu  sync.Mutex
	buf [LabelCap]byte
	n   int
}

// Set replaces the label, truncating at a rune boundary to fit LabelCap.
func (l *Label) Set(s string) {
	s = Truncate(s, LabelCap)
	l.mu.Lock()
	l.n = copy(l.buf[:], s)
	l.mu.Unlock()
}

func (l *Label) String() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return string(l.buf[:l.n])
}

// Truncate cuts s to at most max bytes without splitting a rune.
func Truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	for max > 0 && !utf8.RuneStart(s[max]) {
		max--
	}
	return s[:max]
}

// Image is the current image index, always in [0, Count()).
type Image struct {
	n int32
	v atomic.Int32
}

// NewImage returns an index over n images starting at start (clamped).
func NewImage(n, start int) *Image {
	if n < 1 {
		n = 1
	}
	im := &Image{n: int32(n)}
	im.v.Store(int32(mathx.Clamp(start, 0, n-1)))
	return im
}

func (im *Image) Count() int { return int(im.n) }
func (im *Image) Get() int   { return int(im.v.Load()) }

// Set stores i, clamped to the valid range.
func (im *Image) Set(i int) {
	im.v.Store(int32(mathx.Clamp(i, 0, int(im.n)-1)))
}

// Shift applies d with modulo wrap and returns the new index.
func (im *Image) Shift(d types.Shift) int {
	for {
		cur := im.v.Load()
		next := mathx.Wrap(cur, int32(d), im.n)
		if im.v.CompareAndSwap(cur, next) {
			return int(next)
		}
	}
}

func (im *Image) Next() int { return im.Shift(types.ShiftNext) }
func (im *Image) Prev() int { return im.Shift(types.ShiftPrev) }

// TimeInfo is the last clock reading shown in the header.
type TimeInfo struct {
	Hour, Minute uint8
	Valid        bool // a reading exists
	Trusted      bool // the oscillator ran continuously since it was set
}

// App is the process-wide application context.
type App struct {
	Power   Cell[types.PowerState]
	Weather Cell[*types.WeatherSnapshot]
	Status  Cell[types.StatusInfo]
	Time    Cell[TimeInfo]
	Label   Label
	Image   *Image

	// Presses carries debounced buttons to the router.
	Presses *mailbox.Box[types.Button]
	// SyncTrigger asks the sync gateway to (re)open a session.
	SyncTrigger *mailbox.Box[struct{}]

	// Section is the display/power critical section. A redraw holds it for the
	// whole bus transaction; shutdown must acquire it before cutting power.
	Section sync.Mutex

	refresh *mailbox.Box[types.Refresh]
	sealMu  sync.Mutex
	sealed  bool
}

// New builds the context for n images, starting at image start.
func New(n, start int) *App {
	return &App{
		Image:       NewImage(n, start),
		Presses:     mailbox.New[types.Button](),
		SyncTrigger: mailbox.New[struct{}](),
		refresh:     mailbox.New[types.Refresh](),
	}
}

// RequestRefresh publishes r, overwriting any pending request. It reports
// false once shutdown has been requested; the request is dropped.
func (a *App) RequestRefresh(r types.Refresh) bool {
	if r == types.RefreshShutdown {
		return a.RequestShutdown()
	}
	a.sealMu.Lock()
	defer a.sealMu.Unlock()
	if a.sealed {
		return false
	}
	a.refresh.Put(r)
	return true
}

// RequestShutdown publishes the terminal Shutdown request and seals the
// mailbox. Only the first call has an effect.
func (a *App) RequestShutdown() bool {
	a.sealMu.Lock()
	defer a.sealMu.Unlock()
	if a.sealed {
		return false
	}
	a.sealed = true
	a.refresh.Put(types.RefreshShutdown)
	return true
}

// ShuttingDown reports whether shutdown was requested.
func (a *App) ShuttingDown() bool {
	a.sealMu.Lock()
	defer a.sealMu.Unlock()
	return a.sealed
}

// Refreshes is the refresh mailbox; the display orchestrator is its only
// reader.
func (a *App) Refreshes() *mailbox.Box[types.Refresh] { return a.refresh }

// SetWeather stores a copy of w (nil clears the cache).
func (a *App) SetWeather(w *types.WeatherSnapshot) {
	if w == nil {
		a.Weather.Set(nil)
		return
	}
	c := *w
	a.Weather.Set(&c)
}

// WeatherCopy returns the cached snapshot by value.
func (a *App) WeatherCopy() (types.WeatherSnapshot, bool) {
	w := a.Weather.Get()
	if w == nil {
		return types.WeatherSnapshot{}, false
	}
	return *w, true
}
