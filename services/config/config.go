// Package config resolves the boot-time configuration for a device from the
// JSON documents embedded in the firmware. Configuration errors are the only
// fatal errors in the system; they surface before any peripheral is touched.
package config

import (
	"time"

	"doorsign-go/errcode"

	"github.com/andreyvit/tinyjson"
)

const op = "config"

// EmbeddedConfigLookup allows overriding how configs are resolved.
var EmbeddedConfigLookup = func(device string) ([]byte, bool) {
	b, ok := embeddedConfigs[device]
	return b, ok
}

// ADC scales raw battery-sense counts to volts.
type ADC struct {
	RefV      float32
	Divider   float32
	FullScale uint16
	Samples   int
	Interval  time.Duration
}

type Config struct {
	Name           string
	Images         int
	Debounce       time.Duration
	Settle         time.Duration
	SyncWindow     time.Duration
	ReleaseTimeout time.Duration
	Blink          time.Duration
	ShutdownDelay  time.Duration
	AlarmSecond    uint8
	UTCOffset      time.Duration
	ADC            ADC
}

// Defaults returns the configuration used for every key a document omits.
// assets is the number of embedded images.
func Defaults(assets int) Config {
	return Config{
		Images:         assets,
		Debounce:       50 * time.Millisecond,
		Settle:         3 * time.Second,
		SyncWindow:     60 * time.Second,
		ReleaseTimeout: 5 * time.Second,
		Blink:          100 * time.Millisecond,
		ShutdownDelay:  time.Second,
		ADC: ADC{
			RefV:      3.3,
			Divider:   3,
			FullScale: 65535,
			Samples:   10,
			Interval:  5 * time.Millisecond,
		},
	}
}

// Load resolves and parses the embedded document for device.
func Load(device string, assets int) (Config, error) {
	if device == "" {
		return Config{}, errcode.New(errcode.Config, op, "missing device id")
	}
	raw, ok := EmbeddedConfigLookup(device)
	if !ok || len(raw) == 0 {
		return Config{}, errcode.New(errcode.Config, op, "no embedded config for device: "+device)
	}
	return Parse(raw, assets)
}

// Parse decodes one JSON document over Defaults(assets) and validates it.
func Parse(raw []byte, assets int) (c Config, err error) {
	m, err := decodeObject(raw)
	if err != nil {
		return Config{}, err
	}
	c = Defaults(assets)
	p := parser{m: m}

	c.Name = p.str("name")
	c.Images = p.intIn("images", c.Images, 1, assets)
	c.Debounce = p.ms("debounce_ms", c.Debounce, 1, 1000)
	c.Settle = p.ms("settle_ms", c.Settle, 0, 60000)
	c.SyncWindow = p.seconds("sync_window_s", c.SyncWindow, 1, 3600)
	c.ReleaseTimeout = p.ms("release_timeout_ms", c.ReleaseTimeout, 0, 60000)
	c.Blink = p.ms("blink_ms", c.Blink, 1, 2000)
	c.ShutdownDelay = p.ms("shutdown_delay_ms", c.ShutdownDelay, 0, 10000)
	c.AlarmSecond = uint8(p.intIn("alarm_second", int(c.AlarmSecond), 0, 59))
	c.UTCOffset = time.Duration(p.intIn("utc_offset_min", 0, -14*60, 14*60)) * time.Minute

	if am, ok := m["adc"]; ok {
		sub, ok := am.(map[string]any)
		if !ok {
			return Config{}, errcode.New(errcode.Config, op, "adc: not an object")
		}
		a := parser{m: sub, prefix: "adc."}
		c.ADC.RefV = a.float("ref_v", c.ADC.RefV, 0.1, 10)
		c.ADC.Divider = a.float("divider", c.ADC.Divider, 1, 100)
		c.ADC.FullScale = uint16(a.intIn("full_scale", int(c.ADC.FullScale), 1, 65535))
		c.ADC.Samples = a.intIn("samples", c.ADC.Samples, 1, 64)
		c.ADC.Interval = a.ms("interval_ms", c.ADC.Interval, 0, 1000)
		if a.err != nil {
			return Config{}, a.err
		}
	}
	if p.err != nil {
		return Config{}, p.err
	}
	if c.Name == "" {
		return Config{}, errcode.New(errcode.Config, op, "name is required")
	}
	return c, nil
}

// decodeObject parses raw into a JSON object. tinyjson panics on malformed
// input; that is converted to a Config error.
func decodeObject(raw []byte) (m map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			m, err = nil, errcode.New(errcode.Config, op, "malformed JSON")
		}
	}()
	r := tinyjson.Raw(raw)
	val := r.Value() // should be a map[string]any
	r.EnsureEOF()

	m, ok := val.(map[string]any)
	if !ok {
		return nil, errcode.New(errcode.Config, op, "embedded config is not a JSON object")
	}
	return m, nil
}

// parser reads typed keys, keeping the first error.
type parser struct {
	m      map[string]any
	prefix string
	err    error
}

func (p *parser) fail(key, msg string) {
	if p.err == nil {
		p.err = errcode.New(errcode.Config, op, p.prefix+key+": "+msg)
	}
}

func (p *parser) str(key string) string {
	v, ok := p.m[key]
	if !ok {
		return ""
	}
	s, ok := v.(string)
	if !ok {
		p.fail(key, "not a string")
	}
	return s
}

func (p *parser) num(key string) (float64, bool) {
	v, ok := p.m[key]
	if !ok {
		return 0, false
	}
	f, ok := v.(float64)
	if !ok {
		p.fail(key, "not a number")
		return 0, false
	}
	return f, true
}

func (p *parser) intIn(key string, def, lo, hi int) int {
	f, ok := p.num(key)
	if !ok {
		return def
	}
	n := int(f)
	if float64(n) != f || n < lo || n > hi {
		p.fail(key, "out of range")
		return def
	}
	return n
}

func (p *parser) float(key string, def, lo, hi float32) float32 {
	f, ok := p.num(key)
	if !ok {
		return def
	}
	if float32(f) < lo || float32(f) > hi {
		p.fail(key, "out of range")
		return def
	}
	return float32(f)
}

func (p *parser) ms(key string, def time.Duration, lo, hi int) time.Duration {
	n := p.intIn(key, int(def/time.Millisecond), lo, hi)
	return time.Duration(n) * time.Millisecond
}

func (p *parser) seconds(key string, def time.Duration, lo, hi int) time.Duration {
	n := p.intIn(key, int(def/time.Second), lo, hi)
	return time.Duration(n) * time.Second
}
