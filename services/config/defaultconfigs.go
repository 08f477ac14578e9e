package config

// -----------------------------------------------------------------------------
// Embedded configuration
//
// Key: device ID (selected by the hardware profile at build time)
// Val: raw JSON bytes for that device
// -----------------------------------------------------------------------------

const cfgBadger = `{
  "name": "DoorSign",
  "debounce_ms": 50,
  "settle_ms": 3000,
  "sync_window_s": 60,
  "alarm_second": 0,
  "adc": {
    "ref_v": 3.3,
    "divider": 3,
    "full_scale": 65535,
    "samples": 10,
    "interval_ms": 5
  }
}`

const cfgPi = `{
  "name": "DoorSign-Pi",
  "debounce_ms": 50,
  "blink_ms": 100
}`

var embeddedConfigs = map[string][]byte{
	"badger2040w": []byte(cfgBadger),
	"pi":          []byte(cfgPi),
}
