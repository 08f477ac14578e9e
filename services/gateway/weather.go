package gateway

import (
	"doorsign-go/errcode"
	"doorsign-go/types"

	"github.com/andreyvit/tinyjson"
)

// ParseWeather reads a current-weather document. Both the nested form
//
//	{"current": {"temperature_2m": 21.3, "weather_code": 3, "relative_humidity_2m": 48}}
//
// and the flat form
//
//	{"temperature": 21.3, "weathercode": 3, "relative_humidity_2m": 48}
//
// are accepted. Temperature and weather code are required.
func ParseWeather(doc []byte) (w types.WeatherSnapshot, err error) {
	defer func() {
		if r := recover(); r != nil {
			w, err = types.WeatherSnapshot{}, errcode.New(errcode.Decode, "weather", "malformed JSON")
		}
	}()
	r := tinyjson.Raw(doc)
	val := r.Value()
	r.EnsureEOF()

	m, ok := val.(map[string]any)
	if !ok {
		return w, errcode.New(errcode.Decode, "weather", "not a JSON object")
	}
	if cur, ok := m["current"].(map[string]any); ok {
		m = cur
	}
	temp, ok := number(m, "temperature_2m", "temperature")
	if !ok {
		return w, errcode.New(errcode.Decode, "weather", "missing temperature")
	}
	code, ok := number(m, "weather_code", "weathercode")
	if !ok || code < 0 || code > 255 {
		return w, errcode.New(errcode.Decode, "weather", "missing weather code")
	}
	hum, _ := number(m, "relative_humidity_2m", "relative_humidity")

	w.Temperature = float32(temp)
	w.WeatherCode = uint8(code)
	w.RelativeHumidity = float32(hum)
	return w, nil
}

func number(m map[string]any, keys ...string) (float64, bool) {
	for _, k := range keys {
		if f, ok := m[k].(float64); ok {
			return f, true
		}
	}
	return 0, false
}
