package gateway

import (
	"strings"
	"testing"

	"doorsign-go/errcode"
	"doorsign-go/services/state"
	"doorsign-go/types"
)

func TestDecodeStatus(t *testing.T) {
	in := types.StatusInfo{Status: types.StatusFocus, StartHour: 14, StartMinute: 30, Duration: 45}
	info, label, err := DecodeStatus(EncodeStatus(in, "Deep work"))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !info.Valid || info.Status != types.StatusFocus || info.StartHour != 14 || info.StartMinute != 30 || info.Duration != 45 {
		t.Fatalf("info = %+v", info)
	}
	if label != "Deep work" {
		t.Fatalf("label = %q", label)
	}
}

func TestDecodeStatusRejects(t *testing.T) {
	long := EncodeStatus(types.StatusInfo{}, "x")
	cases := map[string][]byte{
		"empty":        nil,
		"bad status":   {7, 10, 0, 30, 0},
		"short":        {1, 10},
		"bad hour":     {1, 24, 0, 30, 0},
		"bad minute":   {1, 10, 60, 30, 0},
		"label cut":    long[:len(long)-1],
		"invalid utf8": {1, 10, 0, 30, 2, 0xff, 0xfe},
	}
	for name, b := range cases {
		if _, _, err := DecodeStatus(b); errcode.Of(err) != errcode.Decode {
			t.Errorf("%s: err = %v, want decode error", name, err)
		}
	}
}

func TestDecodeStatusTruncatesLabel(t *testing.T) {
	_, label, err := DecodeStatus(EncodeStatus(types.StatusInfo{}, strings.Repeat("a", 200)))
	if err != nil {
		t.Fatal(err)
	}
	if len(label) != state.LabelCap {
		t.Fatalf("len(label) = %d", len(label))
	}
}

func TestDecodeMessage(t *testing.T) {
	if _, _, err := DecodeMessage([]byte{0}); errcode.Of(err) != ErrNoUpdate {
		t.Fatalf("none: err = %v", err)
	}
	body := EncodeStatus(types.StatusInfo{Status: types.StatusFree}, "Free")
	info, label, err := DecodeMessage(append([]byte{1}, body...))
	if err != nil || info.Status != types.StatusFree || label != "Free" {
		t.Fatalf("some: %+v %q %v", info, label, err)
	}
	if _, _, err := DecodeMessage([]byte{9}); errcode.Of(err) != errcode.Decode {
		t.Fatalf("bad presence: err = %v", err)
	}
}

func TestParseWeather(t *testing.T) {
	w, err := ParseWeather([]byte(`{"current":{"temperature_2m":21.4,"weather_code":3,"relative_humidity_2m":48}}`))
	if err != nil {
		t.Fatal(err)
	}
	if w.Temperature != float32(21.4) || w.WeatherCode != 3 || w.RelativeHumidity != 48 {
		t.Fatalf("nested = %+v", w)
	}
	w, err = ParseWeather([]byte(`{"temperature":-2,"weathercode":71}`))
	if err != nil || w.Temperature != -2 || w.WeatherCode != 71 || w.RelativeHumidity != 0 {
		t.Fatalf("flat = %+v %v", w, err)
	}
	for _, doc := range []string{`{`, `[]`, `{"weather_code":1}`, `{"temperature":1,"weather_code":900}`, `{} trailing`} {
		if _, err := ParseWeather([]byte(doc)); err == nil {
			t.Errorf("%s: accepted", doc)
		}
	}
}
