package types

// WeatherSnapshot is the cached current weather shown in the header.
type WeatherSnapshot struct {
	Temperature      float32 // °C
	WeatherCode      uint8   // WMO code
	RelativeHumidity float32 // %
}

// WeatherDescription maps a WMO weather code to a short label.
func WeatherDescription(code uint8) string {
	switch {
	case code == 0:
		return "Clear"
	case code == 1:
		return "Mainly Clear"
	case code == 2:
		return "Partly Cloudy"
	case code == 3:
		return "Cloudy"
	case code >= 45 && code <= 48:
		return "Fog"
	case code >= 51 && code <= 55:
		return "Drizzle"
	case code == 56 || code == 57:
		return "Frizzle"
	case code == 61:
		return "Light Rain"
	case code == 63:
		return "Rain"
	case code == 65:
		return "Heavy Rain"
	case code == 66 || code == 67:
		return "Freezing Rain"
	case code == 71:
		return "Light Snow"
	case code == 73:
		return "Snow"
	case code == 75:
		return "Heavy Snow"
	case code == 77:
		return "Snow Grains"
	case code >= 80 && code <= 82:
		return "Rain Showers"
	case code == 85 || code == 86:
		return "Snow Showers"
	case code == 95:
		return "Thunderstorm"
	case code == 96 || code == 99:
		return "Hailstorm"
	default:
		return "Unknown"
	}
}
