// FilePath: internal/models/models.composite.go
package models

import "time"

// DisplayTimeFormat is the human readable timestamp used in display shapes
const DisplayTimeFormat = "02-Jan-2006 15:04"

// DevicePeak is the result of a per-device maximum aggregate
type DevicePeak struct {
	DeviceName string    `json:"device_name"`
	Time       time.Time `json:"time"`
	Value      *float64  `json:"value"`
}

// PrecipitationPeakView is the display shape of a precipitation peak
type PrecipitationPeakView struct {
	SensorName    string   `json:"Sensor Name"`
	ReadingTime   string   `json:"Reading Date/Time"`
	Precipitation *float64 `json:"precipitation_mm_per_h"`
}

// TemperaturePeakView is the display shape of a per-device max temperature
type TemperaturePeakView struct {
	SensorName     string   `json:"Sensor Name"`
	ReadingTime    string   `json:"Reading Date/Time"`
	MaxTemperature *float64 `json:"Max Temperature (°C)"`
}

// DisplayReading renames the device and time fields for human consumption
func DisplayReading(r *Reading) map[string]any {
	out := make(map[string]any, len(r.Extra)+6)
	for k, v := range r.Extra {
		out[k] = v
	}
	out[FieldID] = r.ID
	if r.DeviceName != "" {
		out["Sensor Name"] = r.DeviceName
	}
	if !r.Time.IsZero() {
		out["Date/Time"] = r.Time.Format(DisplayTimeFormat)
	}
	if r.Temperature != nil {
		out[FieldTemperature] = *r.Temperature
	}
	if r.Humidity != nil {
		out[FieldHumidity] = *r.Humidity
	}
	if r.Precipitation != nil {
		out[FieldPrecipitation] = *r.Precipitation
	}
	return out
}

// PrecipitationView shapes a reading as a precipitation peak
func PrecipitationView(r *Reading) PrecipitationPeakView {
	return PrecipitationPeakView{
		SensorName:    r.DeviceName,
		ReadingTime:   r.Time.Format(DisplayTimeFormat),
		Precipitation: r.Precipitation,
	}
}

// TemperatureView shapes a per-device aggregate result
func TemperatureView(p DevicePeak) TemperaturePeakView {
	return TemperaturePeakView{
		SensorName:     p.DeviceName,
		ReadingTime:    p.Time.Format(DisplayTimeFormat),
		MaxTemperature: p.Value,
	}
}
