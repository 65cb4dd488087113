package models

import "time"

// ReadingQuery holds the lookup parameters accepted by the reading endpoints
type ReadingQuery struct {
	ID     string `schema:"_id"`
	Sensor string `schema:"sensor"`
	Start  string `schema:"start"`
	End    string `schema:"end"`
}

// TemperatureQuery bounds a temperature range lookup
type TemperatureQuery struct {
	Low  *float64 `schema:"low"`
	High *float64 `schema:"high"`
}

// PrecipitationQuery selects the sensor for the precipitation peak lookup
type PrecipitationQuery struct {
	Sensor string `schema:"sensor"`
}

// DateRangeQuery holds a YYYY-MM-DD start and end
type DateRangeQuery struct {
	Start string `schema:"start"`
	End   string `schema:"end"`
}

// TimeRange represents an inclusive time range filter
type TimeRange struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Contains reports whether t lies within the range, bounds included
func (tr TimeRange) Contains(t time.Time) bool {
	return !t.Before(tr.Start) && !t.After(tr.End)
}
