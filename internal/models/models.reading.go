// FilePath: internal/models/models.reading.go
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Document keys used by the deployed sensors and clients
const (
	FieldID            = "_id"
	FieldDeviceName    = "Device Name"
	FieldTime          = "Time"
	FieldTemperature   = "Temperature (°C)"
	FieldHumidity      = "Humidity (%)"
	FieldPrecipitation = "Precipitation mm/h"
	FieldDeletedAt     = "deleted_at"
)

// Reading is a single weather measurement sent by a sensor
type Reading struct {
	ID            string
	DeviceName    string
	Time          time.Time
	Temperature   *float64
	Humidity      *float64
	Precipitation *float64
	// Extra holds any environmental field the sensor sends beyond the known ones
	Extra map[string]any
}

// Document renders the reading with its wire field names. Time stays a time.Time
// so storage drivers can encode it natively.
func (r *Reading) Document() Document {
	doc := make(Document, len(r.Extra)+6)
	for k, v := range r.Extra {
		doc[k] = v
	}
	if r.ID != "" {
		doc[FieldID] = r.ID
	}
	if r.DeviceName != "" {
		doc[FieldDeviceName] = r.DeviceName
	}
	if !r.Time.IsZero() {
		doc[FieldTime] = r.Time
	}
	if r.Temperature != nil {
		doc[FieldTemperature] = *r.Temperature
	}
	if r.Humidity != nil {
		doc[FieldHumidity] = *r.Humidity
	}
	if r.Precipitation != nil {
		doc[FieldPrecipitation] = *r.Precipitation
	}
	return doc
}

// MarshalJSON writes the reading as a flat document with RFC3339 timestamps
func (r Reading) MarshalJSON() ([]byte, error) {
	doc := r.Document()
	if !r.Time.IsZero() {
		doc[FieldTime] = r.Time.UTC().Format(time.RFC3339Nano)
	}
	return json.Marshal(map[string]any(doc))
}

// UnmarshalJSON accepts the flat document form produced by MarshalJSON
func (r *Reading) UnmarshalJSON(data []byte) error {
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	parsed, err := ReadingFromDocument(doc)
	if err != nil {
		return err
	}
	*r = *parsed
	return nil
}

// Apply sets the given fields on the reading, the way a document $set would
func (r *Reading) Apply(fields map[string]any) error {
	doc := r.Document()
	for k, v := range fields {
		if v == nil {
			delete(doc, k)
			continue
		}
		doc[k] = v
	}
	updated, err := ReadingFromDocument(doc)
	if err != nil {
		return err
	}
	*r = *updated
	return nil
}

// Clone returns a deep copy of the reading
func (r *Reading) Clone() *Reading {
	c := *r
	c.Temperature = cloneFloat(r.Temperature)
	c.Humidity = cloneFloat(r.Humidity)
	c.Precipitation = cloneFloat(r.Precipitation)
	c.Extra = make(map[string]any, len(r.Extra))
	for k, v := range r.Extra {
		c.Extra[k] = v
	}
	return &c
}

// ReadingFromDocument builds a Reading from a decoded document. Known keys with an
// unexpected type are kept in Extra so no sensor data is dropped.
func ReadingFromDocument(doc Document) (*Reading, error) {
	r := &Reading{Extra: make(map[string]any)}
	for k, v := range doc {
		switch k {
		case FieldID:
			id, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("document id must be a string, got %T", v)
			}
			r.ID = id
		case FieldDeviceName:
			if s, ok := v.(string); ok {
				r.DeviceName = s
			} else {
				r.Extra[k] = v
			}
		case FieldTime:
			t, ok := ToTime(v)
			if !ok {
				return nil, fmt.Errorf("invalid %s value %v", FieldTime, v)
			}
			r.Time = t
		case FieldTemperature:
			r.Temperature = floatOrExtra(r.Extra, k, v)
		case FieldHumidity:
			r.Humidity = floatOrExtra(r.Extra, k, v)
		case FieldPrecipitation:
			r.Precipitation = floatOrExtra(r.Extra, k, v)
		default:
			r.Extra[k] = v
		}
	}
	return r, nil
}

// ToFloat converts the numeric types produced by JSON and BSON decoders
func ToFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// ToTime converts stored timestamp representations to time.Time
func ToTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t.UTC(), true
	case string:
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed.UTC(), true
	default:
		return time.Time{}, false
	}
}

// Float returns a pointer to f
func Float(f float64) *float64 {
	return &f
}

func floatOrExtra(extra map[string]any, key string, v any) *float64 {
	if f, ok := ToFloat(v); ok {
		return &f
	}
	extra[key] = v
	return nil
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

// DeletionLogEntry is the copy of a reading kept after it was deleted
type DeletionLogEntry struct {
	Reading   *Reading
	DeletedAt time.Time
}

// Document renders the entry as the reading document plus deleted_at
func (e *DeletionLogEntry) Document() Document {
	doc := e.Reading.Document()
	doc[FieldDeletedAt] = e.DeletedAt
	return doc
}

// MarshalJSON writes the entry as a flat document
func (e DeletionLogEntry) MarshalJSON() ([]byte, error) {
	doc := e.Reading.Document()
	if !e.Reading.Time.IsZero() {
		doc[FieldTime] = e.Reading.Time.UTC().Format(time.RFC3339Nano)
	}
	doc[FieldDeletedAt] = e.DeletedAt.UTC().Format(time.RFC3339Nano)
	return json.Marshal(map[string]any(doc))
}
