// FilePath: internal/validation/validation.go
package validation

import (
	"fmt"
	"strings"
	"time"

	"github.com/zekarki/WeatherAPI/internal/models"
)

// Physical bounds for sensor readings
const (
	MinTemperature   = -50.0
	MaxTemperature   = 60.0
	MinHumidity      = 0.0
	MaxHumidity      = 100.0
	MinPrecipitation = 0.0
)

// Accepted date layouts
const (
	LookupTimeLayout = "2006-01-02T15:04"
	DateLayout       = "2006-01-02"
)

// ValidationError names the first field that failed and why
type ValidationError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Reason
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Reason)
}

func fail(field, reason string) *ValidationError {
	return &ValidationError{Field: field, Reason: reason}
}

// IDCheck reports whether an identifier is convertible to the store's id type
type IDCheck func(id string) bool

// UpdateItem is one validated entry of a bulk update
type UpdateItem struct {
	ID     string
	Fields map[string]any
}

// ReadingInsert validates a single reading document
func ReadingInsert(doc map[string]any) error {
	_, hasTemp := doc[models.FieldTemperature]
	_, hasHumidity := doc[models.FieldHumidity]
	if !hasTemp || !hasHumidity {
		field := models.FieldTemperature
		if hasTemp {
			field = models.FieldHumidity
		}
		return fail(field, "Missing temperature or humidity values")
	}
	if _, ok := doc[models.FieldID]; ok {
		return fail(models.FieldID, "identifier is assigned by the server")
	}
	return ReadingRanges(doc)
}

// ReadingRanges checks every known numeric field present in fields against its bound
func ReadingRanges(fields map[string]any) error {
	if v, ok := fields[models.FieldTemperature]; ok {
		t, isNum := models.ToFloat(v)
		if !isNum {
			return fail(models.FieldTemperature, "Temperature must be a number.")
		}
		if t < MinTemperature || t > MaxTemperature {
			return fail(models.FieldTemperature, "Temperature must be between -50°C and 60°C.")
		}
	}
	if v, ok := fields[models.FieldHumidity]; ok {
		h, isNum := models.ToFloat(v)
		if !isNum {
			return fail(models.FieldHumidity, "Humidity must be a number.")
		}
		if h < MinHumidity || h > MaxHumidity {
			return fail(models.FieldHumidity, "Humidity must be between 0% and 100%.")
		}
	}
	if v, ok := fields[models.FieldPrecipitation]; ok {
		p, isNum := models.ToFloat(v)
		if !isNum {
			return fail(models.FieldPrecipitation, "Precipitation must be a number.")
		}
		if p < MinPrecipitation {
			return fail(models.FieldPrecipitation, "Precipitation value cannot be negative.")
		}
	}
	return nil
}

// updateFields rejects changes to server-owned keys and checks ranges
func updateFields(fields map[string]any) error {
	if _, ok := fields[models.FieldID]; ok {
		return fail(models.FieldID, "_id cannot be updated")
	}
	if _, ok := fields[models.FieldTime]; ok {
		return fail(models.FieldTime, "Time is assigned by the server")
	}
	return ReadingRanges(fields)
}

// ReadingUpdate validates a {_id, update_fields} payload
func ReadingUpdate(body map[string]any, valid IDCheck) (UpdateItem, error) {
	id, _ := body[models.FieldID].(string)
	fields, _ := body["update_fields"].(map[string]any)
	if id == "" || len(fields) == 0 {
		return UpdateItem{}, fail("update_fields", "Missing _id or update_fields")
	}
	if !valid(id) {
		return UpdateItem{}, fail(models.FieldID, fmt.Sprintf("'%s' is not a valid identifier", id))
	}
	if err := updateFields(fields); err != nil {
		return UpdateItem{}, err
	}
	return UpdateItem{ID: id, Fields: fields}, nil
}

// ReadingID validates a body carrying a single _id
func ReadingID(body map[string]any, valid IDCheck, missing string) (string, error) {
	id, _ := body[models.FieldID].(string)
	if id == "" {
		return "", fail(models.FieldID, missing)
	}
	if !valid(id) {
		return "", fail(models.FieldID, fmt.Sprintf("'%s' is not a valid identifier", id))
	}
	return id, nil
}

// ReadingsInsert validates a bulk insert. Any invalid item aborts the batch.
func ReadingsInsert(body any) ([]map[string]any, error) {
	list, ok := body.([]any)
	if !ok || len(list) == 0 {
		return nil, fail("documents", "documents must be a non-empty list")
	}
	docs := make([]map[string]any, 0, len(list))
	for i, item := range list {
		doc, ok := item.(map[string]any)
		if !ok {
			return nil, fail(fmt.Sprintf("documents[%d]", i), "each document must be an object")
		}
		if err := ReadingInsert(doc); err != nil {
			return nil, indexed("documents", i, err)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// ReadingsUpdate validates a bulk update. Items without an id or fields are
// skipped. A malformed id or out-of-range value aborts the whole batch, and
// every item is checked before any is applied.
func ReadingsUpdate(body map[string]any, valid IDCheck) ([]UpdateItem, error) {
	list, ok := body["updates"].([]any)
	if !ok || len(list) == 0 {
		return nil, fail("updates", "updates must be a non-empty list of {id, update_fields} items")
	}
	items := make([]UpdateItem, 0, len(list))
	for i, raw := range list {
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		id, _ := entry["id"].(string)
		fields, _ := entry["update_fields"].(map[string]any)
		if id == "" || len(fields) == 0 {
			continue
		}
		if !valid(id) {
			return nil, fail(fmt.Sprintf("updates[%d].id", i), fmt.Sprintf("'%s' is not a valid identifier", id))
		}
		if err := updateFields(fields); err != nil {
			verr := err.(*ValidationError)
			return nil, fail(
				fmt.Sprintf("updates[%d].%s", i, verr.Field),
				fmt.Sprintf("record %s: %s", id, verr.Reason),
			)
		}
		items = append(items, UpdateItem{ID: id, Fields: fields})
	}
	return items, nil
}

// ReadingsDelete validates a bulk delete payload
func ReadingsDelete(body map[string]any, valid IDCheck) ([]string, error) {
	list, ok := body["ids"].([]any)
	if !ok || len(list) == 0 {
		return nil, fail("ids", "ids must be a non-empty list")
	}
	ids := make([]string, 0, len(list))
	for i, raw := range list {
		id, ok := raw.(string)
		if !ok || id == "" {
			return nil, fail(fmt.Sprintf("ids[%d]", i), "ids must be non-empty strings")
		}
		if !valid(id) {
			return nil, fail(fmt.Sprintf("ids[%d]", i), fmt.Sprintf("'%s' is not a valid identifier", id))
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// Role validates a role value, falling back to def when absent
func Role(field string, value any, def models.Role) (models.Role, error) {
	if value == nil {
		return def, nil
	}
	s, ok := value.(string)
	if !ok || s == "" {
		return "", fail(field, "role must be a string")
	}
	role := models.Role(s)
	if !role.Valid() {
		names := make([]string, len(models.Roles))
		for i, r := range models.Roles {
			names[i] = string(r)
		}
		return "", fail(field, fmt.Sprintf("role must be one of %s", strings.Join(names, ", ")))
	}
	return role, nil
}

// Credentials validates a username/password pair
func Credentials(body map[string]any) (string, string, error) {
	username, _ := body["username"].(string)
	password, _ := body["password"].(string)
	if username == "" || password == "" {
		field := "username"
		if username != "" {
			field = "password"
		}
		return "", "", fail(field, "Username and password required")
	}
	return username, password, nil
}

// LookupTime parses YYYY-MM-DDTHH:MM, falling back to RFC 3339
func LookupTime(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if t, err := time.Parse(LookupTimeLayout, value); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, fail(field, fmt.Sprintf("'%s' does not match format YYYY-MM-DDTHH:MM", value))
}

// Date parses YYYY-MM-DD
func Date(field, value string) (time.Time, error) {
	t, err := time.Parse(DateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, fail(field, fmt.Sprintf("'%s' does not match format YYYY-MM-DD", value))
	}
	return t.UTC(), nil
}

// DateRange parses an inclusive YYYY-MM-DD range: from midnight of the start
// day to the last instant of the end day.
func DateRange(startField, start, endField, end string) (models.TimeRange, error) {
	if start == "" {
		return models.TimeRange{}, fail(startField, "Missing start or end parameter")
	}
	if end == "" {
		return models.TimeRange{}, fail(endField, "Missing start or end parameter")
	}
	s, err := Date(startField, start)
	if err != nil {
		return models.TimeRange{}, err
	}
	e, err := Date(endField, end)
	if err != nil {
		return models.TimeRange{}, err
	}
	return models.TimeRange{Start: s, End: e.Add(24*time.Hour - time.Nanosecond)}, nil
}

// LookupRange parses a YYYY-MM-DDTHH:MM range
func LookupRange(start, end string) (models.TimeRange, error) {
	s, err := LookupTime("start", start)
	if err != nil {
		return models.TimeRange{}, err
	}
	e, err := LookupTime("end", end)
	if err != nil {
		return models.TimeRange{}, err
	}
	return models.TimeRange{Start: s, End: e}, nil
}

// TemperatureBounds requires both bounds of a temperature range query
func TemperatureBounds(q models.TemperatureQuery) (float64, float64, error) {
	if q.Low == nil {
		return 0, 0, fail("low", "low is required")
	}
	if q.High == nil {
		return 0, 0, fail("high", "high is required")
	}
	return *q.Low, *q.High, nil
}

func indexed(list string, i int, err error) error {
	if verr, ok := err.(*ValidationError); ok {
		return fail(fmt.Sprintf("%s[%d].%s", list, i, verr.Field), verr.Reason)
	}
	return err
}
