package service

import (
	"context"
	"fmt"
	"time"

	nuts "github.com/vaudience/go-nuts"
	"github.com/zekarki/WeatherAPI/internal/models"
	"github.com/zekarki/WeatherAPI/internal/repository"
	"github.com/zekarki/WeatherAPI/internal/validation"
)

// LookupKind tells which rule of the lookup chain produced a result
type LookupKind int

const (
	LookupByID LookupKind = iota + 1
	LookupByDeviceRange
	LookupMaxTemperature
)

// ReadingLookup holds the parameters of a read-path lookup
type ReadingLookup struct {
	ID         string
	DeviceName string
	Range      *models.TimeRange
}

// ErrMissingLookup is returned when a lookup carries no usable parameters
var ErrMissingLookup = fmt.Errorf("%w: missing _id or start/end parameters", repository.ErrInvalidInput)

// InsertReading stores a validated reading document with a server-assigned time
func (s *Service) InsertReading(ctx context.Context, doc map[string]any) (string, error) {
	reading, err := s.newReading(doc)
	if err != nil {
		return "", err
	}
	id, err := s.readings.Insert(ctx, reading)
	if err != nil {
		return "", err
	}
	nuts.L.Infof("[ReadingService] Inserted reading %s from %s", id, reading.DeviceName)
	return id, nil
}

// InsertReadings stores a validated batch with a shared insert time
func (s *Service) InsertReadings(ctx context.Context, docs []map[string]any) ([]string, error) {
	readings := make([]*models.Reading, 0, len(docs))
	for _, doc := range docs {
		reading, err := s.newReading(doc)
		if err != nil {
			return nil, err
		}
		readings = append(readings, reading)
	}
	ids, err := s.readings.InsertMany(ctx, readings)
	if err != nil {
		return nil, err
	}
	nuts.L.Infof("[ReadingService] Inserted %d readings", len(ids))
	return ids, nil
}

func (s *Service) newReading(doc map[string]any) (*models.Reading, error) {
	reading, err := models.ReadingFromDocument(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", repository.ErrInvalidInput, err)
	}
	reading.Time = s.now().UTC()
	return reading, nil
}

// GetReading returns a reading by id
func (s *Service) GetReading(ctx context.Context, id string) (*models.Reading, error) {
	return s.readings.Get(ctx, id)
}

// LookupReading applies the read-path priority: an id always wins, then a
// device with a time range returns its first match, then a bare time range
// returns the highest temperature record.
func (s *Service) LookupReading(ctx context.Context, q ReadingLookup) (*models.Reading, LookupKind, error) {
	switch {
	case q.ID != "":
		r, err := s.readings.Get(ctx, q.ID)
		return r, LookupByID, err
	case q.DeviceName != "" && q.Range != nil:
		r, err := s.readings.FirstInRange(ctx, q.DeviceName, *q.Range)
		return r, LookupByDeviceRange, err
	case q.Range != nil:
		r, err := s.readings.MaxTemperatureInRange(ctx, *q.Range)
		return r, LookupMaxTemperature, err
	default:
		return nil, 0, ErrMissingLookup
	}
}

// UpdateReading applies one validated update and returns the modified count
func (s *Service) UpdateReading(ctx context.Context, item validation.UpdateItem) (int64, error) {
	return s.readings.Update(ctx, item.ID, item.Fields)
}

// UpdateReadings applies validated items in order and sums the modified counts
func (s *Service) UpdateReadings(ctx context.Context, items []validation.UpdateItem) (int64, error) {
	var modified int64
	for _, item := range items {
		n, err := s.readings.Update(ctx, item.ID, item.Fields)
		if err != nil {
			return modified, fmt.Errorf("failed to update record %s: %w", item.ID, err)
		}
		modified += n
	}
	nuts.L.Infof("[ReadingService] Bulk update modified %d of %d readings", modified, len(items))
	return modified, nil
}

// DeleteReading logs and removes a reading
func (s *Service) DeleteReading(ctx context.Context, id string) error {
	return s.Cleanup.DeleteReading(ctx, id)
}

// DeleteReadings logs and removes each reading that exists
func (s *Service) DeleteReadings(ctx context.Context, ids []string) (int, error) {
	return s.Cleanup.DeleteReadings(ctx, ids)
}

// DeletionLog lists the copies of deleted readings
func (s *Service) DeletionLog(ctx context.Context) ([]*models.DeletionLogEntry, error) {
	return s.deletionLog.List(ctx)
}

// precipitationWindow is how far back the precipitation peak looks
const precipitationWindow = 150 * 24 * time.Hour

// MaxPrecipitation returns the sensor's wettest reading in the last 150 days
func (s *Service) MaxPrecipitation(ctx context.Context, deviceName string) (*models.Reading, error) {
	return s.readings.MaxPrecipitationSince(ctx, deviceName, s.now().UTC().Add(-precipitationWindow))
}

// TemperatureRange returns readings with a temperature in [low, high]
func (s *Service) TemperatureRange(ctx context.Context, low, high float64) ([]*models.Reading, error) {
	return s.readings.TemperatureBetween(ctx, low, high)
}

// MaxTemperatureByDevice returns the per-device maximum temperature within tr
func (s *Service) MaxTemperatureByDevice(ctx context.Context, tr models.TimeRange) ([]models.DevicePeak, error) {
	return s.readings.MaxTemperatureByDevice(ctx, tr)
}
