// FilePath: internal/repository/memory/memory.readings.go
package memory

import (
	"context"
	"reflect"
	"sort"
	"sync"
	"time"

	nuts "github.com/vaudience/go-nuts"
	"github.com/zekarki/WeatherAPI/internal/models"
	"github.com/zekarki/WeatherAPI/internal/repository"
)

// ReadingRepo keeps readings in insertion order, the natural order of a document collection
type ReadingRepo struct {
	mu       sync.RWMutex
	order    []string
	readings map[string]*models.Reading
}

// NewReadingRepository creates an in-memory reading repository
func NewReadingRepository() *ReadingRepo {
	return &ReadingRepo{readings: make(map[string]*models.Reading)}
}

func (r *ReadingRepo) ValidID(id string) bool {
	return id != ""
}

func (r *ReadingRepo) Insert(ctx context.Context, reading *models.Reading) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insertLocked(reading), nil
}

func (r *ReadingRepo) InsertMany(ctx context.Context, readings []*models.Reading) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(readings))
	for _, reading := range readings {
		ids = append(ids, r.insertLocked(reading))
	}
	return ids, nil
}

func (r *ReadingRepo) insertLocked(reading *models.Reading) string {
	stored := reading.Clone()
	stored.ID = nuts.NID("rd", 16)
	r.readings[stored.ID] = stored
	r.order = append(r.order, stored.ID)
	reading.ID = stored.ID
	return stored.ID
}

func (r *ReadingRepo) Get(ctx context.Context, id string) (*models.Reading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	reading, ok := r.readings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return reading.Clone(), nil
}

func (r *ReadingRepo) FirstInRange(ctx context.Context, deviceName string, tr models.TimeRange) (*models.Reading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		reading := r.readings[id]
		if reading.DeviceName == deviceName && tr.Contains(reading.Time) {
			return reading.Clone(), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *ReadingRepo) MaxTemperatureInRange(ctx context.Context, tr models.TimeRange) (*models.Reading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best *models.Reading
	for _, id := range r.order {
		reading := r.readings[id]
		if !tr.Contains(reading.Time) || reading.Temperature == nil {
			continue
		}
		if best == nil || *reading.Temperature > *best.Temperature {
			best = reading
		}
	}
	if best == nil {
		return nil, repository.ErrNotFound
	}
	return best.Clone(), nil
}

func (r *ReadingRepo) TemperatureBetween(ctx context.Context, low, high float64) ([]*models.Reading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []*models.Reading{}
	for _, id := range r.order {
		reading := r.readings[id]
		if reading.Temperature != nil && *reading.Temperature >= low && *reading.Temperature <= high {
			out = append(out, reading.Clone())
		}
	}
	return out, nil
}

func (r *ReadingRepo) MaxPrecipitationSince(ctx context.Context, deviceName string, since time.Time) (*models.Reading, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var best *models.Reading
	for _, id := range r.order {
		reading := r.readings[id]
		if reading.DeviceName != deviceName || reading.Time.Before(since) || reading.Precipitation == nil {
			continue
		}
		if best == nil || *reading.Precipitation > *best.Precipitation {
			best = reading
		}
	}
	if best == nil {
		return nil, repository.ErrNotFound
	}
	return best.Clone(), nil
}

func (r *ReadingRepo) MaxTemperatureByDevice(ctx context.Context, tr models.TimeRange) ([]models.DevicePeak, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	peaks := make(map[string]*models.DevicePeak)
	for _, id := range r.order {
		reading := r.readings[id]
		if !tr.Contains(reading.Time) {
			continue
		}
		peak, ok := peaks[reading.DeviceName]
		if !ok {
			// the reported time is that of the first reading in the group
			peak = &models.DevicePeak{DeviceName: reading.DeviceName, Time: reading.Time}
			peaks[reading.DeviceName] = peak
		}
		if reading.Temperature != nil && (peak.Value == nil || *reading.Temperature > *peak.Value) {
			peak.Value = models.Float(*reading.Temperature)
		}
	}
	out := make([]models.DevicePeak, 0, len(peaks))
	for _, peak := range peaks {
		out = append(out, *peak)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DeviceName < out[j].DeviceName })
	return out, nil
}

func (r *ReadingRepo) Update(ctx context.Context, id string, fields map[string]any) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	reading, ok := r.readings[id]
	if !ok {
		return 0, nil
	}
	updated := reading.Clone()
	if err := updated.Apply(fields); err != nil {
		return 0, err
	}
	if reflect.DeepEqual(reading.Document(), updated.Document()) {
		return 0, nil
	}
	r.readings[id] = updated
	return 1, nil
}

func (r *ReadingRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.readings[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.readings, id)
	for i, existing := range r.order {
		if existing == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
	return nil
}

// DeletionLogRepo is an append-only in-memory deletion log
type DeletionLogRepo struct {
	mu      sync.RWMutex
	entries []*models.DeletionLogEntry
}

// NewDeletionLogRepository creates an in-memory deletion log
func NewDeletionLogRepository() *DeletionLogRepo {
	return &DeletionLogRepo{}
}

func (r *DeletionLogRepo) Append(ctx context.Context, entry *models.DeletionLogEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, &models.DeletionLogEntry{
		Reading:   entry.Reading.Clone(),
		DeletedAt: entry.DeletedAt,
	})
	return nil
}

func (r *DeletionLogRepo) List(ctx context.Context) ([]*models.DeletionLogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*models.DeletionLogEntry, len(r.entries))
	copy(out, r.entries)
	return out, nil
}
