package cleanup

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zekarki/WeatherAPI/internal/models"
	"github.com/zekarki/WeatherAPI/internal/repository"
	"github.com/zekarki/WeatherAPI/internal/repository/memory"
)

func newService(t *testing.T) (*CleanupService, *memory.ReadingRepo, *memory.DeletionLogRepo, *memory.UserRepo) {
	t.Helper()
	readings := memory.NewReadingRepository()
	log := memory.NewDeletionLogRepository()
	users := memory.NewUserRepository()
	return New(readings, log, users), readings, log, users
}

func TestDeleteReadingLogsBeforeRemoval(t *testing.T) {
	require := require.New(t)
	ctx := context.Background()
	svc, readings, log, _ := newService(t)

	var fired atomic.Int32
	svc.OnCleanup(EventReadingDeleted, func(id string) { fired.Add(1) })

	id, err := readings.Insert(ctx, &models.Reading{
		DeviceName:  "Woodford_Sensor",
		Time:        time.Now().UTC(),
		Temperature: models.Float(21.5),
		Humidity:    models.Float(55),
		Extra:       map[string]any{"Atmospheric Pressure (kPa)": 101.2},
	})
	require.NoError(err)

	require.NoError(svc.DeleteReading(ctx, id))

	_, err = readings.Get(ctx, id)
	require.ErrorIs(err, repository.ErrNotFound)

	entries, err := log.List(ctx)
	require.NoError(err)
	require.Len(entries, 1)
	assert.Equal(t, id, entries[0].Reading.ID)
	assert.Equal(t, 21.5, *entries[0].Reading.Temperature)
	assert.Equal(t, 101.2, entries[0].Reading.Extra["Atmospheric Pressure (kPa)"])
	assert.False(t, entries[0].DeletedAt.IsZero())

	assert.Eventually(t, func() bool { return fired.Load() == 1 }, time.Second, 10*time.Millisecond)
}

func TestDeleteMissingReading(t *testing.T) {
	svc, _, log, _ := newService(t)
	ctx := context.Background()

	err := svc.DeleteReading(ctx, "nope")
	assert.ErrorIs(t, err, repository.ErrNotFound)

	entries, err := log.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDeleteReadingsSkipsMissing(t *testing.T) {
	svc, readings, log, _ := newService(t)
	ctx := context.Background()

	a, err := readings.Insert(ctx, &models.Reading{DeviceName: "a", Temperature: models.Float(1), Humidity: models.Float(1)})
	require.NoError(t, err)
	b, err := readings.Insert(ctx, &models.Reading{DeviceName: "b", Temperature: models.Float(2), Humidity: models.Float(2)})
	require.NoError(t, err)

	n, err := svc.DeleteReadings(ctx, []string{a, "missing", b})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	entries, err := log.List(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}

func TestPurgeInactiveUsers(t *testing.T) {
	svc, _, _, users := newService(t)
	ctx := context.Background()
	now := time.Now().UTC()

	_, err := users.Create(ctx, &models.Identity{Username: "stale", Role: models.RoleStudent, LastLoginAt: now.Add(-31 * 24 * time.Hour)})
	require.NoError(t, err)
	_, err = users.Create(ctx, &models.Identity{Username: "fresh", Role: models.RoleStudent, LastLoginAt: now.Add(-time.Hour)})
	require.NoError(t, err)

	n, err := svc.PurgeInactiveUsers(ctx, 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = users.FindByUsername(ctx, "stale")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = users.FindByUsername(ctx, "fresh")
	assert.NoError(t, err)
}
