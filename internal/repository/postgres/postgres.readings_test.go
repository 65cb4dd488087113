package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/zekarki/WeatherAPI/internal/models"
)

func sampleReading() *models.Reading {
	return &models.Reading{
		ID:          "5f1c9a52-7d5e-4c61-9a8f-2f0d3c7e9b11",
		DeviceName:  "Woodford_Sensor",
		Time:        time.Date(2024, 5, 1, 12, 30, 0, 123456000, time.UTC),
		Temperature: models.Float(18.5),
		Humidity:    models.Float(70),
		Extra:       map[string]any{"Wind Speed (m/s)": 3.2},
	}
}

func TestReadingRowColumns(t *testing.T) {
	row := newReadingRow(sampleReading())

	assert.Equal(t, "5f1c9a52-7d5e-4c61-9a8f-2f0d3c7e9b11", row.ID)
	assert.Equal(t, "Woodford_Sensor", row.DeviceName)
	assert.True(t, row.RecordedAt.Valid)
	assert.True(t, row.Temperature.Valid)
	assert.Equal(t, 18.5, row.Temperature.Float64)
	assert.False(t, row.Precipitation.Valid)
	assert.NotContains(t, row.Data, models.FieldID)
	assert.Contains(t, row.Data, models.FieldHumidity)
}

func TestReadingRowSurvivesJSONB(t *testing.T) {
	original := sampleReading()
	row := newReadingRow(original)

	value, err := row.Data.Value()
	require.NoError(t, err)
	var scanned models.Document
	require.NoError(t, scanned.Scan(value))
	row.Data = scanned

	got, err := row.reading()
	require.NoError(t, err)
	assert.Equal(t, original.ID, got.ID)
	assert.True(t, got.Time.Equal(original.Time))
	assert.Equal(t, 18.5, *got.Temperature)
	assert.Equal(t, 70.0, *got.Humidity)
	assert.Nil(t, got.Precipitation)
	assert.Equal(t, 3.2, got.Extra["Wind Speed (m/s)"])
}

func TestSameDocument(t *testing.T) {
	a := sampleReading()
	b := a.Clone()

	same, err := sameDocument(a, b)
	require.NoError(t, err)
	assert.True(t, same)

	require.NoError(t, b.Apply(map[string]any{models.FieldTemperature: 19.0}))
	same, err = sameDocument(a, b)
	require.NoError(t, err)
	assert.False(t, same)

	c := a.Clone()
	c.Extra["Pressure (hPa)"] = 1013.0
	same, err = sameDocument(a, c)
	require.NoError(t, err)
	assert.False(t, same)
}
