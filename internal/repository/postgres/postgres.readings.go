// FilePath: internal/repository/postgres/postgres.readings.go
package postgres

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/zekarki/WeatherAPI/internal/database"
	"github.com/zekarki/WeatherAPI/internal/errors"
	"github.com/zekarki/WeatherAPI/internal/models"
	"github.com/zekarki/WeatherAPI/internal/repository"
)

type readingRow struct {
	ID            string          `db:"id"`
	DeviceName    string          `db:"device_name"`
	RecordedAt    sql.NullTime    `db:"recorded_at"`
	Temperature   sql.NullFloat64 `db:"temperature"`
	Precipitation sql.NullFloat64 `db:"precipitation"`
	Data          models.Document `db:"data"`
}

func newReadingRow(reading *models.Reading) readingRow {
	doc := reading.Document()
	delete(doc, models.FieldID)
	row := readingRow{ID: reading.ID, DeviceName: reading.DeviceName, Data: doc}
	if !reading.Time.IsZero() {
		row.RecordedAt = sql.NullTime{Time: reading.Time, Valid: true}
	}
	if reading.Temperature != nil {
		row.Temperature = sql.NullFloat64{Float64: *reading.Temperature, Valid: true}
	}
	if reading.Precipitation != nil {
		row.Precipitation = sql.NullFloat64{Float64: *reading.Precipitation, Valid: true}
	}
	return row
}

func (row readingRow) reading() (*models.Reading, error) {
	doc := models.Document{}
	for k, v := range row.Data {
		doc[k] = v
	}
	doc[models.FieldID] = row.ID
	return models.ReadingFromDocument(doc)
}

const readingColumns = `id, device_name, recorded_at, temperature, precipitation, data`

type ReadingRepo struct {
	PostgresBaseRepo
}

// NewReadingRepository creates a PostgreSQL-backed reading repository
func NewReadingRepository(db database.DB) *ReadingRepo {
	return &ReadingRepo{PostgresBaseRepo: PostgresBaseRepo{db: db}}
}

func (r *ReadingRepo) ValidID(id string) bool {
	return validID(id)
}

const insertReading = `
	INSERT INTO readings (id, device_name, recorded_at, temperature, precipitation, data)
	VALUES (:id, :device_name, :recorded_at, :temperature, :precipitation, :data)`

func (r *ReadingRepo) Insert(ctx context.Context, reading *models.Reading) (string, error) {
	reading.ID = uuid.NewString()
	if _, err := r.db.GetDB().NamedExecContext(ctx, insertReading, newReadingRow(reading)); err != nil {
		return "", errors.NewDatabaseError("failed to insert reading", err)
	}
	return reading.ID, nil
}

// InsertMany writes all readings in one transaction so a failure stores none
func (r *ReadingRepo) InsertMany(ctx context.Context, readings []*models.Reading) ([]string, error) {
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return nil, err
	}
	defer r.Rollback(tx)

	ids := make([]string, 0, len(readings))
	for _, reading := range readings {
		reading.ID = uuid.NewString()
		if _, err := tx.NamedExecContext(ctx, insertReading, newReadingRow(reading)); err != nil {
			return nil, errors.NewDatabaseError("failed to insert readings", err)
		}
		ids = append(ids, reading.ID)
	}
	if err := r.Commit(tx); err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *ReadingRepo) Get(ctx context.Context, id string) (*models.Reading, error) {
	if !validID(id) {
		return nil, repository.ErrInvalidID
	}
	return r.getOne(ctx, r.db.GetDB(), `SELECT `+readingColumns+` FROM readings WHERE id = $1`, id)
}

func (r *ReadingRepo) FirstInRange(ctx context.Context, deviceName string, tr models.TimeRange) (*models.Reading, error) {
	return r.getOne(ctx, r.db.GetDB(), `
		SELECT `+readingColumns+` FROM readings
		WHERE device_name = $1 AND recorded_at BETWEEN $2 AND $3
		ORDER BY seq LIMIT 1`, deviceName, tr.Start, tr.End)
}

func (r *ReadingRepo) MaxTemperatureInRange(ctx context.Context, tr models.TimeRange) (*models.Reading, error) {
	return r.getOne(ctx, r.db.GetDB(), `
		SELECT `+readingColumns+` FROM readings
		WHERE recorded_at BETWEEN $1 AND $2 AND temperature IS NOT NULL
		ORDER BY temperature DESC, seq LIMIT 1`, tr.Start, tr.End)
}

func (r *ReadingRepo) TemperatureBetween(ctx context.Context, low, high float64) ([]*models.Reading, error) {
	rows := []readingRow{}
	err := r.db.GetDB().SelectContext(ctx, &rows, `
		SELECT `+readingColumns+` FROM readings
		WHERE temperature BETWEEN $1 AND $2
		ORDER BY seq`, low, high)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to query readings", err)
	}
	out := make([]*models.Reading, 0, len(rows))
	for _, row := range rows {
		reading, err := row.reading()
		if err != nil {
			return nil, err
		}
		out = append(out, reading)
	}
	return out, nil
}

func (r *ReadingRepo) MaxPrecipitationSince(ctx context.Context, deviceName string, since time.Time) (*models.Reading, error) {
	return r.getOne(ctx, r.db.GetDB(), `
		SELECT `+readingColumns+` FROM readings
		WHERE device_name = $1 AND recorded_at >= $2 AND precipitation IS NOT NULL
		ORDER BY precipitation DESC, seq LIMIT 1`, deviceName, since)
}

func (r *ReadingRepo) MaxTemperatureByDevice(ctx context.Context, tr models.TimeRange) ([]models.DevicePeak, error) {
	var rows []struct {
		DeviceName     string          `db:"device_name"`
		MaxTemperature sql.NullFloat64 `db:"max_temperature"`
		FirstTime      time.Time       `db:"first_time"`
	}
	err := r.db.GetDB().SelectContext(ctx, &rows, `
		SELECT device_name,
			MAX(temperature) AS max_temperature,
			(ARRAY_AGG(recorded_at ORDER BY seq))[1] AS first_time
		FROM readings
		WHERE recorded_at BETWEEN $1 AND $2
		GROUP BY device_name
		ORDER BY device_name`, tr.Start, tr.End)
	if err != nil {
		return nil, errors.NewDatabaseError("failed to aggregate readings", err)
	}
	out := make([]models.DevicePeak, 0, len(rows))
	for _, row := range rows {
		peak := models.DevicePeak{DeviceName: row.DeviceName, Time: row.FirstTime.UTC()}
		if row.MaxTemperature.Valid {
			peak.Value = models.Float(row.MaxTemperature.Float64)
		}
		out = append(out, peak)
	}
	return out, nil
}

// Update applies the fields under a row lock and only writes when the
// document actually changes, mirroring a $set's modified count.
func (r *ReadingRepo) Update(ctx context.Context, id string, fields map[string]any) (int64, error) {
	if !validID(id) {
		return 0, repository.ErrInvalidID
	}
	tx, err := r.BeginTx(ctx)
	if err != nil {
		return 0, err
	}
	defer r.Rollback(tx)

	current, err := r.getOne(ctx, tx, `SELECT `+readingColumns+` FROM readings WHERE id = $1 FOR UPDATE`, id)
	if stderrors.Is(err, repository.ErrNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	updated := current.Clone()
	if err := updated.Apply(fields); err != nil {
		return 0, err
	}
	same, err := sameDocument(current, updated)
	if err != nil || same {
		return 0, err
	}

	_, err = tx.NamedExecContext(ctx, `
		UPDATE readings SET
			device_name = :device_name,
			recorded_at = :recorded_at,
			temperature = :temperature,
			precipitation = :precipitation,
			data = :data
		WHERE id = :id`, newReadingRow(updated))
	if err != nil {
		return 0, errors.NewDatabaseError("failed to update reading", err)
	}
	if err := r.Commit(tx); err != nil {
		return 0, err
	}
	return 1, nil
}

func (r *ReadingRepo) Delete(ctx context.Context, id string) error {
	if !validID(id) {
		return repository.ErrInvalidID
	}
	result, err := r.ExecContext(ctx, `DELETE FROM readings WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := r.rowsAffected(result)
	if err != nil {
		return err
	}
	if n == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *ReadingRepo) getOne(ctx context.Context, q sqlx.QueryerContext, query string, args ...interface{}) (*models.Reading, error) {
	var row readingRow
	if err := sqlx.GetContext(ctx, q, &row, query, args...); err != nil {
		if stderrors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, errors.NewDatabaseError("failed to get reading", err)
	}
	return row.reading()
}

func sameDocument(a, b *models.Reading) (bool, error) {
	left, err := json.Marshal(a)
	if err != nil {
		return false, err
	}
	right, err := json.Marshal(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(left, right), nil
}

type DeletionLogRepo struct {
	PostgresBaseRepo
}

// NewDeletionLogRepository creates a PostgreSQL-backed deletion log
func NewDeletionLogRepository(db database.DB) *DeletionLogRepo {
	return &DeletionLogRepo{PostgresBaseRepo: PostgresBaseRepo{db: db}}
}

// Append keeps the reading's id; an entry that is already logged is left as is
func (r *DeletionLogRepo) Append(ctx context.Context, entry *models.DeletionLogEntry) error {
	doc := entry.Reading.Document()
	delete(doc, models.FieldID)
	_, err := r.ExecContext(ctx, `
		INSERT INTO deleted_logs (id, deleted_at, data) VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING`, entry.Reading.ID, entry.DeletedAt, doc)
	return err
}

func (r *DeletionLogRepo) List(ctx context.Context) ([]*models.DeletionLogEntry, error) {
	var rows []struct {
		ID        string          `db:"id"`
		DeletedAt time.Time       `db:"deleted_at"`
		Data      models.Document `db:"data"`
	}
	if err := r.db.GetDB().SelectContext(ctx, &rows, `SELECT id, deleted_at, data FROM deleted_logs ORDER BY deleted_at`); err != nil {
		return nil, errors.NewDatabaseError("failed to list deletion log", err)
	}
	out := make([]*models.DeletionLogEntry, 0, len(rows))
	for _, row := range rows {
		doc := row.Data
		doc[models.FieldID] = row.ID
		reading, err := models.ReadingFromDocument(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, &models.DeletionLogEntry{Reading: reading, DeletedAt: row.DeletedAt.UTC()})
	}
	return out, nil
}
