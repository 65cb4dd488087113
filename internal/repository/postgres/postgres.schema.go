package postgres

import (
	"context"

	"github.com/google/uuid"
	nuts "github.com/vaudience/go-nuts"
	"github.com/zekarki/WeatherAPI/internal/database"
	"github.com/zekarki/WeatherAPI/internal/errors"
)

// Readings keep their full document in data; the typed columns exist for
// filtering and ordering. seq preserves insertion order.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS readings (
		id            UUID PRIMARY KEY,
		seq           BIGSERIAL,
		device_name   TEXT NOT NULL DEFAULT '',
		recorded_at   TIMESTAMPTZ,
		temperature   DOUBLE PRECISION,
		precipitation DOUBLE PRECISION,
		data          JSONB NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS readings_device_name_idx ON readings (device_name)`,
	`CREATE INDEX IF NOT EXISTS readings_recorded_at_idx ON readings (recorded_at)`,
	`CREATE TABLE IF NOT EXISTS deleted_logs (
		id         UUID PRIMARY KEY,
		deleted_at TIMESTAMPTZ NOT NULL,
		data       JSONB NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id         UUID PRIMARY KEY,
		username   TEXT NOT NULL UNIQUE,
		password   TEXT NOT NULL,
		role       TEXT NOT NULL,
		last_login TIMESTAMPTZ NOT NULL,
		created_at TIMESTAMPTZ NOT NULL
	)`,
}

// EnsureSchema creates the tables and indexes when they do not exist yet
func EnsureSchema(ctx context.Context, db database.DB) error {
	for _, stmt := range schema {
		if _, err := db.GetDB().ExecContext(ctx, stmt); err != nil {
			return errors.NewDatabaseError("failed to apply schema", err)
		}
	}
	nuts.L.Infof("[PostgresDB] Schema ready (%d statements)", len(schema))
	return nil
}

func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
