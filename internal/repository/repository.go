// FilePath: internal/repository/repository.go
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/zekarki/WeatherAPI/internal/models"
)

var (
	// ErrNotFound indicates that a requested resource was not found
	ErrNotFound = errors.New("resource not found")
	// ErrDuplicate indicates that a resource already exists
	ErrDuplicate = errors.New("resource already exists")
	// ErrInvalidInput indicates that the input data is invalid
	ErrInvalidInput = errors.New("invalid input")
	// ErrInvalidID indicates an identifier the store cannot convert to its native id type
	ErrInvalidID = errors.New("invalid identifier")
)

// IDValidator reports whether an opaque identifier is convertible to the store's id type
type IDValidator interface {
	ValidID(id string) bool
}

// ReadingRepository defines the interface for weather reading operations
type ReadingRepository interface {
	IDValidator
	Insert(ctx context.Context, reading *models.Reading) (string, error)
	InsertMany(ctx context.Context, readings []*models.Reading) ([]string, error)
	Get(ctx context.Context, id string) (*models.Reading, error)
	// FirstInRange returns the first reading of a device within the range
	FirstInRange(ctx context.Context, deviceName string, tr models.TimeRange) (*models.Reading, error)
	// MaxTemperatureInRange returns the reading with the highest temperature within the range
	MaxTemperatureInRange(ctx context.Context, tr models.TimeRange) (*models.Reading, error)
	// TemperatureBetween returns readings whose temperature lies in [low, high]
	TemperatureBetween(ctx context.Context, low, high float64) ([]*models.Reading, error)
	// MaxPrecipitationSince returns the device's reading with the highest precipitation after since
	MaxPrecipitationSince(ctx context.Context, deviceName string, since time.Time) (*models.Reading, error)
	// MaxTemperatureByDevice aggregates the highest temperature per device within the range
	MaxTemperatureByDevice(ctx context.Context, tr models.TimeRange) ([]models.DevicePeak, error)
	// Update sets fields on one reading and reports how many documents changed
	Update(ctx context.Context, id string, fields map[string]any) (int64, error)
	Delete(ctx context.Context, id string) error
}

// DeletionLogRepository keeps copies of deleted readings
type DeletionLogRepository interface {
	Append(ctx context.Context, entry *models.DeletionLogEntry) error
	List(ctx context.Context) ([]*models.DeletionLogEntry, error)
}

// UserRepository defines the interface for identity operations
type UserRepository interface {
	IDValidator
	Create(ctx context.Context, identity *models.Identity) (string, error)
	Get(ctx context.Context, id string) (*models.Identity, error)
	FindByUsername(ctx context.Context, username string) (*models.Identity, error)
	Delete(ctx context.Context, id string) error
	// DeleteByRoleLastLogin removes identities of a role whose last login lies in the range
	DeleteByRoleLastLogin(ctx context.Context, role models.Role, tr models.TimeRange) (int64, error)
	// UpdateRoleCreatedBetween assigns role to identities created within the range
	UpdateRoleCreatedBetween(ctx context.Context, tr models.TimeRange, role models.Role) (int64, error)
	TouchLogin(ctx context.Context, id string, at time.Time) error
	// PurgeInactive removes identities whose last login is before the cutoff
	PurgeInactive(ctx context.Context, before time.Time) (int64, error)
}

// SessionRepository tracks issued bearer sessions
type SessionRepository interface {
	Create(ctx context.Context, session *models.Session) error
	Get(ctx context.Context, id string) (*models.Session, error)
	Revoke(ctx context.Context, id string) error
}
