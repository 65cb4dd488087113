package service

import (
	"time"

	"github.com/zekarki/WeatherAPI/internal/auth"
	"github.com/zekarki/WeatherAPI/internal/cleanup"
	"github.com/zekarki/WeatherAPI/internal/errors"
	"github.com/zekarki/WeatherAPI/internal/repository"
)

// Service contains all repositories and service-wide dependencies
type Service struct {
	readings    repository.ReadingRepository
	deletionLog repository.DeletionLogRepository
	users       repository.UserRepository
	sessions    repository.SessionRepository
	credentials *auth.CredentialStore
	tokens      *auth.TokenIssuer
	Cleanup     *cleanup.CleanupService
	now         func() time.Time
}

// New creates a new service instance
func New(
	readings repository.ReadingRepository,
	deletionLog repository.DeletionLogRepository,
	users repository.UserRepository,
	sessions repository.SessionRepository,
	credentials *auth.CredentialStore,
	tokens *auth.TokenIssuer,
) *Service {
	return &Service{
		readings:    readings,
		deletionLog: deletionLog,
		users:       users,
		sessions:    sessions,
		credentials: credentials,
		tokens:      tokens,
		Cleanup:     cleanup.New(readings, deletionLog, users),
		now:         time.Now,
	}
}

// Validate checks if all required repositories are initialized
func (s *Service) Validate() error {
	if s.readings == nil {
		return ErrMissingRepository("readings")
	}
	if s.deletionLog == nil {
		return ErrMissingRepository("deletionLog")
	}
	if s.users == nil {
		return ErrMissingRepository("users")
	}
	if s.sessions == nil {
		return ErrMissingRepository("sessions")
	}
	return nil
}

// ReadingIDs exposes the reading store's identifier check to validators
func (s *Service) ReadingIDs() repository.IDValidator {
	return s.readings
}

// UserIDs exposes the user store's identifier check to validators
func (s *Service) UserIDs() repository.IDValidator {
	return s.users
}

func ErrMissingRepository(name string) error {
	return errors.NewInternalError("missing repository: "+name, nil)
}
