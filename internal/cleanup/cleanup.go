package cleanup

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	nuts "github.com/vaudience/go-nuts"
	"github.com/zekarki/WeatherAPI/internal/models"
	"github.com/zekarki/WeatherAPI/internal/repository"
)

// Cleanup events
const (
	EventReadingDeleted = "reading.deleted"
	EventUsersDeleted   = "users.deleted"
	EventUsersPurged    = "users.purged"
)

// CleanupService coordinates removal of readings and identities
type CleanupService struct {
	readings repository.ReadingRepository
	log      repository.DeletionLogRepository
	users    repository.UserRepository
	events   *nuts.EventEmitter
	now      func() time.Time
}

// New creates a new CleanupService
func New(
	readings repository.ReadingRepository,
	log repository.DeletionLogRepository,
	users repository.UserRepository,
) *CleanupService {
	return &CleanupService{
		readings: readings,
		log:      log,
		users:    users,
		events:   nuts.NewEventEmitter(),
		now:      time.Now,
	}
}

// DeleteReading copies a reading into the deletion log and then removes it.
// The log is written first, so a failure in between leaves a duplicate log
// entry rather than a lost reading.
func (s *CleanupService) DeleteReading(ctx context.Context, id string) error {
	reading, err := s.readings.Get(ctx, id)
	if err != nil {
		return err
	}

	entry := &models.DeletionLogEntry{Reading: reading, DeletedAt: s.now().UTC()}
	if err := s.log.Append(ctx, entry); err != nil {
		return fmt.Errorf("failed to log reading deletion: %w", err)
	}

	if err := s.readings.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete reading: %w", err)
	}

	s.events.Emit(EventReadingDeleted, id)
	return nil
}

// DeleteReadings deletes each reading in order and returns how many were
// removed. Ids that no longer exist are skipped.
func (s *CleanupService) DeleteReadings(ctx context.Context, ids []string) (int, error) {
	deleted := 0
	for _, id := range ids {
		err := s.DeleteReading(ctx, id)
		if errors.Is(err, repository.ErrNotFound) {
			continue
		}
		if err != nil {
			return deleted, err
		}
		deleted++
	}
	return deleted, nil
}

// DeleteUsers removes identities of role whose last login lies in tr
func (s *CleanupService) DeleteUsers(ctx context.Context, role models.Role, tr models.TimeRange) (int64, error) {
	n, err := s.users.DeleteByRoleLastLogin(ctx, role, tr)
	if err != nil {
		return 0, fmt.Errorf("failed to delete users: %w", err)
	}
	if n > 0 {
		s.events.Emit(EventUsersDeleted, strconv.FormatInt(n, 10))
	}
	return n, nil
}

// PurgeInactiveUsers removes identities that have not logged in within window
func (s *CleanupService) PurgeInactiveUsers(ctx context.Context, window time.Duration) (int64, error) {
	cutoff := s.now().UTC().Add(-window)
	n, err := s.users.PurgeInactive(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge inactive users: %w", err)
	}
	if n > 0 {
		s.events.Emit(EventUsersPurged, strconv.FormatInt(n, 10))
	}
	return n, nil
}

// RunRetention purges inactive identities every interval until ctx is done
func (s *CleanupService) RunRetention(ctx context.Context, window, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := s.PurgeInactiveUsers(ctx, window)
			if err != nil {
				nuts.L.Errorf("[Cleanup] Retention sweep failed: %v", err)
				continue
			}
			if n > 0 {
				nuts.L.Infof("[Cleanup] Purged %d inactive identities", n)
			}
		}
	}
}

// OnCleanup registers a callback for cleanup events
func (s *CleanupService) OnCleanup(event string, handler func(id string)) {
	s.events.On(event, "cleanup_handler", func(args ...interface{}) {
		if len(args) > 0 {
			if id, ok := args[0].(string); ok {
				handler(id)
			}
		}
	})
}
