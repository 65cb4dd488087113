// FilePath: internal/repository/redis/redis.sessions.go
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/zekarki/WeatherAPI/internal/models"
	"github.com/zekarki/WeatherAPI/internal/repository"
)

// SessionRepo stores sessions as JSON values that expire with the token
type SessionRepo struct {
	client goredis.UniversalClient
	prefix string
	now    func() time.Time
}

// NewSessionRepository creates a Redis-backed session repository
func NewSessionRepository(client goredis.UniversalClient, prefix string) *SessionRepo {
	return &SessionRepo{client: client, prefix: prefix, now: time.Now}
}

func (r *SessionRepo) key(id string) string {
	return r.prefix + id
}

func (r *SessionRepo) Create(ctx context.Context, session *models.Session) error {
	ttl := session.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", session.ID)
	}
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to encode session: %w", err)
	}
	if err := r.client.Set(ctx, r.key(session.ID), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to store session: %w", err)
	}
	return nil
}

func (r *SessionRepo) Get(ctx context.Context, id string) (*models.Session, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}
	session := &models.Session{}
	if err := json.Unmarshal(data, session); err != nil {
		return nil, fmt.Errorf("failed to decode session: %w", err)
	}
	if !session.Active(r.now()) {
		return nil, repository.ErrNotFound
	}
	return session, nil
}

func (r *SessionRepo) Revoke(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to revoke session: %w", err)
	}
	return nil
}
